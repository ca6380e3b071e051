package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/LANGCHENGWEN/my-line-weather-bot/internal/config"
	"github.com/LANGCHENGWEN/my-line-weather-bot/internal/content"
	"github.com/LANGCHENGWEN/my-line-weather-bot/internal/dedup"
	"github.com/LANGCHENGWEN/my-line-weather-bot/internal/dispatch"
	"github.com/LANGCHENGWEN/my-line-weather-bot/internal/domain"
	"github.com/LANGCHENGWEN/my-line-weather-bot/internal/gateway"
	"github.com/LANGCHENGWEN/my-line-weather-bot/internal/scheduler"
	"github.com/LANGCHENGWEN/my-line-weather-bot/internal/store"
)

type App struct {
	cfg     config.Config
	log     *zap.Logger
	httpSrv *http.Server
	repo    store.Repo
	dedup   dedup.Store
	coord   *dispatch.Coordinator
}

func New(cfg config.Config, log *zap.Logger) *App {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}

	return &App{cfg: cfg, log: log, httpSrv: srv}
}

func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting weather-bot",
		zap.String("timezone", a.cfg.Timezone),
		zap.String("http", a.cfg.HTTPAddr),
	)

	loc, err := time.LoadLocation(a.cfg.Timezone)
	if err != nil {
		a.log.Error("load timezone failed", zap.Error(err))
		return err
	}

	repo, err := store.OpenSQLite(ctx, a.cfg.DBPath)
	if err != nil {
		a.log.Error("open sqlite failed", zap.Error(err))
		return err
	}
	a.repo = repo
	a.log.Info("sqlite ready", zap.String("path", a.cfg.DBPath))

	dd, err := dedup.OpenRedis(ctx, a.cfg.RedisURL, a.cfg.DedupTTL)
	if err != nil {
		a.log.Error("open redis failed", zap.Error(err))
		_ = repo.Close()
		return err
	}
	a.dedup = dd
	a.log.Info("redis ready")

	provider := content.NewCWAClient(content.CWAOptions{
		APIKey:   a.cfg.CWAAPIKey,
		Timeout:  a.cfg.HTTPTimeout,
		Location: loc,
		Logger:   a.log.Named("cwa"),
	})
	gw := gateway.NewLINEClient(gateway.LINEOptions{
		AccessToken: a.cfg.ChannelAccessToken,
		Timeout:     a.cfg.HTTPTimeout,
		Logger:      a.log.Named("line"),
	})

	a.coord = dispatch.NewCoordinator(dispatch.Options{
		Store:          a.repo,
		Dedup:          a.dedup,
		Provider:       provider,
		Gateway:        gw,
		Logger:         a.log.Named("dispatch"),
		Workers:        a.cfg.DispatchWorkers,
		AttemptTimeout: a.cfg.AttemptTimeout,
	})

	sched := scheduler.New(scheduler.Options{
		Jobs:       domain.DefaultJobs(),
		Location:   loc,
		Advisories: provider,
		Dispatcher: a.coord,
		Interval:   a.cfg.TickInterval,
		Logger:     a.log.Named("scheduler"),
	})

	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go sched.Run(ctx)

	<-ctx.Done()
	a.log.Info("shutdown signal received")

	// Create a short-lived shutdown context and cancel it immediately after use.
	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = a.httpSrv.Shutdown(shCtx)
	cancel()
	if err != nil {
		a.log.Warn("http server shutdown error", zap.Error(err))
	}

	// Let in-flight deliveries finish before closing the stores under them.
	if err := a.coord.Drain(a.cfg.DrainTimeout); err != nil {
		a.log.Warn("drain timeout, abandoning in-flight deliveries", zap.Error(err))
	}

	_ = a.repo.Close()
	_ = a.dedup.Close()
	return nil
}
