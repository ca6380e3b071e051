package content

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/LANGCHENGWEN/my-line-weather-bot/internal/domain"
)

// CWA open-data dataset ids.
const (
	datasetForecast36h  = "F-C0032-001" // 今明 36 小時天氣預報
	datasetForecastWeek = "F-D0047-091" // 未來 1 週天氣預報
	datasetTyphoon      = "W-C0034-005" // 熱帶氣旋路徑

	cwaTimeLayout = "2006-01-02 15:04:05"

	typhoonPortalURL = "https://www.cwa.gov.tw/V8/C/P/Typhoon/TY_NEWS.html"
)

// CWAOptions configures the CWA-backed content provider.
type CWAOptions struct {
	BaseURL  string // defaults to the CWA open-data datastore
	APIKey   string
	Timeout  time.Duration
	Location *time.Location
	Logger   *zap.Logger
	// Now overrides the clock; tests use it to pin the solar-term date.
	Now func() time.Time
}

// CWAClient implements Provider against the CWA open-data API.
type CWAClient struct {
	http *resty.Client
	key  string
	loc  *time.Location
	log  *zap.Logger
	now  func() time.Time
}

// NewCWAClient builds the provider. BaseURL and Now have sensible
// defaults; APIKey is required by the API, not validated here.
func NewCWAClient(opts CWAOptions) *CWAClient {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = "https://opendata.cwa.gov.tw/api/v1/rest/datastore"
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(opts.Timeout).
		SetHeader("Accept", "application/json")

	return &CWAClient{http: client, key: opts.APIKey, loc: loc, log: log, now: now}
}

// Fetch builds the notification payload for one job type and city.
func (c *CWAClient) Fetch(ctx context.Context, job domain.JobType, city string) (domain.Payload, error) {
	switch job {
	case domain.DailyWeather:
		return c.dailyWeather(ctx, city)
	case domain.WeekendForecast:
		return c.weekendForecast(ctx, city)
	case domain.TyphoonWatch:
		return c.typhoonBulletin(ctx)
	case domain.SolarTermReminder:
		return c.solarTermNote()
	}
	return domain.Payload{}, fmt.Errorf("unknown job type %q", job)
}

type forecast36hResponse struct {
	Records struct {
		Location []struct {
			LocationName   string `json:"locationName"`
			WeatherElement []struct {
				ElementName string `json:"elementName"`
				Time        []struct {
					StartTime string `json:"startTime"`
					EndTime   string `json:"endTime"`
					Parameter struct {
						ParameterName string `json:"parameterName"`
						ParameterUnit string `json:"parameterUnit"`
					} `json:"parameter"`
				} `json:"time"`
			} `json:"weatherElement"`
		} `json:"location"`
	} `json:"records"`
}

func (c *CWAClient) dailyWeather(ctx context.Context, city string) (domain.Payload, error) {
	var out forecast36hResponse
	if err := c.get(ctx, datasetForecast36h, map[string]string{"locationName": city}, &out); err != nil {
		return domain.Payload{}, err
	}
	if len(out.Records.Location) == 0 {
		return domain.Payload{}, fmt.Errorf("cwa: no forecast for %q", city)
	}

	// First time slot of each element is today's summary.
	first := make(map[string]string)
	for _, el := range out.Records.Location[0].WeatherElement {
		if len(el.Time) > 0 {
			first[el.ElementName] = el.Time[0].Parameter.ParameterName
		}
	}

	text := fmt.Sprintf(
		"☀️ 早安！這是今日 %s 的天氣概況：\n"+
			"☁️ 天氣：%s\n"+
			"🌡️ 氣溫：%s°C ~ %s°C\n"+
			"☔ 降雨機率：%s%%\n"+
			"🚶 體感：%s\n\n"+
			"祝您有美好的一天！",
		city,
		orNA(first["Wx"]), orNA(first["MinT"]), orNA(first["MaxT"]),
		orNA(first["PoP"]), orNA(first["CI"]),
	)
	return textPayload(text)
}

type weekForecastResponse struct {
	Records struct {
		Locations []struct {
			Location []struct {
				LocationName   string `json:"locationName"`
				WeatherElement []struct {
					ElementName string `json:"elementName"`
					Time        []struct {
						StartTime    string `json:"startTime"`
						EndTime      string `json:"endTime"`
						ElementValue []struct {
							Value string `json:"value"`
						} `json:"elementValue"`
					} `json:"time"`
				} `json:"weatherElement"`
			} `json:"location"`
		} `json:"locations"`
	} `json:"records"`
}

func (c *CWAClient) weekendForecast(ctx context.Context, city string) (domain.Payload, error) {
	var out weekForecastResponse
	if err := c.get(ctx, datasetForecastWeek, map[string]string{"locationName": city}, &out); err != nil {
		return domain.Payload{}, err
	}
	if len(out.Records.Locations) == 0 || len(out.Records.Locations[0].Location) == 0 {
		return domain.Payload{}, fmt.Errorf("cwa: no weekly forecast for %q", city)
	}

	// First daytime Wx slot per weekend day.
	byDay := make(map[time.Weekday]string)
	for _, el := range out.Records.Locations[0].Location[0].WeatherElement {
		if el.ElementName != "Wx" {
			continue
		}
		for _, slot := range el.Time {
			start, err := time.ParseInLocation(cwaTimeLayout, slot.StartTime, c.loc)
			if err != nil || len(slot.ElementValue) == 0 {
				continue
			}
			day := start.Weekday()
			if day != time.Saturday && day != time.Sunday {
				continue
			}
			if _, ok := byDay[day]; !ok {
				byDay[day] = slot.ElementValue[0].Value
			}
		}
	}
	if len(byDay) == 0 {
		return domain.Payload{}, fmt.Errorf("cwa: weekly forecast for %q has no weekend slots", city)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🏞️ 週末出遊嗎？%s 的週末天氣：\n", city)
	if wx, ok := byDay[time.Saturday]; ok {
		fmt.Fprintf(&b, "📅 週六：%s\n", wx)
	}
	if wx, ok := byDay[time.Sunday]; ok {
		fmt.Fprintf(&b, "📅 週日：%s\n", wx)
	}
	b.WriteString("\n記得留意天氣變化，祝週末愉快！")
	return textPayload(b.String())
}

type typhoonResponse struct {
	Records struct {
		TropicalCyclones struct {
			TropicalCyclone []struct {
				TyphoonName    string `json:"typhoonName"`
				CwaTyphoonName string `json:"cwaTyphoonName"`
				CwaTdNo        string `json:"cwaTdNo"`
			} `json:"tropicalCyclone"`
		} `json:"tropicalCyclones"`
	} `json:"records"`
}

func (c *CWAClient) typhoonBulletin(ctx context.Context) (domain.Payload, error) {
	var out typhoonResponse
	if err := c.get(ctx, datasetTyphoon, nil, &out); err != nil {
		return domain.Payload{}, err
	}
	cyclones := out.Records.TropicalCyclones.TropicalCyclone
	if len(cyclones) == 0 {
		return domain.Payload{}, ErrNoContent
	}

	name := cyclones[0].CwaTyphoonName
	if name == "" {
		name = cyclones[0].TyphoonName
	}
	text := fmt.Sprintf(
		"🌀 颱風警報：「%s」颱風發布中！\n\n"+
			"請留意中央氣象署最新動態，提前做好防颱準備。\n%s",
		name, typhoonPortalURL,
	)
	return textPayload(text)
}

// ActiveAdvisory reports whether a typhoon advisory is in effect.
func (c *CWAClient) ActiveAdvisory(ctx context.Context) (bool, string, error) {
	var out typhoonResponse
	if err := c.get(ctx, datasetTyphoon, nil, &out); err != nil {
		return false, "", err
	}
	cyclones := out.Records.TropicalCyclones.TropicalCyclone
	if len(cyclones) == 0 {
		return false, "", nil
	}
	id := cyclones[0].CwaTdNo
	if id == "" {
		id = cyclones[0].TyphoonName
	}
	return true, id, nil
}

func (c *CWAClient) solarTermNote() (domain.Payload, error) {
	today := c.now().In(c.loc)
	term, ok := solarTermOn(today)
	if !ok {
		return domain.Payload{}, ErrNoContent
	}
	text := fmt.Sprintf(
		"【節氣小知識】\n\n今天是「%s」！\n\n%s\n\n希望這份小知識能為您帶來生活中的一點樂趣！",
		term.Name, term.Description,
	)
	return textPayload(text)
}

// get performs one authorized datastore request and decodes the body.
func (c *CWAClient) get(ctx context.Context, dataset string, params map[string]string, out any) error {
	req := c.http.R().
		SetContext(ctx).
		SetQueryParam("Authorization", c.key).
		SetResult(out)
	for k, v := range params {
		req.SetQueryParam(k, v)
	}

	resp, err := req.Get("/" + dataset)
	if err != nil {
		return fmt.Errorf("cwa %s: %w", dataset, err)
	}
	if resp.IsError() {
		return fmt.Errorf("cwa %s: status %d", dataset, resp.StatusCode())
	}
	return nil
}

type textMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func textPayload(text string) (domain.Payload, error) {
	raw, err := json.Marshal(textMessage{Type: "text", Text: text})
	if err != nil {
		return domain.Payload{}, err
	}
	return domain.Payload{Messages: []json.RawMessage{raw}}, nil
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
