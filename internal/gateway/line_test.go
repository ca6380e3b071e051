package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/LANGCHENGWEN/my-line-weather-bot/internal/domain"
)

func textPayload(text string) domain.Payload {
	msg, _ := json.Marshal(map[string]string{"type": "text", "text": text})
	return domain.Payload{Messages: []json.RawMessage{msg}}
}

func TestPushSendsAuthorizedRequest(t *testing.T) {
	var gotAuth, gotPath string
	var gotBody pushRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(raw, &gotBody); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewLINEClient(LINEOptions{BaseURL: srv.URL, AccessToken: "tok-123", Timeout: 2 * time.Second})
	if err := c.Push(context.Background(), "U001", textPayload("早安")); err != nil {
		t.Fatalf("push: %v", err)
	}

	if gotAuth != "Bearer tok-123" {
		t.Errorf("authorization = %q, want bearer token", gotAuth)
	}
	if gotPath != "/v2/bot/message/push" {
		t.Errorf("path = %q", gotPath)
	}
	if gotBody.To != "U001" || len(gotBody.Messages) != 1 {
		t.Errorf("body = %+v", gotBody)
	}
}

func TestPushClientErrorIsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"The property, 'to', in the request body is invalid"}`))
	}))
	defer srv.Close()

	c := NewLINEClient(LINEOptions{BaseURL: srv.URL, Timeout: 2 * time.Second})
	err := c.Push(context.Background(), "bogus", textPayload("hi"))
	if err == nil {
		t.Fatal("expected error")
	}

	var pe *PushError
	if !errors.As(err, &pe) {
		t.Fatalf("error type = %T", err)
	}
	if pe.Status != http.StatusBadRequest {
		t.Errorf("status = %d", pe.Status)
	}
	if !IsPermanent(err) {
		t.Error("400 should be permanent")
	}
}

func TestPushRateLimitIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewLINEClient(LINEOptions{BaseURL: srv.URL, Timeout: 2 * time.Second})
	err := c.Push(context.Background(), "U001", textPayload("hi"))
	if err == nil {
		t.Fatal("expected error")
	}
	if IsPermanent(err) {
		t.Error("429 should be transient")
	}
}

func TestPushServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewLINEClient(LINEOptions{BaseURL: srv.URL, Timeout: 2 * time.Second})
	err := c.Push(context.Background(), "U001", textPayload("hi"))
	if err == nil {
		t.Fatal("expected error")
	}
	if IsPermanent(err) {
		t.Error("500 should be transient")
	}
}

func TestIsPermanentIgnoresNetworkErrors(t *testing.T) {
	if IsPermanent(errors.New("dial tcp: connection refused")) {
		t.Error("plain errors are transient")
	}
	if IsPermanent(nil) {
		t.Error("nil is not permanent")
	}
}
