package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/jobboard/crawler/internal/domain"
	"github.com/jobboard/crawler/internal/lock"
)

type stubTrigger struct {
	err    error
	panic  bool
	calls  int
	ctxErr error
}

func (s *stubTrigger) Fire(ctx context.Context) (*domain.CrawlResult, error) {
	s.calls++
	s.ctxErr = ctx.Err()
	if s.ctxErr != nil {
		return nil, s.ctxErr
	}
	if s.panic {
		panic("parser exploded")
	}
	if s.err != nil {
		return nil, s.err
	}
	return &domain.CrawlResult{RunID: "run-1", Inserted: 2}, nil
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(ctx context.Context) error { return p.err }

func newTestApp(trigger *stubTrigger, pinger stubPinger) *fiber.App {
	logger := zap.NewNop()
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logger)})
	app.Use(recover.New())
	SetupRoutes(app, &Dependencies{Store: pinger, Trigger: trigger, Logger: logger})
	return app
}

func do(t *testing.T, app *fiber.App, method, path string) (int, string) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(method, path, nil), -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func decode(t *testing.T, body string) map[string]string {
	t.Helper()
	var m map[string]string
	if err := json.Unmarshal([]byte(body), &m); err != nil {
		t.Fatalf("decode %q: %v", body, err)
	}
	return m
}

func TestCrawl_PostSucceeds(t *testing.T) {
	trigger := &stubTrigger{}
	app := newTestApp(trigger, stubPinger{})

	for _, path := range []string{"/", "/crawl"} {
		code, body := do(t, app, http.MethodPost, path)
		if code != http.StatusOK {
			t.Fatalf("POST %s status = %d, body %s", path, code, body)
		}
		if got := decode(t, body)["message"]; got != "Crawling and data upsert completed" {
			t.Errorf("POST %s message = %q", path, got)
		}
	}
	if trigger.calls != 2 {
		t.Errorf("trigger calls = %d, want 2", trigger.calls)
	}
}

func TestCrawl_OtherMethodsGetUsageHint(t *testing.T) {
	trigger := &stubTrigger{}
	app := newTestApp(trigger, stubPinger{})

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		code, body := do(t, app, method, "/crawl")
		if code != http.StatusBadRequest {
			t.Errorf("%s status = %d, want 400", method, code)
		}
		if body == "" || body[0] == '{' {
			t.Errorf("%s body = %q, want plain text hint", method, body)
		}
	}
	if trigger.calls != 0 {
		t.Errorf("trigger must not fire for non-POST requests")
	}
}

func TestCrawl_FailureIs500(t *testing.T) {
	app := newTestApp(&stubTrigger{err: errors.New("store unreachable")}, stubPinger{})

	code, body := do(t, app, http.MethodPost, "/crawl")
	if code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", code)
	}
	m := decode(t, body)
	if m["error"] != "Internal server error" || m["details"] != "store unreachable" {
		t.Errorf("body = %v", m)
	}
}

func TestCrawl_PanicIs500(t *testing.T) {
	app := newTestApp(&stubTrigger{panic: true}, stubPinger{})

	code, body := do(t, app, http.MethodPost, "/crawl")
	if code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", code)
	}
	m := decode(t, body)
	if m["error"] != "Internal server error" || m["details"] != "parser exploded" {
		t.Errorf("body = %v", m)
	}
}

func TestCrawl_AlreadyRunningIs409(t *testing.T) {
	app := newTestApp(&stubTrigger{err: lock.ErrLocked}, stubPinger{})

	code, _ := do(t, app, http.MethodPost, "/crawl")
	if code != http.StatusConflict {
		t.Errorf("status = %d, want 409", code)
	}
}

func TestHealth(t *testing.T) {
	code, body := do(t, newTestApp(&stubTrigger{}, stubPinger{}), http.MethodGet, "/health")
	if code != http.StatusOK || decode(t, body)["store_status"] != "healthy" {
		t.Errorf("healthy store: %d %s", code, body)
	}

	code, body = do(t, newTestApp(&stubTrigger{}, stubPinger{err: errors.New("down")}), http.MethodGet, "/health")
	if code != http.StatusServiceUnavailable || decode(t, body)["store_status"] != "unhealthy" {
		t.Errorf("unhealthy store: %d %s", code, body)
	}
}

func TestCrawl_ShutdownCancelsRun(t *testing.T) {
	base, cancel := context.WithCancel(context.Background())
	cancel()

	trigger := &stubTrigger{}
	logger := zap.NewNop()
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logger)})
	SetupRoutes(app, &Dependencies{Store: stubPinger{}, Trigger: trigger, Logger: logger, BaseContext: base})

	status, body := do(t, app, http.MethodPost, "/crawl")
	if !errors.Is(trigger.ctxErr, context.Canceled) {
		t.Fatalf("trigger saw ctx error %v, want context.Canceled", trigger.ctxErr)
	}
	if status != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", status)
	}
	if got := decode(t, body)["details"]; got != context.Canceled.Error() {
		t.Errorf("details = %q", got)
	}
}
