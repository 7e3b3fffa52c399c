package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"golang.org/x/time/rate"
)

func TestLogging_RecordsStatusAndSize(t *testing.T) {
	logger, hook := test.NewNullLogger()

	handler := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("missing"))
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/nothing", nil))

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatal("expected a log entry")
	}
	if entry.Level != logrus.WarnLevel {
		t.Errorf("got level %v, want warn", entry.Level)
	}
	if entry.Data["status"] != http.StatusNotFound {
		t.Errorf("got status field %v", entry.Data["status"])
	}
	if entry.Data["size"] != int64(7) {
		t.Errorf("got size field %v", entry.Data["size"])
	}
	if entry.Data["path"] != "/api/nothing" {
		t.Errorf("got path field %v", entry.Data["path"])
	}
}

func TestRateLimit(t *testing.T) {
	limiter := rate.NewLimiter(rate.Limit(0), 2)
	handler := RateLimit(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	want := []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}
	for i, code := range want {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/search", nil))
		if rr.Code != code {
			t.Errorf("request %d: got status %d, want %d", i, rr.Code, code)
		}
	}
}
