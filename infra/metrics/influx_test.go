package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/casesched/core/metrics"
)

func TestInfluxSink_RecordRun(t *testing.T) {
	var body, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		path = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSink(InfluxConfig{URL: srv.URL, Token: "token", Org: "org", Bucket: "bucket"})
	defer func() { _ = sink.Close() }()
	end := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	run := coremetrics.RunSummary{
		RunID:         "run-1",
		Start:         end.Add(-1500 * time.Millisecond),
		End:           end,
		Records:       10,
		RowsLoaded:    9,
		RowsSkipped:   1,
		Matched:       6,
		Proceedings:   4,
		MeanGroupSize: 1.5,
	}
	if err := sink.RecordRun(run); err != nil {
		t.Fatalf("record error: %v", err)
	}
	if path != "/api/v2/write" {
		t.Errorf("unexpected path %s", path)
	}
	expected := strings.TrimSpace(write.PointToLineProtocol(RunPoint(run), time.Nanosecond))
	if strings.TrimSpace(body) != expected {
		t.Errorf("unexpected body: %s\nwant: %s", body, expected)
	}
	if !strings.Contains(body, "success=true") || !strings.Contains(body, "duration_seconds=1.5") {
		t.Errorf("missing tag or field: %s", body)
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(InfluxConfig{
		URL:    srv.URL + "/api/v2/write",
		Token:  "tok",
		Org:    "org",
		Bucket: "bucket",
	})
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
