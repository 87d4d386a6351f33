package telemetry

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHubTrimsHistory(t *testing.T) {
	h := NewHub(3)
	for i := 0; i < 10; i++ {
		h.Report(float64(i), 0, 0.5, LinkTracking)
	}
	got := h.History()
	if len(got) != 3 {
		t.Fatalf("expected 3 retained samples, got %d", len(got))
	}
	if got[0].Azimuth != 7 || got[2].Azimuth != 9 {
		t.Fatalf("expected newest samples retained, got %v..%v", got[0].Azimuth, got[2].Azimuth)
	}
}

func TestHubDecimation(t *testing.T) {
	h := NewHub(100)
	if err := h.Configure(Config{SampleEveryN: 3}); err != nil {
		t.Fatalf("configure: %v", err)
	}

	for i := 1; i <= 9; i++ {
		h.Report(float64(i), 0, 0.5, LinkTracking)
	}
	got := h.History()
	if len(got) != 3 {
		t.Fatalf("expected every third report kept, got %d", len(got))
	}
	for i, want := range []float64{3, 6, 9} {
		if got[i].Azimuth != want {
			t.Fatalf("sample %d: expected azimuth %v, got %v", i, want, got[i].Azimuth)
		}
	}
}

func TestConfigureAppliesAndValidates(t *testing.T) {
	h := NewHub(100)
	for i := 0; i < 20; i++ {
		h.Report(float64(i), 0, 0.5, LinkTracking)
	}

	if err := h.Configure(Config{HistoryLimit: 4, SampleEveryN: 2}); err != nil {
		t.Fatalf("configure: %v", err)
	}
	if got := h.ConfigSnapshot(); got.HistoryLimit != 4 || got.SampleEveryN != 2 {
		t.Fatalf("config not applied: %+v", got)
	}
	if got := len(h.History()); got != 4 {
		t.Fatalf("expected history trimmed to 4, got %d", got)
	}

	if err := h.Configure(Config{HistoryLimit: 100_000}); err == nil {
		t.Fatal("expected error for oversized history limit")
	}
	if got := h.ConfigSnapshot(); got.HistoryLimit != 4 {
		t.Fatalf("rejected configure mutated hub: %+v", got)
	}

	// Zero fields keep current settings.
	if err := h.Configure(Config{}); err != nil {
		t.Fatalf("configure with zero fields: %v", err)
	}
	if got := h.ConfigSnapshot(); got.HistoryLimit != 4 || got.SampleEveryN != 2 {
		t.Fatalf("zero-field configure changed settings: %+v", got)
	}
}

func TestHubSubscribeFanout(t *testing.T) {
	h := NewHub(10)
	ch, cancel := h.Subscribe()
	defer cancel()

	h.Report(0.01, -0.02, 0.9, LinkTracking)
	select {
	case s := <-ch:
		if s.Azimuth != 0.01 || s.State != LinkTracking {
			t.Fatalf("unexpected sample %+v", s)
		}
	default:
		t.Fatal("expected a buffered sample on the subscription")
	}
}

func TestHubSlowSubscriberDropsSamples(t *testing.T) {
	h := NewHub(100)
	ch, cancel := h.Subscribe()
	defer cancel()

	// Channel buffers 16; overflow must not block the reporter.
	for i := 0; i < 50; i++ {
		h.Report(float64(i), 0, 0.5, LinkTracking)
	}
	if len(ch) != 16 {
		t.Fatalf("expected a full subscriber buffer, got %d", len(ch))
	}
	if got := len(h.History()); got != 50 {
		t.Fatalf("history must keep all samples, got %d", got)
	}
}

func TestConfigEndpointRoundTrip(t *testing.T) {
	h := NewHub(0)

	rec := httptest.NewRecorder()
	h.handleGetConfig(rec, httptest.NewRequest(http.MethodGet, "/api/config", nil))
	var cfg Config
	if err := json.NewDecoder(rec.Body).Decode(&cfg); err != nil {
		t.Fatalf("decode config: %v", err)
	}
	if cfg.HistoryLimit != 500 || cfg.SampleEveryN != 1 {
		t.Fatalf("unexpected default config %+v", cfg)
	}

	body, _ := json.Marshal(Config{HistoryLimit: 50, SampleEveryN: 5})
	rec = httptest.NewRecorder()
	h.handleSetConfig(rec, httptest.NewRequest(http.MethodPost, "/api/config/update", bytes.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("set config status %d: %s", rec.Code, rec.Body.String())
	}
	if got := h.ConfigSnapshot(); got.HistoryLimit != 50 || got.SampleEveryN != 5 {
		t.Fatalf("config not applied: %+v", got)
	}
}

func TestConfigEndpointRejectsBadValues(t *testing.T) {
	h := NewHub(0)
	tests := []struct {
		name string
		cfg  Config
	}{
		{"history_too_large", Config{HistoryLimit: 20_000}},
		{"negative_history", Config{HistoryLimit: -5}},
		{"decimation_too_large", Config{SampleEveryN: 5_000}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, _ := json.Marshal(tt.cfg)
			rec := httptest.NewRecorder()
			h.handleSetConfig(rec, httptest.NewRequest(http.MethodPost, "/api/config/update", bytes.NewReader(body)))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
		})
	}
	if got := h.ConfigSnapshot(); got != defaultConfig() {
		t.Fatalf("rejected config mutated hub: %+v", got)
	}
}

func TestSetConfigMethodNotAllowed(t *testing.T) {
	h := NewHub(0)
	rec := httptest.NewRecorder()
	h.handleSetConfig(rec, httptest.NewRequest(http.MethodGet, "/api/config/update", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestShrinkingHistoryLimitTrimsStored(t *testing.T) {
	h := NewHub(100)
	for i := 0; i < 20; i++ {
		h.Report(float64(i), 0, 0.5, LinkTracking)
	}

	body, _ := json.Marshal(Config{HistoryLimit: 5})
	rec := httptest.NewRecorder()
	h.handleSetConfig(rec, httptest.NewRequest(http.MethodPost, "/api/config/update", bytes.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Fatalf("set config status %d", rec.Code)
	}

	got := h.History()
	if len(got) != 5 {
		t.Fatalf("expected history trimmed to 5, got %d", len(got))
	}
	if got[0].Azimuth != 15 {
		t.Fatalf("expected oldest retained sample 15, got %v", got[0].Azimuth)
	}
}

func TestHistoryEndpoint(t *testing.T) {
	h := NewHub(10)
	h.Report(0.02, -0.01, 0.7, LinkMisaligned)

	rec := httptest.NewRecorder()
	h.handleHistory(rec, httptest.NewRequest(http.MethodGet, "/api/history", nil))
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}
	var samples []Sample
	if err := json.NewDecoder(rec.Body).Decode(&samples); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(samples) != 1 || samples[0].State != LinkMisaligned {
		t.Fatalf("unexpected payload %+v", samples)
	}
}
