package telemetry

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Config is the runtime configuration exposed by the hub. Access is guarded
// by the hub's RWMutex since the HTTP handlers run concurrently.
type Config struct {
	HistoryLimit int `json:"historyLimit"`
	SampleEveryN int `json:"sampleEveryN"`
}

const (
	minHistoryLimit = 1
	maxHistoryLimit = 10_000
	minSampleEveryN = 1
	maxSampleEveryN = 1_000
)

func defaultConfig() Config {
	return Config{HistoryLimit: 500, SampleEveryN: 1}
}

func validateConfig(cfg Config, base Config) (Config, error) {
	if base.HistoryLimit == 0 || base.SampleEveryN == 0 {
		base = defaultConfig()
	}
	if cfg.HistoryLimit == 0 {
		cfg.HistoryLimit = base.HistoryLimit
	}
	if cfg.SampleEveryN == 0 {
		cfg.SampleEveryN = base.SampleEveryN
	}

	if cfg.HistoryLimit < minHistoryLimit || cfg.HistoryLimit > maxHistoryLimit {
		return Config{}, fmt.Errorf("history limit must be between %d and %d", minHistoryLimit, maxHistoryLimit)
	}
	if cfg.SampleEveryN < minSampleEveryN || cfg.SampleEveryN > maxSampleEveryN {
		return Config{}, fmt.Errorf("sample decimation must be between %d and %d", minSampleEveryN, maxSampleEveryN)
	}
	return cfg, nil
}

// Sample is a single pointing telemetry point.
type Sample struct {
	Timestamp time.Time `json:"timestamp"`
	Azimuth   float64   `json:"azimuth"`
	Elevation float64   `json:"elevation"`
	Strength  float64   `json:"strength"`
	State     LinkState `json:"state"`
}

// Hub collects pointing history and fans out updates to subscribers.
type Hub struct {
	mu           sync.RWMutex
	history      []Sample
	subscribers  map[chan Sample]struct{}
	config       Config
	reportsSeen  int
}

// NewHub builds a hub with the provided history limit (0 uses the default).
func NewHub(historyLimit int) *Hub {
	cfg := defaultConfig()
	if historyLimit > 0 {
		cfg.HistoryLimit = historyLimit
	}
	cfg, _ = validateConfig(cfg, defaultConfig())
	return &Hub{
		subscribers: make(map[chan Sample]struct{}),
		config:      cfg,
	}
}

// Report implements Reporter and records a new telemetry sample, honouring
// the configured decimation.
func (h *Hub) Report(azimuth, elevation, strength float64, state LinkState) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.reportsSeen++
	if h.reportsSeen%h.config.SampleEveryN != 0 {
		return
	}

	sample := Sample{
		Timestamp: time.Now(),
		Azimuth:   azimuth,
		Elevation: elevation,
		Strength:  strength,
		State:     state,
	}
	h.history = append(h.history, sample)
	if len(h.history) > h.config.HistoryLimit {
		h.history = h.history[len(h.history)-h.config.HistoryLimit:]
	}
	for ch := range h.subscribers {
		select {
		case ch <- sample:
		default:
		}
	}
}

// History returns a copy of stored samples.
func (h *Hub) History() []Sample {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Sample, len(h.history))
	copy(out, h.history)
	return out
}

// Configure applies a runtime configuration after validation, trimming the
// stored history if the limit shrank. Zero-valued fields keep their current
// settings.
func (h *Hub) Configure(cfg Config) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	validated, err := validateConfig(cfg, h.config)
	if err != nil {
		return err
	}
	h.applyConfig(validated)
	return nil
}

// ConfigSnapshot returns the latest validated configuration.
func (h *Hub) ConfigSnapshot() Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.config
}

// Subscribe registers a listener for live updates.
func (h *Hub) Subscribe() (chan Sample, func()) {
	ch := make(chan Sample, 16)
	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()
	cancel := func() {
		h.mu.Lock()
		delete(h.subscribers, ch)
		close(ch)
		h.mu.Unlock()
	}
	return ch, cancel
}

func (h *Hub) applyConfig(cfg Config) {
	h.config = cfg
	if len(h.history) > cfg.HistoryLimit {
		h.history = h.history[len(h.history)-cfg.HistoryLimit:]
	}
}

func (h *Hub) handleHistory(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(h.History())
}

func (h *Hub) handleGetConfig(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(h.ConfigSnapshot())
}

func (h *Hub) handleSetConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var incoming Config
	if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil {
		http.Error(w, fmt.Sprintf("invalid config payload: %v", err), http.StatusBadRequest)
		return
	}

	h.mu.RLock()
	current := h.config
	h.mu.RUnlock()

	cfg, err := validateConfig(incoming, current)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	h.applyConfig(cfg)
	h.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(cfg)
}

func (h *Hub) handleLive(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := h.Subscribe()
	defer cancel()

	for _, sample := range h.History() {
		writeEvent(w, sample)
	}
	flusher.Flush()

	for {
		select {
		case sample, ok := <-ch:
			if !ok {
				return
			}
			writeEvent(w, sample)
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, sample Sample) {
	payload, _ := json.Marshal(sample)
	w.Write([]byte("data: "))
	w.Write(payload)
	w.Write([]byte("\n\n"))
}
