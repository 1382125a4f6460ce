// Package gateway is the HTTP surface of the record-scoped chat service:
// one streaming chat endpoint, a per-session trace read endpoint, health and
// metrics.
package gateway

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yaronbeen/Shamay-AI-Official-sub006/internal/agent"
	"github.com/yaronbeen/Shamay-AI-Official-sub006/internal/intake"
	"github.com/yaronbeen/Shamay-AI-Official-sub006/internal/observability"
	"github.com/yaronbeen/Shamay-AI-Official-sub006/internal/security"
	"github.com/yaronbeen/Shamay-AI-Official-sub006/internal/sessions"
	"github.com/yaronbeen/Shamay-AI-Official-sub006/internal/trace"
)

// ServerConfig wires the gateway's dependencies and presentation knobs.
type ServerConfig struct {
	Sessions sessions.Provider
	Provider agent.LLMProvider

	// InputFilter / OutputFilter / Scanner default to fresh instances.
	InputFilter  *security.Filter
	OutputFilter *security.OutputFilter
	Scanner      *intake.Scanner

	// TraceStore backs the trace read endpoint. Default: NewStore(0).
	TraceStore *trace.Store

	// ExtraSinks receive trace events in addition to the store.
	ExtraSinks []trace.Sink

	Logger  *observability.Logger
	Metrics *observability.Metrics

	// Registry exposes /metrics when set.
	Registry *prometheus.Registry

	// Loop tuning. Zero values take the loop defaults.
	MaxIterations int
	MaxTokens     int
	ToolTimeout   time.Duration

	// Presentation: reply text is re-chunked to ChunkRunes runes with
	// ChunkDelay between writes. Defaults: 50 runes, 15ms.
	ChunkRunes int
	ChunkDelay time.Duration
}

// Server handles the chat and trace endpoints.
type Server struct {
	sessions     sessions.Provider
	provider     agent.LLMProvider
	inputFilter  *security.Filter
	outputFilter *security.OutputFilter
	scanner      *intake.Scanner
	store        *trace.Store
	sink         trace.Sink
	logger       *observability.Logger
	metrics      *observability.Metrics
	registry     *prometheus.Registry

	maxIterations int
	maxTokens     int
	toolTimeout   time.Duration
	chunkRunes    int
	chunkDelay    time.Duration
}

// NewServer applies defaults and builds the gateway.
func NewServer(config ServerConfig) *Server {
	if config.InputFilter == nil {
		config.InputFilter = security.NewFilter(nil)
	}
	if config.OutputFilter == nil {
		config.OutputFilter = security.NewOutputFilter()
	}
	if config.Scanner == nil {
		config.Scanner = intake.NewScanner(nil)
	}
	if config.TraceStore == nil {
		config.TraceStore = trace.NewStore(0)
	}
	if config.Logger == nil {
		config.Logger = observability.NewLogger(observability.LogConfig{})
	}
	if config.ChunkRunes <= 0 {
		config.ChunkRunes = 50
	}
	if config.ChunkDelay <= 0 {
		config.ChunkDelay = 15 * time.Millisecond
	}

	sinks := append([]trace.Sink{config.TraceStore}, config.ExtraSinks...)

	return &Server{
		sessions:      config.Sessions,
		provider:      config.Provider,
		inputFilter:   config.InputFilter,
		outputFilter:  config.OutputFilter,
		scanner:       config.Scanner,
		store:         config.TraceStore,
		sink:          trace.MultiSink(sinks),
		logger:        config.Logger,
		metrics:       config.Metrics,
		registry:      config.Registry,
		maxIterations: config.MaxIterations,
		maxTokens:     config.MaxTokens,
		toolTimeout:   config.ToolTimeout,
		chunkRunes:    config.ChunkRunes,
		chunkDelay:    config.ChunkDelay,
	}
}

// Router builds the chi router with the standard middleware chain.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/chat", s.handleChat)
		r.Get("/sessions/{sessionID}/trace", s.handleTrace)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
