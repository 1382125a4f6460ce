package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/yaronbeen/Shamay-AI-Official-sub006/internal/i18n"
	"github.com/yaronbeen/Shamay-AI-Official-sub006/internal/observability"
	"github.com/yaronbeen/Shamay-AI-Official-sub006/internal/security"
	"github.com/yaronbeen/Shamay-AI-Official-sub006/internal/trace"
	"github.com/yaronbeen/Shamay-AI-Official-sub006/pkg/models"
)

const responseBufferSize = 16

// LoopConfig configures orchestration behavior.
type LoopConfig struct {
	// MaxIterations caps tool rounds per request. Default: 10.
	MaxIterations int

	// MaxTokens is the per-round response token limit. Default: 4096.
	MaxTokens int

	// ToolTimeout bounds each tool execution. Default: 30s.
	ToolTimeout time.Duration

	// OutputFilter screens every response text segment. Required.
	OutputFilter *security.OutputFilter

	// Ambient stack. Any of these may be nil.
	Logger  *observability.Logger
	Metrics *observability.Metrics
	Tracer  *observability.Tracer
	Trace   trace.Sink
}

// DefaultLoopConfig returns the default configuration without an output
// filter; callers must supply one.
func DefaultLoopConfig() *LoopConfig {
	return &LoopConfig{
		MaxIterations: 10,
		MaxTokens:     4096,
		ToolTimeout:   30 * time.Second,
	}
}

func sanitizeLoopConfig(config *LoopConfig) *LoopConfig {
	if config == nil {
		return DefaultLoopConfig()
	}
	cfg := *config
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = 10
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}
	if cfg.ToolTimeout <= 0 {
		cfg.ToolTimeout = 30 * time.Second
	}
	if cfg.Trace == nil {
		cfg.Trace = trace.NopSink{}
	}
	if cfg.Tracer == nil {
		cfg.Tracer = observability.NewTracer()
	}
	return &cfg
}

// Request is one orchestrated chat turn: the sanitized user message plus the
// caller-supplied history, scoped to a session and a response language.
// History turns are flattened to their text before reaching the provider.
type Request struct {
	SessionID string
	Model     string
	System    string
	History   []models.ConversationTurn
	Message   CompletionMessage
	Lang      language.Tag
}

// Loop drives the model/tool conversation for one request:
//
//	start → model call → {tool dispatch → model call | finalize} → end
//
// Reaching the iteration cap finalizes with a fixed localized message rather
// than an error. The response channel is closed exactly once on every path.
type Loop struct {
	provider LLMProvider
	registry *ToolRegistry
	config   *LoopConfig
}

// NewLoop creates an orchestration loop. A nil registry means no tools.
func NewLoop(provider LLMProvider, registry *ToolRegistry, config *LoopConfig) *Loop {
	if registry == nil {
		registry = NewToolRegistry()
	}
	return &Loop{
		provider: provider,
		registry: registry,
		config:   sanitizeLoopConfig(config),
	}
}

type loopState struct {
	phase        LoopPhase
	iteration    int
	messages     []CompletionMessage
	inputTokens  int
	outputTokens int
}

// Run executes the loop and streams the reply. The returned channel is
// closed when the loop completes, errs, or the context is cancelled.
func (l *Loop) Run(ctx context.Context, req *Request) (<-chan *ResponseChunk, error) {
	if l.provider == nil {
		return nil, ErrNoProvider
	}
	if req == nil {
		return nil, &ValidationError{Field: "request", Message: "missing"}
	}
	if req.Message.Role == "" {
		req.Message.Role = string(models.RoleUser)
	}
	if req.Message.Content == "" && len(req.Message.Attachments) == 0 {
		return nil, &ValidationError{Field: "message", Message: "empty"}
	}
	if l.config.OutputFilter == nil {
		return nil, fmt.Errorf("output filter not configured")
	}

	chunks := make(chan *ResponseChunk, responseBufferSize)

	go func() {
		defer close(chunks)
		l.run(ctx, req, chunks)
	}()

	return chunks, nil
}

func (l *Loop) run(ctx context.Context, req *Request, chunks chan<- *ResponseChunk) {
	state := &loopState{phase: PhaseStart}
	state.messages = make([]CompletionMessage, 0, len(req.History)+1)
	for _, turn := range req.History {
		text := turn.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		role := turn.Role
		if role != models.RoleAssistant {
			role = models.RoleUser
		}
		state.messages = append(state.messages, CompletionMessage{Role: string(role), Content: text})
	}
	state.messages = append(state.messages, req.Message)

	for state.iteration < l.config.MaxIterations {
		if err := ctx.Err(); err != nil {
			l.fail(ctx, req, state, chunks, &TransportError{Cause: err})
			return
		}

		state.phase = PhaseModelCall
		segments, toolCalls, err := l.modelCall(ctx, req, state)
		if err != nil {
			l.fail(ctx, req, state, chunks, &UpstreamModelError{
				Provider: l.provider.Name(),
				Model:    l.model(req),
				Cause:    err,
			})
			return
		}

		// Any text the model produced reaches the caller, so every
		// segment goes through the output filter, tool rounds included.
		visible := l.emitFiltered(req, segments, chunks)

		if len(toolCalls) == 0 {
			state.phase = PhaseFinalize
			l.finish(req, state, chunks, visible)
			return
		}

		state.messages = append(state.messages, CompletionMessage{
			Role:      string(models.RoleAssistant),
			Content:   strings.Join(segments, "\n"),
			ToolCalls: toolCalls,
		})

		state.phase = PhaseToolDispatch
		results := l.dispatchTools(ctx, req, state, toolCalls, chunks)

		// Results travel on a user-role message, matched to calls by ID.
		state.messages = append(state.messages, CompletionMessage{
			Role:        string(models.RoleUser),
			ToolResults: results,
		})

		state.iteration++
	}

	// Cap reached: graceful fixed message, not an error.
	if l.config.Metrics != nil {
		l.config.Metrics.IterationLimitReached.Inc()
	}
	if l.config.Logger != nil {
		l.config.Logger.Warn(ctx, "iteration limit reached",
			"session_id", req.SessionID, "iterations", state.iteration,
			"error", ErrIterationLimit)
	}
	limitMsg := i18n.T(req.Lang, i18n.KeyIterationLimit)
	chunks <- &ResponseChunk{Text: limitMsg}
	state.phase = PhaseFinalize
	l.finish(req, state, chunks, limitMsg)
}

func (l *Loop) model(req *Request) string {
	if req.Model != "" {
		return req.Model
	}
	return l.provider.DefaultModel()
}

func (l *Loop) recordModelCall(model string, start time.Time, status string) {
	if l.config.Metrics == nil {
		return
	}
	l.config.Metrics.ModelRequestDuration.WithLabelValues(l.provider.Name(), model).Observe(time.Since(start).Seconds())
	l.config.Metrics.ModelRequests.WithLabelValues(l.provider.Name(), model, status).Inc()
}

func (l *Loop) recordTokens(model string, in, out int) {
	if l.config.Metrics == nil {
		return
	}
	l.config.Metrics.ModelTokens.WithLabelValues(l.provider.Name(), model, "input").Add(float64(in))
	l.config.Metrics.ModelTokens.WithLabelValues(l.provider.Name(), model, "output").Add(float64(out))
}

// modelCall streams one model round, collecting text segments (delimited by
// TextEnd markers), complete tool calls, and token usage.
func (l *Loop) modelCall(ctx context.Context, req *Request, state *loopState) ([]string, []models.ToolCall, error) {
	spanCtx, span := l.config.Tracer.StartModelCall(ctx, l.provider.Name(), l.model(req), state.iteration)
	start := time.Now()

	completion, err := l.provider.Complete(spanCtx, &CompletionRequest{
		Model:     l.model(req),
		System:    req.System,
		Messages:  state.messages,
		Tools:     l.registry.Tools(),
		MaxTokens: l.config.MaxTokens,
	})
	if err != nil {
		l.recordModelCall(l.model(req), start, "error")
		observability.EndSpan(span, err)
		return nil, nil, err
	}

	var (
		segments  []string
		current   strings.Builder
		toolCalls []models.ToolCall
	)
	for chunk := range completion {
		if chunk.Error != nil {
			l.recordModelCall(l.model(req), start, "error")
			observability.EndSpan(span, chunk.Error)
			return nil, nil, chunk.Error
		}
		if chunk.Text != "" {
			current.WriteString(chunk.Text)
		}
		if chunk.TextEnd && current.Len() > 0 {
			segments = append(segments, current.String())
			current.Reset()
		}
		if chunk.ToolCall != nil {
			toolCalls = append(toolCalls, *chunk.ToolCall)
		}
		if chunk.Done {
			state.inputTokens += chunk.InputTokens
			state.outputTokens += chunk.OutputTokens
			l.recordTokens(l.model(req), chunk.InputTokens, chunk.OutputTokens)
		}
	}
	if current.Len() > 0 {
		segments = append(segments, current.String())
	}

	l.recordModelCall(l.model(req), start, "success")
	observability.EndSpan(span, nil)
	return segments, toolCalls, nil
}

// emitFiltered runs each text segment through the output filter and streams
// what survives. A blocked segment is replaced by one fixed safe message.
// Returns the visible text for tracing.
func (l *Loop) emitFiltered(req *Request, segments []string, chunks chan<- *ResponseChunk) string {
	var visible strings.Builder
	for _, seg := range segments {
		blocked, stripped := l.config.OutputFilter.Check(seg, req.SessionID)
		if blocked {
			if l.config.Metrics != nil {
				l.config.Metrics.SecurityBlocks.WithLabelValues(string(models.ThreatDataExtraction)).Inc()
			}
			replaced := i18n.T(req.Lang, i18n.KeyOutputReplaced)
			chunks <- &ResponseChunk{Text: replaced}
			visible.WriteString(replaced)
			continue
		}
		if stripped == "" {
			continue
		}
		chunks <- &ResponseChunk{Text: stripped}
		visible.WriteString(stripped)
	}
	return visible.String()
}

// dispatchTools executes the round's tool calls sequentially, emitting a
// localized progress notice before each one. Executors are not assumed to be
// side-effect free, so no call runs concurrently with another. A failing
// tool becomes an error result fed back to the model; it never aborts the
// loop.
func (l *Loop) dispatchTools(ctx context.Context, req *Request, state *loopState, calls []models.ToolCall, chunks chan<- *ResponseChunk) []models.ToolResult {
	results := make([]models.ToolResult, 0, len(calls))
	for _, call := range calls {
		label := i18n.ToolLabel(req.Lang, call.Name)
		chunks <- &ResponseChunk{Notice: fmt.Sprintf(i18n.T(req.Lang, i18n.KeyLookingUp), label)}

		l.config.Trace.Emit(models.TraceEvent{
			Type:       models.TraceToolCall,
			SessionID:  req.SessionID,
			ToolName:   call.Name,
			ToolCallID: call.ID,
			Content:    string(call.Input),
		})

		result := l.executeTool(ctx, req, state, call)
		results = append(results, result)

		l.config.Trace.Emit(models.TraceEvent{
			Type:       models.TraceToolResult,
			SessionID:  req.SessionID,
			ToolName:   call.Name,
			ToolCallID: call.ID,
			Latency:    result.Latency,
			IsError:    result.IsError,
		})

		chunks <- &ResponseChunk{ToolResult: &result}
	}
	return results
}

func (l *Loop) executeTool(ctx context.Context, req *Request, state *loopState, call models.ToolCall) models.ToolResult {
	toolCtx, cancel := context.WithTimeout(ctx, l.config.ToolTimeout)
	defer cancel()

	spanCtx, span := l.config.Tracer.StartToolDispatch(toolCtx, call.Name, call.ID)
	start := time.Now()
	res, err := l.registry.Execute(spanCtx, call.Name, call.Input)
	latency := time.Since(start)

	if l.config.Metrics != nil {
		l.config.Metrics.ToolDuration.WithLabelValues(call.Name).Observe(latency.Seconds())
	}

	if err != nil {
		execErr := &ToolExecutionError{ToolName: call.Name, ToolCallID: call.ID, Cause: err}
		observability.EndSpan(span, execErr)
		if l.config.Metrics != nil {
			l.config.Metrics.ToolExecutions.WithLabelValues(call.Name, "error").Inc()
		}
		if l.config.Logger != nil {
			l.config.Logger.Error(ctx, "tool execution failed",
				"session_id", req.SessionID, "tool", call.Name, "error", err)
		}
		return models.ToolResult{
			ToolCallID: call.ID,
			Content:    execErr.Error(),
			IsError:    true,
			Latency:    latency,
		}
	}

	observability.EndSpan(span, nil)
	status := "success"
	if res.IsError {
		status = "error"
	}
	if l.config.Metrics != nil {
		l.config.Metrics.ToolExecutions.WithLabelValues(call.Name, status).Inc()
	}
	return models.ToolResult{
		ToolCallID: call.ID,
		Content:    res.Content,
		IsError:    res.IsError,
		Latency:    latency,
	}
}

func (l *Loop) finish(req *Request, state *loopState, chunks chan<- *ResponseChunk, visible string) {
	l.config.Trace.Emit(models.TraceEvent{
		Type:         models.TraceAssistantResponse,
		SessionID:    req.SessionID,
		Content:      visible,
		InputTokens:  state.inputTokens,
		OutputTokens: state.outputTokens,
	})
	chunks <- &ResponseChunk{
		Done:         true,
		InputTokens:  state.inputTokens,
		OutputTokens: state.outputTokens,
	}
	state.phase = PhaseEnd
}

func (l *Loop) fail(ctx context.Context, req *Request, state *loopState, chunks chan<- *ResponseChunk, cause error) {
	loopErr := &LoopError{Phase: state.phase, Iteration: state.iteration, Cause: cause}
	if l.config.Logger != nil {
		l.config.Logger.Error(ctx, "orchestration loop failed",
			"session_id", req.SessionID, "phase", string(state.phase),
			"iteration", state.iteration, "error", cause)
	}
	l.config.Trace.Emit(models.TraceEvent{
		Type:      models.TraceError,
		SessionID: req.SessionID,
		Content:   loopErr.Error(),
		IsError:   true,
	})
	chunks <- &ResponseChunk{Error: loopErr}
	state.phase = PhaseEnd
}
