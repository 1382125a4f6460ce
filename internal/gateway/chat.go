package gateway

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"

	"github.com/yaronbeen/Shamay-AI-Official-sub006/internal/agent"
	"github.com/yaronbeen/Shamay-AI-Official-sub006/internal/i18n"
	"github.com/yaronbeen/Shamay-AI-Official-sub006/internal/observability"
	"github.com/yaronbeen/Shamay-AI-Official-sub006/internal/prompt"
	"github.com/yaronbeen/Shamay-AI-Official-sub006/internal/sessions"
	"github.com/yaronbeen/Shamay-AI-Official-sub006/internal/tools/property"
	"github.com/yaronbeen/Shamay-AI-Official-sub006/pkg/models"
)

// maxRequestBody bounds the JSON body; multipart is bounded per attachment
// by the intake scanner.
const maxRequestBody = 1 << 20

const maxMultipartMemory = 10 << 20

// historyTurn is the caller-supplied shape of one prior turn. History is
// supplied on every call; the server never persists it.
type historyTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	SessionID string        `json:"session_id"`
	RecordID  string        `json:"record_id"`
	Message   string        `json:"message"`
	Model     string        `json:"model,omitempty"`
	History   []historyTurn `json:"history,omitempty"`

	attachments []models.Attachment
}

type errorResponse struct {
	Error string `json:"error"`
}

type blockedResponse struct {
	Blocked bool   `json:"blocked"`
	Reason  string `json:"reason"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeBlocked maps a security block to its HTTP shape.
func (s *Server) writeBlocked(w http.ResponseWriter, err *agent.SecurityBlockError) {
	writeJSON(w, http.StatusForbidden, blockedResponse{Blocked: true, Reason: err.Reason})
}

// handleChat is POST /v1/chat: screen input, load the record, run the
// orchestration loop and stream the reply as chunked text.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lang := i18n.Match(r.Header.Get("Accept-Language"))

	req, err := s.parseChatRequest(r)
	if err != nil {
		s.countRequest("bad_request")
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: i18n.T(lang, i18n.KeyMessageRequired)})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		s.countRequest("bad_request")
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: i18n.T(lang, i18n.KeyMessageRequired)})
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}
	log := s.logger.WithFields("session_id", req.SessionID, "record_id", req.RecordID)

	// Input screening runs before any model or storage access.
	decision := s.inputFilter.Validate(req.Message, req.SessionID, lang)
	s.countWarnings(decision.Warnings)
	if decision.Blocked {
		blockErr := &agent.SecurityBlockError{Reason: decision.BlockReason, RiskScore: decision.RiskScore}
		s.countRequest("blocked")
		s.countBlocks(decision.Warnings)
		log.Warn(ctx, "input blocked", "risk_score", decision.RiskScore, "error", blockErr)
		s.sink.Emit(models.TraceEvent{
			Type:      models.TraceSecurityBlock,
			SessionID: req.SessionID,
			Content:   req.Message,
			RiskScore: decision.RiskScore,
			Threats:   decision.Warnings,
		})
		s.writeBlocked(w, blockErr)
		return
	}

	accepted, blockErr := s.scanAttachments(req, lang)
	if blockErr != nil {
		s.countRequest("blocked")
		log.Warn(ctx, "attachment blocked", "error", blockErr)
		s.sink.Emit(models.TraceEvent{
			Type:      models.TraceSecurityBlock,
			SessionID: req.SessionID,
			Content:   blockErr.Reason,
		})
		s.writeBlocked(w, blockErr)
		return
	}

	record, err := s.sessions.GetRecord(ctx, req.RecordID)
	if err != nil {
		if errors.Is(err, sessions.ErrNotFound) {
			s.countRequest("not_found")
			writeJSON(w, http.StatusNotFound, errorResponse{Error: i18n.T(lang, i18n.KeyRecordNotFound)})
			return
		}
		s.countRequest("error")
		log.Error(ctx, "record load failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: i18n.T(lang, i18n.KeyGenericError)})
		return
	}
	extractions, err := s.sessions.GetExtractions(ctx, req.RecordID)
	if err != nil {
		log.Warn(ctx, "extraction load failed", "error", err)
	}

	registry := agent.NewToolRegistry()
	for _, tool := range property.Toolset(s.sessions, req.RecordID) {
		registry.MustRegister(tool)
	}

	loop := agent.NewLoop(s.provider, registry, &agent.LoopConfig{
		MaxIterations: s.maxIterations,
		MaxTokens:     s.maxTokens,
		ToolTimeout:   s.toolTimeout,
		OutputFilter:  s.outputFilter,
		Logger:        s.logger,
		Metrics:       s.metrics,
		Trace:         s.sink,
	})

	s.sink.Emit(models.TraceEvent{
		Type:      models.TraceUserMessage,
		SessionID: req.SessionID,
		Content:   decision.Sanitized,
		RiskScore: decision.RiskScore,
		Threats:   decision.Warnings,
	})

	chunks, err := loop.Run(ctx, &agent.Request{
		SessionID: req.SessionID,
		Model:     req.Model,
		System:    prompt.NewSandwich().Wrap(prompt.Build(record, extractions)),
		History:   convertHistory(req.History),
		Message: agent.CompletionMessage{
			Role:        string(models.RoleUser),
			Content:     decision.Sanitized,
			Attachments: accepted,
		},
		Lang: lang,
	})
	if err != nil {
		var verr *agent.ValidationError
		if errors.As(err, &verr) {
			s.countRequest("bad_request")
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: i18n.T(lang, i18n.KeyMessageRequired)})
			return
		}
		s.countRequest("error")
		log.Error(ctx, "loop start failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: i18n.T(lang, i18n.KeyGenericError)})
		return
	}

	s.streamResponse(w, r, req.SessionID, lang, chunks, log)
}

// streamResponse relays loop output as a chunked text stream. Headers go out
// on the first writable chunk, so early loop failures can still map to a
// status code.
func (s *Server) streamResponse(w http.ResponseWriter, r *http.Request, sessionID string, lang language.Tag, chunks <-chan *agent.ResponseChunk, log *observability.Logger) {
	flusher, _ := w.(http.Flusher)
	headersSent := false

	sendHeaders := func() {
		if headersSent {
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("X-Session-ID", sessionID)
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)
		headersSent = true
	}

	write := func(text string) {
		sendHeaders()
		for _, piece := range splitRunes(text, s.chunkRunes) {
			if r.Context().Err() != nil {
				return
			}
			io.WriteString(w, piece)
			if flusher != nil {
				flusher.Flush()
			}
			time.Sleep(s.chunkDelay)
		}
	}

	outcome := "ok"
	for chunk := range chunks {
		switch {
		case chunk.Error != nil:
			// Full detail goes to the log and trace sink only.
			log.Error(r.Context(), "loop failed", "error", chunk.Error)
			outcome = "error"
			if headersSent {
				write(i18n.T(lang, i18n.KeyGenericError))
			} else {
				writeJSON(w, http.StatusInternalServerError, errorResponse{Error: i18n.T(lang, i18n.KeyGenericError)})
				headersSent = true
			}
		case chunk.Notice != "":
			write(chunk.Notice + "\n")
		case chunk.Text != "":
			write(chunk.Text)
		}
	}
	sendHeaders()
	s.countRequest(outcome)
}

// splitRunes cuts s into rune-bounded pieces of at most n runes.
func splitRunes(s string, n int) []string {
	if n <= 0 {
		return []string{s}
	}
	var out []string
	runes := []rune(s)
	for len(runes) > 0 {
		end := n
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[:end]))
		runes = runes[end:]
	}
	return out
}

func (s *Server) parseChatRequest(r *http.Request) (*chatRequest, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		return s.parseMultipart(r)
	}

	var req chatRequest
	body := http.MaxBytesReader(nil, r.Body, maxRequestBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

// parseMultipart normalizes a form upload to the same shape as the JSON
// body: text fields plus attachments.
func (s *Server) parseMultipart(r *http.Request) (*chatRequest, error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return nil, err
	}

	req := &chatRequest{
		SessionID: r.FormValue("session_id"),
		RecordID:  r.FormValue("record_id"),
		Message:   r.FormValue("message"),
		Model:     r.FormValue("model"),
	}
	if raw := r.FormValue("history"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.History); err != nil {
			return nil, err
		}
	}

	if r.MultipartForm == nil {
		return req, nil
	}
	for _, header := range r.MultipartForm.File["attachments"] {
		file, err := header.Open()
		if err != nil {
			return nil, err
		}
		payload, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return nil, err
		}
		req.attachments = append(req.attachments, models.Attachment{
			Name:     header.Filename,
			MimeType: header.Header.Get("Content-Type"),
			Size:     header.Size,
			Payload:  payload,
		})
	}
	return req, nil
}

// scanAttachments screens every attachment. One bad file blocks the whole
// request; accepted files carry their scan verdict and sanitized name.
func (s *Server) scanAttachments(req *chatRequest, lang language.Tag) ([]models.Attachment, *agent.SecurityBlockError) {
	var accepted []models.Attachment
	for _, att := range req.attachments {
		res := s.scanner.Scan(&att, lang)
		if !res.IsValid || !res.IsSafe {
			if s.metrics != nil {
				reason := "unsafe"
				if len(res.Threats) > 0 {
					reason = string(res.Threats[0].Category)
				}
				s.metrics.IntakeRejections.WithLabelValues(reason).Inc()
			}
			reason := res.BlockReason
			if reason == "" {
				reason = i18n.T(lang, i18n.KeyBlockedFile)
			}
			return nil, &agent.SecurityBlockError{Reason: reason}
		}
		att.Name = res.SanitizedName
		att.Scan = &res
		accepted = append(accepted, att)
	}
	return accepted, nil
}

// convertHistory lifts the wire shape into conversation turns. The loop skips
// empty turns and coerces unknown roles.
func convertHistory(history []historyTurn) []models.ConversationTurn {
	out := make([]models.ConversationTurn, 0, len(history))
	for _, turn := range history {
		out = append(out, models.TextTurn(models.Role(turn.Role), turn.Content))
	}
	return out
}

func (s *Server) countRequest(outcome string) {
	if s.metrics != nil {
		s.metrics.ChatRequests.WithLabelValues(outcome).Inc()
	}
}

func (s *Server) countWarnings(threats []models.ThreatDetection) {
	if s.metrics == nil {
		return
	}
	for _, t := range threats {
		s.metrics.SecurityWarnings.WithLabelValues(string(t.Category)).Inc()
	}
}

func (s *Server) countBlocks(threats []models.ThreatDetection) {
	if s.metrics == nil {
		return
	}
	for _, t := range threats {
		if t.Severity == models.SeverityCritical {
			s.metrics.SecurityBlocks.WithLabelValues(string(t.Category)).Inc()
		}
	}
}
