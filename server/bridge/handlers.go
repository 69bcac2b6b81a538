package bridge

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	pkgerrors "github.com/AltairaLabs/cosyvoice-bridge/pkg/errors"
	"github.com/AltairaLabs/cosyvoice-bridge/runtime/logger"
	"github.com/AltairaLabs/cosyvoice-bridge/runtime/tts"
)

// copyBufferSize is the read size used when relaying synthesized audio.
const copyBufferSize = 32 * 1024

// errorResponse is the JSON body of every non-2xx bridge response.
type errorResponse struct {
	Error     string         `json:"error"`
	Component string         `json:"component"`
	Operation string         `json:"operation"`
	Details   map[string]any `json:"details,omitempty"`
}

// readyResponse is the body of GET /ready.
type readyResponse struct {
	Checked       bool   `json:"checked"`
	OK            bool   `json:"ok"`
	Voices        int    `json:"voices"`
	CatalogError  string `json:"catalog_error,omitempty"`
	SettingsError string `json:"settings_error,omitempty"`
	DurationMS    int64  `json:"duration_ms"`
}

// settingUpdate is the body of PUT /settings/{field}.
type settingUpdate struct {
	Value any `json:"value"`
}

// synthesisRequest is the body of POST /tts and of each WebSocket message on
// /tts/stream.
type synthesisRequest struct {
	Text             string  `json:"text"`
	Voice            string  `json:"voice"`
	Speed            float64 `json:"speed,omitempty"`
	ForceNoStreaming bool    `json:"force_no_streaming,omitempty"`
}

func (r synthesisRequest) config() tts.SynthesisConfig {
	return tts.SynthesisConfig{Voice: r.Voice, Speed: r.Speed, ForceNoStreaming: r.ForceNoStreaming}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to an HTTP status and writes it as JSON. A
// ContextualError's status code wins; otherwise the adapter's typed errors
// pick the status.
func writeError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	var ce *pkgerrors.ContextualError
	if !errors.As(err, &ce) {
		ce = pkgerrors.New(pkgerrors.ComponentBridge, operation, err).WithStatusCode(statusFor(err))
	}
	status := ce.StatusCodeOr(http.StatusInternalServerError)
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Bridge request failed", "operation", ce.Operation, "status", status, "error", err)
	} else {
		logger.DebugContext(r.Context(), "Bridge request rejected", "operation", ce.Operation, "status", status, "error", err)
	}
	writeJSON(w, status, errorResponse{
		Error:     err.Error(),
		Component: ce.Component,
		Operation: ce.Operation,
		Details:   ce.Details,
	})
}

func statusFor(err error) int {
	var (
		remote    *tts.RemoteError
		synthesis *tts.SynthesisError
	)
	switch {
	case errors.Is(err, tts.ErrUnknownSetting), errors.Is(err, tts.ErrVoiceNotFound):
		return http.StatusNotFound
	case errors.Is(err, tts.ErrInvalidSettingValue):
		return http.StatusBadRequest
	case errors.Is(err, tts.ErrConnectivity), errors.As(err, &remote), errors.As(err, &synthesis):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func badRequest(operation string, err error) error {
	return pkgerrors.New(pkgerrors.ComponentBridge, operation, err).WithStatusCode(http.StatusBadRequest)
}

func wantsRefresh(r *http.Request) bool {
	v := r.URL.Query().Get("refresh")
	if v == "" {
		return r.URL.Query().Has("refresh")
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "provider": s.adapter.Name()})
}

// handleReady reports the last readiness check. A check that completed is
// ready even when one of its steps failed; the failures are reported in the
// body. 503 means no check has completed yet.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	var (
		report  tts.ReadinessReport
		checked bool
	)
	if wantsRefresh(r) {
		report, checked = s.adapter.CheckReady(r.Context()), true
	} else {
		report, checked = s.adapter.Ready()
	}

	resp := readyResponse{
		Checked:    checked,
		OK:         checked && report.OK(),
		Voices:     report.Voices,
		DurationMS: report.Duration.Milliseconds(),
	}
	if report.CatalogErr != nil {
		resp.CatalogError = report.CatalogErr.Error()
	}
	if report.SettingsErr != nil {
		resp.SettingsError = report.SettingsErr.Error()
	}

	status := http.StatusOK
	if !checked {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.adapter.Settings().Map())
}

func (s *Server) handleSettingsSchema(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"options":   tts.SettingsSchema(),
		"formats":   tts.SupportedFormats(),
		"languages": tts.Languages(),
	})
}

func (s *Server) handlePutSetting(w http.ResponseWriter, r *http.Request) {
	const op = "UpdateSetting"
	field := r.PathValue("field")

	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodySize)
	var body settingUpdate
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, op, badRequest(op, err))
		return
	}

	if err := s.adapter.OnSettingsChange(r.Context(), field, body.Value); err != nil {
		writeError(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, s.adapter.Settings().Map())
}

func (s *Server) handleVoices(w http.ResponseWriter, r *http.Request) {
	if wantsRefresh(r) {
		s.handleRefreshVoices(w, r)
		return
	}
	writeJSON(w, http.StatusOK, s.adapter.SupportedVoices())
}

func (s *Server) handleRefreshVoices(w http.ResponseWriter, r *http.Request) {
	voices, err := s.adapter.Catalog().Refresh(r.Context())
	if err != nil {
		writeError(w, r, "RefreshVoices", err)
		return
	}
	writeJSON(w, http.StatusOK, voices)
}

// handleSynthesize relays the upstream audio body to the caller as it
// arrives, flushing after every read so streamed audio is not buffered.
func (s *Server) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	const op = "Synthesize"

	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodySize)
	var req synthesisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, op, badRequest(op, err))
		return
	}
	if req.Text == "" {
		writeError(w, r, op, badRequest(op, errors.New("text is required")))
		return
	}

	resp, err := s.adapter.Synthesize(r.Context(), req.Text, req.config())
	if err != nil {
		writeError(w, r, op, err)
		return
	}
	defer resp.Close()

	contentType := resp.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Streaming", strconv.FormatBool(resp.Streaming))
	w.WriteHeader(http.StatusOK)

	start := time.Now()
	n, err := relay(w, resp.Body)
	if err != nil {
		logger.WarnContext(r.Context(), "Audio relay interrupted",
			"bytes", n, "duration", time.Since(start), "error", err)
	}
}

func relay(w http.ResponseWriter, body io.Reader) (int64, error) {
	rc := http.NewResponseController(w)
	buf := make([]byte, copyBufferSize)
	var total int64
	for {
		n, err := body.Read(buf)
		if n > 0 {
			written, werr := w.Write(buf[:n])
			total += int64(written)
			if werr != nil {
				return total, werr
			}
			_ = rc.Flush()
		}
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
}

func (s *Server) handleNotifications(w http.ResponseWriter, _ *http.Request) {
	if s.notifications == nil {
		writeJSON(w, http.StatusOK, map[string]any{"total": 0, "items": []Notification{}})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total": s.notifications.Total(),
		"items": s.notifications.Recent(),
	})
}
