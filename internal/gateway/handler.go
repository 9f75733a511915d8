// Package gateway is the HTTP surface of the assistant: request parsing,
// identity enrichment from auth context, and the mapping from pipeline
// errors to response codes.
package gateway

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jcs-corp/jcs-assistant/internal/auth"
	"github.com/jcs-corp/jcs-assistant/internal/config"
	"github.com/jcs-corp/jcs-assistant/internal/dispatch"
	"github.com/jcs-corp/jcs-assistant/internal/guard"
	"github.com/jcs-corp/jcs-assistant/internal/httputil"
	"github.com/jcs-corp/jcs-assistant/internal/telemetry"
	"github.com/jcs-corp/jcs-assistant/internal/types"
)

// Handler holds dependencies for the assistant HTTP handlers.
type Handler struct {
	guard      *guard.Guard
	dispatcher *dispatch.Dispatcher
	cfg        func() *config.Config
	metrics    *telemetry.Metrics
}

func NewHandler(g *guard.Guard, d *dispatch.Dispatcher, cfg func() *config.Config, metrics *telemetry.Metrics) *Handler {
	return &Handler{
		guard:      g,
		dispatcher: d,
		cfg:        cfg,
		metrics:    metrics,
	}
}

// chatBody is the JSON wire form of a chat request. File content arrives
// base64-encoded; multipart requests carry raw bytes instead.
type chatBody struct {
	Prompt string `json:"prompt"`
	Task   string `json:"task,omitempty"`
	Files  []struct {
		Filename string `json:"filename"`
		Content  string `json:"content"`
	} `json:"files,omitempty"`
}

// Chat handles POST /v1/chat
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	reqID := w.Header().Get("X-Request-ID")
	receivedAt := time.Now()

	authInfo, ok := auth.AuthFromContext(r.Context())
	if !ok {
		httputil.WriteAuthError(w, reqID, "Not authenticated")
		return
	}

	req, ok := h.parseChatRequest(w, r, reqID)
	if !ok {
		return
	}
	req.OrganizationID = authInfo.OrganizationID
	req.TeamID = authInfo.TeamID
	req.UserID = authInfo.UserID
	req.APIKeyID = authInfo.KeyID
	req.ReceivedAt = receivedAt

	cls, err := h.guard.Validate(r.Context(), req)
	if err != nil {
		h.writePipelineError(w, req, cls, err, receivedAt)
		return
	}

	if !authInfo.TaskAllowed(cls.Category) {
		slog.Warn("task not allowed for key",
			"request_id", reqID,
			"key_id", authInfo.KeyID,
			"category", cls.Category,
		)
		h.finishRequest(req, string(cls.Category), "denied", receivedAt)
		httputil.WriteRequestError(w, reqID, string(guard.CodePolicyDenied),
			"This API key is not permitted to run "+string(cls.Category)+" tasks.")
		return
	}

	result, err := h.dispatcher.Dispatch(r.Context(), req, cls)
	if err != nil {
		h.writePipelineError(w, req, cls, err, receivedAt)
		return
	}

	result.RequestID = reqID
	outcome := "answered"
	if result.Status != "" {
		outcome = "unresolved"
	}
	h.finishRequest(req, string(cls.Category), outcome, receivedAt)

	slog.Info("request completed",
		"request_id", reqID,
		"category", cls.Category,
		"confidence", cls.Confidence,
		"outcome", outcome,
		"files", len(req.Files),
		"duration_ms", time.Since(receivedAt).Milliseconds(),
		"org_id", req.OrganizationID,
		"team_id", req.TeamID,
	)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// parseChatRequest reads either a JSON or multipart body into the internal
// request form, enforcing the configured upload count and size caps.
func (h *Handler) parseChatRequest(w http.ResponseWriter, r *http.Request, reqID string) (*types.ChatRequest, bool) {
	ingestCfg := h.cfg().Ingest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return h.parseMultipart(w, r, reqID, ingestCfg)
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, ingestCfg.MaxFileBytes*int64(ingestCfg.MaxFiles)+1<<20))
	if err != nil {
		httputil.WriteBadRequestError(w, reqID, "Failed to read request body")
		return nil, false
	}
	defer r.Body.Close()

	var wire chatBody
	if err := json.Unmarshal(body, &wire); err != nil {
		httputil.WriteBadRequestError(w, reqID, "Invalid JSON: "+err.Error())
		return nil, false
	}
	if len(wire.Files) > ingestCfg.MaxFiles {
		httputil.WriteBadRequestError(w, reqID, "Too many files: limit is "+strconv.Itoa(ingestCfg.MaxFiles))
		return nil, false
	}

	req := &types.ChatRequest{
		RequestID: reqID,
		Prompt:    wire.Prompt,
		TaskHint:  wire.Task,
	}
	for _, f := range wire.Files {
		content, err := base64.StdEncoding.DecodeString(f.Content)
		if err != nil {
			httputil.WriteBadRequestError(w, reqID, "File content must be base64: "+f.Filename)
			return nil, false
		}
		if int64(len(content)) > ingestCfg.MaxFileBytes {
			httputil.WriteBadRequestError(w, reqID, "File too large: "+f.Filename)
			return nil, false
		}
		req.Files = append(req.Files, types.FileRef{Filename: f.Filename, Content: content})
	}
	return req, true
}

func (h *Handler) parseMultipart(w http.ResponseWriter, r *http.Request, reqID string, ingestCfg config.IngestConfig) (*types.ChatRequest, bool) {
	if err := r.ParseMultipartForm(ingestCfg.MaxFileBytes); err != nil {
		httputil.WriteBadRequestError(w, reqID, "Invalid multipart body: "+err.Error())
		return nil, false
	}
	defer r.MultipartForm.RemoveAll()

	req := &types.ChatRequest{
		RequestID: reqID,
		Prompt:    r.FormValue("prompt"),
		TaskHint:  r.FormValue("task"),
	}

	var count int
	for _, headers := range r.MultipartForm.File {
		for _, fh := range headers {
			count++
			if count > ingestCfg.MaxFiles {
				httputil.WriteBadRequestError(w, reqID, "Too many files: limit is "+strconv.Itoa(ingestCfg.MaxFiles))
				return nil, false
			}
			if fh.Size > ingestCfg.MaxFileBytes {
				httputil.WriteBadRequestError(w, reqID, "File too large: "+fh.Filename)
				return nil, false
			}
			file, err := fh.Open()
			if err != nil {
				httputil.WriteBadRequestError(w, reqID, "Unreadable file part: "+fh.Filename)
				return nil, false
			}
			content, err := io.ReadAll(file)
			file.Close()
			if err != nil {
				httputil.WriteBadRequestError(w, reqID, "Unreadable file part: "+fh.Filename)
				return nil, false
			}
			req.Files = append(req.Files, types.FileRef{Filename: fh.Filename, Content: content})
		}
	}
	return req, true
}

// writePipelineError maps guard and dispatch failures onto responses:
// typed request defects keep their code and message, capability failures
// collapse to a generic 502 without detail.
func (h *Handler) writePipelineError(w http.ResponseWriter, req *types.ChatRequest, cls types.TaskClassification, err error, receivedAt time.Time) {
	if reqErr, ok := guard.AsRequestError(err); ok {
		slog.Info("request rejected",
			"request_id", req.RequestID,
			"code", reqErr.Code,
			"org_id", req.OrganizationID,
		)
		h.finishRequest(req, string(cls.Category), "rejected", receivedAt)
		httputil.WriteRequestError(w, req.RequestID, string(reqErr.Code), reqErr.Message)
		return
	}

	slog.Error("capability failure",
		"request_id", req.RequestID,
		"error", err,
		"org_id", req.OrganizationID,
	)
	h.finishRequest(req, string(cls.Category), "error", receivedAt)
	httputil.WriteDownstreamError(w, req.RequestID)
}

func (h *Handler) finishRequest(req *types.ChatRequest, category, outcome string, receivedAt time.Time) {
	if h.metrics == nil {
		return
	}
	if category == "" {
		category = "none"
	}
	h.metrics.RecordRequest(req.OrganizationID, category, outcome,
		float64(time.Since(receivedAt).Milliseconds()))
}

// Welcome handles GET /
func (h *Handler) Welcome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"message": "Welcome to the JCS Bot!",
		"time":    time.Now().Format("2006-01-02 15:04:05"),
	})
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

type userObject struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ListUsers handles GET /users. Directory lookup is not wired to a real
// backend yet; this returns the fixed development fixture.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode([]userObject{{ID: 1, Name: "Alice"}})
}

// GetUser handles GET /users/{id}
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	reqID := w.Header().Get("X-Request-ID")
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteBadRequestError(w, reqID, "user id must be an integer")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(userObject{ID: id, Name: "Bob"})
}
