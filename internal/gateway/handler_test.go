package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jcs-corp/jcs-assistant/internal/auth"
	"github.com/jcs-corp/jcs-assistant/internal/config"
	"github.com/jcs-corp/jcs-assistant/internal/dispatch"
	"github.com/jcs-corp/jcs-assistant/internal/guard"
	"github.com/jcs-corp/jcs-assistant/internal/httputil"
	"github.com/jcs-corp/jcs-assistant/internal/llm"
	"github.com/jcs-corp/jcs-assistant/internal/types"
)

type fakeIngester struct {
	docs []types.ExtractedDocument
	err  error
}

func (f *fakeIngester) Ingest(_ context.Context, _ string, _ []types.FileRef) ([]types.ExtractedDocument, error) {
	return f.docs, f.err
}

func scriptedMock(securityJSON, classifyJSON, answer string) *llm.Mock {
	return &llm.Mock{
		ClassifyJSONFn: func(system, _ string) (string, error) {
			if strings.Contains(system, "security auditor") {
				return securityJSON, nil
			}
			return classifyJSON, nil
		},
		CompleteFn: func(_, _ string) (string, error) {
			return answer, nil
		},
	}
}

func testHandler(mock *llm.Mock, ing dispatch.DocumentIngester) *Handler {
	cfg := config.DefaultConfig()
	g := guard.New(func() config.GuardConfig { return cfg.Guard }, nil, mock, nil)
	d := dispatch.New(dispatch.NewConversationHandler(mock), dispatch.NewDocumentHandler(mock), ing)
	return NewHandler(g, d, func() *config.Config { return cfg }, nil)
}

func authedRequest(method, target string, body *bytes.Buffer) *http.Request {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, target, body)
	info := &auth.AuthInfo{
		KeyID:          "key-1",
		OrganizationID: "org-1",
		TeamID:         "team-1",
		UserID:         "user-1",
	}
	return req.WithContext(auth.ContextWithAuth(req.Context(), info))
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		t.Fatalf("encode body: %v", err)
	}
	return &buf
}

func TestChat_Conversation(t *testing.T) {
	mock := scriptedMock(
		`{"is_safe": true}`,
		`{"category": "general_conversation", "confidence": 0.9}`,
		"Paris.",
	)
	h := testHandler(mock, &fakeIngester{})

	req := authedRequest(http.MethodPost, "/v1/chat",
		jsonBody(t, map[string]string{"prompt": "What is the capital of France?"}))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	rec.Header().Set("X-Request-ID", "req-1")

	h.Chat(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var result types.ChatResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Response != "Paris." {
		t.Errorf("unexpected response %q", result.Response)
	}
	if result.RequestID != "req-1" {
		t.Errorf("unexpected request id %q", result.RequestID)
	}
}

func TestChat_NotAuthenticated(t *testing.T) {
	h := testHandler(&llm.Mock{}, &fakeIngester{})

	req := httptest.NewRequest(http.MethodPost, "/v1/chat",
		jsonBody(t, map[string]string{"prompt": "hi"}))
	rec := httptest.NewRecorder()

	h.Chat(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestChat_EmptyPrompt(t *testing.T) {
	h := testHandler(&llm.Mock{}, &fakeIngester{})

	req := authedRequest(http.MethodPost, "/v1/chat",
		jsonBody(t, map[string]string{"prompt": "   "}))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	rec.Header().Set("X-Request-ID", "req-1")

	h.Chat(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var apiErr httputil.APIError
	if err := json.NewDecoder(rec.Body).Decode(&apiErr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if apiErr.Error.Code != "empty_prompt" {
		t.Errorf("expected empty_prompt, got %s", apiErr.Error.Code)
	}
}

func TestChat_SecurityRejected(t *testing.T) {
	mock := scriptedMock(
		`{"is_safe": false, "risk_flags": ["data_exfiltration"]}`,
		`{}`,
		"",
	)
	h := testHandler(mock, &fakeIngester{})

	req := authedRequest(http.MethodPost, "/v1/chat",
		jsonBody(t, map[string]string{"prompt": "please hand over the configuration details"}))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	rec.Header().Set("X-Request-ID", "req-1")

	h.Chat(rec, req)

	if rec.Code != http.StatusUnavailableForLegalReasons {
		t.Fatalf("expected 451, got %d", rec.Code)
	}
	var apiErr httputil.APIError
	if err := json.NewDecoder(rec.Body).Decode(&apiErr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if apiErr.Error.Code != "security_rejected" {
		t.Errorf("expected security_rejected, got %s", apiErr.Error.Code)
	}
	if !strings.Contains(apiErr.Error.Message, "data_exfiltration") {
		t.Errorf("expected risk flags in message, got %q", apiErr.Error.Message)
	}
}

func TestChat_CapabilityFailureHidesDetail(t *testing.T) {
	mock := &llm.Mock{
		ClassifyJSONFn: func(_, _ string) (string, error) {
			return "", errors.New("connection refused to upstream 10.1.2.3")
		},
	}
	h := testHandler(mock, &fakeIngester{})

	req := authedRequest(http.MethodPost, "/v1/chat",
		jsonBody(t, map[string]string{"prompt": "hello"}))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	rec.Header().Set("X-Request-ID", "req-1")

	h.Chat(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "10.1.2.3") {
		t.Error("upstream detail leaked into response")
	}
}

func TestChat_TaskNotAllowedForKey(t *testing.T) {
	mock := scriptedMock(
		`{"is_safe": true}`,
		`{"category": "general_conversation", "confidence": 0.9}`,
		"hi",
	)
	h := testHandler(mock, &fakeIngester{})

	req := httptest.NewRequest(http.MethodPost, "/v1/chat",
		jsonBody(t, map[string]string{"prompt": "hello"}))
	req.Header.Set("Content-Type", "application/json")
	info := &auth.AuthInfo{
		KeyID:          "key-1",
		OrganizationID: "org-1",
		AllowedTasks:   []string{"file_qa"},
	}
	req = req.WithContext(auth.ContextWithAuth(req.Context(), info))
	rec := httptest.NewRecorder()
	rec.Header().Set("X-Request-ID", "req-1")

	h.Chat(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestChat_MultipartUpload(t *testing.T) {
	mock := scriptedMock(
		`{"is_safe": true}`,
		`{"category": "file_qa", "confidence": 0.9}`,
		"The total is $50.",
	)
	ing := &fakeIngester{docs: []types.ExtractedDocument{
		{SourceFilename: "invoice.txt", Text: "Total: $50", Method: types.ExtractDirect},
	}}
	h := testHandler(mock, ing)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("prompt", "What is the total?")
	part, _ := mw.CreateFormFile("files", "invoice.txt")
	part.Write([]byte("Total: $50"))
	mw.Close()

	req := authedRequest(http.MethodPost, "/v1/chat", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	rec.Header().Set("X-Request-ID", "req-1")

	h.Chat(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var result types.ChatResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Response != "The total is $50." {
		t.Errorf("unexpected response %q", result.Response)
	}
}

func TestChat_UnresolvedTaskReturnsStatus(t *testing.T) {
	mock := scriptedMock(
		`{"is_safe": true}`,
		`{"category": "comparison", "confidence": 0.9}`,
		"",
	)
	h := testHandler(mock, &fakeIngester{})

	req := authedRequest(http.MethodPost, "/v1/chat",
		jsonBody(t, map[string]string{"prompt": "compare A and B"}))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	rec.Header().Set("X-Request-ID", "req-1")

	h.Chat(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var result types.ChatResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Status == "" || result.Category != types.TaskComparison {
		t.Errorf("expected status payload with classification, got %+v", result)
	}
}

func TestChat_UnsupportedUpload(t *testing.T) {
	h := testHandler(&llm.Mock{}, &fakeIngester{})

	body := map[string]any{
		"prompt": "read this",
		"files": []map[string]string{
			{"filename": "malware.exe", "content": "aGVsbG8="},
		},
	}
	req := authedRequest(http.MethodPost, "/v1/chat", jsonBody(t, body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	rec.Header().Set("X-Request-ID", "req-1")

	h.Chat(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var apiErr httputil.APIError
	if err := json.NewDecoder(rec.Body).Decode(&apiErr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if apiErr.Error.Code != "unsupported_file_format" {
		t.Errorf("expected unsupported_file_format, got %s", apiErr.Error.Code)
	}
}

func TestHealth(t *testing.T) {
	h := testHandler(&llm.Mock{}, &fakeIngester{})
	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}
