package dispatch

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jcs-corp/jcs-assistant/internal/guard"
	"github.com/jcs-corp/jcs-assistant/internal/llm"
	"github.com/jcs-corp/jcs-assistant/internal/types"
)

type fakeIngester struct {
	docs  []types.ExtractedDocument
	err   error
	calls int
}

func (f *fakeIngester) Ingest(_ context.Context, _ string, _ []types.FileRef) ([]types.ExtractedDocument, error) {
	f.calls++
	return f.docs, f.err
}

func testDispatcher(mock *llm.Mock, ing *fakeIngester) *Dispatcher {
	return New(NewConversationHandler(mock), NewDocumentHandler(mock), ing)
}

func request(prompt string, files ...string) *types.ChatRequest {
	req := &types.ChatRequest{RequestID: "req-1", Prompt: prompt}
	for _, name := range files {
		req.Files = append(req.Files, types.FileRef{Filename: name, Content: []byte("x")})
	}
	return req
}

func TestDispatch_GeneralConversation(t *testing.T) {
	mock := &llm.Mock{
		CompleteFn: func(system, user string) (string, error) {
			if !strings.Contains(system, "enterprise assistant") {
				t.Errorf("unexpected system instruction %q", system)
			}
			return "Paris is the capital of France.", nil
		},
	}
	ing := &fakeIngester{}
	d := testDispatcher(mock, ing)

	res, err := d.Dispatch(context.Background(), request("What is the capital of France?"),
		types.TaskClassification{Category: types.TaskGeneralConversation, Confidence: 0.95})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if res.Response != "Paris is the capital of France." {
		t.Errorf("unexpected response %q", res.Response)
	}
	if ing.calls != 0 {
		t.Errorf("conversation path must not ingest, got %d calls", ing.calls)
	}
}

func TestDispatch_FileQAWithoutFiles(t *testing.T) {
	d := testDispatcher(&llm.Mock{}, &fakeIngester{})

	_, err := d.Dispatch(context.Background(), request("what does the contract say?"),
		types.TaskClassification{Category: types.TaskFileQA, Confidence: 0.9})
	reqErr, ok := guard.AsRequestError(err)
	if !ok {
		t.Fatalf("expected RequestError, got %v", err)
	}
	if reqErr.Code != guard.CodeMissingFiles {
		t.Errorf("expected missing_files, got %s", reqErr.Code)
	}
}

func TestDispatch_FileQAWithFiles(t *testing.T) {
	mock := &llm.Mock{
		CompleteFn: func(_, user string) (string, error) {
			if !strings.Contains(user, "indexed content") {
				t.Errorf("synthesis prompt missing document text: %q", user)
			}
			return "The contract expires in June.", nil
		},
	}
	ing := &fakeIngester{docs: []types.ExtractedDocument{
		{SourceFilename: "contract.pdf", Text: "indexed content", Method: types.ExtractDirect},
	}}
	d := testDispatcher(mock, ing)

	res, err := d.Dispatch(context.Background(), request("when does it expire?", "contract.pdf"),
		types.TaskClassification{Category: types.TaskFileQA, Confidence: 0.9})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if res.Response != "The contract expires in June." {
		t.Errorf("unexpected response %q", res.Response)
	}
	if ing.calls != 1 {
		t.Errorf("expected 1 ingest call, got %d", ing.calls)
	}
}

func TestDispatch_FileQAAllFilesUnreadable(t *testing.T) {
	mock := &llm.Mock{}
	ing := &fakeIngester{} // every upload dropped during extraction
	d := testDispatcher(mock, ing)

	res, err := d.Dispatch(context.Background(), request("summarize this", "scan.png"),
		types.TaskClassification{Category: types.TaskFileQA, Confidence: 0.9})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !strings.Contains(res.Response, "no readable or extractable content") {
		t.Errorf("expected no-content message, got %q", res.Response)
	}
	if mock.EmbedCalls != 0 || mock.CompleteCalls != 0 {
		t.Error("no-content path must not call the model")
	}
}

func TestDispatch_SummarizationWithFiles(t *testing.T) {
	mock := &llm.Mock{
		CompleteFn: func(_, _ string) (string, error) { return "A summary.", nil },
	}
	ing := &fakeIngester{docs: []types.ExtractedDocument{
		{SourceFilename: "report.txt", Text: "long report body", Method: types.ExtractDirect},
	}}
	d := testDispatcher(mock, ing)

	res, err := d.Dispatch(context.Background(), request("summarize", "report.txt"),
		types.TaskClassification{Category: types.TaskSummarization, Confidence: 0.8})
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if res.Response != "A summary." {
		t.Errorf("unexpected response %q", res.Response)
	}
}

func TestDispatch_SummarizationWithoutFiles(t *testing.T) {
	mock := &llm.Mock{}
	d := testDispatcher(mock, &fakeIngester{})

	cls := types.TaskClassification{Category: types.TaskSummarization, Confidence: 0.85}
	res, err := d.Dispatch(context.Background(), request("summarize our strategy"), cls)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if res.Status != statusNotSupported {
		t.Errorf("expected %q, got %q", statusNotSupported, res.Status)
	}
	if res.Category != types.TaskSummarization || res.Confidence != 0.85 {
		t.Errorf("status result must carry the classification, got %+v", res)
	}
	if mock.CompleteCalls != 0 {
		t.Error("unsupported path must not call the model")
	}
}

func TestDispatch_UnrecognizedCombinations(t *testing.T) {
	cases := []struct {
		name     string
		category types.TaskCategory
		files    []string
	}{
		{"comparison", types.TaskComparison, nil},
		{"data_analysis", types.TaskDataAnalysisForecast, []string{"data.txt"}},
		{"conversation_with_files", types.TaskGeneralConversation, []string{"notes.txt"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mock := &llm.Mock{}
			ing := &fakeIngester{}
			d := testDispatcher(mock, ing)

			res, err := d.Dispatch(context.Background(), request("prompt", tc.files...),
				types.TaskClassification{Category: tc.category, Confidence: 0.9})
			if err != nil {
				t.Fatalf("Dispatch: %v", err)
			}
			if res.Status != statusNotRecognized {
				t.Errorf("expected %q, got %q", statusNotRecognized, res.Status)
			}
			if ing.calls != 0 {
				t.Error("files must be ignored on the unrecognized path")
			}
			if mock.CompleteCalls != 0 || mock.EmbedCalls != 0 {
				t.Error("unrecognized path must not call the model")
			}
		})
	}
}

func TestDispatch_IngestFailurePropagates(t *testing.T) {
	ing := &fakeIngester{err: errors.New("temp dir unavailable")}
	d := testDispatcher(&llm.Mock{}, ing)

	_, err := d.Dispatch(context.Background(), request("q", "a.txt"),
		types.TaskClassification{Category: types.TaskFileQA, Confidence: 0.9})
	if err == nil {
		t.Fatal("expected ingest failure to propagate")
	}
	if _, ok := guard.AsRequestError(err); ok {
		t.Error("infrastructure failure must not surface as a request error")
	}
}
