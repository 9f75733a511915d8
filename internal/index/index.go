// Package index builds a request-scoped vector index over extracted
// documents. The index lives only for the lifetime of one request: it is
// built in memory from the request's own uploads, queried once, and
// garbage collected with the request. Nothing is persisted or shared
// across users.
package index

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/jcs-corp/jcs-assistant/internal/llm"
	"github.com/jcs-corp/jcs-assistant/internal/types"
)

// chunkSize bounds how much of a document goes into one embedded chunk.
// Measured in runes, sized well under typical embedding token limits.
const chunkSize = 2000

// topK is how many chunks feed the answer synthesis.
const topK = 4

type chunk struct {
	source string
	text   string
	vector []float32
}

// Index holds embedded document chunks for one request.
type Index struct {
	client llm.Client
	chunks []chunk
}

// Build embeds every document's chunks in one batch. At least one
// document is required.
func Build(ctx context.Context, client llm.Client, docs []types.ExtractedDocument) (*Index, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("no documents to index")
	}

	idx := &Index{client: client}
	var texts []string
	for _, d := range docs {
		for _, part := range split(d.Text) {
			idx.chunks = append(idx.chunks, chunk{source: d.SourceFilename, text: part})
			texts = append(texts, part)
		}
	}

	vectors, err := client.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed documents: %w", err)
	}
	if len(vectors) != len(idx.chunks) {
		return nil, fmt.Errorf("embedding count mismatch: %d chunks, %d vectors", len(idx.chunks), len(vectors))
	}
	for i := range idx.chunks {
		idx.chunks[i].vector = vectors[i]
	}
	return idx, nil
}

// Query embeds the question, selects the most similar chunks, and
// synthesizes an answer grounded on them.
func (idx *Index) Query(ctx context.Context, question string) (string, error) {
	qv, err := idx.client.Embed(ctx, []string{question})
	if err != nil {
		return "", fmt.Errorf("embed query: %w", err)
	}

	ranked := make([]chunk, len(idx.chunks))
	copy(ranked, idx.chunks)
	sort.SliceStable(ranked, func(i, j int) bool {
		return cosine(qv[0], ranked[i].vector) > cosine(qv[0], ranked[j].vector)
	})
	if len(ranked) > topK {
		ranked = ranked[:topK]
	}

	var sb strings.Builder
	for _, c := range ranked {
		fmt.Fprintf(&sb, "[%s]\n%s\n\n", c.source, c.text)
	}

	system := "You are a document assistant. Answer the user's question using only " +
		"the provided document excerpts. If the excerpts do not contain the answer, say so. " +
		"Cite the source filename when it helps."
	user := fmt.Sprintf("Documents:\n%sQuestion: %s", sb.String(), question)

	answer, err := idx.client.Complete(ctx, system, user)
	if err != nil {
		return "", fmt.Errorf("synthesize answer: %w", err)
	}
	return answer, nil
}

// split cuts text into rune-bounded chunks on paragraph boundaries where
// possible.
func split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	runes := []rune(text)
	if len(runes) <= chunkSize {
		return []string{text}
	}

	var parts []string
	for len(runes) > 0 {
		end := chunkSize
		if end > len(runes) {
			end = len(runes)
		} else {
			// Back up to the last paragraph or line break inside the window.
			if cut := lastBreak(runes[:end]); cut > chunkSize/2 {
				end = cut
			}
		}
		part := strings.TrimSpace(string(runes[:end]))
		if part != "" {
			parts = append(parts, part)
		}
		runes = runes[end:]
	}
	return parts
}

func lastBreak(runes []rune) int {
	for i := len(runes) - 1; i > 0; i-- {
		if runes[i] == '\n' {
			return i
		}
	}
	return -1
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
