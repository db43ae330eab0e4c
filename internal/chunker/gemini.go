package chunker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// DefaultGeminiModel is used when no model name is configured.
const DefaultGeminiModel = "gemini-1.5-flash"

const chunkSystemPrompt = `You are a document decomposition assistant.
Split the provided document text into semantically coherent chunks.
Respond with ONLY a JSON array. Each element must be an object with:
  "text":    the chunk content, reproduced as faithfully as possible
  "type":    one of "heading", "paragraph", "list", "table", "image"
  "section": the section or heading this chunk belongs under
  "tags":    a short array of topical tags
  "page":    the 1-based page number the chunk starts on
Table chunks must reproduce the table as a markdown table.
Do not merge content across unrelated sections. Do not invent content.`

// Gemini is the production Chunker backed by Google's generative AI API.
type Gemini struct {
	client    *genai.Client
	modelName string
}

// NewGemini creates a Gemini chunker. The caller owns Close.
func NewGemini(ctx context.Context, apiKey, modelName string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	if modelName == "" {
		modelName = DefaultGeminiModel
	}
	return &Gemini{client: cl, modelName: modelName}, nil
}

// Close releases the underlying API client.
func (g *Gemini) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// Chunk sends the page texts to the model and parses the returned JSON
// array into Chunk records, in the order the model produced them.
func (g *Gemini) Chunk(ctx context.Context, pages []PageText) ([]Chunk, error) {
	m := g.client.GenerativeModel(g.modelName)
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(chunkSystemPrompt)},
	}

	resp, err := m.GenerateContent(ctx, genai.Text(buildPrompt(pages)))
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("gemini returned no candidates")
	}

	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}

	return ParseResponse(b.String())
}

// buildPrompt tags each page's text so the model can report page hints.
func buildPrompt(pages []PageText) string {
	var b strings.Builder
	for _, p := range pages {
		fmt.Fprintf(&b, "=== PAGE %d ===\n%s\n\n", p.Page, p.Text)
	}
	return b.String()
}

// geminiChunk is the wire shape the model is asked to produce.
type geminiChunk struct {
	Text    string   `json:"text"`
	Type    string   `json:"type"`
	Section string   `json:"section"`
	Tags    []string `json:"tags"`
	Page    int      `json:"page"`
}

// ParseResponse decodes the model's JSON array into Chunks, assigning a
// fresh ID to each. Unknown types degrade to paragraph rather than failing
// the document; the anchoring pass only cares about table vs. non-table.
func ParseResponse(raw string) ([]Chunk, error) {
	raw = stripCodeFence(raw)

	var wire []geminiChunk
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return nil, fmt.Errorf("parse chunker response: %w", err)
	}

	chunks := make([]Chunk, 0, len(wire))
	for _, w := range wire {
		if strings.TrimSpace(w.Text) == "" {
			continue
		}
		t := Type(w.Type)
		if !t.Valid() {
			t = TypeParagraph
		}
		chunks = append(chunks, Chunk{
			ID:       uuid.NewString(),
			Text:     w.Text,
			Type:     t,
			Section:  w.Section,
			Tags:     w.Tags,
			PageHint: w.Page,
		})
	}

	return chunks, nil
}

// stripCodeFence removes a surrounding markdown code fence if present.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
