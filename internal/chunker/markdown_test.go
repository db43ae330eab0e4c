package chunker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMarkdownTable(t *testing.T) {
	text := `| Item | Qty | Price |
|------|-----|-------|
| Widget | 5 | 10.00 |
| Gadget | 2 | 25.00 |`

	got := ParseMarkdownTable(text)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"Item", "Qty", "Price"}, got[0])
	assert.Equal(t, []string{"Widget", "5", "10.00"}, got[1])
	assert.Equal(t, []string{"Gadget", "2", "25.00"}, got[2])
}

func TestParseMarkdownTableAlignmentSeparators(t *testing.T) {
	text := `| A | B |
|:---|---:|
| 1 | 2 |`

	got := ParseMarkdownTable(text)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"A", "B"}, got[0])
	assert.Equal(t, []string{"1", "2"}, got[1])
}

func TestParseMarkdownTablePadsRaggedRows(t *testing.T) {
	text := `| A | B | C |
| 1 | 2 |`

	got := ParseMarkdownTable(text)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"A", "B", "C"}, got[0])
	assert.Equal(t, []string{"1", "2", ""}, got[1])
}

func TestParseMarkdownTableNoTable(t *testing.T) {
	assert.Nil(t, ParseMarkdownTable("just a plain paragraph"))
	assert.Nil(t, ParseMarkdownTable(""))
}

func TestParseResponse(t *testing.T) {
	raw := `[
		{"text": "Introduction", "type": "heading", "section": "Introduction", "page": 1},
		{"text": "First paragraph of the intro.", "type": "paragraph", "section": "Introduction", "tags": ["intro"], "page": 1}
	]`

	chunks, err := ParseResponse(raw)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assert.Equal(t, TypeHeading, chunks[0].Type)
	assert.Equal(t, "Introduction", chunks[0].Text)
	assert.Equal(t, 1, chunks[0].PageHint)
	assert.NotEmpty(t, chunks[0].ID)
	assert.NotEqual(t, chunks[0].ID, chunks[1].ID)
	assert.Equal(t, []string{"intro"}, chunks[1].Tags)
}

func TestParseResponseStripsCodeFence(t *testing.T) {
	raw := "```json\n[{\"text\": \"hello\", \"type\": \"paragraph\", \"page\": 2}]\n```"

	chunks, err := ParseResponse(raw)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "hello", chunks[0].Text)
	assert.Equal(t, 2, chunks[0].PageHint)
}

func TestParseResponseUnknownTypeDegrades(t *testing.T) {
	raw := `[{"text": "something", "type": "sidebar", "page": 1}]`

	chunks, err := ParseResponse(raw)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, TypeParagraph, chunks[0].Type)
}

func TestParseResponseDropsEmptyText(t *testing.T) {
	raw := `[{"text": "  ", "type": "paragraph"}, {"text": "kept", "type": "paragraph"}]`

	chunks, err := ParseResponse(raw)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "kept", chunks[0].Text)
}

func TestParseResponseInvalidJSON(t *testing.T) {
	_, err := ParseResponse("not json at all")
	require.Error(t, err)
}

func TestChunkValid(t *testing.T) {
	assert.True(t, Chunk{Text: "x", Type: TypeParagraph}.Valid())
	assert.False(t, Chunk{Text: "", Type: TypeParagraph}.Valid())
	assert.False(t, Chunk{Text: "x", Type: Type("bogus")}.Valid())
}
