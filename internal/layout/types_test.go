package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoundingBoxValid(t *testing.T) {
	tests := []struct {
		name string
		box  BoundingBox
		want bool
	}{
		{
			name: "valid box",
			box:  BoundingBox{Left: 10, Top: 20, Right: 100, Bottom: 40, Page: 1},
			want: true,
		},
		{
			name: "left greater than right",
			box:  BoundingBox{Left: 100, Top: 20, Right: 10, Bottom: 40, Page: 1},
			want: false,
		},
		{
			name: "top greater than bottom",
			box:  BoundingBox{Left: 10, Top: 40, Right: 100, Bottom: 20, Page: 1},
			want: false,
		},
		{
			name: "zero page",
			box:  BoundingBox{Left: 10, Top: 20, Right: 100, Bottom: 40, Page: 0},
			want: false,
		},
		{
			name: "negative coordinates",
			box:  BoundingBox{Left: -5, Top: 20, Right: 100, Bottom: 40, Page: 1},
			want: false,
		},
		{
			name: "degenerate point box",
			box:  BoundingBox{Left: 10, Top: 20, Right: 10, Bottom: 20, Page: 1},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.box.Valid())
		})
	}
}

func TestBoundingBoxUnion(t *testing.T) {
	a := BoundingBox{Left: 10, Top: 20, Right: 100, Bottom: 40, Page: 1}
	b := BoundingBox{Left: 5, Top: 30, Right: 80, Bottom: 60, Page: 1}

	got := a.Union(b)

	assert.Equal(t, 5.0, got.Left)
	assert.Equal(t, 20.0, got.Top)
	assert.Equal(t, 100.0, got.Right)
	assert.Equal(t, 60.0, got.Bottom)
	assert.Equal(t, 1, got.Page)
}

func TestLineIDLess(t *testing.T) {
	assert.True(t, LineID{Page: 1, Index: 5}.Less(LineID{Page: 2, Index: 0}))
	assert.True(t, LineID{Page: 1, Index: 2}.Less(LineID{Page: 1, Index: 3}))
	assert.False(t, LineID{Page: 2, Index: 0}.Less(LineID{Page: 1, Index: 9}))
	assert.False(t, LineID{Page: 1, Index: 3}.Less(LineID{Page: 1, Index: 3}))
}

func TestLineValid(t *testing.T) {
	valid := Line{
		ID:   LineID{Page: 1, Index: 0},
		Page: 1,
		Text: "some text",
		Box:  BoundingBox{Left: 10, Top: 20, Right: 100, Bottom: 32, Page: 1},
	}
	assert.True(t, valid.Valid())

	empty := valid
	empty.Text = ""
	assert.False(t, empty.Valid())

	badBox := valid
	badBox.Box.Right = 0
	assert.False(t, badBox.Valid())
}

func TestDocumentPageHeight(t *testing.T) {
	doc := &Document{
		Pages: []PageSize{
			{Page: 1, Width: 612, Height: 792},
			{Page: 2, Width: 612, Height: 842},
		},
	}

	assert.Equal(t, 792.0, doc.PageHeight(1))
	assert.Equal(t, 842.0, doc.PageHeight(2))
	assert.Equal(t, 0.0, doc.PageHeight(3))
	assert.Equal(t, 2, doc.PageCount())
}
