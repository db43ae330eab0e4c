package layout

import "fmt"

// BoundingBox is an axis-aligned rectangle in page coordinate space.
// The origin is the top-left corner of the page, so Top <= Bottom always
// holds for a valid box. Page numbering starts at 1.
type BoundingBox struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Page   int     `json:"page"`
}

// Valid reports whether the box satisfies its geometric invariants.
func (b BoundingBox) Valid() bool {
	return b.Page >= 1 && b.Left <= b.Right && b.Top <= b.Bottom &&
		b.Left >= 0 && b.Top >= 0
}

// Union returns the minimal box enclosing b and o. Both boxes must be on
// the same page; the result keeps b's page number.
func (b BoundingBox) Union(o BoundingBox) BoundingBox {
	out := b
	if o.Left < out.Left {
		out.Left = o.Left
	}
	if o.Top < out.Top {
		out.Top = o.Top
	}
	if o.Right > out.Right {
		out.Right = o.Right
	}
	if o.Bottom > out.Bottom {
		out.Bottom = o.Bottom
	}
	return out
}

// LineID identifies a line uniquely within one document.
type LineID struct {
	Page  int `json:"page"`
	Index int `json:"index"`
}

// Less provides the document-stable ordering used for tie-breaking.
func (id LineID) Less(other LineID) bool {
	if id.Page != other.Page {
		return id.Page < other.Page
	}
	return id.Index < other.Index
}

func (id LineID) String() string {
	return fmt.Sprintf("%d:%d", id.Page, id.Index)
}

// Line is a physically contiguous run of text on one page with a known
// bounding box. Lines are immutable once produced by the extractor.
type Line struct {
	ID       LineID      `json:"id"`
	Page     int         `json:"page"`
	Text     string      `json:"text"`
	Box      BoundingBox `json:"box"`
	FontSize float64     `json:"font_size"`
	FontName string      `json:"font_name,omitempty"`
	Bold     bool        `json:"is_bold,omitempty"`
}

// Valid reports whether the line carries the fields the matcher depends on.
// Invalid lines are skipped with a warning rather than failing a document.
func (l Line) Valid() bool {
	return l.Text != "" && l.Page >= 1 && l.Box.Valid()
}

// TableRegion is an independently detected table with its cell contents.
type TableRegion struct {
	Page      int         `json:"page"`
	Box       BoundingBox `json:"box"`
	Rows      int         `json:"rows"`
	Cols      int         `json:"cols"`
	CellTexts [][]string  `json:"cell_texts"`
}

// PageSize holds the media box dimensions of one page in points.
type PageSize struct {
	Page   int     `json:"page"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Document is the fully materialized layout model for one PDF: everything
// the anchoring pass needs, with no I/O remaining.
type Document struct {
	Path   string        `json:"path"`
	Pages  []PageSize    `json:"pages"`
	Lines  []Line        `json:"lines"`
	Tables []TableRegion `json:"tables,omitempty"`
}

// PageHeight returns the height of the given page, or 0 if unknown.
func (d *Document) PageHeight(page int) float64 {
	for _, p := range d.Pages {
		if p.Page == page {
			return p.Height
		}
	}
	return 0
}

// PageCount returns the number of pages in the document.
func (d *Document) PageCount() int {
	return len(d.Pages)
}
