package layout

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	// DefaultRowTolerance is the Y-coordinate tolerance for grouping
	// characters into the same physical row, in points.
	DefaultRowTolerance = 3.0

	// DefaultWordSpaceMultiplier is the fraction of the font size a
	// horizontal gap must exceed to be rendered as a word boundary.
	DefaultWordSpaceMultiplier = 0.3

	// DefaultCellGapThreshold is the minimum horizontal gap, in points,
	// that splits a row into separate blocks (table cells, column stops).
	DefaultCellGapThreshold = 18.0
)

// Extractor assembles the character stream of a PDF into page-ordered Line
// records with bounding boxes. It is the minimal input contract the
// anchoring engine depends on, not a general PDF parser.
type Extractor struct {
	RowTolerance        float64
	WordSpaceMultiplier float64
	CellGapThreshold    float64

	validator *Validator
}

// NewExtractor creates an extractor with default layout tolerances.
func NewExtractor(maxFileSize int64) *Extractor {
	return &Extractor{
		RowTolerance:        DefaultRowTolerance,
		WordSpaceMultiplier: DefaultWordSpaceMultiplier,
		CellGapThreshold:    DefaultCellGapThreshold,
		validator:           NewValidator(maxFileSize),
	}
}

// block is a horizontally contiguous run of characters within one row.
type block struct {
	left, right float64
	top, bottom float64
	text        string
	fontName    string
	fontSize    float64
}

// row is a set of blocks sharing a baseline, ordered left to right.
type row struct {
	blocks []block
}

func (r row) top() float64 {
	t := r.blocks[0].top
	for _, b := range r.blocks[1:] {
		if b.top < t {
			t = b.top
		}
	}
	return t
}

// ExtractLines produces the layout model for a document: page sizes plus
// every text line in reading order (top-to-bottom, left-to-right).
func (e *Extractor) ExtractLines(path string) (*Document, error) {
	if err := e.validator.ValidateFile(path); err != nil {
		return nil, err
	}

	sizes, err := PageDimensions(path)
	if err != nil {
		return nil, err
	}

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	doc := &Document{Path: path, Pages: sizes}

	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		pageHeight := doc.PageHeight(pageNum)
		rows := e.assembleRows(page.Content().Text, pageHeight)

		index := 0
		for _, r := range rows {
			line, ok := e.mergeRow(r, pageNum, index)
			if !ok {
				continue
			}
			if !line.Valid() {
				log.Printf("layout: skipping malformed line on page %d: %q", pageNum, line.Text)
				continue
			}
			doc.Lines = append(doc.Lines, line)
			index++
		}
	}

	return doc, nil
}

// mergeRow collapses a row's blocks into a single Line record.
func (e *Extractor) mergeRow(r row, pageNum, index int) (Line, bool) {
	if len(r.blocks) == 0 {
		return Line{}, false
	}

	box := BoundingBox{
		Left:   r.blocks[0].left,
		Top:    r.blocks[0].top,
		Right:  r.blocks[0].right,
		Bottom: r.blocks[0].bottom,
		Page:   pageNum,
	}

	var sb strings.Builder
	for i, b := range r.blocks {
		if i > 0 {
			sb.WriteString(" ")
			box = box.Union(BoundingBox{
				Left: b.left, Top: b.top, Right: b.right, Bottom: b.bottom, Page: pageNum,
			})
		}
		sb.WriteString(b.text)
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return Line{}, false
	}

	first := r.blocks[0]
	return Line{
		ID:       LineID{Page: pageNum, Index: index},
		Page:     pageNum,
		Text:     text,
		Box:      box,
		FontSize: first.fontSize,
		FontName: first.fontName,
		Bold:     strings.Contains(strings.ToLower(first.fontName), "bold"),
	}, true
}

// assembleRows groups the page's characters by baseline, then merges each
// row's characters into gap-separated blocks. Rows come back in reading
// order and blocks within a row are sorted left to right.
func (e *Extractor) assembleRows(texts []pdf.Text, pageHeight float64) []row {
	chars := filterChars(texts)
	if len(chars) == 0 {
		return nil
	}

	type bucket struct {
		yMin, yMax float64
		chars      []pdf.Text
	}

	var buckets []bucket
	for _, t := range chars {
		found := false
		for i := range buckets {
			if t.Y >= buckets[i].yMin-e.RowTolerance && t.Y <= buckets[i].yMax+e.RowTolerance {
				buckets[i].chars = append(buckets[i].chars, t)
				if t.Y < buckets[i].yMin {
					buckets[i].yMin = t.Y
				}
				if t.Y > buckets[i].yMax {
					buckets[i].yMax = t.Y
				}
				found = true
				break
			}
		}
		if !found {
			buckets = append(buckets, bucket{yMin: t.Y, yMax: t.Y, chars: []pdf.Text{t}})
		}
	}

	// Higher Y is higher on the page in PDF user space.
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].yMax > buckets[j].yMax
	})

	rows := make([]row, 0, len(buckets))
	for _, b := range buckets {
		r := e.charsToBlocks(b.chars, pageHeight)
		if len(r.blocks) > 0 {
			rows = append(rows, r)
		}
	}

	return rows
}

// charsToBlocks merges a row's characters into blocks, splitting on gaps
// wider than CellGapThreshold and inserting spaces on word-sized gaps.
func (e *Extractor) charsToBlocks(chars []pdf.Text, pageHeight float64) row {
	sort.Slice(chars, func(i, j int) bool {
		return chars[i].X < chars[j].X
	})

	var r row
	var cur *block
	var sb strings.Builder
	prevRight := 0.0

	flush := func() {
		if cur == nil {
			return
		}
		cur.text = strings.TrimSpace(sb.String())
		if cur.text != "" {
			r.blocks = append(r.blocks, *cur)
		}
		cur = nil
		sb.Reset()
	}

	for _, c := range chars {
		fontSize := c.FontSize
		if fontSize <= 0 {
			fontSize = 10.0
		}
		top := pageHeight - c.Y - fontSize
		if top < 0 {
			top = 0
		}
		bottom := pageHeight - c.Y
		if bottom < top {
			bottom = top
		}

		gap := c.X - prevRight
		switch {
		case cur == nil:
			cur = &block{
				left: c.X, right: c.X + c.W,
				top: top, bottom: bottom,
				fontName: c.Font, fontSize: c.FontSize,
			}
		case gap > e.CellGapThreshold:
			flush()
			cur = &block{
				left: c.X, right: c.X + c.W,
				top: top, bottom: bottom,
				fontName: c.Font, fontSize: c.FontSize,
			}
		default:
			if gap > fontSize*e.WordSpaceMultiplier {
				sb.WriteString(" ")
			}
			if c.X+c.W > cur.right {
				cur.right = c.X + c.W
			}
			if top < cur.top {
				cur.top = top
			}
			if bottom > cur.bottom {
				cur.bottom = bottom
			}
		}
		sb.WriteString(c.S)
		prevRight = c.X + c.W
	}
	flush()

	return r
}

// filterChars removes empty and newline-only text elements.
func filterChars(texts []pdf.Text) []pdf.Text {
	filtered := make([]pdf.Text, 0, len(texts))
	for _, t := range texts {
		s := strings.TrimSpace(t.S)
		if s == "" {
			continue
		}
		filtered = append(filtered, t)
	}
	return filtered
}
