package layout

import (
	"fmt"

	"github.com/ledongthuc/pdf"
)

// MinTableRows is the smallest number of aligned rows treated as a table.
const MinTableRows = 2

// DetectTables scans a document for grid-shaped regions: runs of vertically
// adjacent rows whose characters split into the same number of
// gap-separated cells. Detection is independent of ExtractLines; the two
// phases may run concurrently against the same file.
func (e *Extractor) DetectTables(path string) ([]TableRegion, error) {
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

	heightOf := func(page int) float64 {
		for _, s := range sizes {
			if s.Page == page {
				return s.Height
			}
		}
		return 0
	}

	var regions []TableRegion
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		rows := e.assembleRows(page.Content().Text, heightOf(pageNum))
		regions = append(regions, gridRegions(rows, pageNum)...)
	}

	return regions, nil
}

// gridRegions extracts table regions from a page's rows: maximal runs of
// consecutive rows that all have the same cell count >= 2.
func gridRegions(rows []row, pageNum int) []TableRegion {
	var regions []TableRegion
	var run []row

	flush := func() {
		if len(run) >= MinTableRows {
			regions = append(regions, regionFromRows(run, pageNum))
		}
		run = nil
	}

	for _, r := range rows {
		cols := len(r.blocks)
		if cols < 2 {
			flush()
			continue
		}
		if len(run) > 0 && len(run[0].blocks) != cols {
			flush()
		}
		run = append(run, r)
	}
	flush()

	return regions
}

func regionFromRows(run []row, pageNum int) TableRegion {
	cols := len(run[0].blocks)

	region := TableRegion{
		Page: pageNum,
		Rows: len(run),
		Cols: cols,
	}

	box := BoundingBox{
		Left:   run[0].blocks[0].left,
		Top:    run[0].blocks[0].top,
		Right:  run[0].blocks[0].right,
		Bottom: run[0].blocks[0].bottom,
		Page:   pageNum,
	}

	region.CellTexts = make([][]string, len(run))
	for i, r := range run {
		cells := make([]string, cols)
		for j, b := range r.blocks {
			cells[j] = b.text
			box = box.Union(BoundingBox{
				Left: b.left, Top: b.top, Right: b.right, Bottom: b.bottom, Page: pageNum,
			})
		}
		region.CellTexts[i] = cells
	}

	region.Box = box
	return region
}
