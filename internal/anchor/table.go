package anchor

import (
	"github.com/docanchor/docanchor/internal/chunker"
	"github.com/docanchor/docanchor/internal/layout"
)

// Weights for the two table similarity components. Dimension agreement is
// a strong signal but cell content decides between same-shaped tables.
const (
	tableDimWeight  = 0.4
	tableCellWeight = 0.6

	// tableDimPenalty is the score lost per row or column of dimension
	// mismatch; off-by-one is penalized, not fatal.
	tableDimPenalty = 0.25
)

// matchTable anchors a table-type chunk against the independently detected
// table regions using structural similarity rather than line
// concatenation. The winning region is claimed so no other table chunk can
// reuse it.
func (e *Engine) matchTable(st *docState, ac *AnchoredChunk) {
	cells := chunker.ParseMarkdownTable(ac.Text)
	if len(cells) == 0 {
		return
	}

	bestIdx := -1
	bestScore := 0.0
	for i, region := range st.doc.Tables {
		if _, claimed := st.tableClaimed[i]; claimed {
			continue
		}
		if ac.PageHint >= 1 && !withinWindow(region.Page, ac.PageHint, e.params.PageWindow) {
			continue
		}
		score := tableScore(cells, region.Rows, region.Cols, region.CellTexts)
		if score > bestScore+scoreEpsilon {
			bestIdx = i
			bestScore = score
		}
	}

	if bestIdx < 0 || bestScore < e.params.TableThreshold {
		return
	}

	st.tableClaimed[bestIdx] = struct{}{}
	region := st.doc.Tables[bestIdx]

	ac.Anchored = true
	ac.MatchScore = bestScore
	ac.Boxes = []layout.BoundingBox{region.Box}
}

// tableScore combines row/column count agreement with order-sensitive
// cell-text overlap across corresponding cells. An exact structural and
// textual match scores 1.0; corrupting cells degrades the score
// monotonically.
func tableScore(cells [][]string, rows, cols int, regionCells [][]string) float64 {
	chunkRows := len(cells)
	chunkCols := 0
	if chunkRows > 0 {
		chunkCols = len(cells[0])
	}

	dim := 1.0 - tableDimPenalty*float64(absInt(chunkRows-rows)+absInt(chunkCols-cols))
	if dim < 0 {
		dim = 0
	}

	return tableDimWeight*dim + tableCellWeight*cellOverlap(cells, regionCells)
}

// cellOverlap averages per-cell token similarity over the grid both tables
// share, walking cells in row/column order since table chunks preserve it.
func cellOverlap(a, b [][]string) float64 {
	rows := minInt(len(a), len(b))
	if rows == 0 {
		return 0
	}

	total := 0.0
	count := 0
	for i := 0; i < rows; i++ {
		cols := minInt(len(a[i]), len(b[i]))
		for j := 0; j < cols; j++ {
			total += cellSimilarity(a[i][j], b[i][j])
			count++
		}
	}

	if count == 0 {
		return 0
	}
	return total / float64(count)
}

func cellSimilarity(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	if na == nb {
		return 1
	}
	return tokenOverlap(Tokens(a), Tokens(b))
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
