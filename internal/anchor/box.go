package anchor

import (
	"sort"

	"github.com/docanchor/docanchor/internal/layout"
)

// EnclosingBoxes reduces a set of claimed lines to one minimal enclosing
// rectangle per page, ordered by page number. Line boxes are trusted to be
// valid already; no clamping to page bounds is performed.
func EnclosingBoxes(lines []layout.Line) []layout.BoundingBox {
	if len(lines) == 0 {
		return nil
	}

	byPage := make(map[int]layout.BoundingBox)
	for _, l := range lines {
		if box, ok := byPage[l.Page]; ok {
			byPage[l.Page] = box.Union(l.Box)
		} else {
			byPage[l.Page] = l.Box
		}
	}

	pages := make([]int, 0, len(byPage))
	for p := range byPage {
		pages = append(pages, p)
	}
	sort.Ints(pages)

	boxes := make([]layout.BoundingBox, 0, len(pages))
	for _, p := range pages {
		boxes = append(boxes, byPage[p])
	}
	return boxes
}
