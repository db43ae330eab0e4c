package anchor

import (
	"fmt"
	"log"
	"sort"

	"github.com/docanchor/docanchor/internal/chunker"
	"github.com/docanchor/docanchor/internal/layout"
)

// scoreEpsilon is the band within which two run scores count as tied and
// the fixed tie-break order applies.
const scoreEpsilon = 1e-9

// Engine anchors semantic chunks onto the line geometry of one document.
// An Engine is stateless across documents and safe for concurrent use;
// each Anchor call builds its own ledger and intermediate state.
type Engine struct {
	params Params
}

// NewEngine creates an engine with the given matcher parameters.
func NewEngine(params Params) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid anchor params: %w", err)
	}
	return &Engine{params: params}, nil
}

// docState is the per-run working set: lines in reading order, their
// precomputed tokens, and the claim bookkeeping. Owned by exactly one
// Anchor call.
type docState struct {
	doc          *layout.Document
	lines        []layout.Line
	tokens       [][]string
	ledger       *Ledger
	tableClaimed map[int]struct{}
}

// candidate is one contiguous run of unclaimed lines under evaluation.
type candidate struct {
	idx    []int // indices into docState.lines
	tokens []string
	score  float64
}

func (c candidate) page(st *docState) int {
	return st.lines[c.idx[0]].Page
}

func (c candidate) startID(st *docState) layout.LineID {
	return st.lines[c.idx[0]].ID
}

// Anchor reconciles each chunk, in document order, onto the line runs that
// produced it. Earlier chunks have first claim on ambiguous text. The
// output contains every input chunk: unmatched chunks come back with
// Anchored=false, untouched otherwise.
func (e *Engine) Anchor(doc *layout.Document, chunks []chunker.Chunk) []AnchoredChunk {
	st := e.newDocState(doc)

	out := make([]AnchoredChunk, 0, len(chunks))
	for _, c := range chunks {
		ac := AnchoredChunk{Chunk: c}
		if !c.Valid() {
			log.Printf("anchor: chunk %s is malformed, passing through unanchored", c.ID)
			out = append(out, ac)
			continue
		}

		if c.Type == chunker.TypeTable {
			e.matchTable(st, &ac)
		} else {
			e.matchLines(st, &ac)
		}
		out = append(out, ac)
	}

	return out
}

// newDocState validates and orders the document's lines and precomputes
// their comparison tokens. Malformed lines are skipped with a warning; the
// rest of the document continues.
func (e *Engine) newDocState(doc *layout.Document) *docState {
	st := &docState{
		doc:          doc,
		ledger:       NewLedger(),
		tableClaimed: make(map[int]struct{}),
	}

	for _, l := range doc.Lines {
		if !l.Valid() {
			log.Printf("anchor: skipping malformed line %s", l.ID)
			continue
		}
		st.lines = append(st.lines, l)
	}

	// Reading order: top-to-bottom, left-to-right within a page.
	sort.SliceStable(st.lines, func(i, j int) bool {
		a, b := st.lines[i], st.lines[j]
		if a.Page != b.Page {
			return a.Page < b.Page
		}
		if a.Box.Top != b.Box.Top {
			return a.Box.Top < b.Box.Top
		}
		return a.Box.Left < b.Box.Left
	})

	st.tokens = make([][]string, len(st.lines))
	for i, l := range st.lines {
		st.tokens[i] = Tokens(l.Text)
	}

	return st
}

// matchLines runs the sliding-window search for one non-table chunk and,
// on acceptance, claims the winning run and attaches its geometry.
func (e *Engine) matchLines(st *docState, ac *AnchoredChunk) {
	chunkTokens := Tokens(ac.Text)
	if len(chunkTokens) == 0 {
		return
	}

	candidates := e.generate(st, ac.PageHint, chunkTokens)
	if len(candidates) == 0 {
		return
	}

	best, ok := e.selectBest(st, candidates, ac.PageHint)
	if ok && best.score >= e.params.AcceptThreshold {
		e.accept(st, ac, best, chunkTokens)
		return
	}

	// No run cleared the threshold outright. A chunk whose text spans a
	// page break leaves only its first half on the page, which scores
	// poorly against the full chunk text. Rescue: look for a run that is
	// a strong match for the chunk's token prefix, ends at the bottom
	// margin, and continues cleanly at the top of the next page.
	if merged, ok := e.rescueTruncated(st, candidates, chunkTokens); ok {
		e.acceptMerged(st, ac, merged, chunkTokens)
	}
}

// generate produces candidate runs: contiguous unclaimed lines on a single
// page whose combined token count falls inside the tolerance band around
// the chunk's token count. Single-line runs are always candidates so a
// short chunk can match a long line on score alone.
func (e *Engine) generate(st *docState, pageHint int, chunkTokens []string) []candidate {
	minLen, maxLen := e.lengthBand(len(chunkTokens))

	// Unclaimed candidate positions, grouped by page.
	perPage := make(map[int][]int)
	var pages []int
	for i, l := range st.lines {
		if st.ledger.Claimed(l.ID) {
			continue
		}
		if pageHint >= 1 && !withinWindow(l.Page, pageHint, e.params.PageWindow) {
			continue
		}
		if _, ok := perPage[l.Page]; !ok {
			pages = append(pages, l.Page)
		}
		perPage[l.Page] = append(perPage[l.Page], i)
	}
	sort.Ints(pages)

	var out []candidate
	for _, page := range pages {
		positions := perPage[page]
		for s := range positions {
			var runTokens []string
			for n := 0; s+n < len(positions) && n < e.params.MaxRunLines; n++ {
				runTokens = append(runTokens, st.tokens[positions[s+n]]...)
				if len(runTokens) > maxLen && n > 0 {
					break
				}
				// Runs reaching the page's last unclaimed line stay
				// candidates even below the band: a chunk split by a
				// page break leaves only a short prefix behind.
				if len(runTokens) >= minLen || n == 0 || s+n == len(positions)-1 {
					idx := make([]int, n+1)
					copy(idx, positions[s:s+n+1])
					tokens := make([]string, len(runTokens))
					copy(tokens, runTokens)
					out = append(out, candidate{
						idx:    idx,
						tokens: tokens,
						score:  scoreTokens(chunkTokens, tokens),
					})
				}
			}
		}
	}

	return out
}

func (e *Engine) lengthBand(chunkLen int) (int, int) {
	min := int(float64(chunkLen) * (1 - e.params.LengthTolerance))
	max := int(float64(chunkLen)*(1+e.params.LengthTolerance)) + 1
	if min < 1 {
		min = 1
	}
	return min, max
}

func withinWindow(page, hint, window int) bool {
	d := page - hint
	if d < 0 {
		d = -d
	}
	return d <= window
}

// selectBest picks the highest-scoring candidate. Ties break by a fixed
// rule order so reruns of the same document reproduce the same anchors: a
// run on the hinted page wins, then the shortest run, then the lowest
// starting line ID.
func (e *Engine) selectBest(st *docState, candidates []candidate, pageHint int) (candidate, bool) {
	if len(candidates) == 0 {
		return candidate{}, false
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		switch {
		case c.score > best.score+scoreEpsilon:
			best = c
		case c.score >= best.score-scoreEpsilon:
			if e.tieBreak(st, c, best, pageHint) {
				best = c
			}
		}
	}
	return best, true
}

// tieBreak reports whether a should replace b under the fixed rule order.
func (e *Engine) tieBreak(st *docState, a, b candidate, pageHint int) bool {
	if pageHint >= 1 {
		aHinted := a.page(st) == pageHint
		bHinted := b.page(st) == pageHint
		if aHinted != bHinted {
			return aHinted
		}
	}
	if len(a.idx) != len(b.idx) {
		return len(a.idx) < len(b.idx)
	}
	return a.startID(st).Less(b.startID(st))
}

// accept claims the winning run, attaches its geometry, and then probes
// for a cross-page continuation when the run ends at the bottom margin
// with chunk text left over.
func (e *Engine) accept(st *docState, ac *AnchoredChunk, best candidate, chunkTokens []string) {
	lines := st.claimRun(best)

	ac.Anchored = true
	ac.MatchScore = best.score
	ac.Boxes = EnclosingBoxes(lines)
	ac.Lines = lineIDs(lines)

	if !e.endsAtBottom(st, best) || len(chunkTokens) <= len(best.tokens) {
		return
	}

	remainder := chunkTokens[len(best.tokens):]
	cont, ok := e.findContinuation(st, best.page(st)+1, remainder)
	if !ok {
		return
	}

	contLines := st.claimRun(cont)
	ac.Boxes = append(ac.Boxes, EnclosingBoxes(contLines)...)
	ac.Lines = append(ac.Lines, lineIDs(contLines)...)

	// Combined score covers both halves against the whole chunk.
	merged := append(append([]string{}, best.tokens...), cont.tokens...)
	ac.MatchScore = scoreTokens(chunkTokens, merged)
}

// rescueTruncated finds a run that strongly matches the chunk's token
// prefix and ends at the page's bottom margin, then requires the remainder
// to match at the top of the next page. Both halves together form the
// merged anchor; without a qualifying continuation there is no rescue.
func (e *Engine) rescueTruncated(st *docState, candidates []candidate, chunkTokens []string) (mergedRun, bool) {
	var best candidate
	found := false
	for _, c := range candidates {
		if len(c.tokens) >= len(chunkTokens) {
			continue
		}
		if !e.endsAtBottom(st, c) {
			continue
		}
		prefix := chunkTokens[:len(c.tokens)]
		prefixScore := scoreTokens(prefix, c.tokens)
		if prefixScore < e.params.AcceptThreshold {
			continue
		}
		if !found || prefixScore > best.score+scoreEpsilon ||
			(prefixScore >= best.score-scoreEpsilon && e.tieBreak(st, c, best, 0)) {
			best = c
			best.score = prefixScore
			found = true
		}
	}
	if !found {
		return mergedRun{}, false
	}

	remainder := chunkTokens[len(best.tokens):]
	cont, ok := e.findContinuation(st, best.page(st)+1, remainder)
	if !ok {
		return mergedRun{}, false
	}

	return mergedRun{first: best, second: cont}, true
}

// mergedRun is a page-break continuation pair: the truncated run on page N
// and its continuation at the top of page N+1.
type mergedRun struct {
	first  candidate
	second candidate
}

func (e *Engine) acceptMerged(st *docState, ac *AnchoredChunk, m mergedRun, chunkTokens []string) {
	firstLines := st.claimRun(m.first)
	secondLines := st.claimRun(m.second)

	ac.Anchored = true
	ac.Boxes = append(EnclosingBoxes(firstLines), EnclosingBoxes(secondLines)...)
	ac.Lines = append(lineIDs(firstLines), lineIDs(secondLines)...)

	merged := append(append([]string{}, m.first.tokens...), m.second.tokens...)
	ac.MatchScore = scoreTokens(chunkTokens, merged)
}

// endsAtBottom reports whether the run's last line sits within the bottom
// margin of its page. Unknown page geometry disables the check.
func (e *Engine) endsAtBottom(st *docState, c candidate) bool {
	last := st.lines[c.idx[len(c.idx)-1]]
	pageHeight := st.doc.PageHeight(last.Page)
	if pageHeight <= 0 {
		return false
	}
	return last.Box.Bottom >= pageHeight-e.params.BottomMargin
}

// findContinuation scores the remainder tokens against runs of unclaimed
// lines starting within the top margin of the given page. Pure proximity
// plus page adjacency; never a full-document search.
func (e *Engine) findContinuation(st *docState, page int, remainder []string) (candidate, bool) {
	if len(remainder) == 0 {
		return candidate{}, false
	}
	minLen, maxLen := e.lengthBand(len(remainder))

	var positions []int
	for i, l := range st.lines {
		if l.Page != page || st.ledger.Claimed(l.ID) {
			continue
		}
		positions = append(positions, i)
	}
	if len(positions) == 0 {
		return candidate{}, false
	}

	var best candidate
	found := false
	for s := range positions {
		if st.lines[positions[s]].Box.Top > e.params.TopMargin {
			break
		}
		var runTokens []string
		for n := 0; s+n < len(positions) && n < e.params.MaxRunLines; n++ {
			runTokens = append(runTokens, st.tokens[positions[s+n]]...)
			if len(runTokens) > maxLen && n > 0 {
				break
			}
			if len(runTokens) < minLen && n != len(positions)-s-1 {
				continue
			}
			idx := make([]int, n+1)
			copy(idx, positions[s:s+n+1])
			tokens := make([]string, len(runTokens))
			copy(tokens, runTokens)
			score := scoreTokens(remainder, tokens)
			c := candidate{idx: idx, tokens: tokens, score: score}
			if !found || score > best.score+scoreEpsilon ||
				(score >= best.score-scoreEpsilon && e.tieBreak(st, c, best, 0)) {
				best = c
				found = true
			}
		}
	}

	if !found || best.score < e.params.AcceptThreshold {
		return candidate{}, false
	}
	return best, true
}

// claimRun marks every line of an accepted run in the ledger and returns
// the claimed lines. Claimed lines never re-enter candidate generation, so
// a double claim here is a defect and panics in the ledger.
func (st *docState) claimRun(c candidate) []layout.Line {
	lines := make([]layout.Line, len(c.idx))
	for i, pos := range c.idx {
		lines[i] = st.lines[pos]
		st.ledger.Claim(lines[i].ID)
	}
	return lines
}

func lineIDs(lines []layout.Line) []layout.LineID {
	ids := make([]layout.LineID, len(lines))
	for i, l := range lines {
		ids[i] = l.ID
	}
	return ids
}
