// Package pipeline wires the extraction, chunking, anchoring, and
// duplicate-gate stages into one document processor.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/docanchor/docanchor/internal/anchor"
	"github.com/docanchor/docanchor/internal/chunker"
	"github.com/docanchor/docanchor/internal/dedup"
	"github.com/docanchor/docanchor/internal/layout"
)

// Result is the outcome of processing one document.
type Result struct {
	Path      string                 `json:"path"`
	Hash      string                 `json:"hash"`
	Pages     int                    `json:"pages"`
	Chunks    []anchor.AnchoredChunk `json:"chunks"`
	Duplicate bool                   `json:"duplicate"`
}

// Analyzer extracts line geometry and table regions from a PDF.
// *layout.Extractor is the production implementation.
type Analyzer interface {
	ExtractLines(path string) (*layout.Document, error)
	DetectTables(path string) ([]layout.TableRegion, error)
}

// Processor runs the full anchoring pipeline for PDF documents.
type Processor struct {
	analyzer Analyzer
	chunker  chunker.Chunker
	engine   *anchor.Engine
	store    dedup.Store
}

// New creates a processor. All four collaborators are required.
func New(analyzer Analyzer, ch chunker.Chunker, engine *anchor.Engine, store dedup.Store) (*Processor, error) {
	if analyzer == nil || ch == nil || engine == nil || store == nil {
		return nil, errors.New("pipeline: analyzer, chunker, engine, and store are all required")
	}
	return &Processor{
		analyzer: analyzer,
		chunker:  ch,
		engine:   engine,
		store:    store,
	}, nil
}

// Process anchors the chunks of one PDF. Byte-identical documents are
// served from the store without re-running extraction or matching.
// Cancellation and deadlines come from the caller's context and are
// checked between stages, so an expired deadline surfaces as the context
// error rather than a partial result.
func (p *Processor) Process(ctx context.Context, path string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pipeline: read %s: %w", path, err)
	}
	hash := dedup.Hash(data)

	if rec, err := p.store.Get(ctx, hash); err == nil {
		log.Printf("pipeline: %s already processed as %s, serving stored result", path, rec.Path)
		return &Result{
			Path:      path,
			Hash:      hash,
			Pages:     rec.Pages,
			Chunks:    rec.Chunks,
			Duplicate: true,
		}, nil
	} else if !errors.Is(err, dedup.ErrNotFound) {
		return nil, fmt.Errorf("pipeline: duplicate gate: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Line extraction and table detection read the file independently,
	// so they run concurrently.
	var (
		doc    *layout.Document
		tables []layout.TableRegion
		g      errgroup.Group
	)
	g.Go(func() error {
		var err error
		doc, err = p.analyzer.ExtractLines(path)
		return err
	})
	g.Go(func() error {
		var err error
		tables, err = p.analyzer.DetectTables(path)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("pipeline: layout analysis: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc.Tables = tables

	chunks, err := p.chunker.Chunk(ctx, pageTexts(doc))
	if err != nil {
		return nil, fmt.Errorf("pipeline: chunking: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	anchored := p.engine.Anchor(doc, chunks)

	rec := &dedup.Record{
		Hash:      hash,
		Path:      path,
		Pages:     doc.PageCount(),
		Chunks:    anchored,
		CreatedAt: time.Now().UTC(),
	}
	if err := p.store.Put(ctx, rec); err != nil {
		return nil, fmt.Errorf("pipeline: store result: %w", err)
	}

	return &Result{
		Path:   path,
		Hash:   hash,
		Pages:  doc.PageCount(),
		Chunks: anchored,
	}, nil
}

// pageTexts assembles per-page plain text from the extracted lines, in
// reading order, as input for the chunker.
func pageTexts(doc *layout.Document) []chunker.PageText {
	byPage := make(map[int][]layout.Line)
	var pages []int
	for _, l := range doc.Lines {
		if _, ok := byPage[l.Page]; !ok {
			pages = append(pages, l.Page)
		}
		byPage[l.Page] = append(byPage[l.Page], l)
	}
	sort.Ints(pages)

	out := make([]chunker.PageText, 0, len(pages))
	for _, page := range pages {
		lines := byPage[page]
		sort.SliceStable(lines, func(i, j int) bool {
			if lines[i].Box.Top != lines[j].Box.Top {
				return lines[i].Box.Top < lines[j].Box.Top
			}
			return lines[i].Box.Left < lines[j].Box.Left
		})

		parts := make([]string, len(lines))
		for i, l := range lines {
			parts[i] = l.Text
		}
		out = append(out, chunker.PageText{
			Page: page,
			Text: strings.Join(parts, "\n"),
		})
	}
	return out
}
