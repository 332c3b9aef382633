package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/vsdgest/internal/doctree"
	"github.com/dgallion1/vsdgest/internal/pathstore"
)

// Publisher writes decoded document summaries to pathstore:
//
//	vsdgest/documents/{doc_id}/meta
//	vsdgest/documents/{doc_id}/pages/{n}
//
// with a link from the meta node to each page node.
type Publisher struct {
	ps            *pathstore.Client
	log           *slog.Logger
	maxConcurrent int
}

func NewPublisher(ps *pathstore.Client, log *slog.Logger, maxConcurrent int) *Publisher {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Publisher{ps: ps, log: log, maxConcurrent: maxConcurrent}
}

func documentPrefix(docID string) string {
	return "vsdgest/documents/" + docID
}

// Publish replaces the document's page nodes and meta node. It returns the
// number of nodes written and every error encountered.
func (p *Publisher) Publish(ctx context.Context, job JobSnapshot, tree *doctree.DocTree) (int, error) {
	prefix := documentPrefix(job.DocID)
	source := "vsdgest:" + job.DocID
	metaKey := prefix + "/meta"

	err := withRetry(ctx, p.log, "delete pages", func() error {
		return p.ps.DeleteNode(ctx, prefix+"/pages", true)
	})
	if err != nil {
		return 0, fmt.Errorf("clear pages: %w", err)
	}

	type pageResult struct {
		n   int
		err error
	}
	results := make(chan pageResult, len(tree.Pages))
	sem := make(chan struct{}, p.maxConcurrent)
	var wg sync.WaitGroup

	for i, pg := range tree.Pages {
		sem <- struct{}{}
		wg.Add(1)
		go func(i int, pg *doctree.Page) {
			defer wg.Done()
			defer func() { <-sem }()

			key := fmt.Sprintf("%s/pages/%d", prefix, i)
			err := withRetry(ctx, p.log, "put page", func() error {
				return p.ps.PutNode(ctx, key, pathstore.NodeRequest{
					Value:      pageValue(pg),
					MemoryType: "metacognitive",
					Salience:   0.2,
					Source:     source,
				})
			})
			if err != nil {
				results <- pageResult{err: fmt.Errorf("page %d: %w", i, err)}
				return
			}
			linkErr := withRetry(ctx, p.log, "put link", func() error {
				return p.ps.PutLink(ctx, pathstore.LinkRequest{
					From:    metaKey,
					To:      key,
					Weight:  1,
					Summary: fmt.Sprintf("page %d of %s", i, tree.Title),
				})
			})
			if linkErr != nil {
				p.log.Warn("page link failed", "key", key, "error", linkErr)
			}
			results <- pageResult{n: 1}
		}(i, pg)
	}
	wg.Wait()
	close(results)

	written := 0
	var errs []error
	for r := range results {
		written += r.n
		if r.err != nil {
			errs = append(errs, r.err)
		}
	}

	err = withRetry(ctx, p.log, "put meta", func() error {
		return p.ps.PutNode(ctx, metaKey, pathstore.NodeRequest{
			Value: map[string]any{
				"filename":   job.Filename,
				"title":      tree.Title,
				"kind":       tree.Kind,
				"pages":      len(tree.Pages),
				"shapes":     tree.Shapes(),
				"stencils":   len(tree.Stencils),
				"chunks":     tree.Stats.Chunks,
				"created_at": job.CreatedAt.Format(time.RFC3339),
			},
			MemoryType: "metacognitive",
			Salience:   0.5,
			Source:     source,
		})
	})
	if err != nil {
		errs = append(errs, fmt.Errorf("meta: %w", err))
	} else {
		written++
	}
	return written, errors.Join(errs...)
}

func pageValue(pg *doctree.Page) map[string]any {
	ids := make([]uint32, 0, len(pg.Shapes))
	grouped := 0
	for _, s := range pg.Shapes {
		ids = append(ids, s.ID)
		if s.Group != nil {
			grouped++
		}
	}
	return map[string]any{
		"id":             pg.ID,
		"background":     pg.Background,
		"shape_order":    ids,
		"grouped_shapes": grouped,
	}
}
