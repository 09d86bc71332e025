package index

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/blevesearch/bleve/v2"

	"go-research-pipeline/internal/model"
	"go-research-pipeline/internal/store"
)

// History is a full-text index over cached reports, keyed by topic.
type History struct {
	index bleve.Index
}

// Hit is one search match.
type Hit struct {
	Topic string  `json:"topic"`
	Score float64 `json:"score"`
}

type historyDocument struct {
	Topic   string `json:"topic"`
	Report  string `json:"report"`
	Records string `json:"records"`
}

// OpenMem returns an index that lives only in memory.
func OpenMem() (*History, error) {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create history index: %w", err)
	}
	return &History{index: idx}, nil
}

// Open opens the index at path, creating it when missing.
func Open(path string) (*History, error) {
	idx, err := bleve.Open(path)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		idx, err = bleve.New(path, bleve.NewIndexMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("open history index %s: %w", path, err)
	}
	return &History{index: idx}, nil
}

// IndexEntry adds or replaces the document for entry.Topic.
func (h *History) IndexEntry(entry *model.CacheEntry) error {
	doc := historyDocument{Topic: entry.Topic, Report: entry.Report.Markdown()}
	if entry.HasRecords {
		var sb strings.Builder
		for _, r := range entry.Records {
			for k, v := range r {
				fmt.Fprintf(&sb, "%s %v\n", k, v)
			}
		}
		doc.Records = sb.String()
	}
	if err := h.index.Index(entry.Topic, doc); err != nil {
		return fmt.Errorf("failed to index %q: %w", entry.Topic, err)
	}
	return nil
}

// Rebuild indexes every entry currently in cache.
func (h *History) Rebuild(ctx context.Context, cache store.Cache) (int, error) {
	summaries, err := cache.List(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, s := range summaries {
		select {
		case <-ctx.Done():
			return n, ctx.Err()
		default:
		}
		entry, err := cache.Lookup(ctx, s.Topic)
		if err != nil {
			return n, err
		}
		if entry == nil {
			continue
		}
		if err := h.IndexEntry(entry); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// Search runs a match query over topic, report and records.
func (h *History) Search(ctx context.Context, q string, limit int) ([]Hit, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	if limit <= 0 {
		limit = 10
	}

	var req *bleve.SearchRequest
	if strings.TrimSpace(q) == "" {
		req = bleve.NewSearchRequest(bleve.NewMatchAllQuery())
	} else {
		req = bleve.NewSearchRequest(bleve.NewMatchQuery(q))
	}
	req.Size = limit

	result, err := h.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	hits := make([]Hit, 0, len(result.Hits))
	for _, hit := range result.Hits {
		hits = append(hits, Hit{Topic: hit.ID, Score: hit.Score})
	}
	return hits, nil
}

func (h *History) Close() error { return h.index.Close() }

// OpenForCache opens the index at path (in memory when path is empty) and
// fills it from cache when it holds no documents yet.
func OpenForCache(ctx context.Context, path string, cache store.Cache) (*History, error) {
	var (
		h   *History
		err error
	)
	if path == "" {
		h, err = OpenMem()
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create index dir: %w", err)
		}
		h, err = Open(path)
	}
	if err != nil {
		return nil, err
	}

	count, err := h.index.DocCount()
	if err == nil && count == 0 {
		if _, err := h.Rebuild(ctx, cache); err != nil {
			h.Close()
			return nil, err
		}
	}
	return h, nil
}
