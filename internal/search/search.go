package search

import (
	"context"

	"go-research-pipeline/internal/model"
)

// Searcher returns at most limit web results for query.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]model.SearchResult, error)
}

// None is the offline searcher: it always succeeds with no results.
type None struct{}

func (None) Search(context.Context, string, int) ([]model.SearchResult, error) { return nil, nil }

// Func adapts a plain function to Searcher.
type Func func(ctx context.Context, query string, limit int) ([]model.SearchResult, error)

func (f Func) Search(ctx context.Context, query string, limit int) ([]model.SearchResult, error) {
	return f(ctx, query, limit)
}
