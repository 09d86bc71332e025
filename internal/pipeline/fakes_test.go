package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go-research-pipeline/internal/llm"
	"go-research-pipeline/internal/logging"
	"go-research-pipeline/internal/model"
	"go-research-pipeline/internal/search"
	"go-research-pipeline/internal/store"
)

var quietLog = logging.Discard()

// scriptedModel answers by role label and records every prompt it sees.
type scriptedModel struct {
	mu      sync.Mutex
	replies map[string]string // label -> output
	fail    map[string]error  // label -> error
	prompts []string
	calls   int
}

func newScriptedModel() *scriptedModel {
	return &scriptedModel{replies: map[string]string{}, fail: map[string]error{}}
}

func (m *scriptedModel) Invoke(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.prompts = append(m.prompts, prompt)
	label := roleOf(prompt)
	if err, ok := m.fail[label]; ok {
		return "", err
	}
	if out, ok := m.replies[label]; ok {
		return out, nil
	}
	return "notes from " + label, nil
}

func (m *scriptedModel) promptFor(label string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.prompts {
		if roleOf(p) == label {
			return p
		}
	}
	return ""
}

func roleOf(prompt string) string {
	rest, ok := strings.CutPrefix(prompt, "You are the ")
	if !ok {
		return ""
	}
	label, _, _ := strings.Cut(rest, ".")
	return label
}

var _ llm.LanguageModel = (*scriptedModel)(nil)

// threeHits is a searcher returning three canned results.
func threeHits(queries *[]string) search.Searcher {
	return search.Func(func(ctx context.Context, query string, limit int) ([]model.SearchResult, error) {
		if queries != nil {
			*queries = append(*queries, query)
		}
		return []model.SearchResult{
			{Title: "Todoist", URL: "https://todoist.com", Snippet: "to-do lists"},
			{Title: "TickTick", URL: "https://ticktick.com", Snippet: "tasks and habits"},
			{Title: "Asana", URL: "https://asana.com", Snippet: "team work management"},
		}, nil
	})
}

var failingSearch = search.Func(func(context.Context, string, int) ([]model.SearchResult, error) {
	return nil, errors.New("search backend unreachable")
})

// spyCache wraps a real cache and can be told to fail.
type spyCache struct {
	store.Cache
	lookupErr error
	storeErr  error
	stores    int
	lookups   int
}

func (s *spyCache) Lookup(ctx context.Context, topic string) (*model.CacheEntry, error) {
	s.lookups++
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	return s.Cache.Lookup(ctx, topic)
}

func (s *spyCache) Store(ctx context.Context, e *model.CacheEntry) error {
	s.stores++
	if s.storeErr != nil {
		return s.storeErr
	}
	return s.Cache.Store(ctx, e)
}

func (s *spyCache) Unwrap() store.Cache { return s.Cache }

func capability(id string, deps ...string) model.Capability {
	return model.Capability{
		ID:             id,
		Label:          strings.ToUpper(id[:1]) + id[1:],
		PromptTemplate: fmt.Sprintf("Work on {{.Topic}} as %s.", id),
		DependsOn:      deps,
	}
}

func mandatory(c model.Capability) model.Capability {
	c.Mandatory = true
	return c
}
