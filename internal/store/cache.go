package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-research-pipeline/internal/model"
)

// Cache is the durable topic-keyed result store. Lookup returns nil, nil on
// a miss. Store replaces any entry with the same topic.
type Cache interface {
	Lookup(ctx context.Context, topic string) (*model.CacheEntry, error)
	Store(ctx context.Context, entry *model.CacheEntry) error
	List(ctx context.Context) ([]model.CacheSummary, error)
	Close() error
}

// RunLog records run and stage progress. Only the sqlite backend keeps one.
type RunLog interface {
	StartRun(ctx context.Context, run model.RunInfo) error
	FinishRun(ctx context.Context, runID, status, errMsg string, at time.Time) error
	SaveStageProgress(ctx context.Context, runID string, p model.StageProgress) error
	ListRuns(ctx context.Context, limit int) ([]model.RunInfo, error)
}

// Backend names accepted by Open.
const (
	DriverSQLite = "sqlite"
	DriverFile   = "file"
)

var ErrNoRunLog = errors.New("run log is not available for this cache backend")

// Open returns the backend named by driver rooted at path.
func Open(driver, path string) (Cache, error) {
	switch strings.ToLower(driver) {
	case "", DriverSQLite, "sqlite3":
		return OpenSQLite(path)
	case DriverFile, "json":
		return OpenFile(path)
	}
	return nil, fmt.Errorf("unknown cache driver %q", driver)
}

// RunLogOf returns the run log behind c, looking through wrapping layers.
func RunLogOf(c Cache) (RunLog, bool) {
	for c != nil {
		if rl, ok := c.(RunLog); ok {
			return rl, true
		}
		u, ok := c.(interface{ Unwrap() Cache })
		if !ok {
			return nil, false
		}
		c = u.Unwrap()
	}
	return nil, false
}

// Summarize builds the listing view of an entry.
func Summarize(e *model.CacheEntry) model.CacheSummary {
	return model.CacheSummary{
		Topic:       e.Topic,
		Sections:    len(e.Report.Sections),
		RecordCount: len(e.Records),
		HasRecords:  e.HasRecords,
		UpdatedAt:   e.UpdatedAt,
	}
}
