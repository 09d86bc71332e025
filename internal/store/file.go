package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go-research-pipeline/internal/model"
)

// File keeps every entry in one JSON document shaped like the legacy
// history.json: topic -> {report, df_data}. Writes go to a temp file that
// is synced and renamed over the original, so a crash leaves either the old
// or the new document. Every Store rewrites the whole file.
type File struct {
	path string
	mu   sync.Mutex
}

type fileEntry struct {
	Report     string                  `json:"report"`
	DFData     []model.ExtractedRecord `json:"df_data"`
	Sections   []model.Section         `json:"sections,omitempty"`
	HasRecords *bool                   `json:"has_records,omitempty"`
	RunID      string                  `json:"run_id,omitempty"`
	CreatedAt  time.Time               `json:"created_at,omitzero"`
	UpdatedAt  time.Time               `json:"updated_at,omitzero"`
}

func OpenFile(path string) (*File, error) {
	if path == "" {
		return nil, errors.New("file cache: path is required")
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}
	return &File{path: path}, nil
}

func (f *File) Lookup(ctx context.Context, topic string) (*model.CacheEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		return nil, err
	}
	fe, ok := doc[topic]
	if !ok {
		return nil, nil
	}
	return fe.toEntry(topic), nil
}

func (f *File) Store(ctx context.Context, entry *model.CacheEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = now
	}
	created := entry.CreatedAt
	if prev, ok := doc[entry.Topic]; ok && !prev.CreatedAt.IsZero() {
		created = prev.CreatedAt
	}
	if created.IsZero() {
		created = entry.UpdatedAt
	}
	entry.CreatedAt = created

	has := entry.HasRecords
	doc[entry.Topic] = fileEntry{
		Report:     entry.Report.Markdown(),
		DFData:     entry.Records,
		Sections:   entry.Report.Sections,
		HasRecords: &has,
		RunID:      entry.RunID,
		CreatedAt:  entry.CreatedAt,
		UpdatedAt:  entry.UpdatedAt,
	}
	return f.save(doc)
}

func (f *File) List(ctx context.Context) ([]model.CacheSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load()
	if err != nil {
		return nil, err
	}
	out := make([]model.CacheSummary, 0, len(doc))
	for topic, fe := range doc {
		out = append(out, Summarize(fe.toEntry(topic)))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].Topic < out[j].Topic
	})
	return out, nil
}

func (f *File) Close() error { return nil }

func (f *File) load() (map[string]fileEntry, error) {
	b, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]fileEntry{}, nil
	}
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return map[string]fileEntry{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	doc := map[string]fileEntry{}
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.path, err)
	}
	return doc, nil
}

func (f *File) save(doc map[string]fileEntry) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(doc); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, f.path)
}

func (fe fileEntry) toEntry(topic string) *model.CacheEntry {
	entry := &model.CacheEntry{
		Topic:      topic,
		Records:    fe.DFData,
		HasRecords: fe.DFData != nil,
		RunID:      fe.RunID,
		CreatedAt:  fe.CreatedAt,
		UpdatedAt:  fe.UpdatedAt,
	}
	if fe.HasRecords != nil {
		entry.HasRecords = *fe.HasRecords
	}
	switch {
	case len(fe.Sections) > 0:
		entry.Report.Sections = fe.Sections
	case fe.Report != "":
		// entries written before sections were kept
		entry.Report.Sections = []model.Section{{Label: "Report", Content: fe.Report}}
	}
	return entry
}
