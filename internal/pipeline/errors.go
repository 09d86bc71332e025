package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrConfiguration   = errors.New("configuration error")
	ErrCycleFound      = errors.New("capability dependency cycle")
	ErrStageInvocation = errors.New("stage invocation failed")
	ErrExtractionMiss  = errors.New("no structured data found")
	ErrCacheIO         = errors.New("cache i/o error")
)

// ConfigurationError reports an invalid capability graph or run selection.
// It is raised before any stage executes.
type ConfigurationError struct {
	Kind error
	Msg  string
}

func (e *ConfigurationError) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
}

func (e *ConfigurationError) Unwrap() []error {
	if e.Kind == ErrConfiguration {
		return []error{ErrConfiguration}
	}
	return []error{e.Kind, ErrConfiguration}
}

func configf(format string, args ...any) error {
	return &ConfigurationError{Kind: ErrConfiguration, Msg: fmt.Sprintf(format, args...)}
}

func cycleError(path []string) error {
	return &ConfigurationError{Kind: ErrCycleFound, Msg: strings.Join(path, " -> ")}
}

// StageInvocationError identifies the stage whose opaque call failed.
type StageInvocationError struct {
	StageID string
	Label   string
	Err     error
}

func (e *StageInvocationError) Error() string {
	return fmt.Sprintf("stage %q (%s) failed: %v", e.StageID, e.Label, e.Err)
}

func (e *StageInvocationError) Unwrap() []error { return []error{ErrStageInvocation, e.Err} }

// CacheIOError wraps a durable store failure. Callers degrade instead of failing the run.
type CacheIOError struct {
	Op    string // "lookup" or "store"
	Topic string
	Err   error
}

func (e *CacheIOError) Error() string {
	return fmt.Sprintf("cache %s %q: %v", e.Op, e.Topic, e.Err)
}

func (e *CacheIOError) Unwrap() []error { return []error{ErrCacheIO, e.Err} }
