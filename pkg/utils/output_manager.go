package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// OutputManager lays out export files under a base directory, one folder per topic.
type OutputManager struct {
	BaseOutputDir string
}

func NewOutputManager(baseOutputDir string) *OutputManager {
	if baseOutputDir == "" {
		baseOutputDir = "exports"
	}
	return &OutputManager{BaseOutputDir: baseOutputDir}
}

// CreateTopicOutputDir creates (if needed) the directory for a topic's exports.
func (om *OutputManager) CreateTopicOutputDir(topic string) (string, error) {
	name := CleanTopicName(topic)
	if name == "" {
		name = "untitled"
	}
	dir := filepath.Join(om.BaseOutputDir, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	return dir, nil
}

// GetOutputFilePath returns <base>/<topic>/<topic>_<suffix>.<ext>.
func (om *OutputManager) GetOutputFilePath(topic, suffix, ext string) (string, error) {
	dir, err := om.CreateTopicOutputDir(topic)
	if err != nil {
		return "", err
	}
	name := filepath.Base(dir)
	if suffix != "" {
		name += "_" + suffix
	}
	return filepath.Join(dir, name+"."+strings.TrimPrefix(ext, ".")), nil
}

// ContentType maps an export type to its HTTP content type.
func ContentType(fileType string) string {
	switch fileType {
	case "csv":
		return "text/csv; charset=utf-8"
	case "json":
		return "application/json"
	case "markdown", "md":
		return "text/markdown; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}
