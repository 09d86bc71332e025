package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"go-research-pipeline/internal/model"
	"go-research-pipeline/pkg/utils"
)

// Export formats
const (
	FormatCSV      = "csv"
	FormatJSON     = "json"
	FormatMarkdown = "md"
)

// ExportResult represents the result of one export operation
type ExportResult struct {
	Type        string    `json:"type"` // "csv", "json", "md"
	Path        string    `json:"path"`
	RecordCount int       `json:"record_count"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
	ExportedAt  time.Time `json:"exported_at"`
}

// leading columns when present; the rest follow alphabetically
var preferredColumns = []string{"name", "url", "features"}

// RecordColumns returns the union of record keys in table order.
func RecordColumns(records []model.ExtractedRecord) []string {
	seen := make(map[string]bool)
	for _, r := range records {
		for k := range r {
			seen[k] = true
		}
	}

	var cols []string
	for _, k := range preferredColumns {
		if seen[k] {
			cols = append(cols, k)
			delete(seen, k)
		}
	}
	rest := make([]string, 0, len(seen))
	for k := range seen {
		rest = append(rest, k)
	}
	sort.Strings(rest)
	return append(cols, rest...)
}

// ExportRecordsCSV writes the records as a header row plus one row per record.
func ExportRecordsCSV(w io.Writer, records []model.ExtractedRecord) error {
	cols := RecordColumns(records)
	writer := csv.NewWriter(w)
	if err := writer.Write(cols); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range records {
		row := make([]string, len(cols))
		for i, c := range cols {
			row[i] = utils.FormatValue(r[c])
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// ExportRecordsJSON writes the records wrapped with export metadata.
func ExportRecordsJSON(w io.Writer, entry *model.CacheEntry) error {
	records := entry.Records
	if records == nil {
		records = []model.ExtractedRecord{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)

	exportData := map[string]interface{}{
		"export_info": map[string]interface{}{
			"topic":        entry.Topic,
			"run_id":       entry.RunID,
			"exported_at":  time.Now().UTC(),
			"record_count": len(entry.Records),
			"export_type":  "comparison_table",
		},
		"data": records,
	}
	if err := encoder.Encode(exportData); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// ExportReportMarkdown writes the report under a title line.
func ExportReportMarkdown(w io.Writer, entry *model.CacheEntry) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", entry.Topic)
	sb.WriteString(entry.Report.Markdown())
	if entry.HasRecords {
		sb.WriteString("\n## Comparison table\n\n```json\n")
		sb.WriteString(RecordsText(entry.Records))
		sb.WriteString("\n```\n")
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// ExportEntry writes entry in each requested format under om, one file per
// format. Record formats are skipped when the entry has no table.
func ExportEntry(om *utils.OutputManager, entry *model.CacheEntry, formats []string, logger *slog.Logger) []ExportResult {
	if logger == nil {
		logger = slog.Default()
	}
	var results []ExportResult
	for _, format := range formats {
		format = strings.ToLower(strings.TrimSpace(format))
		if format == "markdown" {
			format = FormatMarkdown
		}
		if (format == FormatCSV || format == FormatJSON) && !entry.HasRecords {
			logger.Info("💾 Skipping export, no comparison table", "format", format, "topic", entry.Topic)
			continue
		}

		suffix := "records"
		if format == FormatMarkdown {
			suffix = "report"
		}
		result := ExportResult{Type: format, RecordCount: len(entry.Records), ExportedAt: time.Now()}
		err := func() error {
			path, err := om.GetOutputFilePath(entry.Topic, suffix, format)
			if err != nil {
				return err
			}
			result.Path = path
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("failed to create file: %w", err)
			}
			defer f.Close()
			return WriteExport(f, entry, format)
		}()

		if err != nil {
			result.Error = err.Error()
			logger.Error("❌ Export failed", "format", format, "error", err)
		} else {
			result.Success = true
			logger.Info("✅ Export successful", "format", format, "path", result.Path)
		}
		results = append(results, result)
	}
	return results
}

// WriteExport dispatches on format.
func WriteExport(w io.Writer, entry *model.CacheEntry, format string) error {
	switch format {
	case FormatCSV:
		return ExportRecordsCSV(w, entry.Records)
	case FormatJSON:
		return ExportRecordsJSON(w, entry)
	case FormatMarkdown, "markdown":
		return ExportReportMarkdown(w, entry)
	}
	return fmt.Errorf("unsupported export format %q", format)
}
