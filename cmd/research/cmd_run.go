package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"go-research-pipeline/internal/format"
	"go-research-pipeline/internal/logging"
	"go-research-pipeline/internal/model"
	"go-research-pipeline/internal/pipeline"
	"go-research-pipeline/pkg/utils"
)

var runFlags struct {
	with          []string
	mandatoryOnly bool
	force         bool
	limit         int
	format        string
	exportDir     string
	exportFormats []string
}

var runCmd = &cobra.Command{
	Use:   "run <topic>",
	Short: "Research a product idea",
	Long: `Runs the agent pipeline for the topic and prints the report followed by the
competitor comparison table. A topic that was researched before is answered
from the cache unless --force is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	f := runCmd.Flags()
	f.StringSliceVar(&runFlags.with, "with", nil, "optional capabilities to enable (default: the configured defaults)")
	f.BoolVar(&runFlags.mandatoryOnly, "mandatory-only", false, "run only the mandatory capabilities")
	f.BoolVar(&runFlags.force, "force", false, "ignore any cached result")
	f.IntVar(&runFlags.limit, "limit", 0, "web search results fed to the researcher (default from config)")
	f.StringVar(&runFlags.format, "format", "ascii", "table format: ascii or markdown")
	f.StringVar(&runFlags.exportDir, "export", "", "write exports for the result under this directory")
	f.StringSliceVar(&runFlags.exportFormats, "export-formats", nil, "export formats: csv, json, md (default from config)")
}

func runRun(cmd *cobra.Command, args []string) error {
	mode, err := format.ParseMode(runFlags.format)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	a, err := openApp(cmd.Context(), cmd, cfg, true)
	if err != nil {
		return err
	}
	defer a.Close()

	req := model.RunRequest{
		Topic:        args[0],
		ForceRefresh: runFlags.force,
		SearchLimit:  runFlags.limit,
	}
	switch {
	case runFlags.mandatoryOnly:
		req.Capabilities = []string{}
	case cmd.Flags().Changed("with"):
		req.Capabilities = runFlags.with
	}

	out := cmd.OutOrStdout()
	res, err := a.Run(cmd.Context(), req)
	if err != nil {
		var stageErr *pipeline.StageInvocationError
		if errors.As(err, &stageErr) && res != nil {
			for _, r := range res.StageResults {
				if r.Succeeded {
					fmt.Fprintf(cmd.ErrOrStderr(), "✅ %s finished before the failure\n", r.Label)
				}
			}
		}
		return err
	}

	for _, n := range res.Notes {
		fmt.Fprintf(out, "ℹ️  %s\n", n)
	}
	if res.FromCache {
		fmt.Fprintf(out, "📦 Loaded %q from history (use --force to run again)\n", res.Topic)
	}
	fmt.Fprintln(out)
	fmt.Fprint(out, res.Report.Markdown())

	if res.HasRecords {
		fmt.Fprintf(out, "\n## Comparison table\n\n%s\n", format.Records(mode, pipeline.RecordColumns(res.Records), res.Records))
	}
	for _, w := range res.Warnings {
		warnf(cmd, "%s", w)
	}

	if runFlags.exportDir != "" {
		formats := runFlags.exportFormats
		if len(formats) == 0 {
			formats = cfg.Export.Formats
		}
		entry := &model.CacheEntry{
			Topic:      res.Topic,
			Report:     res.Report,
			Records:    res.Records,
			HasRecords: res.HasRecords,
			RunID:      res.RunID,
		}
		results := pipeline.ExportEntry(utils.NewOutputManager(runFlags.exportDir), entry, formats, logging.New("export"))
		var written []string
		for _, r := range results {
			if r.Success {
				written = append(written, r.Path)
			}
		}
		if len(written) > 0 {
			fmt.Fprintf(out, "\n💾 Exported: %s\n", strings.Join(written, ", "))
		}
	}
	return nil
}
