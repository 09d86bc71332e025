package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"go-research-pipeline/internal/format"
	"go-research-pipeline/internal/pipeline"
)

var historyFlags struct {
	format    string
	limit     int
	runsLimit int
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse cached reports",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached topics, newest first",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <topic>",
	Short: "Print the cached report for a topic",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historySearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search over cached reports",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistorySearch,
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show the run log (sqlite cache only)",
	Args:  cobra.NoArgs,
	RunE:  runRuns,
}

func init() {
	historyCmd.PersistentFlags().StringVar(&historyFlags.format, "format", "ascii", "table format: ascii or markdown")
	historySearchCmd.Flags().IntVar(&historyFlags.limit, "limit", 10, "maximum hits")
	runsCmd.Flags().StringVar(&historyFlags.format, "format", "ascii", "table format: ascii or markdown")
	runsCmd.Flags().IntVar(&historyFlags.runsLimit, "limit", 20, "maximum runs")

	historyCmd.AddCommand(historyListCmd, historyShowCmd, historySearchCmd)
}

func runHistoryList(cmd *cobra.Command, _ []string) error {
	mode, err := format.ParseMode(historyFlags.format)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	a, err := openApp(cmd.Context(), cmd, cfg, false)
	if err != nil {
		return err
	}
	defer a.Close()

	entries, err := a.History(cmd.Context())
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No history yet. Run 'research run <topic>' first.")
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), format.History(mode, entries))
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	mode, err := format.ParseMode(historyFlags.format)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	a, err := openApp(cmd.Context(), cmd, cfg, false)
	if err != nil {
		return err
	}
	defer a.Close()

	entry, err := a.Lookup(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if entry == nil {
		return fmt.Errorf("no cached report for %q", args[0])
	}
	out := cmd.OutOrStdout()
	fmt.Fprint(out, entry.Report.Markdown())
	if entry.HasRecords {
		fmt.Fprintf(out, "\n## Comparison table\n\n%s\n", format.Records(mode, pipeline.RecordColumns(entry.Records), entry.Records))
	} else {
		fmt.Fprintln(out, "\n(no comparison table)")
	}
	return nil
}

func runHistorySearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	a, err := openApp(cmd.Context(), cmd, cfg, false)
	if err != nil {
		return err
	}
	defer a.Close()

	hits, err := a.Search(cmd.Context(), args[0], historyFlags.limit)
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No matches.")
		return nil
	}
	for _, h := range hits {
		fmt.Fprintf(cmd.OutOrStdout(), "%.3f  %s\n", h.Score, h.Topic)
	}
	return nil
}

func runRuns(cmd *cobra.Command, _ []string) error {
	mode, err := format.ParseMode(historyFlags.format)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	a, err := openApp(cmd.Context(), cmd, cfg, false)
	if err != nil {
		return err
	}
	defer a.Close()

	runs, err := a.Runs(cmd.Context(), historyFlags.runsLimit)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), format.Runs(mode, runs))
	return nil
}
