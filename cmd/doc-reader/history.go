// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/doc-reader/internal/convert"
	"github.com/pdiddy/doc-reader/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded conversions",
	Long: `History lists conversions recorded when history.enabled is true.
Only metadata is kept: file names, the engine used, sizes and the
diagnostics of failed attempts. Document content is never stored.`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of entries to show")
	historyCmd.Flags().Bool("json", false, "output entries as JSON")
	historyCmd.Flags().Bool("yaml", false, "output entries as YAML")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	yamlOutput, _ := cmd.Flags().GetBool("yaml")

	if _, err := os.Stat(cfg.History.Path); errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(out, "No history recorded.")
		return nil
	}

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	if yamlOutput {
		return store.ExportYAML(cmd.Context(), out, limit)
	}

	entries, err := store.List(cmd.Context(), limit)
	if err != nil {
		return err
	}
	return formatHistory(out, entries, jsonOutput)
}

func formatHistory(w io.Writer, entries []history.Entry, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(w, "No history recorded.")
		return nil
	}

	fmt.Fprintf(w, "%-20s  %-30s  %-9s  %-8s  %-10s  %s\n",
		"When", "File", "Status", "Engine", "Original", "Converted")
	fmt.Fprintln(w, strings.Repeat("-", 100))

	for _, e := range entries {
		name := truncate(e.Name, 30)
		status := "failed"
		converted := "-"
		if e.Succeeded {
			status = "converted"
			converted = convert.FormatSize(e.ConvertedBytes)
		}
		engine := string(e.Engine)
		if engine == "" {
			engine = "-"
		}
		fmt.Fprintf(w, "%-20s  %-30s  %-9s  %-8s  %-10s  %s\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"), name, status, engine,
			convert.FormatSize(e.OriginalBytes), converted)
	}
	return nil
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
