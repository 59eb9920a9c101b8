package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stellarlinkco/chestbench/internal/runner"
	"github.com/stellarlinkco/chestbench/internal/usagelog"
)

func newLogsCmd(st *cliState) *cobra.Command {
	var pattern string

	cmd := &cobra.Command{
		Use:   "logs [file]",
		Short: "Summarize a usage log file (latest by default)",
		Args:  cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(st)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogs(cmd, st, args, pattern)
		},
	}

	cmd.Flags().StringVar(&pattern, "pattern", "*.json", "glob used to pick the latest log file")
	return cmd
}

func runLogs(cmd *cobra.Command, st *cliState, args []string, pattern string) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("logs: missing config (internal error)")
	}

	path := ""
	if len(args) == 1 {
		path = strings.TrimSpace(args[0])
	}
	if path == "" {
		latest, err := usagelog.LatestLog(st.cfg.Paths.LogDir, pattern)
		if err != nil {
			return err
		}
		path = latest
	}

	entries, skippedLines, err := usagelog.ReadEntries(path)
	if err != nil {
		return err
	}

	var completed, skipped, errored, correct, tokens int
	var cost float64
	for i := range entries {
		e := &entries[i]
		switch {
		case e.IsSkipped():
			skipped++
		case e.IsError():
			errored++
		default:
			completed++
			if e.Usage != nil {
				tokens += e.Usage.TotalTokens
			}
			if e.Cost != nil {
				cost += *e.Cost
			}
			if e.ModelAnswer != nil && e.CorrectAnswer != nil &&
				runner.AnswerMatches(*e.ModelAnswer, *e.CorrectAnswer) {
				correct++
			}
		}
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Log: %s\n", path)
	_, _ = fmt.Fprintf(out, "Entries: %d completed, %d skipped, %d errored (%d unparsed lines)\n",
		completed, skipped, errored, skippedLines)
	_, _ = fmt.Fprintf(out, "Tokens: %d, cost: %.4f\n", tokens, cost)
	if completed > 0 {
		_, _ = fmt.Fprintf(out, "Correct: %d/%d (%.4f)\n", correct, completed, float64(correct)/float64(completed))
	}
	return nil
}
