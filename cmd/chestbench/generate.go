package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/stellarlinkco/chestbench/internal/casestore"
	"github.com/stellarlinkco/chestbench/internal/llm"
	"github.com/stellarlinkco/chestbench/internal/runner"
	"github.com/stellarlinkco/chestbench/internal/runstore"
	"github.com/stellarlinkco/chestbench/internal/usagelog"
)

type generateOptions struct {
	provider      string
	model         string
	temperature   float64
	topP          float64
	maxTokens     int
	metadataPath  string
	outputDir     string
	maxCases      int
	skipFirst     int
	logPrefix     string
	captionFilter []string
}

func newGenerateCmd(st *cliState) *cobra.Command {
	var opts generateOptions

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate benchmark questions from case metadata",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(st)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, st, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.provider, "provider", "", "provider name (overrides config)")
	cmd.Flags().StringVar(&opts.model, "model", "", "model name (overrides config)")
	cmd.Flags().Float64Var(&opts.temperature, "temperature", -1, "sampling temperature (overrides config)")
	cmd.Flags().Float64Var(&opts.topP, "top-p", -1, "nucleus sampling parameter (overrides config)")
	cmd.Flags().IntVar(&opts.maxTokens, "max-tokens", 0, "completion token limit (overrides config)")
	cmd.Flags().StringVar(&opts.metadataPath, "metadata", "", "case metadata JSON path (overrides config)")
	cmd.Flags().StringVar(&opts.outputDir, "output-dir", "", "question output directory (overrides config)")
	cmd.Flags().IntVar(&opts.maxCases, "max-cases", 0, "number of cases to use (0 = config default)")
	cmd.Flags().IntVar(&opts.skipFirst, "skip-first", -1, "newest cases to exclude (overrides config)")
	cmd.Flags().StringVar(&opts.logPrefix, "log-prefix", "generation", "usage log filename prefix")
	cmd.Flags().StringSliceVar(&opts.captionFilter, "caption-filter", nil, "keep only cases whose figure captions mention one of these keywords (overrides config)")

	return cmd
}

// resolveCaptionFilter prefers the flag's keyword list; an unset flag falls
// back to the configured list.
func resolveCaptionFilter(flagKeywords, configKeywords []string) []string {
	if flagKeywords != nil {
		return flagKeywords
	}
	return configKeywords
}

func runGenerate(cmd *cobra.Command, st *cliState, opts *generateOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("generate: missing config (internal error)")
	}
	cfg := st.cfg

	model := strings.TrimSpace(opts.model)
	if model == "" {
		model = cfg.Generation.Model
	}
	temperature := *cfg.Generation.Temperature
	if opts.temperature >= 0 {
		temperature = opts.temperature
	}
	topP := *cfg.Generation.TopP
	if opts.topP >= 0 {
		topP = opts.topP
	}
	maxTokens := cfg.Generation.MaxTokens
	if opts.maxTokens > 0 {
		maxTokens = opts.maxTokens
	}
	metadataPath := strings.TrimSpace(opts.metadataPath)
	if metadataPath == "" {
		metadataPath = cfg.Paths.MetadataPath
	}
	outputDir := strings.TrimSpace(opts.outputDir)
	if outputDir == "" {
		outputDir = cfg.Paths.OutputDir
	}
	maxCases := cfg.Generation.MaxCases
	if opts.maxCases > 0 {
		maxCases = opts.maxCases
	}
	skipFirst := cfg.Generation.SkipFirst
	if opts.skipFirst >= 0 {
		skipFirst = opts.skipFirst
	}

	captionFilter := resolveCaptionFilter(opts.captionFilter, cfg.Generation.CaptionFilter)

	store, err := casestore.Load(metadataPath)
	if err != nil {
		return err
	}
	store = store.FilterByCaption(captionFilter)
	if len(captionFilter) > 0 {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Found %d cases matching caption keywords\n", store.Len())
	}

	provider, err := llm.NewProviderFromConfig(cfg, opts.provider)
	if err != nil {
		return err
	}

	logger, err := usagelog.Open(cfg.Paths.LogDir, opts.logPrefix, time.Now())
	if err != nil {
		return err
	}
	defer logger.Close()

	runs, err := runstore.NewStore(cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer runs.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	out := cmd.OutOrStdout()
	r := &runner.GenerateRunner{
		Store:       store,
		Provider:    provider,
		Logger:      logger,
		OutputDir:   outputDir,
		Model:       model,
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
		SkipFirst:   skipFirst,
		MaxCases:    maxCases,
		Retry:       llm.DefaultRetryPolicy,
		Logf: func(format string, args ...any) {
			_, _ = fmt.Fprintf(out, format+"\n", args...)
		},
	}

	summary, runErr := r.Run(ctx)
	if summary != nil {
		saveErr := runs.Save(context.Background(), &runstore.Run{
			Model:       model,
			Mode:        "generate",
			LogPath:     logger.Path(),
			Processed:   summary.Processed,
			Skipped:     summary.Skipped,
			Errored:     summary.Errored,
			TotalTokens: summary.TotalTokens,
			Cost:        summary.Cost,
			StartedAt:   summary.StartedAt,
			FinishedAt:  summary.FinishedAt,
		})
		if saveErr != nil && runErr == nil {
			runErr = saveErr
		}

		_, _ = fmt.Fprintf(out, "Generation run: processed=%d errored=%d tokens=%d log=%s\n",
			summary.Processed, summary.Errored, summary.TotalTokens, logger.Path())
	}
	return runErr
}
