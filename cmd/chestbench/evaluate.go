package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/stellarlinkco/chestbench/internal/dataset"
	"github.com/stellarlinkco/chestbench/internal/llm"
	"github.com/stellarlinkco/chestbench/internal/payload"
	"github.com/stellarlinkco/chestbench/internal/runner"
	"github.com/stellarlinkco/chestbench/internal/runstore"
	"github.com/stellarlinkco/chestbench/internal/usagelog"
)

type evaluateOptions struct {
	provider     string
	model        string
	temperature  float64
	maxTokens    int
	datasetPath  string
	figuresDir   string
	useURLs      bool
	maxQuestions int
	logPrefix    string
}

func newEvaluateCmd(st *cliState) *cobra.Command {
	var opts evaluateOptions

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score a model over finished benchmark questions",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(st)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluate(cmd, st, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.provider, "provider", "", "provider name (overrides config)")
	cmd.Flags().StringVar(&opts.model, "model", "", "model name (overrides config)")
	cmd.Flags().Float64Var(&opts.temperature, "temperature", -1, "sampling temperature (overrides config)")
	cmd.Flags().IntVar(&opts.maxTokens, "max-tokens", 0, "completion token limit (overrides config)")
	cmd.Flags().StringVar(&opts.datasetPath, "dataset", "", "benchmark questions JSONL path")
	cmd.Flags().StringVar(&opts.figuresDir, "figures-dir", "", "local figures directory (overrides config)")
	cmd.Flags().BoolVar(&opts.useURLs, "use-urls", false, "fetch images from source URLs instead of local files")
	cmd.Flags().IntVar(&opts.maxQuestions, "max-questions", 0, "number of questions to evaluate (0 = all)")
	cmd.Flags().StringVar(&opts.logPrefix, "log-prefix", "", "usage log filename prefix (overrides config)")
	_ = cmd.MarkFlagRequired("dataset")

	return cmd
}

func runEvaluate(cmd *cobra.Command, st *cliState, opts *evaluateOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("evaluate: missing config (internal error)")
	}
	cfg := st.cfg

	model := strings.TrimSpace(opts.model)
	if model == "" {
		model = cfg.Evaluation.Model
	}
	temperature := *cfg.Evaluation.Temperature
	if opts.temperature >= 0 {
		temperature = opts.temperature
	}
	maxTokens := cfg.Evaluation.MaxTokens
	if opts.maxTokens > 0 {
		maxTokens = opts.maxTokens
	}
	figuresDir := strings.TrimSpace(opts.figuresDir)
	if figuresDir == "" {
		figuresDir = cfg.Paths.FiguresDir
	}
	useURLs := opts.useURLs || cfg.Evaluation.UseURLs
	logPrefix := strings.TrimSpace(opts.logPrefix)
	if logPrefix == "" {
		logPrefix = cfg.Evaluation.LogPrefix
	}

	examples, err := dataset.Load(opts.datasetPath)
	if err != nil {
		return err
	}
	examples = dataset.Take(examples, opts.maxQuestions)

	provider, err := llm.NewProviderFromConfig(cfg, opts.provider)
	if err != nil {
		return err
	}

	logger, err := usagelog.Open(cfg.Paths.LogDir, logPrefix, time.Now())
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
	logf := func(format string, args ...any) {
		_, _ = fmt.Fprintf(out, format+"\n", args...)
	}

	r := &runner.EvalRunner{
		Provider: provider,
		Payload: &payload.Builder{
			FiguresDir: figuresDir,
			UseURLs:    useURLs,
			Warnf:      logf,
		},
		Logger:      logger,
		Model:       model,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		UseURLs:     useURLs,
		Retry:       llm.DefaultRetryPolicy,
		Logf:        logf,
	}

	summary, runErr := r.Run(ctx, examples)
	if summary != nil {
		run := &runstore.Run{
			Model:       model,
			Mode:        "evaluate",
			LogPath:     logger.Path(),
			Processed:   summary.Processed,
			Skipped:     summary.Skipped,
			Errored:     summary.Errored,
			Correct:     summary.Correct,
			TotalTokens: summary.TotalTokens,
			Cost:        summary.Cost,
			StartedAt:   summary.StartedAt,
			FinishedAt:  summary.FinishedAt,
		}
		saveErr := runs.Save(context.Background(), run)
		if saveErr != nil && runErr == nil {
			runErr = saveErr
		}

		_, _ = fmt.Fprintf(out, "Evaluation run: processed=%d skipped=%d errored=%d correct=%d accuracy=%.4f tokens=%d log=%s\n",
			summary.Processed, summary.Skipped, summary.Errored, summary.Correct,
			run.Accuracy(), summary.TotalTokens, logger.Path())
	}
	return runErr
}
