package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stellarlinkco/chestbench/internal/config"
)

type cliState struct {
	configPath string
	cfg        *config.Config
}

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	st := &cliState{}

	root := &cobra.Command{
		Use:           "chestbench",
		Short:         "Build and evaluate a chest X-ray reasoning benchmark",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&st.configPath, "config", "", "path to config file")

	root.AddCommand(newGenerateCmd(st))
	root.AddCommand(newEvaluateCmd(st))
	root.AddCommand(newLogsCmd(st))
	root.AddCommand(newServeCmd(st))
	return root
}

func loadConfig(st *cliState) error {
	cfg, err := config.Load(st.configPath)
	if err != nil {
		return err
	}
	st.cfg = cfg
	return nil
}
