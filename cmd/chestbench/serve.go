package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stellarlinkco/chestbench/internal/api"
	"github.com/stellarlinkco/chestbench/internal/runstore"
)

func newServeCmd(st *cliState) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a read-only HTTP API over runs, logs, and questions",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(st)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(st, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}

func runServe(st *cliState, addr string) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("serve: missing config (internal error)")
	}

	runs, err := runstore.NewStore(st.cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer runs.Close()

	srv, err := api.NewServer(runs, st.cfg.Paths.LogDir, st.cfg.Paths.OutputDir)
	if err != nil {
		return err
	}
	return srv.Run(addr)
}
