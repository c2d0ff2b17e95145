package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nhle/planner/internal/api"
	"github.com/nhle/planner/internal/app"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		Long: "Serve the JSON API. Requests are authenticated by the X-User-ID header,\n" +
			"which an upstream proxy is expected to set.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.open(cmd, false)
			if err != nil {
				return err
			}
			defer e.Close()

			if addr != "" {
				e.cfg.Server.Addr = addr
			}
			return api.New(e.svc, e.cfg.Server, e.log).Start(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	return cmd
}

func newTUICmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.open(cmd, true)
			if err != nil {
				return err
			}
			defer e.Close()

			m := app.New(e.ctx, e.svc, e.svc.Evaluator(), e.coll,
				app.WithDispatcher(e.dispatcher),
				app.WithLogger(e.log),
			)
			p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("running tui: %w", err)
			}
			return nil
		},
	}
}
