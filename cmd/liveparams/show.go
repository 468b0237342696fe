package main

import (
	"fmt"

	"github.com/aretw0/liveparams/internal/presentation/graph"
	"github.com/aretw0/liveparams/internal/presentation/tui"
	"github.com/aretw0/liveparams/pkg/domain"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the parameter table of the active design",
	Long: `Prints the host state and the parameter table of the active design.
With --graph, prints which parameters each expression depends on as Mermaid.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		a, err := newApp(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		p := tui.NewPrinter(cmd.OutOrStdout())
		if banner, _ := cmd.Flags().GetBool("banner"); banner {
			p.Banner()
		}
		p.Safety(a.panel.Safety(ctx))

		snap, err := a.panel.Snapshot(ctx)
		if err != nil {
			return p.Messages([]domain.Message{domain.UpdateUIError(domain.UserMessage(err))})
		}
		if asGraph, _ := cmd.Flags().GetBool("graph"); asGraph {
			fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(snap, nil))
			return nil
		}
		return p.Snapshot(snap)
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().Bool("banner", false, "Print the banner first")
	showCmd.Flags().Bool("graph", false, "Print the parameter dependency graph as a Mermaid flowchart")
}
