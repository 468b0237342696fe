package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/liveparams/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var execCmd = &cobra.Command{
	Use:   "exec [action-json]",
	Short: "Deliver one panel action and print the outcome",
	Long: `Delivers one inbound panel message to the document and prints the messages
the panel would receive. The action is read from the argument, or from stdin
when the argument is "-" or missing. Changes are saved to the document file.

  liveparams exec '{"action":"create_param","name":"Width","unit":"mm","expression":"20"}'`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		var data []byte
		if len(args) == 1 && args[0] != "-" {
			data = []byte(args[0])
		} else {
			data, err = io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("failed to read action: %w", err)
			}
		}
		if strings.TrimSpace(string(data)) == "" {
			return fmt.Errorf("no action given")
		}

		ctx := cmd.Context()
		a, err := newApp(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		msgs, err := a.handle(ctx, data)
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(msgs)
		}
		return tui.NewPrinter(cmd.OutOrStdout()).Messages(msgs)
	},
}

func init() {
	rootCmd.AddCommand(execCmd)
	execCmd.Flags().Bool("json", false, "Print the messages as JSON")
}
