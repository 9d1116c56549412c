package main

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agenthands/claimcheck/internal/core"
)

var triplesCmd = &cobra.Command{
	Use:   "triples <sentence>",
	Short: "Print the triples and entity mentions extracted from a sentence",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		defer logger.Sync()

		p, closeAll, err := core.Build(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer closeAll(context.Background())

		resp, err := p.Triples(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	},
}
