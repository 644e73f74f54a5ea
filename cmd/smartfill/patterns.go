package main

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func patternsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "patterns",
		Aliases: []string{"pattern"},
		Short:   "Inspect learned answer patterns",
		Long: `Inspect the per-user answer patterns the engine has learned from past
conversations. These drive the "your usual answer" suggestions.`,
	}

	cmd.AddCommand(patternsListCmd())

	return cmd
}

func patternsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List learned patterns for a user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			userID := resolveUserID(mustString(cmd, "user"))
			if userID == "" {
				return fmt.Errorf("a user id is required")
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			patterns, err := store.ListPatterns(ctx, userID)
			if err != nil {
				return fmt.Errorf("failed to list patterns: %w", err)
			}

			if len(patterns) == 0 {
				slog.Info("No learned patterns yet", "user", userID)
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "FIELD\tVALUE\tQUARTER\tUSES\tACCEPTED\tREJECTED\tLAST USED")
			_, _ = fmt.Fprintln(w, "─────\t─────\t───────\t────\t────────\t────────\t─────────")

			for _, p := range patterns {
				_, _ = fmt.Fprintf(w, "%s\t%s\tQ%d\t%d\t%d\t%d\t%s\n",
					p.Field,
					truncateString(p.ValueText, 30),
					p.FiscalQuarter,
					p.UseCount,
					p.AcceptCount,
					p.RejectCount,
					p.LastUsedAt.Format("2006-01-02"))
			}

			return w.Flush()
		},
	}

	cmd.Flags().String("user", "", "user id (default: current OS user)")
	return cmd
}
