package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"printflow/internal/api"
)

func newPolicyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "policy",
		Short: "Print the status transition table",
		RunE: func(cmd *cobra.Command, args []string) error {
			rules := api.PolicyRules()
			return emit(ctx, cmd, api.PolicyResponse{Rules: rules}, func() error {
				rows := make([][]string, 0, len(rules))
				for _, rule := range rules {
					roles := strings.Join(rule.Roles, ", ")
					if roles == "" {
						roles = "-"
					}
					targets := strings.Join(rule.Targets, ", ")
					if targets == "" {
						targets = "(terminal)"
					}
					from := rule.FromLabel
					if !rule.Reachable {
						from += " *"
					}
					rows = append(rows, []string{from, roles, targets})
				}
				out := cmd.OutOrStdout()
				printTable(out, []string{"From", "Roles", "May move to"}, rows, nil)
				fmt.Fprintln(out, "* not reachable from Pending Design")
				return nil
			})
		},
	}
}
