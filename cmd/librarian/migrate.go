package main

import (
	"github.com/spf13/cobra"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := a.container.Store()
			if err := s.Migrate(cmd.Context()); err != nil {
				return err
			}
			version, err := s.MigrationVersion(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"driver":  s.Driver(),
				"version": version,
			})
		},
	}
}
