package main

import (
	"github.com/spf13/cobra"

	"github.com/reoring/eo3/serialise"
	"github.com/reoring/eo3/source"
)

func newFmtCmd(a *app) *cobra.Command {
	var write bool
	cmd := &cobra.Command{
		Use:   "fmt PATH...",
		Short: "Rewrite documents in the conventional EO3 key order",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				docs, err := source.ReadFile(path)
				if err != nil {
					return err
				}
				if write {
					if err := serialise.WriteFile(path, docs...); err != nil {
						return err
					}
					a.logger.Info("formatted", "path", path, "documents", len(docs))
					continue
				}
				if err := serialise.WriteYAML(cmd.OutOrStdout(), docs...); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "write the result back to each file")
	return cmd
}
