package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reoring/eo3/source"
	"github.com/reoring/eo3/validate"
)

func newKindCmd(_ *app) *cobra.Command {
	return &cobra.Command{
		Use:   "kind PATH...",
		Short: "Print the kind of each document",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			for _, path := range args {
				docs, err := source.ReadFile(path)
				if err != nil {
					return err
				}
				for i, doc := range docs {
					kind, ok := validate.DocKindOf(path, doc)
					name := kind.String()
					if !ok {
						name = "unknown"
					}
					if len(docs) > 1 {
						fmt.Fprintf(w, "%s [%d]: %s\n", path, i, name)
						continue
					}
					fmt.Fprintf(w, "%s: %s\n", path, name)
				}
			}
			return nil
		},
	}
}
