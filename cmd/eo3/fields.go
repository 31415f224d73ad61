package main

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/reoring/eo3"
	"github.com/reoring/eo3/codec"
	"github.com/reoring/eo3/fields"
	"github.com/reoring/eo3/model"
	"github.com/reoring/eo3/properties"
)

func newFieldsCmd(a *app) *cobra.Command {
	var (
		metadataType string
		product      string
		asJSON       bool
		search       bool
		props        bool
	)
	cmd := &cobra.Command{
		Use:   "fields DATASET",
		Short: "Print a dataset's metadata-type fields",
		Long: `Loads a dataset and prints the value of every field its metadata type
defines. The default eo3 metadata type is used unless one is given.
With --properties the dataset's properties are printed as JSON instead,
nested by their "prefix:" namespaces.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := model.FromPath(args[0], metadataType, product, model.WithLogger(a.logger))
			if err != nil {
				return err
			}
			if props {
				return printNestedProperties(cmd, a, ds)
			}
			values, err := ds.Fields()
			if search {
				values, err = ds.SearchFields()
			}
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if asJSON {
				out := make(map[string]any, len(values))
				for k, v := range values {
					if r, ok := v.(fields.Range); ok {
						v = map[string]any{"begin": r.Begin, "end": r.End}
					}
					out[k] = codec.JSONCompatible(v)
				}
				raw, err := json.MarshalIndent(out, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(w, string(raw))
				return nil
			}
			for _, name := range fields.SortedNames(values) {
				v := values[name]
				if r, ok := v.(fields.Range); ok {
					fmt.Fprintf(w, "%s: %s\n", name, r)
					continue
				}
				fmt.Fprintf(w, "%s: %s\n", name, codec.Repr(v))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&metadataType, "metadata-type", "m", "", "metadata type file")
	cmd.Flags().StringVarP(&product, "product", "p", "", "product definition file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	cmd.Flags().BoolVar(&search, "search", false, "only print search fields")
	cmd.Flags().BoolVar(&props, "properties", false, "print properties nested by namespace")
	return cmd
}

func printNestedProperties(cmd *cobra.Command, a *app, ds *model.Dataset) error {
	dict, err := properties.NewDict(eo3.Clone(ds.Properties()).(map[string]any),
		properties.WithLogger(a.logger), properties.WithoutInputNormalisation())
	if err != nil {
		return err
	}
	raw, err := json.MarshalIndent(codec.JSONCompatible(dict.Nested()), "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(raw))
	return nil
}
