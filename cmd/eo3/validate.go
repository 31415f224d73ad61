package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/reoring/eo3"
	"github.com/reoring/eo3/i18n"
	"github.com/reoring/eo3/source"
	"github.com/reoring/eo3/validate"
)

type validateFlags struct {
	products      []string
	metadataTypes []string
	thorough      bool
	quiet         bool
	explain       bool
	watch         bool
}

func newValidateCmd(a *app) *cobra.Command {
	f := &validateFlags{}
	cmd := &cobra.Command{
		Use:   "validate PATH...",
		Short: "Validate datasets, products and metadata types",
		Long: `Validates every document in the given files. Products and metadata types
among them are used for the datasets that refer to them by name.

Exits with status 1 when any document has an error.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := f.pathOptions(a)
			if err != nil {
				return err
			}
			if f.watch {
				return watch(cmd.Context(), a.logger, args, func(ctx context.Context) error {
					_, err := runValidate(ctx, cmd.OutOrStdout(), args, opts, f)
					return err
				})
			}
			failed, err := runValidate(cmd.Context(), cmd.OutOrStdout(), args, opts, f)
			if err != nil {
				return err
			}
			if failed {
				return errFailed
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&f.products, "product", "p", nil, "product definition file (repeatable)")
	cmd.Flags().StringArrayVarP(&f.metadataTypes, "metadata-type", "m", nil, "metadata type file (repeatable)")
	cmd.Flags().BoolVar(&f.thorough, "thorough", false, "open measurement files and compare them with the product")
	cmd.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "only print documents with warnings or errors")
	cmd.Flags().BoolVar(&f.explain, "explain", false, "describe each message code")
	cmd.Flags().BoolVarP(&f.watch, "watch", "w", false, "revalidate whenever a file changes")
	return cmd
}

func (f *validateFlags) pathOptions(a *app) (validate.PathOptions, error) {
	expect := a.cfg.Expectations()
	opts := validate.PathOptions{
		Expect:   &expect,
		Thorough: f.thorough || a.cfg.Validation.Thorough,
	}
	for _, path := range f.products {
		docs, err := source.ReadFile(path)
		if err != nil {
			return opts, err
		}
		opts.Products = append(opts.Products, docs...)
	}
	for _, path := range f.metadataTypes {
		docs, err := source.ReadFile(path)
		if err != nil {
			return opts, err
		}
		opts.MetadataTypes = append(opts.MetadataTypes, docs...)
	}
	return opts, nil
}

// runValidate prints every result and reports whether any failed.
func runValidate(ctx context.Context, w io.Writer, paths []string, opts validate.PathOptions, f *validateFlags) (bool, error) {
	results, err := validate.ValidatePaths(ctx, paths, opts)
	if err != nil {
		return false, err
	}
	var failed, errs, warnings int
	for _, r := range results {
		if r.Failed() {
			failed++
		}
		errs += len(r.Messages.Errors())
		warnings += len(r.Messages.Warnings())
		if f.quiet && len(r.Messages.Errors())+len(r.Messages.Warnings()) == 0 {
			continue
		}
		printResult(w, r, f)
	}
	if !f.quiet || failed > 0 {
		fmt.Fprintf(w, "%d document(s), %d failed: %d error(s), %d warning(s)\n", len(results), failed, errs, warnings)
	}
	return failed > 0, nil
}

func printResult(w io.Writer, r validate.Result, f *validateFlags) {
	status := "ok"
	if r.Failed() {
		status = "FAILED"
	}
	kind := r.Kind.String()
	if kind == "" {
		kind = "unknown"
	}
	if r.Index > 0 {
		fmt.Fprintf(w, "%s [%d] (%s): %s\n", r.Path, r.Index, kind, status)
	} else {
		fmt.Fprintf(w, "%s (%s): %s\n", r.Path, kind, status)
	}
	for _, m := range r.Messages {
		if f.quiet && m.Level == eo3.Info {
			continue
		}
		fmt.Fprintf(w, "  %s %s\n", levelMark(m.Level), m)
		if f.explain {
			fmt.Fprintf(w, "      %s\n", i18n.T(m.Code, nil))
		}
	}
}

func levelMark(l eo3.Level) string {
	switch l {
	case eo3.Error:
		return "E"
	case eo3.Warning:
		return "W"
	default:
		return "I"
	}
}
