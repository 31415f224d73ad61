package main

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/reoring/eo3/i18n"
	"github.com/reoring/eo3/internal/config"
)

// errFailed reports that validation found errors. They have already been
// printed.
var errFailed = errors.New("validation failed")

// app is the state shared by every subcommand once flags are parsed.
type app struct {
	configPath string
	verbose    bool
	lang       string

	cfg    config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "eo3",
		Short: "Validate and inspect EO3 documents",
		Long: `eo3 checks Open Data Cube EO3 dataset documents, product definitions
and metadata types, and gives access to a dataset's metadata-type fields.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "TOML settings file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log at debug level")
	root.PersistentFlags().StringVar(&a.lang, "lang", "en", "language for --explain (en or ja)")

	root.AddCommand(
		newValidateCmd(a),
		newKindCmd(a),
		newFieldsCmd(a),
		newFmtCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	a.cfg = config.Default()
	if a.configPath != "" {
		cfg, err := config.Load(a.configPath)
		if err != nil {
			return err
		}
		a.cfg = cfg
	}
	a.logger = a.cfg.Log.NewLogger(cmd.ErrOrStderr(), a.verbose)
	i18n.SetLanguage(a.lang)
	return nil
}
