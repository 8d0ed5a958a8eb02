// Package commands implements the curve CLI.
package commands

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/meenmo/ratecurve/cmd/curve/internal/printer"
	"github.com/meenmo/ratecurve/config"
	"github.com/meenmo/ratecurve/marketdata"
)

type globalOptions struct {
	logLevel string
	logJSON  bool
	log      *logrus.Entry
}

// NewRootCommand builds the command tree.
func NewRootCommand(version string) *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:   "curve",
		Short: "Bootstrap yield curves from market quotes",
		Long: `curve builds piecewise yield curves from a YAML curve definition.

Each curve is bootstrapped node by node from deposits, FRAs, futures and swaps.
Curves may discount on an earlier curve in the same file (dual-curve setup).`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setupLogger(cmd.ErrOrStderr())
		},
	}
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&opts.logJSON, "log-json", false, "Log in JSON format")

	root.AddCommand(newBuildCommand(opts), newWatchCommand(opts), newPublishCommand(opts))
	return root
}

// Execute runs the CLI with the process arguments.
func Execute(version string) error {
	return NewRootCommand(version).Execute()
}

func (o *globalOptions) setupLogger(w io.Writer) error {
	level, err := logrus.ParseLevel(o.logLevel)
	if err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(level)
	if o.logJSON {
		l.SetFormatter(&logrus.JSONFormatter{})
	}
	o.log = logrus.NewEntry(l)
	return nil
}

func printerFor(cmd *cobra.Command) *printer.Printer {
	return printer.New(cmd.OutOrStdout(), cmd.ErrOrStderr())
}

func loadFile(p *printer.Printer, path string) (*config.CurveFile, error) {
	if path == "" {
		return nil, p.Error("no curve file", "A curve definition file is required.",
			"Pass one with --file examples/eur_curves.yaml")
	}
	file, err := config.Load(path)
	if err != nil {
		return nil, p.Error("invalid curve file", err.Error())
	}
	return file, nil
}

type redisFlags struct {
	url string
	key string
}

func (r *redisFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&r.url, "redis-url", "redis://localhost:6379/0", "Redis URL holding the quote hash")
	cmd.Flags().StringVar(&r.key, "key", marketdata.DefaultQuoteKey, "Redis hash with one field per quote id")
}
