package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/meenmo/ratecurve/builder"
	"github.com/meenmo/ratecurve/curve"
)

type buildOptions struct {
	file   string
	curve  string
	output string
}

func newBuildCommand(g *globalOptions) *cobra.Command {
	o := &buildOptions{}
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Bootstrap the curves in a file and print their nodes",
		Long: `Bootstrap every curve in a curve definition file and print the nodes,
discount factors, zero rates and repricing residuals.

Examples:
  curve build --file examples/eur_curves.yaml
  curve build --file examples/eur_curves.yaml --curve ESTR --output json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, g, o)
		},
	}
	cmd.Flags().StringVarP(&o.file, "file", "f", "", "Curve definition file (YAML)")
	cmd.Flags().StringVarP(&o.curve, "curve", "c", "", "Only print this curve")
	cmd.Flags().StringVarP(&o.output, "output", "o", "text", "Output format (text or json)")
	return cmd
}

func runBuild(cmd *cobra.Command, g *globalOptions, o *buildOptions) error {
	p := printerFor(cmd)
	if o.output != "text" && o.output != "json" {
		return p.Error("invalid output format", "Unknown format: "+o.output, "Valid formats: text, json")
	}
	file, err := loadFile(p, o.file)
	if err != nil {
		return err
	}
	m, err := builder.Build(file, g.log)
	if err != nil {
		return p.Error("cannot build curves", err.Error())
	}

	names := m.Names()
	if o.curve != "" {
		if _, ok := m.Curve(o.curve); !ok {
			return p.Error("unknown curve", "No curve named "+o.curve+" in "+o.file, names...)
		}
		names = []string{o.curve}
	}

	reports := make([]*builder.CurveReport, 0, len(names))
	for _, name := range names {
		r, err := m.Report(name)
		if err != nil {
			return p.Error("bootstrap failed for "+name, err.Error(), hints(err)...)
		}
		reports = append(reports, r)
	}

	if o.output == "json" {
		return p.JSON(reports)
	}
	for _, r := range reports {
		p.Report(r)
	}
	p.Success("%d curve(s) bootstrapped", len(reports))
	return nil
}

func hints(err error) []string {
	var cfgErr *curve.ConfigError
	var convErr *curve.ConvergenceError
	var calErr *curve.CalibrationError
	switch {
	case errors.As(err, &cfgErr):
		return []string{"Check helper tenors: pillars must be distinct and after the reference date"}
	case errors.As(err, &convErr):
		return []string{"Check the quote at the failing pillar", "Raise solver.max_joint_iterations"}
	case errors.As(err, &calErr):
		return []string{"Loosen solver.repricing_tolerance or enable allow_negative_rates"}
	default:
		return nil
	}
}
