package commands

import (
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/meenmo/ratecurve/marketdata"
)

type publishOptions struct {
	file  string
	redis redisFlags
}

func newPublishCommand(g *globalOptions) *cobra.Command {
	o := &publishOptions{}
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Seed the Redis quote hash with the quotes in a curve file",
		Long: `Write every helper quote of a curve definition file into the Redis quote
hash read by "curve watch".

Example:
  curve publish --file examples/eur_curves.yaml --redis-url redis://localhost:6379/0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPublish(cmd, o)
		},
	}
	cmd.Flags().StringVarP(&o.file, "file", "f", "", "Curve definition file (YAML)")
	o.redis.register(cmd)
	return cmd
}

func runPublish(cmd *cobra.Command, o *publishOptions) error {
	p := printerFor(cmd)
	file, err := loadFile(p, o.file)
	if err != nil {
		return err
	}
	quotes := make(map[string]float64)
	for _, c := range file.Curves {
		for _, h := range c.Helpers {
			quotes[h.ID] = h.Quote
		}
	}

	redisOpts, err := redis.ParseURL(o.redis.url)
	if err != nil {
		return p.Error("invalid Redis URL", err.Error())
	}
	src, err := marketdata.NewRedisSource(redisOpts, o.redis.key)
	if err != nil {
		return p.Error("invalid quote key", err.Error())
	}
	defer src.Close()

	if err := src.Publish(cmd.Context(), quotes); err != nil {
		return p.Error("publish failed", err.Error())
	}
	p.Success("published %d quote(s) to %s", len(quotes), o.redis.key)
	return nil
}
