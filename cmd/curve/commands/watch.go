package commands

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/meenmo/ratecurve/builder"
	"github.com/meenmo/ratecurve/marketdata"
	"github.com/meenmo/ratecurve/metrics"
)

type watchOptions struct {
	file        string
	redis       redisFlags
	interval    time.Duration
	metricsAddr string
}

func newWatchCommand(g *globalOptions) *cobra.Command {
	o := &watchOptions{}
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll quotes from Redis and rebuild curves when they change",
		Long: `Poll a Redis hash of quotes and rebootstrap the curves that depend on
any changed quote. Prometheus metrics are served on --metrics-addr.

Examples:
  curve watch --file examples/eur_curves.yaml
  curve watch --file examples/eur_curves.yaml --redis-url redis://cache:6379/1 --interval 500ms`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, cmd, g, o)
		},
	}
	cmd.Flags().StringVarP(&o.file, "file", "f", "", "Curve definition file (YAML)")
	o.redis.register(cmd)
	cmd.Flags().DurationVar(&o.interval, "interval", time.Second, "Poll interval")
	cmd.Flags().StringVar(&o.metricsAddr, "metrics-addr", ":9090", "Address for /metrics (empty disables)")
	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, g *globalOptions, o *watchOptions) error {
	p := printerFor(cmd)
	file, err := loadFile(p, o.file)
	if err != nil {
		return err
	}
	m, err := builder.Build(file, g.log)
	if err != nil {
		return p.Error("cannot build curves", err.Error())
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
	if err := src.Ping(ctx); err != nil {
		return p.Error("Redis connection failed", "Could not connect to Redis at "+o.redis.url,
			"Check the server is running and --redis-url is correct")
	}

	if o.metricsAddr != "" {
		srv := serveMetrics(o.metricsAddr, g)
		defer srv.Close()
		p.Step("metrics on http://%s/metrics", o.metricsAddr)
	}

	rebuild := func() {
		if err := m.Calculate(); err != nil {
			p.Warning("rebuild failed: %v", err)
			return
		}
		for _, name := range m.Names() {
			c, _ := m.Curve(name)
			st := c.Stats()
			p.Success("%s rebuilt: %d evaluations, %d calculations", name, st.Evaluations, st.Calculations)
		}
	}
	rebuild()

	p.Step("polling %s every %s", o.redis.key, o.interval)
	feed := marketdata.NewFeed(src, m, g.log)
	err = feed.Run(ctx, o.interval, func(res marketdata.PollResult) error {
		p.Step("%d quote(s) changed", res.Applied)
		rebuild()
		return nil
	})
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

func serveMetrics(addr string, g *globalOptions) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.log.WithError(err).Error("metrics server stopped")
		}
	}()
	return srv
}
