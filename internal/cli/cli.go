package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/jonwraymond/httpkit/client"
	"github.com/jonwraymond/httpkit/observe"
)

const (
	// appName is the application name used for display and telemetry.
	appName = "httpkit"

	// defaultParallel bounds concurrent fetches in the get command.
	defaultParallel = 4
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

var (
	version = "dev"
	commit  string
	date    string
)

// SetVersion sets the version information displayed by --version.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Transport overrides the network transport, mainly for tests.
	Transport client.Doer

	flags globalFlags
}

// globalFlags are the persistent flags shared by every request command.
type globalFlags struct {
	configPath      string
	verbose         bool
	retries         int
	retryDelay      time.Duration
	cache           bool
	cacheMaxAge     time.Duration
	cacheMaxEntries int
	timeout         time.Duration
	rateLimit       float64
	rateBurst       int
	headers         []string
	tracing         string
	metrics         string
}

// New creates a new CLI instance logging to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	defaults := client.DefaultConfig()

	root := &cobra.Command{
		Use:          appName,
		Short:        "httpkit issues HTTP requests with retries and response caching",
		Long:         `httpkit is a command-line HTTP client with bounded retries, an in-memory GET cache and content-type aware request bodies.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if c.flags.verbose {
				c.SetLogLevel(LogDebug)
			}
		},
	}
	root.SetVersionTemplate(fmt.Sprintf("%s {{.Version}}\ncommit: %s\nbuilt: %s\n", appName, commit, date))

	pf := root.PersistentFlags()
	pf.StringVarP(&c.flags.configPath, "config", "c", "", "path to a TOML config file")
	pf.BoolVarP(&c.flags.verbose, "verbose", "v", false, "enable debug logging (cache hits, cleanups, retries)")
	pf.IntVar(&c.flags.retries, "retries", defaults.Retry.Count, "additional attempts after a transport failure")
	pf.DurationVar(&c.flags.retryDelay, "retry-delay", defaults.Retry.Delay, "fixed delay between attempts")
	pf.BoolVar(&c.flags.cache, "cache", defaults.Cache.Enabled, "cache successful GET responses")
	pf.DurationVar(&c.flags.cacheMaxAge, "cache-max-age", defaults.Cache.MaxAge, "how long a cached response stays fresh")
	pf.IntVar(&c.flags.cacheMaxEntries, "cache-max-entries", defaults.Cache.MaxEntries, "cache capacity before an eviction sweep")
	pf.DurationVar(&c.flags.timeout, "timeout", 0, "per-attempt timeout (0 = none)")
	pf.Float64Var(&c.flags.rateLimit, "rate", 0, "maximum attempts per second (0 = unlimited)")
	pf.IntVar(&c.flags.rateBurst, "burst", 1, "rate limiter burst size")
	pf.StringArrayVarP(&c.flags.headers, "header", "H", nil, `header sent with every request, as "Key: Value"`)
	pf.StringVar(&c.flags.tracing, "trace", "", "trace exporter (stdout|otlp|jaeger|none)")
	pf.StringVar(&c.flags.metrics, "metrics", "", "metrics exporter (stdout|otlp|prometheus|none)")

	root.AddCommand(c.getCommand())
	root.AddCommand(c.bodyCommand(http.MethodPost, "post", "Send a body with POST"))
	root.AddCommand(c.bodyCommand(http.MethodPut, "put", "Replace a resource with PUT"))
	root.AddCommand(c.deleteCommand())
	root.AddCommand(c.checkCommand())

	return root
}

// Execute runs the CLI with the given context, logging to stderr.
func Execute(ctx context.Context, stderr io.Writer) error {
	return New(stderr, LogInfo).RootCommand().ExecuteContext(ctx)
}

// settings resolves the effective client and telemetry configuration:
// defaults, then the config file, then explicitly set flags.
func (c *CLI) settings(cmd *cobra.Command) (client.Config, TelemetrySection, error) {
	cfg := client.DefaultConfig()
	var tele TelemetrySection

	if c.flags.configPath != "" {
		fc, err := LoadFile(c.flags.configPath)
		if err != nil {
			return cfg, tele, err
		}
		fc.Apply(&cfg)
		tele = fc.Telemetry
	}

	flags := cmd.Flags()
	if flags.Changed("verbose") {
		cfg.Debug = c.flags.verbose
	}
	if flags.Changed("retries") {
		cfg.Retry.Count = c.flags.retries
	}
	if flags.Changed("retry-delay") {
		cfg.Retry.Delay = c.flags.retryDelay
	}
	if flags.Changed("cache") {
		cfg.Cache.Enabled = c.flags.cache
	}
	if flags.Changed("cache-max-age") {
		cfg.Cache.MaxAge = c.flags.cacheMaxAge
	}
	if flags.Changed("cache-max-entries") {
		cfg.Cache.MaxEntries = c.flags.cacheMaxEntries
	}
	if flags.Changed("timeout") {
		cfg.Timeout = c.flags.timeout
	}
	if flags.Changed("rate") {
		cfg.RateLimit = c.flags.rateLimit
	}
	if flags.Changed("burst") {
		cfg.RateBurst = c.flags.rateBurst
	}
	if flags.Changed("trace") {
		tele.Tracing = c.flags.tracing
	}
	if flags.Changed("metrics") {
		tele.Metrics = c.flags.metrics
	}

	for _, h := range c.flags.headers {
		key, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(key) == "" {
			return cfg, tele, fmt.Errorf("invalid header %q: want \"Key: Value\"", h)
		}
		if cfg.DefaultHeaders == nil {
			cfg.DefaultHeaders = make(http.Header)
		}
		cfg.DefaultHeaders.Add(strings.TrimSpace(key), strings.TrimSpace(value))
	}

	if cfg.Debug {
		c.SetLogLevel(LogDebug)
	}
	return cfg, tele, nil
}

// newClient builds a client for cmd. The returned shutdown flushes telemetry.
func (c *CLI) newClient(cmd *cobra.Command) (*client.Client, func(), error) {
	cfg, tele, err := c.settings(cmd)
	if err != nil {
		return nil, func() {}, err
	}

	obs, err := c.newObserver(cmd.Context(), tele)
	if err != nil {
		return nil, func() {}, err
	}
	shutdown := func() {
		if err := obs.Shutdown(context.Background()); err != nil {
			c.Logger.Warn("telemetry shutdown failed", "err", err)
		}
	}

	cfg.Observer = obs
	if c.Transport != nil {
		cfg.Transport = c.Transport
	}

	hc, err := client.New(client.WithConfig(cfg))
	if err != nil {
		shutdown()
		return nil, func() {}, err
	}
	return hc, shutdown, nil
}

// newObserver builds an OpenTelemetry observer when an exporter is configured
// and routes its logs through the CLI logger.
func (c *CLI) newObserver(ctx context.Context, tele TelemetrySection) (observe.Observer, error) {
	obs := observe.NewNoopObserver()

	if tele.Tracing != "" || tele.Metrics != "" {
		name := tele.ServiceName
		if name == "" {
			name = appName
		}
		var err error
		obs, err = observe.NewObserver(ctx, observe.Config{
			ServiceName: name,
			Version:     version,
			Tracing: observe.TracingConfig{
				Enabled:   tele.Tracing != "",
				Exporter:  tele.Tracing,
				SamplePct: 1.0,
			},
			Metrics: observe.MetricsConfig{
				Enabled:  tele.Metrics != "",
				Exporter: tele.Metrics,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("telemetry: %w", err)
		}
	}

	return observe.WithLogger(obs, newObserveLogger(c.Logger)), nil
}

// logStats reports cache counters at debug level.
func (c *CLI) logStats(hc *client.Client) {
	s := hc.Stats()
	c.Logger.Debug("cache stats",
		"size", s.Size,
		"hits", s.Hits,
		"misses", s.Misses,
		"evictions", s.Evictions,
		"expirations", s.Expirations,
	)
}
