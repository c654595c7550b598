// Package main is the entry point for the market-data crawler CLI.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/fd1az/market-crawler/business/marketdata/app"
	"github.com/fd1az/market-crawler/business/marketdata/domain"
	"github.com/fd1az/market-crawler/business/marketdata/infra/adapters"
	"github.com/fd1az/market-crawler/business/marketdata/infra/catalog"
	"github.com/fd1az/market-crawler/internal/apm"
	"github.com/fd1az/market-crawler/internal/config"
	"github.com/fd1az/market-crawler/internal/exchangelock"
	"github.com/fd1az/market-crawler/internal/health"
	"github.com/fd1az/market-crawler/internal/httpclient"
	"github.com/fd1az/market-crawler/internal/logger"
	"github.com/fd1az/market-crawler/internal/metrics"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	_ = godotenv.Load()

	configPath := pflag.String("config", "", "Path to configuration file")
	exchange := pflag.String("exchange", "", "Exchange to crawl (overrides config)")
	marketType := pflag.String("market-type", "", "Market type: spot, linear_swap, inverse_swap, ... (overrides config)")
	messageType := pflag.String("message-type", "", "Message type: trade, l2_event, bbo, ticker, ... (overrides config)")
	pairs := pflag.StringSlice("pairs", nil, "Comma-separated pair list (empty means all pairs via Catalog)")
	interval := pflag.Int("interval-seconds", 0, "Candlestick interval in seconds (only for message-type=candlestick)")
	duration := pflag.Duration("duration", 0, "How long to crawl before stopping (0 means run until interrupted)")
	showVersion := pflag.Bool("version", false, "Show version information")
	pflag.Parse()

	if *showVersion {
		fmt.Printf("market-crawler %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		cancel()
	}()

	if err := run(ctx, runOptions{
		configPath:  *configPath,
		exchange:    *exchange,
		marketType:  *marketType,
		messageType: *messageType,
		pairs:       *pairs,
		interval:    *interval,
		duration:    *duration,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type runOptions struct {
	configPath  string
	exchange    string
	marketType  string
	messageType string
	pairs       []string
	interval    int
	duration    time.Duration
}

func run(ctx context.Context, opts runOptions) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if opts.exchange != "" {
		cfg.Engine.Exchange = opts.exchange
	}
	if opts.marketType != "" {
		cfg.Engine.MarketType = opts.marketType
	}
	if opts.messageType != "" {
		cfg.Engine.MessageType = opts.messageType
	}
	if len(opts.pairs) > 0 {
		cfg.Engine.Pairs = opts.pairs
	}
	if opts.interval > 0 {
		cfg.Engine.IntervalSeconds = opts.interval
	}
	if opts.duration > 0 {
		cfg.Engine.Duration = opts.duration
	}

	logLevel := logger.LevelInfo
	switch cfg.App.LogLevel {
	case "debug":
		logLevel = logger.LevelDebug
	case "warn":
		logLevel = logger.LevelWarn
	case "error":
		logLevel = logger.LevelError
	}
	log := logger.New(os.Stderr, logLevel, cfg.App.Name, nil)
	defer log.Sync()

	log.Info(ctx, "starting market crawler",
		"version", version,
		"environment", cfg.App.Environment,
		"exchange", cfg.Engine.Exchange,
		"market_type", cfg.Engine.MarketType,
		"message_type", cfg.Engine.MessageType,
	)

	var traceProvider apm.TraceProvider
	if cfg.Telemetry.Enabled {
		if cfg.Telemetry.ServiceName != "" {
			os.Setenv("OTEL_SERVICE_NAME", cfg.Telemetry.ServiceName)
		}
		if cfg.Telemetry.OTLPEndpoint != "" {
			os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Telemetry.OTLPEndpoint)
		}

		traceProvider = apm.NewTraceProvider(log, apm.WithProvider(apm.ZipkinProvider, log))
		log.Info(ctx, "tracing initialized", "provider", "zipkin", "endpoint", cfg.Telemetry.OTLPEndpoint)

		metrics.NewMetricProvider(
			metrics.WithServiceName(cfg.Telemetry.ServiceName),
			metrics.WithProviderConfig(metrics.ProviderCfg{
				Provider: metrics.PrometheusProvider,
			}),
		)

		port := cfg.Telemetry.PrometheusPort
		if port == 0 {
			port = 9090
		}
		go metrics.ServePrometheusMetrics(metrics.WithPort(strconv.Itoa(port)))
		log.Info(ctx, "prometheus metrics server started", "port", port)
	}
	defer func() {
		if traceProvider != nil {
			traceProvider.Stop()
		}
	}()

	healthServer := health.NewServer(8081, version)
	if err := healthServer.Start(); err != nil {
		log.Warn(ctx, "failed to start health server", "error", err)
	} else {
		log.Info(ctx, "health server started", "port", 8081)
	}
	defer healthServer.Stop(ctx)

	mt, err := domain.ParseMarketType(cfg.Engine.MarketType)
	if err != nil {
		return err
	}
	msgType, err := domain.ParseMessageType(cfg.Engine.MessageType)
	if err != nil {
		return err
	}

	httpClient, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("catalog"),
		httpclient.WithRequestTimeout(cfg.Catalog.RequestTimeout),
	)
	if err != nil {
		return fmt.Errorf("failed to build catalog http client: %w", err)
	}
	catalogClient := catalog.New(httpClient, cfg.Catalog.RequestsPerMinute)

	healthServer.RegisterCheck("catalog", func(ctx context.Context) (bool, string) {
		if _, err := catalogClient.Pairs(ctx, cfg.Engine.Exchange, mt); err != nil {
			return false, err.Error()
		}
		return true, ""
	})

	lock := exchangelock.NewTable()
	lock.BreakerTimeout = cfg.Engine.CircuitBreakerTimeout

	engine := &app.Engine{
		Registry:            adapters.Registry,
		Catalog:             catalogClient,
		Log:                 log,
		Lock:                lock,
		RefreshInterval:     cfg.Catalog.RefreshInterval,
		RefreshJitter:       cfg.Catalog.RefreshJitter,
		MinConnectInterval:  cfg.Engine.MinConnectInterval,
		KeepaliveMultiplier: cfg.Engine.KeepaliveMultiplier,
	}

	sink := app.SinkFunc(func(ctx context.Context, msg domain.Message) error {
		line, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(os.Stdout, string(line))
		return err
	})

	handle := engine.Crawl(ctx, msgType, app.CrawlOptions{
		Exchange:        cfg.Engine.Exchange,
		MarketType:      mt,
		Pairs:           cfg.Engine.Pairs,
		Sink:            sink,
		Duration:        cfg.Engine.Duration,
		IntervalSeconds: cfg.Engine.IntervalSeconds,
	})

	select {
	case <-handle.Done():
		return handle.Err()
	case <-ctx.Done():
		<-handle.Done()
		return handle.Err()
	}
}

