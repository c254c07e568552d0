// Package cli is the shared entry point for the census binaries. Each command
// (ingest, compute, dump) differs only in the pipeline run it executes; flag
// parsing, config loading, validation, and metrics wiring live here.
package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"census/internal/config"
	"census/internal/metrics"
	"census/internal/metrics/datadog"
	"census/internal/metrics/prompush"
)

// Run is a pipeline entry point (pipeline.RunIngest and friends).
type Run func(ctx context.Context, cfg config.Config) error

// Main parses flags, loads and validates the JSON config, installs the chosen
// metrics backend, and executes run. It does not return on failure.
func Main(command string, run Run) {
	var (
		cfgPath           string
		metricsBackendFlg string
		pushGatewayURLFlg string
		datadogAddrFlg    string
		validate          bool
	)

	fs := flag.NewFlagSet(command, flag.ExitOnError)
	fs.StringVar(&cfgPath, "config", "configs/census.json", "job config JSON path")
	fs.StringVar(&metricsBackendFlg, "metrics-backend", "none", "metrics backend to use (pushgateway, datadog, none)")
	fs.StringVar(&pushGatewayURLFlg, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	fs.StringVar(&datadogAddrFlg, "datadog-addr", "", "DogStatsD address (overrides env DD_AGENT_ADDR)")
	fs.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	verbose := fs.Bool("v", false, "enable verbose logs")
	fs.Parse(os.Args[1:])

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fatalf("%v", err)
	}

	issues := config.Validate(cfg)
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasError(issues) {
		log.Printf("configuration is invalid: %v", cfgPath)
		os.Exit(1)
	}
	if validate {
		log.Printf("configuration is valid: %v", cfgPath)
		os.Exit(0)
	}

	setupMetrics(metricsBackendFlg, pushGatewayURLFlg, datadogAddrFlg, cfg.Job, *verbose)
	defer func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	}()

	ctx := context.Background()
	start := time.Now()

	if *verbose {
		log.Printf("%s: job=%s storage=%s", command, cfg.Job, cfg.Storage.Kind)
	}

	if err := run(ctx, cfg); err != nil {
		metrics.Flush()
		log.Fatalf("%s: %v", command, err)
	}

	if *verbose {
		log.Printf("%s: completed in %s", command, time.Since(start).Truncate(time.Millisecond))
	}
}

func loadConfig(path string) (config.Config, error) {
	var cfg config.Config
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// setupMetrics resolves the backend name and its address (flag, then env,
// then default) and installs it. An unusable backend logs and leaves the
// no-op in place rather than failing the run.
func setupMetrics(backendName, gatewayURL, ddAddr, jobName string, verbose bool) {
	if backendName == "" {
		backendName = os.Getenv("METRICS_BACKEND")
	}
	if jobName == "" {
		jobName = "census"
	}

	switch backendName {
	case "pushgateway":
		if gatewayURL == "" {
			gatewayURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gatewayURL == "" {
			gatewayURL = "http://localhost:9091"
		}
		b, err := prompush.NewBackend(jobName, gatewayURL)
		if err != nil {
			log.Printf("metrics: failed to init pushgateway backend: %v; using nop", err)
			return
		}
		log.Printf("metrics: backend=pushgateway url=%s job=%s", gatewayURL, jobName)
		metrics.SetBackend(b)

	case "datadog":
		if ddAddr == "" {
			ddAddr = os.Getenv("DD_AGENT_ADDR")
		}
		if ddAddr == "" {
			ddAddr = "127.0.0.1:8125"
		}
		b, err := datadog.NewBackend(datadog.Config{Addr: ddAddr, Namespace: "census."})
		if err != nil {
			log.Printf("metrics: failed to init datadog backend: %v; using nop", err)
			return
		}
		log.Printf("metrics: backend=datadog addr=%s", ddAddr)
		metrics.SetBackend(b)

	case "", "none":
		if verbose {
			log.Printf("metrics: disabled")
		}

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", backendName)
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
