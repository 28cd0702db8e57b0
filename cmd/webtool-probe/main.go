// Package main provides webtool-probe, a command-line harness that runs the
// site integrations against saved pages, scripted fixtures or a live
// browser and reports what each watcher pass found and injected.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/entrhq/webtool/pkg/config"
	"github.com/entrhq/webtool/pkg/integration"
	"github.com/entrhq/webtool/pkg/integrations"
	"github.com/entrhq/webtool/pkg/logging"
	"github.com/entrhq/webtool/pkg/watcher"
)

const version = "0.1.0"

// CLIConfig holds command-line configuration
type CLIConfig struct {
	URL         string
	HTMLFile    string
	Fixtures    string
	Live        bool
	Headless    bool
	HeadlessSet bool
	ConfigFile  string
	Disable     []string
	Highlight   bool
	Copy        bool
	Verbose     bool
	Timeout     time.Duration
	ShowVersion bool
}

func main() {
	cli := parseFlags()

	if cli.ShowVersion {
		fmt.Printf("webtool-probe v%s\n", version)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	if err := run(ctx, cli); err != nil {
		cancel()
		log.Printf("probe failed: %v", err)
		os.Exit(1)
	}
	cancel()
}

// parseFlags parses command line flags
func parseFlags() *CLIConfig {
	cli := &CLIConfig{}

	flag.StringVar(&cli.URL, "url", "", "Page URL (the location of -html, or the page to open with -live)")
	flag.StringVar(&cli.HTMLFile, "html", "", "Saved HTML page to evaluate")
	flag.StringVar(&cli.Fixtures, "fixtures", "", "YAML file with scripted fixtures")
	flag.BoolVar(&cli.Live, "live", false, "Open -url in a browser and mirror it")
	flag.BoolVar(&cli.Headless, "headless", true, "Run the -live browser without a window")
	flag.StringVar(&cli.ConfigFile, "config", "", "Path to configuration file (default ~/.webtool/config.json)")
	flag.Func("disable", "Comma-separated integrations to disable for this run (adds to the configured list)", func(v string) error {
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				cli.Disable = append(cli.Disable, name)
			}
		}
		return nil
	})
	flag.BoolVar(&cli.Highlight, "highlight", false, "Syntax-highlight issue JSON and HTML excerpts")
	flag.BoolVar(&cli.Copy, "copy", false, "Copy the last extracted issue JSON to the clipboard")
	flag.BoolVar(&cli.Verbose, "v", false, "Log to stderr instead of the session log file")
	flag.DurationVar(&cli.Timeout, "timeout", 0, "Stop after this long (0 means no limit)")
	flag.BoolVar(&cli.ShowVersion, "version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "webtool-probe - run site integrations against a page\n\n")
		fmt.Fprintf(os.Stderr, "Usage: webtool-probe [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  webtool-probe -url https://gitlab.com/acme/widgets/issues/42 -html issue.html\n")
		fmt.Fprintf(os.Stderr, "  webtool-probe -fixtures testdata/fixtures.yaml -highlight\n")
		fmt.Fprintf(os.Stderr, "  webtool-probe -live -headless=false -url https://github.com/acme/widgets/issues/1\n")
	}

	flag.Parse()
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "headless" {
			cli.HeadlessSet = true
		}
	})
	return cli
}

// probe bundles what every mode needs.
type probe struct {
	cli      *CLIConfig
	logger   *logging.Logger
	registry *integration.Registry
	watcher  *watcher.Watcher
	report   *reporter
}

func run(ctx context.Context, cli *CLIConfig) error {
	p, err := newProbe(cli, os.Stdout)
	if err != nil {
		return err
	}
	defer p.logger.Close()

	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	switch {
	case cli.Live:
		return p.runLive(ctx)
	case cli.Fixtures != "":
		return p.runFixtures(ctx)
	case cli.HTMLFile != "":
		return p.runPage(ctx)
	default:
		flag.Usage()
		return fmt.Errorf("one of -html, -fixtures or -live is required")
	}
}

// newProbe initializes the global configuration and builds the registry
// and watcher it describes. Reports go to out.
func newProbe(cli *CLIConfig, out io.Writer) (*probe, error) {
	if err := config.Initialize(cli.ConfigFile); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	watcherCfg := config.GetWatcher()
	if err := watcherCfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := newLogger(cli.Verbose)
	logger.SetLevel(watcherCfg.Level())

	integrationsCfg := config.GetIntegrations()
	for _, name := range cli.Disable {
		integrationsCfg.SetEnabled(name, false)
	}
	registryOpts := append(integrationsCfg.RegistryOptions(), integration.WithLogger(logger.With("registry")))
	registry := integrations.Default(registryOpts...)
	for _, a := range registry.Adapters() {
		if !config.IsIntegrationEnabled(a.Name()) {
			logger.Infof("integration %s is disabled", a.Name())
		}
	}

	watcherOpts, factory := watcherCfg.Options()
	watcherOpts = append(watcherOpts, watcher.WithLogger(logger.With("watcher")))

	return &probe{
		cli:      cli,
		logger:   logger,
		registry: registry,
		watcher:  watcher.New(registry, factory, watcherOpts...),
		report:   newReporter(out, cli.Highlight),
	}, nil
}

// newLogger logs to the session file, or to stderr with -v. A session
// file that cannot be opened falls back to stderr.
func newLogger(verbose bool) *logging.Logger {
	if verbose {
		return logging.NewWriterLogger("probe", os.Stderr)
	}
	logger, _ := logging.NewLogger("probe")
	return logger
}

// withTimeout applies -timeout to ctx.
func (p *probe) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.cli.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.cli.Timeout)
}
