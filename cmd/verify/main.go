// Command verify runs browser verification scenarios against a running
// Margea dashboard and saves screenshots of the key states.
//
// Usage:
//
//	go run ./cmd/verify -base-url http://localhost:3000 favicon bulk-merge-toast
//	go run ./cmd/verify -list
//	go run ./cmd/verify all
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/kuitang/margea-verify/internal/artifact"
	"github.com/kuitang/margea-verify/internal/config"
	"github.com/kuitang/margea-verify/internal/errs"
	"github.com/kuitang/margea-verify/internal/obs"
	"github.com/kuitang/margea-verify/internal/scenario"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run is main without the process exit so tests can drive it.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: verify [flags] <scenario>... | all")
		fs.PrintDefaults()
	}

	flags, err := config.ParseFlags(fs, args)
	if err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return errs.ExitCode(errs.InvalidArgument)
	}

	if flags.List {
		printCatalog(stdout)
		return 0
	}

	scenarios, err := scenario.Lookup(flags.Scenarios)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		fs.Usage()
		return errs.ExitCode(errs.CodeOf(err))
	}

	cfg, err := config.LoadConfig(flags)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return errs.ExitCode(errs.InvalidArgument)
	}

	obs.Init()
	cfg.PrintStartupSummary()

	var mirror *artifact.S3Sink
	if cfg.MirrorsToS3() {
		mirror, err = artifact.NewS3Sink(ctx, artifact.S3Config{
			Endpoint:        cfg.S3Endpoint,
			Bucket:          cfg.S3Bucket,
			Prefix:          cfg.S3Prefix,
			PublicURL:       cfg.S3PublicURL,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			UsePathStyle:    cfg.S3UsePathStyle,
		})
		if err != nil {
			err = errs.Wrap(errs.Setup, "configure S3 mirror", err)
			fmt.Fprintln(stderr, "error:", err)
			return errs.ExitCode(errs.CodeOf(err))
		}
	}

	names := make([]string, 0, len(scenarios))
	for _, sc := range scenarios {
		names = append(names, sc.Name())
	}
	obs.Pkg("verify").Info("run_started", "scenarios", names, "base_url", cfg.BaseURL, "mirror", cfg.MirrorsToS3())

	runner := scenario.NewRunner(cfg, artifact.NewStore(cfg.ArtifactDir, mirror), stdout)
	results := runner.RunAll(ctx, scenarios)
	return summarize(stdout, results, len(scenarios))
}

var (
	passLabel = color.New(color.FgGreen, color.Bold)
	failLabel = color.New(color.FgRed, color.Bold)
	skipLabel = color.New(color.FgYellow)
)

func printCatalog(w io.Writer) {
	for _, sc := range scenario.Catalog() {
		fmt.Fprintf(w, "%-20s %s\n", sc.Name(), sc.Description())
	}
}

// summarize prints one line per result and returns the exit status of the
// first failure, or 0. Scenarios skipped by cancellation count as a timeout.
func summarize(w io.Writer, results []scenario.Result, requested int) int {
	exit := 0
	fmt.Fprintln(w)
	for _, res := range results {
		if res.Passed() {
			passLabel.Fprint(w, "PASS")
			fmt.Fprintf(w, "  %-20s %6dms  %d artifact(s)\n", res.Scenario, res.Duration().Milliseconds(), len(res.Artifacts))
			for _, a := range res.Artifacts {
				if a.URL != "" {
					fmt.Fprintf(w, "      %s -> %s\n", a.Path, a.URL)
				} else {
					fmt.Fprintf(w, "      %s\n", a.Path)
				}
			}
			continue
		}
		code := errs.CodeOf(res.Err)
		failLabel.Fprint(w, "FAIL")
		fmt.Fprintf(w, "  %-20s %6dms  [%s] %v\n", res.Scenario, res.Duration().Milliseconds(), code, res.Err)
		if exit == 0 {
			exit = errs.ExitCode(code)
		}
	}
	if len(results) < requested {
		skipLabel.Fprint(w, "SKIP")
		fmt.Fprintf(w, "  %d scenario(s) not run: interrupted\n", requested-len(results))
		if exit == 0 {
			exit = errs.ExitCode(errs.Timeout)
		}
	}
	return exit
}
