package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	bucketworker "rydin/cmd/bucket_worker"
	rideservice "rydin/cmd/ride_service"
	"rydin/internal/cli"
)

const defaultConfigPath = "config/config.yaml"

func main() {
	// quick path for global help
	if len(os.Args) == 2 && (os.Args[1] == "--help" || os.Args[1] == "-h") {
		cli.PrintUsage(os.Stdout)
		os.Exit(0)
	}

	// parse mode and collect the remaining args for that mode
	mode, svcArgs, err := cli.ParseMode(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		cli.PrintUsage(os.Stderr)
		os.Exit(2)
	}

	// context cancelled on SIGINT/SIGTERM for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// run the service specified by the mode flag
	switch mode {

	case cli.ModeRide:
		fs := flag.NewFlagSet(cli.ModeRide, flag.ContinueOnError)
		configPath := fs.String("config", defaultConfigPath, "Path to the YAML config file")
		maxConc := fs.Int("max-concurrent", 100, "Maximum number of concurrent HTTP requests to process")
		cli.AttachUsage(fs, cli.ModeRide)

		if err := fs.Parse(svcArgs); err != nil {
			if err == flag.ErrHelp {
				os.Exit(0)
			}
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(2)
		}
		if *maxConc < 1 {
			fmt.Fprintln(os.Stderr, "Error: --max-concurrent must be >= 1")
			fs.Usage()
			os.Exit(2)
		}
		if err := rideservice.Run(ctx, *configPath, *maxConc); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}

	case cli.ModeBucket:
		fs := flag.NewFlagSet(cli.ModeBucket, flag.ContinueOnError)
		configPath := fs.String("config", defaultConfigPath, "Path to the YAML config file")
		prefetch := fs.Int("prefetch", 4, "RabbitMQ prefetch count for the generation request consumer")
		cli.AttachUsage(fs, cli.ModeBucket)

		if err := fs.Parse(svcArgs); err != nil {
			if err == flag.ErrHelp {
				os.Exit(0)
			}
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(2)
		}
		if *prefetch <= 0 {
			fmt.Fprintln(os.Stderr, "Error: --prefetch must be > 0")
			fs.Usage()
			os.Exit(2)
		}
		if err := bucketworker.Run(ctx, *configPath, *prefetch); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}

	default:
		fmt.Fprintf(os.Stderr, "Error: unknown mode %q\n", mode)
		cli.PrintUsage(os.Stderr)
		os.Exit(2)
	}

	// tiny delay to let deferred logs flush on very fast exits
	select {
	case <-ctx.Done():
	case <-time.After(10 * time.Millisecond):
	}
}
