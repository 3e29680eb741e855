package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
)

const (
	ModeRide   = "ride-service"
	ModeBucket = "bucket-worker"
)

// binary is the executable name shown in usage text.
const binary = "./rydin"

// IsKnownMode checks if the provided mode name is known.
func IsKnownMode(s string) (string, bool) {
	switch s {
	case ModeRide, "ride", "r":
		return ModeRide, true
	case ModeBucket, "bucket", "worker", "b":
		return ModeBucket, true
	default:
		return "", false
	}
}

// ParseMode supports:
//
//	--mode=<value>
//	<value> (subcommand shorthand), e.g., `ride-service --max-concurrent=150`
func ParseMode(args []string) (string, []string, error) {
	var mode string
	var out []string

	for i := range args {
		arg := args[i]
		if after, ok := strings.CutPrefix(arg, "--mode="); ok {
			mode = after
			continue
		}

		if mode == "" {
			if m, ok := IsKnownMode(arg); ok {
				mode = m
				continue
			}
		}
		out = append(out, arg)
	}

	if mode == "" {
		return "", out, errors.New("no mode specified: use --mode=<service>")
	}

	if m, ok := IsKnownMode(mode); ok {
		mode = m
	}

	return mode, out, nil
}

// PrintUsage prints the usage information with examples.
func PrintUsage(w io.Writer) {
	fmt.Fprint(w, "\033[36m") // cyan

	fmt.Fprintf(w, `Usage:
  %[1]s --mode=<service> [flags]

Services (modes):
  ride-service      HTTP API for rides, reliability, profiles and buckets
  bucket-worker     Daily bucket generation, no-show clearance and generation requests

Common flags:
  --config=<path>   Config file (default config/config.yaml)

Examples:
  %[1]s --mode=ride-service --max-concurrent=150
  %[1]s --mode=bucket-worker --prefetch=4
  %[1]s ride-service --config=config/local.yaml
`, binary)

	fmt.Fprint(w, "\033[0m") // reset
}

// AttachUsage wires a concise per-mode usage to a FlagSet.
func AttachUsage(fs *flag.FlagSet, mode string) {
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s --mode=%s [flags]\n", binary, mode)
		fs.PrintDefaults()
	}
}
