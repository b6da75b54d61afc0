package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"
)

const Version = "1.0.0"

func main() {
	if err := run(os.Args[1:], os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	help    bool
	version bool
	debug   bool

	// args are positional arguments. They are accepted and ignored.
	args []string
}

func parseFlags(args []string, stderr io.Writer) (*options, *pflag.FlagSet, error) {
	opts := &options{}
	flags := pflag.NewFlagSet("argon2hash", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.BoolVarP(&opts.help, "help", "h", false, "Show this help message")
	flags.BoolVarP(&opts.version, "version", "v", false, "Show version information")
	flags.BoolVarP(&opts.debug, "debug", "D", false, "Log hashing parameters and timing to stderr")
	flags.Usage = func() { printUsage(stderr, flags) }

	if err := flags.Parse(args); err != nil {
		return nil, flags, err
	}
	opts.args = flags.Args()
	return opts, flags, nil
}

// run parses flags and, unless asked for help or the version, starts the
// interactive session. Diagnostics go to stderr.
func run(args []string, stderr io.Writer) error {
	opts, flags, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	switch {
	case opts.help:
		printUsage(stderr, flags)
		return nil
	case opts.version:
		fmt.Fprintf(stderr, "argon2hash version %s\n", Version)
		return nil
	}

	level := slog.LevelWarn
	if opts.debug {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	if len(opts.args) > 0 {
		log.Debug("ignoring positional arguments", slog.Int("count", len(opts.args)))
	}

	s := &session{
		prompter: newTerminalPrompter(),
		hasher:   newArgon2Hasher(log),
		log:      log,
	}
	return s.run()
}

func printUsage(w io.Writer, flags *pflag.FlagSet) {
	usage := `argon2hash - Interactive Argon2 password hasher

USAGE:
    argon2hash [options]

Run without arguments to be prompted for the password, the algorithm
(argon2id, argon2i or argon2d), the salt and hash lengths, the iteration
count, the memory cost, the thread count and an optional base64 secret.
Press Enter to accept the default shown in brackets.

OPTIONS:
`
	fmt.Fprint(w, usage)
	fmt.Fprint(w, flags.FlagUsages())
	fmt.Fprint(w, `
SECURITY:
    - Password and secret are read without echo on a terminal
    - Password and secret buffers are zeroed before exit
    - A random salt is generated for every hash
`)
}
