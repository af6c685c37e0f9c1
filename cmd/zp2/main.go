// Command zp2 packs files into a single .zp2 container and unpacks them again.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/meigma/zp2"
)

const (
	defaultOut     = "out.zp2"
	digestWorkers  = 4
	minPackFiles   = 2
	minUnpackFiles = 1
)

// Config is the parsed command line.
type Config struct {
	Decompress bool
	List       bool
	Help       bool
	Verbose    bool
	Out        string
	Args       []string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := parseArgs(args)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		printUsage(stderr)
		return 1
	}
	if err := cfg.validate(); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(stderr, "Error:", err)
		}
		printUsage(stderr)
		return 1
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch {
	case cfg.List:
		err = list(ctx, cfg, stdout, logger)
	case cfg.Decompress:
		err = unpack(ctx, cfg, logger)
	default:
		err = pack(ctx, cfg, logger)
	}
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	return 0
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `Usage: zp2 [-o dest] file1 file2 [...fileN]
       zp2 -dc [-o dir] archiveFile
       zp2 -l archiveFile
Options:
  -dc --decompress    Set mode to decompression.
  -l  --list          List the entries of an archive.
  -h  --help          Shows this message.
  -o  --out           The destination of the new file (or directory with -dc).
  -v  --verbose       Log every entry.
`)
}

// parseArgs parses flags and positionals, which may be interleaved.
// Flag names are matched case-insensitively and unknown flags are ignored.
func parseArgs(args []string) (Config, error) {
	var cfg Config
	fs := flag.NewFlagSet("zp2", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.BoolVar(&cfg.Decompress, "dc", false, "")
	fs.BoolVar(&cfg.Decompress, "decompress", false, "")
	fs.BoolVar(&cfg.List, "l", false, "")
	fs.BoolVar(&cfg.List, "list", false, "")
	fs.BoolVar(&cfg.Help, "h", false, "")
	fs.BoolVar(&cfg.Help, "help", false, "")
	fs.BoolVar(&cfg.Verbose, "v", false, "")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "")
	fs.StringVar(&cfg.Out, "o", "", "")
	fs.StringVar(&cfg.Out, "out", "", "")

	rest, tail := splitTerminator(args)
	rest = normalizeFlags(fs, rest)
	for {
		if err := fs.Parse(rest); err != nil {
			return Config{}, err
		}
		rest = fs.Args()
		if len(rest) == 0 {
			break
		}
		cfg.Args = append(cfg.Args, rest[0])
		rest = rest[1:]
	}
	cfg.Args = append(cfg.Args, tail...)
	return cfg, nil
}

// splitTerminator splits args at the first "--"; everything after it is positional.
func splitTerminator(args []string) (head, tail []string) {
	for i, arg := range args {
		if arg == "--" {
			return args[:i], args[i+1:]
		}
	}
	return args, nil
}

// normalizeFlags rewrites args into a form fs parses without error.
//
// Flag names are lowercased and flags fs does not define are dropped. A value
// flag only consumes the next argument when it does not start with '-';
// otherwise it is set to the empty string.
func normalizeFlags(fs *flag.FlagSet, args []string) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			out = append(out, arg)
			continue
		}

		name, value, hasValue := strings.Cut(strings.TrimPrefix(arg[1:], "-"), "=")
		name = strings.ToLower(name)
		f := fs.Lookup(name)
		if name == "" || f == nil {
			continue
		}

		if isBoolFlag(f) {
			if !hasValue {
				out = append(out, "-"+name)
			} else if _, err := strconv.ParseBool(value); err == nil {
				out = append(out, "-"+name+"="+value)
			}
			continue
		}

		if !hasValue && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			i++
			value = args[i]
		}
		out = append(out, "-"+name+"="+value)
	}
	return out
}

func isBoolFlag(f *flag.Flag) bool {
	bf, ok := f.Value.(interface{ IsBoolFlag() bool })
	return ok && bf.IsBoolFlag()
}

func (c Config) validate() error {
	switch {
	case c.Help:
		return flag.ErrHelp
	case c.List && c.Decompress:
		return errors.New("-l and -dc are mutually exclusive")
	case c.List || c.Decompress:
		if len(c.Args) < minUnpackFiles {
			return errors.New("missing archive file")
		}
	default:
		if len(c.Args) < minPackFiles {
			return fmt.Errorf("need at least %d files to pack", minPackFiles)
		}
	}
	return nil
}

func pack(ctx context.Context, cfg Config, logger *slog.Logger) error {
	out := cfg.Out
	if out == "" {
		out = defaultOut
	}

	e := zp2.New(zp2.WithLogger(logger))
	for _, path := range cfg.Args {
		if err := e.Add(path); err != nil {
			return err
		}
	}
	stats, err := e.Pack(ctx, out)
	if err != nil {
		return err
	}
	for _, path := range stats.SkippedPaths {
		logger.Warn("skipped unreadable file", "path", path)
	}
	return nil
}

func unpack(ctx context.Context, cfg Config, logger *slog.Logger) error {
	archive := cfg.Args[0]
	logger.Info("loading file", "path", archive)

	opts := []zp2.Option{
		zp2.WithLogger(logger),
		zp2.WithProgress(func(ev zp2.ProgressEvent) {
			if ev.Stage != zp2.StageExtracting {
				return
			}
			logger.Debug("extracting",
				"path", ev.Path,
				"chunk", ev.BytesDone/zp2.DefaultChunkSize,
				"chunks", ev.BytesTotal/zp2.DefaultChunkSize)
		}),
	}
	if cfg.Out != "" {
		opts = append(opts, zp2.WithDestDir(cfg.Out))
	}

	if _, err := zp2.New(opts...).Unpack(ctx, archive); err != nil {
		return err
	}
	logger.Info("successfully extracted the file", "path", archive)
	return nil
}

func list(ctx context.Context, cfg Config, stdout io.Writer, logger *slog.Logger) error {
	af, err := zp2.Open(cfg.Args[0], zp2.WithLogger(logger))
	if err != nil {
		return err
	}
	defer af.Close()

	digests, err := af.Digests(ctx, digestWorkers)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tSIZE\tOFFSET\tDIGEST")
	for i, e := range af.Entries() {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", e.Path, e.Size, e.Offset, digests[i])
	}
	return tw.Flush()
}
