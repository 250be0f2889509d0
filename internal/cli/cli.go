package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/amirbrooks/todotxt/internal/config"
	"github.com/amirbrooks/todotxt/internal/logging"
	"github.com/amirbrooks/todotxt/internal/store"
	"github.com/amirbrooks/todotxt/internal/todotxt"
)

// Exit codes
const (
	ExitOK       = 0
	ExitUsage    = 2
	ExitNotFound = 3
	ExitConflict = 4
	ExitInternal = 10
)

type GlobalFlags struct {
	ConfigPath string
	JSON       bool
	NDJSON     bool
	YAML       bool
	Plain      bool
	ExportDir  string
	Quiet      bool
	Verbose    bool
}

// env carries the resolved settings and streams for one invocation.
type env struct {
	gf      GlobalFlags
	cfg     *config.Config
	cfgPath string
	format  string
	log     *log.Logger
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
}

func reorderFlags(args []string, takesValue map[string]bool) []string {
	if len(args) == 0 {
		return args
	}
	var flags []string
	var rest []string
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			if i+1 < len(args) {
				rest = append(rest, args[i+1:]...)
			}
			break
		}
		if strings.HasPrefix(a, "-") && a != "-" {
			flags = append(flags, a)
			if takesValue[a] && !strings.Contains(a, "=") {
				if i+1 < len(args) {
					flags = append(flags, args[i+1])
					i++
				}
			}
			continue
		}
		rest = append(rest, a)
	}
	return append(flags, rest...)
}

func Run(args []string) int {
	return RunWithIO(args, os.Stdin, os.Stdout, os.Stderr)
}

// RunWithIO runs the CLI against the given streams and returns the exit code.
func RunWithIO(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	gf, rest, err := extractGlobalFlags(args)
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return ExitUsage
	}

	if len(rest) == 0 {
		printHelp(stderr)
		return ExitUsage
	}

	e, err := newEnv(gf, stdin, stdout, stderr)
	if err != nil {
		fmt.Fprintln(stderr, "todotxt:", err)
		return exitCode(err)
	}

	cmd := rest[0]
	cmdArgs := rest[1:]

	switch cmd {
	case "help", "--help", "-h":
		printHelp(stdout)
		return ExitOK
	case "parse":
		return cmdParse(e, cmdArgs)
	case "format", "fmt":
		return cmdFormat(e, cmdArgs)
	case "tags":
		return cmdTags(e, cmdArgs)
	case "tokens":
		return cmdTokens(e, cmdArgs)
	case "ls", "list":
		return cmdList(e, cmdArgs)
	case "check":
		return cmdCheck(e, cmdArgs)
	case "export":
		return cmdExport(e, cmdArgs)
	case "interactive", "tui":
		return cmdInteractive(e, cmdArgs)
	case "config", "cfg":
		return cmdConfig(e, cmdArgs)
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", cmd)
		printHelp(stderr)
		return ExitUsage
	}
}

func printHelp(w io.Writer) {
	fmt.Fprint(w, `todotxt - parse, format and inspect todo.txt lines

Usage:
  todotxt [global flags] <command> [args]

Global flags:
  --config <path>    Config file (default: ~/.config/todotxt/config.toml or TODOTXT_CONFIG)
  --json             JSON output
  --ndjson           NDJSON output
  --yaml             YAML output
  --plain            TSV output
  --export-dir       Export directory (default from config: exports)
  --quiet
  --verbose

Commands:
  parse [file...]
  format [--from json|ndjson|yaml] [file]
  tags [file...] | tags --text "<description>"
  tokens [file...] | tokens --line "<line>"
  ls [file...] [--project p] [--context c] [--key k] [--priority P] [--open|--done] [--search q] [--sort]
  check [file...]
  export [file...] [--format json|ndjson|yaml] [--name base]
  interactive
  config show

Files default to stdin.
`)
}

func extractGlobalFlags(args []string) (GlobalFlags, []string, error) {
	// Allow flags anywhere by scanning and stripping known globals.
	gf := GlobalFlags{}
	out := make([]string, 0, len(args))
	skip := 0

	for i := 0; i < len(args); i++ {
		if skip > 0 {
			skip--
			continue
		}
		a := args[i]
		switch a {
		case "--config":
			if i+1 >= len(args) {
				return gf, nil, errors.New("--config requires a value")
			}
			gf.ConfigPath = args[i+1]
			skip = 1
		case "--json":
			gf.JSON = true
		case "--ndjson":
			gf.NDJSON = true
		case "--yaml":
			gf.YAML = true
		case "--plain":
			gf.Plain = true
		case "--export-dir":
			if i+1 >= len(args) {
				return gf, nil, errors.New("--export-dir requires a value")
			}
			gf.ExportDir = args[i+1]
			skip = 1
		case "--quiet":
			gf.Quiet = true
		case "--verbose":
			gf.Verbose = true
		default:
			out = append(out, a)
		}
	}

	n := 0
	for _, set := range []bool{gf.JSON, gf.NDJSON, gf.YAML, gf.Plain} {
		if set {
			n++
		}
	}
	if n > 1 {
		return gf, nil, errors.New("--json, --ndjson, --yaml and --plain are mutually exclusive")
	}
	if gf.Quiet && gf.Verbose {
		return gf, nil, errors.New("--quiet and --verbose are mutually exclusive")
	}
	return gf, out, nil
}

func newEnv(gf GlobalFlags, stdin io.Reader, stdout, stderr io.Writer) (*env, error) {
	path, err := config.Path(gf.ConfigPath)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	format := cfg.Format
	switch {
	case gf.JSON:
		format = config.FormatJSON
	case gf.NDJSON:
		format = config.FormatNDJSON
	case gf.YAML:
		format = config.FormatYAML
	case gf.Plain:
		format = config.FormatPlain
	}
	if gf.ExportDir == "" {
		gf.ExportDir = cfg.ExportDir
	}

	level := cfg.LogLevel
	if gf.Verbose {
		level = "debug"
	}
	if gf.Quiet {
		level = "error"
	}

	return &env{
		gf:      gf,
		cfg:     cfg,
		cfgPath: path,
		format:  format,
		log:     logging.New(stderr, level),
		stdin:   stdin,
		stdout:  stdout,
		stderr:  stderr,
	}, nil
}

func (e *env) structured() bool {
	switch e.format {
	case config.FormatJSON, config.FormatNDJSON, config.FormatYAML:
		return true
	}
	return false
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, store.ErrNotFound):
		return ExitNotFound
	case errors.Is(err, store.ErrInvalid), errors.Is(err, config.ErrInvalid), errors.Is(err, todotxt.ErrInvalid):
		return ExitUsage
	default:
		return ExitInternal
	}
}

// fail reports err for the named command and returns the matching exit code.
func (e *env) fail(cmd string, err error) int {
	fmt.Fprintf(e.stderr, "%s: %v\n", cmd, err)
	return exitCode(err)
}
