// Lox CLI - scanner diagnostics, chunk tools and the language server
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/tliron/commonlog"

	"github.com/chazu/lox/manifest"

	_ "github.com/tliron/commonlog/simple"
)

const version = "0.1.0"

var log = commonlog.GetLogger("lox.cli")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run parses args, executes one subcommand and returns the exit code.
func run(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("lox", flag.ContinueOnError)
	flags.SetOutput(stderr)
	verbose := flags.Int("v", -1, "Log verbosity (0-5); defaults to the manifest's [log] verbosity")
	logFile := flags.String("log", "", "Log file (defaults to stderr)")
	dir := flags.String("C", ".", "Project directory used to find lox.toml")
	noCache := flags.Bool("no-cache", false, "Do not read or write the cache database")

	flags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: lox [options] <command> [args...]\n\n")
		fmt.Fprintf(stderr, "Commands:\n")
		fmt.Fprintf(stderr, "  tokens FILE               Print the token stream of a source file\n")
		fmt.Fprintf(stderr, "  check [PATHS...]          Report lexical errors (default: manifest sources)\n")
		fmt.Fprintf(stderr, "  disasm FILE.lxbc          Disassemble a serialized chunk\n")
		fmt.Fprintf(stderr, "  store put NAME FILE.lxbc  Save a chunk in the cache\n")
		fmt.Fprintf(stderr, "  store show NAME           Disassemble the latest chunk saved as NAME\n")
		fmt.Fprintf(stderr, "  store list                List cached chunks\n")
		fmt.Fprintf(stderr, "  lsp                       Run the language server on stdio\n")
		fmt.Fprintf(stderr, "  version                   Print the version\n")
		fmt.Fprintf(stderr, "\nOptions:\n")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	rest := flags.Args()
	if len(rest) == 0 {
		flags.Usage()
		return 2
	}

	m, err := manifest.FindAndLoad(*dir)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if m == nil {
		m = manifest.Default(*dir)
	}

	configureLogging(m, *verbose, *logFile)

	e := &env{
		manifest: m,
		stdout:   stdout,
		stderr:   stderr,
		useCache: m.Cache.Enabled && !*noCache,
	}

	cmd, cmdArgs := rest[0], rest[1:]
	switch cmd {
	case "tokens":
		return e.tokens(cmdArgs)
	case "check":
		return e.check(cmdArgs)
	case "disasm":
		return e.disasm(cmdArgs)
	case "store":
		return e.storeCommand(cmdArgs)
	case "lsp":
		return e.lsp()
	case "version":
		fmt.Fprintf(stdout, "lox %s\n", version)
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", cmd)
		flags.Usage()
		return 2
	}
}

// env carries what every subcommand needs.
type env struct {
	manifest *manifest.Manifest
	stdout   io.Writer
	stderr   io.Writer
	useCache bool
}

func configureLogging(m *manifest.Manifest, verbose int, logFile string) {
	if verbose < 0 {
		verbose = m.Log.Verbosity
	}
	if logFile == "" {
		logFile = m.LogFile()
	}
	var path *string
	if logFile != "" {
		path = &logFile
	}
	commonlog.Configure(verbose, path)
}

func (e *env) fail(format string, args ...any) int {
	fmt.Fprintf(e.stderr, "Error: "+format+"\n", args...)
	return 1
}
