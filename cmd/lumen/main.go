package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/lumenlang/lumen/internal/builtins"
	"github.com/lumenlang/lumen/internal/cache"
	"github.com/lumenlang/lumen/internal/config"
	"github.com/lumenlang/lumen/internal/pipeline"
	"github.com/lumenlang/lumen/internal/program"
	"github.com/lumenlang/lumen/internal/resolver"
	"github.com/lumenlang/lumen/internal/session"
)

func main() {
	// Catch panics and show user-friendly error
	defer func() {
		if r := recover(); r != nil {
			if os.Getenv("DEBUG") == "1" {
				panic(r) // Re-panic to get stack trace
			}
			fmt.Fprintf(os.Stderr, "Internal error: %v\n", r)
			fmt.Fprintln(os.Stderr, "This is a bug. Please report it.")
			os.Exit(1)
		}
	}()

	if os.Getenv("LUMEN_TEST_MODE") == "1" {
		config.IsTestMode = true
	}

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "check":
		os.Exit(runCheck())
	case "help", "-help", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command>\n\n", os.Args[0])
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  check    resolve, specialize and report diagnostics for the sample program")
	fmt.Fprintln(os.Stderr, "  help     show this help")
}

func runCheck() int {
	opts := loadOptions()

	b := builtins.New()
	sess := session.New(b)
	sess.MaxPasses = opts.MaxPasses
	if opts.CachePath != "" {
		store, err := cache.Open(opts.CachePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Cannot open cache at %s: %s\n", opts.CachePath, err)
			return 1
		}
		defer store.Close()
		sess = sess.WithStore(store)
	}

	scope := resolver.NewRootScope(b, sess.Graph)
	ctx := pipeline.NewContext(sess, scope)
	ctx.Functions = sampleProgram()
	ctx.EntryPoints = []string{config.MainFuncName}
	ctx.Inline = opts.InlineEnabled()

	ctx = pipeline.Check().Run(ctx)

	if len(ctx.Errors) > 0 {
		for _, err := range ctx.Errors {
			fmt.Fprintf(os.Stderr, "%s\n", colorize(err.Error()))
		}
		return 1
	}

	fmt.Println("ok")
	for _, head := range checkedFunctions(ctx) {
		fmt.Printf("  %s\n", head)
		if os.Getenv("DEBUG") == "1" {
			if impl, ok := ctx.Refactor.Implementations[head]; ok {
				fmt.Print(program.DumpString(impl.Tree))
			}
		}
	}
	return 0
}

// checkedFunctions lists what a backend would emit: the entry points, then
// every specialization still reachable from them through calls.
func checkedFunctions(ctx *pipeline.Context) []*program.FunctionHead {
	if ctx.Refactor == nil {
		return nil
	}
	return ctx.Refactor.DeepFunctions(ctx.Refactor.Explicit)
}

func loadOptions() *config.Options {
	cwd, err := os.Getwd()
	if err != nil {
		return &config.Options{}
	}
	path, err := config.FindOptions(cwd)
	if err != nil {
		// No lumen.yaml anywhere above; defaults apply.
		return &config.Options{}
	}
	opts, err := config.LoadOptions(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: ignoring %s: %s\n", path, err)
		return &config.Options{}
	}
	return opts
}

func colorize(msg string) string {
	tty := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	return colorizeFor(msg, tty)
}

func colorizeFor(msg string, tty bool) string {
	if config.IsTestMode || !tty {
		return msg
	}
	return "\x1b[31m" + msg + "\x1b[0m"
}
