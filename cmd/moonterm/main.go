// Package main is the entry point for the moonterm script runner.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/tbellam/moonterm/internal/config"
	"github.com/tbellam/moonterm/internal/script"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

type options struct {
	configPath string
	code       string
	allLibs    bool
	initConfig bool
}

func run() int {
	opts, args := parseFlags()

	cfgPath := opts.configPath
	if cfgPath == "" {
		cfgPath = defaultConfigPath()
	}

	if opts.initConfig {
		if err := config.WriteDefault(cfgPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to write config: %v\n", err)
			return 1
		}
		fmt.Printf("Wrote %s\n", cfgPath)
		return 0
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	scriptPath := cfg.ScriptPath
	if len(args) > 0 {
		scriptPath = args[0]
	}

	var stateOpts []script.StateOption
	if opts.allLibs || cfg.AllLibraries {
		stateOpts = append(stateOpts, script.WithAllLibraries())
	}
	st, err := script.NewState(stateOpts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize lua: %v\n", err)
		return 1
	}
	defer st.Close()

	mod := script.NewModule(script.WithInitHook(cfg.Apply))
	// Ensure the terminal is restored on all exit paths.
	defer mod.Shutdown()
	mod.Register(st)

	// Restore the terminal on SIGINT/SIGTERM before dying.
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		mod.Shutdown()
		os.Exit(130)
	}()

	if opts.code != "" {
		err = st.DoString(opts.code)
	} else {
		err = st.DoFile(scriptPath)
	}

	// Leave raw mode before reporting script errors.
	mod.Shutdown()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "moonterm.json"
	}
	return filepath.Join(dir, "moonterm", "config.json")
}

func parseFlags() (options, []string) {
	var opts options
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.configPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.code, "e", "", "Execute a Lua chunk instead of a file")
	flag.BoolVar(&opts.allLibs, "libs", false, "Open the full Lua standard library")
	flag.BoolVar(&opts.initConfig, "init-config", false, "Write the default config file and exit")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Moonterm - Lua-scriptable terminal rows\n\n")
		fmt.Fprintf(os.Stderr, "Usage: moonterm [options] [script.lua]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  moonterm demo.lua               Run a script\n")
		fmt.Fprintf(os.Stderr, "  moonterm -e 'print(\"hi\")'       Run a chunk\n")
		fmt.Fprintf(os.Stderr, "  moonterm -init-config           Seed the config file\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}
	if showVersion {
		fmt.Printf("Moonterm %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	return opts, flag.Args()
}
