// RotorSizer explores the design space of small quadrotors: it combines
// catalog components into candidate airframes, checks each against the
// mission requirements and ranks the feasible ones.
//
// Build:
//
//	go build -o rotorsizer ./cmd/rotorsizer
//
// Usage:
//
//	rotorsizer [-config file] <command> [flags]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/piwi3910/RotorSizer/internal/config"
	"github.com/piwi3910/RotorSizer/internal/logging"
	"github.com/piwi3910/RotorSizer/internal/model"
	"github.com/piwi3910/RotorSizer/internal/project"
	"github.com/piwi3910/RotorSizer/internal/store"
)

// errUsage marks argument errors; the usage text has already been printed.
var errUsage = errors.New("invalid usage")

type command struct {
	summary string
	run     func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"init":           {"create the data directory with the built-in catalog and an example study", cmdInit},
	"run":            {"evaluate and rank every candidate for a study", cmdRun},
	"compare":        {"re-run a study under the what-if scenarios", cmdCompare},
	"import":         {"merge components from a CSV, Excel or JSON file into the catalog", cmdImport},
	"export-catalog": {"write the catalog as JSON, Excel or CSV", cmdExportCatalog},
	"push-catalog":   {"copy the local catalog to Redis", cmdPushCatalog},
	"pull-catalog":   {"replace the local catalog with the one in Redis", cmdPullCatalog},
	"backup":         {"write config, catalog and studies to one file", cmdBackup},
	"restore":        {"restore a backup written by the backup command", cmdRestore},
}

// app carries what every command needs.
type app struct {
	cfg    config.Config
	log    logging.Logger
	stdout io.Writer
	stderr io.Writer
}

func (a *app) catalogPath() string   { return filepath.Join(a.cfg.DataDir, "catalog.json") }
func (a *app) studiesDir() string    { return filepath.Join(a.cfg.DataDir, "studies") }
func (a *app) appConfigPath() string { return filepath.Join(a.cfg.DataDir, "config.json") }

// openStore returns the catalog store for backend "file" or "redis".
func (a *app) openStore(backend string) (store.CatalogStore, error) {
	switch backend {
	case "", "file":
		return store.NewFileStore(a.catalogPath()), nil
	case "redis":
		return store.NewRedisStore(store.RedisOptions{
			Addr:     a.cfg.Redis.Addr,
			Password: a.cfg.Redis.Password,
			DB:       a.cfg.Redis.DB,
			Prefix:   a.cfg.Redis.Prefix,
		}, a.log)
	default:
		return nil, fmt.Errorf("unknown store %q, want file or redis", backend)
	}
}

func (a *app) loadCatalog(ctx context.Context, backend string) (model.Catalog, error) {
	st, err := a.openStore(backend)
	if err != nil {
		return model.Catalog{}, err
	}
	defer st.Close()
	return st.Load(ctx)
}

// resolveStudy accepts either a study file or the name of a saved study.
func (a *app) resolveStudy(ref string) (model.Study, string, error) {
	if ref == "" {
		return model.Study{}, "", errors.New("no study given, use -study")
	}
	path := ref
	if _, err := os.Stat(path); err != nil {
		path = project.StudyPath(a.studiesDir(), ref)
	}
	s, err := project.LoadStudy(path)
	if err != nil {
		return model.Study{}, "", fmt.Errorf("failed to load study %s: %w", ref, err)
	}
	return s, path, nil
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: rotorsizer [-config file] <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-15s %s\n", name, commands[name].summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'rotorsizer <command> -h' for command flags.")
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("rotorsizer", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "configuration file (yaml, json or toml)")
	fs.Usage = func() { usage(stderr) }
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return errUsage
	}
	if fs.NArg() == 0 {
		usage(stderr)
		return errUsage
	}

	name := fs.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n", name)
		usage(stderr)
		return errUsage
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	a := &app{
		cfg:    cfg,
		log:    logging.NewWithWriter(cfg.Logging(), stderr).With(logging.String("command", name)),
		stdout: stdout,
		stderr: stderr,
	}
	return cmd.run(ctx, a, fs.Args()[1:])
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, "rotorsizer:", err)
		}
		os.Exit(1)
	}
}
