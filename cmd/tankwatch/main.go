package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/chrissnell/tankwatch/internal/app"
	"github.com/chrissnell/tankwatch/internal/constants"
	"github.com/chrissnell/tankwatch/internal/log"
	"github.com/chrissnell/tankwatch/internal/managers"
	"github.com/chrissnell/tankwatch/internal/memo"
	"github.com/chrissnell/tankwatch/internal/pipeline"
	"github.com/chrissnell/tankwatch/internal/render"
	"github.com/chrissnell/tankwatch/internal/types"
	"github.com/chrissnell/tankwatch/pkg/config"
)

func main() {
	cfgFile := flag.String("config", "config.yaml", "Path to configuration source:\n\t\t\t  YAML: config.yaml\n\t\t\t  SQLite: config.db\n\t\t\t  A missing default config.yaml means built-in defaults")
	cfgBackend := flag.String("config-backend", "yaml", "Configuration backend type: 'yaml' for YAML files, 'sqlite' for SQLite databases")
	envFile := flag.String("env", ".env", "Optional .env file with TANKWATCH_* overrides")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")
	date := flag.String("date", "", "Date to show (YYYY-MM-DD); defaults to the first date in the data")
	tod := flag.String("time", "", "Time of day to show (HH:MM:SS); defaults to the first time in the data")
	list := flag.Bool("list", false, "List the available dates and times and exit")
	raw := flag.Bool("raw", false, "Print the full normalized table as JSON and exit")
	serve := flag.Bool("serve", false, "Serve the REST API until interrupted")
	flag.Parse()

	if *showVersion {
		fmt.Printf("tankwatch %s\n", constants.Version)
		os.Exit(0)
	}

	// Set up logging
	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfgData, err := loadConfig(*cfgFile, *cfgBackend, isFlagSet("config"))
	if err != nil {
		log.Errorf("Failed to load configuration: %v", err)
		os.Exit(1)
	}
	if err := config.ApplyEnv(cfgData, *envFile); err != nil {
		log.Errorf("Failed to load environment: %v", err)
		os.Exit(1)
	}
	cfgData.ApplyDefaults()
	if err := cfgData.Validate(); err != nil {
		log.Errorf("Invalid configuration: %v", err)
		os.Exit(1)
	}

	if *serve {
		application := app.New(cfgData, log.GetSugaredLogger())
		if err := application.Run(context.Background()); err != nil {
			log.Errorf("Application error: %v", err)
			os.Exit(1)
		}
		return
	}

	if err := show(context.Background(), cfgData, *date, *tod, *list, *raw); err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}

// show runs the pipeline once and prints the requested view to stdout
func show(ctx context.Context, cfgData *config.ConfigData, date, tod string, list, raw bool) error {
	logger := log.GetSugaredLogger()

	loader, err := managers.NewLoader(cfgData.Source, logger)
	if err != nil {
		return err
	}

	run, err := pipeline.New(loader, memo.New(), logger).Run(ctx)
	if err != nil {
		return err
	}
	if err := render.Notices(os.Stderr, run.Notices); err != nil {
		return err
	}

	switch {
	case raw:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		readings := run.Table.Readings
		if readings == nil {
			readings = []types.SensorReading{}
		}
		return enc.Encode(readings)
	case list:
		dates, times := run.Options()
		return render.Options(os.Stdout, dates, times)
	}

	sel, _ := run.DefaultSelection()
	if date != "" {
		if sel.Date, err = types.ParseDate(date); err != nil {
			return err
		}
	}
	if tod != "" {
		if sel.Time, err = types.ParseTimeOfDay(tod); err != nil {
			return err
		}
	}

	return render.Table(os.Stdout, run.Select(sel), run.SelectionSummary(sel))
}

func loadConfig(cfgFile, cfgBackend string, explicit bool) (*config.ConfigData, error) {
	filename, _ := filepath.Abs(cfgFile)

	if !explicit {
		if _, err := os.Stat(filename); errors.Is(err, fs.ErrNotExist) {
			log.Debugf("no config file at %s; using defaults", filename)
			return &config.ConfigData{}, nil
		}
	}

	var provider config.ConfigProvider
	var err error

	switch cfgBackend {
	case "yaml":
		provider = config.NewYAMLProvider(filename)
	case "sqlite":
		provider, err = config.NewSQLiteProvider(filename)
		if err != nil {
			return nil, fmt.Errorf("error creating SQLite provider: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported configuration backend: %s. Use 'yaml' or 'sqlite'", cfgBackend)
	}
	defer provider.Close()

	cfgData, err := provider.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error reading config file. Did you pass the -config flag? Run with -h for help: %w", err)
	}

	return cfgData, nil
}

func isFlagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
