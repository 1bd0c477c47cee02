package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path"

	"github.com/iti/evt/evtm"
	"github.com/iti/tgenmm"
)

func main() {
	cfgFile := flag.String("config", "", "experiment configuration file (.yaml, .yml or .json)")
	modelFile := flag.String("model", "", "model file, overrides the configuration")
	sessions := flag.Int("sessions", 0, "number of traffic sessions, overrides the configuration")
	envFile := flag.String("env", ".env", "file of TGENMM_* environment settings")
	flag.Parse()

	cfg := tgenmm.DefaultConfig()
	if len(*cfgFile) > 0 {
		ext := path.Ext(*cfgFile)
		var err error
		cfg, err = tgenmm.ReadConfig(*cfgFile, ext == ".yaml" || ext == ".yml", nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "reading configuration %s: %v\n", *cfgFile, err)
			os.Exit(1)
		}
	}
	if err := cfg.ApplyEnv(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "applying environment: %v\n", err)
		os.Exit(1)
	}
	if len(*modelFile) > 0 {
		cfg.ModelPath = *modelFile
	}
	if *sessions > 0 {
		cfg.Sessions = *sessions
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: tgenmm.ParseLogLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	evtMgr := evtm.New()
	exp, err := tgenmm.BuildExperiment(evtMgr, cfg, logger, nil)
	if err != nil {
		logger.Error("failed to build experiment", "error", err)
		os.Exit(1)
	}

	exp.Run(evtMgr)

	if err := exp.Close(); err != nil {
		logger.Error("failed to write experiment output", "error", err)
		os.Exit(1)
	}

	fmt.Printf("%s: %d of %d sessions finished\n", cfg.Name, exp.Finished(), len(exp.Sessions))
	for _, line := range exp.SummaryLines() {
		fmt.Println("  " + line)
	}
}
