package main

import (
	"fmt"
	"os"

	"option-sim/internal/cli"
	"option-sim/internal/config"
	"option-sim/internal/logging"
)

func main() {
	configDir := os.Getenv("OPTION_SIM_CONFIG_DIR")
	cfg, err := config.Load(configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "option-sim: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg.Logging)

	rootCmd := cli.NewRootCmd(cfg, logger)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "option-sim: %v\n", err)
		os.Exit(1)
	}
}
