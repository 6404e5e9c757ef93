package main

import (
	"github.com/spf13/cobra"
)

const app = "discovery-service"

var (
	// Used for flags.
	cfgFile  string
	memory   bool
	debugLog bool
	jsonLog  bool

	rootCmd = &cobra.Command{
		Use:          app,
		Short:        "discovery-service finds, deduplicates and scores executive job postings",
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a YAML config file (environment variables take precedence)")
	rootCmd.PersistentFlags().BoolVar(&memory, "memory", false, "keep everything in memory instead of PostgreSQL")
	rootCmd.PersistentFlags().BoolVarP(&debugLog, "debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolVarP(&jsonLog, "json", "j", false, "json format for logging")
}
