package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"chronosec/config"
	"chronosec/internal/logger"
)

// annotationQuiet marks commands that print data on stdout. Logging stays off
// for them unless --debug is set.
const annotationQuiet = "quiet"

var (
	configPath string
	debug      bool

	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "chronosec",
		Short: "Compliance-aligned incident response timelines",
		Long: `chronosec builds incident response timelines that follow the notification and
reporting deadlines of a regulatory framework (GDPR, HIPAA, NERC CIP, PCI DSS, ...).

Examples:
  chronosec generate --incident ransomware --framework gdpr
  chronosec generate --incident data_breach --framework hipaa --start 2024-01-01T09:00:00Z --output markdown
  chronosec rules --framework nerc_cip
  chronosec serve --config chronosec.yml
  chronosec intake`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		PersistentPostRun: func(*cobra.Command, []string) { logger.Close() },
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Path to config file (default chronosec.yml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"Enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func findConfigFile(configArg string) string {
	if configArg != "" {
		if _, err := os.Stat(configArg); err == nil {
			return configArg
		}
		log.Printf("Warning: config file not found at %s, trying default locations", configArg)
	}

	for _, name := range []string{"chronosec.yml", "chronosec.yaml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}

	if exePath, err := os.Executable(); err == nil {
		path := filepath.Join(filepath.Dir(exePath), "chronosec.yml")
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return "chronosec.yml"
}

func setup(cmd *cobra.Command, _ []string) error {
	_ = godotenv.Load()

	c, err := config.LoadConfig(findConfigFile(configPath))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	lc := c.Chronosec.Logging
	opts := logger.Options{
		Enabled: lc.Enabled,
		Level:   lc.Level,
		File:    lc.File,
		Console: lc.Console,
		Format:  lc.Format,
	}
	if _, quiet := cmd.Annotations[annotationQuiet]; quiet && lc.File == "" {
		opts.Enabled = false
	}
	if debug {
		opts.Enabled = true
		opts.Level = "debug"
	}
	if err := logger.Setup(opts); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	cfg = c
	return nil
}
