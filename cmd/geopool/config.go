package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/nishad/geopool/internal/config"
	"github.com/nishad/geopool/internal/paths"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage geopool configuration",
	Long:  `Manage geopool configuration: upstream URLs, HTTP behaviour and run defaults.`,
}

var configPathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Show all active paths",
	Long: `Display the paths used by geopool and any environment variable
overrides.`,
	RunE: runConfigPaths,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration, environment overrides included.`,
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize default configuration",
	Long: `Create a default configuration file in the user config directory.

If a config file already exists, use --force to overwrite it.`,
	Example: `  # Create default config
  geopool config init

  # Force overwrite existing config
  geopool config init --force`,
	RunE: runConfigInit,
}

var (
	configForce bool
)

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite existing configuration")

	configCmd.AddCommand(configPathsCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}

func activeConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.GetConfigPath()
}

func runConfigPaths(cmd *cobra.Command, args []string) error {
	p := paths.GetPaths()

	printInfo("geopool Paths")
	fmt.Println(colorize(colorGray, "────────────────────────────────────────"))

	fmt.Printf("%s\n", colorize(colorBold, "Base Directories:"))
	fmt.Printf("  Config:   %s\n", colorize(colorCyan, p.ConfigDir))
	fmt.Printf("  Data:     %s\n", colorize(colorCyan, p.DataDir))

	fmt.Println()
	fmt.Printf("%s\n", colorize(colorBold, "Specific Paths:"))
	fmt.Printf("  Config file: %s\n", colorize(colorCyan, activeConfigPath()))
	fmt.Printf("  Export:      %s\n", colorize(colorCyan, paths.GetExportPath()))

	envVars := []struct {
		name string
		desc string
	}{
		{"GEOPOOL_CONFIG", "Override config file"},
		{"GEOPOOL_CONFIG_HOME", "Override config directory"},
		{"GEOPOOL_DATA_HOME", "Override data directory"},
		{"GEOPOOL_EXPORT_PATH", "Override SQLite export path"},
		{config.EnvENABrowserURL, "Override ENA browser API URL"},
		{config.EnvEBISearchURL, "Override EBI search API URL"},
		{config.EnvEutilsURL, "Override eutils API URL"},
		{config.EnvRNASeqerURL, "Override RNASeq-er API URL"},
	}

	hasEnv := false
	for _, env := range envVars {
		if os.Getenv(env.name) != "" {
			hasEnv = true
			break
		}
	}

	if hasEnv {
		fmt.Println()
		fmt.Printf("%s\n", colorize(colorBold, "Environment Variables:"))
		for _, env := range envVars {
			if val := os.Getenv(env.name); val != "" {
				fmt.Printf("  %s = %s\n",
					colorize(colorYellow, env.name),
					colorize(colorCyan, val))
				if verbose {
					fmt.Printf("    %s\n", colorize(colorGray, env.desc))
				}
			}
		}
	}

	fmt.Println()
	fmt.Printf("%s\n", colorize(colorBold, "Path Status:"))

	pathChecks := []struct {
		name string
		path string
	}{
		{"Config Dir", p.ConfigDir},
		{"Data Dir", p.DataDir},
		{"Config File", activeConfigPath()},
	}

	for _, check := range pathChecks {
		if _, err := os.Stat(check.path); err == nil {
			fmt.Printf("  %-12s %s\n", check.name+":", colorize(colorGreen, "✓ exists"))
		} else {
			fmt.Printf("  %-12s %s\n", check.name+":", colorize(colorGray, "✗ not found"))
		}
	}

	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	path := activeConfigPath()

	printInfo("Configuration")
	fmt.Println(colorize(colorGray, "────────────────────────────────────────"))

	fmt.Printf("%s %s\n", colorize(colorBold, "Config File:"), path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Println(colorize(colorYellow, "  (using defaults - no config file found)"))
	}

	fmt.Println()

	// Marshal config to YAML for display
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to format config: %w", err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		if line == "" {
			continue
		}

		if strings.HasSuffix(line, ":") && !strings.Contains(line, " ") {
			fmt.Println(colorize(colorBold, line))
		} else if strings.Contains(line, ": ") {
			parts := strings.SplitN(line, ": ", 2)
			indent := len(line) - len(strings.TrimLeft(line, " "))
			fmt.Printf("%s%s: %s\n",
				strings.Repeat(" ", indent),
				colorize(colorCyan, strings.TrimSpace(parts[0])),
				colorize(colorGreen, parts[1]))
		} else {
			fmt.Println(line)
		}
	}

	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := paths.GetConfigFilePath()

	if _, err := os.Stat(path); err == nil && !configForce {
		printWarning("Configuration already exists at %s", path)
		fmt.Println("Use --force to overwrite")
		return nil
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	printSuccess("Configuration created at %s", path)
	return nil
}
