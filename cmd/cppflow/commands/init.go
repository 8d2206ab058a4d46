package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/cppflow/cppflow/internal/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file interactively",
	Long: `Guides you through setting up cppflow configuration step by step and
writes a config file at the global or project scope.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit()
	},
}

func runInit() error {
	defaults := config.DefaultConfig()

	extensions := strings.Join(defaults.Extensions, ", ")
	workers := strconv.Itoa(defaults.Workers)
	outputDir := defaults.OutputDir
	enableCache := false

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("File extensions to analyze").
				Description("Comma-separated, each starting with a dot").
				Placeholder(extensions).
				Value(&extensions),
			huh.NewInput().
				Title("Worker count").
				Description("Number of files analyzed concurrently").
				Placeholder(workers).
				Value(&workers),
			huh.NewInput().
				Title("Output directory").
				Description("Where IR and graph artifacts are written").
				Placeholder(outputDir).
				Value(&outputDir),
			huh.NewConfirm().
				Title("Enable the analysis cache?").
				Description("Caches per-file results keyed by content hash").
				Affirmative("Yes").
				Negative("No").
				Value(&enableCache),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	cacheDir := ""
	if enableCache {
		cacheDir = ".cppflow/cache"
		form = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Cache directory").
					Placeholder(cacheDir).
					Value(&cacheDir),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("interactive prompt failed: %w", err)
		}
	}

	var saveLocationChoice string
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Save Configuration").
				Description("Where to save the configuration file?").
				Options(
					huh.NewOption("Global (~/.cppflow/config.yaml)", "global"),
					huh.NewOption("Project (./.cppflow/config.yaml)", "project"),
				).
				Value(&saveLocationChoice),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	var configPath string
	if saveLocationChoice == "global" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("getting home directory: %w", err)
		}
		configPath = filepath.Join(home, ".cppflow", "config.yaml")
	} else {
		configPath = filepath.Join(".cppflow", "config.yaml")
	}

	if _, err := os.Stat(configPath); err == nil {
		var overwrite bool
		form = huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Config file exists").
					Description(fmt.Sprintf("Overwrite existing config at %s?", configPath)).
					Affirmative("Overwrite").
					Negative("Cancel").
					Value(&overwrite),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("interactive prompt failed: %w", err)
		}
		if !overwrite {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	cfg := config.DefaultConfig()
	cfg.Extensions = splitAndTrim(extensions)
	if n, err := strconv.Atoi(strings.TrimSpace(workers)); err == nil && n > 0 {
		cfg.Workers = n
	}
	if outputDir != "" {
		cfg.OutputDir = outputDir
	}
	cfg.CacheDir = cacheDir

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	fmt.Println("\n=== Configuration Preview ===")
	fmt.Printf("Config path: %s\n", configPath)
	fmt.Printf("Extensions: %s\n", strings.Join(cfg.Extensions, ", "))
	fmt.Printf("Workers: %d\n", cfg.Workers)
	fmt.Printf("Output: %s\n", cfg.OutputDir)
	if cfg.CacheDir != "" {
		fmt.Printf("Cache: %s\n", cfg.CacheDir)
	} else {
		fmt.Println("Cache: disabled")
	}
	fmt.Println("=============================")

	if err := cfg.Save(configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Printf("Configuration saved to: %s\n", configPath)
	return nil
}

func splitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func init() {
	RootCmd.AddCommand(initCmd)
}
