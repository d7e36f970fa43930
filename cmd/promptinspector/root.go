package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/guiperry/promptinspector"
	"github.com/guiperry/promptinspector/config"
	"github.com/guiperry/promptinspector/utils"
)

var version = "dev"

var (
	cfg    *promptinspector.Config
	logger *utils.DefaultLogger
)

var rootCmd = &cobra.Command{
	Use:   "promptinspector",
	Short: "Score prompts for LLMs and suggest improvements",
	Long: `promptinspector rates a prompt on ten quality dimensions, such as clarity,
context and output specificity, rewrites it to fix the weakest ones and
explains every change.

Settings come from the environment (LLM_PROVIDER, OPENAI_API_KEY,
RATE_LIMIT_MAX_CONCURRENCY, ...) and an optional TOML file with
per-provider overrides.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "TOML file with per-provider settings (overrides PROMPTINSPECTOR_CONFIG)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: OFF, ERROR, WARN, INFO or DEBUG")
	rootCmd.PersistentFlags().Bool("log-json", false, "write logs as JSON")
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	c, err := promptinspector.LoadConfig()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if path, _ := flags.GetString("config"); path != "" {
		if err := config.LoadFile(c, path); err != nil {
			return err
		}
	}
	if level, _ := flags.GetString("log-level"); level != "" {
		lvl, err := utils.ParseLogLevel(level)
		if err != nil {
			return err
		}
		c.LogLevel = lvl
	}
	if asJSON, _ := flags.GetBool("log-json"); asJSON {
		c.LogJSON = true
	}
	if err := c.Validate(); err != nil {
		return err
	}

	logger = utils.NewLoggerTo(os.Stderr, c.LogLevel, c.LogJSON)
	c.Logger = logger
	cfg = c
	return nil
}

func newInspector(opts ...promptinspector.Option) (*promptinspector.Inspector, error) {
	in, err := promptinspector.New(cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating inspector: %w", err)
	}
	return in, nil
}
