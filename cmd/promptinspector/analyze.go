package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/guiperry/promptinspector"
	"github.com/guiperry/promptinspector/analyzer"
	"github.com/guiperry/promptinspector/refine"
	"github.com/guiperry/promptinspector/report"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [prompt]",
	Short: "Analyze a prompt and print suggestions and an improved version",
	Long: `Analyze a prompt given as an argument, read from a file with --file, or
read from standard input when the argument is "-" or missing.

Examples:
  promptinspector analyze "write something"
  promptinspector analyze --model gpt-4o --detailed --file prompt.txt
  cat prompt.txt | promptinspector analyze --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	flags := analyzeCmd.Flags()
	flags.StringP("model", "m", refine.DefaultTarget, "model the prompt is written for (gpt-4o, claude, openrouter:<model>, ...)")
	flags.BoolP("detailed", "d", false, "also ask an LLM provider for a critique")
	flags.String("api-key", "", "API key for the provider (defaults to <PROVIDER>_API_KEY)")
	flags.StringP("file", "f", "", "read the prompt from this file")
	flags.Bool("json", false, "print the result as JSON")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	text, err := promptText(cmd, args)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	model, _ := flags.GetString("model")
	detailed, _ := flags.GetBool("detailed")
	apiKey, _ := flags.GetString("api-key")

	in, err := newInspector()
	if err != nil {
		return err
	}
	resp, err := in.Analyze(cmd.Context(), promptinspector.Request{
		Text:        text,
		TargetModel: model,
		Detailed:    detailed,
		APIKey:      apiKey,
	})
	if err != nil {
		return err
	}

	if asJSON, _ := flags.GetBool("json"); asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	th := analyzer.Thresholds{Strong: cfg.Analysis.StrongThreshold, Weak: cfg.Analysis.WeakThreshold}
	fmt.Fprint(cmd.OutOrStdout(), report.Render(resp, th, nil))
	return nil
}

func promptText(cmd *cobra.Command, args []string) (string, error) {
	path, _ := cmd.Flags().GetString("file")
	switch {
	case path != "" && len(args) > 0:
		return "", errors.New("give the prompt as an argument or with --file, not both")
	case path != "":
		b, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading prompt: %w", err)
		}
		return string(b), nil
	case len(args) == 1 && args[0] != "-":
		return args[0], nil
	}
	b, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("reading prompt from stdin: %w", err)
	}
	return strings.TrimRight(string(b), "\n"), nil
}
