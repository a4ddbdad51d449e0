package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/answer-engine/pkg/types"
)

var askCmd = &cobra.Command{
	Use:   "ask [question...]",
	Short: "Answer a question with cited sources",
	Long: `Ask runs the full pipeline once: classify the question, acquire source
content (from an embedded document URL or via web search when requested),
and synthesize a citation-grounded answer.

A refusal for lack of reliable sources is a normal answer, not a failure.`,
	RunE: runAsk,
}

func init() {
	askCmd.Flags().Int("sources", 0, "number of sources to ground the answer in (default 5)")
	askCmd.Flags().String("format", "text", "output format: text or json")
	askCmd.Flags().String("output", "", "write a YAML transcript of the run to this file")
	askCmd.Flags().Bool("no-filter", false, "skip the factual-content filter pass")

	rootCmd.AddCommand(askCmd)
}

// transcript is the YAML record written by --output.
type transcript struct {
	Question string          `yaml:"question"`
	Result   types.RunResult `yaml:"result"`
}

func runAsk(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide a question")
	}
	question := strings.Join(args, " ")

	format, _ := cmd.Flags().GetString("format")
	if format != "text" && format != "json" {
		return fmt.Errorf("unknown format %q (want text or json)", format)
	}

	cfg := loadConfig()
	if sources, _ := cmd.Flags().GetInt("sources"); sources > 0 {
		cfg.MaxSources = sources
	}
	if noFilter, _ := cmd.Flags().GetBool("no-filter"); noFilter {
		cfg.FilterEvidence = false
	}

	p := buildPipeline(cfg, os.Stderr)
	result := p.Run(cmd.Context(), question)

	if path, _ := cmd.Flags().GetString("output"); path != "" {
		if err := writeTranscript(path, question, result); err != nil {
			return err
		}
	}

	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("encoding result: %w", err)
		}
	default:
		printText(result)
	}

	if !result.Success {
		return fmt.Errorf("run failed: %s", result.Error)
	}
	return nil
}

func printText(result types.RunResult) {
	if !result.Success {
		fmt.Printf("Error: %s\n", result.Error)
		return
	}

	fmt.Println(result.Answer)

	if len(result.Citations) > 0 {
		fmt.Println("\nSources:")
		for _, c := range result.Citations {
			line := fmt.Sprintf("  [%d] %s", c.Index, c.URL)
			if c.Title != "" {
				line = fmt.Sprintf("  [%d] %s - %s", c.Index, c.Title, c.URL)
			}
			fmt.Println(line)
		}
	}
	if result.Confidence != "" {
		fmt.Printf("\nConfidence: %s\n", result.Confidence)
	}
}

func writeTranscript(path, question string, result types.RunResult) error {
	data, err := yaml.Marshal(transcript{Question: question, Result: result})
	if err != nil {
		return fmt.Errorf("encoding transcript: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing transcript: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Transcript written to %s\n", path)
	return nil
}
