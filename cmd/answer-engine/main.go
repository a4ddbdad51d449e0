// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the answer-engine CLI.
package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/answer-engine/internal/evidence"
	"github.com/pdiddy/answer-engine/internal/expand"
	"github.com/pdiddy/answer-engine/internal/fetch"
	"github.com/pdiddy/answer-engine/internal/generate"
	"github.com/pdiddy/answer-engine/internal/llm"
	"github.com/pdiddy/answer-engine/internal/pipeline"
	"github.com/pdiddy/answer-engine/internal/search"
	"github.com/pdiddy/answer-engine/internal/secrets"
	"github.com/pdiddy/answer-engine/internal/synthesis"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the answer-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "answer-engine",
	Short: "Citation-grounded question answering over live web sources",
	Long: `answer-engine answers questions by acquiring real source content and
synthesizing citation-grounded answers from it. A question carrying a document
URL is answered from that document; a question asking for a web search runs
query expansion, search, and multi-source acquisition; anything else is
answered directly by the model.

Use "ask" for one-shot runs and "serve" for the streaming HTTP surface.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./answer-engine.yaml or ~/.config/answer-engine/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("answer-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "answer-engine"))
		}
	}

	viper.SetEnvPrefix("ANSWER_ENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig builds the pipeline configuration: defaults, then config
// file and environment overrides, then secrets for any credential still
// unset.
func loadConfig() types.PipelineConfig {
	cfg := types.DefaultPipelineConfig()

	if v := viper.GetString("search.api_key"); v != "" {
		cfg.Search.APIKey = v
	}
	if v := viper.GetInt("search.max_per_query"); v > 0 {
		cfg.Search.MaxPerQuery = v
	}
	if v := viper.GetString("fetch.renderer_url"); v != "" {
		cfg.Fetch.RendererURL = v
	}
	if v := viper.GetString("fetch.extract_api_key"); v != "" {
		cfg.Fetch.ExtractAPIKey = v
	}
	if v := viper.GetString("llm.api_key"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := viper.GetStringSlice("llm.models"); len(v) > 0 {
		cfg.LLM.Models = v
	}
	if v := viper.GetDuration("llm.attempt_timeout"); v > 0 {
		cfg.LLM.AttemptTimeout = v
	}
	if v := viper.GetString("server.addr"); v != "" {
		cfg.Server.Addr = v
	}
	if v := viper.GetString("server.env"); v != "" {
		cfg.Server.Env = v
	}
	if viper.IsSet("max_sources") {
		cfg.MaxSources = viper.GetInt("max_sources")
	}
	if viper.IsSet("filter_evidence") {
		cfg.FilterEvidence = viper.GetBool("filter_evidence")
	}

	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = loadedSecrets["gemini-api-key"]
	}
	if cfg.Search.APIKey == "" {
		cfg.Search.APIKey = loadedSecrets["serper-api-key"]
	}
	if cfg.Fetch.ExtractAPIKey == "" {
		cfg.Fetch.ExtractAPIKey = loadedSecrets["scrapingbee-api-key"]
	}
	if cfg.Fetch.RendererURL == "" {
		cfg.Fetch.RendererURL = loadedSecrets["browserless-url"]
	}

	return cfg
}

// buildPipeline is the composition root: every client and stage is
// constructed here and injected, with stage progress going to out.
func buildPipeline(cfg types.PipelineConfig, out io.Writer) *pipeline.Pipeline {
	client := llm.NewClient(cfg.LLM.APIKey, cfg.LLM.AttemptTimeout)
	firstModel := cfg.LLM.Models[0]

	fetchHTTP := &http.Client{Timeout: cfg.Fetch.Timeout}
	pdf := &fetch.PDFFetcher{
		Backend: client,
		Model:   firstModel,
		HTTP:    fetchHTTP,
		Config:  cfg.Fetch,
		Log:     out,
	}
	web := &fetch.WebFetcher{
		HTTP:      fetchHTTP,
		Renderer:  fetch.NewRendererClient(cfg.Fetch.RendererURL, cfg.Fetch.Timeout),
		Extractor: fetch.NewExtractAPIClient(cfg.Fetch.ExtractAPIKey, cfg.Fetch.Timeout),
		Config:    cfg.Fetch,
		Log:       out,
	}

	executor := &generate.Executor{
		Backend:        client,
		Models:         cfg.LLM.Models,
		AttemptTimeout: cfg.LLM.AttemptTimeout,
		Reacquire:      pdf.InlineRequest,
		Log:            out,
	}

	var filter pipeline.Filterer
	if cfg.FilterEvidence {
		filter = &evidence.Filter{
			Backend:   client,
			Model:     firstModel,
			MinUsable: cfg.Fetch.MinUsableChars,
			Log:       out,
		}
	}

	return &pipeline.Pipeline{
		Expander: &expand.Expander{Backend: client, Model: firstModel, Log: out},
		Searcher: &search.Orchestrator{
			Primary:     search.NewSerperProvider(cfg.Search.APIKey, cfg.Search.Timeout),
			Fallback:    &search.LLMProvider{Backend: client, Model: firstModel},
			MaxPerQuery: cfg.Search.MaxPerQuery,
			Log:         out,
		},
		PDF:       pdf,
		Web:       web,
		Filter:    filter,
		Generator: executor,
		Synth: &synthesis.Synthesizer{
			Generator: executor,
			GenConfig: &llm.GenerationConfig{
				Temperature:     cfg.LLM.Temperature,
				MaxOutputTokens: cfg.LLM.MaxOutputTokens,
			},
			Log: out,
		},
		MaxSources: cfg.MaxSources,
		Log:        out,
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
