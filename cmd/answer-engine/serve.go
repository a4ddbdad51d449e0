package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/answer-engine/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the streaming HTTP surface",
	Long: `Serve exposes the pipeline over HTTP: POST /ask for blocking JSON
answers, /stream for server-sent-events delivery of status, thinking, and
answer deltas, and GET /healthz for probes.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :8080)")
	serveCmd.Flags().String("env", "", "logger profile: prod, dev, or local (default dev)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := loadConfig()
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}
	if env, _ := cmd.Flags().GetString("env"); env != "" {
		cfg.Server.Env = env
	}

	logger, err := server.NewLogger(cfg.Server.Env)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting answer-engine",
		zap.String("version", version),
		zap.String("addr", cfg.Server.Addr),
		zap.Strings("models", cfg.LLM.Models),
	)

	p := buildPipeline(cfg, os.Stderr)
	srv := server.New(p, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.ListenAndServe(ctx, cfg.Server.Addr); err != nil {
		return err
	}
	logger.Info("server stopped gracefully")
	return nil
}
