package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/canvaspilot/canvaspilot/canvas"
	"github.com/canvaspilot/canvaspilot/llm"
	"github.com/canvaspilot/canvaspilot/orchestrator"
	"github.com/canvaspilot/canvaspilot/server"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the assistant HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := globalCfg
			if err := cfg.Validate(); err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

			model, err := llm.New(llm.Config{
				Provider:    cfg.Model.Provider,
				Endpoint:    cfg.Model.Endpoint,
				Model:       cfg.Model.Name,
				APIKey:      cfg.Model.APIKey,
				Temperature: cfg.Model.Temperature,
				MaxTokens:   cfg.Model.MaxTokens,
				Debug:       cfg.Debug.LLM,
			})
			if err != nil {
				return err
			}

			canvasClient := canvas.NewClient(cfg.Canvas.BaseURL, cfg.Canvas.Token)
			runner := orchestrator.Runner{
				Model: model,
				Options: &llm.Options{
					Model:       cfg.Model.Name,
					Temperature: cfg.Model.Temperature,
					MaxTokens:   cfg.Model.MaxTokens,
				},
				MaxToolCalls:  cfg.Chat.MaxToolCalls,
				HistoryWindow: cfg.Chat.HistoryWindow,
				StreamSummary: cfg.Chat.StreamSummary,
				Logger:        logger,
				Debug:         cfg.Debug.Agent,
			}

			srv := server.New(runner, canvasClient, logger)
			srv.RequestTimeout = cfg.Server.RequestTimeout()
			srv.AllowedOrigins = cfg.Server.AllowedOrigins

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := srv.ServeContext(ctx, cfg.Server.Addr); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			logger.Info("shutdown complete")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides config)")
	return cmd
}
