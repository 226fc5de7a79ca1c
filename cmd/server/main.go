package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/altura-labs/recommendation/internal/config"
	"github.com/altura-labs/recommendation/internal/models"
	"github.com/altura-labs/recommendation/internal/opensearch"
	"github.com/altura-labs/recommendation/internal/server"
	"github.com/altura-labs/recommendation/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "recommendation",
		Short:         "Neural search recommendations backed by a managed OpenSearch domain",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(newServeCmd(), newSearchCmd(), newUpsertCmd())
	return root
}

// bootstrap loads .env, config and logger, then wires the app.
func bootstrap(ctx context.Context) (*server.App, *logrus.Logger, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := utils.NewLogger(cfg.Log.Level)

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		return nil, logger, err
	}
	return app, logger, nil
}

func newServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app, logger, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			gin.SetMode(app.Config.Server.Mode)
			if port == "" {
				port = app.Config.Server.Port
			}

			logger.WithFields(logrus.Fields{
				"port":           port,
				"upsert_enabled": app.Config.Search.UpsertEnabled,
				"cache_enabled":  app.Config.Cache.Enabled,
			}).Info("Starting recommendation server")

			return server.Serve(ctx, ":"+port, app.Router, logger)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "port to listen on (overrides SERVER_PORT)")
	return cmd
}

func newSearchCmd() *cobra.Command {
	var req models.SearchRequest
	var topK int

	cmd := &cobra.Command{
		Use:   "search [text]",
		Short: "Run one neural search and print the result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, _, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			req.Text = args[0]
			if cmd.Flags().Changed("top-k") {
				req.TopK = &topK
			}

			resp, err := app.Recommendations.Recommend(cmd.Context(), req, uuid.NewString())
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}

	cmd.Flags().StringVar(&req.ModelID, "model-id", "", "embedding model id deployed in the domain")
	cmd.Flags().StringVar(&req.IndexName, "index", "", "index to search (defaults to SEARCH_DEFAULT_INDEX)")
	cmd.Flags().IntVar(&topK, "top-k", 5, "number of documents to return")
	_ = cmd.MarkFlagRequired("model-id")
	return cmd
}

func newUpsertCmd() *cobra.Command {
	var index, id, metadataJSON string

	cmd := &cobra.Command{
		Use:   "upsert [text]",
		Short: "Index one document through the ingest pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, _, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			metadata := map[string]interface{}{}
			if metadataJSON != "" {
				if err := json.Unmarshal([]byte(metadataJSON), &metadata); err != nil {
					return fmt.Errorf("invalid --metadata: %w", err)
				}
			}
			if index == "" {
				index = app.Config.Search.DefaultIndex
			}

			requestID := uuid.NewString()
			result, err := app.Search.UpsertDocument(cmd.Context(), index, id, opensearch.Document{
				Text:      args[0],
				Metadata:  metadata,
				Timestamp: &requestID,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, models.UpsertResult{ID: result.ID, Result: result.Result, Version: result.Version})
		},
	}

	cmd.Flags().StringVar(&index, "index", "", "target index (defaults to SEARCH_DEFAULT_INDEX)")
	cmd.Flags().StringVar(&id, "id", "", "document id; empty lets the domain assign one")
	cmd.Flags().StringVar(&metadataJSON, "metadata", "", "document metadata as a JSON object")
	return cmd
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
