package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/llm4edu/freetext/internal/feedback"
	"github.com/llm4edu/freetext/internal/handler"
	appI18n "github.com/llm4edu/freetext/internal/i18n"
	"github.com/llm4edu/freetext/internal/llm"
	"github.com/llm4edu/freetext/internal/model"
	"github.com/llm4edu/freetext/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "freetext",
		Short: "LLM-assisted feedback for short-answer assignments",
	}

	serve := serveCmd()
	root.AddCommand(serve, exportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `freetext --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP feedback server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":9900", "HTTP listen address")
	f.String("store", "sqlite", "Storage backend (sqlite, memory)")
	f.String("db", "freetext.db", "SQLite database path")
	f.StringSlice("assignments", nil, "Paths to assignment seed JSON files (repeatable)")
	f.String("llm-url", "https://api.openai.com/v1", "OpenAI-compatible API base URL")
	f.String("llm-key", "", "API key for LLM")
	f.String("llm-model", "gpt-4o-mini", "LLM model name")
	f.Duration("llm-timeout", 60*time.Second, "Timeout per generation call")
	f.String("creation-secret", "", "Shared secret for assignment authoring endpoints (or set FREETEXT_CREATION_SECRET)")
	f.Bool("store-responses", false, "Persist submissions and their feedback for audit")
	f.Bool("digit-finder", false, "Enable the local standalone-digit style check")
	f.StringP("lang", "l", "en", "Language for client-facing messages (en, ru)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored responses as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "freetext.db", "SQLite database path")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("FREETEXT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("freetext")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/freetext")
	v.AddConfigPath("/etc/freetext")
	v.AddConfigPath("/data")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func openStore(v *viper.Viper) (store.Store, error) {
	switch strings.ToLower(v.GetString("store")) {
	case "memory":
		return store.NewMemory(), nil
	case "sqlite", "":
		return store.NewSQLite(v.GetString("db"))
	default:
		return nil, fmt.Errorf("unknown store backend %q (use sqlite or memory)", v.GetString("store"))
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	secret := v.GetString("creation-secret")
	if secret == "" {
		return fmt.Errorf("creation secret is required: set --creation-secret flag or FREETEXT_CREATION_SECRET env var")
	}

	db, err := openStore(v)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	// Seed assignments from all specified files.
	if err := loadAssignments(db, v.GetStringSlice("assignments")); err != nil {
		return fmt.Errorf("load assignments: %w", err)
	}

	// Initialize i18n.
	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	// Create LLM client.
	llmClient := llm.New(
		v.GetString("llm-url"),
		v.GetString("llm-key"),
		v.GetString("llm-model"),
		v.GetDuration("llm-timeout"),
	)
	if err := llmClient.Ping(context.Background()); err != nil {
		return fmt.Errorf("LLM health check: %w", err)
	}
	slog.Info("LLM endpoint OK", "url", v.GetString("llm-url"), "model", v.GetString("llm-model"))

	cfg := model.ServerConfig{
		CreationSecret: secret,
		StoreResponses: v.GetBool("store-responses"),
		DigitFinder:    v.GetBool("digit-finder"),
	}

	router := feedback.NewRouter(db, cfg.StoreResponses, llmClient)
	if cfg.DigitFinder {
		router.AddProvider(feedback.DigitFinder{})
	}

	h := handler.New(db, router, llmClient, cfg)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", handler.SecretHeader},
	}))
	r.Use(appI18n.Middleware(lang))
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"store", v.GetString("store"),
		"model", v.GetString("llm-model"),
		"llm_url", v.GetString("llm-url"),
		"llm_timeout", v.GetDuration("llm-timeout"),
		"lang", lang,
		"store_responses", cfg.StoreResponses,
		"digit_finder", cfg.DigitFinder,
	)
	return http.ListenAndServe(addr, r)
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.NewSQLite(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	responses, err := db.ListResponses()
	if err != nil {
		return fmt.Errorf("list responses: %w", err)
	}

	export := model.ResponseExport{
		Store:     v.GetString("db"),
		Count:     len(responses),
		Responses: responses,
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)

	return nil
}

func loadAssignments(db store.Store, paths []string) error {
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		hash := sha256sum(data)
		storedHash, err := db.GetImportedFileHash(path)
		if err != nil {
			return fmt.Errorf("check import status for %s: %w", path, err)
		}

		if storedHash == hash {
			slog.Info("assignments file unchanged, skipping", "path", path)
			continue
		}
		if storedHash != "" {
			slog.Warn("assignments file changed since last import, skipping to keep existing assignment IDs stable",
				"path", path)
			continue
		}

		var assignments []model.AssignmentImport
		if err := json.Unmarshal(data, &assignments); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}

		for _, ai := range assignments {
			_, err := db.CreateAssignment(model.Assignment{
				StudentPrompt:        ai.StudentPrompt,
				FeedbackRequirements: ai.FeedbackRequirements,
				FeedbackInstructions: ai.FeedbackInstructions,
				FallbackResponse:     ai.FallbackResponse,
			})
			if err != nil {
				return fmt.Errorf("create assignment from %s: %w", path, err)
			}
		}

		if err := db.SetImportedFileHash(path, hash); err != nil {
			return fmt.Errorf("record import for %s: %w", path, err)
		}
		slog.Info("imported assignments", "path", path, "count", len(assignments))
	}

	return nil
}

func sha256sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
