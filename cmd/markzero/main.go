package main

import (
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
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/markzero/markzero/internal/handler"
	appI18n "github.com/markzero/markzero/internal/i18n"
	"github.com/markzero/markzero/internal/knowledge"
	"github.com/markzero/markzero/internal/llm"
	"github.com/markzero/markzero/internal/plagiarism"
	"github.com/markzero/markzero/internal/service"
	"github.com/markzero/markzero/internal/store"
)

func main() {
	// Credentials usually live in a .env file next to the binary; missing
	// is fine, the affected backends just stay dark.
	_ = godotenv.Load()

	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "markzero",
		Short: "AI-assisted assessment platform",
	}

	serve := serveCmd()
	root.AddCommand(serve, exportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `markzero --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the assessment HTTP server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("data", "markzero.json", "Path to the JSON data file")
	f.StringP("lang", "l", "en", "Default response language (en, es)")
	f.String("groq-key", "", "Groq API key (or GROQ_API_KEY)")
	f.String("groq-url", llm.GroqBaseURL, "Groq API base URL")
	f.String("groq-model", llm.DefaultGroqModel, "Groq model name")
	f.String("deepseek-key", "", "DeepSeek API key (or DEEPSEEK_API_KEY)")
	f.String("deepseek-url", llm.DeepSeekBaseURL, "DeepSeek API base URL")
	f.String("deepseek-model", llm.DefaultDeepSeekModel, "DeepSeek model name")
	f.String("mistral-key", "", "Mistral API key (or MISTRAL_API_KEY)")
	f.String("mistral-url", llm.MistralBaseURL, "Mistral API base URL")
	f.String("mistral-model", llm.DefaultMistralModel, "Mistral model name")
	f.Duration("llm-timeout", llm.DefaultTimeout, "Per-backend call timeout")
	f.String("plagiarism-url", "", "Plagiarism service endpoint URL")
	f.String("plagiarism-key", "", "Plagiarism service API key (or PLAGIARISM_API_KEY)")
	f.Bool("plagiarism-penalty", true, "Reduce final scores by the plagiarism percentage")
	f.Int("grade-workers", service.DefaultWorkers, "Concurrent grading workers per submission")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export an assessment and its graded responses as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("data", "markzero.json", "Path to the JSON data file")
	f.String("assessment", "", "Assessment ID to export (required)")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")

	_ = cmd.MarkFlagRequired("assessment")

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

// viperForCmd binds a command's flags and environment to a fresh viper
// instance. Provider-conventional credential variables are honored next
// to the MARKZERO_-prefixed ones.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("MARKZERO")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("groq-key", "MARKZERO_GROQ_KEY", "GROQ_API_KEY")
	_ = v.BindEnv("deepseek-key", "MARKZERO_DEEPSEEK_KEY", "DEEPSEEK_API_KEY")
	_ = v.BindEnv("mistral-key", "MARKZERO_MISTRAL_KEY", "MISTRAL_API_KEY")
	_ = v.BindEnv("plagiarism-key", "MARKZERO_PLAGIARISM_KEY", "PLAGIARISM_API_KEY")

	v.SetConfigName("markzero")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/markzero")
	v.AddConfigPath("/etc/markzero")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// buildChain assembles the fallback chain in priority order: the large
// instruction model first, then the two smaller conversational models.
func buildChain(v *viper.Viper) []llm.Backend {
	return []llm.Backend{
		llm.NewChatBackend(llm.BackendConfig{
			Name:    "groq",
			BaseURL: v.GetString("groq-url"),
			APIKey:  v.GetString("groq-key"),
			Model:   v.GetString("groq-model"),
		}),
		llm.NewChatBackend(llm.BackendConfig{
			Name:    "deepseek",
			BaseURL: v.GetString("deepseek-url"),
			APIKey:  v.GetString("deepseek-key"),
			Model:   v.GetString("deepseek-model"),
		}),
		llm.NewChatBackend(llm.BackendConfig{
			Name:    "mistral",
			BaseURL: v.GetString("mistral-url"),
			APIKey:  v.GetString("mistral-key"),
			Model:   v.GetString("mistral-model"),
		}),
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("data"))
	if err != nil {
		return fmt.Errorf("open data file: %w", err)
	}
	defer db.Close()

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	kb := knowledge.New()
	llmSvc := llm.NewService(buildChain(v), kb, v.GetDuration("llm-timeout"))

	checker := plagiarism.NewClient(plagiarism.ClientConfig{
		URL:    v.GetString("plagiarism-url"),
		APIKey: v.GetString("plagiarism-key"),
	})

	grader := service.New(llmSvc, checker, v.GetInt("grade-workers"), v.GetBool("plagiarism-penalty"))

	h := handler.New(db, llmSvc, grader, kb)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"data", v.GetString("data"),
		"lang", lang,
		"llm_timeout", v.GetDuration("llm-timeout").String(),
		"plagiarism_penalty", v.GetBool("plagiarism-penalty"),
		"grade_workers", v.GetInt("grade-workers"),
		"groq_configured", v.GetString("groq-key") != "",
		"deepseek_configured", v.GetString("deepseek-key") != "",
		"mistral_configured", v.GetString("mistral-key") != "",
		"plagiarism_configured", v.GetString("plagiarism-key") != "",
	)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("data"))
	if err != nil {
		return fmt.Errorf("open data file: %w", err)
	}
	defer db.Close()

	export, err := db.ExportAssessment(v.GetString("assessment"))
	if err != nil {
		return fmt.Errorf("export assessment: %w", err)
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

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)

	return nil
}
