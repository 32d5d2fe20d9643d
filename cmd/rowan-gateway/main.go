// ABOUTME: Entry point for the rowan-gateway API server
// ABOUTME: Serves memory-augmented chat turns backed by SQLite and Ollama

package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/rowanlabs/rowan/internal/auth"
	"github.com/rowanlabs/rowan/internal/chat"
	"github.com/rowanlabs/rowan/internal/config"
	"github.com/rowanlabs/rowan/internal/memory"
	"github.com/rowanlabs/rowan/internal/modelroute"
	"github.com/rowanlabs/rowan/internal/ollama"
	"github.com/rowanlabs/rowan/internal/server"
	"github.com/rowanlabs/rowan/internal/store"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
 _ __ _____      ____ _ _ __
| '__/ _ \ \ /\ / / _' | '_ \
| | | (_) \ V  V / (_| | | | |
|_|  \___/ \_/\_/ \__,_|_| |_|
`

// getConfigPath returns the path to the gateway config file.
// Priority: ROWAN_CONFIG env var > XDG_CONFIG_HOME/rowan/gateway.yaml > ~/.config/rowan/gateway.yaml
func getConfigPath() string {
	if envPath := os.Getenv("ROWAN_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "gateway.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "rowan", "gateway.yaml")
}

// getDataPath returns the path to the rowan data directory.
// Priority: XDG_DATA_HOME/rowan > ~/.local/share/rowan
func getDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "rowan")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: rowan-gateway <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve   Start the gateway server")
		fmt.Println("  init    Create a new config file interactively")
		fmt.Println("  health  Check gateway health")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "init":
		err = runInit()
	case "health":
		err = runHealth(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// ollamaEmbedder adapts the Ollama client to the memory.Embedder interface
// by pinning the embedding model name.
type ollamaEmbedder struct {
	client *ollama.Client
	model  string
}

func (e ollamaEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	return e.client.Embed(ctx, e.model, text)
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	// Print banner
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	green.Print("    ▶ ")
	fmt.Printf("Config:   %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:     %s\n", cfg.Server.HTTPAddr)
	green.Print("    ▶ ")
	fmt.Printf("Ollama:   %s\n", cfg.Ollama.URL)
	fmt.Println()

	logger.Info("starting rowan-gateway",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
		"ollama_url", cfg.Ollama.URL,
	)

	sqlStore, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer sqlStore.Close()

	routes := modelroute.Builtin()
	if cfg.Models.Path != "" {
		routes, err = modelroute.LoadFile(cfg.Models.Path)
		if err != nil {
			return fmt.Errorf("loading route table: %w", err)
		}
	}

	ollamaClient := ollama.NewClient(cfg.Ollama.URL, logger)

	// One-time availability probe for the embedding model. If it is missing
	// the embedding subsystem stays off for the process lifetime; chat still
	// works, just without long-term memory.
	embeddingsEnabled := probeEmbeddingModel(ctx, ollamaClient, cfg.Ollama.EmbeddingModel, logger)
	if !embeddingsEnabled {
		yellow.Printf("    ! embedding model %q unavailable, memory disabled\n\n", cfg.Ollama.EmbeddingModel)
	}

	enricher := memory.NewEnricher(
		ollamaEmbedder{client: ollamaClient, model: cfg.Ollama.EmbeddingModel},
		sqlStore,
		embeddingsEnabled,
		logger,
	)

	chatSvc := chat.New(sqlStore, routes, ollamaClient, memory.NewSearcher(sqlStore), enricher, cfg.Models.Default, logger)

	verifier := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))

	srv := server.New(server.Config{
		Store:    sqlStore,
		Chat:     chatSvc,
		Routes:   routes,
		Verifier: verifier,
		Models:   ollamaClient,
		TokenTTL: cfg.Auth.TokenTTL,
		Logger:   logger,
	})

	return srv.Run(ctx, cfg.Server.HTTPAddr)
}

// probeEmbeddingModel checks once whether the embedding model is installed
// on the backend. Any probe failure counts as unavailable.
func probeEmbeddingModel(ctx context.Context, client *ollama.Client, model string, logger *slog.Logger) bool {
	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	ok, err := client.HasModel(probeCtx, model)
	if err != nil {
		logger.Warn("embedding model probe failed", "model", model, "error", err)
		return false
	}
	if !ok {
		logger.Warn("embedding model not installed", "model", model)
		return false
	}

	logger.Info("embedding model available", "model", model)
	return true
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = &colorHandler{
			level: level,
		}
	}

	return slog.New(handler)
}

// colorHandler provides colorized log output with thread-safe writes.
type colorHandler struct {
	mu     sync.Mutex
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func (h *colorHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *colorHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf strings.Builder

	buf.WriteString(color.HiBlackString(r.Time.Format("15:04:05") + " "))

	switch r.Level {
	case slog.LevelDebug:
		buf.WriteString(color.MagentaString("DBG "))
	case slog.LevelInfo:
		buf.WriteString(color.CyanString("INF "))
	case slog.LevelWarn:
		buf.WriteString(color.YellowString("WRN "))
	case slog.LevelError:
		buf.WriteString(color.New(color.FgRed, color.Bold).Sprint("ERR "))
	default:
		buf.WriteString("??? ")
	}

	buf.WriteString(r.Message)

	// Handler-level attrs first (from WithAttrs), then record attrs
	for _, a := range h.attrs {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
	}

	r.Attrs(func(a slog.Attr) bool {
		buf.WriteString(color.HiBlackString(" " + a.Key + "="))
		buf.WriteString(a.Value.String())
		return true
	})

	buf.WriteString("\n")
	fmt.Print(buf.String())
	return nil
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	newAttrs := make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(newAttrs, h.attrs)
	newAttrs = append(newAttrs, attrs...)
	return &colorHandler{
		level:  h.level,
		attrs:  newAttrs,
		groups: h.groups,
	}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	newGroups := make([]string, len(h.groups), len(h.groups)+1)
	copy(newGroups, h.groups)
	newGroups = append(newGroups, name)
	return &colorHandler{
		level:  h.level,
		attrs:  h.attrs,
		groups: newGroups,
	}
}

func runHealth(ctx context.Context) error {
	configPath := getConfigPath()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	url := fmt.Sprintf("http://%s/health", cfg.Server.HTTPAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}

func runInit() error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("rowan-gateway configuration setup")
	fmt.Println("=================================")
	fmt.Println()

	defaultConfigPath := getConfigPath()
	defaultDataPath := getDataPath()
	defaultDbPath := filepath.Join(defaultDataPath, "rowan.db")

	outputFile := prompt(reader, "Config file path", defaultConfigPath)

	if _, err := os.Stat(outputFile); err == nil {
		overwrite := prompt(reader, "File exists. Overwrite?", "no")
		if strings.ToLower(overwrite) != "yes" && strings.ToLower(overwrite) != "y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	fmt.Println("\n--- Server Configuration ---")
	httpAddr := prompt(reader, "HTTP address", "localhost:3000")

	fmt.Println("\n--- Database Configuration ---")
	dbPath := prompt(reader, "SQLite database path", defaultDbPath)

	fmt.Println("\n--- Ollama Configuration ---")
	ollamaURL := prompt(reader, "Ollama URL", config.DefaultOllamaURL)
	embeddingModel := prompt(reader, "Embedding model", config.DefaultEmbeddingModel)

	fmt.Println("\n--- Model Routing ---")
	defaultModel := prompt(reader, "Default model", "llama3.2-latest")

	fmt.Println("\n--- Auth Configuration ---")
	jwtSecret := prompt(reader, "JWT secret (min 32 bytes, empty to generate)", "")
	if jwtSecret == "" {
		var err error
		jwtSecret, err = auth.GenerateSecret()
		if err != nil {
			return fmt.Errorf("generating JWT secret: %w", err)
		}
		fmt.Println("Generated a random JWT secret.")
	}

	fmt.Println("\n--- Logging Configuration ---")
	logLevel := prompt(reader, "Log level (debug/info/warn/error)", "info")
	logFormat := prompt(reader, "Log format (text/json)", "text")

	var cfg strings.Builder
	cfg.WriteString("# rowan-gateway configuration\n")
	cfg.WriteString("# Generated by rowan-gateway init\n\n")

	cfg.WriteString("server:\n")
	cfg.WriteString(fmt.Sprintf("  http_addr: \"%s\"\n", httpAddr))
	cfg.WriteString("\n")

	cfg.WriteString("database:\n")
	cfg.WriteString(fmt.Sprintf("  path: \"%s\"\n", dbPath))
	cfg.WriteString("\n")

	cfg.WriteString("auth:\n")
	cfg.WriteString(fmt.Sprintf("  jwt_secret: \"%s\"\n", jwtSecret))
	cfg.WriteString("  token_ttl: \"24h\"\n")
	cfg.WriteString("\n")

	cfg.WriteString("ollama:\n")
	cfg.WriteString(fmt.Sprintf("  url: \"%s\"\n", ollamaURL))
	cfg.WriteString(fmt.Sprintf("  embedding_model: \"%s\"\n", embeddingModel))
	cfg.WriteString("\n")

	cfg.WriteString("models:\n")
	cfg.WriteString(fmt.Sprintf("  default: \"%s\"\n", defaultModel))
	cfg.WriteString("\n")

	cfg.WriteString("logging:\n")
	cfg.WriteString(fmt.Sprintf("  level: \"%s\"\n", logLevel))
	cfg.WriteString(fmt.Sprintf("  format: \"%s\"\n", logFormat))

	configDir := filepath.Dir(outputFile)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(outputFile, []byte(cfg.String()), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	dataDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	fmt.Printf("\nConfig written to %s\n", outputFile)
	fmt.Printf("Data directory: %s\n", dataDir)
	fmt.Println("\nNext steps:")
	fmt.Println("  rowan-admin create-user   # create your account")
	fmt.Println("  rowan-gateway serve       # start the server")

	return nil
}

func prompt(reader *bufio.Reader, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", question, defaultVal)
	} else {
		fmt.Printf("%s: ", question)
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		// On EOF or error, return default
		fmt.Println()
		return defaultVal
	}
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultVal
	}
	return input
}
