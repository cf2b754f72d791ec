package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"

	msmcp "github.com/msmcp/sqlserver-mcp"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"golang.org/x/term"
)

func runServe() error {
	ctx := context.Background()

	// .env is optional; real environment variables win either way.
	godotenv.Load()

	// 1. Load ServerConfig
	serverConfig, err := loadServerConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if serverConfig.Server.Port <= 0 {
		panic("gomsmcp: server.port must be > 0")
	}

	// 2. Resolve credentials for connections that carry none in the file.
	// GOMSMCP_PASSWORD_<NAME> takes precedence; otherwise prompt.
	resolvePasswords(&serverConfig.Config)

	// 3. Setup logger
	logger := setupLogger(serverConfig.Logging)

	// 4. Create engine
	msMcp, err := msmcp.New(ctx, serverConfig.Config, logger)
	if err != nil {
		return fmt.Errorf("failed to create SqlServerMcp: %w", err)
	}
	defer msMcp.Close(ctx)

	// 5. Test database connections
	logger.Info().Msg("testing database connections")
	if err := msMcp.Ping(ctx); err != nil {
		logger.Error().Err(err).Msg("database connection test failed")
		return fmt.Errorf("database connection test failed: %w", err)
	}
	logger.Info().Msg("database connection test successful")

	// 6. Create MCP server with initialize lifecycle logging
	hooks := &server.Hooks{}
	hooks.AddAfterInitialize(func(ctx context.Context, id any, req *mcp.InitializeRequest, result *mcp.InitializeResult) {
		logger.Info().
			Str("client_name", req.Params.ClientInfo.Name).
			Str("client_version", req.Params.ClientInfo.Version).
			Msg("AI agent connected (MCP initialize)")
	})

	mcpServer := server.NewMCPServer("gomsmcp", "1.0.0",
		server.WithToolCapabilities(true),
		server.WithHooks(hooks),
	)

	msmcp.RegisterMCPTools(mcpServer, msMcp)

	// 7. Start HTTP server with optional health check
	addr := fmt.Sprintf(":%d", serverConfig.Server.Port)
	mux := http.NewServeMux()

	// Health check endpoint (process liveness only, not DB connectivity)
	if serverConfig.Server.HealthCheckEnabled {
		if serverConfig.Server.HealthCheckPath == "" {
			panic("gomsmcp: health_check_path must be set when health_check_enabled is true")
		}
		mux.HandleFunc(serverConfig.Server.HealthCheckPath, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		})
	}

	httpSrv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	streamableServer := server.NewStreamableHTTPServer(mcpServer,
		server.WithEndpointPath("/mcp"),
		server.WithStateLess(true),
		server.WithStreamableHTTPServer(httpSrv),
	)

	// Manually register the MCP handler — Start() does NOT register
	// when a custom *http.Server is provided via WithStreamableHTTPServer.
	mux.Handle("/mcp", streamableServer)

	logger.Info().Int("port", serverConfig.Server.Port).Msg("starting gomsmcp server")
	return streamableServer.Start(addr)
}

func loadServerConfig() (*msmcp.ServerConfig, error) {
	configPath := os.Getenv("GOMSMCP_CONFIG_PATH")
	if configPath == "" {
		configPath = ".gomsmcp/config.json"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	var config msmcp.ServerConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// resolvePasswords fills in passwords for connections that have neither a
// password nor a raw conn_string. Environment first, prompt second, in
// stable name order so prompts are deterministic.
func resolvePasswords(config *msmcp.Config) {
	names := make([]string, 0, len(config.Connections))
	for name := range config.Connections {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		cc := config.Connections[name]
		if cc.ConnString != "" || cc.Password != "" {
			continue
		}
		envKey := "GOMSMCP_PASSWORD_" + strings.ToUpper(name)
		if pw := os.Getenv(envKey); pw != "" {
			cc.Password = pw
		} else {
			cc.Password = promptPassword(fmt.Sprintf("Password for connection %q: ", name))
		}
		config.Connections[name] = cc
	}
}

func setupLogger(config msmcp.LoggingConfig) zerolog.Logger {
	level := zerolog.InfoLevel
	switch strings.ToLower(config.Level) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	var output io.Writer = os.Stderr
	if config.Output == "stdout" {
		output = os.Stdout
	} else if config.Output != "" && config.Output != "stderr" {
		f, err := os.OpenFile(config.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err == nil {
			output = f
		}
	}

	if config.Format == "text" {
		output = zerolog.ConsoleWriter{Out: output}
	}

	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

func promptPassword(prompt string) string {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr) // newline after password input
	if err != nil {
		return ""
	}
	return string(password)
}
