/*-------------------------------------------------------------------------
 *
 * main.go
 *    Main entry point for NeuronChat server
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/cmd/chat-server/main.go
 *
 *-------------------------------------------------------------------------
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/neurondb/NeuronChat/internal/agent"
	"github.com/neurondb/NeuronChat/internal/api"
	"github.com/neurondb/NeuronChat/internal/bot"
	"github.com/neurondb/NeuronChat/internal/config"
	"github.com/neurondb/NeuronChat/internal/db"
	"github.com/neurondb/NeuronChat/internal/executor"
	"github.com/neurondb/NeuronChat/internal/humanloop"
	"github.com/neurondb/NeuronChat/internal/identity"
	"github.com/neurondb/NeuronChat/internal/llm"
	"github.com/neurondb/NeuronChat/internal/metrics"
	"github.com/neurondb/NeuronChat/internal/tools"
)

var (
	version   = "dev"
	buildDate = "unknown"
	gitCommit = "unknown"
)

func main() {
	var (
		showVersion      = flag.Bool("version", false, "Show version information")
		showVersionShort = flag.Bool("v", false, "Show version information (short)")
		configPath       = flag.String("c", "", "Path to configuration file")
		configPathLong   = flag.String("config", "", "Path to configuration file")
		showHelp         = flag.Bool("help", false, "Show help message")
		showHelpShort    = flag.Bool("h", false, "Show help message (short)")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "NeuronChat Server - Telegram AI assistant with command approval\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                    Start server with default configuration\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -c config.yaml     Start server with custom config file\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --version          Show version information\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nConfiguration:\n")
		fmt.Fprintf(os.Stderr, "  Configuration can be provided via:\n")
		fmt.Fprintf(os.Stderr, "  - Command line flag: -c or --config\n")
		fmt.Fprintf(os.Stderr, "  - Environment variable: CONFIG_PATH\n")
		fmt.Fprintf(os.Stderr, "  - Environment variables (see config package for details)\n")
	}
	flag.Parse()

	/* Handle version flag */
	if *showVersion || *showVersionShort {
		fmt.Printf("neuronchat version %s\n", version)
		fmt.Printf("Build date: %s\n", buildDate)
		fmt.Printf("Git commit: %s\n", gitCommit)
		os.Exit(0)
	}

	/* Handle help flag */
	if *showHelp || *showHelpShort {
		flag.Usage()
		os.Exit(0)
	}

	/* Load configuration */
	cfg := config.DefaultConfig()

	/* Command line flag takes precedence over environment variable */
	cfgPath := *configPath
	if cfgPath == "" {
		cfgPath = *configPathLong
	}
	if cfgPath == "" {
		cfgPath = os.Getenv("CONFIG_PATH")
	}

	if cfgPath != "" {
		var err error
		cfg, err = config.LoadConfig(cfgPath)
		if err != nil {
			fmt.Printf("Failed to load config: %v, using defaults\n", err)
			cfg = config.DefaultConfig()
		}
	}
	config.LoadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	/* Initialize logging */
	metrics.InitLogging(cfg.Logging.Level, cfg.Logging.Format)

	/* Connect to database */
	database, err := db.NewDBWithRetry(cfg.Database.ConnString(), db.PoolConfig{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	}, 5, 2*time.Second)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to connect to database: %v\n", err)
		fmt.Fprintf(os.Stderr, "Connection: host=%s port=%d user=%s dbname=%s\n",
			cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Database)
		os.Exit(1)
	}
	defer database.Close()

	/* Run migrations */
	if err := database.RunMigrations(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Migration failed: %v\n", err)
		os.Exit(1)
	}

	/* Initialize components */
	queries := db.NewQueries(database.DB)

	persona := identity.NewManager(cfg.Agent.PersonaDir)
	if err := persona.EnsureDefaults(); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to initialize persona files: %v\n", err)
		os.Exit(1)
	}

	model := llm.NewClient(&cfg.LLM)

	commandExecutor := executor.NewExecutor(queries,
		cfg.Agent.AllowedCommands, cfg.Agent.BlockedPatterns,
		cfg.Agent.CommandTimeout, cfg.Agent.MaxCommandOutput)

	/* Tool registry */
	registry := tools.NewRegistry()
	registry.RegisterHandler("update_persona", tools.NewPersonaTool(persona))

	/* Agent pipeline */
	pruner := agent.NewContextManager(queries, model, int64(cfg.Agent.MaxContextTokens))
	profiler := agent.NewProfiler(queries, model)
	pipeline := agent.NewPipeline(queries, model, persona, registry, pruner, profiler,
		cfg.Agent.ProfileUpdateInterval)

	/* Telegram transport */
	chatBot, err := bot.NewBot(cfg, pipeline, queries)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to start Telegram bot: %v\n", err)
		os.Exit(1)
	}

	/* Approval flow needs the bot for notifications, the bot needs the
	 * approval manager for callbacks; wire the manager in second */
	approvals := humanloop.NewManager(queries, commandExecutor, chatBot, cfg.Telegram.AdminIDs)
	chatBot.SetApprovals(approvals)
	registry.RegisterHandler("run_command", tools.NewCommandTool(commandExecutor, queries, chatBot))

	/* Setup router */
	router := mux.NewRouter()
	router.Use(api.RequestIDMiddleware)
	router.Use(api.LoggingMiddleware)

	api.NewHandlers(queries).RegisterRoutes(router)

	/* Health check */
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := database.HealthCheck(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}).Methods("GET")

	/* Metrics endpoint */
	router.Handle("/metrics", metrics.Handler()).Methods("GET")

	/* Start server */
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		fmt.Printf("Server starting on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "FATAL: Server failed: %v\n", err)
			os.Exit(1)
		}
	}()

	/* Start the Telegram update loop */
	botCtx, botCancel := context.WithCancel(context.Background())
	defer botCancel()
	go func() {
		if err := chatBot.Run(botCtx); err != nil && err != context.Canceled {
			fmt.Fprintf(os.Stderr, "FATAL: Bot stopped: %v\n", err)
			os.Exit(1)
		}
	}()

	/* Graceful shutdown */
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("Shutting down...")
	botCancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Server shutdown error: %v\n", err)
	}
	fmt.Println("Server stopped")
}
