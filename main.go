package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"pdf-vector-uploader/db"
	"pdf-vector-uploader/pdf"
	"pdf-vector-uploader/settings"
	"pdf-vector-uploader/ui"
	"pdf-vector-uploader/utils"
)

var (
	version = "0.1.0"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run starts the application and returns the process exit code. Every
// failure path returns so deferred closes flush the log and database.
func run(args []string) int {
	// Parse command line flags
	flags := flag.NewFlagSet(utils.AppName, flag.ContinueOnError)
	configPath := flags.String("config", "", "Path to configuration file")
	showVersion := flags.Bool("version", false, "Show version information")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	if *showVersion {
		fmt.Printf("PDF Vector Uploader v%s\n", version)
		return 0
	}

	// .env is optional
	_ = godotenv.Load()

	actualConfigPath := *configPath
	if actualConfigPath == "" {
		actualConfigPath = os.Getenv("PDFVU_CONFIG")
	}
	if actualConfigPath == "" {
		actualConfigPath = utils.GetConfigPath()
		if err := utils.EnsureDefaultConfig(actualConfigPath); err != nil {
			fmt.Printf("Failed to create default config: %v\n", err)
			return 1
		}
	}

	config, err := utils.LoadConfig(actualConfigPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		return 1
	}
	if level := os.Getenv("PDFVU_LOG_LEVEL"); level != "" {
		config.Log.Level = level
	}

	// Initialize logger
	logger, err := utils.NewLogger(config.Log)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		return 1
	}
	defer logger.Close()

	logger.Info("Starting PDF Vector Uploader v%s", version)
	logger.Info("Using config file: %s", actualConfigPath)

	// Initialize database
	database, err := db.New(config.Data.DBPath)
	if err != nil {
		logger.Error("Failed to initialize database: %v", err)
		return 1
	}
	defer database.Close()

	logger.Info("Database initialized: %s", config.Data.DBPath)

	if config.Data.MaxHistory > 0 {
		if pruned, err := database.PruneUploads(context.Background(), config.Data.MaxHistory); err != nil {
			logger.Warn("Failed to prune upload history: %v", err)
		} else if pruned > 0 {
			logger.Info("Pruned %d old upload history entries", pruned)
		}
	}

	store := settings.NewStore(newSettingsBackend(config, database, logger), logger.With("settings"))

	httpClient, err := config.Proxy.HTTPClient()
	if err != nil {
		logger.Error("Invalid proxy configuration: %v", err)
		return 1
	}

	processor := pdf.NewProcessor(
		store,
		config.Processing,
		pdf.DefaultFactories(config.Processing, httpClient, logger.With("embeddings")),
		logger.With("processor"),
	)

	// Create and run application
	app := ui.NewApp(ui.Deps{
		Config:     config,
		ConfigPath: actualConfigPath,
		DB:         database,
		Store:      store,
		Processor:  processor,
		HTTPClient: httpClient,
		Logger:     logger,
	})
	defer app.Cleanup()

	logger.Info("Application started")
	app.Run()
	logger.Info("Application stopped")
	return 0
}

func newSettingsBackend(config *utils.Config, database *db.DB, logger *utils.Logger) settings.Backend {
	switch config.Data.SettingsBackend {
	case "sqlite":
		logger.Info("Settings stored in database")
		return settings.NewSQLiteBackend(database)
	case "", "file":
	default:
		logger.Warn("Unknown settings backend %q, using file", config.Data.SettingsBackend)
	}

	path := config.Data.SettingsPath
	if path == "" {
		path = settings.DefaultFilePath()
	}
	logger.Info("Settings file: %s", path)
	return settings.NewFileBackend(path)
}
