package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/username/shift-calendar/internal/backup"
	"github.com/username/shift-calendar/internal/calendar"
	"github.com/username/shift-calendar/internal/config"
	"github.com/username/shift-calendar/internal/planner"
	"github.com/username/shift-calendar/internal/state"
	"github.com/username/shift-calendar/internal/storage"
	"github.com/username/shift-calendar/internal/storage/sqlstore"
)

var (
	configPath string
	logger     *zap.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "shiftcal",
		Short: "Shift rotation calendar",
		Long:  "Plan a repeating shift rotation over the year with holidays, manual overrides and hour statistics",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load config to get log settings
			cfg, err := config.Load(configPath)
			if err == nil && cfg.Log.File != "" {
				logger, err = initFileLogger(cfg.Log.File, cfg.Log.Level)
				if err != nil {
					initLogger(cfg.Log.Level)
					logger.Warn("Falling back to stderr logging", zap.Error(err))
				}
			} else if err == nil {
				initLogger(cfg.Log.Level)
			} else {
				initLogger("info")
			}
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (default: search ., $HOME/.shiftcal, /etc/shiftcal)")

	rootCmd.AddCommand(gridCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(rotationCmd())
	rootCmd.AddCommand(overrideCmd())
	rootCmd.AddCommand(holidayCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func initLogger(level string) {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	// stdout carries command output
	config.OutputPaths = []string{"stderr"}

	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}
	config.Level = zap.NewAtomicLevelAt(zapLevel)

	var err error
	logger, err = config.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
}

func initFileLogger(logFile string, level string) (*zap.Logger, error) {
	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	// Setup lumberjack for log rotation
	logWriter := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    100,  // MB
		MaxBackups: 3,    // Keep max 3 old log files
		MaxAge:     28,   // days
		Compress:   true, // Compress old logs with gzip
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(logWriter),
		zapLevel,
	)

	return zap.New(core), nil
}

// app bundles the components a command works with
type app struct {
	cfg     *config.Config
	store   storage.Store
	planner *planner.Manager
	backup  *backup.Service
	closer  io.Closer
}

func (a *app) Close() {
	if a.closer == nil {
		return
	}
	if err := a.closer.Close(); err != nil {
		logger.Warn("Failed to close store", zap.Error(err))
	}
}

func initializeApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	store, closer, err := openStore(cfg.Storage)
	if err != nil {
		return nil, err
	}

	var catalog calendar.Catalog = calendar.BuiltinCatalog{}
	if cfg.Calendar.CatalogFile != "" {
		composite := calendar.NewCompositeCatalog(
			calendar.NewFileCatalog(cfg.Calendar.CatalogFile, logger),
			calendar.BuiltinCatalog{},
			logger,
		)
		if err := composite.LoadPrimary(); err != nil {
			logger.Warn("Failed to load holiday catalog, using built-in table",
				zap.String("file", cfg.Calendar.CatalogFile),
				zap.Error(err))
		}
		catalog = composite
	}

	repo := state.NewRepository(store, logger)
	return &app{
		cfg:     cfg,
		store:   store,
		planner: planner.NewManager(repo, catalog, cfg.Calendar.Colors, logger),
		backup:  backup.NewService(store, logger),
		closer:  closer,
	}, nil
}

func openStore(cfg config.StorageConfig) (storage.Store, io.Closer, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		logger.Info("Using in-memory store")
		return storage.NewMemoryStore(), nil, nil

	case config.DriverFile:
		logger.Info("Using file store", zap.String("path", cfg.Path))
		fs := storage.NewFileStore(cfg.Path, logger)
		if err := fs.Load(); err != nil {
			return nil, nil, fmt.Errorf("failed to load state file: %w", err)
		}
		return fs, nil, nil

	case config.DriverSQLite, config.DriverMySQL:
		driver := sqlstore.DriverSQLite
		if cfg.Driver == config.DriverMySQL {
			driver = sqlstore.DriverMySQL
		}
		logger.Info("Using SQL store", zap.String("driver", driver))
		s, err := sqlstore.Open(driver, cfg.DSN, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open database: %w", err)
		}
		return s, s, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage driver: %s", cfg.Driver)
	}
}
