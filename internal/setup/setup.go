package setup

import (
	"io"

	"github.com/robalyx/dmesg/internal/setup/config"
	"github.com/robalyx/dmesg/internal/setup/telemetry"
	"go.uber.org/zap"
)

// App bundles the dependencies shared by every command.
type App struct {
	Config     *config.Config     // Application configuration
	ConfigPath string             // Config file in use, empty for defaults
	Logger     *zap.Logger        // Main application logger
	LogManager *telemetry.Manager // Log management system
}

// InitializeApp loads configuration and builds the logger. logDir enables
// per-session log files; console receives log output when non-nil.
func InitializeApp(serviceType telemetry.ServiceType, configPath, logDir string, console io.Writer) (*App, error) {
	cfg, usedPath, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	// Logging system is initialized next to capture setup issues
	logManager := telemetry.NewManager(serviceType, logDir, &cfg.Debug, console)

	logger, err := logManager.GetLogger()
	if err != nil {
		return nil, err
	}

	if usedPath == "" {
		logger.Debug("No config file found, using defaults")
	} else {
		logger.Debug("Loaded config", zap.String("path", usedPath))
	}

	return &App{
		Config:     cfg,
		ConfigPath: usedPath,
		Logger:     logger,
		LogManager: logManager,
	}, nil
}

// Cleanup flushes logs and releases log files.
func (s *App) Cleanup() {
	// Sync buffered logs before shutdown
	_ = s.Logger.Sync()

	s.LogManager.Stop()
}
