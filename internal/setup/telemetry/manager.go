package telemetry

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/robalyx/dmesg/internal/setup/config"
	"github.com/robalyx/dmesg/internal/setup/telemetry/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ServiceType represents the type of service being initialized.
type ServiceType int

const (
	ServiceKernel ServiceType = iota
	ServiceReader
	ServiceToggle
)

// String returns the component name of the service.
func (s ServiceType) String() string {
	switch s {
	case ServiceKernel:
		return "kernel"
	case ServiceReader:
		return "dmesg"
	case ServiceToggle:
		return "logtoggle"
	default:
		return "unknown"
	}
}

// Manager handles the creation of loggers and their session directories.
type Manager struct {
	instanceID        string    // Unique identifier for this program instance
	componentName     string    // Component identifier for this instance
	currentSessionDir string    // Path to the current session's log directory
	logDir            string    // Base directory for all logs, empty for console only
	level             string    // Logging level (debug, info, warn, error)
	maxLogsToKeep     int       // Maximum number of log sessions to retain
	maxLogLines       int       // Maximum number of lines to keep in each log file
	console           io.Writer // Console output, nil to disable
	closers           []io.Closer
}

// NewManager creates a new Manager instance. An empty logDir disables file
// logging.
func NewManager(serviceType ServiceType, logDir string, debugCfg *config.Debug, console io.Writer) *Manager {
	return &Manager{
		instanceID:    uuid.New().String(),
		componentName: serviceType.String(),
		logDir:        logDir,
		level:         debugCfg.LogLevel,
		maxLogsToKeep: debugCfg.MaxLogsToKeep,
		maxLogLines:   debugCfg.MaxLogLines,
		console:       console,
	}
}

// GetLogger initializes the main logger of the component.
func (lm *Manager) GetLogger() (*zap.Logger, error) {
	zapLevel, err := zapcore.ParseLevel(lm.level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	cores := make([]zapcore.Core, 0, 3)

	if lm.logDir != "" {
		if err := lm.setupLogDirectories(); err != nil {
			return nil, err
		}

		rotator, err := logger.NewLogRotator(
			filepath.Join(lm.currentSessionDir, lm.componentName+".log"), lm.maxLogLines,
		)
		if err != nil {
			return nil, err
		}

		lm.closers = append(lm.closers, rotator)
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig),
			zapcore.AddSync(rotator),
			zapLevel,
		))
	}

	if lm.console != nil {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig),
			zapcore.Lock(zapcore.AddSync(lm.console)),
			zapLevel,
		))
	}

	cores = append(cores, NewCore(zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= zapcore.ErrorLevel
	})))

	return zap.New(
		zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
		zap.Development(),
	).Named(lm.componentName).With(zap.String("instance_id", lm.instanceID)), nil
}

// GetInstanceID returns the unique instance identifier for this program run.
func (lm *Manager) GetInstanceID() string {
	return lm.instanceID
}

// GetCurrentSessionDir returns the current session directory, empty until
// the first file logger is created.
func (lm *Manager) GetCurrentSessionDir() string {
	return lm.currentSessionDir
}

// Stop closes every log file opened by the manager.
func (lm *Manager) Stop() {
	for _, c := range lm.closers {
		c.Close()
	}

	lm.closers = nil
}

// setupLogDirectories creates and manages the log directory structure.
// It ensures the base directory exists, rotates old logs, and creates a new session directory.
func (lm *Manager) setupLogDirectories() error {
	if lm.currentSessionDir != "" {
		return nil
	}

	if err := os.MkdirAll(lm.logDir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	if err := lm.rotateLogSessions(); err != nil {
		return fmt.Errorf("failed to rotate log sessions: %w", err)
	}

	sessionDir := filepath.Join(lm.logDir, time.Now().Format("2006-01-02_15-04-05")+"_"+lm.instanceID[:8])
	if err := os.MkdirAll(sessionDir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	lm.currentSessionDir = sessionDir

	return nil
}

// rotateLogSessions removes the oldest sessions so that, with the session
// about to be created, at most maxLogsToKeep remain.
func (lm *Manager) rotateLogSessions() error {
	sessions, err := filepath.Glob(filepath.Join(lm.logDir, "*"))
	if err != nil {
		return err
	}

	keep := max(lm.maxLogsToKeep-1, 0)
	if len(sessions) <= keep {
		return nil
	}

	modTimes := make(map[string]time.Time, len(sessions))
	for _, session := range sessions {
		if info, err := os.Stat(session); err == nil {
			modTimes[session] = info.ModTime()
		}
	}

	// Oldest first
	sort.Slice(sessions, func(i, j int) bool {
		return modTimes[sessions[i]].Before(modTimes[sessions[j]])
	})

	for _, session := range sessions[:len(sessions)-keep] {
		if err := os.RemoveAll(session); err != nil {
			return err
		}
	}

	return nil
}
