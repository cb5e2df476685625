package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eliteGoblin/focusd/cluely_mon/internal/config"
	"github.com/eliteGoblin/focusd/cluely_mon/internal/domain"
	"github.com/eliteGoblin/focusd/cluely_mon/internal/infra"
	"github.com/eliteGoblin/focusd/cluely_mon/internal/usecase"
)

// app holds the wiring shared by all commands.
type app struct {
	cfg      config.Config
	execMode *infra.ExecModeConfig
	logger   *zap.Logger
	pm       domain.ProcessManager
	snapshot string // replay file, empty for the OS provider
}

// newApp resolves configuration and builds the logger.
func newApp(configPath, snapshotPath string, verbose bool) (*app, error) {
	execMode := infra.DetectExecMode()
	cfg := config.Default(execMode.DataDir, execMode.LogPath)

	var err error
	if configPath != "" {
		cfg, err = config.Load(cfg, configPath, false)
	} else {
		cfg, err = config.Load(cfg, config.DefaultPath(execMode.DataDir), true)
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &app{
		cfg:      cfg,
		execMode: execMode,
		logger:   createLogger(cfg.Log.Path, verbose),
		pm:       infra.NewProcessManager(),
		snapshot: snapshotPath,
	}, nil
}

// windowProvider returns the snapshot replay provider when a file is given,
// otherwise the OS provider.
func (a *app) windowProvider() (domain.WindowProvider, error) {
	if a.snapshot != "" {
		a.logger.Debug("replaying window snapshot", zap.String("path", a.snapshot))
		return infra.NewSnapshotProvider(a.snapshot), nil
	}
	provider, err := infra.NewWindowProvider(a.pm, a.logger)
	if err != nil {
		return nil, fmt.Errorf("cannot inspect windows on this system: %w", err)
	}
	return provider, nil
}

// detector builds the detection pipeline.
func (a *app) detector() (domain.Detector, error) {
	provider, err := a.windowProvider()
	if err != nil {
		return nil, err
	}
	return usecase.NewDetectorWithProcessManager(provider, a.pm, a.cfg.Signature(), a.logger), nil
}

// openStore opens the encrypted state store. Callers treat failure as non-fatal.
func (a *app) openStore() (*infra.EncryptedStateStore, error) {
	store, err := infra.OpenStateStore(a.cfg.DataDir, a.pm)
	if err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}
	return store, nil
}

// record saves a one-shot result as the latest known state.
func (a *app) record(r domain.DetectionResult) {
	store, err := a.openStore()
	if err != nil {
		a.logger.Warn("result not recorded", zap.Error(err))
		return
	}
	defer store.Close()

	err = store.SaveResult(domain.StoredResult{
		Result:     r,
		Severity:   domain.SeverityOf(r),
		ObservedAt: time.Now(),
	})
	if err != nil {
		a.logger.Warn("result not recorded", zap.Error(err))
	}
}

func (a *app) close() {
	_ = a.logger.Sync()
}

// createLogger writes JSON logs to logPath, or human-readable logs to
// stderr when verbose.
func createLogger(logPath string, verbose bool) *zap.Logger {
	if verbose {
		logger, err := zap.NewDevelopment()
		if err == nil {
			return logger
		}
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0700); err != nil {
		return zap.NewNop()
	}

	zcfg := zap.NewProductionConfig()
	zcfg.OutputPaths = []string{logPath}
	zcfg.ErrorOutputPaths = []string{logPath}
	zcfg.EncoderConfig.TimeKey = "time"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := zcfg.Build()
	if err != nil {
		// Fallback to stderr if file logging fails
		logger, _ = zap.NewProduction()
	}
	return logger
}
