package cmd

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/brianly1003/lspclient"
	"github.com/brianly1003/lspclient/internal/capability"
	"github.com/brianly1003/lspclient/internal/config"
	"github.com/brianly1003/lspclient/internal/supervisor"
	"github.com/brianly1003/lspclient/internal/workspace"
)

// setupLogging configures the global zerolog logger the same way the
// teacher's CLI does (console writer by default, debug level under
// --verbose), and additionally wires a `slog` + `tint` handler for
// colorized human-facing CLI output separate from the library's own
// structured logs, matching the teacher's workspace-manager command's
// dual-logger setup.
func setupLogging(cfg *config.Config) *slog.Logger {
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Logging.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	slogLevel := slog.LevelInfo
	if verbose {
		slogLevel = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slogLevel,
		TimeFormat: time.Kitchen,
	}))
}

func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

// demoClass is a minimal lspclient.ClientClass for the CLI, configuring
// its server candidates straight from the loaded config file rather than
// hardcoding a single language server. It sends no initialization options.
type demoClass struct {
	languageID string
	cfg        *config.Config
}

func (d *demoClass) LanguageID() string { return d.languageID }

func (d *demoClass) CreateInitializationOptions() interface{} { return nil }

func (d *demoClass) CheckServerCompatibility(info capability.ServerInfo) error { return nil }

func (d *demoClass) CreateDefaultServers() []supervisor.Candidate {
	return d.cfg.ToCandidates()
}

func (d *demoClass) CreateDefaultConfigurationMap() map[string]interface{} {
	return map[string]interface{}{}
}

// startClient loads configuration, opens a single-root workspace at root,
// and starts an lspclient.Client against the configured server
// candidates.
func startClient(ctx context.Context, root, languageID string) (*lspclient.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	setupLogging(cfg)

	folder, err := workspace.NewFolder("", root)
	if err != nil {
		return nil, err
	}
	ws := workspace.New(folder)

	class := &demoClass{languageID: languageID, cfg: cfg}
	client := lspclient.New(class, ws, lspclient.WithLogger(log.Logger))

	if err := client.Start(ctx); err != nil {
		return nil, err
	}
	return client, nil
}
