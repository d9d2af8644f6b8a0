package app

import (
	"io"
	"log/slog"

	"github.com/vk/pdp2c/internal/config"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW    io.Writer
	logger  *slog.Logger
	cfg     *Config
	loader  config.Loader
	encoder config.Encoder
}

// NewApp is the constructor for the main application. Results go to outW;
// logs go to logW through the app's own logger.
func NewApp(outW, logW io.Writer, cfg *Config, loader config.Loader, encoder config.Encoder) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	logger.Debug("Logger configured successfully.")

	return &App{
		outW:    outW,
		logger:  logger,
		cfg:     cfg,
		loader:  loader,
		encoder: encoder,
	}
}
