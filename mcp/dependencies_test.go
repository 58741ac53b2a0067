package mcp

import (
	"io"
	"log/slog"

	"github.com/ludo-technologies/pygather/domain"
	"github.com/ludo-technologies/pygather/internal/config"
)

func NewTestDependencies(fr domain.FileReader, cfg *config.Config, path string) *Dependencies {
	return &Dependencies{
		fileReader: fr,
		config:     cfg,
		configPath: path,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}
