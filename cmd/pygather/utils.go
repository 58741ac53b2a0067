package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ludo-technologies/pygather/domain"
	"github.com/ludo-technologies/pygather/internal/config"
	"github.com/ludo-technologies/pygather/service"
)

// generateTimestampedFileName generates a filename with timestamp suffix
func generateTimestampedFileName(command, extension string) string {
	timestamp := time.Now().Format("20060102_150405")
	return fmt.Sprintf("%s_%s.%s", command, timestamp, extension)
}

// generateOutputFilePath creates dir and returns a timestamped report path in it
func generateOutputFilePath(dir, command, extension string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	return filepath.Join(dir, generateTimestampedFileName(command, extension)), nil
}

// loadConfig resolves the configuration for target
func loadConfig(configFile, target string) (*config.Config, error) {
	cfg, err := config.Load(configFile, target)
	if err != nil {
		return nil, domain.NewConfigError("failed to load configuration", err)
	}
	return cfg, nil
}

// openCache returns the configured result cache, restored from its file.
// A damaged cache file only costs a warning.
func openCache(cfg *config.Config, warn io.Writer) *service.ResultCache {
	if cfg.Analysis.CacheSize <= 0 {
		return nil
	}
	cache := service.NewResultCache(cfg.Analysis.CacheSize)
	if cfg.Analysis.CacheFile != "" {
		if err := cache.LoadFile(cfg.Analysis.CacheFile); err != nil {
			fmt.Fprintf(warn, "Warning: ignoring cache file %s: %v\n", cfg.Analysis.CacheFile, err)
		}
	}
	return cache
}

// persistCache writes the cache back to its file when one is configured
func persistCache(cache *service.ResultCache, cfg *config.Config, warn io.Writer) {
	if cache == nil || cfg.Analysis.CacheFile == "" {
		return
	}
	if err := cache.SaveFile(cfg.Analysis.CacheFile); err != nil {
		fmt.Fprintf(warn, "Warning: failed to save cache file %s: %v\n", cfg.Analysis.CacheFile, err)
	}
}
