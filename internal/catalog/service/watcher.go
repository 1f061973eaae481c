package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// SeedEntry is one row of the optional YAML catalog seed file.
type SeedEntry struct {
	MetricID string `yaml:"metric_id"`
	Scope    int    `yaml:"scope"`
	Category string `yaml:"category"`
	Unit     string `yaml:"unit"`
	Active   *bool  `yaml:"active"`
}

type seedFile struct {
	Metrics []SeedEntry `yaml:"metrics"`
}

// LoadSeedFile parses and applies the seed file once.
func (s *Service) LoadSeedFile(ctx context.Context, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var parsed seedFile
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return err
	}
	if err := s.ApplySeed(ctx, parsed.Metrics); err != nil {
		return err
	}
	s.metrics.RecordCatalogReload(ctx, "file")
	s.log.Info("catalog seed applied",
		zap.String("path", path),
		zap.Int("entries", len(parsed.Metrics)),
	)
	return nil
}

// Watch re-applies the seed file whenever it changes. Blocks until ctx ends.
func (s *Service) Watch(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory: editors replace files rather than write in place.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}

	target := filepath.Clean(path)
	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(250*time.Millisecond, func() {
				if err := s.LoadSeedFile(ctx, path); err != nil {
					s.log.Warn("catalog seed reload failed",
						zap.String("path", path),
						zap.Error(err),
					)
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.log.Warn("catalog watcher error", zap.Error(err))
		}
	}
}

// IsSeedConfigured reports whether the path points at a readable file.
func IsSeedConfigured(path string) bool {
	path = strings.TrimSpace(path)
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
