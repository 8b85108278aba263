package bootstrap

import (
	"errors"
	"path/filepath"
	"testing"

	coreconfig "github.com/m3rciful/polbot/core/config"
	"github.com/m3rciful/polbot/core/storage"
)

func noLogger(*coreconfig.Config) error { return nil }

func TestRunRequiresConfig(t *testing.T) {
	if _, err := Run(Options{}); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestRunOpensFileBackend(t *testing.T) {
	res, err := Run(Options{
		Config:     &coreconfig.Config{},
		Storage:    storage.Config{Driver: storage.DriverFile, Path: filepath.Join(t.TempDir(), "data.json")},
		LoggerInit: noLogger,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Backend == nil || res.Backend.Name() != storage.DriverFile {
		t.Fatalf("unexpected backend: %+v", res.Backend)
	}
}

func TestRunStopsOnLoggerFailure(t *testing.T) {
	opened := false
	_, err := Run(Options{
		Config:     &coreconfig.Config{},
		LoggerInit: func(*coreconfig.Config) error { return errors.New("boom") },
		Open: func(storage.Config) (storage.Backend, error) {
			opened = true
			return nil, nil
		},
	})
	if err == nil || opened {
		t.Fatalf("expected logger failure before storage, err=%v opened=%v", err, opened)
	}
}

func TestRunWrapsStorageError(t *testing.T) {
	sentinel := errors.New("unreachable")
	_, err := Run(Options{
		Config:     &coreconfig.Config{},
		LoggerInit: noLogger,
		Open:       func(storage.Config) (storage.Backend, error) { return nil, sentinel },
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected wrapped storage error, got %v", err)
	}
}
