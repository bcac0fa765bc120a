package worker

import (
	"testing"

	"github.com/jmylchreest/hairlens/internal/constants"
)

func TestNew_DefaultsConcurrency(t *testing.T) {
	w := New(Config{}, nil, nil, nil)
	if w.cfg.Concurrency != constants.DefaultBrandConcurrency {
		t.Errorf("Concurrency = %d, want default %d", w.cfg.Concurrency, constants.DefaultBrandConcurrency)
	}
}

func TestNew_CapsConcurrency(t *testing.T) {
	w := New(Config{Concurrency: constants.MaxBrandConcurrency + 50}, nil, nil, nil)
	if w.cfg.Concurrency != constants.MaxBrandConcurrency {
		t.Errorf("Concurrency = %d, want capped at %d", w.cfg.Concurrency, constants.MaxBrandConcurrency)
	}
}

func TestNew_DefaultsBlueprintDir(t *testing.T) {
	w := New(Config{}, nil, nil, nil)
	if w.cfg.BlueprintDir == "" {
		t.Error("BlueprintDir should default to a non-empty path")
	}
}

func TestNew_PreservesExplicitConcurrency(t *testing.T) {
	w := New(Config{Concurrency: 2}, nil, nil, nil)
	if w.cfg.Concurrency != 2 {
		t.Errorf("Concurrency = %d, want 2", w.cfg.Concurrency)
	}
}

func TestRun_EmptyBrandList(t *testing.T) {
	w := New(Config{}, nil, nil, nil)
	reports := w.Run(nil, nil)
	if len(reports) != 0 {
		t.Errorf("expected no reports for an empty brand list, got %d", len(reports))
	}
}
