package forecast

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"streamcast/internal/config"
	"streamcast/pkg/contracts/domain"
)

// ModelSet holds one model per quantile label. It is read-only after loading.
type ModelSet struct {
	models map[domain.QuantileLabel]Model
}

// NewModelSet builds a set from already constructed models
func NewModelSet(models map[domain.QuantileLabel]Model) *ModelSet {
	m := make(map[domain.QuantileLabel]Model, len(models))
	for label, model := range models {
		m[label] = model
	}
	return &ModelSet{models: m}
}

// Get returns the model of a quantile
func (s *ModelSet) Get(label domain.QuantileLabel) (Model, error) {
	m, ok := s.models[label]
	if !ok || m == nil {
		return nil, fmt.Errorf("%s: %w", label, ErrModelUnavailable)
	}
	return m, nil
}

// Complete reports whether every quantile has a model
func (s *ModelSet) Complete() bool {
	for _, label := range domain.QuantileLabels {
		if _, err := s.Get(label); err != nil {
			return false
		}
	}
	return true
}

// CheckInputShape verifies that every model exposing InputShape expects a
// (sequence, features) window
func (s *ModelSet) CheckInputShape(sequence, features int) error {
	if s == nil {
		return nil
	}
	for _, label := range domain.QuantileLabels {
		shaped, ok := s.models[label].(interface{ InputShape() []int })
		if !ok {
			continue
		}
		shape := shaped.InputShape()
		if len(shape) != 2 {
			return &ShapeError{What: fmt.Sprintf("%s input rank", label), Want: 2, Got: len(shape)}
		}
		if shape[0] != sequence {
			return &ShapeError{What: fmt.Sprintf("%s sequence length", label), Want: sequence, Got: shape[0]}
		}
		if shape[1] != features {
			return &ShapeError{What: fmt.Sprintf("%s features", label), Want: features, Got: shape[1]}
		}
	}
	return nil
}

// Names returns the model name per quantile
func (s *ModelSet) Names() map[domain.QuantileLabel]string {
	names := make(map[domain.QuantileLabel]string, len(s.models))
	for label, m := range s.models {
		names[label] = m.Name()
	}
	return names
}

// ModelPaths resolves the artifact path of each quantile
func ModelPaths(dir string, files config.ModelFiles) map[domain.QuantileLabel]string {
	resolve := func(name string) string {
		if filepath.IsAbs(name) {
			return name
		}
		return filepath.Join(dir, name)
	}
	return map[domain.QuantileLabel]string{
		domain.P10: resolve(files.P10),
		domain.P50: resolve(files.P50),
		domain.P90: resolve(files.P90),
	}
}

// LoadModelSet loads the three quantile models concurrently.
// The first failure is returned as a *ModelLoadError.
func LoadModelSet(ctx context.Context, paths map[domain.QuantileLabel]string, logger *slog.Logger) (*ModelSet, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var mu sync.Mutex
	models := make(map[domain.QuantileLabel]Model, len(domain.QuantileLabels))

	g, ctx := errgroup.WithContext(ctx)
	for _, label := range domain.QuantileLabels {
		path, ok := paths[label]
		if !ok {
			return nil, &ModelLoadError{Label: label, Err: ErrModelUnavailable}
		}

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return &ModelLoadError{Label: label, Path: path, Err: err}
			}

			start := time.Now()
			model, err := LoadModel(path)
			if err != nil {
				return &ModelLoadError{Label: label, Path: path, Err: err}
			}

			mu.Lock()
			models[label] = model
			mu.Unlock()

			logger.Info("quantile model loaded",
				slog.String("quantile", string(label)),
				slog.String("name", model.Name()),
				slog.String("path", path),
				slog.Duration("duration", time.Since(start)))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &ModelSet{models: models}, nil
}
