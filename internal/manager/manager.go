package manager

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Harvest is one independently runnable target. Each harvest owns its
// browser and its output file, so harvests never share mutable state.
type Harvest interface {
	ID() string
	Name() string
	Run(ctx context.Context) error
}

type Option func(*Manager)

func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// Manager holds registered harvests and runs them sequentially or
// concurrently. One harvest's failure never stops or cancels the others;
// per-harvest outcomes are collected and combined into the returned error.
type Manager struct {
	logger   *zap.Logger
	harvests []Harvest
}

func New(opts ...Option) *Manager {
	m := &Manager{
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) Register(h Harvest) {
	m.harvests = append(m.harvests, h)
	m.logger.Info("harvest registered",
		zap.String("harvest_id", h.ID()),
		zap.String("name", h.Name()),
	)
}

func (m *Manager) Harvests() []Harvest {
	return m.harvests
}

// RunSequential runs each harvest to completion in registration order.
func (m *Manager) RunSequential(ctx context.Context) error {
	var errs error
	for _, h := range m.harvests {
		if err := h.Run(ctx); err != nil {
			m.logger.Error("harvest failed",
				zap.String("name", h.Name()),
				zap.Error(err),
			)
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", h.Name(), err))
		}
	}
	return errs
}

// RunConcurrent starts every harvest at once and waits for all of them.
func (m *Manager) RunConcurrent(ctx context.Context) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs error
	)

	for _, h := range m.harvests {
		wg.Add(1)
		go func(h Harvest) {
			defer wg.Done()
			if err := h.Run(ctx); err != nil {
				m.logger.Error("harvest failed",
					zap.String("name", h.Name()),
					zap.Error(err),
				)
				mu.Lock()
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", h.Name(), err))
				mu.Unlock()
			}
		}(h)
	}

	wg.Wait()
	return errs
}
