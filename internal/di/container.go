package di

import (
	"context"
	"fmt"
	"sync"
	"time"

	"portal-compare/internal/comparison"
	"portal-compare/internal/comparison/config"
	"portal-compare/internal/shared/logger"
)

// Container owns the application modules and shuts them down.
type Container struct {
	mu sync.RWMutex

	ComparisonModule *comparison.ComparisonModule
	ComparisonConfig *config.Config

	Logger logger.Logger
}

// NewContainer creates an empty container.
func NewContainer(log logger.Logger) *Container {
	if log == nil {
		log = logger.NewLogger()
	}
	return &Container{Logger: log}
}

// InitializeComparison builds the comparison module. Calling it twice is an
// error; Cleanup first to rebuild.
func (c *Container) InitializeComparison(cfg *config.Config, opts ...comparison.ModuleOption) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ComparisonModule != nil {
		return fmt.Errorf("comparison module already initialized")
	}
	if cfg == nil {
		return fmt.Errorf("comparison config is required")
	}

	module, err := comparison.NewComparisonModule(cfg, c.Logger, opts...)
	if err != nil {
		return fmt.Errorf("failed to create comparison module: %w", err)
	}

	c.ComparisonConfig = cfg
	c.ComparisonModule = module
	return nil
}

// GetComparisonModule returns the comparison module instance.
func (c *Container) GetComparisonModule() *comparison.ComparisonModule {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ComparisonModule
}

// HealthCheck checks every initialized module.
func (c *Container) HealthCheck(ctx context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.ComparisonModule == nil {
		return fmt.Errorf("comparison module not initialized")
	}
	if err := c.ComparisonModule.HealthCheck(ctx); err != nil {
		return fmt.Errorf("comparison module health check failed: %w", err)
	}
	return nil
}

// Cleanup stops the modules. The container can be initialized again
// afterwards.
func (c *Container) Cleanup(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error

	if c.ComparisonModule != nil {
		if err := c.ComparisonModule.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop comparison module: %w", err))
		}
		c.ComparisonModule = nil
	}

	if err := ctx.Err(); err != nil {
		errs = append(errs, fmt.Errorf("cleanup interrupted: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("cleanup errors: %v", errs)
	}
	return nil
}

// Close shuts the container down with a 30 second budget.
func (c *Container) Close() error {
	c.Logger.Info("Closing DI container resources...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.Cleanup(ctx); err != nil {
		c.Logger.Warnf("Cleanup errors occurred: %v", err)
		return err
	}

	c.Logger.Info("DI container resources closed.")
	return nil
}
