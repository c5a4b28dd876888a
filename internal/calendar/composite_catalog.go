package calendar

import (
	"fmt"

	"go.uber.org/zap"
)

// CompositeCatalog implements Catalog with fallback strategy
// Primary: FileCatalog (user supplied table)
// Fallback: BuiltinCatalog
type CompositeCatalog struct {
	primary  Catalog
	fallback Catalog
	logger   *zap.Logger
}

// NewCompositeCatalog creates a new CompositeCatalog
func NewCompositeCatalog(primary, fallback Catalog, logger *zap.Logger) *CompositeCatalog {
	return &CompositeCatalog{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// FixedHolidays returns the primary table, or the fallback one if the primary fails
func (cc *CompositeCatalog) FixedHolidays() ([]Holiday, error) {
	holidays, err := cc.primary.FixedHolidays()
	if err == nil {
		return holidays, nil
	}

	cc.logger.Warn("Primary catalog failed, falling back",
		zap.Error(err))

	return cc.fallback.FixedHolidays()
}

// LoadPrimary loads the primary catalog (if FileCatalog)
func (cc *CompositeCatalog) LoadPrimary() error {
	if fc, ok := cc.primary.(*FileCatalog); ok {
		if err := fc.Load(); err != nil {
			return fmt.Errorf("failed to load primary catalog: %w", err)
		}
	}
	return nil
}
