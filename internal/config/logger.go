package config

import (
	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"
)

// Build returns the zap logger described by c.
func (c LogConfig) Build() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.Level)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "parse log level %q", c.Level)
	}
	zc := zap.NewProductionConfig()
	if c.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level
	logger, err := zc.Build()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "build logger")
	}
	return logger, nil
}
