package logger

import (
	"go.uber.org/zap"
)

type Config struct {
	Development bool
}

// New builds the service logger. Development mode switches to the
// human-readable console encoder.
func New(cfg Config) (*zap.SugaredLogger, error) {
	var (
		l   *zap.Logger
		err error
	)
	if cfg.Development {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}
