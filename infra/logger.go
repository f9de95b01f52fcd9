package infra

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

func NewLogger(conf LogConfig) (*log.Logger, error) {
	lg := log.New()
	lg.SetOutput(os.Stdout)

	level, err := log.ParseLevel(conf.Level)
	if err != nil {
		return nil, errors.Wrap(err, "bad LOG_LEVEL")
	}
	lg.SetLevel(level)

	switch strings.ToLower(conf.Format) {
	case "json":
		lg.SetFormatter(&log.JSONFormatter{})
	case "", "text":
		lg.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		return nil, errors.Errorf("unknown LOG_FORMAT %q", conf.Format)
	}

	return lg, nil
}
