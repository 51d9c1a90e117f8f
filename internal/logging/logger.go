package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

type Settings struct {
	Level        string
	Format       string
	LogstashAddr string
	Service      string
}

// Init configures the logrus standard logger. The returned closer releases
// the Logstash connection, if one was configured.
func Init(s Settings) (io.Closer, error) {
	logger := logrus.StandardLogger()
	logger.SetOutput(os.Stdout)

	switch strings.ToLower(strings.TrimSpace(s.Format)) {
	case "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(strings.TrimSpace(s.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if strings.TrimSpace(s.LogstashAddr) == "" {
		return nopCloser{}, nil
	}
	hook, err := NewLogstashHook(s.LogstashAddr, WithStaticFields(logrus.Fields{"service": s.Service}))
	if err != nil {
		return nil, err
	}
	logger.AddHook(hook)
	return hook, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
