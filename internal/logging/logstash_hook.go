package logging

import (
	"errors"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var errRetryCooldown = errors.New("logstash: retry cooldown in effect")

// LogstashHook ships every logrus entry as one JSON line to a Logstash TCP
// input. Entries are dropped while Logstash is unreachable; logging callers
// never see network errors.
type LogstashHook struct {
	addr          string
	dialTimeout   time.Duration
	writeTimeout  time.Duration
	retryInterval time.Duration
	formatter     logrus.Formatter
	fields        logrus.Fields

	mu        sync.Mutex
	conn      net.Conn
	nextRetry time.Time
	closed    bool
}

type HookOption func(*LogstashHook)

func WithDialTimeout(d time.Duration) HookOption {
	return func(h *LogstashHook) { h.dialTimeout = d }
}

func WithWriteTimeout(d time.Duration) HookOption {
	return func(h *LogstashHook) { h.writeTimeout = d }
}

// WithRetryInterval sets the cool-down after a failed connect or write.
func WithRetryInterval(d time.Duration) HookOption {
	return func(h *LogstashHook) { h.retryInterval = d }
}

// WithStaticFields adds fields (service name, environment) to every shipped entry.
func WithStaticFields(fields logrus.Fields) HookOption {
	return func(h *LogstashHook) {
		for k, v := range fields {
			h.fields[k] = v
		}
	}
}

func NewLogstashHook(addr string, opts ...HookOption) (*LogstashHook, error) {
	if strings.TrimSpace(addr) == "" {
		return nil, errors.New("logstash: empty address")
	}
	h := &LogstashHook{
		addr:          addr,
		dialTimeout:   2 * time.Second,
		writeTimeout:  time.Second,
		retryInterval: 5 * time.Second,
		formatter:     &logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano},
		fields:        logrus.Fields{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

func (h *LogstashHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *LogstashHook) Fire(entry *logrus.Entry) error {
	if len(h.fields) > 0 {
		data := make(logrus.Fields, len(entry.Data)+len(h.fields))
		for k, v := range h.fields {
			data[k] = v
		}
		for k, v := range entry.Data {
			data[k] = v
		}
		clone := *entry
		clone.Data = data
		entry = &clone
	}
	line, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}
	if len(line) == 0 {
		return nil
	}
	if line[len(line)-1] != '\n' {
		line = append(line, '\n')
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	if err := h.ensureConnLocked(); err != nil {
		return nil
	}
	if h.writeTimeout > 0 {
		_ = h.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
	}
	if _, err := h.conn.Write(line); err != nil {
		h.closeConnLocked()
		h.scheduleRetryLocked()
	}
	return nil
}

func (h *LogstashHook) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true
	return h.closeConnLocked()
}

func (h *LogstashHook) ensureConnLocked() error {
	if h.conn != nil {
		return nil
	}
	if !h.nextRetry.IsZero() && time.Now().Before(h.nextRetry) {
		return errRetryCooldown
	}
	conn, err := net.DialTimeout("tcp", h.addr, h.dialTimeout)
	if err != nil {
		h.scheduleRetryLocked()
		return err
	}
	h.conn = conn
	h.nextRetry = time.Time{}
	return nil
}

func (h *LogstashHook) closeConnLocked() error {
	if h.conn == nil {
		return nil
	}
	err := h.conn.Close()
	h.conn = nil
	return err
}

func (h *LogstashHook) scheduleRetryLocked() {
	if h.retryInterval <= 0 {
		h.nextRetry = time.Time{}
		return
	}
	h.nextRetry = time.Now().Add(h.retryInterval)
}
