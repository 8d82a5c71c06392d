package logrus

import (
	"github.com/sirupsen/logrus"

	"github.com/unkn0wn-root/slabcache"
)

var _ slabcache.Logger = LogrusLogger{}

// LogrusLogger forwards slab logs to a logrus entry. An "err" field holding an
// error is moved to logrus.ErrorKey so hooks and formatters treat it as the
// entry's error.
type LogrusLogger struct{ E *logrus.Entry }

// New tags every entry with component=slabcache.
func New(l *logrus.Logger) LogrusLogger {
	return LogrusLogger{E: l.WithField("component", "slabcache")}
}

func (l LogrusLogger) Debug(msg string, f slabcache.Fields) { l.with(f).Debug(msg) }
func (l LogrusLogger) Info(msg string, f slabcache.Fields)  { l.with(f).Info(msg) }
func (l LogrusLogger) Warn(msg string, f slabcache.Fields)  { l.with(f).Warn(msg) }
func (l LogrusLogger) Error(msg string, f slabcache.Fields) { l.with(f).Error(msg) }

func (l LogrusLogger) with(f slabcache.Fields) *logrus.Entry {
	if len(f) == 0 {
		return l.E
	}
	lf := make(logrus.Fields, len(f))
	for k, v := range f {
		if err, ok := v.(error); ok && k == "err" {
			lf[logrus.ErrorKey] = err
			continue
		}
		lf[k] = v
	}
	return l.E.WithFields(lf)
}
