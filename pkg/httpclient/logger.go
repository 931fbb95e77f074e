package httpclient

import "fmt"

// Logger defines the logging surface the executor relies on.
type Logger interface {
	InfoObj(msg, key string, obj interface{})
	DebugObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
	ErrorObj(msg, key string, obj interface{})
}

// Level orders log calls; lower is more verbose.
type Level int

const (
	LevelDebug Level = 0
	LevelInfo  Level = 1
	LevelWarn  Level = 2
	LevelError Level = 3
)

// leveled gates calls to a sink by the configured level.
type leveled struct {
	sink  Logger
	level Level
}

func newLeveled(sink Logger, level Level) leveled {
	return leveled{sink: sink, level: level}
}

func (l leveled) enabled(at Level) bool {
	return l.sink != nil && l.level <= at
}

func (l leveled) debug(msg, key string, obj interface{}) {
	if l.enabled(LevelDebug) {
		l.sink.DebugObj(msg, key, obj)
	}
}

func (l leveled) info(msg, key string, obj interface{}) {
	if l.enabled(LevelInfo) {
		l.sink.InfoObj(msg, key, obj)
	}
}

func (l leveled) warn(msg, key string, obj interface{}) {
	if l.enabled(LevelWarn) {
		l.sink.WarnObj(msg, key, obj)
	}
}

func (l leveled) error(msg, key string, obj interface{}) {
	if l.enabled(LevelError) {
		l.sink.ErrorObj(msg, key, obj)
	}
}

// restyLogger routes resty's internal messages through the gated sink.
type restyLogger struct {
	log leveled
}

func (r restyLogger) Errorf(format string, v ...interface{}) {
	r.log.error("http transport error", "transport", fmt.Sprintf(format, v...))
}

func (r restyLogger) Warnf(format string, v ...interface{}) {
	r.log.warn("http transport warning", "transport", fmt.Sprintf(format, v...))
}

func (r restyLogger) Debugf(format string, v ...interface{}) {
	r.log.debug("http transport debug", "transport", fmt.Sprintf(format, v...))
}
