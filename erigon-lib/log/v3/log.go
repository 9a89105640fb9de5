// Package log is a small leveled, structured logger in the shape erigon
// itself uses everywhere ("msg", "k1", v1, "k2", v2, ...): a package-level
// default Logger plus free functions that delegate to it.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

type Lvl int

const (
	LvlError Lvl = iota
	LvlWarn
	LvlInfo
	LvlDebug
	LvlTrace
)

func (l Lvl) String() string {
	switch l {
	case LvlError:
		return "EROR"
	case LvlWarn:
		return "WARN"
	case LvlInfo:
		return "INFO"
	case LvlDebug:
		return "DBUG"
	case LvlTrace:
		return "TRCE"
	default:
		return "????"
	}
}

// Logger is the interface stage/orchestrator/remotestore code logs through,
// so tests can substitute a recording logger.
type Logger interface {
	Error(msg string, ctx ...interface{})
	Warn(msg string, ctx ...interface{})
	Info(msg string, ctx ...interface{})
	Debug(msg string, ctx ...interface{})
	Trace(msg string, ctx ...interface{})
	New(ctx ...interface{}) Logger
}

type logger struct {
	mu     *sync.Mutex
	out    io.Writer
	lvl    Lvl
	prefix []interface{}
}

// New returns a logger writing to stderr at LvlInfo.
func New(ctx ...interface{}) Logger {
	return &logger{mu: &sync.Mutex{}, out: os.Stderr, lvl: LvlInfo, prefix: ctx}
}

// NewWithLevel returns a logger writing to w at the given level, used by
// the cmd/ CLI's --verbosity flag.
func NewWithLevel(w io.Writer, lvl Lvl) Logger {
	return &logger{mu: &sync.Mutex{}, out: w, lvl: lvl}
}

func (l *logger) New(ctx ...interface{}) Logger {
	return &logger{mu: l.mu, out: l.out, lvl: l.lvl, prefix: append(append([]interface{}{}, l.prefix...), ctx...)}
}

func (l *logger) write(lvl Lvl, msg string, ctx []interface{}) {
	if lvl > l.lvl {
		return
	}
	var sb strings.Builder
	sb.WriteString(time.Now().Format("01-02|15:04:05.000"))
	sb.WriteByte(' ')
	sb.WriteString(lvl.String())
	sb.WriteByte(' ')
	sb.WriteString(msg)
	all := append(append([]interface{}{}, l.prefix...), ctx...)
	for i := 0; i+1 < len(all); i += 2 {
		fmt.Fprintf(&sb, " %v=%v", all[i], all[i+1])
	}
	sb.WriteByte('\n')
	l.mu.Lock()
	defer l.mu.Unlock()
	io.WriteString(l.out, sb.String())
}

func (l *logger) Error(msg string, ctx ...interface{}) { l.write(LvlError, msg, ctx) }
func (l *logger) Warn(msg string, ctx ...interface{})  { l.write(LvlWarn, msg, ctx) }
func (l *logger) Info(msg string, ctx ...interface{})  { l.write(LvlInfo, msg, ctx) }
func (l *logger) Debug(msg string, ctx ...interface{}) { l.write(LvlDebug, msg, ctx) }
func (l *logger) Trace(msg string, ctx ...interface{}) { l.write(LvlTrace, msg, ctx) }

var root Logger = New()

// SetRoot replaces the package-level default logger, used by cmd/synclight
// to wire --verbosity into the free functions below.
func SetRoot(l Logger) { root = l }

func Error(msg string, ctx ...interface{}) { root.Error(msg, ctx...) }
func Warn(msg string, ctx ...interface{})  { root.Warn(msg, ctx...) }
func Info(msg string, ctx ...interface{})  { root.Info(msg, ctx...) }
func Debug(msg string, ctx ...interface{}) { root.Debug(msg, ctx...) }
func Trace(msg string, ctx ...interface{}) { root.Trace(msg, ctx...) }

func LvlFromString(s string) (Lvl, error) {
	switch strings.ToLower(s) {
	case "error", "eror":
		return LvlError, nil
	case "warn":
		return LvlWarn, nil
	case "info":
		return LvlInfo, nil
	case "debug", "dbug":
		return LvlDebug, nil
	case "trace", "trce":
		return LvlTrace, nil
	default:
		return LvlInfo, fmt.Errorf("unknown log level %q", s)
	}
}
