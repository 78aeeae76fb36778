package logsvc

import (
	"log"

	"github.com/eduNEXT/extemporaneous-grading/core"
)

// StdLogger prints to a standard library logger only. Used in DEV/TEST mode
// where shipping logs to Rollbar is unwanted.
type StdLogger struct {
	std     *log.Logger
	enabled bool
}

var _ core.Logger = (*StdLogger)(nil)

func NewStdLogger(std *log.Logger) *StdLogger {
	return &StdLogger{std: std, enabled: true}
}

func (l *StdLogger) Enable(enabled bool) { l.enabled = enabled }

func (l *StdLogger) print(msg string, args []interface{}) {
	if !l.enabled {
		return
	}
	l.std.Println(msg)
	for _, arg := range args {
		l.std.Printf("%+v\n", arg)
	}
}

func (l *StdLogger) Debug(msg string, args ...interface{}) { l.print(msg, args) }
func (l *StdLogger) Info(msg string, args ...interface{})  { l.print(msg, args) }
func (l *StdLogger) Warn(msg string, args ...interface{})  { l.print(msg, args) }
func (l *StdLogger) Error(msg string, args ...interface{}) { l.print(msg, args) }

func (l *StdLogger) Fatal(msg string, args ...interface{}) {
	l.print(msg, args)
	l.std.Fatal(msg)
}
