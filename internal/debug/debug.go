// Package debug - явный отладочный контекст, передаваемый компонентам
// вместо глобальных хуков. Выключенная реализация ничего не делает.
package debug

import "log"

type Context interface {
	Enabled() bool
	Logf(format string, args ...interface{})
}

type nopContext struct{}

func (nopContext) Enabled() bool               { return false }
func (nopContext) Logf(string, ...interface{}) {}

// Nop возвращает выключенный отладочный контекст (умолчание)
func Nop() Context {
	return nopContext{}
}

type logContext struct {
	logger *log.Logger
}

func (c *logContext) Enabled() bool { return true }

func (c *logContext) Logf(format string, args ...interface{}) {
	c.logger.Printf("[Debug] "+format, args...)
}

// NewLog возвращает контекст, пишущий в переданный логгер
func NewLog(logger *log.Logger) Context {
	if logger == nil {
		logger = log.Default()
	}
	return &logContext{logger: logger}
}
