package logger

import (
	"sync"
)

var (
	globalMu     sync.RWMutex
	globalLogger *Logger
	named        = make(map[string]*Logger)
)

// SetGlobal replaces the process logger used by Get.
func SetGlobal(l *Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = l
	named = make(map[string]*Logger)
}

// Global returns the process logger, creating a default one if needed.
func Global() *Logger {
	globalMu.RLock()
	l := globalLogger
	globalMu.RUnlock()
	if l != nil {
		return l
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger == nil {
		globalLogger = NewDefault("vidscribe")
	}
	return globalLogger
}

// Register stores a named logger.
func Register(name string, l *Logger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	named[name] = l
}

// Get retrieves a named logger. If the name is not registered it returns the
// global logger tagged with the requested component name.
func Get(name string) *Logger {
	globalMu.RLock()
	l, ok := named[name]
	globalMu.RUnlock()
	if ok {
		return l
	}
	return Global().WithComponent(name)
}
