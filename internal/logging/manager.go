package logging

import (
	"errors"
	"fmt"
	"os"
	"sync"
)

// LoggerManager раздаёт логгеры компонентов мира и держит общие пороги вывода
type LoggerManager struct {
	mu      sync.Mutex
	loggers map[string]*Logger

	leveled bool
	console LogLevel
	file    LogLevel
}

var globalManager = &LoggerManager{loggers: make(map[string]*Logger)}

// GetLoggerManager возвращает глобальный менеджер логгеров
func GetLoggerManager() *LoggerManager {
	return globalManager
}

// Get возвращает логгер компонента, создавая его при первом обращении.
// Если файл лога открыть не удалось, компонент пишет только в stderr.
func (lm *LoggerManager) Get(component string) *Logger {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	if l, ok := lm.loggers[component]; ok {
		return l
	}

	l, err := NewLogger(component)
	if err != nil {
		l = NewConsoleLogger(component, os.Stderr)
		l.Warn("файловый лог недоступен: %v", err)
	}
	if lm.leveled {
		l.SetLevels(lm.console, lm.file)
	}
	lm.loggers[component] = l
	return l
}

// SetLevels применяет пороги ко всем компонентам, включая созданные позже
func (lm *LoggerManager) SetLevels(console, file LogLevel) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	lm.leveled, lm.console, lm.file = true, console, file
	for _, l := range lm.loggers {
		l.SetLevels(console, file)
	}
}

// CloseAll закрывает файлы всех компонентов и забывает их логгеры
func (lm *LoggerManager) CloseAll() error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	var errs []error
	for component, l := range lm.loggers {
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("логгер %s: %w", component, err))
		}
	}
	clear(lm.loggers)
	return errors.Join(errs...)
}

// GetComponentLogger логгер компонента из глобального менеджера
func GetComponentLogger(component string) *Logger {
	return globalManager.Get(component)
}

func GetWorldLogger() *Logger {
	return GetComponentLogger("world")
}

func GetTasksLogger() *Logger {
	return GetComponentLogger("tasks")
}

func GetStorageLogger() *Logger {
	return GetComponentLogger("storage")
}
