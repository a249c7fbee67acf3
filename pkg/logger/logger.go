package logger

// Instance is a logging backend. The package-level functions fan out to
// every configured instance.
type Instance interface {
	Log(message string, keyvals ...any)
	Debug(message string, keyvals ...any)
	Info(message string, keyvals ...any)
	Warn(message string, keyvals ...any)
	Error(message string, keyvals ...any)
	Fatal(message string, keyvals ...any)
}

var instances []Instance

// Init configures the global logger with one or more backends.
// Calls before Init are silently dropped.
func Init(backends ...Instance) {
	instances = backends
}

// Log writes a message at the default log level.
func Log(message string, keyvals ...any) {
	for _, instance := range instances {
		instance.Log(message, keyvals...)
	}
}

// Debug writes a message at DEBUG level.
func Debug(message string, keyvals ...any) {
	for _, instance := range instances {
		instance.Debug(message, keyvals...)
	}
}

// Info writes a message at INFO level.
func Info(message string, keyvals ...any) {
	for _, instance := range instances {
		instance.Info(message, keyvals...)
	}
}

// Warn writes a message at WARN level.
func Warn(message string, keyvals ...any) {
	for _, instance := range instances {
		instance.Warn(message, keyvals...)
	}
}

// Error writes a message at ERROR level.
func Error(message string, keyvals ...any) {
	for _, instance := range instances {
		instance.Error(message, keyvals...)
	}
}

// Fatal writes a message at FATAL level and terminates the program.
func Fatal(message string, keyvals ...any) {
	for _, instance := range instances {
		instance.Fatal(message, keyvals...)
	}
}
