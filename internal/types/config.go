package types

type RunMode string

const (
	// ModeLocal is the mode for running the library embedded in a local host process
	ModeLocal RunMode = "local"
	// ModeService is the mode for running inside a long lived service
	ModeService RunMode = "service"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
)
