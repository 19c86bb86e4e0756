package types

type RunMode string

const (
	// ModeLocal is the mode for running the API server and the message router together
	ModeLocal RunMode = "local"
	// ModeAPI is the mode for running just the API server
	ModeAPI RunMode = "api"
	// ModeConsumer is the mode for running just the message router
	ModeConsumer RunMode = "consumer"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
)
