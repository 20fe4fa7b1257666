package config

import "errors"

// Error variables for configuration loading.
var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrConfigFileRead     = errors.New("cannot read config file")
	ErrConfigInvalid      = errors.New("invalid config file")
	ErrConfigExists       = errors.New("config file already exists")
	ErrStorePathEmpty     = errors.New("store path cannot be empty")
	ErrStoreAddress       = errors.New("invalid store address")
	ErrLogLevel           = errors.New("unknown log level")
	ErrLogFormat          = errors.New("unknown log format")
	ErrPollTimeout        = errors.New("poll_timeout must not be negative")
	ErrAliasKind          = errors.New("unknown command in aliases")
)
