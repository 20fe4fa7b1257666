package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
)

// defaultTemplate is written by WriteDefault. It mirrors DefaultConfig.
const defaultTemplate = `{
	// Telegram bot token. The TOKEN environment variable takes precedence.
	// "token": "",

	// Where issues are kept: "sqlite", "file" (JSON document) or "memory".
	// Relative paths are resolved against the working directory.
	"store": {
		"driver": "sqlite",
		"path": ".cuckoodo/issues.db",
	},

	// Log level: debug, info, warn or error. Format: text or json.
	"log": {
		"level": "info",
		"format": "text",
	},

	// Telegram long polling timeout in seconds.
	"poll_timeout": 30,

	// Extra command words, merged over the built-in ones.
	// "aliases": {
	//	"add": ["купи"],
	//	"list": ["чё"],
	// },
}
`

// WriteDefault writes the commented default config to dir/.cuckoodo.json.
// It refuses to overwrite an existing file.
func WriteDefault(dir string) (string, error) {
	path := filepath.Join(dir, ConfigFileName)

	_, err := os.Stat(path)
	if err == nil {
		return "", fmt.Errorf("%w: %s", ErrConfigExists, path)
	}

	if !os.IsNotExist(err) {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}

	err = atomic.WriteFile(path, strings.NewReader(defaultTemplate))
	if err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}

	return path, nil
}
