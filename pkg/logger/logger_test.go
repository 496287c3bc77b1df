package logger

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, zerolog.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("info"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel(" WARN "), "trimmed and case-folded")

	// A misconfigured level must not disable logging.
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("verbose"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel(""))
}

func TestNewSetsGlobalLevel(t *testing.T) {
	New(Config{Level: "error"})
	assert.Equal(t, zerolog.ErrorLevel, zerolog.GlobalLevel())

	New(Config{Level: "debug", Pretty: true})
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}
