package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedaction(t *testing.T) {
	log, logs := NewObserved(true)

	log.Info("forwarding",
		"internal_token", "abc",
		"collection_id", "C1",
		"header", "eyJhbGciOiJIUzI1NiJ9.eyJ1c2VySWQiOiJ1MSJ9.sig",
	)

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "[REDACTED]", fields["internal_token"])
	assert.Equal(t, "C1", fields["collection_id"])
	assert.Equal(t, "[REDACTED]", fields["header"])
}

func TestRedactionDisabled(t *testing.T) {
	log, logs := NewObserved(false)

	log.With("service", "test").Warn("raw", "token", "abc")

	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "abc", fields["token"])
	assert.Equal(t, "test", fields["service"])
}
