package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviceIDPersists(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "carts")

	first, err := deviceID(dir, log.New(io.Discard))
	require.NoError(t, err)
	_, err = uuid.Parse(first)
	require.NoError(t, err)

	second, err := deviceID(dir, log.New(io.Discard))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDeviceIDReplacesGarbage(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, deviceFile), []byte("not-a-uuid"), 0o600))

	var logs bytes.Buffer
	id, err := deviceID(dir, log.New(&logs))
	require.NoError(t, err)
	assert.NotEqual(t, "not-a-uuid", id)
	assert.Contains(t, logs.String(), "Replacing invalid device id")

	again, err := deviceID(dir, log.New(io.Discard))
	require.NoError(t, err)
	assert.Equal(t, id, again)
}
