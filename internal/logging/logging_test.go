package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/zerr"
)

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := New(&buf, Config{Level: "warn"})
	require.NoError(t, err)
	defer closer.Close()

	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"message":"shown"`)
}

func TestNew_InvalidLevel(t *testing.T) {
	_, _, err := New(&bytes.Buffer{}, Config{Level: "loud"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "cssdts.log")

	logger, closer, err := New(&bytes.Buffer{}, Config{File: path})
	require.NoError(t, err)

	registryLog := For(logger, "registry")
	registryLog.Info().Msg("compiled")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"source":"registry"`)
	assert.Contains(t, string(data), `"message":"compiled"`)
}

func TestErr_Metadata(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := New(&buf, Config{})
	require.NoError(t, err)

	failure := zerr.With(zerr.New("compile failed"), "path", "/src/a.less")
	Err(logger.Warn(), failure).Msg("update failed")

	assert.Contains(t, buf.String(), `"path":"/src/a.less"`)
	assert.Contains(t, buf.String(), "compile failed")
}
