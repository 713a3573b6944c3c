package outputdir

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestHost(t *testing.T) {
	dir := t.TempDir()
	got, err := Host(dir).OutputDirectory()
	require.NoError(t, err)
	assert.Equal(t, dir, got)

	_, err = Host("").OutputDirectory()
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestDefault(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)

	got, err := Default().OutputDirectory()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "output"), got)
}

func TestWithFallback(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	failing := Func(func() (string, error) { return "", errors.New("no host") })
	secondary := Host("/srv/out")

	got, err := WithFallback(failing, secondary, zap.New(core)).OutputDirectory()
	require.NoError(t, err)
	assert.Equal(t, "/srv/out", got)
	assert.Equal(t, 1, logs.FilterMessage("using fallback output directory").Len())

	got, err = WithFallback(Host("/srv/host"), failing, nil).OutputDirectory()
	require.NoError(t, err)
	assert.Equal(t, "/srv/host", got)
}

func TestWithFallbackBothFail(t *testing.T) {
	failing := Func(func() (string, error) { return "", ErrUnavailable })
	_, err := WithFallback(failing, failing, nil).OutputDirectory()
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestEnsure(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	created, err := Ensure(dir)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = Ensure(dir)
	require.NoError(t, err)
	assert.False(t, created)

	file := filepath.Join(dir, "f")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err = Ensure(file)
	assert.Error(t, err)
}

func TestContains(t *testing.T) {
	assert.True(t, Contains("/out", "/out"))
	assert.True(t, Contains("/out", "/out/a/b.png"))
	assert.True(t, Contains("/out", "/out/..a"))
	assert.False(t, Contains("/out", "/out/../etc/passwd"))
	assert.False(t, Contains("/out", "/elsewhere"))
}
