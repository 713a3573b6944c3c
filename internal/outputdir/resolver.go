// Package outputdir resolves the directory nodes write their files into.
package outputdir

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

var ErrUnavailable = errors.New("output directory not available")

// Resolver returns a writable output directory.
type Resolver interface {
	OutputDirectory() (string, error)
}

// Func adapts a function to a Resolver.
type Func func() (string, error)

func (f Func) OutputDirectory() (string, error) { return f() }

// Host resolves to the output directory configured by the graph host.
func Host(dir string) Resolver {
	return Func(func() (string, error) {
		if dir == "" {
			return "", ErrUnavailable
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return abs, nil
	})
}

// Default resolves to ./output under the current working directory.
func Default() Resolver {
	return Func(func() (string, error) {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("get working directory: %w", err)
		}
		return filepath.Join(wd, "output"), nil
	})
}

type fallback struct {
	primary   Resolver
	secondary Resolver
	logger    *zap.Logger
}

// WithFallback tries primary and falls back to secondary when it fails.
func WithFallback(primary, secondary Resolver, logger *zap.Logger) Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &fallback{primary: primary, secondary: secondary, logger: logger}
}

func (f *fallback) OutputDirectory() (string, error) {
	dir, err := f.primary.OutputDirectory()
	if err == nil {
		f.logger.Debug("using host output directory", zap.String("path", dir))
		return dir, nil
	}
	f.logger.Info("could not get host output directory", zap.Error(err))

	dir, err = f.secondary.OutputDirectory()
	if err != nil {
		return "", err
	}
	f.logger.Info("using fallback output directory", zap.String("path", dir))
	return dir, nil
}

// Ensure creates dir when it does not exist and reports whether it did.
func Ensure(dir string) (bool, error) {
	info, err := os.Stat(dir)
	switch {
	case err == nil && info.IsDir():
		return false, nil
	case err == nil:
		return false, fmt.Errorf("output path %s is not a directory", dir)
	case !errors.Is(err, os.ErrNotExist):
		return false, fmt.Errorf("stat output directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("create output directory: %w", err)
	}
	return true, nil
}

// Contains reports whether path lies inside root after cleaning.
func Contains(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
