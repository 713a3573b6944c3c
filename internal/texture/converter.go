// Package texture saves image tensors as PNG files in the host output
// directory and builds the view paths the host serves them under.
package texture

import (
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dudumaluf/BOT-TextureGen/internal/outputdir"
	"github.com/dudumaluf/BOT-TextureGen/internal/tensor"
)

const FilenamePrefix = "automata"

var (
	ErrNotSaved      = errors.New("file was not saved")
	ErrOutsideOutput = errors.New("file is outside the output directory")
)

// Record describes one saved texture file.
type Record struct {
	Kind      Kind
	Path      string
	Filename  string
	Subfolder string
	Size      int64
}

// ViewPath returns the host view URL path for the record.
func (r Record) ViewPath() string {
	return ViewPath(r.Filename, r.Subfolder)
}

// ViewPath builds /view?filename=..&subfolder=..&type=output. Subfolder
// segments are escaped individually so separators stay as forward slashes.
func ViewPath(filename, subfolder string) string {
	var encoded string
	if subfolder != "" {
		segments := strings.Split(subfolder, "/")
		for i, s := range segments {
			segments[i] = url.QueryEscape(s)
		}
		encoded = strings.Join(segments, "/")
	}
	return "/view?filename=" + url.QueryEscape(filename) + "&subfolder=" + encoded + "&type=output"
}

// Filename returns automata_{generationID}_{kind}_{suffix}.png.
func Filename(generationID string, kind Kind, suffix string) string {
	return fmt.Sprintf("%s_%s_%s_%s.png", FilenamePrefix, sanitize(generationID), kind, suffix)
}

// sanitize keeps generation ids from introducing path components.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, s)
}

// RandomSuffix returns 8 random hex characters.
func RandomSuffix() string {
	id := uuid.New()
	return hex.EncodeToString(id[:4])
}

// Converter writes tensors to disk as PNG files.
type Converter struct {
	resolver  outputdir.Resolver
	subfolder string
	suffix    func() string
	encode    func(io.Writer, image.Image) error
	logger    *zap.Logger
}

type Option func(*Converter)

// WithSubfolder places saved files in a subdirectory of the output directory.
func WithSubfolder(subfolder string) Option {
	return func(c *Converter) { c.subfolder = subfolder }
}

// WithSuffix overrides the random filename suffix generator.
func WithSuffix(fn func() string) Option {
	return func(c *Converter) { c.suffix = fn }
}

func NewConverter(resolver outputdir.Resolver, logger *zap.Logger, opts ...Option) *Converter {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Converter{
		resolver: resolver,
		suffix:   RandomSuffix,
		encode:   png.Encode,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Convert saves the tensor and returns its view path. Failures are logged and
// reported as ok=false so the caller can skip the texture.
func (c *Converter) Convert(t *tensor.Image, kind Kind, generationID string) (string, bool) {
	rec, err := c.Save(t, kind, generationID)
	if err != nil {
		c.logger.Error("error saving texture",
			zap.String("kind", kind.String()),
			zap.String("generation_id", generationID),
			zap.Error(err),
		)
		return "", false
	}
	c.logger.Info("saved texture",
		zap.String("kind", kind.String()),
		zap.String("path", rec.Path),
		zap.Int64("bytes", rec.Size),
	)
	return rec.ViewPath(), true
}

// Save encodes the tensor as PNG under the resolved output directory.
func (c *Converter) Save(t *tensor.Image, kind Kind, generationID string) (Record, error) {
	img, err := t.ToImage()
	if err != nil {
		return Record{}, fmt.Errorf("convert tensor: %w", err)
	}

	root, err := c.resolver.OutputDirectory()
	if err != nil {
		return Record{}, fmt.Errorf("resolve output directory: %w", err)
	}
	dir := filepath.Join(root, filepath.FromSlash(c.subfolder))
	if !outputdir.Contains(root, dir) {
		return Record{}, fmt.Errorf("%w: %s", ErrOutsideOutput, dir)
	}
	created, err := outputdir.Ensure(dir)
	if err != nil {
		return Record{}, err
	}
	if created {
		c.logger.Info("created output directory", zap.String("path", dir))
	}

	name := Filename(generationID, kind, c.suffix())
	path := filepath.Join(dir, name)
	c.logger.Debug("saving texture", zap.String("path", path))

	f, err := os.Create(path)
	if err != nil {
		return Record{}, fmt.Errorf("create %s: %w", path, err)
	}
	if err := c.encode(f, img); err != nil {
		f.Close()
		c.discard(path)
		return Record{}, fmt.Errorf("encode png: %w", err)
	}
	if err := f.Close(); err != nil {
		c.discard(path)
		return Record{}, fmt.Errorf("close %s: %w", path, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %s: %v", ErrNotSaved, path, err)
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrOutsideOutput, err)
	}
	subfolder := filepath.Dir(rel)
	if subfolder == "." {
		subfolder = ""
	}
	return Record{
		Kind:      kind,
		Path:      path,
		Filename:  filepath.Base(rel),
		Subfolder: strings.ReplaceAll(filepath.ToSlash(subfolder), `\`, "/"),
		Size:      info.Size(),
	}, nil
}

// discard removes a partially written file so it cannot be served.
func (c *Converter) discard(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		c.logger.Warn("failed to remove partial texture", zap.String("path", path), zap.Error(err))
	}
}
