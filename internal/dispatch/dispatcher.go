// Package dispatch saves the textures of one generation and notifies the
// webhook that they are ready.
package dispatch

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dudumaluf/BOT-TextureGen/internal/tensor"
	"github.com/dudumaluf/BOT-TextureGen/internal/texture"
)

// DefaultBaseURL prefixes view paths when COMFYUI_BASE_URL is not set.
const DefaultBaseURL = "https://employ-predictions-wednesday-trust.trycloudflare.com"

type Status string

const (
	StatusSkipped    Status = "skipped"
	StatusNoTextures Status = "no_textures"
	StatusDelivered  Status = "delivered"
	StatusFailed     Status = "failed"
)

// Converter saves a tensor and returns the view path it is served under.
type Converter interface {
	Convert(t *tensor.Image, kind texture.Kind, generationID string) (string, bool)
}

// Request is one node invocation.
type Request struct {
	WebhookURL   string
	GenerationID string
	Secret       string
	Textures     map[texture.Kind]*tensor.Image
}

// Outcome reports what an invocation did. It never carries an error back to
// the host.
type Outcome struct {
	Status     Status            `json:"status"`
	Textures   map[string]string `json:"textures,omitempty"`
	StatusCode int               `json:"statusCode,omitempty"`
}

type Dispatcher struct {
	converter Converter
	sender    Sender
	baseURL   string
	timeout   time.Duration
	logger    *zap.Logger
}

type Option func(*Dispatcher)

// WithBaseURL sets the public prefix for view paths.
func WithBaseURL(baseURL string) Option {
	return func(d *Dispatcher) {
		if baseURL != "" {
			d.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithTimeout bounds the webhook delivery.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

func New(converter Converter, sender Sender, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		converter: converter,
		sender:    sender,
		baseURL:   DefaultBaseURL,
		timeout:   DefaultTimeout,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Send converts every supplied texture and posts their URLs to the webhook.
// Every failure is logged and absorbed.
func (d *Dispatcher) Send(ctx context.Context, req Request) Outcome {
	hasURL := strings.TrimSpace(req.WebhookURL) != ""
	hasID := strings.TrimSpace(req.GenerationID) != ""
	if !hasURL || !hasID {
		d.logger.Error("missing webhook_url or generationId",
			zap.Bool("has_webhook_url", hasURL),
			zap.Bool("has_generation_id", hasID),
		)
		return Outcome{Status: StatusSkipped}
	}
	log := d.logger.With(zap.String("generation_id", req.GenerationID))

	textures := make(map[string]string)
	var sent []string
	for _, kind := range texture.Kinds {
		t, ok := req.Textures[kind]
		if !ok || t.Empty() {
			continue
		}
		log.Debug("processing texture", zap.String("kind", kind.String()), zap.Any("shape", t.Shape))

		path, ok := d.converter.Convert(t, kind, req.GenerationID)
		if !ok {
			continue
		}
		textures[kind.String()] = d.baseURL + path
		sent = append(sent, kind.String())
		log.Info("texture ready", zap.String("kind", kind.String()), zap.String("url", textures[kind.String()]))
	}

	if len(textures) == 0 {
		log.Warn("no valid textures to send")
		return Outcome{Status: StatusNoTextures}
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	payload := Payload{GenerationID: req.GenerationID, Textures: textures}
	if err := d.sender.Deliver(ctx, req.WebhookURL, req.Secret, payload); err != nil {
		fields := []zap.Field{zap.String("url", req.WebhookURL), zap.Error(err)}
		out := Outcome{Status: StatusFailed, Textures: textures}

		var de *DeliveryError
		if errors.As(err, &de) && de.StatusCode != 0 {
			fields = append(fields, zap.Int("status", de.StatusCode))
			if de.Body != "" {
				fields = append(fields, zap.String("body", de.Body))
			}
			out.StatusCode = de.StatusCode
		}
		log.Error("failed to send webhook", fields...)
		return out
	}

	log.Info("sent webhook", zap.Strings("textures", sent))
	return Outcome{Status: StatusDelivered, Textures: textures}
}
