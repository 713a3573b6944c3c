package cloudevents

import (
	"context"
	"fmt"
	"time"

	ce "github.com/cloudevents/sdk-go/v2"
	cecontext "github.com/cloudevents/sdk-go/v2/context"
	cehttp "github.com/cloudevents/sdk-go/v2/protocol/http"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dudumaluf/BOT-TextureGen/internal/dispatch"
)

// Client delivers webhook payloads as binary-mode CloudEvents, so the HTTP
// body stays the plain JSON payload and the event attributes travel as ce-*
// headers.
type Client struct {
	source    string
	eventType string
	logger    *zap.Logger
}

func NewClient(source, eventType string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		source:    source,
		eventType: eventType,
		logger:    logger,
	}
}

func (c *Client) newEvent(payload dispatch.Payload) (ce.Event, error) {
	event := ce.NewEvent()
	event.SetID(uuid.NewString())
	event.SetSource(c.source)
	event.SetType(c.eventType)
	event.SetSubject(payload.GenerationID)
	event.SetTime(time.Now())
	event.SetExtension("category", "textures")

	if err := event.SetData(ce.ApplicationJSON, payload); err != nil {
		return event, fmt.Errorf("failed to set event data: %w", err)
	}
	return event, nil
}

// Deliver implements dispatch.Sender.
func (c *Client) Deliver(ctx context.Context, target, secret string, payload dispatch.Payload) error {
	event, err := c.newEvent(payload)
	if err != nil {
		return err
	}

	opts := []cehttp.Option{cehttp.WithTarget(target)}
	if secret != "" {
		opts = append(opts, cehttp.WithHeader(dispatch.SecretHeader, secret))
	}
	protocol, err := cehttp.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create CloudEvents protocol: %w", err)
	}
	client, err := ce.NewClient(protocol)
	if err != nil {
		return fmt.Errorf("failed to create CloudEvents client: %w", err)
	}

	ctx = cecontext.WithLogger(ctx, c.logger.Sugar())
	ctx = ce.WithEncodingBinary(ctx)

	c.logger.Debug("sending event", zap.String("id", event.ID()), zap.String("target", target))
	result := client.Send(ctx, event)
	if ce.IsUndelivered(result) {
		return &dispatch.DeliveryError{Err: fmt.Errorf("failed to deliver event: %w", result)}
	}

	var httpResult *cehttp.Result
	if ce.ResultAs(result, &httpResult) && (httpResult.StatusCode < 200 || httpResult.StatusCode > 299) {
		return &dispatch.DeliveryError{StatusCode: httpResult.StatusCode, Err: result}
	}
	if !ce.IsACK(result) {
		return &dispatch.DeliveryError{Err: result}
	}
	return nil
}
