package node

import (
	"context"

	"github.com/dudumaluf/BOT-TextureGen/internal/dispatch"
	"github.com/dudumaluf/BOT-TextureGen/internal/tensor"
	"github.com/dudumaluf/BOT-TextureGen/internal/texture"
)

const WebhookNodeName = "WebhookNode"

// Sender runs one save-and-notify pass.
type Sender interface {
	Send(ctx context.Context, req dispatch.Request) dispatch.Outcome
}

// WebhookNode saves its image inputs and posts their URLs to a webhook.
type WebhookNode struct {
	sender            Sender
	defaultWebhookURL string
	defaultSecret     string
}

func NewWebhookNode(sender Sender, defaultWebhookURL, defaultSecret string) *WebhookNode {
	return &WebhookNode{
		sender:            sender,
		defaultWebhookURL: defaultWebhookURL,
		defaultSecret:     defaultSecret,
	}
}

func (n *WebhookNode) Definition() Definition {
	optional := make([]Input, 0, len(texture.Kinds))
	for _, k := range texture.Kinds {
		optional = append(optional, Input{Name: k.String(), Type: TypeImage})
	}
	return Definition{
		Name:        WebhookNodeName,
		DisplayName: "Send to Webhook",
		Category:    "AUTOMATA",
		Function:    "send_webhook",
		Required: []Input{
			{Name: "webhook_url", Type: TypeString, Default: n.defaultWebhookURL},
			{Name: "generationId", Type: TypeString},
			{Name: "webhook_secret", Type: TypeString},
		},
		Optional:    optional,
		ReturnTypes: []string{},
		OutputNode:  true,
	}
}

// Execute never fails; delivery problems are logged by the dispatcher and
// reported in the returned outcome. An empty webhook_secret falls back to the
// configured secret, which the definition never exposes.
func (n *WebhookNode) Execute(ctx context.Context, inputs Inputs) (any, error) {
	req := dispatch.Request{
		WebhookURL:   inputs.String("webhook_url", n.defaultWebhookURL),
		GenerationID: inputs.String("generationId", ""),
		Secret:       inputs.String("webhook_secret", ""),
		Textures:     make(map[texture.Kind]*tensor.Image),
	}
	if req.Secret == "" {
		req.Secret = n.defaultSecret
	}
	for _, k := range texture.Kinds {
		if img := inputs.Image(k.String()); img != nil {
			req.Textures[k] = img
		}
	}
	return n.sender.Send(ctx, req), nil
}
