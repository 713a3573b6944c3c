package node

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dudumaluf/BOT-TextureGen/internal/dispatch"
	"github.com/dudumaluf/BOT-TextureGen/internal/tensor"
	"github.com/dudumaluf/BOT-TextureGen/internal/texture"
)

type stubSender struct {
	got dispatch.Request
}

func (s *stubSender) Send(_ context.Context, req dispatch.Request) dispatch.Outcome {
	s.got = req
	return dispatch.Outcome{Status: dispatch.StatusDelivered}
}

func TestWebhookNodeDefinition(t *testing.T) {
	def := NewWebhookNode(&stubSender{}, "http://localhost:3000/api/webhook/comfyui", "").Definition()

	assert.Equal(t, "WebhookNode", def.Name)
	assert.Equal(t, "Send to Webhook", def.DisplayName)
	assert.Equal(t, "AUTOMATA", def.Category)
	assert.True(t, def.OutputNode)
	assert.Empty(t, def.ReturnTypes)

	require.Len(t, def.Required, 3)
	assert.Equal(t, "webhook_url", def.Required[0].Name)
	assert.Equal(t, "http://localhost:3000/api/webhook/comfyui", def.Required[0].Default)
	assert.Equal(t, "generationId", def.Required[1].Name)
	assert.Empty(t, def.Required[1].Default)

	var optional []string
	for _, in := range def.Optional {
		assert.Equal(t, TypeImage, in.Type)
		optional = append(optional, in.Name)
	}
	assert.Equal(t, []string{"diffuse", "normal", "height", "thumbnail", "depth_preview", "front_preview"}, optional)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	n := NewWebhookNode(&stubSender{}, "", "")
	require.NoError(t, r.Register(n))
	assert.ErrorIs(t, r.Register(n), ErrDuplicateNode)

	got, err := r.Lookup("WebhookNode")
	require.NoError(t, err)
	assert.Same(t, n, got)

	_, err = r.Lookup("Nope")
	assert.ErrorIs(t, err, ErrUnknownNode)

	assert.Len(t, r.Definitions(), 1)
	assert.Equal(t, map[string]string{"WebhookNode": "Send to Webhook"}, r.DisplayNames())
}

func TestDecodeInputs(t *testing.T) {
	def := NewWebhookNode(&stubSender{}, "http://default/hook", "").Definition()
	raw := map[string]json.RawMessage{
		"generationId": json.RawMessage(`"g1"`),
		"diffuse":      json.RawMessage(`{"shape":[1,1,1,3],"data":[0,0.5,1]}`),
		"normal":       json.RawMessage(`{"shape":[2,2,3],"data":[1]}`),
		"height":       json.RawMessage(`"not a tensor"`),
		"thumbnail":    json.RawMessage(`null`),
		"extra":        json.RawMessage(`1`),
	}

	inputs, err := DecodeInputs(def, raw, nil)
	require.NoError(t, err)

	assert.Equal(t, "http://default/hook", inputs.String("webhook_url", ""))
	assert.Equal(t, "g1", inputs.String("generationId", ""))
	assert.Equal(t, "", inputs.String("webhook_secret", "x"))
	require.NotNil(t, inputs.Image("diffuse"))
	assert.Equal(t, []int{1, 1, 1, 3}, inputs.Image("diffuse").Shape)
	assert.Nil(t, inputs.Image("normal"))
	assert.Nil(t, inputs.Image("height"))
	assert.Nil(t, inputs.Image("thumbnail"))
	assert.NotContains(t, inputs, "extra")
}

func TestDecodeInputsRejectsBadString(t *testing.T) {
	def := NewWebhookNode(&stubSender{}, "", "").Definition()
	_, err := DecodeInputs(def, map[string]json.RawMessage{"generationId": json.RawMessage(`42`)}, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestWebhookNodeExecute(t *testing.T) {
	sender := &stubSender{}
	n := NewWebhookNode(sender, "http://default/hook", "default-secret")
	img := &tensor.Image{Shape: []int{1, 1, 3}, Data: []float32{0, 0, 0}}

	out, err := n.Execute(context.Background(), Inputs{
		"generationId": "g1",
		"diffuse":      img,
		"normal":       (*tensor.Image)(nil),
	})
	require.NoError(t, err)
	assert.Equal(t, dispatch.Outcome{Status: dispatch.StatusDelivered}, out)

	assert.Equal(t, "http://default/hook", sender.got.WebhookURL)
	assert.Equal(t, "g1", sender.got.GenerationID)
	assert.Equal(t, "default-secret", sender.got.Secret)
	assert.Equal(t, map[texture.Kind]*tensor.Image{texture.Diffuse: img}, sender.got.Textures)
}

func TestWebhookNodeSecretFallback(t *testing.T) {
	sender := &stubSender{}
	n := NewWebhookNode(sender, "http://default/hook", "server-secret")

	def := n.Definition()
	require.Equal(t, "webhook_secret", def.Required[2].Name)
	assert.Empty(t, def.Required[2].Default)

	inputs, err := DecodeInputs(def, map[string]json.RawMessage{
		"generationId": json.RawMessage(`"g1"`),
	}, nil)
	require.NoError(t, err)
	_, err = n.Execute(context.Background(), inputs)
	require.NoError(t, err)
	assert.Equal(t, "server-secret", sender.got.Secret)

	_, err = n.Execute(context.Background(), Inputs{"generationId": "g1", "webhook_secret": "per-call"})
	require.NoError(t, err)
	assert.Equal(t, "per-call", sender.got.Secret)
}
