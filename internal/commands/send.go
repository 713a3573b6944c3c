package commands

import (
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	_ "golang.org/x/image/webp"

	"github.com/dudumaluf/BOT-TextureGen/internal/node"
	"github.com/dudumaluf/BOT-TextureGen/internal/tensor"
	"github.com/dudumaluf/BOT-TextureGen/internal/texture"
)

var (
	sendWebhookURL   string
	sendGenerationID string
	sendSecret       string
	sendTextures     = make(map[texture.Kind]*string)
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Save textures and notify the webhook once",
	Long: `Execute the webhook node once with textures read from files.

Texture files may be PNG, JPEG, GIF or WebP images, or JSON tensors of the form
{"shape":[1,H,W,C],"data":[...]}.

Examples:
  automata send --generation-id g1 --diffuse albedo.png
  automata send --generation-id g1 --webhook-url http://localhost:3000/api/webhook/comfyui \
    --diffuse albedo.png --normal normal.png --height height.json`,
	Args: cobra.NoArgs,
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().StringVar(&sendWebhookURL, "webhook-url", "", "Webhook URL (default: WEBHOOK_URL)")
	sendCmd.Flags().StringVar(&sendGenerationID, "generation-id", "", "Generation identifier")
	sendCmd.Flags().StringVar(&sendSecret, "secret", "", "Webhook secret (default: WEBHOOK_SECRET)")
	for _, k := range texture.Kinds {
		flag := strings.ReplaceAll(k.String(), "_", "-")
		sendTextures[k] = sendCmd.Flags().String(flag, "", fmt.Sprintf("%s texture file", k))
	}
}

func runSend(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.logger.Sync()

	n, err := a.registry.Lookup(node.WebhookNodeName)
	if err != nil {
		return err
	}

	inputs := node.Inputs{"generationId": sendGenerationID}
	if cmd.Flags().Changed("webhook-url") {
		inputs["webhook_url"] = sendWebhookURL
	}
	if cmd.Flags().Changed("secret") {
		inputs["webhook_secret"] = sendSecret
	}
	for _, k := range texture.Kinds {
		path := *sendTextures[k]
		if path == "" {
			continue
		}
		t, err := loadTensor(path)
		if err != nil {
			return fmt.Errorf("failed to load %s texture: %w", k, err)
		}
		inputs[k.String()] = t
	}

	result, err := n.Execute(cmd.Context(), inputs)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

// loadTensor reads a JSON tensor or decodes an image file into a [1,H,W,3]
// tensor.
func loadTensor(path string) (*tensor.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		var t tensor.Image
		if err := json.NewDecoder(f).Decode(&t); err != nil {
			return nil, fmt.Errorf("decode tensor: %w", err)
		}
		return tensor.New(t.Shape, t.Data)
	}

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return tensor.FromImage(img), nil
}
