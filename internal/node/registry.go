// Package node exposes nodes to the graph host: their input definitions,
// registration under a class name, and decoding of host-supplied inputs.
package node

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/dudumaluf/BOT-TextureGen/internal/tensor"
)

const (
	TypeString = "STRING"
	TypeImage  = "IMAGE"
)

var (
	ErrUnknownNode   = errors.New("unknown node")
	ErrDuplicateNode = errors.New("node already registered")
	ErrInvalidInput  = errors.New("invalid node input")
)

// Input declares one input slot.
type Input struct {
	Name    string `json:"name" yaml:"name"`
	Type    string `json:"type" yaml:"type"`
	Default string `json:"default,omitempty" yaml:"default,omitempty"`
}

// Definition is what the host needs to list and wire a node.
type Definition struct {
	Name        string   `json:"name" yaml:"name"`
	DisplayName string   `json:"display_name" yaml:"display_name"`
	Category    string   `json:"category" yaml:"category"`
	Function    string   `json:"function" yaml:"function"`
	Required    []Input  `json:"required" yaml:"required"`
	Optional    []Input  `json:"optional,omitempty" yaml:"optional,omitempty"`
	ReturnTypes []string `json:"return_types" yaml:"return_types"`
	OutputNode  bool     `json:"output_node" yaml:"output_node"`
}

// Inputs holds decoded values: string for STRING, *tensor.Image for IMAGE.
type Inputs map[string]any

func (in Inputs) String(name, fallback string) string {
	if v, ok := in[name].(string); ok {
		return v
	}
	return fallback
}

func (in Inputs) Image(name string) *tensor.Image {
	v, _ := in[name].(*tensor.Image)
	return v
}

// Node is an executable graph node. Execute returns the node's outputs; output
// nodes return an empty result.
type Node interface {
	Definition() Definition
	Execute(ctx context.Context, inputs Inputs) (any, error)
}

type Registry struct {
	mu    sync.RWMutex
	nodes map[string]Node
}

func NewRegistry() *Registry {
	return &Registry{nodes: make(map[string]Node)}
}

func (r *Registry) Register(n Node) error {
	name := n.Definition().Name
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.nodes[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, name)
	}
	r.nodes[name] = n
	return nil
}

func (r *Registry) Lookup(name string) (Node, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.nodes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, name)
	}
	return n, nil
}

// Definitions returns every registered definition sorted by name.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]Definition, 0, len(r.nodes))
	for _, n := range r.nodes {
		defs = append(defs, n.Definition())
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// DisplayNames maps class names to their display names.
func (r *Registry) DisplayNames() map[string]string {
	names := make(map[string]string)
	for _, def := range r.Definitions() {
		names[def.Name] = def.DisplayName
	}
	return names
}

// DecodeInputs decodes raw JSON inputs by declared type. Missing STRING inputs
// take their default. An IMAGE input that fails to decode is logged and left
// out, the same as an image that fails to save.
func DecodeInputs(def Definition, raw map[string]json.RawMessage, logger *zap.Logger) (Inputs, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	inputs := make(Inputs)
	slots := append(append([]Input(nil), def.Required...), def.Optional...)
	for _, slot := range slots {
		value, ok := raw[slot.Name]
		if !ok || string(value) == "null" {
			if slot.Type == TypeString {
				inputs[slot.Name] = slot.Default
			}
			continue
		}

		switch slot.Type {
		case TypeString:
			var s string
			if err := json.Unmarshal(value, &s); err != nil {
				return nil, fmt.Errorf("%w: %s must be a string", ErrInvalidInput, slot.Name)
			}
			inputs[slot.Name] = s
		case TypeImage:
			var t tensor.Image
			if err := json.Unmarshal(value, &t); err != nil {
				logger.Warn("ignoring undecodable image input", zap.String("input", slot.Name), zap.Error(err))
				continue
			}
			img, err := tensor.New(t.Shape, t.Data)
			if err != nil {
				logger.Warn("ignoring malformed image input", zap.String("input", slot.Name), zap.Error(err))
				continue
			}
			inputs[slot.Name] = img
		}
	}
	for name := range raw {
		if !declared(slots, name) {
			logger.Debug("ignoring undeclared input", zap.String("input", name))
		}
	}
	return inputs, nil
}

func declared(slots []Input, name string) bool {
	for _, s := range slots {
		if s.Name == name {
			return true
		}
	}
	return false
}
