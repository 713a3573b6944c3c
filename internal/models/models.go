package models

import "encoding/json"

// InvokeRequest asks the host to execute one registered node.
type InvokeRequest struct {
	Node   string                     `json:"node"`
	Inputs map[string]json.RawMessage `json:"inputs"`
}

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Result  any    `json:"result,omitempty"`
}
