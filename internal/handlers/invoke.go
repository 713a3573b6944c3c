package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/dudumaluf/BOT-TextureGen/internal/models"
	"github.com/dudumaluf/BOT-TextureGen/internal/node"
)

// DefaultMaxBodyBytes caps an /invoke body when no limit is configured.
const DefaultMaxBodyBytes int64 = 64 << 20

type InvokeHandler struct {
	registry *node.Registry
	logger   *zap.Logger
	maxBody  int64
}

func NewInvokeHandler(registry *node.Registry, logger *zap.Logger, maxBody int64) http.Handler {
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	return &InvokeHandler{
		registry: registry,
		logger:   logger,
		maxBody:  maxBody,
	}
}

func (h *InvokeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		sendJSONResponse(w, http.StatusMethodNotAllowed, models.Response{
			Success: false,
			Message: "Only POST method is allowed",
		})
		return
	}

	var req models.InvokeRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBody))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			sendJSONResponse(w, http.StatusRequestEntityTooLarge, models.Response{
				Success: false,
				Message: fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit),
			})
			return
		}
		sendJSONResponse(w, http.StatusBadRequest, models.Response{
			Success: false,
			Message: fmt.Sprintf("Invalid request format: %s", err),
		})
		return
	}

	if req.Node == "" {
		req.Node = node.WebhookNodeName
	}
	n, err := h.registry.Lookup(req.Node)
	if err != nil {
		sendJSONResponse(w, http.StatusNotFound, models.Response{
			Success: false,
			Message: err.Error(),
		})
		return
	}

	inputs, err := node.DecodeInputs(n.Definition(), req.Inputs, h.logger)
	if err != nil {
		sendJSONResponse(w, http.StatusBadRequest, models.Response{
			Success: false,
			Message: err.Error(),
		})
		return
	}

	result, err := n.Execute(r.Context(), inputs)
	if err != nil {
		h.logger.Error("node execution failed", zap.String("node", req.Node), zap.Error(err))
		sendJSONResponse(w, http.StatusInternalServerError, models.Response{
			Success: false,
			Message: fmt.Sprintf("Failed to execute node: %s", err),
		})
		return
	}

	sendJSONResponse(w, http.StatusOK, models.Response{
		Success: true,
		Message: fmt.Sprintf("%s executed", req.Node),
		Result:  result,
	})
}

// ObjectInfoHandler lists the registered node definitions.
func ObjectInfoHandler(registry *node.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			sendJSONResponse(w, http.StatusMethodNotAllowed, models.Response{
				Success: false,
				Message: "Only GET method is allowed",
			})
			return
		}
		defs := make(map[string]node.Definition)
		for _, def := range registry.Definitions() {
			defs[def.Name] = def
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(defs)
	}
}

func IndexHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	fmt.Fprintf(w, "AUTOMATA node host is running. POST to /invoke to execute a node")
}

func HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

func sendJSONResponse(w http.ResponseWriter, statusCode int, resp models.Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(resp)
}
