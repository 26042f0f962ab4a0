// Package socketio provides the 'socketio' operator: it pushes the vertex's
// resolved dependency values to a socket.io endpoint and optionally waits
// for a response event, so flows can hand results to live dashboards.
package socketio

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/zclconf/go-cty/cty"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/flow"
	"github.com/vk/flowgridgo/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// opResult is a private struct to safely pass results through the done channel.
type opResult struct {
	value any
	err   error
}

// OnRunSocketIO is the handler for the 'socketio' operator. Args: url,
// emit_event, and optionally namespace, on_event, timeout,
// insecure_skip_verify.
func OnRunSocketIO(ctx context.Context, inv *flow.Invocation) error {
	urlArg := inv.Arg("url")
	emitArg := inv.Arg("emit_event")
	if urlArg == cty.NilVal || emitArg == cty.NilVal {
		return fmt.Errorf("vertex %q: socketio requires 'url' and 'emit_event' args", inv.VertexName())
	}
	namespace := stringArg(inv, "namespace", "/")
	onEvent := stringArg(inv, "on_event", "")
	logger := ctxlog.FromContext(ctx).With(
		"op", "socketio", "url", urlArg.AsString(), "emitEvent", emitArg.AsString(), "onEvent", onEvent)
	logger.Debug("Handler started")
	defer logger.Debug("Handler finished")

	payload := make(map[string]any, len(inv.Dependencies()))
	for _, dep := range inv.Dependencies() {
		if dep.Ready() && !dep.Empty() {
			payload[dep.LocalName()] = dep.AnyValue()
		}
	}

	timeout := 10 * time.Second
	if raw := stringArg(inv, "timeout", ""); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			logger.Warn("Failed to parse timeout, using default 10s", "inputTimeout", raw, "error", err)
		} else {
			timeout = parsed
		}
	}

	var isConnected atomic.Bool
	done := make(chan opResult, 1)
	opCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	parsedURL, err := url.Parse(urlArg.AsString())
	if err != nil {
		return fmt.Errorf("failed to parse URL: %w", err)
	}

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	if arg := inv.Arg("insecure_skip_verify"); arg != cty.NilVal && arg.Type() == cty.Bool && arg.True() {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(namespace, opts)
	defer func() {
		logger.Debug("Disconnecting socket client")
		io.Disconnect()
	}()

	io.On(types.EventName("connect"), func(...any) {
		isConnected.Store(true)
		logger.Info("Successfully connected", "namespace", namespace, "sid", io.Id())
		jsonData, _ := json.Marshal(payload)
		logger.Info("Emitting event", "event", emitArg.AsString(), "data", string(jsonData))
		io.Emit(emitArg.AsString(), payload)
		if onEvent == "" {
			done <- opResult{}
		}
	})

	io.On(types.EventName("connect_error"), func(errs ...any) {
		done <- opResult{err: errs[0].(error)}
	})

	if onEvent != "" {
		io.On(types.EventName(onEvent), func(data ...any) {
			var responseData any
			if len(data) > 0 {
				responseData = data[0]
			}
			done <- opResult{value: responseData}
		})
	}

	io.Connect()

	select {
	case <-opCtx.Done():
		if isConnected.Load() {
			return fmt.Errorf("timed out after connecting while waiting for event %q", onEvent)
		}
		return fmt.Errorf("timed out while waiting for initial connection")
	case res := <-done:
		if res.err != nil {
			return res.err
		}
		if res.value != nil {
			for _, name := range inv.EmitNames() {
				if err := inv.EmitValue(name, res.value); err != nil {
					return err
				}
			}
		}
		return nil
	}
}

func stringArg(inv *flow.Invocation, name, fallback string) string {
	if arg := inv.Arg(name); arg != cty.NilVal && arg.Type() == cty.String {
		return arg.AsString()
	}
	return fallback
}

// Register registers the operator with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterOperator(&registry.Operator{
		Name:        "socketio",
		Description: "Emit resolved dependency values as a socket.io event.",
		Handler:     OnRunSocketIO,
	})
}
