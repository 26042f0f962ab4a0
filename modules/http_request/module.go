// Package http_request provides the 'http_request' operator: it performs a
// single HTTP request and emits the response body, so flows can pull data
// from or notify external services.
package http_request

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/flow"
	"github.com/vk/flowgridgo/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// OnRunHttpRequest is the handler for the 'http_request' operator. Args:
// url, and optionally method (default GET), timeout and expect_status.
// A ready string dependency named "body" becomes the request body.
func OnRunHttpRequest(ctx context.Context, inv *flow.Invocation) error {
	urlArg := inv.Arg("url")
	if urlArg == cty.NilVal || urlArg.Type() != cty.String {
		return fmt.Errorf("vertex %q: http_request requires a string 'url' arg", inv.VertexName())
	}
	method := http.MethodGet
	if arg := inv.Arg("method"); arg != cty.NilVal && arg.Type() == cty.String {
		method = strings.ToUpper(arg.AsString())
	}
	logger := ctxlog.FromContext(ctx).With("op", "http_request", "method", method, "url", urlArg.AsString())
	logger.Info("Making HTTP request")

	timeout := 30 * time.Second
	if arg := inv.Arg("timeout"); arg != cty.NilVal && arg.Type() == cty.String {
		parsed, err := time.ParseDuration(arg.AsString())
		if err != nil {
			logger.Warn("Failed to parse timeout, using default 30s", "inputTimeout", arg.AsString(), "error", err)
		} else {
			timeout = parsed
		}
	}

	var reqBody io.Reader
	if dep := inv.Dependency("body"); dep != nil && dep.Ready() && !dep.Empty() {
		reqBody = strings.NewReader(dep.AsString())
	}

	req, err := http.NewRequestWithContext(ctx, method, urlArg.AsString(), reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	logger.Info("Received HTTP response", "status", resp.Status)

	if arg := inv.Arg("expect_status"); arg != cty.NilVal && arg.Type() == cty.Number {
		expected, _ := arg.AsBigFloat().Int64()
		if int64(resp.StatusCode) != expected {
			return fmt.Errorf("unexpected status %d, want %d", resp.StatusCode, expected)
		}
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	for _, name := range inv.EmitNames() {
		if err := flow.Emit(inv, name, string(bodyBytes)); err != nil {
			return err
		}
	}
	return nil
}

// Register registers the operator with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterOperator(&registry.Operator{
		Name:        "http_request",
		Description: "Perform an HTTP request and emit the response body.",
		Handler:     OnRunHttpRequest,
	})
}
