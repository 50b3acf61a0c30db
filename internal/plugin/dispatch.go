package plugin

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kusandriadi/relaybot/internal/pluginapi"
)

// interfaceProvider binds a Descriptor to a concrete pluginapi.Interface
// for the current activation. internal/activation.Factory implements this;
// the Dispatcher only needs the narrow seam below to avoid importing it
// directly (internal/activation already imports internal/plugin for
// Descriptor).
type interfaceProvider interface {
	Bind(d Descriptor) pluginapi.Interface
}

// Dispatcher is the Tool Dispatcher: it
// validates a tool call's input against the declared schema, routes it to
// the owning plugin, and runs the plugin's post-execution hook.
type Dispatcher struct {
	registry *Registry
	logger   *slog.Logger
}

// NewDispatcher creates a Tool Dispatcher over registry.
func NewDispatcher(registry *Registry, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{registry: registry, logger: logger}
}

// Dispatch routes one tool call: resolve the plugin, resolve the tool,
// validate the input, run the handler, then run the post-execution hook.
func (disp *Dispatcher) Dispatch(ctx context.Context, pluginName, toolName string, rawInput map[string]interface{}, pi interfaceProvider) (interface{}, error) {
	d, ok := disp.registry.Get(pluginName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlugin, pluginName)
	}

	tool, ok := d.tool(toolName)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownTool, pluginName, toolName)
	}

	if err := validateInput(tool.InputSchema, rawInput); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	instance := pi.Bind(d)

	result, callErr := tool.Handler(ctx, rawInput, instance)
	if callErr != nil {
		callErr = &ToolExecutionError{PluginID: pluginName, ToolName: toolName, Err: callErr}
	}

	if d.PostToolExecution != nil {
		if hookErr := d.PostToolExecution(ctx, toolName, rawInput, result, instance); hookErr != nil {
			disp.logger.Warn("plugin post-execution hook failed",
				"plugin", pluginName, "tool", toolName, "error", hookErr)
		}
	}

	return result, callErr
}

// validateInput enforces the subset of JSON Schema the Tool Dispatcher
// promises: required properties present, and type-checked against the
// declared schema.
func validateInput(schema Schema, input map[string]interface{}) error {
	if schema.Type != "" && schema.Type != "object" {
		return fmt.Errorf("top-level input schema must be object, got %q", schema.Type)
	}

	for _, req := range schema.Required {
		if _, ok := input[req]; !ok {
			return fmt.Errorf("missing required property %q", req)
		}
	}

	for name, val := range input {
		propSchema, declared := schema.Properties[name]
		if !declared {
			continue // unknown extra properties pass through
		}
		if err := checkType(propSchema, val); err != nil {
			return fmt.Errorf("property %q: %w", name, err)
		}
	}

	return nil
}

func checkType(schema Schema, val interface{}) error {
	if val == nil {
		return nil
	}
	switch schema.Type {
	case "string":
		if _, ok := val.(string); !ok {
			return fmt.Errorf("expected string, got %T", val)
		}
	case "number":
		if _, ok := val.(float64); !ok {
			return fmt.Errorf("expected number, got %T", val)
		}
	case "integer":
		f, ok := val.(float64)
		if !ok || f != float64(int64(f)) {
			return fmt.Errorf("expected integer, got %T", val)
		}
	case "boolean":
		if _, ok := val.(bool); !ok {
			return fmt.Errorf("expected boolean, got %T", val)
		}
	case "array":
		arr, ok := val.([]interface{})
		if !ok {
			return fmt.Errorf("expected array, got %T", val)
		}
		if schema.Items != nil {
			for i, item := range arr {
				if err := checkType(*schema.Items, item); err != nil {
					return fmt.Errorf("item %d: %w", i, err)
				}
			}
		}
	case "object":
		if _, ok := val.(map[string]interface{}); !ok {
			return fmt.Errorf("expected object, got %T", val)
		}
	}
	return nil
}
