// Package plugin is the Plugin Registry and Tool Dispatcher: it discovers
// and validates plugin descriptors at process start, and routes tool calls
// from the LLM to the plugin that declared them.
package plugin

import (
	"context"
	"fmt"
	"strings"

	"github.com/kusandriadi/relaybot/internal/pluginapi"
)

// Priority orders plugin setup the same way the rest of the host process
// orders startup work — core plugins first, user plugins after.
type Priority int

const (
	PriorityCore   Priority = 0
	PriorityNormal Priority = 500
	PriorityLast   Priority = 999
)

// Schema is a JSON-schema-shaped description of a tool's input. The Tool
// Dispatcher checks Type, Required, Properties and Items against a call's
// input; Enum is declared but input values are not checked against it. No
// other JSON-schema keywords are represented.
type Schema struct {
	Type       string            `json:"type"`
	Properties map[string]Schema `json:"properties,omitempty"`
	Required   []string          `json:"required,omitempty"`
	Items      *Schema           `json:"items,omitempty"`
	Enum       []string          `json:"enum,omitempty"`
}

// ToolHandler executes a validated tool call and returns its result.
type ToolHandler func(ctx context.Context, input map[string]interface{}, pi pluginapi.Interface) (interface{}, error)

// Tool is one callable surface a plugin exposes to the LLM.
type Tool struct {
	Name        string
	Description string
	InputSchema Schema
	Handler     ToolHandler
}

// InjectionProviderFunc asks a plugin for its current context fragments, given
// the bound PluginInterface for this activation. Returning an error drops
// that plugin's injections for this build without failing the activation.
type InjectionProviderFunc func(ctx context.Context, pi pluginapi.Interface) ([]ProvidedInjection, error)

// ProvidedInjection is what a plugin's InjectionProvider hands back; depth
// resolution (static vs dynamic) happens downstream in internal/inject.
type ProvidedInjection struct {
	ID             string
	Text           string
	TargetDepth    int
	Anchor         string // "latest" (default) or "earliest"
	LastModifiedAt *string
	Priority       int
	AsSystem       bool
}

// PostToolExecutionFunc runs after a tool call completes, win or lose.
// Errors from this hook are logged but never alter the tool result.
type PostToolExecutionFunc func(ctx context.Context, toolName string, input map[string]interface{}, result interface{}, pi pluginapi.Interface) error

// InitialSetupFunc runs at most once per registry, the first time
// Registry.RunInitialSetup is called for the plugin; Register does not run it.
type InitialSetupFunc func(ctx context.Context) error

// Descriptor is a plugin's immutable identity and capability declaration,
// loaded once at process start.
type Descriptor struct {
	ID          string
	Description string
	Priority    Priority
	Tools       []Tool

	InitialSetup          InitialSetupFunc
	ContextInjection      InjectionProviderFunc
	PostToolExecution     PostToolExecutionFunc

	// Persona is the display name used when one of this plugin's
	// injections is rendered without asSystem set.
	Persona string
}

func (d Descriptor) tool(name string) (Tool, bool) {
	for _, t := range d.Tools {
		if t.Name == name {
			return t, true
		}
	}
	return Tool{}, false
}

// validate enforces the structural requirements on a descriptor: unique
// tool names, non-empty descriptions, well-formed schemas.
func (d Descriptor) validate() error {
	if err := validateID(d.ID); err != nil {
		return err
	}
	if d.Description == "" {
		return fmt.Errorf("%w: plugin %q has empty description", ErrInvalidDescriptor, d.ID)
	}

	seen := make(map[string]bool, len(d.Tools))
	for _, t := range d.Tools {
		if t.Name == "" {
			return fmt.Errorf("%w: plugin %q declares a tool with empty name", ErrInvalidDescriptor, d.ID)
		}
		if seen[t.Name] {
			return fmt.Errorf("%w: plugin %q declares duplicate tool %q", ErrInvalidDescriptor, d.ID, t.Name)
		}
		seen[t.Name] = true
		if t.Description == "" {
			return fmt.Errorf("%w: plugin %q tool %q has empty description", ErrInvalidDescriptor, d.ID, t.Name)
		}
		if err := validateSchema(t.InputSchema); err != nil {
			return fmt.Errorf("%w: plugin %q tool %q: %v", ErrInvalidDescriptor, d.ID, t.Name, err)
		}
	}
	return nil
}

func validateSchema(s Schema) error {
	if s.Type == "" {
		return fmt.Errorf("schema missing type")
	}
	switch s.Type {
	case "object", "string", "number", "integer", "boolean", "array":
	default:
		return fmt.Errorf("schema has unsupported type %q", s.Type)
	}
	for name, prop := range s.Properties {
		if err := validateSchema(prop); err != nil {
			return fmt.Errorf("property %q: %w", name, err)
		}
	}
	if s.Items != nil {
		if err := validateSchema(*s.Items); err != nil {
			return fmt.Errorf("items: %w", err)
		}
	}
	return nil
}

// validateID rejects plugin ids unsafe for use as a path component,
// mirroring the identifier rules the State Store enforces.
func validateID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty plugin id", ErrInvalidIdentifier)
	}
	if strings.ContainsAny(id, "/\\\x00") || strings.Contains(id, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidIdentifier, id)
	}
	return nil
}
