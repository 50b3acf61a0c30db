package plugin

import "errors"

var (
	ErrInvalidIdentifier = errors.New("plugin: invalid identifier")
	ErrInvalidDescriptor = errors.New("plugin: invalid descriptor")
	ErrUnknownPlugin     = errors.New("plugin: unknown plugin")
	ErrDuplicatePlugin   = errors.New("plugin: duplicate plugin")
	ErrUnknownTool       = errors.New("plugin: unknown tool")
	ErrInvalidInput      = errors.New("plugin: invalid input")
)

// ToolExecutionError wraps a tool handler's error with the plugin and tool
// identity attached.
type ToolExecutionError struct {
	PluginID string
	ToolName string
	Err      error
}

func (e *ToolExecutionError) Error() string {
	return "plugin " + e.PluginID + " tool " + e.ToolName + ": " + e.Err.Error()
}

func (e *ToolExecutionError) Unwrap() error { return e.Err }
