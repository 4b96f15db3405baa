package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ToolResult is what a Tool.Execute returns.
type ToolResult struct {
	Content string
	IsError bool
}

// ValidationIssue pairs a JSON-pointer-ish field path with a human message.
type ValidationIssue struct {
	Field   string
	Message string
}

// ValidationError carries one or more issues found while validating an LLM's
// tool-call arguments against a tool's schema.
type ValidationError struct {
	Issues []ValidationIssue
}

func (e *ValidationError) Error() string {
	s := ""
	for i, issue := range e.Issues {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%s: %s", issue.Field, issue.Message)
	}
	return s
}

// Schema is the rich, validation-capable form of a tool's parameter schema.
// It wraps a compiled JSON-Schema document.
type Schema struct {
	raw      map[string]any
	compiled *jsonschema.Schema
}

// NewSchema compiles a JSON-Schema-shaped map into a validating Schema.
// A tool whose schema fails to compile is a programming error, not a runtime
// one, so NewSchema panics rather than threading a constructor error through
// every tool registration call site.
func NewSchema(raw map[string]any) *Schema {
	data, err := json.Marshal(raw)
	if err != nil {
		panic(fmt.Sprintf("core: tool schema not serializable: %v", err))
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(data)); err != nil {
		panic(fmt.Sprintf("core: tool schema invalid: %v", err))
	}
	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		panic(fmt.Sprintf("core: tool schema invalid: %v", err))
	}
	return &Schema{raw: raw, compiled: compiled}
}

// WireForm serializes the schema for inclusion in a provider's tool
// definition list.
func (s *Schema) WireForm() map[string]any {
	return s.raw
}

// ValidateAndCoerce validates args against the schema, returning a
// *ValidationError with one issue per failing keyword when invalid.
func (s *Schema) ValidateAndCoerce(args map[string]any) (map[string]any, error) {
	if s == nil || s.compiled == nil {
		return args, nil
	}
	if err := s.compiled.Validate(args); err != nil {
		ve, ok := err.(*jsonschema.ValidationError)
		if !ok {
			return nil, &ValidationError{Issues: []ValidationIssue{{Field: "", Message: err.Error()}}}
		}
		return nil, &ValidationError{Issues: flattenSchemaErrors(ve)}
	}
	return args, nil
}

func flattenSchemaErrors(ve *jsonschema.ValidationError) []ValidationIssue {
	var issues []ValidationIssue
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			field := "/"
			if e.InstanceLocation != "" {
				field = e.InstanceLocation
			}
			issues = append(issues, ValidationIssue{Field: field, Message: e.Message})
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	if len(issues) == 0 {
		issues = append(issues, ValidationIssue{Field: "/", Message: ve.Message})
	}
	return issues
}

// ToolContext carries the environment a Tool.Execute runs in, plus the
// callbacks through which task-lifecycle tools hand events back to the
// runtime (§3, §4.6).
type ToolContext struct {
	context.Context

	// Cwd is the working directory non-restricted tools operate in.
	Cwd string

	// TasksRoot is the directory under which t_NNN task directories live.
	TasksRoot string

	// WriteRoot, when non-empty, is the only directory tree file-writing
	// tools may write within.
	WriteRoot string

	OnTaskCreated func(taskDir string)
	OnSteer       func(taskID, msg string)
	OnAbort       func(taskID string)
}

// Tool is the rich, executable form of a tool definition.
type Tool struct {
	Name        string
	Description string
	Schema      *Schema
	Execute     func(ctx *ToolContext, args map[string]any) (ToolResult, error)
}

// WireTool is the serialized form handed to an LLM provider.
type WireTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Schema      map[string]any `json:"input_schema"`
}

// ToWire converts a rich tool definition into its wire form.
func (t Tool) ToWire() WireTool {
	var schema map[string]any
	if t.Schema != nil {
		schema = t.Schema.WireForm()
	}
	return WireTool{Name: t.Name, Description: t.Description, Schema: schema}
}
