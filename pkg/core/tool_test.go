package core

import "testing"

func readFileSchema() *Schema {
	return NewSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{"type": "string"},
		},
		"required": []any{"path"},
	})
}

func TestSchema_ValidateAndCoerce_Valid(t *testing.T) {
	s := readFileSchema()
	args := map[string]any{"path": "a.txt"}
	got, err := s.ValidateAndCoerce(args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["path"] != "a.txt" {
		t.Errorf("expected path preserved, got %v", got)
	}
}

func TestSchema_ValidateAndCoerce_MissingRequired(t *testing.T) {
	s := readFileSchema()
	_, err := s.ValidateAndCoerce(map[string]any{})
	if err == nil {
		t.Fatal("expected a validation error for missing required field")
	}
	ve, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if len(ve.Issues) == 0 {
		t.Error("expected at least one validation issue")
	}
}

func TestSchema_ValidateAndCoerce_WrongType(t *testing.T) {
	s := readFileSchema()
	_, err := s.ValidateAndCoerce(map[string]any{"path": 123})
	if err == nil {
		t.Fatal("expected a validation error for wrong type")
	}
}

func TestSchema_ValidateAndCoerce_NilSchemaPassesThrough(t *testing.T) {
	var s *Schema
	args := map[string]any{"anything": "goes"}
	got, err := s.ValidateAndCoerce(args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got["anything"] != "goes" {
		t.Errorf("expected args passed through unchanged, got %v", got)
	}
}

func TestNewSchema_PanicsOnInvalidSchema(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected NewSchema to panic on an invalid schema")
		}
	}()
	NewSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path": map[string]any{"type": "string", "pattern": "("},
		},
	})
}

func TestTool_ToWire(t *testing.T) {
	tool := Tool{
		Name:        "read_file",
		Description: "Read a file.",
		Schema:      readFileSchema(),
	}
	wire := tool.ToWire()
	if wire.Name != "read_file" || wire.Description != "Read a file." {
		t.Errorf("unexpected wire tool: %+v", wire)
	}
	if wire.Schema == nil {
		t.Error("expected wire schema to be populated")
	}
}

func TestTool_ToWire_NilSchema(t *testing.T) {
	tool := Tool{Name: "noop"}
	wire := tool.ToWire()
	if wire.Schema != nil {
		t.Errorf("expected nil schema to stay nil, got %v", wire.Schema)
	}
}
