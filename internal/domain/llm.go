package domain

import (
	"context"
	"encoding/json"
)

// StructuredRequest describes one structured LLM call: a system and user
// prompt plus a declared function schema the model is forced to invoke.
type StructuredRequest struct {
	System      string
	User        string
	Name        string          // function name
	Description string          // function description shown to the model
	Parameters  json.RawMessage // JSON schema for the function arguments
	Temperature float32
}

// StructuredCaller executes a structured LLM call and unmarshals the
// function arguments into out. A response that does not conform to the
// declared schema is reported the same way as a call failure.
type StructuredCaller interface {
	CallStructured(ctx context.Context, req StructuredRequest, out any) error
}
