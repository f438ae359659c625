package llm

import (
	"context"
)

// MockGenerator is a configurable Generator for tests. Set GenerateFunc to
// control behavior; calls are counted for verification.
type MockGenerator struct {
	// GenerateFunc is called when Generate is invoked. If nil, an empty
	// generation and nil error are returned.
	GenerateFunc func(ctx context.Context, req Request) (*Generation, error)

	// ModelName is returned by Model. Defaults to "mock-model".
	ModelName string

	GenerateCalls int
}

// NewMockGenerator creates a mock with defaults.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{ModelName: "mock-model"}
}

// Generate implements Generator.
func (m *MockGenerator) Generate(ctx context.Context, req Request) (*Generation, error) {
	m.GenerateCalls++
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	return &Generation{Model: m.ModelName}, nil
}

// Model implements Generator.
func (m *MockGenerator) Model() string {
	return m.ModelName
}
