package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureGenProvider struct {
	model string
	opts  *GenerateOptions
}

func (p *captureGenProvider) Name() string { return "capture" }

func (p *captureGenProvider) Generate(ctx context.Context, model string, prompt string, opts *GenerateOptions) (string, error) {
	p.model = model
	p.opts = opts
	return "ok", nil
}

func TestGeneratorPassesTemperature(t *testing.T) {
	provider := &captureGenProvider{}
	gen := NewGenerator(provider, "test-model", 0.3)

	_, err := gen.Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "test-model", provider.model)
	require.NotNil(t, provider.opts)
	assert.InDelta(t, 0.3, provider.opts.Temperature, 1e-9)
}
