package parsing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RfpIntel/internal/domain"
)

type namedParser string

func (p namedParser) Name() string { return string(p) }

func (p namedParser) Parse(context.Context, string) (domain.ParseResult, error) {
	return domain.ParseResult{}, nil
}

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register(namedParser("reducto"))
	reg.Register(namedParser("local"))

	p, err := reg.Resolve("local")
	require.NoError(t, err)
	assert.Equal(t, "local", p.Name())
	assert.Equal(t, []string{"local", "reducto"}, reg.Modes())

	_, err = reg.Resolve("ocr")
	assert.ErrorContains(t, err, `"ocr" is not registered`)

	var zero Registry
	zero.Register(namedParser("x"))
	_, err = zero.Resolve("x")
	assert.NoError(t, err)
}
