package specs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/feather/internal/project"
)

func TestDefault_LoadsWithoutDiagnostics(t *testing.T) {
	t.Parallel()

	spec, err := Default()
	require.NoError(t, err)
	assert.NotEmpty(t, spec.Runtime)

	reg := project.NewRegistry()
	diags := reg.LoadSpec(spec)
	assert.Empty(t, diags)

	abs := reg.GetGlobal("abs")
	require.NotNil(t, abs)
	assert.True(t, abs.Native)
	assert.Equal(t, project.KindFunction, abs.Type.Kind)
	assert.NotNil(t, reg.GetGlobal("c_white"))
	assert.NotNil(t, reg.Type("Struct.Weather"))
}
