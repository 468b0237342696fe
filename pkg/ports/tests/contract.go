package tests

import (
	"context"
	"testing"

	"github.com/aretw0/liveparams/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunHostContract is a reusable test suite that verifies if an adapter complies with ports.Host.
// The host must have an active design with millimeters available; the suite only
// touches parameters whose names start with "contract_".
func RunHostContract(t *testing.T, host ports.Host) {
	t.Helper()
	ctx := context.Background()

	design, err := host.ActiveDesign(ctx)
	require.NoError(t, err, "ActiveDesign should succeed")

	t.Run("ActiveCommand", func(t *testing.T) {
		cmd, err := host.ActiveCommand(ctx)
		require.NoError(t, err)
		assert.NotEmpty(t, cmd)
	})

	t.Run("Validate", func(t *testing.T) {
		ok, err := design.IsValidExpression("10 mm", "mm")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, _ = design.IsValidExpression("10 deg", "mm")
		assert.False(t, ok, "angle is not a length")

		ok, _ = design.IsValidExpression("10 +", "mm")
		assert.False(t, ok, "syntax errors are invalid")
	})

	t.Run("Add and Lookup", func(t *testing.T) {
		p, err := design.AddUserParameter("contract_a", "12", "mm", "first")
		require.NoError(t, err)
		assert.Equal(t, "contract_a", p.Name())
		assert.Equal(t, "12", p.Expression())
		assert.Equal(t, "mm", p.Unit())
		assert.Equal(t, "first", p.Comment())

		v, err := p.Value()
		require.NoError(t, err)
		assert.InDelta(t, 12, v, 1e-9)

		found, ok := design.UserParameter("contract_a")
		require.True(t, ok)
		assert.Equal(t, "contract_a", found.Name())
		assert.True(t, design.HasParameter("contract_a"))

		_, ok = design.UserParameter("contract_missing")
		assert.False(t, ok)
		assert.False(t, design.HasParameter("contract_missing"))

		params, err := design.UserParameters()
		require.NoError(t, err)
		names := make([]string, 0, len(params))
		for _, p := range params {
			names = append(names, p.Name())
		}
		assert.Contains(t, names, "contract_a")
	})

	t.Run("Mutate", func(t *testing.T) {
		p, err := design.AddUserParameter("contract_b", "1", "mm", "")
		require.NoError(t, err)

		require.NoError(t, p.SetExpression("2 cm"))
		assert.Equal(t, "2 cm", p.Expression())
		assert.Equal(t, "mm", p.Unit(), "unit is fixed at creation")

		require.NoError(t, p.SetComment("note"))
		assert.Equal(t, "note", p.Comment())

		require.NoError(t, p.SetName("contract_c"))
		assert.True(t, design.HasParameter("contract_c"))
		assert.False(t, design.HasParameter("contract_b"))

		assert.Error(t, p.SetName("contract c"), "names with spaces are rejected")
	})

	t.Run("Delete", func(t *testing.T) {
		base, err := design.AddUserParameter("contract_base", "5", "mm", "")
		require.NoError(t, err)
		_, err = design.AddUserParameter("contract_dep", "contract_base * 2", "mm", "")
		require.NoError(t, err)

		deleted, err := base.DeleteMe()
		require.NoError(t, err)
		assert.False(t, deleted, "referenced parameters cannot be deleted")

		dep, ok := design.UserParameter("contract_dep")
		require.True(t, ok)
		deleted, err = dep.DeleteMe()
		require.NoError(t, err)
		assert.True(t, deleted)
		assert.False(t, design.HasParameter("contract_dep"))
	})

	t.Run("Activation Subscription", func(t *testing.T) {
		unsubscribe := host.OnDocumentActivated(func(ctx context.Context, docName string) {})
		require.NotNil(t, unsubscribe)
		unsubscribe()
	})
}
