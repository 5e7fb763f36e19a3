package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHitosProgress(t *testing.T) {
	var h Hitos
	assert.Equal(t, 0, h.Progress())

	prev := 0
	for i, key := range MilestoneKeys {
		require.True(t, h.Toggle(key))
		assert.Equal(t, i+1, h.Count())
		assert.GreaterOrEqual(t, h.Progress(), prev)
		prev = h.Progress()
	}
	assert.Equal(t, 100, h.Progress())
}

func TestHitosProgressRounding(t *testing.T) {
	tests := []struct {
		done int
		want int
	}{
		{1, 14},
		{2, 29},
		{3, 43},
		{4, 57},
		{5, 71},
		{6, 86},
	}
	for _, tt := range tests {
		var h Hitos
		for _, key := range MilestoneKeys[:tt.done] {
			h.Toggle(key)
		}
		assert.Equal(t, tt.want, h.Progress(), "done=%d", tt.done)
	}
}

func TestHitosToggleFlipsOnlyOne(t *testing.T) {
	var h Hitos
	require.True(t, h.Toggle(MilestonePagoPrimer50))

	for _, key := range MilestoneKeys {
		assert.Equal(t, key == MilestonePagoPrimer50, h.Get(key), string(key))
	}

	require.True(t, h.Toggle(MilestonePagoPrimer50))
	assert.Equal(t, Hitos{}, h)
}

func TestHitosToggleUnknownKey(t *testing.T) {
	var h Hitos
	assert.False(t, h.Toggle("pago_total"))
	assert.False(t, MilestoneKey("pago_total").Valid())
	assert.Equal(t, Hitos{}, h)
}

func TestHitosJSONHasSevenKeys(t *testing.T) {
	raw, err := json.Marshal(Hitos{IAActivada: true})
	require.NoError(t, err)

	var m map[string]bool
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Len(t, m, len(MilestoneKeys))
	for _, key := range MilestoneKeys {
		_, ok := m[string(key)]
		assert.True(t, ok, string(key))
	}
	assert.True(t, m["ia_activada"])
}

func TestHitosScan(t *testing.T) {
	var h Hitos
	require.NoError(t, h.Scan([]byte(`{"envio_contrato":true}`)))
	assert.True(t, h.EnvioContrato)

	require.NoError(t, h.Scan(`{"envio_accesos":true}`))
	assert.True(t, h.EnvioAccesos)
	assert.False(t, h.EnvioContrato)

	require.NoError(t, h.Scan(nil))
	assert.Equal(t, Hitos{}, h)

	assert.Error(t, h.Scan(42))
}
