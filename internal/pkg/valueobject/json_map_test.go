package valueobject

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONMapScan(t *testing.T) {
	var m JSONMap
	require.NoError(t, m.Scan([]byte(`{"sid":"SM1","attempt":2}`)))
	assert.Equal(t, "SM1", m.GetString("sid"))
	assert.Equal(t, 2, m.GetInt("attempt"))

	require.NoError(t, m.Scan(nil))
	assert.Empty(t, m)

	assert.ErrorIs(t, m.Scan(42), ErrScanValueNotBytes)
}

func TestJSONMapValue(t *testing.T) {
	v, err := JSONMap(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("{}"), v)

	v, err = JSONMap{"status": "sent"}.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"sent"}`, string(v.([]byte)))
}
