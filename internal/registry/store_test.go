package registry

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vpnhub/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(afero.NewMemMapFs(), "data")
	require.NoError(t, err)
	return s
}

func TestStoreInitializesEmptyDocuments(t *testing.T) {
	s := newTestStore(t)

	devs, err := s.LoadDevices()
	require.NoError(t, err)
	assert.Empty(t, devs.Devices)

	ops, err := s.LoadOperators()
	require.NoError(t, err)
	assert.Empty(t, ops.Full)
	assert.Empty(t, ops.Scoped)
}

func TestStoreRoundTrip(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.SaveDevices(&models.DeviceDocument{Devices: []models.Device{
		{ID: "rtr_aaaa0001", Name: "office", Host: "https://10.1.1.1"},
		{ID: "rtr_aaaa0002", Name: "lab", Host: "https://10.1.1.2"},
	}}))
	require.NoError(t, s.SaveOperators(&models.OperatorDocument{
		Full:   []string{"100"},
		Scoped: []models.ScopedOperator{{ID: "200", Name: "junior", AllowedDevices: []string{"rtr_aaaa0001"}}},
	}))

	devs, err := s.LoadDevices()
	require.NoError(t, err)
	require.Len(t, devs.Devices, 2)
	// порядок вставки сохраняется
	assert.Equal(t, "office", devs.Devices[0].Name)
	assert.Equal(t, "lab", devs.Devices[1].Name)

	ops, err := s.LoadOperators()
	require.NoError(t, err)
	assert.Equal(t, []string{"100"}, ops.Full)
	require.Len(t, ops.Scoped, 1)
	assert.Equal(t, []string{"rtr_aaaa0001"}, ops.Scoped[0].AllowedDevices)
}

func TestStoreMalformedDocumentIsFatal(t *testing.T) {
	fs := afero.NewMemMapFs()
	s, err := NewStore(fs, "data")
	require.NoError(t, err)

	require.NoError(t, afero.WriteFile(fs, "data/devices.json", []byte("{broken"), 0o644))
	_, err = s.LoadDevices()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse")
}
