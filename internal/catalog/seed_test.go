package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSeed = `
items:
  - name: apples
    stock: 120
    info: local orchard, crate of 10
    measurement_type: kg
    reserved: 20
    tags: [fruit, fresh]
    currency: RUB
    price: 90.5
    step: 1
  - name: honey
    stock: 15
    info: wildflower
    measurement_type: jar
    currency: RUB
    price: 450
    step: 1
`

func writeSeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSeedFile(t *testing.T) {
	items, err := LoadSeedFile(writeSeed(t, sampleSeed))
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "apples", items[0].Name)
	assert.Equal(t, 120, items[0].Stock)
	assert.Equal(t, "kg", items[0].MeasurementType)
	assert.Equal(t, StringList{"fruit", "fresh"}, items[0].Tags)
	assert.InDelta(t, 90.5, items[0].Price, 1e-9)

	assert.Equal(t, "honey", items[1].Name)
	assert.Zero(t, items[1].Reserved)
}

func TestLoadSeedFileRejectsUnnamedItem(t *testing.T) {
	_, err := LoadSeedFile(writeSeed(t, "items:\n  - stock: 3\n"))
	require.Error(t, err)
}

func TestLoadSeedFileMissing(t *testing.T) {
	_, err := LoadSeedFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestItemAvailable(t *testing.T) {
	assert.Equal(t, 100, Item{Stock: 120, Reserved: 20}.Available())
	assert.Equal(t, 0, Item{Stock: 5, Reserved: 9}.Available())
}
