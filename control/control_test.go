package control

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	good := Default()
	require.NoError(t, good.Validate())

	tests := []struct {
		name string
		mod  func(c *Control)
	}{
		{"zero elements", func(c *Control) { c.NumElems = 0 }},
		{"negative elements", func(c *Control) { c.NumElems = -3 }},
		{"empty range", func(c *Control) { c.Nets, c.Nete = 4, 4 }},
		{"range past end", func(c *Control) { c.Nete = 11 }},
		{"n0 out of range", func(c *Control) { c.N0 = 3 }},
		{"np1 negative", func(c *Control) { c.Np1 = -1 }},
		{"np1 equals n0", func(c *Control) { c.Np1 = c.N0 }},
		{"qn0 too small", func(c *Control) { c.Qn0 = -2 }},
		{"qn0 too large", func(c *Control) { c.Qn0 = 2 }},
		{"ps0 non-positive", func(c *Control) { c.Ps0 = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mod(&c)
			assert.ErrorIs(t, c.Validate(), ErrInvalidConfig)
		})
	}

	t.Run("np1 may equal nm1", func(t *testing.T) {
		c := Default()
		c.Nm1 = c.Np1
		assert.NoError(t, c.Validate())
	})
}

func TestRange(t *testing.T) {
	c := Default()
	nets, nete := c.Range()
	assert.Equal(t, 0, nets)
	assert.Equal(t, 10, nete)
	c.Nets, c.Nete = 2, 5
	nets, nete = c.Range()
	assert.Equal(t, 2, nets)
	assert.Equal(t, 5, nete)
}

func TestDecode(t *testing.T) {
	c, err := Decode(strings.NewReader(`
num_elems = 24
dt2 = 300.0
qn0 = 0
`))
	require.NoError(t, err)
	assert.Equal(t, 24, c.NumElems)
	assert.Equal(t, 300., c.Dt2)
	assert.Equal(t, 0, c.Qn0)
	assert.Equal(t, Rgas, c.Rgas)

	_, err = Decode(strings.NewReader("bogus_key = 1\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rhs.toml")
	require.NoError(t, os.WriteFile(path, []byte("ps0 = 90000.0\n"), 0o644))
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 90000., c.Ps0)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
