package gamma

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type output struct {
	size    int
	r, g, b []uint16
	err     error
}

func (o *output) GammaSize() int { return o.size }

func (o *output) SetGamma(r, g, b []uint16) error {
	o.r, o.g, o.b = r, g, b
	return o.err
}

func tableFile(t *testing.T, table []uint16) *os.File {
	t.Helper()

	path := filepath.Join(t.TempDir(), "gamma")
	f, err := os.Create(path)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })

	require.NoError(t, binary.Write(f, binary.NativeEndian, table))
	return f
}

func TestSet(t *testing.T) {
	out := &output{size: 2}
	c, err := NewManager().Get(out)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Size())

	err = c.Set(tableFile(t, []uint16{1, 2, 3, 4, 5, 6}))
	require.NoError(t, err)
	assert.Equal(t, []uint16{1, 2}, out.r)
	assert.Equal(t, []uint16{3, 4}, out.g)
	assert.Equal(t, []uint16{5, 6}, out.b)
	assert.True(t, c.Valid())
}

func TestSetInvalidSize(t *testing.T) {
	out := &output{size: 2}
	c, err := NewManager().Get(out)
	require.NoError(t, err)

	err = c.Set(tableFile(t, []uint16{1, 2, 3, 4, 5}))
	assert.ErrorIs(t, err, ErrInvalidGamma)
	assert.True(t, c.Valid())
	assert.Nil(t, out.r)
}

func TestSetApplyFails(t *testing.T) {
	m := NewManager()
	out := &output{size: 1, err: errors.New("no crtc")}
	c, err := m.Get(out)
	require.NoError(t, err)

	err = c.Set(tableFile(t, []uint16{1, 2, 3}))
	assert.ErrorIs(t, err, ErrFailed)
	assert.False(t, c.Valid())
	assert.ErrorIs(t, c.Set(tableFile(t, []uint16{1, 2, 3})), ErrFailed)

	_, err = m.Get(out)
	assert.NoError(t, err)
}

func TestGet(t *testing.T) {
	m := NewManager()

	_, err := m.Get(&output{})
	assert.ErrorIs(t, err, ErrUnsupported)

	out := &output{size: 256}
	c, err := m.Get(out)
	require.NoError(t, err)

	_, err = m.Get(out)
	assert.ErrorIs(t, err, ErrInUse)

	c.Destroy()
	c, err = m.Get(out)
	require.NoError(t, err)

	m.OutputDestroyed(out)
	assert.False(t, c.Valid())
}
