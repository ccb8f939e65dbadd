// Package gamma lets clients replace the gamma ramps of outputs.
//
// A client gets a Control for an output from the Manager, learns the
// ramp size, and then hands over a file holding the red, green and
// blue ramps back to back as native endian 16-bit values.
package gamma

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"deedles.dev/strata/internal/logger"
	"github.com/charmbracelet/log"
)

var (
	// ErrInvalidGamma is a protocol error. The table is not the size
	// that the output requires.
	ErrInvalidGamma = errors.New("gamma table size is not correct")

	// ErrFailed means that the control is no longer usable. The
	// client should be told and the control discarded.
	ErrFailed = errors.New("gamma control failed")

	ErrUnsupported = errors.New("output does not support gamma control")
	ErrInUse       = errors.New("output already has a gamma control")
)

// Output is an output whose gamma can be changed.
type Output interface {
	// GammaSize returns the number of entries in each ramp. It is zero
	// if the output doesn't support gamma control.
	GammaSize() int

	SetGamma(r, g, b []uint16) error
}

// File is the client's gamma table.
type File interface {
	io.ReadSeeker
	Stat() (fs.FileInfo, error)
}

// Manager hands out at most one Control per output.
type Manager struct {
	log      *log.Logger
	controls map[Output]*Control
}

func NewManager() *Manager {
	return &Manager{
		log:      logger.For("gamma"),
		controls: make(map[Output]*Control),
	}
}

// Get returns a new Control for out.
func (m *Manager) Get(out Output) (*Control, error) {
	size := out.GammaSize()
	if size <= 0 {
		return nil, ErrUnsupported
	}
	if _, ok := m.controls[out]; ok {
		return nil, ErrInUse
	}

	c := &Control{m: m, out: out, size: size}
	m.controls[out] = c
	m.log.Debug("new control", "size", size)
	return c, nil
}

// OutputDestroyed invalidates the control for out, if there is one.
func (m *Manager) OutputDestroyed(out Output) {
	c, ok := m.controls[out]
	if !ok {
		return
	}
	c.Destroy()
}

// Control is a client's handle on the gamma of one output.
type Control struct {
	m    *Manager
	out  Output
	size int
}

// Size returns the number of entries in each ramp.
func (c *Control) Size() int {
	return c.size
}

// Valid reports whether the control can still be used.
func (c *Control) Valid() bool {
	return c.out != nil
}

// Set reads a table from f and applies it. If it returns ErrFailed
// the control has been destroyed.
func (c *Control) Set(f File) error {
	if !c.Valid() {
		return ErrFailed
	}

	want := int64(c.size) * 3 * 2
	info, err := f.Stat()
	if err != nil {
		c.Destroy()
		return fmt.Errorf("%w: stat: %w", ErrFailed, err)
	}
	if info.Size() != want {
		return fmt.Errorf("%w: got %v bytes, want %v", ErrInvalidGamma, info.Size(), want)
	}

	_, err = f.Seek(0, io.SeekStart)
	if err != nil {
		c.Destroy()
		return fmt.Errorf("%w: seek: %w", ErrFailed, err)
	}

	table := make([]uint16, c.size*3)
	err = binary.Read(f, binary.NativeEndian, table)
	if err != nil {
		c.Destroy()
		return fmt.Errorf("%w: read: %w", ErrFailed, err)
	}

	err = c.out.SetGamma(table[:c.size], table[c.size:2*c.size], table[2*c.size:])
	if err != nil {
		c.Destroy()
		return fmt.Errorf("%w: apply: %w", ErrFailed, err)
	}
	return nil
}

// Destroy releases the output so that another control can be created
// for it.
func (c *Control) Destroy() {
	if c.out == nil {
		return
	}

	if c.m.controls[c.out] == c {
		delete(c.m.controls, c.out)
	}
	c.out = nil
}
