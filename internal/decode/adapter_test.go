package decode

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadAdapterSeekModes(t *testing.T) {
	data := []byte("0123456789")
	a := &readAdapter{r: bytes.NewReader(data)}

	pos, err := a.seek(4, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(4), pos)

	pos, err = a.seek(2, io.SeekCurrent)
	require.NoError(t, err)
	assert.Equal(t, int64(6), pos)

	pos, err = a.seek(-1, io.SeekEnd)
	require.NoError(t, err)
	assert.Equal(t, int64(9), pos)
}

// The size query must not move the read position.
func TestReadAdapterSeekSize(t *testing.T) {
	data := []byte("0123456789")
	a := &readAdapter{r: bytes.NewReader(data)}

	_, err := a.seek(3, io.SeekStart)
	require.NoError(t, err)

	size, err := a.seek(0, avseekSize)
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), size)

	buf := make([]byte, 1)
	n, err := a.read(buf)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	assert.Equal(t, byte('3'), buf[0])
}

func TestReadAdapterBadWhence(t *testing.T) {
	a := &readAdapter{r: bytes.NewReader(nil)}
	_, err := a.seek(0, 42)
	assert.ErrorIs(t, err, ErrBadSeekWhence)
}

func TestReadAdapterReadEOF(t *testing.T) {
	a := &readAdapter{r: bytes.NewReader([]byte("ab"))}
	buf := make([]byte, 4)

	n, err := a.read(buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = a.read(buf)
	assert.ErrorIs(t, err, io.EOF)
}
