package mbcore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBlockXfer_ResumesAcrossPartialWrites(t *testing.T) {
	var b blockXfer
	buf := []byte{1, 2, 3, 4, 5}
	var got []byte

	xfer := func(chunk []byte) (int, error) {
		// transport only ever accepts one byte per call
		got = append(got, chunk[0])
		return 1, nil
	}

	for i := 0; i < len(buf); i++ {
		done, err := b.step(buf, xfer)
		require.NoError(t, err)
		if i < len(buf)-1 {
			require.False(t, done)
		} else {
			require.True(t, done)
		}
	}
	require.Equal(t, buf, got)
}

func TestBlockXfer_RearmsAfterComplete(t *testing.T) {
	var b blockXfer
	buf := []byte{0xAA}
	done, err := b.step(buf, func(c []byte) (int, error) { return len(c), nil })
	require.NoError(t, err)
	require.True(t, done)

	// a fresh field of the same size reuses the helper without an
	// explicit reset call
	buf2 := []byte{0xBB}
	done, err = b.step(buf2, func(c []byte) (int, error) { return len(c), nil })
	require.NoError(t, err)
	require.True(t, done)
}

func TestBlockXfer_PropagatesFatalError(t *testing.T) {
	var b blockXfer
	_, err := b.step([]byte{1}, func(c []byte) (int, error) { return 0, errChecksumMismatch })
	require.ErrorIs(t, err, errChecksumMismatch)
}
