package mbcore

import "errors"

// Mode selects the wire encoding an Instance speaks: a tagged enum
// replacing the source's runtime function-pointer dispatch.
type Mode uint8

const (
	ModeRTU Mode = iota
	ModeASCII
	ModePDU
)

// ErrInvalidHex is a hard framing error: an ASCII frame contained a
// character outside [0-9A-Fa-f] where a logical byte was expected.
var ErrInvalidHex = errors.New("modbus: invalid ascii hex character")

const hexDigits = "0123456789ABCDEF"

func hexNibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	default:
		return 0, false
	}
}

// codecState is the resumable wire codec. RTU and PDU pass bytes through
// unchanged; ASCII expands/collapses each logical byte to two hex
// characters, staging a partial pair or partial write across calls. ':'
// and CR/LF framing bytes are not logical content and are read or
// written directly against the raw Reader/Writer by the framer,
// bypassing this type entirely.
type codecState struct {
	mode Mode

	rxChars  [2]byte
	rxHave   int // hex characters already staged for the byte in flight
	txChars  [2]byte
	txRemain int // hex characters of txChars still to be written
}

// reset clears any partially-decoded or partially-written ASCII staging.
// Called at the start of each new frame.
func (c *codecState) reset() {
	c.rxHave = 0
	c.txRemain = 0
}

// readLogical attempts to fill dst with up to len(dst) logical bytes,
// returning the number actually decoded this call. A return of (0, nil)
// means the transport had nothing more to offer yet; resume on the next
// call with the same dst tail. ErrInvalidHex is a hard, non-resumable
// failure: an invalid hex character aborts the frame outright.
func (c *codecState) readLogical(r Reader, dst []byte) (int, error) {
	if c.mode != ModeASCII {
		return r.Read(dst)
	}
	n := 0
	for n < len(dst) {
		got, err := r.Read(c.rxChars[c.rxHave:2])
		if err != nil {
			return n, err
		}
		if got == 0 {
			return n, nil
		}
		c.rxHave += got
		if c.rxHave < 2 {
			return n, nil
		}
		c.rxHave = 0
		hi, okHi := hexNibble(c.rxChars[0])
		lo, okLo := hexNibble(c.rxChars[1])
		if !okHi || !okLo {
			return n, ErrInvalidHex
		}
		dst[n] = hi<<4 | lo
		n++
	}
	return n, nil
}

// writeLogical attempts to drain up to len(src) logical bytes to the
// transport, returning the number fully written this call.
func (c *codecState) writeLogical(w Writer, src []byte) (int, error) {
	if c.mode != ModeASCII {
		return w.Write(src)
	}
	n := 0
	for n < len(src) {
		if c.txRemain == 0 {
			b := src[n]
			c.txChars[0] = hexDigits[b>>4]
			c.txChars[1] = hexDigits[b&0x0F]
			c.txRemain = 2
		}
		written, err := w.Write(c.txChars[2-c.txRemain : 2])
		if err != nil {
			return n, err
		}
		c.txRemain -= written
		if c.txRemain > 0 {
			return n, nil
		}
		n++
	}
	return n, nil
}
