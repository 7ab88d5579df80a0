package mbcore

// txFramer is the resumable nine-stage frame encoder, grounded on
// original_source's _TxFrame. Each Step call advances as far as the
// codec and transport allow; a stage that cannot complete leaves the
// stepper's position untouched for the next call.
type txFramer struct {
	stage int
	block blockXfer
	buf   [2]byte
	crc   uint16
	lrc   byte
}

// reset arms the framer for a new outgoing frame.
func (t *txFramer) reset() {
	t.stage = 1
	t.block.reset()
	t.crc = crc16ModbusSeed
	t.lrc = 0
}

func (t *txFramer) writeField(codec *codecState, w Writer, src []byte) (bool, error) {
	return t.block.step(src, func(buf []byte) (int, error) {
		return codec.writeLogical(w, buf)
	})
}

func (t *txFramer) writeRaw(w Writer, src []byte) (bool, error) {
	return t.block.step(src, func(buf []byte) (int, error) {
		return w.Write(buf)
	})
}

func (t *txFramer) fold(b []byte) {
	t.crc = crc16RTU(b, t.crc)
	t.lrc = lrcASCII(b, t.lrc)
}

// step drives the encoder one increment. It returns true once the whole
// frame has been written. shape is the instance's active Tx shape for
// this frame.
func (t *txFramer) step(w Writer, codec *codecState, mode Mode, f *Frame, shape Shape) (bool, error) {
	for {
		switch t.stage {
		case 1:
			if mode == ModeASCII {
				done, err := t.writeRaw(w, []byte{':'})
				if err != nil {
					return false, err
				}
				if !done {
					return false, nil
				}
			}
			codec.reset()
			t.crc = crc16ModbusSeed
			t.lrc = 0
			t.stage = 2

		case 2:
			if mode == ModePDU {
				t.stage = 3
				continue
			}
			t.buf[0] = f.Address
			done, err := t.writeField(codec, w, t.buf[:1])
			if err != nil {
				return false, err
			}
			if !done {
				return false, nil
			}
			t.fold(t.buf[:1])
			t.stage = 3

		case 3:
			t.buf[0] = f.Function
			done, err := t.writeField(codec, w, t.buf[:1])
			if err != nil {
				return false, err
			}
			if !done {
				return false, nil
			}
			t.fold(t.buf[:1])
			t.stage = 4

		case 4:
			if !shape.hasRegisterFields() || f.IsException() {
				t.stage = 5
				continue
			}
			putUint16BE(t.buf[:2], f.RegAddr)
			done, err := t.writeField(codec, w, t.buf[:2])
			if err != nil {
				return false, err
			}
			if !done {
				return false, nil
			}
			t.fold(t.buf[:2])
			t.stage = 5

		case 5:
			if !shape.hasRegisterFields() || f.IsException() {
				t.stage = 6
				continue
			}
			putUint16BE(t.buf[:2], f.RegValueCount)
			done, err := t.writeField(codec, w, t.buf[:2])
			if err != nil {
				return false, err
			}
			if !done {
				return false, nil
			}
			t.fold(t.buf[:2])
			t.stage = 6

		case 6:
			if !shape.hasLengthField() {
				t.stage = 7
				continue
			}
			t.buf[0] = f.LengthCode
			done, err := t.writeField(codec, w, t.buf[:1])
			if err != nil {
				return false, err
			}
			if !done {
				return false, nil
			}
			t.fold(t.buf[:1])
			t.stage = 7

		case 7:
			if !shape.hasData() {
				t.stage = 8
				continue
			}
			n := int(f.LengthCode)
			done, err := t.writeField(codec, w, f.Payload[:n])
			if err != nil {
				return false, err
			}
			if !done {
				return false, nil
			}
			t.fold(f.Payload[:n])
			t.stage = 8

		case 8:
			if mode == ModePDU {
				t.stage = 9
				continue
			}
			if mode == ModeASCII {
				t.buf[0] = t.lrc
				done, err := t.writeField(codec, w, t.buf[:1])
				if err != nil {
					return false, err
				}
				if !done {
					return false, nil
				}
			} else {
				t.buf[0] = byte(t.crc)
				t.buf[1] = byte(t.crc >> 8)
				done, err := t.writeField(codec, w, t.buf[:2])
				if err != nil {
					return false, err
				}
				if !done {
					return false, nil
				}
			}
			t.stage = 9

		case 9:
			if mode != ModeASCII {
				return true, nil
			}
			done, err := t.writeRaw(w, []byte{'\r', '\n'})
			if err != nil {
				return false, err
			}
			if !done {
				return false, nil
			}
			return true, nil

		default:
			return true, nil
		}
	}
}

func putUint16BE(dst []byte, v uint16) {
	dst[0] = byte(v >> 8)
	dst[1] = byte(v)
}
