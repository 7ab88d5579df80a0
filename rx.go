package mbcore

// rxFramer is the resumable twelve-stage frame decoder, grounded on
// original_source's _RxFrame. It mirrors txFramer stage for stage
// through the checksum, then adds the ASCII terminator check and the
// RTU resynchronization scan that the encoder has no equivalent of.
type rxFramer struct {
	stage int
	block blockXfer
	buf   [2]byte
	crc   uint16
	lrc   byte
	shape Shape
}

// reset arms the decoder for a new incoming frame.
func (r *rxFramer) reset() {
	r.stage = 1
	r.block.reset()
	r.crc = crc16ModbusSeed
	r.lrc = 0
	r.shape = ShapeNone
}

func (r *rxFramer) readField(codec *codecState, rd Reader, dst []byte) (bool, error) {
	return r.block.step(dst, func(buf []byte) (int, error) {
		return codec.readLogical(rd, buf)
	})
}

func (r *rxFramer) readRaw(rd Reader, dst []byte) (bool, error) {
	return r.block.step(dst, func(buf []byte) (int, error) {
		return rd.Read(buf)
	})
}

func (r *rxFramer) fold(b []byte) {
	r.crc = crc16RTU(b, r.crc)
	r.lrc = lrcASCII(b, r.lrc)
}

// enterResync switches an RTU decode into the stage-12 scan without
// disturbing the CRC accumulated so far — the scan looks for where that
// same running value lines up with a trailing candidate CRC in the
// corrupted stream.
func (r *rxFramer) enterResync(f *Frame) {
	f.LengthCode = 0
	f.Payload[0] = 0
	r.stage = 12
}

// step drives the decoder one increment. isRequest selects which half of
// the shape table applies: true on a server reading a request, false on
// a client reading a response. It returns true once a complete frame is
// available. A hard decode failure returns false with a non-nil err; err
// is nil while the frame, or a soft RTU resync, is still in progress.
func (r *rxFramer) step(rd Reader, codec *codecState, mode Mode, f *Frame, isRequest bool) (bool, error) {
	for {
		switch r.stage {
		case 1:
			if mode == ModeASCII {
				var c [1]byte
				done, err := r.readRaw(rd, c[:])
				if err != nil {
					return false, err
				}
				if !done {
					return false, nil
				}
				if c[0] != ':' {
					continue
				}
			}
			codec.reset()
			r.crc = crc16ModbusSeed
			r.lrc = 0
			r.stage = 2

		case 2:
			if mode == ModePDU {
				r.stage = 3
				continue
			}
			done, err := r.readField(codec, rd, r.buf[:1])
			if err != nil {
				return false, err
			}
			if !done {
				return false, nil
			}
			f.Address = r.buf[0]
			r.fold(r.buf[:1])
			r.stage = 3

		case 3:
			done, err := r.readField(codec, rd, r.buf[:1])
			if err != nil {
				return false, err
			}
			if !done {
				return false, nil
			}
			f.Function = r.buf[0]
			r.fold(r.buf[:1])
			r.shape = shapeFor(f.Function, isRequest)
			r.stage = 4

		case 4:
			if !r.shape.hasRegisterFields() || f.IsException() {
				r.stage = 5
				continue
			}
			done, err := r.readField(codec, rd, r.buf[:2])
			if err != nil {
				return false, err
			}
			if !done {
				return false, nil
			}
			f.RegAddr = uint16(r.buf[0])<<8 | uint16(r.buf[1])
			r.fold(r.buf[:2])
			r.stage = 5

		case 5:
			if !r.shape.hasRegisterFields() || f.IsException() {
				r.stage = 6
				continue
			}
			done, err := r.readField(codec, rd, r.buf[:2])
			if err != nil {
				return false, err
			}
			if !done {
				return false, nil
			}
			f.RegValueCount = uint16(r.buf[0])<<8 | uint16(r.buf[1])
			r.fold(r.buf[:2])
			r.stage = 6

		case 6:
			if !r.shape.hasLengthField() {
				r.stage = 7
				continue
			}
			done, err := r.readField(codec, rd, r.buf[:1])
			if err != nil {
				return false, err
			}
			if !done {
				return false, nil
			}
			f.LengthCode = r.buf[0]
			r.fold(r.buf[:1])
			r.stage = 7

		case 7:
			if r.shape.hasData() && (f.LengthCode == 0 || int(f.LengthCode) > int(f.BufferSize)) {
				if mode == ModeRTU {
					r.enterResync(f)
					continue
				}
				return false, errBadLength
			}
			r.stage = 8

		case 8:
			if !r.shape.hasData() {
				r.stage = 9
				continue
			}
			n := int(f.LengthCode)
			done, err := r.readField(codec, rd, f.Payload[:n])
			if err != nil {
				return false, err
			}
			if !done {
				return false, nil
			}
			r.fold(f.Payload[:n])
			r.stage = 9

		case 9:
			if r.shape == ShapeNone {
				if mode == ModeRTU {
					r.enterResync(f)
					continue
				}
				return false, errUnknownShape
			}
			r.stage = 10

		case 10:
			if mode == ModePDU {
				r.stage = 11
				continue
			}
			if mode == ModeASCII {
				done, err := r.readField(codec, rd, r.buf[:1])
				if err != nil {
					return false, err
				}
				if !done {
					return false, nil
				}
				if r.buf[0] != r.lrc {
					return false, errChecksumMismatch
				}
			} else {
				done, err := r.readField(codec, rd, r.buf[:2])
				if err != nil {
					return false, err
				}
				if !done {
					return false, nil
				}
				candidate := uint16(r.buf[0]) | uint16(r.buf[1])<<8
				if candidate != r.crc {
					r.enterResync(f)
					continue
				}
			}
			r.stage = 11

		case 11:
			if mode != ModeASCII {
				return true, nil
			}
			var term [2]byte
			done, err := r.readRaw(rd, term[:])
			if err != nil {
				return false, err
			}
			if !done {
				return false, nil
			}
			if term[0] != '\r' || term[1] != '\n' {
				return false, errBadTerminator
			}
			return true, nil

		case 12:
			for {
				var b [1]byte
				done, err := r.readField(codec, rd, b[:])
				if err != nil {
					return false, err
				}
				if !done {
					return false, nil
				}
				f.Payload[1] = b[0]
				if f.LengthCode > 0 {
					candidate := uint16(f.Payload[0])<<8 | uint16(f.Payload[1])
					if candidate == r.crc || f.LengthCode >= 251 {
						return false, errFrameAbandoned
					}
					r.crc = crc16RTU(f.Payload[0:1], r.crc)
				}
				f.LengthCode++
				f.Payload[0] = f.Payload[1]
			}

		default:
			return true, nil
		}
	}
}
