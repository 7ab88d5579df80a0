package mbcore

// lrcASCII folds data into the running 8-bit LRC accumulator and returns
// the new value. Because each byte is subtracted rather than added, the
// final accumulator is already the transmitted checksum (the two's
// complement of the plain sum) — callers write it to the wire directly,
// with no further negation.
//
// Grounded on xxandev-modbus's lrc.reset().pushByte(...).pushBytes(...)
// call shape and lumberbarons-modbus/asciiclient.go's identical
// accumulator usage.
func lrcASCII(data []byte, acc byte) byte {
	for _, b := range data {
		acc -= b
	}
	return acc
}
