package mbcore

import "errors"

// Sentinel errors returned synchronously by the public surface. Framing
// and transport failures never reach the caller this way — they are
// absorbed by resumption or surfaced as a synthetic exception frame
// through the completion callback instead.
var (
	// ErrBusy is returned by Request when a transfer is already in flight.
	ErrBusy = errors.New("modbus: instance busy")
	// ErrNilFrame is returned when a nil callback is passed to Request.
	ErrNilFrame = errors.New("modbus: nil frame")
	// ErrUnsupportedFunction is returned when a function code has no
	// defined request shape.
	ErrUnsupportedFunction = errors.New("modbus: unsupported function code")
	// ErrBufferTooSmall is returned when a variable-length request's
	// payload does not fit the instance's payload buffer.
	ErrBufferTooSmall = errors.New("modbus: payload exceeds buffer capacity")
	// ErrEmptyPayload is returned when a variable-length request is built
	// with a zero length code or a nil payload.
	ErrEmptyPayload = errors.New("modbus: variable-length request has no payload")
	// ErrNotClient is returned by Request and Cancel when the instance is
	// bound as a server.
	ErrNotClient = errors.New("modbus: request and cancel are only valid on a client instance")
	// ErrBadRequestID is returned by Cancel when the id does not match the
	// in-flight transfer.
	ErrBadRequestID = errors.New("modbus: request id does not match in-flight transfer")
	// ErrBadHandlers is returned by LinkEndpoints when an endpoint's
	// handler list contains a nil callback.
	ErrBadHandlers = errors.New("modbus: endpoint handler with nil callback")
	// ErrBadConfig is returned by New when the config is missing a
	// mandatory field (interface, payload buffer).
	ErrBadConfig = errors.New("modbus: invalid config")
)

// Rx framing failures. These never reach a caller directly: on RTU they
// trigger the stage-12 resync scan, on ASCII/PDU they abort the frame
// and are reported through the session controller the same way a
// transport error would be.
var (
	// errBadLength is stage 7: length_code > buffer_size or == 0 on a
	// variable-length shape.
	errBadLength = errors.New("modbus: length_code out of range")
	// errUnknownShape is stage 9: the function code maps to no shape.
	errUnknownShape = errors.New("modbus: function code maps to no packet shape")
	// errChecksumMismatch is stage 10.
	errChecksumMismatch = errors.New("modbus: checksum mismatch")
	// errBadTerminator is stage 11: the two bytes after the checksum were
	// not CR LF.
	errBadTerminator = errors.New("modbus: missing ascii terminator")
	// errFrameAbandoned is stage 12 ending its scan: either a trailing
	// candidate CRC matched the running CRC, or the scan reached its
	// 251-byte bound. Either way the frame is abandoned.
	errFrameAbandoned = errors.New("modbus: rtu resync scan exhausted")
)
