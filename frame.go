package mbcore

// ExceptionFlag is or'd into Frame.Function to mark an exception response.
const ExceptionFlag byte = 0x80

// Broadcast is the reserved device address that expects no response.
const Broadcast byte = 0x00

// ErrorCode enumerates the standard Modbus exception codes.
type ErrorCode byte

const (
	IllegalFunction                    ErrorCode = 0x01
	IllegalDataAddress                 ErrorCode = 0x02
	IllegalDataValue                   ErrorCode = 0x03
	SlaveDeviceFailure                 ErrorCode = 0x04
	Acknowledge                        ErrorCode = 0x05
	SlaveDeviceBusy                    ErrorCode = 0x06
	NegativeAcknowledge                ErrorCode = 0x07
	MemoryParityError                  ErrorCode = 0x08
	GatewayPathUnavailable             ErrorCode = 0x0A
	GatewayTargetDeviceFailedToRespond ErrorCode = 0x0B
)

// Function codes this engine understands.
const (
	FuncReadCoils              byte = 0x01
	FuncReadDiscreteInputs     byte = 0x02
	FuncReadHoldingRegisters   byte = 0x03
	FuncReadInputRegisters     byte = 0x04
	FuncWriteSingleCoil        byte = 0x05
	FuncWriteSingleRegister    byte = 0x06
	FuncReadExceptionStatus    byte = 0x07
	FuncGetCommEventCounter    byte = 0x0B
	FuncGetCommEventLog        byte = 0x0C
	FuncWriteMultipleCoils     byte = 0x0F
	FuncWriteMultipleRegisters byte = 0x10
	FuncReportSlaveID          byte = 0x11
	FuncReadFileRecord         byte = 0x14
	FuncWriteFileRecord        byte = 0x15
)

// Frame is the logical unit the engine produces and consumes.
//
// Payload is only meaningful for the VariableLen and Full shapes. On Rx it
// points into the instance's payload buffer and is only valid until the
// next Step call or the next Request; on Tx the engine copies it into the
// instance's buffer during Request so the caller may reuse or discard its
// own slice immediately.
type Frame struct {
	Address       byte
	Function      byte
	RegAddr       uint16
	RegValueCount uint16
	LengthCode    byte
	Payload       []byte
	BufferSize    byte
}

// IsException reports whether Function carries the exception flag.
func (f *Frame) IsException() bool {
	return f != nil && f.Function&ExceptionFlag != 0
}

// Shape identifies one of the six wire layouts a packet may take.
type Shape uint8

const (
	ShapeNone Shape = iota
	ShapeBase
	ShapeVariableLen
	ShapeFull
	ShapeCode
	ShapeCall
)

// hasRegisterFields reports whether the shape carries RegAddr/RegValueCount.
func (s Shape) hasRegisterFields() bool {
	return s == ShapeBase || s == ShapeFull
}

// hasLengthField reports whether the shape carries a length/code byte.
func (s Shape) hasLengthField() bool {
	return s == ShapeVariableLen || s == ShapeFull || s == ShapeCode
}

// hasData reports whether the shape carries a variable-length data region.
func (s Shape) hasData() bool {
	return s == ShapeVariableLen || s == ShapeFull
}

// shapeFor maps a function code to its packet shape and is consulted on
// both Tx (pick fields to emit) and Rx (pick fields to expect). Grounded
// on original_source's _eModbusFuncToPacketType.
func shapeFor(function byte, isRequest bool) Shape {
	if function&ExceptionFlag != 0 {
		return ShapeCode
	}
	switch function {
	case FuncReadCoils, FuncReadDiscreteInputs, FuncReadHoldingRegisters, FuncReadInputRegisters:
		if isRequest {
			return ShapeBase
		}
		return ShapeVariableLen
	case FuncWriteSingleCoil, FuncWriteSingleRegister:
		return ShapeBase
	case FuncReadExceptionStatus:
		if isRequest {
			return ShapeCall
		}
		return ShapeCode
	case FuncGetCommEventCounter:
		if isRequest {
			return ShapeCall
		}
		return ShapeBase
	case FuncGetCommEventLog:
		if isRequest {
			return ShapeCall
		}
		return ShapeVariableLen
	case FuncWriteMultipleCoils, FuncWriteMultipleRegisters:
		if isRequest {
			return ShapeFull
		}
		return ShapeBase
	case FuncReportSlaveID:
		if isRequest {
			return ShapeCall
		}
		return ShapeVariableLen
	case FuncReadFileRecord, FuncWriteFileRecord:
		return ShapeVariableLen
	default:
		return ShapeNone
	}
}

// ResponseData extracts the payload, item count, and item size from a
// completed response frame. Register data is byte-swapped in place from
// big-endian wire order to host order. Exception responses return a nil
// pointer and the exception code.
func ResponseData(f *Frame) (data []byte, itemCount int, itemSize int, code ErrorCode) {
	if f == nil {
		return nil, 0, 0, 0
	}
	itemSize = 2
	switch f.Function &^ ExceptionFlag {
	case FuncReadCoils, FuncReadDiscreteInputs:
		itemSize = 1
	}
	shape := shapeFor(f.Function, false)
	switch shape {
	case ShapeVariableLen, ShapeFull:
		if itemSize == 2 {
			for i := 0; i+1 < int(f.LengthCode); i += 2 {
				f.Payload[i], f.Payload[i+1] = f.Payload[i+1], f.Payload[i]
			}
			itemCount = int(f.LengthCode) / 2
		} else {
			itemCount = int(f.LengthCode)
		}
		return f.Payload[:f.LengthCode], itemCount, itemSize, 0
	case ShapeBase:
		buf := []byte{byte(f.RegValueCount), byte(f.RegValueCount >> 8)}
		return buf, 1, 2, 0
	case ShapeCode:
		return nil, 0, 0, ErrorCode(f.LengthCode)
	default:
		return nil, 0, 0, 0
	}
}
