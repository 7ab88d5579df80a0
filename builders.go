package mbcore

// Frame constructors for the standard function codes, one call each —
// the caller still drives the result through Request.
//
// Grounded on original_source/Proto/Inc/ModBusHelpers.h's
// vModbusInitFrame* family (vModbusInitFrameReadOutputs,
// vModbusInitFrameReadHoldings, vModbusInitFrameWriteOutput, ...) and the
// teacher's per-function client methods (ReadCoils, WriteSingleCoil, ...
// in client.go).

// NewReadCoilsRequest builds a function-0x01 request.
func NewReadCoilsRequest(address byte, regAddr, quantity uint16) Frame {
	return Frame{Address: address, Function: FuncReadCoils, RegAddr: regAddr, RegValueCount: quantity}
}

// NewReadDiscreteInputsRequest builds a function-0x02 request.
func NewReadDiscreteInputsRequest(address byte, regAddr, quantity uint16) Frame {
	return Frame{Address: address, Function: FuncReadDiscreteInputs, RegAddr: regAddr, RegValueCount: quantity}
}

// NewReadHoldingRegistersRequest builds a function-0x03 request.
func NewReadHoldingRegistersRequest(address byte, regAddr, quantity uint16) Frame {
	return Frame{Address: address, Function: FuncReadHoldingRegisters, RegAddr: regAddr, RegValueCount: quantity}
}

// NewReadInputRegistersRequest builds a function-0x04 request.
func NewReadInputRegistersRequest(address byte, regAddr, quantity uint16) Frame {
	return Frame{Address: address, Function: FuncReadInputRegisters, RegAddr: regAddr, RegValueCount: quantity}
}

// NewWriteSingleCoilRequest builds a function-0x05 request. The wire
// value for "on" is 0xFF00, for "off" 0x0000.
func NewWriteSingleCoilRequest(address byte, regAddr uint16, on bool) Frame {
	value := uint16(0x0000)
	if on {
		value = 0xFF00
	}
	return Frame{Address: address, Function: FuncWriteSingleCoil, RegAddr: regAddr, RegValueCount: value}
}

// NewWriteSingleRegisterRequest builds a function-0x06 request.
func NewWriteSingleRegisterRequest(address byte, regAddr, value uint16) Frame {
	return Frame{Address: address, Function: FuncWriteSingleRegister, RegAddr: regAddr, RegValueCount: value}
}

// PackRegisters big-endian-encodes values into dst and returns the
// written slice; dst must have capacity for 2*len(values) bytes.
func PackRegisters(dst []byte, values []uint16) []byte {
	for i, v := range values {
		putUint16BE(dst[2*i:2*i+2], v)
	}
	return dst[:2*len(values)]
}

// UnpackRegisters decodes a register payload already swapped to host order
// by ResponseData into dst. It is the inverse of that swap, not of
// PackRegisters' big-endian wire encoding.
func UnpackRegisters(dst []uint16, payload []byte) []uint16 {
	n := len(payload) / 2
	for i := 0; i < n; i++ {
		dst = append(dst, uint16(payload[2*i])|uint16(payload[2*i+1])<<8)
	}
	return dst
}

// NewWriteMultipleRegistersRequest builds a function-0x10 request. scratch
// must have capacity for 2*len(values) bytes and is packed in place.
func NewWriteMultipleRegistersRequest(address byte, regAddr uint16, values []uint16, scratch []byte) Frame {
	payload := PackRegisters(scratch, values)
	return Frame{
		Address: address, Function: FuncWriteMultipleRegisters,
		RegAddr: regAddr, RegValueCount: uint16(len(values)),
		LengthCode: byte(len(payload)), Payload: payload,
	}
}

// NewWriteMultipleCoilsRequest builds a function-0x0F request. packedBits
// holds the coils already packed 8 per byte, LSB first.
func NewWriteMultipleCoilsRequest(address byte, regAddr uint16, coilCount uint16, packedBits []byte) Frame {
	return Frame{
		Address: address, Function: FuncWriteMultipleCoils,
		RegAddr: regAddr, RegValueCount: coilCount,
		LengthCode: byte(len(packedBits)), Payload: packedBits,
	}
}

// NewReadExceptionStatusRequest builds a function-0x07 request. This and
// the other Call-shape requests below carry no fields beyond address and
// function.
func NewReadExceptionStatusRequest(address byte) Frame {
	return Frame{Address: address, Function: FuncReadExceptionStatus}
}

// NewGetCommEventCounterRequest builds a function-0x0B request.
func NewGetCommEventCounterRequest(address byte) Frame {
	return Frame{Address: address, Function: FuncGetCommEventCounter}
}

// NewGetCommEventLogRequest builds a function-0x0C request.
func NewGetCommEventLogRequest(address byte) Frame {
	return Frame{Address: address, Function: FuncGetCommEventLog}
}

// NewReportSlaveIDRequest builds a function-0x11 request.
func NewReportSlaveIDRequest(address byte) Frame {
	return Frame{Address: address, Function: FuncReportSlaveID}
}

// NewReadFileRecordRequest builds a function-0x14 request; requestPayload
// is the sub-request list as defined by the Modbus file record extension.
func NewReadFileRecordRequest(address byte, requestPayload []byte) Frame {
	return Frame{
		Address: address, Function: FuncReadFileRecord,
		LengthCode: byte(len(requestPayload)), Payload: requestPayload,
	}
}

// NewWriteFileRecordRequest builds a function-0x15 request.
func NewWriteFileRecordRequest(address byte, requestPayload []byte) Frame {
	return Frame{
		Address: address, Function: FuncWriteFileRecord,
		LengthCode: byte(len(requestPayload)), Payload: requestPayload,
	}
}
