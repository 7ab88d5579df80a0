// Command mbserve answers Modbus RTU requests for a bank of holding
// registers on a serial line, demonstrating mbcore's server mode.
package main

import (
	"log"
	"time"

	"github.com/xxandev/mbcore"
	"github.com/xxandev/mbcore/transport"
)

func main() {
	port := transport.NewPort(transport.SerialConfig{
		Address:     "/dev/ttyUSB0",
		BaudRate:    9600,
		DataBits:    8,
		Parity:      "N",
		StopBits:    2,
		ReadTimeout: 20 * time.Millisecond,
	})
	if err := port.Open(); err != nil {
		log.Panic(err)
	}
	defer port.Close()

	clock := transport.NewSystemClock()
	payload := make([]byte, 256)
	inst, err := mbcore.New(mbcore.Config{
		Reader:        port,
		Writer:        port,
		Clock:         clock,
		PayloadBuffer: payload,
		RxTimeout:     1000,
		TxTimeout:     200,
	})
	if err != nil {
		log.Panic(err)
	}

	registers := make([]uint16, 125)
	scratch := make([]byte, 2*len(registers))

	err = inst.LinkEndpoints([]mbcore.Endpoint{
		{
			Address: 0x11,
			Mask:    0xFF,
			Handlers: []mbcore.Handler{
				{Function: mbcore.FuncReadHoldingRegisters, Callback: func(f *mbcore.Frame) {
					start, count := int(f.RegAddr), int(f.RegValueCount)
					if start < 0 || count <= 0 || start+count > len(registers) {
						f.Function |= mbcore.ExceptionFlag
						f.LengthCode = byte(mbcore.IllegalDataAddress)
						return
					}
					packed := mbcore.PackRegisters(scratch, registers[start:start+count])
					copy(f.Payload, packed)
					f.LengthCode = byte(len(packed))
				}},
			},
		},
	})
	if err != nil {
		log.Panic(err)
	}

	for {
		inst.Step()
		time.Sleep(time.Millisecond)
	}
}
