// Command mbpoll polls a list of RTU slave addresses for holding
// registers, driving an mbcore.Instance from a plain ticking loop rather
// than a goroutine-per-concern channel pipeline — there is exactly one
// instance and one in-flight transfer at a time, so a single loop is all
// Step needs.
package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
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

	addresses := []byte{0x12, 0x13, 0x14, 0x15, 0x16}

	ossigs := make(chan os.Signal, 1)
	signal.Notify(ossigs, os.Interrupt, os.Kill, syscall.SIGTERM)

	for _, addr := range addresses {
		select {
		case <-ossigs:
			return
		default:
		}
		poll(inst, addr)
	}
}

// poll sends one ReadHoldingRegisters request to addr and drives Step
// until the instance's callback fires.
func poll(inst *mbcore.Instance, addr byte) {
	req := mbcore.NewReadHoldingRegistersRequest(addr, 0, 11)
	done := make(chan struct{})
	started := time.Now()

	_, err := inst.Request(req, func(resp *mbcore.Frame) {
		defer close(done)
		data, itemCount, itemSize, code := mbcore.ResponseData(resp)
		if resp.IsException() {
			log.Printf("device %#x: exception %#x\n", addr, code)
			return
		}
		if itemSize == 2 {
			var regs []uint16
			regs = mbcore.UnpackRegisters(regs, data)
			log.Printf("device %#x: %d registers in %v: %v\n", addr, itemCount, time.Since(started), regs)
		}
	})
	if err != nil {
		log.Printf("device %#x: request rejected: %v\n", addr, err)
		return
	}

	for {
		select {
		case <-done:
			return
		default:
		}
		inst.Step()
		time.Sleep(time.Millisecond)
	}
}
