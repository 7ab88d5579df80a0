// Package transport provides reference Reader/Writer/Clock adapters for
// mbcore over a real serial line. The engine itself is transport-agnostic;
// these adapters exist so an embedder wiring RTU or ASCII mode against an
// actual UART does not have to write one from scratch.
package transport

import (
	"log"
	"sync"
	"time"

	"github.com/goburrow/serial"

	"github.com/xxandev/mbcore"
)

// SerialConfig mirrors xxandev-modbus's per-mode Set* builder shape
// (MBTransporter.SetRTU/SetASCII), collapsed to one struct since the
// wire encoding is an mbcore.Config concern, not a transport one.
type SerialConfig struct {
	Address  string
	BaudRate int
	DataBits int
	Parity   string
	StopBits int

	// ReadTimeout bounds how long a single Read blocks waiting for at
	// least one byte. Keep it short (a few character times) so Step
	// returns promptly; mbcore never calls Read from more than one
	// goroutine so there is no concurrent-access hazard to guard against.
	ReadTimeout time.Duration

	Logger *log.Logger
}

// Port is a serial line opened via github.com/goburrow/serial, adapted to
// mbcore.Reader and mbcore.Writer. Grounded on xxandev-modbus's
// serialPort (transporter.go): same mutex-guarded open/close shape,
// minus the idle-close timer and blocking Send round-trip, which
// belonged to that package's request/response transporter model rather
// than mbcore's byte-at-a-time Step model. Read and Write do not open
// the device themselves; until Open succeeds they return (0, nil).
type Port struct {
	cfg serial.Config

	mu   sync.Mutex
	port serial.Port

	logger *log.Logger
}

// NewPort builds an unopened Port from cfg.
func NewPort(cfg SerialConfig) *Port {
	return &Port{
		cfg: serial.Config{
			Address:  cfg.Address,
			BaudRate: cfg.BaudRate,
			DataBits: cfg.DataBits,
			Parity:   cfg.Parity,
			StopBits: cfg.StopBits,
			Timeout:  cfg.ReadTimeout,
		},
		logger: cfg.Logger,
	}
}

// Open connects the underlying serial device if it is not already open.
func (p *Port) Open() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.port != nil {
		return nil
	}
	port, err := serial.Open(&p.cfg)
	if err != nil {
		return err
	}
	p.port = port
	return nil
}

// Close releases the underlying serial device.
func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.port == nil {
		return nil
	}
	err := p.port.Close()
	p.port = nil
	return err
}

func (p *Port) logf(format string, v ...interface{}) {
	if p.logger != nil {
		p.logger.Printf(format, v...)
	}
}

// Read implements mbcore.Reader. With ReadTimeout configured short, the
// underlying driver's VTIME-style timeout surfaces as (0, nil) rather
// than blocking, which is exactly mbcore's non-blocking contract; any
// other error is a fatal transport failure and is returned as such.
func (p *Port) Read(buf []byte) (int, error) {
	p.mu.Lock()
	port := p.port
	p.mu.Unlock()
	if port == nil {
		return 0, nil
	}
	n, err := port.Read(buf)
	if err != nil {
		return n, err
	}
	if n > 0 {
		p.logf("mbcore: read % x", buf[:n])
	}
	return n, nil
}

// Write implements mbcore.Writer.
func (p *Port) Write(buf []byte) (int, error) {
	p.mu.Lock()
	port := p.port
	p.mu.Unlock()
	if port == nil {
		return 0, nil
	}
	n, err := port.Write(buf)
	if err != nil {
		return n, err
	}
	if n > 0 {
		p.logf("mbcore: wrote % x", buf[:n])
	}
	return n, nil
}

var _ mbcore.Reader = (*Port)(nil)
var _ mbcore.Writer = (*Port)(nil)
