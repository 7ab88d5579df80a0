package mbcore

// Handler answers one function code for an Endpoint. It mutates frame in
// place to produce the response: setting Function|=ExceptionFlag and
// LengthCode to an ErrorCode signals a handler-raised exception.
//
// Grounded on original_source's ModbusCb_t; replaces the C callback +
// void-context pair with a closure.
type Handler struct {
	Function byte
	Callback func(f *Frame)
}

// Endpoint groups handlers behind an address filter: a request matches
// when (address & Mask) == Address. Mask 0xFF degenerates to an exact
// match.
//
// Grounded on original_source's ModbusEndpoint_t, re-expressed as a
// length-bearing slice instead of a null-terminated linked list.
type Endpoint struct {
	Address  byte
	Mask     byte
	Handlers []Handler
}

// Callback receives the final frame of a client request: either the
// decoded response, or a synthetic exception frame on timeout or decode
// failure.
type Callback func(f *Frame)

type phase int

const (
	phaseIdle phase = iota
	phaseTx
	phaseRx
)

// Config configures an Instance.
type Config struct {
	Reader Reader
	Writer Writer
	Clock  Clock

	// PayloadBuffer backs both inbound payload storage and outbound
	// variable-length payload copies. Its length, capped at 255 (the
	// largest length code a frame can carry), is the instance's
	// buffer_size. It must outlive the Instance.
	PayloadBuffer []byte

	RxTimeout uint16
	TxTimeout uint16

	// ASCIIMode and PDUMode are mutually exclusive; ASCIIMode wins if
	// both are set.
	ASCIIMode bool
	PDUMode   bool
}

// Instance is the fixed-size engine descriptor: exactly one transfer is
// in flight at a time, whether acting as client or server.
//
// Grounded on original_source's _prModbus_t, with the CL_PRIVATE(64)
// opaque-cast pattern replaced by an ordinary exported struct.
type Instance struct {
	cfg  Config
	mode Mode

	endpoints []Endpoint
	server    bool

	processing bool
	phase      phase
	frame      Frame
	txShape    Shape
	rxShape    Shape

	requestID uint32
	callback  Callback

	phaseStamp  uint16
	txDoneStamp uint16
	silence     bool

	codec codecState
	tx    txFramer
	rx    rxFramer

	drainBuf [64]byte
}

// New builds an Instance from cfg.
func New(cfg Config) (*Instance, error) {
	if cfg.Reader == nil || cfg.Writer == nil || cfg.Clock == nil || len(cfg.PayloadBuffer) < 2 {
		return nil, ErrBadConfig
	}
	if len(cfg.PayloadBuffer) > 255 {
		cfg.PayloadBuffer = cfg.PayloadBuffer[:255]
	}
	mode := ModeRTU
	switch {
	case cfg.ASCIIMode:
		mode = ModeASCII
	case cfg.PDUMode:
		mode = ModePDU
	}
	inst := &Instance{cfg: cfg, mode: mode}
	inst.codec.mode = mode
	return inst, nil
}

// Busy reports whether a transfer is currently in flight.
func (inst *Instance) Busy() bool {
	return inst.processing
}

// LinkEndpoints binds the instance as a server over endpoints, or
// unbinds it when endpoints is empty.
func (inst *Instance) LinkEndpoints(endpoints []Endpoint) error {
	for _, ep := range endpoints {
		for _, h := range ep.Handlers {
			if h.Callback == nil {
				return ErrBadHandlers
			}
		}
	}
	inst.endpoints = endpoints
	inst.server = len(endpoints) > 0
	if inst.server {
		inst.processing = true
		inst.phase = phaseRx
		inst.phaseStamp = inst.cfg.Clock.Now()
		// Handlers write their response into frame.Payload directly; give
		// them the full instance buffer to work with rather than whatever
		// sub-slice length the previous request happened to decode.
		inst.frame.Payload = inst.cfg.PayloadBuffer
		inst.frame.BufferSize = byte(len(inst.cfg.PayloadBuffer))
		inst.rx.reset()
		inst.codec.reset()
	} else {
		inst.processing = false
	}
	return nil
}

// Request starts a client transfer and returns its request id. f.Payload
// is copied into the instance's payload buffer for variable-length Tx
// shapes; the caller may reuse or discard its own slice immediately
// afterward.
func (inst *Instance) Request(f Frame, cb Callback) (uint32, error) {
	if inst.server {
		return 0, ErrNotClient
	}
	if inst.processing {
		return 0, ErrBusy
	}
	if cb == nil {
		return 0, ErrNilFrame
	}
	shape := shapeFor(f.Function, true)
	if shape == ShapeNone {
		return 0, ErrUnsupportedFunction
	}
	if shape.hasData() {
		if f.LengthCode == 0 || f.Payload == nil {
			return 0, ErrEmptyPayload
		}
		if int(f.LengthCode) > len(inst.cfg.PayloadBuffer) {
			return 0, ErrBufferTooSmall
		}
		copy(inst.cfg.PayloadBuffer, f.Payload[:f.LengthCode])
		f.Payload = inst.cfg.PayloadBuffer[:f.LengthCode]
	} else {
		f.Payload = inst.cfg.PayloadBuffer
	}
	f.BufferSize = byte(len(inst.cfg.PayloadBuffer))

	inst.drainPending()

	inst.txShape = shape
	inst.rxShape = shapeFor(f.Function, false)
	inst.frame = f
	inst.callback = cb
	inst.processing = true
	inst.phase = phaseTx
	inst.tx.reset()
	inst.codec.reset()
	inst.requestID++
	if inst.requestID == 0 {
		inst.requestID = 1
	}
	inst.phaseStamp = inst.cfg.Clock.Now()
	return inst.requestID, nil
}

// drainPending discards whatever the transport still has buffered from
// a previous exchange before a new request starts.
func (inst *Instance) drainPending() {
	for i := 0; i < 64; i++ {
		n, err := inst.cfg.Reader.Read(inst.drainBuf[:])
		if err != nil || n == 0 {
			return
		}
	}
}

// Cancel drops the in-flight client transfer without invoking its
// callback.
func (inst *Instance) Cancel(requestID uint32) error {
	if inst.server {
		return ErrNotClient
	}
	if !inst.processing || requestID == 0 || requestID != inst.requestID {
		return ErrBadRequestID
	}
	inst.processing = false
	inst.phase = phaseIdle
	return nil
}

// Step drives the instance by one increment, pulling and pushing as
// many bytes as the injected transport offers right now. It never
// blocks.
func (inst *Instance) Step() {
	if !inst.processing {
		return
	}
	if inst.server {
		inst.stepServer()
	} else {
		inst.stepClient()
	}
}

// tickElapsed returns the modular-16-bit delta from start to now, so a
// Clock wraparound never reads as a timeout.
func tickElapsed(start, now uint16) uint16 {
	return now - start
}

func (inst *Instance) finishClient(code ErrorCode, synth bool) {
	f := inst.frame
	if synth {
		f.Function |= ExceptionFlag
		f.LengthCode = byte(code)
	}
	inst.processing = false
	inst.phase = phaseIdle
	cb := inst.callback
	inst.callback = nil
	if cb != nil {
		cb(&f)
	}
}

func (inst *Instance) stepClient() {
	now := inst.cfg.Clock.Now()
	switch inst.phase {
	case phaseTx:
		done, err := inst.tx.step(inst.cfg.Writer, &inst.codec, inst.mode, &inst.frame, inst.txShape)
		if err != nil {
			inst.finishClient(GatewayPathUnavailable, true)
			return
		}
		if done {
			inst.phase = phaseRx
			inst.phaseStamp = now
			inst.rx.reset()
			inst.codec.reset()
			// Mirror original_source's _RxFrame case 1: repoint at the full
			// buffer, since Request may have shortened Payload to the
			// request's own (possibly smaller) length.
			inst.frame.Payload = inst.cfg.PayloadBuffer
			inst.frame.BufferSize = byte(len(inst.cfg.PayloadBuffer))
			if inst.frame.Address == Broadcast || inst.rxShape == ShapeNone {
				inst.finishClient(0, false)
			}
			return
		}
		if tickElapsed(inst.phaseStamp, now) > inst.cfg.TxTimeout {
			inst.finishClient(GatewayPathUnavailable, true)
		}

	case phaseRx:
		done, err := inst.rx.step(inst.cfg.Reader, &inst.codec, inst.mode, &inst.frame, false)
		if err != nil {
			inst.finishClient(GatewayTargetDeviceFailedToRespond, true)
			return
		}
		if done {
			inst.finishClient(0, false)
			return
		}
		if tickElapsed(inst.phaseStamp, now) > inst.cfg.RxTimeout {
			inst.finishClient(GatewayTargetDeviceFailedToRespond, true)
		}
	}
}

// dispatch runs the endpoint/handler lookup for the request currently
// held in inst.frame, mutating it into a response in place. It reports
// whether any endpoint matched.
func (inst *Instance) dispatch() bool {
	addr := inst.frame.Address
	for _, ep := range inst.endpoints {
		if addr&ep.Mask != ep.Address {
			continue
		}
		for _, h := range ep.Handlers {
			if h.Function == inst.frame.Function {
				h.Callback(&inst.frame)
				return true
			}
		}
		inst.frame.Function |= ExceptionFlag
		inst.frame.LengthCode = byte(IllegalFunction)
		return true
	}
	return false
}

func (inst *Instance) stepServer() {
	now := inst.cfg.Clock.Now()
	switch inst.phase {
	case phaseRx:
		if inst.silence {
			if tickElapsed(inst.txDoneStamp, now) < inst.cfg.TxTimeout {
				return
			}
			inst.silence = false
		}
		done, err := inst.rx.step(inst.cfg.Reader, &inst.codec, inst.mode, &inst.frame, true)
		if err != nil {
			inst.rx.reset()
			inst.codec.reset()
			inst.phaseStamp = now
			return
		}
		if !done {
			if tickElapsed(inst.phaseStamp, now) > inst.cfg.RxTimeout {
				inst.rx.reset()
				inst.codec.reset()
				inst.phaseStamp = now
			}
			return
		}

		inst.frame.BufferSize = byte(len(inst.cfg.PayloadBuffer))
		matched := inst.dispatch()
		responseShape := shapeFor(inst.frame.Function, false)
		if !matched || inst.frame.Address == Broadcast || responseShape == ShapeNone {
			inst.rx.reset()
			inst.codec.reset()
			inst.phaseStamp = now
			return
		}
		inst.txShape = responseShape
		inst.phase = phaseTx
		inst.tx.reset()
		inst.codec.reset()

	case phaseTx:
		done, err := inst.tx.step(inst.cfg.Writer, &inst.codec, inst.mode, &inst.frame, inst.txShape)
		if err != nil {
			inst.phase = phaseRx
			inst.rx.reset()
			inst.codec.reset()
			inst.phaseStamp = now
			inst.silence = false
			return
		}
		if done {
			inst.txDoneStamp = now
			inst.silence = true
			inst.phase = phaseRx
			inst.rx.reset()
			inst.codec.reset()
			inst.phaseStamp = now
		}
	}
}
