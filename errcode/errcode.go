package errcode

// Code is a stable, bus-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK             Code = "ok"
	Busy           Code = "busy"
	Unsupported    Code = "unsupported"
	InvalidParams  Code = "invalid_params"
	InvalidPayload Code = "invalid_payload"
	InvalidTopic   Code = "invalid_topic"
	Timeout        Code = "timeout"

	// Configuration (surfaced from Setup; component stays uninitialised).
	InvalidSampleRate  Code = "invalid_sample_rate"
	InvalidBitDepth    Code = "invalid_bit_depth"
	InvalidChannelMode Code = "invalid_channel_mode"
	PinConflict        Code = "pin_conflict"
	PinOutOfRange      Code = "pin_out_of_range"
	ClockUnachievable  Code = "clock_unachievable"

	// Driver (peripheral / DMA bring-up).
	AllocationFailed Code = "allocation_failed"
	PeripheralBusy   Code = "peripheral_busy"

	// Data plane.
	QueueFull        Code = "queue_full"
	MisalignedBuffer Code = "misaligned_buffer"
	ComponentFaulted Code = "component_faulted"
	InvalidState     Code = "invalid_state"
	NotRunning       Code = "not_running"

	// Codec control.
	UnknownChip Code = "unknown_chip"

	Error Code = "error" // generic fallback
)

// Optional wrapper when we want to keep context and a cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += " (" + e.Err.Error() + ")"
	}
	return s
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Is lets errors.Is(err, errcode.X) match a wrapped code.
func (e *E) Is(target error) bool {
	c, ok := target.(Code)
	return ok && c == e.C
}

// Wrap attaches an operation and cause to a code.
func Wrap(c Code, op string, err error) *E { return &E{C: c, Op: op, Err: err} }

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	return Error
}

// MapDriverErr maps low-level driver errors to a Code.
// Errors that already carry a Code keep it; anything else is generic.
func MapDriverErr(err error) Code {
	if err == nil {
		return OK
	}
	if c := Of(err); c != Error {
		return c
	}
	type temporary interface{ Temporary() bool }
	if t, ok := err.(temporary); ok && t.Temporary() {
		return Busy
	}
	return Error
}
