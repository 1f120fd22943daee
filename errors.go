package evdvk

import (
	"fmt"
	"runtime"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Error kinds reported by the backend. Every error returned from an
// exported operation wraps exactly one of them, test with errors.Is.
var (
	// ErrConfiguration means no adapter, queue, extension or validation
	// layer satisfies the requirements. Fatal at init.
	ErrConfiguration = errors.New("configuration error")
	// ErrAllocation means a native resource-creation call failed.
	ErrAllocation = errors.New("allocation error")
	// ErrTransientSurface means the surface chain went stale or suboptimal.
	// PrepareDraw rebuilds and retries once; it is returned only when the
	// rebuilt chain is out of date again before an image could be acquired.
	ErrTransientSurface = errors.New("transient surface error")
	// ErrResourceLoad means a compiled shader blob could not be read.
	ErrResourceLoad = errors.New("resource load error")
	// ErrFrameSequence means a per-frame call arrived out of order.
	ErrFrameSequence = errors.New("frame sequence error")
	// ErrNotInitialized means the backend was used before Init or after Shutdown.
	ErrNotInitialized = errors.New("backend not initialized")
)

// errSuboptimal is the transient case where an image was still acquired
// or presented.
var errSuboptimal = errors.WithMessage(ErrTransientSurface, "suboptimal")

func isError(ret vk.Result) bool {
	return ret != vk.Success
}

// NewError converts a failed vk.Result into an ErrAllocation carrying the
// caller frame. Returns nil on vk.Success.
func NewError(ret vk.Result) error {
	if ret == vk.Success {
		return nil
	}
	pc, _, _, ok := runtime.Caller(1)
	if !ok {
		return errors.Wrapf(ErrAllocation, "vulkan error: %s (%d)", resultString(ret), ret)
	}
	frame := newStackFrame(pc)
	return errors.Wrapf(ErrAllocation, "vulkan error: %s (%d) on %s",
		resultString(ret), ret, frame.String())
}

// surfaceError classifies an acquire/present result. Stale and suboptimal
// chains become ErrTransientSurface, anything else goes through NewError.
func surfaceError(ret vk.Result, op string) error {
	switch ret {
	case vk.Success:
		return nil
	case vk.Suboptimal:
		return errors.Wrap(errSuboptimal, op)
	case vk.ErrorOutOfDate:
		return errors.Wrapf(ErrTransientSurface, "%s: %s", op, resultString(ret))
	}
	return errors.Wrap(NewError(ret), op)
}

// resultString names a result without assuming vk.Error treats it as a failure.
func resultString(ret vk.Result) string {
	if err := vk.Error(ret); err != nil {
		return err.Error()
	}
	switch ret {
	case vk.Suboptimal:
		return "suboptimal"
	case vk.Timeout:
		return "timeout"
	case vk.NotReady:
		return "not ready"
	}
	return fmt.Sprintf("result %d", ret)
}

func configErrorf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrConfiguration, format, args...)
}

func loadErrorf(cause error, format string, args ...interface{}) error {
	return withKind(ErrResourceLoad, cause, format, args...)
}

// kindError tags a foreign cause with one of the error kinds; errors.Is
// matches either.
type kindError struct {
	kind  error
	cause error
}

func (e *kindError) Error() string   { return e.cause.Error() + ": " + e.kind.Error() }
func (e *kindError) Unwrap() []error { return []error{e.kind, e.cause} }

func withKind(kind, cause error, format string, args ...interface{}) error {
	return errors.WithStack(&kindError{kind: kind, cause: errors.WithMessagef(cause, format, args...)})
}

func sequenceErrorf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrFrameSequence, format, args...)
}

type stackFrame struct {
	file     string
	line     int
	function string
}

func newStackFrame(pc uintptr) stackFrame {
	frame := stackFrame{}
	if fn := runtime.FuncForPC(pc); fn != nil {
		frame.function = fn.Name()
		frame.file, frame.line = fn.FileLine(pc)
	}
	return frame
}

func (s stackFrame) String() string {
	return fmt.Sprintf("%s:%d (%s)", s.file, s.line, s.function)
}

// checkErr turns a recovered panic into an error, for deferred use in
// enumeration helpers.
func checkErr(err *error) {
	if v := recover(); v != nil {
		*err = fmt.Errorf("%+v", v)
	}
}

func orPanic(err error) {
	if err != nil {
		panic(err)
	}
}
