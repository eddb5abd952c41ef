package sequencer

import (
	"fmt"

	"google.golang.org/grpc/codes"
)

// codedError is an internal error that remembers which gRPC code it would
// map to, without committing to the "rpc error: code = ..." rendering
// status.Error produces. Only RunTestSequence's top-level boundary and
// RegisterNode ever turn a code into an actual status error; everywhere
// else (placement, fan-out) an error's Error() text is what ultimately
// gets quoted verbatim into an outer Aborted status, so it must stay
// plain.
type codedError struct {
	code codes.Code
	msg  string
}

func (e *codedError) Error() string {
	return e.msg
}

// Code returns the gRPC code this error would have carried had it been
// returned directly to a caller instead of being folded into an outer
// Aborted status.
func (e *codedError) Code() codes.Code {
	return e.code
}

func newError(code codes.Code, format string, args ...interface{}) error {
	return &codedError{code: code, msg: fmt.Sprintf(format, args...)}
}
