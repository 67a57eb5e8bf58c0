package diag

import (
	"fmt"
	"strings"
)

type Code uint16

const (
	// UnknownCode is the fallback for errors without a dedicated code.
	UnknownCode Code = 0

	// Codegen error codes. The taxonomy is closed: every failure the
	// backend can produce maps onto exactly one of these.
	CodegenInfo                 Code = 7000
	CodegenOutOfMemory          Code = 7001
	CodegenInvalidInstruction   Code = 7002
	CodegenRegisterAllocFailed  Code = 7003
	CodegenLabelNotFound        Code = 7004
	CodegenUnsupportedOperation Code = 7005
	CodegenABIViolation         Code = 7006
	CodegenStackOverflow        Code = 7007

	// Generic instantiation errors.
	GenericInfo               Code = 7100
	GenericUnknownStruct      Code = 7101
	GenericArityMismatch      Code = 7102
	GenericConstraintViolated Code = 7103
	GenericInstantiationCycle Code = 7104

	// Driver errors (artifact loading, target selection).
	DriverInfo              Code = 7200
	DriverBadArtifact       Code = 7201
	DriverUnsupportedTarget Code = 7202
)

func (c Code) String() string {
	return fmt.Sprintf("CN%04d", uint16(c))
}

// FromError rebuilds a diagnostic from a lowering error. Backend errors
// carry their code as a "CNxxxx:" message prefix; anything else maps onto
// UnknownCode with the message kept verbatim.
func FromError(err error) Diagnostic {
	msg := err.Error()
	d := Diagnostic{Severity: SevError, Code: UnknownCode, Message: msg}
	var n uint16
	if _, scanErr := fmt.Sscanf(msg, "CN%04d:", &n); scanErr == nil && len(msg) > 7 {
		d.Code = Code(n)
		d.Message = strings.TrimSpace(msg[7:])
	}
	return d
}
