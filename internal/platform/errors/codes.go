// Package errors provides structured domain errors with localized messages.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Import and validation errors
	CodeMalformedInput     Code = "MALFORMED_INPUT"
	CodeReferentialWarning Code = "REFERENTIAL_WARNING"
	CodeReservedKey        Code = "RESERVED_KEY"

	// System errors
	CodeSystemNameEmpty   Code = "SYSTEM_NAME_EMPTY"
	CodeSystemIDImmutable Code = "SYSTEM_ID_IMMUTABLE"

	// Character errors
	CodeCharacterSystemMissing Code = "CHARACTER_SYSTEM_MISSING"

	// Library errors
	CodeInvalidFilter Code = "INVALID_FILTER"

	// Storage errors
	CodeNotFound            Code = "NOT_FOUND"
	CodeIdentifierCollision Code = "IDENTIFIER_COLLISION"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	case CodeMalformedInput,
		CodeReferentialWarning,
		CodeReservedKey,
		CodeSystemNameEmpty,
		CodeInvalidFilter:
		return codes.InvalidArgument

	case CodeSystemIDImmutable,
		CodeCharacterSystemMissing:
		return codes.FailedPrecondition

	case CodeNotFound:
		return codes.NotFound

	case CodeIdentifierCollision:
		return codes.AlreadyExists

	default:
		return codes.Internal
	}
}
