package engine

import (
	"errors"
	"fmt"
)

// Kind enumerates the recoverable failure classes of the engine. Every
// rejected operation carries exactly one kind; callers switch on it to
// decide whether to surface, retry, or log.
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindInvalidStatus
	KindNoPlacement
	KindDuplicatePriority
	KindDuplicateKeyword
	KindRackHasAssignedParts
	KindAlreadyProcessed
	KindConflict
)

// String returns the wire name of the kind
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidStatus:
		return "invalid_status"
	case KindNoPlacement:
		return "no_placement"
	case KindDuplicatePriority:
		return "duplicate_priority"
	case KindDuplicateKeyword:
		return "duplicate_keyword"
	case KindRackHasAssignedParts:
		return "rack_has_assigned_parts"
	case KindAlreadyProcessed:
		return "already_processed"
	case KindConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// Error is a typed, operator-facing rejection
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func errf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the failure kind from an error chain, or 0 for
// unexpected (infrastructure) errors
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
