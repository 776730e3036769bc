package shared

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
)

// ErrorKind groups errors so callers can format messages per kind.
type ErrorKind string

const (
	KindMalformedInput         ErrorKind = "malformed-input"
	KindUnresolvedDependencies ErrorKind = "unresolved-dependencies"
	KindLockContention         ErrorKind = "lock-contention"
	KindIOFailure              ErrorKind = "io-failure"
	KindOther                  ErrorKind = "other"
)

// KindOf classifies err by its errbuilder code.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	switch errbuilder.CodeOf(err) {
	case errbuilder.CodeInvalidArgument:
		return KindMalformedInput
	case errbuilder.CodeFailedPrecondition:
		return KindUnresolvedDependencies
	case errbuilder.CodeAlreadyExists:
		return KindLockContention
	case errbuilder.CodeInternal, errbuilder.CodeNotFound:
		return KindIOFailure
	default:
		return KindOther
	}
}

func MalformedInput(msg string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(msg)
}

// UnresolvedDependencies reports every name that could not be found in the
// package index, sorted and without duplicates.
func UnresolvedDependencies(names []string) error {
	unique := map[string]struct{}{}
	for _, name := range names {
		unique[name] = struct{}{}
	}
	sorted := make([]string, 0, len(unique))
	for name := range unique {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)
	return errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg(fmt.Sprintf("unresolved dependencies: %s", strings.Join(sorted, ", ")))
}

func LockContention(path string, cause error) error {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeAlreadyExists).
		WithMsg(fmt.Sprintf("failed to get a lock: %s", path))
	if cause != nil {
		return builder.WithCause(cause)
	}
	return builder
}

func IOFailure(msg string, cause error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg(msg).
		WithCause(cause)
}

// MissingFile is an IOFailure for a file that does not exist.
func MissingFile(msg string, cause error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg(msg).
		WithCause(cause)
}
