// Package signiaerr defines the stable error kinds propagated by the SIGNIA
// compilation and verification pipeline.
//
// Every failure that crosses a package boundary in this module is a *Error.
// Local recovery is forbidden inside the core: a stage either succeeds or
// returns a *Error that propagates, unmodified in Kind, all the way to the
// top-level operation. Detail values must never contain host-specific
// strings (absolute paths, errno text) — only the data named in the Detail
// map.
package signiaerr

import "fmt"

// Kind is a stable error code. These strings are part of the determinism
// contract: the same input, policy, and tool versions must produce the same
// Kind and the same Detail for a given failure.
type Kind string

const (
	InputTooLarge               Kind = "InputTooLarge"
	InputArchiveTraversal       Kind = "InputArchiveTraversal"
	InputSymlinksDenied         Kind = "InputSymlinksDenied"
	InputNetworkDisabled        Kind = "InputNetworkDisabled"
	InputChecksumMismatch       Kind = "InputChecksumMismatch"
	InputEncodingInvalid        Kind = "InputEncodingInvalid"
	LimitExceeded                Kind = "LimitExceeded"
	PluginUnknown                Kind = "PluginUnknown"
	PluginBoundsExceeded          Kind = "PluginBoundsExceeded"
	IrInvalid                    Kind = "IrInvalid"
	CanonicalizationFailed       Kind = "CanonicalizationFailed"
	BundleInvalidSchema          Kind = "BundleInvalidSchema"
	BundleInvalidManifest        Kind = "BundleInvalidManifest"
	BundleInvalidProof           Kind = "BundleInvalidProof"
	BundleHashMismatch           Kind = "BundleHashMismatch"
	BundleTampered               Kind = "BundleTampered"
	BundleCanonicalizationFailed Kind = "BundleCanonicalizationFailed"
	JobTimeout                   Kind = "JobTimeout"
	JobCanceled                   Kind = "JobCanceled"
	Internal                      Kind = "Internal"
)

// Error is the structured failure value carried across every package
// boundary in the pipeline.
type Error struct {
	Kind   Kind
	Detail map[string]string
	cause  error
}

// New creates an Error of the given kind with no detail.
func New(kind Kind) *Error {
	return &Error{Kind: kind}
}

// Newf creates an Error of the given kind with a single "reason" detail.
// Use D for multi-field detail; this is a convenience for the common case.
func Newf(kind Kind, reason string, args ...any) *Error {
	return &Error{Kind: kind, Detail: map[string]string{"reason": fmt.Sprintf(reason, args...)}}
}

// D attaches structured detail fields to an Error, returning the same
// instance for chaining: signiaerr.New(signiaerr.LimitExceeded).D("limit", "max_files").
func (e *Error) D(key, value string) *Error {
	if e.Detail == nil {
		e.Detail = make(map[string]string, 4)
	}
	e.Detail[key] = value
	return e
}

// Wrap attaches an underlying cause without changing the Kind. The cause is
// available via Unwrap but its text is never surfaced directly in Error() —
// callers needing that information for diagnostics must read Detail, which
// is under the determinism contract.
func (e *Error) Wrap(cause error) *Error {
	e.cause = cause
	return e
}

func (e *Error) Error() string {
	if len(e.Detail) == 0 {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.cause }

// Is implements errors.Is by Kind comparison, so callers can write
// errors.Is(err, signiaerr.New(signiaerr.LimitExceeded)) or, more simply,
// use Is(err, signiaerr.LimitExceeded) below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			if e.Kind == kind {
				return true
			}
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// As extracts the *Error from err, if any, matching the standard As shape.
func As(err error) (*Error, bool) {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}
	return nil, false
}
