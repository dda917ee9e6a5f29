package gitrepo

import (
	"fmt"
	"strings"
)

// ErrorKind classifies git transport failures so callers can branch on the
// failure mode instead of inspecting git's output text.
type ErrorKind int

// Error kinds
const (
	// KindGeneric covers any failure that is neither a timeout nor an
	// authentication problem.
	KindGeneric ErrorKind = iota
	// KindTimeout means the operation did not complete within the bounded window.
	KindTimeout
	// KindAuth means the remote rejected credentials or reported not-found,
	// which is indistinguishable from a private repository without access.
	KindAuth
)

// String returns a human-readable name for the kind
func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindAuth:
		return "authentication"
	default:
		return "generic"
	}
}

// Error is a classified git operation failure
type Error struct {
	Kind   ErrorKind
	Op     string // "clone", "fetch", "pull", "checkout"
	URL    string
	Output string // trailing git output, for diagnostics
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "git %s failed", e.Op)
	if e.URL != "" {
		fmt.Fprintf(&b, " for %s", e.URL)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if guidance := e.guidance(); guidance != "" {
		fmt.Fprintf(&b, " (%s)", guidance)
	}
	if out := strings.TrimSpace(e.Output); out != "" {
		fmt.Fprintf(&b, "\n%s", out)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) guidance() string {
	switch e.Kind {
	case KindTimeout:
		return "the operation timed out; if the repository is private, check that your git credentials allow non-interactive access"
	case KindAuth:
		return "authentication failed or the repository was not found; verify the URL and your access rights"
	default:
		return ""
	}
}

// authIndicators are the phrases git clients emit on credential rejection or
// not-found responses. Matching happens here, once, so call sites stay free
// of output inspection.
var authIndicators = []string{
	"authentication failed",
	"could not read username",
	"could not read password",
	"permission denied",
	"repository not found",
	"does not exist",
	"invalid credentials",
	"access denied",
	"401",
	"403",
}

func classify(op, url, output string, err error, timedOut bool) *Error {
	kind := KindGeneric
	switch {
	case timedOut:
		kind = KindTimeout
	case looksLikeAuthFailure(output):
		kind = KindAuth
	}
	return &Error{
		Kind:   kind,
		Op:     op,
		URL:    url,
		Output: output,
		Err:    err,
	}
}

func looksLikeAuthFailure(output string) bool {
	lower := strings.ToLower(output)
	for _, indicator := range authIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}
