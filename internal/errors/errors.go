package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Code classifies a failure so callers can branch on the outcome class
// instead of matching message text.
type Code string

const (
	// CodeValidation marks rejected configuration or patterns.
	CodeValidation Code = "VALIDATION"
	// CodeNotSupported marks inputs outside the supported language set.
	CodeNotSupported Code = "NOT_SUPPORTED"
	// CodeCancelled marks work abandoned on context cancellation.
	CodeCancelled Code = "CANCELLED"
	// CodeInternal marks everything else.
	CodeInternal Code = "INTERNAL"
)

// CtxPath keys the repository-relative path an error refers to.
const CtxPath = "path"

// DomainError is the coded error carried across the analysis pipeline.
type DomainError struct {
	Code    Code
	Message string
	Err     error
	Context map[string]any
}

func (e *DomainError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	keys := make([]string, 0, len(e.Context))
	for k := range e.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, e.Context[k])
	}
	return b.String()
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func New(code Code, msg string) error {
	return &DomainError{Code: code, Message: msg}
}

func Wrap(err error, code Code, msg string) error {
	return &DomainError{Code: code, Message: msg, Err: err}
}

// AddContext attaches a key/value pair to err. Foreign errors are coerced
// into a DomainError with CodeInternal first.
func AddContext(err error, key string, value any) error {
	var de *DomainError
	if !errors.As(err, &de) {
		de = &DomainError{Code: CodeInternal, Message: "wrapped error", Err: err}
	}
	if de.Context == nil {
		de.Context = make(map[string]any)
	}
	de.Context[key] = value
	return de
}

func IsCode(err error, code Code) bool {
	var de *DomainError
	return errors.As(err, &de) && de.Code == code
}
