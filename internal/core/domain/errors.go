package domain

import (
	"errors"
	"fmt"
)

var (
	ErrCaseNotFound      = errors.New("case not found")
	ErrClauseNotFound    = errors.New("clause not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrTemporary         = errors.New("temporary failure")
	ErrModelInvocation   = errors.New("model invocation failed")
	ErrExtraction        = errors.New("no structured result in model output")
	ErrInvalidTransition = errors.New("invalid pipeline transition")
	ErrClauseInProgress  = errors.New("clause already in progress")
	ErrNoActiveClause    = errors.New("no active clause")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
