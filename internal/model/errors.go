package model

import "fmt"

// The error types below form the service-level taxonomy. Each implements
// Code() so handler summary logging can derive a stable err_code without
// string matching.

// ValidationError reports user-correctable bad input such as empty text.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "validation: " + e.Reason }

// Code identifies the error class for logs.
func (e *ValidationError) Code() string { return "VALIDATION" }

// NotFoundError reports a lookup of a missing entity.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s %d not found", e.Entity, e.ID) }

// Code identifies the error class for logs.
func (e *NotFoundError) Code() string { return "NOT_FOUND" }

// NotAuthorizedError reports a non-admin attempting an admin-only action.
type NotAuthorizedError struct {
	UserID int64
}

func (e *NotAuthorizedError) Error() string {
	return fmt.Sprintf("user %d is not authorized", e.UserID)
}

// Code identifies the error class for logs.
func (e *NotAuthorizedError) Code() string { return "NOT_AUTHORIZED" }

// AlreadyDecidedError reports an approve/decline on a non-pending confession.
type AlreadyDecidedError struct {
	ConfessionID int64
	Status       Status
}

func (e *AlreadyDecidedError) Error() string {
	return fmt.Sprintf("confession %d already %s", e.ConfessionID, e.Status)
}

// Code identifies the error class for logs.
func (e *AlreadyDecidedError) Code() string { return "ALREADY_DECIDED" }

// NoPendingDraftError reports a flow step that expected prior state.
type NoPendingDraftError struct {
	UserID int64
}

func (e *NoPendingDraftError) Error() string {
	return fmt.Sprintf("user %d has no pending draft", e.UserID)
}

// Code identifies the error class for logs.
func (e *NoPendingDraftError) Code() string { return "NO_PENDING_DRAFT" }

// FlowActiveError reports an attempt to start a flow while another is active.
// Starting over requires an explicit /cancel first.
type FlowActiveError struct {
	UserID int64
}

func (e *FlowActiveError) Error() string {
	return fmt.Sprintf("user %d already has an active flow", e.UserID)
}

// Code identifies the error class for logs.
func (e *FlowActiveError) Code() string { return "FLOW_ACTIVE" }
