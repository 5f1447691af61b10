package convert

import (
	"fmt"
	"time"
)

// ValidationError reports a malformed or incomplete request. Its message is
// user-correctable and safe to surface verbatim.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// ValidationErrorf builds a ValidationError from a format string.
func ValidationErrorf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func validationf(format string, args ...interface{}) *ValidationError {
	return ValidationErrorf(format, args...)
}

// UnsupportedConversionError reports a conversion type the registry does not
// know, or one this deployment refuses to perform.
type UnsupportedConversionError struct {
	ConversionType string
	Reason         string
}

func (e *UnsupportedConversionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("conversion %q is not supported: %s", e.ConversionType, e.Reason)
	}
	return fmt.Sprintf("conversion %q is not supported", e.ConversionType)
}

// ConversionError wraps a converter-level failure, tagged with the
// originating conversion type. The message carries a short diagnostic,
// never a file path or stack trace.
type ConversionError struct {
	ConversionType string
	Msg            string
	Err            error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("%s: %s", e.ConversionType, e.Msg)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// TimeoutError reports a converter invocation that exceeded its execution
// bound.
type TimeoutError struct {
	ConversionType string
	Limit          time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: conversion exceeded the %s time limit", e.ConversionType, e.Limit)
}

// NotFoundError reports an unknown or expired resource (job, uploaded file).
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}
