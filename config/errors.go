// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import "errors"

var (
	// ErrUnknownPreset is returned by GetParametersByName for an
	// unrecognized network name.
	ErrUnknownPreset = errors.New("unknown parameter preset")

	// ErrParametersInvalid wraps a failed Valid() check surfaced through
	// OverrideRuntime or LoadRuntimeFromFile.
	ErrParametersInvalid = errors.New("invalid cluster parameters")
)

// ValidationMode controls how strictly Validator rejects questionable
// but not outright invalid configurations.
type ValidationMode int

const (
	// StrictMode additionally rejects a QuorumFraction below
	// HonestQuorumThreshold; the other recommended checks stay warnings.
	StrictMode ValidationMode = iota
	// SoftMode only rejects mandatory check failures and logs the rest.
	SoftMode
)

// ValidationError describes one failed check.
type ValidationError struct {
	Field    string
	Message  string
	Mandatory bool
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationResult collects every check performed by Validator.Validate.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// OK reports whether the result contains no mandatory failures.
func (r ValidationResult) OK() bool {
	return len(r.Errors) == 0
}
