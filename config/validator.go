// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"fmt"

	"github.com/luxfi/log"
)

// Validator runs layered checks over a Parameters value: structural
// validity first, then recommended-but-not-mandatory checks that vary
// by ValidationMode.
type Validator struct {
	Mode ValidationMode
	Log  log.Logger
}

// NewValidator returns a Validator in StrictMode with a no-op logger.
func NewValidator() *Validator {
	return &Validator{Mode: StrictMode, Log: log.NoLog{}}
}

// Validate runs every pass and returns the first mandatory error, if
// any, matching the behavior of Parameters.Valid.
func (v *Validator) Validate(p Parameters) error {
	result := v.ValidateDetailed(p)
	if !result.OK() {
		return fmt.Errorf("%w: %s", ErrParametersInvalid, result.Errors[0].Error())
	}
	return nil
}

// ValidateDetailed runs every check and returns the full result,
// continuing past the first failure so every issue is reported.
func (v *Validator) ValidateDetailed(p Parameters) ValidationResult {
	var result ValidationResult

	v.checkBasic(p, &result)
	v.checkQuorum(p, &result)
	v.checkTiming(p, &result)
	v.checkEpochs(p, &result)

	for _, w := range result.Warnings {
		v.Log.Warn("cluster parameter warning", "field", w.Field, "message", w.Message)
	}
	return result
}

func (v *Validator) checkBasic(p Parameters, result *ValidationResult) {
	if err := p.Valid(); err != nil {
		result.Errors = append(result.Errors, ValidationError{Field: "parameters", Message: err.Error(), Mandatory: true})
	}
}

func (v *Validator) checkQuorum(p Parameters, result *ValidationResult) {
	if p.QuorumFraction < HonestQuorumThreshold {
		msg := ValidationError{
			Field:   "quorumFraction",
			Message: fmt.Sprintf("below the recommended honest-quorum threshold of %.2f", HonestQuorumThreshold),
		}
		if v.Mode == StrictMode {
			msg.Mandatory = true
			result.Errors = append(result.Errors, msg)
		} else {
			result.Warnings = append(result.Warnings, msg)
		}
	}
	if p.ValidatorCount < 4 {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "validatorCount",
			Message: "fewer than 4 validators cannot tolerate any Byzantine participant under a 0.75 quorum",
		})
	}
}

func (v *Validator) checkTiming(p Parameters, result *ValidationResult) {
	if p.TimingCVThreshold > 0.5 {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "timingCVThreshold",
			Message: "coefficient-of-variation ceiling above 0.5 weakens the constant-time timing guard",
		})
	}
}

func (v *Validator) checkEpochs(p Parameters, result *ValidationResult) {
	if p.MaxEpochDuration > 0 && p.MinEpochDuration > 0 && p.MaxEpochDuration/p.MinEpochDuration > 12 {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "maxEpochDuration",
			Message: "max epoch duration is far larger than min; rotation cadence may be unpredictable",
		})
	}
}

// ValidateForProduction runs in StrictMode unconditionally, regardless
// of the Validator's configured Mode, for use at mainnet startup.
func (v *Validator) ValidateForProduction(p Parameters) error {
	strict := &Validator{Mode: StrictMode, Log: v.Log}
	return strict.Validate(p)
}
