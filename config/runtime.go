// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

var (
	runtimeParams    Parameters
	runtimeMu        sync.RWMutex
	runtimeOverrides map[string]interface{}
	initialized      bool
)

// InitializeRuntime sets the process-wide runtime parameters from a
// named preset.
func InitializeRuntime(network string) error {
	params, err := GetParametersByName(network)
	if err != nil {
		return err
	}

	runtimeMu.Lock()
	defer runtimeMu.Unlock()
	runtimeParams = params
	runtimeOverrides = make(map[string]interface{})
	initialized = true
	return nil
}

// GetRuntime returns the currently published Parameters snapshot. It is
// safe to call concurrently with OverrideRuntime; callers observe
// either the old or the new snapshot, never a partially updated one.
func GetRuntime() Parameters {
	runtimeMu.RLock()
	defer runtimeMu.RUnlock()

	if !initialized {
		return LocalParameters
	}
	return runtimeParams
}

// OverrideRuntime applies field-level updates to the runtime snapshot,
// validates the result, and atomically publishes it. On validation
// failure the previous snapshot remains published.
func OverrideRuntime(updates map[string]interface{}) error {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()

	if !initialized {
		runtimeParams = LocalParameters
		runtimeOverrides = make(map[string]interface{})
		initialized = true
	}

	params := runtimeParams
	for key, value := range updates {
		runtimeOverrides[key] = value
		switch key {
		case "ValidatorCount", "validatorCount":
			if v, ok := toInt(value); ok {
				params.ValidatorCount = v
			}
		case "QuorumFraction", "quorumFraction":
			if v, ok := toFloat(value); ok {
				params.QuorumFraction = v
			}
		case "VoteDeadline", "voteDeadline":
			if d, ok := toDuration(value); ok {
				params.VoteDeadline = d
			}
		case "MinEpochDuration", "minEpochDuration":
			if d, ok := toDuration(value); ok {
				params.MinEpochDuration = d
			}
		case "MaxEpochDuration", "maxEpochDuration":
			if d, ok := toDuration(value); ok {
				params.MaxEpochDuration = d
			}
		case "EpochHistoryLimit", "epochHistoryLimit":
			if v, ok := toInt(value); ok {
				params.EpochHistoryLimit = v
			}
		case "TimingCVThreshold", "timingCVThreshold":
			if v, ok := toFloat(value); ok {
				params.TimingCVThreshold = v
			}
		default:
			return fmt.Errorf("unknown parameter: %s", key)
		}
	}

	if err := params.Valid(); err != nil {
		return fmt.Errorf("%w: %s", ErrParametersInvalid, err.Error())
	}

	runtimeParams = params
	return nil
}

// LoadRuntimeFromFile loads and publishes a Parameters snapshot from a
// JSON file.
func LoadRuntimeFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var params Parameters
	if err := json.Unmarshal(data, &params); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if err := params.Valid(); err != nil {
		return fmt.Errorf("%w in config file: %s", ErrParametersInvalid, err.Error())
	}

	runtimeMu.Lock()
	runtimeParams = params
	runtimeOverrides = make(map[string]interface{})
	initialized = true
	runtimeMu.Unlock()
	return nil
}

// SaveRuntimeToFile writes the current runtime snapshot and any applied
// overrides to a JSON file.
func SaveRuntimeToFile(path string) error {
	runtimeMu.RLock()
	params := runtimeParams
	overrides := make(map[string]interface{}, len(runtimeOverrides))
	for k, v := range runtimeOverrides {
		overrides[k] = v
	}
	runtimeMu.RUnlock()

	output := struct {
		Parameters Parameters             `json:"parameters"`
		Overrides  map[string]interface{} `json:"overrides,omitempty"`
		Generated  time.Time              `json:"generated"`
	}{
		Parameters: params,
		Overrides:  overrides,
		Generated:  time.Now(),
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal parameters: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// ResetRuntime republishes a named preset, discarding any overrides.
func ResetRuntime(network string) error {
	params, err := GetParametersByName(network)
	if err != nil {
		return err
	}

	runtimeMu.Lock()
	runtimeParams = params
	runtimeOverrides = make(map[string]interface{})
	initialized = true
	runtimeMu.Unlock()
	return nil
}

// GetRuntimeOverrides returns a copy of the currently applied overrides.
func GetRuntimeOverrides() map[string]interface{} {
	runtimeMu.RLock()
	defer runtimeMu.RUnlock()

	overrides := make(map[string]interface{}, len(runtimeOverrides))
	for k, v := range runtimeOverrides {
		overrides[k] = v
	}
	return overrides
}

func toInt(v interface{}) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	case float64:
		return int(val), true
	default:
		return 0, false
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	default:
		return 0, false
	}
}

func toDuration(v interface{}) (time.Duration, bool) {
	switch val := v.(type) {
	case time.Duration:
		return val, true
	case string:
		d, err := time.ParseDuration(val)
		return d, err == nil
	case int64:
		return time.Duration(val), true
	case float64:
		return time.Duration(val), true
	default:
		return 0, false
	}
}
