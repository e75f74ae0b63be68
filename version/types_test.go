// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVersionString(t *testing.T) {
	require.Equal(t, "v1.2.3", Version{Major: 1, Minor: 2, Patch: 3}.String())
	require.Equal(t, "v0.0.0", Version{}.String())
}

func TestVersionBefore(t *testing.T) {
	tests := []struct {
		name   string
		a, b   Version
		before bool
	}{
		{"lower major", Version{Major: 1}, Version{Major: 2}, true},
		{"higher major", Version{Major: 2}, Version{Major: 1}, false},
		{"same major, lower minor", Version{Major: 1, Minor: 0}, Version{Major: 1, Minor: 1}, true},
		{"same major/minor, lower patch", Version{Major: 1, Minor: 1, Patch: 0}, Version{Major: 1, Minor: 1, Patch: 1}, true},
		{"equal", Version{Major: 1, Minor: 1, Patch: 1}, Version{Major: 1, Minor: 1, Patch: 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.before, tt.a.Before(tt.b))
		})
	}
}

func TestVersionCompare(t *testing.T) {
	require.Equal(t, 0, Version{Major: 1, Minor: 2, Patch: 3}.Compare(Version{Major: 1, Minor: 2, Patch: 3}))
	require.Equal(t, -1, Version{Major: 1}.Compare(Version{Major: 2}))
	require.Equal(t, 1, Version{Major: 2}.Compare(Version{Major: 1}))
	require.Equal(t, -1, Version{Major: 1, Minor: 0, Patch: 9}.Compare(Version{Major: 1, Minor: 1, Patch: 0}))
	require.Equal(t, 1, Version{Major: 1, Minor: 1, Patch: 1}.Compare(Version{Major: 1, Minor: 1, Patch: 0}))
}

func TestVersionCompatible(t *testing.T) {
	require.True(t, Version{Major: 1, Minor: 0, Patch: 0}.Compatible(Version{Major: 1, Minor: 4, Patch: 2}))
	require.False(t, Version{Major: 1}.Compatible(Version{Major: 2}))
}

func TestCurrentVersion(t *testing.T) {
	require.Equal(t, "v1.0.0", Current().String())
}
