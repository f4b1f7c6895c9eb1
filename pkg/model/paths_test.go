package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type bundledPathFixture struct {
	name     string
	path     string
	expected string
}

func bundledPathTestCases() []bundledPathFixture {
	const bundleID = "2aBcDGoKB7JQJZdCCwdBQwE1Jbb"
	return []bundledPathFixture{
		{
			name:     "committed manifest",
			path:     GetPathToManifest(bundleID),
			expected: "2aBcDGoKB7JQJZdCCwdBQwE1Jbb/manifest.json",
		},
		{
			name:     "pending manifest",
			path:     GetPathToPendingManifest(bundleID),
			expected: "2aBcDGoKB7JQJZdCCwdBQwE1Jbb/.manifest.json.part",
		},
		{
			name:     "bundled unit",
			path:     GetPathToBundledUnit(bundleID, "f2db41e1fa331b3e"),
			expected: "2aBcDGoKB7JQJZdCCwdBQwE1Jbb/f2db41e1fa331b3e",
		},
	}
}

func TestGetPaths(t *testing.T) {
	for _, toPin := range bundledPathTestCases() {
		testCase := toPin
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, testCase.expected, testCase.path)
		})
	}
}

func TestIsHidden(t *testing.T) {
	assert.True(t, IsHidden(".export_complete"))
	assert.True(t, IsHidden(PendingManifestFileName))
	assert.False(t, IsHidden("f2db41e1fa331b3e"))
	assert.False(t, IsHidden(ManifestFileName))
}
