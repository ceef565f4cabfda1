package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withBuildInfo(t *testing.T, version, commit, date string) {
	t.Helper()
	origVersion, origCommit, origDate := Version, GitCommit, BuildDate
	t.Cleanup(func() { SetBuildInfo(origVersion, origCommit, origDate) })
	SetBuildInfo(version, commit, date)
}

func TestGetInfo(t *testing.T) {
	withBuildInfo(t, "1.2.3-beta.1+42.abc", "abcdef123456", "2025-01-01")

	info, err := GetInfo()
	require.NoError(t, err)
	assert.Equal(t, "1.2.3-beta.1+42.abc", info.Version)
	assert.True(t, info.Prerelease)
	assert.Equal(t, uint64(2), info.SemVer.Minor())
	assert.NotEmpty(t, info.GoVersion)
}

func TestGetFormattedVersion(t *testing.T) {
	tests := []struct {
		name    string
		version string
		commit  string
		date    string
		want    string
	}{
		{"development", "0.1.0", "unknown", "unknown", "Nuance v0.1.0"},
		{"release", "1.0.0", "abcdef123456", "2025-02-03", "Nuance v1.0.0, commit abcdef1, built 2025-02-03"},
		{"invalid", "not-a-version", "unknown", "unknown", "Nuance vnot-a-version (invalid version)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withBuildInfo(t, tt.version, tt.commit, tt.date)
			assert.Equal(t, tt.want, GetFormattedVersion())
		})
	}
}

func TestGetDetailedVersion(t *testing.T) {
	withBuildInfo(t, "0.3.0+7.deadbee", "deadbeef", "2025-01-01")
	out := GetDetailedVersion()
	assert.Contains(t, out, "Nuance v0.3.0+7.deadbee")
	assert.Contains(t, out, "Build Metadata: 7.deadbee")
	assert.Contains(t, out, "Platform: ")
}

func TestValidateVersion(t *testing.T) {
	withBuildInfo(t, "0.1.0", "unknown", "unknown")
	assert.NoError(t, ValidateVersion())
	assert.True(t, IsDevelopment())

	SetBuildInfo("v1..0", "abc", "2025-01-01")
	assert.Error(t, ValidateVersion())
	assert.False(t, IsDevelopment())
}

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		v1, v2 string
		want   int
	}{
		{"0.1.0", "0.2.0", -1},
		{"1.0.0", "1.0.0", 0},
		{"1.0.0", "1.0.0-rc.1", 1},
	}
	for _, tt := range tests {
		got, err := CompareVersions(tt.v1, tt.v2)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "%s vs %s", tt.v1, tt.v2)
	}

	_, err := CompareVersions("bad", "1.0.0")
	assert.Error(t, err)
}
