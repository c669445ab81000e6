package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetCurrentVersion(t *testing.T) {
	assert.Equal(t, DevVersion, GetCurrentVersion("dev"))
	assert.Equal(t, DevVersion, GetCurrentVersion("demo"))
	assert.Equal(t, Version, GetCurrentVersion("prod"))
}

func TestGetMinorVersion(t *testing.T) {
	assert.Equal(t, "0.25", GetMinorVersion("0.25.1"))
	assert.Equal(t, "", GetMinorVersion("0"))
}

func TestIsVersionGreaterOrEqualThan(t *testing.T) {
	assert.True(t, IsVersionGreaterOrEqualThan("1.2.0", "1.1.0"))
	assert.True(t, IsVersionGreaterOrEqualThan("1.1.0", "1.1.0"))
	assert.False(t, IsVersionGreaterOrEqualThan("1.0.0", "1.1.0"))
}

func TestIsVersionGreaterThan(t *testing.T) {
	assert.True(t, IsVersionGreaterThan("1.2.0", "1.1.0"))
	assert.False(t, IsVersionGreaterThan("1.1.0", "1.1.0"))
}

func TestSortVersion(t *testing.T) {
	versions := SortVersion{"1.2.0", "1.0.0", "1.10.0"}
	assert.True(t, versions.Less(1, 0))
	assert.False(t, versions.Less(0, 1))
}
