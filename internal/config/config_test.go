package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"THREESCHED_TIME_SLICE", "THREESCHED_SLOTS", "THREESCHED_MEMORY_SIZE",
		"THREESCHED_PAGE_SIZE", "THREESCHED_TICK_INTERVAL",
	} {
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestFromEnvAppliesDefaultsWhenUnset(t *testing.T) {
	clearEnv(t)
	c := &Config{}
	c.FromEnv()

	assert.Equal(t, uint32(defaultTimeSlice), c.TimeSlice)
	assert.Equal(t, uint32(defaultSlots), c.Slots)
	assert.Equal(t, uint64(defaultMemorySize), c.MemorySize)
	assert.Equal(t, uint32(defaultPageSize), c.PageSize)
	assert.Equal(t, defaultTickInterval, c.TickInterval)
}

func TestFromEnvReadsOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("THREESCHED_TIME_SLICE", "8")
	t.Setenv("THREESCHED_SLOTS", "10")
	t.Setenv("THREESCHED_MEMORY_SIZE", "8192")
	t.Setenv("THREESCHED_PAGE_SIZE", "1024")
	t.Setenv("THREESCHED_TICK_INTERVAL", "250ms")

	c := &Config{}
	c.FromEnv()

	assert.Equal(t, uint32(8), c.TimeSlice)
	assert.Equal(t, uint32(10), c.Slots)
	assert.Equal(t, uint64(8192), c.MemorySize)
	assert.Equal(t, uint32(1024), c.PageSize)
	assert.Equal(t, 250*time.Millisecond, c.TickInterval)
}

func TestFromEnvDoesNotOverrideAlreadySetFields(t *testing.T) {
	clearEnv(t)
	t.Setenv("THREESCHED_TIME_SLICE", "8")

	c := &Config{TimeSlice: 2}
	c.FromEnv()
	assert.Equal(t, uint32(2), c.TimeSlice, "an explicitly set field must not be overwritten by env")
}

func TestValidateRejectsInvalidFields(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero time slice", Config{TimeSlice: 0, Slots: 1, MemorySize: 4096, PageSize: 4096}},
		{"zero slots", Config{TimeSlice: 1, Slots: 0, MemorySize: 4096, PageSize: 4096}},
		{"zero page size", Config{TimeSlice: 1, Slots: 1, MemorySize: 4096, PageSize: 0}},
		{"memory not a multiple of page size", Config{TimeSlice: 1, Slots: 1, MemorySize: 4097, PageSize: 4096}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Error(t, tt.cfg.Validate())
		})
	}
}

func TestValidateAcceptsWellFormedConfig(t *testing.T) {
	cfg := Config{TimeSlice: 4, Slots: 5, MemorySize: 16777216, PageSize: 4096}
	require.NoError(t, cfg.Validate())
}
