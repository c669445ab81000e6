// Package config loads and validates the settings that parameterize a
// Scheduler run: time slice, slot count, and memory geometry.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// Config is the configuration for a single scheduler run.
type Config struct {
	TimeSlice    uint32        // ticks granted per dispatch
	Slots        uint32        // max concurrent resident-Ready + Running tasks
	MemorySize   uint64        // bytes managed by the allocator
	PageSize     uint32        // bytes per page frame
	TickInterval time.Duration // wall-clock pacing between ticks in --live mode
	Live         bool          // pace ticks against TickInterval instead of running free
}

const (
	defaultTimeSlice    = 4
	defaultSlots        = 5
	defaultMemorySize   = 16777216
	defaultPageSize     = 4096
	defaultTickInterval = 500 * time.Millisecond
)

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvOrDefaultUint(key string, defaultValue uint32) uint32 {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.ParseUint(value, 10, 32); err == nil {
			return uint32(v)
		}
	}
	return defaultValue
}

func getEnvOrDefaultUint64(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.ParseUint(value, 10, 64); err == nil {
			return v
		}
	}
	return defaultValue
}

// FromEnv populates any field still at its zero value from the
// THREESCHED_* environment variables, falling back to the simulator
// defaults from spec §6.
func (c *Config) FromEnv() {
	if c.TimeSlice == 0 {
		c.TimeSlice = getEnvOrDefaultUint("THREESCHED_TIME_SLICE", defaultTimeSlice)
	}
	if c.Slots == 0 {
		c.Slots = getEnvOrDefaultUint("THREESCHED_SLOTS", defaultSlots)
	}
	if c.MemorySize == 0 {
		c.MemorySize = getEnvOrDefaultUint64("THREESCHED_MEMORY_SIZE", defaultMemorySize)
	}
	if c.PageSize == 0 {
		c.PageSize = getEnvOrDefaultUint("THREESCHED_PAGE_SIZE", defaultPageSize)
	}
	if c.TickInterval == 0 {
		if v := getEnvOrDefault("THREESCHED_TICK_INTERVAL", ""); v != "" {
			if d, err := time.ParseDuration(v); err == nil {
				c.TickInterval = d
			}
		}
	}
	if c.TickInterval == 0 {
		c.TickInterval = defaultTickInterval
	}
}

// Validate rejects configurations the scheduler cannot run with.
func (c *Config) Validate() error {
	if c.TimeSlice == 0 {
		return errors.New("config: time slice must be positive")
	}
	if c.Slots == 0 {
		return errors.New("config: slots must be positive")
	}
	if c.PageSize == 0 {
		return errors.New("config: page size must be positive")
	}
	if c.MemorySize%uint64(c.PageSize) != 0 {
		return errors.Errorf("config: memory size %d is not a multiple of page size %d", c.MemorySize, c.PageSize)
	}
	if c.MemorySize/uint64(c.PageSize) == 0 {
		return errors.New("config: memory size must cover at least one page")
	}
	return nil
}
