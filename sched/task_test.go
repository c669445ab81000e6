package sched

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewTaskDefaults(t *testing.T) {
	task := NewTask(1, 10, 2, 100)
	assert.Equal(t, uint32(1), task.Pid())
	assert.Equal(t, int32(10), task.RequestTime())
	assert.Equal(t, uint32(2), task.Priority())
	assert.Equal(t, uint32(100), task.MemorySize())
	assert.Equal(t, StateNew, task.State())
	assert.False(t, task.IsSuspended())
	assert.True(t, task.IsCondSatisfied(), "no predecessor means always satisfied")
	_, ok := task.MemoryRange()
	assert.False(t, ok)
}

func TestTaskDecrementTime(t *testing.T) {
	task := NewTask(1, 10, 1, 100)
	task.SetSchTime(4)
	task.DecrementTime(1)
	assert.Equal(t, int32(9), task.RequestTime())
	assert.Equal(t, int32(3), task.SchTime())
}

func TestTaskMemoryRangeRoundTrip(t *testing.T) {
	task := NewTask(1, 10, 1, 100)
	task.SetMemoryRange(Hole{Beg: 0, End: 100})
	h, ok := task.MemoryRange()
	assert.True(t, ok)
	assert.Equal(t, Hole{Beg: 0, End: 100}, h)

	task.ClearMemoryRange()
	_, ok = task.MemoryRange()
	assert.False(t, ok)
}

func TestTaskConditionSatisfaction(t *testing.T) {
	pred := NewCondition()
	task := NewTask(2, 10, 1, 100)
	task.SetCond(pred)
	assert.False(t, task.IsCondSatisfied())

	pred.SetDone()
	assert.True(t, task.IsCondSatisfied())
}

func TestTaskOwnConditionFiresIndependently(t *testing.T) {
	task := NewTask(1, 10, 1, 100)
	dependent := NewTask(2, 10, 1, 100)
	dependent.SetCond(task.OwnCondition())

	assert.False(t, dependent.IsCondSatisfied())
	task.OwnCondition().SetDone()
	assert.True(t, dependent.IsCondSatisfied())
}
