package sched

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConditionStartsNotDone(t *testing.T) {
	c := NewCondition()
	assert.False(t, c.IsDone())
}

func TestConditionSetDoneIsIdempotent(t *testing.T) {
	c := NewCondition()
	c.SetDone()
	assert.True(t, c.IsDone())
	c.SetDone()
	assert.True(t, c.IsDone())
}
