package sched

import "container/heap"

// TaskQueue is one of the scheduler's five logical priority queues. It
// orders Tasks by (priority desc, in_queue_time asc, pid asc) — higher
// priority first, then older-in-queue first, then pid breaks any
// remaining tie deterministically. It implements heap.Interface so the
// scheduler gets an O(log n) push/pop of the most important element;
// PopLeastImportant is a linear scan, acceptable at simulator scale.
type TaskQueue struct {
	items []*Task
}

func NewTaskQueue() *TaskQueue {
	return &TaskQueue{}
}

func (q *TaskQueue) Len() int { return len(q.items) }

func (q *TaskQueue) Less(i, j int) bool {
	a, b := q.items[i], q.items[j]
	if pa, pb := a.Priority(), b.Priority(); pa != pb {
		return pa > pb
	}
	if ta, tb := a.InQueueTime(), b.InQueueTime(); ta != tb {
		return ta < tb
	}
	return a.Pid() < b.Pid()
}

func (q *TaskQueue) Swap(i, j int) { q.items[i], q.items[j] = q.items[j], q.items[i] }

func (q *TaskQueue) Push(x any) { q.items = append(q.items, x.(*Task)) }

func (q *TaskQueue) Pop() any {
	old := q.items
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	q.items = old[:n-1]
	return x
}

// PushTask inserts t, preserving heap order.
func (q *TaskQueue) PushTask(t *Task) { heap.Push(q, t) }

// PopMostImportant removes and returns the highest-priority task, or nil
// if the queue is empty.
func (q *TaskQueue) PopMostImportant() *Task {
	if q.Len() == 0 {
		return nil
	}
	return heap.Pop(q).(*Task)
}

// PeekMostImportant returns the highest-priority task without removing
// it, or nil if the queue is empty.
func (q *TaskQueue) PeekMostImportant() *Task {
	if q.Len() == 0 {
		return nil
	}
	return q.items[0]
}

// worstIndex finds the lowest-priority element by linear scan.
func (q *TaskQueue) worstIndex() int {
	worst := 0
	for i := 1; i < q.Len(); i++ {
		if q.Less(worst, i) {
			worst = i
		}
	}
	return worst
}

// PopLeastImportant removes and returns the lowest-priority task
// (furthest from the front under the tie-break order), or nil if empty.
func (q *TaskQueue) PopLeastImportant() *Task {
	if q.Len() == 0 {
		return nil
	}
	return heap.Remove(q, q.worstIndex()).(*Task)
}

// PeekLeastImportant returns the lowest-priority task without removing
// it, or nil if the queue is empty.
func (q *TaskQueue) PeekLeastImportant() *Task {
	if q.Len() == 0 {
		return nil
	}
	return q.items[q.worstIndex()]
}

// RemovePid removes and returns the task with the given pid, or nil if
// it is not present in this queue.
func (q *TaskQueue) RemovePid(pid uint32) *Task {
	for i, t := range q.items {
		if t.Pid() == pid {
			return heap.Remove(q, i).(*Task)
		}
	}
	return nil
}

// DrainAll removes every task from the queue and returns them, in no
// particular order. Used by passes that pop the whole queue into a
// scratch list and reinsert survivors (spec §9's drain/refill strategy).
func (q *TaskQueue) DrainAll() []*Task {
	out := q.items
	q.items = nil
	return out
}

// Items returns a read-only copy of the queue's current contents, in
// internal heap order (not priority order).
func (q *TaskQueue) Items() []*Task {
	out := make([]*Task, len(q.items))
	copy(out, q.items)
	return out
}
