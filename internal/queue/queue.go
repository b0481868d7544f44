package queue

import (
	"sync"

	"reposter/internal/app/model"
)

// Queue is a FIFO of pending upload jobs. Any number of goroutines may Push;
// only the batch worker pops or clears.
type Queue struct {
	jobs []model.Job
	mu   sync.RWMutex
}

func New() *Queue {
	return &Queue{}
}

func (q *Queue) Push(jobs ...model.Job) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, jobs...)
}

// Pop removes and returns the head of the queue. It never blocks; ok is false
// when the queue is empty.
func (q *Queue) Pop() (job model.Job, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.jobs) == 0 {
		return model.Job{}, false
	}

	job = q.jobs[0]
	q.jobs[0] = model.Job{}
	q.jobs = q.jobs[1:]
	return job, true
}

// Clear drops every pending job and returns how many were dropped.
func (q *Queue) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.jobs)
	q.jobs = nil
	return n
}

func (q *Queue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.jobs)
}

func (q *Queue) List() []model.Job {
	q.mu.RLock()
	defer q.mu.RUnlock()

	result := make([]model.Job, len(q.jobs))
	copy(result, q.jobs)
	return result
}
