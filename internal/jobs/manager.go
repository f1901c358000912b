// Package jobs runs analysis work in the background on behalf of the
// HTTP server. One job per project at a time; job state and captured
// logs are kept in memory for status queries.
package jobs

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrAlreadyRunning is returned when a project already has an active job.
var ErrAlreadyRunning = errors.New("a job is already running for this project")

type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Job is the internal record of one background run.
type job struct {
	id         string
	project    string
	status     Status
	errMsg     string
	startedAt  time.Time
	finishedAt time.Time
	logs       *LogBuffer
}

// Snapshot is a point-in-time copy of a job's state, safe to serialize.
type Snapshot struct {
	ID         string     `json:"id"`
	Project    string     `json:"project"`
	Status     Status     `json:"status"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
	Logs       []string   `json:"logs"`
}

// RunFunc does the actual work of a job, writing its console output to w.
type RunFunc func(ctx context.Context, w io.Writer) error

// Manager starts and tracks background jobs.
type Manager struct {
	mu        sync.Mutex
	jobs      map[string]*job
	byProject map[string]string

	wg sync.WaitGroup
}

func NewManager() *Manager {
	return &Manager{
		jobs:      make(map[string]*job),
		byProject: make(map[string]string),
	}
}

// Start launches run in the background for the given project. It fails
// with ErrAlreadyRunning if the project has an unfinished job.
func (m *Manager) Start(ctx context.Context, project string, run RunFunc) (string, error) {
	m.mu.Lock()
	if jobID, busy := m.byProject[project]; busy {
		if j := m.jobs[jobID]; j != nil && j.status == StatusRunning {
			m.mu.Unlock()
			return "", ErrAlreadyRunning
		}
	}

	j := &job{
		id:        uuid.New().String(),
		project:   project,
		status:    StatusRunning,
		startedAt: time.Now().UTC(),
		logs:      &LogBuffer{},
	}
	m.jobs[j.id] = j
	m.byProject[project] = j.id
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		err := run(ctx, j.logs)

		m.mu.Lock()
		defer m.mu.Unlock()
		j.finishedAt = time.Now().UTC()
		if err != nil {
			j.status = StatusFailed
			j.errMsg = err.Error()
		} else {
			j.status = StatusCompleted
		}
		delete(m.byProject, project)
	}()

	return j.id, nil
}

// Get returns a snapshot of the job, or false if the id is unknown.
func (m *Manager) Get(id string) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.jobs[id]
	if !ok {
		return Snapshot{}, false
	}
	snap := Snapshot{
		ID:        j.id,
		Project:   j.project,
		Status:    j.status,
		Error:     j.errMsg,
		StartedAt: j.startedAt,
		Logs:      j.logs.Lines(),
	}
	if !j.finishedAt.IsZero() {
		t := j.finishedAt
		snap.FinishedAt = &t
	}
	return snap, true
}

// Wait blocks until every started job has finished. Used for shutdown.
func (m *Manager) Wait() {
	m.wg.Wait()
}
