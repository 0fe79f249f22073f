package handlers

import (
	"sync"
	"time"

	"github.com/listingpress/listingpress/internal/domain"
)

// GenerationJob tracks one async brochure generation run for a draft.
type GenerationJob struct {
	EventBroadcaster

	DraftID     string             `json:"draft_id"`
	Status      domain.DraftStatus `json:"status"`
	Stage       string             `json:"stage,omitempty"`
	Error       string             `json:"error,omitempty"`
	StartedAt   time.Time          `json:"started_at"`
	CompletedAt *time.Time         `json:"completed_at,omitempty"`
}

// GetStatus returns the current job status (implements SSEJob).
func (j *GenerationJob) GetStatus() domain.DraftStatus {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status
}

// update applies a stage transition and broadcasts it.
func (j *GenerationJob) update(status domain.DraftStatus, stage, errMsg string) {
	j.mu.Lock()
	j.Status = status
	j.Stage = stage
	j.Error = errMsg
	if status.Terminal() && j.CompletedAt == nil {
		now := time.Now()
		j.CompletedAt = &now
	}
	j.mu.Unlock()

	j.SendEvent(JobEvent{
		Type: "status",
		Data: map[string]any{
			"draft_id": j.DraftID,
			"status":   status,
			"stage":    stage,
			"error":    errMsg,
		},
	})
}

const eventChannelBuffer = 64

// JobEvent represents an event from a job.
type JobEvent struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// EventBroadcaster provides listener management and event broadcasting for async jobs.
// Embed this in job structs to get AddListener, RemoveListener, and SendEvent methods.
type EventBroadcaster struct {
	listeners []chan JobEvent
	mu        sync.RWMutex
}

// AddListener adds an event listener.
func (b *EventBroadcaster) AddListener() chan JobEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan JobEvent, eventChannelBuffer)
	b.listeners = append(b.listeners, ch)
	return ch
}

// RemoveListener removes an event listener.
func (b *EventBroadcaster) RemoveListener(ch chan JobEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, listener := range b.listeners {
		if listener == ch {
			b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
			close(ch)
			return
		}
	}
}

// SendEvent sends an event to all listeners.
func (b *EventBroadcaster) SendEvent(event JobEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, listener := range b.listeners {
		select {
		case listener <- event:
		default:
			// Listener buffer full, skip.
		}
	}
}

// SSEJob is the interface required by streamSSEEvents to stream job events via SSE.
type SSEJob interface {
	AddListener() chan JobEvent
	RemoveListener(ch chan JobEvent)
	GetStatus() domain.DraftStatus
}

// JobManager manages generation jobs, one per draft ID.
type JobManager struct {
	jobs map[string]*GenerationJob
	mu   sync.RWMutex
}

// NewJobManager creates a new job manager.
func NewJobManager() *JobManager {
	return &JobManager{
		jobs: make(map[string]*GenerationJob),
	}
}

// CreateJob registers a job for a draft. Returns false when a job for the
// draft is still running.
func (m *JobManager) CreateJob(draftID string) (*GenerationJob, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.jobs[draftID]; ok && !existing.GetStatus().Terminal() {
		return existing, false
	}
	job := &GenerationJob{
		DraftID:   draftID,
		Status:    domain.DraftQueued,
		StartedAt: time.Now(),
	}
	m.jobs[draftID] = job
	return job, true
}

// GetJob retrieves a job by draft ID.
func (m *JobManager) GetJob(draftID string) *GenerationJob {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.jobs[draftID]
}

// Dispatch routes a pipeline stage transition to the draft's job.
func (m *JobManager) Dispatch(draftID string, status domain.DraftStatus, stage, errMsg string) {
	job := m.GetJob(draftID)
	if job == nil {
		return
	}
	job.update(status, stage, errMsg)
}
