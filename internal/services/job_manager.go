package services

import (
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/formaflow/converter_api/internal/convert"
	"github.com/formaflow/converter_api/internal/models"
)

// JobManager is the keyed state machine tracking every conversion job from
// creation to its TTL purge. Transitions are monotonic: pending to
// processing to completed or failed, and terminal states are final. Late
// updates become no-ops.
type JobManager struct {
	jobs map[string]*models.Job
	mu   sync.RWMutex
	ttl  time.Duration
	log  zerolog.Logger

	progressCh chan models.ProgressUpdate
	done       chan struct{}
	closeOnce  sync.Once
}

func NewJobManager(ttl time.Duration, log zerolog.Logger) *JobManager {
	jm := &JobManager{
		jobs:       make(map[string]*models.Job),
		ttl:        ttl,
		log:        log,
		progressCh: make(chan models.ProgressUpdate, 100),
		done:       make(chan struct{}),
	}
	go jm.handleProgressUpdates()
	return jm
}

func (jm *JobManager) Create(conversionType, inputFileID string) *models.Job {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	job := &models.Job{
		ID:             uuid.New().String(),
		ConversionType: conversionType,
		InputFileID:    inputFileID,
		Status:         models.StatusPending,
		CreatedAt:      time.Now(),
	}
	jm.jobs[job.ID] = job
	return job
}

// Get returns a copy of the job. An unknown id and an expired one are the
// same thing to the caller: NotFoundError.
func (jm *JobManager) Get(jobID string) (models.Job, error) {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	job, exists := jm.jobs[jobID]
	if !exists || jm.expired(job) {
		return models.Job{}, &convert.NotFoundError{Resource: "job", ID: jobID}
	}
	return *job, nil
}

// MarkProcessing moves a pending job to processing. It is a no-op on any
// other state.
func (jm *JobManager) MarkProcessing(jobID string) {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	job, exists := jm.jobs[jobID]
	if !exists || job.Status != models.StatusPending {
		return
	}
	job.Status = models.StatusProcessing
	job.Message = "converting"
}

// Complete finishes a job with its result artifacts. resultFiles carries
// the client-facing names, resultPaths the on-disk locations for download
// and the TTL sweep.
func (jm *JobManager) Complete(jobID string, resultFiles, resultPaths []string) {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	job, exists := jm.jobs[jobID]
	if !exists || job.Status.Terminal() {
		return
	}
	now := time.Now()
	job.Status = models.StatusCompleted
	job.Progress = 100
	job.Message = "done"
	job.ResultFiles = resultFiles
	job.ResultPaths = resultPaths
	job.CompletedAt = &now
}

// Fail finishes a job with a sanitized user-facing error message.
func (jm *JobManager) Fail(jobID string, errMsg string) {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	job, exists := jm.jobs[jobID]
	if !exists || job.Status.Terminal() {
		return
	}
	now := time.Now()
	job.Status = models.StatusFailed
	job.Error = errMsg
	job.Message = ""
	job.CompletedAt = &now
}

// SetProgress updates advisory progress. Values are clamped to 0-100 and
// never move backward; terminal jobs ignore updates entirely.
func (jm *JobManager) SetProgress(jobID string, progress int) {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	job, exists := jm.jobs[jobID]
	if !exists || job.Status.Terminal() {
		return
	}
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	if progress > job.Progress {
		job.Progress = progress
	}
}

// SendProgressUpdate queues an advisory progress update without blocking
// the conversion worker. A full channel drops the update; progress is for
// UI feedback only.
func (jm *JobManager) SendProgressUpdate(jobID string, progress int) {
	select {
	case jm.progressCh <- models.ProgressUpdate{JobID: jobID, Progress: progress}:
	default:
	}
}

func (jm *JobManager) handleProgressUpdates() {
	for {
		select {
		case update := <-jm.progressCh:
			jm.SetProgress(update.JobID, update.Progress)
		case <-jm.done:
			return
		}
	}
}

// Count reports how many jobs are currently tracked, expired or not.
func (jm *JobManager) Count() int {
	jm.mu.RLock()
	defer jm.mu.RUnlock()
	return len(jm.jobs)
}

func (jm *JobManager) expired(job *models.Job) bool {
	return time.Since(job.CreatedAt) > jm.ttl
}

// Sweep purges jobs past their TTL along with their result artifacts,
// downloaded or not.
func (jm *JobManager) Sweep() {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	for jobID, job := range jm.jobs {
		if !jm.expired(job) {
			continue
		}
		for _, path := range job.ResultPaths {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				jm.log.Warn().Err(err).Str("job", jobID).Msg("result artifact cleanup failed")
			}
		}
		delete(jm.jobs, jobID)
	}
}

// StartSweeper runs Sweep on the given interval until Close is called.
func (jm *JobManager) StartSweeper(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				jm.Sweep()
			case <-jm.done:
				return
			}
		}
	}()
}

func (jm *JobManager) Close() {
	jm.closeOnce.Do(func() { close(jm.done) })
}
