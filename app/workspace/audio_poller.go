package workspace

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/quka-ai/studymate/pkg/errors"
	"github.com/quka-ai/studymate/pkg/i18n"
	"github.com/quka-ai/studymate/pkg/safe"
	"github.com/quka-ai/studymate/pkg/types"
)

const AUDIO_POLL_INTERVAL = 5 * time.Second

type AudioStatus struct {
	JobID        string               `json:"job_id"`
	NoteID       string               `json:"note_id"`
	Status       types.AudioJobStatus `json:"status"`
	ErrorMessage string               `json:"error_message,omitempty"`
}

// AudioPoller follows one audio job at a time: idle -> processing -> completed | error.
type AudioPoller struct {
	base       context.Context
	userID     string
	jobs       AudioJobReader
	notes      NoteSource
	library    *Library
	notifier   Notifier
	translator Translator
	lang       string
	interval   time.Duration

	mu       sync.Mutex
	status   AudioStatus
	cancel   context.CancelFunc
	finished map[string]struct{}
	// OnTick is called after every status read, used by metrics
	OnTick func(status types.AudioJobStatus)
}

func newAudioPoller(base context.Context, userID string, deps Deps, library *Library) *AudioPoller {
	interval := deps.AudioPollInterval
	if interval <= 0 {
		interval = AUDIO_POLL_INTERVAL
	}
	return &AudioPoller{
		base:       base,
		userID:     userID,
		jobs:       deps.AudioJobs,
		notes:      deps.Notes,
		library:    library,
		notifier:   deps.Notifier,
		translator: deps.Translator,
		lang:       deps.Lang,
		interval:   interval,
		status:     AudioStatus{Status: types.AUDIO_JOB_STATUS_IDLE},
		finished:   make(map[string]struct{}),
	}
}

func (p *AudioPoller) Status() AudioStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Start enters processing for jobID: one immediate read, then one every interval
// until a terminal status. A job that already finished is never polled again.
func (p *AudioPoller) Start(jobID, noteID string) error {
	if jobID == "" {
		return errors.New("AudioPoller.Start", i18n.ERROR_AUDIO_JOB_MISSING_ID, nil).Code(http.StatusBadRequest)
	}

	p.mu.Lock()
	if _, done := p.finished[jobID]; done {
		p.mu.Unlock()
		return errors.New("AudioPoller.Start", i18n.ERROR_AUDIO_JOB_FINISHED, nil).Code(http.StatusConflict)
	}
	if p.status.Status == types.AUDIO_JOB_STATUS_PROCESSING && p.status.JobID == jobID {
		p.mu.Unlock()
		return nil
	}
	if p.cancel != nil {
		p.cancel()
	}
	ctx, cancel := context.WithCancel(p.base)
	p.cancel = cancel
	p.status = AudioStatus{JobID: jobID, NoteID: noteID, Status: types.AUDIO_JOB_STATUS_PROCESSING}
	status := p.status
	p.mu.Unlock()

	notify(ctx, p.notifier, p.userID, types.EVENT_AUDIO_STATUS, status)
	safe.Go("AudioPoller.loop", func() {
		p.loop(ctx, jobID, noteID)
	})
	return nil
}

// Stop abandons the current job without marking it finished.
func (p *AudioPoller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	if p.status.Status == types.AUDIO_JOB_STATUS_PROCESSING {
		p.status = AudioStatus{Status: types.AUDIO_JOB_STATUS_IDLE}
	}
}

func (p *AudioPoller) loop(ctx context.Context, jobID, noteID string) {
	if p.check(ctx, jobID, noteID) {
		return
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if p.check(ctx, jobID, noteID) {
				return
			}
		}
	}
}

// check reads the job row once and reports whether polling is over.
func (p *AudioPoller) check(ctx context.Context, jobID, noteID string) bool {
	job, err := p.jobs.Get(ctx, p.userID, jobID)
	if ctx.Err() != nil {
		return true
	}
	if err == nil && job == nil {
		err = errors.New("AudioPoller.check", i18n.ERROR_NOT_FOUND, nil)
	}
	if err != nil {
		slog.Error("failed to read audio job status", slog.String("job_id", jobID), slog.String("error", err.Error()))
		p.finish(ctx, jobID, types.AUDIO_JOB_STATUS_ERROR, p.translate(i18n.ERROR_AUDIO_JOB_READ_FAILED))
		return true
	}
	if p.OnTick != nil {
		p.OnTick(job.Status)
	}

	switch job.Status {
	case types.AUDIO_JOB_STATUS_COMPLETED:
		result := job.Result()
		if noteID == "" {
			noteID = job.NoteID
		}
		if noteID != "" {
			if err = p.notes.UpdateAudioResult(ctx, p.userID, noteID, result); err != nil {
				slog.Error("failed to save audio result to note", slog.String("note_id", noteID), slog.String("error", err.Error()))
			}
			p.library.ApplyAudioResult(ctx, noteID, result)
		}
		p.finish(ctx, jobID, types.AUDIO_JOB_STATUS_COMPLETED, "")
		return true
	case types.AUDIO_JOB_STATUS_ERROR:
		msg := job.ErrorMessage
		if msg == "" {
			msg = p.translate(i18n.ERROR_AUDIO_JOB_FAILED)
		}
		p.finish(ctx, jobID, types.AUDIO_JOB_STATUS_ERROR, msg)
		return true
	}

	notify(ctx, p.notifier, p.userID, types.EVENT_NOTIFICATION, types.Notification{
		Key:     "audio:" + jobID,
		Level:   types.NOTIFY_LOADING,
		Message: p.translate(i18n.MESSAGE_AUDIO_PROCESSING),
	})
	return false
}

func (p *AudioPoller) finish(ctx context.Context, jobID string, status types.AudioJobStatus, message string) {
	p.mu.Lock()
	p.finished[jobID] = struct{}{}
	if p.status.JobID == jobID {
		p.status.Status = status
		p.status.ErrorMessage = message
		if p.cancel != nil {
			p.cancel()
			p.cancel = nil
		}
	}
	current := p.status
	p.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	notify(ctx, p.notifier, p.userID, types.EVENT_AUDIO_STATUS, current)

	n := types.Notification{Key: "audio:" + jobID, Level: types.NOTIFY_SUCCESS, Message: p.translate(i18n.MESSAGE_AUDIO_COMPLETED)}
	if status == types.AUDIO_JOB_STATUS_ERROR {
		n.Level = types.NOTIFY_ERROR
		n.Message = message
	}
	notify(ctx, p.notifier, p.userID, types.EVENT_NOTIFICATION, n)
}

func (p *AudioPoller) translate(id string) string {
	if p.translator == nil {
		return id
	}
	return p.translator.Get(p.lang, id)
}
