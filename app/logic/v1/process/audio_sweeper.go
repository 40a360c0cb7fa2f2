package process

import (
	"context"
	"log/slog"
	"time"

	"github.com/quka-ai/studymate/pkg/register"
	"github.com/quka-ai/studymate/pkg/types"
)

const STALE_AUDIO_JOB_MESSAGE = "audio processing timed out"

func init() {
	register.RegisterFunc[*Process](ProcessKey{}, func(p *Process) {
		staleAfter := time.Duration(p.Core().Cfg().Audio.StaleAfter) * time.Minute
		sweeper := &StaleAudioSweeper{
			jobs:       p.Core().Store().AudioJobStore(),
			staleAfter: staleAfter,
		}
		p.Cron().AddFunc("@every 1m", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			sweeper.Sweep(ctx, time.Now())
		})
	})
}

type StaleAudioJobStore interface {
	ListStale(ctx context.Context, before int64, limit uint64) ([]types.AudioJob, error)
	Fail(ctx context.Context, id, message string) error
}

// StaleAudioSweeper fails jobs whose worker died so pollers reach a terminal state.
type StaleAudioSweeper struct {
	jobs       StaleAudioJobStore
	staleAfter time.Duration
}

func (s *StaleAudioSweeper) Sweep(ctx context.Context, now time.Time) int {
	list, err := s.jobs.ListStale(ctx, now.Add(-s.staleAfter).Unix(), 100)
	if err != nil {
		slog.Error("Failed to list stale audio jobs", slog.String("error", err.Error()))
		return 0
	}

	var failed int
	for _, job := range list {
		if err = s.jobs.Fail(ctx, job.ID, STALE_AUDIO_JOB_MESSAGE); err != nil {
			slog.Error("Failed to fail stale audio job", slog.String("job_id", job.ID), slog.String("error", err.Error()))
			continue
		}
		failed++
	}
	if failed > 0 {
		slog.Info("Stale audio jobs failed", slog.Int("count", failed))
	}
	return failed
}
