package process

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/quka-ai/studymate/app/core"
	"github.com/quka-ai/studymate/pkg/ai"
	"github.com/quka-ai/studymate/pkg/object-storage/s3"
	"github.com/quka-ai/studymate/pkg/queue"
	"github.com/quka-ai/studymate/pkg/register"
	"github.com/quka-ai/studymate/pkg/types"
	"github.com/quka-ai/studymate/pkg/utils"
)

func init() {
	register.RegisterFunc[*Process](ProcessKey{}, func(p *Process) {
		startAudioConsumer(p)
	})
}

func startAudioConsumer(p *Process) {
	client := p.AsynqClient()
	mux := p.AsynqServerMux()
	if client == nil || mux == nil {
		return
	}

	p.SetAudioQueue(queue.NewAudioQueue(client))
	worker := NewAudioWorker(p.Core())

	mux.HandleFunc(queue.TaskTypeAudioProcess, func(ctx context.Context, task *asynq.Task) error {
		payload, err := queue.ParseAudioProcessTask(task)
		if err != nil {
			slog.Error("Invalid audio task payload", slog.String("error", err.Error()))
			// 无法重试的任务直接跳过
			return fmt.Errorf("%w: %s", asynq.SkipRetry, err.Error())
		}
		return worker.Process(ctx, payload.JobID)
	})
	slog.Info("Audio task consumer started")
}

type AudioJobStore interface {
	GetByID(ctx context.Context, id string) (*types.AudioJob, error)
	Complete(ctx context.Context, id string, result types.AudioResult) error
	Fail(ctx context.Context, id, message string) error
}

type FileLoader interface {
	GetStaticDomain() string
	DownloadFile(ctx context.Context, filePath string) (*s3.GetObjectResult, error)
}

// AudioWorker runs one audio job: download, transcribe/summarize/translate, write back the row.
type AudioWorker struct {
	jobs  AudioJobStore
	files func() FileLoader
	ai    ai.AudioProcessor
}

func NewAudioWorker(c *core.Core) *AudioWorker {
	return &AudioWorker{
		jobs:  c.Store().AudioJobStore(),
		files: func() FileLoader { return c.FileStorage() },
		ai:    c.Srv().AI(),
	}
}

// lastAttempt is true outside asynq or when asynq will not retry the task again.
func lastAttempt(ctx context.Context) bool {
	retried, ok := asynq.GetRetryCount(ctx)
	if !ok {
		return true
	}
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	return retried >= maxRetry
}

func (w *AudioWorker) Process(ctx context.Context, jobID string) error {
	job, err := w.jobs.GetByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to get audio job %s: %w", jobID, err)
	}
	if job.Status.Terminal() {
		slog.Info("Audio job already finished, skip", slog.String("job_id", jobID), slog.String("status", string(job.Status)))
		return nil
	}

	result, err := w.run(ctx, job)
	if err != nil {
		slog.Error("Failed to process audio job", slog.String("job_id", jobID), slog.String("error", err.Error()))
		if !lastAttempt(ctx) {
			return err
		}
		if failErr := w.jobs.Fail(context.WithoutCancel(ctx), jobID, err.Error()); failErr != nil {
			slog.Error("Failed to mark audio job failed", slog.String("job_id", jobID), slog.String("error", failErr.Error()))
		}
		return err
	}

	if err = w.jobs.Complete(ctx, jobID, result); err != nil {
		return fmt.Errorf("failed to complete audio job %s: %w", jobID, err)
	}
	slog.Info("Audio job completed", slog.String("job_id", jobID), slog.String("note_id", job.NoteID))
	return nil
}

func (w *AudioWorker) run(ctx context.Context, job *types.AudioJob) (types.AudioResult, error) {
	files := w.files()
	file, err := files.DownloadFile(ctx, core.ObjectPath(files.GetStaticDomain(), job.FileURL))
	if err != nil {
		return types.AudioResult{}, fmt.Errorf("failed to download audio: %w", err)
	}

	mimeType := job.MimeType
	if mimeType == "" {
		mimeType = utils.CleanContentType(file.FileType)
	}

	res, err := w.ai.ProcessAudio(ctx, ai.AudioRequest{
		Audio:          ai.InlineData{MimeType: mimeType, Data: file.File},
		TargetLanguage: job.TargetLanguage,
	})
	if err != nil {
		return types.AudioResult{}, err
	}
	return types.AudioResult{
		Transcript:  res.Transcript,
		Summary:     res.Summary,
		Translation: res.Translation,
	}, nil
}
