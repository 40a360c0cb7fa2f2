package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// 音频处理任务类型
	TaskTypeAudioProcess = "audio:process"

	AudioQueueName = "audio"

	AudioMaxRetries  = 2
	AudioTaskTimeout = 20 * time.Minute // 长录音的转写耗时较长
)

type AudioProcessTask struct {
	JobID  string `json:"job_id"`
	UserID string `json:"user_id"`
}

// AudioQueue 音频任务队列
type AudioQueue struct {
	client *asynq.Client
}

func NewAudioQueue(client *asynq.Client) *AudioQueue {
	return &AudioQueue{client: client}
}

func NewAudioProcessTask(jobID, userID string) (*asynq.Task, error) {
	payload, err := json.Marshal(AudioProcessTask{JobID: jobID, UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal task: %w", err)
	}
	return asynq.NewTask(TaskTypeAudioProcess, payload,
		asynq.MaxRetry(AudioMaxRetries),
		asynq.Timeout(AudioTaskTimeout),
		asynq.TaskID(jobID),
		asynq.Queue(AudioQueueName),
	), nil
}

func ParseAudioProcessTask(t *asynq.Task) (AudioProcessTask, error) {
	var task AudioProcessTask
	if err := json.Unmarshal(t.Payload(), &task); err != nil {
		return task, fmt.Errorf("failed to unmarshal audio task: %w", err)
	}
	if task.JobID == "" {
		return task, fmt.Errorf("audio task without job id")
	}
	return task, nil
}

// EnqueueProcessTask 将音频处理任务加入队列，job id 同时作为 asynq task id 去重
func (q *AudioQueue) EnqueueProcessTask(ctx context.Context, jobID, userID string) error {
	task, err := NewAudioProcessTask(jobID, userID)
	if err != nil {
		return err
	}

	if _, err = q.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("failed to enqueue audio process task: %w", err)
	}

	slog.Info("Audio process task enqueued", slog.String("job_id", jobID), slog.String("user_id", userID))
	return nil
}

func (q *AudioQueue) Shutdown() {
	if q.client == nil {
		return
	}
	if err := q.client.Close(); err != nil {
		slog.Error("Failed to close audio queue client", slog.String("error", err.Error()))
	}
}
