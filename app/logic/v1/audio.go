package v1

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/quka-ai/studymate/app/core"
	"github.com/quka-ai/studymate/app/logic/v1/process"
	"github.com/quka-ai/studymate/app/workspace"
	"github.com/quka-ai/studymate/pkg/errors"
	"github.com/quka-ai/studymate/pkg/i18n"
	"github.com/quka-ai/studymate/pkg/safe"
	"github.com/quka-ai/studymate/pkg/types"
	"github.com/quka-ai/studymate/pkg/utils"
)

// AUDIO_JOB_TIMEOUT bounds an audio job that runs in process, without a queue.
const AUDIO_JOB_TIMEOUT = 10 * time.Minute

type AudioLogic struct {
	ctx  context.Context
	core *core.Core
	UserInfo
}

func NewAudioLogic(ctx context.Context, core *core.Core) *AudioLogic {
	return &AudioLogic{
		ctx:      ctx,
		core:     core,
		UserInfo: SetupUserInfo(ctx, core),
	}
}

type SubmitAudioArgs struct {
	NoteID         string
	TargetLanguage string
	File           UploadFile
}

// Submit stores the recording, attaches it to the note and starts following the job.
func (l *AudioLogic) Submit(args SubmitAudioArgs) (workspace.AudioStatus, error) {
	ws, err := l.Workspace()
	if err != nil {
		return workspace.AudioStatus{}, errors.Trace("AudioLogic.Submit", err)
	}
	if _, err = NewNoteLogic(l.ctx, l.core).GetNote(args.NoteID); err != nil {
		return workspace.AudioStatus{}, errors.Trace("AudioLogic.Submit", err)
	}

	mimeType := args.File.MimeType()
	if !utils.IsAudioType(mimeType) {
		return workspace.AudioStatus{}, errors.New("AudioLogic.Submit.mime", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusUnsupportedMediaType)
	}

	userID := l.GetUserInfo().User
	stored, err := saveUserFile(l.ctx, l.core, userID, OBJECT_KIND_AUDIO, args.File, l.core.Cfg().Audio.MaxUploadSize)
	if err != nil {
		return workspace.AudioStatus{}, errors.Trace("AudioLogic.Submit", err)
	}

	now := time.Now().Unix()
	job := types.AudioJob{
		ID:             utils.GenUUID(),
		UserID:         userID,
		NoteID:         args.NoteID,
		FileURL:        stored.URL,
		MimeType:       mimeType,
		TargetLanguage: strings.TrimSpace(args.TargetLanguage),
		Status:         types.AUDIO_JOB_STATUS_PROCESSING,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if job.TargetLanguage == "" {
		job.TargetLanguage = languageOrDefault(l.ctx)
	}
	if err = l.core.Store().AudioJobStore().Create(l.ctx, job); err != nil {
		return workspace.AudioStatus{}, errors.New("AudioLogic.Submit.AudioJobStore.Create", i18n.ERROR_INTERNAL, err)
	}

	if err = l.core.Store().NoteStore().Update(l.ctx, userID, args.NoteID, types.UpdateNoteArgs{AudioURL: &stored.URL}); err != nil {
		slog.Warn("Failed to attach audio to note", slog.String("note_id", args.NoteID), slog.String("error", err.Error()))
	}

	if err = l.dispatch(job); err != nil {
		_ = l.core.Store().AudioJobStore().Fail(context.WithoutCancel(l.ctx), job.ID, err.Error())
		return workspace.AudioStatus{}, errors.New("AudioLogic.Submit.dispatch", i18n.ERROR_AUDIO_JOB_FAILED, err)
	}

	if err = ws.Audio.Start(job.ID, job.NoteID); err != nil {
		return workspace.AudioStatus{}, errors.Trace("AudioLogic.Submit", err)
	}
	return ws.Audio.Status(), nil
}

func (l *AudioLogic) dispatch(job types.AudioJob) error {
	if q := process.AudioQueue(); q != nil {
		return q.EnqueueProcessTask(l.ctx, job.ID, job.UserID)
	}

	worker := process.NewAudioWorker(l.core)
	safe.Go("AudioWorker.Process", func() {
		ctx, cancel := context.WithTimeout(context.Background(), AUDIO_JOB_TIMEOUT)
		defer cancel()
		if err := worker.Process(ctx, job.ID); err != nil {
			slog.Error("In-process audio job failed", slog.String("job_id", job.ID), slog.String("error", err.Error()))
		}
	})
	return nil
}

// Resume follows an existing job again, e.g. after the client reconnects.
func (l *AudioLogic) Resume(jobID string) (workspace.AudioStatus, error) {
	ws, err := l.Workspace()
	if err != nil {
		return workspace.AudioStatus{}, errors.Trace("AudioLogic.Resume", err)
	}
	job, err := l.core.Store().AudioJobStore().Get(l.ctx, l.GetUserInfo().User, jobID)
	if err != nil && err != sql.ErrNoRows {
		return workspace.AudioStatus{}, errors.New("AudioLogic.Resume.AudioJobStore.Get", i18n.ERROR_INTERNAL, err)
	}
	if job == nil {
		return workspace.AudioStatus{}, errors.New("AudioLogic.Resume.AudioJobStore.Get.nil", i18n.ERROR_NOT_FOUND, nil).Code(http.StatusNotFound)
	}
	if err = ws.Audio.Start(job.ID, job.NoteID); err != nil {
		return workspace.AudioStatus{}, errors.Trace("AudioLogic.Resume", err)
	}
	return ws.Audio.Status(), nil
}

func (l *AudioLogic) Status() (workspace.AudioStatus, error) {
	ws, err := l.Workspace()
	if err != nil {
		return workspace.AudioStatus{}, errors.Trace("AudioLogic.Status", err)
	}
	return ws.Audio.Status(), nil
}

func (l *AudioLogic) Stop() error {
	ws, err := l.Workspace()
	if err != nil {
		return errors.Trace("AudioLogic.Stop", err)
	}
	ws.Audio.Stop()
	return nil
}
