package workspace

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"

	"github.com/samber/lo"

	"github.com/quka-ai/studymate/pkg/ai"
	"github.com/quka-ai/studymate/pkg/errors"
	"github.com/quka-ai/studymate/pkg/i18n"
	"github.com/quka-ai/studymate/pkg/types"
	"github.com/quka-ai/studymate/pkg/utils"
)

type Image struct {
	URL      string
	MimeType string
	Data     []byte
}

type SubmitRequest struct {
	Text        string
	DocumentIDs []string
	NoteIDs     []string
	Image       *Image
}

type ChatStatus struct {
	IsAILoading             bool `json:"is_ai_loading"`
	IsSubmittingUserMessage bool `json:"is_submitting_user_message"`
}

// Orchestrator sends chat turns to the model and reconciles replies into the
// message buffer, the session list and the database.
type Orchestrator struct {
	userID       string
	sessions     *Sessions
	messages     *Messages
	library      *Library
	sessionStore SessionStore
	messageStore MessageStore
	ai           ai.Chatter
	locker       Locker
	notifier     Notifier
	translator   Translator
	images       ImageLoader
	lang         string
	now          nowFunc

	mu                      sync.Mutex
	isAILoading             bool
	isSubmittingUserMessage bool
}

func newOrchestrator(userID string, deps Deps, sessions *Sessions, messages *Messages, library *Library) *Orchestrator {
	return &Orchestrator{
		userID:       userID,
		sessions:     sessions,
		messages:     messages,
		library:      library,
		sessionStore: deps.Sessions,
		messageStore: deps.Messages,
		ai:           deps.AI,
		locker:       deps.Locker,
		notifier:     deps.Notifier,
		translator:   deps.Translator,
		images:       deps.ImageLoader,
		lang:         deps.Lang,
		now:          deps.Now,
	}
}

func (o *Orchestrator) Status() ChatStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	return ChatStatus{
		IsAILoading:             o.isAILoading,
		IsSubmittingUserMessage: o.isSubmittingUserMessage,
	}
}

func (o *Orchestrator) begin(ctx context.Context, trace string) error {
	o.mu.Lock()
	if o.isAILoading || o.isSubmittingUserMessage {
		o.mu.Unlock()
		return errors.New(trace, i18n.ERROR_CHAT_BUSY, nil).Code(http.StatusConflict)
	}
	o.isAILoading = true
	o.isSubmittingUserMessage = true
	o.mu.Unlock()

	o.publishStatus(ctx)
	return nil
}

func (o *Orchestrator) doneSubmitting(ctx context.Context) {
	o.mu.Lock()
	o.isSubmittingUserMessage = false
	o.mu.Unlock()
	o.publishStatus(ctx)
}

func (o *Orchestrator) end(ctx context.Context) {
	o.mu.Lock()
	o.isAILoading = false
	o.isSubmittingUserMessage = false
	o.mu.Unlock()
	o.publishStatus(ctx)
}

func (o *Orchestrator) publishStatus(ctx context.Context) {
	notify(ctx, o.notifier, o.userID, types.EVENT_AI_STATUS, o.Status())
}

// lockSession guards the session across replicas. The lock is released by calling the returned func.
func (o *Orchestrator) lockSession(ctx context.Context, trace, sessionID string) (func(), error) {
	if o.locker == nil {
		return func() {}, nil
	}
	lockCtx, cancel := context.WithCancel(ctx)
	ok, err := o.locker.TryLock(lockCtx, "studymate:chat:session:"+sessionID)
	if err != nil {
		cancel()
		return nil, errors.New(trace+".TryLock", i18n.ERROR_INTERNAL, err)
	}
	if !ok {
		cancel()
		return nil, errors.New(trace+".TryLock", i18n.ERROR_CHAT_BUSY, nil).Code(http.StatusConflict)
	}
	return cancel, nil
}

// Submit stores text as a user message, asks the model and appends its reply.
// When the model fails an is_error assistant message carrying text is appended
// instead and the failure is returned along with it.
func (o *Orchestrator) Submit(ctx context.Context, req SubmitRequest) (*types.ChatMessage, error) {
	if o.userID == "" {
		return nil, errors.New("Orchestrator.Submit", i18n.ERROR_UNAUTHORIZED, nil).Code(http.StatusUnauthorized)
	}
	if strings.TrimSpace(req.Text) == "" && req.Image == nil {
		return nil, errors.New("Orchestrator.Submit", i18n.ERROR_INVALIDARGUMENT, nil).Code(http.StatusBadRequest)
	}
	if err := o.begin(ctx, "Orchestrator.Submit"); err != nil {
		return nil, err
	}
	defer o.end(ctx)

	documentIDs := nonNil(lo.Uniq(req.DocumentIDs))
	noteIDs := nonNil(lo.Uniq(req.NoteIDs))

	sessionID := o.sessions.Active()
	if sessionID == "" {
		session, err := o.sessions.Create(ctx, documentIDs)
		if err != nil {
			return nil, errors.Trace("Orchestrator.Submit", err)
		}
		sessionID = session.ID
	}

	release, err := o.lockSession(ctx, "Orchestrator.Submit", sessionID)
	if err != nil {
		return nil, err
	}
	defer release()

	history := o.messages.Snapshot()

	userMsg := types.ChatMessage{
		ID:                  utils.GenSpecIDStr(),
		SessionID:           sessionID,
		UserID:              o.userID,
		Content:             req.Text,
		Role:                types.MESSAGE_ROLE_USER,
		Timestamp:           o.now().UnixMilli(),
		AttachedDocumentIDs: documentIDs,
		AttachedNoteIDs:     noteIDs,
	}
	if req.Image != nil {
		userMsg.ImageURL = req.Image.URL
		userMsg.ImageMimeType = req.Image.MimeType
	}

	o.messages.AppendPending(ctx, userMsg)
	if err = o.messageStore.Create(ctx, userMsg); err != nil {
		o.messages.MarkFailed(ctx, userMsg.ID)
		return nil, errors.New("Orchestrator.Submit.ChatMessageStore.Create", i18n.ERROR_INTERNAL, err)
	}
	o.messages.Confirm(ctx, userMsg.ID)
	o.doneSubmitting(ctx)

	current := ai.Turn{
		Role: ai.ROLE_USER,
		Text: withContext(o.library.BuildContext(documentIDs, noteIDs), req.Text),
	}
	if req.Image != nil && len(req.Image.Data) > 0 {
		current.Image = &ai.InlineData{MimeType: req.Image.MimeType, Data: req.Image.Data}
	}

	result, callErr := o.call(ctx, append(o.historyTurns(history), current), req.Text)

	reply := types.ChatMessage{
		ID:                  utils.GenSpecIDStr(),
		SessionID:           sessionID,
		UserID:              o.userID,
		Role:                types.MESSAGE_ROLE_ASSISTANT,
		Timestamp:           max(o.now().UnixMilli(), userMsg.Timestamp+1),
		AttachedDocumentIDs: []string{},
		AttachedNoteIDs:     []string{},
	}

	if callErr != nil {
		// keep the question so the user can retry without typing it again
		reply.Content = req.Text
		reply.IsError = true
		if err = o.appendAndStore(ctx, reply); err != nil {
			slog.Error("failed to store error reply", slog.String("session_id", sessionID), slog.String("error", err.Error()))
		}
		return &reply, o.failure(ctx, "Orchestrator.Submit", sessionID, callErr)
	}

	reply.Content = result.Content
	if err = o.appendAndStore(ctx, reply); err != nil {
		return &reply, errors.Trace("Orchestrator.Submit", err)
	}
	o.touchSession(ctx, sessionID, reply.Timestamp, documentIDs)
	return &reply, nil
}

// Regenerate asks the model again for the assistant message id and rewrites it
// in place. History is everything before the user message that prompted it.
func (o *Orchestrator) Regenerate(ctx context.Context, id string) (*types.ChatMessage, error) {
	if o.userID == "" {
		return nil, errors.New("Orchestrator.Regenerate", i18n.ERROR_UNAUTHORIZED, nil).Code(http.StatusUnauthorized)
	}
	if err := o.begin(ctx, "Orchestrator.Regenerate"); err != nil {
		return nil, err
	}
	defer o.end(ctx)
	// nothing is submitted in this mode
	o.doneSubmitting(ctx)

	snapshot := o.messages.Snapshot()
	idx := slices.IndexFunc(snapshot, func(m types.LocalMessage) bool { return m.ID == id })
	if idx < 0 {
		return nil, errors.New("Orchestrator.Regenerate", i18n.ERROR_NOT_FOUND, nil).Code(http.StatusNotFound)
	}
	target := snapshot[idx].ChatMessage
	if target.Role != types.MESSAGE_ROLE_ASSISTANT {
		return nil, errors.New("Orchestrator.Regenerate", i18n.ERROR_CHAT_NOT_REGENERATE, nil).Code(http.StatusBadRequest)
	}

	prior := snapshot[:idx]
	pIdx := -1
	for i := len(prior) - 1; i >= 0; i-- {
		if prior[i].Role == types.MESSAGE_ROLE_USER && !prior[i].IsError {
			pIdx = i
			break
		}
	}
	if pIdx < 0 {
		return nil, errors.New("Orchestrator.Regenerate", i18n.ERROR_CHAT_NOT_REGENERATE, nil).Code(http.StatusBadRequest)
	}
	prompt := prior[pIdx].ChatMessage

	release, err := o.lockSession(ctx, "Orchestrator.Regenerate", target.SessionID)
	if err != nil {
		return nil, err
	}
	defer release()

	current := ai.Turn{
		Role: ai.ROLE_USER,
		Text: withContext(o.library.BuildContext(prompt.AttachedDocumentIDs, prompt.AttachedNoteIDs), prompt.Content),
	}
	if prompt.ImageURL != "" && o.images != nil {
		img, err := o.images.LoadImage(ctx, prompt.ImageURL)
		if err != nil {
			slog.Warn("failed to load image for regeneration, continue without it", slog.String("message_id", prompt.ID), slog.String("error", err.Error()))
		} else {
			current.Image = img
		}
	}

	result, callErr := o.call(ctx, append(o.historyTurns(prior[:pIdx]), current), prompt.Content)
	if callErr != nil {
		key, _ := ClassifyAIError(callErr)
		failed := target
		failed.Content = o.translate(key)
		failed.IsError = true
		if err = o.messageStore.UpdateContent(ctx, o.userID, target.ID, failed.Content, target.Timestamp, true); err != nil {
			slog.Error("failed to mark message as error", slog.String("message_id", target.ID), slog.String("error", err.Error()))
		}
		o.messages.Replace(ctx, failed)
		return &failed, o.failure(ctx, "Orchestrator.Regenerate", target.SessionID, callErr)
	}

	updated := target
	updated.Content = result.Content
	updated.IsError = false
	updated.Timestamp = max(o.now().UnixMilli(), prompt.Timestamp+1)
	// a newer message follows, keep the old position
	if idx+1 < len(snapshot) && updated.Timestamp >= snapshot[idx+1].Timestamp {
		updated.Timestamp = target.Timestamp
	}

	if err = o.messageStore.UpdateContent(ctx, o.userID, updated.ID, updated.Content, updated.Timestamp, false); err != nil {
		return nil, errors.New("Orchestrator.Regenerate.ChatMessageStore.UpdateContent", i18n.ERROR_INTERNAL, err)
	}
	o.messages.Replace(ctx, updated)
	o.touchSession(ctx, updated.SessionID, updated.Timestamp, prompt.AttachedDocumentIDs)
	return &updated, nil
}

// IMAGE_TURN_PLACEHOLDER stands in for the text of an image-only user turn in history.
const IMAGE_TURN_PLACEHOLDER = "[image]"

// historyTurns maps stored messages onto model turns. Failed replies are left out and
// user turns get their attachments rendered again from the stored ids.
// A model turn is only kept right after a user turn, so the history never opens with
// the model and never carries two model turns in a row.
func (o *Orchestrator) historyTurns(history []types.LocalMessage) []ai.Turn {
	turns := make([]ai.Turn, 0, len(history))
	for _, m := range history {
		if m.IsError || m.Sync == types.SYNC_FAILED {
			continue
		}
		if m.Role == types.MESSAGE_ROLE_ASSISTANT {
			if m.Content == "" || len(turns) == 0 || turns[len(turns)-1].Role != ai.ROLE_USER {
				continue
			}
			turns = append(turns, ai.Turn{Role: ai.ROLE_MODEL, Text: m.Content})
			continue
		}

		text := m.Content
		if text == "" {
			if m.ImageURL == "" {
				continue
			}
			text = IMAGE_TURN_PLACEHOLDER
		}
		if m.HasAttachments() {
			text = withContext(o.library.BuildContext(m.AttachedDocumentIDs, m.AttachedNoteIDs), text)
		}
		turns = append(turns, ai.Turn{Role: ai.ROLE_USER, Text: text})
	}
	return turns
}

func (o *Orchestrator) call(ctx context.Context, turns []ai.Turn, question string) (ai.ChatResult, error) {
	if o.ai == nil {
		return ai.ChatResult{}, ai.ErrNotConfigured
	}
	system := ai.ReplaceVars(ai.PROMPT_CHAT_SYSTEM, map[string]string{
		"lang_hint": ai.LangHint(utils.WhatLang(question)),
	})
	res, err := o.ai.Chat(ctx, ai.ChatRequest{System: system, Turns: turns})
	if err != nil {
		return res, ai.NormalizeError(err)
	}
	if strings.TrimSpace(res.Content) == "" {
		return res, ai.ErrEmptyResponse
	}
	return res, nil
}

func (o *Orchestrator) appendAndStore(ctx context.Context, msg types.ChatMessage) error {
	o.messages.AppendPending(ctx, msg)
	if err := o.messageStore.Create(ctx, msg); err != nil {
		o.messages.MarkFailed(ctx, msg.ID)
		return errors.New("Orchestrator.ChatMessageStore.Create", i18n.ERROR_INTERNAL, err)
	}
	o.messages.Confirm(ctx, msg.ID)
	return nil
}

func (o *Orchestrator) touchSession(ctx context.Context, sessionID string, ts int64, documentIDs []string) {
	if session, ok := o.sessions.Get(sessionID); ok {
		ts = max(ts, session.LastMessageAt)
	}
	documentIDs = nonNil(documentIDs)
	if err := o.sessionStore.UpdateLastMessage(ctx, o.userID, sessionID, ts, documentIDs); err != nil {
		slog.Error("failed to update session last message", slog.String("session_id", sessionID), slog.String("error", err.Error()))
		return
	}
	o.sessions.Touch(ctx, sessionID, ts, documentIDs)
}

// ClassifyAIError returns the i18n message and http status for a model failure.
func ClassifyAIError(err error) (string, int) {
	switch {
	case ai.IsOverloaded(err):
		return i18n.ERROR_AI_OVERLOADED, http.StatusServiceUnavailable
	case errors.Is(err, ai.ErrEmptyResponse):
		return i18n.ERROR_AI_EMPTY_RESPONSE, http.StatusBadGateway
	case errors.Is(err, ai.ErrNotConfigured), errors.Is(err, ai.ErrNotSupported):
		return i18n.ERROR_AI_NOT_CONFIGURED, http.StatusServiceUnavailable
	}
	return i18n.ERROR_AI_REQUEST_FAILED, http.StatusBadGateway
}

func (o *Orchestrator) failure(ctx context.Context, trace, sessionID string, err error) error {
	key, code := ClassifyAIError(err)
	slog.Error("ai chat failed", slog.String("session_id", sessionID), slog.String("user_id", o.userID), slog.String("error", err.Error()))
	notify(ctx, o.notifier, o.userID, types.EVENT_NOTIFICATION, types.Notification{
		Level:   types.NOTIFY_ERROR,
		Message: o.translate(key),
	})
	return errors.New(trace+".Chat", key, err).Code(code)
}

func (o *Orchestrator) translate(id string) string {
	if o.translator == nil {
		return id
	}
	return o.translator.Get(o.lang, id)
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
