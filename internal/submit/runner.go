package submit

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"transcreva/internal/convert"
	"transcreva/internal/domain"
)

// User-facing failure messages. These literals are part of the UI contract.
const (
	MsgSubmitFailed     = "Deu algo de errado ao tentar subir seu arquivo."
	MsgTranscribeFailed = "Deu algo de errado ao tentar transcrever o vídeo."
)

// AudioConverter produces the compressed audio artifact for one video.
type AudioConverter interface {
	Convert(ctx context.Context, videoPath string, onLog func(convert.CommandLog)) (convert.Audio, error)
}

// TranscriptionService covers the two remote calls a run depends on.
type TranscriptionService interface {
	UploadAudio(ctx context.Context, audio convert.Audio) (string, error)
	StartTranscription(ctx context.Context, videoID, prompt string) error
}

// Workflow drives one submission through convert, upload, and transcription
// request, strictly sequentially with one stage in flight at a time.
type Workflow struct {
	// OnUploaded is invoked once with the media identifier when a run
	// reaches success.
	OnUploaded func(videoID string)

	manager   *Manager
	converter AudioConverter
	service   TranscriptionService
	events    *EventBus
	log       zerolog.Logger
}

// NewWorkflow wires the workflow with its collaborators.
func NewWorkflow(
	manager *Manager,
	converter AudioConverter,
	service TranscriptionService,
	events *EventBus,
	log zerolog.Logger,
) *Workflow {
	return &Workflow{
		manager:   manager,
		converter: converter,
		service:   service,
		events:    events,
		log:       log,
	}
}

// Manager exposes the submission machine for selection and snapshots.
func (w *Workflow) Manager() *Manager {
	return w.manager
}

// Run executes one full submission. Any failure surfaces exactly one toast
// and resets the machine to waiting with the selected video preserved;
// submitting without a video surfaces the toast without touching state.
func (w *Workflow) Run(ctx context.Context, prompt string) error {
	id := uuid.New().String()
	if err := w.manager.Begin(id, prompt); err != nil {
		if errors.Is(err, ErrNoVideoSelected) {
			w.publishToast("", MsgSubmitFailed)
		}
		return err
	}

	sub := w.manager.Current()
	w.log.Info().Str("submission", id).Str("video", sub.VideoName).Msg("submission started")
	w.publishStatus(id, domain.StatusConverting)

	audio, err := w.converter.Convert(ctx, sub.VideoPath, func(log convert.CommandLog) {
		w.events.Publish(Event{
			SubmissionID: id,
			Type:         EventTypeLog,
			Message:      "Command completed",
			Command:      log.Command,
			Args:         log.Args,
			ExitCode:     log.ExitCode,
			Stderr:       log.Stderr,
		})
	})
	if err != nil {
		return w.fail(id, MsgSubmitFailed, err)
	}

	if err := w.manager.Transition(domain.StatusUploading); err != nil {
		if cerr := audio.Cleanup(); cerr != nil {
			w.log.Warn().Err(cerr).Msg("cleanup conversion workspace")
		}
		return w.fail(id, MsgSubmitFailed, err)
	}
	w.publishStatus(id, domain.StatusUploading)

	videoID, uploadErr := w.service.UploadAudio(ctx, audio)
	// The artifact only exists to be uploaded; discard it either way.
	if err := audio.Cleanup(); err != nil {
		w.log.Warn().Err(err).Msg("cleanup conversion workspace")
	}
	if uploadErr != nil {
		return w.fail(id, MsgSubmitFailed, uploadErr)
	}

	if err := w.manager.Transition(domain.StatusGenerating); err != nil {
		return w.fail(id, MsgTranscribeFailed, err)
	}
	w.publishStatus(id, domain.StatusGenerating)

	if err := w.service.StartTranscription(ctx, videoID, sub.Prompt); err != nil {
		return w.fail(id, MsgTranscribeFailed, err)
	}

	if err := w.manager.Complete(videoID); err != nil {
		return err
	}
	w.publishStatus(id, domain.StatusSuccess)
	w.events.Publish(Event{
		SubmissionID: id,
		Type:         EventTypeResult,
		Status:       domain.StatusSuccess,
		Message:      "Transcription requested",
		VideoID:      videoID,
	})

	w.log.Info().Str("submission", id).Str("videoId", videoID).Msg("submission completed")
	if w.OnUploaded != nil {
		w.OnUploaded(videoID)
	}
	return nil
}

// fail logs the error, resets to waiting, and emits one toast.
func (w *Workflow) fail(id, message string, err error) error {
	w.log.Error().Err(err).Str("submission", id).Msg("submission failed")

	if terr := w.manager.Transition(domain.StatusWaiting); terr != nil {
		w.log.Error().Err(terr).Msg("reset submission after failure")
	}

	w.publishToast(id, message)
	w.publishStatus(id, domain.StatusWaiting)
	return err
}

// publishStatus emits a status event with its presentation label.
func (w *Workflow) publishStatus(id string, status domain.Status) {
	w.events.Publish(Event{
		SubmissionID: id,
		Type:         EventTypeStatus,
		Status:       status,
		Label:        Label(status),
	})
}

// publishToast emits one destructive user-facing notification.
func (w *Workflow) publishToast(id, description string) {
	toast := domain.ErrorToast(description)
	w.events.Publish(Event{
		SubmissionID: id,
		Type:         EventTypeToast,
		Toast:        &toast,
	})
}
