package bootstrap

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"transcreva/internal/api"
	"transcreva/internal/config"
	"transcreva/internal/convert"
	"transcreva/internal/diagnostics"
	"transcreva/internal/domain"
	"transcreva/internal/prompts"
	"transcreva/internal/submit"

	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

var videoDialogFilter = []wailsruntime.FileFilter{
	{
		DisplayName: "Vídeos MP4",
		Pattern:     "*.mp4",
	},
	{
		DisplayName: "Todos os arquivos",
		Pattern:     "*",
	},
}

// App wires configuration, the submission workflow, the prompt catalog, and
// UI runtime callbacks.
type App struct {
	Settings    domain.Settings
	Store       config.Store
	Submissions *submit.Manager
	Prompts     *prompts.Catalog
	Diagnostics domain.DiagnosticReport

	assets  fs.FS
	checker *diagnostics.Checker
	log     zerolog.Logger

	// Collaborators are built per run from current settings, mirroring how
	// settings edits take effect without restarting.
	converterFor func(domain.Settings) submit.AudioConverter
	serviceFor   func(domain.Settings) submit.TranscriptionService
	listerFor    func(domain.Settings) prompts.Lister

	// Remediation seams; nil falls back to the real installers.
	installFFmpeg  func() error
	probeWorkspace func() error

	mu         sync.Mutex
	events     *submit.EventBus
	runtimeCtx context.Context
}

// New builds the application with persisted settings and startup diagnostics.
func New(log zerolog.Logger) (*App, error) {
	return NewWithAssets(nil, log)
}

// NewWithAssets builds the application and optionally configures embedded
// frontend assets.
func NewWithAssets(assets fs.FS, log zerolog.Logger) (*App, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve user home: %w", err)
	}

	store := config.NewJSONStore(filepath.Join(homeDir, ".transcreva", "settings.json"))
	settings, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	checker := diagnostics.NewChecker()
	report := checker.Run(settings)

	app := &App{
		Settings:    settings,
		Store:       store,
		Submissions: submit.NewManager(),
		Diagnostics: report,
		assets:      assets,
		checker:     checker,
		log:         log,
		events:      submit.NewEventBus(1000),
		converterFor: func(settings domain.Settings) submit.AudioConverter {
			return convert.NewConverter(settings.FFmpegPath, log)
		},
	}
	app.serviceFor = func(settings domain.Settings) submit.TranscriptionService {
		return api.NewClient(settings.APIBaseURL, log)
	}
	app.listerFor = func(settings domain.Settings) prompts.Lister {
		return api.NewClient(settings.APIBaseURL, log)
	}
	app.Prompts = prompts.NewCatalog(app.promptLister(), log)
	app.events.Notify(app.pushEvent)

	return app, nil
}

// Run starts the Wails desktop application and binds backend methods.
func (a *App) Run() error {
	assetOptions := &assetserver.Options{}
	if a.assets != nil {
		assetOptions.Assets = a.assets
	} else {
		assetOptions.Handler = http.FileServer(http.Dir("./frontend"))
	}

	return wails.Run(&options.App{
		Title:       "Transcreva",
		Width:       960,
		Height:      720,
		AssetServer: assetOptions,
		OnStartup:   a.Startup,
		OnShutdown: func(ctx context.Context) {
			a.mu.Lock()
			defer a.mu.Unlock()
			a.runtimeCtx = nil
		},
		Bind: []interface{}{a},
	})
}

// Startup stores the Wails runtime context and loads the prompt catalog once.
func (a *App) Startup(ctx context.Context) {
	a.mu.Lock()
	a.runtimeCtx = ctx
	a.mu.Unlock()

	go a.loadPrompts(context.Background())
}

// loadPrompts performs the one-shot prompt fetch. A failure leaves the list
// empty and surfaces exactly one toast; there is no retry. Success publishes
// a prompts event so the UI can populate the picker whenever the fetch lands.
func (a *App) loadPrompts(ctx context.Context) {
	if err := a.Prompts.Load(ctx); err != nil {
		toast := domain.ErrorToast(prompts.MsgLoadFailed)
		a.events.Publish(submit.Event{
			Type:  submit.EventTypeToast,
			Toast: &toast,
		})
		return
	}

	a.events.Publish(submit.Event{
		Type:    submit.EventTypePrompts,
		Message: "Prompt options loaded",
	})
}

// GetDiagnostics returns the latest cached diagnostics report.
func (a *App) GetDiagnostics() domain.DiagnosticReport {
	return a.Diagnostics
}

// GetSettings loads and returns the latest persisted settings.
func (a *App) GetSettings() (domain.Settings, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}

	a.mu.Lock()
	a.Settings = settings
	a.mu.Unlock()

	return settings, nil
}

// SaveSettings normalizes and persists settings, then refreshes diagnostics.
func (a *App) SaveSettings(settings domain.Settings) (domain.Settings, error) {
	normalized := normalizeSettings(settings)
	if err := a.Store.Save(normalized); err != nil {
		return domain.Settings{}, fmt.Errorf("save settings: %w", err)
	}

	a.refreshDiagnosticsFromSettings(normalized)
	return normalized, nil
}

// RefreshDiagnostics reloads settings and reruns dependency checks.
func (a *App) RefreshDiagnostics() (domain.DiagnosticReport, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.DiagnosticReport{}, fmt.Errorf("load settings: %w", err)
	}

	return a.refreshDiagnosticsFromSettings(normalizeSettings(settings)), nil
}

// PickVideoFile opens a native file dialog and registers the chosen video.
// Cancelling the dialog keeps the current selection.
func (a *App) PickVideoFile() (domain.Submission, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return domain.Submission{}, err
	}

	path, err := wailsruntime.OpenFileDialog(ctx, wailsruntime.OpenDialogOptions{
		Title:   "Selecione um vídeo",
		Filters: videoDialogFilter,
	})
	if err != nil {
		return domain.Submission{}, err
	}

	path = strings.TrimSpace(path)
	if path == "" {
		return a.Submissions.Current(), nil
	}

	return a.SelectVideo(path)
}

// SelectVideo registers the video for the next run, replacing any previous
// selection. Rejected while a run is in flight.
func (a *App) SelectVideo(path string) (domain.Submission, error) {
	if err := a.Submissions.SelectVideo(path); err != nil {
		return domain.Submission{}, err
	}

	a.log.Debug().Str("video", path).Msg("video selected")
	return a.Submissions.Current(), nil
}

// SubmitVideo starts one submission run with the prompt text captured now.
// The run progresses asynchronously; failures surface as toast events.
func (a *App) SubmitVideo(prompt string) (domain.Submission, error) {
	if !submit.CanSubmit(a.Submissions.Current().Status) {
		return domain.Submission{}, submit.ErrRunInProgress
	}

	settings, err := a.Store.Load()
	if err != nil {
		return domain.Submission{}, fmt.Errorf("load settings: %w", err)
	}
	settings = normalizeSettings(settings)

	a.mu.Lock()
	a.Settings = settings
	a.mu.Unlock()

	workflow := submit.NewWorkflow(
		a.Submissions,
		a.converterFor(settings),
		a.serviceFor(settings),
		a.events,
		a.log,
	)
	workflow.OnUploaded = a.notifyUploaded

	go func() {
		_ = workflow.Run(context.Background(), prompt)
	}()

	return a.Submissions.Current(), nil
}

// CurrentSubmission returns current submission metadata and status.
func (a *App) CurrentSubmission() domain.Submission {
	return a.Submissions.Current()
}

// SubmissionEvents returns all events with sequence greater than sinceSeq.
func (a *App) SubmissionEvents(sinceSeq int64) []submit.Event {
	return a.events.Since(sinceSeq)
}

// ResetSubmission clears a finished run so a new one can start. Success is
// terminal for a run; this is the explicit re-initialization.
func (a *App) ResetSubmission() domain.Submission {
	a.Submissions.Reset()
	a.events.Publish(submit.Event{
		Type:   submit.EventTypeStatus,
		Status: domain.StatusWaiting,
		Label:  submit.Label(domain.StatusWaiting),
	})
	return a.Submissions.Current()
}

// GetPrompts returns the loaded prompt templates in backend order.
func (a *App) GetPrompts() []domain.Prompt {
	return a.Prompts.All()
}

// SelectPrompt resolves a prompt id to its template text for the form.
func (a *App) SelectPrompt(id string) (string, error) {
	template, ok := a.Prompts.Select(id)
	if !ok {
		return "", fmt.Errorf("unknown prompt id: %s", id)
	}
	return template, nil
}

// notifyUploaded pushes the completed media identifier to the UI.
func (a *App) notifyUploaded(videoID string) {
	a.mu.Lock()
	ctx := a.runtimeCtx
	a.mu.Unlock()
	if ctx != nil {
		wailsruntime.EventsEmit(ctx, "video:uploaded", videoID)
	}
}

// pushEvent mirrors every published event to the UI runtime.
func (a *App) pushEvent(event submit.Event) {
	a.mu.Lock()
	ctx := a.runtimeCtx
	a.mu.Unlock()
	if ctx != nil {
		wailsruntime.EventsEmit(ctx, "submission:event", event)
	}
}

// promptLister defers client construction so the catalog always talks to the
// currently configured backend.
func (a *App) promptLister() prompts.Lister {
	return listerFunc(func(ctx context.Context) ([]domain.Prompt, error) {
		a.mu.Lock()
		settings := a.Settings
		a.mu.Unlock()

		return a.listerFor(settings).ListPrompts(ctx)
	})
}

// listerFunc adapts a function to the prompts.Lister interface.
type listerFunc func(ctx context.Context) ([]domain.Prompt, error)

// ListPrompts invokes the wrapped function.
func (f listerFunc) ListPrompts(ctx context.Context) ([]domain.Prompt, error) {
	return f(ctx)
}

// runtimeContext returns current Wails runtime context for dialog APIs.
func (a *App) runtimeContext() (context.Context, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.runtimeCtx == nil {
		return nil, fmt.Errorf("runtime context is not initialized")
	}
	return a.runtimeCtx, nil
}

// normalizeSettings trims user inputs and applies defaults when empty.
func normalizeSettings(settings domain.Settings) domain.Settings {
	settings.APIBaseURL = strings.TrimSpace(settings.APIBaseURL)
	settings.FFmpegPath = strings.TrimSpace(settings.FFmpegPath)
	if settings.APIBaseURL == "" {
		settings.APIBaseURL = config.DefaultBaseURL
	}
	if settings.FFmpegPath == "" {
		settings.FFmpegPath = "ffmpeg"
	}
	return settings
}
