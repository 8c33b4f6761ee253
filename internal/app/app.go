package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/wailsapp/wails/v3/pkg/application"
	"golang.org/x/sync/errgroup"

	"go.aimuz.me/omni/cache"
	"go.aimuz.me/omni/config"
	"go.aimuz.me/omni/extract"
	"go.aimuz.me/omni/hotkey"
	"go.aimuz.me/omni/internal/session"
	"go.aimuz.me/omni/internal/types"
	"go.aimuz.me/omni/lang"
	"go.aimuz.me/omni/langdetect"
	"go.aimuz.me/omni/llm"
	"go.aimuz.me/omni/playback"
	"go.aimuz.me/omni/stt"
	"go.aimuz.me/omni/tts"
)

// Service provides application functionality bound to Wails.
// This struct focuses on orchestration; business logic lives in sub-components.
type Service struct {
	cfg    *config.Config
	cache  *cache.Cache
	hotkey *hotkey.Manager

	// UI references - set via Init
	app    *application.App
	window application.Window

	// Components with proper synchronization
	store      *session.Store
	playback   *playback.Controller
	bridge     *stt.Bridge
	capture    *CaptureAdapter
	extractor  *extract.Extractor
	translator *Translator

	// Model factories; replaced in tests.
	completer func() (llm.Completer, TranslateProfile, error)
	generator func() (llm.Generator, error)

	// emitFn, when set, receives events instead of the Wails app.
	emitFn func(name string, data any)

	ctx    context.Context
	cancel context.CancelFunc
	group  *errgroup.Group
	once   sync.Once

	// Version info (set by caller)
	version string
}

// New creates a new Service. Call Init() after Wails app is created.
// A nil cfg is loaded from disk during Init.
func New(version string, cfg *config.Config) *Service {
	return &Service{version: version, cfg: cfg}
}

// GetVersion returns the application version.
func (s *Service) GetVersion() string {
	return s.version
}

// Init initializes the service with app and window references.
// Must be called after Wails application is created.
func (s *Service) Init(app *application.App, window application.Window) {
	s.app = app
	s.window = window

	cfg := s.cfg
	if cfg == nil {
		var err error
		if cfg, err = config.Load(); err != nil {
			slog.Error("load config", "error", err)
			cfg = config.Default()
		}
	}

	s.setupCache()

	var synth tts.Synthesizer = tts.Noop{}
	if engine, err := tts.NewCommandEngine(); err != nil {
		slog.Warn("speech synthesis unavailable", "error", err)
	} else {
		synth = engine
	}

	s.setup(cfg, synth)
	s.startBackground()
}

// setup wires the components. It is split from Init for tests.
func (s *Service) setup(cfg *config.Config, synth tts.Synthesizer) {
	s.cfg = cfg
	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.playback = playback.NewController(synth, cfg.Playback.Rate)
	s.store = session.New(cfg.Languages.Source, cfg.Languages.Target, s.playback)
	s.bridge = stt.NewBridge(s.newTranscriber(), s.emit)
	s.capture = NewCaptureAdapter(s.bridge, s.store)
	s.translator = NewTranslator(s.cache)

	if s.completer == nil {
		s.completer = s.newCompleter
	}
	if s.generator == nil {
		s.generator = s.newGenerator
	}
	s.extractor = extract.New(NewRemoteExtractor(func() (llm.Generator, error) { return s.generator() }))

	s.store.OnChange(func(snap types.SessionSnapshot) { s.emit(EventSessionChanged, snap) })
	s.playback.OnChange(func(st types.PlaybackState) { s.emit(EventPlaybackChanged, st) })
}

func (s *Service) startBackground() {
	g, ctx := errgroup.WithContext(s.ctx)
	s.group = g

	g.Go(func() error {
		return s.playback.Run(ctx, s.cfg.PollInterval())
	})

	s.hotkey = hotkey.NewManager(hotkey.Default(s.ShowWindow, s.StopAll)...)
	g.Go(func() error {
		if err := s.hotkey.Start(); err != nil {
			slog.Error("start hotkey", "error", err)
			return nil
		}
		<-ctx.Done()
		s.hotkey.Stop()
		return nil
	})
}

// Shutdown cleans up resources.
func (s *Service) Shutdown() {
	s.once.Do(func() {
		if s.capture != nil {
			s.capture.Stop()
		}
		if s.playback != nil {
			s.playback.Stop()
		}
		if s.cancel != nil {
			s.cancel()
		}
		if s.group != nil {
			if err := s.group.Wait(); err != nil {
				slog.Error("background tasks", "error", err)
			}
		}
		if s.cache != nil {
			if err := s.cache.Close(); err != nil {
				slog.Error("close cache", "error", err)
			}
		}
	})
}

func (s *Service) setupCache() {
	dir, err := config.Dir()
	if err != nil {
		slog.Error("get config dir for cache", "error", err)
		return
	}

	cachePath := filepath.Join(dir, "cache")
	c, err := cache.New(cachePath)
	if err != nil {
		slog.Error("init cache", "error", err)
		return
	}
	s.cache = c
	slog.Info("cache initialized", "path", cachePath)
}

// emit is a safe wrapper around app.Event.Emit
func (s *Service) emit(name string, data any) {
	if s.emitFn != nil {
		s.emitFn(name, data)
		return
	}
	if s.app != nil {
		s.app.Event.Emit(name, data)
	}
}

func (s *Service) alert(msg string) {
	s.emit(EventAlert, types.Alert{Message: msg})
}

// ─────────────────────────────────────────────────────────────────────────────
// Model Factories
// ─────────────────────────────────────────────────────────────────────────────

func (s *Service) newCompleter() (llm.Completer, TranslateProfile, error) {
	profile := s.cfg.GetActiveTranslationProfile()
	if profile == nil {
		return nil, TranslateProfile{}, fmt.Errorf("no active translation profile")
	}

	cred := s.cfg.GetCredential(profile.CredentialID)
	if cred == nil {
		return nil, TranslateProfile{}, fmt.Errorf("credential not found: %s", profile.CredentialID)
	}

	completer := llm.NewCompleter(cred.Type, cred.APIKey, cred.BaseURL, profile.Model, llm.Options{
		MaxTokens:       profile.MaxTokens,
		Temperature:     profile.Temperature,
		DisableThinking: profile.DisableThinking,
	})

	return completer, TranslateProfile{
		Name:         profile.Name,
		Model:        profile.Model,
		SystemPrompt: profile.SystemPrompt,
	}, nil
}

func (s *Service) newGenerator() (llm.Generator, error) {
	ec := s.cfg.GetExtractionConfig()
	if ec == nil || ec.CredentialID == "" {
		return nil, fmt.Errorf("extraction not configured")
	}

	cred := s.cfg.GetCredential(ec.CredentialID)
	if cred == nil {
		return nil, fmt.Errorf("credential not found: %s", ec.CredentialID)
	}

	model := ec.Model
	if model == "" {
		model = config.DefaultExtractionModel
	}
	return llm.NewGenerator(cred.APIKey, cred.BaseURL, model, llm.Options{}), nil
}

// newTranscriber returns nil when voice input is not configured.
func (s *Service) newTranscriber() stt.Transcriber {
	sc := s.cfg.GetSpeechConfig()
	if sc == nil || !sc.Enabled || sc.CredentialID == "" {
		return nil
	}

	cred := s.cfg.GetCredential(sc.CredentialID)
	if cred == nil {
		slog.Warn("speech credential not found", "id", sc.CredentialID)
		return nil
	}

	wc := stt.WhisperAPIConfig{APIKey: cred.APIKey, Model: sc.Model}
	if cred.Type == "openai-compatible" {
		wc.BaseURL = cred.BaseURL
	}
	return stt.NewWhisperAPI(wc)
}

// ─────────────────────────────────────────────────────────────────────────────
// Session
// ─────────────────────────────────────────────────────────────────────────────

// GetSession returns the current session state.
func (s *Service) GetSession() types.SessionSnapshot {
	return s.store.Snapshot()
}

// GetLanguages returns the supported languages.
func (s *Service) GetLanguages() []types.Language {
	return lang.All()
}

// SetSourceText replaces the source buffer with typed text.
func (s *Service) SetSourceText(text string) {
	s.store.SetSourceText(text)
}

// SetLanguage changes the language of one side and remembers the pair.
func (s *Service) SetLanguage(side types.Side, code string) error {
	if _, ok := lang.Find(code); !ok {
		return fmt.Errorf("unsupported language: %s", code)
	}
	if err := s.store.SetLanguage(side, code); err != nil {
		return err
	}
	s.saveLanguages()
	return nil
}

// Swap exchanges languages and texts.
func (s *Service) Swap() {
	s.store.Swap()
	s.saveLanguages()
}

// Clear empties one side.
func (s *Service) Clear(side types.Side) error {
	return s.store.Clear(side)
}

func (s *Service) saveLanguages() {
	snap := s.store.Snapshot()
	s.cfg.Languages = config.LanguagePair{Source: snap.SourceLang, Target: snap.TargetLang}
	if err := s.cfg.Save(); err != nil {
		slog.Warn("save languages", "error", err)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Translation
// ─────────────────────────────────────────────────────────────────────────────

// Translate translates the source buffer into the target buffer.
// Blank source is ignored. Failures are reported with an alert.
func (s *Service) Translate() error {
	if strings.TrimSpace(s.store.Snapshot().SourceText) == "" {
		return nil
	}
	if err := s.store.BeginOperation(StatusTranslating); err != nil {
		return err
	}
	defer s.store.EndOperation()

	s.capture.AbortIf(types.SideTarget)
	snap := s.store.Snapshot()

	completer, profile, err := s.completer()
	if err != nil {
		slog.Error("translate", "error", err)
		s.alert(MsgTranslateFailed)
		return nil
	}

	text, err := s.translator.TranslateText(s.ctx, completer, profile,
		snap.SourceText, lang.DisplayName(snap.SourceLang), lang.DisplayName(snap.TargetLang))
	if err != nil {
		slog.Error("translate", "source", snap.SourceLang, "target", snap.TargetLang, "error", err)
		s.alert(MsgTranslateFailed)
		return nil
	}

	s.store.SetTargetText(text)
	return nil
}

// TranslateWithLLM translates arbitrary text using the active profile.
func (s *Service) TranslateWithLLM(req types.TranslateRequest) (types.TranslateResult, error) {
	completer, profile, err := s.completer()
	if err != nil {
		return types.TranslateResult{}, err
	}
	return s.translator.Translate(s.ctx, completer, profile, req)
}

// DetectLanguage detects the language of the given text.
func (s *Service) DetectLanguage(text string) types.DetectResult {
	code, name := langdetect.Detect(text)

	target := "en"
	if code != langdetect.Auto && s.cfg.DefaultLanguages != nil {
		if t, ok := s.cfg.DefaultLanguages[code]; ok {
			target = t
		}
	}

	return types.DetectResult{
		Code:          code,
		Name:          name,
		DefaultTarget: target,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Extraction
// ─────────────────────────────────────────────────────────────────────────────

// ExtractFile extracts text from an uploaded file into the source buffer.
func (s *Service) ExtractFile(name, mimeType string, data []byte) error {
	return s.extractFile(extract.FromBytes(name, mimeType, data))
}

// ExtractFilePath extracts text from a file on disk into the source buffer.
func (s *Service) ExtractFilePath(path string) error {
	f, err := extract.FromPath(path)
	if err != nil {
		slog.Error("open file", "path", path, "error", err)
		s.alert(MsgProcessFailed)
		return nil
	}
	return s.extractFile(f)
}

func (s *Service) extractFile(f extract.File) error {
	if f.Size() > extract.MaxFileSize {
		s.alert(MsgFileTooLarge)
		return nil
	}
	if err := s.store.BeginOperation(fmt.Sprintf("Processing %s...", f.Name())); err != nil {
		return err
	}
	defer s.store.EndOperation()

	s.capture.AbortIf(types.SideSource)

	text, err := s.extractor.FromFile(s.ctx, f, s.store.Snapshot().SourceLang)
	if err != nil {
		slog.Error("extract file", "name", f.Name(), "error", err)
		s.alert(fileAlert(err))
		return nil
	}

	s.store.SetSourceText(text)
	return nil
}

func fileAlert(err error) string {
	switch {
	case errors.Is(err, extract.ErrFileTooLarge):
		return MsgFileTooLarge
	case errors.Is(err, extract.ErrLegacyFormat):
		return MsgLegacyDoc
	case errors.Is(err, extract.ErrInvalidDocx):
		return MsgInvalidDocx
	default:
		return MsgProcessFailed
	}
}

// ExtractURL extracts the main content of a web page into the source buffer.
// A blank URL is ignored.
func (s *Service) ExtractURL(url string) error {
	if strings.TrimSpace(url) == "" {
		return nil
	}
	if err := s.store.BeginOperation(StatusExtractingURL); err != nil {
		return err
	}
	defer s.store.EndOperation()

	s.capture.AbortIf(types.SideSource)

	text, err := s.extractor.FromURL(s.ctx, url)
	if err != nil {
		slog.Error("extract url", "url", url, "error", err)
		s.alert(MsgURLFailed)
		return nil
	}

	s.store.SetSourceText(text)
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Voice Input
// ─────────────────────────────────────────────────────────────────────────────

// StartCapture listens for one utterance in the language of side and
// appends it to that side's buffer.
func (s *Service) StartCapture(side types.Side) error {
	code := s.store.Snapshot().Lang(side)
	err := s.capture.Start(s.ctx, code, side)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNoRecognizer):
		s.alert(MsgNoRecognizer)
		return nil
	case errors.Is(err, session.ErrInvalidSide), errors.Is(err, session.ErrBusy):
		return err
	default:
		slog.Warn("start capture", "side", side, "error", err)
		return nil
	}
}

// StopCapture aborts the capture in flight.
func (s *Service) StopCapture() {
	s.capture.Stop()
}

// SubmitCaptureAudio delivers the clip recorded for capture id.
func (s *Service) SubmitCaptureAudio(id string, audio []byte, mimeType string) error {
	return s.bridge.Submit(id, audio, mimeType)
}

// SubmitCapturePCM delivers raw mono samples recorded for capture id.
func (s *Service) SubmitCapturePCM(id string, samples []float32, sampleRate int) error {
	return s.bridge.SubmitPCM(id, samples, sampleRate)
}

// FailCapture reports that recording capture id failed.
func (s *Service) FailCapture(id, reason string) error {
	return s.bridge.Fail(id, reason)
}

// ─────────────────────────────────────────────────────────────────────────────
// Playback
// ─────────────────────────────────────────────────────────────────────────────

// TogglePlayback plays, pauses, or resumes reading side aloud.
func (s *Service) TogglePlayback(side types.Side) error {
	snap := s.store.Snapshot()
	return s.playback.Toggle(snap.Text(side), snap.Lang(side), side)
}

// StopPlayback stops reading aloud.
func (s *Service) StopPlayback() {
	s.playback.Stop()
}

// GetPlayback returns the playback state.
func (s *Service) GetPlayback() types.PlaybackState {
	return s.playback.Snapshot()
}

// StopAll stops playback and capture.
func (s *Service) StopAll() {
	s.playback.Stop()
	s.capture.Stop()
}

// ─────────────────────────────────────────────────────────────────────────────
// Window
// ─────────────────────────────────────────────────────────────────────────────

// ShowWindow brings the main window to the front.
func (s *Service) ShowWindow() {
	if s.window != nil {
		s.window.Show()
		s.window.Focus()
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// API Credential Management
// ─────────────────────────────────────────────────────────────────────────────

// GetCredentials returns all API credentials.
func (s *Service) GetCredentials() []types.APICredential {
	return s.cfg.GetCredentials()
}

// AddCredential adds a new API credential.
func (s *Service) AddCredential(cred types.APICredential) error {
	return s.cfg.AddCredential(cred)
}

// UpdateCredential updates an existing credential.
func (s *Service) UpdateCredential(id string, cred types.APICredential) error {
	if err := s.cfg.UpdateCredential(id, cred); err != nil {
		return err
	}
	s.bridge.SetTranscriber(s.newTranscriber())
	return nil
}

// RemoveCredential removes a credential by ID.
func (s *Service) RemoveCredential(id string) error {
	return s.cfg.RemoveCredential(id)
}

// ─────────────────────────────────────────────────────────────────────────────
// Translation Profile Management
// ─────────────────────────────────────────────────────────────────────────────

// GetTranslationProfiles returns all translation profiles.
func (s *Service) GetTranslationProfiles() []types.TranslationProfile {
	return s.cfg.GetTranslationProfiles()
}

// GetActiveTranslationProfile returns the currently active translation profile.
func (s *Service) GetActiveTranslationProfile() *types.TranslationProfile {
	return s.cfg.GetActiveTranslationProfile()
}

// AddTranslationProfile adds a new translation profile.
func (s *Service) AddTranslationProfile(profile types.TranslationProfile) error {
	return s.cfg.AddTranslationProfile(profile)
}

// UpdateTranslationProfile updates an existing translation profile.
func (s *Service) UpdateTranslationProfile(id string, profile types.TranslationProfile) error {
	return s.cfg.UpdateTranslationProfile(id, profile)
}

// RemoveTranslationProfile removes a translation profile by ID.
func (s *Service) RemoveTranslationProfile(id string) error {
	return s.cfg.RemoveTranslationProfile(id)
}

// SetTranslationProfileActive sets a translation profile as active.
func (s *Service) SetTranslationProfileActive(id string) error {
	return s.cfg.SetTranslationProfileActive(id)
}

// ─────────────────────────────────────────────────────────────────────────────
// Speech & Extraction Configuration
// ─────────────────────────────────────────────────────────────────────────────

// GetSpeechConfig returns the speech service configuration.
func (s *Service) GetSpeechConfig() *types.SpeechConfig {
	return s.cfg.GetSpeechConfig()
}

// SetSpeechConfig sets the speech service configuration.
func (s *Service) SetSpeechConfig(cfg types.SpeechConfig) error {
	if err := s.cfg.SetSpeechConfig(cfg); err != nil {
		return err
	}
	s.bridge.SetTranscriber(s.newTranscriber())
	return nil
}

// GetExtractionConfig returns the file and URL extraction configuration.
func (s *Service) GetExtractionConfig() *types.ExtractionConfig {
	return s.cfg.GetExtractionConfig()
}

// SetExtractionConfig sets the file and URL extraction configuration.
func (s *Service) SetExtractionConfig(cfg types.ExtractionConfig) error {
	return s.cfg.SetExtractionConfig(cfg)
}

// ─────────────────────────────────────────────────────────────────────────────
// Language Settings
// ─────────────────────────────────────────────────────────────────────────────

// GetDefaultLanguages returns the default language mappings.
func (s *Service) GetDefaultLanguages() map[string]string {
	return s.cfg.DefaultLanguages
}

// SetDefaultLanguage sets the default target language for a source.
func (s *Service) SetDefaultLanguage(src, dst string) error {
	if s.cfg.DefaultLanguages == nil {
		s.cfg.DefaultLanguages = make(map[string]string)
	}
	s.cfg.DefaultLanguages[src] = dst
	return s.cfg.Save()
}
