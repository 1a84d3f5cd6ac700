package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mealpoint/kiosk-api/internal/ai"
	"github.com/mealpoint/kiosk-api/internal/logger"
	"github.com/mealpoint/kiosk-api/internal/metrics"
	"github.com/mealpoint/kiosk-api/internal/models"
	"go.uber.org/zap"
)

// VoiceState is the resolver's position in the voice-ordering state machine.
type VoiceState string

// Resolver states. AwaitingDisambiguation and AwaitingConfirmation are
// mutually exclusive and block new classifier calls until resolved.
const (
	StateIdle                   VoiceState = "idle"
	StateListening              VoiceState = "listening"
	StateAnalyzing              VoiceState = "analyzing"
	StateAwaitingDisambiguation VoiceState = "awaiting_disambiguation"
	StateAwaitingConfirmation   VoiceState = "awaiting_confirmation"
)

// quietWindow is how long after a terminal response the transcript buffer
// and processed-command memory survive before listening resumes fresh.
const quietWindow = 5 * time.Second

// Fixed word sets for the yes/no confirmation flow.
var (
	affirmativeWords = []string{"예", "네", "응", "맞아", "그래"}
	negativeWords    = []string{"아니오", "아니", "아냐", "노", "아니요"}
)

// Speaker is the speech output collaborator. Speaking while an utterance is
// in flight cancels the prior one; Stop cancels outright.
type Speaker interface {
	Speak(text string)
	Stop()
}

// VoiceResponse is what the resolver hands back for every processed
// transcript: the spoken/displayed text plus enough state for a UI.
type VoiceResponse struct {
	Text       string     `json:"text"`
	State      VoiceState `json:"state"`
	ShowHelp   bool       `json:"show_help,omitempty"`
	Candidates []string   `json:"candidates,omitempty"`
}

// pendingConfirmation remembers a single low-confidence guess awaiting a
// yes/no answer.
type pendingConfirmation struct {
	entity             string
	quantity           int
	originalTranscript string
}

// selectionCandidates remembers an ambiguous entity awaiting an explicit
// pick from a candidate list.
type selectionCandidates struct {
	candidates         []models.MenuItem
	quantity           int
	originalTranscript string
}

// VoiceResolver is the voice-ordering state machine. It consumes transcripts,
// drives the classifier, resolves ambiguity and low confidence, and emits
// validated mutations through the executor. All entry points serialize on one
// mutex; the resolver is the cart's single writer during voice mode.
type VoiceResolver struct {
	Catalog    *CatalogService
	Classifier ai.Classifier
	Executor   *CommandExecutor

	speaker Speaker
	onState func(VoiceState)

	mu          sync.Mutex
	state       VoiceState
	processed   map[string]struct{}
	pending     *pendingConfirmation
	candidates  *selectionCandidates
	quietTimer  *time.Timer
	quietWindow time.Duration
	fallback    *ai.KeywordClassifier
	generation  uint64
}

// NewVoiceResolver creates a resolver in the Idle state.
func NewVoiceResolver(catalog *CatalogService, classifier ai.Classifier, executor *CommandExecutor, speaker Speaker) *VoiceResolver {
	return &VoiceResolver{
		Catalog:     catalog,
		Classifier:  classifier,
		Executor:    executor,
		speaker:     speaker,
		state:       StateIdle,
		processed:   make(map[string]struct{}),
		quietWindow: quietWindow,
		fallback:    ai.NewKeywordClassifier(),
	}
}

// OnStateChange registers a listener notified on every state transition.
func (r *VoiceResolver) OnStateChange(fn func(VoiceState)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onState = fn
}

// State returns the current resolver state.
func (r *VoiceResolver) State() VoiceState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *VoiceResolver) setStateLocked(state VoiceState) {
	if r.state == state {
		return
	}
	r.state = state
	if r.onState != nil {
		r.onState(state)
	}
}

// Start activates voice mode and returns the greeting.
func (r *VoiceResolver) Start() *VoiceResponse {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cancelQuietTimerLocked()
	r.processed = make(map[string]struct{})
	r.pending = nil
	r.candidates = nil
	r.setStateLocked(StateListening)

	text := "음성 주문 모드가 활성화되었습니다. 원하는 메뉴를 말씀해주세요."
	r.speakLocked(text)
	return &VoiceResponse{Text: text, State: r.state}
}

// Stop forces Idle, cancels pending spoken output, and abandons any pending
// disambiguation or confirmation. An in-flight classifier call may still
// complete, but its result is discarded on arrival.
func (r *VoiceResolver) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.generation++
	r.cancelQuietTimerLocked()
	r.processed = make(map[string]struct{})
	r.pending = nil
	r.candidates = nil
	r.setStateLocked(StateIdle)

	if r.speaker != nil {
		r.speaker.Stop()
	}
}

// HandleTranscript processes one transcript through the state machine. It
// returns nil when the transcript is empty, a duplicate within the live
// window, or voice mode is off.
func (r *VoiceResolver) HandleTranscript(ctx context.Context, transcript string) *VoiceResponse {
	trimmed := strings.TrimSpace(transcript)
	if trimmed == "" {
		return nil
	}

	r.mu.Lock()

	if r.state == StateIdle {
		r.mu.Unlock()
		return nil
	}
	if r.state == StateAnalyzing {
		// Re-entrancy guard: the capture layer buffers anything that
		// arrives while a cycle is in flight.
		r.mu.Unlock()
		return nil
	}
	if _, seen := r.processed[trimmed]; seen {
		r.mu.Unlock()
		return nil
	}
	r.processed[trimmed] = struct{}{}

	if r.candidates != nil {
		resp := r.handleDisambiguationLocked(trimmed)
		r.mu.Unlock()
		return resp
	}
	if r.pending != nil {
		resp := r.handleConfirmationLocked(trimmed)
		r.mu.Unlock()
		return resp
	}

	r.cancelQuietTimerLocked()
	r.setStateLocked(StateAnalyzing)
	generation := r.generation
	r.mu.Unlock()

	available, err := r.Catalog.ListAvailableMenuItems()
	if err != nil {
		logger.Get().Error("failed to load available menu", zap.Error(err))
		available = nil
	}

	command, err := r.Classifier.Classify(ctx, trimmed, available)
	if err != nil {
		// The classifier contract says failures degrade internally, but a
		// scripted classifier may still error; treat it as no result.
		logger.Get().Warn("classifier error treated as no result", zap.Error(err))
		command = nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.generation != generation || r.state == StateIdle {
		// Voice mode was stopped while the classifier was in flight.
		return nil
	}

	return r.interpretLocked(ctx, trimmed, command, available, true)
}

// interpretLocked applies the classifier-result priority rules. allowFallback
// guards the single keyword-fallback attempt per transcript.
func (r *VoiceResolver) interpretLocked(ctx context.Context, transcript string, command *ai.VoiceCommand, available []models.MenuItem, allowFallback bool) *VoiceResponse {
	if command == nil {
		if allowFallback {
			metrics.ClassifierFallbackTotal.Inc()
			fallbackCommand, _ := r.fallback.Classify(ctx, transcript, available)
			if fallbackCommand != nil {
				return r.interpretLocked(ctx, transcript, fallbackCommand, available, false)
			}
		}
		if resp := r.tryFamilyRecoveryLocked(transcript, 1); resp != nil {
			return resp
		}
		return r.pleaseRepeatLocked()
	}

	if command.Intent == ai.IntentAddItem && len(command.Items) == 0 && command.Entity != "" {
		exact := r.exactMenuMatch(command.Entity, available)
		if exact == nil {
			return r.resolveAmbiguousEntityLocked(transcript, command)
		}
		if command.Confidence > 0 && command.Confidence < ai.ConfidenceThreshold {
			return r.enterConfirmationLocked(transcript, command.Entity, quantityOrOne(command.Quantity))
		}
	}

	return r.executeLocked(command)
}

func quantityOrOne(q int) int {
	if q <= 0 {
		return 1
	}
	return q
}

func (r *VoiceResolver) exactMenuMatch(entity string, available []models.MenuItem) *models.MenuItem {
	norm := normalizeName(entity)
	for i := range available {
		if normalizeName(available[i].Name) == norm || (available[i].NameEn != "" && normalizeName(available[i].NameEn) == norm) {
			return &available[i]
		}
	}
	return nil
}

// resolveAmbiguousEntityLocked handles a single-entity add whose entity is
// not an exact menu name: one partial match executes, two or more enter
// disambiguation, zero falls back to the category-family recovery.
func (r *VoiceResolver) resolveAmbiguousEntityLocked(transcript string, command *ai.VoiceCommand) *VoiceResponse {
	quantity := quantityOrOne(command.Quantity)

	partials, err := r.Catalog.PartialMatches(command.Entity)
	if err != nil {
		logger.Get().Error("partial match lookup failed", zap.Error(err))
		return r.pleaseRepeatLocked()
	}

	switch len(partials) {
	case 0:
		if resp := r.tryFamilyRecoveryLocked(transcript, quantity); resp != nil {
			return resp
		}
		return r.pleaseRepeatLocked()

	case 1:
		resolved := &ai.VoiceCommand{
			Intent:     ai.IntentAddItem,
			Entity:     partials[0].Name,
			Quantity:   quantity,
			Confidence: 1.0,
		}
		return r.executeLocked(resolved)

	default:
		names := menuNames(partials)
		r.candidates = &selectionCandidates{
			candidates:         partials,
			quantity:           quantity,
			originalTranscript: transcript,
		}
		r.setStateLocked(StateAwaitingDisambiguation)
		metrics.DisambiguationsTotal.Inc()

		text := fmt.Sprintf("어떤 %s를 주문하시겠습니까? %s 중에서 선택해주세요.", command.Entity, strings.Join(names, ", "))
		r.speakLocked(text)
		return &VoiceResponse{Text: text, State: r.state, Candidates: names}
	}
}

// tryFamilyRecoveryLocked enters disambiguation over a category family when
// the transcript contains one of its synonym tokens and the family has
// available items. Returns nil when no family applies.
func (r *VoiceResolver) tryFamilyRecoveryLocked(transcript string, quantity int) *VoiceResponse {
	token, family, err := r.Catalog.FamilyCandidates(transcript)
	if err != nil {
		logger.Get().Error("family candidate lookup failed", zap.Error(err))
		return nil
	}
	if len(family) == 0 {
		return nil
	}

	names := menuNames(family)
	r.candidates = &selectionCandidates{
		candidates:         family,
		quantity:           quantity,
		originalTranscript: transcript,
	}
	r.setStateLocked(StateAwaitingDisambiguation)
	metrics.DisambiguationsTotal.Inc()

	text := fmt.Sprintf("%s 메뉴로는 %s가 있습니다. 어떤 메뉴를 주문하시겠습니까?", token, strings.Join(names, ", "))
	r.speakLocked(text)
	return &VoiceResponse{Text: text, State: r.state, Candidates: names}
}

func (r *VoiceResolver) enterConfirmationLocked(transcript, entity string, quantity int) *VoiceResponse {
	r.pending = &pendingConfirmation{
		entity:             entity,
		quantity:           quantity,
		originalTranscript: transcript,
	}
	r.setStateLocked(StateAwaitingConfirmation)
	metrics.ConfirmationsTotal.Inc()

	text := fmt.Sprintf("혹시 \"%s\"를 %d개 주문하시겠습니까? 예 또는 아니오로 답해주세요.", entity, quantity)
	r.speakLocked(text)
	return &VoiceResponse{Text: text, State: r.state}
}

// handleDisambiguationLocked matches a follow-up transcript against the
// candidate set. A match executes with the remembered quantity; no match
// re-prompts with the same list.
func (r *VoiceResolver) handleDisambiguationLocked(transcript string) *VoiceResponse {
	normTranscript := normalizeName(transcript)

	var matched *models.MenuItem
	for i := range r.candidates.candidates {
		item := &r.candidates.candidates[i]
		if strings.Contains(normTranscript, normalizeName(item.Name)) {
			matched = item
			break
		}
		if item.NameEn != "" && strings.Contains(normTranscript, normalizeName(item.NameEn)) {
			matched = item
			break
		}
	}

	if matched == nil {
		names := menuNames(r.candidates.candidates)
		text := fmt.Sprintf("아래 메뉴 중에서 말씀해 주세요: %s", strings.Join(names, ", "))
		r.speakLocked(text)
		return &VoiceResponse{Text: text, State: r.state, Candidates: names}
	}

	quantity := r.candidates.quantity
	r.candidates = nil
	return r.executeLocked(&ai.VoiceCommand{
		Intent:     ai.IntentAddItem,
		Entity:     matched.Name,
		Quantity:   quantity,
		Confidence: 1.0,
	})
}

// handleConfirmationLocked resolves a yes/no answer. Affirmative re-issues
// the remembered add; negative or unmatched clears the confirmation and asks
// for a clean restatement. Listening resumes either way.
func (r *VoiceResolver) handleConfirmationLocked(transcript string) *VoiceResponse {
	if containsAnyWord(transcript, affirmativeWords) {
		pending := r.pending
		r.pending = nil
		return r.executeLocked(&ai.VoiceCommand{
			Intent:     ai.IntentAddItem,
			Entity:     pending.entity,
			Quantity:   pending.quantity,
			Confidence: 1.0,
		})
	}

	r.pending = nil
	text := "다시 말씀해주세요."
	r.speakLocked(text)
	r.finishCycleLocked()
	return &VoiceResponse{Text: text, State: r.state}
}

func containsAnyWord(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// executeLocked hands a fully-resolved command to the executor and closes
// out the cycle.
func (r *VoiceResolver) executeLocked(command *ai.VoiceCommand) *VoiceResponse {
	result := r.Executor.Execute(command)
	r.speakLocked(result.Text)
	r.finishCycleLocked()
	return &VoiceResponse{
		Text:     result.Text,
		State:    r.state,
		ShowHelp: result.ShowHelp,
	}
}

func (r *VoiceResolver) pleaseRepeatLocked() *VoiceResponse {
	metrics.UnresolvedUtterancesTotal.Inc()
	text := "다시 말씀해주세요."
	r.speakLocked(text)
	r.finishCycleLocked()
	return &VoiceResponse{Text: text, State: r.state}
}

// finishCycleLocked returns to Listening and arms the quiet-window timer
// that clears the transcript dedup memory. Pending disambiguation or
// confirmation suppresses the timer; those states keep their window open.
func (r *VoiceResolver) finishCycleLocked() {
	r.setStateLocked(StateListening)
	if r.pending != nil || r.candidates != nil {
		return
	}

	r.cancelQuietTimerLocked()
	generation := r.generation
	r.quietTimer = time.AfterFunc(r.quietWindow, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.generation != generation || r.state == StateIdle {
			return
		}
		if r.pending != nil || r.candidates != nil {
			return
		}
		r.processed = make(map[string]struct{})
		r.setStateLocked(StateListening)
	})
}

func (r *VoiceResolver) cancelQuietTimerLocked() {
	if r.quietTimer != nil {
		r.quietTimer.Stop()
		r.quietTimer = nil
	}
}

func (r *VoiceResolver) speakLocked(text string) {
	if r.speaker != nil && text != "" {
		r.speaker.Speak(text)
	}
}

func menuNames(items []models.MenuItem) []string {
	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, item.Name)
	}
	return names
}
