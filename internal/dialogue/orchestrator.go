// Package dialogue implements the mood interview: a turn-budgeted conversation
// that asks one question at a time and degrades generation failures into
// fixed questions instead of errors.
package dialogue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"nuance/internal/gateway"
	"nuance/internal/logger"
	"nuance/internal/session"
	"nuance/pkg/nuancetypes"
)

// Options configures an Orchestrator.
type Options struct {
	MaxTurns          int
	Retries           int
	GenerationTimeout time.Duration
	EndPhrases        []string
	EndSignals        []string
}

// DefaultOptions returns the stock interview settings.
func DefaultOptions() Options {
	return Options{
		MaxTurns:          5,
		Retries:           1,
		GenerationTimeout: 60 * time.Second,
		EndPhrases:        []string{"结束", "够了", "generate", "可以了", "stop", "finish", "生成文章"},
		EndSignals:        []string{"generate", "ready to create", "thank you for sharing"},
	}
}

// Orchestrator drives interview sessions stored in a session.Store.
// It never returns Go errors; failures are encoded in the result values.
type Orchestrator struct {
	store   *session.Store
	gen     nuancetypes.Generator
	opts    Options
	userEnd *PhraseMatcher
	aiEnd   *PhraseMatcher
	log     *log.Logger
}

// New creates an orchestrator. Zero MaxTurns and negative Retries are replaced by defaults.
func New(store *session.Store, gen nuancetypes.Generator, opts Options) *Orchestrator {
	defaults := DefaultOptions()
	if opts.MaxTurns <= 0 {
		opts.MaxTurns = defaults.MaxTurns
	}
	if opts.Retries < 0 {
		opts.Retries = defaults.Retries
	}
	if opts.EndPhrases == nil {
		opts.EndPhrases = defaults.EndPhrases
	}
	if opts.EndSignals == nil {
		opts.EndSignals = defaults.EndSignals
	}

	return &Orchestrator{
		store:   store,
		gen:     gen,
		opts:    opts,
		userEnd: NewPhraseMatcher(opts.EndPhrases),
		aiEnd:   NewPhraseMatcher(opts.EndSignals),
		log:     logger.NewStyledLogger("Dialogue"),
	}
}

// MaxTurns returns the user turn budget.
func (o *Orchestrator) MaxTurns() int {
	return o.opts.MaxTurns
}

// StartSession opens a session for id and asks the first question.
func (o *Orchestrator) StartSession(ctx context.Context, id, mood string) nuancetypes.StartResult {
	var result nuancetypes.StartResult

	err := o.store.Start(id, func(sess *session.Session) {
		sess.Append(nuancetypes.SpeakerSystem, SeedText(mood))
		derived := ExtractMood(id, sess.Turns())
		result = nuancetypes.StartResult{SessionID: id, TurnsLeft: o.opts.MaxTurns, Active: true}
		defer func() {
			if r := recover(); r != nil {
				o.log.Error("Recovered from opening question failure", "session", id, "panic", r)
				text := OpeningQuestion(derived)
				sess.Append(nuancetypes.SpeakerAssistant, text)
				result.Response = text
				result.Error = fmt.Sprint(r)
			}
		}()

		out := gateway.Attempt(ctx, o.gen, map[string]string{
			"mood":                 derived,
			"conversation_history": firstConversation,
		}, o.opts.GenerationTimeout)

		text := out.Text
		if out.Kind != gateway.OutcomeOK {
			o.log.Warn("Opening question generation failed, using fallback", "session", id, "kind", out.Kind, "error", out.Err)
			text = OpeningQuestion(derived)
			result.Error = errorDetail(out)
		}
		sess.Append(nuancetypes.SpeakerAssistant, text)

		result.Response = text
		o.log.Info("Session started", "session", id, "mood", derived)
	})
	if errors.Is(err, session.ErrExists) {
		return nuancetypes.StartResult{
			SessionID: id,
			Code:      nuancetypes.CodeSessionExists,
			Error:     "Session already exists",
		}
	}
	return result
}

// UserReply records the user's answer and returns the next question or a closing line.
func (o *Orchestrator) UserReply(ctx context.Context, id, input string) nuancetypes.ReplyResult {
	result := invalidResult()

	err := o.store.Update(id, func(sess *session.Session) {
		if !sess.Active() {
			return
		}
		result = o.reply(ctx, sess, input)
	})
	if err != nil {
		o.log.Debug("Reply to unknown session", "session", id)
	}
	return result
}

func (o *Orchestrator) reply(ctx context.Context, sess *session.Session, input string) (result nuancetypes.ReplyResult) {
	id := sess.ID()

	if phrase, ok := o.userEnd.Match(input); ok {
		sess.End(nuancetypes.EndedByUser)
		o.log.Info("Session ended by user", "session", id, "phrase", phrase)
		return ended(ClosingByUser, nuancetypes.EndedByUser)
	}
	if sess.UserTurns() >= o.opts.MaxTurns {
		sess.End(nuancetypes.EndedByMaxTurns)
		o.log.Info("Session reached turn limit", "session", id, "max_turns", o.opts.MaxTurns)
		return ended(ClosingByMaxTurns, nuancetypes.EndedByMaxTurns)
	}

	mood := ExtractMood(id, sess.Turns())
	defer func() {
		if r := recover(); r != nil {
			o.log.Error("Recovered from reply failure", "session", id, "panic", r)
			result = nuancetypes.ReplyResult{
				Response:  recoveryQuestion(mood),
				Active:    true,
				TurnsLeft: o.turnsLeft(sess),
				Error:     fmt.Sprint(r),
			}
		}
	}()

	sess.Append(nuancetypes.SpeakerUser, strings.TrimSpace(input))

	out := o.generate(ctx, id, map[string]string{
		"mood":                 mood,
		"conversation_history": FormatHistory(sess.Turns()),
	})
	text := out.Text
	if out.Kind != gateway.OutcomeOK {
		o.log.Warn("Question generation failed, using fallback", "session", id, "kind", out.Kind, "error", out.Err)
		text = FallbackQuestion(mood)
		result.Error = errorDetail(out)
	}
	sess.Append(nuancetypes.SpeakerAssistant, text)

	if signal, ok := o.aiEnd.Match(text); ok {
		sess.End(nuancetypes.EndedByAI)
		o.log.Info("Session ended by assistant", "session", id, "signal", signal)
		r := ended(text, nuancetypes.EndedByAI)
		r.Error = result.Error
		return r
	}

	result.Response = text
	result.Active = true
	result.TurnsLeft = o.turnsLeft(sess)
	return result
}

// generate makes up to Retries+1 sequential attempts.
func (o *Orchestrator) generate(ctx context.Context, id string, vars map[string]string) gateway.Outcome {
	var out gateway.Outcome
	for attempt := 1; attempt <= o.opts.Retries+1; attempt++ {
		out = gateway.Attempt(ctx, o.gen, vars, o.opts.GenerationTimeout)
		if out.Kind == gateway.OutcomeOK || !out.Retryable() {
			return out
		}
		o.log.Warn("Generation attempt failed", "session", id, "attempt", attempt, "kind", out.Kind, "error", out.Err)
	}
	return out
}

func (o *Orchestrator) turnsLeft(sess *session.Session) int {
	return max(0, o.opts.MaxTurns-sess.UserTurns())
}

// GetHistory returns the session's turns including the seed, or an empty slice.
func (o *Orchestrator) GetHistory(id string) []nuancetypes.HistoryEntry {
	turns, ok := o.store.History(id)
	if !ok {
		return []nuancetypes.HistoryEntry{}
	}
	return ToHistoryEntries(turns)
}

// Mood returns the mood recorded for id, or DefaultMood.
func (o *Orchestrator) Mood(id string) string {
	turns, _ := o.store.History(id)
	return ExtractMood(id, turns)
}

// EndedBy returns why id ended, or "" while it is active or unknown.
func (o *Orchestrator) EndedBy(id string) nuancetypes.EndReason {
	reason, _ := o.store.EndReason(id)
	return reason
}

// CleanupSession removes id. It is a no-op for unknown ids.
func (o *Orchestrator) CleanupSession(id string) {
	o.store.Delete(id)
	o.log.Debug("Session cleaned up", "session", id)
}

func ended(text string, reason nuancetypes.EndReason) nuancetypes.ReplyResult {
	return nuancetypes.ReplyResult{
		Response:  text,
		Active:    false,
		TurnsLeft: 0,
		EndedBy:   reason,
	}
}

func invalidResult() nuancetypes.ReplyResult {
	return nuancetypes.ReplyResult{
		Response: InvalidSessionText,
		Code:     nuancetypes.CodeSessionInvalid,
		Error:    "Invalid or inactive session",
	}
}

func errorDetail(out gateway.Outcome) string {
	if out.Err == nil {
		return out.Kind.String()
	}
	return fmt.Sprintf("generation %s: %v", out.Kind, out.Err)
}
