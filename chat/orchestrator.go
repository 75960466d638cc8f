// Package chat wires the conversation pipeline: classify the question,
// resolve parameters and granularity, pick and run operations, then write
// the answer. One suspended clarification at a time; the session snapshot
// carries everything needed to resume it.
package chat

import (
	"context"
	"encoding/json"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"

	"github.com/adsight/adsight/ai/llm"
	"github.com/adsight/adsight/ai/metrics"
	"github.com/adsight/adsight/chat/agents"
	"github.com/adsight/adsight/chat/executor"
	"github.com/adsight/adsight/chat/granularity"
	"github.com/adsight/adsight/chat/registry"
	"github.com/adsight/adsight/chat/selector"
	"github.com/adsight/adsight/chat/state"
	"github.com/adsight/adsight/chat/synthesis"
	"github.com/adsight/adsight/store"
)

// turnTimeout bounds one full pipeline pass including every model call.
const turnTimeout = 3 * time.Minute

// apologyText is the fatal-path answer. The session snapshot is left as it
// was so the conversation survives the crash.
const apologyText = "Sorry, something went wrong while working on that. Your session is still here; please try again."

// Request is one user message addressed to a domain.
type Request struct {
	Message   string
	Domain    state.Domain
	SessionID string
	UserEmail string
	AuthToken string
	Context   agents.ResolvedContext
}

// Response is the outcome of a turn: either an answer or a clarification,
// never both.
type Response struct {
	SessionID           string
	AnswerText          string
	ClarificationPrompt string
	CandidateOptions    []state.Candidate
	OperationsInvoked   []string
	Visualization       *state.Visualization
	IsComplete          bool
}

// Orchestrator runs the conversation pipeline over shared stage services.
type Orchestrator struct {
	registry  *registry.Registry
	intent    *agents.IntentClassifier
	chitchat  *agents.ChitchatResponder
	window    *agents.TimeWindowAgent
	levels    *granularity.Controller
	selector  *selector.Selector
	executor  *executor.Executor
	analyzer  *synthesis.Analyzer
	formatter *synthesis.Formatter

	store    *store.Store
	exporter *metrics.PrometheusExporter

	// Turns on the same session run one at a time.
	mu    sync.Mutex
	locks map[string]*semaphore.Weighted
}

// Config collects the orchestrator's collaborators.
type Config struct {
	MainLLM       llm.Service
	ClassifierLLM llm.Service
	Registry      *registry.Registry
	Executor      *executor.Executor
	Store         *store.Store
	Exporter      *metrics.PrometheusExporter
}

// NewOrchestrator builds the pipeline. The classifier model handles the
// cheap high-volume calls; the main model does analysis and formatting.
func NewOrchestrator(cfg Config) *Orchestrator {
	return &Orchestrator{
		registry:  cfg.Registry,
		intent:    agents.NewIntentClassifier(cfg.ClassifierLLM),
		chitchat:  agents.NewChitchatResponder(cfg.MainLLM),
		window:    agents.NewTimeWindowAgent(cfg.ClassifierLLM),
		levels:    granularity.New(cfg.ClassifierLLM, cfg.Executor),
		selector:  selector.New(cfg.ClassifierLLM, cfg.Registry),
		executor:  cfg.Executor,
		analyzer:  synthesis.NewAnalyzer(cfg.MainLLM),
		formatter: synthesis.NewFormatter(cfg.MainLLM),
		store:     cfg.Store,
		exporter:  cfg.Exporter,
		locks:     make(map[string]*semaphore.Weighted),
	}
}

// DomainInfo lists every domain's capabilities.
func (o *Orchestrator) DomainInfo() []registry.DomainInfo {
	return o.registry.AllInfo()
}

// HandleMessage runs one turn. The returned error covers request problems
// only; pipeline failures degrade into the response instead.
func (o *Orchestrator) HandleMessage(ctx context.Context, req Request) (resp *Response, err error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, errors.New("message required")
	}
	if !req.Domain.Valid() {
		return nil, errors.Errorf("unknown domain: %s", req.Domain)
	}

	uid := req.SessionID
	if uid == "" {
		uid = shortuuid.New()
	}

	ctx, cancel := context.WithTimeout(ctx, turnTimeout)
	defer cancel()

	release, err := o.lockSession(ctx, uid)
	if err != nil {
		return nil, errors.Wrap(err, "acquire session")
	}
	defer release()

	if o.exporter != nil {
		o.exporter.TurnStarted()
		started := time.Now()
		defer func() {
			o.exporter.TurnFinished()
			o.exporter.ObserveTurn(string(req.Domain), outcomeLabel(resp, err), time.Since(started))
		}()
	}

	session, st := o.loadTurn(ctx, uid, req)

	defer func() {
		if r := recover(); r != nil {
			slog.Error("chat: turn panicked", "session", uid, "panic", r, "stack", string(debug.Stack()))
			resp, err = &Response{SessionID: uid, AnswerText: apologyText}, nil
		}
	}()

	resp = o.runTurn(ctx, st)
	o.saveTurn(ctx, session, st, req, resp)
	return resp, nil
}

// runTurn advances the pipeline until it answers or suspends.
func (o *Orchestrator) runTurn(ctx context.Context, st *state.TurnState) *Response {
	// A reply to an entity selection short-circuits classification.
	if pending := granularity.PendingSelectionLevel(st); pending != state.LevelUnknown {
		if !granularity.ApplySelection(st, st.Question) {
			st.Suspend("Sorry, I couldn't match that to the options. Reply with numbers, names, or \"all\".")
			return o.respond(st)
		}
	} else {
		st.Stage = "classify"
		st.Intent = o.intent.Classify(ctx, st.Question)
		if st.Intent == state.IntentChitchat {
			st.Answer = o.chitchat.Respond(ctx, st.Question, o.registry.Info(st.Domain))
			st.Complete()
			return o.respond(st)
		}
	}

	st.Stage = "account"
	agents.ResolveAccount(st, o.resolvedContext(st))
	if st.NeedsClarification() {
		return o.respond(st)
	}

	st.Stage = "window"
	o.window.Extract(ctx, st)
	if st.NeedsClarification() {
		return o.respond(st)
	}

	if st.Domain == state.DomainMetaAds {
		st.Stage = "granularity"
		switch o.levels.Resolve(ctx, st) {
		case granularity.OutcomeClarify:
			return o.respond(st)
		case granularity.OutcomeEmpty:
			return o.respond(st)
		case granularity.OutcomeFailed:
			st.Answer = synthesis.ErrorSummary(st)
			return o.respond(st)
		}
	}

	st.Stage = "select"
	o.selector.Select(ctx, st)

	st.Stage = "execute"
	executed := len(st.Results)
	o.executor.Execute(ctx, st)

	st.Stage = "synthesize"
	if !anySucceeded(st.Results[executed:]) {
		// Nothing fresh to analyze: answer mechanically from the recorded
		// errors and warnings instead of letting the model gloss over them.
		st.Answer = synthesis.ErrorSummary(st)
		st.Complete()
		return o.respond(st)
	}
	o.analyzer.Analyze(ctx, st)
	o.formatter.Format(ctx, st)

	st.Complete()
	return o.respond(st)
}

// resolvedContext replays the account already bound to the session so a
// resumed turn does not re-ask for it.
func (o *Orchestrator) resolvedContext(st *state.TurnState) agents.ResolvedContext {
	return agents.ResolvedContext{
		AccountID:  st.AccountID,
		PropertyID: st.AccountID,
		CustomerID: st.AccountID,
		PageID:     st.AccountID,
	}
}

func (o *Orchestrator) respond(st *state.TurnState) *Response {
	resp := &Response{
		SessionID:         st.SessionID,
		OperationsInvoked: st.OperationsInvoked,
		IsComplete:        st.IsComplete,
	}
	if st.NeedsClarification() {
		resp.ClarificationPrompt = st.PendingClarification
		resp.CandidateOptions = st.Candidates
		return resp
	}
	resp.AnswerText = st.Answer
	resp.Visualization = st.Visualization
	return resp
}

// loadTurn restores the session's turn state, or starts fresh when there is
// nothing usable to resume.
func (o *Orchestrator) loadTurn(ctx context.Context, uid string, req Request) (*store.ChatSession, *state.TurnState) {
	fresh := &state.TurnState{
		Question:  req.Message,
		Domain:    req.Domain,
		SessionID: uid,
		UserEmail: req.UserEmail,
		AuthToken: req.AuthToken,
	}
	applyContext(fresh, req)

	if o.store == nil || req.SessionID == "" {
		return nil, fresh
	}

	session, err := o.store.GetChatSessionByUID(ctx, uid)
	if err != nil {
		slog.Warn("chat: session lookup failed, starting fresh", "session", uid, "error", err)
		return nil, fresh
	}
	if session == nil || session.Snapshot == "" {
		return session, fresh
	}
	if session.Domain != string(req.Domain) {
		slog.Info("chat: domain changed, starting fresh", "session", uid,
			"was", session.Domain, "now", req.Domain)
		return session, fresh
	}

	st, err := state.Rehydrate([]byte(session.Snapshot), req.Message, req.AuthToken)
	if err != nil {
		slog.Warn("chat: corrupt snapshot, starting fresh", "session", uid, "error", err)
		return session, fresh
	}
	st.SessionID = uid
	if st.UserEmail == "" {
		st.UserEmail = req.UserEmail
	}
	applyContext(st, req)
	return session, st
}

// applyContext binds caller-provided account identifiers without clobbering
// ones the session already holds.
func applyContext(st *state.TurnState, req Request) {
	if st.AccountID != "" {
		return
	}
	agents.ResolveAccount(st, req.Context)
	st.PendingClarification = "" // binding only; clarification is decided later
}

type transcriptEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Ts      int64  `json:"ts"`
}

// saveTurn persists the snapshot and transcript. Persistence failures are
// logged, not surfaced; the user already has the answer.
func (o *Orchestrator) saveTurn(ctx context.Context, session *store.ChatSession, st *state.TurnState, req Request, resp *Response) {
	if o.store == nil {
		return
	}

	raw, err := state.Snapshot(st)
	if err != nil {
		slog.Error("chat: snapshot failed", "session", st.SessionID, "error", err)
		return
	}
	snapshot := string(raw)

	reply := resp.AnswerText
	if reply == "" {
		reply = resp.ClarificationPrompt
	}
	now := time.Now().Unix()

	if session == nil {
		transcript := appendTranscript("[]", req.Message, reply, now)
		_, err = o.store.CreateChatSession(ctx, &store.ChatSession{
			UID:        st.SessionID,
			Domain:     string(st.Domain),
			UserEmail:  req.UserEmail,
			Snapshot:   snapshot,
			Transcript: transcript,
			Active:     true,
			CreatedTs:  now,
			UpdatedTs:  now,
		})
	} else {
		transcript := appendTranscript(session.Transcript, req.Message, reply, now)
		_, err = o.store.UpdateChatSession(ctx, &store.UpdateChatSession{
			ID:         session.ID,
			Snapshot:   &snapshot,
			Transcript: &transcript,
			UpdatedTs:  &now,
		})
	}
	if err != nil {
		slog.Error("chat: session save failed", "session", st.SessionID, "error", err)
	}
}

func appendTranscript(raw, message, reply string, ts int64) string {
	var entries []transcriptEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		entries = nil
	}
	entries = append(entries, transcriptEntry{Role: "user", Content: message, Ts: ts})
	if reply != "" {
		entries = append(entries, transcriptEntry{Role: "assistant", Content: reply, Ts: ts})
	}
	out, err := json.Marshal(entries)
	if err != nil {
		return raw
	}
	return string(out)
}

// lockSession serializes turns per session with a context-aware acquire.
func (o *Orchestrator) lockSession(ctx context.Context, uid string) (func(), error) {
	o.mu.Lock()
	sem, ok := o.locks[uid]
	if !ok {
		sem = semaphore.NewWeighted(1)
		o.locks[uid] = sem
	}
	o.mu.Unlock()

	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return func() { sem.Release(1) }, nil
}

// anySucceeded reports whether at least one of the results carries data.
func anySucceeded(results []state.OperationResult) bool {
	for _, r := range results {
		if r.Success {
			return true
		}
	}
	return false
}

func outcomeLabel(resp *Response, err error) string {
	switch {
	case err != nil:
		return "error"
	case resp == nil:
		return "error"
	case resp.ClarificationPrompt != "":
		return "clarify"
	default:
		return "answer"
	}
}
