// Package core executes parsed assistant responses against a project
// session: local file edits, document generation and GitHub operations,
// each outcome recorded in the conversation log.
package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gen1/internal/actions"
	"gen1/internal/articulation"
	"gen1/internal/config"
	"gen1/internal/conversation"
	"gen1/internal/diff"
	"gen1/internal/docgen"
	"gen1/internal/feedback"
	"gen1/internal/logging"
	"gen1/internal/session"
)

// Origin says who asked for an action.
type Origin int

const (
	OriginAI Origin = iota
	OriginUser
)

func (o Origin) String() string {
	if o == OriginUser {
		return "user"
	}
	return "ai"
}

// Result is the outcome of one action.
type Result struct {
	Success bool
	Kind    actions.Kind
	// Label is the human-readable action description, e.g. "created".
	Label string
	// Target is the affected path or remote description.
	Target   string
	Err      error
	ErrKind  ErrorKind
	Metadata map[string]any
}

// Report summarizes a processed response.
type Report struct {
	Results []Result
	// ParseErrors counts error segments.
	ParseErrors int
	Speech      string
	HasSpeech   bool
}

// Failed returns the results that did not succeed.
func (r *Report) Failed() []Result {
	var out []Result
	for _, res := range r.Results {
		if !res.Success {
			out = append(out, res)
		}
	}
	return out
}

// Settings holds the executor switches and remote defaults.
type Settings struct {
	FileOpsEnabled bool
	RepoURL        string
	Branch         string
	Token          string
}

// SettingsFromConfig extracts executor settings from cfg.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		FileOpsEnabled: cfg.Executor.FileOpsEnabled,
		RepoURL:        cfg.Remote.RepoURL,
		Branch:         cfg.Remote.Branch,
		Token:          cfg.Remote.Token,
	}
}

// Executor dispatches actions for one session.
type Executor struct {
	session  *session.Session
	parser   *articulation.Parser
	recorder *feedback.Recorder
	remote   RemoteRepository
	docs     DocumentGenerator
	sink     ArtifactSink
	notifier Notifier
	diffs    *diff.Engine
	settings Settings
	now      func() time.Time
}

// Option configures an Executor.
type Option func(*Executor)

// WithRemote sets the GitHub client.
func WithRemote(r RemoteRepository) Option { return func(e *Executor) { e.remote = r } }

// WithDocuments replaces the document generator.
func WithDocuments(g DocumentGenerator) Option { return func(e *Executor) { e.docs = g } }

// WithArtifactSink sets where generated documents are stored.
func WithArtifactSink(s ArtifactSink) Option { return func(e *Executor) { e.sink = s } }

// WithNotifier sets the status notifier.
func WithNotifier(n Notifier) Option { return func(e *Executor) { e.notifier = n } }

// WithParser replaces the response parser.
func WithParser(p *articulation.Parser) Option { return func(e *Executor) { e.parser = p } }

// WithSettings sets switches and remote defaults.
func WithSettings(s Settings) Option { return func(e *Executor) { e.settings = s } }

// NewExecutor creates an executor bound to sess. File operations are
// enabled unless settings say otherwise.
func NewExecutor(sess *session.Session, opts ...Option) *Executor {
	e := &Executor{
		session:  sess,
		parser:   articulation.NewParser(nil),
		recorder: feedback.NewRecorder(sess.Log(), sess.Files()),
		docs:     docgen.Generator{},
		notifier: NopNotifier{},
		diffs:    diff.NewEngine(),
		settings: Settings{FileOpsEnabled: true},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.settings.Branch == "" {
		e.settings.Branch = "main"
	}
	return e
}

// Session returns the bound session.
func (e *Executor) Session() *session.Session { return e.session }

// ProcessResponse parses raw assistant output and handles its segments in
// order. Action failures are recorded in the log, not returned; the error
// reports persistence failures only.
func (e *Executor) ProcessResponse(ctx context.Context, raw string) (*Report, error) {
	timer := logging.StartTimer(logging.CategoryExecutor, "ProcessResponse")
	defer timer.Stop()

	e.session.Lock()
	defer e.session.Unlock()

	parsed := e.parser.Parse(raw)
	report := &Report{Speech: parsed.Speech, HasSpeech: parsed.HasSpeech}
	logging.Executor("Processing response: %d segments", len(parsed.Segments))

	var firstErr error
	commit := func() {
		if err := e.session.Commit(ctx); err != nil && firstErr == nil {
			logging.ExecutorError("Persist failed: %v", err)
			firstErr = err
		}
	}

	for _, seg := range parsed.Segments {
		switch seg.Type {
		case articulation.SegmentText:
			if strings.TrimSpace(seg.Text) == "" {
				continue
			}
			e.session.Log().Append(textMessage(seg.Text))
		case articulation.SegmentError:
			report.ParseErrors++
			e.recordParseError(seg)
		default:
			res, err := e.executeAndCommit(ctx, seg.Action, OriginAI)
			report.Results = append(report.Results, res)
			if err != nil && firstErr == nil {
				firstErr = err
			}
			continue
		}
		commit()
	}
	return report, firstErr
}

// Execute runs one action. It never returns an error: failures are carried
// by the result and recorded in the log.
func (e *Executor) Execute(ctx context.Context, action actions.Action, origin Origin) Result {
	e.session.Lock()
	defer e.session.Unlock()

	res, _ := e.executeAndCommit(ctx, action, origin)
	return res
}

// executeAndCommit runs action and persists the session. When persisting
// fails after a successful action, the success entries are dropped from the
// log and the action is recorded as failed with the commit error.
func (e *Executor) executeAndCommit(ctx context.Context, action actions.Action, origin Origin) (Result, error) {
	log := e.session.Log()
	mark := log.Len()

	res := e.execute(ctx, action, origin)
	err := e.session.Commit(ctx)
	if err == nil {
		return res, nil
	}
	logging.ExecutorError("Persist after %s failed: %v", action.Kind(), err)
	if res.Success {
		log.Truncate(mark)
		res = e.fail(res, err)
		e.recordFailure(action, origin, res)
	}
	return res, err
}

func (e *Executor) execute(ctx context.Context, action actions.Action, origin Origin) (res Result) {
	kind := action.Kind()
	timer := logging.StartTimer(logging.CategoryExecutor, string(kind))
	defer timer.Stop()

	defer func() {
		if r := recover(); r != nil {
			logging.ExecutorError("Action %s panicked: %v", kind, r)
			res = Result{Kind: kind, Target: action.Target(), Err: fmt.Errorf("internal error: %v", r), ErrKind: ErrorKindInternal}
			e.recordFailure(action, origin, res)
		}
	}()

	logging.ExecutorDebug("Executing %s (origin=%s, target=%s)", kind, origin, action.Target())

	switch action.Family() {
	case actions.FamilyFile, actions.FamilyBlock:
		if origin == OriginAI && !e.settings.FileOpsEnabled {
			res = Result{Kind: kind, Target: action.Target(), Err: ErrFileOpsDisabled, ErrKind: ErrorKindDisabled}
			break
		}
		res = e.executeLocal(action)
	case actions.FamilyDocument:
		res = e.executeDocument(action.(*actions.CreateDocument))
	case actions.FamilyRemote:
		res = e.executeRemote(ctx, action)
	default:
		err := fmt.Errorf("%w: %q", actions.ErrUnknownAction, kind)
		res = Result{Kind: kind, Target: action.Target(), Err: err, ErrKind: Classify(err)}
	}

	if res.Success {
		e.recordSuccess(action, origin, res)
	} else {
		if res.ErrKind == ErrorKindNone {
			res.ErrKind = Classify(res.Err)
		}
		e.recordFailure(action, origin, res)
	}
	return res
}

func (e *Executor) fail(res Result, err error) Result {
	res.Success = false
	res.Err = err
	res.ErrKind = Classify(err)
	return res
}

// recordParseError logs a rejected block and tells the model about it.
func (e *Executor) recordParseError(seg articulation.Segment) {
	e.session.Log().Append(parseErrorMessage(seg))
	e.notifier.Notify(LevelError, "AI generated invalid operation JSON.")

	op := feedback.Operation{Kind: feedback.ParseErrorKind, Target: "N/A", Original: map[string]any{"action": feedback.ParseErrorKind}}
	if seg.Kind.Known() {
		op = feedback.Operation{Kind: string(seg.Kind), Target: "N/A", Original: map[string]any{"action": string(seg.Kind)}}
	}
	e.recorder.Record(op, false, "Invalid or malformed JSON operation from AI: "+seg.ErrorMessage)
}

func (e *Executor) recordSuccess(action actions.Action, origin Origin, res Result) {
	kind := action.Kind()
	log := e.session.Log()

	if origin == OriginUser {
		if kind.SelfReporting() || action.Family() == actions.FamilyDocument {
			e.notifier.Notify(LevelSuccess, fmt.Sprintf("%s %s successful.", userLabel(action, res), res.Target))
			return
		}
		msg := fmt.Sprintf("User initiated: %s %s successful.", userLabel(action, res), res.Target)
		log.Append(conversation.Message{
			Sender:         conversation.SenderSystem,
			DisplayContent: msg,
			ContentForAI:   msg,
			Type:           conversation.TypeSystemInfo,
		})
		e.notifier.Notify(LevelSuccess, fmt.Sprintf("%s %s successful.", userLabel(action, res), res.Target))
		return
	}

	outcome := "Operation completed successfully."
	switch {
	case kind.SelfReporting():
		outcome = "Successfully retrieved data."
	case action.Family() == actions.FamilyDocument:
		outcome = fmt.Sprintf("Document %s created successfully.", res.Target)
	case action.Family() == actions.FamilyRemote:
		log.Append(remoteOpMessage(action, res))
	default:
		log.Append(fileOpMessage(action, res))
	}
	e.recorder.Record(feedback.OperationOf(action), true, outcome)
}

func (e *Executor) recordFailure(action actions.Action, origin Origin, res Result) {
	logging.ExecutorWarn("Action %s on %s failed (%s): %v", action.Kind(), res.Target, res.ErrKind, res.Err)
	e.session.Log().Append(failureMessage(action, origin, res))
	e.notifier.Notify(LevelError, fmt.Sprintf("%s %s failed: %v", userLabel(action, res), res.Target, res.Err))

	if origin != OriginAI {
		return
	}
	outcome := res.Err.Error()
	switch {
	case errors.Is(res.Err, ErrFileOpsDisabled):
		outcome = "AI file operations are currently disabled by the user."
	case action.Family().Local():
		outcome = "Local file operation failed: " + outcome
	}
	e.recorder.Record(feedback.OperationOf(action), false, outcome)
}
