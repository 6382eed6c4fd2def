package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"medicare-backend/internal/agent"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	DefaultHistoryCap = 50
	DefaultPage       = 1
	DefaultLimit      = 10
	MaxLimit          = 100

	notifyTimeout = 15 * time.Second
)

// ErrPersist wraps any store failure while saving a finished analysis.
var ErrPersist = errors.New("failed to store analysis session")

// Recorder receives pipeline counters. *metrics.Metrics satisfies it.
type Recorder interface {
	RecordAnalysis(source string)
	RecordFallback(reason string)
	ObserveModelRequest(d time.Duration)
}

// EmergencyNotifier is told about sessions whose triage came back as
// emergency. It runs off the request path.
type EmergencyNotifier interface {
	NotifyEmergency(ctx context.Context, s *Session, rec Recommendation) error
}

type Options struct {
	HistoryCap   int
	ModelTimeout time.Duration
	Logger       zerolog.Logger
	Metrics      Recorder
	Notifier     EmergencyNotifier
}

// Outcome is what Analyze hands back to the transport layer.
type Outcome struct {
	Session        *Session
	Source         Source
	FallbackReason FallbackReason
}

type Service interface {
	Analyze(ctx context.Context, userID string, report SymptomReport) (*Outcome, error)
	History(ctx context.Context, userID string, page, limit int) (*HistoryPage, error)
	Get(ctx context.Context, userID string, id uuid.UUID) (*Session, error)
	Delete(ctx context.Context, userID string, id uuid.UUID) error
}

type service struct {
	store      SessionStore
	model      agent.Client
	historyCap int
	timeout    time.Duration
	log        zerolog.Logger
	metrics    Recorder
	notifier   EmergencyNotifier
	now        func() time.Time
}

func NewService(store SessionStore, model agent.Client, opts Options) Service {
	s := &service{
		store:      store,
		model:      model,
		historyCap: opts.HistoryCap,
		timeout:    opts.ModelTimeout,
		log:        opts.Logger,
		metrics:    opts.Metrics,
		notifier:   opts.Notifier,
		now:        time.Now,
	}
	if s.historyCap <= 0 {
		s.historyCap = DefaultHistoryCap
	}
	if s.metrics == nil {
		s.metrics = noopRecorder{}
	}
	return s
}

type stage int

const (
	stageValidate stage = iota
	stageBuild
	stageInvoke
	stageNormalize
	stageFallback
	stagePersist
	stageRespond
	stageDone
)

func (st stage) String() string {
	switch st {
	case stageValidate:
		return "validate"
	case stageBuild:
		return "build"
	case stageInvoke:
		return "invoke"
	case stageNormalize:
		return "normalize"
	case stageFallback:
		return "fallback"
	case stagePersist:
		return "persist"
	case stageRespond:
		return "respond"
	default:
		return "done"
	}
}

// run is the state carried between stages of one analysis.
type run struct {
	userID  string
	report  SymptomReport
	prompt  string
	raw     string
	result  json.RawMessage
	source  Source
	reason  FallbackReason
	cause   error
	session *Session
	outcome *Outcome
}

// Analyze drives a report through the pipeline. Only an invalid report or
// a failed save returns an error; every model problem ends in the
// fallback stage. Caller cancellation is ignored once validation passes
// so a started analysis always completes.
func (s *service) Analyze(ctx context.Context, userID string, report SymptomReport) (*Outcome, error) {
	ctx = context.WithoutCancel(ctx)
	r := &run{userID: userID, report: report}

	for st := stageValidate; st != stageDone; {
		next, err := s.step(ctx, st, r)
		if err != nil {
			return nil, err
		}
		st = next
	}
	return r.outcome, nil
}

func (s *service) step(ctx context.Context, st stage, r *run) (stage, error) {
	switch st {
	case stageValidate:
		if err := r.report.Validate(); err != nil {
			return stageDone, err
		}
		return stageBuild, nil

	case stageBuild:
		r.prompt = BuildPrompt(r.report)
		return stageInvoke, nil

	case stageInvoke:
		raw, err := s.invoke(ctx, r.prompt)
		if err != nil {
			r.reason, r.cause = classify(err), err
			return stageFallback, nil
		}
		r.raw = raw
		return stageNormalize, nil

	case stageNormalize:
		result, ok := Normalize(r.raw)
		if !ok {
			r.reason, r.cause = ReasonUnparsable, errors.New("no JSON object in model output")
			return stageFallback, nil
		}
		r.result, r.source = result, SourceModel
		return stagePersist, nil

	case stageFallback:
		s.log.Warn().
			Err(r.cause).
			Str("reason", string(r.reason)).
			Str("user_id", r.userID).
			Msg("triage fell back to rule based result")
		s.metrics.RecordFallback(string(r.reason))

		result, err := json.Marshal(Fallback(r.report))
		if err != nil {
			return stageDone, fmt.Errorf("marshal fallback: %w", err)
		}
		r.result, r.source = result, SourceFallback
		return stagePersist, nil

	case stagePersist:
		r.session = &Session{
			ID:             uuid.New(),
			UserID:         r.userID,
			SymptomReport:  r.report,
			AnalysisResult: r.result,
			Source:         r.source,
			CreatedAt:      s.now().UTC(),
		}
		if err := s.store.Append(ctx, r.session, s.historyCap); err != nil {
			s.log.Error().Err(err).Str("user_id", r.userID).Msg("failed to store analysis session")
			return stageDone, fmt.Errorf("%w: %w", ErrPersist, err)
		}
		return stageRespond, nil

	case stageRespond:
		s.metrics.RecordAnalysis(string(r.source))
		s.maybeNotify(r.session)
		r.outcome = &Outcome{Session: r.session, Source: r.source, FallbackReason: r.reason}
		return stageDone, nil
	}
	return stageDone, fmt.Errorf("unknown stage %s", st)
}

func (s *service) invoke(ctx context.Context, prompt string) (string, error) {
	if s.model == nil {
		return "", agent.ErrNotConfigured
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := s.model.Complete(ctx, SystemPrompt, prompt)
	if !errors.Is(err, agent.ErrNotConfigured) {
		s.metrics.ObserveModelRequest(time.Since(start))
	}
	return raw, err
}

func (s *service) maybeNotify(sess *Session) {
	if s.notifier == nil {
		return
	}
	rec, err := sess.Recommendation()
	if err != nil || !isEmergency(rec.TriageLevel) {
		return
	}

	go func(sess Session) {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := s.notifier.NotifyEmergency(ctx, &sess, rec); err != nil {
			s.log.Error().Err(err).Str("session_id", sess.ID.String()).Msg("emergency alert failed")
		}
	}(*sess)
}

// isEmergency tolerates model casing and padding such as " EMERGENCY".
func isEmergency(level TriageLevel) bool {
	return strings.EqualFold(strings.TrimSpace(string(level)), string(TriageEmergency))
}

func classify(err error) FallbackReason {
	switch {
	case errors.Is(err, agent.ErrNotConfigured):
		return ReasonNotConfigured
	case errors.Is(err, context.DeadlineExceeded):
		return ReasonTimeout
	case errors.Is(err, agent.ErrEmptyResponse):
		return ReasonEmptyResponse
	default:
		return ReasonUpstream
	}
}

func (s *service) History(ctx context.Context, userID string, page, limit int) (*HistoryPage, error) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	// Saturate instead of wrapping: any offset past the end is an empty page.
	offset := math.MaxInt
	if page-1 <= math.MaxInt/limit {
		offset = (page - 1) * limit
	}

	sessions, total, err := s.store.List(ctx, userID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	pages := total / limit
	if total%limit != 0 {
		pages++
	}
	return &HistoryPage{
		Sessions: sessions,
		Pagination: Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: pages,
		},
	}, nil
}

func (s *service) Get(ctx context.Context, userID string, id uuid.UUID) (*Session, error) {
	return s.store.Get(ctx, userID, id)
}

func (s *service) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	return s.store.Delete(ctx, userID, id)
}

type noopRecorder struct{}

func (noopRecorder) RecordAnalysis(string)             {}
func (noopRecorder) RecordFallback(string)             {}
func (noopRecorder) ObserveModelRequest(time.Duration) {}
