package simd

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/gansim/internal/metrics"
	"github.com/GoSim-25-26J-441/gansim/internal/policy"
	"github.com/GoSim-25-26J-441/gansim/internal/sim"
	"github.com/GoSim-25-26J-441/gansim/pkg/logger"
	"github.com/GoSim-25-26J-441/gansim/pkg/utils"
	"github.com/google/uuid"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionExists    = errors.New("session already exists")
	ErrSessionIDMissing = errors.New("session_id is required")
	ErrSessionIDInvalid = errors.New("invalid session_id")
	ErrSessionLimit     = errors.New("session limit reached")
	ErrJournalDisabled  = errors.New("journal is disabled")
	ErrRateLimited      = errors.New("step rate limit exceeded")
)

// Recorder persists step and reset events. The journal implements it.
type Recorder interface {
	Record(ctx context.Context, sessionID string, out sim.Outcome) error
	RecordReset(ctx context.Context, sessionID string, st sim.State) error
}

// CreateOptions configures a new session.
type CreateOptions struct {
	SessionID string
	// Seed drives the session's random source; 0 derives one from the store.
	Seed int64
	// Samples, when set, replace the random source with a fixed cycling sequence.
	Samples []float64
	// CallbackURL is notified once when progress first reaches 100.
	CallbackURL string
}

// Session owns one simulator. Its mutex serializes Step and Reset.
type Session struct {
	ID          string
	CreatedAt   time.Time
	CallbackURL string

	mu        sync.Mutex
	sim       *sim.Simulator
	collector *metrics.Collector
	version   uint64
	updatedAt time.Time
	notified  bool
}

// SessionView is an immutable snapshot of a session handed to transports.
type SessionView struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   uint64    `json:"version"`
	State     sim.State `json:"state"`
}

func (s *Session) viewLocked() SessionView {
	return SessionView{
		ID:        s.ID,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.updatedAt,
		Version:   s.version,
		State:     s.sim.State(),
	}
}

// SessionStore holds every live session.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	params      sim.Params
	maxSessions int
	baseSeed    int64
	created     int64
	recorder    Recorder
	notifier    *Notifier
	limiter     policy.RateLimitingPolicy
}

// NewSessionStore creates a store whose sessions use params.
// A maxSessions <= 0 disables the cap.
func NewSessionStore(params sim.Params, maxSessions int) *SessionStore {
	return &SessionStore{
		sessions:    make(map[string]*Session),
		params:      params,
		maxSessions: maxSessions,
		limiter:     policy.NewRateLimitingPolicy(0),
	}
}

// SetStepRateLimit caps steps per second for each session; 0 removes the cap.
func (s *SessionStore) SetStepRateLimit(perSecond int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limiter = policy.NewRateLimitingPolicy(perSecond)
}

// SetRecorder attaches a journal; nil detaches it.
func (s *SessionStore) SetRecorder(r Recorder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recorder = r
}

// SetNotifier attaches the completion notifier.
func (s *SessionStore) SetNotifier(n *Notifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifier = n
}

// SetBaseSeed makes session seeds reproducible: the n-th session created
// without an explicit seed gets baseSeed+n. 0 restores clock seeding.
func (s *SessionStore) SetBaseSeed(seed int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.baseSeed = seed
}

// Params returns the simulation constants used for new sessions.
func (s *SessionStore) Params() sim.Params {
	return s.params
}

func validateSessionID(id string) error {
	if strings.ContainsAny(id, "/:?# ") {
		return fmt.Errorf("%w: %q cannot contain '/', ':', '?', '#' or spaces", ErrSessionIDInvalid, id)
	}
	return nil
}

// Create registers a new session and returns its initial view.
func (s *SessionStore) Create(opts CreateOptions) (SessionView, error) {
	id := opts.SessionID
	if id == "" {
		id = "sess-" + uuid.New().String()
	}
	if err := validateSessionID(id); err != nil {
		return SessionView{}, err
	}
	if opts.CallbackURL != "" {
		if err := validateCallbackURL(opts.CallbackURL); err != nil {
			return SessionView{}, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[id]; exists {
		return SessionView{}, fmt.Errorf("%w: %s", ErrSessionExists, id)
	}
	if s.maxSessions > 0 && len(s.sessions) >= s.maxSessions {
		return SessionView{}, fmt.Errorf("%w: %d", ErrSessionLimit, s.maxSessions)
	}

	s.created++
	var sampler sim.Sampler
	switch {
	case len(opts.Samples) > 0:
		sampler = utils.NewSequenceSource(opts.Samples...)
	case opts.Seed != 0:
		sampler = utils.NewRandSource(opts.Seed)
	case s.baseSeed != 0:
		sampler = utils.NewRandSource(s.baseSeed + s.created)
	default:
		sampler = utils.NewRandSource(0)
	}

	now := time.Now().UTC()
	sess := &Session{
		ID:          id,
		CreatedAt:   now,
		CallbackURL: opts.CallbackURL,
		sim:         sim.NewWithParams(sampler, s.params),
		collector:   metrics.NewCollector(),
		updatedAt:   now,
	}
	s.sessions[id] = sess

	logger.ForSession(id).Info("session created")
	return sess.viewLocked(), nil
}

func (s *SessionStore) lookup(id string) (*Session, error) {
	if id == "" {
		return nil, ErrSessionIDMissing
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess, nil
}

// Get returns the current view of a session without mutating it.
func (s *SessionStore) Get(id string) (SessionView, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return SessionView{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.viewLocked(), nil
}

// Version returns the session's mutation counter, used by streams to detect change.
func (s *SessionStore) Version(id string) (uint64, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return 0, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.version, nil
}

// List returns up to limit sessions, oldest first.
func (s *SessionStore) List(limit int) []SessionView {
	if limit <= 0 {
		limit = 50
	}

	s.mu.RLock()
	all := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		all = append(all, sess)
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})
	if len(all) > limit {
		all = all[:limit]
	}

	out := make([]SessionView, 0, len(all))
	for _, sess := range all {
		sess.mu.Lock()
		out = append(out, sess.viewLocked())
		sess.mu.Unlock()
	}
	return out
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Delete removes a session.
func (s *SessionStore) Delete(id string) error {
	if id == "" {
		return ErrSessionIDMissing
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	delete(s.sessions, id)
	s.limiter.Forget(id)
	logger.ForSession(id).Info("session deleted")
	return nil
}

// Step advances a session by one step.
func (s *SessionStore) Step(ctx context.Context, id string) (sim.Outcome, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return sim.Outcome{}, err
	}
	s.mu.RLock()
	limiter := s.limiter
	s.mu.RUnlock()
	if !limiter.AllowRequest(id, time.Now()) {
		return sim.Outcome{}, fmt.Errorf("%w: %s", ErrRateLimited, id)
	}

	s.mu.RLock()
	recorder, notifier := s.recorder, s.notifier
	s.mu.RUnlock()
	log := logger.ForSession(id)

	// The journal write stays under the session lock so entries land in the
	// order the steps and resets were applied.
	sess.mu.Lock()
	out := sess.sim.Advance()
	now := time.Now().UTC()
	sess.version++
	sess.updatedAt = now
	metrics.RecordStep(sess.collector, out, now)
	notify := out.State.Progress >= sim.MaxProgress && !sess.notified && sess.CallbackURL != ""
	if notify {
		sess.notified = true
	}
	if recorder != nil {
		if err := recorder.Record(ctx, id, out); err != nil {
			log.Warn("journal write failed", "error", err)
		}
	}
	sess.mu.Unlock()

	if notify && notifier != nil {
		notifier.Notify(sess.CallbackURL, id, out.State)
	}

	log.Debug("step applied",
		"verdict", out.Verdict,
		"fake_value", out.FakeValue,
		"generator_skill", out.State.GeneratorSkill,
		"discriminator_skill", out.State.DiscriminatorSkill)
	return out, nil
}

// Reset returns a session to its initial state.
func (s *SessionStore) Reset(ctx context.Context, id string) (sim.State, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return sim.State{}, err
	}

	s.mu.RLock()
	recorder := s.recorder
	s.mu.RUnlock()
	log := logger.ForSession(id)

	sess.mu.Lock()
	st := sess.sim.Reset()
	sess.version++
	sess.updatedAt = time.Now().UTC()
	sess.collector.Clear()
	sess.notified = false
	if recorder != nil {
		if err := recorder.RecordReset(ctx, id, st); err != nil {
			log.Warn("journal write failed", "error", err)
		}
	}
	sess.mu.Unlock()

	log.Debug("session reset")
	return st, nil
}

// LastOutcome returns the latest step outcome of a session, if any since reset.
func (s *SessionStore) LastOutcome(id string) (sim.Outcome, bool, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return sim.Outcome{}, false, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	out, ok := sess.sim.LastOutcome()
	return out, ok, nil
}

// TimeSeries returns the retained points of one metric for a session.
func (s *SessionStore) TimeSeries(id, metric string) ([]metrics.Point, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return sess.collector.GetTimeSeries(metric), nil
}

// Metrics summarizes a session since its last reset.
func (s *SessionStore) Metrics(id string) (*metrics.Summary, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return metrics.Summarize(sess.collector), nil
}
