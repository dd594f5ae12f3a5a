package weather

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Settings are the configured poll inputs.
type Settings struct {
	URL           string
	IntervalHours int
}

// Service owns the retained State and runs polls against the sensor service.
// Polls are serialized; State is only replaced after a successful poll.
type Service struct {
	provider Provider
	link     LinkChecker
	states   StateStore
	history  HistoryStore

	publisher Publisher
	recorder  Recorder
	logger    *log.Logger
	now       func() time.Time

	settings Settings

	pollMu sync.Mutex

	mu    sync.RWMutex
	state State
}

// Option customizes a Service.
type Option func(*Service)

// WithPublisher sets where fresh readings are pushed.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithRecorder sets the poll outcome recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service and loads the retained State from states.
func NewService(provider Provider, link LinkChecker, states StateStore, history HistoryStore, settings Settings, opts ...Option) (*Service, error) {
	s := &Service{
		provider: provider,
		link:     link,
		states:   states,
		history:  history,
		settings: settings,
		logger:   log.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	st, err := states.Load()
	switch {
	case errors.Is(err, ErrCorruptState):
		s.logger.Warn("retained state unreadable, starting empty", "err", err)
		st = State{}
	case err != nil:
		return nil, fmt.Errorf("load state: %w", err)
	}
	s.state = st
	if s.recorder != nil {
		s.recorder.ObserveState(st)
	}
	s.logger.Info("state loaded",
		"current", st.Current, "previous", st.Previous, "lastUpdate", st.LastUpdate)

	return s, nil
}

// State returns a copy of the retained state.
func (s *Service) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Settings returns the configured poll inputs.
func (s *Service) Settings() Settings {
	return s.settings
}

// Due reports whether a poll is due at now.
func (s *Service) Due(now time.Time) bool {
	return IsUpdateDue(now, s.State(), s.settings.IntervalHours)
}

// MaybeUpdate polls the configured URL when an update is due. It reports
// whether a poll was attempted. The due check is made under the poll lock so
// a poll that finished meanwhile is seen.
func (s *Service) MaybeUpdate(ctx context.Context) (bool, error) {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()

	if !s.Due(s.now()) {
		return false, nil
	}
	return true, s.fetch(ctx, s.settings.URL)
}

// Refresh polls the configured URL regardless of the schedule.
func (s *Service) Refresh(ctx context.Context) error {
	return s.FetchOutdoorTemperature(ctx, s.settings.URL)
}

// FetchOutdoorTemperature runs one poll against url. On success the State
// advances; on failure it is left untouched and a *FetchError is returned.
func (s *Service) FetchOutdoorTemperature(ctx context.Context, url string) error {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()
	return s.fetch(ctx, url)
}

// fetch runs one poll; pollMu must be held.
func (s *Service) fetch(ctx context.Context, url string) error {
	pollID := uuid.NewString()
	logger := s.logger.With("poll", pollID)
	started := time.Now()

	err := s.poll(ctx, logger, pollID, url)

	kind := ""
	if err != nil {
		kind = KindName(err)
		logger.Warn("poll failed", "kind", kind, "err", err)
	}
	if s.recorder != nil {
		s.recorder.ObservePoll(kind, time.Since(started))
	}
	return err
}

func (s *Service) poll(ctx context.Context, logger *log.Logger, pollID, url string) error {
	if err := s.link.Check(); err != nil {
		return fail(ErrNotConnected, err.Error())
	}

	logger.Debug("request", "provider", s.provider.Name(), "url", url)

	// The link may have dropped since the scheduler looked.
	if err := s.link.Check(); err != nil {
		return fail(ErrNotConnected, "link lost: "+err.Error())
	}

	body, err := s.provider.Get(ctx, url)
	if err != nil {
		return asFetchError(err)
	}
	logger.Debug("response", "len", len(body))

	payload, err := DecodeSensors(body)
	if err != nil {
		return err
	}
	logger.Debug("decoded", "keys", strings.Join(payload.Keys, ","), "sensors", len(payload.Readings))

	avg, used, err := mean(payload.Readings)
	if err != nil {
		return fail(ErrNoValidValues, fmt.Sprintf("%d sensors", len(payload.Readings)))
	}
	temp := math.Round(avg)
	logger.Debug("aggregated", "values", used, "mean", avg, "rounded", temp)

	now := s.now()
	snapshot := Snapshot{
		PollID:      pollID,
		Timestamp:   now.UTC(),
		Temperature: temp,
		Mean:        avg,
		Sensors:     len(payload.Readings),
		Used:        used,
	}

	next := s.commit(temp, now)
	logger.Info("outdoor temperature updated",
		"current", next.Current, "previous", next.Previous, "change", next.TemperatureChange())

	if err := s.states.Save(next); err != nil {
		// The in-memory state is already current; the next success retries the write.
		logger.Error("persist state", "err", err)
	}
	s.history.SaveSnapshot(snapshot)
	if s.recorder != nil {
		s.recorder.ObserveState(next)
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, next, snapshot); err != nil {
			logger.Warn("publish reading", "err", err)
		}
	}
	return nil
}

// commit is the only place the retained state changes.
func (s *Service) commit(temp float64, now time.Time) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = s.state.Advance(temp, now)
	return s.state
}

// GetLatest returns the most recent successful update from the history.
func (s *Service) GetLatest() (Snapshot, error) {
	return s.history.GetLatest()
}

// GetRange delegates to the history store.
func (s *Service) GetRange(from, to time.Time) ([]Snapshot, error) {
	return s.history.GetRange(from, to)
}
