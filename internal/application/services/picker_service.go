package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/taskmaster/crm/internal/domain/calendar"
	"github.com/taskmaster/crm/internal/domain/picker"
	"github.com/taskmaster/crm/internal/infrastructure/logger"
	"github.com/taskmaster/crm/internal/ports"
)

// ErrPickerSessionNotFound is returned for unknown or expired session ids.
var ErrPickerSessionNotFound = errors.New("picker session not found")

type pickerSession struct {
	ctrl     *picker.SyncController
	lastUsed atomic.Int64
}

func (p *pickerSession) touch(now time.Time) {
	p.lastUsed.Store(now.UnixNano())
}

// PickerService keeps one date picker controller per client session.
type PickerService struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*pickerSession

	now     func() time.Time
	pattern string
	idleTTL time.Duration
	metrics ports.Metrics
	logger  *logger.Logger
}

// NewPickerService creates an empty registry. Sessions idle for longer than idleTTL
// are dropped by Sweep; zero keeps them until closed.
func NewPickerService(now func() time.Time, pattern string, idleTTL time.Duration, metrics ports.Metrics, logger *logger.Logger) *PickerService {
	if now == nil {
		now = time.Now
	}
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &PickerService{
		sessions: make(map[uuid.UUID]*pickerSession),
		now:      now,
		pattern:  pattern,
		idleTTL:  idleTTL,
		metrics:  metrics,
		logger:   logger,
	}
}

// Open creates a session and focuses it on the associated date, or today.
func (s *PickerService) Open(req ports.OpenPickerRequest) (*ports.PickerState, error) {
	opts := []picker.Option{picker.WithClock(s.now)}
	if req.AssociatedDate != "" {
		d, err := calendar.ParseISODate(req.AssociatedDate)
		if err != nil {
			return nil, err
		}
		opts = append(opts, picker.WithAssociatedDate(d))
	}

	id := uuid.New()
	opts = append(opts,
		picker.WithRenderer(func(p picker.RenderPayload) {
			s.logger.Debugw("Picker month rendered", "session_id", id, "year", p.Year, "month", p.Month)
		}),
		picker.WithSelectHandler(func(iso string) {
			s.metrics.ObservePickerSelection()
			s.logger.Infow("Picker date selected", "session_id", id, "date", iso)
		}),
	)

	session := &pickerSession{ctrl: picker.NewSyncController(picker.NewController(opts...))}
	if _, err := session.ctrl.Focus(nil); err != nil {
		return nil, err
	}
	session.touch(s.now())

	s.mu.Lock()
	s.sessions[id] = session
	n := len(s.sessions)
	s.mu.Unlock()

	s.metrics.SetPickerSessions(n)
	s.logger.Debugw("Picker session opened", "session_id", id)

	return s.state(id, session)
}

// Focus reopens the picker, optionally binding a new associated date first.
func (s *PickerService) Focus(id uuid.UUID, req ports.FocusPickerRequest) (*ports.PickerState, error) {
	session, err := s.session(id)
	if err != nil {
		return nil, err
	}

	var associated *calendar.GregorianDate
	if req.AssociatedDate != "" {
		d, err := calendar.ParseISODate(req.AssociatedDate)
		if err != nil {
			return nil, err
		}
		associated = &d
	}

	if _, err := session.ctrl.Focus(associated); err != nil {
		return nil, err
	}
	return s.state(id, session)
}

// Prev shows the previous month.
func (s *PickerService) Prev(id uuid.UUID) (*ports.PickerState, error) {
	session, err := s.session(id)
	if err != nil {
		return nil, err
	}
	if _, err := session.ctrl.NavigatePrev(); err != nil {
		return nil, err
	}
	return s.state(id, session)
}

// Next shows the following month.
func (s *PickerService) Next(id uuid.UUID) (*ports.PickerState, error) {
	session, err := s.session(id)
	if err != nil {
		return nil, err
	}
	if _, err := session.ctrl.NavigateNext(); err != nil {
		return nil, err
	}
	return s.state(id, session)
}

// Select picks a day of the displayed month. The session stays registered, closed,
// so the client can reopen it on the chosen date.
func (s *PickerService) Select(id uuid.UUID, req ports.SelectDayRequest) (*ports.PickerState, error) {
	session, err := s.session(id)
	if err != nil {
		return nil, err
	}
	if _, err := session.ctrl.SelectDay(req.Day); err != nil {
		return nil, err
	}
	return s.state(id, session)
}

// Dismiss closes the picker without a selection.
func (s *PickerService) Dismiss(id uuid.UUID) (*ports.PickerState, error) {
	session, err := s.session(id)
	if err != nil {
		return nil, err
	}
	session.ctrl.Dismiss()
	return s.state(id, session)
}

// Get returns the current state of a session.
func (s *PickerService) Get(id uuid.UUID) (*ports.PickerState, error) {
	session, err := s.session(id)
	if err != nil {
		return nil, err
	}
	return s.state(id, session)
}

// Close forgets a session.
func (s *PickerService) Close(id uuid.UUID) error {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	n := len(s.sessions)
	s.mu.Unlock()

	if !ok {
		return ErrPickerSessionNotFound
	}
	s.metrics.SetPickerSessions(n)
	return nil
}

// Len returns the number of live sessions.
func (s *PickerService) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep drops sessions idle since before now minus the idle TTL and returns how many.
func (s *PickerService) Sweep(now time.Time) int {
	if s.idleTTL <= 0 {
		return 0
	}
	cutoff := now.Add(-s.idleTTL).UnixNano()

	s.mu.Lock()
	removed := 0
	for id, session := range s.sessions {
		if session.lastUsed.Load() < cutoff {
			delete(s.sessions, id)
			removed++
		}
	}
	n := len(s.sessions)
	s.mu.Unlock()

	if removed > 0 {
		s.metrics.SetPickerSessions(n)
		s.logger.Infow("Expired picker sessions removed", "removed", removed, "remaining", n)
	}
	return removed
}

// Run sweeps idle sessions every interval until ctx is done.
func (s *PickerService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(s.now())
		}
	}
}

func (s *PickerService) session(id uuid.UUID) (*pickerSession, error) {
	s.mu.RLock()
	session, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrPickerSessionNotFound
	}
	session.touch(s.now())
	return session, nil
}

func (s *PickerService) state(id uuid.UUID, session *pickerSession) (*ports.PickerState, error) {
	frame, err := session.ctrl.Frame(s.pattern)
	if err != nil {
		return nil, err
	}

	state := &ports.PickerState{
		ID:           id,
		Status:       frame.Status.String(),
		Payload:      frame.Payload,
		DisplayValue: frame.DisplayValue,
	}
	if frame.Status == picker.Open {
		view := frame.View
		state.View = &view
	}
	if frame.Associated != nil {
		state.Value = frame.Associated.String()
	}
	return state, nil
}
