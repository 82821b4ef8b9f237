package picker

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/taskmaster/crm/internal/domain/calendar"
)

// ErrPickerClosed is returned by transitions that need an open picker.
var ErrPickerClosed = errors.New("picker is closed")

// Status is the coarse state of a picker.
type Status int

const (
	Closed Status = iota
	Open
)

func (s Status) String() string {
	if s == Open {
		return "open"
	}
	return "closed"
}

// ViewState is the month currently displayed, independent of any selection.
type ViewState struct {
	DisplayedYear  int `json:"displayed_year"`
	DisplayedMonth int `json:"displayed_month"`
}

// RenderFunc receives a payload after every transition into or within Open.
type RenderFunc func(RenderPayload)

// SelectFunc receives the ISO date chosen by the user.
type SelectFunc func(iso string)

// Option configures a Controller.
type Option func(*Controller)

// WithClock sets the source of "today" used when no date is associated.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.formatter = calendar.NewFormatter(now) }
}

// WithRenderer sets the render callback.
func WithRenderer(fn RenderFunc) Option {
	return func(c *Controller) { c.onRender = fn }
}

// WithSelectHandler sets the selection callback.
func WithSelectHandler(fn SelectFunc) Option {
	return func(c *Controller) { c.onSelect = fn }
}

// WithAssociatedDate preloads the date already stored on the record being edited.
func WithAssociatedDate(d calendar.GregorianDate) Option {
	return func(c *Controller) { c.associated = &d }
}

// Controller drives one date picker widget. It is not safe for concurrent use;
// wrap it in a SyncController when events can arrive from several goroutines.
type Controller struct {
	status     Status
	view       ViewState
	associated *calendar.GregorianDate

	formatter *calendar.Formatter
	onRender  RenderFunc
	onSelect  SelectFunc
}

// NewController returns a closed picker.
func NewController(opts ...Option) *Controller {
	c := &Controller{
		status:    Closed,
		formatter: calendar.NewFormatter(nil),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Status returns the current state.
func (c *Controller) Status() Status { return c.status }

// View returns the displayed month. It is meaningful only while Open.
func (c *Controller) View() ViewState { return c.view }

// Associated returns the date currently bound to the input, if any.
func (c *Controller) Associated() (calendar.GregorianDate, bool) {
	if c.associated == nil {
		return calendar.GregorianDate{}, false
	}
	return *c.associated, true
}

// Focus opens the picker on the month of the associated date, or of today when none
// is known. A non-nil date replaces the associated one first.
// A failed Focus leaves the controller exactly as it was.
func (c *Controller) Focus(associated *calendar.GregorianDate) error {
	target := c.associated
	if associated != nil {
		d := *associated
		if err := d.Validate(); err != nil {
			return err
		}
		target = &d
	}

	anchor := c.formatter.TodayGregorian()
	if target != nil {
		anchor = *target
	}

	j, err := calendar.GregorianToJalali(anchor)
	if err != nil {
		return fmt.Errorf("focus: %w", err)
	}

	prev := c.associated
	c.associated = target
	if err := c.show(ViewState{DisplayedYear: j.Year, DisplayedMonth: j.Month}); err != nil {
		c.associated = prev
		return err
	}
	return nil
}

// NavigatePrev shows the previous month, wrapping Farvardin to the prior Esfand.
func (c *Controller) NavigatePrev() error {
	if c.status != Open {
		return ErrPickerClosed
	}
	next := c.view
	if next.DisplayedMonth > 1 {
		next.DisplayedMonth--
	} else {
		next.DisplayedYear--
		next.DisplayedMonth = 12
	}
	return c.show(next)
}

// NavigateNext shows the following month, wrapping Esfand to the next Farvardin.
func (c *Controller) NavigateNext() error {
	if c.status != Open {
		return ErrPickerClosed
	}
	next := c.view
	if next.DisplayedMonth < 12 {
		next.DisplayedMonth++
	} else {
		next.DisplayedYear++
		next.DisplayedMonth = 1
	}
	return c.show(next)
}

// SelectDay picks day of the displayed month, emits it as an ISO date and closes.
// An out-of-range day leaves the picker untouched and returns the conversion error.
func (c *Controller) SelectDay(day int) (calendar.GregorianDate, error) {
	if c.status != Open {
		return calendar.GregorianDate{}, ErrPickerClosed
	}

	g, err := calendar.JalaliToGregorian(calendar.JalaliDate{
		Year:  c.view.DisplayedYear,
		Month: c.view.DisplayedMonth,
		Day:   day,
	})
	if err != nil {
		return calendar.GregorianDate{}, err
	}

	c.associated = &g
	c.status = Closed
	if c.onSelect != nil {
		c.onSelect(g.String())
	}
	return g, nil
}

// Dismiss closes the picker without selecting anything.
func (c *Controller) Dismiss() {
	c.status = Closed
}

// Payload renders the displayed month.
func (c *Controller) Payload() (RenderPayload, error) {
	if c.status != Open {
		return RenderPayload{}, ErrPickerClosed
	}
	return BuildPayload(c.view.DisplayedYear, c.view.DisplayedMonth, c.highlightDay(c.view))
}

// DisplayValue formats the associated date for the input field, or "" when none.
func (c *Controller) DisplayValue(pattern string) (string, error) {
	if c.associated == nil {
		return "", nil
	}
	return c.formatter.FormatGregorian(*c.associated, pattern)
}

func (c *Controller) show(view ViewState) error {
	payload, err := BuildPayload(view.DisplayedYear, view.DisplayedMonth, c.highlightDay(view))
	if err != nil {
		return err
	}

	c.view = view
	c.status = Open
	if c.onRender != nil {
		c.onRender(payload)
	}
	return nil
}

func (c *Controller) highlightDay(view ViewState) int {
	if c.associated == nil {
		return 0
	}
	j, err := calendar.GregorianToJalali(*c.associated)
	if err != nil || j.Year != view.DisplayedYear || j.Month != view.DisplayedMonth {
		return 0
	}
	return j.Day
}

// Snapshot is a consistent copy of a controller's observable state.
type Snapshot struct {
	Status     Status
	View       ViewState
	Associated *calendar.GregorianDate
}

// SyncController serialises every transition of one Controller behind a mutex.
type SyncController struct {
	mu   sync.Mutex
	ctrl *Controller
}

// NewSyncController wraps ctrl.
func NewSyncController(ctrl *Controller) *SyncController {
	return &SyncController{ctrl: ctrl}
}

func (s *SyncController) Focus(associated *calendar.GregorianDate) (RenderPayload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ctrl.Focus(associated); err != nil {
		return RenderPayload{}, err
	}
	return s.ctrl.Payload()
}

func (s *SyncController) NavigatePrev() (RenderPayload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ctrl.NavigatePrev(); err != nil {
		return RenderPayload{}, err
	}
	return s.ctrl.Payload()
}

func (s *SyncController) NavigateNext() (RenderPayload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ctrl.NavigateNext(); err != nil {
		return RenderPayload{}, err
	}
	return s.ctrl.Payload()
}

func (s *SyncController) SelectDay(day int) (calendar.GregorianDate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.SelectDay(day)
}

func (s *SyncController) Dismiss() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctrl.Dismiss()
}

func (s *SyncController) Payload() (RenderPayload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.Payload()
}

func (s *SyncController) DisplayValue(pattern string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.DisplayValue(pattern)
}

// Snapshot returns the state under the lock.
func (s *SyncController) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{Status: s.ctrl.status, View: s.ctrl.view}
	if d, ok := s.ctrl.Associated(); ok {
		snap.Associated = &d
	}
	return snap
}

// Frame is a snapshot together with what a client draws from it.
type Frame struct {
	Snapshot
	Payload      *RenderPayload
	DisplayValue string
}

// Frame renders the current state under one lock acquisition.
func (s *SyncController) Frame(pattern string) (Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := Frame{Snapshot: Snapshot{Status: s.ctrl.status, View: s.ctrl.view}}
	if d, ok := s.ctrl.Associated(); ok {
		f.Associated = &d
	}

	if s.ctrl.status == Open {
		p, err := s.ctrl.Payload()
		if err != nil {
			return Frame{}, err
		}
		f.Payload = &p
	}

	display, err := s.ctrl.DisplayValue(pattern)
	if err != nil {
		return Frame{}, err
	}
	f.DisplayValue = display
	return f, nil
}
