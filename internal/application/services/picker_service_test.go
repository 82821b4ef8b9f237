package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmaster/crm/internal/domain/calendar"
	"github.com/taskmaster/crm/internal/domain/picker"
	"github.com/taskmaster/crm/internal/infrastructure/logger"
	"github.com/taskmaster/crm/internal/ports"
)

func newTestPickers(ttl time.Duration, metrics ports.Metrics) *PickerService {
	return NewPickerService(fixedNow, "YYYY/MM/DD", ttl, metrics, logger.NewNop())
}

func TestPickerService_Lifecycle(t *testing.T) {
	metrics := newRecordingMetrics()
	svc := newTestPickers(0, metrics)

	state, err := svc.Open(ports.OpenPickerRequest{})
	require.NoError(t, err)
	assert.Equal(t, "open", state.Status)
	require.NotNil(t, state.View)
	assert.Equal(t, picker.ViewState{DisplayedYear: 1403, DisplayedMonth: 10}, *state.View)
	require.NotNil(t, state.Payload)
	assert.Equal(t, "دی", state.Payload.MonthName)
	assert.Empty(t, state.Value)
	assert.Equal(t, 1, metrics.sessions)

	state, err = svc.Next(state.ID)
	require.NoError(t, err)
	assert.Equal(t, 11, state.View.DisplayedMonth)

	state, err = svc.Prev(state.ID)
	require.NoError(t, err)
	state, err = svc.Prev(state.ID)
	require.NoError(t, err)
	assert.Equal(t, 9, state.View.DisplayedMonth)

	state, err = svc.Select(state.ID, ports.SelectDayRequest{Day: 1})
	require.NoError(t, err)
	assert.Equal(t, "closed", state.Status)
	assert.Nil(t, state.Payload)
	assert.Equal(t, "2024-11-21", state.Value)
	assert.Equal(t, "۱۴۰۳/۰۹/۰۱", state.DisplayValue)
	assert.Equal(t, int64(1), metrics.selections.Load())

	_, err = svc.Next(state.ID)
	assert.ErrorIs(t, err, picker.ErrPickerClosed)

	state, err = svc.Focus(state.ID, ports.FocusPickerRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, state.Payload.HighlightDay)

	state, err = svc.Dismiss(state.ID)
	require.NoError(t, err)
	assert.Equal(t, "closed", state.Status)
	assert.Equal(t, "2024-11-21", state.Value)

	require.NoError(t, svc.Close(state.ID))
	assert.Equal(t, 0, metrics.sessions)

	_, err = svc.Get(state.ID)
	assert.ErrorIs(t, err, ErrPickerSessionNotFound)
	assert.ErrorIs(t, svc.Close(state.ID), ErrPickerSessionNotFound)
}

func TestPickerService_OpenWithAssociatedDate(t *testing.T) {
	svc := newTestPickers(0, nil)

	state, err := svc.Open(ports.OpenPickerRequest{AssociatedDate: "2025-03-20"})
	require.NoError(t, err)
	assert.Equal(t, picker.ViewState{DisplayedYear: 1403, DisplayedMonth: 12}, *state.View)
	assert.Equal(t, 30, state.Payload.HighlightDay)
	assert.Equal(t, "۱۴۰۳/۱۲/۳۰", state.DisplayValue)

	_, err = svc.Open(ports.OpenPickerRequest{AssociatedDate: "not-a-date"})
	assert.ErrorIs(t, err, calendar.ErrDateParse)

	state, err = svc.Focus(state.ID, ports.FocusPickerRequest{AssociatedDate: "2024-03-20"})
	require.NoError(t, err)
	assert.Equal(t, picker.ViewState{DisplayedYear: 1403, DisplayedMonth: 1}, *state.View)
}

func TestPickerService_FailedFocusKeepsSession(t *testing.T) {
	svc := newTestPickers(0, nil)
	state, err := svc.Open(ports.OpenPickerRequest{AssociatedDate: "2024-12-23"})
	require.NoError(t, err)
	state, err = svc.Dismiss(state.ID)
	require.NoError(t, err)

	_, err = svc.Focus(state.ID, ports.FocusPickerRequest{AssociatedDate: "0500-01-01"})
	assert.ErrorIs(t, err, calendar.ErrInvalidDate)

	state, err = svc.Get(state.ID)
	require.NoError(t, err)
	assert.Equal(t, "closed", state.Status)
	assert.Equal(t, "2024-12-23", state.Value)

	state, err = svc.Focus(state.ID, ports.FocusPickerRequest{})
	require.NoError(t, err)
	assert.Equal(t, "open", state.Status)
	assert.Equal(t, picker.ViewState{DisplayedYear: 1403, DisplayedMonth: 10}, *state.View)
	assert.Equal(t, 3, state.Payload.HighlightDay)
}

func TestPickerService_SelectInvalidDay(t *testing.T) {
	metrics := newRecordingMetrics()
	svc := newTestPickers(0, metrics)
	state, err := svc.Open(ports.OpenPickerRequest{})
	require.NoError(t, err)

	_, err = svc.Select(state.ID, ports.SelectDayRequest{Day: 31})
	assert.ErrorIs(t, err, calendar.ErrInvalidDate)
	assert.Zero(t, metrics.selections.Load())

	state, err = svc.Get(state.ID)
	require.NoError(t, err)
	assert.Equal(t, "open", state.Status)
}

func TestPickerService_UnknownSession(t *testing.T) {
	svc := newTestPickers(0, nil)
	_, err := svc.Prev(uuid.New())
	assert.ErrorIs(t, err, ErrPickerSessionNotFound)
}

func TestPickerService_Sweep(t *testing.T) {
	metrics := newRecordingMetrics()
	svc := newTestPickers(time.Minute, metrics)

	for i := 0; i < 3; i++ {
		_, err := svc.Open(ports.OpenPickerRequest{})
		require.NoError(t, err)
	}
	assert.Equal(t, 3, svc.Len())

	assert.Zero(t, svc.Sweep(fixedNow().Add(30*time.Second)))
	assert.Equal(t, 3, svc.Sweep(fixedNow().Add(2*time.Minute)))
	assert.Zero(t, svc.Len())
	assert.Equal(t, 0, metrics.sessions)

	assert.Zero(t, newTestPickers(0, nil).Sweep(fixedNow().Add(time.Hour)))
}

func TestPickerService_RunStopsWithContext(t *testing.T) {
	svc := newTestPickers(time.Minute, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		svc.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestPickerService_Concurrent(t *testing.T) {
	svc := newTestPickers(0, nil)
	state, err := svc.Open(ports.OpenPickerRequest{})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_, _ = svc.Next(state.ID)
			} else {
				_, _ = svc.Prev(state.ID)
			}
			_, _ = svc.Get(state.ID)
		}(i)
	}
	wg.Wait()

	state, err = svc.Get(state.ID)
	require.NoError(t, err)
	assert.Equal(t, picker.ViewState{DisplayedYear: 1403, DisplayedMonth: 10}, *state.View)
}
