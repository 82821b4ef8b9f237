package services

import (
	"context"
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/taskmaster/crm/internal/domain/calendar"
	"github.com/taskmaster/crm/internal/domain/entities"
	"github.com/taskmaster/crm/internal/infrastructure/logger"
	"github.com/taskmaster/crm/internal/ports"
)

const currencySuffix = " ریال"

// DashboardService computes the summary shown on the landing page
type DashboardService struct {
	store    ports.Store
	calendar *CalendarService
	printer  *message.Printer
	logger   *logger.Logger
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(store ports.Store, calendar *CalendarService, logger *logger.Logger) *DashboardService {
	return &DashboardService{
		store:    store,
		calendar: calendar,
		printer:  message.NewPrinter(language.English),
		logger:   logger,
	}
}

// GetStats counts records and sums the probability-weighted pipeline value.
func (s *DashboardService) GetStats(ctx context.Context) (*entities.DashboardStats, error) {
	customers, err := s.store.Customers().Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count customers: %w", err)
	}
	contacts, err := s.store.Contacts().Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count contacts: %w", err)
	}
	opportunities, err := s.store.Opportunities().Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count opportunities: %w", err)
	}
	weighted, err := s.store.Opportunities().SumWeightedValue(ctx)
	if err != nil {
		return nil, fmt.Errorf("sum weighted value: %w", err)
	}

	revenue := roundHundredths(weighted)
	stats := &entities.DashboardStats{
		CustomersCount:         customers,
		ContactsCount:          contacts,
		OpportunitiesCount:     opportunities,
		WeightedRevenue:        revenue,
		WeightedRevenueDisplay: s.FormatCurrency(revenue),
	}

	if today, err := s.calendar.TodayLabel(); err == nil {
		stats.Today = today
	} else {
		s.logger.Warnw("Cannot render today", "error", err)
	}

	return stats, nil
}

// FormatCurrency renders an amount of rials with grouping and local digits.
func (s *DashboardService) FormatCurrency(rials int64) string {
	return calendar.ToLocal(s.printer.Sprintf("%d", rials)) + currencySuffix
}

// roundHundredths divides by 100 rounding half away from zero.
func roundHundredths(v int64) int64 {
	if v < 0 {
		return -((-v + 50) / 100)
	}
	return (v + 50) / 100
}
