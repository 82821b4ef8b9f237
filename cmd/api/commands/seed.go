package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/taskmaster/crm/internal/application/services"
	"github.com/taskmaster/crm/internal/domain/calendar"
	"github.com/taskmaster/crm/internal/domain/entities"
	"github.com/taskmaster/crm/internal/infrastructure/logger"
	"github.com/taskmaster/crm/internal/ports"
)

// NewSeedCommand creates the seed command that loads demo records
func NewSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load demo customers, contacts and opportunities",
		Long:  "Insert a small demo data set into the configured record store. Contact dates are given in the Jalali calendar.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, appLogger, err := loadRuntime()
			if err != nil {
				return err
			}
			defer appLogger.Sync()

			deps, err := openStore(cmd.Context(), cfg, appLogger)
			if err != nil {
				return err
			}
			defer deps.Store.Close()

			clock, err := cfg.Calendar.Clock()
			if err != nil {
				return err
			}
			dates := services.NewCalendarService(clock, cfg.Calendar.DisplayFormat, ports.NopMetrics{}, appLogger)

			return seed(cmd.Context(), cmd.OutOrStdout(), deps.Store, dates, appLogger.WithComponent("seed"))
		},
	}
}

type seedContact struct {
	jalali      string
	kind        entities.ContactType
	description string
}

type seedOpportunity struct {
	name        string
	value       int64
	stage       entities.Stage
	closeJalali string
}

type seedCustomer struct {
	customer      ports.CreateCustomerRequest
	contacts      []seedContact
	opportunities []seedOpportunity
}

var demoData = []seedCustomer{
	{
		customer: ports.CreateCustomerRequest{Name: "علی رضایی", Phone: "09121234567", Email: "ali@parsian.example", Company: "پارسیان", Address: "تهران، خیابان ولیعصر"},
		contacts: []seedContact{
			{jalali: "1403/09/15", kind: entities.ContactTypeCall, description: "پیگیری پیش‌فاکتور"},
			{jalali: "1403/10/03", kind: entities.ContactTypeMeeting, description: "جلسه معرفی محصول"},
		},
		opportunities: []seedOpportunity{
			{name: "استقرار نرم‌افزار حسابداری", value: 150_000_000, stage: entities.StageProposal, closeJalali: "1403/12/30"},
		},
	},
	{
		customer: ports.CreateCustomerRequest{Name: "مریم احمدی", Phone: "09351112233", Company: "آوا", Address: "اصفهان"},
		contacts: []seedContact{
			{jalali: "1403/10/01", kind: entities.ContactTypeEmail, description: "ارسال کاتالوگ"},
		},
		opportunities: []seedOpportunity{
			{name: "قرارداد پشتیبانی سالانه", value: 40_000_000, stage: entities.StageNegotiation, closeJalali: "1404/01/20"},
			{name: "آموزش کاربران", value: 12_000_000, stage: entities.StageWon},
		},
	},
	{
		customer: ports.CreateCustomerRequest{Name: "Reza Karimi", Phone: "+98 21 8888 0000", Email: "reza@karimi.example", Company: "Karimi Trading"},
		contacts: []seedContact{
			{jalali: "۱۴۰۳/۰۸/۲۸", kind: entities.ContactTypeOther, description: "Met at the trade fair"},
		},
	},
}

// jalaliToISO turns a Jalali date in ASCII or local digits into an ISO date.
func jalaliToISO(jalali string) (string, error) {
	j, err := calendar.ParseJalaliDate(jalali)
	if err != nil {
		return "", err
	}
	g, err := calendar.JalaliToGregorian(j)
	if err != nil {
		return "", err
	}
	return g.String(), nil
}

func seed(ctx context.Context, out io.Writer, store ports.Store, dates *services.CalendarService, log *logger.Logger) error {
	customers := services.NewCustomerService(store.Customers(), log)
	contacts := services.NewContactService(store.Contacts(), store.Customers(), dates, log)
	opportunities := services.NewOpportunityService(store.Opportunities(), store.Customers(), dates, log)

	var nContacts, nOpportunities int
	for _, item := range demoData {
		customer, err := customers.CreateCustomer(ctx, item.customer)
		if err != nil {
			return fmt.Errorf("seed customer %q: %w", item.customer.Name, err)
		}

		for _, c := range item.contacts {
			iso, err := jalaliToISO(c.jalali)
			if err != nil {
				return fmt.Errorf("seed contact date %q: %w", c.jalali, err)
			}
			if _, err := contacts.CreateContact(ctx, ports.CreateContactRequest{
				CustomerID:  customer.ID,
				Type:        c.kind,
				Date:        iso,
				Description: c.description,
			}); err != nil {
				return fmt.Errorf("seed contact: %w", err)
			}
			nContacts++
		}

		for _, o := range item.opportunities {
			req := ports.CreateOpportunityRequest{
				Name:       o.name,
				CustomerID: customer.ID,
				Value:      o.value,
				Stage:      o.stage,
			}
			if o.closeJalali != "" {
				if req.ExpectedCloseDate, err = jalaliToISO(o.closeJalali); err != nil {
					return fmt.Errorf("seed close date %q: %w", o.closeJalali, err)
				}
			}
			if _, err := opportunities.CreateOpportunity(ctx, req); err != nil {
				return fmt.Errorf("seed opportunity %q: %w", o.name, err)
			}
			nOpportunities++
		}
	}

	fmt.Fprintf(out, "Seeded %d customers, %d contacts, %d opportunities\n", len(demoData), nContacts, nOpportunities)
	return nil
}
