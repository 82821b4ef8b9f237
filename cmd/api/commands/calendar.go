package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskmaster/crm/internal/application/services"
	"github.com/taskmaster/crm/internal/domain/calendar"
	"github.com/taskmaster/crm/internal/domain/picker"
	"github.com/taskmaster/crm/internal/infrastructure/config"
	"github.com/taskmaster/crm/internal/infrastructure/logger"
	"github.com/taskmaster/crm/internal/ports"
)

// NewTokenCommand creates the command that mints API bearer tokens
func NewTokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API bearer token",
		Long:  "Sign a bearer token for the protected CRM endpoints using the configured auth secret",
		RunE: func(cmd *cobra.Command, args []string) error {
			subject, _ := cmd.Flags().GetString("subject")

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if cfg.Auth.Secret == "" {
				return fmt.Errorf("auth secret is not configured (AUTH_SECRET)")
			}

			token, err := services.NewAuthService(cfg.Auth, logger.NewNop()).IssueToken(subject)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, token.AccessToken)
			fmt.Fprintf(out, "Expires: %s\n", token.ExpiresAt.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().String("subject", "operator", "Name recorded in the token subject")
	return cmd
}

// NewCalendarCommand creates the calendar utility commands
func NewCalendarCommand() *cobra.Command {
	calendarCmd := &cobra.Command{
		Use:   "calendar",
		Short: "Jalali calendar utilities",
	}
	calendarCmd.PersistentFlags().String("format", "", "Display pattern, for example YYYY/MM/DD")
	calendarCmd.PersistentFlags().String("location", "Asia/Tehran", "Time zone used to read today's date")

	calendarCmd.AddCommand(&cobra.Command{
		Use:   "today",
		Short: "Print today's date in both calendars",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, pattern, err := calendarFromFlags(cmd)
			if err != nil {
				return err
			}
			conv, err := svc.Today(pattern)
			if err != nil {
				return err
			}
			printConversion(cmd.OutOrStdout(), conv)
			return nil
		},
	})

	calendarCmd.AddCommand(&cobra.Command{
		Use:   "convert <date>",
		Short: "Convert an ISO date to Jalali, or a Jalali YYYY/MM/DD date to Gregorian",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, pattern, err := calendarFromFlags(cmd)
			if err != nil {
				return err
			}

			var conv *ports.DateConversion
			if strings.Contains(calendar.ToASCII(args[0]), "/") {
				conv, err = svc.ToGregorian(args[0], pattern)
			} else {
				conv, err = svc.ToJalali(args[0], pattern)
			}
			if err != nil {
				return err
			}
			printConversion(cmd.OutOrStdout(), conv)
			return nil
		},
	})

	calendarCmd.AddCommand(&cobra.Command{
		Use:   "month <year> <month>",
		Short: "Print the day grid of a Jalali month",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := calendarFromFlags(cmd)
			if err != nil {
				return err
			}
			year, err := strconv.Atoi(calendar.ToASCII(args[0]))
			if err != nil {
				return fmt.Errorf("year %q: %w", args[0], calendar.ErrDateParse)
			}
			month, err := strconv.Atoi(calendar.ToASCII(args[1]))
			if err != nil {
				return fmt.Errorf("month %q: %w", args[1], calendar.ErrDateParse)
			}
			payload, err := svc.Month(year, month)
			if err != nil {
				return err
			}
			return printMonth(cmd.OutOrStdout(), payload)
		},
	})

	return calendarCmd
}

func calendarFromFlags(cmd *cobra.Command) (*services.CalendarService, string, error) {
	pattern, _ := cmd.Flags().GetString("format")
	location, _ := cmd.Flags().GetString("location")

	cal := config.CalendarConfig{Location: location, DisplayFormat: "YYYY/MM/DD"}
	clock, err := cal.Clock()
	if err != nil {
		return nil, "", fmt.Errorf("location %q: %w", location, err)
	}
	return services.NewCalendarService(clock, cal.DisplayFormat, ports.NopMetrics{}, logger.NewNop()), pattern, nil
}

func printConversion(out io.Writer, conv *ports.DateConversion) {
	fmt.Fprintf(out, "Gregorian: %s\n", conv.Gregorian)
	fmt.Fprintf(out, "Jalali:    %s\n", conv.Jalali)
	fmt.Fprintf(out, "Display:   %s\n", conv.Formatted)
	fmt.Fprintf(out, "Weekday:   %s\n", conv.Weekday)
}

func printMonth(out io.Writer, p picker.RenderPayload) error {
	fmt.Fprintf(out, "%s %s\n", p.MonthName, p.YearLabel)
	fmt.Fprintln(out, strings.Join(p.Weekdays, " "))

	grid, err := picker.GenerateDayGrid(p.Year, p.Month)
	if err != nil {
		return err
	}
	for week := range grid.Weeks() {
		labels := make([]string, 0, len(week))
		for _, cell := range week {
			label := cell.Label()
			if cell.Blank() {
				label = "-"
			}
			labels = append(labels, fmt.Sprintf("%3s", label))
		}
		fmt.Fprintln(out, strings.Join(labels, " "))
	}
	return nil
}
