package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/daybreak-kr/daybreak/internal/notify"
	"github.com/daybreak-kr/daybreak/internal/report"
)

// jobTimeout bounds one full report cycle including outbound fetches.
const jobTimeout = 10 * time.Minute

// MorningJob runs the morning report cycle and delivers the result.
type MorningJob struct {
	morning  *report.Morning
	state    *report.State
	notifier notify.Notifier
	required bool // delivery failure fails the job
	log      zerolog.Logger
}

// MorningJobConfig holds configuration for the morning job
type MorningJobConfig struct {
	Log              zerolog.Logger
	Morning          *report.Morning
	State            *report.State
	Notifier         notify.Notifier
	DeliveryRequired bool
}

// NewMorningJob creates a new morning report job
func NewMorningJob(cfg MorningJobConfig) *MorningJob {
	return &MorningJob{
		morning:  cfg.Morning,
		state:    cfg.State,
		notifier: cfg.Notifier,
		required: cfg.DeliveryRequired,
		log:      cfg.Log.With().Str("job", "morning_report").Logger(),
	}
}

// Name returns the job name
func (j *MorningJob) Name() string {
	return "morning_report"
}

// Run executes the morning cycle
func (j *MorningJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	result, err := j.morning.Generate(ctx)
	if err != nil {
		return fmt.Errorf("generate morning report: %w", err)
	}

	if j.state != nil {
		j.state.SetMorning(result)
	}

	if err := deliver(ctx, j.notifier, result.Text, j.required, j.log); err != nil {
		return err
	}

	j.log.Info().
		Dur("duration", time.Since(start)).
		Int("watch_stocks", len(result.WatchStocks)).
		Msg("Morning report completed")
	return nil
}

// EveningJob marks the day's picks to market and delivers the result.
type EveningJob struct {
	evening  *report.Evening
	state    *report.State
	notifier notify.Notifier
	required bool
	log      zerolog.Logger
}

// EveningJobConfig holds configuration for the evening job
type EveningJobConfig struct {
	Log              zerolog.Logger
	Evening          *report.Evening
	State            *report.State
	Notifier         notify.Notifier
	DeliveryRequired bool
}

// NewEveningJob creates a new evening report job
func NewEveningJob(cfg EveningJobConfig) *EveningJob {
	return &EveningJob{
		evening:  cfg.Evening,
		state:    cfg.State,
		notifier: cfg.Notifier,
		required: cfg.DeliveryRequired,
		log:      cfg.Log.With().Str("job", "evening_report").Logger(),
	}
}

// Name returns the job name
func (j *EveningJob) Name() string {
	return "evening_report"
}

// Run executes the evening cycle
func (j *EveningJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	text, err := j.evening.Generate(ctx)
	if err != nil {
		return fmt.Errorf("generate evening report: %w", err)
	}

	if j.state != nil {
		j.state.SetEvening(text)
	}

	return deliver(ctx, j.notifier, text, j.required, j.log)
}

// MonthlyJob renders the month scorecard and delivers the result.
type MonthlyJob struct {
	monthly  *report.Monthly
	notifier notify.Notifier
	required bool
	log      zerolog.Logger
}

// MonthlyJobConfig holds configuration for the monthly job
type MonthlyJobConfig struct {
	Log              zerolog.Logger
	Monthly          *report.Monthly
	Notifier         notify.Notifier
	DeliveryRequired bool
}

// NewMonthlyJob creates a new monthly report job
func NewMonthlyJob(cfg MonthlyJobConfig) *MonthlyJob {
	return &MonthlyJob{
		monthly:  cfg.Monthly,
		notifier: cfg.Notifier,
		required: cfg.DeliveryRequired,
		log:      cfg.Log.With().Str("job", "monthly_report").Logger(),
	}
}

// Name returns the job name
func (j *MonthlyJob) Name() string {
	return "monthly_report"
}

// Run executes the monthly cycle
func (j *MonthlyJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	text, err := j.monthly.Generate(ctx)
	if err != nil {
		return fmt.Errorf("generate monthly report: %w", err)
	}

	return deliver(ctx, j.notifier, text, j.required, j.log)
}

// deliver sends the report text. When delivery is not required a
// failure is logged and swallowed so the pipeline result still stands.
func deliver(ctx context.Context, notifier notify.Notifier, text string, required bool, log zerolog.Logger) error {
	if notifier == nil {
		return nil
	}
	if err := notifier.Send(ctx, text); err != nil {
		if required {
			return fmt.Errorf("deliver report: %w", err)
		}
		log.Warn().Err(err).Msg("Report delivery failed")
	}
	return nil
}
