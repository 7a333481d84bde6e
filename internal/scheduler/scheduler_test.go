package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daybreak-kr/daybreak/internal/report"
)

type stubJob struct {
	name string
	runs int
	err  error
}

func (j *stubJob) Name() string { return j.name }

func (j *stubJob) Run() error {
	j.runs++
	return j.err
}

type stubNotifier struct {
	sent []string
	err  error
}

func (n *stubNotifier) Send(_ context.Context, text string) error {
	n.sent = append(n.sent, text)
	return n.err
}

func TestAddJobValidSchedules(t *testing.T) {
	s := New(zerolog.Nop(), report.KST)

	for _, schedule := range []string{"30 7 * * 1-5", "0 17 28 * *", "@hourly"} {
		err := s.AddJob(schedule, &stubJob{name: "j"})
		assert.NoError(t, err, schedule)
	}
}

func TestAddJobInvalidSchedule(t *testing.T) {
	s := New(zerolog.Nop(), report.KST)

	err := s.AddJob("not a cron", &stubJob{name: "j"})
	assert.Error(t, err)
}

func TestRunNow(t *testing.T) {
	s := New(zerolog.Nop(), report.KST)
	job := &stubJob{name: "j"}

	require.NoError(t, s.RunNow(job))
	assert.Equal(t, 1, job.runs)

	job.err = errors.New("boom")
	assert.Error(t, s.RunNow(job))
}

func TestDeliverOptionalSwallowsFailure(t *testing.T) {
	n := &stubNotifier{err: errors.New("network down")}

	err := deliver(context.Background(), n, "report", false, zerolog.Nop())
	assert.NoError(t, err)
	assert.Len(t, n.sent, 1)
}

func TestDeliverRequiredPropagatesFailure(t *testing.T) {
	n := &stubNotifier{err: errors.New("network down")}

	err := deliver(context.Background(), n, "report", true, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deliver report")
}

func TestDeliverNilNotifier(t *testing.T) {
	assert.NoError(t, deliver(context.Background(), nil, "report", true, zerolog.Nop()))
}
