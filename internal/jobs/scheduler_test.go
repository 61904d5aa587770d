package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"

	"github.com/jpd-dfo/spacos/internal/domain"
	"github.com/jpd-dfo/spacos/internal/query"
)

type mockAnalyses struct {
	deleteExpiredFunc func(ctx context.Context, now time.Time) (int64, error)
}

func (m *mockAnalyses) Get(context.Context, uuid.UUID) (*domain.DocumentAnalysis, error) {
	return nil, domain.ErrNotFound
}

func (m *mockAnalyses) Upsert(context.Context, *domain.DocumentAnalysis) error { return nil }

func (m *mockAnalyses) Invalidate(context.Context, uuid.UUID) error { return nil }

func (m *mockAnalyses) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return m.deleteExpiredFunc(ctx, now)
}

type mockSPACs struct {
	deadlinesFunc func(ctx context.Context, cutoff time.Time) ([]*domain.SPAC, error)
}

func (m *mockSPACs) Create(context.Context, *domain.SPAC) error { return nil }

func (m *mockSPACs) GetByID(context.Context, uuid.UUID, uuid.UUID) (*domain.SPAC, error) {
	return nil, domain.ErrNotFound
}

func (m *mockSPACs) List(context.Context, uuid.UUID, query.Spec) ([]*domain.SPAC, int, error) {
	return nil, 0, nil
}

func (m *mockSPACs) Update(context.Context, *domain.SPAC) error { return nil }

func (m *mockSPACs) Delete(context.Context, uuid.UUID, uuid.UUID) error { return nil }

func (m *mockSPACs) ListDeadlinesBefore(ctx context.Context, cutoff time.Time) ([]*domain.SPAC, error) {
	return m.deadlinesFunc(ctx, cutoff)
}

type mockReminder struct {
	posted []*domain.SPAC
}

func (m *mockReminder) PostDeadlineReminder(spac *domain.SPAC) {
	m.posted = append(m.posted, spac)
}

func TestPurgeExpiredAnalyses(t *testing.T) {
	t.Parallel()

	var gotNow time.Time
	s := &Scheduler{
		cron: cron.New(),
		analyses: &mockAnalyses{
			deleteExpiredFunc: func(_ context.Context, now time.Time) (int64, error) {
				gotNow = now
				return 3, nil
			},
		},
	}

	s.purgeExpiredAnalyses()

	assert.WithinDuration(t, time.Now(), gotNow, time.Minute)
}

func TestRemindDeadlines(t *testing.T) {
	t.Parallel()

	deadline := time.Now().Add(10 * 24 * time.Hour)

	t.Run("posts one reminder per approaching SPAC", func(t *testing.T) {
		t.Parallel()

		var gotCutoff time.Time
		reminder := &mockReminder{}
		s := &Scheduler{
			cron: cron.New(),
			spacs: &mockSPACs{
				deadlinesFunc: func(_ context.Context, cutoff time.Time) ([]*domain.SPAC, error) {
					gotCutoff = cutoff
					return []*domain.SPAC{
						{ID: uuid.New(), Name: "Apex Acquisition", Ticker: "APEX", Deadline: &deadline},
						{ID: uuid.New(), Name: "Beacon Holdings", Ticker: "BCN", Deadline: &deadline},
					}, nil
				},
			},
			reminder: reminder,
		}

		s.remindDeadlines()

		assert.Len(t, reminder.posted, 2)
		assert.Equal(t, "APEX", reminder.posted[0].Ticker)
		assert.WithinDuration(t, time.Now().Add(reminderWindow), gotCutoff, time.Minute)
	})

	t.Run("listing failure posts nothing", func(t *testing.T) {
		t.Parallel()

		reminder := &mockReminder{}
		s := &Scheduler{
			cron: cron.New(),
			spacs: &mockSPACs{
				deadlinesFunc: func(context.Context, time.Time) ([]*domain.SPAC, error) {
					return nil, errors.New("db down")
				},
			},
			reminder: reminder,
		}

		s.remindDeadlines()

		assert.Empty(t, reminder.posted)
	})
}

func TestStartWithoutReminderSkipsDeadlineJob(t *testing.T) {
	t.Parallel()

	s := NewScheduler(
		&mockAnalyses{deleteExpiredFunc: func(context.Context, time.Time) (int64, error) { return 0, nil }},
		&mockSPACs{},
		nil,
	)

	assert.NoError(t, s.Start())
	assert.Len(t, s.cron.Entries(), 1)
	s.Stop()
}
