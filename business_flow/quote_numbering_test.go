package businessflow

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/amirphl/webbuilder-crm/app/dto"
	"github.com/amirphl/webbuilder-crm/models"
	"github.com/amirphl/webbuilder-crm/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestFormatQuoteNumber(t *testing.T) {
	tests := []struct {
		year int
		seq  int64
		want string
	}{
		{2025, 1, "Q2025001"},
		{2025, 42, "Q2025042"},
		{2025, 999, "Q2025999"},
		{2025, 1000, "Q20251000"},
		{2026, 12345, "Q202612345"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatQuoteNumber(tt.year, tt.seq))
		})
	}
}

func TestParseQuoteSequence(t *testing.T) {
	tests := []struct {
		number string
		year   int
		want   int64
		ok     bool
	}{
		{"Q2025001", 2025, 1, true},
		{"Q20251000", 2025, 1000, true},
		{"Q2024999", 2025, 0, false},
		{"Q2025", 2025, 0, false},
		{"Q2025abc", 2025, 0, false},
		{"", 2025, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.number, func(t *testing.T) {
			got, ok := ParseQuoteSequence(tt.number, tt.year)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

// collidingQuoteRepo reports a unique violation for the first collisions inserts
type collidingQuoteRepo struct {
	repository.QuoteRepository
	collisions int
	calls      int
}

func (r *collidingQuoteRepo) Save(ctx context.Context, quote *models.Quote) error {
	r.calls++
	if r.calls <= r.collisions {
		return fmt.Errorf("failed to save entity: %w", gorm.ErrDuplicatedKey)
	}
	return r.QuoteRepository.Save(ctx, quote)
}

func createBareQuote(t *testing.T, flow QuoteFlow) *dto.QuoteDTO {
	t.Helper()
	q, err := flow.CreateQuote(context.Background(), &dto.CreateQuoteRequest{
		ClientName:  "Ada Lovelace",
		ClientEmail: "ada@example.com",
	}, nil)
	require.NoError(t, err)
	return q
}

func TestQuoteNumbering_SequentialPerYear(t *testing.T) {
	env := newFlowEnv(t)
	flow := env.quoteFlow(nil)

	assert.Equal(t, "Q2025001", createBareQuote(t, flow).QuoteNumber)
	assert.Equal(t, "Q2025002", createBareQuote(t, flow).QuoteNumber)
	assert.Equal(t, "Q2025003", createBareQuote(t, flow).QuoteNumber)

	env.clock.Set(time.Date(2026, 1, 1, 0, 0, 5, 0, time.UTC))
	assert.Equal(t, "Q2026001", createBareQuote(t, flow).QuoteNumber)

	current, err := env.counterRepo.Current(context.Background(), models.QuoteCounterName(2025))
	require.NoError(t, err)
	assert.Equal(t, int64(3), current)
}

func TestQuoteNumbering_WidensPast999(t *testing.T) {
	env := newFlowEnv(t)
	flow := env.quoteFlow(nil)

	_, err := env.fixtures.CreateQuote("Q2025999", models.QuoteStatusDraft, testNow.AddDate(0, 1, 0), nil)
	require.NoError(t, err)

	assert.Equal(t, "Q20251000", createBareQuote(t, flow).QuoteNumber)
	assert.Equal(t, "Q20251001", createBareQuote(t, flow).QuoteNumber)
}

func TestQuoteNumbering_SkipsImportedNumbers(t *testing.T) {
	env := newFlowEnv(t)
	flow := env.quoteFlow(nil)

	assert.Equal(t, "Q2025001", createBareQuote(t, flow).QuoteNumber)
	_, err := env.fixtures.CreateQuote("Q2025007", models.QuoteStatusSent, testNow.AddDate(0, 1, 0), nil)
	require.NoError(t, err)

	assert.Equal(t, "Q2025008", createBareQuote(t, flow).QuoteNumber)
}

func TestQuoteNumbering_RetriesCollisions(t *testing.T) {
	env := newFlowEnv(t)
	repo := &collidingQuoteRepo{QuoteRepository: env.quoteRepo, collisions: 2}
	flow := env.quoteFlow(repo)

	q := createBareQuote(t, flow)

	assert.Equal(t, 3, repo.calls)
	assert.Equal(t, "Q2025001", q.QuoteNumber)
	assert.Contains(t, env.logs.String(), "collided on attempt 2")
}

func TestQuoteNumbering_ConflictAfterBoundedRetries(t *testing.T) {
	env := newFlowEnv(t)
	repo := &collidingQuoteRepo{QuoteRepository: env.quoteRepo, collisions: 1000}
	flow := env.quoteFlow(repo)

	_, err := flow.CreateQuote(context.Background(), &dto.CreateQuoteRequest{
		ClientName:  "Ada Lovelace",
		ClientEmail: "ada@example.com",
	}, nil)

	require.Error(t, err)
	assert.True(t, IsNumberingConflict(err))
	assert.Equal(t, "QUOTE_NUMBER_CONFLICT", ErrorCode(err))
	assert.Equal(t, DefaultQuoteSettings().NumberingAttempts, repo.calls)
	assert.Contains(t, env.logs.String(), "giving up after 5 attempts")

	count, err := env.quoteRepo.Count(context.Background(), models.QuoteFilter{})
	require.NoError(t, err)
	assert.Zero(t, count)

	current, err := env.counterRepo.Current(context.Background(), models.QuoteCounterName(2025))
	require.NoError(t, err)
	assert.Zero(t, current, "rolled back attempts leave the counter untouched")
}

func TestQuoteNumbering_ConcurrentCreatesGetDistinctNumbers(t *testing.T) {
	env := newFlowEnv(t)
	flow := env.quoteFlow(nil)

	const workers = 20
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers = make(map[string]struct{}, workers)
		errs    []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			q, err := flow.CreateQuote(context.Background(), &dto.CreateQuoteRequest{
				ClientName:  fmt.Sprintf("Client %d", i),
				ClientEmail: fmt.Sprintf("client%d@example.com", i),
			}, nil)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			numbers[q.QuoteNumber] = struct{}{}
		}(i)
	}
	wg.Wait()

	require.Empty(t, errs)
	assert.Len(t, numbers, workers)

	count, err := env.quoteRepo.Count(context.Background(), models.QuoteFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(workers), count)

	current, err := env.counterRepo.Current(context.Background(), models.QuoteCounterName(2025))
	require.NoError(t, err)
	assert.Equal(t, int64(workers), current)
}
