package businessflow

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/amirphl/webbuilder-crm/models"
	"github.com/amirphl/webbuilder-crm/repository"
	"github.com/amirphl/webbuilder-crm/utils"
)

// QuoteNumberPrefix returns the prefix shared by every quote number of a year, e.g. Q2025
func QuoteNumberPrefix(year int) string {
	return fmt.Sprintf("%s%04d", utils.QuoteNumberPrefix, year)
}

// FormatQuoteNumber renders Q<year><seq>, padding seq to three digits.
// Sequences past 999 keep all their digits.
func FormatQuoteNumber(year int, seq int64) string {
	return fmt.Sprintf("%s%03d", QuoteNumberPrefix(year), seq)
}

// ParseQuoteSequence extracts the sequence part of a number issued for year
func ParseQuoteSequence(number string, year int) (int64, bool) {
	rest, ok := strings.CutPrefix(number, QuoteNumberPrefix(year))
	if !ok || rest == "" {
		return 0, false
	}
	seq, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || seq < 1 {
		return 0, false
	}
	return seq, true
}

// QuoteNumberer hands out year-scoped sequential quote numbers
type QuoteNumberer interface {
	// Next must be called inside the transaction that inserts the quote
	Next(ctx context.Context, now time.Time) (string, error)
}

type QuoteNumbererImpl struct {
	quoteRepo   repository.QuoteRepository
	counterRepo repository.SequenceCounterRepository
}

func NewQuoteNumberer(quoteRepo repository.QuoteRepository, counterRepo repository.SequenceCounterRepository) QuoteNumberer {
	return &QuoteNumbererImpl{
		quoteRepo:   quoteRepo,
		counterRepo: counterRepo,
	}
}

// Next locks the per-year counter and returns the number after it. The highest
// number already stored for the year acts as a floor, so quotes imported
// without going through the counter are never reissued.
func (n *QuoteNumbererImpl) Next(ctx context.Context, now time.Time) (string, error) {
	year := now.UTC().Year()

	latest, err := n.quoteRepo.LatestNumberWithPrefix(ctx, QuoteNumberPrefix(year))
	if err != nil {
		return "", err
	}
	floor, _ := ParseQuoteSequence(latest, year)

	seq, err := n.counterRepo.Next(ctx, models.QuoteCounterName(year), floor)
	if err != nil {
		return "", err
	}
	return FormatQuoteNumber(year, seq), nil
}
