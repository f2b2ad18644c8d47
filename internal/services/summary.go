package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/payperiod"
	"fintrack/internal/ports"
)

const (
	summaryCacheSize = 24
	// DefaultSummaryCacheTTL bounds how long a summary can miss writes made
	// by another process sharing the store.
	DefaultSummaryCacheTTL = 10 * time.Minute
)

type (
	CategorySpend struct {
		CategoryID string `json:"category_id"`
		Name       string `json:"name"`
		Spent      int64  `json:"spent_cents"`
		Budget     int64  `json:"budget_cents"`
		// Remaining is Budget minus Spent; negative when overspent.
		Remaining int64 `json:"remaining_cents"`
	}

	PeriodSummary struct {
		Start            core.Date       `json:"start"`
		End              core.Date       `json:"end"`
		Key              string          `json:"key"`
		IncomeCents      int64           `json:"income_cents"`
		ExpenseCents     int64           `json:"expense_cents"`
		NetCents         int64           `json:"net_cents"`
		Net              string          `json:"net"`
		TransactionCount int             `json:"transaction_count"`
		Categories       []CategorySpend `json:"categories"`
	}
)

// SummaryStore is the read side a SummaryService aggregates over.
type SummaryStore interface {
	ports.TransactionReader
	ListCategories(ctx context.Context) ([]core.Category, error)
}

// SummaryService aggregates transactions per pay period, caching results by
// period key until a write touches the period.
type SummaryService struct {
	store SummaryStore
	loc   *time.Location
	cache *cache.LRUCache[PeriodSummary]
}

// NewSummaryService caches summaries for ttl; a non-positive ttl selects
// DefaultSummaryCacheTTL.
func NewSummaryService(store SummaryStore, loc *time.Location, ttl time.Duration) *SummaryService {
	if loc == nil {
		loc = time.Local
	}
	if ttl <= 0 {
		ttl = DefaultSummaryCacheTTL
	}
	return &SummaryService{
		store: store,
		loc:   loc,
		cache: cache.NewLRUCache[PeriodSummary](summaryCacheSize, ttl),
	}
}

// Cache exposes the summary cache for registration with a cleanup manager.
func (s *SummaryService) Cache() *cache.LRUCache[PeriodSummary] { return s.cache }

// Period returns the pay period containing ref in the service location.
func (s *SummaryService) Period(ref time.Time) payperiod.Period {
	return payperiod.Current(ref.In(s.loc))
}

// ForDate summarises the pay period containing ref.
func (s *SummaryService) ForDate(ctx context.Context, ref time.Time) (PeriodSummary, error) {
	period := s.Period(ref)
	if cached, ok := s.cache.Get(period.Key); ok {
		return cached, nil
	}

	txs, err := s.store.ListTransactions(ctx, period.Start, period.End)
	if err != nil {
		return PeriodSummary{}, fmt.Errorf("list transactions: %w", err)
	}
	cats, err := s.store.ListCategories(ctx)
	if err != nil {
		return PeriodSummary{}, fmt.Errorf("list categories: %w", err)
	}

	sum := summarize(period, txs, cats)
	s.cache.Set(period.Key, sum)

	slog.DebugContext(ctx, "Pay period summary computed",
		"period", period.Key,
		"transactions", sum.TransactionCount)
	return sum, nil
}

// Invalidate drops the cached summary of the period containing day.
func (s *SummaryService) Invalidate(day core.Date) {
	ref := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, s.loc)
	s.cache.Delete(payperiod.CurrentKey(ref))
}

func summarize(period payperiod.Period, txs []core.Transaction, cats []core.Category) PeriodSummary {
	sum := PeriodSummary{
		Start: period.Start,
		End:   period.End,
		Key:   period.Key,
	}

	byID := make(map[string]*CategorySpend, len(cats))
	order := make([]string, 0, len(cats))
	for _, c := range cats {
		if c.Kind != core.Expense {
			continue
		}
		byID[c.ID] = &CategorySpend{CategoryID: c.ID, Name: c.Name, Budget: c.Budget.Cents}
		order = append(order, c.ID)
	}

	for _, t := range txs {
		if !period.Contains(t.Date) {
			continue
		}
		sum.TransactionCount++
		switch t.Type {
		case core.Income:
			sum.IncomeCents += t.Amount.Cents
		case core.Expense:
			sum.ExpenseCents += t.Amount.Cents
			if cs, ok := byID[t.CategoryID]; ok {
				cs.Spent += t.Amount.Cents
			}
		}
	}
	sum.NetCents = sum.IncomeCents - sum.ExpenseCents
	sum.Net = decimal.New(sum.NetCents, -2).StringFixed(2)

	sum.Categories = make([]CategorySpend, 0, len(order))
	for _, id := range order {
		cs := byID[id]
		cs.Remaining = cs.Budget - cs.Spent
		sum.Categories = append(sum.Categories, *cs)
	}
	sort.SliceStable(sum.Categories, func(i, j int) bool {
		return sum.Categories[i].Spent > sum.Categories[j].Spent
	})
	return sum
}
