package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Status classifies a paid price against the market.
type Status string

const (
	StatusAtMarket     Status = "at_market"
	StatusAboveMarket  Status = "above_market"
	StatusBelowMarket  Status = "below_market"
	StatusNoMarketData Status = "no_market_data"
	StatusNoPricePaid  Status = "no_price_paid"
)

// DefaultMarketLookbackDays bounds how old a market cost may be.
const DefaultMarketLookbackDays = 30

// atMarketTolerance is an absolute difference, one cent.
var atMarketTolerance = decimal.New(1, -2)

var hundred = decimal.NewFromInt(100)

// Comparison is a paid price measured against the most recent market cost.
type Comparison struct {
	PaidPrice   decimal.NullDecimal `json:"paid_price"`
	MarketPrice decimal.NullDecimal `json:"market_price"`
	MarketDate  *time.Time          `json:"market_date"`
	Difference  decimal.NullDecimal `json:"difference"`
	Percentage  decimal.NullDecimal `json:"percentage"`
	Status      Status              `json:"status"`
}

// Comparer runs price comparisons with a fixed market window.
type Comparer struct {
	resolver     *Resolver
	lookbackDays int
}

// NewComparer builds a Comparer. A non-positive lookback uses the default.
func NewComparer(resolver *Resolver, lookbackDays int) *Comparer {
	if lookbackDays <= 0 {
		lookbackDays = DefaultMarketLookbackDays
	}
	return &Comparer{resolver: resolver, lookbackDays: lookbackDays}
}

// LookbackDays returns the configured market window.
func (c *Comparer) LookbackDays() int { return c.lookbackDays }

// Compare classifies paid against the subject's market cost as of asOf. When
// nothing was paid the market is not consulted.
func (c *Comparer) Compare(ctx context.Context, tenant TenantID, paid decimal.NullDecimal, subjectType SubjectType, subjectID string, asOf time.Time) (Comparison, error) {
	if !paid.Valid {
		return Comparison{Status: StatusNoPricePaid}, nil
	}

	rec, ok, err := c.resolver.Resolve(ctx, tenant, subjectType, subjectID, asOf, WithLookback(c.lookbackDays))
	if err != nil {
		return Comparison{}, fmt.Errorf("compare price: %w", err)
	}
	if !ok {
		return Comparison{PaidPrice: paid, Status: StatusNoMarketData}, nil
	}

	return Classify(paid.Decimal, rec.Value, rec.EffectiveDate), nil
}

// Classify compares a paid price with a known market price.
func Classify(paid, market decimal.Decimal, marketDate time.Time) Comparison {
	diff := paid.Sub(market)
	cmp := Comparison{
		PaidPrice:   decimal.NewNullDecimal(paid),
		MarketPrice: decimal.NewNullDecimal(market),
		MarketDate:  &marketDate,
		Difference:  decimal.NewNullDecimal(diff),
	}
	if !market.IsZero() {
		cmp.Percentage = decimal.NewNullDecimal(diff.Div(market).Mul(hundred))
	}

	switch {
	case diff.Abs().LessThan(atMarketTolerance):
		cmp.Status = StatusAtMarket
	case diff.IsNegative():
		cmp.Status = StatusBelowMarket
	default:
		cmp.Status = StatusAboveMarket
	}
	return cmp
}
