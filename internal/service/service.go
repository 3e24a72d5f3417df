// Package service orchestrates cost mutations, recomputation and the read
// models built on top of the pricing engine. Every method takes the tenant
// explicitly.
package service

import (
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/CadeStocker/producepricer/internal/pricing"
	"github.com/CadeStocker/producepricer/internal/store"
)

var (
	ErrItemNotFound    = errors.New("item not found")
	ErrReceiptNotFound = errors.New("receipt not found")
	ErrAPIKeyNotFound  = errors.New("api key not found")
	ErrUnknownSubject  = errors.New("unknown subject")
	ErrInvalidInput    = errors.New("invalid input")
)

// Options tunes the pricing engine. An invalid DesignationDefault keeps
// pricing.DefaultDesignationRate. Location sets the calendar "today" is taken
// from; nil keeps the clock's own zone.
type Options struct {
	DesignationDefault decimal.NullDecimal
	MarketLookbackDays int
	MarkupTiers        []int
	Now                func() time.Time
	Location           *time.Location
}

// Service is safe for concurrent use. Mutations of one tenant are serialized.
type Service struct {
	store  *store.Store
	opts   Options
	logger *zap.Logger

	mu    sync.Mutex
	locks map[pricing.TenantID]*sync.Mutex
}

// New builds a Service over st.
func New(st *store.Store, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if loc := opts.Location; loc != nil {
		clock := opts.Now
		opts.Now = func() time.Time { return clock().In(loc) }
	}
	if opts.MarketLookbackDays <= 0 {
		opts.MarketLookbackDays = pricing.DefaultMarketLookbackDays
	}
	if opts.MarkupTiers == nil {
		opts.MarkupTiers = pricing.DefaultMarkupTiers
	}
	return &Service{
		store:  st,
		opts:   opts,
		logger: logger,
		locks:  make(map[pricing.TenantID]*sync.Mutex),
	}
}

// lockTenant blocks until the tenant's mutation lock is held and returns
// its release func.
func (s *Service) lockTenant(tenant pricing.TenantID) func() {
	s.mu.Lock()
	l, ok := s.locks[tenant]
	if !ok {
		l = &sync.Mutex{}
		s.locks[tenant] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// engine wires the pricing components over q, which may be a transaction.
type engine struct {
	resolver  *pricing.Resolver
	calc      *pricing.Calculator
	snapshots *pricing.SnapshotStore
	comparer  *pricing.Comparer
}

func (s *Service) engine(q *store.Queries) engine {
	resolver := pricing.NewResolver(q)
	calcOpts := []pricing.CalculatorOption{}
	if s.opts.DesignationDefault.Valid {
		calcOpts = append(calcOpts, pricing.WithDesignationDefault(s.opts.DesignationDefault.Decimal))
	}
	calc := pricing.NewCalculator(resolver, calcOpts...)
	return engine{
		resolver: resolver,
		calc:     calc,
		snapshots: pricing.NewSnapshotStore(calc, q, q,
			pricing.WithClock(s.opts.Now),
			pricing.WithSnapshotLogger(s.logger.Named("snapshots"))),
		comparer: pricing.NewComparer(resolver, s.opts.MarketLookbackDays),
	}
}

func (s *Service) today() time.Time {
	return pricing.Day(s.opts.Now())
}

func (s *Service) logWarnings(tenant pricing.TenantID, itemID string, warnings []pricing.Warning) {
	for _, w := range warnings {
		s.logger.Info("cost warning",
			zap.String("tenant", string(tenant)),
			zap.String("item", itemID),
			zap.String("warning", string(w.Code)),
			zap.String("subject", w.SubjectID))
	}
}
