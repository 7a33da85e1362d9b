// Package competition owns per-group competition state: which token a chat
// group is ranking, since when, for how long, and which wallets take part.
package competition

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"go.uber.org/zap"

	"solana-buy-ranking/internal/domain"
	"solana-buy-ranking/internal/observability"
	"solana-buy-ranking/internal/solana"
	"solana-buy-ranking/internal/storage"
)

// Duration bounds for Start, in days.
const (
	MinDurationDays = 1
	MaxDurationDays = 365
)

var (
	// ErrInvalidAddress is returned for a target token or wallet that is not
	// a well-formed address. The registry is left untouched.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrInvalidDuration is returned for a day count outside the allowed range.
	ErrInvalidDuration = errors.New("invalid duration")

	// ErrInvalidGroup is returned for an empty group or user identifier.
	ErrInvalidGroup = errors.New("invalid group")
)

// lockStripes is the number of mutexes shared by all groups.
const lockStripes = 64

// Registry is the single-slot-per-group competition store. Start is the only
// writer of competitions; ranking queries read through Get.
type Registry struct {
	competitions storage.CompetitionStore
	wallets      storage.WalletStore
	clock        func() time.Time
	logger       *zap.Logger

	locks [lockStripes]sync.RWMutex
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock overrides time.Now, for tests.
func WithClock(clock func() time.Time) Option {
	return func(r *Registry) {
		r.clock = clock
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry creates a Registry over the given stores.
func NewRegistry(competitions storage.CompetitionStore, wallets storage.WalletStore, opts ...Option) *Registry {
	r := &Registry{
		competitions: competitions,
		wallets:      wallets,
		clock:        time.Now,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// StartResult describes a successful Start.
type StartResult struct {
	Competition *domain.Competition
	// Replaced is the competition that was overwritten, if one was still active.
	Replaced *domain.Competition
}

// Start validates the token and duration, then stores a new competition
// starting now. Any previous competition for the group is overwritten.
func (r *Registry) Start(ctx context.Context, groupID, targetToken string, durationDays int) (*StartResult, error) {
	if groupID == "" {
		return nil, ErrInvalidGroup
	}
	if err := solana.ValidateAddress(targetToken); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if durationDays < MinDurationDays || durationDays > MaxDurationDays {
		return nil, fmt.Errorf("%w: %d days, want %d-%d", ErrInvalidDuration, durationDays, MinDurationDays, MaxDurationDays)
	}

	mu := r.lockFor(groupID)
	mu.Lock()
	defer mu.Unlock()

	now := r.clock().UTC()

	prev, err := r.competitions.Get(ctx, groupID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("load competition %s: %w", groupID, err)
	}

	c := &domain.Competition{
		GroupID:     groupID,
		TargetToken: targetToken,
		StartTime:   now,
		Duration:    time.Duration(durationDays) * 24 * time.Hour,
	}
	if err := r.competitions.Put(ctx, c); err != nil {
		return nil, fmt.Errorf("store competition %s: %w", groupID, err)
	}

	result := &StartResult{Competition: c}
	if prev != nil && prev.StatusAt(now) == domain.StatusActive {
		result.Replaced = prev
	}

	observability.RecordCompetitionStarted()
	r.logger.Info("competition started",
		zap.String("group", groupID),
		zap.String("token", targetToken),
		zap.Int("days", durationDays),
		zap.Bool("replaced", result.Replaced != nil),
	)
	return result, nil
}

// Get returns the group's competition and its status at the current time.
// A group without a competition yields (nil, StatusNoCompetition, nil).
func (r *Registry) Get(ctx context.Context, groupID string) (*domain.Competition, domain.CompetitionStatus, error) {
	mu := r.lockFor(groupID)
	mu.RLock()
	defer mu.RUnlock()

	c, err := r.competitions.Get(ctx, groupID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, domain.StatusNoCompetition, nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("load competition %s: %w", groupID, err)
	}
	return c, c.StatusAt(r.clock()), nil
}

// RegisterWallet links userID to wallet inside the group. The wallet must be
// an on-curve key, so program derived addresses are rejected. Registering
// again replaces the user's previous wallet.
func (r *Registry) RegisterWallet(ctx context.Context, groupID, userID, wallet string) (*domain.WalletRegistration, error) {
	if groupID == "" || userID == "" {
		return nil, ErrInvalidGroup
	}
	if err := solana.ValidateAddress(wallet); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if !solana.IsOnCurve(wallet) {
		return nil, fmt.Errorf("%w: %s is not an on-curve wallet key", ErrInvalidAddress, wallet)
	}

	mu := r.lockFor(groupID)
	mu.Lock()
	defer mu.Unlock()

	reg := &domain.WalletRegistration{
		GroupID:      groupID,
		UserID:       userID,
		Wallet:       wallet,
		RegisteredAt: r.clock().UTC(),
	}
	if err := r.wallets.Put(ctx, reg); err != nil {
		return nil, fmt.Errorf("store wallet for %s/%s: %w", groupID, userID, err)
	}

	observability.RecordWalletRegistered()
	r.logger.Info("wallet registered",
		zap.String("group", groupID),
		zap.String("user", userID),
		zap.String("wallet", wallet),
	)
	return reg, nil
}

// Wallets returns the group's registered wallet addresses, deduplicated,
// ordered by user ID.
func (r *Registry) Wallets(ctx context.Context, groupID string) ([]string, error) {
	mu := r.lockFor(groupID)
	mu.RLock()
	defer mu.RUnlock()

	regs, err := r.wallets.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list wallets %s: %w", groupID, err)
	}

	seen := make(map[string]bool, len(regs))
	out := make([]string, 0, len(regs))
	for _, reg := range regs {
		if seen[reg.Wallet] {
			continue
		}
		seen[reg.Wallet] = true
		out = append(out, reg.Wallet)
	}
	return out, nil
}

func (r *Registry) lockFor(groupID string) *sync.RWMutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(groupID))
	return &r.locks[h.Sum32()%lockStripes]
}
