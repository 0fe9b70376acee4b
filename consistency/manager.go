package consistency

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/goliatone/go-library-records/cache"
	"github.com/goliatone/go-library-records/model"
)

// Manager mediates every mutation that crosses entity boundaries. It is
// safe for concurrent use; races between callers are decided by the
// conditional writes of the record store.
type Manager struct {
	records    Records
	cache      Invalidator
	notifier   Notifier
	logger     *zap.Logger
	now        func() time.Time
	bcryptCost int
}

// Option customises a Manager.
type Option func(*Manager)

// WithLogger sets the manager logger.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithNotifier sets the registration notifier.
func WithNotifier(n Notifier) Option {
	return func(m *Manager) {
		if n != nil {
			m.notifier = n
		}
	}
}

// WithClock overrides the time source used for borrow and return dates.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithBcryptCost sets the password hashing cost.
func WithBcryptCost(cost int) Option {
	return func(m *Manager) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			m.bcryptCost = cost
		}
	}
}

// New returns a Manager writing to records. A nil cache disables
// invalidation.
func New(records Records, c Invalidator, opts ...Option) *Manager {
	m := &Manager{
		records:    records,
		cache:      c,
		logger:     zap.NewNop(),
		now:        time.Now,
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.notifier == nil {
		m.notifier = LogNotifier{Logger: m.logger}
	}
	return m
}

type ref struct {
	kind model.Kind
	id   uuid.UUID
}

// invalidate drops every view embedding one of refs and every listing of
// their kinds.
func (m *Manager) invalidate(ctx context.Context, refs ...ref) {
	if m.cache == nil || len(refs) == 0 {
		return
	}
	tags := make([]string, 0, 2*len(refs))
	for _, r := range refs {
		if r.id != uuid.Nil {
			tags = append(tags, cache.EntityTag(r.kind, r.id))
		}
		tags = append(tags, cache.CollectionTag(r.kind))
	}
	m.cache.InvalidateTags(ctx, tags...)
}

// compensate runs undo after a failed step. A failed undo leaves records
// inconsistent, so it is logged with everything needed to repair them.
func (m *Manager) compensate(ctx context.Context, op string, cause error, undo func(context.Context) error, fields ...zap.Field) {
	// the caller's context may be the reason the step failed
	ctx = context.WithoutCancel(ctx)
	if err := undo(ctx); err != nil {
		m.logger.Error("compensation failed, records need repair",
			append(fields,
				zap.String("op", op),
				zap.NamedError("cause", cause),
				zap.Error(err))...)
		return
	}
	m.logger.Warn("compensated partial write",
		append(fields, zap.String("op", op), zap.NamedError("cause", cause))...)
}

func idField(key string, v uuid.UUID) zap.Field {
	return zap.String(key, v.String())
}
