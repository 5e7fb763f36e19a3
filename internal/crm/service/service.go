package service

import (
	"context"

	"github.com/bitfantasy/nimo-crm/internal/crm/events"
	"github.com/bitfantasy/nimo-crm/internal/crm/repository"
	"github.com/bitfantasy/nimo-crm/internal/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DateLayout is the wire format of every calendar date field.
const DateLayout = "2006-01-02"

// Options carries the collaborators shared by all services. Zero values are
// replaced with no-op implementations.
type Options struct {
	Logger      *zap.Logger
	Publisher   events.Publisher
	Metrics     *metrics.Metrics
	PhoneRegion string
}

// Services groups the CRM services.
type Services struct {
	Lead         *LeadService
	ActiveClient *ActiveClientService
	Lifecycle    *LifecycleService
	Dropped      *DroppedClientService
	Export       *ExportService
}

func NewServices(repos *repository.Repositories, db *gorm.DB, opts Options) *Services {
	b := newBase(repos, db, opts)
	return &Services{
		Lead:         &LeadService{base: b},
		ActiveClient: &ActiveClientService{base: b},
		Lifecycle:    &LifecycleService{base: b},
		Dropped:      &DroppedClientService{base: b},
		Export:       &ExportService{base: b},
	}
}

type base struct {
	db          *gorm.DB
	repos       *repository.Repositories
	logger      *zap.Logger
	publisher   events.Publisher
	metrics     *metrics.Metrics
	phoneRegion string
}

func newBase(repos *repository.Repositories, db *gorm.DB, opts Options) *base {
	b := &base{
		db:          db,
		repos:       repos,
		logger:      opts.Logger,
		publisher:   opts.Publisher,
		metrics:     opts.Metrics,
		phoneRegion: opts.PhoneRegion,
	}
	if b.logger == nil {
		b.logger = zap.NewNop()
	}
	if b.publisher == nil {
		b.publisher = events.Nop{}
	}
	return b
}

// inTx runs fn in one transaction with repositories bound to it.
func (b *base) inTx(ctx context.Context, fn func(repos *repository.Repositories) error) error {
	return b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(repository.WithTx(tx))
	})
}

// notify must only be called after the change is committed.
func (b *base) notify(ctx context.Context, board, id, action string) {
	b.publisher.Publish(ctx, events.NewBoardChange(board, id, action))
}
