package service

import (
	"context"
	"testing"

	"github.com/bitfantasy/nimo-crm/internal/crm/events"
	"github.com/bitfantasy/nimo-crm/internal/crm/repository"
	"github.com/bitfantasy/nimo-crm/internal/crm/testutil"
	"github.com/bitfantasy/nimo-crm/internal/metrics"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// recorder collects published events.
type recorder struct {
	events []events.Event
}

func (r *recorder) Publish(_ context.Context, e events.Event) {
	r.events = append(r.events, e)
}

type fixture struct {
	db      *gorm.DB
	svc     *Services
	events  *recorder
	metrics *metrics.Metrics
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	rec := &recorder{}
	m := metrics.New()
	svc := NewServices(repository.NewRepositories(db), db, Options{
		Publisher:   rec,
		Metrics:     m,
		PhoneRegion: "CO",
	})
	require.NotNil(t, svc.Lead)
	return &fixture{db: db, svc: svc, events: rec, metrics: m}
}
