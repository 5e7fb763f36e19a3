package service

import (
	"context"
	"testing"

	"github.com/bitfantasy/nimo-crm/internal/crm/entity"
	"github.com/bitfantasy/nimo-crm/internal/crm/events"
	"github.com/bitfantasy/nimo-crm/internal/crm/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestDroppedClientService_UpdateKeepsSnapshot(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	lead := testutil.SeedLead(t, f.db, entity.StageContactado)
	dropped, err := f.svc.Lifecycle.DropLead(ctx, lead.ID, dropReq(), "u-1")
	require.NoError(t, err)
	f.events.events = nil

	updated, err := f.svc.Dropped.Update(ctx, dropped.ID, UpdateDroppedRequest{
		Reason:      strPtr("Sin presupuesto"),
		DroppedDate: strPtr("2024-02-20"),
	}, "u-2")
	require.NoError(t, err)
	assert.Equal(t, "Sin presupuesto", updated.Reason)
	assert.Equal(t, "2024-02-20", updated.DroppedDate)
	assert.Equal(t, dropped.OriginalData, updated.OriginalData, "snapshot is frozen")
	assert.Equal(t, lead.ID, updated.OriginalID)

	logs, err := f.svc.Dropped.Activity(ctx, dropped.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, entity.ActionUpdate, logs[0].Action)
	assert.Equal(t, "u-2", logs[0].OperatorID)

	require.Len(t, f.events.events, 1)
	assert.Equal(t, events.EventBoardChange, f.events.events[0].EventType)

	// Partial edit leaves the other field alone.
	updated, err = f.svc.Dropped.Update(ctx, dropped.ID, UpdateDroppedRequest{Reason: strPtr("Cambio de proveedor")}, "u-2")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-20", updated.DroppedDate)
}

func TestDroppedClientService_UpdateValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	lead := testutil.SeedLead(t, f.db, entity.StageContactado)
	dropped, err := f.svc.Lifecycle.DropLead(ctx, lead.ID, dropReq(), "u-1")
	require.NoError(t, err)

	_, err = f.svc.Dropped.Update(ctx, dropped.ID, UpdateDroppedRequest{Reason: strPtr("   ")}, "u-1")
	assert.ErrorIs(t, err, ErrReasonRequired)

	_, err = f.svc.Dropped.Update(ctx, dropped.ID, UpdateDroppedRequest{DroppedDate: strPtr("15/01/2024")}, "u-1")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.Dropped.Update(ctx, dropped.ID, UpdateDroppedRequest{DroppedDate: strPtr("")}, "u-1")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.Dropped.Update(ctx, "missing", UpdateDroppedRequest{Reason: strPtr("X")}, "u-1")
	assert.ErrorIs(t, err, ErrNotFound)

	stored, err := f.svc.Dropped.Get(ctx, dropped.ID)
	require.NoError(t, err)
	assert.Equal(t, "X", stored.Reason)
	assert.Equal(t, "2024-01-15", stored.DroppedDate)
}
