package service

import (
	"context"
	"strings"
	"testing"

	"github.com/bitfantasy/nimo-crm/internal/crm/entity"
	"github.com/bitfantasy/nimo-crm/internal/crm/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportLeads(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	a := testutil.SeedLead(t, f.db, entity.StageContactado)
	testutil.SeedLead(t, f.db, entity.StageReunionAgendada)

	file, name, err := f.svc.Export.ExportLeads(ctx, LeadFilter{})
	require.NoError(t, err)
	defer file.Close()
	assert.True(t, strings.HasPrefix(name, "pipeline_"))
	assert.True(t, strings.HasSuffix(name, ".xlsx"))

	rows, err := file.GetRows("Pipeline")
	require.NoError(t, err)
	require.Len(t, rows, 4, "header, two leads, totals")
	assert.Equal(t, "Empresa", rows[0][0])
	assert.Equal(t, "Total", rows[3][0])
	assert.Equal(t, "2 leads", rows[3][1])

	file2, name, err := f.svc.Export.ExportLeads(ctx, LeadFilter{Etapa: entity.StageReunionAgendada})
	require.NoError(t, err)
	defer file2.Close()
	assert.Contains(t, name, "reunion_agendada")
	rows, err = file2.GetRows("Pipeline")
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	file3, _, err := f.svc.Export.ExportLeads(ctx, LeadFilter{Keyword: a.NombreEmpresa})
	require.NoError(t, err)
	defer file3.Close()
	rows, err = file3.GetRows("Pipeline")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 3)
	assert.Equal(t, a.NombreEmpresa, rows[1][0])

	_, _, err = f.svc.Export.ExportLeads(ctx, LeadFilter{Etapa: "Nope"})
	assert.ErrorIs(t, err, ErrInvalidStage)
}
