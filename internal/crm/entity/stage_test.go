package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLeadStages(t *testing.T) {
	assert.Len(t, LeadStages, 12)
	assert.Equal(t, StageNuevoLead, LeadStages[0])
	assert.Equal(t, StageLeadCerrado, LeadStages[len(LeadStages)-1])

	seen := map[LeadStage]bool{}
	for i, s := range LeadStages {
		assert.False(t, seen[s], "duplicate stage %q", s)
		seen[s] = true
		assert.True(t, s.Valid())
		assert.Equal(t, i, s.Index())
	}

	assert.False(t, LeadStage("Perdido").Valid())
	assert.False(t, LeadStage("").Valid())
	assert.False(t, LeadStage("lead cerrado").Valid())
}

func TestServiceStages(t *testing.T) {
	assert.Equal(t, []ServiceStage{ServiceEnServicio, ServicePausado, ServicePendienteDePago}, ServiceStages)
	for i, s := range ServiceStages {
		assert.True(t, s.Valid())
		assert.Equal(t, i, s.Index())
	}
	assert.False(t, ServiceStage("Cancelado").Valid())
}

func TestDroppedClientName(t *testing.T) {
	lead := DroppedClient{OriginalData: JSONB{"nombre_empresa": "Acme"}}
	assert.Equal(t, "Acme", lead.Name())

	active := DroppedClient{OriginalData: JSONB{"lead": map[string]interface{}{"nombre_empresa": "Globex"}}}
	assert.Equal(t, "Globex", active.Name())

	assert.Equal(t, "", DroppedClient{}.Name())
}

func TestJSONBRoundTrip(t *testing.T) {
	src := Lead{ID: "42", Etapa: StageLeadCerrado, NombreEmpresa: "Acme"}
	j, err := ToJSONB(src)
	assert.NoError(t, err)
	assert.Equal(t, "Lead Cerrado", j["etapa"])

	raw, err := j.Value()
	assert.NoError(t, err)

	var scanned JSONB
	assert.NoError(t, scanned.Scan(raw))

	var back Lead
	assert.NoError(t, scanned.Decode(&back))
	assert.Equal(t, src.ID, back.ID)
	assert.Equal(t, src.NombreEmpresa, back.NombreEmpresa)
}
