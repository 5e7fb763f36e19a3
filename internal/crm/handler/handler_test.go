package handler

import (
	"net/http"
	"strings"
	"testing"

	"github.com/bitfantasy/nimo-crm/internal/crm/entity"
	"github.com/bitfantasy/nimo-crm/internal/crm/events"
	"github.com/bitfantasy/nimo-crm/internal/crm/repository"
	"github.com/bitfantasy/nimo-crm/internal/crm/service"
	"github.com/bitfantasy/nimo-crm/internal/crm/testutil"
	"github.com/bitfantasy/nimo-crm/internal/metrics"
)

func setupCRMTest(t *testing.T) *testutil.TestEnv {
	t.Helper()
	if err := RegisterValidators(); err != nil {
		t.Fatalf("Failed to register validators: %v", err)
	}

	db := testutil.SetupTestDB(t)
	hub := events.NewHub(nil)
	m := metrics.New()
	services := service.NewServices(repository.NewRepositories(db), db, service.Options{
		Publisher: hub,
		Metrics:   m,
	})
	handlers := NewHandlers(services, hub, m, nil)

	router := testutil.SetupRouter()
	api := testutil.AuthGroup(router, "/api/v1")
	RegisterRoutes(api, handlers, testutil.AdminRole)

	return &testutil.TestEnv{DB: db, Router: router, T: t}
}

func data(t *testing.T, resp map[string]interface{}) map[string]interface{} {
	t.Helper()
	d, ok := resp["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected data object, got %v", resp["data"])
	}
	return d
}

func items(t *testing.T, resp map[string]interface{}) []interface{} {
	t.Helper()
	list, ok := data(t, resp)["items"].([]interface{})
	if !ok {
		t.Fatalf("Expected items array, got %v", resp["data"])
	}
	return list
}

func TestStages(t *testing.T) {
	env := setupCRMTest(t)

	w := testutil.DoRequest(env.Router, "GET", "/api/v1/crm/stages", nil, testutil.ViewerToken())
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	d := data(t, testutil.ParseResponse(w))
	stages := d["lead_stages"].([]interface{})
	if len(stages) != 12 || stages[0] != "Nuevo Lead" || stages[11] != "Lead Cerrado" {
		t.Errorf("Unexpected lead stages: %v", stages)
	}
	if len(d["milestones"].([]interface{})) != 7 {
		t.Errorf("Expected 7 milestones, got %v", d["milestones"])
	}
}

func TestAuthRequired(t *testing.T) {
	env := setupCRMTest(t)

	w := testutil.DoRequest(env.Router, "GET", "/api/v1/crm/leads", nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", w.Code)
	}
}

func TestViewerIsReadOnly(t *testing.T) {
	env := setupCRMTest(t)
	lead := testutil.SeedLead(t, env.DB, entity.StageContactado)
	token := testutil.ViewerToken()

	w := testutil.DoRequest(env.Router, "GET", "/api/v1/crm/leads/board", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 for board read, got %d", w.Code)
	}

	w = testutil.DoRequest(env.Router, "PATCH", "/api/v1/crm/leads/"+lead.ID+"/stage",
		map[string]interface{}{"etapa": "Negociación"}, token)
	if w.Code != http.StatusForbidden {
		t.Fatalf("Expected 403 for viewer mutation, got %d", w.Code)
	}
	resp := testutil.ParseResponse(w)
	if resp["code"].(float64) != 40300 {
		t.Errorf("Expected code 40300, got %v", resp["code"])
	}
}

func TestCreateLead(t *testing.T) {
	env := setupCRMTest(t)
	token := testutil.AdminToken()

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/crm/leads", map[string]interface{}{
		"nombre_empresa":    "Acme",
		"valor_mensualidad": "500",
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	lead := data(t, testutil.ParseResponse(w))
	if lead["etapa"] != "Nuevo Lead" {
		t.Errorf("Expected default stage, got %v", lead["etapa"])
	}
	if lead["valor_mensualidad"] != "500" {
		t.Errorf("Expected valor_mensualidad \"500\", got %v", lead["valor_mensualidad"])
	}
	hitos := lead["hitos"].(map[string]interface{})
	if len(hitos) != 7 {
		t.Errorf("Expected 7 hitos, got %d", len(hitos))
	}
	for k, v := range hitos {
		if v != false {
			t.Errorf("Expected hito %s to start false", k)
		}
	}

	w = testutil.DoRequest(env.Router, "POST", "/api/v1/crm/leads", map[string]interface{}{
		"nombre_contacto": "Sin empresa",
	}, token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without nombre_empresa, got %d", w.Code)
	}
}

func TestStageOutOfDomainRejected(t *testing.T) {
	env := setupCRMTest(t)
	lead := testutil.SeedLead(t, env.DB, entity.StageContactado)
	token := testutil.AdminToken()

	w := testutil.DoRequest(env.Router, "PATCH", "/api/v1/crm/leads/"+lead.ID+"/stage",
		map[string]interface{}{"etapa": "Perdido"}, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for unknown stage, got %d", w.Code)
	}

	w = testutil.DoRequest(env.Router, "POST", "/api/v1/crm/leads", map[string]interface{}{
		"nombre_empresa": "Acme", "etapa": "Perdido",
	}, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for unknown stage on create, got %d", w.Code)
	}

	w = testutil.DoRequest(env.Router, "PATCH", "/api/v1/crm/leads/"+lead.ID+"/stage",
		map[string]interface{}{"etapa": "Reunión Agendada"}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if data(t, testutil.ParseResponse(w))["etapa"] != "Reunión Agendada" {
		t.Errorf("Stage not updated")
	}
}

func TestToggleMilestone(t *testing.T) {
	env := setupCRMTest(t)
	lead := testutil.SeedLead(t, env.DB, entity.StageContactado)
	token := testutil.AdminToken()

	w := testutil.DoRequest(env.Router, "PATCH", "/api/v1/crm/leads/"+lead.ID+"/milestones/envio_propuesta", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if p := data(t, testutil.ParseResponse(w))["progress"].(float64); p != 14 {
		t.Errorf("Expected progress 14, got %v", p)
	}

	w = testutil.DoRequest(env.Router, "PATCH", "/api/v1/crm/leads/"+lead.ID+"/milestones/bogus", nil, token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown milestone, got %d", w.Code)
	}

	w = testutil.DoRequest(env.Router, "PATCH", "/api/v1/crm/leads/missing/milestones/envio_propuesta", nil, token)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}

func TestConvertFlow(t *testing.T) {
	env := setupCRMTest(t)
	token := testutil.AdminToken()
	lead := testutil.SeedLead(t, env.DB, entity.StageNegociacion)
	convertBody := map[string]interface{}{
		"valor_mensual": "550",
		"fecha_inicio":  "2024-02-01",
		"fecha_corte":   "Día 5",
		"pago_mes":      true,
	}

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/crm/leads/"+lead.ID+"/convert", convertBody, token)
	if w.Code != http.StatusConflict {
		t.Fatalf("Expected 409 for open lead, got %d: %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(env.Router, "PATCH", "/api/v1/crm/leads/"+lead.ID+"/stage",
		map[string]interface{}{"etapa": "Lead Cerrado"}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	w = testutil.DoRequest(env.Router, "POST", "/api/v1/crm/leads/"+lead.ID+"/convert", convertBody, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	client := data(t, testutil.ParseResponse(w))
	if client["lead_id"] != lead.ID || client["estado_servicio"] != "En servicio" ||
		client["valor_mensual_servicio"] != "550" || client["pago_mes_actual"] != true {
		t.Errorf("Unexpected client: %v", client)
	}

	w = testutil.DoRequest(env.Router, "GET", "/api/v1/crm/leads", nil, token)
	if n := len(items(t, testutil.ParseResponse(w))); n != 0 {
		t.Errorf("Expected converted lead to leave the list, got %d", n)
	}

	w = testutil.DoRequest(env.Router, "GET", "/api/v1/crm/leads/"+lead.ID, nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected converted lead by id, got %d", w.Code)
	}
	if data(t, testutil.ParseResponse(w))["is_converted"] != true {
		t.Errorf("Expected is_converted=true")
	}

	w = testutil.DoRequest(env.Router, "POST", "/api/v1/crm/leads/"+lead.ID+"/convert", convertBody, token)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409 on second conversion, got %d", w.Code)
	}

	w = testutil.DoRequest(env.Router, "GET", "/api/v1/crm/active-clients", nil, token)
	list := items(t, testutil.ParseResponse(w))
	if len(list) != 1 {
		t.Fatalf("Expected 1 active client, got %d", len(list))
	}
	embedded := list[0].(map[string]interface{})["lead"].(map[string]interface{})
	if embedded["nombre_empresa"] != lead.NombreEmpresa {
		t.Errorf("Expected embedded lead, got %v", embedded)
	}

	w = testutil.DoRequest(env.Router, "GET", "/api/v1/crm/leads/"+lead.ID+"/activity", nil, token)
	if n := len(items(t, testutil.ParseResponse(w))); n != 2 {
		t.Errorf("Expected stage_change and convert logs, got %d", n)
	}
}

func TestDropAndRecoverFlow(t *testing.T) {
	env := setupCRMTest(t)
	token := testutil.AdminToken()
	lead := testutil.SeedLead(t, env.DB, entity.StageContactado)
	path := "/api/v1/crm/leads/" + lead.ID + "/drop"

	w := testutil.DoRequest(env.Router, "POST", path, map[string]interface{}{
		"reason": "X", "dropped_date": "2024-01-15",
	}, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 without confirm, got %d", w.Code)
	}

	w = testutil.DoRequest(env.Router, "POST", path, map[string]interface{}{
		"reason": "", "dropped_date": "2024-01-15", "confirm": true,
	}, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 without reason, got %d", w.Code)
	}

	w = testutil.DoRequest(env.Router, "POST", path, map[string]interface{}{
		"reason": "X", "dropped_date": "2024-01-15", "confirm": true,
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	dropped := data(t, testutil.ParseResponse(w))
	if dropped["type"] != "lead" || dropped["reason"] != "X" || dropped["original_id"] != lead.ID {
		t.Errorf("Unexpected dropped record: %v", dropped)
	}
	droppedID := dropped["id"].(string)
	if _, ok := dropped["is_deleted"]; ok {
		t.Errorf("Archive entries carry no soft-delete flag: %v", dropped)
	}

	w = testutil.DoRequest(env.Router, "GET", "/api/v1/crm/dropped-clients?type=lead", nil, token)
	if n := len(items(t, testutil.ParseResponse(w))); n != 1 {
		t.Fatalf("Expected 1 dropped lead, got %d", n)
	}
	w = testutil.DoRequest(env.Router, "GET", "/api/v1/crm/dropped-clients?type=bogus", nil, token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad type, got %d", w.Code)
	}

	editPath := "/api/v1/crm/dropped-clients/" + droppedID
	w = testutil.DoRequest(env.Router, "PUT", editPath, map[string]interface{}{"reason": "Y"}, testutil.ViewerToken())
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for viewer edit, got %d", w.Code)
	}
	w = testutil.DoRequest(env.Router, "PUT", editPath, map[string]interface{}{"reason": " "}, token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for blank reason, got %d", w.Code)
	}
	w = testutil.DoRequest(env.Router, "PUT", editPath, map[string]interface{}{"dropped_date": "2024-13-40"}, token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad date, got %d", w.Code)
	}
	w = testutil.DoRequest(env.Router, "PUT", editPath, map[string]interface{}{
		"reason": "Y", "dropped_date": "2024-02-01", "original_data": map[string]interface{}{"nombre_empresa": "Hack"},
	}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	edited := data(t, testutil.ParseResponse(w))
	if edited["reason"] != "Y" || edited["dropped_date"] != "2024-02-01" {
		t.Errorf("Edit not applied: %v", edited)
	}
	snapshot := edited["original_data"].(map[string]interface{})
	if snapshot["nombre_empresa"] != lead.NombreEmpresa {
		t.Errorf("Expected snapshot untouched, got %v", snapshot["nombre_empresa"])
	}
	w = testutil.DoRequest(env.Router, "GET", editPath+"/activity", nil, token)
	if n := len(items(t, testutil.ParseResponse(w))); n != 1 {
		t.Errorf("Expected 1 archive activity entry, got %d", n)
	}
	w = testutil.DoRequest(env.Router, "PUT", "/api/v1/crm/dropped-clients/missing", map[string]interface{}{"reason": "Y"}, token)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown archive entry, got %d", w.Code)
	}

	w = testutil.DoRequest(env.Router, "POST", "/api/v1/crm/dropped-clients/"+droppedID+"/recover", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	recovered := data(t, testutil.ParseResponse(w))["lead"].(map[string]interface{})
	if recovered["id"] != lead.ID {
		t.Errorf("Expected original id reused, got %v", recovered["id"])
	}

	w = testutil.DoRequest(env.Router, "GET", "/api/v1/crm/dropped-clients/"+droppedID, nil, token)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected archive entry gone, got %d", w.Code)
	}
	w = testutil.DoRequest(env.Router, "DELETE", "/api/v1/crm/dropped-clients/"+droppedID, nil, token)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 purging a recovered entry, got %d", w.Code)
	}
}

func TestActiveClientEndpoints(t *testing.T) {
	env := setupCRMTest(t)
	token := testutil.AdminToken()

	w := testutil.DoRequest(env.Router, "POST", "/api/v1/crm/active-clients", map[string]interface{}{
		"nombre_empresa":         "Acme",
		"valor_mensual_servicio": 300,
		"fecha_corte":            "Día 5",
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	id := data(t, testutil.ParseResponse(w))["id"].(string)
	base := "/api/v1/crm/active-clients/" + id

	w = testutil.DoRequest(env.Router, "PATCH", base+"/payment", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if data(t, testutil.ParseResponse(w))["pago_mes_actual"] != true {
		t.Errorf("Expected payment toggled on")
	}

	w = testutil.DoRequest(env.Router, "PATCH", base+"/payment", map[string]interface{}{"pago_mes_actual": true}, token)
	if data(t, testutil.ParseResponse(w))["pago_mes_actual"] != true {
		t.Errorf("Expected explicit set to keep payment on")
	}

	w = testutil.DoRequest(env.Router, "PATCH", base+"/stage", map[string]interface{}{"estado_servicio": "Cancelado"}, token)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown service stage, got %d", w.Code)
	}
	w = testutil.DoRequest(env.Router, "PATCH", base+"/stage", map[string]interface{}{"estado_servicio": "Pausado"}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	w = testutil.DoRequest(env.Router, "GET", "/api/v1/crm/active-clients/board", nil, token)
	columns := data(t, testutil.ParseResponse(w))["columns"].([]interface{})
	if len(columns) != 3 {
		t.Fatalf("Expected 3 columns, got %d", len(columns))
	}
	pausado := columns[1].(map[string]interface{})
	if pausado["stage"] != "Pausado" || pausado["count"].(float64) != 1 {
		t.Errorf("Unexpected Pausado column: %v", pausado)
	}

	w = testutil.DoRequest(env.Router, "POST", base+"/drop", map[string]interface{}{
		"reason": "cierre", "dropped_date": "2024-05-01", "confirm": true,
	}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	snapshot := data(t, testutil.ParseResponse(w))["original_data"].(map[string]interface{})
	if snapshot["estado_servicio"] != "Pausado" || snapshot["lead"] == nil {
		t.Errorf("Unexpected snapshot: %v", snapshot)
	}

	w = testutil.DoRequest(env.Router, "GET", base, nil, token)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected dropped client gone, got %d", w.Code)
	}
}

func TestExportLeads(t *testing.T) {
	env := setupCRMTest(t)
	testutil.SeedLead(t, env.DB, entity.StageContactado)

	w := testutil.DoRequest(env.Router, "GET", "/api/v1/crm/leads/export", nil, testutil.ViewerToken())
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), ".xlsx") {
		t.Errorf("Expected xlsx attachment, got %q", w.Header().Get("Content-Disposition"))
	}
	if w.Body.Len() == 0 {
		t.Errorf("Expected workbook body")
	}
}
