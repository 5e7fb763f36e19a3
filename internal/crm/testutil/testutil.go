package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bitfantasy/nimo-crm/internal/crm/entity"
	"github.com/bitfantasy/nimo-crm/internal/middleware"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	JWTSecret = "nimo-crm-test-secret"
	AdminRole = "crm_admin"
)

// TestEnv holds test environment resources
type TestEnv struct {
	DB     *gorm.DB
	Router *gin.Engine
	T      *testing.T
}

// SetupTestDB opens a private in-memory SQLite database with every CRM
// table migrated. It is closed when the test ends.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_fk=1", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := entity.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate test tables: %v", err)
	}

	t.Cleanup(func() {
		sqlDB.Close()
	})
	return db
}

func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}

// AuthGroup creates an API group behind the JWT middleware.
func AuthGroup(r *gin.Engine, path string) *gin.RouterGroup {
	return r.Group(path, middleware.JWTAuth(JWTSecret))
}

func GenerateTestToken(userID, name, email string, roles []string) string {
	if roles == nil {
		roles = []string{}
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   userID,
		"uid":   userID,
		"name":  name,
		"email": email,
		"roles": roles,
		"perms": []string{},
		"iss":   "nimo-crm",
		"iat":   now.Unix(),
		"exp":   now.Add(24 * time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(JWTSecret))
	return tokenString
}

// AdminToken returns a token that may mutate the boards.
func AdminToken() string {
	return GenerateTestToken("test-admin-001", "Test Admin", "admin@test.com", []string{AdminRole})
}

// ViewerToken returns a read-only token.
func ViewerToken() string {
	return GenerateTestToken("test-viewer-001", "Test Viewer", "viewer@test.com", []string{"crm_viewer"})
}

func DoRequest(r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse decodes the response envelope into a map.
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// SeedLead inserts a lead with fake contact data in the given stage.
func SeedLead(t *testing.T, db *gorm.DB, etapa entity.LeadStage) *entity.Lead {
	t.Helper()
	lead := &entity.Lead{
		ID:               uuid.New().String(),
		Etapa:            etapa,
		NombreEmpresa:    gofakeit.Company(),
		NombreContacto:   gofakeit.Name(),
		Ciudad:           gofakeit.City(),
		Email:            gofakeit.Email(),
		Servicio:         "Chatbot",
		ValorMensualidad: decimal.NewFromInt(int64(gofakeit.Number(100, 900))),
	}
	if err := db.Create(lead).Error; err != nil {
		t.Fatalf("Failed to seed lead: %v", err)
	}
	return lead
}

// SeedActiveClient inserts a converted lead and its client.
func SeedActiveClient(t *testing.T, db *gorm.DB, stage entity.ServiceStage) *entity.ActiveClient {
	t.Helper()
	lead := SeedLead(t, db, entity.StageLeadCerrado)
	if err := db.Model(lead).Update("is_converted", true).Error; err != nil {
		t.Fatalf("Failed to mark lead converted: %v", err)
	}
	lead.IsConverted = true

	client := &entity.ActiveClient{
		ID:                   uuid.New().String(),
		LeadID:               lead.ID,
		EstadoServicio:       stage,
		FechaInicioServicio:  "2024-02-01",
		FechaCorte:           "Día 5",
		ValorMensualServicio: lead.ValorMensualidad,
	}
	if err := db.Omit("Lead").Create(client).Error; err != nil {
		t.Fatalf("Failed to seed active client: %v", err)
	}
	client.Lead = lead
	return client
}
