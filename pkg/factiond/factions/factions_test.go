package factions

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/xyn4x/factiond/pkg/factiond/audit"
	"github.com/xyn4x/factiond/pkg/factiond/auth"
	"github.com/xyn4x/factiond/pkg/factiond/engine"
	"github.com/xyn4x/factiond/pkg/factiond/metrics"
	"github.com/xyn4x/factiond/pkg/factiond/models"
	"github.com/xyn4x/factiond/pkg/factiond/platform"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testStack struct {
	db     *gorm.DB
	fake   *platform.Fake
	engine *engine.Engine
	router *gin.Engine
}

func setupTestStack(t *testing.T) *testStack {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	models.AutoMigrate(db)

	fake := platform.NewFake()
	log := zerolog.Nop()
	advisory := platform.NewAdvisory(fake, log)
	eng := engine.New(engine.Options{
		DB:      db,
		Client:  fake,
		Audit:   audit.NewRecorder(log, advisory, ""),
		Metrics: metrics.New(prometheus.NewRegistry()),
		Log:     log,
	})

	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api/v1")
	api.Use(auth.Middleware(), auth.RequireActingUser())
	NewHandler(eng).RegisterRoutes(api)

	return &testStack{db: db, fake: fake, engine: eng, router: r}
}

// makeFaction drives a creation request through approval so the directory,
// policy row, and platform objects all exist.
func (s *testStack) makeFaction(t *testing.T, code, ownerID string) *models.Faction {
	s.fake.AddUser(ownerID, "owner-"+ownerID)
	ctx := context.Background()

	err := s.engine.SubmitCreationRequest(ctx, ownerID, engine.CreationRequest{
		Name:  "Faction " + code,
		Code:  code,
		Type:  "military",
		Color: "#00ff00",
	})
	if err != nil {
		t.Fatalf("Failed to submit creation request: %v", err)
	}
	faction, err := s.engine.Approve(ctx, "admin", code)
	if err != nil {
		t.Fatalf("Failed to approve creation request: %v", err)
	}
	return faction
}

func (s *testStack) do(t *testing.T, method, path, actingUser string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	token, _ := auth.GenerateToken("gateway", false)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(auth.ActingUserHeader, actingUser)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestSubmitRequest(t *testing.T) {
	s := setupTestStack(t)
	s.fake.AddUser("100", "alice")

	w := s.do(t, "POST", "/api/v1/factions/requests", "100", CreateRequestBody{
		Name:  "Night Watch",
		Code:  "NWA",
		Color: "#112233",
	})
	if w.Code != http.StatusAccepted {
		t.Errorf("Expected status 202, got %d: %s", w.Code, w.Body.String())
	}

	pending := s.engine.PendingRequests()
	if len(pending) != 1 {
		t.Fatalf("Expected 1 pending request, got %d", len(pending))
	}
}

func TestSubmitRequestRejectsBadCode(t *testing.T) {
	s := setupTestStack(t)

	w := s.do(t, "POST", "/api/v1/factions/requests", "100", CreateRequestBody{
		Name: "Bad Code",
		Code: "toolongcode",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestListFactions(t *testing.T) {
	s := setupTestStack(t)
	s.makeFaction(t, "ABC", "100")
	s.makeFaction(t, "XYZ", "200")

	w := s.do(t, "GET", "/api/v1/factions", "100", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var responses []FactionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &responses); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if len(responses) != 2 {
		t.Fatalf("Expected 2 factions, got %d", len(responses))
	}
	// Ordered by code.
	if responses[0].UniqueCode != "ABC" || responses[1].UniqueCode != "XYZ" {
		t.Errorf("Unexpected ordering: %s, %s", responses[0].UniqueCode, responses[1].UniqueCode)
	}
	if responses[0].MemberCount != 1 {
		t.Errorf("Expected member count 1, got %d", responses[0].MemberCount)
	}
}

func TestGetFactionByCode(t *testing.T) {
	s := setupTestStack(t)
	s.makeFaction(t, "ABC", "100")

	w := s.do(t, "GET", "/api/v1/factions/abc", "200", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var response FactionResponse
	json.Unmarshal(w.Body.Bytes(), &response)
	if response.UniqueCode != "ABC" || response.OwnerUserID != "100" {
		t.Errorf("Unexpected faction: %+v", response)
	}

	w = s.do(t, "GET", "/api/v1/factions/NOPE", "200", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for unknown code, got %d", w.Code)
	}
}

func TestMine(t *testing.T) {
	s := setupTestStack(t)
	s.makeFaction(t, "ABC", "100")

	w := s.do(t, "GET", "/api/v1/factions/mine", "100", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var response struct {
		Faction FactionResponse `json:"faction"`
		Rank    string          `json:"rank"`
	}
	json.Unmarshal(w.Body.Bytes(), &response)
	if response.Faction.UniqueCode != "ABC" {
		t.Errorf("Expected faction ABC, got %s", response.Faction.UniqueCode)
	}
	if response.Rank != "owner" {
		t.Errorf("Expected rank owner, got %s", response.Rank)
	}
}

func TestMineWithoutFaction(t *testing.T) {
	s := setupTestStack(t)

	w := s.do(t, "GET", "/api/v1/factions/mine", "999", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestRenameWithoutFaction(t *testing.T) {
	s := setupTestStack(t)

	w := s.do(t, "POST", "/api/v1/factions/rename", "999", RenameBody{Name: "New Name"})
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestRenameByOwner(t *testing.T) {
	s := setupTestStack(t)
	s.makeFaction(t, "ABC", "100")

	w := s.do(t, "POST", "/api/v1/factions/rename", "100", RenameBody{Name: "Renamed"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var faction models.Faction
	s.db.Where("unique_code = ?", "ABC").First(&faction)
	if faction.Name != "Renamed" {
		t.Errorf("Expected renamed faction, got %s", faction.Name)
	}
}

func TestOwnerCannotLeave(t *testing.T) {
	s := setupTestStack(t)
	s.makeFaction(t, "ABC", "100")

	w := s.do(t, "POST", "/api/v1/factions/leave", "100", nil)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d: %s", w.Code, w.Body.String())
	}
}

func TestDisbandByOwner(t *testing.T) {
	s := setupTestStack(t)
	s.makeFaction(t, "ABC", "100")

	w := s.do(t, "POST", "/api/v1/factions/disband", "100", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var count int64
	s.db.Model(&models.Faction{}).Count(&count)
	if count != 0 {
		t.Errorf("Expected no factions after disband, got %d", count)
	}
}

func TestDisbandByMemberRejected(t *testing.T) {
	s := setupTestStack(t)
	faction := s.makeFaction(t, "ABC", "100")
	s.fake.AddUser("101", "bob")
	s.db.Create(&models.Membership{FactionID: faction.ID, UserID: "101", Rank: "member"})

	w := s.do(t, "POST", "/api/v1/factions/disband", "101", nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", w.Code)
	}
}

func TestTransferOwnership(t *testing.T) {
	s := setupTestStack(t)
	faction := s.makeFaction(t, "ABC", "100")
	s.fake.AddUser("101", "bob")
	s.db.Create(&models.Membership{FactionID: faction.ID, UserID: "101", Rank: "member"})

	w := s.do(t, "POST", "/api/v1/factions/transfer", "100", TransferBody{Target: "101"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var updated models.Faction
	s.db.First(&updated, faction.ID)
	if updated.OwnerUserID != "101" {
		t.Errorf("Expected new owner 101, got %s", updated.OwnerUserID)
	}
}

func TestMissingActingUserHeader(t *testing.T) {
	s := setupTestStack(t)

	req, _ := http.NewRequest("GET", "/api/v1/factions", nil)
	token, _ := auth.GenerateToken("gateway", false)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 without acting user, got %d", w.Code)
	}
}
