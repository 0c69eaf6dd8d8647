package servicekeys

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/xyn4x/factiond/pkg/factiond/auth"
	"github.com/xyn4x/factiond/pkg/factiond/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

func setupTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	gin.SetMode(gin.TestMode)
	db := setupTestDB(t)
	router := gin.New()
	NewHandler(db).RegisterRoutes(router.Group("/api/v1/admin"))
	return router, db
}

func createKey(t *testing.T, router *gin.Engine, admin bool) CreateServiceKeyResponse {
	t.Helper()
	payload, _ := json.Marshal(CreateServiceKeyRequest{Description: "test key", Admin: admin})
	req := httptest.NewRequest("POST", "/api/v1/admin/service-keys", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var resp CreateServiceKeyResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	return resp
}

func TestCreateReturnsFullKeyOnce(t *testing.T) {
	router, db := setupTestRouter(t)

	resp := createKey(t, router, false)
	if len(resp.Key) != KeyLength*2 {
		t.Errorf("Expected %d hex chars, got %d", KeyLength*2, len(resp.Key))
	}
	if resp.KeyPrefix != resp.Key[:KeyPrefixLength] {
		t.Errorf("Prefix %s does not match key", resp.KeyPrefix)
	}

	// Only the hash is stored.
	var stored models.ServiceKey
	if err := db.First(&stored, resp.ID).Error; err != nil {
		t.Fatalf("Failed to load stored key: %v", err)
	}
	if stored.KeyHash == resp.Key {
		t.Error("Expected key to be stored hashed")
	}
}

func TestListOmitsHashes(t *testing.T) {
	router, _ := setupTestRouter(t)
	createKey(t, router, true)

	req := httptest.NewRequest("GET", "/api/v1/admin/service-keys", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if bytes.Contains(w.Body.Bytes(), []byte("key_hash")) {
		t.Error("Expected hashes to be absent from listing")
	}
}

func TestDeleteRevokesKey(t *testing.T) {
	router, db := setupTestRouter(t)
	resp := createKey(t, router, false)

	req := httptest.NewRequest("DELETE", "/api/v1/admin/service-keys/1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	if _, err := ValidateKey(db, resp.Key); err == nil {
		t.Error("Expected revoked key to fail validation")
	}
}

func TestValidateKey(t *testing.T) {
	router, db := setupTestRouter(t)
	resp := createKey(t, router, true)

	key, err := ValidateKey(db, resp.Key)
	if err != nil {
		t.Fatalf("ValidateKey failed: %v", err)
	}
	if !key.Admin {
		t.Error("Expected admin flag preserved")
	}

	if _, err := ValidateKey(db, "deadbeef"); err == nil {
		t.Error("Expected unknown key to fail")
	}
}

func TestCombinedAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := setupTestDB(t)
	keyRouter := gin.New()
	NewHandler(db).RegisterRoutes(keyRouter.Group("/api/v1/admin"))
	resp := createKey(t, keyRouter, true)

	router := gin.New()
	router.GET("/protected", CombinedAuthMiddleware(db), func(c *gin.Context) {
		subject, _ := auth.GetSubject(c)
		c.JSON(http.StatusOK, gin.H{"subject": subject, "admin": auth.IsAdmin(c)})
	})

	// Service key path.
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+resp.Key)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 via service key, got %d: %s", w.Code, w.Body.String())
	}

	// JWT path.
	token, _ := auth.GenerateToken("gateway", false)
	req = httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 via JWT, got %d: %s", w.Code, w.Body.String())
	}

	// Garbage.
	req = httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer feedface")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for unknown key, got %d", w.Code)
	}
}
