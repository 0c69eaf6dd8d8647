package policy

import (
	"testing"

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

func TestGetReturnsDefaultsWhenNoRow(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	p, err := store.Get(42)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	want := Defaults()
	for action, level := range want {
		if p[action] != level {
			t.Errorf("Expected %s=%d, got %d", action, level, p[action])
		}
	}
}

func TestSetCreatesRowAndPreservesOtherActions(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	if err := store.Set(1, ActionKick, 1); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	p, err := store.Get(1)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if p[ActionKick] != 1 {
		t.Errorf("Expected kick=1, got %d", p[ActionKick])
	}
	if p[ActionRename] != 4 {
		t.Errorf("Expected rename to keep default 4, got %d", p[ActionRename])
	}

	var count int64
	db.Model(&models.PermissionPolicy{}).Where("faction_id = ?", 1).Count(&count)
	if count != 1 {
		t.Errorf("Expected exactly one policy row, got %d", count)
	}
}

func TestSetRejectsUnknownAction(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	err := store.Set(1, "nuke", 0)
	if err == nil {
		t.Fatal("Expected error for unknown action")
	}
}

func TestSetUpdatesExistingRowWithoutDuplicating(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	if err := store.Set(1, ActionInvite, 3); err != nil {
		t.Fatalf("First set failed: %v", err)
	}
	if err := store.Set(1, ActionInvite, 0); err != nil {
		t.Fatalf("Second set failed: %v", err)
	}

	p, _ := store.Get(1)
	if p[ActionInvite] != 0 {
		t.Errorf("Expected invite=0, got %d", p[ActionInvite])
	}

	var count int64
	db.Model(&models.PermissionPolicy{}).Where("faction_id = ?", 1).Count(&count)
	if count != 1 {
		t.Errorf("Expected exactly one policy row, got %d", count)
	}
}

func TestResetRestoresDefaults(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	if err := store.Set(1, ActionStrike, 4); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Reset(1); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	p, _ := store.Get(1)
	if p[ActionStrike] != 1 {
		t.Errorf("Expected strike back at default 1, got %d", p[ActionStrike])
	}
}

func TestAuthorize(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	tests := []struct {
		name       string
		actorLevel int
		action     string
		want       bool
	}{
		{"member can leave", 0, ActionLeave, true},
		{"member cannot strike", 0, ActionStrike, false},
		{"midcomm can strike", 1, ActionStrike, true},
		{"midcomm cannot promote", 1, ActionPromote, false},
		{"hicomm can promote", 2, ActionPromote, true},
		{"hicomm cannot kick", 2, ActionKick, false},
		{"director can kick", 3, ActionKick, true},
		{"director cannot rename", 3, ActionRename, false},
		{"owner can rename", 4, ActionRename, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Authorize(7, tt.actorLevel, tt.action)
			if err != nil {
				t.Fatalf("Authorize failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Authorize(level=%d, %s) = %v, want %v", tt.actorLevel, tt.action, got, tt.want)
			}
		})
	}
}

func TestAuthorizeUnknownActionDeniesEveryone(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	// Even the owner is denied for an action kind the policy does not know.
	ok, err := store.Authorize(7, 4, "selfdestruct")
	if err != nil {
		t.Fatalf("Authorize failed: %v", err)
	}
	if ok {
		t.Error("Expected unknown action to be denied for owner")
	}
}

func TestAuthorizeHonorsCustomThreshold(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)

	if err := store.Set(7, ActionKick, 1); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	ok, err := store.Authorize(7, 1, ActionKick)
	if err != nil {
		t.Fatalf("Authorize failed: %v", err)
	}
	if !ok {
		t.Error("Expected midcomm to kick after lowering threshold to 1")
	}
}
