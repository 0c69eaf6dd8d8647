package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xyn4x/factiond/pkg/factiond/models"
)

func TestIssueStrike(t *testing.T) {
	h := newHarness(t)
	f := h.makeFaction(t, "ABC", "owner1")
	h.addMember(t, f.ID, "user2", "member")

	strike, err := h.engine.IssueStrike(context.Background(), "owner1", "user2", "missed deployment")
	if err != nil {
		t.Fatalf("IssueStrike failed: %v", err)
	}
	if strike.IssuerID != "owner1" || strike.UserID != "user2" {
		t.Errorf("Unexpected strike attribution: issuer=%s target=%s", strike.IssuerID, strike.UserID)
	}

	var count int64
	h.db.Model(&models.Strike{}).Where("faction_id = ? AND user_id = ?", f.ID, "user2").Count(&count)
	if count != 1 {
		t.Errorf("Expected 1 strike row, got %d", count)
	}
	if len(h.fake.DMs["user2"]) != 1 {
		t.Errorf("Expected strike DM, got %d", len(h.fake.DMs["user2"]))
	}
}

func TestStrikeRequiresStrictlyHigherRank(t *testing.T) {
	h := newHarness(t)
	f := h.makeFaction(t, "ABC", "owner1")
	h.addMember(t, f.ID, "user2", "hicomm")
	h.addMember(t, f.ID, "user3", "hicomm")

	_, err := h.engine.IssueStrike(context.Background(), "user2", "user3", "equal rank")
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Expected equal-rank strike rejected, got %v", err)
	}
}

func TestStrikeSelfRejected(t *testing.T) {
	h := newHarness(t)
	h.makeFaction(t, "ABC", "owner1")

	_, err := h.engine.IssueStrike(context.Background(), "owner1", "owner1", "self")
	if !errors.Is(err, ErrValidation) {
		t.Errorf("Expected self-strike rejected, got %v", err)
	}
}

func TestStrikePairCooldown(t *testing.T) {
	h := newHarness(t)
	f := h.makeFaction(t, "ABC", "owner1")
	h.addMember(t, f.ID, "user2", "member")
	h.addMember(t, f.ID, "user3", "member")
	ctx := context.Background()

	if _, err := h.engine.IssueStrike(ctx, "owner1", "user2", "first"); err != nil {
		t.Fatalf("First strike failed: %v", err)
	}

	h.advance(time.Hour)
	_, err := h.engine.IssueStrike(ctx, "owner1", "user2", "second")
	if !errors.Is(err, ErrCooldown) {
		t.Errorf("Expected same-pair strike on cooldown, got %v", err)
	}

	// A different target is a different pair.
	if _, err := h.engine.IssueStrike(ctx, "owner1", "user3", "other"); err != nil {
		t.Errorf("Expected strike on other target to pass, got %v", err)
	}

	h.advance(24 * time.Hour)
	if _, err := h.engine.IssueStrike(ctx, "owner1", "user2", "after window"); err != nil {
		t.Errorf("Expected strike after 24h to pass, got %v", err)
	}
}

func TestMidcommCanStrikeMemberByDefault(t *testing.T) {
	h := newHarness(t)
	f := h.makeFaction(t, "ABC", "owner1")
	h.addMember(t, f.ID, "user2", "midcomm")
	h.addMember(t, f.ID, "user3", "member")

	if _, err := h.engine.IssueStrike(context.Background(), "user2", "user3", "late"); err != nil {
		t.Errorf("Expected midcomm strike on member to pass, got %v", err)
	}
}

func TestRemoveStrikeRequiresDirector(t *testing.T) {
	h := newHarness(t)
	f := h.makeFaction(t, "ABC", "owner1")
	h.addMember(t, f.ID, "user2", "hicomm")
	h.addMember(t, f.ID, "user3", "member")
	strike := &models.Strike{FactionID: f.ID, UserID: "user3", Reason: "r", IssuerID: "owner1"}
	h.db.Create(strike)

	// Hicomm is below the hardcoded director floor, even though the
	// policy would let hicomm issue strikes.
	err := h.engine.RemoveStrike(context.Background(), "user2", strike.ID)
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Expected hicomm denied strike removal, got %v", err)
	}

	h.advance(5 * time.Second)
	if err := h.engine.RemoveStrike(context.Background(), "owner1", strike.ID); err != nil {
		t.Fatalf("Owner strike removal failed: %v", err)
	}

	var count int64
	h.db.Model(&models.Strike{}).Where("id = ?", strike.ID).Count(&count)
	if count != 0 {
		t.Error("Expected strike row deleted")
	}
}

func TestRemoveStrikeScopedToOwnFaction(t *testing.T) {
	h := newHarness(t)
	h.makeFaction(t, "ABC", "owner1")
	f2 := h.makeFaction(t, "DEF", "owner2")
	h.addMember(t, f2.ID, "user2", "member")
	strike := &models.Strike{FactionID: f2.ID, UserID: "user2", Reason: "r", IssuerID: "owner2"}
	h.db.Create(strike)

	err := h.engine.RemoveStrike(context.Background(), "owner1", strike.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected foreign strike invisible, got %v", err)
	}
}
