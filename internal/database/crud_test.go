package database

import (
	"errors"
	"testing"
	"time"

	"github.com/ZJUSCT/CSArena/internal/config"
	"github.com/ZJUSCT/CSArena/internal/database/models"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Init(config.Storage{Driver: "sqlite", Database: ":memory:"})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	return db
}

func mustUser(t *testing.T, db *gorm.DB, id string) {
	t.Helper()
	if err := CreateUser(db, &models.User{ID: id, Email: id + "@example.com", Username: id}); err != nil {
		t.Fatalf("failed to create user %s: %v", id, err)
	}
}

func TestAddGroupMemberSingleGroup(t *testing.T) {
	db := newTestDB(t)
	mustUser(t, db, "alice")
	for _, id := range []string{"g1", "g2"} {
		if err := CreateGroup(db, &models.Group{ID: id, Name: id}); err != nil {
			t.Fatalf("failed to create group: %v", err)
		}
	}

	if err := AddGroupMember(db, "g1", "alice"); err != nil {
		t.Fatalf("first join failed: %v", err)
	}
	if err := AddGroupMember(db, "g1", "alice"); err != nil {
		t.Fatalf("re-joining the same group should be a no-op, got %v", err)
	}
	if err := AddGroupMember(db, "g2", "alice"); !errors.Is(err, ErrAlreadyInGroup) {
		t.Fatalf("expected ErrAlreadyInGroup, got %v", err)
	}

	ids, err := GetGroupMemberIDs(db, "g1")
	if err != nil || len(ids) != 1 || ids[0] != "alice" {
		t.Fatalf("unexpected members %v (%v)", ids, err)
	}
}

func TestContestPermission(t *testing.T) {
	db := newTestDB(t)

	set, err := GetContestPermission(db, "c1")
	if err != nil {
		t.Fatalf("failed to read permission: %v", err)
	}
	if set.Mode != models.PermissionAll {
		t.Fatalf("expected ALL by default, got %s", set.Mode)
	}

	if err := SetContestPermission(db, "c1", models.PermissionUsers, []string{"b", "a", "a"}); err != nil {
		t.Fatalf("failed to set permission: %v", err)
	}
	set, err = GetContestPermission(db, "c1")
	if err != nil {
		t.Fatalf("failed to read permission: %v", err)
	}
	if set.Mode != models.PermissionUsers || len(set.UserIDs) != 2 || set.UserIDs[0] != "a" {
		t.Fatalf("unexpected permission %+v", set)
	}

	if err := SetContestPermission(db, "c1", models.PermissionGroups, []string{"g1"}); err != nil {
		t.Fatalf("failed to replace permission: %v", err)
	}
	set, _ = GetContestPermission(db, "c1")
	if len(set.UserIDs) != 0 || len(set.GroupIDs) != 1 {
		t.Fatalf("old allow-list must be replaced, got %+v", set)
	}

	if err := SetContestPermission(db, "c1", "nobody", nil); !errors.Is(err, ErrInvalidMode) {
		t.Fatalf("expected ErrInvalidMode, got %v", err)
	}
}

func TestIncrementGroupContestScore(t *testing.T) {
	db := newTestDB(t)
	if err := CreateGroup(db, &models.Group{ID: "g1", Name: "g1"}); err != nil {
		t.Fatalf("failed to create group: %v", err)
	}

	for _, delta := range []float64{2.5, 2.5, 0, 1.25} {
		if err := IncrementGroupContestScore(db, "g1", "c1", delta); err != nil {
			t.Fatalf("increment failed: %v", err)
		}
	}
	if err := IncrementGroupContestScore(db, "g1", "c2", 4); err != nil {
		t.Fatalf("increment failed: %v", err)
	}

	rows, err := GetGroupContestRows(db, "c1")
	if err != nil || len(rows) != 1 {
		t.Fatalf("expected one row, got %v (%v)", rows, err)
	}
	if rows[0].Score != 6.25 {
		t.Fatalf("expected 6.25, got %v", rows[0].Score)
	}

	total, err := RecomputeGroupPoints(db, "g1")
	if err != nil {
		t.Fatalf("recompute failed: %v", err)
	}
	if total != 10.25 {
		t.Fatalf("expected 10.25, got %v", total)
	}
}

func TestTempContestTimeKeepsFirstStart(t *testing.T) {
	db := newTestDB(t)
	first := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	a, err := FindOrCreateTempContestTime(db, "alice", "c1", first, 30)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	b, err := FindOrCreateTempContestTime(db, "alice", "c1", first.Add(time.Minute), 45)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if !a.StartTime.Equal(b.StartTime) || b.Duration != 30 {
		t.Fatalf("second call must return the stored record, got %+v", b)
	}

	existed, err := DeleteTempContestTime(db, "alice", "c1")
	if err != nil || !existed {
		t.Fatalf("expected delete to remove a row, got %v (%v)", existed, err)
	}
	existed, _ = DeleteTempContestTime(db, "alice", "c1")
	if existed {
		t.Fatalf("second delete must report nothing removed")
	}
}

func TestCoordinatedGroup(t *testing.T) {
	db := newTestDB(t)
	mustUser(t, db, "coach")
	mustUser(t, db, "bob")
	if err := CreateGroup(db, &models.Group{ID: "g1", Name: "g1", CoordinatorID: "coach"}); err != nil {
		t.Fatalf("failed to create group: %v", err)
	}

	group, err := GetCoordinatedGroup(db, "coach")
	if err != nil || group.ID != "g1" {
		t.Fatalf("expected g1, got %v (%v)", group, err)
	}
	if ok, err := IsCoordinator(db, "coach"); err != nil || !ok {
		t.Fatalf("coach should coordinate a group (%v)", err)
	}
	if _, err := GetCoordinatedGroup(db, "bob"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}
