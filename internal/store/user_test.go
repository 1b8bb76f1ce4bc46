package store

import (
	"testing"
	"time"

	"github.com/ellisbray/homebase/internal/database"
	"github.com/ellisbray/homebase/internal/model"
)

func setupUserTestDB(t *testing.T) (*UserStore, *HouseStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewUserStore(db), NewHouseStore(db)
}

func TestUserCRUD(t *testing.T) {
	us, _ := setupUserTestDB(t)

	user, err := us.Create("res@example.com", "hash123", "Jordan", model.RoleResident, nil)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if user.Email != "res@example.com" {
		t.Errorf("email = %q", user.Email)
	}
	if user.Role != model.RoleResident {
		t.Errorf("role = %q, want resident", user.Role)
	}
	if user.HouseID != nil {
		t.Errorf("house id = %v, want nil", user.HouseID)
	}

	byEmail, err := us.GetByEmail("res@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if byEmail == nil || byEmail.ID != user.ID {
		t.Fatalf("get by email returned %v", byEmail)
	}

	hash, err := us.PasswordHash(user.ID)
	if err != nil {
		t.Fatalf("password hash: %v", err)
	}
	if hash != "hash123" {
		t.Errorf("hash = %q", hash)
	}

	if err := us.Delete(user.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	gone, err := us.GetByID(user.ID)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if gone != nil {
		t.Error("expected user deleted")
	}
}

func TestUserSetPeriod(t *testing.T) {
	us, _ := setupUserTestDB(t)

	user, err := us.Create("res@example.com", "hash", "Jordan", model.RoleResident, nil)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if user.PeriodStart != nil {
		t.Error("expected no period window on fresh user")
	}

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	if err := us.SetPeriod(user.ID, start, end); err != nil {
		t.Fatalf("set period: %v", err)
	}

	reloaded, err := us.GetByID(user.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.PeriodStart == nil || !reloaded.PeriodStart.Equal(start) {
		t.Errorf("period start = %v, want %v", reloaded.PeriodStart, start)
	}
	if reloaded.PeriodEnd == nil || !reloaded.PeriodEnd.Equal(end) {
		t.Errorf("period end = %v, want %v", reloaded.PeriodEnd, end)
	}
}

func TestUserSetHouse(t *testing.T) {
	us, hs := setupUserTestDB(t)

	house, err := hs.Create("North House")
	if err != nil {
		t.Fatalf("create house: %v", err)
	}
	user, err := us.Create("res@example.com", "hash", "Jordan", model.RoleResident, nil)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	if err := us.SetHouse(user.ID, &house.ID); err != nil {
		t.Fatalf("set house: %v", err)
	}
	reloaded, _ := us.GetByID(user.ID)
	if reloaded.HouseID == nil || *reloaded.HouseID != house.ID {
		t.Errorf("house id = %v, want %d", reloaded.HouseID, house.ID)
	}

	if err := us.SetHouse(user.ID, nil); err != nil {
		t.Fatalf("detach house: %v", err)
	}
	reloaded, _ = us.GetByID(user.ID)
	if reloaded.HouseID != nil {
		t.Errorf("house id = %v after detach, want nil", reloaded.HouseID)
	}
}

func TestListManagersByHouse(t *testing.T) {
	us, hs := setupUserTestDB(t)

	house, err := hs.Create("North House")
	if err != nil {
		t.Fatalf("create house: %v", err)
	}

	if _, err := us.Create("mgr@example.com", "hash", "Morgan", model.RoleManager, &house.ID); err != nil {
		t.Fatalf("create manager: %v", err)
	}
	if _, err := us.Create("res@example.com", "hash", "Jordan", model.RoleResident, &house.ID); err != nil {
		t.Fatalf("create resident: %v", err)
	}
	if _, err := us.Create("other@example.com", "hash", "Sam", model.RoleManager, nil); err != nil {
		t.Fatalf("create detached manager: %v", err)
	}

	managers, err := us.ListManagersByHouse(house.ID)
	if err != nil {
		t.Fatalf("list managers: %v", err)
	}
	if len(managers) != 1 {
		t.Fatalf("got %d managers, want 1", len(managers))
	}
	if managers[0].Email != "mgr@example.com" {
		t.Errorf("manager = %q", managers[0].Email)
	}
}
