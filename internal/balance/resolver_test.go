package balance

import (
	"testing"
	"time"

	"github.com/ellisbray/homebase/internal/database"
	"github.com/ellisbray/homebase/internal/model"
	"github.com/ellisbray/homebase/internal/store"
)

func setupResolverTest(t *testing.T) (*Resolver, *store.UserStore, *store.HouseStore, *store.PeriodStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	users := store.NewUserStore(db)
	houses := store.NewHouseStore(db)
	periods := store.NewPeriodStore(db)
	return NewResolver(users, periods), users, houses, periods
}

func createResident(t *testing.T, users *store.UserStore, email string, houseID *int64) *model.User {
	t.Helper()
	user, err := users.Create(email, "hash", "Test Resident", model.RoleResident, houseID)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func TestResolveDefaultsToCurrentMonth(t *testing.T) {
	resolver, users, _, _ := setupResolverTest(t)
	user := createResident(t, users, "a@example.com", nil)

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	ledger, period, err := resolver.Resolve(user.ID, now)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if got := period.StartDate.Format("2006-01-02"); got != "2026-03-01" {
		t.Errorf("period start = %s, want 2026-03-01", got)
	}
	if got := period.EndDate.Format("2006-01-02"); got != "2026-03-31" {
		t.Errorf("period end = %s, want 2026-03-31", got)
	}
	if period.UserID == nil || *period.UserID != user.ID {
		t.Errorf("period owner = %v, want user %d", period.UserID, user.ID)
	}
	// 31 days at one hour per day
	if ledger.RequiredMinutes != 1860 {
		t.Errorf("required minutes = %d, want 1860", ledger.RequiredMinutes)
	}

	// The default window is persisted onto the user record.
	reloaded, err := users.GetByID(user.ID)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if reloaded.PeriodStart == nil || reloaded.PeriodEnd == nil {
		t.Fatal("expected persisted period window on user")
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	resolver, users, _, _ := setupResolverTest(t)
	user := createResident(t, users, "a@example.com", nil)

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	first, firstPeriod, err := resolver.Resolve(user.ID, now)
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}

	second, secondPeriod, err := resolver.Resolve(user.ID, now.Add(48*time.Hour))
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("ledger IDs differ: %d vs %d", first.ID, second.ID)
	}
	if firstPeriod.ID != secondPeriod.ID {
		t.Errorf("period IDs differ: %d vs %d", firstPeriod.ID, secondPeriod.ID)
	}
}

func TestResolvePersonalWindow(t *testing.T) {
	resolver, users, _, _ := setupResolverTest(t)
	user := createResident(t, users, "a@example.com", nil)

	start := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 28, 0, 0, 0, 0, time.UTC)
	if err := users.SetPeriod(user.ID, start, end); err != nil {
		t.Fatalf("set period: %v", err)
	}

	now := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)
	ledger, period, err := resolver.Resolve(user.ID, now)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if got := period.StartDate.Format("2006-01-02"); got != "2026-03-15" {
		t.Errorf("period start = %s, want 2026-03-15", got)
	}
	// 14 inclusive days
	if ledger.RequiredMinutes != 14*60 {
		t.Errorf("required minutes = %d, want %d", ledger.RequiredMinutes, 14*60)
	}
}

func TestResolveHousePeriod(t *testing.T) {
	resolver, users, houses, periods := setupResolverTest(t)

	house, err := houses.Create("North House")
	if err != nil {
		t.Fatalf("create house: %v", err)
	}
	user := createResident(t, users, "a@example.com", &house.ID)

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC)
	housePeriod, err := periods.ReplaceHousePeriod(house.ID, "March", start, end)
	if err != nil {
		t.Fatalf("replace house period: %v", err)
	}

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	ledger, period, err := resolver.Resolve(user.ID, now)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if period.ID != housePeriod.ID {
		t.Errorf("resolved period %d, want house period %d", period.ID, housePeriod.ID)
	}
	// House members carry no pre-computed requirement.
	if ledger.RequiredMinutes != 0 {
		t.Errorf("required minutes = %d, want 0", ledger.RequiredMinutes)
	}
}

func TestResolveHouseWithoutPeriod(t *testing.T) {
	resolver, users, houses, _ := setupResolverTest(t)

	house, err := houses.Create("North House")
	if err != nil {
		t.Fatalf("create house: %v", err)
	}
	user := createResident(t, users, "a@example.com", &house.ID)

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	_, _, err = resolver.Resolve(user.ID, now)
	if err != ErrNoActivePeriod {
		t.Errorf("err = %v, want ErrNoActivePeriod", err)
	}
}

func TestResolveHousePeriodOutOfRange(t *testing.T) {
	resolver, users, houses, periods := setupResolverTest(t)

	house, err := houses.Create("North House")
	if err != nil {
		t.Fatalf("create house: %v", err)
	}
	user := createResident(t, users, "a@example.com", &house.ID)

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 31, 23, 59, 59, 0, time.UTC)
	if _, err := periods.ReplaceHousePeriod(house.ID, "January", start, end); err != nil {
		t.Fatalf("replace house period: %v", err)
	}

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	_, _, err = resolver.Resolve(user.ID, now)
	if err != ErrNoActivePeriod {
		t.Errorf("err = %v, want ErrNoActivePeriod", err)
	}
}

func TestResolveUnknownUser(t *testing.T) {
	resolver, _, _, _ := setupResolverTest(t)

	_, _, err := resolver.Resolve(999, time.Now().UTC())
	if err != ErrUserNotFound {
		t.Errorf("err = %v, want ErrUserNotFound", err)
	}
}
