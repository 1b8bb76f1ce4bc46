package store

import (
	"testing"
	"time"

	"github.com/ellisbray/homebase/internal/database"
	"github.com/ellisbray/homebase/internal/model"
)

func setupPeriodTestDB(t *testing.T) (*PeriodStore, *UserStore, *HouseStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPeriodStore(db), NewUserStore(db), NewHouseStore(db)
}

func periodTestUser(t *testing.T, us *UserStore, email string) *model.User {
	t.Helper()
	user, err := us.Create(email, "hash", "Test", model.RoleResident, nil)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func TestEnsureUserWorkPeriodIsIdempotent(t *testing.T) {
	ps, us, _ := setupPeriodTestDB(t)
	user := periodTestUser(t, us, "a@example.com")

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC)
	period, err := ps.CreateWorkPeriod("March", start, end, &user.ID, nil)
	if err != nil {
		t.Fatalf("create period: %v", err)
	}

	first, err := ps.EnsureUserWorkPeriod(user.ID, period.ID, 1860)
	if err != nil {
		t.Fatalf("first ensure: %v", err)
	}

	// A second ensure with a different requirement must return the original
	// row untouched.
	second, err := ps.EnsureUserWorkPeriod(user.ID, period.ID, 9999)
	if err != nil {
		t.Fatalf("second ensure: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("ledger IDs differ: %d vs %d", first.ID, second.ID)
	}
	if second.RequiredMinutes != 1860 {
		t.Errorf("required minutes = %d, want 1860", second.RequiredMinutes)
	}
}

func TestReplaceHousePeriod(t *testing.T) {
	ps, _, hs := setupPeriodTestDB(t)

	house, err := hs.Create("North House")
	if err != nil {
		t.Fatalf("create house: %v", err)
	}

	jan := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	janEnd := time.Date(2026, 1, 31, 23, 59, 59, 0, time.UTC)
	old, err := ps.ReplaceHousePeriod(house.ID, "January", jan, janEnd)
	if err != nil {
		t.Fatalf("install first period: %v", err)
	}

	feb := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	febEnd := time.Date(2026, 2, 28, 23, 59, 59, 0, time.UTC)
	replacement, err := ps.ReplaceHousePeriod(house.ID, "February", feb, febEnd)
	if err != nil {
		t.Fatalf("replace period: %v", err)
	}

	current, err := ps.GetHousePeriod(house.ID)
	if err != nil {
		t.Fatalf("get house period: %v", err)
	}
	if current.ID != replacement.ID {
		t.Errorf("house period = %d, want %d", current.ID, replacement.ID)
	}

	gone, err := ps.GetWorkPeriodByID(old.ID)
	if err != nil {
		t.Fatalf("get old period: %v", err)
	}
	if gone != nil {
		t.Error("expected old house period deleted")
	}
}

func TestGetActiveUserWorkPeriod(t *testing.T) {
	ps, us, _ := setupPeriodTestDB(t)
	user := periodTestUser(t, us, "a@example.com")

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC)
	period, err := ps.CreateWorkPeriod("March", start, end, &user.ID, nil)
	if err != nil {
		t.Fatalf("create period: %v", err)
	}
	if _, err := ps.EnsureUserWorkPeriod(user.ID, period.ID, 1860); err != nil {
		t.Fatalf("ensure ledger: %v", err)
	}

	inRange := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	ledger, got, err := ps.GetActiveUserWorkPeriod(user.ID, inRange)
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if ledger == nil || got == nil {
		t.Fatal("expected active ledger inside period")
	}
	if got.ID != period.ID {
		t.Errorf("period = %d, want %d", got.ID, period.ID)
	}

	outOfRange := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	ledger, _, err = ps.GetActiveUserWorkPeriod(user.ID, outOfRange)
	if err != nil {
		t.Fatalf("get active out of range: %v", err)
	}
	if ledger != nil {
		t.Error("expected no active ledger outside period")
	}
}

func TestGetPreviousUserWorkPeriod(t *testing.T) {
	ps, us, _ := setupPeriodTestDB(t)
	user := periodTestUser(t, us, "a@example.com")

	for i, month := range []time.Month{time.January, time.February} {
		start := time.Date(2026, month, 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 1, -1).Add(23*time.Hour + 59*time.Minute + 59*time.Second)
		period, err := ps.CreateWorkPeriod(month.String(), start, end, &user.ID, nil)
		if err != nil {
			t.Fatalf("create period %d: %v", i, err)
		}
		ledger, err := ps.EnsureUserWorkPeriod(user.ID, period.ID, 0)
		if err != nil {
			t.Fatalf("ensure ledger %d: %v", i, err)
		}
		if err := ps.SetCarryOver(ledger.ID, (i+1)*10); err != nil {
			t.Fatalf("set carry over %d: %v", i, err)
		}
	}

	// The most recent period ending before March is February.
	before := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	prev, prevPeriod, err := ps.GetPreviousUserWorkPeriod(user.ID, before)
	if err != nil {
		t.Fatalf("get previous: %v", err)
	}
	if prev == nil {
		t.Fatal("expected a previous ledger")
	}
	if prevPeriod.Name != "February" {
		t.Errorf("previous period = %q, want February", prevPeriod.Name)
	}
	if prev.CarryOverMinutes != 20 {
		t.Errorf("previous carry over = %d, want 20", prev.CarryOverMinutes)
	}
}

func TestSumLogMinutes(t *testing.T) {
	ps, us, _ := setupPeriodTestDB(t)
	user := periodTestUser(t, us, "a@example.com")

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC)
	period, err := ps.CreateWorkPeriod("March", start, end, &user.ID, nil)
	if err != nil {
		t.Fatalf("create period: %v", err)
	}

	dates := []time.Time{
		time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 20, 10, 0, 0, 0, time.UTC),
	}
	for _, d := range dates {
		if _, err := ps.CreateChoreLog(user.ID, nil, period.ID, d, 30); err != nil {
			t.Fatalf("create log: %v", err)
		}
	}

	total, err := ps.SumLogMinutes(user.ID, start, end)
	if err != nil {
		t.Fatalf("sum all: %v", err)
	}
	if total != 90 {
		t.Errorf("total = %d, want 90", total)
	}

	partial, err := ps.SumLogMinutes(user.ID, start, time.Date(2026, 3, 15, 23, 59, 59, 0, time.UTC))
	if err != nil {
		t.Fatalf("sum partial: %v", err)
	}
	if partial != 60 {
		t.Errorf("partial = %d, want 60", partial)
	}
}

func TestSumLogMinutesByUser(t *testing.T) {
	ps, us, _ := setupPeriodTestDB(t)
	userA := periodTestUser(t, us, "a@example.com")
	userB := periodTestUser(t, us, "b@example.com")

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC)
	period, err := ps.CreateWorkPeriod("March", start, end, nil, nil)
	if err != nil {
		t.Fatalf("create period: %v", err)
	}

	logDate := time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)
	if _, err := ps.CreateChoreLog(userA.ID, nil, period.ID, logDate, 45); err != nil {
		t.Fatalf("log A: %v", err)
	}
	if _, err := ps.CreateChoreLog(userA.ID, nil, period.ID, logDate, 15); err != nil {
		t.Fatalf("log A: %v", err)
	}
	if _, err := ps.CreateChoreLog(userB.ID, nil, period.ID, logDate, 120); err != nil {
		t.Fatalf("log B: %v", err)
	}

	totals, err := ps.SumLogMinutesByUser(period.ID)
	if err != nil {
		t.Fatalf("sum by user: %v", err)
	}
	if totals[userA.ID] != 60 {
		t.Errorf("user A total = %d, want 60", totals[userA.ID])
	}
	if totals[userB.ID] != 120 {
		t.Errorf("user B total = %d, want 120", totals[userB.ID])
	}
}

func TestListEndedUnprocessed(t *testing.T) {
	ps, us, _ := setupPeriodTestDB(t)
	user := periodTestUser(t, us, "a@example.com")

	ended, err := ps.CreateWorkPeriod("January",
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 31, 23, 59, 59, 0, time.UTC),
		&user.ID, nil)
	if err != nil {
		t.Fatalf("create ended period: %v", err)
	}
	if _, err := ps.CreateWorkPeriod("March",
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC),
		&user.ID, nil); err != nil {
		t.Fatalf("create active period: %v", err)
	}

	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	list, err := ps.ListEndedUnprocessed(now)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ID != ended.ID {
		t.Fatalf("list = %v, want only period %d", list, ended.ID)
	}

	if err := ps.MarkCarryOverProcessed(ended.ID, now); err != nil {
		t.Fatalf("mark processed: %v", err)
	}
	list, err = ps.ListEndedUnprocessed(now)
	if err != nil {
		t.Fatalf("list after mark: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty list after processing, got %d", len(list))
	}
}
