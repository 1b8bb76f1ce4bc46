package balance

import (
	"context"
	"testing"
	"time"

	"github.com/ellisbray/homebase/internal/database"
	"github.com/ellisbray/homebase/internal/model"
	"github.com/ellisbray/homebase/internal/store"
)

func setupServiceTest(t *testing.T, cfg Config) (*Service, *store.UserStore, *store.PeriodStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	users := store.NewUserStore(db)
	periods := store.NewPeriodStore(db)
	svc := NewService(users, periods, nil, cfg, discardLogger())
	return svc, users, periods
}

func TestSummaryComputesNetBalance(t *testing.T) {
	svc, users, periods := setupServiceTest(t, Config{})

	user, err := users.Create("a@example.com", "hash", "Res", model.RoleResident, nil)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	// First summary resolves and creates the month period.
	first, err := svc.Summary(context.Background(), user.ID, now)
	if err != nil {
		t.Fatalf("first summary: %v", err)
	}
	if first.PeriodMinutes != 0 {
		t.Errorf("period minutes = %d, want 0", first.PeriodMinutes)
	}
	if first.ExpectedMinutes != 600 {
		t.Errorf("expected minutes = %d, want 600", first.ExpectedMinutes)
	}
	if first.NetMinutes != -600 {
		t.Errorf("net minutes = %d, want -600", first.NetMinutes)
	}

	// Log 90 minutes inside the period and the current week.
	if _, err := periods.CreateChoreLog(user.ID, nil, first.WorkPeriodID, now.Add(-time.Hour), 90); err != nil {
		t.Fatalf("create chore log: %v", err)
	}

	second, err := svc.Summary(context.Background(), user.ID, now)
	if err != nil {
		t.Fatalf("second summary: %v", err)
	}
	if second.PeriodMinutes != 90 {
		t.Errorf("period minutes = %d, want 90", second.PeriodMinutes)
	}
	if second.WeekMinutes != 90 {
		t.Errorf("week minutes = %d, want 90", second.WeekMinutes)
	}
	if second.NetMinutes != -510 {
		t.Errorf("net minutes = %d, want -510", second.NetMinutes)
	}
	if got := second.PeriodStatus(); got != "1.5 / 10" {
		t.Errorf("period status = %q, want %q", got, "1.5 / 10")
	}
}

func TestSummaryGatedByPriorBalance(t *testing.T) {
	svc, users, periods := setupServiceTest(t, Config{RequirePriorBalanceCleared: true})

	user, err := users.Create("a@example.com", "hash", "Res", model.RoleResident, nil)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	// A previous period that closed with a surplus still on the books.
	prevStart := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	prevEnd := time.Date(2026, 2, 28, 23, 59, 59, 0, time.UTC)
	prev, err := periods.CreateWorkPeriod("February", prevStart, prevEnd, &user.ID, nil)
	if err != nil {
		t.Fatalf("create previous period: %v", err)
	}
	prevLedger, err := periods.EnsureUserWorkPeriod(user.ID, prev.ID, 28*60)
	if err != nil {
		t.Fatalf("ensure previous ledger: %v", err)
	}
	if err := periods.SetCarryOver(prevLedger.ID, 100); err != nil {
		t.Fatalf("set carry over: %v", err)
	}

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	summary, err := svc.Summary(context.Background(), user.ID, now)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}

	if !summary.Gated {
		t.Fatal("expected gated summary")
	}
	if summary.PreviousBalance != 100 {
		t.Errorf("previous balance = %d, want 100", summary.PreviousBalance)
	}
	if summary.ExpectedMinutes != 0 {
		t.Errorf("expected minutes = %d, want 0 while gated", summary.ExpectedMinutes)
	}
}

func TestSummaryUnknownUser(t *testing.T) {
	svc, _, _ := setupServiceTest(t, Config{})

	_, err := svc.Summary(context.Background(), 42, time.Now().UTC())
	if err != ErrUserNotFound {
		t.Errorf("err = %v, want ErrUserNotFound", err)
	}
}
