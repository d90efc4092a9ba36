package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"debtbook/internal/events"
	"debtbook/internal/ledger"
	"debtbook/internal/models"
	"debtbook/internal/testutil"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func newLedgerFixture(t *testing.T) (*gorm.DB, LedgerServicer, *recordingPublisher) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	pub := &recordingPublisher{}
	return db, NewLedgerService(db, pub, NewAuditService(db)), pub
}

func TestLoadSession(t *testing.T) {
	db, svc, _ := newLedgerFixture(t)
	userID := testutil.NewUserID()
	alice := testutil.CreateTestCounterpartyWithName(t, db, userID, "Alice")
	bob := testutil.CreateTestCounterpartyWithName(t, db, userID, "Bob")
	debt := testutil.CreateTestTransaction(t, db, userID, alice.ID, models.TransactionTypeBorrowed, "100")
	testutil.CreateTestPartialPayment(t, db, debt, "30", debt.Date)
	testutil.CreateTestTransaction(t, db, userID, bob.ID, models.TransactionTypeLent, "40")
	testutil.CreateTestTransaction(t, db, testutil.NewUserID(), alice.ID, models.TransactionTypeLent, "999")

	session, err := svc.LoadSession(context.Background(), userID)
	testutil.AssertNoError(t, err)

	if len(session.Counterparties) != 2 || len(session.Transactions) != 3 {
		t.Fatalf("expected 2 counterparties and 3 transactions, got %d and %d",
			len(session.Counterparties), len(session.Transactions))
	}

	t.Run("summaries", func(t *testing.T) {
		summaries := session.Summaries()
		if summaries[0].CounterpartyName != "Alice" {
			t.Fatalf("expected Alice first, got %s", summaries[0].CounterpartyName)
		}
		if !summaries[0].Balance.Equal(amount("100")) {
			t.Errorf("expected basic balance 100, got %s", summaries[0].Balance)
		}

		extended := session.ExtendedSummaries()
		if !extended[0].Balance.Equal(amount("70")) {
			t.Errorf("expected extended balance 70, got %s", extended[0].Balance)
		}
		if !extended[0].TotalOutstandingAmount.Equal(amount("70")) {
			t.Errorf("expected outstanding 70, got %s", extended[0].TotalOutstandingAmount)
		}
	})

	t.Run("total_debt", func(t *testing.T) {
		totals := session.TotalDebt()
		if !totals.TotalOwed.Equal(amount("100")) || !totals.TotalOwing.Equal(amount("40")) {
			t.Errorf("unexpected totals: %+v", totals)
		}
		if !totals.NetBalance.Equal(amount("60")) {
			t.Errorf("expected net 60, got %s", totals.NetBalance)
		}
	})

	t.Run("debt_detail", func(t *testing.T) {
		detail, err := session.DebtDetail(debt.ID)
		testutil.AssertNoError(t, err)
		if !detail.RemainingBalance.Equal(amount("70")) || detail.IsFullyPaid {
			t.Errorf("unexpected detail: %+v", detail)
		}

		_, err = session.DebtDetail("0190a6f0-0000-7000-8000-000000000000")
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})

	t.Run("outstanding", func(t *testing.T) {
		debts, err := session.Outstanding(alice.ID)
		testutil.AssertNoError(t, err)
		if len(debts) != 1 {
			t.Errorf("expected one debt thread, got %d", len(debts))
		}

		_, err = session.Outstanding("0190a6f0-0000-7000-8000-000000000000")
		testutil.AssertAppError(t, err, "COUNTERPARTY_NOT_FOUND")
	})
}

func TestLoadSession_Empty(t *testing.T) {
	_, svc, _ := newLedgerFixture(t)

	session, err := svc.LoadSession(context.Background(), testutil.NewUserID())
	testutil.AssertNoError(t, err)

	if got := session.Summaries(); len(got) != 0 {
		t.Errorf("expected no summaries, got %d", len(got))
	}
	if totals := session.TotalDebt(); !totals.NetBalance.IsZero() {
		t.Errorf("expected zero net balance, got %s", totals.NetBalance)
	}
	if got := session.MonthlyStatistics(time.Now(), 3); len(got) != 3 {
		t.Errorf("expected 3 empty months, got %d", len(got))
	}
}

func TestProcessRecurring(t *testing.T) {
	today := time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC)

	t.Run("materializes_once_and_advances", func(t *testing.T) {
		db, svc, pub := newLedgerFixture(t)
		userID := testutil.NewUserID()
		cp := testutil.CreateTestCounterparty(t, db, userID)
		tpl := testutil.CreateTestTemplate(t, db, userID, cp.ID, models.IntervalMonthly, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))

		result, err := svc.ProcessRecurring(context.Background(), userID, today)
		testutil.AssertNoError(t, err)

		if result.Evaluated != 1 || len(result.Materialized) != 1 {
			t.Fatalf("expected one materialized instance, got %+v", result)
		}
		instance := result.Materialized[0]
		if instance.ParentTransactionID == nil || *instance.ParentTransactionID != tpl.ID {
			t.Errorf("expected parent %s, got %v", tpl.ID, instance.ParentTransactionID)
		}
		if !instance.Date.Equal(today) {
			t.Errorf("expected instance dated %s, got %s", today, instance.Date)
		}
		if instance.Recurring != nil {
			t.Error("expected instance without recurrence")
		}

		var stored models.Transaction
		testutil.AssertNoError(t, db.First(&stored, "id = ?", tpl.ID).Error)
		if stored.Recurring.LastProcessedDate == nil || !stored.Recurring.LastProcessedDate.Equal(today) {
			t.Errorf("expected template advanced to %s, got %v", today, stored.Recurring.LastProcessedDate)
		}

		if len(pub.events) != 1 {
			t.Fatalf("expected one published event, got %d", len(pub.events))
		}
		if e, ok := pub.events[0].(events.InstanceMaterialized); !ok || e.InstanceID != instance.ID {
			t.Errorf("unexpected event %+v", pub.events[0])
		}

		var audits int64
		db.Model(&models.AuditLog{}).Where("action = ?", ActionMaterializeRecurring).Count(&audits)
		if audits != 1 {
			t.Errorf("expected one audit entry, got %d", audits)
		}

		again, err := svc.ProcessRecurring(context.Background(), userID, today)
		testutil.AssertNoError(t, err)
		if len(again.Materialized) != 0 {
			t.Errorf("expected no instance on second pass, got %d", len(again.Materialized))
		}
	})

	t.Run("no_back_fill", func(t *testing.T) {
		db, svc, _ := newLedgerFixture(t)
		userID := testutil.NewUserID()
		cp := testutil.CreateTestCounterparty(t, db, userID)
		testutil.CreateTestTemplate(t, db, userID, cp.ID, models.IntervalDaily, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC))

		result, err := svc.ProcessRecurring(context.Background(), userID, today)
		testutil.AssertNoError(t, err)
		if len(result.Materialized) != 1 {
			t.Errorf("expected a single instance despite many elapsed days, got %d", len(result.Materialized))
		}

		var count int64
		db.Model(&models.Transaction{}).Where("parent_transaction_id IS NOT NULL").Count(&count)
		if count != 1 {
			t.Errorf("expected one stored instance, got %d", count)
		}
	})

	t.Run("expired", func(t *testing.T) {
		db, svc, pub := newLedgerFixture(t)
		userID := testutil.NewUserID()
		cp := testutil.CreateTestCounterparty(t, db, userID)
		tpl := testutil.CreateTestTemplate(t, db, userID, cp.ID, models.IntervalWeekly, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC))
		end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
		tpl.Recurring.EndDate = &end
		testutil.AssertNoError(t, db.Save(tpl).Error)

		result, err := svc.ProcessRecurring(context.Background(), userID, today)
		testutil.AssertNoError(t, err)

		if len(result.Materialized) != 0 {
			t.Errorf("expected no instance for expired template, got %d", len(result.Materialized))
		}
		if len(result.Expired) != 1 || result.Expired[0] != tpl.ID {
			t.Errorf("expected template reported as expired, got %v", result.Expired)
		}
		if len(pub.events) != 1 {
			t.Fatalf("expected one expiry event, got %d", len(pub.events))
		}
		if e, ok := pub.events[0].(events.TemplateExpired); !ok || e.TemplateID != tpl.ID || !e.EndDate.Equal(end) {
			t.Errorf("unexpected event %+v", pub.events[0])
		}

		var stored models.Transaction
		testutil.AssertNoError(t, db.First(&stored, "id = ?", tpl.ID).Error)
		if stored.Recurring.ExpiredAt == nil || !stored.Recurring.ExpiredAt.Equal(today) {
			t.Errorf("expected template marked expired on %s, got %v", today, stored.Recurring.ExpiredAt)
		}

		again, err := svc.ProcessRecurring(context.Background(), userID, today.AddDate(0, 0, 1))
		testutil.AssertNoError(t, err)
		if len(again.Expired) != 1 {
			t.Errorf("expected template still reported as expired, got %v", again.Expired)
		}
		if len(pub.events) != 1 {
			t.Errorf("expected no further expiry events, got %d in total", len(pub.events))
		}
	})
}

func TestProcessRecurring_ConcurrentPasses(t *testing.T) {
	today := time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC)
	db, svc, _ := newLedgerFixture(t)
	userID := testutil.NewUserID()
	cp := testutil.CreateTestCounterparty(t, db, userID)
	testutil.CreateTestTemplate(t, db, userID, cp.ID, models.IntervalMonthly, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))

	const passes = 4
	var wg sync.WaitGroup
	created := make([]int, passes)
	errs := make([]error, passes)
	for i := 0; i < passes; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := svc.ProcessRecurring(context.Background(), userID, today)
			errs[i] = err
			if result != nil {
				created[i] = len(result.Materialized)
			}
		}(i)
	}
	wg.Wait()

	total := 0
	for i := 0; i < passes; i++ {
		testutil.AssertNoError(t, errs[i])
		total += created[i]
	}
	if total != 1 {
		t.Errorf("expected exactly one instance across concurrent passes, got %d", total)
	}

	var count int64
	db.Model(&models.Transaction{}).Where("parent_transaction_id IS NOT NULL").Count(&count)
	if count != 1 {
		t.Errorf("expected one stored instance, got %d", count)
	}
}

func TestGetRecurringTemplates(t *testing.T) {
	db, svc, _ := newLedgerFixture(t)
	userID := testutil.NewUserID()
	cp := testutil.CreateTestCounterparty(t, db, userID)
	testutil.CreateTestTemplate(t, db, userID, cp.ID, models.IntervalMonthly, time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC))
	testutil.CreateTestTransaction(t, db, userID, cp.ID, models.TransactionTypeLent, "5")

	statuses, err := svc.GetRecurringTemplates(context.Background(), userID, time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC))
	testutil.AssertNoError(t, err)

	if len(statuses) != 1 {
		t.Fatalf("expected one template, got %d", len(statuses))
	}
	if statuses[0].State != ledger.StateNotDue {
		t.Errorf("expected %s, got %s", ledger.StateNotDue, statuses[0].State)
	}
	want := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	if statuses[0].NextDueDate == nil || !statuses[0].NextDueDate.Equal(want) {
		t.Errorf("expected next due %s, got %v", want, statuses[0].NextDueDate)
	}
}

func TestRecurringProcessor_ProcessAll(t *testing.T) {
	db, svc, _ := newLedgerFixture(t)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		userID := testutil.NewUserID()
		cp := testutil.CreateTestCounterparty(t, db, userID)
		testutil.CreateTestTemplate(t, db, userID, cp.ID, models.IntervalWeekly, start)
	}
	idle := testutil.NewUserID()
	testutil.CreateTestTransaction(t, db, idle, testutil.CreateTestCounterparty(t, db, idle).ID, models.TransactionTypeLent, "1")

	users, err := svc.UsersWithTemplates(context.Background())
	testutil.AssertNoError(t, err)
	if len(users) != 2 {
		t.Fatalf("expected two users with templates, got %v", users)
	}

	processor := NewRecurringProcessor(svc)
	created, err := processor.ProcessAll(context.Background(), time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC))
	testutil.AssertNoError(t, err)
	if created != 2 {
		t.Errorf("expected one instance per user, got %d", created)
	}
}
