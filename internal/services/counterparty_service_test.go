package services

import (
	"testing"

	"debtbook/internal/models"
	"debtbook/internal/pagination"
	"debtbook/internal/testutil"
)

func TestCreateCounterparty(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCounterpartyService(db)
		userID := testutil.NewUserID()

		cp, err := svc.CreateCounterparty(userID, "  Alice  ")
		testutil.AssertNoError(t, err)

		if cp.ID == "" {
			t.Fatal("expected an ID")
		}
		if cp.Name != "Alice" {
			t.Errorf("expected trimmed name Alice, got %q", cp.Name)
		}
		if cp.UserID != userID {
			t.Errorf("expected owner %s, got %s", userID, cp.UserID)
		}
	})

	t.Run("empty_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCounterpartyService(db)

		_, err := svc.CreateCounterparty(testutil.NewUserID(), "   ")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("duplicate_name_ignores_case", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCounterpartyService(db)
		userID := testutil.NewUserID()
		testutil.CreateTestCounterpartyWithName(t, db, userID, "Alice")

		_, err := svc.CreateCounterparty(userID, "alice")
		testutil.AssertAppError(t, err, "DUPLICATE_COUNTERPARTY")
	})

	t.Run("same_name_other_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCounterpartyService(db)
		testutil.CreateTestCounterpartyWithName(t, db, testutil.NewUserID(), "Alice")

		_, err := svc.CreateCounterparty(testutil.NewUserID(), "Alice")
		testutil.AssertNoError(t, err)
	})
}

func TestGetUserCounterparties(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewCounterpartyService(db)
	userID := testutil.NewUserID()
	for _, name := range []string{"Carol", "Alice", "Bob"} {
		testutil.CreateTestCounterpartyWithName(t, db, userID, name)
	}
	testutil.CreateTestCounterpartyWithName(t, db, testutil.NewUserID(), "Mallory")

	t.Run("ordered_by_name", func(t *testing.T) {
		result, err := svc.GetUserCounterparties(userID, pagination.PageRequest{})
		testutil.AssertNoError(t, err)

		if result.TotalItems != 3 {
			t.Fatalf("expected 3 counterparties, got %d", result.TotalItems)
		}
		for i, want := range []string{"Alice", "Bob", "Carol"} {
			if result.Data[i].Name != want {
				t.Errorf("position %d: expected %s, got %s", i, want, result.Data[i].Name)
			}
		}
	})

	t.Run("paginated", func(t *testing.T) {
		result, err := svc.GetUserCounterparties(userID, pagination.PageRequest{Page: 2, PageSize: 2})
		testutil.AssertNoError(t, err)

		if len(result.Data) != 1 || result.Data[0].Name != "Carol" {
			t.Errorf("expected only Carol on page 2, got %+v", result.Data)
		}
		if result.TotalPages != 2 {
			t.Errorf("expected 2 pages, got %d", result.TotalPages)
		}
	})
}

func TestGetCounterpartyByID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewCounterpartyService(db)
	userID := testutil.NewUserID()
	cp := testutil.CreateTestCounterparty(t, db, userID)

	t.Run("found", func(t *testing.T) {
		got, err := svc.GetCounterpartyByID(userID, cp.ID)
		testutil.AssertNoError(t, err)
		if got.Name != cp.Name {
			t.Errorf("expected %s, got %s", cp.Name, got.Name)
		}
	})

	t.Run("other_user", func(t *testing.T) {
		_, err := svc.GetCounterpartyByID(testutil.NewUserID(), cp.ID)
		testutil.AssertAppError(t, err, "COUNTERPARTY_NOT_FOUND")
	})

	t.Run("malformed_id", func(t *testing.T) {
		_, err := svc.GetCounterpartyByID(userID, "not-a-uuid")
		testutil.AssertAppError(t, err, "COUNTERPARTY_NOT_FOUND")
	})
}

func TestUpdateCounterparty(t *testing.T) {
	t.Run("rename", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCounterpartyService(db)
		userID := testutil.NewUserID()
		cp := testutil.CreateTestCounterpartyWithName(t, db, userID, "Alice")

		updated, err := svc.UpdateCounterparty(userID, cp.ID, "Alicia")
		testutil.AssertNoError(t, err)
		if updated.Name != "Alicia" {
			t.Errorf("expected Alicia, got %s", updated.Name)
		}

		reloaded, err := svc.GetCounterpartyByID(userID, cp.ID)
		testutil.AssertNoError(t, err)
		if reloaded.Name != "Alicia" {
			t.Errorf("expected persisted name Alicia, got %s", reloaded.Name)
		}
	})

	t.Run("keep_own_name_with_new_case", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCounterpartyService(db)
		userID := testutil.NewUserID()
		cp := testutil.CreateTestCounterpartyWithName(t, db, userID, "alice")

		_, err := svc.UpdateCounterparty(userID, cp.ID, "Alice")
		testutil.AssertNoError(t, err)
	})

	t.Run("duplicate", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCounterpartyService(db)
		userID := testutil.NewUserID()
		testutil.CreateTestCounterpartyWithName(t, db, userID, "Alice")
		bob := testutil.CreateTestCounterpartyWithName(t, db, userID, "Bob")

		_, err := svc.UpdateCounterparty(userID, bob.ID, "ALICE")
		testutil.AssertAppError(t, err, "DUPLICATE_COUNTERPARTY")
	})
}

func TestDeleteCounterparty(t *testing.T) {
	t.Run("cascades_transactions", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCounterpartyService(db)
		userID := testutil.NewUserID()
		cp := testutil.CreateTestCounterparty(t, db, userID)
		other := testutil.CreateTestCounterparty(t, db, userID)
		debt := testutil.CreateTestTransaction(t, db, userID, cp.ID, models.TransactionTypeLent, "100")
		testutil.CreateTestPartialPayment(t, db, debt, "10", debt.Date)
		testutil.CreateTestTransaction(t, db, userID, other.ID, models.TransactionTypeBorrowed, "5")

		testutil.AssertNoError(t, svc.DeleteCounterparty(userID, cp.ID))

		_, err := svc.GetCounterpartyByID(userID, cp.ID)
		testutil.AssertAppError(t, err, "COUNTERPARTY_NOT_FOUND")

		var remaining int64
		db.Model(&models.Transaction{}).Where("user_id = ?", userID).Count(&remaining)
		if remaining != 1 {
			t.Errorf("expected only the other counterparty's transaction to remain, got %d", remaining)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCounterpartyService(db)

		err := svc.DeleteCounterparty(testutil.NewUserID(), "0190a6f0-0000-7000-8000-000000000000")
		testutil.AssertAppError(t, err, "COUNTERPARTY_NOT_FOUND")
	})
}
