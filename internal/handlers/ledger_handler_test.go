package handlers

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "debtbook/internal/errors"
	"debtbook/internal/models"
	"debtbook/internal/services"
)

func ledgerTx(id, cpID string, txType models.TransactionType, amount int64, date time.Time) models.Transaction {
	return models.Transaction{
		Base:           models.Base{ID: id},
		UserID:         testUserID,
		CounterpartyID: cpID,
		Type:           txType,
		Amount:         decimal.NewFromInt(amount),
		Date:           date,
	}
}

// testSession: Alice borrowed 100 and repaid 30 against it, plus a 20 food
// expense; the user owes Bob 40 and one partial payment references a missing debt.
func testSession() *services.Session {
	day := func(m time.Month, d int) time.Time { return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC) }

	debt := debtTxID
	missing := missingID
	food := models.CategoryFood

	partial := ledgerTx("0191e5a0-0000-7000-8000-0000000000b1", cpAliceID, models.TransactionTypePartialPayment, 30, day(3, 10))
	partial.OriginalDebtID = &debt
	expense := ledgerTx(expenseTxID, cpAliceID, models.TransactionTypeExpense, 20, day(3, 12))
	expense.Category = &food
	orphan := ledgerTx("0191e5a0-0000-7000-8000-0000000000b2", cpBobID, models.TransactionTypePartialPayment, 5, day(3, 15))
	orphan.OriginalDebtID = &missing

	return &services.Session{
		UserID: testUserID,
		Counterparties: []models.Counterparty{
			{Base: models.Base{ID: cpAliceID}, UserID: testUserID, Name: "Alice"},
			{Base: models.Base{ID: cpBobID}, UserID: testUserID, Name: "Bob"},
		},
		Transactions: []models.Transaction{
			ledgerTx("0191e5a0-0000-7000-8000-0000000000b0", cpBobID, models.TransactionTypeLent, 40, day(2, 1)),
			ledgerTx(debtTxID, cpAliceID, models.TransactionTypeBorrowed, 100, day(3, 5)),
			partial,
			expense,
			orphan,
		},
	}
}

func setupLedgerRouter(svc services.LedgerServicer) *gin.Engine {
	handler := NewLedgerHandler(svc, "$", 6)
	handler.now = func() time.Time { return time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC) }

	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.GET("/ledger/summaries", handler.GetSummaries)
	auth.GET("/ledger/summaries/extended", handler.GetExtendedSummaries)
	auth.GET("/ledger/totals", handler.GetTotals)
	auth.GET("/counterparties/:id/outstanding", handler.GetOutstanding)
	auth.GET("/transactions/:id/debt", handler.GetDebtDetail)
	auth.GET("/statistics/monthly", handler.GetMonthlyStatistics)
	auth.GET("/statistics/counterparties", handler.GetFriendStatistics)
	auth.GET("/statistics/categories", handler.GetCategoryStatistics)
	auth.GET("/statistics/expenses", handler.GetExpenseSummary)
	return r
}

func TestLedgerHandler_Summaries(t *testing.T) {
	r := setupLedgerRouter(&mockLedgerService{session: testSession()})

	t.Run("basic balance ignores partial payments", func(t *testing.T) {
		rec := doRequest(r, http.MethodGet, "/ledger/summaries", "")
		assertStatus(t, rec, http.StatusOK)

		summaries := parseJSON(t, rec)["summaries"].([]interface{})
		if len(summaries) != 2 {
			t.Fatalf("expected 2 summaries, got %d", len(summaries))
		}
		alice := summaries[0].(map[string]interface{})
		if alice["counterparty_name"] != "Alice" || alice["balance"] != "100" || alice["formatted_balance"] != "$100.00" {
			t.Errorf("unexpected Alice summary: %v", alice)
		}
		bob := summaries[1].(map[string]interface{})
		if bob["balance"] != "-40" || bob["formatted_balance"] != "-$40.00" {
			t.Errorf("unexpected Bob summary: %v", bob)
		}
	})

	t.Run("extended balance subtracts partial payments", func(t *testing.T) {
		rec := doRequest(r, http.MethodGet, "/ledger/summaries/extended", "")
		assertStatus(t, rec, http.StatusOK)

		result := parseJSON(t, rec)
		alice := result["summaries"].([]interface{})[0].(map[string]interface{})
		if alice["balance"] != "70" || alice["formatted_balance"] != "$70.00" {
			t.Errorf("unexpected extended Alice summary: %v", alice)
		}
		if alice["total_outstanding_amount"] != "70" {
			t.Errorf("expected 70 outstanding, got %v", alice["total_outstanding_amount"])
		}
		orphans := result["orphaned_partial_payments"].([]interface{})
		if len(orphans) != 1 {
			t.Errorf("expected one orphaned partial payment, got %d", len(orphans))
		}
	})

	t.Run("totals", func(t *testing.T) {
		rec := doRequest(r, http.MethodGet, "/ledger/totals", "")
		assertStatus(t, rec, http.StatusOK)

		totals := parseJSON(t, rec)["totals"].(map[string]interface{})
		if totals["total_owed"] != "100" || totals["total_owing"] != "40" || totals["net_balance"] != "60" {
			t.Errorf("unexpected totals: %v", totals)
		}
		if totals["formatted_net_balance"] != "$60.00" {
			t.Errorf("unexpected formatted net balance %v", totals["formatted_net_balance"])
		}
	})
}

func TestLedgerHandler_Empty(t *testing.T) {
	r := setupLedgerRouter(&mockLedgerService{})

	rec := doRequest(r, http.MethodGet, "/ledger/summaries/extended", "")
	assertStatus(t, rec, http.StatusOK)

	result := parseJSON(t, rec)
	if len(result["summaries"].([]interface{})) != 0 {
		t.Error("expected no summaries")
	}
	if len(result["orphaned_partial_payments"].([]interface{})) != 0 {
		t.Error("expected empty orphan list")
	}
}

func TestLedgerHandler_DebtThreads(t *testing.T) {
	r := setupLedgerRouter(&mockLedgerService{session: testSession()})

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantCode   string
	}{
		{"outstanding", "/counterparties/" + cpAliceID + "/outstanding", http.StatusOK, ""},
		{"outstanding unknown counterparty", "/counterparties/" + missingID + "/outstanding", http.StatusNotFound, "COUNTERPARTY_NOT_FOUND"},
		{"outstanding invalid id", "/counterparties/alice/outstanding", http.StatusBadRequest, "INVALID_INPUT"},
		{"detail", "/transactions/" + debtTxID + "/debt", http.StatusOK, ""},
		{"detail of expense", "/transactions/" + expenseTxID + "/debt", http.StatusBadRequest, "INVALID_DEBT_REFERENCE"},
		{"detail missing", "/transactions/" + missingID + "/debt", http.StatusNotFound, "TRANSACTION_NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(r, http.MethodGet, tt.path, "")
			assertStatus(t, rec, tt.wantStatus)
			if tt.wantCode != "" {
				assertErrorCode(t, parseJSON(t, rec), tt.wantCode)
			}
		})
	}

	t.Run("detail resolves remaining balance", func(t *testing.T) {
		rec := doRequest(r, http.MethodGet, "/transactions/"+debtTxID+"/debt", "")
		debt := parseJSON(t, rec)["debt"].(map[string]interface{})
		if debt["remaining_balance"] != "70" || debt["is_fully_paid"] != false {
			t.Errorf("unexpected debt detail: %v", debt)
		}
		if len(debt["partial_payments"].([]interface{})) != 1 {
			t.Errorf("expected one partial payment, got %v", debt["partial_payments"])
		}
	})
}

func TestLedgerHandler_Statistics(t *testing.T) {
	r := setupLedgerRouter(&mockLedgerService{session: testSession()})

	t.Run("monthly uses configured window", func(t *testing.T) {
		rec := doRequest(r, http.MethodGet, "/statistics/monthly", "")
		assertStatus(t, rec, http.StatusOK)
		months := parseJSON(t, rec)["months"].([]interface{})
		if len(months) != 6 {
			t.Fatalf("expected 6 months, got %d", len(months))
		}
		if months[0].(map[string]interface{})["month"] != "2024-03" {
			t.Errorf("expected current month first, got %v", months[0])
		}
	})

	t.Run("monthly honours months query", func(t *testing.T) {
		rec := doRequest(r, http.MethodGet, "/statistics/monthly?months=2", "")
		assertStatus(t, rec, http.StatusOK)
		months := parseJSON(t, rec)["months"].([]interface{})
		if len(months) != 2 || months[1].(map[string]interface{})["month"] != "2024-02" {
			t.Errorf("unexpected months %v", months)
		}
	})

	t.Run("counterparties for a month", func(t *testing.T) {
		rec := doRequest(r, http.MethodGet, "/statistics/counterparties?month=2024-02", "")
		assertStatus(t, rec, http.StatusOK)
		rows := parseJSON(t, rec)["counterparties"].([]interface{})
		if len(rows) != 2 {
			t.Fatalf("expected a row per counterparty, got %d", len(rows))
		}
		bob := rows[1].(map[string]interface{})
		if bob["total_lent"] != "40" {
			t.Errorf("expected Bob lent 40 in February, got %v", bob)
		}
	})

	t.Run("categories restricted to a type", func(t *testing.T) {
		rec := doRequest(r, http.MethodGet, "/statistics/categories?type=expense", "")
		assertStatus(t, rec, http.StatusOK)
		categories := parseJSON(t, rec)["categories"].([]interface{})
		if len(categories) != 1 || categories[0].(map[string]interface{})["category"] != "food" {
			t.Errorf("unexpected categories %v", categories)
		}
	})

	t.Run("expenses within window", func(t *testing.T) {
		rec := doRequest(r, http.MethodGet, "/statistics/expenses?start_date=2024-03-01&end_date=2024-03-12", "")
		assertStatus(t, rec, http.StatusOK)
		result := parseJSON(t, rec)
		if result["formatted_total"] != "$20.00" {
			t.Errorf("unexpected total %v", result["formatted_total"])
		}
	})

	t.Run("expenses outside window", func(t *testing.T) {
		rec := doRequest(r, http.MethodGet, "/statistics/expenses?end_date=2024-03-11", "")
		assertStatus(t, rec, http.StatusOK)
		if total := parseJSON(t, rec)["formatted_total"]; total != "$0.00" {
			t.Errorf("expected $0.00, got %v", total)
		}
	})

	invalid := []struct {
		name     string
		path     string
		wantCode string
	}{
		{"zero months", "/statistics/monthly?months=0", "INVALID_INPUT"},
		{"non-numeric months", "/statistics/monthly?months=six", "INVALID_INPUT"},
		{"bad month", "/statistics/counterparties?month=March", "INVALID_INPUT"},
		{"bad type", "/statistics/categories?type=income", "INVALID_TRANSACTION_TYPE"},
		{"bad start date", "/statistics/expenses?start_date=tomorrow", "INVALID_INPUT"},
	}
	for _, tt := range invalid {
		t.Run("returns 400 on "+tt.name, func(t *testing.T) {
			rec := doRequest(r, http.MethodGet, tt.path, "")
			assertStatus(t, rec, http.StatusBadRequest)
			assertErrorCode(t, parseJSON(t, rec), tt.wantCode)
		})
	}
}

func TestLedgerHandler_LoadFailure(t *testing.T) {
	svc := &mockLedgerService{loadErr: apperrors.Wrap(apperrors.ErrInternalServer, errors.New("connection refused"))}
	r := setupLedgerRouter(svc)

	rec := doRequest(r, http.MethodGet, "/ledger/totals", "")

	assertStatus(t, rec, http.StatusInternalServerError)
	assertErrorCode(t, parseJSON(t, rec), "INTERNAL_ERROR")
}
