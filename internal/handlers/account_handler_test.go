package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	apperrors "moneta/internal/errors"
	"moneta/internal/models"
	"moneta/internal/pagination"
	"moneta/internal/services"
)

const testAccountID = "0190a1b2-0000-7000-8000-000000000a01"

// --- mock account service ---

type mockAccountService struct {
	createAccountFn     func(userID, name string, accountType models.AccountType, currency, institution, color string, initialBalance int64) (*models.Account, error)
	getUserAccountsFn   func(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error)
	getAccountByIDFn    func(userID, accountID string) (*models.Account, error)
	updateAccountFn     func(userID, accountID string, fields services.AccountUpdateFields) (*models.Account, error)
	deactivateAccountFn func(userID, accountID string) error
}

func (m *mockAccountService) CreateAccount(userID, name string, accountType models.AccountType, currency, institution, color string, initialBalance int64) (*models.Account, error) {
	if m.createAccountFn != nil {
		return m.createAccountFn(userID, name, accountType, currency, institution, color, initialBalance)
	}
	return &models.Account{}, nil
}

func (m *mockAccountService) GetUserAccounts(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error) {
	if m.getUserAccountsFn != nil {
		return m.getUserAccountsFn(userID, page)
	}
	resp := pagination.NewPageResponse([]models.Account{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockAccountService) GetAccountByID(userID, accountID string) (*models.Account, error) {
	if m.getAccountByIDFn != nil {
		return m.getAccountByIDFn(userID, accountID)
	}
	return &models.Account{}, nil
}

func (m *mockAccountService) UpdateAccount(userID, accountID string, fields services.AccountUpdateFields) (*models.Account, error) {
	if m.updateAccountFn != nil {
		return m.updateAccountFn(userID, accountID, fields)
	}
	return &models.Account{}, nil
}

func (m *mockAccountService) DeactivateAccount(userID, accountID string) error {
	if m.deactivateAccountFn != nil {
		return m.deactivateAccountFn(userID, accountID)
	}
	return nil
}

func (m *mockAccountService) UpdateAccountBalance(_ *gorm.DB, _ *models.Account, _ models.TransactionType, _ int64) error {
	return nil
}

// verify interface compliance
var _ services.AccountServicer = (*mockAccountService)(nil)

func setupAccountRouter(handler *AccountHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.POST("/accounts", handler.CreateAccount)
	auth.GET("/accounts", handler.GetUserAccounts)
	auth.GET("/accounts/:id", handler.GetAccountByID)
	auth.PUT("/accounts/:id", handler.UpdateAccount)
	auth.DELETE("/accounts/:id", handler.DeactivateAccount)
	return r
}

func TestAccountHandler_CreateAccount(t *testing.T) {
	t.Run("returns 201 and converts the balance to cents", func(t *testing.T) {
		var gotBalance int64
		var gotType models.AccountType
		acctSvc := &mockAccountService{
			createAccountFn: func(userID, name string, accountType models.AccountType, currency, _, _ string, balance int64) (*models.Account, error) {
				gotBalance = balance
				gotType = accountType
				a := &models.Account{UserID: userID, Name: name, Type: accountType, Balance: balance, Currency: currency, IsActive: true}
				a.ID = testAccountID
				return a, nil
			},
		}
		handler := NewAccountHandler(acctSvc, &mockAuditService{})
		r := setupAccountRouter(handler)

		rec := doRequest(r, "POST", "/accounts",
			`{"name":"Savings","type":"savings","currency":"USD","initial_balance":"1500.25"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotBalance != 150025 {
			t.Errorf("expected 150025 cents, got %d", gotBalance)
		}
		if gotType != models.AccountTypeSavings {
			t.Errorf("expected savings, got %s", gotType)
		}
		acct := parseJSON(t, rec)["account"].(map[string]interface{})
		if acct["name"] != "Savings" {
			t.Errorf("expected Savings, got %v", acct["name"])
		}
		if acct["balance"].(float64) != 150025 {
			t.Errorf("expected balance 150025, got %v", acct["balance"])
		}
	})

	t.Run("accepts a numeric amount", func(t *testing.T) {
		var gotBalance int64
		acctSvc := &mockAccountService{
			createAccountFn: func(_, _ string, _ models.AccountType, _, _, _ string, balance int64) (*models.Account, error) {
				gotBalance = balance
				return &models.Account{}, nil
			},
		}
		r := setupAccountRouter(NewAccountHandler(acctSvc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/accounts", `{"name":"Wallet","type":"cash","initial_balance":42.5}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotBalance != 4250 {
			t.Errorf("expected 4250 cents, got %d", gotBalance)
		}
	})

	invalid := []struct {
		name string
		body string
	}{
		{"missing name", `{"currency":"USD"}`},
		{"invalid currency", `{"name":"Test","currency":"INVALID"}`},
		{"invalid type", `{"name":"Test","type":"credit_card"}`},
		{"invalid color", `{"name":"Test","color":"red"}`},
		{"sub-cent amount", `{"name":"Test","initial_balance":"10.001"}`},
		{"unknown field", `{"name":"Test","description":"old field"}`},
	}
	for _, tc := range invalid {
		t.Run("returns 400 on "+tc.name, func(t *testing.T) {
			r := setupAccountRouter(NewAccountHandler(&mockAccountService{}, &mockAuditService{}))

			rec := doRequest(r, "POST", "/accounts", tc.body)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
			assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
		})
	}

	t.Run("returns 401 without auth", func(t *testing.T) {
		handler := NewAccountHandler(&mockAccountService{}, &mockAuditService{})
		r := gin.New()
		r.POST("/accounts", handler.CreateAccount)

		rec := doRequest(r, "POST", "/accounts", `{"name":"Test"}`)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}

func TestAccountHandler_GetUserAccounts(t *testing.T) {
	t.Run("returns 200 with paginated accounts", func(t *testing.T) {
		acctSvc := &mockAccountService{
			getUserAccountsFn: func(_ string, _ pagination.PageRequest) (*pagination.PageResponse[models.Account], error) {
				resp := pagination.NewPageResponse([]models.Account{
					{Name: "Checking"},
					{Name: "Savings"},
				}, 1, 20, 2)
				return &resp, nil
			},
		}
		r := setupAccountRouter(NewAccountHandler(acctSvc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/accounts", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if data := result["data"].([]interface{}); len(data) != 2 {
			t.Errorf("expected 2 accounts, got %d", len(data))
		}
		if result["total_items"].(float64) != 2 {
			t.Errorf("expected total_items=2, got %v", result["total_items"])
		}
	})

	t.Run("passes pagination params to service", func(t *testing.T) {
		var capturedPage pagination.PageRequest
		acctSvc := &mockAccountService{
			getUserAccountsFn: func(_ string, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error) {
				capturedPage = page
				resp := pagination.NewPageResponse([]models.Account{}, 2, 5, 0)
				return &resp, nil
			},
		}
		r := setupAccountRouter(NewAccountHandler(acctSvc, &mockAuditService{}))

		doRequest(r, "GET", "/accounts?page=2&page_size=5", "")

		if capturedPage.Page != 2 || capturedPage.PageSize != 5 {
			t.Errorf("expected page=2 page_size=5, got %+v", capturedPage)
		}
	})

	t.Run("returns 400 on oversized page", func(t *testing.T) {
		r := setupAccountRouter(NewAccountHandler(&mockAccountService{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/accounts?page_size=500", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestAccountHandler_GetAccountByID(t *testing.T) {
	t.Run("returns 200 on success", func(t *testing.T) {
		acctSvc := &mockAccountService{
			getAccountByIDFn: func(userID, accountID string) (*models.Account, error) {
				if userID != testUserID {
					t.Errorf("expected user %s, got %s", testUserID, userID)
				}
				a := &models.Account{Name: "Savings", Type: models.AccountTypeSavings}
				a.ID = accountID
				return a, nil
			},
		}
		r := setupAccountRouter(NewAccountHandler(acctSvc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/accounts/"+testAccountID, "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		acct := parseJSON(t, rec)["account"].(map[string]interface{})
		if acct["id"] != testAccountID {
			t.Errorf("expected id %s, got %v", testAccountID, acct["id"])
		}
	})

	t.Run("returns 404 when not found", func(t *testing.T) {
		acctSvc := &mockAccountService{
			getAccountByIDFn: func(_, _ string) (*models.Account, error) {
				return nil, apperrors.ErrAccountNotFound
			},
		}
		r := setupAccountRouter(NewAccountHandler(acctSvc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/accounts/"+testAccountID, "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "ACCOUNT_NOT_FOUND")
	})

	t.Run("returns 400 on invalid ID", func(t *testing.T) {
		r := setupAccountRouter(NewAccountHandler(&mockAccountService{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/accounts/abc", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestAccountHandler_UpdateAccount(t *testing.T) {
	t.Run("returns 200 on success", func(t *testing.T) {
		var got services.AccountUpdateFields
		acctSvc := &mockAccountService{
			updateAccountFn: func(_, accountID string, fields services.AccountUpdateFields) (*models.Account, error) {
				got = fields
				a := &models.Account{Name: *fields.Name}
				a.ID = accountID
				return a, nil
			},
		}
		r := setupAccountRouter(NewAccountHandler(acctSvc, &mockAuditService{}))

		rec := doRequest(r, "PUT", "/accounts/"+testAccountID, `{"name":"Updated","is_active":false}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.IsActive == nil || *got.IsActive {
			t.Error("expected is_active=false to be passed through")
		}
		if got.Institution != nil {
			t.Error("expected institution to be left unset")
		}
	})

	t.Run("returns 400 when updating the balance", func(t *testing.T) {
		r := setupAccountRouter(NewAccountHandler(&mockAccountService{}, &mockAuditService{}))

		rec := doRequest(r, "PUT", "/accounts/"+testAccountID, `{"balance":100}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestAccountHandler_DeactivateAccount(t *testing.T) {
	t.Run("returns 200 on success", func(t *testing.T) {
		called := false
		acctSvc := &mockAccountService{
			deactivateAccountFn: func(_, accountID string) error {
				called = accountID == testAccountID
				return nil
			},
		}
		r := setupAccountRouter(NewAccountHandler(acctSvc, &mockAuditService{}))

		rec := doRequest(r, "DELETE", "/accounts/"+testAccountID, "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !called {
			t.Error("expected DeactivateAccount to be called with the path ID")
		}
	})

	t.Run("returns 404 for another user's account", func(t *testing.T) {
		acctSvc := &mockAccountService{
			deactivateAccountFn: func(_, _ string) error { return apperrors.ErrAccountNotFound },
		}
		r := setupAccountRouter(NewAccountHandler(acctSvc, &mockAuditService{}))

		rec := doRequest(r, "DELETE", "/accounts/"+testAccountID, "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}
