package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "moneta/internal/errors"
	"moneta/internal/models"
	"moneta/internal/pagination"
	"moneta/internal/services"
)

const testCardID = "0190a1b2-0000-7000-8000-000000000cc1"

type mockCreditCardService struct {
	createFn  func(userID string, in services.CreditCardInput) (*models.CreditCard, error)
	listFn    func(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.CreditCard], error)
	getFn     func(userID, cardID string) (*models.CreditCard, error)
	updateFn  func(userID, cardID string, in services.CreditCardUpdate) (*models.CreditCard, error)
	deleteFn  func(userID, cardID string) error
	summaryFn func(userID string) (*services.CreditCardSummary, error)
}

func (m *mockCreditCardService) CreateCreditCard(userID string, in services.CreditCardInput) (*models.CreditCard, error) {
	if m.createFn != nil {
		return m.createFn(userID, in)
	}
	return &models.CreditCard{}, nil
}

func (m *mockCreditCardService) GetUserCreditCards(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.CreditCard], error) {
	if m.listFn != nil {
		return m.listFn(userID, page)
	}
	resp := pagination.NewPageResponse([]models.CreditCard{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockCreditCardService) GetCreditCardByID(userID, cardID string) (*models.CreditCard, error) {
	if m.getFn != nil {
		return m.getFn(userID, cardID)
	}
	return &models.CreditCard{}, nil
}

func (m *mockCreditCardService) UpdateCreditCard(userID, cardID string, in services.CreditCardUpdate) (*models.CreditCard, error) {
	if m.updateFn != nil {
		return m.updateFn(userID, cardID, in)
	}
	return &models.CreditCard{}, nil
}

func (m *mockCreditCardService) DeleteCreditCard(userID, cardID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(userID, cardID)
	}
	return nil
}

func (m *mockCreditCardService) GetCreditCardSummary(userID string) (*services.CreditCardSummary, error) {
	if m.summaryFn != nil {
		return m.summaryFn(userID)
	}
	return &services.CreditCardSummary{}, nil
}

var _ services.CreditCardServicer = (*mockCreditCardService)(nil)

func setupCreditCardRouter(handler *CreditCardHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.POST("/credit-cards", handler.CreateCreditCard)
	auth.GET("/credit-cards", handler.GetUserCreditCards)
	auth.GET("/credit-cards/summary", handler.GetCreditCardSummary)
	auth.GET("/credit-cards/:id", handler.GetCreditCardByID)
	auth.PUT("/credit-cards/:id", handler.UpdateCreditCard)
	auth.DELETE("/credit-cards/:id", handler.DeleteCreditCard)
	return r
}

func TestCreditCardHandler_CreateCreditCard(t *testing.T) {
	t.Run("converts amounts and reports utilization", func(t *testing.T) {
		var got services.CreditCardInput
		svc := &mockCreditCardService{
			createFn: func(userID string, in services.CreditCardInput) (*models.CreditCard, error) {
				got = in
				card := &models.CreditCard{UserID: userID, Name: in.Name, CreditLimit: in.CreditLimit, CurrentBalance: in.CurrentBalance, APR: in.APR}
				card.ID = testCardID
				return card, nil
			},
		}
		r := setupCreditCardRouter(NewCreditCardHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/credit-cards",
			`{"name":"Visa","last_four":"4242","credit_limit":"5000","current_balance":"2000.00","apr":"19.99","payment_due_day":15}`)

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.Equal(t, int64(500000), got.CreditLimit)
		assert.Equal(t, int64(200000), got.CurrentBalance)
		require.NotNil(t, got.APR)
		assert.InDelta(t, 19.99, *got.APR, 1e-9)
		require.NotNil(t, got.PaymentDueDay)
		assert.Equal(t, 15, *got.PaymentDueDay)

		card := parseJSON(t, rec)["credit_card"].(map[string]interface{})
		assert.Equal(t, "Visa", card["name"])
		assert.Equal(t, float64(40), card["utilization"])
		assert.Equal(t, true, card["high_utilization"])
	})

	invalid := []struct {
		name string
		body string
	}{
		{"missing name", `{"credit_limit":"100"}`},
		{"last four too long", `{"name":"V","last_four":"42424"}`},
		{"last four letters", `{"name":"V","last_four":"abcd"}`},
		{"bad color", `{"name":"V","color":"blue"}`},
		{"negative due day", `{"name":"V","payment_due_day":-1}`},
		{"closing day 32", `{"name":"V","statement_closing_day":32}`},
		{"sub-cent limit", `{"name":"V","credit_limit":"1.005"}`},
	}
	for _, tc := range invalid {
		t.Run(tc.name, func(t *testing.T) {
			r := setupCreditCardRouter(NewCreditCardHandler(&mockCreditCardService{}, &mockAuditService{}))
			rec := doRequest(r, "POST", "/credit-cards", tc.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
		})
	}
}

func TestCreditCardHandler_GetUserCreditCards(t *testing.T) {
	svc := &mockCreditCardService{
		listFn: func(_ string, page pagination.PageRequest) (*pagination.PageResponse[models.CreditCard], error) {
			cards := []models.CreditCard{
				{Name: "A", CreditLimit: 1000, CurrentBalance: 100},
				{Name: "B", CreditLimit: 0, CurrentBalance: 0},
			}
			resp := pagination.NewPageResponse(cards, 1, 20, 2)
			return &resp, nil
		},
	}
	r := setupCreditCardRouter(NewCreditCardHandler(svc, &mockAuditService{}))

	rec := doRequest(r, "GET", "/credit-cards", "")

	require.Equal(t, http.StatusOK, rec.Code)
	result := parseJSON(t, rec)
	data := result["data"].([]interface{})
	require.Len(t, data, 2)
	assert.Equal(t, float64(10), data[0].(map[string]interface{})["utilization"])
	assert.Equal(t, float64(0), data[1].(map[string]interface{})["utilization"])
	assert.Equal(t, float64(2), result["total_items"])
}

func TestCreditCardHandler_GetCreditCardByID(t *testing.T) {
	svc := &mockCreditCardService{
		getFn: func(_, _ string) (*models.CreditCard, error) {
			return nil, apperrors.ErrCreditCardNotFound
		},
	}
	r := setupCreditCardRouter(NewCreditCardHandler(svc, &mockAuditService{}))

	rec := doRequest(r, "GET", "/credit-cards/"+testCardID, "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	assertErrorCode(t, parseJSON(t, rec), "CREDIT_CARD_NOT_FOUND")
}

func TestCreditCardHandler_UpdateCreditCard(t *testing.T) {
	var got services.CreditCardUpdate
	svc := &mockCreditCardService{
		updateFn: func(_, _ string, in services.CreditCardUpdate) (*models.CreditCard, error) {
			got = in
			return &models.CreditCard{CreditLimit: 100000, CurrentBalance: 10000}, nil
		},
	}
	r := setupCreditCardRouter(NewCreditCardHandler(svc, &mockAuditService{}))

	rec := doRequest(r, "PUT", "/credit-cards/"+testCardID, `{"current_balance":"100","is_active":false}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, got.CurrentBalance)
	assert.Equal(t, int64(10000), *got.CurrentBalance)
	require.NotNil(t, got.IsActive)
	assert.False(t, *got.IsActive)
	assert.Nil(t, got.CreditLimit)
	assert.Nil(t, got.APR)
}

func TestCreditCardHandler_DeleteCreditCard(t *testing.T) {
	deleted := ""
	svc := &mockCreditCardService{
		deleteFn: func(_, cardID string) error {
			deleted = cardID
			return nil
		},
	}
	r := setupCreditCardRouter(NewCreditCardHandler(svc, &mockAuditService{}))

	rec := doRequest(r, "DELETE", "/credit-cards/"+testCardID, "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, testCardID, deleted)
}

func TestCreditCardHandler_GetCreditCardSummary(t *testing.T) {
	svc := &mockCreditCardService{
		summaryFn: func(_ string) (*services.CreditCardSummary, error) {
			return &services.CreditCardSummary{TotalUsed: 3000, TotalLimit: 10000, Utilization: 30, CardCount: 2}, nil
		},
	}
	r := setupCreditCardRouter(NewCreditCardHandler(svc, &mockAuditService{}))

	rec := doRequest(r, "GET", "/credit-cards/summary", "")

	require.Equal(t, http.StatusOK, rec.Code)
	result := parseJSON(t, rec)
	assert.Equal(t, float64(30), result["utilization"])
	assert.Equal(t, false, result["high_utilization"])
}
