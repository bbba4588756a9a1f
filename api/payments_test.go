package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/reysilvaa/PBL-SportCentre-sub000/internal/domain"
	"github.com/reysilvaa/PBL-SportCentre-sub000/internal/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockPaymentUseCase is a mock implementation of payment.PaymentUseCase
type MockPaymentUseCase struct {
	mock.Mock
}

func (m *MockPaymentUseCase) ProcessNotification(ctx context.Context, n gateway.Notification, clientIP string) (*domain.Payment, error) {
	args := m.Called(ctx, n, clientIP)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentUseCase) SweepExpired(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockPaymentUseCase) RefundPayment(ctx context.Context, paymentID int64) (*domain.Payment, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func notificationBody() []byte {
	body, _ := json.Marshal(gateway.Notification{
		OrderRef:          "PAY-abc",
		TransactionID:     "tx-001",
		TransactionStatus: "settlement",
		StatusCode:        "200",
		GrossAmount:       "250000.00",
		PaymentType:       "bank_transfer",
		SignatureKey:      "sig",
	})
	return body
}

func TestPaymentHandler_notification(t *testing.T) {
	mockService := &MockPaymentUseCase{}
	handler := NewPaymentHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("POST", "/payments/notifications", bytes.NewReader(notificationBody()))
	c.Request.Header.Set("Content-Type", "application/json")

	paid := &domain.Payment{ID: 21, OrderRef: "PAY-abc", Status: domain.PaymentStatusPaid}
	mockService.On("ProcessNotification", mock.Anything, mock.MatchedBy(func(n gateway.Notification) bool {
		return n.OrderRef == "PAY-abc" && n.TransactionStatus == "settlement"
	}), mock.AnythingOfType("string")).Return(paid, nil)

	handler.notification(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		OrderRef string `json:"order_ref"`
		Status   string `json:"status"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "PAY-abc", resp.OrderRef)
	assert.Equal(t, "PAID", resp.Status)
}

func TestPaymentHandler_notification_badSignature(t *testing.T) {
	mockService := &MockPaymentUseCase{}
	handler := NewPaymentHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("POST", "/payments/notifications", bytes.NewReader(notificationBody()))
	c.Request.Header.Set("Content-Type", "application/json")

	mockService.On("ProcessNotification", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, domain.ErrUnauthorized)

	handler.notification(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPaymentHandler_notification_contention(t *testing.T) {
	mockService := &MockPaymentUseCase{}
	handler := NewPaymentHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("POST", "/payments/notifications", bytes.NewReader(notificationBody()))
	c.Request.Header.Set("Content-Type", "application/json")

	mockService.On("ProcessNotification", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, domain.ErrLockContention)

	handler.notification(c)

	// 409 with Retry-After asks the gateway for another delivery.
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "2", w.Header().Get("Retry-After"))
}

func TestPaymentHandler_notification_unknownOrder(t *testing.T) {
	mockService := &MockPaymentUseCase{}
	handler := NewPaymentHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("POST", "/payments/notifications", bytes.NewReader(notificationBody()))
	c.Request.Header.Set("Content-Type", "application/json")

	mockService.On("ProcessNotification", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, domain.ErrUnknownPayment)

	handler.notification(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPaymentHandler_refund(t *testing.T) {
	mockService := &MockPaymentUseCase{}
	handler := NewPaymentHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("POST", "/payments/21/refund", nil)
	c.Params = gin.Params{{Key: "id", Value: "21"}}

	refunded := &domain.Payment{ID: 21, OrderRef: "PAY-abc", Status: domain.PaymentStatusRefunded}
	mockService.On("RefundPayment", mock.Anything, int64(21)).Return(refunded, nil)

	handler.refund(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		PaymentID int64  `json:"payment_id"`
		Status    string `json:"status"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(21), resp.PaymentID)
	assert.Equal(t, "REFUNDED", resp.Status)
}

func TestPaymentHandler_sweep(t *testing.T) {
	mockService := &MockPaymentUseCase{}
	handler := NewPaymentHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("POST", "/payments/sweep", nil)

	mockService.On("SweepExpired", mock.Anything).Return(3, nil)

	handler.sweep(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Swept int `json:"swept"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Swept)
}
