package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/reysilvaa/PBL-SportCentre-sub000/internal/domain"
	"github.com/reysilvaa/PBL-SportCentre-sub000/internal/service/booking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockBookingUseCase is a mock implementation of booking.BookingUseCase
type MockBookingUseCase struct {
	mock.Mock
}

func (m *MockBookingUseCase) CheckAvailability(ctx context.Context, fieldID int64, date, start, end time.Time) (bool, []booking.Window, error) {
	args := m.Called(ctx, fieldID, date, start, end)
	return args.Bool(0), args.Get(1).([]booking.Window), args.Error(2)
}

func (m *MockBookingUseCase) CreateBooking(ctx context.Context, input booking.CreateBookingInput) (*domain.Booking, *domain.Payment, error) {
	args := m.Called(ctx, input)
	var b *domain.Booking
	var p *domain.Payment
	if args.Get(0) != nil {
		b = args.Get(0).(*domain.Booking)
	}
	if args.Get(1) != nil {
		p = args.Get(1).(*domain.Payment)
	}
	return b, p, args.Error(2)
}

func (m *MockBookingUseCase) CancelBooking(ctx context.Context, bookingID int64) error {
	args := m.Called(ctx, bookingID)
	return args.Error(0)
}

func testBooking() *domain.Booking {
	return &domain.Booking{
		ID:          11,
		FieldID:     4,
		UserID:      7,
		BookingDate: time.Date(2026, 3, 14, 0, 0, 0, 0, time.Local),
		StartTime:   time.Date(2026, 3, 14, 17, 0, 0, 0, time.Local),
		EndTime:     time.Date(2026, 3, 14, 19, 0, 0, 0, time.Local),
	}
}

func testPayment() *domain.Payment {
	return &domain.Payment{
		ID:        21,
		BookingID: 11,
		UserID:    7,
		OrderRef:  "PAY-abc",
		Amount:    250000,
		Status:    domain.PaymentStatusPending,
	}
}

func TestBookingHandler_availability(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/bookings/availability?field_id=4&date=2026-03-14&start_time=18:30&end_time=19:30", nil)

	conflicts := []booking.Window{{
		StartTime: time.Date(2026, 3, 14, 17, 0, 0, 0, time.Local),
		EndTime:   time.Date(2026, 3, 14, 19, 0, 0, 0, time.Local),
	}}
	mockService.On("CheckAvailability", mock.Anything, int64(4), mock.Anything, mock.Anything, mock.Anything).
		Return(false, conflicts, nil)

	handler.availability(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Available bool `json:"available"`
		Conflicts []struct {
			StartTime string `json:"start_time"`
			EndTime   string `json:"end_time"`
		} `json:"conflicts"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Available)
	assert.Len(t, resp.Conflicts, 1)
	assert.Equal(t, "17:00", resp.Conflicts[0].StartTime)
	assert.Equal(t, "19:00", resp.Conflicts[0].EndTime)
}

func TestBookingHandler_availability_badInterval(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/bookings/availability?field_id=4&date=2026-03-14&start_time=19:00&end_time=18:00", nil)

	handler.availability(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "CheckAvailability")
}

func TestBookingHandler_create(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	body, _ := json.Marshal(createBookingRequest{
		FieldID:   4,
		UserID:    7,
		Date:      "2026-03-14",
		StartTime: "17:00",
		EndTime:   "19:00",
		Method:    "BANK_TRANSFER",
	})
	c.Request = httptest.NewRequest("POST", "/bookings/", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	p := testPayment()
	redirect := "https://gateway.example/redirect"
	p.RedirectURL = &redirect

	mockService.On("CreateBooking", mock.Anything, mock.MatchedBy(func(in booking.CreateBookingInput) bool {
		return in.FieldID == 4 && in.UserID == 7 && in.Method == domain.MethodBankTransfer &&
			in.StartTime.Hour() == 17 && in.EndTime.Hour() == 19
	})).Return(testBooking(), p, nil)

	handler.create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp bookingResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(11), resp.BookingID)
	assert.Equal(t, int64(21), resp.PaymentID)
	assert.Equal(t, "PAY-abc", resp.OrderRef)
	assert.Equal(t, int64(250000), resp.Amount)
	assert.Equal(t, "PENDING", resp.Status)
	assert.Equal(t, redirect, *resp.RedirectURL)
}

func TestBookingHandler_create_conflict(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	body, _ := json.Marshal(createBookingRequest{
		FieldID:   4,
		UserID:    7,
		Date:      "2026-03-14",
		StartTime: "18:30",
		EndTime:   "19:30",
	})
	c.Request = httptest.NewRequest("POST", "/bookings/", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	mockService.On("CreateBooking", mock.Anything, mock.Anything).Return(nil, nil, &domain.SlotConflictError{
		FieldID:   4,
		Date:      "2026-03-14",
		StartTime: time.Date(2026, 3, 14, 17, 0, 0, 0, time.Local),
		EndTime:   time.Date(2026, 3, 14, 19, 0, 0, 0, time.Local),
	})

	handler.create(c)

	assert.Equal(t, http.StatusConflict, w.Code)
	var resp struct {
		Error    string `json:"error"`
		Conflict struct {
			StartTime string `json:"start_time"`
			EndTime   string `json:"end_time"`
		} `json:"conflict"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "slot conflict", resp.Error)
	assert.Equal(t, "17:00", resp.Conflict.StartTime)
	assert.Equal(t, "19:00", resp.Conflict.EndTime)
}

func TestBookingHandler_create_badDate(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	body, _ := json.Marshal(createBookingRequest{
		FieldID:   4,
		Date:      "14-03-2026",
		StartTime: "17:00",
		EndTime:   "19:00",
	})
	c.Request = httptest.NewRequest("POST", "/bookings/", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "CreateBooking")
}

func TestBookingHandler_create_gatewayDown(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	body, _ := json.Marshal(createBookingRequest{
		FieldID:   4,
		UserID:    7,
		Date:      "2026-03-14",
		StartTime: "17:00",
		EndTime:   "19:00",
	})
	c.Request = httptest.NewRequest("POST", "/bookings/", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	mockService.On("CreateBooking", mock.Anything, mock.Anything).
		Return(testBooking(), testPayment(), domain.ErrGatewayUnavailable)

	handler.create(c)

	// Reservation is held; the body carries it so the caller can retry the redirect.
	assert.Equal(t, http.StatusBadGateway, w.Code)
	var resp struct {
		Error   string          `json:"error"`
		Booking bookingResponse `json:"booking"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(11), resp.Booking.BookingID)
	assert.Equal(t, "PENDING", resp.Booking.Status)
}

func TestBookingHandler_cancel(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("DELETE", "/bookings/11", nil)
	c.Params = gin.Params{{Key: "id", Value: "11"}}

	mockService.On("CancelBooking", mock.Anything, int64(11)).Return(nil)

	handler.cancel(c)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestBookingHandler_cancel_paid(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("DELETE", "/bookings/11", nil)
	c.Params = gin.Params{{Key: "id", Value: "11"}}

	mockService.On("CancelBooking", mock.Anything, int64(11)).Return(domain.ErrBookingPaid)

	handler.cancel(c)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
