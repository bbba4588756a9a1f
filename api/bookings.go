package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/reysilvaa/PBL-SportCentre-sub000/internal/domain"
	"github.com/reysilvaa/PBL-SportCentre-sub000/internal/metrics"
	"github.com/reysilvaa/PBL-SportCentre-sub000/internal/service/booking"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type createBookingRequest struct {
	FieldID       int64  `json:"field_id"`
	UserID        int64  `json:"user_id"`
	Date          string `json:"date"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	Method        string `json:"method"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
}

type bookingResponse struct {
	BookingID   int64   `json:"booking_id"`
	PaymentID   int64   `json:"payment_id"`
	OrderRef    string  `json:"order_ref"`
	FieldID     int64   `json:"field_id"`
	Date        string  `json:"date"`
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time"`
	Amount      int64   `json:"amount"`
	Status      string  `json:"status"`
	RedirectURL *string `json:"redirect_url,omitempty"`
	ExpiresAt   *string `json:"expires_at,omitempty"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.GET("/availability", h.availability)
	router.POST("/", h.create)
	router.DELETE("/:id", h.cancel)
}

func (h *BookingHandler) availability(c *gin.Context) {
	fieldID, err := strconv.ParseInt(c.Query("field_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid field_id"})
		return
	}

	date, start, end, err := parseInterval(c.Query("date"), c.Query("start_time"), c.Query("end_time"))
	if err != nil {
		writeError(c, err)
		return
	}

	available, conflicts, err := h.service.CheckAvailability(c.Request.Context(), fieldID, date, start, end)
	if err != nil {
		writeError(c, err)
		return
	}

	windows := make([]gin.H, 0, len(conflicts))
	for _, w := range conflicts {
		windows = append(windows, gin.H{
			"start_time": w.StartTime.Format("15:04"),
			"end_time":   w.EndTime.Format("15:04"),
		})
	}
	c.JSON(http.StatusOK, gin.H{"available": available, "conflicts": windows})
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	date, start, end, err := parseInterval(req.Date, req.StartTime, req.EndTime)
	if err != nil {
		writeError(c, err)
		return
	}

	b, p, err := h.service.CreateBooking(c.Request.Context(), booking.CreateBookingInput{
		FieldID:       req.FieldID,
		UserID:        req.UserID,
		Date:          date,
		StartTime:     start,
		EndTime:       end,
		Method:        domain.PaymentMethod(req.Method),
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
	})
	if err != nil && b == nil {
		writeError(c, err)
		return
	}

	metrics.RecordBookingCreated()
	resp := toBookingResponse(b, p)

	// The reservation committed but the gateway call failed; report it so
	// the caller retries obtaining a redirect instead of rebooking.
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "payment gateway unavailable, reservation held as pending",
			"booking": resp,
		})
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *BookingHandler) cancel(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.service.CancelBooking(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cancelled": id})
}

func toBookingResponse(b *domain.Booking, p *domain.Payment) bookingResponse {
	resp := bookingResponse{
		BookingID: b.ID,
		PaymentID: p.ID,
		OrderRef:  p.OrderRef,
		FieldID:   b.FieldID,
		Date:      b.BookingDate.Format("2006-01-02"),
		StartTime: b.StartTime.Format("15:04"),
		EndTime:   b.EndTime.Format("15:04"),
		Amount:    p.Amount,
		Status:    string(p.Status),
	}
	resp.RedirectURL = p.RedirectURL
	if p.ExpiresAt != nil {
		s := p.ExpiresAt.Format(time.RFC3339)
		resp.ExpiresAt = &s
	}
	return resp
}

// parseInterval builds the [start, end) timestamps from a date and two
// wall-clock times. Any malformed input or an empty/negative interval is
// ErrInvalidInterval before anything touches storage.
func parseInterval(dateStr, startStr, endStr string) (date, start, end time.Time, err error) {
	date, err = time.Parse("2006-01-02", dateStr)
	if err != nil {
		return date, start, end, domain.ErrInvalidInterval
	}
	startClock, err := time.Parse("15:04", startStr)
	if err != nil {
		return date, start, end, domain.ErrInvalidInterval
	}
	endClock, err := time.Parse("15:04", endStr)
	if err != nil {
		return date, start, end, domain.ErrInvalidInterval
	}

	start = time.Date(date.Year(), date.Month(), date.Day(), startClock.Hour(), startClock.Minute(), 0, 0, time.Local)
	end = time.Date(date.Year(), date.Month(), date.Day(), endClock.Hour(), endClock.Minute(), 0, 0, time.Local)
	if !end.After(start) {
		return date, start, end, domain.ErrInvalidInterval
	}
	return date, start, end, nil
}
