package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/reysilvaa/PBL-SportCentre-sub000/internal/gateway"
	"github.com/reysilvaa/PBL-SportCentre-sub000/internal/service/payment"
)

type PaymentHandler struct {
	service payment.PaymentUseCase
}

func NewPaymentHandler(service payment.PaymentUseCase) *PaymentHandler {
	return &PaymentHandler{service: service}
}

func (h *PaymentHandler) Register(router *gin.RouterGroup) {
	router.POST("/notifications", h.notification)
	router.POST("/:id/refund", h.refund)
	router.POST("/sweep", h.sweep)
}

// notification is the gateway webhook ingress. Duplicate and stale
// callbacks come back 200 so the gateway stops retrying; only contention
// (409) and authentication (401) ask for another delivery.
func (h *PaymentHandler) notification(c *gin.Context) {
	var n gateway.Notification
	if err := c.ShouldBindJSON(&n); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := h.service.ProcessNotification(c.Request.Context(), n, c.ClientIP())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"order_ref": p.OrderRef,
		"status":    string(p.Status),
	})
}

func (h *PaymentHandler) refund(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	p, err := h.service.RefundPayment(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"payment_id": p.ID,
		"status":     string(p.Status),
	})
}

func (h *PaymentHandler) sweep(c *gin.Context) {
	count, err := h.service.SweepExpired(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"swept": count})
}
