package kafka

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodePaymentEvent(t *testing.T) {
	data := []byte(`{"type":"payment_transition","payment_id":21,"booking_id":11,"user_id":7,"order_ref":"PAY-abc","field_id":4,"date":"2026-03-14","amount":250000,"from_status":"PENDING","to_status":"PAID"}`)

	event, err := decodePaymentEvent(data)
	assert.NoError(t, err)
	assert.Equal(t, "payment_transition", event.Type)
	assert.Equal(t, int64(21), event.PaymentID)
	assert.Equal(t, "PAY-abc", event.OrderRef)
	assert.Equal(t, "PAID", event.ToStatus)
}

func TestDecodePaymentEvent_Malformed(t *testing.T) {
	_, err := decodePaymentEvent([]byte("not json"))
	assert.Error(t, err)
}
