package paymentwatch

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kafkax "github.com/ariefcatur/go-pickup-orders.git/internal/kafka"
	"github.com/ariefcatur/go-pickup-orders.git/internal/orders"
)

func TestIsTransient(t *testing.T) {
	assert.True(t, isTransient(&pgconn.PgError{Code: "40001"}))
	assert.True(t, isTransient(&pgconn.PgError{Code: "40P01"}))
	assert.True(t, isTransient(&pgconn.PgError{Code: "55P03"}))
	assert.True(t, isTransient(fmt.Errorf("cancel: %w", &pgconn.PgError{Code: "40001"})))
	assert.False(t, isTransient(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isTransient(errors.New("boom")))
}

func TestUnwrapGatewayReport(t *testing.T) {
	raw := json.RawMessage(`{"order_id":"o-1","status":"failed","payment_method":"gateway","gateway_ref":"tx-99"}`)
	env := orders.Envelope{EventType: orders.EventPaymentUpdated, Payload: raw}

	p, err := kafkax.UnwrapPayload[orders.PaymentUpdatedPayload](env.Payload)
	require.NoError(t, err)
	assert.Equal(t, "o-1", p.OrderID)
	assert.Equal(t, "failed", p.Status)
	require.NotNil(t, p.GatewayRef)
	assert.Equal(t, "tx-99", *p.GatewayRef)

	_, err = kafkax.UnwrapPayload[orders.PaymentUpdatedPayload](json.RawMessage(`not-json`))
	assert.Error(t, err)
}
