package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ariefcatur/go-pickup-orders.git/internal/orders"
	"github.com/ariefcatur/go-pickup-orders.git/internal/payments"
)

func TestStatusCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{&orders.InsufficientStockError{ProductID: "p1", Required: 3, Available: 1}, http.StatusConflict},
		{fmt.Errorf("create order: %w", &orders.InsufficientStockError{}), http.StatusConflict},
		{orders.ErrDuplicateOrderNumber, http.StatusConflict},
		{orders.ErrAlreadyCancelled, http.StatusUnprocessableEntity},
		{orders.ErrCannotCancelCompleted, http.StatusUnprocessableEntity},
		{&orders.InvalidTransitionError{From: orders.StatusPending, To: orders.StatusPickedUp}, http.StatusUnprocessableEntity},
		{orders.ErrOrderNotFound, http.StatusNotFound},
		{orders.ErrStockNotFound, http.StatusNotFound},
		{payments.ErrNotFound, http.StatusNotFound},
		{orders.ErrNoItems, http.StatusBadRequest},
		{orders.ErrInvalidQuantity, http.StatusBadRequest},
		{orders.ErrTotalMismatch, http.StatusBadRequest},
		{orders.ErrUnknownStatus, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, statusCode(c.err), "%v", c.err)
	}
}
