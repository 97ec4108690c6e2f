package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yallaeat/delivery-console/internal/api"
	"github.com/yallaeat/delivery-console/internal/checkout"
	"github.com/yallaeat/delivery-console/internal/driver"
	"github.com/yallaeat/delivery-console/internal/order"
	"github.com/yallaeat/delivery-console/internal/wallet"
)

func TestWriteDomainErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "upstream business error keeps status and message",
			err:        &api.Error{StatusCode: http.StatusConflict, Message: "order already taken"},
			wantStatus: http.StatusConflict,
			wantMsg:    "order already taken",
		},
		{
			name:       "validation error is 422",
			err:        order.ErrMissingPhone,
			wantStatus: http.StatusUnprocessableEntity,
			wantMsg:    order.ErrMissingPhone.Error(),
		},
		{
			name:       "withdrawal below minimum is 422",
			err:        wallet.ErrBelowMinimum,
			wantStatus: http.StatusUnprocessableEntity,
			wantMsg:    wallet.ErrBelowMinimum.Error(),
		},
		{
			name:       "double submit is 409",
			err:        checkout.ErrAlreadySubmitted,
			wantStatus: http.StatusConflict,
			wantMsg:    checkout.ErrAlreadySubmitted.Error(),
		},
		{
			name:       "withdrawal in flight is 409",
			err:        driver.ErrWithdrawalInFlight,
			wantStatus: http.StatusConflict,
			wantMsg:    driver.ErrWithdrawalInFlight.Error(),
		},
		{
			name:       "unknown order is 404",
			err:        driver.ErrOrderNotActive,
			wantStatus: http.StatusNotFound,
			wantMsg:    driver.ErrOrderNotActive.Error(),
		},
		{
			name:       "transport failure is 502",
			err:        errors.New("connection refused"),
			wantStatus: http.StatusBadGateway,
			wantMsg:    "connection refused",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/x", nil)

			writeDomainError(rr, req, tc.err)

			assert.Equal(t, tc.wantStatus, rr.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, tc.wantMsg, body["error"])
		})
	}
}
