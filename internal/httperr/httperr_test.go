package httperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"

	"github.com/rajivgeraev/unlisted-api/internal/directory"
	"github.com/rajivgeraev/unlisted-api/internal/market"
	"github.com/rajivgeraev/unlisted-api/internal/negotiation"
	"github.com/rajivgeraev/unlisted-api/internal/store"
)

func TestStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: price", market.ErrInvalidInput), fiber.StatusBadRequest},
		{directory.ErrInvalidISIN, fiber.StatusBadRequest},
		{market.ErrForbidden, fiber.StatusForbidden},
		{market.ErrOwnListing, fiber.StatusForbidden},
		{store.ErrNotFound, fiber.StatusNotFound},
		{negotiation.ErrBidNotFound, fiber.StatusNotFound},
		{directory.ErrCompanyNotFound, fiber.StatusNotFound},
		{negotiation.ErrListingClosed, fiber.StatusConflict},
		{negotiation.ErrNoCounterOffer, fiber.StatusConflict},
		{negotiation.ErrNotPendingApproval, fiber.StatusConflict},
		{negotiation.ErrNegotiationOver, fiber.StatusConflict},
		{negotiation.ErrBidNotOpen, fiber.StatusConflict},
		{fiber.NewError(fiber.StatusTeapot, "tea"), fiber.StatusTeapot},
		{errors.New("boom"), fiber.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Status(tc.err), tc.err.Error())
	}
}
