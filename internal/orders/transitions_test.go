package orders

import (
	"testing"

	"github.com/jkiprotich/mifugo-market-backend/pkg/enums"
)

func TestCanTransition(t *testing.T) {
	t.Parallel()

	cases := []struct {
		from, to enums.OrderStatus
		want     bool
	}{
		{enums.OrderStatusPending, enums.OrderStatusProcessing, true},
		{enums.OrderStatusProcessing, enums.OrderStatusShipped, true},
		{enums.OrderStatusShipped, enums.OrderStatusDelivered, true},
		{enums.OrderStatusPending, enums.OrderStatusShipped, true},
		{enums.OrderStatusDelivered, enums.OrderStatusProcessing, false},
		{enums.OrderStatusShipped, enums.OrderStatusPending, false},
		{enums.OrderStatusPending, enums.OrderStatusPending, false},
		{enums.OrderStatusPending, enums.OrderStatusCancelled, true},
		{enums.OrderStatusShipped, enums.OrderStatusCancelled, true},
		{enums.OrderStatusDelivered, enums.OrderStatusCancelled, false},
		{enums.OrderStatusCancelled, enums.OrderStatusProcessing, false},
		{enums.OrderStatusCancelled, enums.OrderStatusCancelled, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}
