package orders

import "github.com/jkiprotich/mifugo-market-backend/pkg/enums"

// fulfillmentRank orders the forward-only fulfillment chain.
var fulfillmentRank = map[enums.OrderStatus]int{
	enums.OrderStatusPending:    0,
	enums.OrderStatusProcessing: 1,
	enums.OrderStatusShipped:    2,
	enums.OrderStatusDelivered:  3,
}

// CanTransition reports whether a supplier may move an order from one status
// to another. Fulfillment moves forward only; cancelled is reachable from any
// non-terminal state.
func CanTransition(from, to enums.OrderStatus) bool {
	if from == to {
		return false
	}
	if to == enums.OrderStatusCancelled {
		return !from.IsTerminal()
	}

	fromRank, ok := fulfillmentRank[from]
	if !ok {
		return false
	}
	toRank, ok := fulfillmentRank[to]
	if !ok {
		return false
	}
	return toRank > fromRank
}
