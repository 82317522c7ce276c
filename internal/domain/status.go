package domain

// CanTransition reports whether a message may move from one status to another.
// Outbound messages only move forward along SCHEDULED/PENDING -> SENT|FAILED ->
// DELIVERED -> READ; inbound messages only go DELIVERED -> READ.
func CanTransition(direction Direction, from, to MessageStatus) bool {
	if from == to {
		return false
	}
	if direction == DirectionInbound {
		return to == StatusRead && (from == StatusDelivered || from == StatusSent || from == StatusPending)
	}

	switch from {
	case StatusScheduled, StatusPending:
		return to == StatusSent || to == StatusFailed || to == StatusDelivered || to == StatusRead
	case StatusSent:
		return to == StatusDelivered || to == StatusRead || to == StatusFailed
	case StatusDelivered:
		return to == StatusRead
	default:
		return false
	}
}
