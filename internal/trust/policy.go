// Package trust holds the trust-level policy shared by the hotel and user
// services. All functions are pure; persistence is the caller's problem.
package trust

const (
	MaxLevel = 3

	// AutoConfirmLevel is the trust level at which new bookings skip the
	// pending state and are confirmed immediately.
	AutoConfirmLevel = 2
)

func CanAutoConfirm(level int) bool {
	return level >= AutoConfirmLevel
}

// CanCancelOnline reports whether a user may cancel a booking online.
// Level 0 users have to call the reception.
func CanCancelOnline(level int) bool {
	return level > 0
}

// ApplyCancellation returns the trust level and consecutive-cancellation
// counter after one more cancellation. The counter is incremented first,
// then the demotion table is applied; a demotion resets the counter.
func ApplyCancellation(level, consecutive int) (int, int) {
	consecutive++
	switch {
	case level == 1:
		return 0, 0
	case level == 2 && consecutive >= 2:
		return 1, 0
	case level == 3 && consecutive >= 3:
		return 1, 0
	}
	return level, consecutive
}

// PromotionFor maps a user's total completed-booking count to the trust
// level it earns.
func PromotionFor(completed int64) int {
	switch {
	case completed >= 10:
		return 3
	case completed >= 5:
		return 2
	case completed >= 2:
		return 1
	}
	return 0
}

// ApplyCompletion returns the trust level and consecutive-cancellation
// counter after a booking completes. Promotion is monotonic: the level
// never decreases on this path. Every second completed booking forgives a
// nonzero cancellation streak.
func ApplyCompletion(level, consecutive int, completed int64) (int, int) {
	if p := PromotionFor(completed); p > level {
		level = p
	}
	if completed > 0 && completed%2 == 0 && consecutive > 0 {
		consecutive = 0
	}
	return level, consecutive
}
