// Package redemption gates reward redemptions on the current point balance.
package redemption

// CanRedeem reports whether a reward costing pointsRequired is affordable
// with totalPoints. It never changes the balance; the server owns that.
func CanRedeem(pointsRequired, totalPoints int) bool {
	return pointsRequired <= totalPoints
}

// Shortfall returns how many points are missing, 0 when redeemable.
func Shortfall(pointsRequired, totalPoints int) int {
	if CanRedeem(pointsRequired, totalPoints) {
		return 0
	}
	return pointsRequired - totalPoints
}
