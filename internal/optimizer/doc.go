// Package optimizer splits an order into groups, picks the cheapest catalog
// box that physically holds each group and ranks the resulting solutions by
// total cost.
//
// The search strategy depends on the number of units n after quantities are
// expanded: every set partition is evaluated for n <= 6, a time-budgeted
// depth-first search runs for 7 <= n <= 10, and first-fit-decreasing with one
// merge pass handles larger orders.
package optimizer
