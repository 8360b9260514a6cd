// Package sla computes statutory response deadlines and derives live breach
// flags from them. Everything here is pure: identical inputs always produce
// identical outputs.
package sla

import "time"

// ComputeDueDates derives both deadlines from the receipt time.
// The acknowledgement deadline advances by ackDays business days (Mon-Fri,
// no holiday calendar); the final-response deadline advances by finalWeeks
// calendar weeks exactly.
func ComputeDueDates(receivedAt time.Time, ackDays, finalWeeks int) (ackDueAt, finalDueAt time.Time) {
	ackDueAt = AddBusinessDays(receivedAt, ackDays)
	finalDueAt = receivedAt.AddDate(0, 0, finalWeeks*7)
	return ackDueAt, finalDueAt
}

// AddBusinessDays walks forward one calendar day at a time, counting a day
// only when it lands on Monday through Friday.
func AddBusinessDays(start time.Time, days int) time.Time {
	current := start
	added := 0
	for added < days {
		current = current.AddDate(0, 0, 1)
		switch current.Weekday() {
		case time.Saturday, time.Sunday:
		default:
			added++
		}
	}
	return current
}

// BreachFlags recomputes the outstanding breach state. A deadline is
// breached only while the corresponding response is still missing; the
// flags are derived, never accumulated, so repeated calls with the same
// inputs agree. Comparisons happen in UTC.
func BreachFlags(ackDueAt, finalDueAt time.Time, acknowledgedAt, finalResponseAt *time.Time, now time.Time) (ackBreached, finalBreached bool) {
	now = now.UTC()
	if acknowledgedAt == nil && !ackDueAt.IsZero() && now.After(ackDueAt.UTC()) {
		ackBreached = true
	}
	if finalResponseAt == nil && !finalDueAt.IsZero() && now.After(finalDueAt.UTC()) {
		finalBreached = true
	}
	return ackBreached, finalBreached
}
