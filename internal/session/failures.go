package session

import (
	"sort"
	"time"
)

// RecentFailureCap bounds the recent-failure ring buffer.
const RecentFailureCap = 10

// FailureRecord captures one task failure.
type FailureRecord struct {
	Capability      string    `json:"capability"`
	TaskDescription string    `json:"task_description"`
	Error           string    `json:"error"`
	Ts              time.Time `json:"ts"`
	Attempts        int       `json:"attempts"`
}

// FailureHistory tracks cumulative per-capability failure counts plus a
// bounded buffer of the most recent failures. Counts only ever grow.
type FailureHistory struct {
	Counts map[string]int  `json:"counts,omitempty"`
	Recent []FailureRecord `json:"recent,omitempty"`
}

// Record registers one failure: increments the capability counter and
// appends to the recent buffer, evicting the oldest entry past capacity.
func (h *FailureHistory) Record(rec FailureRecord) {
	if h.Counts == nil {
		h.Counts = make(map[string]int)
	}
	h.Counts[rec.Capability]++

	h.Recent = append(h.Recent, rec)
	if len(h.Recent) > RecentFailureCap {
		h.Recent = h.Recent[len(h.Recent)-RecentFailureCap:]
	}
}

// Count returns the cumulative failure count for a capability.
func (h *FailureHistory) Count(capability string) int {
	return h.Counts[capability]
}

// Total returns the sum of all failure counts.
func (h *FailureHistory) Total() int {
	total := 0
	for _, n := range h.Counts {
		total += n
	}
	return total
}

// CriticalCapabilities returns the capabilities whose failure count has
// reached the threshold, sorted by name.
func (h *FailureHistory) CriticalCapabilities(threshold int) []string {
	var names []string
	for name, n := range h.Counts {
		if n >= threshold {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
