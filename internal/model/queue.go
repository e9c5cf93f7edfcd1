package model

import "sort"

// QueueEntry is a snapshot of one job on the instrument run queue.
type QueueEntry struct {
	JobID   int
	Name    string
	Project string
	Dormant bool
}

// SortQueue returns a copy of entries ordered by ascending job id. The lowest
// id is the job currently running, if any.
func SortQueue(entries []QueueEntry) []QueueEntry {
	out := make([]QueueEntry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].JobID < out[j].JobID
	})
	return out
}
