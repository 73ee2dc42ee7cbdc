package interval

import (
	"sort"
	"sync"
	"time"

	"github.com/oakyard/oakyard/internal/domain"
)

// Interval is a half-open time range [Start, End) held by one booking.
type Interval struct {
	BookingID string
	Start     time.Time
	End       time.Time
}

// Overlap test for half-open intervals: a booking ending at 14:00 never
// conflicts with one starting at 14:00.
func (iv Interval) overlaps(start, end time.Time) bool {
	return iv.Start.Before(end) && start.Before(iv.End)
}

type spaceIntervals struct {
	mu sync.Mutex
	// sorted by Start; entries never overlap each other
	items []Interval
}

// Index keeps, per space, the ordered set of intervals occupied by active
// bookings (pending, confirmed or completed). Lookups and inserts are binary
// searches, so a space can accumulate thousands of bookings without turning
// availability checks into full scans.
type Index struct {
	mu     sync.RWMutex
	spaces map[string]*spaceIntervals
}

func NewIndex() *Index {
	return &Index{spaces: make(map[string]*spaceIntervals)}
}

func (idx *Index) space(spaceID string) *spaceIntervals {
	idx.mu.RLock()
	s, ok := idx.spaces[spaceID]
	idx.mu.RUnlock()
	if ok {
		return s
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	if s, ok = idx.spaces[spaceID]; !ok {
		s = &spaceIntervals{}
		idx.spaces[spaceID] = s
	}
	return s
}

// searchStart returns the position of the first interval starting at or after t.
func (s *spaceIntervals) searchStart(t time.Time) int {
	return sort.Search(len(s.items), func(i int) bool {
		return !s.items[i].Start.Before(t)
	})
}

// conflict locates an interval overlapping [start, end). Only the immediate
// left neighbour and the intervals starting inside the range can conflict,
// because stored intervals never overlap each other.
func (s *spaceIntervals) conflict(start, end time.Time) (Interval, bool) {
	i := s.searchStart(start)
	if i > 0 && s.items[i-1].overlaps(start, end) {
		return s.items[i-1], true
	}
	if i < len(s.items) && s.items[i].overlaps(start, end) {
		return s.items[i], true
	}
	return Interval{}, false
}

// Overlaps reports whether [start, end) collides with a booked interval, and
// returns the conflicting interval when it does.
func (idx *Index) Overlaps(spaceID string, start, end time.Time) (Interval, bool) {
	s := idx.space(spaceID)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conflict(start, end)
}

// InsertIfFree is the atomic conflict-check-then-insert: under the per-space
// lock it either claims [start, end) for bookingID or reports the conflict.
// Two concurrent callers for the same slot can never both succeed.
func (idx *Index) InsertIfFree(spaceID, bookingID string, start, end time.Time) error {
	if !start.Before(end) {
		return domain.ErrInvalidInterval
	}

	s := idx.space(spaceID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.conflict(start, end); ok {
		return &domain.SlotUnavailableError{SpaceID: spaceID, ConflictStart: c.Start, ConflictEnd: c.End}
	}

	i := s.searchStart(start)
	s.items = append(s.items, Interval{})
	copy(s.items[i+1:], s.items[i:])
	s.items[i] = Interval{BookingID: bookingID, Start: start, End: end}
	return nil
}

// Remove drops the interval held by bookingID, freeing its slot. Removing an
// unknown booking is a no-op.
func (idx *Index) Remove(spaceID, bookingID string) {
	s := idx.space(spaceID)
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, iv := range s.items {
		if iv.BookingID == bookingID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return
		}
	}
}

// Rebuild replaces the interval set of a space, used to hydrate the index
// from stored active bookings after a restart.
func (idx *Index) Rebuild(spaceID string, intervals []Interval) {
	sorted := make([]Interval, len(intervals))
	copy(sorted, intervals)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })

	s := idx.space(spaceID)
	s.mu.Lock()
	s.items = sorted
	s.mu.Unlock()
}

// Count returns the number of indexed intervals for a space.
func (idx *Index) Count(spaceID string) int {
	s := idx.space(spaceID)
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
