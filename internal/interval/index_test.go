package interval

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/oakyard/oakyard/internal/domain"
	"github.com/stretchr/testify/assert"
)

var day = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

func at(hour int) time.Time {
	return day.Add(time.Duration(hour) * time.Hour)
}

func TestIndex_InsertIfFree_ClaimsSlot(t *testing.T) {
	idx := NewIndex()

	err := idx.InsertIfFree("space-1", "b1", at(9), at(12))
	assert.NoError(t, err)
	assert.Equal(t, 1, idx.Count("space-1"))

	_, conflict := idx.Overlaps("space-1", at(10), at(11))
	assert.True(t, conflict)
}

func TestIndex_InsertIfFree_RejectsOverlap(t *testing.T) {
	idx := NewIndex()
	assert.NoError(t, idx.InsertIfFree("space-1", "b1", at(9), at(12)))

	err := idx.InsertIfFree("space-1", "b2", at(11), at(13))
	var slotErr *domain.SlotUnavailableError
	assert.True(t, errors.As(err, &slotErr))
	assert.Equal(t, at(9), slotErr.ConflictStart)
	assert.Equal(t, at(12), slotErr.ConflictEnd)
	assert.Equal(t, 1, idx.Count("space-1"))
}

// Half-open semantics: a booking ending at 12:00 does not conflict with one
// starting at 12:00.
func TestIndex_AbuttingIntervalsDoNotConflict(t *testing.T) {
	idx := NewIndex()
	assert.NoError(t, idx.InsertIfFree("space-1", "b1", at(9), at(12)))
	assert.NoError(t, idx.InsertIfFree("space-1", "b2", at(12), at(13)))
	assert.NoError(t, idx.InsertIfFree("space-1", "b3", at(8), at(9)))
	assert.Equal(t, 3, idx.Count("space-1"))
}

func TestIndex_InsertIfFree_InvalidInterval(t *testing.T) {
	idx := NewIndex()
	assert.ErrorIs(t, idx.InsertIfFree("space-1", "b1", at(12), at(12)), domain.ErrInvalidInterval)
	assert.ErrorIs(t, idx.InsertIfFree("space-1", "b1", at(13), at(12)), domain.ErrInvalidInterval)
}

func TestIndex_OverlapCases(t *testing.T) {
	idx := NewIndex()
	assert.NoError(t, idx.InsertIfFree("space-1", "b1", at(9), at(12)))

	testCases := []struct {
		name       string
		start, end time.Time
		conflict   bool
	}{
		{"fully inside", at(10), at(11), true},
		{"covers existing", at(8), at(13), true},
		{"overlaps start", at(8), at(10), true},
		{"overlaps end", at(11), at(14), true},
		{"identical", at(9), at(12), true},
		{"before", at(7), at(9), false},
		{"after", at(12), at(14), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, conflict := idx.Overlaps("space-1", tc.start, tc.end)
			assert.Equal(t, tc.conflict, conflict)
		})
	}
}

func TestIndex_RemoveFreesSlot(t *testing.T) {
	idx := NewIndex()
	assert.NoError(t, idx.InsertIfFree("space-1", "b1", at(9), at(12)))

	idx.Remove("space-1", "b1")

	assert.NoError(t, idx.InsertIfFree("space-1", "b2", at(9), at(12)))
}

func TestIndex_RemoveUnknownIsNoop(t *testing.T) {
	idx := NewIndex()
	assert.NoError(t, idx.InsertIfFree("space-1", "b1", at(9), at(12)))
	idx.Remove("space-1", "missing")
	idx.Remove("other-space", "b1")
	assert.Equal(t, 1, idx.Count("space-1"))
}

func TestIndex_SpacesAreIndependent(t *testing.T) {
	idx := NewIndex()
	assert.NoError(t, idx.InsertIfFree("space-1", "b1", at(9), at(12)))
	assert.NoError(t, idx.InsertIfFree("space-2", "b2", at(9), at(12)))
}

func TestIndex_Rebuild(t *testing.T) {
	idx := NewIndex()
	assert.NoError(t, idx.InsertIfFree("space-1", "stale", at(9), at(12)))

	idx.Rebuild("space-1", []Interval{
		{BookingID: "b2", Start: at(14), End: at(16)},
		{BookingID: "b1", Start: at(10), End: at(12)},
	})

	assert.Equal(t, 2, idx.Count("space-1"))
	_, conflict := idx.Overlaps("space-1", at(9), at(10))
	assert.False(t, conflict)
	c, conflict := idx.Overlaps("space-1", at(15), at(17))
	assert.True(t, conflict)
	assert.Equal(t, "b2", c.BookingID)
}

// Two concurrent claims for the same slot: exactly one may win.
func TestIndex_ConcurrentInsertSameSlot(t *testing.T) {
	idx := NewIndex()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = idx.InsertIfFree("space-1", "b"+string(rune('1'+i)), at(9), at(12))
		}(i)
	}
	wg.Wait()

	if errs[0] == nil {
		assert.Error(t, errs[1])
	} else {
		assert.NoError(t, errs[1])
	}
	assert.Equal(t, 1, idx.Count("space-1"))
}

func TestIndex_ManyBookingsOrdered(t *testing.T) {
	idx := NewIndex()
	for h := 0; h < 20; h += 2 {
		assert.NoError(t, idx.InsertIfFree("space-1", "b"+string(rune('a'+h)), at(h), at(h+2)))
	}
	assert.Equal(t, 10, idx.Count("space-1"))
	_, conflict := idx.Overlaps("space-1", at(7), at(8))
	assert.True(t, conflict)
}
