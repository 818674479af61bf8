package booking_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"ms-showbooking/internal/booking"
)

func TestShowLocksSerializeSameShow(t *testing.T) {
	locks := booking.NewShowLocks()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Acquire("show-1")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	// Without mutual exclusion the unsynchronized increments would race.
	assert.Equal(t, 50, counter)
}

func TestShowLocksIndependentShows(t *testing.T) {
	locks := booking.NewShowLocks()

	// Holding one show's lock must not block another show.
	unlockA := locks.Acquire("show-a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := locks.Acquire("show-b")
		unlockB()
		close(done)
	}()

	// Completes only if show-b's lock was acquirable while show-a is held.
	<-done
}
