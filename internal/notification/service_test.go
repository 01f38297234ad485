package notification

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestService() *Service {
	return &Service{
		lastHistoryID: make(map[string]uint64),
	}
}

func TestMarkSeen_AdvancesPerUser(t *testing.T) {
	s := newTestService()

	assert.True(t, s.markSeen("user-1", 100))
	assert.False(t, s.markSeen("user-1", 100), "redelivery of the same historyId must be skipped")
	assert.False(t, s.markSeen("user-1", 50), "stale historyId must be skipped")
	assert.True(t, s.markSeen("user-1", 101))

	// Another user's history is tracked independently.
	assert.True(t, s.markSeen("user-2", 50))
}

func TestMarkSeen_ConcurrentNotifications(t *testing.T) {
	s := newTestService()

	// Pull callbacks and the push endpoint can hit the dedup map at the
	// same time. Hammer it from many goroutines across several users.
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			userID := fmt.Sprintf("user-%d", g%4)
			for i := uint64(1); i <= 200; i++ {
				s.markSeen(userID, i)
			}
		}(g)
	}
	wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.Len(t, s.lastHistoryID, 4)
	for userID, last := range s.lastHistoryID {
		assert.Equal(t, uint64(200), last, "user %s should end at the highest historyId", userID)
	}
}
