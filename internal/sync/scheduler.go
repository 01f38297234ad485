package sync

import (
	"context"
	"log"
	"sync"
	"time"

	authrepo "inboxai-backend/internal/auth/repository"
	calendarusecase "inboxai-backend/internal/calendar/usecase"
	emailusecase "inboxai-backend/internal/email/usecase"
)

// Scheduler periodically refreshes the mailbox and calendar of every
// connected account. Push notifications cover new mail in near real time;
// this loop catches label changes, deletions and calendar edits that
// Gmail watch does not report.
type Scheduler struct {
	userRepo   authrepo.UserRepository
	emailUc    emailusecase.EmailUsecase
	calendarUc calendarusecase.CalendarUsecase

	mu       sync.RWMutex
	interval time.Duration

	stopChan chan struct{}
	reset    chan struct{}
}

func NewScheduler(userRepo authrepo.UserRepository, emailUc emailusecase.EmailUsecase, calendarUc calendarusecase.CalendarUsecase, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Scheduler{
		userRepo:   userRepo,
		emailUc:    emailUc,
		calendarUc: calendarUc,
		interval:   interval,
		stopChan:   make(chan struct{}),
		reset:      make(chan struct{}, 1),
	}
}

// Start begins the sync loop. An initial pass runs immediately so the
// stores are warm before the first tick.
func (s *Scheduler) Start() {
	log.Printf("[SyncScheduler] Starting background sync (interval: %s)", s.Interval())

	go func() {
		s.syncAll()

		ticker := time.NewTicker(s.Interval())
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.syncAll()
			case <-s.reset:
				ticker.Reset(s.Interval())
				log.Printf("[SyncScheduler] Interval changed to %s", s.Interval())
			case <-s.stopChan:
				log.Println("[SyncScheduler] Scheduler stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	close(s.stopChan)
}

func (s *Scheduler) Interval() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.interval
}

// SetInterval changes the sync cadence at runtime. Takes effect from the
// next tick.
func (s *Scheduler) SetInterval(interval time.Duration) {
	if interval <= 0 {
		return
	}
	s.mu.Lock()
	s.interval = interval
	s.mu.Unlock()

	select {
	case s.reset <- struct{}{}:
	default:
	}
}

func (s *Scheduler) syncAll() {
	users, err := s.userRepo.FindGoogleConnected()
	if err != nil {
		log.Printf("[SyncScheduler] Error listing connected users: %v", err)
		return
	}
	if len(users) == 0 {
		return
	}

	ctx := context.Background()
	for _, user := range users {
		if count, err := s.emailUc.SyncEmails(ctx, user); err != nil {
			log.Printf("[SyncScheduler] Email sync failed for user %s: %v", user.ID, err)
		} else if count > 0 {
			log.Printf("[SyncScheduler] Synced %d emails for user %s", count, user.ID)
		}

		if count, err := s.calendarUc.SyncEvents(ctx, user); err != nil {
			log.Printf("[SyncScheduler] Calendar sync failed for user %s: %v", user.ID, err)
		} else if count > 0 {
			log.Printf("[SyncScheduler] Synced %d events for user %s", count, user.ID)
		}
	}
}
