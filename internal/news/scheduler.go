package news

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// PushFunc delivers text to one subscriber in push mode.
type PushFunc func(ctx context.Context, userID, text string) error

// Scheduler pushes the daily news to a static subscriber list at a fixed
// wall-clock time.
type Scheduler struct {
	svc          *Service
	userIDs      []string
	hour, minute int
	push         PushFunc
	stop         chan struct{}
	lastSent     time.Time
}

func NewScheduler(svc *Service, userIDs []string, sendTime string, push PushFunc) *Scheduler {
	hour, minute, err := parseSendTime(sendTime)
	if err != nil {
		logrus.Warnf("Invalid news send time %q, using 08:00: %v", sendTime, err)
		hour, minute = 8, 0
	}

	return &Scheduler{
		svc:     svc,
		userIDs: userIDs,
		hour:    hour,
		minute:  minute,
		push:    push,
		stop:    make(chan struct{}),
	}
}

func parseSendTime(s string) (int, int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, err
	}
	return t.Hour(), t.Minute(), nil
}

// Start launches the checker goroutine. Stop cancels it.
func (s *Scheduler) Start() {
	go func() {
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-s.stop:
				return
			case now := <-ticker.C:
				if now.Hour() != s.hour || now.Minute() != s.minute {
					continue
				}
				if sameDay(s.lastSent, now) {
					continue
				}
				s.lastSent = now
				s.SendToAll(context.Background())
			}
		}
	}()

	logrus.Infof("Daily news scheduler started, send time %02d:%02d, %d subscribers",
		s.hour, s.minute, len(s.userIDs))
}

func (s *Scheduler) Stop() {
	close(s.stop)
}

// SendToAll fetches the news once and pushes it to every subscriber, pausing
// a second between sends to stay under the provider's rate limits. Per-user
// failures are logged and skipped.
func (s *Scheduler) SendToAll(ctx context.Context) {
	text := s.svc.Fetch(ctx)

	for i, userID := range s.userIDs {
		if i > 0 {
			time.Sleep(1 * time.Second)
		}
		logrus.Infof("Sending financial news to user %s", userID)
		if err := s.push(ctx, userID, text); err != nil {
			logrus.Errorf("Error sending news to user %s: %v", userID, err)
			continue
		}
		logrus.Infof("Financial news sent to user %s", userID)
	}
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
