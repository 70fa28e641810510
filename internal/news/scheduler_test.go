package news

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newsServer(t *testing.T) *Service {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, stockNewsJSON)
	}))
	t.Cleanup(srv.Close)
	return NewServiceWithBase("k", srv.URL)
}

func TestSendToAll_PushesToEverySubscriber(t *testing.T) {
	svc := newsServer(t)

	var sentTo []string
	var sentText []string
	scheduler := NewScheduler(svc, []string{"U1", "U2"}, "08:00",
		func(ctx context.Context, userID, text string) error {
			sentTo = append(sentTo, userID)
			sentText = append(sentText, text)
			return nil
		})

	scheduler.SendToAll(context.Background())

	assert.Equal(t, []string{"U1", "U2"}, sentTo)
	require.Len(t, sentText, 2)
	assert.Contains(t, sentText[0], "📈 Today's Financial News 📉")
	assert.Equal(t, sentText[0], sentText[1], "news is fetched once per broadcast")
}

func TestSendToAll_ContinuesAfterPerUserFailure(t *testing.T) {
	svc := newsServer(t)

	var sentTo []string
	scheduler := NewScheduler(svc, []string{"U1", "U2"}, "08:00",
		func(ctx context.Context, userID, text string) error {
			sentTo = append(sentTo, userID)
			if userID == "U1" {
				return fmt.Errorf("push rejected")
			}
			return nil
		})

	scheduler.SendToAll(context.Background())

	assert.Equal(t, []string{"U1", "U2"}, sentTo)
}

func TestNewScheduler_ParsesSendTime(t *testing.T) {
	svc := newsServer(t)

	s := NewScheduler(svc, nil, "14:30", nil)
	assert.Equal(t, 14, s.hour)
	assert.Equal(t, 30, s.minute)

	// Invalid values fall back to 08:00.
	s = NewScheduler(svc, nil, "not-a-time", nil)
	assert.Equal(t, 8, s.hour)
	assert.Equal(t, 0, s.minute)
}

func TestSchedulerStop(t *testing.T) {
	svc := newsServer(t)
	scheduler := NewScheduler(svc, nil, "08:00", func(ctx context.Context, userID, text string) error {
		return nil
	})

	scheduler.Start()
	assert.NotPanics(t, scheduler.Stop)
}
