package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/kitbot/core/telegram/teletest"
)

func TestAdminOnlyMiddleware(t *testing.T) {
	var ran, rejected int
	h := AdminOnlyMiddleware(AdminOptions{
		AdminID:  7,
		OnReject: func(tele.Context) error { rejected++; return nil },
	})(func(tele.Context) error { ran++; return nil })

	require.NoError(t, h(teletest.NewMessage(7, "/stats")))
	require.NoError(t, h(teletest.NewMessage(8, "/stats")))
	assert.Equal(t, 1, ran)
	assert.Equal(t, 1, rejected)

	assert.False(t, IsAdmin(teletest.NewMessage(7, ""), 0))
}

func TestMessageMetricsMiddleware(t *testing.T) {
	c := teletest.NewMessage(1, "/start")
	h := MessageMetricsMiddleware(func(c tele.Context) error {
		require.NoError(t, c.Send("Main menu", &tele.SendOptions{ReplyMarkup: &tele.ReplyMarkup{}}))
		return c.Send("plain")
	})

	require.NoError(t, h(c))
	assert.Equal(t, Counters{Messages: 2, Keyboard: true}, CountersFrom(c))
}

func TestMessageMetricsCountsEdits(t *testing.T) {
	c := teletest.NewCallback(1, "Foo")
	h := MessageMetricsMiddleware(func(c tele.Context) error {
		return c.Edit("Foo")
	})

	require.NoError(t, h(c))
	assert.Equal(t, Counters{Edits: 1}, CountersFrom(c))
	assert.Equal(t, Counters{}, CountersFrom(teletest.NewMessage(1, "x")))
}

func TestSeenUpdates(t *testing.T) {
	s := &seenUpdates{ttl: time.Second, ids: make(map[int]time.Time)}
	now := time.Now()
	assert.True(t, s.first(7, now))
	assert.False(t, s.first(7, now))
	assert.True(t, s.first(7, now.Add(3*time.Second)))
}

func TestRateLimitMiddleware(t *testing.T) {
	var ran, limited int
	mw := RateLimitMiddleware(RateLimitOptions{
		Interval:  time.Hour,
		OnLimited: func(tele.Context) error { limited++; return nil },
	})
	h := mw(func(tele.Context) error { ran++; return nil })

	require.NoError(t, h(teletest.NewMessage(1, "a")))
	require.NoError(t, h(teletest.NewMessage(1, "b")))
	require.NoError(t, h(teletest.NewMessage(2, "c")))
	assert.Equal(t, 2, ran)
	assert.Equal(t, 1, limited)

	press := teletest.NewCallback(1, "Foo")
	require.NoError(t, h(press))
	assert.Len(t, press.Responses(), 1, "limited press is still acknowledged")
}

func TestRateLimitExclude(t *testing.T) {
	var ran int
	h := RateLimitMiddleware(RateLimitOptions{
		Interval: time.Hour,
		Exclude:  map[string]struct{}{"callback": {}},
	})(func(tele.Context) error { ran++; return nil })

	for range 3 {
		require.NoError(t, h(teletest.NewCallback(1, "Foo")))
	}
	assert.Equal(t, 3, ran)
}

func TestRecoverMiddleware(t *testing.T) {
	h := RecoverMiddleware(func(tele.Context) error { panic("boom") })
	assert.Error(t, h(teletest.NewMessage(1, "x")))
}

func TestUserLimiterSweeps(t *testing.T) {
	l := newUserLimiter(time.Second)
	now := time.Now()
	assert.True(t, l.allow(1, now))
	assert.False(t, l.allow(1, now.Add(500*time.Millisecond)))
	assert.True(t, l.allow(2, now))

	assert.True(t, l.allow(3, now.Add(2*time.Minute)))
	assert.Len(t, l.last, 1)
}
