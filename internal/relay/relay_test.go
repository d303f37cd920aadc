package relay

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperstudio/backend/internal/apperr"
	"github.com/paperstudio/backend/internal/models"
)

// fakeSub records every message it is sent.
type fakeSub struct {
	id   string
	mu   sync.Mutex
	msgs []models.WSMessage
	dead bool
}

func (f *fakeSub) ID() string { return f.id }

func (f *fakeSub) Send(msg models.WSMessage) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dead {
		return false
	}
	f.msgs = append(f.msgs, msg)
	return true
}

func (f *fakeSub) received() []models.WSMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.WSMessage, len(f.msgs))
	copy(out, f.msgs)
	return out
}

func TestStartRejectsSecondActiveSession(t *testing.T) {
	r := New()

	sid, err := r.Start("proj-1")
	require.NoError(t, err)
	require.NotEmpty(t, sid)

	_, err = r.Start("proj-1")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))

	// A different project is unaffected.
	_, err = r.Start("proj-2")
	assert.NoError(t, err)

	// After End the project can start a new run.
	r.End(sid, models.SessionCompleted)
	sid2, err := r.Start("proj-1")
	require.NoError(t, err)
	assert.NotEqual(t, sid, sid2)
}

func TestPublishOrderSeenBySubscribers(t *testing.T) {
	r := New()
	sid, err := r.Start("proj-1")
	require.NoError(t, err)

	a := &fakeSub{id: "a"}
	b := &fakeSub{id: "b"}
	r.Join(a, sid)
	r.Join(b, sid)

	const n = 50
	for i := 0; i < n; i++ {
		r.Publish(sid, models.NewMessage(models.MsgAgentLog, sid, map[string]any{"seq": i}))
	}

	for _, sub := range []*fakeSub{a, b} {
		msgs := sub.received()
		require.Len(t, msgs, n, "subscriber %s", sub.id)
		for i, m := range msgs {
			assert.Equal(t, map[string]any{"seq": i}, m.Payload)
			assert.Equal(t, sid, m.SessionID)
		}
	}
}

func TestJoinUnknownSessionIsSilent(t *testing.T) {
	r := New()
	sub := &fakeSub{id: "a"}

	r.Join(sub, "no-such-session")

	// Publishing to the unknown id is also a no-op.
	r.Publish("no-such-session", models.NewMessage(models.MsgProgressUpdate, "", models.ProgressPayload{Progress: 10}))
	assert.Empty(t, sub.received())
}

func TestJoinTwiceDeliversOnce(t *testing.T) {
	r := New()
	sid, err := r.Start("proj-1")
	require.NoError(t, err)

	sub := &fakeSub{id: "a"}
	r.Join(sub, sid)
	r.Join(sub, sid)

	r.Publish(sid, models.NewMessage(models.MsgProgressUpdate, sid, models.ProgressPayload{Progress: 5}))
	assert.Len(t, sub.received(), 1)
}

func TestDeadSubscriberDroppedWithoutAffectingOthers(t *testing.T) {
	r := New()
	sid, err := r.Start("proj-1")
	require.NoError(t, err)

	dead := &fakeSub{id: "dead", dead: true}
	live := &fakeSub{id: "live"}
	r.Join(dead, sid)
	r.Join(live, sid)

	r.Publish(sid, models.NewMessage(models.MsgProgressUpdate, sid, models.ProgressPayload{Progress: 10}))
	r.Publish(sid, models.NewMessage(models.MsgProgressUpdate, sid, models.ProgressPayload{Progress: 20}))

	assert.Empty(t, dead.received())
	assert.Len(t, live.received(), 2)
}

func TestPublishAfterEndIsNoOp(t *testing.T) {
	r := New()
	sid, err := r.Start("proj-1")
	require.NoError(t, err)

	sub := &fakeSub{id: "a"}
	r.Join(sub, sid)
	r.End(sid, models.SessionFailed)

	r.Publish(sid, models.NewMessage(models.MsgCompletion, sid, models.CompletionPayload{}))
	assert.Empty(t, sub.received())
}

func TestLeaveStopsDelivery(t *testing.T) {
	r := New()
	sid, err := r.Start("proj-1")
	require.NoError(t, err)

	sub := &fakeSub{id: "a"}
	r.Join(sub, sid)
	r.Publish(sid, models.NewMessage(models.MsgProgressUpdate, sid, models.ProgressPayload{Progress: 1}))
	r.Leave(sub)
	r.Publish(sid, models.NewMessage(models.MsgProgressUpdate, sid, models.ProgressPayload{Progress: 2}))

	assert.Len(t, sub.received(), 1)
}

func TestProgressTracksHighWaterMark(t *testing.T) {
	r := New()
	sid, err := r.Start("proj-1")
	require.NoError(t, err)

	for _, p := range []int{10, 55, 100} {
		r.Publish(sid, models.NewMessage(models.MsgProgressUpdate, sid, models.ProgressPayload{Progress: p}))
	}

	got, ok := r.Progress(sid)
	require.True(t, ok)
	assert.Equal(t, 100, got)
}

func TestGenerationEventSequence(t *testing.T) {
	// create -> generate -> 10, 55, COMPLETION: the subscribed client's
	// observed progress sequence is exactly [10, 55, 100], COMPLETION last.
	r := New()
	sid, err := r.Start("proj-1")
	require.NoError(t, err)

	sub := &fakeSub{id: "client"}
	r.Join(sub, sid)

	r.Publish(sid, models.NewMessage(models.MsgProgressUpdate, sid, models.ProgressPayload{Progress: 10, Step: "research"}))
	r.Publish(sid, models.NewMessage(models.MsgProgressUpdate, sid, models.ProgressPayload{Progress: 55, Step: "writing"}))
	r.Publish(sid, models.NewMessage(models.MsgProgressUpdate, sid, models.ProgressPayload{Progress: 100, Step: "done"}))
	r.Publish(sid, models.NewMessage(models.MsgCompletion, sid, models.CompletionPayload{ProjectID: "proj-1", PDFAvailable: true}))
	r.End(sid, models.SessionCompleted)

	msgs := sub.received()
	require.Len(t, msgs, 4)

	var progress []int
	for _, m := range msgs[:3] {
		require.Equal(t, models.MsgProgressUpdate, m.Type)
		progress = append(progress, m.Payload.(models.ProgressPayload).Progress)
	}
	assert.Equal(t, []int{10, 55, 100}, progress)
	assert.Equal(t, models.MsgCompletion, msgs[3].Type)
}

func TestConcurrentPublishersToIndependentSessions(t *testing.T) {
	// Cross-session publishes may interleave freely; each session's own
	// stream must still arrive in order.
	r := New()

	var wg sync.WaitGroup
	subs := make([]*fakeSub, 4)
	for i := range subs {
		sid, err := r.Start(fmt.Sprintf("proj-%d", i))
		require.NoError(t, err)
		subs[i] = &fakeSub{id: fmt.Sprintf("sub-%d", i)}
		r.Join(subs[i], sid)

		wg.Add(1)
		go func(sid string) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.Publish(sid, models.NewMessage(models.MsgProgressUpdate, sid, models.ProgressPayload{Progress: j}))
			}
		}(sid)
	}
	wg.Wait()

	for _, sub := range subs {
		msgs := sub.received()
		require.Len(t, msgs, 100)
		for j, m := range msgs {
			assert.Equal(t, j, m.Payload.(models.ProgressPayload).Progress)
		}
	}
}
