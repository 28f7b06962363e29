package gateway

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/padaemon/padaemon/internal/adapter"
	"github.com/padaemon/padaemon/internal/agent"
	"github.com/padaemon/padaemon/internal/session"
	"github.com/stretchr/testify/require"
)

type recordingAdapter struct {
	name string
	sent []adapter.Message
}

func (r *recordingAdapter) Name() string                   { return r.name }
func (r *recordingAdapter) Start(ctx context.Context) error { return nil }
func (r *recordingAdapter) Stop(ctx context.Context) error  { return nil }
func (r *recordingAdapter) SendResponse(ctx context.Context, msg adapter.Message) error {
	r.sent = append(r.sent, msg)
	return nil
}

func echoTurn(reply string, err error) agent.Turn {
	return func(ctx context.Context, text, sessionKey string, opts agent.Options) ([]session.Message, error) {
		if err != nil {
			return nil, err
		}
		return []session.Message{
			{Role: session.RoleUser, Content: text, Timestamp: time.Now()},
			{Role: session.RoleAssistant, Content: reply, Timestamp: time.Now()},
		}, nil
	}
}

func newTestGateway(t *testing.T, turn agent.Turn) (*Gateway, *recordingAdapter) {
	t.Helper()
	dir := t.TempDir()
	router := adapter.NewRouter()
	tg := &recordingAdapter{name: "telegram"}
	router.Register(tg)
	gw := New(Config{DataDir: dir}, turn, session.NewStore(), router)
	return gw, tg
}

func TestGatewayDeliversReplyAndPersists(t *testing.T) {
	gw, tg := newTestGateway(t, echoTurn("hi there", nil))
	gw.Start(context.Background())
	defer gw.Stop()

	require.NoError(t, gw.Enqueue(context.Background(), adapter.Message{Source: "telegram", SourceID: "u1", Text: "hello"}))

	require.Eventually(t, func() bool { return len(tg.sent) == 1 }, time.Second, 5*time.Millisecond)
	require.Equal(t, "hi there", tg.sent[0].Text)

	path := session.PathFor(gw.cfg.DataDir, session.ResolveKey("telegram", "u1", ""))
	transcript, err := gw.store.LoadTranscript(path)
	require.NoError(t, err)
	require.Len(t, transcript, 2)
}

func TestGatewayTurnFailureSendsErrorReply(t *testing.T) {
	gw, tg := newTestGateway(t, echoTurn("", fmt.Errorf("boom")))
	gw.Start(context.Background())
	defer gw.Stop()

	require.NoError(t, gw.Enqueue(context.Background(), adapter.Message{Source: "telegram", SourceID: "u1", Text: "hello"}))

	require.Eventually(t, func() bool { return len(tg.sent) == 1 }, time.Second, 5*time.Millisecond)
	require.Contains(t, tg.sent[0].Text, "Something went wrong")
}

func TestGatewayHeartbeatOKIsSuppressed(t *testing.T) {
	gw, tg := newTestGateway(t, echoTurn("HEARTBEAT_OK", nil))
	gw.Start(context.Background())
	defer gw.Stop()

	require.NoError(t, gw.EnqueueHeartbeat(context.Background(), "check things", "telegram--u1"))

	time.Sleep(60 * time.Millisecond)
	require.Empty(t, tg.sent)
}

func TestGatewayHeartbeatNonOKDeliversToConfiguredDestination(t *testing.T) {
	gw, tg := newTestGateway(t, echoTurn("something needs attention", nil))
	gw.Start(context.Background())
	defer gw.Stop()

	require.NoError(t, gw.EnqueueHeartbeat(context.Background(), "check things", "telegram--u1"))

	require.Eventually(t, func() bool { return len(tg.sent) == 1 }, time.Second, 5*time.Millisecond)
	require.Equal(t, "something needs attention", tg.sent[0].Text)
	require.Equal(t, "u1", tg.sent[0].SourceID)
}

func TestGatewayHeartbeatNonOKWithoutDeliverToIsDropped(t *testing.T) {
	gw, tg := newTestGateway(t, echoTurn("something needs attention", nil))
	gw.Start(context.Background())
	defer gw.Stop()

	require.NoError(t, gw.EnqueueHeartbeat(context.Background(), "check things", ""))

	time.Sleep(60 * time.Millisecond)
	require.Empty(t, tg.sent)
}

func TestGatewayQueueDropsWhenFull(t *testing.T) {
	block := make(chan struct{})
	turn := func(ctx context.Context, text, sessionKey string, opts agent.Options) ([]session.Message, error) {
		<-block
		return nil, nil
	}
	gw, _ := newTestGateway(t, turn)
	gw.cfg.MaxQueueSize = 1
	gw.queue = newInboundQueue(1)
	gw.Start(context.Background())
	defer func() {
		close(block)
		gw.Stop()
	}()

	require.NoError(t, gw.Enqueue(context.Background(), adapter.Message{Source: "telegram", Text: "1"}))
	// give the consumer a moment to pick up the first item, freeing the slot
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, gw.Enqueue(context.Background(), adapter.Message{Source: "telegram", Text: "2"}))
	err := gw.Enqueue(context.Background(), adapter.Message{Source: "telegram", Text: "3"})
	require.Error(t, err)
}
