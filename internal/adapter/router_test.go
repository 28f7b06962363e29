package adapter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeAdapter struct {
	name string
	sent []Message
}

func (f *fakeAdapter) Name() string                       { return f.name }
func (f *fakeAdapter) Start(ctx context.Context) error     { return nil }
func (f *fakeAdapter) Stop(ctx context.Context) error      { return nil }
func (f *fakeAdapter) SendResponse(ctx context.Context, msg Message) error {
	f.sent = append(f.sent, msg)
	return nil
}

func TestRouterDispatchesBySource(t *testing.T) {
	r := NewRouter()
	tg := &fakeAdapter{name: "telegram"}
	sl := &fakeAdapter{name: "slack"}
	r.Register(tg)
	r.Register(sl)

	require.NoError(t, r.SendResponse(context.Background(), Message{Source: "telegram", Text: "hi"}))
	require.Len(t, tg.sent, 1)
	require.Empty(t, sl.sent)
}

func TestRouterUnknownSourceIsNoOp(t *testing.T) {
	r := NewRouter()
	err := r.SendResponse(context.Background(), Message{Source: "unknown"})
	require.NoError(t, err)
}

func TestMessageThreadID(t *testing.T) {
	m := Message{Metadata: map[string]any{"threadId": "t1"}}
	require.Equal(t, "t1", m.ThreadID())
	require.Equal(t, "", Message{}.ThreadID())
}
