// Package pathfinder tests cover request handling, the NATS message path
// through a fake connection, recording, and the component lifecycle.
//
// Note: no test here needs a NATS server.
package pathfinder

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/modulator/modulation"
	"github.com/c360studio/modulator/storage"
	"github.com/c360studio/modulator/theory"
)

type published struct {
	subject string
	data    []byte
}

type fakeConn struct {
	mu       sync.Mutex
	handler  nats.MsgHandler
	subject  string
	queue    string
	messages []published
	subErr   error
}

func (f *fakeConn) Publish(subj string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, published{subject: subj, data: data})
	return nil
}

func (f *fakeConn) QueueSubscribe(subj, queue string, cb nats.MsgHandler) (*nats.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subErr != nil {
		return nil, f.subErr
	}
	f.subject, f.queue, f.handler = subj, queue, cb
	return nil, nil
}

func (f *fakeConn) deliver(t *testing.T, reply string, v any) {
	t.Helper()
	var data []byte
	switch v := v.(type) {
	case []byte:
		data = v
	default:
		var err error
		data, err = json.Marshal(v)
		require.NoError(t, err)
	}
	f.mu.Lock()
	h := f.handler
	f.mu.Unlock()
	require.NotNil(t, h, "not subscribed")
	h(&nats.Msg{Subject: f.subject, Reply: reply, Data: data})
}

func (f *fakeConn) on(subject string) []published {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []published
	for _, m := range f.messages {
		if m.subject == subject {
			out = append(out, m)
		}
	}
	return out
}

type fakeRecorder struct {
	mu   sync.Mutex
	recs []*storage.ProgressionRecord
	err  error
}

func (r *fakeRecorder) Record(_ context.Context, rec *storage.ProgressionRecord) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return "", r.err
	}
	rec.ID = "rec-1"
	r.recs = append(r.recs, rec)
	return rec.ID, nil
}

type failingFinder struct{ err error }

func (f failingFinder) FindChordPath(context.Context, theory.Key, theory.Key) (*modulation.Progression, error) {
	return nil, f.err
}

var (
	engineOnce sync.Once
	engine     *modulation.Engine
)

func testEngine(t *testing.T) *modulation.Engine {
	t.Helper()
	engineOnce.Do(func() {
		var err error
		engine, err = modulation.New(modulation.WithRandom(modulation.NewSeededSource(1)))
		if err != nil {
			panic(err)
		}
	})
	return engine
}

func newTestComponent(t *testing.T, finder PathFinder, conn Conn, opts ...Option) *Component {
	t.Helper()
	c, err := NewComponent(DefaultConfig(), finder, conn, opts...)
	require.NoError(t, err)
	return c
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"default", func(*Config) {}, false},
		{"no issued subject", func(c *Config) { c.IssuedSubject = "" }, false},
		{"missing request subject", func(c *Config) { c.RequestSubject = "" }, true},
		{"negative timeout", func(c *Config) { c.RequestTimeout = -time.Second }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewComponent_Errors(t *testing.T) {
	_, err := NewComponent(Config{}, testEngine(t), &fakeConn{})
	assert.Error(t, err)

	_, err = NewComponent(DefaultConfig(), nil, &fakeConn{})
	assert.Error(t, err)
}

func TestHandle_Success(t *testing.T) {
	c := newTestComponent(t, testEngine(t), nil)

	resp := c.Handle(context.Background(), &PathRequest{
		RequestID:   "req-1",
		Start:       "C major",
		Destination: "a:minor",
	})

	require.True(t, resp.Success, resp.Error)
	assert.Equal(t, "req-1", resp.RequestID)
	require.NotNil(t, resp.Progression)
	assert.Equal(t, "C major", resp.Progression.Start)
	assert.Equal(t, "A minor", resp.Progression.Destination)
	assert.Equal(t, []string{"C E G", "A C E", "G# B D F", "A C E"}, resp.Progression.Chords)
	assert.Empty(t, resp.RecordID)
}

func TestHandle_GeneratesRequestID(t *testing.T) {
	c := newTestComponent(t, testEngine(t), nil)

	resp := c.Handle(context.Background(), &PathRequest{Start: "G major", Destination: "G major"})
	require.True(t, resp.Success)
	assert.NotEmpty(t, resp.RequestID)
	assert.Len(t, resp.Progression.Chords, 3)
}

func TestHandle_Errors(t *testing.T) {
	tests := []struct {
		name   string
		finder PathFinder
		req    PathRequest
		kind   ErrorKind
	}{
		{
			name:   "unparseable start",
			finder: testEngine(t),
			req:    PathRequest{Start: "H major", Destination: "C major"},
			kind:   ErrorInvalidRequest,
		},
		{
			name:   "bad mode",
			finder: testEngine(t),
			req:    PathRequest{Start: "C major", Destination: "C dorian"},
			kind:   ErrorInvalidRequest,
		},
		{
			name:   "key outside palette",
			finder: testEngine(t),
			req:    PathRequest{Start: "Cb major", Destination: "C major"},
			kind:   ErrorUnknownKey,
		},
		{
			name:   "unreachable",
			finder: failingFinder{err: modulation.ErrUnreachable},
			req:    PathRequest{Start: "C major", Destination: "F# major"},
			kind:   ErrorUnreachable,
		},
		{
			name:   "deadline",
			finder: failingFinder{err: context.DeadlineExceeded},
			req:    PathRequest{Start: "C major", Destination: "D major"},
			kind:   ErrorTimeout,
		},
		{
			name:   "other",
			finder: failingFinder{err: errors.New("boom")},
			req:    PathRequest{Start: "C major", Destination: "D major"},
			kind:   ErrorInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestComponent(t, tt.finder, nil)
			resp := c.Handle(context.Background(), &tt.req)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.kind, resp.ErrorKind)
			assert.NotEmpty(t, resp.Error)
			assert.Nil(t, resp.Progression)
		})
	}
}

func TestHandle_Records(t *testing.T) {
	rec := &fakeRecorder{}
	c := newTestComponent(t, testEngine(t), nil, WithRecorder(rec, "abc"))

	resp := c.Handle(context.Background(), &PathRequest{RequestID: "r", Start: "C major", Destination: "G major"})
	require.True(t, resp.Success)
	assert.Equal(t, "rec-1", resp.RecordID)
	require.Len(t, rec.recs, 1)
	assert.Equal(t, "r", rec.recs[0].RequestID)
	assert.Equal(t, "abc", rec.recs[0].Fingerprint)
	assert.Equal(t, "G major", rec.recs[0].Destination)
}

func TestHandle_RecordFailureStillAnswers(t *testing.T) {
	rec := &fakeRecorder{err: errors.New("kv down")}
	c := newTestComponent(t, testEngine(t), nil, WithRecorder(rec, "abc"))

	resp := c.Handle(context.Background(), &PathRequest{Start: "C major", Destination: "G major"})
	assert.True(t, resp.Success)
	assert.Empty(t, resp.RecordID)
}

func TestComponent_MessageFlow(t *testing.T) {
	conn := &fakeConn{}
	c := newTestComponent(t, testEngine(t), conn)

	require.NoError(t, c.Start(context.Background()))
	defer c.Stop(time.Second)

	assert.Equal(t, "modulation.path.request", conn.subject)
	assert.Equal(t, "modulator", conn.queue)

	conn.deliver(t, "_INBOX.1", PathRequest{RequestID: "x", Start: "C major", Destination: "A minor"})

	replies := conn.on("_INBOX.1")
	require.Len(t, replies, 1)
	var resp PathResponse
	require.NoError(t, json.Unmarshal(replies[0].data, &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "x", resp.RequestID)

	issued := conn.on("modulation.progression.issued")
	require.Len(t, issued, 1)
	var event IssuedProgression
	require.NoError(t, json.Unmarshal(issued[0].data, &event))
	assert.Equal(t, "x", event.RequestID)
	assert.Equal(t, 1, event.Progression.Hops)
	assert.False(t, event.IssuedAt.IsZero())
}

func TestComponent_FailedRequestIsNotIssued(t *testing.T) {
	conn := &fakeConn{}
	c := newTestComponent(t, testEngine(t), conn)
	require.NoError(t, c.Start(context.Background()))
	defer c.Stop(time.Second)

	conn.deliver(t, "_INBOX.2", PathRequest{Start: "Cb major", Destination: "C major"})
	conn.deliver(t, "_INBOX.3", []byte("{not json"))

	var resp PathResponse
	require.Len(t, conn.on("_INBOX.2"), 1)
	require.NoError(t, json.Unmarshal(conn.on("_INBOX.2")[0].data, &resp))
	assert.Equal(t, ErrorUnknownKey, resp.ErrorKind)

	require.Len(t, conn.on("_INBOX.3"), 1)
	require.NoError(t, json.Unmarshal(conn.on("_INBOX.3")[0].data, &resp))
	assert.Equal(t, ErrorInvalidRequest, resp.ErrorKind)

	assert.Empty(t, conn.on("modulation.progression.issued"))
	assert.Equal(t, int64(2), c.Health().ErrorCount)
}

func TestComponent_NoReplySubject(t *testing.T) {
	conn := &fakeConn{}
	c := newTestComponent(t, testEngine(t), conn)
	require.NoError(t, c.Start(context.Background()))
	defer c.Stop(time.Second)

	conn.deliver(t, "", PathRequest{Start: "C major", Destination: "E minor"})

	conn.mu.Lock()
	defer conn.mu.Unlock()
	require.Len(t, conn.messages, 1)
	assert.Equal(t, "modulation.progression.issued", conn.messages[0].subject)
}

func TestComponent_Lifecycle(t *testing.T) {
	t.Run("requires connection", func(t *testing.T) {
		c := newTestComponent(t, testEngine(t), nil)
		assert.Error(t, c.Start(context.Background()))
	})

	t.Run("subscribe failure", func(t *testing.T) {
		c := newTestComponent(t, testEngine(t), &fakeConn{subErr: nats.ErrConnectionClosed})
		err := c.Start(context.Background())
		assert.ErrorIs(t, err, nats.ErrConnectionClosed)
		assert.False(t, c.Health().Healthy)
	})

	t.Run("start stop", func(t *testing.T) {
		c := newTestComponent(t, testEngine(t), &fakeConn{})
		assert.Equal(t, "path-finder", c.Name())
		assert.Equal(t, "stopped", c.Health().Status)

		require.NoError(t, c.Start(context.Background()))
		assert.Error(t, c.Start(context.Background()), "second start should fail")
		h := c.Health()
		assert.True(t, h.Healthy)
		assert.Equal(t, "running", h.Status)

		require.NoError(t, c.Stop(time.Second))
		require.NoError(t, c.Stop(time.Second))
		assert.False(t, c.Health().Healthy)
	})
}

func TestComponent_ConcurrentRequests(t *testing.T) {
	conn := &fakeConn{}
	c := newTestComponent(t, testEngine(t), conn)
	require.NoError(t, c.Start(context.Background()))
	defer c.Stop(time.Second)

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			dest := []string{"G major", "E minor", "F major", "D minor"}[i%4]
			conn.deliver(t, "", PathRequest{Start: "C major", Destination: dest})
		}(i)
	}
	wg.Wait()

	assert.Len(t, conn.on("modulation.progression.issued"), 16)
	assert.Equal(t, int64(16), c.Health().QueriesProcessed)
}
