package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idefi-ai/agents/lib/api"
	"github.com/idefi-ai/agents/lib/store"
	"github.com/idefi-ai/agents/lib/store/memory"
)

const (
	testAddr  = "0xABC0000000000000000000000000000000000123"
	testEmail = "user@example.com"
)

type sent struct {
	subject, body, to string
}

type fakeDispatcher struct {
	calls []sent
	err   error
}

func (f *fakeDispatcher) Send(_ context.Context, subject, body, to string) error {
	f.calls = append(f.calls, sent{subject, body, to})

	return f.err
}

type failingRecorder struct{ err error }

func (f failingRecorder) AddInsight(context.Context, store.Insight) error { return f.err }

// backend starts an inspection endpoint replying status and body, counting the requests received.
func backend(t *testing.T, status int, body string) (*httptest.Server, *int32) {
	t.Helper()

	var hits int32

	ts := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)

		if r.URL.Path != Path || r.Method != http.MethodPost {
			rw.WriteHeader(http.StatusNotFound)

			return
		}

		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req["agent_name"] != "SmartAgent" || req["address"] == "" {
			rw.WriteHeader(http.StatusBadRequest)

			return
		}

		rw.WriteHeader(status)
		_, _ = rw.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)

	return ts, &hits
}

func newClient(url string, d *fakeDispatcher, rec Recorder) *Client {
	m := New("SmartAgent", api.NewClient(url, 0), d, rec, nil)
	m.now = func() time.Time { return time.UnixMilli(1700000000123) }

	return m
}

func TestMonitorValidation(t *testing.T) {
	ts, hits := backend(t, http.StatusOK, `{}`)
	d := &fakeDispatcher{}
	mem := memory.New()
	m := newClient(ts.URL, d, mem)

	for _, tc := range []struct {
		req   Request
		alert string
	}{
		{Request{}, AlertNoAddress},
		{Request{NotificationEmail: testEmail}, AlertNoAddress},
		{Request{WalletAddress: testAddr}, AlertNoEmail},
	} {
		rep := m.Monitor(context.Background(), tc.req)
		assert.Equal(t, tc.alert, rep.Alert)
		assert.ErrorIs(t, rep.Err, api.ErrValidation)
	}

	assert.Zero(t, atomic.LoadInt32(hits))
	assert.Empty(t, d.calls)

	ins, err := mem.GetInsights(context.Background(), testAddr)
	require.NoError(t, err)
	assert.Empty(t, ins)
}

func TestMonitorDusting(t *testing.T) {
	ts, hits := backend(t, http.StatusOK, `{"dusting_patterns":["p1"],"score":3}`)
	d := &fakeDispatcher{}
	mem := memory.New()
	m := newClient(ts.URL, d, mem)

	rep := m.Monitor(context.Background(), Request{WalletAddress: testAddr, NotificationEmail: testEmail})
	require.NoError(t, rep.Err)
	assert.Equal(t, AlertDusting, rep.Alert)
	assert.True(t, rep.Dusting)
	assert.JSONEq(t, `{"dusting_patterns":["p1"],"score":3}`, string(rep.Data))
	assert.EqualValues(t, 1, atomic.LoadInt32(hits))

	require.Len(t, d.calls, 1)
	assert.Equal(t, sent{DustingSubject, DustingBody, testEmail}, d.calls[0])

	ins, err := mem.GetInsights(context.Background(), testAddr)
	require.NoError(t, err)
	assert.Equal(t, []store.Insight{{UserAddress: testAddr, Insights: InsightText, Timestamp: 1700000000123}}, ins)
}

func TestMonitorSafe(t *testing.T) {
	for _, body := range []string{`{}`, `{"dusting_patterns":[]}`, `{"dusting_patterns":null}`, `{"dusting_patterns":"none"}`} {
		ts, _ := backend(t, http.StatusOK, body)
		d := &fakeDispatcher{}
		mem := memory.New()

		rep := newClient(ts.URL, d, mem).Monitor(context.Background(), Request{WalletAddress: testAddr, NotificationEmail: testEmail})
		require.NoError(t, rep.Err, body)
		assert.Equal(t, AlertSafe, rep.Alert, body)
		assert.False(t, rep.Dusting)
		assert.Empty(t, d.calls, body)

		ins, err := mem.GetInsights(context.Background(), testAddr)
		require.NoError(t, err)
		assert.Len(t, ins, 1, body)
	}
}

func TestMonitorFailures(t *testing.T) {
	down := httptest.NewServer(http.NotFoundHandler())
	downURL := down.URL
	down.Close()

	appErr, _ := backend(t, http.StatusOK, `{"error":"agent not found"}`)
	status, _ := backend(t, http.StatusInternalServerError, `{"error":"boom"}`)

	for _, tc := range []struct {
		name string
		url  string
		as   interface{}
	}{
		{"transport", downURL, new(*api.NetworkError)},
		{"status", status.URL, new(*api.NetworkError)},
		{"application", appErr.URL, new(*api.ApplicationError)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			d := &fakeDispatcher{}
			mem := memory.New()

			rep := newClient(tc.url, d, mem).Monitor(context.Background(), Request{WalletAddress: testAddr, NotificationEmail: testEmail})
			assert.Equal(t, AlertFailed, rep.Alert)
			require.Error(t, rep.Err)
			assert.ErrorAs(t, rep.Err, tc.as)
			assert.Empty(t, d.calls)

			ins, err := mem.GetInsights(context.Background(), testAddr)
			require.NoError(t, err)
			assert.Empty(t, ins)
		})
	}
}

func TestMonitorSideEffectFailures(t *testing.T) {
	ts, _ := backend(t, http.StatusOK, `{"dusting_patterns":[{"from":"0x1"}]}`)
	boom := errors.New("boom")
	d := &fakeDispatcher{err: boom}

	rep := newClient(ts.URL, d, failingRecorder{err: boom}).Monitor(context.Background(), Request{WalletAddress: testAddr, NotificationEmail: testEmail})
	assert.NoError(t, rep.Err)
	assert.Equal(t, AlertDusting, rep.Alert)
	assert.ErrorIs(t, rep.DispatchErr, boom)
	assert.ErrorIs(t, rep.InsightErr, boom)
	assert.Len(t, d.calls, 1)
}

func TestMonitorIndependentCalls(t *testing.T) {
	ts, hits := backend(t, http.StatusOK, `{"dusting_patterns":["p1"]}`)
	mem := memory.New()
	m := New("SmartAgent", api.NewClient(ts.URL, 0), &lockedDispatcher{}, mem, nil)

	done := make(chan Report)
	for i := 0; i < 4; i++ {
		go func() { done <- m.Monitor(context.Background(), Request{WalletAddress: testAddr, NotificationEmail: testEmail}) }()
	}

	for i := 0; i < 4; i++ {
		assert.Equal(t, AlertDusting, (<-done).Alert)
	}

	assert.EqualValues(t, 4, atomic.LoadInt32(hits))

	ins, err := mem.GetInsights(context.Background(), testAddr)
	require.NoError(t, err)
	assert.Len(t, ins, 4)
}

type lockedDispatcher struct{ n int32 }

func (l *lockedDispatcher) Send(context.Context, string, string, string) error {
	atomic.AddInt32(&l.n, 1)

	return nil
}
