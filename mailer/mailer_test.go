package mailer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idefi-ai/agents/lib/msg"
)

// fakeBroker delivers its mails the way the amqp broker does, waiting on the mutex before acknowledging each.
type fakeBroker struct {
	mails []msg.MailReq
	errs  []error

	mu    sync.Mutex
	acked []string
}

func (f *fakeBroker) GetMails(mut *sync.Mutex) (<-chan msg.MailReq, <-chan error, error) {
	mails := make(chan msg.MailReq)
	errs := make(chan error)

	go func() {
		for _, e := range f.errs {
			errs <- e
		}
	}()

	go func() {
		defer close(mails)

		for _, m := range f.mails {
			mails <- m
			mut.Lock()

			f.mu.Lock()
			f.acked = append(f.acked, m.ID)
			f.mu.Unlock()
		}
	}()

	return mails, errs, nil
}

type errBroker struct{ err error }

func (e errBroker) GetMails(*sync.Mutex) (<-chan msg.MailReq, <-chan error, error) {
	return nil, nil, e.err
}

type recordingSender struct {
	mu   sync.Mutex
	sent []string
	fail string
}

func (r *recordingSender) Send(_ context.Context, subject, body, to string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if to == r.fail {
		return errors.New("mailbox unavailable")
	}

	r.sent = append(r.sent, to+"|"+subject+"|"+body)

	return nil
}

func TestRun(t *testing.T) {
	fb := &fakeBroker{
		mails: []msg.MailReq{
			{ID: "1", To: "a@example.com", Subject: "s1", HTML: "b1"},
			{ID: "2", To: "bad@example.com", Subject: "s2", HTML: "b2"},
			{ID: "3", To: "c@example.com", Subject: "s3", HTML: "b3"},
		},
		errs: []error{errors.New("malformed")},
	}
	rs := &recordingSender{fail: "bad@example.com"}

	done, err := New(fb, rs, nil).Run()
	require.NoError(t, err)

	select {
	case res := <-done:
		assert.Equal(t, "Done! 3 mails processed", res)
	case <-time.After(5 * time.Second):
		t.Fatal("mailer did not finish")
	}

	assert.Equal(t, []string{"a@example.com|s1|b1", "c@example.com|s3|b3"}, rs.sent)

	fb.mu.Lock()
	defer fb.mu.Unlock()
	assert.Equal(t, []string{"1", "2", "3"}, fb.acked)
}

func TestStop(t *testing.T) {
	m := New(&fakeBroker{}, &recordingSender{}, nil)
	m.Stop()
	m.Stop()

	done, err := m.Run()
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("mailer did not stop")
	}
}

func TestRunBrokerError(t *testing.T) {
	boom := errors.New("no channel")

	_, err := New(errBroker{err: boom}, &recordingSender{}, nil).Run()
	assert.ErrorIs(t, err, boom)
}
