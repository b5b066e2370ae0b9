package consumer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/wb-go/wbf/retry"

	"github.com/aliskhannn/image-uploader/internal/config"
)

// fetchResult is one scripted answer of fakeClient.Fetch.
type fetchResult struct {
	msg kafka.Message
	err error
}

// fakeClient replays fetch results and cancels the loop once they run out.
type fakeClient struct {
	results    []fetchResult
	cancel     context.CancelFunc
	commitErrs map[int64]error
	committed  []int64
	fetches    int
}

func (f *fakeClient) Fetch(ctx context.Context) (kafka.Message, error) {
	f.fetches++
	if len(f.results) == 0 {
		f.cancel()
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}

	r := f.results[0]
	f.results = f.results[1:]

	return r.msg, r.err
}

func (f *fakeClient) Commit(_ context.Context, msg kafka.Message) error {
	if err := f.commitErrs[msg.Offset]; err != nil {
		return err
	}
	f.committed = append(f.committed, msg.Offset)

	return nil
}

func (f *fakeClient) Close() error { return nil }

type fakeHandler struct {
	fail    map[int64]bool
	handled []int64
}

func (h *fakeHandler) Handle(_ context.Context, msg kafka.Message) error {
	h.handled = append(h.handled, msg.Offset)
	if h.fail[msg.Offset] {
		return errors.New("unmarshal task: invalid character")
	}

	return nil
}

func message(offset int64) fetchResult {
	return fetchResult{msg: kafka.Message{Offset: offset, Value: []byte(`{}`)}}
}

func run(t *testing.T, client *fakeClient, handler *fakeHandler) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	client.cancel = cancel

	c := &Consumer{
		Client:          client,
		uploadedHandler: handler,
		cfg:             &config.Kafka{Topic: "images.uploaded", GroupID: "test"},
		strategy:        retry.Strategy{Attempts: 1, Delay: time.Millisecond, Backoff: 1},
		backoff:         time.Millisecond,
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		c.Consume(ctx, &wg)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not stop after cancellation")
	}
}

func TestConsume(t *testing.T) {
	cases := []struct {
		name       string
		results    []fetchResult
		fail       map[int64]bool
		commitErrs map[int64]error
		handled    []int64
		committed  []int64
	}{
		{
			name:      "handled messages are committed",
			results:   []fetchResult{message(0), message(1)},
			handled:   []int64{0, 1},
			committed: []int64{0, 1},
		},
		{
			name:      "rejected messages are committed too",
			results:   []fetchResult{message(0), message(1), message(2)},
			fail:      map[int64]bool{1: true},
			handled:   []int64{0, 1, 2},
			committed: []int64{0, 1, 2},
		},
		{
			name:      "fetch errors are skipped",
			results:   []fetchResult{{err: errors.New("broker not available")}, message(5)},
			handled:   []int64{5},
			committed: []int64{5},
		},
		{
			name:       "commit failure does not stop the loop",
			results:    []fetchResult{message(0), message(1)},
			commitErrs: map[int64]error{0: errors.New("rebalance in progress")},
			handled:    []int64{0, 1},
			committed:  []int64{1},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := &fakeClient{results: tc.results, commitErrs: tc.commitErrs}
			handler := &fakeHandler{fail: tc.fail}

			run(t, client, handler)

			assert.Equal(t, tc.handled, handler.handled)
			assert.Equal(t, tc.committed, client.committed)
		})
	}
}

func TestConsume_CancelledFetchStopsWithoutCommit(t *testing.T) {
	client := &fakeClient{}
	handler := &fakeHandler{}

	run(t, client, handler)

	assert.Equal(t, 1, client.fetches)
	assert.Empty(t, handler.handled)
	assert.Empty(t, client.committed)
}

func TestConsume_StopsWhenAlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := &fakeClient{cancel: cancel}
	c := &Consumer{
		Client:          client,
		uploadedHandler: &fakeHandler{},
		cfg:             &config.Kafka{},
		strategy:        retry.Strategy{Attempts: 1},
		backoff:         time.Millisecond,
	}

	var wg sync.WaitGroup
	wg.Add(1)
	c.Consume(ctx, &wg)

	assert.Zero(t, client.fetches)
}
