package domain

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"
)

type fakeStore struct {
	mu        sync.Mutex
	blobs     map[string]Blob
	seq       int
	puts      int
	conds     []string
	conflicts int
	getErr    error
	// beforePut runs once, ahead of the next conditional check.
	beforePut func(f *fakeStore)
}

func (f *fakeStore) Get(ctx context.Context, name string) (Blob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return Blob{}, f.getErr
	}
	b := f.blobs[name]
	return Blob{Data: append([]byte(nil), b.Data...), Version: b.Version}, nil
}

func (f *fakeStore) Put(ctx context.Context, name string, data []byte, ifVersion string) (string, error) {
	if hook := f.beforePut; hook != nil {
		f.beforePut = nil
		hook(f)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	f.conds = append(f.conds, ifVersion)
	if f.conflicts > 0 {
		f.conflicts--
		return "", ErrConcurrencyConflict
	}
	cur := f.blobs[name]
	if ifVersion != AnyVersion && ifVersion != cur.Version {
		return "", ErrConcurrencyConflict
	}
	return f.putLocked(name, data), nil
}

func (f *fakeStore) putLocked(name string, data []byte) string {
	if f.blobs == nil {
		f.blobs = map[string]Blob{}
	}
	f.seq++
	v := strconv.Itoa(f.seq)
	f.blobs[name] = Blob{Data: append([]byte(nil), data...), Version: v}
	return v
}

// write stores data unconditionally, simulating another writer.
func (f *fakeStore) write(name string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.putLocked(name, data)
}

func (f *fakeStore) putCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.puts
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []ActivityEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, ev ActivityEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

var errBoom = errors.New("boom")

var testNow = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func testOptions(extra ...Option) []Option {
	base := []Option{
		WithClock(func() time.Time { return testNow }),
		WithIDs(sequentialIDs()),
	}
	return append(base, extra...)
}

func newTestTasks(fs *fakeStore, opts ...Option) TaskService {
	coll := NewCollection[*Task](fs, TasksCollection, Versioned, 3, nil)
	return NewTaskService(coll, testOptions(opts...)...)
}

func newTestContacts(fs *fakeStore, opts ...Option) ContactService {
	coll := NewCollection[*Contact](fs, ContactsCollection, Versioned, 3, nil)
	return NewContactService(coll, testOptions(opts...)...)
}

func ptrString(s string) *string { return &s }
func ptrInt(i int) *int          { return &i }
