package storage

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	"github.com/bytedance/sonic"

	"github.com/austinstudio/meeting-actions-sub000/domain"
)

type fakeQueue struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (f *fakeQueue) EnqueueMessage(ctx context.Context, content string, o *azqueue.EnqueueMessageOptions) (azqueue.EnqueueMessagesResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return azqueue.EnqueueMessagesResponse{}, f.err
	}
	f.messages = append(f.messages, content)
	return azqueue.EnqueueMessagesResponse{}, nil
}

func TestActivityQueuePublish(t *testing.T) {
	fq := &fakeQueue{}
	q := &ActivityQueue{queue: fq}
	ev := domain.ActivityEvent{
		EntityType: "task",
		EntityID:   "t1",
		OwnerID:    "u1",
		Entries:    []domain.Activity{{ID: "a1", Type: domain.ActivityUpdate, Field: "status", OldValue: "todo", NewValue: "done", User: "ann"}},
	}
	if err := q.Publish(context.Background(), ev); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(fq.messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(fq.messages))
	}
	var got domain.ActivityEvent
	if err := sonic.UnmarshalString(fq.messages[0], &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.EntityID != "t1" || len(got.Entries) != 1 || got.Entries[0].NewValue != "done" {
		t.Fatalf("unexpected message %#v", got)
	}
}

func TestActivityQueuePublishError(t *testing.T) {
	boom := errors.New("queue down")
	q := &ActivityQueue{queue: &fakeQueue{err: boom}}
	err := q.Publish(context.Background(), domain.ActivityEvent{EntityType: "task", EntityID: "t1"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped queue error, got %v", err)
	}
}
