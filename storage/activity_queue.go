package storage

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	"github.com/bytedance/sonic"

	"github.com/austinstudio/meeting-actions-sub000/domain"
)

type enqueuer interface {
	EnqueueMessage(ctx context.Context, content string, o *azqueue.EnqueueMessageOptions) (azqueue.EnqueueMessagesResponse, error)
}

// ActivityQueue publishes appended activity entries to an Azure Storage queue,
// one message per committed write.
type ActivityQueue struct {
	queue enqueuer
}

func NewActivityQueue(connStr, queue string) (*ActivityQueue, error) {
	client, err := azqueue.NewQueueClientFromConnectionString(connStr, queue, QueueClientOptions())
	if err != nil {
		return nil, err
	}
	return &ActivityQueue{queue: client}, nil
}

func (q *ActivityQueue) Publish(ctx context.Context, ev domain.ActivityEvent) error {
	data, err := sonic.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := q.queue.EnqueueMessage(ctx, string(data), nil); err != nil {
		return fmt.Errorf("enqueue activity for %s %s: %w", ev.EntityType, ev.EntityID, err)
	}
	return nil
}
