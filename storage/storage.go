package storage

import (
	"context"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"

	"github.com/austinstudio/meeting-actions-sub000/domain"
)

var (
	_ domain.BlobStore = (*Memory)(nil)
	_ domain.BlobStore = (*Redis)(nil)
	_ domain.BlobStore = (*Tables)(nil)
	_ domain.BlobStore = (*SQL)(nil)
	_ domain.BlobStore = (*Cache)(nil)

	_ domain.ActivityPublisher = (*ActivityQueue)(nil)

	_ Pinger = (*Memory)(nil)
	_ Pinger = (*Redis)(nil)
	_ Pinger = (*Tables)(nil)
	_ Pinger = (*SQL)(nil)
)

// Pinger is implemented by backends that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

var retryableStatusCodes = []int{408, 429, 500, 502, 503, 504}

// TablesClientOptions returns the retry policy used for every table client.
func TablesClientOptions() *aztables.ClientOptions {
	return &aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   retryableStatusCodes,
			},
		},
	}
}

// QueueClientOptions returns the retry policy used for every queue client.
func QueueClientOptions() *azqueue.ClientOptions {
	return &azqueue.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    5,
				TryTimeout:    time.Minute * 5,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 60,
				StatusCodes:   retryableStatusCodes,
			},
		},
	}
}

// versionMatches reports whether a write conditioned on ifVersion may replace
// a document currently at version current ("" when absent).
func versionMatches(current, ifVersion string) bool {
	return ifVersion == domain.AnyVersion || ifVersion == current
}
