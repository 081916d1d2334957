package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/bytedance/sonic"

	"github.com/austinstudio/meeting-actions-sub000/domain"
)

const (
	collectionsPartition = "collections"
	// Table string properties hold at most 32K UTF-16 characters and an
	// entity at most 1 MiB, so the encoded document is split into chunks.
	tableChunkSize = 30000
	maxTableChunks = 15
)

// Tables stores each collection as one Azure Table entity whose ETag is the
// collection version.
type Tables struct {
	table *aztables.Client
}

// NewTables connects to the named table using a storage connection string.
func NewTables(connStr, table string) (*Tables, error) {
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, TablesClientOptions())
	if err != nil {
		return nil, err
	}
	return &Tables{table: svc.NewClient(table)}, nil
}

func (t *Tables) Get(ctx context.Context, name string) (domain.Blob, error) {
	resp, err := t.table.GetEntity(ctx, collectionsPartition, name, nil)
	if err != nil {
		if statusCode(err) == http.StatusNotFound {
			return domain.Blob{}, nil
		}
		return domain.Blob{}, fmt.Errorf("get entity %s: %w", name, err)
	}
	data, err := decodeCollectionEntity(resp.Value)
	if err != nil {
		return domain.Blob{}, fmt.Errorf("decode entity %s: %w", name, err)
	}
	return domain.Blob{Data: data, Version: string(resp.ETag)}, nil
}

func (t *Tables) Put(ctx context.Context, name string, data []byte, ifVersion string) (string, error) {
	payload, err := encodeCollectionEntity(name, data)
	if err != nil {
		return "", err
	}
	var etag azcore.ETag
	switch ifVersion {
	case domain.AnyVersion:
		var resp aztables.UpsertEntityResponse
		resp, err = t.table.UpsertEntity(ctx, payload, &aztables.UpsertEntityOptions{UpdateMode: aztables.UpdateModeReplace})
		etag = resp.ETag
	case "":
		var resp aztables.AddEntityResponse
		resp, err = t.table.AddEntity(ctx, payload, nil)
		etag = resp.ETag
	default:
		var resp aztables.UpdateEntityResponse
		match := azcore.ETag(ifVersion)
		resp, err = t.table.UpdateEntity(ctx, payload, &aztables.UpdateEntityOptions{IfMatch: &match, UpdateMode: aztables.UpdateModeReplace})
		etag = resp.ETag
	}
	if err != nil {
		if isConflictStatus(statusCode(err)) {
			return "", domain.ErrConcurrencyConflict
		}
		return "", fmt.Errorf("put entity %s: %w", name, err)
	}
	return string(etag), nil
}

func statusCode(err error) int {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		return respErr.StatusCode
	}
	return 0
}

// isConflictStatus covers an existing row on insert (409), a stale ETag (412)
// and a row removed since it was read (404).
func isConflictStatus(code int) bool {
	switch code {
	case http.StatusConflict, http.StatusPreconditionFailed, http.StatusNotFound:
		return true
	}
	return false
}

func chunkProperty(i int) string {
	return fmt.Sprintf("Data%02d", i)
}

func encodeCollectionEntity(name string, data []byte) ([]byte, error) {
	encoded := base64.StdEncoding.EncodeToString(data)
	chunks := (len(encoded) + tableChunkSize - 1) / tableChunkSize
	if chunks > maxTableChunks {
		return nil, fmt.Errorf("collection %s is too large for a table entity (%d bytes)", name, len(data))
	}
	ent := map[string]any{
		"PartitionKey": collectionsPartition,
		"RowKey":       name,
		"Chunks":       int32(chunks),
	}
	for i := 0; i < chunks; i++ {
		end := min((i+1)*tableChunkSize, len(encoded))
		ent[chunkProperty(i)] = encoded[i*tableChunkSize : end]
	}
	return sonic.Marshal(ent)
}

func decodeCollectionEntity(value []byte) ([]byte, error) {
	var ent map[string]any
	if err := sonic.Unmarshal(value, &ent); err != nil {
		return nil, err
	}
	n, _ := ent["Chunks"].(float64)
	var b strings.Builder
	for i := 0; i < int(n); i++ {
		part, ok := ent[chunkProperty(i)].(string)
		if !ok {
			return nil, fmt.Errorf("missing chunk %d", i)
		}
		b.WriteString(part)
	}
	return base64.StdEncoding.DecodeString(b.String())
}

// Ping reads the table's access policy, which fails when the table or the
// account is unreachable.
func (t *Tables) Ping(ctx context.Context) error {
	if _, err := t.table.GetAccessPolicy(ctx, nil); err != nil {
		return fmt.Errorf("ping table: %w", err)
	}
	return nil
}
