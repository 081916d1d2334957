package storage

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/bytedance/sonic"
)

func TestCollectionEntityRoundTrip(t *testing.T) {
	tests := map[string][]byte{
		"empty":  []byte(`[]`),
		"small":  []byte(`[{"id":"a","task":"Zoë's follow-up"}]`),
		"chunks": bytes.Repeat([]byte(`{"id":"x"},`), 8000),
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			payload, err := encodeCollectionEntity("tasks", data)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			got, err := decodeCollectionEntity(payload)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !bytes.Equal(got, data) {
				t.Fatalf("round trip mismatch: %d bytes vs %d", len(got), len(data))
			}
		})
	}
}

func TestCollectionEntityLayout(t *testing.T) {
	data := bytes.Repeat([]byte("a"), tableChunkSize)
	payload, err := encodeCollectionEntity("contacts", data)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var ent map[string]any
	if err := sonic.Unmarshal(payload, &ent); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ent["PartitionKey"] != collectionsPartition || ent["RowKey"] != "contacts" {
		t.Fatalf("unexpected keys %v %v", ent["PartitionKey"], ent["RowKey"])
	}
	if ent["Chunks"].(float64) != 2 {
		t.Fatalf("expected 2 chunks, got %v", ent["Chunks"])
	}
	for i := 0; i < 2; i++ {
		part, _ := ent[chunkProperty(i)].(string)
		if len(part) == 0 || len(part) > tableChunkSize {
			t.Fatalf("chunk %d has length %d", i, len(part))
		}
	}
}

func TestCollectionEntityTooLarge(t *testing.T) {
	data := []byte(strings.Repeat("x", tableChunkSize*maxTableChunks))
	if _, err := encodeCollectionEntity("tasks", data); err == nil {
		t.Fatalf("expected size error")
	}
}

func TestDecodeCollectionEntityMissingChunk(t *testing.T) {
	if _, err := decodeCollectionEntity([]byte(`{"Chunks":2,"Data00":"W10="}`)); err == nil {
		t.Fatalf("expected error for missing chunk")
	}
}

func TestConflictStatusMapping(t *testing.T) {
	for _, code := range []int{http.StatusConflict, http.StatusPreconditionFailed, http.StatusNotFound} {
		err := fmt.Errorf("wrapped: %w", &azcore.ResponseError{StatusCode: code})
		if !isConflictStatus(statusCode(err)) {
			t.Fatalf("status %d not mapped to conflict", code)
		}
	}
	if isConflictStatus(statusCode(&azcore.ResponseError{StatusCode: http.StatusInternalServerError})) {
		t.Fatalf("500 mapped to conflict")
	}
	if statusCode(errors.New("plain")) != 0 {
		t.Fatalf("expected zero status for non azure error")
	}
}
