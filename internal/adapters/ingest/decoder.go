// Package ingest decodes batched log payloads into the workflow input. The
// wire shape is the CloudWatch subscription format: a JSON envelope whose
// data field is a base64-encoded, gzip-compressed JSON payload of log
// events.
package ingest

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/oselabs/sleuth/internal/domain"
	"github.com/oselabs/sleuth/internal/xjson"
)

type envelope struct {
	AWSLogs struct {
		Data string `json:"data"`
	} `json:"awslogs"`
}

// Decode accepts either the full subscription envelope or a bare decoded
// payload and returns the log batch.
func Decode(raw []byte) (*domain.LogBatch, error) {
	var env envelope
	if err := xjson.Unmarshal(raw, &env); err == nil && env.AWSLogs.Data != "" {
		return DecodeRecord(env.AWSLogs.Data)
	}
	return DecodePayload(raw)
}

// DecodeRecord decodes the base64+gzip data field of a subscription
// envelope.
func DecodeRecord(data string) (*domain.LogBatch, error) {
	compressed, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("ingest: base64 decode: %w", err)
	}

	zr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("ingest: gzip open: %w", err)
	}
	defer zr.Close()

	payload, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("ingest: gzip read: %w", err)
	}

	return DecodePayload(payload)
}

// DecodePayload parses an already-decompressed log payload.
func DecodePayload(raw []byte) (*domain.LogBatch, error) {
	var batch domain.LogBatch
	if err := xjson.Unmarshal(raw, &batch); err != nil {
		return nil, fmt.Errorf("ingest: parse payload: %w", err)
	}
	if batch.Events == nil {
		batch.Events = []domain.LogEvent{}
	}
	return &batch, nil
}

// Encode packs a batch back into a subscription envelope. Used by tests and
// the demo tooling to fabricate realistic inputs.
func Encode(batch *domain.LogBatch) ([]byte, error) {
	payload, err := xjson.Marshal(batch)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(payload); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}

	env := envelope{}
	env.AWSLogs.Data = base64.StdEncoding.EncodeToString(buf.Bytes())
	return xjson.Marshal(env)
}
