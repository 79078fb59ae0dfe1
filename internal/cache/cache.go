// Package cache stores decoded datasets between requests. Values are gob
// encoded so every Get hands out an independent copy.
package cache

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
)

// ErrMiss is returned by Get when the key is absent or expired
var ErrMiss = errors.New("cache miss")

// Store is a key/value cache for datasets
type Store interface {
	Get(ctx context.Context, key string, dst any) error
	Set(ctx context.Context, key string, value any) error
	DeletePrefix(ctx context.Context, prefix string) error
}

func encode(value any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(value); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decode(data []byte, dst any) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(dst)
}
