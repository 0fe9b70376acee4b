package cache

import (
	"context"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// FetchFn loads a value from the source of truth.
type FetchFn[T any] func(ctx context.Context) (T, error)

// TagFn names the tags a fetched value is registered under.
type TagFn[T any] func(T) []string

// GetOrFetch returns the value cached under key, or calls fetchFn, caches
// its result and returns it. Errors from fetchFn are returned as is and
// never cached. Cache and codec failures only cost a store round trip.
func GetOrFetch[T any](ctx context.Context, l *Layer, key string, tags TagFn[T], fetchFn FetchFn[T]) (T, error) {
	if data, ok := l.Get(ctx, key); ok {
		var cached T
		err := codec.Unmarshal(data, &cached)
		if err == nil {
			return cached, nil
		}
		l.logger.Warn("cache decode failed", zap.String("key", key), zap.Error(err))
		l.drop(ctx, key)
	}

	epoch := l.Epoch()
	value, err := fetchFn(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	data, err := codec.Marshal(value)
	if err != nil {
		l.logger.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return value, nil
	}

	var tagList []string
	if tags != nil {
		tagList = tags(value)
	}
	l.Fill(ctx, epoch, key, data, tagList...)
	return value, nil
}
