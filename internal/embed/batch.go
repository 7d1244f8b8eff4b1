package embed

import (
	"context"
	"log/slog"
)

// EmbedBatchWithFallback implements the §4.2 batch-embedding contract on
// top of a single-item embedOne function: try the batch as a whole first;
// on batch failure fall back to embedding one item at a time; on a
// per-item failure substitute a zero vector so the result always has one
// entry per input text.
func EmbedBatchWithFallback(ctx context.Context, texts []string, embedBatch func(context.Context, []string) ([][]float32, error), embedOne func(context.Context, string) ([]float32, error)) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	vectors, err := embedBatch(ctx, texts)
	if err == nil && len(vectors) == len(texts) {
		return vectors, nil
	}

	slog.Warn("embed_batch_failed_falling_back_to_per_item",
		slog.Int("batch_size", len(texts)),
		slog.Any("error", err))

	vectors = make([][]float32, len(texts))
	for i, text := range texts {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		vec, itemErr := embedOne(ctx, text)
		if itemErr != nil {
			slog.Warn("embed_item_failed_using_zero_vector",
				slog.Int("index", i), slog.Any("error", itemErr))
			vectors[i] = ZeroVector()
			continue
		}
		vectors[i] = vec
	}
	return vectors, nil
}
