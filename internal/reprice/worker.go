// Package reprice recomputes the predicted price of stored weapons, for
// example after a new model has been deployed.
package reprice

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"weaponforge/internal/model"
	"weaponforge/internal/observability"
	"weaponforge/internal/predictor"
)

const defaultWorkers = 4

type PriceUpdater interface {
	UpdatePrice(ctx context.Context, id string, price float64) error
}

type Result struct {
	Updated int
	Failed  int
}

// Run fans docs out to workers goroutines. Each document is re-encoded,
// re-predicted and its stored price replaced. Documents still queued when
// ctx is cancelled are counted as failed.
func Run(
	ctx context.Context,
	docs []model.WeaponDocument,
	enc *predictor.Encoder,
	pred predictor.Predictor,
	store PriceUpdater,
	workers int,
	logger *slog.Logger,
	metrics *observability.Metrics,
) Result {
	if workers < 1 {
		workers = defaultWorkers
	}
	if logger == nil {
		logger = slog.Default()
	}

	jobs := make(chan model.WeaponDocument)
	var wg sync.WaitGroup
	var updated, failed atomic.Int64

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for doc := range jobs {
				if err := process(ctx, doc, enc, pred, store, logger); err != nil {
					failed.Add(1)
					metrics.ObserveReprice("failed")
					continue
				}
				updated.Add(1)
				metrics.ObserveReprice("updated")
			}
		}()
	}

	queued := 0
feed:
	for _, doc := range docs {
		select {
		case jobs <- doc:
			queued++
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if skipped := len(docs) - queued; skipped > 0 {
		failed.Add(int64(skipped))
		logger.Warn("reprice.cancelled", "skipped", skipped, "error", ctx.Err())
	}

	res := Result{Updated: int(updated.Load()), Failed: int(failed.Load())}
	logger.Info("reprice.done", "updated", res.Updated, "failed", res.Failed)
	return res
}

func process(
	ctx context.Context,
	doc model.WeaponDocument,
	enc *predictor.Encoder,
	pred predictor.Predictor,
	store PriceUpdater,
	logger *slog.Logger,
) error {
	price, err := pred.Predict(ctx, enc.Encode(doc.FieldRecord))
	if err != nil {
		logger.Error("reprice.predict_failed", "id", doc.ID, "error", err)
		return err
	}
	price = predictor.Round2(price)

	if err := store.UpdatePrice(ctx, doc.ID, price); err != nil {
		logger.Error("reprice.update_failed", "id", doc.ID, "error", err)
		return err
	}
	logger.Debug("reprice.updated", "id", doc.ID, "old", doc.PredictedPrice, "new", price)
	return nil
}
