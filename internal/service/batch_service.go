package service

import (
	"context"

	"golang.org/x/time/rate"

	"go-file-vault/internal/event"
	"go-file-vault/internal/model"
)

// ProgressFunc is invoked after each processed item.
type ProgressFunc func(model.BatchProgress)

// Batch runs multi-file operations as a sequence of independent per-item
// calls. One failing item never aborts the rest; cancellation stops the
// sequence and marks everything not yet processed as cancelled. Items are
// paced through a rate limiter so large batches do not monopolize the
// stores.
type Batch struct {
	registry *Registry
	limiter  *rate.Limiter
	bus      event.Bus
}

// NewBatch builds the coordinator. A nil limiter disables pacing.
func NewBatch(registry *Registry, limiter *rate.Limiter, bus event.Bus) *Batch {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 0)
	}

	return &Batch{
		registry: registry,
		limiter:  limiter,
		bus:      bus,
	}
}

// Move relocates each file to targetPath in order. onProgress may be nil.
func (s *Batch) Move(ctx context.Context, fileIDs []string, targetPath string, actor model.Actor, onProgress ProgressFunc) model.BatchSummary {
	return s.run(ctx, "move", fileIDs, actor, onProgress, func(ctx context.Context, id string) error {
		_, err := s.registry.Move(ctx, id, targetPath, actor)
		return err
	})
}

// Delete soft-deletes each entry in order.
func (s *Batch) Delete(ctx context.Context, fileIDs []string, actor model.Actor, onProgress ProgressFunc) model.BatchSummary {
	return s.run(ctx, "delete", fileIDs, actor, onProgress, func(ctx context.Context, id string) error {
		return s.registry.SoftDelete(ctx, id, actor)
	})
}

func (s *Batch) run(ctx context.Context, operation string, fileIDs []string, actor model.Actor, onProgress ProgressFunc, op func(context.Context, string) error) model.BatchSummary {
	summary := model.BatchSummary{
		Operation: operation,
		Total:     len(fileIDs),
		Items:     make([]model.BatchItemResult, 0, len(fileIDs)),
	}

	for i, id := range fileIDs {
		if ctx.Err() != nil {
			s.cancelRemaining(&summary, fileIDs[i:])
			break
		}
		if err := s.limiter.Wait(ctx); err != nil {
			s.cancelRemaining(&summary, fileIDs[i:])
			break
		}

		item := model.BatchItemResult{FileID: id, Status: model.BatchItemSuccess}
		if err := op(ctx, id); err != nil {
			item.Status = model.BatchItemFailed
			item.Reason = err.Error()
			summary.Failed++
		} else {
			summary.Succeeded++
		}
		summary.Items = append(summary.Items, item)

		if onProgress != nil {
			onProgress(model.BatchProgress{
				Processed: summary.Succeeded + summary.Failed,
				Total:     summary.Total,
				Last:      item,
			})
		}
	}

	publish(s.bus, event.TypeBatchCompleted, summary, actor)

	return summary
}

func (s *Batch) cancelRemaining(summary *model.BatchSummary, remaining []string) {
	for _, id := range remaining {
		summary.Items = append(summary.Items, model.BatchItemResult{
			FileID: id,
			Status: model.BatchItemCancelled,
			Reason: "batch cancelled",
		})
		summary.Cancelled++
	}
}
