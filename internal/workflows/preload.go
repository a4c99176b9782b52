package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/tactilemap/internal/core/usecases"
)

// PreloadWorkflowName is the registered name of DatasetPreloadWorkflow.
const PreloadWorkflowName = "DatasetPreloadWorkflow"

// roundsPerRun bounds workflow history before continuing as new.
const roundsPerRun = 96

// PreloadInput is the input for the dataset preload workflow.
type PreloadInput struct {
	Interval   time.Duration
	LastDigest string
	// Rounds stops the workflow after that many prefetches; 0 runs forever.
	Rounds int
}

// DatasetPreloadWorkflow prefetches the desktop datasets into the cache on
// a fixed interval and announces a change whenever the payloads differ
// from the previous round.
func DatasetPreloadWorkflow(ctx workflow.Context, input PreloadInput) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting dataset preload workflow", "interval", input.Interval)

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval: 5 * time.Second,
			MaximumAttempts: 3,
		},
	})

	for round := 1; ; round++ {
		var res usecases.PrefetchResult
		err := workflow.ExecuteActivity(ctx, "PrefetchDatasets").Get(ctx, &res)
		if err != nil {
			// A missed round keeps the previous cache; try again next interval.
			logger.Warn("prefetch failed", "error", err)
		} else if res.Digest != input.LastDigest {
			if input.LastDigest != "" {
				if err := workflow.ExecuteActivity(ctx, "NotifyDatasetChanged", res.Digest).Get(ctx, nil); err != nil {
					logger.Warn("dataset change notice failed", "error", err)
				}
			}
			input.LastDigest = res.Digest
		}

		if input.Rounds > 0 && round >= input.Rounds {
			return nil
		}
		if err := workflow.Sleep(ctx, input.Interval); err != nil {
			return err
		}
		if input.Rounds == 0 && round >= roundsPerRun {
			return workflow.NewContinueAsNewError(ctx, DatasetPreloadWorkflow, input)
		}
	}
}
