package clip

import (
	"fmt"
	"strconv"
	"time"

	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/mstreet/couponclip/internal/domain/model"
)

// ParentWorkflowID is the default workflow ID the trigger uses for the
// fan-out parent.
const ParentWorkflowID = "coupon-clipper-parent"

// childWorkflowID names a per-account child run. The parent run ID is baked
// in so overlapping parent runs cannot race duplicate children onto the same
// account; a static ID would collide.
func childWorkflowID(accountID int64, parentRunID string) string {
	return fmt.Sprintf("clip-account-%d-%s", accountID, parentRunID)
}

// activityRetryPolicy is the uniform per-activity retry posture: a small
// attempt ceiling with a bounded backoff, and the permanent child failures
// excluded from retry entirely.
func activityRetryPolicy() *temporal.RetryPolicy {
	return &temporal.RetryPolicy{
		MaximumAttempts:        3,
		MaximumInterval:        10 * time.Second,
		NonRetryableErrorTypes: nonRetryableErrorTypes,
	}
}

// ClipCouponsWorkflow is the parent fan-out: list every stored account and
// start one detached child per account. The parent waits only for each child
// to start, never for it to finish; abandoned children outlive the parent and
// a child's failure never fails it.
func ClipCouponsWorkflow(ctx workflow.Context) (string, error) {
	logger := workflow.GetLogger(ctx)

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts:        3,
			MaximumInterval:        10 * time.Second,
			NonRetryableErrorTypes: []string{errTypeConfig},
		},
	})

	var a *Activities
	var accountIDs []int64
	if err := workflow.ExecuteActivity(ctx, a.ListAccountIDs).Get(ctx, &accountIDs); err != nil {
		return "", err
	}

	runID := workflow.GetInfo(ctx).WorkflowExecution.RunID
	started := 0
	for _, accountID := range accountIDs {
		childCtx := workflow.WithChildOptions(ctx, workflow.ChildWorkflowOptions{
			WorkflowID:        childWorkflowID(accountID, runID),
			ParentClosePolicy: enumspb.PARENT_CLOSE_POLICY_ABANDON,
			// A failed child run is retried whole: every attempt
			// re-authenticates and re-fetches, and the is_clipped skip guard
			// keeps reruns idempotent. Permanent errors never retry.
			RetryPolicy: &temporal.RetryPolicy{
				MaximumAttempts:        3,
				NonRetryableErrorTypes: nonRetryableErrorTypes,
			},
		})

		future := workflow.ExecuteChildWorkflow(childCtx, ClipAccountCouponsWorkflow, accountID)
		if err := future.GetChildWorkflowExecution().Get(ctx, nil); err != nil {
			logger.Error("child workflow failed to start", "account_id", accountID, "error", err)
			continue
		}
		started++
	}

	logger.Info("fan-out complete", "accounts", len(accountIDs), "children_started", started)
	return fmt.Sprintf("started clip runs for %d account(s)", started), nil
}

// ClipAccountCouponsWorkflow is the per-account child: authenticate, fetch
// the unclipped batch, clip each coupon in turn. The session and batch are
// derived fresh on every run and discarded at the end; nothing is persisted
// between runs, so a rerun can never act on a stale token.
//
// The result reports the size of the fetched batch (the opportunity), not the
// number successfully clipped.
func ClipAccountCouponsWorkflow(ctx workflow.Context, accountID int64) (string, error) {
	logger := workflow.GetLogger(ctx)

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy:         activityRetryPolicy(),
	})

	var a *Activities

	var session model.AccountSession
	if err := workflow.ExecuteActivity(ctx, a.Authenticate, accountID).Get(ctx, &session); err != nil {
		logger.Error("authentication failed", "account_id", accountID, "error", err)
		return "", err
	}

	var batch model.CouponCollection
	if err := workflow.ExecuteActivity(ctx, a.FetchAvailableCoupons, session).Get(ctx, &batch); err != nil {
		logger.Error("coupon fetch failed", "account_id", accountID, "error", err)
		return "", err
	}

	// Clipping a large batch can outlast a single start-to-close window's
	// worth of patience; the per-coupon heartbeat keeps the activity live.
	clipCtx := workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		HeartbeatTimeout:    10 * time.Second,
		RetryPolicy:         activityRetryPolicy(),
	})

	clipped := 0
	for _, coupon := range batch.Coupons {
		// Already-clipped coupons cost no network call. Re-clipping would
		// succeed upstream, so this guard is what makes reruns cheap rather
		// than what makes them correct.
		if coupon.IsClipped {
			continue
		}

		var result model.Coupon
		if err := workflow.ExecuteActivity(clipCtx, a.ClipCoupon, ClipRequest{Session: session, Coupon: coupon}).Get(ctx, &result); err != nil {
			logger.Error("clip failed", "account_id", accountID, "coupon_id", coupon.ID, "error", err)
			return "", err
		}
		if result.IsClipped {
			clipped++
		}
	}

	logger.Info("clip run complete",
		"account_id", accountID,
		"batch", len(batch.Coupons),
		"clipped", clipped,
		"total_value", batch.TotalValue,
	)
	return strconv.Itoa(len(batch.Coupons)), nil
}
