// Package clip contains the coupon-clipping orchestration: the fan-out parent
// workflow, the per-account child workflow, and the activities they invoke.
package clip

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/mstreet/couponclip/internal/domain/model"
	"github.com/mstreet/couponclip/internal/domain/port/driven"
	"github.com/mstreet/couponclip/internal/secret"
)

// TaskQueue is the Temporal task queue shared by the worker and the trigger.
const TaskQueue = "COUPON_CLIPPER_TASK_QUEUE"

// Application error types used to classify activity failures for the retry
// policy. The names in nonRetryableErrorTypes must match these exactly.
const (
	errTypeAuthentication     = "AuthenticationError"
	errTypeMissingAccountInfo = "MissingAccountInfoError"
	errTypeOffer              = "OfferError"
	errTypeConfig             = "ConfigError"
)

// nonRetryableErrorTypes are the permanent failures of a child run: bad
// credentials, website-side account gaps, and broken encryption config.
// Retrying any of these cannot succeed.
var nonRetryableErrorTypes = []string{
	errTypeAuthentication,
	errTypeMissingAccountInfo,
	errTypeConfig,
}

// ClipRequest is the input to the ClipCoupon activity.
type ClipRequest struct {
	Session model.AccountSession `json:"session"`
	Coupon  model.Coupon         `json:"coupon"`
}

// Activities holds the injected collaborators for all clip activities. One
// instance is constructed per worker process; there is no package-level state.
type Activities struct {
	store  driven.AccountStore
	client driven.CouponClient
	cipher *secret.Cipher
}

// NewActivities creates the activity set with its collaborators.
func NewActivities(store driven.AccountStore, client driven.CouponClient, cipher *secret.Cipher) *Activities {
	return &Activities{store: store, client: client, cipher: cipher}
}

// ListAccountIDs returns every stored account ID. An empty store yields an
// empty list.
func (a *Activities) ListAccountIDs(ctx context.Context) ([]int64, error) {
	ids, err := a.store.ListIDs(ctx)
	if err != nil {
		activity.GetLogger(ctx).Error("listing account ids failed", "error", err)
		return nil, err
	}
	return ids, nil
}

// Authenticate loads the account, decrypts its password transiently, and
// creates a session. The plaintext password never leaves this function.
func (a *Activities) Authenticate(ctx context.Context, accountID int64) (model.AccountSession, error) {
	logger := activity.GetLogger(ctx)

	account, err := a.store.GetByID(ctx, accountID)
	if err != nil {
		logger.Error("account lookup failed", "account_id", accountID, "error", err)
		return model.AccountSession{}, err
	}

	password, err := a.cipher.Decrypt(account.EncryptedPassword)
	if err != nil {
		// Wrong master key or salt, or a row written under different secrets.
		// The operator has to fix configuration; retrying cannot.
		logger.Error("password decryption failed", "account_id", accountID, "error", err)
		return model.AccountSession{}, temporal.NewNonRetryableApplicationError(
			"decrypt stored password: "+err.Error(), errTypeConfig, err)
	}

	session, err := a.client.Authenticate(ctx, account.Username, password)
	if err != nil {
		logger.Error("authentication failed", "account_id", accountID, "username", account.Username, "error", err)
		return model.AccountSession{}, classifyError(err)
	}

	session.AccountID = account.ID
	return session, nil
}

// FetchAvailableCoupons queries the unclipped, clippable coupons for the
// session's account.
func (a *Activities) FetchAvailableCoupons(ctx context.Context, session model.AccountSession) (model.CouponCollection, error) {
	logger := activity.GetLogger(ctx)

	batch, err := a.client.ListCoupons(ctx, session, false)
	if err != nil {
		logger.Error("coupon fetch failed", "account_id", session.AccountID, "error", err)
		return model.CouponCollection{}, classifyError(err)
	}

	if batch.Count > 0 {
		logger.Info("found coupons", "account_id", session.AccountID, "count", batch.Count, "total_value", batch.TotalValue)
	} else {
		logger.Info("no new coupons", "account_id", session.AccountID)
	}
	return batch, nil
}

// ClipCoupon attempts to clip one coupon. Clip rejections are absorbed by the
// client (coupon returned unclipped); only transport-level failures error. A
// heartbeat is recorded after every attempt regardless of outcome so a long
// clipping batch is not mistaken for a hung activity.
func (a *Activities) ClipCoupon(ctx context.Context, req ClipRequest) (model.Coupon, error) {
	logger := activity.GetLogger(ctx)

	coupon, err := a.client.ClipCoupon(ctx, req.Session, req.Coupon)
	if err != nil {
		logger.Error("clip request failed", "account_id", req.Session.AccountID, "coupon_id", req.Coupon.ID, "error", err)
		activity.RecordHeartbeat(ctx, req.Coupon.ID)
		return model.Coupon{}, classifyError(err)
	}

	activity.RecordHeartbeat(ctx, coupon.ID)
	return coupon, nil
}

// classifyError maps collaborator error types onto Temporal application
// errors whose Type strings drive the retry policy. Unrecognized errors pass
// through unchanged and stay retryable.
func classifyError(err error) error {
	var authErr *driven.AuthenticationError
	if errors.As(err, &authErr) {
		return temporal.NewNonRetryableApplicationError(authErr.Error(), errTypeAuthentication, err)
	}

	var infoErr *model.MissingAccountInfoError
	if errors.As(err, &infoErr) {
		return temporal.NewNonRetryableApplicationError(infoErr.Error(), errTypeMissingAccountInfo, err)
	}

	var offerErr *driven.OfferError
	if errors.As(err, &offerErr) {
		return temporal.NewApplicationError(offerErr.Error(), errTypeOffer)
	}

	return err
}
