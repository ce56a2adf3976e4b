package driven

import (
	"context"
	"fmt"

	"github.com/mstreet/couponclip/internal/domain/model"
)

// AuthenticationError is a permanent authentication failure: the credentials
// are wrong or the account is locked. It carries the upstream HTTP status and
// raw body and must never be retried.
type AuthenticationError struct {
	Username string
	Status   int
	Body     string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication for %q failed: %d - %s", e.Username, e.Status, e.Body)
}

// OfferError is a transient failure from the offers endpoints (list or clip).
// It is retryable by default.
type OfferError struct {
	Op     string
	Status int
	Body   string
}

func (e *OfferError) Error() string {
	return fmt.Sprintf("%s failed: %d - %s", e.Op, e.Status, e.Body)
}

// CouponClient is the driven port wrapping the retailer coupon API. It carries
// no retry or caching logic of its own; retry policy belongs to the
// orchestration layer.
type CouponClient interface {
	// Authenticate creates a session for the given credentials. Fails with
	// *AuthenticationError on a non-success response, or with
	// *model.MissingAccountInfoError when the authenticated account lacks a
	// store or loyalty card. The returned session has AccountID unset; the
	// caller stamps it.
	Authenticate(ctx context.Context, username, password string) (model.AccountSession, error)

	// ListCoupons returns clippable coupons filtered by their clipped state.
	// Fails with *OfferError.
	ListCoupons(ctx context.Context, session model.AccountSession, clipped bool) (model.CouponCollection, error)

	// ListRedeemedCoupons returns coupons the account has redeemed in store.
	// Fails with *OfferError.
	ListRedeemedCoupons(ctx context.Context, session model.AccountSession) (model.CouponCollection, error)

	// ClipCoupon attempts to clip one coupon. Best effort: a non-success
	// response is logged and the coupon is returned with IsClipped unchanged,
	// without error. Clipping an already-clipped coupon succeeds upstream.
	ClipCoupon(ctx context.Context, session model.AccountSession, coupon model.Coupon) (model.Coupon, error)
}
