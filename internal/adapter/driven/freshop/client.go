// Package freshop implements the CouponClient port against the Freshop/NCR
// grocery API. The client carries no retry or caching logic; the orchestration
// layer owns retry policy, and the clip endpoint is a mutation that must never
// be served from a cache.
package freshop

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mstreet/couponclip/internal/domain/model"
	"github.com/mstreet/couponclip/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CouponClient = (*Client)(nil)

// maxErrBody caps how much of an upstream error body is captured into errors
// and logs.
const maxErrBody = 4 << 10

// Client implements the driven.CouponClient port.
type Client struct {
	baseURL  string
	appKey   string
	referrer string
	http     *http.Client
}

// NewClient creates a coupon API client for the given base URL and app key.
// The base URL is injectable so tests can point the client at an httptest
// server.
func NewClient(baseURL, appKey string) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		appKey:   appKey,
		referrer: "https://" + appKey + ".com/",
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

// Authenticate creates a session via POST /2/users/me/sessions and validates
// that the account carries the store and loyalty-card info required to
// operate. The password is used for the request body only and is not retained.
func (c *Client) Authenticate(ctx context.Context, username, password string) (model.AccountSession, error) {
	form := url.Values{
		"app_key":              {c.appKey},
		"email":                {username},
		"password":             {password},
		"new_session_on_login": {"true"},
		"referrer":             {c.referrer},
		"utc":                  {nowMillis()},
	}

	resp, err := c.postForm(ctx, c.baseURL+"/2/users/me/sessions", form)
	if err != nil {
		return model.AccountSession{}, fmt.Errorf("authenticate %q: %w", username, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrBody))
		return model.AccountSession{}, &driven.AuthenticationError{
			Username: username,
			Status:   resp.StatusCode,
			Body:     string(body),
		}
	}

	// The session endpoint returns the whole user profile alongside the token
	// fields; decode the stream unbounded, the error cap is for error bodies.
	var out struct {
		Token string `json:"token"` // Always present; not strictly tied to authentication.
		// selected_store_id is the favorited store, distinct from store_id.
		SelectedStoreID string `json:"selected_store_id"`
		StoreCardNumber string `json:"store_card_number"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return model.AccountSession{}, fmt.Errorf("authenticate %q: decode response: %w", username, err)
	}

	session := model.AccountSession{
		Username:          username,
		Token:             out.Token,
		StoreID:           out.SelectedStoreID,
		LoyaltyCardNumber: out.StoreCardNumber,
	}
	if err := session.Validate(); err != nil {
		return model.AccountSession{}, err
	}

	slog.Info("authenticated", "username", username, "store_id", session.StoreID)
	return session, nil
}

// ListCoupons returns clippable coupons filtered by their clipped state.
func (c *Client) ListCoupons(ctx context.Context, session model.AccountSession, clipped bool) (model.CouponCollection, error) {
	query := url.Values{
		"app_key":          {c.appKey},
		"is_clippable":     {"true"},
		"is_clipped":       {strconv.FormatBool(clipped)},
		"limit":            {"0"},
		"sort":             {"offer_value"},
		"offer_value_sort": {"desc"},
		"store_id":         {session.StoreID},
		"token":            {session.Token},
	}
	return c.listOffers(ctx, "list coupons", query)
}

// ListRedeemedCoupons returns coupons the account has redeemed in store. The
// is_redeemed parameter lives on its own query because combining it with the
// clippable filters returns incomplete results upstream.
func (c *Client) ListRedeemedCoupons(ctx context.Context, session model.AccountSession) (model.CouponCollection, error) {
	query := url.Values{
		"app_key":          {c.appKey},
		"is_redeemed":      {"true"},
		"sort":             {"offer_value"},
		"offer_value_sort": {"desc"},
		"store_id":         {session.StoreID},
		"token":            {session.Token},
	}
	return c.listOffers(ctx, "list redeemed coupons", query)
}

func (c *Client) listOffers(ctx context.Context, op string, query url.Values) (model.CouponCollection, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/1/offers?"+query.Encode(), nil)
	if err != nil {
		return model.CouponCollection{}, fmt.Errorf("%s: build request: %w", op, err)
	}
	setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return model.CouponCollection{}, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrBody))
		return model.CouponCollection{}, &driven.OfferError{
			Op:     op,
			Status: resp.StatusCode,
			Body:   string(body),
		}
	}

	// total is always present; total_value and items are omitted entirely
	// when there are zero matches.
	var out struct {
		Total      int            `json:"total"`
		TotalValue string         `json:"total_value"`
		Items      []model.Coupon `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return model.CouponCollection{}, fmt.Errorf("%s: decode response: %w", op, err)
	}

	if out.TotalValue == "" {
		out.TotalValue = "$0"
	}
	if out.Items == nil {
		out.Items = []model.Coupon{}
	}

	for i := range out.Items {
		if extras := out.Items[i].ExtraFieldNames(); extras != nil {
			slog.Warn("coupon has unrecognized fields; consider extending the model",
				"coupon_id", out.Items[i].ID,
				"fields", extras,
			)
		}
	}

	return model.CouponCollection{
		Count:      out.Total,
		TotalValue: out.TotalValue,
		Coupons:    out.Items,
	}, nil
}

// ClipCoupon attempts to clip one coupon via POST /1/offers/{id}/clip. A
// non-success response leaves the coupon unclipped and does not return an
// error: one bad offer must not abort the batch.
func (c *Client) ClipCoupon(ctx context.Context, session model.AccountSession, coupon model.Coupon) (model.Coupon, error) {
	form := url.Values{
		"app_key":  {c.appKey},
		"referrer": {c.referrer},
		"store_id": {session.StoreID},
		"token":    {session.Token},
		"utc":      {nowMillis()},
	}

	resp, err := c.postForm(ctx, c.baseURL+"/1/offers/"+url.PathEscape(coupon.ID)+"/clip", form)
	if err != nil {
		return model.Coupon{}, fmt.Errorf("clip coupon %q: %w", coupon.ID, err)
	}
	defer resp.Body.Close()

	// The response payload carries nothing this flow needs.
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		coupon.IsClipped = true
		slog.Info("clipped coupon",
			"coupon_id", coupon.ID,
			"value", coupon.OfferValue,
			"brand", coupon.Brand,
		)
	} else {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrBody))
		slog.Warn("failed to clip coupon",
			"coupon_id", coupon.ID,
			"status", resp.StatusCode,
			"body", string(body),
		)
	}

	return coupon, nil
}

func (c *Client) postForm(ctx context.Context, rawURL string, form url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	setHeaders(req)
	return c.http.Do(req)
}

// setHeaders applies the browser-shaped headers the upstream API expects from
// its web storefront.
func setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	req.Header.Set("Accept-Language", "en-US,en;q=0.8")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36")
}

func nowMillis() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 10)
}
