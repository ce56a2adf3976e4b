package model

import "encoding/json"

// Coupon is one digital offer. The upstream API omits fields inconsistently,
// so everything but ID is optional; ID alone is enough to clip. Fields the
// struct does not know about are kept in Extra for diagnostics instead of
// being dropped or rejected.
type Coupon struct {
	ID            string `json:"id"`
	Name          string `json:"name,omitempty"`
	Description   string `json:"description,omitempty"`
	Brand         string `json:"brand,omitempty"`
	Department    string `json:"department,omitempty"`
	DepartmentID  string `json:"department_id,omitempty"`
	OfferValue    string `json:"offer_value,omitempty"`
	StartDate     string `json:"start_date,omitempty"`
	FinishDate    string `json:"finish_date,omitempty"`
	ClipStartDate string `json:"clip_start_date,omitempty"`
	ClipEndDate   string `json:"clip_end_date,omitempty"`
	IsClipped     bool   `json:"is_clipped,omitempty"`
	IsClippable   bool   `json:"is_clippable,omitempty"`
	IsRedeemed    bool   `json:"is_redeemed,omitempty"`

	// Extra holds upstream fields this struct has no column for. Populated on
	// unmarshal only; not re-serialized.
	Extra map[string]json.RawMessage `json:"-"`
}

// couponFields mirrors the json tags above. Keep in sync when adding fields.
var couponFields = []string{
	"id", "name", "description", "brand", "department", "department_id",
	"offer_value", "start_date", "finish_date", "clip_start_date",
	"clip_end_date", "is_clipped", "is_clippable", "is_redeemed",
}

// UnmarshalJSON decodes the known fields and captures any unrecognized ones
// into Extra. Unknown or missing fields are never an error.
func (c *Coupon) UnmarshalJSON(data []byte) error {
	type plain Coupon
	var known plain
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, f := range couponFields {
		delete(raw, f)
	}
	if len(raw) > 0 {
		known.Extra = raw
	}

	*c = Coupon(known)
	return nil
}

// ExtraFieldNames returns the names of the unrecognized upstream fields, in
// no particular order, for diagnostic logging.
func (c *Coupon) ExtraFieldNames() []string {
	if len(c.Extra) == 0 {
		return nil
	}
	names := make([]string, 0, len(c.Extra))
	for name := range c.Extra {
		names = append(names, name)
	}
	return names
}

// CouponCollection is one fetched batch of coupons. Count is the upstream
// total and remains authoritative even when Coupons is empty (the API omits
// the items list entirely at zero matches).
type CouponCollection struct {
	Count      int      `json:"coupon_count"`
	TotalValue string   `json:"total_value"`
	Coupons    []Coupon `json:"coupons"`
}
