package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoupon_UnmarshalMinimal(t *testing.T) {
	var c Coupon
	require.NoError(t, json.Unmarshal([]byte(`{"id":"ice_123"}`), &c))

	assert.Equal(t, "ice_123", c.ID)
	assert.False(t, c.IsClipped)
	assert.Nil(t, c.Extra)
}

func TestCoupon_UnmarshalCapturesUnknownFields(t *testing.T) {
	payload := `{
		"id": "ice_123",
		"brand": "Best Choice",
		"offer_value": "$0.50",
		"popularity": 999999,
		"tags": ["issuer_store"]
	}`

	var c Coupon
	require.NoError(t, json.Unmarshal([]byte(payload), &c))

	assert.Equal(t, "Best Choice", c.Brand)
	assert.Equal(t, "$0.50", c.OfferValue)
	assert.ElementsMatch(t, []string{"popularity", "tags"}, c.ExtraFieldNames())
	assert.JSONEq(t, "999999", string(c.Extra["popularity"]))
}

func TestCoupon_UnmarshalUnexpectedType(t *testing.T) {
	var c Coupon
	err := json.Unmarshal([]byte(`{"id": 42}`), &c)
	require.Error(t, err)
}

func TestSession_Validate(t *testing.T) {
	valid := AccountSession{
		Token:             "tok",
		StoreID:           "store-9",
		LoyaltyCardNumber: "4400001",
	}
	require.NoError(t, valid.Validate())
}

func TestSession_ValidateMissingStore(t *testing.T) {
	session := AccountSession{Token: "tok", LoyaltyCardNumber: "4400001"}

	err := session.Validate()
	var infoErr *MissingAccountInfoError
	require.ErrorAs(t, err, &infoErr)
	require.Len(t, infoErr.Problems, 1)
	assert.Contains(t, infoErr.Problems[0], "store")
}

func TestSession_ValidateZeroStoreID(t *testing.T) {
	// The API reports an unset store as the string "0".
	session := AccountSession{Token: "tok", StoreID: "0", LoyaltyCardNumber: "4400001"}
	require.Error(t, session.Validate())
}

func TestSession_ValidateMissingLoyaltyCard(t *testing.T) {
	session := AccountSession{Token: "tok", StoreID: "store-9"}

	err := session.Validate()
	var infoErr *MissingAccountInfoError
	require.ErrorAs(t, err, &infoErr)
	require.Len(t, infoErr.Problems, 1)
	assert.Contains(t, infoErr.Problems[0], "loyalty")
}

func TestSession_ValidateBothMissing(t *testing.T) {
	err := AccountSession{Token: "tok"}.Validate()

	var infoErr *MissingAccountInfoError
	require.ErrorAs(t, err, &infoErr)
	assert.Len(t, infoErr.Problems, 2)
}
