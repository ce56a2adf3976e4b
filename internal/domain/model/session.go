package model

import "strings"

// MissingAccountInfoError reports an account that authenticated successfully
// but lacks the store or loyalty-card setup required to query or clip coupons.
// It is a permanent failure: retrying cannot fix a website-side account gap.
type MissingAccountInfoError struct {
	Problems []string
}

func (e *MissingAccountInfoError) Error() string {
	return "account is missing required info:\n" + strings.Join(e.Problems, "\n")
}

// AccountSession is the short-lived authenticated context for one account.
// It is derived fresh on every child run and never persisted.
type AccountSession struct {
	AccountID         int64  `json:"account_id"`
	Username          string `json:"username"`
	Token             string `json:"token"`
	StoreID           string `json:"store_id"`
	LoyaltyCardNumber string `json:"loyalty_card_number"`
}

// Validate checks that the session carries everything needed to query and clip
// coupons. The messages are operator-facing: each names the website-side fix.
func (s AccountSession) Validate() error {
	var problems []string

	if s.StoreID == "" || s.StoreID == "0" {
		problems = append(problems, "- no preferred store selected on the website; pick a store so coupons can be claimed")
	}

	if s.LoyaltyCardNumber == "" {
		problems = append(problems, "- no loyalty card number on the website account; sign up for the card and add it to the online account")
	}

	if len(problems) > 0 {
		return &MissingAccountInfoError{Problems: problems}
	}
	return nil
}
