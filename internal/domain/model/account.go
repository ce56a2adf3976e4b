// Package model contains the domain entities shared across ports and adapters.
package model

import "time"

// Account is one stored retailer login. EncryptedPassword is opaque at this
// layer: it is produced by the operator tooling's cipher and decrypted only
// transiently inside the authenticate activity. It must never be logged.
type Account struct {
	ID                int64
	Username          string
	EncryptedPassword string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
