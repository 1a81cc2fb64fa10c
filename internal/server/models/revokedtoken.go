package models

import "time"

type RevokedToken struct {
	TokenID   string
	ExpiresAt time.Time
	RevokedAt time.Time
}
