package model

import "time"

// Credential is the metadata for a stored credential. Identity names the
// logical owner ("github" in this deployment); exactly one credential
// exists per identity. The secret value itself never travels on this
// struct: stores hand it out as a plain string only through Get.
type Credential struct {
	Identity  string
	CreatedAt time.Time
	UpdatedAt time.Time
}
