package models

import "github.com/google/uuid"

// NewID returns a fresh contact identifier. V7 UUIDs sort by creation time,
// which keeps persisted files readable.
func NewID() string { return uuid.Must(uuid.NewV7()).String() }
