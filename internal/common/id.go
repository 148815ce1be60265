package common

import (
	"github.com/google/uuid"
)

// NewRequestID generates a unique lookup request ID.
// Format: lkp_<uuid>
func NewRequestID() string {
	return "lkp_" + uuid.New().String()
}
