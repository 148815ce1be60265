package calendar

import (
	"fmt"
	"strings"

	"github.com/ternarybob/kabuka/internal/common"
)

// Mode selects when the external lookup is consulted versus the cache.
type Mode string

const (
	ModeCacheOnly     Mode = "cache_only"
	ModeCacheFirst    Mode = "cache_first"
	ModeAlwaysRefresh Mode = "always_refresh"
)

// Modes lists the recognised modes in display order.
var Modes = []Mode{ModeCacheOnly, ModeCacheFirst, ModeAlwaysRefresh}

// ParseMode maps a mode string onto a Mode. The historical name always_ai is
// accepted for always_refresh.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(ModeCacheOnly):
		return ModeCacheOnly, nil
	case string(ModeCacheFirst):
		return ModeCacheFirst, nil
	case string(ModeAlwaysRefresh), "always_ai":
		return ModeAlwaysRefresh, nil
	}
	return "", fmt.Errorf("%w: %q", common.ErrUnknownMode, s)
}
