package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// newID builds an opaque time+random identifier like "room_1700000000000_1a2b3c4d"
func newID(prefix string) string {
	return fmt.Sprintf("%s_%d_%s", prefix, time.Now().UnixMilli(), uuid.NewString()[:8])
}
