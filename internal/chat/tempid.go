package chat

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewTempID allocates a collision-resistant local identifier for a
// not-yet-persisted message. Unique within the process lifetime; no
// external coordination required.
func NewTempID() string {
	return fmt.Sprintf("tmp-%d-%s", time.Now().UnixNano(), uuid.NewString()[:8])
}
