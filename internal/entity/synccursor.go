package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// SyncCursor marks how far a sync stream has read from the vendor. Only a
// fully successful tick may move it forward.
type SyncCursor struct {
	bun.BaseModel `bun:"table:sync_cursors"`

	StreamID   string     `json:"stream_id" bun:"stream_id,pk"`
	Token      string     `json:"token" bun:"token"`
	LastSyncAt *time.Time `json:"last_sync_at" bun:"last_sync_at"`
}
