package chat

import "time"

// Session captures one transient support conversation. Its history lives in
// process memory only and is discarded when the session ends.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}
