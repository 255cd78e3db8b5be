package post

import "time"

// Session groups posts from one client without authentication.
type Session struct {
	ID        string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
	PostCount int       `json:"post_count"`
}
