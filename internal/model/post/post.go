package post

import "time"

// DefaultEmotion is applied when a submission carries no emotion tag.
const DefaultEmotion = "neutral"

// Post is a single shared feeling, owned by the session that submitted it.
type Post struct {
	ID        string    `json:"post_id"`
	SessionID string    `json:"session_id"`
	Content   string    `json:"content"`
	Emotion   string    `json:"emotion"`
	Timestamp time.Time `json:"timestamp"`
	Upvotes   int       `json:"upvotes"`
}

// View is the anonymized shape returned to readers. It has no session field.
type View struct {
	ID        string    `json:"post_id"`
	Content   string    `json:"content"`
	Emotion   string    `json:"emotion"`
	Timestamp time.Time `json:"timestamp"`
	Upvotes   int       `json:"upvotes"`
}

// Anonymize strips the owning session.
func (p Post) Anonymize() View {
	return View{
		ID:        p.ID,
		Content:   p.Content,
		Emotion:   p.Emotion,
		Timestamp: p.Timestamp,
		Upvotes:   p.Upvotes,
	}
}

// AnonymizeAll maps Anonymize over posts, never returning nil.
func AnonymizeAll(posts []Post) []View {
	views := make([]View, 0, len(posts))
	for _, p := range posts {
		views = append(views, p.Anonymize())
	}
	return views
}
