package feed

import (
	"sort"

	"github.com/zhouzirui/solace/backend/internal/model/post"
)

// Rank orders posts for display: most upvoted first, newer first among equal votes,
// insertion order among exact ties. The result is truncated to limit and anonymized.
func Rank(posts []post.Post, limit int) []post.View {
	if limit <= 0 {
		return []post.View{}
	}

	ordered := make([]post.Post, len(posts))
	copy(ordered, posts)

	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Upvotes != ordered[j].Upvotes {
			return ordered[i].Upvotes > ordered[j].Upvotes
		}
		return ordered[i].Timestamp.After(ordered[j].Timestamp)
	})

	if len(ordered) > limit {
		ordered = ordered[:limit]
	}
	return post.AnonymizeAll(ordered)
}
