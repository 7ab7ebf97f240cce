package models

// PlaceholderCommentAuthor is the author name stored when comments are not attributed to a profile.
const PlaceholderCommentAuthor = "CurrentUser"

// Comment is an element of a post's comment list. It has no identity of its own.
type Comment struct {
	Username string `json:"username"`
	Comment  string `json:"comment"`
}

// CommentList is the ordered comment array of a post.
type CommentList []Comment

// Union appends c unless an equal element is already present, mirroring array-union semantics.
// It reports whether the list changed.
func (cl CommentList) Union(c Comment) (CommentList, bool) {
	for _, existing := range cl {
		if existing == c {
			return cl, false
		}
	}
	return append(cl, c), true
}
