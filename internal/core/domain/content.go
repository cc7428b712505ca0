package domain

// ContentKind distinguishes the user-authored resources moderation applies to.
type ContentKind string

const (
	ContentPost    ContentKind = "post"
	ContentComment ContentKind = "comment"
)

// ContentRef identifies a piece of content together with its author, which is
// all the authorization layer needs to know about it.
type ContentRef struct {
	Kind     ContentKind
	ID       int64
	AuthorID int64
}
