package model

// FeedChange is the change notification pushed on the event bus after every
// committed mutation. Subscribers use it to decide whether their standing
// query needs a fresh snapshot. It is never persisted.
type FeedChange struct {
	CompanyId string     `json:"companyId"`
	Kind      ChangeKind `json:"kind"`
	// PostId is set for every kind. CommentId is set only for comment and
	// comment-like changes.
	PostId    string `json:"postId"`
	CommentId string `json:"commentId,omitempty"`
}

type ChangeKind string

const (
	ChangeKindPosts        ChangeKind = "POSTS"
	ChangeKindComments     ChangeKind = "COMMENTS"
	ChangeKindPostLikes    ChangeKind = "POST_LIKES"
	ChangeKindCommentLikes ChangeKind = "COMMENT_LIKES"
)

func (e ChangeKind) IsValid() bool {
	switch e {
	case ChangeKindPosts, ChangeKindComments, ChangeKindPostLikes, ChangeKindCommentLikes:
		return true
	}
	return false
}

func (e ChangeKind) String() string {
	return string(e)
}
