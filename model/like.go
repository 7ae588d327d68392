package model

import "time"

/*

PostLike marks that one user likes one post

PostId: liked post
UserId: liking user, the composite primary key doubles as the at-most-one
like per user per post constraint
CompanyId: partition key
CreatedAt: time when the like was given, used to order "who liked first"

Existence of the row is the sole source of truth for the liked state; the
parent's LikeCount is a cached derivative and is only moved in the same
transaction that creates or deletes this row. A like is never updated, only
created and deleted.
*/
type PostLike struct {
	PostId    string `gorm:"primaryKey"`
	UserId    string `gorm:"primaryKey"`
	CompanyId string `gorm:"index:idx_post_likes_company"`
	CreatedAt time.Time
}

// CommentLike is the same relation one level deeper, against a Comment.
type CommentLike struct {
	CommentId string `gorm:"primaryKey"`
	UserId    string `gorm:"primaryKey"`
	CompanyId string `gorm:"index:idx_comment_likes_company"`
	CreatedAt time.Time
}
