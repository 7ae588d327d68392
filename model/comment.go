package model

import (
	"time"

	"gorm.io/datatypes"
)

/*

Comment is a user reply under a Post

Id: primary key, store generated uuid
PostId: owning post, "belongs-to" relation by foreign key, never embedded
CompanyId: partition key, duplicated from the parent for scoped queries
AuthorId: user who wrote the comment
CreatedAt: time when entity is created
UpdatedAt: time of the last content edit, nil if never edited

Content: comment body, always non-empty
Metadata: opaque caller supplied bag

LikeCount: cached cardinality of comment_likes, maintained exactly the way
Post.LikeCount is
IsDeleted: soft delete flag
*/
type Comment struct {
	Id        string `gorm:"primaryKey"`
	PostId    string `gorm:"index:idx_comments_post"`
	CompanyId string `gorm:"index:idx_comments_company"`
	AuthorId  string
	CreatedAt time.Time
	UpdatedAt *time.Time `gorm:"autoUpdateTime:false"`
	Content   string
	Metadata  datatypes.JSON
	LikeCount int64
	IsDeleted bool
}
