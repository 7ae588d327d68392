package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

/*

Post is a single entry in a company's feed

Id: primary key, store generated uuid
CompanyId: partition key, every query is scoped to exactly one company
AuthorId: user who created the post
CreatedAt: time when entity is created
UpdatedAt: time of the last content edit, nil if never edited

Content: post body in plain text, may be empty only when ImageKeys is not
ImageKeys: ordered opaque relay storage keys of attached images
Metadata: opaque caller supplied bag, passed through untouched

LikeCount: cached cardinality of post_likes for this post. The likes table
is the source of truth; this field is only ever moved inside the same
transaction that moves the membership row.
CommentCount: number of comments ever created under this post. A soft
deleted comment does NOT decrement it, the count reflects all-time activity.
ShareCount: monotonically increasing, shares are fire-and-forget and have
no backing membership table.

IsDeleted: soft delete flag, a deleted post is hidden from queries but
never physically removed
*/
type Post struct {
	Id           string `gorm:"primaryKey"`
	CompanyId    string `gorm:"index:idx_posts_company"`
	AuthorId     string `gorm:"index:idx_posts_author"`
	CreatedAt    time.Time
	UpdatedAt    *time.Time `gorm:"autoUpdateTime:false"`
	Content      string
	ImageKeys    datatypes.JSON
	Metadata     datatypes.JSON
	LikeCount    int64
	CommentCount int64
	ShareCount   int64
	IsDeleted    bool
}

// ImageKeyList decodes ImageKeys into a string slice, empty when the post
// has no attachments.
func (p *Post) ImageKeyList() []string {
	var keys []string
	if len(p.ImageKeys) == 0 {
		return keys
	}
	json.Unmarshal(p.ImageKeys, &keys)
	return keys
}
