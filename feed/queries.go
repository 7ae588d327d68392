package feed

import (
	"context"

	"github.com/Luismorlan/teamfeed/model"
)

// Fixed first-page sizes, no cursor pagination beyond the first page.
const (
	companyPostsLimit = 50
	commentsLimit     = 50
	postLikesLimit    = 100
	commentLikesLimit = 50
)

// GetCompanyPosts returns the company feed: newest first, soft deleted
// posts hidden, first page only.
func (s *FeedService) GetCompanyPosts(ctx context.Context, companyId string) ([]*model.Post, error) {
	var posts []*model.Post
	err := s.db.WithContext(ctx).
		Where("company_id = ? AND is_deleted = ?", companyId, false).
		Order("created_at DESC").
		Limit(companyPostsLimit).
		Find(&posts).Error
	return posts, err
}

// GetUserPosts is the company feed narrowed to one author.
func (s *FeedService) GetUserPosts(ctx context.Context, companyId, authorId string) ([]*model.Post, error) {
	var posts []*model.Post
	err := s.db.WithContext(ctx).
		Where("company_id = ? AND author_id = ? AND is_deleted = ?", companyId, authorId, false).
		Order("created_at DESC").
		Limit(companyPostsLimit).
		Find(&posts).Error
	return posts, err
}

// GetComments returns a post's visible comments oldest first.
func (s *FeedService) GetComments(ctx context.Context, postId, companyId string) ([]*model.Comment, error) {
	var comments []*model.Comment
	err := s.db.WithContext(ctx).
		Where("post_id = ? AND company_id = ? AND is_deleted = ?", postId, companyId, false).
		Order("created_at ASC").
		Limit(commentsLimit).
		Find(&comments).Error
	return comments, err
}

// GetPostLikes returns who likes a post, most recent first.
func (s *FeedService) GetPostLikes(ctx context.Context, postId, companyId string) ([]*model.PostLike, error) {
	var likes []*model.PostLike
	err := s.db.WithContext(ctx).
		Where("post_id = ? AND company_id = ?", postId, companyId).
		Order("created_at DESC").
		Limit(postLikesLimit).
		Find(&likes).Error
	return likes, err
}

// GetCommentLikes returns who likes a comment, earliest liker first.
func (s *FeedService) GetCommentLikes(ctx context.Context, commentId, companyId string) ([]*model.CommentLike, error) {
	var likes []*model.CommentLike
	err := s.db.WithContext(ctx).
		Where("comment_id = ? AND company_id = ?", commentId, companyId).
		Order("created_at ASC").
		Limit(commentLikesLimit).
		Find(&likes).Error
	return likes, err
}
