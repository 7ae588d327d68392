package feed

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/Luismorlan/teamfeed/model"
	"github.com/Luismorlan/teamfeed/relay"
	Logger "github.com/Luismorlan/teamfeed/utils/log"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const defaultMaxTxRetry = 3

// ImageUploader is the upload side of the object store relay, consumed by
// the post creation pipeline. Satisfied by *relay.Client.
type ImageUploader interface {
	Upload(ctx context.Context, image relay.ImageUpload, folder string) (string, error)
}

// FeedService owns every mutation and query over Posts, Comments and Likes
// for one document store. Its single job beyond plain CRUD is keeping the
// cached count fields (LikeCount, CommentCount) equal to the cardinality of
// their backing membership tables after every completed operation, under
// concurrent callers.
//
// All configuration is fixed at construction. There is no process-wide
// instance and no mutable "active company" state: company scope travels
// with every call, which makes one service safely shareable across
// companies and sessions.
type FeedService struct {
	db         *gorm.DB
	bus        *ChangeBus
	uploader   ImageUploader
	maxTxRetry int
}

func NewFeedService(db *gorm.DB, bus *ChangeBus) *FeedService {
	return &FeedService{
		db:         db,
		bus:        bus,
		maxTxRetry: defaultMaxTxRetry,
	}
}

// NewFeedServiceWithUploader additionally wires the relay client used by
// CreatePostWithImages.
func NewFeedServiceWithUploader(db *gorm.DB, bus *ChangeBus, uploader ImageUploader) *FeedService {
	s := NewFeedService(db, bus)
	s.uploader = uploader
	return s
}

// CreatePost writes a new post with all counters at zero. No transaction is
// needed, nothing shares the new row's counters yet.
func (s *FeedService) CreatePost(ctx context.Context, authorId, companyId, content string, imageKeys []string, metadata map[string]interface{}) (*model.Post, error) {
	if strings.TrimSpace(content) == "" && len(imageKeys) == 0 {
		return nil, errors.Wrap(ErrValidationFailed, "post needs content or at least one image")
	}

	post := model.Post{
		Id:        uuid.New().String(),
		CompanyId: companyId,
		AuthorId:  authorId,
		CreatedAt: time.Now(),
		Content:   content,
		ImageKeys: marshalStrings(imageKeys),
		Metadata:  marshalMetadata(metadata),
	}
	if err := s.db.WithContext(ctx).Create(&post).Error; err != nil {
		return nil, err
	}

	s.publishChange(ctx, &model.FeedChange{CompanyId: companyId, Kind: model.ChangeKindPosts, PostId: post.Id})
	return &post, nil
}

// CreatePostWithImages uploads every image through the relay first, then
// creates the post with the keys that made it. Upload failures are an
// explicit partial-failure surface: each one is counted and logged, never
// escalated, and the post is still created as long as the validation
// precondition holds with the surviving keys. The failed count is returned
// alongside the post.
func (s *FeedService) CreatePostWithImages(ctx context.Context, authorId, companyId, content string, images []relay.ImageUpload, metadata map[string]interface{}) (*model.Post, int, error) {
	if s.uploader == nil {
		return nil, 0, errors.New("feed service constructed without an uploader")
	}

	var keys []string
	failed := 0
	for _, image := range images {
		key, err := s.uploader.Upload(ctx, image, companyId)
		if err != nil {
			failed++
			Logger.Log.Warnf("image upload failed for %s: %v", image.FileName, err)
			continue
		}
		keys = append(keys, key)
	}

	post, err := s.CreatePost(ctx, authorId, companyId, content, keys, metadata)
	if err != nil {
		return nil, failed, err
	}
	return post, failed, nil
}

// ToggleLike flips the calling user's like on a post and returns the new
// liked state. The pre-transaction read fixes the caller's intent; inside
// the transaction the parent row is locked, the membership row re-read, and
// the (row, counter) pair mutated together. When the re-read no longer
// matches the intent a concurrent toggle for the same pair won the race and
// the call fails with ErrConflicted rather than re-applying a delta it
// never intended.
func (s *FeedService) ToggleLike(ctx context.Context, postId, userId, companyId string) (bool, error) {
	var existing model.PostLike
	res := s.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postId, userId).
		First(&existing)
	if res.Error != nil && !errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return false, res.Error
	}
	wantLiked := res.RowsAffected == 0

	if err := s.applyPostLikeIntent(ctx, postId, userId, companyId, wantLiked); err != nil {
		return false, err
	}

	s.publishChange(ctx, &model.FeedChange{CompanyId: companyId, Kind: model.ChangeKindPostLikes, PostId: postId})
	return wantLiked, nil
}

func (s *FeedService) applyPostLikeIntent(ctx context.Context, postId, userId, companyId string, wantLiked bool) error {
	return s.withTxRetry(ctx, func(tx *gorm.DB) error {
		var post model.Post
		res := lockForUpdate(tx).
			Where("id = ? AND company_id = ?", postId, companyId).
			First(&post)
		if res.Error != nil && !errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errors.Wrap(ErrNotFound, "post "+postId)
		}

		var like model.PostLike
		res = tx.Where("post_id = ? AND user_id = ?", postId, userId).First(&like)
		if res.Error != nil && !errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return res.Error
		}
		present := res.RowsAffected == 1

		// present == wantLiked means a concurrent toggle for the same
		// (post, user) pair committed between our intent read and the lock.
		if present == wantLiked {
			return errors.Wrap(ErrConflicted, "concurrent toggle on the same like")
		}

		if wantLiked {
			if err := tx.Create(&model.PostLike{
				PostId:    postId,
				UserId:    userId,
				CompanyId: companyId,
				CreatedAt: time.Now(),
			}).Error; err != nil {
				return err
			}
			return tx.Model(&model.Post{}).Where("id = ?", postId).
				UpdateColumn("like_count", gorm.Expr("like_count + 1")).Error
		}

		if err := tx.Where("post_id = ? AND user_id = ?", postId, userId).
			Delete(&model.PostLike{}).Error; err != nil {
			return err
		}
		return tx.Model(&model.Post{}).Where("id = ?", postId).
			UpdateColumn("like_count", gorm.Expr("like_count - 1")).Error
	})
}

// ToggleCommentLike is ToggleLike one level deeper: same intent rule, same
// transaction shape, moving Comment.LikeCount against comment_likes.
func (s *FeedService) ToggleCommentLike(ctx context.Context, commentId, userId, companyId string) (bool, error) {
	var existing model.CommentLike
	res := s.db.WithContext(ctx).
		Where("comment_id = ? AND user_id = ?", commentId, userId).
		First(&existing)
	if res.Error != nil && !errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return false, res.Error
	}
	wantLiked := res.RowsAffected == 0

	postId, err := s.applyCommentLikeIntent(ctx, commentId, userId, companyId, wantLiked)
	if err != nil {
		return false, err
	}

	s.publishChange(ctx, &model.FeedChange{CompanyId: companyId, Kind: model.ChangeKindCommentLikes, PostId: postId, CommentId: commentId})
	return wantLiked, nil
}

func (s *FeedService) applyCommentLikeIntent(ctx context.Context, commentId, userId, companyId string, wantLiked bool) (string, error) {
	var postId string
	err := s.withTxRetry(ctx, func(tx *gorm.DB) error {
		var comment model.Comment
		res := lockForUpdate(tx).
			Where("id = ? AND company_id = ?", commentId, companyId).
			First(&comment)
		if res.Error != nil && !errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errors.Wrap(ErrNotFound, "comment "+commentId)
		}
		postId = comment.PostId

		var like model.CommentLike
		res = tx.Where("comment_id = ? AND user_id = ?", commentId, userId).First(&like)
		if res.Error != nil && !errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return res.Error
		}
		present := res.RowsAffected == 1

		if present == wantLiked {
			return errors.Wrap(ErrConflicted, "concurrent toggle on the same like")
		}

		if wantLiked {
			if err := tx.Create(&model.CommentLike{
				CommentId: commentId,
				UserId:    userId,
				CompanyId: companyId,
				CreatedAt: time.Now(),
			}).Error; err != nil {
				return err
			}
			return tx.Model(&model.Comment{}).Where("id = ?", commentId).
				UpdateColumn("like_count", gorm.Expr("like_count + 1")).Error
		}

		if err := tx.Where("comment_id = ? AND user_id = ?", commentId, userId).
			Delete(&model.CommentLike{}).Error; err != nil {
			return err
		}
		return tx.Model(&model.Comment{}).Where("id = ?", commentId).
			UpdateColumn("like_count", gorm.Expr("like_count - 1")).Error
	})
	return postId, err
}

// AddComment creates a comment and moves the parent's CommentCount in the
// same transaction. The parent must exist; its IsDeleted flag is
// deliberately not checked, commenting on a hidden post stays allowed.
func (s *FeedService) AddComment(ctx context.Context, postId, authorId, companyId, content string, metadata map[string]interface{}) (*model.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, errors.Wrap(ErrValidationFailed, "comment content must not be empty")
	}

	comment := model.Comment{
		Id:        uuid.New().String(),
		PostId:    postId,
		CompanyId: companyId,
		AuthorId:  authorId,
		CreatedAt: time.Now(),
		Content:   content,
		Metadata:  marshalMetadata(metadata),
	}

	err := s.withTxRetry(ctx, func(tx *gorm.DB) error {
		var post model.Post
		res := lockForUpdate(tx).
			Where("id = ? AND company_id = ?", postId, companyId).
			First(&post)
		if res.Error != nil && !errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errors.Wrap(ErrNotFound, "post "+postId)
		}

		if err := tx.Create(&comment).Error; err != nil {
			return err
		}
		return tx.Model(&model.Post{}).Where("id = ?", postId).
			UpdateColumn("comment_count", gorm.Expr("comment_count + 1")).Error
	})
	if err != nil {
		return nil, err
	}

	s.publishChange(ctx, &model.FeedChange{CompanyId: companyId, Kind: model.ChangeKindComments, PostId: postId, CommentId: comment.Id})
	return &comment, nil
}

// UpdatePost edits the post body. No counter is touched so no transaction
// is needed. Editing a soft deleted post reports NotFound.
func (s *FeedService) UpdatePost(ctx context.Context, postId, companyId, content string) (*model.Post, error) {
	var post model.Post
	res := s.db.WithContext(ctx).
		Where("id = ? AND company_id = ? AND is_deleted = ?", postId, companyId, false).
		First(&post)
	if res.Error != nil && !errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, errors.Wrap(ErrNotFound, "post "+postId)
	}

	if strings.TrimSpace(content) == "" && len(post.ImageKeyList()) == 0 {
		return nil, errors.Wrap(ErrValidationFailed, "post needs content or at least one image")
	}

	now := time.Now()
	post.Content = content
	post.UpdatedAt = &now
	if err := s.db.WithContext(ctx).Model(&model.Post{}).Where("id = ?", postId).
		UpdateColumns(map[string]interface{}{"content": content, "updated_at": now}).Error; err != nil {
		return nil, err
	}

	s.publishChange(ctx, &model.FeedChange{CompanyId: companyId, Kind: model.ChangeKindPosts, PostId: postId})
	return &post, nil
}

// DeletePost hides the post. Always soft: the row, its comments and its
// likes all stay in place, queries just stop returning it.
func (s *FeedService) DeletePost(ctx context.Context, postId, companyId string) error {
	res := s.db.WithContext(ctx).Model(&model.Post{}).
		Where("id = ? AND company_id = ? AND is_deleted = ?", postId, companyId, false).
		UpdateColumn("is_deleted", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errors.Wrap(ErrNotFound, "post "+postId)
	}

	s.publishChange(ctx, &model.FeedChange{CompanyId: companyId, Kind: model.ChangeKindPosts, PostId: postId})
	return nil
}

// UpdateComment edits a comment body, content must stay non-empty.
func (s *FeedService) UpdateComment(ctx context.Context, commentId, companyId, content string) (*model.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, errors.Wrap(ErrValidationFailed, "comment content must not be empty")
	}

	var comment model.Comment
	res := s.db.WithContext(ctx).
		Where("id = ? AND company_id = ? AND is_deleted = ?", commentId, companyId, false).
		First(&comment)
	if res.Error != nil && !errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, errors.Wrap(ErrNotFound, "comment "+commentId)
	}

	now := time.Now()
	comment.Content = content
	comment.UpdatedAt = &now
	if err := s.db.WithContext(ctx).Model(&model.Comment{}).Where("id = ?", commentId).
		UpdateColumns(map[string]interface{}{"content": content, "updated_at": now}).Error; err != nil {
		return nil, err
	}

	s.publishChange(ctx, &model.FeedChange{CompanyId: companyId, Kind: model.ChangeKindComments, PostId: comment.PostId, CommentId: commentId})
	return &comment, nil
}

// DeleteComment soft deletes a comment. The parent's CommentCount is NOT
// decremented: the count reflects all-time comment activity, so it may
// exceed the number of currently visible comments.
func (s *FeedService) DeleteComment(ctx context.Context, commentId, companyId string) error {
	var comment model.Comment
	res := s.db.WithContext(ctx).
		Where("id = ? AND company_id = ? AND is_deleted = ?", commentId, companyId, false).
		First(&comment)
	if res.Error != nil && !errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errors.Wrap(ErrNotFound, "comment "+commentId)
	}

	if err := s.db.WithContext(ctx).Model(&model.Comment{}).
		Where("id = ?", commentId).
		UpdateColumn("is_deleted", true).Error; err != nil {
		return err
	}

	s.publishChange(ctx, &model.FeedChange{CompanyId: companyId, Kind: model.ChangeKindComments, PostId: comment.PostId, CommentId: commentId})
	return nil
}

// IncrementShareCount bumps the share counter. Shares are fire-and-forget:
// no membership table backs them and the count never goes down, so a plain
// atomic SQL increment is enough and no transaction is taken. Intentionally
// asymmetric with likes.
func (s *FeedService) IncrementShareCount(ctx context.Context, postId, companyId string) error {
	res := s.db.WithContext(ctx).Model(&model.Post{}).
		Where("id = ? AND company_id = ?", postId, companyId).
		UpdateColumn("share_count", gorm.Expr("share_count + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errors.Wrap(ErrNotFound, "post "+postId)
	}

	s.publishChange(ctx, &model.FeedChange{CompanyId: companyId, Kind: model.ChangeKindPosts, PostId: postId})
	return nil
}

// publishChange notifies live query subscribers after a committed mutation.
// Bus failure only loses a refresh, never the mutation, so it is logged and
// swallowed.
func (s *FeedService) publishChange(ctx context.Context, change *model.FeedChange) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, change); err != nil {
		Logger.Log.Warn("fail to publish feed change: ", err)
	}
}

func marshalStrings(values []string) datatypes.JSON {
	if values == nil {
		values = []string{}
	}
	b, _ := json.Marshal(values)
	return datatypes.JSON(b)
}

func marshalMetadata(metadata map[string]interface{}) datatypes.JSON {
	if metadata == nil {
		return nil
	}
	b, _ := json.Marshal(metadata)
	return datatypes.JSON(b)
}
