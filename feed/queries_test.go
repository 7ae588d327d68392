package feed

import (
	"context"
	"testing"
	"time"

	"github.com/Luismorlan/teamfeed/model"
	"github.com/stretchr/testify/require"
)

func TestGetCompanyPosts(t *testing.T) {
	s, db := newTestService(t)
	ctx := context.Background()

	t.Run("newest first, company scoped, deleted hidden", func(t *testing.T) {
		older := mustCreatePost(t, s, "older")
		// Force distinct creation times, sqlite timestamp resolution can
		// collapse two back-to-back inserts.
		db.Model(&model.Post{}).Where("id = ?", older.Id).
			UpdateColumn("created_at", time.Now().Add(-time.Hour))

		newer := mustCreatePost(t, s, "newer")
		hidden := mustCreatePost(t, s, "hidden")
		require.NoError(t, s.DeletePost(ctx, hidden.Id, testCompany))
		_, err := s.CreatePost(ctx, testAuthor, "other_company", "elsewhere", nil, nil)
		require.NoError(t, err)

		posts, err := s.GetCompanyPosts(ctx, testCompany)
		require.NoError(t, err)
		require.Len(t, posts, 2)
		require.Equal(t, newer.Id, posts[0].Id)
		require.Equal(t, older.Id, posts[1].Id)
	})
}

func TestGetUserPosts(t *testing.T) {
	s, _ := newTestService(t)
	ctx := context.Background()

	mustCreatePost(t, s, "by author")
	_, err := s.CreatePost(ctx, "someone_else", testCompany, "not by author", nil, nil)
	require.NoError(t, err)

	posts, err := s.GetUserPosts(ctx, testCompany, testAuthor)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.Equal(t, testAuthor, posts[0].AuthorId)
}

func TestGetComments(t *testing.T) {
	s, db := newTestService(t)
	ctx := context.Background()
	post := mustCreatePost(t, s, "threaded")

	first, err := s.AddComment(ctx, post.Id, "u1", testCompany, "first", nil)
	require.NoError(t, err)
	db.Model(&model.Comment{}).Where("id = ?", first.Id).
		UpdateColumn("created_at", time.Now().Add(-time.Hour))
	second, err := s.AddComment(ctx, post.Id, "u2", testCompany, "second", nil)
	require.NoError(t, err)

	// Oldest first, the conversation reads top down.
	comments, err := s.GetComments(ctx, post.Id, testCompany)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	require.Equal(t, first.Id, comments[0].Id)
	require.Equal(t, second.Id, comments[1].Id)
}

func TestGetLikes(t *testing.T) {
	s, db := newTestService(t)
	ctx := context.Background()
	post := mustCreatePost(t, s, "liked")

	_, err := s.ToggleLike(ctx, post.Id, "early_user", testCompany)
	require.NoError(t, err)
	db.Model(&model.PostLike{}).Where("post_id = ? AND user_id = ?", post.Id, "early_user").
		UpdateColumn("created_at", time.Now().Add(-time.Hour))
	_, err = s.ToggleLike(ctx, post.Id, "late_user", testCompany)
	require.NoError(t, err)

	t.Run("post likes are most recent first", func(t *testing.T) {
		likes, err := s.GetPostLikes(ctx, post.Id, testCompany)
		require.NoError(t, err)
		require.Len(t, likes, 2)
		require.Equal(t, "late_user", likes[0].UserId)
	})

	t.Run("comment likes list who liked first", func(t *testing.T) {
		comment, err := s.AddComment(ctx, post.Id, "u1", testCompany, "c", nil)
		require.NoError(t, err)

		_, err = s.ToggleCommentLike(ctx, comment.Id, "early_user", testCompany)
		require.NoError(t, err)
		db.Model(&model.CommentLike{}).Where("comment_id = ? AND user_id = ?", comment.Id, "early_user").
			UpdateColumn("created_at", time.Now().Add(-time.Hour))
		_, err = s.ToggleCommentLike(ctx, comment.Id, "late_user", testCompany)
		require.NoError(t, err)

		likes, err := s.GetCommentLikes(ctx, comment.Id, testCompany)
		require.NoError(t, err)
		require.Len(t, likes, 2)
		require.Equal(t, "early_user", likes[0].UserId)
	})
}
