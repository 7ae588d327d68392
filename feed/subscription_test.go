package feed

import (
	"context"
	"testing"
	"time"

	"github.com/Luismorlan/teamfeed/model"
	"github.com/stretchr/testify/require"
)

const snapshotTimeout = 5 * time.Second

func nextPostsSnapshot(t *testing.T, snapshots <-chan PostsSnapshot) PostsSnapshot {
	t.Helper()
	select {
	case snap, ok := <-snapshots:
		require.True(t, ok, "subscription closed unexpectedly")
		return snap
	case <-time.After(snapshotTimeout):
		t.Fatal("timed out waiting for posts snapshot")
		return PostsSnapshot{}
	}
}

func nextCommentsSnapshot(t *testing.T, snapshots <-chan CommentsSnapshot) CommentsSnapshot {
	t.Helper()
	select {
	case snap, ok := <-snapshots:
		require.True(t, ok, "subscription closed unexpectedly")
		return snap
	case <-time.After(snapshotTimeout):
		t.Fatal("timed out waiting for comments snapshot")
		return CommentsSnapshot{}
	}
}

func TestSubscribeCompanyPosts(t *testing.T) {
	s, _ := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	snapshots, err := s.SubscribeCompanyPosts(ctx, testCompany)
	require.NoError(t, err)

	// The first snapshot arrives without any mutation.
	snap := nextPostsSnapshot(t, snapshots)
	require.NoError(t, snap.Err)
	require.Empty(t, snap.Posts)

	post := mustCreatePost(t, s, "published live")
	snap = nextPostsSnapshot(t, snapshots)
	require.NoError(t, snap.Err)
	require.Len(t, snap.Posts, 1)
	require.Equal(t, post.Id, snap.Posts[0].Id)

	// A like refreshes the same result set with the new counter.
	_, err = s.ToggleLike(context.Background(), post.Id, "user_2", testCompany)
	require.NoError(t, err)
	snap = nextPostsSnapshot(t, snapshots)
	require.NoError(t, snap.Err)
	require.Equal(t, int64(1), snap.Posts[0].LikeCount)

	// Mutations in another company do not wake this subscription: cancel
	// and verify the channel closes without a pending snapshot for it.
	_, err = s.CreatePost(context.Background(), testAuthor, "other_company", "foreign", nil, nil)
	require.NoError(t, err)

	cancel()
	for range snapshots {
		// drain until close
	}
}

func TestSubscribeComments(t *testing.T) {
	s, _ := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	post := mustCreatePost(t, s, "thread")
	snapshots, err := s.SubscribeComments(ctx, post.Id, testCompany)
	require.NoError(t, err)

	snap := nextCommentsSnapshot(t, snapshots)
	require.NoError(t, snap.Err)
	require.Empty(t, snap.Comments)

	comment, err := s.AddComment(context.Background(), post.Id, "u1", testCompany, "live", nil)
	require.NoError(t, err)
	snap = nextCommentsSnapshot(t, snapshots)
	require.NoError(t, snap.Err)
	require.Len(t, snap.Comments, 1)
	require.Equal(t, comment.Id, snap.Comments[0].Id)

	// Soft deleting the comment shrinks the visible set in the next
	// snapshot.
	require.NoError(t, s.DeleteComment(context.Background(), comment.Id, testCompany))
	snap = nextCommentsSnapshot(t, snapshots)
	require.NoError(t, snap.Err)
	require.Empty(t, snap.Comments)
}

func TestSubscribePostLikes(t *testing.T) {
	s, _ := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	post := mustCreatePost(t, s, "liked live")
	snapshots, err := s.SubscribePostLikes(ctx, post.Id, testCompany)
	require.NoError(t, err)

	select {
	case snap := <-snapshots:
		require.NoError(t, snap.Err)
		require.Empty(t, snap.Likes)
	case <-time.After(snapshotTimeout):
		t.Fatal("timed out waiting for initial likes snapshot")
	}

	_, err = s.ToggleLike(context.Background(), post.Id, "user_2", testCompany)
	require.NoError(t, err)

	select {
	case snap := <-snapshots:
		require.NoError(t, snap.Err)
		require.Len(t, snap.Likes, 1)
		require.Equal(t, "user_2", snap.Likes[0].UserId)
	case <-time.After(snapshotTimeout):
		t.Fatal("timed out waiting for refreshed likes snapshot")
	}
}

func TestSubscribeCommentLikes(t *testing.T) {
	s, _ := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	post := mustCreatePost(t, s, "parent")
	comment, err := s.AddComment(context.Background(), post.Id, "u1", testCompany, "liked live", nil)
	require.NoError(t, err)

	snapshots, err := s.SubscribeCommentLikes(ctx, comment.Id, testCompany)
	require.NoError(t, err)

	select {
	case snap := <-snapshots:
		require.NoError(t, snap.Err)
		require.Empty(t, snap.Likes)
	case <-time.After(snapshotTimeout):
		t.Fatal("timed out waiting for initial comment likes snapshot")
	}

	_, err = s.ToggleCommentLike(context.Background(), comment.Id, "user_2", testCompany)
	require.NoError(t, err)

	select {
	case snap := <-snapshots:
		require.NoError(t, snap.Err)
		require.Len(t, snap.Likes, 1)
		require.Equal(t, "user_2", snap.Likes[0].UserId)
	case <-time.After(snapshotTimeout):
		t.Fatal("timed out waiting for refreshed comment likes snapshot")
	}
}

// A failing re-query surfaces inside the snapshot and the subscription
// stays alive for the next change.
func TestSubscriptionSurvivesQueryError(t *testing.T) {
	s, db := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	snapshots, err := s.SubscribeCompanyPosts(ctx, testCompany)
	require.NoError(t, err)
	snap := nextPostsSnapshot(t, snapshots)
	require.NoError(t, snap.Err)

	// Break the store under the subscription.
	require.NoError(t, db.Migrator().DropTable("posts"))
	change := &model.FeedChange{CompanyId: testCompany, Kind: model.ChangeKindPosts, PostId: "p"}
	require.NoError(t, s.bus.Publish(ctx, change))

	snap = nextPostsSnapshot(t, snapshots)
	require.Error(t, snap.Err)

	// Heal the store and the same subscription recovers on the next change.
	require.NoError(t, db.Migrator().CreateTable(&model.Post{}))
	require.NoError(t, s.bus.Publish(ctx, change))

	snap = nextPostsSnapshot(t, snapshots)
	require.NoError(t, snap.Err)
	require.Empty(t, snap.Posts)
}
