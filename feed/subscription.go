package feed

import (
	"context"

	"github.com/Luismorlan/teamfeed/model"
)

// Live queries: every Subscribe* call returns a channel of full result-set
// snapshots. The first snapshot arrives immediately; afterwards a fresh one
// is delivered whenever a committed mutation may have changed the result
// set. Filter, sort and limit match the corresponding one-shot Get. A
// failed re-query surfaces as a snapshot with Err set and the subscription
// stays alive, the caller may keep listening or cancel and resubscribe.
// Unsubscribing is cancelling ctx, which closes the channel.

// PostsSnapshot is one delivery of a posts live query.
type PostsSnapshot struct {
	Posts []*model.Post
	Err   error
}

// CommentsSnapshot is one delivery of a comments live query.
type CommentsSnapshot struct {
	Comments []*model.Comment
	Err      error
}

// PostLikesSnapshot is one delivery of a post-likes live query.
type PostLikesSnapshot struct {
	Likes []*model.PostLike
	Err   error
}

// CommentLikesSnapshot is one delivery of a comment-likes live query.
type CommentLikesSnapshot struct {
	Likes []*model.CommentLike
	Err   error
}

// SubscribeCompanyPosts streams the company feed. Any post, post-like or
// comment change in the company refreshes the snapshot, since all three
// alter visible post rows (content, LikeCount, CommentCount).
func (s *FeedService) SubscribeCompanyPosts(ctx context.Context, companyId string) (<-chan PostsSnapshot, error) {
	changes, err := s.bus.Subscribe(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan PostsSnapshot, 1)
	affected := func(change *model.FeedChange) bool {
		if change.CompanyId != companyId {
			return false
		}
		return change.Kind == model.ChangeKindPosts ||
			change.Kind == model.ChangeKindPostLikes ||
			change.Kind == model.ChangeKindComments
	}
	snapshot := func() PostsSnapshot {
		posts, err := s.GetCompanyPosts(ctx, companyId)
		return PostsSnapshot{Posts: posts, Err: err}
	}

	go func() {
		defer close(out)
		if !deliverPosts(ctx, out, snapshot()) {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case change, ok := <-changes:
				if !ok {
					return
				}
				if !affected(change) {
					continue
				}
				if !deliverPosts(ctx, out, snapshot()) {
					return
				}
			}
		}
	}()
	return out, nil
}

// SubscribeComments streams one post's visible comments. Comment and
// comment-like changes under the post refresh the snapshot.
func (s *FeedService) SubscribeComments(ctx context.Context, postId, companyId string) (<-chan CommentsSnapshot, error) {
	changes, err := s.bus.Subscribe(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan CommentsSnapshot, 1)
	affected := func(change *model.FeedChange) bool {
		if change.CompanyId != companyId || change.PostId != postId {
			return false
		}
		return change.Kind == model.ChangeKindComments ||
			change.Kind == model.ChangeKindCommentLikes
	}
	snapshot := func() CommentsSnapshot {
		comments, err := s.GetComments(ctx, postId, companyId)
		return CommentsSnapshot{Comments: comments, Err: err}
	}

	go func() {
		defer close(out)
		if !deliverComments(ctx, out, snapshot()) {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case change, ok := <-changes:
				if !ok {
					return
				}
				if !affected(change) {
					continue
				}
				if !deliverComments(ctx, out, snapshot()) {
					return
				}
			}
		}
	}()
	return out, nil
}

// SubscribePostLikes streams who likes one post.
func (s *FeedService) SubscribePostLikes(ctx context.Context, postId, companyId string) (<-chan PostLikesSnapshot, error) {
	changes, err := s.bus.Subscribe(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan PostLikesSnapshot, 1)
	snapshot := func() PostLikesSnapshot {
		likes, err := s.GetPostLikes(ctx, postId, companyId)
		return PostLikesSnapshot{Likes: likes, Err: err}
	}

	go func() {
		defer close(out)
		if !deliverPostLikes(ctx, out, snapshot()) {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case change, ok := <-changes:
				if !ok {
					return
				}
				if change.CompanyId != companyId || change.PostId != postId ||
					change.Kind != model.ChangeKindPostLikes {
					continue
				}
				if !deliverPostLikes(ctx, out, snapshot()) {
					return
				}
			}
		}
	}()
	return out, nil
}

// SubscribeCommentLikes streams who likes one comment.
func (s *FeedService) SubscribeCommentLikes(ctx context.Context, commentId, companyId string) (<-chan CommentLikesSnapshot, error) {
	changes, err := s.bus.Subscribe(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan CommentLikesSnapshot, 1)
	snapshot := func() CommentLikesSnapshot {
		likes, err := s.GetCommentLikes(ctx, commentId, companyId)
		return CommentLikesSnapshot{Likes: likes, Err: err}
	}

	go func() {
		defer close(out)
		if !deliverCommentLikes(ctx, out, snapshot()) {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case change, ok := <-changes:
				if !ok {
					return
				}
				if change.CompanyId != companyId || change.CommentId != commentId ||
					change.Kind != model.ChangeKindCommentLikes {
					continue
				}
				if !deliverCommentLikes(ctx, out, snapshot()) {
					return
				}
			}
		}
	}()
	return out, nil
}

func deliverPosts(ctx context.Context, out chan<- PostsSnapshot, snap PostsSnapshot) bool {
	select {
	case out <- snap:
		return true
	case <-ctx.Done():
		return false
	}
}

func deliverComments(ctx context.Context, out chan<- CommentsSnapshot, snap CommentsSnapshot) bool {
	select {
	case out <- snap:
		return true
	case <-ctx.Done():
		return false
	}
}

func deliverPostLikes(ctx context.Context, out chan<- PostLikesSnapshot, snap PostLikesSnapshot) bool {
	select {
	case out <- snap:
		return true
	case <-ctx.Done():
		return false
	}
}

func deliverCommentLikes(ctx context.Context, out chan<- CommentLikesSnapshot, snap CommentLikesSnapshot) bool {
	select {
	case out <- snap:
		return true
	case <-ctx.Done():
		return false
	}
}
