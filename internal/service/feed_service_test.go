package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UMC-MyFit/my-fit-back-sub000/internal/model"
)

func TestFeed_CreateGetDelete(t *testing.T) {
	e := newEnv(t)
	ids := e.seed(t, 2)
	ctx := context.Background()

	_, err := e.feed.CreateFeed(ctx, ids[0], "  ")
	assert.ErrorIs(t, err, ErrEmptyContent)

	f, err := e.feed.CreateFeed(ctx, ids[0], "첫 피드")
	require.NoError(t, err)

	got, err := e.feed.GetFeed(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, "첫 피드", got.Content)
	assert.Zero(t, got.LikeCount)

	assert.ErrorIs(t, e.feed.DeleteFeed(ctx, f.ID, ids[1]), ErrFeedForbidden)
	require.NoError(t, e.feed.DeleteFeed(ctx, f.ID, ids[0]))
	_, err = e.feed.GetFeed(ctx, f.ID)
	assert.ErrorIs(t, err, ErrFeedNotFound)
}

func TestFeed_ListNewestFirst(t *testing.T) {
	e := newEnv(t)
	ids := e.seed(t, 1)
	ctx := context.Background()
	var last *model.Feed
	for i := 0; i < 3; i++ {
		f, err := e.feed.CreateFeed(ctx, ids[0], "feed")
		require.NoError(t, err)
		last = f
	}

	p, err := e.feed.ListFeeds(ctx, page(2))
	require.NoError(t, err)
	require.Len(t, p.Feeds, 2)
	assert.Equal(t, last.ID, p.Feeds[0].ID)
	require.NotNil(t, p.NextCursor)

	p, err = e.feed.ListFeeds(ctx, Page{Cursor: p.NextCursor, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, p.Feeds, 1)
	assert.Nil(t, p.NextCursor)
}

func TestFeed_CommentNotifiesOwnerOnly(t *testing.T) {
	e := newEnv(t)
	ids := e.seed(t, 2)
	owner, other := ids[0], ids[1]
	ctx := context.Background()
	f, err := e.feed.CreateFeed(ctx, owner, "hello")
	require.NoError(t, err)

	_, err = e.feed.AddComment(ctx, 9999, other, "hi")
	assert.ErrorIs(t, err, ErrFeedNotFound)

	_, err = e.feed.AddComment(ctx, f.ID, owner, "self comment")
	require.NoError(t, err)
	c, err := e.feed.AddComment(ctx, f.ID, other, "nice")
	require.NoError(t, err)

	unread, err := e.notif.UnreadCount(ctx, owner)
	require.NoError(t, err)
	assert.EqualValues(t, 1, unread)

	list, err := e.notif.List(ctx, owner, page(10))
	require.NoError(t, err)
	require.Len(t, list.Notifications, 1)
	n := list.Notifications[0]
	assert.Equal(t, model.NotificationComment, n.Type)
	assert.Equal(t, other, n.SenderID)
	assert.Contains(t, n.Message, "user1")

	comments, err := e.feed.ListComments(ctx, f.ID, page(10))
	require.NoError(t, err)
	assert.Len(t, comments.Comments, 2)

	assert.ErrorIs(t, e.feed.DeleteComment(ctx, c.ID, owner), ErrFeedForbidden)
	require.NoError(t, e.feed.DeleteComment(ctx, c.ID, other))
	assert.ErrorIs(t, e.feed.DeleteComment(ctx, c.ID, other), ErrCommentNotFound)
}

func TestFeed_ToggleLike(t *testing.T) {
	e := newEnv(t)
	ids := e.seed(t, 2)
	ctx := context.Background()
	f, err := e.feed.CreateFeed(ctx, ids[0], "hello")
	require.NoError(t, err)

	liked, err := e.feed.ToggleLike(ctx, f.ID, ids[1])
	require.NoError(t, err)
	assert.True(t, liked)
	got, err := e.feed.GetFeed(ctx, f.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.LikeCount)

	liked, err = e.feed.ToggleLike(ctx, f.ID, ids[1])
	require.NoError(t, err)
	assert.False(t, liked)

	// the owner liking their own feed is not notified
	_, err = e.feed.ToggleLike(ctx, f.ID, ids[0])
	require.NoError(t, err)

	unread, err := e.notif.UnreadCount(ctx, ids[0])
	require.NoError(t, err)
	assert.EqualValues(t, 1, unread)
}

func TestNotification_MarkReadOwnerOnly(t *testing.T) {
	e := newEnv(t)
	ids := e.seed(t, 2)
	ctx := context.Background()
	f, err := e.feed.CreateFeed(ctx, ids[0], "hello")
	require.NoError(t, err)
	_, err = e.feed.ToggleLike(ctx, f.ID, ids[1])
	require.NoError(t, err)

	list, err := e.notif.List(ctx, ids[0], page(10))
	require.NoError(t, err)
	require.Len(t, list.Notifications, 1)
	id := list.Notifications[0].ID

	assert.ErrorIs(t, e.notif.MarkRead(ctx, id, ids[1]), ErrNotificationForbidden)
	assert.ErrorIs(t, e.notif.MarkRead(ctx, 9999, ids[0]), ErrNotificationNotFound)
	require.NoError(t, e.notif.MarkRead(ctx, id, ids[0]))
	require.NoError(t, e.notif.MarkRead(ctx, id, ids[0]))

	unread, err := e.notif.UnreadCount(ctx, ids[0])
	require.NoError(t, err)
	assert.Zero(t, unread)
}
