package service

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/UMC-MyFit/my-fit-back-sub000/internal/model"
	"github.com/UMC-MyFit/my-fit-back-sub000/internal/repository"
	"github.com/UMC-MyFit/my-fit-back-sub000/pkg/apperr"
)

var (
	ErrFeedNotFound    = apperr.NotFound(apperr.CodeFeedNotFound, "feed not found")
	ErrCommentNotFound = apperr.NotFound(apperr.CodeCommentNotFound, "comment not found")
	ErrFeedForbidden   = apperr.Forbidden(apperr.CodeFeedForbidden, "only the author may do this")
	ErrEmptyContent    = apperr.InvalidOperation(apperr.CodeEmptyContent, "content must not be empty")
)

type FeedDetail struct {
	*model.Feed
	LikeCount    int64 `json:"like_count"`
	CommentCount int64 `json:"comment_count"`
}

type FeedPage struct {
	Feeds      []*model.Feed `json:"feeds"`
	NextCursor *int64        `json:"next_cursor"`
}

type CommentPage struct {
	Comments   []*model.FeedComment `json:"comments"`
	NextCursor *int64               `json:"next_cursor"`
}

type FeedService interface {
	CreateFeed(ctx context.Context, owner model.ServiceID, content string) (*model.Feed, error)
	GetFeed(ctx context.Context, id int64) (*FeedDetail, error)
	ListFeeds(ctx context.Context, page Page) (*FeedPage, error)
	DeleteFeed(ctx context.Context, id int64, acting model.ServiceID) error
	AddComment(ctx context.Context, feedID int64, author model.ServiceID, content string) (*model.FeedComment, error)
	ListComments(ctx context.Context, feedID int64, page Page) (*CommentPage, error)
	DeleteComment(ctx context.Context, commentID int64, acting model.ServiceID) error
	// ToggleLike flips the caller's like and reports whether it is now liked.
	ToggleLike(ctx context.Context, feedID int64, svc model.ServiceID) (bool, error)
}

type feedService struct {
	db            *gorm.DB
	feeds         repository.FeedRepository
	notifications repository.NotificationRepository
	services      repository.ServiceRepository
}

func NewFeedService(
	db *gorm.DB,
	feeds repository.FeedRepository,
	notifications repository.NotificationRepository,
	services repository.ServiceRepository,
) FeedService {
	return &feedService{db: db, feeds: feeds, notifications: notifications, services: services}
}

func (s *feedService) CreateFeed(ctx context.Context, owner model.ServiceID, content string) (*model.Feed, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	f := &model.Feed{ServiceID: owner, Content: content}
	if err := s.feeds.Create(ctx, f); err != nil {
		return nil, internalErr(err)
	}
	return f, nil
}

func (s *feedService) GetFeed(ctx context.Context, id int64) (*FeedDetail, error) {
	f, err := s.findFeed(ctx, s.feeds, id)
	if err != nil {
		return nil, err
	}
	likes, err := s.feeds.CountLikes(ctx, id)
	if err != nil {
		return nil, internalErr(err)
	}
	comments, err := s.feeds.CountComments(ctx, id)
	if err != nil {
		return nil, internalErr(err)
	}
	return &FeedDetail{Feed: f, LikeCount: likes, CommentCount: comments}, nil
}

func (s *feedService) ListFeeds(ctx context.Context, page Page) (*FeedPage, error) {
	if err := page.validate(); err != nil {
		return nil, err
	}
	rows, err := s.feeds.List(ctx, page.Cursor, page.Limit)
	if err != nil {
		return nil, internalErr(err)
	}
	out := &FeedPage{Feeds: rows}
	if rows == nil {
		out.Feeds = []*model.Feed{}
	} else {
		out.NextCursor = nextCursor(rows[len(rows)-1].ID, len(rows), page.Limit)
	}
	return out, nil
}

func (s *feedService) DeleteFeed(ctx context.Context, id int64, acting model.ServiceID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		feeds := s.feeds.WithTx(tx)
		f, err := s.findFeed(ctx, feeds, id)
		if err != nil {
			return err
		}
		if f.ServiceID != acting {
			return ErrFeedForbidden
		}
		return feeds.Delete(ctx, id)
	})
	return internalErr(err)
}

// AddComment stores the comment and, for someone else's feed, the owner's
// COMMENT notification in one transaction.
func (s *feedService) AddComment(ctx context.Context, feedID int64, author model.ServiceID, content string) (*model.FeedComment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	c := &model.FeedComment{FeedID: feedID, ServiceID: author, Content: content}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		feeds := s.feeds.WithTx(tx)
		f, err := s.findFeed(ctx, feeds, feedID)
		if err != nil {
			return err
		}
		if err := feeds.CreateComment(ctx, c); err != nil {
			return err
		}
		if f.ServiceID == author {
			return nil
		}
		return s.notify(ctx, tx, f, author, model.NotificationComment, "%s님이 회원님의 피드에 댓글을 남겼습니다.")
	})
	if err != nil {
		return nil, internalErr(err)
	}
	return c, nil
}

func (s *feedService) ListComments(ctx context.Context, feedID int64, page Page) (*CommentPage, error) {
	if err := page.validate(); err != nil {
		return nil, err
	}
	if _, err := s.findFeed(ctx, s.feeds, feedID); err != nil {
		return nil, err
	}
	rows, err := s.feeds.ListComments(ctx, feedID, page.Cursor, page.Limit)
	if err != nil {
		return nil, internalErr(err)
	}
	out := &CommentPage{Comments: rows}
	if rows == nil {
		out.Comments = []*model.FeedComment{}
	} else {
		out.NextCursor = nextCursor(rows[len(rows)-1].ID, len(rows), page.Limit)
	}
	return out, nil
}

func (s *feedService) DeleteComment(ctx context.Context, commentID int64, acting model.ServiceID) error {
	c, err := s.feeds.FindComment(ctx, commentID)
	if isNotFound(err) {
		return ErrCommentNotFound
	}
	if err != nil {
		return internalErr(err)
	}
	if c.ServiceID != acting {
		return ErrFeedForbidden
	}
	return internalErr(s.feeds.DeleteComment(ctx, commentID))
}

func (s *feedService) ToggleLike(ctx context.Context, feedID int64, svc model.ServiceID) (bool, error) {
	var liked bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		feeds := s.feeds.WithTx(tx)
		f, err := s.findFeed(ctx, feeds, feedID)
		if err != nil {
			return err
		}
		n, err := feeds.DeleteLike(ctx, feedID, svc)
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		if err := feeds.CreateLike(ctx, feedID, svc); err != nil {
			return err
		}
		liked = true
		if f.ServiceID == svc {
			return nil
		}
		return s.notify(ctx, tx, f, svc, model.NotificationLike, "%s님이 회원님의 피드를 좋아합니다.")
	})
	if err != nil {
		// a concurrent toggle inserted the same like first
		return false, storeError(err, apperr.CodeConflict, "like changed concurrently")
	}
	return liked, nil
}

func (s *feedService) findFeed(ctx context.Context, feeds repository.FeedRepository, id int64) (*model.Feed, error) {
	f, err := feeds.FindByID(ctx, id)
	if isNotFound(err) {
		return nil, ErrFeedNotFound
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (s *feedService) notify(ctx context.Context, tx *gorm.DB, f *model.Feed, sender model.ServiceID, typ model.NotificationType, format string) error {
	name := "누군가"
	if svc, err := s.services.WithTx(tx).FindByID(ctx, sender); err == nil && svc.Name != "" {
		name = svc.Name
	} else if err != nil && !isNotFound(err) {
		return err
	}
	feedID := f.ID
	return s.notifications.WithTx(tx).Create(ctx, &model.Notification{
		ReceiverID: f.ServiceID,
		SenderID:   sender,
		Type:       typ,
		FeedID:     &feedID,
		Message:    fmt.Sprintf(format, name),
	})
}
