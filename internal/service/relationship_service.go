package service

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/UMC-MyFit/my-fit-back-sub000/internal/model"
	"github.com/UMC-MyFit/my-fit-back-sub000/internal/repository"
	"github.com/UMC-MyFit/my-fit-back-sub000/pkg/apperr"
)

var (
	ErrSelfRelation    = apperr.InvalidOperation(apperr.CodeSelfRelation, "cannot target yourself")
	ErrServiceNotFound = apperr.NotFound(apperr.CodeServiceNotFound, "service not found")
	ErrBlocked         = apperr.Forbidden(apperr.CodeBlocked, "a block exists between the two services")

	ErrInterestExists   = apperr.Conflict(apperr.CodeInterestExists, "interest already exists")
	ErrInterestNotFound = apperr.NotFound(apperr.CodeInterestNotFound, "interest not found")

	ErrNetworkExists    = apperr.Conflict(apperr.CodeNetworkExists, "network already requested or connected")
	ErrNetworkNotFound  = apperr.NotFound(apperr.CodeNetworkNotFound, "network not found")
	ErrNetworkResolved  = apperr.Conflict(apperr.CodeNetworkResolved, "network request is no longer pending")
	ErrNotConnected     = apperr.Conflict(apperr.CodeNotConnected, "network is not connected")
	ErrNotRecipient     = apperr.Forbidden(apperr.CodeNotRecipient, "only the recipient can answer this request")
	ErrNotParticipant   = apperr.Forbidden(apperr.CodeNotParticipant, "not a participant of this network")
	ErrNotSender        = apperr.Forbidden(apperr.CodeNotSender, "only the sender can cancel this request")
	ErrInvalidNetStatus = apperr.InvalidOperation(apperr.CodeInvalidStatus, "status must be ACCEPTED or REJECTED")

	ErrBlockExists   = apperr.Conflict(apperr.CodeBlockExists, "already blocked")
	ErrBlockNotFound = apperr.NotFound(apperr.CodeBlockNotFound, "block not found")
)

// RelationItem is one edge of a relation list seen from the caller.
type RelationItem struct {
	ID        int64               `json:"id"`
	Service   model.Profile       `json:"service"`
	Status    model.NetworkStatus `json:"status,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

type RelationPage struct {
	Items      []RelationItem `json:"items"`
	NextCursor *int64         `json:"next_cursor"`
}

// RelationshipService 관계 엔진: interest / network / block.
// Every mutation of a pair runs in one transaction that first locks both
// service rows, lower id first.
type RelationshipService interface {
	AddInterest(ctx context.Context, sender, recipient model.ServiceID) error
	RemoveInterest(ctx context.Context, sender, recipient model.ServiceID) error
	ToggleInterest(ctx context.Context, sender, recipient model.ServiceID) (bool, error)
	InterestStatus(ctx context.Context, me, target model.ServiceID) (bool, error)
	ListInterests(ctx context.Context, me model.ServiceID, page Page) (*RelationPage, error)
	ListReceivedInterests(ctx context.Context, me model.ServiceID, page Page) (*RelationPage, error)
	CountReceivedInterests(ctx context.Context, me model.ServiceID) (int64, error)

	SendNetworkRequest(ctx context.Context, sender, recipient model.ServiceID) (*model.Network, error)
	UpdateNetworkRequestStatus(ctx context.Context, networkID int64, status model.NetworkStatus, acting model.ServiceID) error
	CancelNetworkRequest(ctx context.Context, networkID int64, acting model.ServiceID) error
	DisconnectNetwork(ctx context.Context, networkID int64, acting model.ServiceID) error
	NetworkStatus(ctx context.Context, me, target model.ServiceID) (model.RelationStatus, error)
	ListNetworks(ctx context.Context, me model.ServiceID, page Page) (*RelationPage, error)
	ListReceivedRequests(ctx context.Context, me model.ServiceID, page Page) (*RelationPage, error)
	ListSentRequests(ctx context.Context, me model.ServiceID, page Page) (*RelationPage, error)
	CountNetworks(ctx context.Context, me model.ServiceID) (int64, error)

	BlockUser(ctx context.Context, blocker, blocked model.ServiceID) error
	UnblockUser(ctx context.Context, blocker, blocked model.ServiceID) error
	ListBlocks(ctx context.Context, me model.ServiceID, page Page) (*RelationPage, error)
}

type relationshipService struct {
	db        *gorm.DB
	services  repository.ServiceRepository
	interests repository.InterestRepository
	networks  repository.NetworkRepository
	blocks    repository.BlockRepository
}

func NewRelationshipService(
	db *gorm.DB,
	services repository.ServiceRepository,
	interests repository.InterestRepository,
	networks repository.NetworkRepository,
	blocks repository.BlockRepository,
) RelationshipService {
	return &relationshipService{db: db, services: services, interests: interests, networks: networks, blocks: blocks}
}

// lockPair locks both services inside tx and fails when either is missing.
func (s *relationshipService) lockPair(ctx context.Context, tx *gorm.DB, a, b model.ServiceID) error {
	n, err := s.services.WithTx(tx).LockPair(ctx, a, b)
	if err != nil {
		return err
	}
	if n < 2 {
		return ErrServiceNotFound
	}
	return nil
}

func (s *relationshipService) ensureNotBlocked(ctx context.Context, tx *gorm.DB, a, b model.ServiceID) error {
	blocked, err := s.blocks.WithTx(tx).ExistsEither(ctx, a, b)
	if err != nil {
		return err
	}
	if blocked {
		return ErrBlocked
	}
	return nil
}

func (s *relationshipService) AddInterest(ctx context.Context, sender, recipient model.ServiceID) error {
	if sender == recipient {
		return ErrSelfRelation
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.lockPair(ctx, tx, sender, recipient); err != nil {
			return err
		}
		if err := s.ensureNotBlocked(ctx, tx, sender, recipient); err != nil {
			return err
		}
		repo := s.interests.WithTx(tx)
		exists, err := repo.Exists(ctx, sender, recipient)
		if err != nil {
			return err
		}
		if exists {
			return ErrInterestExists
		}
		_, err = repo.Create(ctx, sender, recipient)
		return err
	})
	return storeError(err, apperr.CodeInterestExists, ErrInterestExists.Message)
}

func (s *relationshipService) RemoveInterest(ctx context.Context, sender, recipient model.ServiceID) error {
	n, err := s.interests.Delete(ctx, sender, recipient)
	if err != nil {
		return internalErr(err)
	}
	if n == 0 {
		return ErrInterestNotFound
	}
	return nil
}

// ToggleInterest removes the edge when present, otherwise adds it. It reports
// whether the caller is interested afterwards.
func (s *relationshipService) ToggleInterest(ctx context.Context, sender, recipient model.ServiceID) (bool, error) {
	if sender == recipient {
		return false, ErrSelfRelation
	}
	n, err := s.interests.Delete(ctx, sender, recipient)
	if err != nil {
		return false, internalErr(err)
	}
	if n > 0 {
		return false, nil
	}
	if err := s.AddInterest(ctx, sender, recipient); err != nil {
		return false, err
	}
	return true, nil
}

func (s *relationshipService) InterestStatus(ctx context.Context, me, target model.ServiceID) (bool, error) {
	ok, err := s.interests.Exists(ctx, me, target)
	return ok, internalErr(err)
}

func (s *relationshipService) ListInterests(ctx context.Context, me model.ServiceID, page Page) (*RelationPage, error) {
	if err := page.validate(); err != nil {
		return nil, err
	}
	rows, err := s.interests.ListSent(ctx, me, page.Cursor, page.Limit)
	if err != nil {
		return nil, internalErr(err)
	}
	items := make([]RelationItem, len(rows))
	for i, r := range rows {
		items[i] = RelationItem{ID: r.ID, Service: model.Profile{ServiceID: r.RecipientID}, CreatedAt: r.CreatedAt}
	}
	return s.withProfiles(ctx, items, page.Limit)
}

func (s *relationshipService) ListReceivedInterests(ctx context.Context, me model.ServiceID, page Page) (*RelationPage, error) {
	if err := page.validate(); err != nil {
		return nil, err
	}
	rows, err := s.interests.ListReceived(ctx, me, page.Cursor, page.Limit)
	if err != nil {
		return nil, internalErr(err)
	}
	items := make([]RelationItem, len(rows))
	for i, r := range rows {
		items[i] = RelationItem{ID: r.ID, Service: model.Profile{ServiceID: r.SenderID}, CreatedAt: r.CreatedAt}
	}
	return s.withProfiles(ctx, items, page.Limit)
}

func (s *relationshipService) CountReceivedInterests(ctx context.Context, me model.ServiceID) (int64, error) {
	n, err := s.interests.CountReceived(ctx, me)
	return n, internalErr(err)
}

func (s *relationshipService) SendNetworkRequest(ctx context.Context, sender, recipient model.ServiceID) (*model.Network, error) {
	if sender == recipient {
		return nil, ErrSelfRelation
	}
	var created *model.Network
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.lockPair(ctx, tx, sender, recipient); err != nil {
			return err
		}
		if err := s.ensureNotBlocked(ctx, tx, sender, recipient); err != nil {
			return err
		}
		repo := s.networks.WithTx(tx)
		// REJECTED 도 막는다: 한 쌍에는 엣지가 하나뿐
		if _, err := repo.FindBetween(ctx, sender, recipient); err == nil {
			return ErrNetworkExists
		} else if !isNotFound(err) {
			return err
		}
		n, err := repo.Create(ctx, sender, recipient)
		if err != nil {
			return err
		}
		created = n
		return nil
	})
	if err != nil {
		return nil, storeError(err, apperr.CodeNetworkExists, ErrNetworkExists.Message)
	}
	return created, nil
}

func (s *relationshipService) UpdateNetworkRequestStatus(ctx context.Context, networkID int64, status model.NetworkStatus, acting model.ServiceID) error {
	if status != model.NetworkAccepted && status != model.NetworkRejected {
		return ErrInvalidNetStatus
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.networks.WithTx(tx)
		n, err := repo.LockByID(ctx, networkID)
		if isNotFound(err) {
			return ErrNetworkNotFound
		}
		if err != nil {
			return err
		}
		if n.RecipientID != acting {
			return ErrNotRecipient
		}
		if n.Status != model.NetworkPending {
			return ErrNetworkResolved
		}
		rows, err := repo.TransitionFromPending(ctx, networkID, status)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrNetworkResolved
		}
		return nil
	})
	return internalErr(err)
}

func (s *relationshipService) CancelNetworkRequest(ctx context.Context, networkID int64, acting model.ServiceID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.networks.WithTx(tx)
		n, err := repo.LockByID(ctx, networkID)
		if isNotFound(err) {
			return ErrNetworkNotFound
		}
		if err != nil {
			return err
		}
		if n.SenderID != acting {
			return ErrNotSender
		}
		if n.Status != model.NetworkPending {
			return ErrNetworkResolved
		}
		return repo.Delete(ctx, networkID)
	})
	return internalErr(err)
}

func (s *relationshipService) DisconnectNetwork(ctx context.Context, networkID int64, acting model.ServiceID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.networks.WithTx(tx)
		n, err := repo.LockByID(ctx, networkID)
		if isNotFound(err) {
			return ErrNetworkNotFound
		}
		if err != nil {
			return err
		}
		if !n.Involves(acting) {
			return ErrNotParticipant
		}
		if n.Status != model.NetworkAccepted {
			return ErrNotConnected
		}
		return repo.Delete(ctx, networkID)
	})
	return internalErr(err)
}

func (s *relationshipService) NetworkStatus(ctx context.Context, me, target model.ServiceID) (model.RelationStatus, error) {
	if me == target {
		return model.RelationSelf, nil
	}
	n, err := s.networks.FindBetween(ctx, me, target)
	if isNotFound(err) {
		return model.RelationNone, nil
	}
	if err != nil {
		return "", internalErr(err)
	}
	switch n.Status {
	case model.NetworkAccepted:
		return model.RelationConnected, nil
	case model.NetworkPending:
		if n.SenderID == me {
			return model.RelationPendingSent, nil
		}
		return model.RelationPendingReceived, nil
	case model.NetworkRejected:
		return model.RelationRejected, nil
	default:
		return model.RelationUnknown, nil
	}
}

func (s *relationshipService) ListNetworks(ctx context.Context, me model.ServiceID, page Page) (*RelationPage, error) {
	if err := page.validate(); err != nil {
		return nil, err
	}
	rows, err := s.networks.ListAccepted(ctx, me, page.Cursor, page.Limit)
	if err != nil {
		return nil, internalErr(err)
	}
	return s.networkItems(ctx, me, rows, page.Limit)
}

func (s *relationshipService) ListReceivedRequests(ctx context.Context, me model.ServiceID, page Page) (*RelationPage, error) {
	if err := page.validate(); err != nil {
		return nil, err
	}
	rows, err := s.networks.ListPendingReceived(ctx, me, page.Cursor, page.Limit)
	if err != nil {
		return nil, internalErr(err)
	}
	return s.networkItems(ctx, me, rows, page.Limit)
}

func (s *relationshipService) ListSentRequests(ctx context.Context, me model.ServiceID, page Page) (*RelationPage, error) {
	if err := page.validate(); err != nil {
		return nil, err
	}
	rows, err := s.networks.ListPendingSent(ctx, me, page.Cursor, page.Limit)
	if err != nil {
		return nil, internalErr(err)
	}
	return s.networkItems(ctx, me, rows, page.Limit)
}

func (s *relationshipService) networkItems(ctx context.Context, me model.ServiceID, rows []*model.Network, limit int) (*RelationPage, error) {
	items := make([]RelationItem, len(rows))
	for i, n := range rows {
		items[i] = RelationItem{ID: n.ID, Service: model.Profile{ServiceID: n.Other(me)}, Status: n.Status, CreatedAt: n.CreatedAt}
	}
	return s.withProfiles(ctx, items, limit)
}

func (s *relationshipService) CountNetworks(ctx context.Context, me model.ServiceID) (int64, error) {
	n, err := s.networks.CountAccepted(ctx, me)
	return n, internalErr(err)
}

// BlockUser inserts the block, removes interests in both directions and
// forces the pair's network edge to REJECTED, all or nothing.
func (s *relationshipService) BlockUser(ctx context.Context, blocker, blocked model.ServiceID) error {
	if blocker == blocked {
		return ErrSelfRelation
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.lockPair(ctx, tx, blocker, blocked); err != nil {
			return err
		}
		blocks := s.blocks.WithTx(tx)
		exists, err := blocks.Exists(ctx, blocker, blocked)
		if err != nil {
			return err
		}
		if exists {
			return ErrBlockExists
		}
		if _, err := blocks.Create(ctx, blocker, blocked); err != nil {
			return err
		}
		if err := s.interests.WithTx(tx).DeleteBetween(ctx, blocker, blocked); err != nil {
			return err
		}
		return s.networks.WithTx(tx).RejectBetween(ctx, blocker, blocked)
	})
	return storeError(err, apperr.CodeBlockExists, ErrBlockExists.Message)
}

// UnblockUser removes only the block edge; cascaded state is not restored.
func (s *relationshipService) UnblockUser(ctx context.Context, blocker, blocked model.ServiceID) error {
	n, err := s.blocks.Delete(ctx, blocker, blocked)
	if err != nil {
		return internalErr(err)
	}
	if n == 0 {
		return ErrBlockNotFound
	}
	return nil
}

func (s *relationshipService) ListBlocks(ctx context.Context, me model.ServiceID, page Page) (*RelationPage, error) {
	if err := page.validate(); err != nil {
		return nil, err
	}
	rows, err := s.blocks.List(ctx, me, page.Cursor, page.Limit)
	if err != nil {
		return nil, internalErr(err)
	}
	items := make([]RelationItem, len(rows))
	for i, b := range rows {
		items[i] = RelationItem{ID: b.ID, Service: model.Profile{ServiceID: b.BlockedID}, CreatedAt: b.CreatedAt}
	}
	return s.withProfiles(ctx, items, page.Limit)
}

// withProfiles fills each item's profile from the identity store.
func (s *relationshipService) withProfiles(ctx context.Context, items []RelationItem, limit int) (*RelationPage, error) {
	ids := make([]model.ServiceID, len(items))
	for i, it := range items {
		ids[i] = it.Service.ServiceID
	}
	profiles, err := s.services.FindByIDs(ctx, ids)
	if err != nil {
		return nil, internalErr(err)
	}
	now := time.Now()
	for i := range items {
		if svc, ok := profiles[items[i].Service.ServiceID]; ok {
			items[i].Service = svc.Profile(now)
		}
	}
	page := &RelationPage{Items: items}
	if len(items) > 0 {
		page.NextCursor = nextCursor(items[len(items)-1].ID, len(items), limit)
	}
	return page, nil
}
