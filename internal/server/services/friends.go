package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/jumptrack/internal/common"
	"github.com/dmitrijs2005/jumptrack/internal/dbx"
	"github.com/dmitrijs2005/jumptrack/internal/server/config"
	"github.com/dmitrijs2005/jumptrack/internal/server/models"
	"github.com/dmitrijs2005/jumptrack/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

const (
	inviteCodeLength = 8
	inviteValidity   = 7 * 24 * time.Hour
)

// Invite is a freshly created friend-invite code with a shareable link.
type Invite struct {
	Code      string
	Link      string
	ExpiresAt time.Time
}

// FriendService manages friendships and single-use invite codes.
type FriendService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	inviteBaseURL string
}

func NewFriendService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *FriendService {
	return &FriendService{
		db:            db,
		repomanager:   m,
		inviteBaseURL: cfg.InviteBaseURL,
	}
}

// List returns the user's accepted friends ordered by nickname.
func (s *FriendService) List(ctx context.Context, userID string) ([]*models.Friend, error) {
	return s.repomanager.Friends(s.db).List(ctx, userID)
}

// CreateInvite mints a single-use invite code valid for a week.
func (s *FriendService) CreateInvite(ctx context.Context, userID string) (*Invite, error) {
	code := common.MakeInviteCode(inviteCodeLength)
	expiresAt := time.Now().Add(inviteValidity)

	if err := s.repomanager.Friends(s.db).CreateInvite(ctx, code, userID, expiresAt); err != nil {
		return nil, fmt.Errorf("error creating invite: %v", err)
	}

	return &Invite{
		Code:      code,
		Link:      s.inviteBaseURL + "/" + code,
		ExpiresAt: expiresAt,
	}, nil
}

// AcceptInvite redeems an invite code, creating the friendship in both
// directions, and returns the inviter as a friend entry.
func (s *FriendService) AcceptInvite(ctx context.Context, userID, code string) (*models.Friend, error) {
	var inviterID string

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Friends(tx)

		invite, err := repo.FindValidInvite(ctx, code)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return fmt.Errorf("%w: invalid or expired invite code", common.ErrorValidation)
			}
			return err
		}
		inviterID = invite.UserID

		if inviterID == userID {
			return fmt.Errorf("%w: cannot use your own invite code", common.ErrorValidation)
		}

		already, err := repo.AreFriends(ctx, inviterID, userID)
		if err != nil {
			return err
		}
		if already {
			return fmt.Errorf("%w: already friends", common.ErrorValidation)
		}

		if err := repo.CreateFriendship(ctx, uuid.New().String(), inviterID, userID); err != nil {
			return err
		}
		if err := repo.CreateFriendship(ctx, uuid.New().String(), userID, inviterID); err != nil {
			return err
		}
		return repo.MarkInviteUsed(ctx, code, userID)
	})
	if err != nil {
		return nil, err
	}

	inviter, err := s.repomanager.Users(s.db).GetByID(ctx, inviterID)
	if err != nil {
		return nil, err
	}

	return &models.Friend{
		UserID:      inviter.ID,
		Nickname:    inviter.Nickname,
		AvatarIndex: inviter.AvatarIndex,
		Status:      "accepted",
		Since:       time.Now(),
	}, nil
}

// Remove deletes a friendship in both directions.
func (s *FriendService) Remove(ctx context.Context, userID, friendID string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Friends(tx)

		if err := repo.Delete(ctx, userID, friendID); err != nil {
			return err
		}
		return repo.Delete(ctx, friendID, userID)
	})
}
