package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/jumptrack/internal/common"
	"github.com/dmitrijs2005/jumptrack/internal/dbx"
	"github.com/dmitrijs2005/jumptrack/internal/server/models"
	"github.com/dmitrijs2005/jumptrack/internal/server/repositories/users"
	"github.com/google/uuid"
)

// resolveExternal maps a verified provider identity to a local user,
// in order of preference:
//  1. an account already holding this provider subject,
//  2. an account with the same email, which gets the subject linked,
//  3. a brand new account.
//
// Runs in a transaction; a concurrent first login with the same identity is
// resolved by retrying the lookup after the insert reports a duplicate.
func (s *UserService) resolveExternal(ctx context.Context, ident *models.ExternalIdentity) (*models.User, bool, error) {
	var user *models.User
	var created bool

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		u, err := repo.GetByProviderSub(ctx, ident.Provider, ident.Sub)
		if err == nil {
			user = u
			return nil
		}
		if !errors.Is(err, common.ErrorNotFound) {
			return err
		}

		if ident.Email != "" {
			u, err = repo.GetByEmail(ctx, ident.Email)
			if err == nil {
				user, err = s.linkIdentity(ctx, repo, u, ident)
				return err
			}
			if !errors.Is(err, common.ErrorNotFound) {
				return err
			}
		}

		nickname := normalizeNickname(ident.Name)
		if nickname == "" {
			nickname = "Skier"
		}
		nu := &models.User{
			ID:       uuid.New().String(),
			Email:    ident.Email,
			Nickname: nickname,
		}
		setProviderSub(nu, ident.Provider, ident.Sub)

		u, err = repo.Create(ctx, nu)
		if err == nil {
			user = u
			created = true
			return nil
		}
		if !errors.Is(err, common.ErrorAlreadyExists) {
			return err
		}

		// Lost a race against a concurrent first login; the winner's row is
		// visible now.
		u, err = repo.GetByProviderSub(ctx, ident.Provider, ident.Sub)
		if err == nil {
			user = u
			return nil
		}
		if !errors.Is(err, common.ErrorNotFound) {
			return err
		}
		if ident.Email != "" {
			u, err = repo.GetByEmail(ctx, ident.Email)
			if err == nil {
				user, err = s.linkIdentity(ctx, repo, u, ident)
				return err
			}
		}
		return fmt.Errorf("error resolving identity: %v", err)
	})
	if err != nil {
		return nil, false, err
	}
	return user, created, nil
}

func (s *UserService) linkIdentity(ctx context.Context, repo users.Repository, u *models.User, ident *models.ExternalIdentity) (*models.User, error) {
	if err := repo.LinkProvider(ctx, u.ID, ident.Provider, ident.Sub); err != nil {
		return nil, fmt.Errorf("error linking provider: %v", err)
	}
	setProviderSub(u, ident.Provider, ident.Sub)
	return u, nil
}

func setProviderSub(u *models.User, p models.Provider, sub string) {
	switch p {
	case models.ProviderGoogle:
		u.GoogleSub = sub
	case models.ProviderApple:
		u.AppleSub = sub
	}
}
