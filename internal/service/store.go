package service

import (
	"context"
	"errors"
	"time"

	"ton_shooter/internal/domain"
	"ton_shooter/internal/repository"
)

// Store is the persistence the services need. *repository.Store implements it.
type Store interface {
	repository.Repo
	InTx(ctx context.Context, fn func(repository.Repo) error) error
}

// Clock is overridable in tests.
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }

func loadAccount(ctx context.Context, r repository.Repo, id int64, forUpdate bool) (*domain.Account, error) {
	var acc *domain.Account
	var err error
	if forUpdate {
		acc, err = r.GetAccountForUpdate(ctx, id)
	} else {
		acc, err = r.GetAccount(ctx, id)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrAccountNotFound
	}
	return acc, err
}
