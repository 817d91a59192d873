// SPDX-License-Identifier: ice License 1.0

// Package memory is an in-process identity.Store, used by tests and single-node development setups.
package memory

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/aarontxz/promptly/identity"
	"github.com/aarontxz/promptly/time"
)

type (
	Store struct {
		byID  map[int64]*identity.Identity
		mu    sync.RWMutex
		seqID int64
	}
)

var _ identity.Store = (*Store)(nil)

func New() *Store {
	return &Store{byID: make(map[int64]*identity.Identity)}
}

// Put stores usr as is, assigning an id when it has none. It returns the stored copy.
func (s *Store) Put(usr *identity.Identity) *identity.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := usr.Clone()
	if cp.ID == 0 {
		s.seqID++
		cp.ID = s.seqID
	} else if cp.ID > s.seqID {
		s.seqID = cp.ID
	}
	s.byID[cp.ID] = cp

	return cp.Clone()
}

func (s *Store) FindByID(ctx context.Context, id int64) (*identity.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "context failed")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if usr, found := s.byID[id]; found {
		return usr.Clone(), nil
	}

	return nil, errors.Wrapf(identity.ErrNotFound, "no identity with id %v", id)
}

func (s *Store) FindByProviderID(ctx context.Context, providerID string) (*identity.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "context failed")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if usr := s.findByProviderID(providerID); usr != nil {
		return usr.Clone(), nil
	}

	return nil, errors.Wrap(identity.ErrNotFound, "no identity for provider id")
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*identity.Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "context failed")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if usr := s.findByEmail(email); usr != nil {
		return usr.Clone(), nil
	}

	return nil, errors.Wrap(identity.ErrNotFound, "no identity for email")
}

func (s *Store) Upsert(ctx context.Context, profile *identity.Profile, mode identity.UpsertMode) (*identity.Identity, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "context failed")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	usr := s.findByProviderID(profile.ProviderID)
	if usr == nil {
		usr = s.findByEmail(profile.Email)
	}
	now := time.Now()
	if usr != nil && !usr.IsActive {
		return usr.Clone(), nil
	}
	if usr != nil {
		updated := usr.Clone()
		profile.ApplyTo(updated, now)
		s.byID[updated.ID] = updated

		return updated.Clone(), nil
	}
	if mode != identity.CreateOrUpdate {
		return nil, errors.Wrapf(identity.ErrNotFound, "no identity matched and mode is %v", mode)
	}
	created, err := profile.NewIdentity(now)
	if err != nil {
		return nil, err
	}
	s.seqID++
	created.ID = s.seqID
	s.byID[created.ID] = created

	return created.Clone(), nil
}

func (s *Store) findByProviderID(providerID string) *identity.Identity {
	if providerID == "" {
		return nil
	}
	for _, usr := range s.byID {
		if usr.ProviderID != nil && *usr.ProviderID == providerID {
			return usr
		}
	}

	return nil
}

func (s *Store) findByEmail(email string) *identity.Identity {
	if email == "" {
		return nil
	}
	for _, usr := range s.byID {
		if usr.Email == email {
			return usr
		}
	}

	return nil
}
