// SPDX-License-Identifier: ice License 1.0

package identity

import (
	"github.com/pkg/errors"

	"github.com/aarontxz/promptly/time"
)

func (m UpsertMode) String() string {
	if m == CreateOrUpdate {
		return "create_or_update"
	}

	return "update_only"
}

func (p *Profile) Validate() error {
	if p == nil || (p.ProviderID == "" && p.Email == "") {
		return errors.Wrap(ErrInvalidProfile, "either provider id or email is required")
	}

	return nil
}

// DisplayName is the name to store for a newly provisioned identity.
func (p *Profile) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}

	return p.Email
}

// ApplyTo refreshes the mutable fields of an existing identity. Empty values keep what is stored.
func (p *Profile) ApplyTo(usr *Identity, now *time.Time) {
	if p.Name != "" {
		usr.Name = p.Name
	}
	if p.Picture != nil {
		picture := *p.Picture
		usr.Picture = &picture
	}
	if p.ProviderID != "" {
		providerID := p.ProviderID
		usr.ProviderID = &providerID
	}
	usr.UpdatedAt = now
}

// NewIdentity builds the record provisioned for a profile that matched nothing.
func (p *Profile) NewIdentity(now *time.Time) (*Identity, error) {
	if p.Email == "" {
		return nil, errors.Wrap(ErrInvalidProfile, "email is required to provision an identity")
	}
	usr := &Identity{
		Email:     p.Email,
		Name:      p.DisplayName(),
		IsActive:  true,
		CreatedAt: now,
	}
	p.ApplyTo(usr, now)

	return usr, nil
}

func (i *Identity) Clone() *Identity {
	if i == nil {
		return nil
	}
	cp := *i
	if i.ProviderID != nil {
		providerID := *i.ProviderID
		cp.ProviderID = &providerID
	}
	if i.Picture != nil {
		picture := *i.Picture
		cp.Picture = &picture
	}

	return &cp
}
