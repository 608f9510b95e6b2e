package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"template-storefront/internal/apperr"
	"template-storefront/internal/model"
	"template-storefront/internal/repository"
)

const DefaultCredentialTTL = 7 * 24 * time.Hour

type Credential struct {
	Token  string
	Expiry time.Time
}

// CredentialIssuer mints and renews download credentials. A credential only
// ever exists on a COMPLETED order.
type CredentialIssuer struct {
	orderRepo repository.OrderRepository
	ttl       time.Duration
	now       func() time.Time
}

func NewCredentialIssuer(orderRepo repository.OrderRepository, ttl time.Duration, now func() time.Time) *CredentialIssuer {
	if ttl <= 0 {
		ttl = DefaultCredentialTTL
	}
	if now == nil {
		now = time.Now
	}
	return &CredentialIssuer{
		orderRepo: orderRepo,
		ttl:       ttl,
		now:       now,
	}
}

func (i *CredentialIssuer) Now() time.Time {
	return i.now().UTC()
}

// Mint returns a fresh 64-char hex token valid for the issuer's TTL from now.
func (i *CredentialIssuer) Mint(now time.Time) (Credential, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return Credential{}, fmt.Errorf("read random: %w", err)
	}
	return Credential{
		Token:  hex.EncodeToString(b),
		Expiry: now.UTC().Add(i.ttl),
	}, nil
}

// IssueOrRenew returns order with a credential valid at the current time. A
// valid credential is left unchanged. When two callers race to renew, the
// loser returns whatever the winner stored.
func (i *CredentialIssuer) IssueOrRenew(ctx context.Context, order *model.Order) (*model.Order, error) {
	if order.Status != model.OrderCompleted {
		return nil, fmt.Errorf("issue credential for %s order %s: %w", order.Status, order.ID, apperr.ErrInvalidTransition)
	}

	now := i.Now()
	if order.CredentialValid(now) {
		return order, nil
	}

	cred, err := i.Mint(now)
	if err != nil {
		return nil, err
	}

	if _, err := i.orderRepo.RenewCredentialIfExpired(ctx, order.ID, cred.Token, cred.Expiry, now); err != nil {
		return nil, fmt.Errorf("renew credential: %w", err)
	}

	// reload whether or not this call won so the caller sees the stored row
	fresh, err := i.orderRepo.FindByID(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	if !fresh.CredentialValid(now) {
		return nil, fmt.Errorf("order %s has no valid credential after renewal: %w", order.ID, apperr.ErrInvalidTransition)
	}
	return fresh, nil
}
