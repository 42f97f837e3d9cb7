package service

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"net/url"
	"time"

	"example.com/backstage/services/commerce/internal/cache"
	"example.com/backstage/services/commerce/internal/models"
	"example.com/backstage/services/commerce/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	codeAlphabet = "abcdefghijkmnopqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength   = 7
	codeAttempts = 5
)

// ReferralInput creates a tracked short link.
type ReferralInput struct {
	DestinationURL string `json:"destination_url" binding:"required,url"`
	Campaign       string `json:"campaign"`
	CreatedBy      string `json:"created_by"`
}

// CreateReferral stores a referral under a fresh short code and returns it
// with its public short link.
func (s *service) CreateReferral(ctx context.Context, input ReferralInput) (*models.Referral, string, error) {
	dest, err := url.Parse(input.DestinationURL)
	if err != nil || (dest.Scheme != "http" && dest.Scheme != "https") || dest.Host == "" {
		return nil, "", invalidf("destination must be an absolute http(s) url")
	}

	for attempt := 0; attempt < codeAttempts; attempt++ {
		code, err := shortCode()
		if err != nil {
			return nil, "", err
		}
		referral := &models.Referral{
			ID:             uuid.NewString(),
			ShortCode:      code,
			DestinationURL: dest.String(),
			Campaign:       input.Campaign,
			CreatedBy:      input.CreatedBy,
			CreatedAt:      time.Now().UTC(),
		}
		err = s.repo.CreateReferral(ctx, referral)
		if errors.Is(err, repository.ErrDuplicateKey) {
			continue
		}
		if err != nil {
			return nil, "", err
		}

		if err := s.cache.Set(ctx, cache.ReferralKey(code), referral.DestinationURL, s.cacheTTL); err != nil {
			s.log.WithError(err).Warn("Referral cache write failed")
		}
		return referral, s.app.PublicBaseURL + "/r/" + code, nil
	}
	return nil, "", errors.New("could not allocate a unique referral code")
}

// ResolveReferral returns the destination of code and counts the click.
// A failed click count is logged and the redirect still proceeds.
func (s *service) ResolveReferral(ctx context.Context, code string) (string, error) {
	if code == "" || len(code) > 32 {
		return "", repository.ErrNotFound
	}

	var destination string
	err := s.cache.Get(ctx, cache.ReferralKey(code), &destination)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.WithError(err).Warn("Referral cache read failed")
		}
		referral, err := s.repo.FindReferralByCode(ctx, code)
		if err != nil {
			return "", err
		}
		destination = referral.DestinationURL
		if err := s.cache.Set(ctx, cache.ReferralKey(code), destination, s.cacheTTL); err != nil {
			s.log.WithError(err).Warn("Referral cache write failed")
		}
	}

	if err := s.repo.IncrementReferralClicks(ctx, code); err != nil {
		s.log.WithFields(logrus.Fields{"code": code, "error": err.Error()}).Warn("Referral click not counted")
	}
	return destination, nil
}

func shortCode() (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))
	buf := make([]byte, codeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return string(buf), nil
}
