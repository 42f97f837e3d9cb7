package repository

import (
	"context"
	"fmt"

	"example.com/backstage/services/commerce/internal/models"

	"gorm.io/gorm"
)

func (r *repo) CreateReferral(ctx context.Context, referral *models.Referral) error {
	db, err := r.conn(ctx)
	if err != nil {
		return err
	}
	return translate(db.Create(referral).Error, "create referral")
}

func (r *repo) FindReferralByCode(ctx context.Context, code string) (*models.Referral, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	var referral models.Referral
	if err := db.Where("short_code = ?", code).Take(&referral).Error; err != nil {
		return nil, translate(err, "referral "+code)
	}
	return &referral, nil
}

// IncrementReferralClicks bumps the click counter in a single statement.
func (r *repo) IncrementReferralClicks(ctx context.Context, code string) error {
	db, err := r.conn(ctx)
	if err != nil {
		return err
	}
	res := db.Model(&models.Referral{}).
		Where("short_code = ?", code).
		UpdateColumn("clicks", gorm.Expr("clicks + ?", 1))
	if res.Error != nil {
		return translate(res.Error, "increment referral clicks")
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("referral %s: %w", code, ErrNotFound)
	}
	return nil
}
