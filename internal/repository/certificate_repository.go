package repository

import (
	"context"
	"school_quiz_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CertificateRepository struct {
	DB *gorm.DB
}

func NewCertificateRepository(db *gorm.DB) *CertificateRepository {
	return &CertificateRepository{DB: db}
}

func (r *CertificateRepository) FindByAttempt(ctx context.Context, attemptID uint) (*model.Certificate, error) {
	var c model.Certificate
	if err := r.DB.WithContext(ctx).Where("attempt_id = ?", attemptID).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateIfAbsent 并发生成时以先写入的记录为准
func (r *CertificateRepository) CreateIfAbsent(ctx context.Context, cert *model.Certificate) (*model.Certificate, error) {
	err := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(cert).Error
	if err != nil {
		return nil, err
	}
	return r.FindByAttempt(ctx, cert.AttemptID)
}
