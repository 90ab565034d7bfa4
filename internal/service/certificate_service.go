package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"school_quiz_backend/internal/config"
	"school_quiz_backend/internal/model"
	"school_quiz_backend/internal/util"
	"school_quiz_backend/pkg/logger"
	"school_quiz_backend/pkg/monitoring"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CertificateStore 由 repository.CertificateRepository 实现
type CertificateStore interface {
	FindByAttempt(ctx context.Context, attemptID uint) (*model.Certificate, error)
	CreateIfAbsent(ctx context.Context, cert *model.Certificate) (*model.Certificate, error)
}

// ObjectStorage StorageService 的子集
type ObjectStorage interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

type CertificateService struct {
	Attempts AttemptStore
	Certs    CertificateStore
	Storage  ObjectStorage
	Cfg      config.CertificateConfig
	NewID    func() string
}

func NewCertificateService(attempts AttemptStore, certs CertificateStore, storage ObjectStorage, cfg *config.Config) *CertificateService {
	return &CertificateService{
		Attempts: attempts,
		Certs:    certs,
		Storage:  storage,
		Cfg:      cfg.Certificate,
		NewID:    uuid.NewString,
	}
}

func certificateKey(attemptID uint, certID string) string {
	return fmt.Sprintf("certificates/attempt_%d/certificate_%s.pdf", attemptID, certID)
}

// Get 每个通过的答题记录只生成一次证书，之后直接返回已存储的文件
func (s *CertificateService) Get(ctx context.Context, actor Actor, attemptID uint) (*model.Certificate, io.ReadCloser, error) {
	attempt, err := s.Attempts.FindByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, util.ErrAttemptNotFound
		}
		return nil, nil, fmt.Errorf("load attempt %d: %w", attemptID, err)
	}
	if err := Authorize(actor, attempt, ActionCertificate); err != nil {
		return nil, nil, err
	}
	if !attempt.IsFinished() || !attempt.Passed {
		return nil, nil, util.ErrCertificateUnavailable
	}

	cert, err := s.Certs.FindByAttempt(ctx, attempt.ID)
	switch {
	case err == nil:
		return s.open(ctx, cert)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil, fmt.Errorf("load certificate of attempt %d: %w", attempt.ID, err)
	}

	cert, err = s.issue(ctx, attempt)
	if err != nil {
		return nil, nil, err
	}
	return s.open(ctx, cert)
}

func (s *CertificateService) issue(ctx context.Context, attempt *model.Attempt) (*model.Certificate, error) {
	certID := s.NewID()
	data, err := RenderCertificate(certificateDataFor(attempt, certID, s.Cfg.Issuer), s.Cfg)
	if err != nil {
		return nil, err
	}

	key := certificateKey(attempt.ID, certID)
	url, err := s.Storage.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), util.MimePDF)
	if err != nil {
		return nil, fmt.Errorf("store certificate: %w", err)
	}

	saved, err := s.Certs.CreateIfAbsent(ctx, &model.Certificate{
		AttemptID:     attempt.ID,
		CertificateID: certID,
		ObjectKey:     key,
		URL:           url,
	})
	if err != nil {
		return nil, fmt.Errorf("save certificate: %w", err)
	}

	if saved.CertificateID != certID {
		// 并发请求已先写入
		if err := s.Storage.Delete(ctx, key); err != nil {
			logger.Log.Warn("Failed to remove duplicate certificate", zap.String("key", key), zap.Error(err))
		}
		return saved, nil
	}

	monitoring.CertificatesIssued.Inc()
	logger.Log.Info("Certificate issued",
		zap.Uint("attemptID", attempt.ID),
		zap.String("certificateID", certID),
	)
	return saved, nil
}

func (s *CertificateService) open(ctx context.Context, cert *model.Certificate) (*model.Certificate, io.ReadCloser, error) {
	rc, err := s.Storage.Open(ctx, cert.ObjectKey)
	if err != nil {
		return nil, nil, fmt.Errorf("open certificate %s: %w", cert.CertificateID, err)
	}
	return cert, rc, nil
}
