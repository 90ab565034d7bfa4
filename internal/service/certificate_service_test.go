package service

import (
	"bytes"
	"context"
	"io"
	"school_quiz_backend/internal/config"
	"school_quiz_backend/internal/model"
	"school_quiz_backend/internal/util"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type mockCertStore struct {
	mock.Mock
}

func (m *mockCertStore) FindByAttempt(ctx context.Context, attemptID uint) (*model.Certificate, error) {
	args := m.Called(ctx, attemptID)
	cert, _ := args.Get(0).(*model.Certificate)
	return cert, args.Error(1)
}

func (m *mockCertStore) CreateIfAbsent(ctx context.Context, cert *model.Certificate) (*model.Certificate, error) {
	args := m.Called(ctx, cert)
	if fn, ok := args.Get(0).(func(*model.Certificate) *model.Certificate); ok {
		return fn(cert), args.Error(1)
	}
	saved, _ := args.Get(0).(*model.Certificate)
	return saved, args.Error(1)
}

const fixedCertID = "5b0f7d4e-8c1a-4f55-9a57-0d2c1b7e9f10"

type certFixture struct {
	svc     *CertificateService
	certs   *mockCertStore
	storage *LocalStorageProvider
	store   *fakeStore
}

func newCertFixture(t *testing.T, passed bool) *certFixture {
	t.Helper()
	bank := sampleBank()
	store := newFakeStore(bank)
	finished := time.Date(2024, 4, 12, 14, 30, 0, 0, time.UTC)
	percent := 75.0
	store.attempts[1] = &model.Attempt{
		BaseModel:    model.BaseModel{ID: 1},
		FullName:     "Сидорова Анна",
		School:       "Гимназия №3",
		Group:        "10А",
		Subject:      "Алгебра",
		TestID:       1,
		Status:       model.AttemptFinished,
		StartedAt:    finished.Add(-20 * time.Minute),
		FinishedAt:   &finished,
		ScorePercent: &percent,
		Passed:       passed,
	}

	certs := &mockCertStore{}
	storage := &LocalStorageProvider{Config: &config.StorageConfig{LocalPath: t.TempDir()}}
	svc := NewCertificateService(store, certs, storage, &config.Config{Certificate: config.CertificateConfig{Issuer: "Школа"}})
	svc.NewID = func() string { return fixedCertID }
	return &certFixture{svc: svc, certs: certs, storage: storage, store: store}
}

func readAll(t *testing.T, rc io.ReadCloser) []byte {
	t.Helper()
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return data
}

func TestCertificateUnavailableWhenNotPassed(t *testing.T) {
	f := newCertFixture(t, false)
	_, _, err := f.svc.Get(context.Background(), Actor{Role: model.Respondent, AttemptID: 1}, 1)
	assert.ErrorIs(t, err, util.ErrCertificateUnavailable)

	_, _, err = f.svc.Get(context.Background(), Actor{Role: model.Respondent, AttemptID: 2}, 1)
	assert.ErrorIs(t, err, util.ErrPermissionDenied)

	f.certs.AssertNotCalled(t, "FindByAttempt", mock.Anything, mock.Anything)
}

func TestCertificateUnavailableWhenInProgress(t *testing.T) {
	f := newCertFixture(t, true)
	f.store.attempts[1].FinishedAt = nil
	f.store.attempts[1].ScorePercent = nil
	f.store.attempts[1].Status = model.AttemptInProgress

	_, _, err := f.svc.Get(context.Background(), Actor{Role: model.Respondent, AttemptID: 1}, 1)
	assert.ErrorIs(t, err, util.ErrCertificateUnavailable)
}

func TestCertificateGeneratedOnce(t *testing.T) {
	f := newCertFixture(t, true)
	ctx := context.Background()
	actor := Actor{Role: model.Respondent, AttemptID: 1}

	f.certs.On("FindByAttempt", mock.Anything, uint(1)).Return(nil, gorm.ErrRecordNotFound).Once()
	f.certs.On("CreateIfAbsent", mock.Anything, mock.AnythingOfType("*model.Certificate")).
		Return(func(c *model.Certificate) *model.Certificate { return c }, nil).Once()

	cert, rc, err := f.svc.Get(ctx, actor, 1)
	require.NoError(t, err)
	first := readAll(t, rc)
	assert.True(t, bytes.HasPrefix(first, []byte("%PDF")))
	assert.Equal(t, fixedCertID, cert.CertificateID)
	assert.Equal(t, "certificates/attempt_1/certificate_"+fixedCertID+".pdf", cert.ObjectKey)

	f.certs.On("FindByAttempt", mock.Anything, uint(1)).Return(cert, nil).Once()
	teacher := Actor{UserID: 2, Role: model.Teacher}
	again, rc, err := f.svc.Get(ctx, teacher, 1)
	require.NoError(t, err)
	assert.Equal(t, first, readAll(t, rc))
	assert.Equal(t, cert.CertificateID, again.CertificateID)

	f.certs.AssertExpectations(t)
	f.certs.AssertNumberOfCalls(t, "CreateIfAbsent", 1)
}

func TestCertificateLosingRaceKeepsWinner(t *testing.T) {
	f := newCertFixture(t, true)
	ctx := context.Background()

	winnerKey := certificateKey(1, "winner")
	_, err := f.storage.Upload(ctx, winnerKey, strings.NewReader("%PDF-winner"), 11, util.MimePDF)
	require.NoError(t, err)
	winner := &model.Certificate{AttemptID: 1, CertificateID: "winner", ObjectKey: winnerKey}

	f.certs.On("FindByAttempt", mock.Anything, uint(1)).Return(nil, gorm.ErrRecordNotFound).Once()
	f.certs.On("CreateIfAbsent", mock.Anything, mock.Anything).Return(winner, nil).Once()

	cert, rc, err := f.svc.Get(ctx, Actor{Role: model.Respondent, AttemptID: 1}, 1)
	require.NoError(t, err)
	assert.Equal(t, "winner", cert.CertificateID)
	assert.Equal(t, "%PDF-winner", string(readAll(t, rc)))

	_, err = f.storage.Open(ctx, certificateKey(1, fixedCertID))
	assert.Error(t, err)
}

func TestRenderCertificateDeterministic(t *testing.T) {
	d := CertificateData{
		CertificateID: fixedCertID,
		FullName:      "Сидорова Анна",
		School:        "Гимназия №3",
		Group:         "10А",
		TestTitle:     "Алгебра",
		ScorePercent:  75,
		FinishedAt:    time.Date(2024, 4, 12, 14, 30, 0, 0, time.UTC),
		Issuer:        "Школа",
	}
	a, err := RenderCertificate(d, config.CertificateConfig{})
	require.NoError(t, err)
	b, err := RenderCertificate(d, config.CertificateConfig{})
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.True(t, bytes.HasPrefix(a, []byte("%PDF")))
}

func TestTransliterate(t *testing.T) {
	assert.Equal(t, "Sidorova Anna", transliterate("Сидорова Анна"))
	assert.Equal(t, "Gimnaziia No3, 10A", transliterate("Гимназия №3, 10А"))
	assert.Equal(t, "Shchukin Zhenia", transliterate("Щукин Женя"))
}
