package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"payadmin/internal/domain"
	"payadmin/internal/port"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type MockWithdrawalRepository struct {
	mock.Mock
}

func (m *MockWithdrawalRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Withdrawal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Withdrawal), args.Error(1)
}

func (m *MockWithdrawalRepository) List(ctx context.Context, status domain.WithdrawalStatus) ([]*domain.Withdrawal, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Withdrawal), args.Error(1)
}

func (m *MockWithdrawalRepository) SetStatusIfPending(ctx context.Context, id uuid.UUID, status domain.WithdrawalStatus, processedAt time.Time, processedBy string) (bool, error) {
	args := m.Called(ctx, id, status, processedAt, processedBy)
	return args.Bool(0), args.Error(1)
}

type MockWalletRepository struct {
	mock.Mock
}

func (m *MockWalletRepository) Credit(ctx context.Context, userID string, amount float64, txType string, referenceID string, metadata map[string]any) error {
	args := m.Called(ctx, userID, amount, txType, referenceID, metadata)
	return args.Error(0)
}

func (m *MockWalletRepository) Balance(ctx context.Context, userID string) (float64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(float64), args.Error(1)
}

type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) Role(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

type MockTxRunner struct {
	mock.Mock
}

func (m *MockTxRunner) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	_ = m.Called(ctx, fn)
	return fn(ctx)
}

type testMocks struct {
	withdrawals   *MockWithdrawalRepository
	wallets       *MockWalletRepository
	notifications *MockNotificationRepository
	profiles      *MockProfileRepository
	tx            *MockTxRunner
}

func newTestService() (port.DecisionService, *testMocks) {
	m := &testMocks{
		withdrawals:   new(MockWithdrawalRepository),
		wallets:       new(MockWalletRepository),
		notifications: new(MockNotificationRepository),
		profiles:      new(MockProfileRepository),
		tx:            new(MockTxRunner),
	}
	svc := NewDecisionService(m.withdrawals, m.wallets, m.notifications, m.profiles, m.tx, time.Second, zap.NewNop().Sugar())
	return svc, m
}

func pendingWithdrawal(userID string, amount float64) *domain.Withdrawal {
	return &domain.Withdrawal{
		ID:        uuid.New(),
		UserID:    userID,
		Amount:    amount,
		Status:    domain.StatusPending,
		CreatedAt: time.Now(),
	}
}

func TestDecide_ApproveSuccess(t *testing.T) {
	svc, m := newTestService()

	w := pendingWithdrawal("u1", 500)

	m.profiles.On("Role", mock.Anything, "a1").Return("admin", nil)
	m.withdrawals.On("GetByID", mock.Anything, w.ID).Return(w, nil)
	m.withdrawals.On("SetStatusIfPending", mock.Anything, w.ID, domain.StatusApproved, mock.AnythingOfType("time.Time"), "a1").Return(true, nil)
	m.notifications.On("Create", mock.Anything, mock.MatchedBy(func(n *domain.Notification) bool {
		return n.UserID == "u1" && n.Title == "Withdrawal Approved" && n.RelatedID == w.ID.String()
	})).Return(nil)

	outcome, err := svc.Decide(context.Background(), w.ID, domain.ActionApprove, "a1")

	assert.NoError(t, err)
	assert.NotNil(t, outcome)
	assert.Equal(t, domain.StatusApproved, outcome.Status)
	assert.Equal(t, "Withdrawal approved and is being processed", outcome.Message)

	m.wallets.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	m.withdrawals.AssertExpectations(t)
	m.notifications.AssertExpectations(t)
	m.profiles.AssertExpectations(t)
}

func TestDecide_RejectSuccess(t *testing.T) {
	svc, m := newTestService()

	w := pendingWithdrawal("u1", 500)

	m.profiles.On("Role", mock.Anything, "a1").Return("admin", nil)
	m.withdrawals.On("GetByID", mock.Anything, w.ID).Return(w, nil)
	m.tx.On("WithinTx", mock.Anything, mock.Anything).Return(nil)
	m.withdrawals.On("SetStatusIfPending", mock.Anything, w.ID, domain.StatusRejected, mock.AnythingOfType("time.Time"), "a1").Return(true, nil)
	m.wallets.On("Credit", mock.Anything, "u1", 500.0, "refund", w.ID.String(), mock.Anything).Return(nil)
	m.notifications.On("Create", mock.Anything, mock.MatchedBy(func(n *domain.Notification) bool {
		return n.UserID == "u1" && n.Title == "Withdrawal Rejected" && n.RelatedID == w.ID.String()
	})).Return(nil)

	outcome, err := svc.Decide(context.Background(), w.ID, domain.ActionReject, "a1")

	assert.NoError(t, err)
	assert.NotNil(t, outcome)
	assert.Equal(t, domain.StatusRejected, outcome.Status)
	assert.Equal(t, "Withdrawal rejected and funds returned to wallet", outcome.Message)

	m.wallets.AssertNumberOfCalls(t, "Credit", 1)
	m.withdrawals.AssertExpectations(t)
	m.wallets.AssertExpectations(t)
	m.notifications.AssertExpectations(t)
}

func TestDecide_AlreadyProcessed(t *testing.T) {
	svc, m := newTestService()

	w := pendingWithdrawal("u1", 500)
	w.Status = domain.StatusApproved

	m.profiles.On("Role", mock.Anything, "a1").Return("admin", nil)
	m.withdrawals.On("GetByID", mock.Anything, w.ID).Return(w, nil)

	outcome, err := svc.Decide(context.Background(), w.ID, domain.ActionApprove, "a1")

	assert.Error(t, err)
	assert.Nil(t, outcome)

	var alreadyProcessed *domain.AlreadyProcessedError
	assert.ErrorAs(t, err, &alreadyProcessed)
	assert.Equal(t, domain.StatusApproved, alreadyProcessed.Status)

	m.withdrawals.AssertNotCalled(t, "SetStatusIfPending", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	m.wallets.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	m.notifications.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestDecide_NotFound(t *testing.T) {
	svc, m := newTestService()

	id := uuid.New()
	m.profiles.On("Role", mock.Anything, "a1").Return("admin", nil)
	m.withdrawals.On("GetByID", mock.Anything, id).Return(nil, domain.ErrWithdrawalNotFound)

	outcome, err := svc.Decide(context.Background(), id, domain.ActionReject, "a1")

	assert.Nil(t, outcome)
	assert.ErrorIs(t, err, domain.ErrWithdrawalNotFound)
	m.wallets.AssertNotCalled(t, "Credit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDecide_NonAdmin(t *testing.T) {
	svc, m := newTestService()

	id := uuid.New()
	m.profiles.On("Role", mock.Anything, "u2").Return("business", nil)

	outcome, err := svc.Decide(context.Background(), id, domain.ActionApprove, "u2")

	assert.Nil(t, outcome)
	assert.ErrorIs(t, err, domain.ErrAdminRequired)
	m.withdrawals.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestDecide_UnknownCaller(t *testing.T) {
	svc, m := newTestService()

	id := uuid.New()
	m.profiles.On("Role", mock.Anything, "ghost").Return("", domain.ErrProfileNotFound)

	outcome, err := svc.Decide(context.Background(), id, domain.ActionApprove, "ghost")

	assert.Nil(t, outcome)
	assert.ErrorIs(t, err, domain.ErrAdminRequired)
}

func TestDecide_MissingCaller(t *testing.T) {
	svc, m := newTestService()

	outcome, err := svc.Decide(context.Background(), uuid.New(), domain.ActionApprove, "")

	assert.Nil(t, outcome)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	m.profiles.AssertNotCalled(t, "Role", mock.Anything, mock.Anything)
}

func TestDecide_InvalidAction(t *testing.T) {
	svc, m := newTestService()

	outcome, err := svc.Decide(context.Background(), uuid.New(), domain.DecisionAction("cancel"), "a1")

	assert.Nil(t, outcome)
	assert.ErrorIs(t, err, domain.ErrInvalidAction)
	m.profiles.AssertNotCalled(t, "Role", mock.Anything, mock.Anything)
}

func TestDecide_RejectCreditFails(t *testing.T) {
	svc, m := newTestService()

	w := pendingWithdrawal("u1", 500)

	m.profiles.On("Role", mock.Anything, "a1").Return("admin", nil)
	m.withdrawals.On("GetByID", mock.Anything, w.ID).Return(w, nil)
	m.tx.On("WithinTx", mock.Anything, mock.Anything).Return(nil)
	m.withdrawals.On("SetStatusIfPending", mock.Anything, w.ID, domain.StatusRejected, mock.AnythingOfType("time.Time"), "a1").Return(true, nil)
	m.wallets.On("Credit", mock.Anything, "u1", 500.0, "refund", w.ID.String(), mock.Anything).Return(errors.New("database error"))

	outcome, err := svc.Decide(context.Background(), w.ID, domain.ActionReject, "a1")

	assert.Nil(t, outcome)
	assert.ErrorIs(t, err, domain.ErrLedger)
	m.notifications.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestDecide_RaceLoserReportsWinnerStatus(t *testing.T) {
	svc, m := newTestService()

	w := pendingWithdrawal("u1", 500)
	won := *w
	won.Status = domain.StatusRejected

	m.profiles.On("Role", mock.Anything, "a1").Return("admin", nil)
	// First read sees pending, the conditional update loses, the re-read
	// sees the winner's terminal status.
	m.withdrawals.On("GetByID", mock.Anything, w.ID).Return(w, nil).Once()
	m.withdrawals.On("SetStatusIfPending", mock.Anything, w.ID, domain.StatusApproved, mock.AnythingOfType("time.Time"), "a1").Return(false, nil)
	m.withdrawals.On("GetByID", mock.Anything, w.ID).Return(&won, nil).Once()

	outcome, err := svc.Decide(context.Background(), w.ID, domain.ActionApprove, "a1")

	assert.Nil(t, outcome)

	var alreadyProcessed *domain.AlreadyProcessedError
	assert.ErrorAs(t, err, &alreadyProcessed)
	assert.Equal(t, domain.StatusRejected, alreadyProcessed.Status)

	m.notifications.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	m.withdrawals.AssertExpectations(t)
}

func TestDecide_ConcurrentRejects(t *testing.T) {
	svc, m := newTestService()

	w := pendingWithdrawal("u1", 300)

	m.profiles.On("Role", mock.Anything, "a1").Return("admin", nil)
	m.withdrawals.On("GetByID", mock.Anything, w.ID).Return(w, nil)
	m.tx.On("WithinTx", mock.Anything, mock.Anything).Return(nil)
	// Exactly one conditional update wins.
	m.withdrawals.On("SetStatusIfPending", mock.Anything, w.ID, domain.StatusRejected, mock.AnythingOfType("time.Time"), "a1").Return(true, nil).Once()
	m.withdrawals.On("SetStatusIfPending", mock.Anything, w.ID, domain.StatusRejected, mock.AnythingOfType("time.Time"), "a1").Return(false, nil)
	m.wallets.On("Credit", mock.Anything, "u1", 300.0, "refund", w.ID.String(), mock.Anything).Return(nil).Once()
	m.notifications.On("Create", mock.Anything, mock.Anything).Return(nil)

	const attempts = 2
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Decide(context.Background(), w.ID, domain.ActionReject, "a1")
			results <- err
		}()
	}

	wg.Wait()
	close(results)

	successCount := 0
	lostCount := 0
	for err := range results {
		if err == nil {
			successCount++
			continue
		}
		var alreadyProcessed *domain.AlreadyProcessedError
		if errors.As(err, &alreadyProcessed) {
			lostCount++
		}
	}

	assert.Equal(t, 1, successCount)
	assert.Equal(t, 1, lostCount)
	m.wallets.AssertNumberOfCalls(t, "Credit", 1)
}

func TestDecide_NotificationFailureIgnored(t *testing.T) {
	svc, m := newTestService()

	w := pendingWithdrawal("u1", 500)

	m.profiles.On("Role", mock.Anything, "a1").Return("admin", nil)
	m.withdrawals.On("GetByID", mock.Anything, w.ID).Return(w, nil)
	m.withdrawals.On("SetStatusIfPending", mock.Anything, w.ID, domain.StatusApproved, mock.AnythingOfType("time.Time"), "a1").Return(true, nil)
	m.notifications.On("Create", mock.Anything, mock.Anything).Return(errors.New("insert failed"))

	outcome, err := svc.Decide(context.Background(), w.ID, domain.ActionApprove, "a1")

	assert.NoError(t, err)
	assert.NotNil(t, outcome)
	assert.Equal(t, domain.StatusApproved, outcome.Status)
}

func TestListWithdrawals_RequiresAdmin(t *testing.T) {
	svc, m := newTestService()

	m.profiles.On("Role", mock.Anything, "u2").Return("influencer", nil)

	withdrawals, err := svc.ListWithdrawals(context.Background(), "u2", domain.StatusPending)

	assert.Nil(t, withdrawals)
	assert.ErrorIs(t, err, domain.ErrAdminRequired)
	m.withdrawals.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestListWithdrawals_ReturnsPending(t *testing.T) {
	svc, m := newTestService()

	pending := []*domain.Withdrawal{pendingWithdrawal("u1", 100), pendingWithdrawal("u2", 250)}

	m.profiles.On("Role", mock.Anything, "a1").Return("admin", nil)
	m.withdrawals.On("List", mock.Anything, domain.StatusPending).Return(pending, nil)

	withdrawals, err := svc.ListWithdrawals(context.Background(), "a1", domain.StatusPending)

	assert.NoError(t, err)
	assert.Len(t, withdrawals, 2)
}

func TestGetWithdrawal_Found(t *testing.T) {
	svc, m := newTestService()

	w := pendingWithdrawal("u1", 100)

	m.profiles.On("Role", mock.Anything, "a1").Return("admin", nil)
	m.withdrawals.On("GetByID", mock.Anything, w.ID).Return(w, nil)

	got, err := svc.GetWithdrawal(context.Background(), "a1", w.ID)

	assert.NoError(t, err)
	assert.Equal(t, w.ID, got.ID)
}
