package services

import (
	"context"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/mock"

	"mynahbackend/models"
)

// MockSessionStore is a mock implementation of SessionStore
type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) Save(ctx context.Context, convCtx *models.ConversationContext) bool {
	args := m.Called(ctx, convCtx)
	return args.Bool(0)
}

func (m *MockSessionStore) SaveIfRevision(
	ctx context.Context,
	convCtx *models.ConversationContext,
	expectedRevision int64,
) error {
	args := m.Called(ctx, convCtx, expectedRevision)
	return args.Error(0)
}

func (m *MockSessionStore) Load(ctx context.Context, sessionID string) mo.Option[*models.ConversationContext] {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(mo.Option[*models.ConversationContext])
}

func (m *MockSessionStore) Peek(ctx context.Context, sessionID string) mo.Option[*models.ConversationContext] {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(mo.Option[*models.ConversationContext])
}

func (m *MockSessionStore) Delete(ctx context.Context, sessionID string) bool {
	args := m.Called(ctx, sessionID)
	return args.Bool(0)
}

func (m *MockSessionStore) Exists(ctx context.Context, sessionID string) bool {
	args := m.Called(ctx, sessionID)
	return args.Bool(0)
}

func (m *MockSessionStore) ListSessions(ctx context.Context) []models.SessionInfo {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]models.SessionInfo)
}

func (m *MockSessionStore) GetStats(ctx context.Context) models.SessionStats {
	args := m.Called(ctx)
	return args.Get(0).(models.SessionStats)
}

func (m *MockSessionStore) GetTTL(ctx context.Context, sessionID string) mo.Option[time.Duration] {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(mo.Option[time.Duration])
}

func (m *MockSessionStore) Backend() string {
	args := m.Called()
	return args.String(0)
}

// MockStage is a mock implementation of Stage
type MockStage struct {
	mock.Mock
}

func (m *MockStage) Run(ctx context.Context, convCtx models.ConversationContext) models.ConversationContext {
	args := m.Called(ctx, convCtx)
	return args.Get(0).(models.ConversationContext)
}

// MockMattersService is a mock implementation of MattersService
type MockMattersService struct {
	MockStage
}

func (m *MockMattersService) LookupMatter(ctx context.Context, idNumber string) models.MatterLookupResult {
	args := m.Called(ctx, idNumber)
	return args.Get(0).(models.MatterLookupResult)
}

// MockEmailsService is a mock implementation of EmailsService
type MockEmailsService struct {
	MockStage
}

func (m *MockEmailsService) SendApprovalRequest(ctx context.Context, convCtx models.ConversationContext) models.EmailResult {
	args := m.Called(ctx, convCtx)
	return args.Get(0).(models.EmailResult)
}

// MockHandoffNotifier is a mock implementation of HandoffNotifier
type MockHandoffNotifier struct {
	mock.Mock
}

func (m *MockHandoffNotifier) NotifyHandoff(ctx context.Context, convCtx models.ConversationContext) {
	m.Called(ctx, convCtx)
}

type MockTransactionManager struct {
	mock.Mock
}

func (m *MockTransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, fn)
	return args.Error(0)
}
