package handlers

import (
	"context"

	"github.com/stretchr/testify/mock"

	"mynahbackend/models"
)

type MockInteractionProcessor struct {
	mock.Mock
}

func (m *MockInteractionProcessor) ProcessInteraction(
	ctx context.Context,
	interaction models.Interaction,
) (*models.InteractionResult, error) {
	args := m.Called(ctx, interaction)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InteractionResult), args.Error(1)
}
