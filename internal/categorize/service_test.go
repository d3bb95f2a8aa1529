package categorize_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/chdeimos/moneyo/internal/categorize"
	"github.com/chdeimos/moneyo/internal/ledger"
)

func TestService_Learn(t *testing.T) {
	category := uuid.New()

	type testCase struct {
		name       string
		pattern    string
		categoryID uuid.UUID
		setupMock  func(m *categorize.MockRepository)
		wantErr    error
	}

	tests := []testCase{
		{
			name:       "Success",
			pattern:    "  CONTINENTE ",
			categoryID: category,
			setupMock: func(m *categorize.MockRepository) {
				m.EXPECT().CreateRule(gomock.Any(), "CONTINENTE", category).Return(nil)
			},
		},
		{
			name:       "EmptyPattern",
			pattern:    "   ",
			categoryID: category,
			wantErr:    categorize.ErrInvalidRule,
		},
		{
			name:       "NilCategory",
			pattern:    "UBER",
			categoryID: uuid.Nil,
			wantErr:    categorize.ErrInvalidRule,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := categorize.NewMockRepository(ctrl)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			err := categorize.NewService(repo).Learn(context.Background(), tt.pattern, tt.categoryID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestService_Apply(t *testing.T) {
	groceries := uuid.New()
	preset := uuid.New()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := categorize.NewMockRepository(ctrl)
	repo.EXPECT().FindCategory(gomock.Any(), "COMPRA CONTINENTE LISBOA").Return(&groceries, nil)
	repo.EXPECT().FindCategory(gomock.Any(), "TRF MB WAY").Return(nil, nil)

	params := []ledger.CreateParams{
		{Amount: decimal.NewFromInt(10), Description: "COMPRA CONTINENTE LISBOA"},
		{Amount: decimal.NewFromInt(5), Description: "TRF MB WAY"},
		{Amount: decimal.NewFromInt(5), Description: "RENDA", CategoryID: &preset},
		{Amount: decimal.NewFromInt(5)},
	}

	n, err := categorize.NewService(repo).Apply(context.Background(), params)
	require.NoError(t, err)

	assert.Equal(t, 1, n)
	assert.Equal(t, &groceries, params[0].CategoryID)
	assert.Nil(t, params[1].CategoryID)
	assert.Equal(t, &preset, params[2].CategoryID)
}

func TestService_Apply_RepoError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := categorize.NewMockRepository(ctrl)
	repo.EXPECT().FindCategory(gomock.Any(), gomock.Any()).Return(nil, errors.New("db error"))

	_, err := categorize.NewService(repo).Apply(context.Background(), []ledger.CreateParams{{Description: "X"}})
	assert.Error(t, err)
}
