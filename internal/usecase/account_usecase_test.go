package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/creditledger/internal/domain"
	"github.com/iho/creditledger/internal/usecase"
	"github.com/iho/creditledger/internal/usecase/mocks"
)

func TestProvisionWrapsStorageError(t *testing.T) {
	ctrl := gomock.NewController(t)
	registry, err := domain.ParseAccountRegistry("1:10")
	require.NoError(t, err)

	accounts := mocks.NewMockAccountRepository(ctrl)
	accounts.EXPECT().Provision(gomock.Any(), registry).Return(errors.New("relation does not exist"))

	uc := usecase.NewAccountUseCase(registry, mocks.NewMockTransactionManager(ctrl), accounts, mocks.NewMockEntryRepository(ctrl))

	assert.ErrorIs(t, uc.Provision(context.Background()), domain.ErrStorage)
}

func TestCheckConsistencyDetectsDrift(t *testing.T) {
	ctrl := gomock.NewController(t)
	registry, err := domain.ParseAccountRegistry("1:100,2:100")
	require.NoError(t, err)

	txManager := mocks.NewMockTransactionManager(ctrl)
	tx := mocks.NewMockTransaction(ctrl)
	accounts := mocks.NewMockAccountRepository(ctrl)
	entries := mocks.NewMockEntryRepository(ctrl)

	txManager.EXPECT().Begin(gomock.Any(), usecase.TxOptions{IsoLevel: usecase.RepeatableRead, ReadOnly: true}).Return(tx, nil)
	accounts.EXPECT().GetByID(gomock.Any(), tx, int64(1)).Return(&domain.Account{ID: 1, CreditLimit: 100, Balance: 50}, nil)
	entries.EXPECT().Totals(gomock.Any(), tx, int64(1)).Return(int64(80), int64(30), nil)
	accounts.EXPECT().GetByID(gomock.Any(), tx, int64(2)).Return(&domain.Account{ID: 2, CreditLimit: 100, Balance: -20}, nil)
	entries.EXPECT().Totals(gomock.Any(), tx, int64(2)).Return(int64(0), int64(10), nil)
	tx.EXPECT().Commit(gomock.Any()).Return(nil)
	tx.EXPECT().Rollback(gomock.Any()).Return(nil)

	uc := usecase.NewAccountUseCase(registry, txManager, accounts, entries)

	results, consistent, err := uc.CheckConsistency(context.Background())
	require.NoError(t, err)
	assert.False(t, consistent)
	require.Len(t, results, 2)
	assert.True(t, results[0].Consistent())
	assert.False(t, results[1].Balanced)
	assert.True(t, results[1].WithinLimit)
}
