package approval

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/handlepay/handlepay/internal/domain/account"
	"github.com/handlepay/handlepay/internal/domain/amount"
	domainApproval "github.com/handlepay/handlepay/internal/domain/approval"
	"github.com/handlepay/handlepay/internal/domain/ledger"
	"github.com/handlepay/handlepay/internal/domain/ledger/mocks"
)

var (
	owner   = account.MustParse("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	spender = account.MustParse("0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB")
)

func mustAmount(t *testing.T, s string) amount.Amount {
	t.Helper()
	a, err := amount.Parse(s)
	require.NoError(t, err)
	return a
}

func setup(t *testing.T) (*Service, *gomock.Controller, *mocks.MockClient) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockClient(ctrl)
	return NewService(client, zerolog.Nop()), ctrl, client
}

func TestCheckAllowance_Idempotent(t *testing.T) {
	svc, _, client := setup(t)
	client.EXPECT().GetAllowance(gomock.Any(), owner, spender).Return(big.NewInt(50_000_000), nil).Times(2)

	required := mustAmount(t, "50")
	first, err := svc.CheckAllowance(context.Background(), owner, spender, required)
	require.NoError(t, err)
	second, err := svc.CheckAllowance(context.Background(), owner, spender, required)
	require.NoError(t, err)

	assert.Equal(t, first.Amount.UnitsString(), second.Amount.UnitsString())
	assert.Equal(t, first.Sufficient(), second.Sufficient())
	assert.True(t, first.Sufficient())
}

func TestCheckAllowance_Insufficient(t *testing.T) {
	svc, _, client := setup(t)
	client.EXPECT().GetAllowance(gomock.Any(), owner, spender).Return(big.NewInt(0), nil)

	state, err := svc.CheckAllowance(context.Background(), owner, spender, mustAmount(t, "50"))
	require.NoError(t, err)
	assert.False(t, state.Sufficient())
}

func TestCheckAllowance_NetworkError(t *testing.T) {
	svc, _, client := setup(t)
	boom := errors.New("connection refused")
	client.EXPECT().GetAllowance(gomock.Any(), owner, spender).Return(nil, boom)

	_, err := svc.CheckAllowance(context.Background(), owner, spender, mustAmount(t, "50"))
	assert.ErrorIs(t, err, boom)
}

func TestRequestApproval_ExactAmount(t *testing.T) {
	svc, ctrl, client := setup(t)
	tx := mocks.NewMockTxHandle(ctrl)
	tx.EXPECT().Ref().Return("0xa1").AnyTimes()
	tx.EXPECT().AwaitConfirmation(gomock.Any()).Return(&ledger.Receipt{TxRef: "0xa1", Status: ledger.ReceiptConfirmed}, nil)
	client.EXPECT().RequestApproval(gomock.Any(), spender, big.NewInt(50_000_000)).Return(tx, nil)

	h, err := svc.RequestApproval(context.Background(), owner, spender, mustAmount(t, "50"))
	require.NoError(t, err)
	assert.Equal(t, "0xa1", h.TxRef())
	assert.Equal(t, domainApproval.StatusPending, h.Approval().Status)

	require.NoError(t, h.Wait(context.Background()))
	assert.Equal(t, domainApproval.StatusConfirmed, h.Approval().Status)
}

func TestRequestApproval_UserRejectedIsNotRetried(t *testing.T) {
	svc, _, client := setup(t)
	client.EXPECT().RequestApproval(gomock.Any(), spender, gomock.Any()).Return(nil, ledger.ErrUserRejected).Times(1)

	h, err := svc.RequestApproval(context.Background(), owner, spender, mustAmount(t, "50"))
	assert.Nil(t, h)
	assert.ErrorIs(t, err, ledger.ErrUserRejected)
}

func TestRequestApproval_ZeroAmount(t *testing.T) {
	svc, _, _ := setup(t)

	_, err := svc.RequestApproval(context.Background(), owner, spender, amount.Amount{})
	assert.ErrorIs(t, err, domainApproval.ErrZeroAmount)
}

func TestHandle_WaitReverted(t *testing.T) {
	svc, ctrl, client := setup(t)
	tx := mocks.NewMockTxHandle(ctrl)
	tx.EXPECT().Ref().Return("0xa1").AnyTimes()
	tx.EXPECT().AwaitConfirmation(gomock.Any()).Return(&ledger.Receipt{TxRef: "0xa1", Status: ledger.ReceiptReverted}, nil)
	client.EXPECT().RequestApproval(gomock.Any(), spender, gomock.Any()).Return(tx, nil)

	h, err := svc.RequestApproval(context.Background(), owner, spender, mustAmount(t, "1"))
	require.NoError(t, err)

	err = h.Wait(context.Background())
	var rev *ledger.RevertError
	assert.ErrorAs(t, err, &rev)
	assert.Equal(t, domainApproval.StatusFailed, h.Approval().Status)
}
