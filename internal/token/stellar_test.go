package token

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stellar/go/clients/horizonclient"
	"github.com/stellar/go/keypair"
	"github.com/stellar/go/network"
	"github.com/stellar/go/protocols/horizon"
	"github.com/stellar/go/protocols/horizon/base"
	"github.com/stellar/go/support/render/problem"
	"github.com/stellar/go/txnbuild"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestStellar(t *testing.T) (*Stellar, *horizonclient.MockClient, *keypair.Full) {
	t.Helper()
	issuer := keypair.MustRandom()
	client := &horizonclient.MockClient{}
	s, err := NewStellar(client, "FOOD", issuer.Seed(), network.TestNetworkPassphrase)
	require.NoError(t, err)
	return s, client, issuer
}

func TestNewStellar(t *testing.T) {
	_, err := NewStellar(nil, "FOOD", keypair.MustRandom().Seed(), network.TestNetworkPassphrase)
	assert.Error(t, err)

	_, err = NewStellar(&horizonclient.MockClient{}, "FOOD", "not-a-seed", network.TestNetworkPassphrase)
	assert.Error(t, err)

	s, _, issuer := newTestStellar(t)
	assert.Equal(t, "FOOD:"+issuer.Address(), s.Asset())
}

func TestStellar_Balance(t *testing.T) {
	ctx := context.Background()

	t.Run("asset balance", func(t *testing.T) {
		s, client, issuer := newTestStellar(t)
		holder := keypair.MustRandom().Address()
		client.On("AccountDetail", horizonclient.AccountRequest{AccountID: holder}).Return(horizon.Account{
			AccountID: holder,
			Balances: []horizon.Balance{
				{Balance: "100.0000000", Asset: base.Asset{Type: "native"}},
				{Balance: "12.5000000", Asset: base.Asset{Type: "credit_alphanum4", Code: "FOOD", Issuer: keypair.MustRandom().Address()}},
				{Balance: "3.2500000", Asset: base.Asset{Type: "credit_alphanum4", Code: "FOOD", Issuer: issuer.Address()}},
			},
		}, nil)

		got, err := s.Balance(ctx, holder)
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString("3.25").Equal(got), got.String())
	})

	t.Run("no trustline", func(t *testing.T) {
		s, client, _ := newTestStellar(t)
		holder := keypair.MustRandom().Address()
		client.On("AccountDetail", mock.Anything).Return(horizon.Account{AccountID: holder}, nil)

		got, err := s.Balance(ctx, holder)
		require.NoError(t, err)
		assert.True(t, got.IsZero())
	})

	t.Run("unknown account", func(t *testing.T) {
		s, client, _ := newTestStellar(t)
		client.On("AccountDetail", mock.Anything).Return(horizon.Account{}, &horizonclient.Error{Problem: problem.P{Status: 404}})

		got, err := s.Balance(ctx, keypair.MustRandom().Address())
		require.NoError(t, err)
		assert.True(t, got.IsZero())
	})

	t.Run("horizon failure", func(t *testing.T) {
		s, client, _ := newTestStellar(t)
		client.On("AccountDetail", mock.Anything).Return(horizon.Account{}, errors.New("timeout"))

		_, err := s.Balance(ctx, keypair.MustRandom().Address())
		assert.Error(t, err)
	})

	t.Run("invalid account", func(t *testing.T) {
		s, _, _ := newTestStellar(t)
		_, err := s.Balance(ctx, "user-1")
		assert.ErrorIs(t, err, ErrInvalidAccount)
	})
}

func TestStellar_Mint(t *testing.T) {
	ctx := context.Background()

	t.Run("submits signed payment", func(t *testing.T) {
		s, client, issuer := newTestStellar(t)
		to := keypair.MustRandom().Address()

		client.On("AccountDetail", horizonclient.AccountRequest{AccountID: issuer.Address()}).
			Return(horizon.Account{AccountID: issuer.Address(), Sequence: 41}, nil)

		var submitted *txnbuild.Transaction
		client.On("SubmitTransaction", mock.AnythingOfType("*txnbuild.Transaction")).
			Run(func(args mock.Arguments) { submitted = args.Get(0).(*txnbuild.Transaction) }).
			Return(horizon.Transaction{Hash: "abc123"}, nil)

		hash, err := s.Mint(ctx, to, decimal.RequireFromString("0.5"), "like for a very long review identifier")
		require.NoError(t, err)
		assert.Equal(t, "abc123", hash)

		require.NotNil(t, submitted)
		assert.Equal(t, int64(42), submitted.SequenceNumber())
		assert.Len(t, submitted.Signatures(), 1)
		require.Len(t, submitted.Operations(), 1)
		payment, ok := submitted.Operations()[0].(*txnbuild.Payment)
		require.True(t, ok)
		assert.Equal(t, to, payment.Destination)
		assert.Equal(t, "0.5000000", payment.Amount)

		memo, ok := submitted.Memo().(txnbuild.MemoText)
		require.True(t, ok)
		assert.Len(t, string(memo), memoLimit)
		client.AssertExpectations(t)
	})

	t.Run("invalid destination", func(t *testing.T) {
		s, client, _ := newTestStellar(t)
		_, err := s.Mint(ctx, "user-1", decimal.NewFromInt(1), "like")
		assert.ErrorIs(t, err, ErrInvalidAccount)
		client.AssertNotCalled(t, "SubmitTransaction", mock.Anything)
	})

	t.Run("submit failure", func(t *testing.T) {
		s, client, issuer := newTestStellar(t)
		client.On("AccountDetail", mock.Anything).
			Return(horizon.Account{AccountID: issuer.Address(), Sequence: 1}, nil)
		client.On("SubmitTransaction", mock.Anything).
			Return(horizon.Transaction{}, errors.New("tx_bad_seq"))

		_, err := s.Mint(ctx, keypair.MustRandom().Address(), decimal.NewFromInt(1), "like")
		assert.ErrorContains(t, err, "submit transaction")
	})
}
