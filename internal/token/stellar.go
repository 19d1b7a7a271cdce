package token

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/stellar/go/clients/horizonclient"
	"github.com/stellar/go/keypair"
	"github.com/stellar/go/protocols/horizon"
	"github.com/stellar/go/txnbuild"
)

// memoLimit is the byte limit of a Stellar text memo.
const memoLimit = 28

// Stellar is a Ledger backed by a Stellar credit asset. Minting is a payment
// from the asset issuer.
type Stellar struct {
	client     horizonclient.ClientInterface
	issuer     *keypair.Full
	asset      txnbuild.CreditAsset
	passphrase string
}

// NewStellar creates a Stellar ledger for asset code issued by the account of issuerSeed.
func NewStellar(client horizonclient.ClientInterface, code, issuerSeed, passphrase string) (*Stellar, error) {
	if client == nil {
		return nil, errors.New("horizon client is required")
	}
	issuer, err := keypair.ParseFull(issuerSeed)
	if err != nil {
		return nil, fmt.Errorf("parse issuer seed: %w", err)
	}
	return &Stellar{
		client:     client,
		issuer:     issuer,
		asset:      txnbuild.CreditAsset{Code: code, Issuer: issuer.Address()},
		passphrase: passphrase,
	}, nil
}

// Asset returns the code:issuer pair of the token.
func (s *Stellar) Asset() string {
	return s.asset.Code + ":" + s.asset.Issuer
}

// Balance returns the token balance of account. Unknown accounts hold zero.
func (s *Stellar) Balance(_ context.Context, account string) (decimal.Decimal, error) {
	if _, err := keypair.ParseAddress(account); err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrInvalidAccount, account)
	}

	acc, err := s.client.AccountDetail(horizonclient.AccountRequest{AccountID: account})
	if err != nil {
		if horizonclient.IsNotFoundError(err) {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("get account detail: %w", err)
	}
	return s.findBalance(acc.Balances)
}

func (s *Stellar) findBalance(balances []horizon.Balance) (decimal.Decimal, error) {
	for _, bal := range balances {
		if bal.Code == s.asset.Code && bal.Issuer == s.asset.Issuer {
			d, err := decimal.NewFromString(bal.Balance)
			if err != nil {
				return decimal.Zero, fmt.Errorf("parse balance %q: %w", bal.Balance, err)
			}
			return d, nil
		}
	}
	return decimal.Zero, nil
}

// Mint pays amount of the token from the issuer to account and returns the
// transaction hash.
func (s *Stellar) Mint(_ context.Context, to string, amount decimal.Decimal, memo string) (string, error) {
	if _, err := keypair.ParseAddress(to); err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidAccount, to)
	}

	source, err := s.client.AccountDetail(horizonclient.AccountRequest{AccountID: s.issuer.Address()})
	if err != nil {
		return "", fmt.Errorf("load issuer account: %w", err)
	}

	if len(memo) > memoLimit {
		memo = memo[:memoLimit]
	}

	tx, err := txnbuild.NewTransaction(
		txnbuild.TransactionParams{
			SourceAccount:        &source,
			IncrementSequenceNum: true,
			Operations: []txnbuild.Operation{
				&txnbuild.Payment{
					Destination: to,
					Amount:      amount.StringFixed(Decimals),
					Asset:       s.asset,
				},
			},
			BaseFee:       txnbuild.MinBaseFee,
			Memo:          txnbuild.MemoText(memo),
			Preconditions: txnbuild.Preconditions{TimeBounds: txnbuild.NewTimeout(300)},
		},
	)
	if err != nil {
		return "", fmt.Errorf("build transaction: %w", err)
	}

	tx, err = tx.Sign(s.passphrase, s.issuer)
	if err != nil {
		return "", fmt.Errorf("sign transaction: %w", err)
	}

	resp, err := s.client.SubmitTransaction(tx)
	if err != nil {
		return "", fmt.Errorf("submit transaction: %w", err)
	}
	return resp.Hash, nil
}
