package solana

import (
	"crypto/ed25519"
	"encoding/base64"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/ybbus/jsonrpc"
)

const (
	// Reference: https://github.com/solana-labs/solana/blob/71e9958e061493d7545bd28d4ac7a85aaed6ffbb/client/src/rpc_custom_error.rs#L11
	rpcNodeUnhealthyCode = -32005

	// Reference: https://docs.solana.com/api/http#getmultipleaccounts
	maxAccountsPerRequest = 100
)

type Commitment struct {
	Commitment string `json:"commitment"`
}

const (
	confirmationStatusProcessed = "processed"
	confirmationStatusConfirmed = "confirmed"
	confirmationStatusFinalized = "finalized"
)

var (
	CommitmentProcessed = Commitment{Commitment: confirmationStatusProcessed}
	CommitmentConfirmed = Commitment{Commitment: confirmationStatusConfirmed}
	CommitmentFinalized = Commitment{Commitment: confirmationStatusFinalized}
)

var (
	ErrNoAccountInfo      = errors.New("no account info")
	ErrRateLimited        = errors.New("rate limited")
	ErrServiceUnavailable = errors.New("service unavailable")
)

// CommitmentFromString returns the Commitment for the provided level name.
func CommitmentFromString(level string) (Commitment, error) {
	switch level {
	case confirmationStatusProcessed:
		return CommitmentProcessed, nil
	case confirmationStatusConfirmed:
		return CommitmentConfirmed, nil
	case confirmationStatusFinalized:
		return CommitmentFinalized, nil
	default:
		return Commitment{}, errors.Errorf("unknown commitment level: %s", level)
	}
}

// Client provides the subset of the Solana JSON RPC API needed to load
// validation accounts and the account handles an instruction resolves to.
//
// Reference: https://docs.solana.com/apps/jsonrpc-api
type Client interface {
	GetAccountInfo(ed25519.PublicKey, Commitment) (AccountInfo, error)
	GetMultipleAccounts([]ed25519.PublicKey, Commitment) ([]*AccountInfo, error)
	GetSlot(Commitment) (uint64, error)
}

type rpcAccount struct {
	Lamports   uint64   `json:"lamports"`
	Owner      string   `json:"owner"`
	Data       []string `json:"data"`
	Executable bool     `json:"executable"`
	RentEpoch  uint64   `json:"rentEpoch"`
}

type rpcAccountConfig struct {
	Commitment string `json:"commitment"`
	Encoding   string `json:"encoding"`
}

type client struct {
	log    *logrus.Entry
	client jsonrpc.RPCClient
}

// New returns a client using the specified endpoint.
func New(endpoint string) Client {
	return NewWithRPCOptions(endpoint, nil)
}

// NewWithRPCOptions returns a client configured with the specified RPC options.
func NewWithRPCOptions(endpoint string, opts *jsonrpc.RPCClientOpts) Client {
	return &client{
		log:    logrus.StandardLogger().WithField("type", "solana/client"),
		client: jsonrpc.NewClientWithOpts(endpoint, opts),
	}
}

func (c *client) call(out interface{}, method string, params ...interface{}) error {
	err := c.client.CallFor(out, method, params...)
	if err == nil {
		return nil
	}

	return c.handleRpcError(method, err)
}

func (c *client) handleRpcError(method string, err error) error {
	rpcErr, ok := err.(*jsonrpc.RPCError)
	if !ok {
		return err
	}
	if rpcErr.Code == 429 {
		c.log.WithField("method", method).Error("rate limited")
		return ErrRateLimited
	}
	if rpcErr.Code >= 500 || rpcErr.Code == rpcNodeUnhealthyCode {
		return ErrServiceUnavailable
	}

	return err
}

func (c *client) GetSlot(commitment Commitment) (slot uint64, err error) {
	// note: we have to wrap the commitment in an []interface{} otherwise the
	//       solana RPC node complains. Technically this is a violation of the
	//       JSON RPC v2.0 spec.
	if err := c.call(&slot, "getSlot", []interface{}{commitment}); err != nil {
		return 0, errors.Wrapf(err, "getSlot() failed to send request")
	}

	return slot, nil
}

func (c *client) GetAccountInfo(account ed25519.PublicKey, commitment Commitment) (accountInfo AccountInfo, err error) {
	type rpcResponse struct {
		Value *rpcAccount `json:"value"`
	}

	rpcConfig := rpcAccountConfig{
		Commitment: commitment.Commitment,
		Encoding:   "base64",
	}

	var resp rpcResponse
	if err := c.call(&resp, "getAccountInfo", base58.Encode(account[:]), rpcConfig); err != nil {
		return accountInfo, errors.Wrap(err, "getAccountInfo() failed to send request")
	}

	if resp.Value == nil {
		return accountInfo, ErrNoAccountInfo
	}

	return toAccountInfo(account, resp.Value)
}

// GetMultipleAccounts returns the account handles for the provided keys, in
// order. Entries for accounts that don't exist are nil.
func (c *client) GetMultipleAccounts(accounts []ed25519.PublicKey, commitment Commitment) ([]*AccountInfo, error) {
	type rpcResponse struct {
		Value []*rpcAccount `json:"value"`
	}

	rpcConfig := rpcAccountConfig{
		Commitment: commitment.Commitment,
		Encoding:   "base64",
	}

	result := make([]*AccountInfo, 0, len(accounts))
	for start := 0; start < len(accounts); start += maxAccountsPerRequest {
		end := start + maxAccountsPerRequest
		if end > len(accounts) {
			end = len(accounts)
		}

		encoded := make([]string, 0, end-start)
		for _, account := range accounts[start:end] {
			encoded = append(encoded, base58.Encode(account))
		}

		var resp rpcResponse
		if err := c.call(&resp, "getMultipleAccounts", encoded, rpcConfig); err != nil {
			return nil, errors.Wrap(err, "getMultipleAccounts() failed to send request")
		}

		if len(resp.Value) != end-start {
			return nil, errors.Errorf("unexpected number of accounts in response: %d", len(resp.Value))
		}

		for i, raw := range resp.Value {
			if raw == nil {
				result = append(result, nil)
				continue
			}

			accountInfo, err := toAccountInfo(accounts[start+i], raw)
			if err != nil {
				return nil, err
			}
			result = append(result, &accountInfo)
		}
	}

	return result, nil
}

func toAccountInfo(account ed25519.PublicKey, raw *rpcAccount) (accountInfo AccountInfo, err error) {
	accountInfo.PublicKey = account

	accountInfo.Owner, err = base58.Decode(raw.Owner)
	if err != nil {
		return accountInfo, errors.Wrap(err, "invalid base58 encoded owner")
	}

	if len(raw.Data) == 0 {
		return accountInfo, errors.New("missing account data")
	}

	accountInfo.Data, err = base64.StdEncoding.DecodeString(raw.Data[0])
	if err != nil {
		return accountInfo, errors.Wrap(err, "invalid base64 encoded data")
	}

	accountInfo.Lamports = raw.Lamports
	accountInfo.Executable = raw.Executable
	accountInfo.RentEpoch = raw.RentEpoch

	return accountInfo, nil
}
