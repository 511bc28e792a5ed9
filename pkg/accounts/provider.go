package accounts

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/account-resolution/pkg/metrics"
	"github.com/code-payments/account-resolution/pkg/retry"
	"github.com/code-payments/account-resolution/pkg/solana"
	"github.com/code-payments/account-resolution/pkg/solana/accountresolution"
	"github.com/code-payments/account-resolution/pkg/solana/listview"
	"github.com/code-payments/account-resolution/pkg/solana/tlv"
	"github.com/code-payments/account-resolution/pkg/validationstore"
)

const (
	metricsStructName = "accounts.provider"

	resolveDurationMetricName  = "AccountResolution/ResolveDuration"
	resolvedAccountsMetricName = "AccountResolution/ResolvedAccounts"
	listInitializedEventName   = "AccountResolutionListInitialized"

	maxRPCAttempts   = 3
	rpcBaseBackoff   = 250 * time.Millisecond
	rpcMaxBackoff    = 2 * time.Second
	rpcBackoffJitter = 0.1
)

var (
	ErrValidationAccountNotFound = errors.New("validation account not found")
)

// List is a decoded requirement list.
type List struct {
	Discriminator tlv.Discriminator
	Requirements  []accountresolution.AccountRequirement
	Capacity      int
}

// Provider manages requirement lists stored in validation accounts and
// resolves instructions against them.
//
// Validation accounts are loaded from the store. When a client is configured,
// accounts missing from the store are fetched from the chain, and account
// infos missing from a caller's pool are fetched from the chain.
type Provider struct {
	log        *logrus.Entry
	store      validationstore.Store
	client     solana.Client
	commitment solana.Commitment
	retrier    retry.Retrier
}

// NewProvider returns a new Provider. client may be nil.
func NewProvider(store validationstore.Store, client solana.Client, commitment solana.Commitment) *Provider {
	return &Provider{
		log:        logrus.StandardLogger().WithField("type", "accounts/provider"),
		store:      store,
		client:     client,
		commitment: commitment,
		retrier: retry.NewRetrier(
			retry.Limit(maxRPCAttempts),
			retry.RetriableErrors(solana.ErrRateLimited, solana.ErrServiceUnavailable),
			retry.ExponentialBackoff(rpcBaseBackoff, rpcMaxBackoff, rpcBackoffJitter),
		),
	}
}

// InitializeList writes a requirement list for d into the validation account
// at address, creating the account if it doesn't exist and growing it
// otherwise. tlv.ErrTypeAlreadyExists is returned if the account already
// holds a list for d.
func (p *Provider) InitializeList(
	ctx context.Context,
	program, address ed25519.PublicKey,
	d tlv.Discriminator,
	requirements []accountresolution.AccountRequirement,
) (err error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "InitializeList")
	defer func() {
		tracer.OnError(err)
		tracer.End()
	}()

	log := p.log.WithFields(logrus.Fields{
		"method":        "InitializeList",
		"program":       solana.PublicKeyToString(program),
		"address":       solana.PublicKeyToString(address),
		"discriminator": d.String(),
	})

	size, err := accountresolution.SizeOf(len(requirements))
	if err != nil {
		return err
	}

	record, err := p.store.Get(ctx, solana.PublicKeyToString(address))
	switch err {
	case nil:
		if record.Program != solana.PublicKeyToString(program) {
			return accountresolution.ErrIncorrectAccount
		}

		data := make([]byte, len(record.Data)+size)
		copy(data, record.Data)
		if err := accountresolution.InitWithRequirements(data, d, requirements); err != nil {
			return err
		}

		record.Data = data
		if err := p.store.Update(ctx, record); err != nil {
			log.WithError(err).Warn("failure updating validation account")
			return err
		}
	case validationstore.ErrNotFound:
		data := make([]byte, size)
		if err := accountresolution.InitWithRequirements(data, d, requirements); err != nil {
			return err
		}

		record = &validationstore.Record{
			Address: solana.PublicKeyToString(address),
			Program: solana.PublicKeyToString(program),
			Data:    data,
		}
		if err := p.store.Put(ctx, record); err != nil {
			log.WithError(err).Warn("failure creating validation account")
			return err
		}
	default:
		log.WithError(err).Warn("failure getting validation account")
		return err
	}

	metrics.RecordEvent(ctx, listInitializedEventName, map[string]interface{}{
		"program":       record.Program,
		"address":       record.Address,
		"discriminator": d.String(),
		"requirements":  len(requirements),
	})
	log.WithField("requirements", len(requirements)).Info("initialized requirement list")

	return nil
}

// UpdateList replaces the requirement list for d in the validation account at
// address. The account is resized when the stored list can't hold the new
// requirements.
func (p *Provider) UpdateList(
	ctx context.Context,
	address ed25519.PublicKey,
	d tlv.Discriminator,
	requirements []accountresolution.AccountRequirement,
) (err error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "UpdateList")
	defer func() {
		tracer.OnError(err)
		tracer.End()
	}()

	log := p.log.WithFields(logrus.Fields{
		"method":        "UpdateList",
		"address":       solana.PublicKeyToString(address),
		"discriminator": d.String(),
	})

	record, err := p.store.Get(ctx, solana.PublicKeyToString(address))
	if err == validationstore.ErrNotFound {
		return ErrValidationAccountNotFound
	} else if err != nil {
		log.WithError(err).Warn("failure getting validation account")
		return err
	}

	err = accountresolution.UpdateWithRequirements(record.Data, d, requirements)
	if err == listview.ErrBufferTooSmall {
		log.Debug("resizing validation account")
		record.Data, err = rebuildWithList(record.Data, d, requirements)
	}
	if err != nil {
		return err
	}

	if err := p.store.Update(ctx, record); err != nil {
		log.WithError(err).Warn("failure updating validation account")
		return err
	}

	log.WithField("requirements", len(requirements)).Info("updated requirement list")
	return nil
}

// GetLists returns every requirement list in the validation account at
// address, in storage order.
func (p *Provider) GetLists(ctx context.Context, address ed25519.PublicKey) (res []List, err error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "GetLists")
	defer func() {
		tracer.OnError(err)
		tracer.End()
	}()

	data, _, err := p.loadValidationAccount(ctx, address)
	if err != nil {
		return nil, err
	}

	return decodeLists(data)
}

// ResolveInstruction appends the accounts required by the list for d in the
// validation account at address to ix.
func (p *Provider) ResolveInstruction(
	ctx context.Context,
	address ed25519.PublicKey,
	ix *solana.Instruction,
	d tlv.Discriminator,
) (err error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "ResolveInstruction")
	defer func() {
		tracer.OnError(err)
		tracer.End()
	}()

	start := time.Now()
	original := len(ix.Accounts)

	data, err := p.loadValidationData(ctx, address, ix.Program)
	if err != nil {
		return err
	}

	if err := accountresolution.ExtendInstruction(ix, data, d); err != nil {
		p.log.WithError(err).WithFields(logrus.Fields{
			"method":        "ResolveInstruction",
			"address":       solana.PublicKeyToString(address),
			"discriminator": d.String(),
		}).Debug("failure resolving instruction")
		return err
	}

	metrics.RecordDuration(ctx, resolveDurationMetricName, time.Since(start))
	metrics.RecordCount(ctx, resolvedAccountsMetricName, uint64(len(ix.Accounts)-original))
	tracer.AddAttribute("resolved_accounts", len(ix.Accounts)-original)

	return nil
}

// ResolveInstructionWithAccountInfos is like ResolveInstruction, and also
// appends the account info of every resolved account to infos. Infos are taken
// from pool. If pool is empty and a client is configured, they're fetched from
// the chain.
func (p *Provider) ResolveInstructionWithAccountInfos(
	ctx context.Context,
	address ed25519.PublicKey,
	ix *solana.Instruction,
	infos *[]solana.AccountInfo,
	d tlv.Discriminator,
	pool []solana.AccountInfo,
) (err error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "ResolveInstructionWithAccountInfos")
	defer func() {
		tracer.OnError(err)
		tracer.End()
	}()

	log := p.log.WithFields(logrus.Fields{
		"method":        "ResolveInstructionWithAccountInfos",
		"address":       solana.PublicKeyToString(address),
		"discriminator": d.String(),
	})

	start := time.Now()
	original := len(ix.Accounts)

	data, err := p.loadValidationData(ctx, address, ix.Program)
	if err != nil {
		return err
	}

	if len(pool) == 0 && p.client != nil {
		pool, err = p.fetchAccountInfos(ctx, ix, data, d)
		if err != nil {
			log.WithError(err).Warn("failure fetching account infos")
			return err
		}
	}

	if err := accountresolution.ExtendInstructionAndAccountInfos(ix, infos, data, d, pool); err != nil {
		log.WithError(err).Debug("failure resolving instruction")
		return err
	}

	metrics.RecordDuration(ctx, resolveDurationMetricName, time.Since(start))
	metrics.RecordCount(ctx, resolvedAccountsMetricName, uint64(len(ix.Accounts)-original))
	tracer.AddAttribute("resolved_accounts", len(ix.Accounts)-original)

	return nil
}

// fetchAccountInfos loads the account infos for the accounts ix resolves to.
// Each info carries the signer and writable flags of its resolved meta.
func (p *Provider) fetchAccountInfos(ctx context.Context, ix *solana.Instruction, data []byte, d tlv.Discriminator) ([]solana.AccountInfo, error) {
	resolved := solana.Instruction{
		Program:  ix.Program,
		Accounts: ix.Accounts,
		Data:     ix.Data,
	}
	if err := accountresolution.ExtendInstruction(&resolved, data, d); err != nil {
		return nil, err
	}

	metas := resolved.Accounts[len(ix.Accounts):]
	keys := make([]ed25519.PublicKey, len(metas))
	for i, meta := range metas {
		keys[i] = meta.PublicKey
	}

	var fetched []*solana.AccountInfo
	_, err := p.retrier.Retry(ctx, func() (err error) {
		fetched, err = p.client.GetMultipleAccounts(keys, p.commitment)
		return err
	})
	if err != nil {
		return nil, err
	}

	var pool []solana.AccountInfo
	for i, info := range fetched {
		if info == nil {
			continue
		}

		info.IsSigner = metas[i].IsSigner
		info.IsWritable = metas[i].IsWritable
		pool = append(pool, *info)
	}
	return pool, nil
}

// loadValidationData returns the data of the validation account at address,
// which must be owned by program.
func (p *Provider) loadValidationData(ctx context.Context, address, program ed25519.PublicKey) ([]byte, error) {
	data, owner, err := p.loadValidationAccount(ctx, address)
	if err != nil {
		return nil, err
	}

	if !bytes.Equal(owner, program) {
		return nil, accountresolution.ErrIncorrectAccount
	}

	return data, nil
}

func (p *Provider) loadValidationAccount(ctx context.Context, address ed25519.PublicKey) ([]byte, ed25519.PublicKey, error) {
	record, err := p.store.Get(ctx, solana.PublicKeyToString(address))
	if err == nil {
		owner, err := solana.PublicKeyFromString(record.Program)
		if err != nil {
			return nil, nil, err
		}
		return record.Data, owner, nil
	} else if err != validationstore.ErrNotFound {
		return nil, nil, err
	}

	if p.client == nil {
		return nil, nil, ErrValidationAccountNotFound
	}

	var info solana.AccountInfo
	_, err = p.retrier.Retry(ctx, func() (err error) {
		info, err = p.client.GetAccountInfo(address, p.commitment)
		return err
	})
	if err == solana.ErrNoAccountInfo {
		return nil, nil, ErrValidationAccountNotFound
	} else if err != nil {
		return nil, nil, errors.Wrap(err, "error fetching validation account")
	}

	return info.Data, info.Owner, nil
}

func decodeLists(data []byte) ([]List, error) {
	state, err := tlv.Unpack(data)
	if err != nil {
		return nil, err
	}

	discriminators, err := state.Discriminators()
	if err != nil {
		return nil, err
	}

	res := make([]List, len(discriminators))
	for i, d := range discriminators {
		list, err := accountresolution.Unpack(data, d)
		if err != nil {
			return nil, err
		}

		requirements, err := list.Requirements()
		if err != nil {
			return nil, errors.Wrapf(err, "error decoding list for %s", d)
		}

		res[i] = List{
			Discriminator: d,
			Requirements:  requirements,
			Capacity:      list.Capacity(),
		}
	}
	return res, nil
}

// rebuildWithList re-encodes every list in data into a new buffer, replacing
// the list for d with requirements.
func rebuildWithList(data []byte, d tlv.Discriminator, requirements []accountresolution.AccountRequirement) ([]byte, error) {
	lists, err := decodeLists(data)
	if err != nil {
		return nil, err
	}

	var size int
	for i := range lists {
		if lists[i].Discriminator == d {
			lists[i].Requirements = requirements
		}

		listSize, err := accountresolution.SizeOf(len(lists[i].Requirements))
		if err != nil {
			return nil, err
		}
		size += listSize
	}

	rebuilt := make([]byte, size)
	for _, list := range lists {
		if err := accountresolution.InitWithRequirements(rebuilt, list.Discriminator, list.Requirements); err != nil {
			return nil, err
		}
	}
	return rebuilt, nil
}
