package accountresolution

import (
	"bytes"
	"crypto/ed25519"

	"github.com/sirupsen/logrus"

	"github.com/code-payments/account-resolution/pkg/solana"
	"github.com/code-payments/account-resolution/pkg/solana/tlv"
)

// ExtendInstruction appends the accounts required by the list stored under d
// to ix, in stored order. Requirements are resolved against the instruction's
// accounts and every account resolved before them. On error, ix is not
// modified.
func ExtendInstruction(ix *solana.Instruction, data []byte, d tlv.Discriminator) error {
	accounts, err := resolveAccounts(ix, data, d)
	if err != nil {
		return err
	}

	ix.Accounts = accounts
	return nil
}

// ExtendInstructionAndAccountInfos is like ExtendInstruction, and also
// appends the account info for every resolved account to infos. Account infos
// are taken from pool, which can be in any order. ErrIncorrectAccount is
// returned if a resolved account isn't in the pool. On error, neither ix nor
// infos are modified.
func ExtendInstructionAndAccountInfos(
	ix *solana.Instruction,
	infos *[]solana.AccountInfo,
	data []byte,
	d tlv.Discriminator,
	pool []solana.AccountInfo,
) error {
	log := logrus.StandardLogger().WithFields(logrus.Fields{
		"type":          "accountresolution/resolver",
		"method":        "ExtendInstructionAndAccountInfos",
		"discriminator": d.String(),
	})

	accounts, err := resolveAccounts(ix, data, d)
	if err != nil {
		return err
	}

	resolvedInfos := make([]solana.AccountInfo, len(*infos), len(*infos)+len(accounts)-len(ix.Accounts))
	copy(resolvedInfos, *infos)

	for _, meta := range accounts[len(ix.Accounts):] {
		info, ok := findAccountInfo(pool, meta.PublicKey)
		if !ok {
			log.WithField("account", solana.PublicKeyToString(meta.PublicKey)).Debug("resolved account not found in account info pool")
			return ErrIncorrectAccount
		}
		resolvedInfos = append(resolvedInfos, info.Clone())
	}

	ix.Accounts = accounts
	*infos = resolvedInfos
	return nil
}

func resolveAccounts(ix *solana.Instruction, data []byte, d tlv.Discriminator) ([]solana.AccountMeta, error) {
	log := logrus.StandardLogger().WithFields(logrus.Fields{
		"type":          "accountresolution/resolver",
		"program":       solana.PublicKeyToString(ix.Program),
		"discriminator": d.String(),
	})

	list, err := Unpack(data, d)
	if err != nil {
		log.WithError(err).Debug("failure unpacking requirement list")
		return nil, err
	}

	accounts := make([]solana.AccountMeta, len(ix.Accounts), len(ix.Accounts)+list.Len())
	copy(accounts, ix.Accounts)

	keys := make([]ed25519.PublicKey, len(ix.Accounts), len(ix.Accounts)+list.Len())
	copy(keys, ix.AccountKeys())

	for i := 0; i < list.Len(); i++ {
		requirement, err := list.Get(i)
		if err != nil {
			log.WithError(err).WithField("index", i).Debug("failure decoding requirement")
			return nil, err
		}

		meta, err := requirement.Resolve(ix.Program, keys, ix.Data)
		if err != nil {
			log.WithError(err).WithFields(logrus.Fields{
				"index":       i,
				"requirement": requirement.String(),
			}).Debug("failure resolving requirement")
			return nil, err
		}

		log.WithFields(logrus.Fields{
			"index":    i,
			"account":  solana.PublicKeyToString(meta.PublicKey),
			"signer":   meta.IsSigner,
			"writable": meta.IsWritable,
		}).Trace("resolved account")

		accounts = append(accounts, meta)
		keys = append(keys, meta.PublicKey)
	}

	return accounts, nil
}

func findAccountInfo(pool []solana.AccountInfo, address ed25519.PublicKey) (solana.AccountInfo, bool) {
	for _, info := range pool {
		if bytes.Equal(info.PublicKey, address) {
			return info, true
		}
	}
	return solana.AccountInfo{}, false
}
