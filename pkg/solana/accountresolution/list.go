package accountresolution

import (
	"github.com/pkg/errors"

	"github.com/code-payments/account-resolution/pkg/solana"
	"github.com/code-payments/account-resolution/pkg/solana/listview"
	"github.com/code-payments/account-resolution/pkg/solana/tlv"
)

// SizeOf returns the size of a buffer holding a single list of numItems
// requirements, including its TLV header.
func SizeOf(numItems int) (int, error) {
	valueSize, err := listview.SizeOf(RequirementSize, numItems)
	if err != nil {
		return 0, err
	}
	return tlv.HeaderSize + valueSize, nil
}

// InitWithAccountMetas writes a list of fixed requirements for metas under d.
func InitWithAccountMetas(data []byte, d tlv.Discriminator, metas []solana.AccountMeta) error {
	requirements := make([]AccountRequirement, len(metas))
	for i, meta := range metas {
		requirements[i] = RequirementFromAccountMeta(meta)
	}
	return InitWithRequirements(data, d, requirements)
}

// InitWithAccountInfos writes a list of fixed requirements for infos under d.
// Only the key and flags of each info are stored.
func InitWithAccountInfos(data []byte, d tlv.Discriminator, infos []solana.AccountInfo) error {
	requirements := make([]AccountRequirement, len(infos))
	for i, info := range infos {
		requirements[i] = RequirementFromAccountInfo(info)
	}
	return InitWithRequirements(data, d, requirements)
}

// InitWithRequirements allocates an entry for d sized for exactly the provided
// requirements and writes them in order.
func InitWithRequirements(data []byte, d tlv.Discriminator, requirements []AccountRequirement) error {
	records, err := marshalRequirements(requirements)
	if err != nil {
		return err
	}

	valueSize, err := listview.SizeOf(RequirementSize, len(records))
	if err != nil {
		return err
	}

	state, err := tlv.Unpack(data)
	if err != nil {
		return errors.Wrap(err, "error unpacking tlv data")
	}

	value, err := state.Alloc(d, valueSize, false)
	if err != nil {
		return errors.Wrapf(err, "error allocating list for %s", d)
	}

	list, err := listview.Init(value, RequirementSize)
	if err != nil {
		return err
	}

	for _, record := range records {
		if err := list.Push(record); err != nil {
			return err
		}
	}

	return nil
}

// UpdateWithRequirements overwrites the list stored under d. The existing
// entry must be large enough to hold every requirement, otherwise
// listview.ErrBufferTooSmall is returned and the stored list is left as is.
func UpdateWithRequirements(data []byte, d tlv.Discriminator, requirements []AccountRequirement) error {
	records, err := marshalRequirements(requirements)
	if err != nil {
		return err
	}

	state, err := tlv.Unpack(data)
	if err != nil {
		return errors.Wrap(err, "error unpacking tlv data")
	}

	value, err := state.GetFirstBytes(d)
	if err != nil {
		return errors.Wrapf(err, "error getting list for %s", d)
	}

	list, err := listview.UnpackMut(value, RequirementSize)
	if err != nil {
		return err
	}

	if len(records) > list.Capacity() {
		return listview.ErrBufferTooSmall
	}

	list.Clear()
	for _, record := range records {
		if err := list.Push(record); err != nil {
			return err
		}
	}

	return nil
}

func marshalRequirements(requirements []AccountRequirement) ([][]byte, error) {
	records := make([][]byte, len(requirements))
	for i, r := range requirements {
		record, err := r.Marshal()
		if err != nil {
			return nil, errors.Wrapf(err, "invalid requirement at index %d", i)
		}
		records[i] = record
	}
	return records, nil
}

// RequirementList is a read only view over a list stored in a TLV buffer.
type RequirementList struct {
	view *listview.ListView
}

// Unpack returns the list stored under d. The view aliases data.
func Unpack(data []byte, d tlv.Discriminator) (*RequirementList, error) {
	state, err := tlv.Unpack(data)
	if err != nil {
		return nil, errors.Wrap(err, "error unpacking tlv data")
	}

	value, err := state.GetFirstBytes(d)
	if err != nil {
		return nil, errors.Wrapf(err, "error getting list for %s", d)
	}

	view, err := listview.Unpack(value, RequirementSize)
	if err != nil {
		return nil, err
	}

	return &RequirementList{view: view}, nil
}

// Len returns the number of stored requirements.
func (l *RequirementList) Len() int {
	return l.view.Len()
}

// Capacity returns the number of requirements the stored range can hold.
func (l *RequirementList) Capacity() int {
	return l.view.Capacity()
}

// Get decodes the requirement at index i.
func (l *RequirementList) Get(i int) (AccountRequirement, error) {
	record, ok := l.view.Get(i)
	if !ok {
		return AccountRequirement{}, ErrAccountNotFound
	}

	var r AccountRequirement
	if err := r.Unmarshal(record); err != nil {
		return AccountRequirement{}, err
	}
	return r, nil
}

// Requirements decodes every stored requirement, in order.
func (l *RequirementList) Requirements() ([]AccountRequirement, error) {
	requirements := make([]AccountRequirement, l.Len())
	for i := range requirements {
		r, err := l.Get(i)
		if err != nil {
			return nil, err
		}
		requirements[i] = r
	}
	return requirements, nil
}
