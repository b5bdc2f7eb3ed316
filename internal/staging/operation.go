package staging

import (
	"encoding/json"
	"fmt"

	"github.com/Klingon-tech/klingnet-cli/pkg/tx"
	"github.com/Klingon-tech/klingnet-cli/pkg/types"
)

// OpKind is the tag byte of an operation record.
type OpKind byte

const (
	OpAddInput     OpKind = 1
	OpAddOutput    OpKind = 2
	OpAddChange    OpKind = 3
	OpRemoveInput  OpKind = 4
	OpRemoveOutput OpKind = 5
	OpRemoveChange OpKind = 6
	OpSignature    OpKind = 7
	OpFinalize     OpKind = 8
)

func (k OpKind) String() string {
	switch k {
	case OpAddInput:
		return "add-input"
	case OpAddOutput:
		return "add-output"
	case OpAddChange:
		return "add-change"
	case OpRemoveInput:
		return "remove-input"
	case OpRemoveOutput:
		return "remove-output"
	case OpRemoveChange:
		return "remove-change"
	case OpSignature:
		return "signature"
	case OpFinalize:
		return "finalize"
	}
	return fmt.Sprintf("op(%d)", byte(k))
}

// Input is a spent output with the value the user expects it to carry.
type Input struct {
	TxID  types.Hash `json:"txid" yaml:"txid"`
	Index uint32     `json:"index" yaml:"index"`
	Value types.Coin `json:"value" yaml:"value"`
}

// Outpoint returns the output the input spends.
func (in Input) Outpoint() types.Outpoint {
	return types.Outpoint{TxID: in.TxID, Index: in.Index}
}

// Change is the address receiving what inputs leave over.
type Change struct {
	Address types.Address `json:"address" yaml:"address"`
}

// Operation is one edit of a staging transaction. Only the field matching
// Kind is set.
type Operation struct {
	Kind     OpKind
	Input    Input
	Outpoint types.Outpoint
	Output   tx.Output
	Index    uint32
	Change   Change
	Witness  tx.Witness
}

type removeOutput struct {
	Index uint32 `json:"index"`
}

// Encode returns the tag byte followed by the JSON body.
func (op Operation) Encode() ([]byte, error) {
	var body any
	switch op.Kind {
	case OpAddInput:
		body = op.Input
	case OpAddOutput:
		body = op.Output
	case OpAddChange, OpRemoveChange:
		body = op.Change
	case OpRemoveInput:
		body = op.Outpoint
	case OpRemoveOutput:
		body = removeOutput{Index: op.Index}
	case OpSignature:
		body = op.Witness
	case OpFinalize:
		return []byte{byte(op.Kind)}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidOperation, op.Kind)
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", op.Kind, err)
	}
	return append([]byte{byte(op.Kind)}, raw...), nil
}

// DecodeOperation parses a record written by Encode.
func DecodeOperation(raw []byte) (Operation, error) {
	if len(raw) == 0 {
		return Operation{}, fmt.Errorf("%w: empty record", ErrInvalidOperation)
	}
	op := Operation{Kind: OpKind(raw[0])}
	body := raw[1:]

	var target any
	switch op.Kind {
	case OpAddInput:
		target = &op.Input
	case OpAddOutput:
		target = &op.Output
	case OpAddChange, OpRemoveChange:
		target = &op.Change
	case OpRemoveInput:
		target = &op.Outpoint
	case OpRemoveOutput:
		var ro removeOutput
		if err := json.Unmarshal(body, &ro); err != nil {
			return Operation{}, fmt.Errorf("%w: %s: %v", ErrInvalidOperation, op.Kind, err)
		}
		op.Index = ro.Index
		return op, nil
	case OpSignature:
		target = &op.Witness
	case OpFinalize:
		if len(body) != 0 {
			return Operation{}, fmt.Errorf("%w: finalize with a body", ErrInvalidOperation)
		}
		return op, nil
	default:
		return Operation{}, fmt.Errorf("%w: unknown %s", ErrInvalidOperation, op.Kind)
	}
	if err := json.Unmarshal(body, target); err != nil {
		return Operation{}, fmt.Errorf("%w: %s: %v", ErrInvalidOperation, op.Kind, err)
	}
	return op, nil
}
