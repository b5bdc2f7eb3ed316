package blockchain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidName             = errors.New("invalid blockchain name")
	ErrAlreadyExists           = errors.New("blockchain already exists")
	ErrConfigNotFound          = errors.New("blockchain config not found")
	ErrInvalidBlockHash        = errors.New("block hash is not in the local blockchain")
	ErrBlockNotFound           = errors.New("block not found")
	ErrForwardHashDoesNotExist = errors.New("cannot forward to a block that is not in the local blockchain")
	ErrPeerExists              = errors.New("remote already exists")
	ErrPeerNotFound            = errors.New("remote not found")
	ErrWrongNetwork            = errors.New("remote serves a different network")
	ErrForeignChain            = errors.New("remote chain does not descend from the local genesis")
	ErrBlockHashMismatch       = errors.New("remote returned a block with a different hash")
	ErrInvalidGenesisPrevHash  = errors.New("genesis block has an unexpected parent")
	ErrEpochNotFinished        = errors.New("epoch is not finished")
	ErrBlockchainInvalid       = errors.New("blockchain is invalid")
)

// BlockchainInvalidError reports how many blocks failed verification.
type BlockchainInvalidError struct {
	Count int
}

func (e *BlockchainInvalidError) Error() string {
	return fmt.Sprintf("blockchain is invalid: %d bad block(s)", e.Count)
}

// Is makes errors.Is(err, ErrBlockchainInvalid) hold.
func (e *BlockchainInvalidError) Is(target error) bool {
	return target == ErrBlockchainInvalid
}
