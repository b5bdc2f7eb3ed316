package rpcclient

import (
	"context"
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-cli/pkg/block"
	"github.com/Klingon-tech/klingnet-cli/pkg/tx"
	"github.com/Klingon-tech/klingnet-cli/pkg/types"
)

// ErrHashMismatch is returned when a node answers with a different block
// than the one requested.
var ErrHashMismatch = errors.New("block hash mismatch")

// ChainInfo is the node's view of its chain.
type ChainInfo struct {
	ChainID       string     `json:"chain_id"`
	ProtocolMagic uint32     `json:"protocol_magic"`
	TipHash       types.Hash `json:"tip_hash"`
	TipDate       block.Date `json:"tip_date"`
}

// ChainInfo returns the remote tip.
func (c *Client) ChainInfo(ctx context.Context) (*ChainInfo, error) {
	var info ChainInfo
	if err := c.Call(ctx, "chain_getInfo", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

type blockByHashParams struct {
	Hash types.Hash `json:"hash"`
}

// BlockByHash fetches a block and checks that it hashes to hash.
func (c *Client) BlockByHash(ctx context.Context, hash types.Hash) (*block.Block, error) {
	var blk block.Block
	if err := c.Call(ctx, "chain_getBlockByHash", blockByHashParams{Hash: hash}, &blk); err != nil {
		return nil, err
	}
	if blk.Header == nil {
		return nil, fmt.Errorf("%w: missing header", block.ErrDecode)
	}
	if got := blk.Hash(); got != hash {
		return nil, fmt.Errorf("%w: asked %s, got %s", ErrHashMismatch, hash.Short(), got.Short())
	}
	return &blk, nil
}

type submitTxParams struct {
	Tx *tx.TxAux `json:"tx"`
}

type submitTxResult struct {
	TxID types.Hash `json:"txid"`
}

// SubmitTx sends a signed transaction to the node and returns the id it
// was accepted under.
func (c *Client) SubmitTx(ctx context.Context, aux *tx.TxAux) (types.Hash, error) {
	var res submitTxResult
	if err := c.Call(ctx, "tx_submit", submitTxParams{Tx: aux}, &res); err != nil {
		return types.Hash{}, err
	}
	if res.TxID != aux.ID() {
		return res.TxID, fmt.Errorf("node accepted transaction under id %s, expected %s", res.TxID, aux.ID())
	}
	return res.TxID, nil
}
