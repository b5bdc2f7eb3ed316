package rpcclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Klingon-tech/klingnet-cli/pkg/block"
	"github.com/Klingon-tech/klingnet-cli/pkg/tx"
	"github.com/Klingon-tech/klingnet-cli/pkg/types"
)

// fakeNode answers JSON-RPC requests with handler's result or error.
func fakeNode(t *testing.T, handler func(method string, params json.RawMessage) (interface{}, *rpcError)) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req struct {
			Method string          `json:"method"`
			Params json.RawMessage `json:"params"`
			ID     int64           `json:"id"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("bad request body: %v", err)
			return
		}
		result, rpcErr := handler(req.Method, req.Params)
		resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
		if rpcErr != nil {
			resp["error"] = rpcErr
		} else {
			resp["result"] = result
		}
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return New(srv.URL)
}

func testBlock() *block.Block {
	return block.NewBlock(&block.Header{
		Version:       block.CurrentVersion,
		ProtocolMagic: 42,
		PrevHash:      types.Hash{9},
		Date:          block.Date{Epoch: 3, Slot: 7},
	}, nil)
}

func TestChainInfo(t *testing.T) {
	tip := types.Hash{0xAA}
	c := fakeNode(t, func(method string, _ json.RawMessage) (interface{}, *rpcError) {
		if method != "chain_getInfo" {
			t.Errorf("method = %s", method)
		}
		return ChainInfo{ChainID: "test", ProtocolMagic: 42, TipHash: tip, TipDate: block.Date{Epoch: 1, Slot: 2}}, nil
	})

	info, err := c.ChainInfo(context.Background())
	if err != nil {
		t.Fatalf("ChainInfo: %v", err)
	}
	if info.TipHash != tip || info.TipDate.Slot != 2 {
		t.Errorf("info = %+v", info)
	}
}

func TestBlockByHash(t *testing.T) {
	blk := testBlock()
	c := fakeNode(t, func(method string, params json.RawMessage) (interface{}, *rpcError) {
		var p blockByHashParams
		json.Unmarshal(params, &p)
		if p.Hash != blk.Hash() {
			return nil, &rpcError{Code: -32602, Message: "unknown block"}
		}
		return blk, nil
	})

	got, err := c.BlockByHash(context.Background(), blk.Hash())
	if err != nil {
		t.Fatalf("BlockByHash: %v", err)
	}
	if got.Hash() != blk.Hash() {
		t.Error("returned block hashes differently")
	}

	_, err = c.BlockByHash(context.Background(), types.Hash{1})
	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) || rpcErr.Code != -32602 {
		t.Fatalf("unknown block error = %v", err)
	}
}

func TestBlockByHash_Mismatch(t *testing.T) {
	blk := testBlock()
	c := fakeNode(t, func(string, json.RawMessage) (interface{}, *rpcError) {
		return blk, nil
	})
	_, err := c.BlockByHash(context.Background(), types.Hash{1})
	if !errors.Is(err, ErrHashMismatch) {
		t.Fatalf("err = %v, want ErrHashMismatch", err)
	}
}

func TestSubmitTx(t *testing.T) {
	aux := &tx.TxAux{Tx: &tx.Transaction{
		Inputs:  []types.Outpoint{{TxID: types.Hash{1}, Index: 0}},
		Outputs: []tx.Output{{Value: 10}},
	}}
	c := fakeNode(t, func(method string, _ json.RawMessage) (interface{}, *rpcError) {
		if method != "tx_submit" {
			t.Errorf("method = %s", method)
		}
		return submitTxResult{TxID: aux.ID()}, nil
	})

	id, err := c.SubmitTx(context.Background(), aux)
	if err != nil {
		t.Fatalf("SubmitTx: %v", err)
	}
	if id != aux.ID() {
		t.Errorf("txid = %s, want %s", id, aux.ID())
	}
}

func TestCall_Cancelled(t *testing.T) {
	c := fakeNode(t, func(string, json.RawMessage) (interface{}, *rpcError) {
		return nil, nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.Call(ctx, "chain_getInfo", nil, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestCall_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	if err := New(srv.URL).Call(context.Background(), "x", nil, nil); err == nil {
		t.Fatal("expected an error for a 502 response")
	}
}
