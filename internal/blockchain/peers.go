package blockchain

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-cli/config"
	"github.com/Klingon-tech/klingnet-cli/internal/blockstore"
)

func remoteTag(alias string) string {
	return "remote/" + alias
}

// Peers returns the configured remotes.
func (bc *Blockchain) Peers() []config.Peer {
	return bc.config.Peers
}

// Peer returns the remote named alias.
func (bc *Blockchain) Peer(alias string) (config.Peer, error) {
	for _, p := range bc.config.Peers {
		if p.Name == alias {
			return p, nil
		}
	}
	return config.Peer{}, fmt.Errorf("%w: %s", ErrPeerNotFound, alias)
}

// AddPeer registers a remote. Its tip starts at genesis, since nothing
// more is known about it yet.
func (bc *Blockchain) AddPeer(alias, endpoint string) error {
	if err := ValidateName(alias); err != nil {
		return err
	}
	if _, err := bc.Peer(alias); err == nil {
		return fmt.Errorf("%w: %s", ErrPeerExists, alias)
	}
	bc.config.Peers = append(bc.config.Peers, config.Peer{Name: alias, Endpoint: endpoint})
	if err := bc.store.WriteTag(remoteTag(alias), bc.config.Genesis); err != nil {
		return err
	}
	return bc.Save()
}

// RemovePeer forgets a remote and its tip.
func (bc *Blockchain) RemovePeer(alias string) error {
	if _, err := bc.Peer(alias); err != nil {
		return err
	}
	kept := bc.config.Peers[:0]
	for _, p := range bc.config.Peers {
		if p.Name != alias {
			kept = append(kept, p)
		}
	}
	bc.config.Peers = kept
	if err := bc.store.RemoveTag(remoteTag(alias)); err != nil && !errors.Is(err, blockstore.ErrNoSuchTag) {
		return err
	}
	return bc.Save()
}

// RemoteTip returns the last known tip of a remote.
func (bc *Blockchain) RemoteTip(alias string) (BlockRef, bool, error) {
	return bc.refFromTag(remoteTag(alias))
}
