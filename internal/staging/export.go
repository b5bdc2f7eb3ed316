package staging

import (
	"encoding/hex"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Export is the portable form of a staging transaction. It carries the
// resulting transaction, not the history of edits.
type Export struct {
	StagingID     ID          `yaml:"staging_id"`
	Magic         string      `yaml:"magic"`
	ProtocolMagic uint32      `yaml:"protocol_magic"`
	Transaction   Transaction `yaml:"transaction"`
}

// Export returns the portable form of s.
func (s *Staging) Export() Export {
	return Export{
		StagingID:     s.id,
		Magic:         hex.EncodeToString(fileMagic),
		ProtocolMagic: s.magic,
		Transaction:   s.tx,
	}
}

// WriteExport writes e as YAML.
func WriteExport(w io.Writer, e Export) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(e); err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	return enc.Close()
}

// ReadExport parses a YAML export.
func ReadExport(r io.Reader) (Export, error) {
	var e Export
	if err := yaml.NewDecoder(r).Decode(&e); err != nil {
		return Export{}, fmt.Errorf("decode export: %w", err)
	}
	return e, nil
}

// Import recreates an exported staging transaction under root, keeping its
// id. The edits are replayed so the file holds a valid history.
func Import(root string, e Export) (*Staging, error) {
	if e.Magic != hex.EncodeToString(fileMagic) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMagic, e.Magic)
	}
	s, err := create(root, e.StagingID, e.ProtocolMagic)
	if err != nil {
		return nil, err
	}
	if err := s.replayExport(e.Transaction); err != nil {
		s.Destroy()
		return nil, fmt.Errorf("import %s: %w", e.StagingID, err)
	}
	return s, nil
}

func (s *Staging) replayExport(t Transaction) error {
	for _, in := range t.Inputs {
		if err := s.AddInput(in); err != nil {
			return err
		}
	}
	for _, out := range t.Outputs {
		if err := s.AddOutput(out); err != nil {
			return err
		}
	}
	for _, c := range t.Changes {
		if err := s.AddChange(c.Address); err != nil {
			return err
		}
	}
	if !t.Finalized {
		if len(t.Witnesses) > 0 {
			return fmt.Errorf("%w: witnesses on an open transaction", ErrNotFinalized)
		}
		return nil
	}
	if err := s.Finalize(); err != nil {
		return err
	}
	for _, w := range t.Witnesses {
		if err := s.AddSignature(w); err != nil {
			return err
		}
	}
	return nil
}
