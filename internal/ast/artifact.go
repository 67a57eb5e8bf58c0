package ast

import (
	"bytes"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// The frontend hands programs to the backend as a msgpack artifact. The
// schema version is bumped whenever the node layout changes so stale
// artifacts are rejected instead of misread.
const (
	artifactMagic         = "CNPR"
	artifactSchemaVersion = uint16(1)
)

type artifactHeader struct {
	Magic  string
	Schema uint16
}

// WriteArtifact serializes a program to w.
func WriteArtifact(w io.Writer, p *Program) error {
	if p == nil {
		return fmt.Errorf("nil program")
	}
	enc := msgpack.NewEncoder(w)
	if err := enc.Encode(artifactHeader{Magic: artifactMagic, Schema: artifactSchemaVersion}); err != nil {
		return fmt.Errorf("encode artifact header: %w", err)
	}
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("encode program: %w", err)
	}
	return nil
}

// ReadArtifact deserializes a program from r, validating magic and schema.
func ReadArtifact(r io.Reader) (*Program, error) {
	dec := msgpack.NewDecoder(r)
	var hdr artifactHeader
	if err := dec.Decode(&hdr); err != nil {
		return nil, fmt.Errorf("decode artifact header: %w", err)
	}
	if hdr.Magic != artifactMagic {
		return nil, fmt.Errorf("not a cinder program artifact (magic %q)", hdr.Magic)
	}
	if hdr.Schema != artifactSchemaVersion {
		return nil, fmt.Errorf("artifact schema %d, want %d", hdr.Schema, artifactSchemaVersion)
	}
	var p Program
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("decode program: %w", err)
	}
	return &p, nil
}

// MarshalArtifact is a convenience wrapper over WriteArtifact.
func MarshalArtifact(p *Program) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteArtifact(&buf, p); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalArtifact is a convenience wrapper over ReadArtifact.
func UnmarshalArtifact(data []byte) (*Program, error) {
	return ReadArtifact(bytes.NewReader(data))
}
