package fuzztests

import (
	"testing"

	"cinder/internal/ast"
	"cinder/internal/testkit"
)

const maxFuzzInput = 1 << 16 // 64 KiB

func FuzzReadArtifact(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(_ *testing.T, input []byte) {
		if len(input) > maxFuzzInput {
			input = append([]byte(nil), input[:maxFuzzInput]...)
		} else {
			input = append([]byte(nil), input...)
		}

		program, err := ast.UnmarshalArtifact(input)
		if err != nil {
			return
		}
		// Anything that decodes must survive the structural checks
		// without panicking; failing them is fine.
		_ = testkit.CheckProgramInvariants(program)
	})
}

func FuzzArtifactRoundTrip(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		program, err := ast.UnmarshalArtifact(input)
		if err != nil {
			return
		}
		data, err := ast.MarshalArtifact(program)
		if err != nil {
			t.Fatalf("re-encode of decoded artifact failed: %v", err)
		}
		if _, err := ast.UnmarshalArtifact(data); err != nil {
			t.Fatalf("re-decode failed: %v", err)
		}
	})
}
