// Package fuzztests houses Go fuzz harnesses that exercise artifact
// decoding, the boundary where untrusted bytes enter the backend. Its goal
// is to smoke test robustness and guard against panics on arbitrary or
// truncated inputs.
//
// It does not generate corpora, write files, or run the CLI.
package fuzztests
