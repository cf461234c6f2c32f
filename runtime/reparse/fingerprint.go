package reparse

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"

	"github.com/aledsdavies/svelteparse/runtime/parser"
)

// fingerprintVersion is bumped whenever the summary layout changes.
const fingerprintVersion = 1

// regionSummary is the canonical form of a region that is hashed. Trivia is
// left out and diagnostic offsets are relative to the region start, so
// moving a region or reformatting its whitespace keeps its fingerprint.
type regionSummary struct {
	_           struct{} `cbor:",toarray"`
	Version     int
	Kind        string
	Tokens      []tokenSummary
	Diagnostics []diagnosticSummary
}

type tokenSummary struct {
	_    struct{} `cbor:",toarray"`
	Type string
	Text string
}

type diagnosticSummary struct {
	_        struct{} `cbor:",toarray"`
	Severity string
	Message  string
	Offset   int
}

var encMode cbor.EncMode

func init() {
	mode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("reparse: canonical CBOR options rejected: %v", err))
	}
	encMode = mode
}

// Fingerprint returns the BLAKE2b-256 hash of the canonical CBOR encoding of
// region i of tree.
func Fingerprint(tree *parser.ParseTree, i int) ([32]byte, error) {
	var sum [32]byte
	if i < 0 || i >= len(tree.Regions) {
		return sum, fmt.Errorf("no region %d", i)
	}
	r := tree.Regions[i]
	s := regionSummary{Version: fingerprintVersion, Kind: r.Kind.String()}
	if r.Tree != nil {
		for _, tok := range r.Tree.Tokens {
			if tok.Type.IsTrivia() {
				continue
			}
			s.Tokens = append(s.Tokens, tokenSummary{Type: tok.Type.String(), Text: string(tok.Text)})
		}
		for _, d := range r.Tree.Diagnostics {
			s.Diagnostics = append(s.Diagnostics, diagnosticSummary{
				Severity: d.Severity.String(),
				Message:  d.Message,
				Offset:   d.Span.Start - r.Span.Start,
			})
		}
	}

	data, err := encMode.Marshal(s)
	if err != nil {
		return sum, fmt.Errorf("CBOR encoding failed: %w", err)
	}
	hasher, err := blake2b.New256(nil)
	if err != nil {
		return sum, fmt.Errorf("create hasher: %w", err)
	}
	hasher.Write(data)
	copy(sum[:], hasher.Sum(nil))
	return sum, nil
}
