// Package reparse keeps a parse tree current while its source is edited.
// An edit confined to one mustache region re-parses only that region; any
// other edit parses the document again.
package reparse

import (
	"errors"
	"fmt"

	"github.com/aledsdavies/svelteparse/runtime/parser"
)

// ErrEditOutOfRange is returned for an edit that does not fit the source.
var ErrEditOutOfRange = errors.New("edit out of range")

// Edit replaces Delete bytes at Offset with Insert.
type Edit struct {
	Offset int
	Delete int
	Insert string
}

// Result describes what Apply did.
type Result struct {
	Region  int  // Index of the re-parsed region, or -1 after a full parse
	Full    bool // The whole document was parsed again
	Changed bool // The re-parsed region's fingerprint differs; always true when Full
}

// Document is a source buffer with its parse tree.
type Document struct {
	opts []parser.ParserOpt
	src  []byte
	tree *parser.ParseTree
}

// Open parses src. opts are reused for every reparse.
func Open(src []byte, opts ...parser.ParserOpt) *Document {
	src = append([]byte(nil), src...)
	return &Document{
		opts: opts,
		src:  src,
		tree: parser.Parse(src, opts...),
	}
}

// Source returns the current source. It must not be modified.
func (d *Document) Source() []byte { return d.src }

// Tree returns the current parse tree. Apply updates it in place when it
// re-parses a single region, and replaces it after a full parse.
func (d *Document) Tree() *parser.ParseTree { return d.tree }

// Fingerprint returns the fingerprint of region i of the current tree.
func (d *Document) Fingerprint(i int) ([32]byte, error) {
	return Fingerprint(d.tree, i)
}

// Apply edits the source and brings the tree up to date.
func (d *Document) Apply(e Edit) (Result, error) {
	if e.Offset < 0 || e.Delete < 0 || e.Offset > len(d.src) || e.Delete > len(d.src)-e.Offset {
		return Result{Region: -1}, fmt.Errorf("%w: [%d, %d) in %d bytes",
			ErrEditOutOfRange, e.Offset, e.Offset+e.Delete, len(d.src))
	}

	next := make([]byte, 0, len(d.src)-e.Delete+len(e.Insert))
	next = append(next, d.src[:e.Offset]...)
	next = append(next, e.Insert...)
	next = append(next, d.src[e.Offset+e.Delete:]...)

	if i := d.regionFor(e); i >= 0 {
		before, err := Fingerprint(d.tree, i)
		if err != nil {
			return Result{Region: -1}, err
		}
		err = d.tree.SpliceRegion(i, next)
		switch {
		case err == nil:
			d.src = next
			after, err := Fingerprint(d.tree, i)
			if err != nil {
				return Result{Region: i}, err
			}
			return Result{Region: i, Changed: before != after}, nil
		case !errors.Is(err, parser.ErrNotSpliceable):
			return Result{Region: -1}, err
		}
	}

	d.src = next
	d.tree = parser.Parse(next, d.opts...)
	return Result{Region: -1, Full: true, Changed: true}, nil
}

// regionFor returns the region whose braces strictly enclose the edited
// range, or -1.
func (d *Document) regionFor(e Edit) int {
	i := d.tree.RegionIndex(e.Offset)
	if i < 0 {
		return -1
	}
	r := d.tree.Regions[i].Span
	if r.Start < e.Offset && e.Offset+e.Delete < r.End {
		return i
	}
	return -1
}
