// Package dataset loads collections of structure records produced by the
// sampling pipeline. A collection is an ordered list of entries; an entry is
// either a single record or a sequence of candidate records.
package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

var (
	// ErrEmptyEntry is returned when an entry carries no records.
	ErrEmptyEntry = errors.New("entry has no records")
	// ErrNotFlat is returned when a collection expected to hold single records holds a sequence.
	ErrNotFlat = errors.New("collection entry is a sequence")
)

// Entry is one observation of a collection.
type Entry struct {
	Records  []string
	Sequence bool
}

// Single builds an entry holding one record.
func Single(record string) Entry {
	return Entry{Records: []string{record}}
}

// Seq builds an entry holding an ordered list of candidate records.
func Seq(records ...string) Entry {
	return Entry{Records: records, Sequence: true}
}

// Candidate returns the record for zero-based attempt k. A single-record
// entry returns its record for every k. The bool is false when a sequence
// holds fewer than k+1 records.
func (e Entry) Candidate(k int) (string, bool) {
	if len(e.Records) == 0 || k < 0 {
		return "", false
	}
	if !e.Sequence {
		return e.Records[0], true
	}
	if k >= len(e.Records) {
		return "", false
	}
	return e.Records[k], true
}

func (e *Entry) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*e = Single(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err != nil {
		return fmt.Errorf("entry must be a string or a list of strings: %w", err)
	}
	*e = Seq(list...)
	return nil
}

func (e Entry) MarshalJSON() ([]byte, error) {
	if e.Sequence {
		return json.Marshal(e.Records)
	}
	if len(e.Records) == 0 {
		return nil, ErrEmptyEntry
	}
	return json.Marshal(e.Records[0])
}

func (e *Entry) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		*e = Single(n.Value)
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := n.Decode(&list); err != nil {
			return fmt.Errorf("decoding entry sequence at line %d: %w", n.Line, err)
		}
		*e = Seq(list...)
		return nil
	default:
		return fmt.Errorf("entry at line %d must be a string or a list of strings", n.Line)
	}
}

// Collection is an ordered list of entries.
type Collection []Entry

// Flat returns the single record of every entry.
func (c Collection) Flat() ([]string, error) {
	out := make([]string, 0, len(c))
	for i, e := range c {
		if e.Sequence {
			return nil, fmt.Errorf("entry %d: %w", i, ErrNotFlat)
		}
		if len(e.Records) == 0 {
			return nil, fmt.Errorf("entry %d: %w", i, ErrEmptyEntry)
		}
		out = append(out, e.Records[0])
	}
	return out, nil
}

// Sequences returns the number of entries holding a candidate sequence.
func (c Collection) Sequences() int {
	n := 0
	for _, e := range c {
		if e.Sequence {
			n++
		}
	}
	return n
}

// Load reads the collection at uri. The scheme selects the source (local
// file, http(s), s3) and the extension selects compression and encoding.
func Load(ctx context.Context, uri string, opt Options) (Collection, error) {
	src, err := Parse(uri)
	if err != nil {
		return nil, err
	}

	rc, err := src.open(ctx, opt)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", uri, err)
	}
	defer rc.Close()

	r, err := decompress(rc, src.Compression)
	if err != nil {
		return nil, fmt.Errorf("decompressing %s: %w", uri, err)
	}
	defer r.Close()

	c, err := decode(r, src.Encoding)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", uri, err)
	}

	slog.Debug("collection loaded", "uri", uri, "entries", len(c), "sequences", c.Sequences())
	return c, nil
}

// LoadPair reads the true and generated collections concurrently.
func LoadPair(ctx context.Context, trueURI, genURI string, opt Options) (Collection, Collection, error) {
	var trueSet, genSet Collection

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		trueSet, err = Load(gctx, trueURI, opt)
		return err
	})
	g.Go(func() error {
		var err error
		genSet, err = Load(gctx, genURI, opt)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return trueSet, genSet, nil
}
