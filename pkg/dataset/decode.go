package dataset

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/nlpodyssey/gopickle/pickle"
	"gopkg.in/yaml.v3"
)

func decompress(r io.Reader, compression string) (io.ReadCloser, error) {
	switch compression {
	case CompressionNone:
		return io.NopCloser(r), nil
	case CompressionGzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("error creating gzip reader: %w", err)
		}
		return zr, nil
	case CompressionZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("error creating zstd reader: %w", err)
		}
		return zr.IOReadCloser(), nil
	default:
		return nil, fmt.Errorf("unsupported compression: %s", compression)
	}
}

func decode(r io.Reader, encoding string) (Collection, error) {
	var c Collection
	switch encoding {
	case EncodingJSON:
		if err := json.NewDecoder(r).Decode(&c); err != nil {
			return nil, fmt.Errorf("error decoding JSON collection: %w", err)
		}
	case EncodingYAML:
		if err := yaml.NewDecoder(r).Decode(&c); err != nil {
			return nil, fmt.Errorf("error decoding YAML collection: %w", err)
		}
	case EncodingPickle:
		u := pickle.NewUnpickler(r)
		v, err := u.Load()
		if err != nil {
			return nil, fmt.Errorf("error unpickling collection: %w", err)
		}
		if c, err = fromPickle(v); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedEncoding, encoding)
	}
	return c, nil
}

// pySequence matches the list and tuple types produced by the unpickler.
type pySequence interface {
	Len() int
	Get(i int) interface{}
}

func sequenceItems(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case pySequence:
		out := make([]any, t.Len())
		for i := range out {
			out[i] = t.Get(i)
		}
		return out, true
	default:
		return nil, false
	}
}

func pyString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case []byte:
		return string(t), true
	default:
		return "", false
	}
}

func fromPickle(v any) (Collection, error) {
	items, ok := sequenceItems(v)
	if !ok {
		return nil, fmt.Errorf("pickled collection must be a list, got %T", v)
	}

	c := make(Collection, 0, len(items))
	for i, item := range items {
		if s, ok := pyString(item); ok {
			c = append(c, Single(s))
			continue
		}

		seq, ok := sequenceItems(item)
		if !ok {
			return nil, fmt.Errorf("entry %d: expected str or list of str, got %T", i, item)
		}
		records := make([]string, 0, len(seq))
		for j, r := range seq {
			s, ok := pyString(r)
			if !ok {
				return nil, fmt.Errorf("entry %d candidate %d: expected str, got %T", i, j, r)
			}
			records = append(records, s)
		}
		c = append(c, Seq(records...))
	}
	return c, nil
}
