package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/mchmarny/celleval/pkg/net"
)

const (
	SchemeFile  = "file"
	SchemeHTTP  = "http"
	SchemeHTTPS = "https"
	SchemeS3    = "s3"

	CompressionNone = ""
	CompressionGzip = "gzip"
	CompressionZstd = "zstd"

	EncodingPickle = "pickle"
	EncodingJSON   = "json"
	EncodingYAML   = "yaml"
)

var (
	ErrUnsupportedScheme   = errors.New("unsupported source scheme")
	ErrUnsupportedEncoding = errors.New("unsupported encoding")
)

// Options configures remote sources.
type Options struct {
	// Token is sent as a bearer token to http(s) sources.
	Token string
	S3    S3Config
}

// Source is a parsed collection location.
type Source struct {
	Scheme      string
	Location    string
	Bucket      string
	Key         string
	Compression string
	Encoding    string
}

// Parse resolves the scheme, compression and encoding of uri.
func Parse(uri string) (*Source, error) {
	if uri == "" {
		return nil, errors.New("collection location required")
	}

	s := &Source{Scheme: SchemeFile, Location: uri}
	name := uri

	if i := strings.Index(uri, "://"); i > 0 {
		u, err := url.Parse(uri)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", uri, err)
		}
		s.Scheme = strings.ToLower(u.Scheme)
		name = u.Path

		switch s.Scheme {
		case SchemeFile:
			s.Location = u.Path
		case SchemeHTTP, SchemeHTTPS:
		case SchemeS3:
			s.Bucket = u.Host
			s.Key = strings.TrimPrefix(u.Path, "/")
			if s.Bucket == "" || s.Key == "" {
				return nil, fmt.Errorf("s3 location requires bucket and key: %s", uri)
			}
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, u.Scheme)
		}
	}

	name = strings.ToLower(path.Base(name))
	switch path.Ext(name) {
	case ".gz", ".gzip":
		s.Compression = CompressionGzip
		name = strings.TrimSuffix(name, path.Ext(name))
	case ".zst", ".zstd":
		s.Compression = CompressionZstd
		name = strings.TrimSuffix(name, path.Ext(name))
	}

	switch path.Ext(name) {
	case ".pkl", ".pickle":
		s.Encoding = EncodingPickle
	case ".json":
		s.Encoding = EncodingJSON
	case ".yaml", ".yml":
		s.Encoding = EncodingYAML
	default:
		return nil, fmt.Errorf("%w: cannot infer encoding from %s (want .pkl, .json or .yaml)", ErrUnsupportedEncoding, uri)
	}

	return s, nil
}

func (s *Source) open(ctx context.Context, opt Options) (io.ReadCloser, error) {
	switch s.Scheme {
	case SchemeFile:
		return os.Open(s.Location)
	case SchemeHTTP, SchemeHTTPS:
		c, err := net.GetClient(ctx, opt.Token)
		if err != nil {
			return nil, err
		}
		return net.Open(ctx, c, s.Location)
	case SchemeS3:
		return openS3(ctx, s.Bucket, s.Key, opt.S3)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, s.Scheme)
	}
}
