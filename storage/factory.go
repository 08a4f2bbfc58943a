package storage

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/ruteri/jit-activation-gateway/interfaces"
)

const (
	defaultS3Region   = "us-east-1"
	defaultVaultField = "content"
)

// SourceFor creates a config source from a location URI. A URI without a
// scheme is a local file path.
func SourceFor(locationURI string, log *slog.Logger) (interfaces.ConfigSource, error) {
	if !strings.Contains(locationURI, "://") {
		return NewFileSource(locationURI, log), nil
	}

	u, err := url.Parse(locationURI)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrInvalidLocationURI, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "file":
		return createFileSource(u, log)
	case "s3":
		return createS3Source(u, log)
	case "vault":
		return createVaultSource(u, log)
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", interfaces.ErrInvalidLocationURI, u.Scheme)
	}
}

// SourcesFor parses a comma-separated list of location URIs into a single
// source that falls back through them in order.
func SourcesFor(locationURIs string, log *slog.Logger) (interfaces.ConfigSource, error) {
	var sources []interfaces.ConfigSource
	for _, uri := range strings.Split(locationURIs, ",") {
		uri = strings.TrimSpace(uri)
		if uri == "" {
			continue
		}
		src, err := SourceFor(uri, log)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}

	switch len(sources) {
	case 0:
		return nil, fmt.Errorf("%w: no location given", interfaces.ErrInvalidLocationURI)
	case 1:
		return sources[0], nil
	default:
		return NewMultiSource(sources, log), nil
	}
}

// createFileSource handles file:///absolute/path and file://relative/path.
func createFileSource(u *url.URL, log *slog.Logger) (interfaces.ConfigSource, error) {
	path := u.Host + u.Path
	if path == "" {
		return nil, fmt.Errorf("%w: empty file path", interfaces.ErrInvalidLocationURI)
	}
	return NewFileSource(path, log), nil
}

// createS3Source handles s3://[ACCESS_KEY:SECRET_KEY@]bucket/key?region=us-west-2&endpoint=http://minio:9000
func createS3Source(u *url.URL, log *slog.Logger) (interfaces.ConfigSource, error) {
	bucket := u.Host
	key := strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return nil, fmt.Errorf("%w: expected s3://bucket/key", interfaces.ErrInvalidLocationURI)
	}

	query := u.Query()
	region := query.Get("region")
	if region == "" {
		region = defaultS3Region
	}

	var accessKey, secretKey string
	if u.User != nil {
		accessKey = u.User.Username()
		secretKey, _ = u.User.Password()
	}

	return NewS3Source(S3Options{
		Bucket:    bucket,
		Key:       key,
		Region:    region,
		Endpoint:  query.Get("endpoint"),
		AccessKey: accessKey,
		SecretKey: secretKey,
	}, log)
}

// createVaultSource handles vault://host:port/mount/path?field=name&tls=false
func createVaultSource(u *url.URL, log *slog.Logger) (interfaces.ConfigSource, error) {
	mount, path, ok := strings.Cut(strings.Trim(u.Path, "/"), "/")
	if u.Host == "" || !ok || mount == "" || path == "" {
		return nil, fmt.Errorf("%w: expected vault://host/mount/path", interfaces.ErrInvalidLocationURI)
	}

	query := u.Query()
	scheme := "https"
	if query.Get("tls") == "false" {
		scheme = "http"
	}
	field := query.Get("field")
	if field == "" {
		field = defaultVaultField
	}

	return NewVaultSource(fmt.Sprintf("%s://%s", scheme, u.Host), mount, path, field, log)
}
