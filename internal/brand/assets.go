// Package brand resolves the per-user branding assets that fill the logo and
// background placeholders of compositing templates.
package brand

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	defaultURLTTL = 7 * 24 * time.Hour

	logoObject       = "logo.png"
	backgroundObject = "background.png"
)

// objectSigner is the subset of *minio.Client used here.
type objectSigner interface {
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
}

type Assets struct {
	Logo       string
	Background string
}

type Option func(r *Resolver) error

// WithMinio serves assets from an S3 compatible bucket.
func WithMinio(endpoint, bucket, accessKey, secretKey, region string, useSSL bool) Option {
	return func(r *Resolver) error {
		client, err := minio.New(endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
			Secure: useSSL,
			Region: region,
		})
		if err != nil {
			return errors.Wrap(err, "failed to create object storage client")
		}
		r.signer = client
		r.bucket = bucket
		return nil
	}
}

func WithURLTTL(ttl time.Duration) Option {
	return func(r *Resolver) error {
		if ttl > 0 {
			r.ttl = ttl
		}
		return nil
	}
}

// WithDefaults sets the assets used when a user has not uploaded their own.
func WithDefaults(logo, background string) Option {
	return func(r *Resolver) error {
		r.defaults = Assets{Logo: logo, Background: background}
		return nil
	}
}

func withSigner(signer objectSigner, bucket string) Option {
	return func(r *Resolver) error {
		r.signer = signer
		r.bucket = bucket
		return nil
	}
}

type Resolver struct {
	signer   objectSigner
	bucket   string
	ttl      time.Duration
	defaults Assets
}

func NewResolver(opts ...Option) (*Resolver, error) {
	r := &Resolver{ttl: defaultURLTTL}
	for _, o := range opts {
		if err := o(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Resolve returns the user's assets, falling back to the defaults for any
// asset that is not in storage. Values may be empty when neither exists.
func (r *Resolver) Resolve(ctx context.Context, userID string) (Assets, error) {
	assets := r.defaults
	if r.signer == nil {
		return assets, nil
	}

	logo, err := r.sign(ctx, userID, logoObject)
	if err != nil {
		return Assets{}, err
	}
	if logo != "" {
		assets.Logo = logo
	}

	background, err := r.sign(ctx, userID, backgroundObject)
	if err != nil {
		return Assets{}, err
	}
	if background != "" {
		assets.Background = background
	}

	return assets, nil
}

// sign returns an empty string when the object does not exist.
func (r *Resolver) sign(ctx context.Context, userID, name string) (string, error) {
	object := objectKey(userID, name)

	if _, err := r.signer.StatObject(ctx, r.bucket, object, minio.StatObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			zap.S().Named("brand").Debugw("brand asset not uploaded, using default", "user", userID, "object", object)
			return "", nil
		}
		return "", errors.Wrapf(err, "failed to stat brand asset %s", object)
	}

	u, err := r.signer.PresignedGetObject(ctx, r.bucket, object, r.ttl, nil)
	if err != nil {
		return "", errors.Wrapf(err, "failed to sign brand asset %s", object)
	}
	return u.String(), nil
}

func objectKey(userID, name string) string {
	return fmt.Sprintf("brand/%s/%s", userID, name)
}
