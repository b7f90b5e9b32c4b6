package artifact

import (
	"context"
	"fmt"
	"time"

	"github.com/seunghak-kim/SKN12-FINAL-6TEAM-sub000/internal/infra/blob"
)

// S3Store keeps artifacts in a bucket and serves them through presigned URLs.
type S3Store struct {
	s3     *blob.S3Deps
	expire time.Duration
}

func NewS3Store(s3 *blob.S3Deps, expire time.Duration) *S3Store {
	if expire <= 0 {
		expire = 15 * time.Minute
	}
	return &S3Store{s3: s3, expire: expire}
}

func (s *S3Store) Put(ctx context.Context, uniqueID string, stage Stage, payload []byte) (string, error) {
	key, err := Key(uniqueID, stage)
	if err != nil {
		return "", err
	}
	if _, err := s.s3.UploadFileDirect(ctx, key, payload, ContentType(stage)); err != nil {
		return "", err
	}
	return key, nil
}

func (s *S3Store) Get(ctx context.Context, uniqueID string, stage Stage) ([]byte, error) {
	key, err := Key(uniqueID, stage)
	if err != nil {
		return nil, err
	}
	ok, err := s.s3.Exists(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return s.s3.DownloadFile(ctx, key)
}

func (s *S3Store) Exists(ctx context.Context, uniqueID string, stage Stage) (bool, error) {
	key, err := Key(uniqueID, stage)
	if err != nil {
		return false, err
	}
	return s.s3.Exists(ctx, key)
}

func (s *S3Store) URL(ctx context.Context, uniqueID string, stage Stage) (string, error) {
	key, err := Key(uniqueID, stage)
	if err != nil {
		return "", err
	}
	u, err := s.s3.PresignGet(ctx, key, s.expire)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return u, nil
}
