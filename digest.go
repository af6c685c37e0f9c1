package zp2

import (
	"context"
	_ "crypto/sha256" // register digest.Canonical
	"fmt"

	"github.com/opencontainers/go-digest"
	"golang.org/x/sync/errgroup"
)

// Digest returns the canonical (sha256) digest of e's payload.
//
// The container stores no checksums; the digest is computed from the payload
// bytes on every call.
func (a *Archive) Digest(ctx context.Context, e Entry) (digest.Digest, error) {
	d := digest.Canonical.Digester()
	if _, err := a.Extract(ctx, e, d.Hash()); err != nil {
		return "", fmt.Errorf("digest %s: %w", e.Path, err)
	}
	return d.Digest(), nil
}

// Digests returns the digest of every entry, in container order.
//
// Up to workers entries are hashed concurrently; workers <= 0 hashes one entry
// at a time. The first failure cancels the remaining work.
func (a *Archive) Digests(ctx context.Context, workers int) ([]digest.Digest, error) {
	if workers <= 0 {
		workers = 1
	}
	out := make([]digest.Digest, len(a.entries))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, e := range a.entries {
		g.Go(func() error {
			d, err := a.Digest(ctx, e)
			if err != nil {
				return err
			}
			out[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
