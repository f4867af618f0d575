// Package dedup splits a batch of normalized transactions into rows the
// owner has not stored yet and rows that repeat a stored fingerprint.
package dedup

import (
	"context"
	"fmt"

	"github.com/FACorreiaa/echo-import/internal/domain/import/normalizer"
)

// FingerprintFinder is the read side of the transaction store.
type FingerprintFinder interface {
	FindFingerprints(ctx context.Context, ownerID string, fingerprints []string) (map[string]struct{}, error)
}

// Partition is the outcome of a dedup pass. Both slices keep source order.
type Partition struct {
	New        []normalizer.Transaction
	Duplicates []normalizer.Transaction
}

// Split queries the store once for the batch's distinct fingerprints and
// partitions txs. A fingerprint repeated inside the batch keeps its first
// occurrence as new; later repeats are duplicates. Split never writes.
func Split(ctx context.Context, finder FingerprintFinder, ownerID string, txs []normalizer.Transaction) (Partition, error) {
	if len(txs) == 0 {
		return Partition{}, nil
	}

	distinct := make([]string, 0, len(txs))
	seen := make(map[string]struct{}, len(txs))
	for _, tx := range txs {
		if _, ok := seen[tx.Fingerprint]; ok {
			continue
		}
		seen[tx.Fingerprint] = struct{}{}
		distinct = append(distinct, tx.Fingerprint)
	}

	existing, err := finder.FindFingerprints(ctx, ownerID, distinct)
	if err != nil {
		return Partition{}, fmt.Errorf("failed to look up fingerprints: %w", err)
	}

	var p Partition
	taken := make(map[string]struct{}, len(distinct))
	for _, tx := range txs {
		_, stored := existing[tx.Fingerprint]
		_, repeated := taken[tx.Fingerprint]
		if stored || repeated {
			p.Duplicates = append(p.Duplicates, tx)
			continue
		}
		taken[tx.Fingerprint] = struct{}{}
		p.New = append(p.New, tx)
	}
	return p, nil
}
