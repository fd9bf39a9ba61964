// Package random selects winner indices for draws. It prefers the random.org
// true-random service and falls back unconditionally to crypto/rand when the
// service is unavailable, misconfigured, or answers with anything that does
// not satisfy the request.
package random

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"math/big"
)

// Provider produces k unique, unbiased indices in [0, n) for a draw
type Provider interface {
	Pick(ctx context.Context, n, k int) ([]int, error)
}

// IndexProvider implements Provider with an optional external client. A nil
// client means the local cryptographic source handles every pick.
type IndexProvider struct {
	client *RandomOrgClient
}

// NewIndexProvider creates a provider; client may be nil
func NewIndexProvider(client *RandomOrgClient) *IndexProvider {
	return &IndexProvider{client: client}
}

// Pick returns k distinct integers uniformly distributed over [0, n).
func (p *IndexProvider) Pick(ctx context.Context, n, k int) ([]int, error) {
	if n < 1 {
		return nil, fmt.Errorf("population size must be at least 1, got %d", n)
	}
	if k < 1 || k > n {
		return nil, fmt.Errorf("winner count must be in [1, %d], got %d", n, k)
	}

	if p.client != nil {
		indices, err := p.client.GenerateIntegers(ctx, k, 0, n-1)
		if err != nil {
			log.Printf("[RandomIndexProvider] random.org unavailable, using fallback: %v", err)
			return pickLocal(n, k)
		}
		if err := validateIndices(indices, n, k); err != nil {
			log.Printf("[RandomIndexProvider] invalid random.org response, using fallback: %v", err)
			return pickLocal(n, k)
		}
		return indices, nil
	}

	return pickLocal(n, k)
}

// validateIndices checks count, range and pairwise distinctness of an
// externally supplied index set
func validateIndices(indices []int, n, k int) error {
	if len(indices) != k {
		return fmt.Errorf("got %d indices, expected %d", len(indices), k)
	}
	seen := make(map[int]bool, k)
	for _, idx := range indices {
		if idx < 0 || idx >= n {
			return fmt.Errorf("index %d out of range [0, %d)", idx, n)
		}
		if seen[idx] {
			return fmt.Errorf("duplicate index %d", idx)
		}
		seen[idx] = true
	}
	return nil
}

// pickLocal draws k distinct indices with a partial Fisher-Yates shuffle over
// [0, n). crypto/rand.Int rejection-samples internally, so each swap target
// is uniform over the remaining range and the result carries no modulo bias.
func pickLocal(n, k int) ([]int, error) {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}

	for i := 0; i < k; i++ {
		offset, err := rand.Int(rand.Reader, big.NewInt(int64(n-i)))
		if err != nil {
			return nil, fmt.Errorf("failed to read random source: %w", err)
		}
		j := i + int(offset.Int64())
		indices[i], indices[j] = indices[j], indices[i]
	}

	return indices[:k], nil
}
