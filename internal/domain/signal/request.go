package signal

import (
	"fmt"
	"strings"
)

// MaxCollectQueryLength bounds the query text accepted for collection.
const MaxCollectQueryLength = 512

// CollectionRequest is one orchestration call: a query fanned out to the
// enabled platforms with per-platform item quotas.
type CollectionRequest struct {
	Query     string
	Platforms []Platform
	Quotas    map[Platform]int
}

// NormalizeQuery lowercases and trims a query for queueing and cache checks.
func NormalizeQuery(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}

// NewCollectionRequest validates the query and fills every platform quota.
func NewCollectionRequest(query string, platforms []Platform, defaultQuota int) (CollectionRequest, error) {
	q := NormalizeQuery(query)
	if q == "" {
		return CollectionRequest{}, fmt.Errorf("query is required")
	}
	if len(q) > MaxCollectQueryLength {
		return CollectionRequest{}, fmt.Errorf("query too long (max %d chars)", MaxCollectQueryLength)
	}
	if defaultQuota <= 0 {
		defaultQuota = 25
	}
	quotas := make(map[Platform]int, len(platforms))
	for _, p := range platforms {
		quotas[p] = defaultQuota
	}
	return CollectionRequest{Query: q, Platforms: platforms, Quotas: quotas}, nil
}

// Quota returns the item budget for a platform.
func (r CollectionRequest) Quota(p Platform) int {
	if n, ok := r.Quotas[p]; ok && n > 0 {
		return n
	}
	return 25
}
