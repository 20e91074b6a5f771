package memory

import (
	"context"
	"time"

	"docchat-be/internal/repository/contract"

	"github.com/patrickmn/go-cache"
)

// RequestBindingRepository is the in-process fallback for the request id
// slot, used when Redis is not configured (single-instance deployments,
// tests).
type RequestBindingRepository struct {
	cache *cache.Cache
}

func NewRequestBindingRepository() contract.RequestBindingRepository {
	return &RequestBindingRepository{
		cache: cache.New(24*time.Hour, 10*time.Minute),
	}
}

func (r *RequestBindingRepository) Bind(ctx context.Context, conversationId, requestId string) error {
	r.cache.Set(conversationId, requestId, cache.DefaultExpiration)
	return nil
}

func (r *RequestBindingRepository) Get(ctx context.Context, conversationId string) (string, bool, error) {
	if x, found := r.cache.Get(conversationId); found {
		requestId := x.(string)
		return requestId, requestId != "", nil
	}
	return "", false, nil
}

func (r *RequestBindingRepository) Clear(ctx context.Context, conversationId string) error {
	r.cache.Delete(conversationId)
	return nil
}
