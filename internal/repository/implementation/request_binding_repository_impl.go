package implementation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"docchat-be/internal/repository/contract"

	"github.com/redis/go-redis/v9"
)

// bindingTTL bounds how long an abandoned conversation keeps its request id.
const bindingTTL = 24 * time.Hour

type RequestBindingRepositoryImpl struct {
	rdb *redis.Client
}

func NewRequestBindingRepository(rdb *redis.Client) contract.RequestBindingRepository {
	return &RequestBindingRepositoryImpl{rdb: rdb}
}

func bindingKey(conversationId string) string {
	return fmt.Sprintf("docchat:request_id:%s", conversationId)
}

func (r *RequestBindingRepositoryImpl) Bind(ctx context.Context, conversationId, requestId string) error {
	return r.rdb.Set(ctx, bindingKey(conversationId), requestId, bindingTTL).Err()
}

func (r *RequestBindingRepositoryImpl) Get(ctx context.Context, conversationId string) (string, bool, error) {
	val, err := r.rdb.Get(ctx, bindingKey(conversationId)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, val != "", nil
}

func (r *RequestBindingRepositoryImpl) Clear(ctx context.Context, conversationId string) error {
	return r.rdb.Del(ctx, bindingKey(conversationId)).Err()
}
