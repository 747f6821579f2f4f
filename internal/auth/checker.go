package auth

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

var _ Checker = (*LoginChecker)(nil)

type Checker interface {
	IsLogged(ctx context.Context, token string) (ownerID string, logged bool, err error)
}

// LoginChecker accepts a token only if its signature is valid and its
// session is still present and fresh in redis.
type LoginChecker struct {
	ttl         time.Duration
	tokens      *TokenCodec
	redisClient *redis.Client
}

func NewLoginChecker(ttl time.Duration, tokens *TokenCodec, redisClient *redis.Client) *LoginChecker {
	return &LoginChecker{
		ttl:         ttl,
		tokens:      tokens,
		redisClient: redisClient,
	}
}

func (lc *LoginChecker) IsLogged(ctx context.Context, token string) (string, bool, error) {
	userID, sessionID, err := lc.tokens.Parse(token)
	if err != nil {
		return "", false, nil
	}

	cmd := lc.redisClient.Get(ctx, sessionKeyPrefix+sessionID)
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}

	createdAtUnix, err := strconv.ParseInt(cmd.Val(), 10, 64)
	if err != nil {
		return "", false, err
	}
	if createdAtUnix <= 0 {
		return "", false, nil
	}

	createdAt := time.Unix(createdAtUnix, 0)
	if lc.tokens.now().Sub(createdAt) > lc.ttl {
		return "", false, nil
	}

	return userID, true, nil
}
