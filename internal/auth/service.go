package auth

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultTTL       = 24 * 7 * time.Hour
	sessionKeyPrefix = "fittrack-session||"
	sessionsSetKey   = "fittrack-sessions"
)

type Service struct {
	redisClient *redis.Client
	tokens      *TokenCodec
	ttl         time.Duration
	// ability to inject session id generator func (for unit and dev testing)
	NewSessionIDFunc func() string
}

func NewAuthService(
	ttl time.Duration,
	tokens *TokenCodec,
	redisClient *redis.Client,
) *Service {
	return &Service{
		ttl:              ttl,
		tokens:           tokens,
		redisClient:      redisClient,
		NewSessionIDFunc: uuid.NewString,
	}
}

// Login opens a new session for the user and returns the signed token.
func (as *Service) Login(ctx context.Context, userID string, createdAt time.Time) (string, error) {
	sessionID := as.NewSessionIDFunc()
	token, err := as.tokens.Issue(userID, sessionID, createdAt)
	if err != nil {
		return "", err
	}

	sessionKey := sessionKeyPrefix + sessionID
	cmdSet := as.redisClient.Set(ctx, sessionKey, createdAt.Unix(), 0)
	if err := cmdSet.Err(); err != nil {
		return "", err
	}

	// add session to list of sessions
	cmdSAdd := as.redisClient.SAdd(ctx, sessionsSetKey, sessionID)
	if err := cmdSAdd.Err(); err != nil {
		return "", err
	}

	return token, nil
}

// Logout revokes the session behind the token. It reports whether an active
// session was found.
func (as *Service) Logout(ctx context.Context, token string) (bool, error) {
	_, sessionID, err := as.tokens.Parse(token)
	if err != nil {
		return false, err
	}

	sessionKey := sessionKeyPrefix + sessionID
	cmd := as.redisClient.Get(ctx, sessionKey)
	if err := cmd.Err(); err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}

	createdAtUnix, err := strconv.ParseInt(cmd.Val(), 10, 64)
	if err != nil {
		return false, err
	}

	cmdDel := as.redisClient.Del(ctx, sessionKey)
	if err := cmdDel.Err(); err != nil {
		return false, err
	}

	// remove session from the list of sessions
	cmdSRem := as.redisClient.SRem(ctx, sessionsSetKey, sessionID)
	if err := cmdSRem.Err(); err != nil {
		return false, err
	}

	return createdAtUnix > 0, nil
}

// ScanAndClean will run through all sessions, check the TTL, and clean them if old
func (as *Service) ScanAndClean(ctx context.Context) {
	cmd := as.redisClient.SMembers(ctx, sessionsSetKey)
	if err := cmd.Err(); err != nil {
		log.Errorf("!!! auth service, scan and clean, get sessions: %s", err)
		return
	}

	sessionIDs := cmd.Val()
	if len(sessionIDs) == 0 {
		log.Debugln("=> auth service, scan and clean abort, no sessions")
		return
	}

	log.Infof("=> auth service, scan and clean [%d sessions] start ...", len(sessionIDs))
	var toRemove []string
	for _, sessionID := range sessionIDs {
		sessionKey := sessionKeyPrefix + sessionID
		cmd := as.redisClient.Get(ctx, sessionKey)
		if err := cmd.Err(); err != nil {
			if errors.Is(err, redis.Nil) {
				// session record already gone, only the set member is left
				toRemove = append(toRemove, sessionID)
				continue
			}
			log.Errorf("=> auth service, scan and clean session %s: %s", sessionID, err)
			continue
		}

		createdAtUnix, err := strconv.ParseInt(cmd.Val(), 10, 64)
		if err != nil {
			log.Errorf("=> auth service, scan and clean session %s: %s", sessionID, err)
			continue
		}

		createdAt := time.Unix(createdAtUnix, 0)
		if time.Since(createdAt) > as.ttl {
			log.Infof("=>\twill clean the session: %s", sessionID)
			toRemove = append(toRemove, sessionID)
		}
	}

	for _, sessionID := range toRemove {
		sessionKey := sessionKeyPrefix + sessionID
		cmdDel := as.redisClient.Del(ctx, sessionKey)
		if err := cmdDel.Err(); err != nil {
			log.Errorf("=> auth service, clean session %s: %s", sessionID, err)
			continue
		}

		cmdSRem := as.redisClient.SRem(ctx, sessionsSetKey, sessionID)
		if err := cmdSRem.Err(); err != nil {
			log.Errorf("=> auth service, clean session %s: %s", sessionID, err)
			continue
		}
	}
}
