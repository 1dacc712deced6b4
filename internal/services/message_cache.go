package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/AnshRaj112/clubhub-backend/internal/models"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const (
	dmRecentKeyPrefix = "dm:"
	dmRecentKeySuffix = ":recent"
	dmCompleteSuffix  = ":complete"
	dmRecentMaxLen    = 100
	dmRecentTTL       = 1 * time.Hour
	dmCacheTimeout    = 2 * time.Second
)

// RecentMessages keeps the newest messages of each conversation in a Redis
// list (newest at head). A nil client turns every call into a miss.
type RecentMessages struct {
	client *redis.Client
}

func NewRecentMessages(client *redis.Client) *RecentMessages {
	return &RecentMessages{client: client}
}

// conversationKey is the same for (a, b) and (b, a).
func conversationKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return dmRecentKeyPrefix + a + ":" + b + dmRecentKeySuffix
}

func completeKey(a, b string) string {
	return conversationKey(a, b) + dmCompleteSuffix
}

// Push adds msg to an already warm conversation. Cold conversations are
// left alone so a partial list is never mistaken for the history.
func (c *RecentMessages) Push(ctx context.Context, msg *models.DirectMessage) {
	if c == nil || c.client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), dmCacheTimeout)
	defer cancel()

	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	key := conversationKey(msg.SenderID, msg.ReceiverID)
	pipe := c.client.Pipeline()
	length := pipe.LPushX(ctx, key, data)
	pipe.LTrim(ctx, key, 0, dmRecentMaxLen-1)
	pipe.Expire(ctx, key, dmRecentTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		log.WithError(err).WithField("key", key).Warn("dm cache: push failed")
		return
	}
	if length.Val() > dmRecentMaxLen {
		c.client.Del(ctx, completeKey(msg.SenderID, msg.ReceiverID))
	}
}

// Get returns up to limit of the newest messages, oldest first. ok is
// false when the cache cannot answer the request on its own.
func (c *RecentMessages) Get(ctx context.Context, a, b string, limit int64) (msgs []models.DirectMessage, hasMore, ok bool) {
	if c == nil || c.client == nil {
		return nil, false, false
	}

	pipe := c.client.Pipeline()
	rangeCmd := pipe.LRange(ctx, conversationKey(a, b), 0, -1)
	existsCmd := pipe.Exists(ctx, completeKey(a, b))
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, false, false
	}
	raw := rangeCmd.Val()
	if len(raw) == 0 {
		return nil, false, false
	}

	complete := existsCmd.Val() > 0
	switch {
	case int64(len(raw)) > limit:
		raw = raw[:limit]
		hasMore = true
	case !complete:
		return nil, false, false
	}

	msgs = make([]models.DirectMessage, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var m models.DirectMessage
		if json.Unmarshal([]byte(raw[i]), &m) != nil {
			return nil, false, false
		}
		msgs = append(msgs, m)
	}
	return msgs, hasMore, true
}

// Warm replaces the cached list with msgs (oldest first). hasMore marks
// whether older messages exist beyond them.
func (c *RecentMessages) Warm(ctx context.Context, a, b string, msgs []models.DirectMessage, hasMore bool) {
	if c == nil || c.client == nil || len(msgs) == 0 {
		return
	}

	key := conversationKey(a, b)
	pipe := c.client.TxPipeline()
	pipe.Del(ctx, key, completeKey(a, b))
	for i := len(msgs) - 1; i >= 0; i-- {
		data, err := json.Marshal(msgs[i])
		if err != nil {
			return
		}
		pipe.RPush(ctx, key, data)
	}
	pipe.LTrim(ctx, key, 0, dmRecentMaxLen-1)
	pipe.Expire(ctx, key, dmRecentTTL)
	if !hasMore && len(msgs) <= dmRecentMaxLen {
		pipe.Set(ctx, completeKey(a, b), "1", dmRecentTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		log.WithError(err).WithField("key", key).Warn("dm cache: warm failed")
	}
}

// Invalidate drops the cached conversation, e.g. after read flags change.
func (c *RecentMessages) Invalidate(ctx context.Context, a, b string) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, conversationKey(a, b), completeKey(a, b)).Err(); err != nil {
		log.WithError(err).Warn("dm cache: invalidate failed")
	}
}
