package ban

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rogerio-castellano/catalog-gateway/internal/logger"
)

const (
	DailyBanLogKey = "ratelimit:banlog:daily"
	strikePrefix   = "ratelimit:strikes:"
	banPrefix      = "ratelimit:ban:"
)

// Store counts rate-limit strikes per client in Redis and bans a client for
// banTTL once it reaches strikeLimit strikes within that same window.
type Store struct {
	rdb         *redis.Client
	strikeLimit int
	banTTL      time.Duration
	log         *logger.Logger
	now         func() time.Time
}

func NewStore(rdb *redis.Client, strikeLimit int, banTTL time.Duration, log *logger.Logger) *Store {
	return &Store{
		rdb:         rdb,
		strikeLimit: max(strikeLimit, 1),
		banTTL:      banTTL,
		log:         log.With("service", "BanStore"),
		now:         time.Now,
	}
}

func (s *Store) IsBanned(ctx context.Context, target string) (bool, error) {
	n, err := s.rdb.Exists(ctx, banPrefix+target).Result()
	if err != nil {
		return false, fmt.Errorf("ban lookup: %w", err)
	}
	return n > 0, nil
}

// RecordStrike adds a strike and reports whether the client is now banned.
func (s *Store) RecordStrike(ctx context.Context, target, route string) (bool, error) {
	key := strikePrefix + target
	n, err := s.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("record strike: %w", err)
	}
	if n == 1 {
		if err := s.rdb.Expire(ctx, key, s.banTTL).Err(); err != nil {
			return false, fmt.Errorf("record strike: %w", err)
		}
	}

	strikes := int(n)
	if strikes < s.strikeLimit {
		return false, nil
	}

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, banPrefix+target, route, s.banTTL)
	pipe.Del(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("ban client: %w", err)
	}
	s.logBanEvent(ctx, target, route, strikes)
	return true, nil
}

type BanLogEntry struct {
	Target  string    `json:"target"`
	Route   string    `json:"route"`
	Strikes int       `json:"strikes"`
	Time    time.Time `json:"time"`
}

func (s *Store) logBanEvent(ctx context.Context, target, route string, strikes int) {
	entry := BanLogEntry{
		Target:  target,
		Route:   route,
		Strikes: strikes,
		Time:    s.now().UTC(),
	}
	data, _ := json.Marshal(entry)
	if err := s.rdb.RPush(ctx, DailyBanLogKey, data).Err(); err != nil {
		s.log.Warn("failed to append ban log", "target", target, "error", err)
	}
}

type Count struct {
	Key   string
	Count int
}

type Summary struct {
	Total    int
	ByRoute  []Count
	ByTarget []Count
}

// DrainSummary reads and clears the ban log, aggregating it by route and client.
func (s *Store) DrainSummary(ctx context.Context) (Summary, error) {
	pipe := s.rdb.TxPipeline()
	lr := pipe.LRange(ctx, DailyBanLogKey, 0, -1)
	pipe.Del(ctx, DailyBanLogKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return Summary{}, fmt.Errorf("drain ban log: %w", err)
	}

	routeCounts := map[string]int{}
	targetCounts := map[string]int{}
	var sum Summary
	for _, item := range lr.Val() {
		var entry BanLogEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			continue
		}
		sum.Total++
		routeCounts[entry.Route]++
		targetCounts[entry.Target]++
	}
	sum.ByRoute = sortedCounts(routeCounts)
	sum.ByTarget = sortedCounts(targetCounts)
	return sum, nil
}

func sortedCounts(m map[string]int) []Count {
	out := make([]Count, 0, len(m))
	for k, v := range m {
		out = append(out, Count{Key: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// StartDailyBanSummary logs the drained ban log every day at 23:59 local time.
func (s *Store) StartDailyBanSummary(ctx context.Context) {
	for {
		now := s.now()
		next := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 0, 0, now.Location())
		if !next.After(now) {
			next = next.Add(24 * time.Hour)
		}
		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		sum, err := s.DrainSummary(ctx)
		if err != nil {
			s.log.Warn("daily ban summary failed", "error", err)
			continue
		}
		if sum.Total == 0 {
			continue
		}
		s.log.Info("daily ban summary",
			"total", sum.Total,
			"by_route", sum.ByRoute,
			"by_client", sum.ByTarget,
		)
	}
}
