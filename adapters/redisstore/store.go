package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"moralsim/domain/core"
	"moralsim/domain/result"
	"moralsim/ports"

	"github.com/redis/go-redis/v9"
)

// Config configures the Redis report store
type Config struct {
	Prefix string        // key prefix, default "moralsim"
	TTL    time.Duration // report expiry, 0 = no expiry
}

// ReportStore keeps session reports as JSON strings under "{prefix}:report:{id}"
// and indexes them in the sorted set "{prefix}:reports" by creation time
type ReportStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ ports.ResultRepository = (*ReportStore)(nil)

// New creates a report store on an existing client
func New(client *redis.Client, config Config) *ReportStore {
	if config.Prefix == "" {
		config.Prefix = "moralsim"
	}
	return &ReportStore{client: client, prefix: config.Prefix, ttl: config.TTL}
}

// Dial connects to addr and verifies the connection
func Dial(ctx context.Context, addr string, config Config) (*ReportStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return New(client, config), nil
}

func (s *ReportStore) reportKey(id core.SessionID) string {
	return fmt.Sprintf("%s:report:%s", s.prefix, id)
}

func (s *ReportStore) indexKey() string {
	return s.prefix + ":reports"
}

// SaveReport implements ports.ResultRepository
func (s *ReportStore) SaveReport(ctx context.Context, rep *result.Report) error {
	data, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.reportKey(rep.SessionID), data, s.ttl)
		pipe.ZAdd(ctx, s.indexKey(), redis.Z{
			Score:  float64(rep.CreatedAt.UnixMilli()),
			Member: string(rep.SessionID),
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

// GetReport implements ports.ResultRepository
func (s *ReportStore) GetReport(ctx context.Context, id core.SessionID) (*result.Report, error) {
	data, err := s.client.Get(ctx, s.reportKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", core.ErrReportNotFound, id)
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	var rep result.Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return &rep, nil
}

// ListReports returns the newest reports first. Index entries whose report
// has expired are pruned as they are found.
func (s *ReportStore) ListReports(ctx context.Context, limit int) ([]*result.Report, error) {
	if limit <= 0 {
		limit = 50
	}
	ids, err := s.client.ZRevRange(ctx, s.indexKey(), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	if len(ids) == 0 {
		return []*result.Report{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.reportKey(core.SessionID(id))
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load reports: %w", err)
	}

	reports := make([]*result.Report, 0, len(values))
	var expired []interface{}
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			expired = append(expired, ids[i])
			continue
		}
		var rep result.Report
		if err := json.Unmarshal([]byte(raw), &rep); err != nil {
			return nil, fmt.Errorf("failed to unmarshal report %s: %w", ids[i], err)
		}
		reports = append(reports, &rep)
	}
	if len(expired) > 0 {
		s.client.ZRem(ctx, s.indexKey(), expired...)
	}
	return reports, nil
}

// Close implements ports.ResultRepository
func (s *ReportStore) Close() error {
	return s.client.Close()
}
