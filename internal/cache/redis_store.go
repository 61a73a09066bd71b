// Package cache puts a Redis read-through cache in front of a response store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/soaringjerry/pulse/internal/api"
	"github.com/soaringjerry/pulse/internal/models"
)

const (
	DefaultTTL    = 30 * time.Second
	defaultPrefix = "pulse"
)

// Store serves snapshots from Redis and falls back to the backing store on a
// miss. Redis failures are logged and never fail a read; writes go to the
// backing store and drop the affected keys.
type Store struct {
	api.Store
	rdb    redis.UniversalClient
	ttl    time.Duration
	prefix string
	log    *logrus.Entry
}

type Option func(*Store)

func WithTTL(ttl time.Duration) Option { return func(s *Store) { s.ttl = ttl } }

func WithPrefix(prefix string) Option { return func(s *Store) { s.prefix = prefix } }

func WithLogger(l *logrus.Entry) Option { return func(s *Store) { s.log = l } }

func New(backing api.Store, rdb redis.UniversalClient, opts ...Option) *Store {
	s := &Store{
		Store:  backing,
		rdb:    rdb,
		ttl:    DefaultTTL,
		prefix: defaultPrefix,
		log:    logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithField("component", "cache")
	return s
}

func (s *Store) surveyKey(id string) string { return s.prefix + ":survey:" + id }

func (s *Store) responsesKey(id string) string { return s.prefix + ":responses:" + id }

func (s *Store) GetSurveyDefinition(ctx context.Context, surveyID string) (*models.SurveyDefinition, error) {
	var def models.SurveyDefinition
	if s.lookup(ctx, s.surveyKey(surveyID), &def) {
		return &def, nil
	}
	out, err := s.Store.GetSurveyDefinition(ctx, surveyID)
	if err != nil || out == nil {
		return out, err
	}
	s.fill(ctx, s.surveyKey(surveyID), out)
	return out, nil
}

func (s *Store) GetResponseSet(ctx context.Context, surveyID string) (*models.SurveyResponseSet, error) {
	var set models.SurveyResponseSet
	if s.lookup(ctx, s.responsesKey(surveyID), &set) {
		return &set, nil
	}
	out, err := s.Store.GetResponseSet(ctx, surveyID)
	if err != nil || out == nil {
		return out, err
	}
	s.fill(ctx, s.responsesKey(surveyID), out)
	return out, nil
}

func (s *Store) PutSurvey(ctx context.Context, def *models.SurveyDefinition) error {
	if err := s.Store.PutSurvey(ctx, def); err != nil {
		return err
	}
	s.invalidate(ctx, s.surveyKey(def.ID))
	return nil
}

func (s *Store) AppendResponses(ctx context.Context, surveyID, workspace string, rs []models.EmployeeResponse) error {
	if err := s.Store.AppendResponses(ctx, surveyID, workspace, rs); err != nil {
		return err
	}
	s.invalidate(ctx, s.responsesKey(surveyID))
	return nil
}

// lookup decodes the cached value at key into dst and reports whether it did.
func (s *Store) lookup(ctx context.Context, key string, dst any) bool {
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		s.log.WithError(err).WithField("key", key).Warn("cache read failed")
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("dropping undecodable cache entry")
		s.invalidate(ctx, key)
		return false
	}
	return true
}

func (s *Store) fill(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, key, raw, s.ttl).Err(); err != nil {
		s.log.WithError(err).WithField("key", key).Warn("cache write failed")
	}
}

func (s *Store) invalidate(ctx context.Context, keys ...string) {
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		s.log.WithError(err).WithField("keys", keys).Warn("cache invalidation failed")
	}
}

var _ api.Store = (*Store)(nil)
