package redis

import (
	"context"
	"errors"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/sigdex/internal/db"
)

// HSetMulti stores multiple hashes in a single DoMulti round-trip.
// Every item is attempted; failures are reported together as *db.BatchError.
func (s *Store) HSetMulti(ctx context.Context, items []db.HashSetItem) error {
	if len(items) == 0 {
		return nil
	}

	cmds := make([]rueidis.Completed, len(items))
	for i, item := range items {
		cmd := s.b().Hset().Key(item.Key).FieldValue()
		for k, v := range item.Fields {
			cmd = cmd.FieldValue(k, v)
		}
		cmds[i] = cmd.Build()
	}

	var (
		failed []string
		errs   []error
	)
	for i, res := range s.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			failed = append(failed, items[i].Key)
			errs = append(errs, err)
		}
	}
	if len(failed) > 0 {
		return &db.BatchError{Op: db.OpHSet, Failed: failed, Err: errors.Join(errs...)}
	}
	return nil
}

// HGetAll returns all fields of a hash. A missing key yields db.ErrKeyNotFound.
func (s *Store) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	cmd := s.b().Hgetall().Key(key).Build()
	m, err := s.do(ctx, cmd).AsStrMap()
	if err != nil {
		return nil, &db.Error{Op: db.OpHGetAll, Err: err}
	}
	if len(m) == 0 {
		return nil, db.ErrKeyNotFound
	}
	return m, nil
}
