package redis

import (
	"errors"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/vsetbrowse/internal/db"
)

// classify maps known server errors onto db sentinels.
func classify(err error) error {
	switch {
	case isRedisErr(err, "WRONGTYPE"):
		return errors.Join(db.ErrWrongType, err)
	case isRedisErr(err, "element not found"):
		return errors.Join(db.ErrElementNotFound, err)
	default:
		return err
	}
}

// isRedisErr reports whether err is a server error reply mentioning substr,
// ignoring case.
func isRedisErr(err error, substr string) bool {
	re, ok := rueidis.IsRedisErr(err)
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(re.Error()), strings.ToLower(substr))
}
