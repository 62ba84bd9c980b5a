package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/vsetbrowse/internal/db"
)

// vgetattrScript reads the attributes of every ARGV element of KEYS[1].
// Missing attributes come back as false, which RESP encodes as nil.
const vgetattrScript = `local out = {}
for i, ele in ipairs(ARGV) do
  out[i] = redis.call('VGETATTR', KEYS[1], ele)
end
return out`

// VGetAttrBatch fetches the attribute JSON of all elements with a single EVAL.
func (s *Store) VGetAttrBatch(ctx context.Context, key string, elements []string) ([]*string, error) {
	if len(elements) == 0 {
		return nil, nil
	}

	cmd := s.b().Eval().Script(vgetattrScript).Numkeys(1).Key(key).Arg(elements...).Build()
	msgs, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpEval, Err: classify(err)}
	}
	if len(msgs) != len(elements) {
		return nil, &db.Error{Op: db.OpEval, Err: fmt.Errorf("got %d replies for %d elements", len(msgs), len(elements))}
	}

	out := make([]*string, len(msgs))
	for i, m := range msgs {
		if m.IsNil() {
			continue
		}
		v, err := m.ToString()
		if err != nil {
			return nil, &db.Error{Op: db.OpEval, Err: fmt.Errorf("element %s: %w", elements[i], err)}
		}
		out[i] = &v
	}
	return out, nil
}

// VSetAttr replaces the attribute JSON of one element.
func (s *Store) VSetAttr(ctx context.Context, key, element, attrs string) error {
	cmd := s.b().Arbitrary("VSETATTR").Keys(key).Args(element, attrs).Build()
	n, err := s.do(ctx, cmd).AsInt64()
	if err != nil {
		return &db.Error{Op: db.OpVSetAttr, Err: classify(err)}
	}
	if n == 0 {
		return db.ErrElementNotFound
	}
	return nil
}

// VInfoBatch describes all keys with one MULTI / VINFO... / EXEC pipeline.
// Keys that do not exist come back with Exists=false.
func (s *Store) VInfoBatch(ctx context.Context, keys []string) ([]db.VInfo, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	cmds := make([]rueidis.Completed, 0, len(keys)+2)
	cmds = append(cmds, s.b().Multi().Build())
	for _, key := range keys {
		cmds = append(cmds, s.b().Arbitrary("VINFO").Keys(key).Build())
	}
	cmds = append(cmds, s.b().Exec().Build())

	results := s.client.DoMulti(ctx, cmds...)
	for i, res := range results[:len(results)-1] {
		if err := res.Error(); err != nil {
			if i == 0 {
				return nil, &db.Error{Op: db.OpMulti, Err: err}
			}
			return nil, &db.Error{Op: db.OpVInfo, Err: fmt.Errorf("key %s: %w", keys[i-1], classify(err))}
		}
	}

	replies, err := results[len(results)-1].ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpMulti, Err: err}
	}
	if len(replies) != len(keys) {
		return nil, &db.Error{Op: db.OpMulti, Err: fmt.Errorf("got %d replies for %d keys", len(replies), len(keys))}
	}

	out := make([]db.VInfo, len(keys))
	for i, msg := range replies {
		info, err := parseVInfo(keys[i], msg)
		if err != nil {
			return nil, &db.Error{Op: db.OpVInfo, Err: fmt.Errorf("key %s: %w", keys[i], err)}
		}
		out[i] = info
	}
	return out, nil
}

// VSim runs a similarity query and returns hits with their scores.
func (s *Store) VSim(ctx context.Context, q *db.SimilarityQuery) ([]db.SimilarityHit, error) {
	args, err := simArgs(q)
	if err != nil {
		return nil, err
	}

	cmd := s.b().Arbitrary("VSIM").Keys(q.Key).Args(args...).Build()
	msgs, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpVSim, Err: classify(err)}
	}
	return parseHits(msgs)
}

func simArgs(q *db.SimilarityQuery) ([]string, error) {
	if q.Key == "" {
		return nil, fmt.Errorf("key is required")
	}
	if (q.Element == "") == (len(q.Vector) == 0) {
		return nil, fmt.Errorf("exactly one of element or vector is required")
	}

	var args []string
	if q.Element != "" {
		args = append(args, "ELE", q.Element)
	} else {
		args = append(args, "VALUES", strconv.Itoa(len(q.Vector)))
		for _, v := range q.Vector {
			args = append(args, strconv.FormatFloat(float64(v), 'f', -1, 32))
		}
	}
	args = append(args, "WITHSCORES")
	if q.Count > 0 {
		args = append(args, "COUNT", strconv.Itoa(q.Count))
	}
	if q.Epsilon > 0 {
		args = append(args, "EPSILON", strconv.FormatFloat(q.Epsilon, 'f', -1, 64))
	}
	if q.EF > 0 {
		args = append(args, "EF", strconv.Itoa(q.EF))
	}
	if q.Filter != "" {
		args = append(args, "FILTER", q.Filter)
	}
	return args, nil
}

// parseHits reads the flat [element, score, ...] WITHSCORES reply.
func parseHits(msgs []rueidis.RedisMessage) ([]db.SimilarityHit, error) {
	if len(msgs)%2 != 0 {
		return nil, &db.Error{Op: db.OpVSim, Err: fmt.Errorf("odd reply length %d", len(msgs))}
	}
	hits := make([]db.SimilarityHit, 0, len(msgs)/2)
	for i := 0; i < len(msgs); i += 2 {
		ele, err := msgs[i].ToString()
		if err != nil {
			return nil, &db.Error{Op: db.OpVSim, Err: err}
		}
		score, err := msgs[i+1].AsFloat64()
		if err != nil {
			return nil, &db.Error{Op: db.OpVSim, Err: fmt.Errorf("score of %s: %w", ele, err)}
		}
		hits = append(hits, db.SimilarityHit{Element: ele, Score: score})
	}
	return hits, nil
}

func parseVInfo(key string, msg rueidis.RedisMessage) (db.VInfo, error) {
	info := db.VInfo{Key: key}
	if err := msg.Error(); err != nil {
		return info, classify(err)
	}
	if msg.IsNil() {
		return info, nil
	}

	m, err := msg.AsMap()
	if err != nil {
		return info, err
	}
	info.Exists = true
	if v, ok := m["quant-type"]; ok {
		info.QuantType, _ = v.ToString()
	}
	for name, dst := range map[string]*int64{
		"vector-dim":        &info.Dim,
		"size":              &info.Size,
		"max-level":         &info.MaxLevel,
		"vset-uid":          &info.VSetUID,
		"hnsw-max-node-uid": &info.HNSWMaxNodeUID,
	} {
		v, ok := m[name]
		if !ok {
			continue
		}
		n, err := v.AsInt64()
		if err != nil {
			return info, fmt.Errorf("field %s: %w", name, err)
		}
		*dst = n
	}
	return info, nil
}
