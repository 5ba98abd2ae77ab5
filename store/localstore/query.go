package localstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/office/restobook/store"
)

type filter struct {
	field string
	op    store.Op
	value interface{}
}

type ordering struct {
	field string
	dir   store.Direction
}

type query struct {
	coll    *collection
	filters []filter
	sorts   []ordering
	limit   int
}

func (q *query) Where(field string, op store.Op, value interface{}) store.Query {
	q.filters = append(q.filters, filter{field: field, op: op, value: value})
	return q
}

func (q *query) OrderBy(field string, dir store.Direction) store.Query {
	q.sorts = append(q.sorts, ordering{field: field, dir: dir})
	return q
}

func (q *query) Limit(n int) store.Query {
	q.limit = n
	return q
}

func (q *query) Docs(ctx context.Context) ([]store.Doc, error) {
	var recs []document
	err := q.coll.store.db.WithContext(ctx).
		Where("collection = ?", q.coll.name).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("cannot scan collection %s: %w", q.coll.name, err)
	}

	type decoded struct {
		doc    store.Doc
		fields bson.M
	}
	matched := make([]decoded, 0, len(recs))
	for _, rec := range recs {
		var m bson.M
		if err := bson.Unmarshal(rec.Data, &m); err != nil {
			return nil, fmt.Errorf("cannot decode document %s/%s: %w", q.coll.name, rec.DocID, err)
		}
		if !q.matches(m) {
			continue
		}
		matched = append(matched, decoded{
			doc:    store.Doc{ID: rec.DocID, Data: bson.Raw(rec.Data)},
			fields: m,
		})
	}

	if len(q.sorts) > 0 {
		sort.SliceStable(matched, func(i, j int) bool {
			for _, ord := range q.sorts {
				cmp := compareValues(matched[i].fields[ord.field], matched[j].fields[ord.field])
				if cmp == 0 {
					continue
				}
				if ord.dir == store.Descending {
					return cmp > 0
				}
				return cmp < 0
			}
			return false
		})
	}

	if q.limit > 0 && len(matched) > q.limit {
		matched = matched[:q.limit]
	}

	docs := make([]store.Doc, len(matched))
	for i, d := range matched {
		docs[i] = d.doc
	}
	return docs, nil
}

func (q *query) Subscribe(ctx context.Context) (*store.Subscription, error) {
	docs, err := q.Docs(ctx)
	if err != nil {
		return nil, err
	}

	// The subscription exists before the hub listener does, so the
	// listener always has a live target. The release handle sits behind
	// its own lock: a concurrent write can fail the subscription before
	// subscribe returns, in which case the handle is claimed closed here
	// and run below.
	var (
		mu       sync.Mutex
		released bool
		release  func()
	)
	sub := store.NewSubscription(func() {
		mu.Lock()
		released = true
		r := release
		release = nil
		mu.Unlock()
		if r != nil {
			r()
		}
	})
	r := q.coll.store.hub.subscribe(q.coll.name, func() {
		docs, err := q.Docs(ctx)
		if err != nil {
			sub.Fail(err)
			return
		}
		sub.Send(docs)
	})
	mu.Lock()
	if released {
		mu.Unlock()
		r()
	} else {
		release = r
		mu.Unlock()
	}
	sub.Send(docs)
	return sub, nil
}

func (q *query) matches(m bson.M) bool {
	for _, f := range q.filters {
		v, ok := m[f.field]
		if !ok {
			return false
		}
		cmp := compareValues(v, f.value)
		switch f.op {
		case store.OpEqual:
			if cmp != 0 {
				return false
			}
		case store.OpNotEqual:
			if cmp == 0 {
				return false
			}
		case store.OpGreaterOrEqual:
			if cmp < 0 {
				return false
			}
		case store.OpLessOrEqual:
			if cmp > 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// compareValues orders two document values. Two integers compare
// exactly whatever width bson picked; ids are full 64-bit hashes, and
// above 2^53 distinct values collapse when squeezed through float64.
// Mixed integer/float pairs still compare as float64. nil sorts first.
func compareValues(a, b interface{}) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}

	if ia, ok := toInt(a); ok {
		if ib, ok := toInt(b); ok {
			switch {
			case ia < ib:
				return -1
			case ia > ib:
				return 1
			default:
				return 0
			}
		}
	}

	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			default:
				return 0
			}
		}
	}

	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv)
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0
			case !av:
				return -1
			default:
				return 1
			}
		}
	}
	// Unordered or mismatched types: equal only on exact match.
	if fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b) {
		return 0
	}
	return -1
}

func toInt(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
