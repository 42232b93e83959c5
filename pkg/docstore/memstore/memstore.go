// Package memstore 内存版文档库，语义对齐 Firestore：批次原子提交、
// 乐观并发事务（冲突自动重试）、collection group 查询与字段变换。
// 用于测试以及本地模拟器模式（Watch 将每次提交转为触发器事件）。
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"community_forum/pkg/docstore"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const defaultMaxAttempts = 5

type entry struct {
	data    map[string]any
	version int64
}

type opKind int

const (
	opSet opKind = iota
	opMerge
	opUpdate
	opDelete
)

type op struct {
	kind opKind
	path string
	data map[string]any
}

// Store 内存文档库
type Store struct {
	mu       sync.Mutex
	docs     map[string]*entry
	seq      int64
	watchers []func(docstore.Change)

	now         func() time.Time
	maxAttempts int
}

// Option 配置项
type Option func(*Store)

// WithClock 替换服务端时间来源
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithMaxAttempts 设置事务最大尝试次数
func WithMaxAttempts(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// New 创建空的内存文档库
func New(opts ...Option) *Store {
	s := &Store{
		docs:        make(map[string]*entry),
		now:         time.Now,
		maxAttempts: defaultMaxAttempts,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

var _ docstore.Store = (*Store)(nil)

// Watch 注册提交后回调。回调在提交方的 goroutine 中、锁外执行。
func (s *Store) Watch(fn func(docstore.Change)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchers = append(s.watchers, fn)
}

func (s *Store) Get(ctx context.Context, path string) (*docstore.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !docstore.IsDocumentPath(path) {
		return nil, errors.Wrap(docstore.ErrInvalidPath, path)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, _ := s.getLocked(path)
	if snap == nil {
		return nil, docstore.ErrNotFound
	}
	return snap, nil
}

func (s *Store) getLocked(path string) (*docstore.Snapshot, int64) {
	e, ok := s.docs[path]
	if !ok {
		return nil, 0
	}
	return docstore.NewSnapshot(path, copyMap(e.data)), e.version
}

func (s *Store) Set(ctx context.Context, path string, data map[string]any) error {
	return s.commit(ctx, []op{{kind: opSet, path: path, data: data}})
}

func (s *Store) Merge(ctx context.Context, path string, data map[string]any) error {
	return s.commit(ctx, []op{{kind: opMerge, path: path, data: data}})
}

func (s *Store) Update(ctx context.Context, path string, fields map[string]any) error {
	return s.commit(ctx, []op{{kind: opUpdate, path: path, data: fields}})
}

func (s *Store) Delete(ctx context.Context, path string) error {
	return s.commit(ctx, []op{{kind: opDelete, path: path}})
}

func (s *Store) Query(ctx context.Context, q docstore.Query) ([]*docstore.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snaps, _ := s.queryLocked(q)
	return snaps, nil
}

func (s *Store) queryLocked(q docstore.Query) ([]*docstore.Snapshot, map[string]int64) {
	paths := make([]string, 0)
	for path, e := range s.docs {
		if q.Group {
			if docstore.CollectionID(path) != q.Collection {
				continue
			}
		} else if docstore.Parent(path) != q.Collection {
			continue
		}
		ok := true
		for _, f := range q.Filters {
			if !matches(e.data, f) {
				ok = false
				break
			}
		}
		if ok {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	if q.Limit > 0 && len(paths) > q.Limit {
		paths = paths[:q.Limit]
	}

	snaps := make([]*docstore.Snapshot, 0, len(paths))
	versions := make(map[string]int64, len(paths))
	for _, p := range paths {
		snap, v := s.getLocked(p)
		snaps = append(snaps, snap)
		versions[p] = v
	}
	return snaps, versions
}

// NewID 生成随机文档 ID
func (s *Store) NewID() string {
	return uuid.NewString()
}

func (s *Store) Batch() docstore.Batch {
	return &batch{store: s}
}

func (s *Store) Close() error {
	return nil
}

// Len 当前文档总数，测试辅助
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}

func (s *Store) commit(ctx context.Context, ops []op) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	changes, err := s.applyLocked(ops)
	watchers := s.watchers
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.notify(watchers, changes)
	return nil
}

func (s *Store) notify(watchers []func(docstore.Change), changes []docstore.Change) {
	for _, c := range changes {
		for _, w := range watchers {
			w(c)
		}
	}
}

// applyLocked 在暂存区顺序应用所有写操作，全部成功后一次性落盘。
func (s *Store) applyLocked(ops []op) ([]docstore.Change, error) {
	if len(ops) > docstore.MaxBatchWrites {
		return nil, docstore.ErrBatchTooLarge
	}
	now := s.now()
	staged := make(map[string]map[string]any)
	deleted := make(map[string]bool)
	order := make([]string, 0, len(ops))

	current := func(path string) (map[string]any, bool) {
		if deleted[path] {
			return nil, false
		}
		if d, ok := staged[path]; ok {
			return d, true
		}
		if e, ok := s.docs[path]; ok {
			return copyMap(e.data), true
		}
		return nil, false
	}

	for _, o := range ops {
		if !docstore.IsDocumentPath(o.path) {
			return nil, errors.Wrap(docstore.ErrInvalidPath, o.path)
		}
		if _, seen := staged[o.path]; !seen && !deleted[o.path] {
			order = append(order, o.path)
		}
		switch o.kind {
		case opSet:
			doc := map[string]any{}
			mergeInto(doc, o.data, now)
			staged[o.path] = doc
			delete(deleted, o.path)
		case opMerge:
			doc, ok := current(o.path)
			if !ok {
				doc = map[string]any{}
			}
			mergeInto(doc, o.data, now)
			staged[o.path] = doc
			delete(deleted, o.path)
		case opUpdate:
			doc, ok := current(o.path)
			if !ok {
				return nil, errors.Wrap(docstore.ErrNotFound, o.path)
			}
			for field, v := range o.data {
				setField(doc, field, v, now)
			}
			staged[o.path] = doc
		case opDelete:
			delete(staged, o.path)
			deleted[o.path] = true
		}
	}

	changes := make([]docstore.Change, 0, len(order))
	for _, path := range order {
		var before map[string]any
		if e, ok := s.docs[path]; ok {
			before = e.data
		}
		if deleted[path] {
			if before == nil {
				continue
			}
			delete(s.docs, path)
			changes = append(changes, docstore.Change{Path: path, Before: copyMap(before)})
			continue
		}
		s.seq++
		after := staged[path]
		s.docs[path] = &entry{data: after, version: s.seq}
		changes = append(changes, docstore.Change{Path: path, Before: copyMap(before), After: copyMap(after)})
	}
	return changes, nil
}

type batch struct {
	store     *Store
	ops       []op
	committed bool
}

func (b *batch) Set(path string, data map[string]any) {
	b.ops = append(b.ops, op{kind: opSet, path: path, data: data})
}

func (b *batch) Merge(path string, data map[string]any) {
	b.ops = append(b.ops, op{kind: opMerge, path: path, data: data})
}

func (b *batch) Update(path string, fields map[string]any) {
	b.ops = append(b.ops, op{kind: opUpdate, path: path, data: fields})
}

func (b *batch) Delete(path string) {
	b.ops = append(b.ops, op{kind: opDelete, path: path})
}

func (b *batch) Len() int {
	return len(b.ops)
}

func (b *batch) Commit(ctx context.Context) error {
	if b.committed {
		return docstore.ErrBatchCommitted
	}
	b.committed = true
	if len(b.ops) == 0 {
		return nil
	}
	return b.store.commit(ctx, b.ops)
}
