package memstore

import (
	"context"

	"community_forum/pkg/docstore"

	"github.com/pkg/errors"
)

// RunTransaction 乐观并发事务：记录读取时的文档版本，提交时校验，
// 版本变化则整体重试，超过最大尝试次数返回 ErrTxConflict。
// fn 返回错误时不重试，直接返回该错误，且不写入任何数据。
func (s *Store) RunTransaction(ctx context.Context, fn docstore.TxFunc) error {
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		tx := &transaction{store: s, reads: make(map[string]int64)}
		if err := fn(ctx, tx); err != nil {
			return err
		}

		s.mu.Lock()
		if !tx.validLocked() {
			s.mu.Unlock()
			continue
		}
		changes, err := s.applyLocked(tx.ops)
		watchers := s.watchers
		s.mu.Unlock()
		if err != nil {
			return err
		}
		s.notify(watchers, changes)
		return nil
	}
	return docstore.ErrTxConflict
}

type transaction struct {
	store *Store
	reads map[string]int64
	ops   []op
}

func (t *transaction) validLocked() bool {
	for path, v := range t.reads {
		cur := int64(0)
		if e, ok := t.store.docs[path]; ok {
			cur = e.version
		}
		if cur != v {
			return false
		}
	}
	return true
}

func (t *transaction) Get(path string) (*docstore.Snapshot, error) {
	if len(t.ops) > 0 {
		return nil, docstore.ErrReadAfterWrite
	}
	if !docstore.IsDocumentPath(path) {
		return nil, errors.Wrap(docstore.ErrInvalidPath, path)
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	snap, v := t.store.getLocked(path)
	t.reads[path] = v
	if snap == nil {
		return nil, docstore.ErrNotFound
	}
	return snap, nil
}

func (t *transaction) Query(q docstore.Query) ([]*docstore.Snapshot, error) {
	if len(t.ops) > 0 {
		return nil, docstore.ErrReadAfterWrite
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	snaps, versions := t.store.queryLocked(q)
	for p, v := range versions {
		t.reads[p] = v
	}
	return snaps, nil
}

func (t *transaction) Set(path string, data map[string]any) {
	t.ops = append(t.ops, op{kind: opSet, path: path, data: data})
}

func (t *transaction) Merge(path string, data map[string]any) {
	t.ops = append(t.ops, op{kind: opMerge, path: path, data: data})
}

func (t *transaction) Update(path string, fields map[string]any) {
	t.ops = append(t.ops, op{kind: opUpdate, path: path, data: fields})
}

func (t *transaction) Delete(path string) {
	t.ops = append(t.ops, op{kind: opDelete, path: path})
}
