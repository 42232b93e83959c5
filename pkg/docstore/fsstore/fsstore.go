// Package fsstore 基于 Google Cloud Firestore 的 docstore 实现
package fsstore

import (
	"context"
	"strings"

	"community_forum/pkg/docstore"

	"cloud.google.com/go/firestore"
	"github.com/pkg/errors"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Store Firestore 客户端封装
type Store struct {
	client *firestore.Client
}

var _ docstore.Store = (*Store)(nil)

// New 连接 Firestore。credentialsFile 为空时使用默认凭据（或模拟器环境变量）。
func New(ctx context.Context, projectID, credentialsFile string) (*Store, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "fsstore: create client")
	}
	return &Store{client: client}, nil
}

func (s *Store) doc(path string) (*firestore.DocumentRef, error) {
	if !docstore.IsDocumentPath(path) {
		return nil, errors.Wrap(docstore.ErrInvalidPath, path)
	}
	ref := s.client.Doc(path)
	if ref == nil {
		return nil, errors.Wrap(docstore.ErrInvalidPath, path)
	}
	return ref, nil
}

func (s *Store) Get(ctx context.Context, path string) (*docstore.Snapshot, error) {
	ref, err := s.doc(path)
	if err != nil {
		return nil, err
	}
	snap, err := ref.Get(ctx)
	if err != nil {
		return nil, mapErr(err)
	}
	return toSnapshot(snap), nil
}

func (s *Store) Set(ctx context.Context, path string, data map[string]any) error {
	ref, err := s.doc(path)
	if err != nil {
		return err
	}
	_, err = ref.Set(ctx, convertMap(data))
	return mapErr(err)
}

func (s *Store) Merge(ctx context.Context, path string, data map[string]any) error {
	ref, err := s.doc(path)
	if err != nil {
		return err
	}
	_, err = ref.Set(ctx, convertMap(data), firestore.MergeAll)
	return mapErr(err)
}

func (s *Store) Update(ctx context.Context, path string, fields map[string]any) error {
	ref, err := s.doc(path)
	if err != nil {
		return err
	}
	_, err = ref.Update(ctx, toUpdates(fields))
	return mapErr(err)
}

func (s *Store) Delete(ctx context.Context, path string) error {
	ref, err := s.doc(path)
	if err != nil {
		return err
	}
	_, err = ref.Delete(ctx)
	return mapErr(err)
}

func (s *Store) Query(ctx context.Context, q docstore.Query) ([]*docstore.Snapshot, error) {
	fq, err := s.buildQuery(q)
	if err != nil {
		return nil, err
	}
	snaps, err := fq.Documents(ctx).GetAll()
	if err != nil {
		return nil, mapErr(err)
	}
	return toSnapshots(snaps), nil
}

func (s *Store) buildQuery(q docstore.Query) (firestore.Query, error) {
	var fq firestore.Query
	if q.Group {
		fq = s.client.CollectionGroup(q.Collection).Query
	} else {
		coll := s.client.Collection(q.Collection)
		if coll == nil {
			return fq, errors.Wrap(docstore.ErrInvalidPath, q.Collection)
		}
		fq = coll.Query
	}
	for _, f := range q.Filters {
		fq = fq.Where(f.Field, string(f.Op), f.Value)
	}
	if q.Limit > 0 {
		fq = fq.Limit(q.Limit)
	}
	return fq, nil
}

// NewID 使用 Firestore 的自动 ID 规则生成 ID，不产生网络请求
func (s *Store) NewID() string {
	return s.client.Collection("_ids").NewDoc().ID
}

func (s *Store) Batch() docstore.Batch {
	return &batch{store: s, wb: s.client.Batch()}
}

func (s *Store) RunTransaction(ctx context.Context, fn docstore.TxFunc) error {
	err := s.client.RunTransaction(ctx, func(ctx context.Context, t *firestore.Transaction) error {
		tx := &transaction{store: s, tx: t}
		if err := fn(ctx, tx); err != nil {
			return err
		}
		return tx.err
	})
	return mapErr(err)
}

func (s *Store) Close() error {
	return s.client.Close()
}

type batch struct {
	store *Store
	wb    *firestore.WriteBatch
	n     int
	err   error
}

func (b *batch) ref(path string) *firestore.DocumentRef {
	ref, err := b.store.doc(path)
	if err != nil && b.err == nil {
		b.err = err
	}
	b.n++
	return ref
}

func (b *batch) Set(path string, data map[string]any) {
	if ref := b.ref(path); ref != nil {
		b.wb.Set(ref, convertMap(data))
	}
}

func (b *batch) Merge(path string, data map[string]any) {
	if ref := b.ref(path); ref != nil {
		b.wb.Set(ref, convertMap(data), firestore.MergeAll)
	}
}

func (b *batch) Update(path string, fields map[string]any) {
	if ref := b.ref(path); ref != nil {
		b.wb.Update(ref, toUpdates(fields))
	}
}

func (b *batch) Delete(path string) {
	if ref := b.ref(path); ref != nil {
		b.wb.Delete(ref)
	}
}

func (b *batch) Len() int {
	return b.n
}

func (b *batch) Commit(ctx context.Context) error {
	if b.err != nil {
		return b.err
	}
	if b.n == 0 {
		return nil
	}
	if b.n > docstore.MaxBatchWrites {
		return docstore.ErrBatchTooLarge
	}
	_, err := b.wb.Commit(ctx)
	return mapErr(err)
}

type transaction struct {
	store *Store
	tx    *firestore.Transaction
	err   error
}

func (t *transaction) record(err error) {
	if err != nil && t.err == nil {
		t.err = err
	}
}

func (t *transaction) Get(path string) (*docstore.Snapshot, error) {
	ref, err := t.store.doc(path)
	if err != nil {
		return nil, err
	}
	snap, err := t.tx.Get(ref)
	if err != nil {
		return nil, mapErr(err)
	}
	return toSnapshot(snap), nil
}

func (t *transaction) Query(q docstore.Query) ([]*docstore.Snapshot, error) {
	fq, err := t.store.buildQuery(q)
	if err != nil {
		return nil, err
	}
	snaps, err := t.tx.Documents(fq).GetAll()
	if err != nil {
		return nil, mapErr(err)
	}
	return toSnapshots(snaps), nil
}

func (t *transaction) Set(path string, data map[string]any) {
	ref, err := t.store.doc(path)
	if err != nil {
		t.record(err)
		return
	}
	t.record(t.tx.Set(ref, convertMap(data)))
}

func (t *transaction) Merge(path string, data map[string]any) {
	ref, err := t.store.doc(path)
	if err != nil {
		t.record(err)
		return
	}
	t.record(t.tx.Set(ref, convertMap(data), firestore.MergeAll))
}

func (t *transaction) Update(path string, fields map[string]any) {
	ref, err := t.store.doc(path)
	if err != nil {
		t.record(err)
		return
	}
	t.record(t.tx.Update(ref, toUpdates(fields)))
}

func (t *transaction) Delete(path string) {
	ref, err := t.store.doc(path)
	if err != nil {
		t.record(err)
		return
	}
	t.record(t.tx.Delete(ref))
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if status.Code(err) == codes.NotFound {
		return errors.Wrap(docstore.ErrNotFound, err.Error())
	}
	return err
}

// relativePath 去掉 "projects/<p>/databases/<d>/documents/" 前缀
func relativePath(full string) string {
	const marker = "/documents/"
	if i := strings.Index(full, marker); i >= 0 {
		return full[i+len(marker):]
	}
	return full
}

func toSnapshot(snap *firestore.DocumentSnapshot) *docstore.Snapshot {
	return docstore.NewSnapshot(relativePath(snap.Ref.Path), snap.Data())
}

func toSnapshots(snaps []*firestore.DocumentSnapshot) []*docstore.Snapshot {
	out := make([]*docstore.Snapshot, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, toSnapshot(s))
	}
	return out
}

func toUpdates(fields map[string]any) []firestore.Update {
	updates := make([]firestore.Update, 0, len(fields))
	for path, v := range fields {
		updates = append(updates, firestore.Update{Path: path, Value: convert(v)})
	}
	return updates
}

func convertMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = convert(v)
	}
	return out
}

// convert 把 docstore 的字段变换替换为 Firestore 的哨兵值
func convert(v any) any {
	switch t := v.(type) {
	case docstore.ServerTimestampTransform:
		return firestore.ServerTimestamp
	case docstore.IncrementTransform:
		return firestore.Increment(t.By)
	case docstore.ArrayUnionTransform:
		return firestore.ArrayUnion(t.Elems...)
	case map[string]any:
		return convertMap(t)
	}
	return v
}
