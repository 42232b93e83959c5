// Package docstore 定义层级文档数据库的访问接口。
//
// 文档按路径寻址（"Community/c1/Post/p1"），路径段数为偶数；集合路径段数为奇数。
// 提供单文档读写、等值/不等值过滤查询（含跨层级的 collection group 查询）、
// 原子批量写以及带冲突重试的事务。具体实现见 memstore（内存）与 fsstore（Firestore）。
package docstore

import (
	"context"

	"github.com/pkg/errors"
)

// MaxBatchWrites 单个批次/事务允许的最大写操作数
const MaxBatchWrites = 500

var (
	ErrNotFound       = errors.New("docstore: document not found")
	ErrInvalidPath    = errors.New("docstore: invalid document path")
	ErrBatchTooLarge  = errors.New("docstore: too many writes in one batch")
	ErrBatchCommitted = errors.New("docstore: batch already committed")
	ErrTxConflict     = errors.New("docstore: transaction conflict, retries exhausted")
	ErrReadAfterWrite = errors.New("docstore: transaction reads must happen before writes")
)

// Writer 批次与事务共有的写操作。写入在 Commit 时才生效。
type Writer interface {
	// Set 覆盖整个文档
	Set(path string, data map[string]any)
	// Merge 与现有文档深度合并，文档不存在时创建
	Merge(path string, data map[string]any)
	// Update 按字段路径（支持 "creator.name"）更新，文档必须存在
	Update(path string, fields map[string]any)
	// Delete 删除文档，不存在时为空操作
	Delete(path string)
}

// Batch 原子批量写
type Batch interface {
	Writer
	Len() int
	Commit(ctx context.Context) error
}

// Tx 事务内的读写句柄。所有读必须在写之前完成。
type Tx interface {
	Writer
	Get(path string) (*Snapshot, error)
	Query(q Query) ([]*Snapshot, error)
}

// TxFunc 事务函数，冲突时可能被多次调用
type TxFunc func(ctx context.Context, tx Tx) error

// Store 文档库客户端
type Store interface {
	Get(ctx context.Context, path string) (*Snapshot, error)
	Set(ctx context.Context, path string, data map[string]any) error
	Merge(ctx context.Context, path string, data map[string]any) error
	Update(ctx context.Context, path string, fields map[string]any) error
	Delete(ctx context.Context, path string) error
	Query(ctx context.Context, q Query) ([]*Snapshot, error)

	// NewID 生成一个新的随机文档 ID
	NewID() string
	Batch() Batch
	RunTransaction(ctx context.Context, fn TxFunc) error
	Close() error
}

// Change 一次已提交的文档变更。Before 为 nil 表示创建，After 为 nil 表示删除。
type Change struct {
	Path   string
	Before map[string]any
	After  map[string]any
}
