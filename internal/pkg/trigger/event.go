// Package trigger 把文档变更事件路由到按路径模式注册的处理函数。
package trigger

import (
	"community_forum/pkg/docstore"

	"github.com/google/uuid"
)

// EventType 文档事件类型
type EventType string

const (
	Created EventType = "created"
	Updated EventType = "updated"
	Deleted EventType = "deleted"
)

// Event 一次文档变更。ID 用于去重，同一变更重复投递时必须保持不变。
type Event struct {
	ID     string         `json:"id" yaml:"id" validate:"required"`
	Type   EventType      `json:"type" yaml:"type" validate:"required,oneof=created updated deleted"`
	Path   string         `json:"path" yaml:"path" validate:"required"`
	Before map[string]any `json:"before,omitempty" yaml:"before,omitempty"`
	After  map[string]any `json:"after,omitempty" yaml:"after,omitempty"`

	// Params 路径参数，由 Dispatcher 在匹配后填充
	Params map[string]string `json:"-" yaml:"-"`
}

// FromChange 将存储层提交的变更转换为事件
func FromChange(c docstore.Change) Event {
	ev := Event{
		ID:     uuid.New().String(),
		Path:   c.Path,
		Before: c.Before,
		After:  c.After,
	}
	switch {
	case c.Before == nil:
		ev.Type = Created
	case c.After == nil:
		ev.Type = Deleted
	default:
		ev.Type = Updated
	}
	return ev
}

// Param 返回路径参数
func (e Event) Param(name string) string {
	return e.Params[name]
}

// DocID 返回事件文档自身的 ID
func (e Event) DocID() string {
	return docstore.ID(e.Path)
}

// Data 创建/更新事件返回变更后的文档，删除事件返回删除前的文档
func (e Event) Data() *docstore.Snapshot {
	if e.Type == Deleted {
		return e.BeforeSnapshot()
	}
	return e.AfterSnapshot()
}

func (e Event) BeforeSnapshot() *docstore.Snapshot {
	if e.Before == nil {
		return nil
	}
	return docstore.NewSnapshot(e.Path, e.Before)
}

func (e Event) AfterSnapshot() *docstore.Snapshot {
	if e.After == nil {
		return nil
	}
	return docstore.NewSnapshot(e.Path, e.After)
}
