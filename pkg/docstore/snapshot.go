package docstore

import (
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
)

// Snapshot 某一时刻的文档内容
type Snapshot struct {
	Path string
	ID   string
	Data map[string]any
}

// NewSnapshot 由路径和数据构造快照
func NewSnapshot(path string, data map[string]any) *Snapshot {
	return &Snapshot{Path: path, ID: ID(path), Data: data}
}

// Get 读取字段，支持嵌套路径
func (s *Snapshot) Get(field string) (any, bool) {
	if s == nil {
		return nil, false
	}
	return LookupField(s.Data, field)
}

// String 读取字符串字段，缺失或类型不符时返回空串
func (s *Snapshot) String(field string) string {
	v, _ := s.Get(field)
	str, _ := v.(string)
	return str
}

// DataTo 将文档解码到带 mapstructure 标签的结构体
func (s *Snapshot) DataTo(out any) error {
	if s == nil {
		return ErrNotFound
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "mapstructure",
		WeaklyTypedInput: false,
		Squash:           true,
		// 经 JSON 投递的事件中时间戳为 RFC3339 字符串
		DecodeHook: mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
	})
	if err != nil {
		return errors.Wrap(err, "docstore: build decoder")
	}
	if err := dec.Decode(s.Data); err != nil {
		return errors.Wrapf(err, "docstore: decode %s", s.Path)
	}
	return nil
}

// LookupField 按点分路径在嵌套 map 中查找字段
func LookupField(data map[string]any, field string) (any, bool) {
	var cur any = data
	for _, part := range strings.Split(field, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}
