package memstore

import (
	"reflect"
	"strings"
	"time"

	"community_forum/pkg/docstore"
)

// normalize 深拷贝并统一数值类型：整数统一为 int64，浮点为 float64，
// 切片统一为 []any，map 统一为 map[string]any。
func normalize(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case string, bool, int64, float64, time.Time:
		return x
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return int64(x)
	case float32:
		return float64(x)
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = normalize(val)
		}
		return out
	case []string:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = val
		}
		return out
	case *time.Time:
		if x == nil {
			return nil
		}
		return *x
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = normalize(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return v
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = normalize(iter.Value().Interface())
		}
		return out
	case reflect.Ptr:
		if rv.IsNil() {
			return nil
		}
		return normalize(rv.Elem().Interface())
	}
	return v
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	return normalize(m).(map[string]any)
}

func valuesEqual(a, b any) bool {
	return reflect.DeepEqual(normalize(a), normalize(b))
}

// resolve 解析字段变换。prev 是字段原值（可能为 nil），now 是提交时刻。
func resolve(prev, v any, now time.Time) any {
	switch t := v.(type) {
	case docstore.ServerTimestampTransform:
		return now
	case docstore.IncrementTransform:
		switch p := prev.(type) {
		case int64:
			return p + t.By
		case float64:
			return p + float64(t.By)
		default:
			return t.By
		}
	case docstore.ArrayUnionTransform:
		arr, _ := prev.([]any)
		out := make([]any, len(arr), len(arr)+len(t.Elems))
		copy(out, arr)
		for _, e := range t.Elems {
			e = normalize(e)
			if !containsValue(out, e) {
				out = append(out, e)
			}
		}
		return out
	case map[string]any:
		prevMap, _ := prev.(map[string]any)
		out := make(map[string]any, len(t))
		for k, val := range t {
			var p any
			if prevMap != nil {
				p = prevMap[k]
			}
			out[k] = resolve(p, val, now)
		}
		return out
	}
	return normalize(v)
}

func containsValue(arr []any, v any) bool {
	for _, e := range arr {
		if reflect.DeepEqual(e, v) {
			return true
		}
	}
	return false
}

// mergeInto 深度合并：src 中的嵌套 map 与 dst 对应字段逐层合并
func mergeInto(dst, src map[string]any, now time.Time) {
	for k, v := range src {
		if sub, ok := v.(map[string]any); ok {
			if existing, ok := dst[k].(map[string]any); ok {
				mergeInto(existing, sub, now)
				continue
			}
			nested := map[string]any{}
			mergeInto(nested, sub, now)
			dst[k] = nested
			continue
		}
		dst[k] = resolve(dst[k], v, now)
	}
}

// setField 按点分路径写入，中间层不存在时创建
func setField(data map[string]any, field string, v any, now time.Time) {
	parts := strings.Split(field, ".")
	cur := data
	for _, p := range parts[:len(parts)-1] {
		next, ok := cur[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			cur[p] = next
		}
		cur = next
	}
	last := parts[len(parts)-1]
	cur[last] = resolve(cur[last], v, now)
}

func matches(data map[string]any, f docstore.Filter) bool {
	v, ok := docstore.LookupField(data, f.Field)
	switch f.Op {
	case docstore.OpEqual:
		return ok && valuesEqual(v, f.Value)
	case docstore.OpNotEqual:
		return ok && v != nil && !valuesEqual(v, f.Value)
	case docstore.OpArrayContains:
		arr, isArr := v.([]any)
		return ok && isArr && containsValue(arr, normalize(f.Value))
	}
	return false
}
