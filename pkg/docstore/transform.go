package docstore

// 字段变换：写入时由存储端解析，对应 Firestore 的 FieldValue。

// ServerTimestampTransform 写入提交时刻的服务端时间
type ServerTimestampTransform struct{}

// IncrementTransform 原子自增（负数为自减）
type IncrementTransform struct {
	By int64
}

// ArrayUnionTransform 集合并，已存在的元素不会重复加入
type ArrayUnionTransform struct {
	Elems []any
}

// ServerTimestamp 服务端时间戳占位值
var ServerTimestamp = ServerTimestampTransform{}

// Increment 返回自增变换
func Increment(n int64) IncrementTransform {
	return IncrementTransform{By: n}
}

// ArrayUnion 返回集合并变换
func ArrayUnion(elems ...any) ArrayUnionTransform {
	return ArrayUnionTransform{Elems: elems}
}

// StringsUnion 字符串切片版本的 ArrayUnion
func StringsUnion(elems ...string) ArrayUnionTransform {
	out := make([]any, len(elems))
	for i, e := range elems {
		out[i] = e
	}
	return ArrayUnionTransform{Elems: out}
}
