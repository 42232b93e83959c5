package docstore

// Op 过滤操作符，取值与 Firestore 一致
type Op string

const (
	OpEqual         Op = "=="
	OpNotEqual      Op = "!="
	OpArrayContains Op = "array-contains"
)

// Filter 单个字段过滤条件，Field 支持 "creator.creatorID" 形式的嵌套路径
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Query 集合查询。Group 为 true 时 Collection 是集合名（跨所有父路径匹配），
// 否则是完整的集合路径。
type Query struct {
	Collection string
	Group      bool
	Filters    []Filter
	Limit      int
}

// Collection 查询指定路径下的集合
func Collection(path string) Query {
	return Query{Collection: path}
}

// CollectionGroup 查询所有同名集合
func CollectionGroup(id string) Query {
	return Query{Collection: id, Group: true}
}

// Where 追加过滤条件，返回新的 Query
func (q Query) Where(field string, op Op, value any) Query {
	filters := make([]Filter, len(q.Filters), len(q.Filters)+1)
	copy(filters, q.Filters)
	q.Filters = append(filters, Filter{Field: field, Op: op, Value: value})
	return q
}

// WithLimit 限制返回条数，0 表示不限制
func (q Query) WithLimit(n int) Query {
	q.Limit = n
	return q
}
