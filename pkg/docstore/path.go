package docstore

import "strings"

// Join 拼接路径段
func Join(segments ...string) string {
	return strings.Join(segments, "/")
}

// Split 拆分路径，忽略首尾的 "/"
func Split(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// IsDocumentPath 路径段数为偶数且不含空段
func IsDocumentPath(path string) bool {
	segs := Split(path)
	return len(segs) > 0 && len(segs)%2 == 0 && !hasEmpty(segs)
}

// IsCollectionPath 路径段数为奇数且不含空段
func IsCollectionPath(path string) bool {
	segs := Split(path)
	return len(segs)%2 == 1 && !hasEmpty(segs)
}

// ID 返回文档路径的最后一段
func ID(path string) string {
	segs := Split(path)
	if len(segs) == 0 {
		return ""
	}
	return segs[len(segs)-1]
}

// Parent 返回文档所在集合的路径
func Parent(path string) string {
	segs := Split(path)
	if len(segs) < 2 {
		return ""
	}
	return Join(segs[:len(segs)-1]...)
}

// CollectionID 返回文档所在集合的名称，用于 collection group 匹配
func CollectionID(path string) string {
	segs := Split(path)
	if len(segs) < 2 {
		return ""
	}
	return segs[len(segs)-2]
}

func hasEmpty(segs []string) bool {
	for _, s := range segs {
		if s == "" {
			return true
		}
	}
	return false
}
