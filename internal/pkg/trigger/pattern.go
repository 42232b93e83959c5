package trigger

import (
	"strings"

	"community_forum/pkg/docstore"

	"github.com/pkg/errors"
)

// Pattern 文档路径模式，例如 "Community/{communityID}/Post/{postID}"。
// 花括号段匹配任意单个路径段并以参数名捕获。
type Pattern struct {
	raw  string
	segs []string
}

// ParsePattern 解析路径模式，模式必须指向文档（偶数段）
func ParsePattern(s string) (Pattern, error) {
	if !docstore.IsDocumentPath(s) {
		return Pattern{}, errors.Errorf("trigger: pattern %q is not a document path", s)
	}
	segs := docstore.Split(s)
	for _, seg := range segs {
		if strings.HasPrefix(seg, "{") != strings.HasSuffix(seg, "}") || seg == "{}" {
			return Pattern{}, errors.Errorf("trigger: malformed wildcard %q in %q", seg, s)
		}
	}
	return Pattern{raw: s, segs: segs}, nil
}

// MustParsePattern 解析失败时 panic，用于注册期的常量模式
func MustParsePattern(s string) Pattern {
	p, err := ParsePattern(s)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Pattern) String() string {
	return p.raw
}

// Match 匹配成功时返回捕获的参数
func (p Pattern) Match(path string) (map[string]string, bool) {
	segs := docstore.Split(path)
	if len(segs) != len(p.segs) {
		return nil, false
	}
	params := make(map[string]string)
	for i, want := range p.segs {
		if name, ok := wildcard(want); ok {
			params[name] = segs[i]
			continue
		}
		if want != segs[i] {
			return nil, false
		}
	}
	return params, true
}

func wildcard(seg string) (string, bool) {
	if len(seg) > 2 && seg[0] == '{' && seg[len(seg)-1] == '}' {
		return seg[1 : len(seg)-1], true
	}
	return "", false
}
