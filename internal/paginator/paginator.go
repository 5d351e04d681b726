// Package paginator 把有序集合切分成固定大小的页。
package paginator

import (
	"strconv"
	"strings"
)

// PerPage 每页条目数
const PerPage = 10

// Page 是一页数据及其元信息，模板中以 page_obj 使用
type Page[T any] struct {
	ObjectList []T
	Number     int
	NumPages   int
	Count      int
	perPage    int
}

func (p *Page[T]) Len() int { return len(p.ObjectList) }

func (p *Page[T]) HasNext() bool { return p.Number < p.NumPages }

func (p *Page[T]) HasPrevious() bool { return p.Number > 1 }

func (p *Page[T]) HasOtherPages() bool { return p.HasNext() || p.HasPrevious() }

func (p *Page[T]) NextPageNumber() int {
	if !p.HasNext() {
		return p.Number
	}
	return p.Number + 1
}

func (p *Page[T]) PreviousPageNumber() int {
	if !p.HasPrevious() {
		return p.Number
	}
	return p.Number - 1
}

// StartIndex 本页第一条在整个集合中的序号（从1开始），空集合为0
func (p *Page[T]) StartIndex() int {
	if p.Count == 0 {
		return 0
	}
	return (p.Number-1)*p.perPage + 1
}

// EndIndex 本页最后一条在整个集合中的序号（从1开始）
func (p *Page[T]) EndIndex() int {
	if p.Count == 0 {
		return 0
	}
	return p.StartIndex() + len(p.ObjectList) - 1
}

// PageRange 返回 1..NumPages，用于渲染页码
func (p *Page[T]) PageRange() []int {
	pages := make([]int, p.NumPages)
	for i := range pages {
		pages[i] = i + 1
	}
	return pages
}

// NumPages 计算页数，空集合也有一页
func NumPages(count, perPage int) int {
	if count <= 0 {
		return 1
	}
	return (count + perPage - 1) / perPage
}

// Clamp 把原始页码解析并夹到 [1, numPages]，非数字按第一页处理
func Clamp(raw string, numPages int) int {
	number, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || number < 1 {
		return 1
	}
	if number > numPages {
		return numPages
	}
	return number
}

// Paginate 按 PerPage 切分 items，raw 通常来自 ?page= 查询参数
func Paginate[T any](items []T, raw string) *Page[T] {
	return PaginateBy(items, raw, PerPage)
}

func PaginateBy[T any](items []T, raw string, perPage int) *Page[T] {
	if perPage < 1 {
		perPage = PerPage
	}
	count := len(items)
	numPages := NumPages(count, perPage)
	number := Clamp(raw, numPages)

	start := (number - 1) * perPage
	end := start + perPage
	if end > count {
		end = count
	}

	return &Page[T]{
		ObjectList: items[start:end],
		Number:     number,
		NumPages:   numPages,
		Count:      count,
		perPage:    perPage,
	}
}
