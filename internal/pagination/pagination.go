package pagination

import (
	"strconv"
	"strings"

	"gorm.io/gorm"
)

// Page 分页结果
type Page[T any] struct {
	Items    []T
	Number   int
	Size     int
	Total    int64
	NumPages int
}

func (p *Page[T]) HasNext() bool     { return p.Number < p.NumPages }
func (p *Page[T]) HasPrevious() bool { return p.Number > 1 }
func (p *Page[T]) NextNumber() int   { return p.Number + 1 }
func (p *Page[T]) PrevNumber() int   { return p.Number - 1 }

// Offset 当前页第一条的偏移量
func (p *Page[T]) Offset() int {
	return (p.Number - 1) * p.Size
}

// ParseNumber 解析页码参数：非数字返回 1，越界的数字交给 Clamp 处理
func ParseNumber(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 1
	}
	return n
}

// NumPages 至少一页，空结果也是一页
func NumPages(total int64, size int) int {
	if size <= 0 || total <= 0 {
		return 1
	}
	return int((total + int64(size) - 1) / int64(size))
}

// Clamp 越界（包括小于 1）的页码落到最后一页
func Clamp(number, numPages int) int {
	if number < 1 || number > numPages {
		return numPages
	}
	return number
}

// Paginate counts query, clamps number and loads one page of T. scopes are
// applied to the fetch only (preloads and the like), never to the count.
func Paginate[T any](query *gorm.DB, number, size int, scopes ...func(*gorm.DB) *gorm.DB) (*Page[T], error) {
	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, err
	}
	page := &Page[T]{Size: size, Total: total, NumPages: NumPages(total, size)}
	page.Number = Clamp(number, page.NumPages)

	items := make([]T, 0, size)
	if total > 0 {
		err := query.Session(&gorm.Session{}).
			Scopes(scopes...).
			Offset(page.Offset()).
			Limit(size).
			Find(&items).Error
		if err != nil {
			return nil, err
		}
	}
	page.Items = items
	return page, nil
}
