package orm

import (
	"gorm.io/gorm"

	"yatube/internal/pkg"
)

// Paginate counts the rows selected by base, resolves the raw page number
// against that count and loads the page. base is called twice so the count
// never carries ORDER BY or preloads.
func Paginate[T any](base func() *gorm.DB, order, rawPage string, size int, preloads ...string) (*pkg.Page[T], error) {
	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, err
	}

	number := pkg.ResolvePage(rawPage, total, size)

	q := base()
	for _, p := range preloads {
		q = q.Preload(p)
	}
	var items []T
	if err := q.Order(order).Offset(pkg.Offset(number, size)).Limit(size).Find(&items).Error; err != nil {
		return nil, err
	}
	return pkg.NewPage(items, number, total, size), nil
}
