package option

import (
	"github.com/perkly/perkly/pkg/db/pagination"
	"gorm.io/gorm"
)

// Option mutates a gorm statement before execution.
type Option interface {
	Apply(*gorm.DB) *gorm.DB
}

type paginate struct {
	page pagination.Pagination
}

// ApplyPagination applies offset paging to a statement.
func ApplyPagination(page pagination.Pagination) Option {
	return paginate{page: page.Normalize()}
}

func (p paginate) Apply(stmt *gorm.DB) *gorm.DB {
	return stmt.Offset(p.page.Offset()).Limit(p.page.Limit)
}
