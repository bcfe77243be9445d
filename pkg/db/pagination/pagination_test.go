package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPageInfo(t *testing.T) {
	info := BuildPageInfo(Pagination{Page: 2, Limit: 10}, 25)
	assert.Equal(t, int64(25), info.Total)
	assert.Equal(t, 2, info.Page)
	assert.Equal(t, 10, info.Limit)
	assert.Equal(t, int64(3), info.Pages)
}

func TestBuildPageInfoExactMultiple(t *testing.T) {
	info := BuildPageInfo(Pagination{Page: 1, Limit: 5}, 10)
	assert.Equal(t, int64(2), info.Pages)
}

func TestBuildPageInfoEmpty(t *testing.T) {
	info := BuildPageInfo(Pagination{}, 0)
	assert.Equal(t, int64(0), info.Pages)
	assert.Equal(t, 1, info.Page)
	assert.Equal(t, 10, info.Limit)
}

func TestNormalizeClampsLimit(t *testing.T) {
	p := Pagination{Page: 0, Limit: 1000}.Normalize()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 250, p.Limit)
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 20, Pagination{Page: 3, Limit: 10}.Offset())
}
