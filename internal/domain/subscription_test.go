package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPagination_Normalize(t *testing.T) {
	assert.Equal(t, Pagination{PageNo: 1, PageSize: 10}, Pagination{}.Normalize(10))
	assert.Equal(t, Pagination{PageNo: 1, PageSize: 10}, Pagination{PageNo: -4, PageSize: -1}.Normalize(10))
	assert.Equal(t, Pagination{PageNo: 3, PageSize: MaxPageSize}, Pagination{PageNo: 3, PageSize: 5000}.Normalize(10))
}

func TestPagination_OffsetSaturates(t *testing.T) {
	assert.Equal(t, 0, Pagination{PageNo: 1, PageSize: 10}.Offset())
	assert.Equal(t, 20, Pagination{PageNo: 3, PageSize: 10}.Offset())
	assert.Equal(t, 0, Pagination{PageNo: 0, PageSize: 10}.Offset())
	assert.Equal(t, math.MaxInt, Pagination{PageNo: math.MaxInt/10 + 2, PageSize: 10}.Offset())
	assert.Equal(t, math.MaxInt, Pagination{PageNo: math.MaxInt, PageSize: MaxPageSize}.Offset())
}
