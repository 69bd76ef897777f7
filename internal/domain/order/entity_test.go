package order

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestOrder_Recalculate(t *testing.T) {
	o := NewOrder("u-1", "c-1", []OrderLine{
		{ProductID: "b-1", Price: d("10.00"), Quantity: 2, Total: d("999")},
		{ProductID: "b-2", Price: d("19.99"), Quantity: 3},
	})

	o.Recalculate()

	assert.True(t, o.OrderLines[0].Total.Equal(d("20.00")), "调用方提交的小计应被覆盖")
	assert.True(t, o.OrderLines[1].Total.Equal(d("59.97")))
	assert.True(t, o.Total.Equal(d("79.97")))
	assert.Equal(t, 5, o.TotalItems)
}

func TestOrder_Quantities_MergesSameProduct(t *testing.T) {
	o := NewOrder("u-1", "c-1", []OrderLine{
		{ProductID: "b-1", Quantity: 2},
		{ProductID: "b-2", Quantity: 1},
		{ProductID: "b-1", Quantity: 3},
	})

	assert.Equal(t, map[string]int{"b-1": 5, "b-2": 1}, o.Quantities())
}

func TestOrder_Touch(t *testing.T) {
	o := NewOrder("u-1", "c-1", nil)
	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	o.Touch(t1)
	o.Touch(t2)

	assert.Equal(t, t1, o.CreatedAt)
	assert.Equal(t, t2, o.UpdatedAt)
}

func TestNewPageQuery(t *testing.T) {
	tests := []struct {
		name      string
		page      int
		limit     int
		field     string
		direction string
		want      PageQuery
		wantErr   bool
	}{
		{"默认值", 0, 0, "", "", PageQuery{Page: 1, Limit: 10, SortField: SortByCreatedAt, SortDesc: true}, false},
		{"上限", 2, 500, SortByTotal, "asc", PageQuery{Page: 2, Limit: 100, SortField: SortByTotal, SortDesc: false}, false},
		{"页码上限", math.MaxInt, 100, "", "", PageQuery{Page: MaxPage, Limit: 100, SortField: SortByCreatedAt, SortDesc: true}, false},
		{"非法排序字段", 1, 10, "password", "", PageQuery{}, true},
		{"非法排序方向", 1, 10, SortByTotalItems, "sideways", PageQuery{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewPageQuery(tt.page, tt.limit, tt.field, tt.direction)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPageQuery)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewPageResult(t *testing.T) {
	q := PageQuery{Page: 2, Limit: 10}
	r := NewPageResult(nil, 21, q)

	assert.Equal(t, 3, r.TotalPages)
	assert.Equal(t, int64(10), q.Skip())
}

func TestPageQuery_SkipDoesNotOverflow(t *testing.T) {
	q, err := NewPageQuery(math.MaxInt, math.MaxInt, "", "")
	require.NoError(t, err)
	assert.Equal(t, int64(MaxPage-1)*MaxLimit, q.Skip())

	assert.Equal(t, int64(0), PageQuery{Page: 0, Limit: 10}.Skip())
	assert.Positive(t, PageQuery{Page: math.MaxInt32, Limit: math.MaxInt32}.Skip())
}

func TestErrorConstructors_MatchSentinels(t *testing.T) {
	assert.ErrorIs(t, ProductNotFound("b-1"), ErrInvalidReference)
	assert.ErrorIs(t, InsufficientStock("b-1", 6, 5), ErrInsufficientStock)
	assert.ErrorIs(t, PriceMismatch("b-1", d("20"), d("19.99")), ErrPriceMismatch)
	assert.ErrorIs(t, OrderNotFound("x"), ErrOrderNotFound)
	assert.ErrorIs(t, InvalidQuantity("b-1", 0), ErrInvalidOrder)
	assert.Contains(t, PriceMismatch("b-1", d("20"), d("19.99")).Error(), "19.99")
}
