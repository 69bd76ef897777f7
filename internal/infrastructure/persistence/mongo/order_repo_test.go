package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/xiebiao/bookstore-admin/internal/domain/order"
)

func sampleOrder() *order.Order {
	o := order.NewOrder("u1", "c1", []order.OrderLine{
		{ProductID: "p1", Price: decimal.RequireFromString("10.00"), Quantity: 2},
		{ProductID: "p2", Price: decimal.RequireFromString("0.99"), Quantity: 1},
	})
	o.Recalculate()
	o.Touch(time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC))
	return o
}

func namespace(mt *mtest.T) string {
	return mt.Coll.Database().Name() + "." + mt.Coll.Name()
}

// storedDoc 构造Mock响应中的订单文档
func storedDoc(mt *mtest.T, o *order.Order) bson.D {
	doc, err := toDocument(o)
	require.NoError(mt, err)
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}
	raw, err := bson.Marshal(doc)
	require.NoError(mt, err)
	var d bson.D
	require.NoError(mt, bson.Unmarshal(raw, &d))
	return d
}

func TestOrderRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("Create回填ID", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		o := sampleOrder()
		require.NoError(mt, repo.Create(ctx, o))
		_, err := primitive.ObjectIDFromHex(o.ID)
		assert.NoError(mt, err)
		assert.Equal(mt, int64(1), o.Version)
	})

	mt.Run("Create写入失败", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index: 0, Code: 11000, Message: "duplicate key error",
		}))

		o := sampleOrder()
		assert.Error(mt, repo.Create(ctx, o))
		assert.Empty(mt, o.ID)
	})

	mt.Run("FindByID还原金额和明细", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.Coll)
		o := sampleOrder()
		o.ID = primitive.NewObjectID().Hex()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, storedDoc(mt, o)))

		got, err := repo.FindByID(ctx, o.ID)
		require.NoError(mt, err)
		assert.Equal(mt, o.ID, got.ID)
		assert.Equal(mt, "c1", got.ClientID)
		assert.Equal(mt, 3, got.TotalItems)
		assert.True(mt, got.Total.Equal(decimal.RequireFromString("20.99")), "total=%s", got.Total)
		require.Len(mt, got.OrderLines, 2)
		assert.True(mt, got.OrderLines[0].Total.Equal(decimal.RequireFromString("20.00")))
		assert.True(mt, got.CreatedAt.Equal(o.CreatedAt))
	})

	mt.Run("FindByID不存在", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch))

		_, err := repo.FindByID(ctx, primitive.NewObjectID().Hex())
		assert.ErrorIs(mt, err, order.ErrOrderNotFound)
	})

	mt.Run("非法ID按不存在处理", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.Coll)

		_, err := repo.FindByID(ctx, "not-an-object-id")
		assert.ErrorIs(mt, err, order.ErrOrderNotFound)
		_, err = repo.UpdateByID(ctx, "xyz", sampleOrder())
		assert.ErrorIs(mt, err, order.ErrOrderNotFound)
		assert.ErrorIs(mt, repo.DeleteByID(ctx, "xyz", 1), order.ErrOrderNotFound)
	})

	mt.Run("FindByFilter", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.Coll)
		a, b := sampleOrder(), sampleOrder()
		a.ID = primitive.NewObjectID().Hex()
		b.ID = primitive.NewObjectID().Hex()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch,
			storedDoc(mt, a), storedDoc(mt, b)))

		orders, err := repo.FindByFilter(ctx, order.Filter{UserID: "u1"})
		require.NoError(mt, err)
		assert.Len(mt, orders, 2)
	})

	mt.Run("ExistsByFilter", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch,
			bson.D{{Key: "n", Value: int32(1)}}))

		ok, err := repo.ExistsByFilter(ctx, order.Filter{ClientID: "c1"})
		require.NoError(mt, err)
		assert.True(mt, ok)
	})

	mt.Run("UpdateByID返回新文档", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.Coll)
		o := sampleOrder()
		o.ID = primitive.NewObjectID().Hex()
		o.OrderLines = o.OrderLines[:1]
		o.Recalculate()
		o.Version = 1
		stored := *o
		stored.Version = 2
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: storedDoc(mt, &stored)}))

		updated, err := repo.UpdateByID(ctx, o.ID, o)
		require.NoError(mt, err)
		assert.Equal(mt, o.ID, updated.ID)
		assert.Equal(mt, 2, updated.TotalItems)
		assert.Equal(mt, int64(2), updated.Version)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		filter := started.Command.Lookup("query").Document()
		assert.Equal(mt, int64(1), filter.Lookup("version").Int64(), "按读取时的版本号过滤")
	})

	mt.Run("UpdateByID不存在", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.Coll)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, bson.D{{Key: "n", Value: int32(0)}}),
		)

		_, err := repo.UpdateByID(ctx, primitive.NewObjectID().Hex(), sampleOrder())
		assert.ErrorIs(mt, err, order.ErrOrderNotFound)
	})

	mt.Run("UpdateByID版本冲突", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.Coll)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, bson.D{{Key: "n", Value: int32(1)}}),
		)

		o := sampleOrder()
		o.Version = 3
		_, err := repo.UpdateByID(ctx, primitive.NewObjectID().Hex(), o)
		assert.ErrorIs(mt, err, order.ErrOrderConflict)
	})

	mt.Run("DeleteByID", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.Coll)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(1)}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(0)}),
			mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, bson.D{{Key: "n", Value: int32(0)}}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(0)}),
			mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, bson.D{{Key: "n", Value: int32(1)}}),
		)

		assert.NoError(mt, repo.DeleteByID(ctx, primitive.NewObjectID().Hex(), 1))
		assert.ErrorIs(mt, repo.DeleteByID(ctx, primitive.NewObjectID().Hex(), 1), order.ErrOrderNotFound)
		assert.ErrorIs(mt, repo.DeleteByID(ctx, primitive.NewObjectID().Hex(), 1), order.ErrOrderConflict)
	})

	mt.Run("Paginate", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.Coll)
		a := sampleOrder()
		a.ID = primitive.NewObjectID().Hex()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, bson.D{{Key: "n", Value: int32(3)}}),
			mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, storedDoc(mt, a)),
		)

		q, err := order.NewPageQuery(2, 2, order.SortByTotal, "asc")
		require.NoError(mt, err)

		page, err := repo.Paginate(ctx, order.Filter{}, q)
		require.NoError(mt, err)
		assert.Equal(mt, int64(3), page.Total)
		assert.Equal(mt, 2, page.TotalPages)
		assert.Equal(mt, 2, page.Page)
		assert.Len(mt, page.Items, 1)
	})
}

func TestDecimal128RoundTrip(t *testing.T) {
	for _, s := range []string{"0", "0.01", "19.99", "20.00", "123456.78"} {
		d := decimal.RequireFromString(s)
		v, err := toDecimal128(d)
		require.NoError(t, err)
		back, err := fromDecimal128(v)
		require.NoError(t, err)
		assert.True(t, d.Equal(back), "%s => %s", s, back)
	}
}
