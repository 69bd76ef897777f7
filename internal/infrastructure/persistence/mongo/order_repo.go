package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/xiebiao/bookstore-admin/internal/domain/order"
	apperrors "github.com/xiebiao/bookstore-admin/pkg/errors"
)

// orderRepository 订单仓储实现(MongoDB)
// 1. 订单明细内嵌在订单文档中
// 2. 金额以Decimal128存储,避免浮点误差
// 3. ID为ObjectID的十六进制字符串,非法ID按订单不存在处理
// 4. 更新和删除以version做条件,未命中时再按_id判断是不存在还是版本冲突
type orderRepository struct {
	coll *mongo.Collection
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(coll *mongo.Collection) order.Repository {
	return &orderRepository{coll: coll}
}

type orderDocument struct {
	ID         primitive.ObjectID   `bson:"_id,omitempty"`
	UserID     string               `bson:"userId"`
	ClientID   string               `bson:"clientId"`
	OrderLines []orderLineDocument  `bson:"orderLines"`
	TotalItems int                  `bson:"totalItems"`
	Total      primitive.Decimal128 `bson:"total"`
	CreatedAt  time.Time            `bson:"createdAt"`
	UpdatedAt  time.Time            `bson:"updatedAt"`
	IsDeleted  bool                 `bson:"isDeleted"`
	Version    int64                `bson:"version"`
}

type orderLineDocument struct {
	ProductID string               `bson:"productId"`
	Price     primitive.Decimal128 `bson:"price"`
	Quantity  int                  `bson:"quantity"`
	Total     primitive.Decimal128 `bson:"total"`
}

// Create 创建订单并回填ID
func (r *orderRepository) Create(ctx context.Context, o *order.Order) error {
	doc, err := toDocument(o)
	if err != nil {
		return err
	}
	doc.ID = primitive.NilObjectID
	doc.Version = 1

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return apperrors.Wrap(err, "保存订单失败")
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return apperrors.New(apperrors.ErrCodeInternal, "订单ID类型异常")
	}
	o.ID = oid.Hex()
	o.Version = doc.Version
	return nil
}

// FindByID 根据ID查找订单
func (r *orderRepository) FindByID(ctx context.Context, id string) (*order.Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, order.OrderNotFound(id)
	}

	var doc orderDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, order.OrderNotFound(id)
		}
		return nil, apperrors.Wrap(err, "查询订单失败")
	}
	return toEntity(&doc)
}

// FindByFilter 按条件查询,按创建时间倒序
func (r *orderRepository) FindByFilter(ctx context.Context, f order.Filter) ([]*order.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	return r.find(ctx, toFilter(f), opts)
}

// ExistsByFilter 是否存在满足条件的订单
func (r *orderRepository) ExistsByFilter(ctx context.Context, f order.Filter) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, toFilter(f), options.Count().SetLimit(1))
	if err != nil {
		return false, apperrors.Wrap(err, "查询订单失败")
	}
	return n > 0, nil
}

// UpdateByID 替换订单内容,保留_id和createdAt
// 以o.Version为条件写入,写入后版本号加1
func (r *orderRepository) UpdateByID(ctx context.Context, id string, o *order.Order) (*order.Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, order.OrderNotFound(id)
	}

	doc, err := toDocument(o)
	if err != nil {
		return nil, err
	}

	update := bson.M{"$set": bson.M{
		"userId":     doc.UserID,
		"clientId":   doc.ClientID,
		"orderLines": doc.OrderLines,
		"totalItems": doc.TotalItems,
		"total":      doc.Total,
		"updatedAt":  doc.UpdatedAt,
		"isDeleted":  doc.IsDeleted,
		"version":    o.Version + 1,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated orderDocument
	err = r.coll.FindOneAndUpdate(ctx, versionFilter(oid, o.Version), update, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, r.missed(ctx, oid, id)
		}
		return nil, apperrors.Wrap(err, "更新订单失败")
	}
	return toEntity(&updated)
}

// DeleteByID 物理删除指定版本的订单
func (r *orderRepository) DeleteByID(ctx context.Context, id string, version int64) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return order.OrderNotFound(id)
	}

	res, err := r.coll.DeleteOne(ctx, versionFilter(oid, version))
	if err != nil {
		return apperrors.Wrap(err, "删除订单失败")
	}
	if res.DeletedCount == 0 {
		return r.missed(ctx, oid, id)
	}
	return nil
}

// missed 条件写未命中时区分订单不存在和版本冲突
func (r *orderRepository) missed(ctx context.Context, oid primitive.ObjectID, id string) error {
	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": oid}, options.Count().SetLimit(1))
	if err != nil {
		return apperrors.Wrap(err, "查询订单失败")
	}
	if n == 0 {
		return order.OrderNotFound(id)
	}
	return order.ErrOrderConflict
}

// versionFilter 按_id和版本号定位订单
// 没有version字段的旧文档按版本0处理
func versionFilter(oid primitive.ObjectID, version int64) bson.M {
	if version == 0 {
		return bson.M{"_id": oid, "version": bson.M{"$in": bson.A{0, nil}}}
	}
	return bson.M{"_id": oid, "version": version}
}

// Paginate 分页查询
// 排序字段相同时按_id排序,保证翻页结果稳定
func (r *orderRepository) Paginate(ctx context.Context, f order.Filter, q order.PageQuery) (*order.PageResult, error) {
	filter := toFilter(f)

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, apperrors.Wrap(err, "统计订单失败")
	}

	dir := 1
	if q.SortDesc {
		dir = -1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: q.SortField, Value: dir}, {Key: "_id", Value: dir}}).
		SetSkip(q.Skip()).
		SetLimit(int64(q.Limit))

	items, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	return order.NewPageResult(items, total, q), nil
}

func (r *orderRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*order.Order, error) {
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, apperrors.Wrap(err, "查询订单失败")
	}
	defer cur.Close(ctx)

	var docs []orderDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, apperrors.Wrap(err, "读取订单失败")
	}

	orders := make([]*order.Order, 0, len(docs))
	for i := range docs {
		o, err := toEntity(&docs[i])
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func toFilter(f order.Filter) bson.M {
	filter := bson.M{}
	if f.UserID != "" {
		filter["userId"] = f.UserID
	}
	if f.ClientID != "" {
		filter["clientId"] = f.ClientID
	}
	return filter
}

func toDocument(o *order.Order) (*orderDocument, error) {
	total, err := toDecimal128(o.Total)
	if err != nil {
		return nil, err
	}

	lines := make([]orderLineDocument, 0, len(o.OrderLines))
	for _, l := range o.OrderLines {
		price, err := toDecimal128(l.Price)
		if err != nil {
			return nil, err
		}
		lineTotal, err := toDecimal128(l.Total)
		if err != nil {
			return nil, err
		}
		lines = append(lines, orderLineDocument{
			ProductID: l.ProductID,
			Price:     price,
			Quantity:  l.Quantity,
			Total:     lineTotal,
		})
	}

	doc := &orderDocument{
		UserID:     o.UserID,
		ClientID:   o.ClientID,
		OrderLines: lines,
		TotalItems: o.TotalItems,
		Total:      total,
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
		IsDeleted:  o.IsDeleted,
		Version:    o.Version,
	}
	if o.ID != "" {
		if oid, err := primitive.ObjectIDFromHex(o.ID); err == nil {
			doc.ID = oid
		}
	}
	return doc, nil
}

func toEntity(doc *orderDocument) (*order.Order, error) {
	total, err := fromDecimal128(doc.Total)
	if err != nil {
		return nil, err
	}

	lines := make([]order.OrderLine, 0, len(doc.OrderLines))
	for _, l := range doc.OrderLines {
		price, err := fromDecimal128(l.Price)
		if err != nil {
			return nil, err
		}
		lineTotal, err := fromDecimal128(l.Total)
		if err != nil {
			return nil, err
		}
		lines = append(lines, order.OrderLine{
			ProductID: l.ProductID,
			Price:     price,
			Quantity:  l.Quantity,
			Total:     lineTotal,
		})
	}

	return &order.Order{
		ID:         doc.ID.Hex(),
		UserID:     doc.UserID,
		ClientID:   doc.ClientID,
		OrderLines: lines,
		TotalItems: doc.TotalItems,
		Total:      total,
		CreatedAt:  doc.CreatedAt,
		UpdatedAt:  doc.UpdatedAt,
		IsDeleted:  doc.IsDeleted,
		Version:    doc.Version,
	}, nil
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, apperrors.Wrapf(err, "金额[%s]格式错误", d.String())
	}
	return v, nil
}

func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero, apperrors.Wrapf(err, "金额[%s]格式错误", v.String())
	}
	return d, nil
}
