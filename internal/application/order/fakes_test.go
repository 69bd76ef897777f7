package order

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/xiebiao/bookstore-admin/internal/domain/book"
	"github.com/xiebiao/bookstore-admin/internal/domain/client"
	"github.com/xiebiao/bookstore-admin/internal/domain/order"
	"github.com/xiebiao/bookstore-admin/internal/domain/user"
)

// memCatalog 内存图书库,Transaction失败时恢复快照以模拟回滚
// 事务之间串行执行,相当于行锁
type memCatalog struct {
	txMu      sync.Mutex
	mu        sync.Mutex
	books     map[string]book.Book
	conflicts int // 接下来的Save调用中有多少次返回版本冲突
	saves     int
}

func newMemCatalog(books ...*book.Book) *memCatalog {
	c := &memCatalog{books: make(map[string]book.Book)}
	for _, b := range books {
		c.books[b.ID] = *b
	}
	return c
}

func (c *memCatalog) Create(ctx context.Context, b *book.Book) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.books[b.ID] = *b
	return nil
}

func (c *memCatalog) FindByID(ctx context.Context, id string) (*book.Book, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.books[id]
	if !ok {
		return nil, book.ErrBookNotFound
	}
	return &b, nil
}

func (c *memCatalog) Save(ctx context.Context, b *book.Book) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.saves++
	if c.conflicts > 0 {
		c.conflicts--
		return book.ErrStockConflict
	}
	stored, ok := c.books[b.ID]
	if !ok || stored.Version != b.Version {
		return book.ErrStockConflict
	}
	b.Version++
	c.books[b.ID] = *b
	return nil
}

func (c *memCatalog) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	c.txMu.Lock()
	defer c.txMu.Unlock()

	c.mu.Lock()
	snapshot := make(map[string]book.Book, len(c.books))
	for k, v := range c.books {
		snapshot[k] = v
	}
	c.mu.Unlock()

	if err := fn(ctx); err != nil {
		c.mu.Lock()
		c.books = snapshot
		c.mu.Unlock()
		return err
	}
	return nil
}

func (c *memCatalog) stock(id string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.books[id].Stock
}

// memClients 客户仓储
type memClients map[string]bool

func (m memClients) Create(ctx context.Context, c *client.Client) error {
	m[c.ID] = true
	return nil
}

func (m memClients) ExistsByID(ctx context.Context, id string) (bool, error) {
	return m[id], nil
}

// memUsers 用户仓储
type memUsers struct{ users map[string]*user.User }

func (m memUsers) Create(ctx context.Context, u *user.User) error {
	m.users[u.ID] = u
	return nil
}

func (m memUsers) FindByID(ctx context.Context, id string) (*user.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, user.ErrUserNotFound
}

func (m memUsers) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, user.ErrUserNotFound
}

func (m memUsers) ExistsByID(ctx context.Context, id string) (bool, error) {
	_, ok := m.users[id]
	return ok, nil
}

// memOrders 内存订单仓储
type memOrders struct {
	mu        sync.Mutex
	seq       int
	orders    map[string]*order.Order
	createErr error
	updateErr error
	finds     int
}

func newMemOrders() *memOrders {
	return &memOrders{orders: make(map[string]*order.Order)}
}

func cloneOrder(o *order.Order) *order.Order {
	c := *o
	c.OrderLines = append([]order.OrderLine(nil), o.OrderLines...)
	return &c
}

func (m *memOrders) Create(ctx context.Context, o *order.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.seq++
	o.ID = "o-" + strconv.Itoa(m.seq)
	o.Version = 1
	m.orders[o.ID] = cloneOrder(o)
	return nil
}

func (m *memOrders) FindByID(ctx context.Context, id string) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finds++
	o, ok := m.orders[id]
	if !ok {
		return nil, order.OrderNotFound(id)
	}
	return cloneOrder(o), nil
}

func (m *memOrders) FindByFilter(ctx context.Context, f order.Filter) ([]*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*order.Order
	for _, o := range m.orders {
		if f.UserID != "" && o.UserID != f.UserID {
			continue
		}
		if f.ClientID != "" && o.ClientID != f.ClientID {
			continue
		}
		out = append(out, cloneOrder(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memOrders) ExistsByFilter(ctx context.Context, f order.Filter) (bool, error) {
	list, err := m.FindByFilter(ctx, f)
	return len(list) > 0, err
}

func (m *memOrders) UpdateByID(ctx context.Context, id string, o *order.Order) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	stored, ok := m.orders[id]
	if !ok {
		return nil, order.OrderNotFound(id)
	}
	if stored.Version != o.Version {
		return nil, order.ErrOrderConflict
	}
	saved := cloneOrder(o)
	saved.ID = id
	saved.Version++
	m.orders[id] = saved
	return cloneOrder(saved), nil
}

func (m *memOrders) DeleteByID(ctx context.Context, id string, version int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.orders[id]
	if !ok {
		return order.OrderNotFound(id)
	}
	if stored.Version != version {
		return order.ErrOrderConflict
	}
	delete(m.orders, id)
	return nil
}

func (m *memOrders) Paginate(ctx context.Context, f order.Filter, q order.PageQuery) (*order.PageResult, error) {
	all, _ := m.FindByFilter(ctx, f)
	start := int(q.Skip())
	if start > len(all) {
		start = len(all)
	}
	end := start + q.Limit
	if end > len(all) {
		end = len(all)
	}
	return order.NewPageResult(all[start:end], int64(len(all)), q), nil
}

// hookedOrders FindByID读到订单后先执行afterFind再返回,用来制造读写交错
type hookedOrders struct {
	*memOrders
	afterFind func()
}

func (h *hookedOrders) FindByID(ctx context.Context, id string) (*order.Order, error) {
	o, err := h.memOrders.FindByID(ctx, id)
	if h.afterFind != nil {
		h.afterFind()
	}
	return o, err
}

func (m *memOrders) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

// memCache 内存订单缓存,floors记录Invalidate登记的版本下限
type memCache struct {
	mu     sync.Mutex
	items  map[string]*order.Order
	floors map[string]int64
}

func newMemCache() *memCache {
	return &memCache{items: make(map[string]*order.Order), floors: make(map[string]int64)}
}

func (c *memCache) Get(ctx context.Context, id string) (*order.Order, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if o, ok := c.items[id]; ok {
		return cloneOrder(o), nil
	}
	return nil, nil
}

func (c *memCache) Set(ctx context.Context, o *order.Order) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if o.Version < c.floors[o.ID] {
		return nil
	}
	c.items[o.ID] = cloneOrder(o)
	return nil
}

func (c *memCache) Invalidate(ctx context.Context, id string, minVersion int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, id)
	if minVersion > c.floors[id] {
		c.floors[id] = minVersion
	}
	return nil
}

// mockPublisher 事件发布Mock
type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, e order.Event) error {
	return m.Called(ctx, e).Error(0)
}
