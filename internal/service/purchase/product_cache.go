package purchase

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/iap/internal/domain"
)

// loadFlight — одна выполняющаяся загрузка продукта.
// Все ожидающие вызовы получают один и тот же результат.
type loadFlight struct {
	done    chan struct{}
	product domain.Product
	err     error
}

// productCache — memoized single-flight загрузчик метаданных продукта.
// Успешная загрузка кэшируется на всё время жизни оркестратора,
// после ошибки слот очищается и следующий вызов повторит загрузку.
type productCache struct {
	catalog   domain.ProductCatalog
	productID string
	logger    *log.Entry

	mu     sync.Mutex
	cached *domain.Product
	flight *loadFlight
}

func newProductCache(catalog domain.ProductCatalog, productID string, logger *log.Entry) *productCache {
	if logger == nil {
		logger = log.WithField("component", "product-cache")
	}
	return &productCache{
		catalog:   catalog,
		productID: productID,
		logger:    logger,
	}
}

// Get возвращает продукт, запуская не более одной загрузки каталога
// независимо от числа конкурентных вызовов.
func (c *productCache) Get(ctx context.Context) (domain.Product, error) {
	c.mu.Lock()
	if c.cached != nil {
		product := *c.cached
		c.mu.Unlock()
		return product, nil
	}

	fl := c.flight
	if fl == nil {
		fl = &loadFlight{done: make(chan struct{})}
		c.flight = fl
		go c.run(fl)
	}
	c.mu.Unlock()

	select {
	case <-fl.done:
		return fl.product, fl.err
	case <-ctx.Done():
		// Загрузка продолжается в фоне; её результат достанется следующим вызовам.
		return domain.Product{}, ctx.Err()
	}
}

// run выполняет загрузку отдельно от контекста вызывающего:
// результат нужен всем ожидающим, а не только первому вызову.
func (c *productCache) run(fl *loadFlight) {
	products, err := c.catalog.LoadProducts(context.Background(), []string{c.productID})
	if err != nil {
		fl.err = err
		c.logger.WithError(err).WithField("product_id", c.productID).Error("failed to load product")
	} else if len(products) > 0 {
		fl.product = products[0]
	}

	c.mu.Lock()
	if fl.err == nil {
		product := fl.product
		c.cached = &product
	}
	c.flight = nil
	c.mu.Unlock()

	close(fl.done)
}
