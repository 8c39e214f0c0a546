package warehouse

import "strconv"

// Product is a single inventory record. The id is fixed at construction; the
// operational fields are mutated in place by the owning Store. Products handed
// out by a Store are live, so callers outside the package read them only.
type Product struct {
	id              int
	Name            string
	Stock           int
	Demand          int
	LastActivityDay int
}

// NewProduct creates a product. It does not validate its arguments; the Store
// does that before anything reaches a bucket.
func NewProduct(id int, name string, stock, day, demand int) *Product {
	return &Product{
		id:              id,
		Name:            name,
		Stock:           stock,
		Demand:          demand,
		LastActivityDay: day,
	}
}

// ID returns the product identifier.
func (p *Product) ID() int { return p.id }

// UpdateStock adds delta to the stock level. Callers must check that the
// result stays non-negative.
func (p *Product) UpdateStock(delta int) { p.Stock += delta }

// UpdateDemand adds the purchased amount to the cumulative demand counter.
func (p *Product) UpdateDemand(amount int) { p.Demand += amount }

// SetLastActivityDay stamps the day of the latest add or purchase.
func (p *Product) SetLastActivityDay(day int) { p.LastActivityDay = day }

// String renders the product as "(id: name, stock, day, demand)".
func (p *Product) String() string {
	buf := make([]byte, 0, 32+len(p.Name))
	buf = append(buf, '(')
	buf = strconv.AppendInt(buf, int64(p.id), 10)
	buf = append(buf, ": "...)
	buf = append(buf, p.Name...)
	buf = append(buf, ", "...)
	buf = strconv.AppendInt(buf, int64(p.Stock), 10)
	buf = append(buf, ", "...)
	buf = strconv.AppendInt(buf, int64(p.LastActivityDay), 10)
	buf = append(buf, ", "...)
	buf = strconv.AppendInt(buf, int64(p.Demand), 10)
	buf = append(buf, ')')
	return string(buf)
}

// clone returns a detached copy, used when handing products to callers that
// must not observe later mutations (journal entries, snapshots).
func (p *Product) clone() *Product {
	c := *p
	return &c
}
