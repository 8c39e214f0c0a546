package opstream

import (
	"fmt"

	"warehouse.lopezb.com/internal/warehouse"
)

// Strategy selects how untagged and "add" records are inserted.
type Strategy int

const (
	// StrategyBasic evicts from the home bucket when it is full.
	StrategyBasic Strategy = iota
	// StrategyBetter probes other buckets before evicting.
	StrategyBetter
)

// ParseStrategy maps "basic" or "better" to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "basic":
		return StrategyBasic, nil
	case "better":
		return StrategyBetter, nil
	default:
		return 0, fmt.Errorf("opstream: unknown strategy %q (want basic or better)", s)
	}
}

// Outcome is what applying one op produced. Add is set for insertions,
// Product for the other kinds when they succeed.
type Outcome struct {
	Add     warehouse.AddResult
	Product *warehouse.Product
}

// Apply runs op against s. Explicit "betteradd" records always use the
// probing insert; "add" records follow strategy. Not-found and
// insufficient-stock outcomes come back as errors for the caller to tolerate.
func Apply(s *warehouse.Store, op Op, strategy Strategy) (Outcome, error) {
	var (
		out Outcome
		err error
	)
	switch op.Kind {
	case KindAdd:
		if strategy == StrategyBetter {
			out.Add, err = s.BetterAddProduct(op.ID, op.Name, op.Stock, op.Day, op.Demand)
		} else {
			out.Add, err = s.AddProduct(op.ID, op.Name, op.Stock, op.Day, op.Demand)
		}
	case KindBetterAdd:
		out.Add, err = s.BetterAddProduct(op.ID, op.Name, op.Stock, op.Day, op.Demand)
	case KindDelete:
		out.Product, err = s.DeleteProduct(op.ID)
	case KindRestock:
		out.Product, err = s.RestockProduct(op.ID, op.Amount)
	case KindPurchase:
		out.Product, err = s.PurchaseProduct(op.ID, op.Day, op.Amount)
	default:
		err = fmt.Errorf("opstream: cannot apply %s", op.Kind)
	}
	return out, err
}
