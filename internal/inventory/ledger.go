package inventory

import (
	"context"
	"sort"

	"github.com/engffsantos/easyStock360/internal/shared"
)

// aggregate sums requested quantities per product keeping first-appearance order.
func aggregate(items []Item) ([]string, map[string]int, error) {
	if len(items) == 0 {
		return nil, nil, shared.Invalidf("inventory: no items")
	}
	order := make([]string, 0, len(items))
	wanted := make(map[string]int, len(items))
	for _, it := range items {
		if it.ProductID == "" {
			return nil, nil, shared.Invalidf("inventory: product required")
		}
		if it.Quantity <= 0 {
			return nil, nil, ErrInvalidQuantity
		}
		if _, seen := wanted[it.ProductID]; !seen {
			order = append(order, it.ProductID)
		}
		wanted[it.ProductID] += it.Quantity
	}
	return order, wanted, nil
}

// sortedIDs returns ids in lock order.
func sortedIDs(order []string) []string {
	ids := append([]string(nil), order...)
	sort.Strings(ids)
	return ids
}

func shortfalls(order []string, wanted map[string]int, products map[string]Product) ([]Shortfall, error) {
	var missing []Shortfall
	for _, id := range order {
		p, ok := products[id]
		if !ok {
			return nil, shared.NotFoundf("product %s", id)
		}
		if p.Quantity < wanted[id] {
			missing = append(missing, Shortfall{ProductID: id, ProductName: p.Name, Available: p.Quantity, Requested: wanted[id]})
		}
	}
	return missing, nil
}

// Check locks the requested products and reports the ones that cannot cover their quantity.
func Check(ctx context.Context, tx TxRepository, items []Item) ([]Shortfall, error) {
	order, wanted, err := aggregate(items)
	if err != nil {
		return nil, err
	}
	products, err := tx.LockProducts(ctx, sortedIDs(order))
	if err != nil {
		return nil, err
	}
	return shortfalls(order, wanted, products)
}

// Deduct removes stock for every item or nothing at all.
func Deduct(ctx context.Context, tx TxRepository, items []Item, ref Ref) ([]Movement, error) {
	order, wanted, err := aggregate(items)
	if err != nil {
		return nil, err
	}
	products, err := tx.LockProducts(ctx, sortedIDs(order))
	if err != nil {
		return nil, err
	}
	missing, err := shortfalls(order, wanted, products)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		return nil, &OutOfStockError{Shortfalls: missing}
	}
	return apply(ctx, tx, order, wanted, products, -1, ref)
}

// Restock adds stock back unconditionally.
func Restock(ctx context.Context, tx TxRepository, items []Item, ref Ref) ([]Movement, error) {
	order, wanted, err := aggregate(items)
	if err != nil {
		return nil, err
	}
	products, err := tx.LockProducts(ctx, sortedIDs(order))
	if err != nil {
		return nil, err
	}
	for _, id := range order {
		if _, ok := products[id]; !ok {
			return nil, shared.NotFoundf("product %s", id)
		}
	}
	return apply(ctx, tx, order, wanted, products, 1, ref)
}

func apply(ctx context.Context, tx TxRepository, order []string, wanted map[string]int, products map[string]Product, sign int, ref Ref) ([]Movement, error) {
	movements := make([]Movement, 0, len(order))
	for _, id := range order {
		delta := sign * wanted[id]
		balance := products[id].Quantity + delta
		if balance < 0 {
			return nil, ErrNegativeStock
		}
		if err := tx.SetQuantity(ctx, id, balance); err != nil {
			return nil, err
		}
		m := Movement{
			ProductID:    id,
			Delta:        delta,
			BalanceAfter: balance,
			RefModule:    ref.Module,
			RefID:        ref.ID,
			Note:         ref.Note,
		}
		if err := tx.InsertMovement(ctx, m); err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	return movements, nil
}
