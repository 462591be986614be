package resources

import (
	"context"

	"github.com/samuelorobosa/jci-conf-client/internal/cache"
	"github.com/samuelorobosa/jci-conf-client/internal/fault"
	"github.com/samuelorobosa/jci-conf-client/internal/model"
)

func (r *Registry) BanquetTables(ctx context.Context) ([]model.BanquetTable, error) {
	key := cache.ListKey(cache.ResourceBanquet, "")
	return cache.Fetch(ctx, r.cache, key, func(ctx context.Context) ([]model.BanquetTable, error) {
		return r.api.BanquetTables(ctx)
	})
}

// AvailableSeats lists the seat numbers still open at a table, for display
// only. The authoritative capacity check stays upstream.
func (r *Registry) AvailableSeats(ctx context.Context, tableNumber int) ([]int, error) {
	if tableNumber < 1 {
		return nil, fault.Validation("invalid_table", "table numbers start at 1")
	}
	tables, err := r.BanquetTables(ctx)
	if err != nil {
		return nil, err
	}
	for _, table := range tables {
		if table.TableNumber != tableNumber {
			continue
		}
		open := table.MaxCapacity - table.CurrentOccupancy
		if open <= 0 {
			return []int{}, nil
		}
		seats := make([]int, 0, open)
		for seat := 1; seat <= open; seat++ {
			seats = append(seats, seat)
		}
		return seats, nil
	}
	return nil, fault.NotFound("table_not_found", "no such banquet table")
}
