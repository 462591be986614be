package upstream

import (
	"context"
	"net/http"

	"github.com/samuelorobosa/jci-conf-client/internal/model"
)

func (c *Client) BanquetTables(ctx context.Context) ([]model.BanquetTable, error) {
	var tables []model.BanquetTable
	err := c.do(ctx, http.MethodGet, "/banquet/tables", nil, nil, &tables)
	return tables, err
}
