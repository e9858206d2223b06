// Direct-database variant of the aggregated fetch: the same backend report
// function, invoked over a Postgres connection instead of REST.
package services

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/mveldt/timeport/internal/models"
	"github.com/mveldt/timeport/internal/shared"
)

// PostgresCaller implements [RPCCaller] against a Postgres DSN. Each call
// opens one connection and closes it when the query completes, including on
// failure; nothing is pooled across calls.
type PostgresCaller struct {
	url string
}

// NewPostgresCaller creates a caller for the given connection URL.
func NewPostgresCaller(url string) *PostgresCaller {
	return &PostgresCaller{url: url}
}

// CallProjectReport runs the backend aggregation function for one project.
func (p *PostgresCaller) CallProjectReport(ctx context.Context, project string, filter models.DateFilter, startDate, endDate string) (models.Table, error) {
	conn, err := pgx.Connect(ctx, p.url)
	if err != nil {
		return nil, fmt.Errorf("%w: connect: %v", shared.ErrBackendQuery, err)
	}
	defer conn.Close(ctx)

	var start, end any
	if filter == models.FilterCustomRange {
		start, end = startDate, endDate
	}

	rows, err := conn.Query(ctx,
		"select * from "+rpcReportFunction+"($1, $2, $3, $4)",
		project, string(filter), start, end,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrBackendQuery, err)
	}
	defer rows.Close()

	return collectRows(rows)
}

// collectRows converts a pgx row set into the pipeline's generic table shape,
// keyed by the result's actual column names.
func collectRows(rows pgx.Rows) (models.Table, error) {
	fields := rows.FieldDescriptions()
	table := models.Table{}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("%w: read row: %v", shared.ErrBackendQuery, err)
		}
		row := models.Row{}
		for i, fd := range fields {
			row[fd.Name] = values[i]
		}
		table = append(table, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrBackendQuery, err)
	}

	return table, nil
}
