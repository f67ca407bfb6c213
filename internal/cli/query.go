package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/catalogql/internal/queryir"
	"github.com/roach88/catalogql/internal/querysql"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <request-file>",
		Short: "Fetch one page of an entity",
		Long: `Fetch one page of an entity described by a request file.

The request file holds entity, filter, sort and pagination as YAML or JSON
("-" reads stdin). Limit/offset pagination returns nodes with totalCount;
first/after or last/before pagination returns edges with cursors.

Exit codes:
  0 - Page fetched
  1 - Request rejected (E200-E211)
  2 - Command error (schema, database, etc.)

Examples:
  catalogql query request.yaml
  catalogql query request.json --format json
  echo '{entity: Movie, pagination: {first: 5}}' | catalogql query -`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], cmd)
		},
	}

	return cmd
}

func runQuery(opts *QueryOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	req, err := ReadRequest(path, cmd.InOrStdin())
	if err != nil {
		return fail(formatter, err, ErrCodeReadFailed)
	}
	registry, err := LoadRegistry(opts.RootOptions)
	if err != nil {
		return fail(formatter, err, ErrCodeSchema)
	}
	st, err := OpenStore(opts.RootOptions)
	if err != nil {
		return fail(formatter, err, ErrCodeDatabase)
	}
	defer st.Close()

	eng, err := NewEngine(opts.RootOptions, registry, st)
	if err != nil {
		return fail(formatter, err, ErrCodeGeneric)
	}
	formatter.VerboseLog("Querying %s via %s", req.Entity, st.Driver())

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	switch req.Pagination.(type) {
	case queryir.Cursor:
		conn, err := eng.FetchConnection(ctx, req.Entity, requestArgs(req))
		if err != nil {
			return fail(formatter, err, ErrCodeDatabase)
		}
		if formatter.Format == "json" {
			return formatter.Success(conn)
		}
		rows := make([]querysql.Row, len(conn.Edges))
		for i, edge := range conn.Edges {
			rows[i] = edge.Node
		}
		ent, _ := registry.Entity(req.Entity)
		renderRows(formatter.Writer, fieldNames(ent), rows)
		fmt.Fprintf(formatter.Writer, "hasNextPage=%t hasPreviousPage=%t startCursor=%s endCursor=%s\n",
			conn.PageInfo.HasNextPage, conn.PageInfo.HasPreviousPage,
			cursorText(conn.PageInfo.StartCursor), cursorText(conn.PageInfo.EndCursor))
		return nil

	default:
		page, err := eng.FetchPage(ctx, req.Entity, requestArgs(req))
		if err != nil {
			return fail(formatter, err, ErrCodeDatabase)
		}
		if formatter.Format == "json" {
			return formatter.Success(page)
		}
		ent, _ := registry.Entity(req.Entity)
		renderRows(formatter.Writer, fieldNames(ent), page.Nodes)
		fmt.Fprintf(formatter.Writer, "totalCount=%d hasNextPage=%t hasPreviousPage=%t\n",
			page.PageInfo.TotalCount, page.PageInfo.HasNextPage, page.PageInfo.HasPreviousPage)
		return nil
	}
}

func cursorText(c *string) string {
	if c == nil {
		return "-"
	}
	return *c
}
