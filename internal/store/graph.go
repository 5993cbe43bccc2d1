package store

import (
	"context"
	"fmt"

	"spreadscope/internal/model"
)

// SaveGraph replaces the stored graph of an analysis with nodes and edges.
func (d *DB) SaveGraph(ctx context.Context, analysisID string, nodes []model.NetworkNode, edges []model.NetworkEdge) error {
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM graph_edges WHERE analysis_id=?`, analysisID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM graph_nodes WHERE analysis_id=?`, analysisID); err != nil {
		return err
	}
	for _, n := range nodes {
		if _, err := tx.ExecContext(ctx, `INSERT INTO graph_nodes(analysis_id, account_id, role, influence, first_seen) VALUES(?,?,?,?,?)`,
			analysisID, n.AccountID, string(n.Role), n.InfluenceScore, unixNano(n.FirstSeen)); err != nil {
			return fmt.Errorf("node %s: %w", n.AccountID, err)
		}
	}
	for _, e := range edges {
		if _, err := tx.ExecContext(ctx, `INSERT INTO graph_edges(analysis_id, source, target, type, weight, ts) VALUES(?,?,?,?,?,?)`,
			analysisID, e.Source, e.Target, string(e.Type), e.Weight, unixNano(e.Timestamp)); err != nil {
			return fmt.Errorf("edge %s->%s: %w", e.Source, e.Target, err)
		}
	}
	return tx.Commit()
}

// Nodes returns the stored nodes of an analysis ordered by first appearance.
func (d *DB) Nodes(ctx context.Context, analysisID string) ([]model.NetworkNode, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT account_id, role, influence, first_seen FROM graph_nodes WHERE analysis_id=? ORDER BY first_seen, account_id`, analysisID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.NetworkNode
	for rows.Next() {
		var n model.NetworkNode
		var role string
		var first int64
		if err := rows.Scan(&n.AccountID, &role, &n.InfluenceScore, &first); err != nil {
			return nil, err
		}
		n.ID = n.AccountID
		n.Role = model.NodeRole(role)
		n.FirstSeen = fromUnixNano(first)
		out = append(out, n)
	}
	return out, rows.Err()
}

// Neighbors returns the accounts sharing an edge with accountID in either direction.
func (d *DB) Neighbors(ctx context.Context, analysisID, accountID string) ([]string, error) {
	rows, err := d.sql.QueryContext(ctx, `
	SELECT target FROM graph_edges WHERE analysis_id=? AND source=? AND target<>source
	UNION
	SELECT source FROM graph_edges WHERE analysis_id=? AND target=? AND target<>source
	ORDER BY 1`, analysisID, accountID, analysisID, accountID)
	if err != nil {
		return nil, err
	}
	return collectStrings(rows)
}

// Reachable returns every account within maxHops undirected hops of accountID,
// excluding accountID itself. maxHops <= 0 means unbounded.
func (d *DB) Reachable(ctx context.Context, analysisID, accountID string, maxHops int) ([]string, error) {
	query := `
	WITH RECURSIVE
	  links(a, b) AS (
	    SELECT source, target FROM graph_edges WHERE analysis_id=?1
	    UNION
	    SELECT target, source FROM graph_edges WHERE analysis_id=?1
	  ),
	  walk(account, hops) AS (
	    SELECT ?2, 0
	    UNION
	    SELECT links.b, walk.hops + 1 FROM walk JOIN links ON links.a = walk.account WHERE walk.hops < ?3
	  )
	SELECT DISTINCT account FROM walk WHERE account <> ?2 ORDER BY account`
	args := []any{analysisID, accountID, maxHops}
	if maxHops <= 0 {
		// without a hop column UNION drops revisits, so cycles terminate
		query = `
	WITH RECURSIVE
	  links(a, b) AS (
	    SELECT source, target FROM graph_edges WHERE analysis_id=?1
	    UNION
	    SELECT target, source FROM graph_edges WHERE analysis_id=?1
	  ),
	  walk(account) AS (
	    SELECT ?2
	    UNION
	    SELECT links.b FROM walk JOIN links ON links.a = walk.account
	  )
	SELECT account FROM walk WHERE account <> ?2 ORDER BY account`
		args = args[:2]
	}
	rows, err := d.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectStrings(rows)
}

type stringRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

func collectStrings(rows stringRows) ([]string, error) {
	defer rows.Close()
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
