//go:build cgo

package graph

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	kuzu "github.com/kuzudb/go-kuzu"
)

// KuzuStore persists graph snapshots to a file-based KuzuDB, so consumers
// (documentation generators, later sessions) can reload an analysis without
// re-parsing the workspace. It requires CGO because the go-kuzu driver
// wraps KuzuDB's C library.
type KuzuStore struct {
	db   *kuzu.Database
	conn *kuzu.Connection
}

// OpenKuzuStore opens (or creates) a file-based KuzuDB at the given
// directory path. KuzuDB creates the leaf directory itself.
func OpenKuzuStore(dbPath string) (*KuzuStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("kuzu: create parent directory: %w", err)
	}
	return openKuzu(dbPath)
}

// NewMemKuzuStore creates a KuzuStore backed by an in-memory KuzuDB
// instance. Nothing survives Close; intended for tests and one-shot use.
func NewMemKuzuStore() (*KuzuStore, error) {
	return openKuzu(":memory:")
}

func openKuzu(dbPath string) (*KuzuStore, error) {
	cfg := kuzu.DefaultSystemConfig()
	db, err := kuzu.OpenDatabase(dbPath, cfg)
	if err != nil {
		return nil, fmt.Errorf("kuzu: open database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	return &KuzuStore{db: db, conn: conn}, nil
}

// Close releases the KuzuDB connection and database.
func (s *KuzuStore) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
	return nil
}

// ddlStatements defines the snapshot schema. Every edge endpoint (entity
// ID, file path, or unresolved external name) gets an Endpoint row so the
// single RELATES table can carry all edge kinds.
var ddlStatements = []string{
	`CREATE NODE TABLE IF NOT EXISTS Entity(
		id STRING,
		name STRING,
		kind STRING,
		language STRING,
		file_path STRING,
		start_line INT64,
		end_line INT64,
		visibility STRING,
		is_static BOOLEAN,
		is_async BOOLEAN,
		is_abstract BOOLEAN,
		is_entry BOOLEAN,
		is_primary BOOLEAN,
		PRIMARY KEY(id)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS Endpoint(
		id STRING,
		PRIMARY KEY(id)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS Meta(
		root_path STRING,
		generated_at STRING,
		file_count INT64,
		node_count INT64,
		PRIMARY KEY(root_path)
	)`,
	`CREATE REL TABLE IF NOT EXISTS RELATES(FROM Endpoint TO Endpoint, kind STRING, label STRING)`,
}

// InitSchema creates the snapshot tables if they do not exist.
func (s *KuzuStore) InitSchema(_ context.Context) error {
	for _, stmt := range ddlStatements {
		res, err := s.conn.Query(stmt)
		if err != nil {
			return fmt.Errorf("kuzu: init schema: %w", err)
		}
		res.Close()
	}
	return nil
}

// Save writes a complete graph snapshot. The target database is expected
// to be fresh; stale data is the caller's concern (remove the directory
// before exporting, as the CLI does).
func (s *KuzuStore) Save(ctx context.Context, g *Graph) error {
	if err := s.InitSchema(ctx); err != nil {
		return err
	}

	for _, n := range g.Nodes {
		if err := s.addEntity(n); err != nil {
			return fmt.Errorf("kuzu: save entity %s: %w", n.ID, err)
		}
	}

	endpoints := make(map[string]bool)
	for _, e := range g.Edges {
		endpoints[e.From] = true
		endpoints[e.To] = true
	}
	for id := range endpoints {
		if err := s.exec("CREATE (p:Endpoint {id: $id})", map[string]any{"id": id}); err != nil {
			return fmt.Errorf("kuzu: save endpoint %s: %w", id, err)
		}
	}

	for _, e := range g.Edges {
		err := s.exec(
			`MATCH (a:Endpoint {id: $src}), (b:Endpoint {id: $dst})
			 CREATE (a)-[:RELATES {kind: $kind, label: $label}]->(b)`,
			map[string]any{
				"src":   e.From,
				"dst":   e.To,
				"kind":  string(e.Kind),
				"label": e.Label,
			},
		)
		if err != nil {
			return fmt.Errorf("kuzu: save edge %s->%s: %w", e.From, e.To, err)
		}
	}

	return s.exec(
		`CREATE (m:Meta {root_path: $root, generated_at: $at, file_count: $fc, node_count: $nc})`,
		map[string]any{
			"root": g.Metadata.RootPath,
			"at":   g.Metadata.GeneratedAt.Format(time.RFC3339),
			"fc":   int64(g.Metadata.FileCount),
			"nc":   int64(g.Metadata.NodeCount),
		},
	)
}

// Load reads a previously saved snapshot back into a Graph. Parameters,
// props, and verbatim source are not persisted; a loaded graph carries
// structure and identity, which is what the query operations need.
func (s *KuzuStore) Load(_ context.Context) (*Graph, error) {
	rows, err := s.query(
		`MATCH (e:Entity)
		 RETURN e.id, e.name, e.kind, e.language, e.file_path, e.start_line, e.end_line,
		        e.visibility, e.is_static, e.is_async, e.is_abstract, e.is_entry, e.is_primary
		 ORDER BY e.file_path, e.start_line`,
		nil,
	)
	if err != nil {
		return nil, err
	}

	g := &Graph{}
	files := make(map[string]bool)
	langs := make(map[Language]bool)
	for _, r := range rows {
		n := EntityNode{
			ID:        toString(r[0]),
			Name:      toString(r[1]),
			Kind:      NodeKind(toString(r[2])),
			Language:  Language(toString(r[3])),
			FilePath:  toString(r[4]),
			StartLine: toInt(r[5]),
			EndLine:   toInt(r[6]),
			Modifiers: Modifiers{
				Visibility: Visibility(toString(r[7])),
				Static:     toBool(r[8]),
				Async:      toBool(r[9]),
				Abstract:   toBool(r[10]),
			},
			IsEntryPoint:   toBool(r[11]),
			IsPrimaryEntry: toBool(r[12]),
		}
		g.Nodes = append(g.Nodes, n)
		files[n.FilePath] = true
		langs[n.Language] = true
	}

	edgeRows, err := s.query(
		`MATCH (a:Endpoint)-[r:RELATES]->(b:Endpoint)
		 RETURN a.id, b.id, r.kind, r.label`,
		nil,
	)
	if err != nil {
		return nil, err
	}
	for _, r := range edgeRows {
		g.Edges = append(g.Edges, Edge{
			From:  toString(r[0]),
			To:    toString(r[1]),
			Kind:  EdgeKind(toString(r[2])),
			Label: toString(r[3]),
		})
	}

	metaRows, err := s.query(
		"MATCH (m:Meta) RETURN m.root_path, m.generated_at, m.file_count, m.node_count",
		nil,
	)
	if err != nil {
		return nil, err
	}
	if len(metaRows) > 0 {
		r := metaRows[0]
		g.Metadata.RootPath = toString(r[0])
		if at, err := time.Parse(time.RFC3339, toString(r[1])); err == nil {
			g.Metadata.GeneratedAt = at
		}
		g.Metadata.FileCount = toInt(r[2])
		g.Metadata.NodeCount = toInt(r[3])
	}

	for l := range langs {
		g.Metadata.Languages = append(g.Metadata.Languages, l)
	}
	sort.Slice(g.Metadata.Languages, func(i, j int) bool {
		return g.Metadata.Languages[i] < g.Metadata.Languages[j]
	})

	return g, nil
}

func (s *KuzuStore) addEntity(n EntityNode) error {
	return s.exec(
		`CREATE (e:Entity {
			id: $id,
			name: $name,
			kind: $kind,
			language: $lang,
			file_path: $fp,
			start_line: $sl,
			end_line: $el,
			visibility: $vis,
			is_static: $static,
			is_async: $async,
			is_abstract: $abstract,
			is_entry: $entry,
			is_primary: $prim
		})`,
		map[string]any{
			"id":       n.ID,
			"name":     n.Name,
			"kind":     string(n.Kind),
			"lang":     string(n.Language),
			"fp":       n.FilePath,
			"sl":       int64(n.StartLine),
			"el":       int64(n.EndLine),
			"vis":      string(n.Modifiers.Visibility),
			"static":   n.Modifiers.Static,
			"async":    n.Modifiers.Async,
			"abstract": n.Modifiers.Abstract,
			"entry":    n.IsEntryPoint,
			// "primary" is reserved in Kuzu's Cypher dialect.
			"prim": n.IsPrimaryEntry,
		},
	)
}

// ---------- Internal helpers ----------

// exec runs a parameterized Cypher statement that produces no result rows.
func (s *KuzuStore) exec(cypher string, params map[string]any) error {
	stmt, err := s.conn.Prepare(cypher)
	if err != nil {
		return fmt.Errorf("kuzu: prepare: %w", err)
	}
	defer stmt.Close()

	res, err := s.conn.Execute(stmt, params)
	if err != nil {
		return fmt.Errorf("kuzu: execute: %w", err)
	}
	res.Close()
	return nil
}

// query runs a parameterized Cypher statement and collects all result rows.
func (s *KuzuStore) query(cypher string, params map[string]any) ([][]any, error) {
	var res *kuzu.QueryResult
	var err error

	if len(params) == 0 {
		res, err = s.conn.Query(cypher)
	} else {
		var stmt *kuzu.PreparedStatement
		stmt, err = s.conn.Prepare(cypher)
		if err != nil {
			return nil, fmt.Errorf("kuzu: prepare: %w", err)
		}
		defer stmt.Close()
		res, err = s.conn.Execute(stmt, params)
	}
	if err != nil {
		return nil, fmt.Errorf("kuzu: query: %w", err)
	}
	defer res.Close()

	var rows [][]any
	for res.HasNext() {
		tuple, err := res.Next()
		if err != nil {
			return nil, fmt.Errorf("kuzu: next: %w", err)
		}
		vals, err := tuple.GetAsSlice()
		if err != nil {
			return nil, fmt.Errorf("kuzu: row values: %w", err)
		}
		rows = append(rows, vals)
	}
	return rows, nil
}

// ---------- Type coercion helpers ----------
// KuzuDB returns typed Go values (int64, float64, bool, string). These
// helpers coerce any -> concrete type.

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func toInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case int32:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

func toBool(v any) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return false
}
