package store

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/matzehuels/netgraph/pkg/cache"
	"github.com/matzehuels/netgraph/pkg/errors"
	"github.com/matzehuels/netgraph/pkg/graph"
)

// Neo4jConfig holds the connection settings of a [Neo4jStore].
type Neo4jConfig struct {
	URI       string // bolt://, neo4j:// or neo4j+s://
	User      string
	Password  string
	Database  string // Empty selects the server default
	BatchSize int    // Rows per UNWIND query; defaults to DefaultBatchSize
	Clean     bool   // Remove every stored design before the first save
	Logger    *log.Logger
}

// Neo4jStore writes graphs into Neo4j.
type Neo4jStore struct {
	driver  neo4j.DriverWithContext
	cfg     Neo4jConfig
	logger  *log.Logger
	cleaned bool
}

var neo4jIndexes = []string{
	"CREATE INDEX netgraph_vertex IF NOT EXISTS FOR (n:Vertex) ON (n.design, n.name)",
	"CREATE INDEX netgraph_design IF NOT EXISTS FOR (n:Design) ON (n.name)",
}

// NewNeo4jStore connects to Neo4j, verifies connectivity and creates the
// indexes the store relies on.
func NewNeo4jStore(ctx context.Context, cfg Neo4jConfig) (*Neo4jStore, error) {
	if err := errors.ValidateURI(cfg.URI, "bolt", "bolt+s", "neo4j", "neo4j+s"); err != nil {
		return nil, err
	}
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.User, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}

	err = cache.RetryWithBackoff(ctx, func() error {
		return cache.Retryable(driver.VerifyConnectivity(ctx))
	})
	if err != nil {
		driver.Close(ctx)
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "connect to neo4j at %s", cfg.URI)
	}

	s := &Neo4jStore{driver: driver, cfg: cfg, logger: cfg.Logger}
	if s.logger == nil {
		s.logger = log.Default()
	}
	for _, q := range neo4jIndexes {
		if err := s.run(ctx, q, nil); err != nil {
			driver.Close(ctx)
			return nil, fmt.Errorf("create index: %w", err)
		}
	}
	return s, nil
}

func (s *Neo4jStore) run(ctx context.Context, cypher string, params map[string]any) error {
	var opts []neo4j.ExecuteQueryConfigurationOption
	if s.cfg.Database != "" {
		opts = append(opts, neo4j.ExecuteQueryWithDatabase(s.cfg.Database))
	}
	_, err := neo4j.ExecuteQuery(ctx, s.driver, cypher, params, neo4j.EagerResultTransformer, opts...)
	return err
}

// Save implements [Store]. Vertices become (:Vertex:Instance) or
// (:Vertex:Pin) nodes keyed by design and name; each edge becomes one
// [:DRIVES {net}] relationship from driver to load. A (:Design) node records
// the load ID and whether the graph is directed.
func (s *Neo4jStore) Save(ctx context.Context, design string, g *graph.Graph) (SaveInfo, error) {
	if err := checkDesign(design); err != nil {
		return SaveInfo{}, err
	}
	start := time.Now()
	info := SaveInfo{LoadID: newLoadID(), Design: design, Vertices: g.VertexCount(), Edges: g.EdgeCount()}

	if s.cfg.Clean && !s.cleaned {
		s.logger.Info("removing all stored designs")
		if err := s.run(ctx, "MATCH (n) WHERE n:Vertex OR n:Design DETACH DELETE n", nil); err != nil {
			return SaveInfo{}, fmt.Errorf("clean graph: %w", err)
		}
		s.cleaned = true
	}

	params := map[string]any{"design": design}
	if err := s.run(ctx, "MATCH (n:Vertex {design: $design}) DETACH DELETE n", params); err != nil {
		return SaveInfo{}, fmt.Errorf("remove design %q: %w", design, err)
	}

	instances, pins := neo4jVertexBatches(vertexRows(g))
	if err := s.unwind(ctx, design, info.LoadID, neo4jInstanceQuery, instances); err != nil {
		return SaveInfo{}, fmt.Errorf("load instances: %w", err)
	}
	if err := s.unwind(ctx, design, info.LoadID, neo4jPinQuery, pins); err != nil {
		return SaveInfo{}, fmt.Errorf("load pins: %w", err)
	}
	if err := s.unwind(ctx, design, info.LoadID, neo4jEdgeQuery, neo4jEdgeBatch(edgeRows(g))); err != nil {
		return SaveInfo{}, fmt.Errorf("load edges: %w", err)
	}

	err := s.run(ctx, `MERGE (d:Design {name: $design})
		SET d.load_id = $load, d.directed = $directed, d.vertices = $vertices,
		    d.edges = $edges, d.loaded_at = datetime()`,
		map[string]any{
			"design":   design,
			"load":     info.LoadID,
			"directed": g.Directed(),
			"vertices": info.Vertices,
			"edges":    info.Edges,
		})
	if err != nil {
		return SaveInfo{}, fmt.Errorf("record design: %w", err)
	}

	info.Duration = time.Since(start)
	s.logger.Debug("saved graph to neo4j", "design", design, "load", info.LoadID,
		"vertices", info.Vertices, "edges", info.Edges, "duration", info.Duration)
	return info, nil
}

const (
	neo4jInstanceQuery = `UNWIND $batch AS row
		MERGE (n:Vertex {design: $design, name: row.name})
		SET n:Instance, n.index = row.index, n.color = row.color,
		    n.width = row.width, n.height = row.height, n.load_id = $load`

	neo4jPinQuery = `UNWIND $batch AS row
		MERGE (n:Vertex {design: $design, name: row.name})
		SET n:Pin, n.index = row.index, n.color = row.color,
		    n.width = row.width, n.height = row.height, n.load_id = $load`

	neo4jEdgeQuery = `UNWIND $batch AS row
		MATCH (a:Vertex {design: $design, name: row.from}),
		      (b:Vertex {design: $design, name: row.to})
		CREATE (a)-[:DRIVES {net: row.net, seq: row.seq, load_id: $load}]->(b)`
)

func (s *Neo4jStore) unwind(ctx context.Context, design, load, cypher string, rows []map[string]any) error {
	for _, batch := range batches(rows, s.cfg.BatchSize) {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := s.run(ctx, cypher, map[string]any{"design": design, "load": load, "batch": batch})
		if err != nil {
			return err
		}
	}
	return nil
}

// neo4jVertexBatches shapes vertex rows as UNWIND parameters, split by
// label since labels cannot be parameterised.
func neo4jVertexBatches(rows []vertexRow) (instances, pins []map[string]any) {
	for _, r := range rows {
		m := map[string]any{
			"index":  r.Index,
			"name":   r.Name,
			"color":  r.Color,
			"width":  r.Width,
			"height": r.Height,
		}
		if r.Kind == graph.KindPin.String() {
			pins = append(pins, m)
		} else {
			instances = append(instances, m)
		}
	}
	return instances, pins
}

func neo4jEdgeBatch(rows []edgeRow) []map[string]any {
	batch := make([]map[string]any, len(rows))
	for i, r := range rows {
		batch[i] = map[string]any{"seq": r.Seq, "from": r.From, "to": r.To, "net": r.Net}
	}
	return batch
}

// Close implements [Store].
func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

var _ Store = (*Neo4jStore)(nil)
