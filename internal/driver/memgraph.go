package driver

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// BoltDriver talks to Memgraph or Neo4j over Bolt.
type BoltDriver struct {
	Driver neo4j.DriverWithContext
	logger *zap.Logger
}

func NewBoltDriver(ctx context.Context, uri, username, password string, logger *zap.Logger) (*BoltDriver, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, err
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("graph store unreachable at %s: %w", uri, err)
	}

	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("connected to graph store", zap.String("uri", uri))
	return &BoltDriver{Driver: driver, logger: logger}, nil
}

func (d *BoltDriver) Close(ctx context.Context) error {
	return d.Driver.Close(ctx)
}

func (d *BoltDriver) ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error) {
	result, err := neo4j.ExecuteQuery(ctx, d.Driver, query, params, neo4j.EagerResultTransformer)
	if err != nil {
		return neo4j.EagerResult{}, fmt.Errorf("failed to execute query: %w", err)
	}
	return *result, nil
}

// BuildIndices creates the uri and label indices. Memgraph and Neo4j disagree on
// syntax, so both forms are tried and failures are only logged.
func (d *BoltDriver) BuildIndices(ctx context.Context) error {
	queries := []string{
		"CREATE INDEX ON :Resource(uri);",
		"CREATE INDEX ON :Resource(label);",
		"CREATE INDEX resource_uri IF NOT EXISTS FOR (n:Resource) ON (n.uri)",
		"CREATE INDEX resource_label IF NOT EXISTS FOR (n:Resource) ON (n.label)",
	}

	created := 0
	for _, q := range queries {
		if _, err := d.ExecuteQuery(ctx, q, nil); err != nil {
			d.logger.Debug("index statement rejected", zap.String("query", q), zap.Error(err))
			continue
		}
		created++
	}
	if created == 0 {
		return fmt.Errorf("no index statement was accepted by the graph store")
	}
	return nil
}
