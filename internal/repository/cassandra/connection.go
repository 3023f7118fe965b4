package cassandra

import (
	"context"
	"fmt"

	gocql "github.com/apache/cassandra-gocql-driver/v2"

	"github.com/avern/vidfeed-server/internal/config"
)

// Connection wraps a gocql session. All statements executed through it are
// fully qualified with the keyspace, so the session itself is not bound to
// one.
type Connection struct {
	*gocql.Session
}

// NewConnection opens a session against the cluster and initializes the
// schema idempotently.
func NewConnection(ctx context.Context, cfg config.Cassandra) (*Connection, error) {
	cluster := gocql.NewCluster(cfg.Hosts...)
	cluster.Consistency = gocql.LocalQuorum
	cluster.Timeout = cfg.Timeout

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to cluster: %w", err)
	}

	if err := Migrate(ctx, session, cfg.Keyspace, cfg.ReplicationFactor); err != nil {
		session.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Connection{Session: session}, nil
}

func (c *Connection) Close() error {
	if c.Session != nil {
		c.Session.Close()
	}
	return nil
}
