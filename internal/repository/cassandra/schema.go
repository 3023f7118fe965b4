// Package cassandra implements the store repositories on top of a
// partitioned, replicated column store accessed through gocql.
package cassandra

import (
	"fmt"
	"regexp"

	"context"

	gocql "github.com/apache/cassandra-gocql-driver/v2"
)

var identRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]{0,47}$`)

// qident validates an identifier before it is interpolated into CQL. Only
// the keyspace name is ever interpolated; every other value travels as a
// bind parameter.
func qident(name string) (string, error) {
	if !identRe.MatchString(name) {
		return "", fmt.Errorf("invalid identifier: %q", name)
	}
	return name, nil
}

// Migrate creates the keyspace and tables needed by the server. It is
// intentionally idempotent (IF NOT EXISTS everywhere).
//
// Schema notes:
//   - user_credentials is the uniqueness claim table: one row per email, only
//     ever written with IF NOT EXISTS. request_id records the idempotency
//     token of the attempt that won the claim.
//   - latest_videos is partitioned by calendar day (yyyymmdd) and clustered
//     by (added_date, videoid) descending; rows carry a TTL equal to the feed
//     lookback window, applied on insert.
//   - commentid is a timeuuid: it orders both comment tables and doubles as
//     the creation timestamp, read back via toTimestamp(commentid).
//   - video_ratings is a counter table. Counter updates cannot share a batch
//     with the per-user rating row, so those two writes are sequential.
func Migrate(ctx context.Context, session *gocql.Session, keyspace string, replicationFactor int) error {
	ks, err := qident(keyspace)
	if err != nil {
		return err
	}
	if replicationFactor < 1 {
		replicationFactor = 1
	}

	stmts := []string{
		fmt.Sprintf(`CREATE KEYSPACE IF NOT EXISTS %s
			WITH REPLICATION = {'class': 'SimpleStrategy', 'replication_factor': %d}
			AND durable_writes = true`, ks, replicationFactor),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.user_credentials (
			email      text PRIMARY KEY,
			password   text,
			userid     uuid,
			request_id uuid
		)`, ks),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.users (
			userid       uuid PRIMARY KEY,
			firstname    text,
			lastname     text,
			email        text,
			created_date timestamp
		)`, ks),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.videos (
			videoid                uuid PRIMARY KEY,
			userid                 uuid,
			name                   text,
			description            text,
			location               text,
			location_type          int,
			preview_image_location text,
			tags                   set<text>,
			added_date             timestamp
		)`, ks),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.user_videos (
			userid                 uuid,
			added_date             timestamp,
			videoid                uuid,
			name                   text,
			preview_image_location text,
			PRIMARY KEY ((userid), added_date, videoid)
		) WITH CLUSTERING ORDER BY (added_date DESC, videoid DESC)`, ks),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.latest_videos (
			yyyymmdd               text,
			added_date             timestamp,
			videoid                uuid,
			userid                 uuid,
			name                   text,
			preview_image_location text,
			PRIMARY KEY ((yyyymmdd), added_date, videoid)
		) WITH CLUSTERING ORDER BY (added_date DESC, videoid DESC)`, ks),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.comments_by_video (
			videoid   uuid,
			commentid timeuuid,
			userid    uuid,
			comment   text,
			PRIMARY KEY ((videoid), commentid)
		) WITH CLUSTERING ORDER BY (commentid DESC)`, ks),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.comments_by_user (
			userid    uuid,
			commentid timeuuid,
			videoid   uuid,
			comment   text,
			PRIMARY KEY ((userid), commentid)
		) WITH CLUSTERING ORDER BY (commentid DESC)`, ks),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.video_ratings (
			videoid        uuid PRIMARY KEY,
			rating_counter counter,
			rating_total   counter
		)`, ks),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.video_ratings_by_user (
			videoid uuid,
			userid  uuid,
			rating  int,
			PRIMARY KEY ((videoid), userid)
		)`, ks),
	}

	for _, stmt := range stmts {
		if err := session.Query(stmt).WithContext(ctx).Exec(); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}

	return nil
}
