package cassandra

import (
	"fmt"

	gocql "github.com/apache/cassandra-gocql-driver/v2"
)

// Statement is an immutable query template bound to the consistency level it
// executes at. Conditional statements additionally run their Paxos phase at
// local serial consistency.
type Statement struct {
	cql         string
	consistency gocql.Consistency
	conditional bool
}

func (s Statement) bind(session *gocql.Session, values ...interface{}) *gocql.Query {
	q := session.Query(s.cql, values...).Consistency(s.consistency)
	if s.conditional {
		q = q.SerialConsistency(gocql.LocalSerial)
	}
	return q
}

// CQL returns the statement text.
func (s Statement) CQL() string {
	return s.cql
}

// Catalog holds every query shape the repositories execute, built once at
// startup from a validated keyspace name. Construct-once, read-many; no
// runtime assembly of table or column names.
type Catalog struct {
	ReserveCredentials Statement
	SelectCredentials  Statement
	DeleteCredentials  Statement

	InsertProfile Statement
	SelectProfile Statement
	DeleteProfile Statement

	InsertVideo        Statement
	SelectVideo        Statement
	UpdatePreviewImage Statement
	InsertUserVideo    Statement
	InsertLatestVideo  Statement

	UserVideos     Statement
	UserVideosFrom Statement

	LatestByBucket     Statement
	LatestByBucketFrom Statement

	InsertCommentByVideo Statement
	InsertCommentByUser  Statement
	VideoComments        Statement
	VideoCommentsFrom    Statement
	UserComments         Statement
	UserCommentsFrom     Statement

	UpdateVideoRating     Statement
	InsertUserVideoRating Statement
	SelectVideoRating     Statement
	SelectUserVideoRating Statement
}

// NewCatalog validates the keyspace identifier and builds the statement set.
func NewCatalog(keyspace string) (*Catalog, error) {
	ks, err := qident(keyspace)
	if err != nil {
		return nil, fmt.Errorf("failed to build statement catalog: %w", err)
	}

	quorum := func(cql string) Statement {
		return Statement{cql: cql, consistency: gocql.LocalQuorum}
	}
	conditional := func(cql string) Statement {
		return Statement{cql: cql, consistency: gocql.LocalQuorum, conditional: true}
	}

	return &Catalog{
		// The claim write: the linearization point for email uniqueness.
		ReserveCredentials: conditional(fmt.Sprintf(
			`INSERT INTO %s.user_credentials (email, password, userid, request_id)
			 VALUES (?, ?, ?, ?) IF NOT EXISTS`, ks)),
		SelectCredentials: quorum(fmt.Sprintf(
			`SELECT email, password, userid, request_id
			 FROM %s.user_credentials WHERE email = ?`, ks)),
		DeleteCredentials: quorum(fmt.Sprintf(
			`DELETE FROM %s.user_credentials WHERE email = ?`, ks)),

		// The profile write guards on the generated id as a second, defensive
		// uniqueness check.
		InsertProfile: conditional(fmt.Sprintf(
			`INSERT INTO %s.users (userid, firstname, lastname, email, created_date)
			 VALUES (?, ?, ?, ?, ?) IF NOT EXISTS`, ks)),
		SelectProfile: quorum(fmt.Sprintf(
			`SELECT userid, firstname, lastname, email, created_date
			 FROM %s.users WHERE userid = ?`, ks)),
		DeleteProfile: quorum(fmt.Sprintf(
			`DELETE FROM %s.users WHERE userid = ?`, ks)),

		InsertVideo: quorum(fmt.Sprintf(
			`INSERT INTO %s.videos
			 (videoid, userid, name, description, location, location_type, preview_image_location, tags, added_date)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, ks)),
		SelectVideo: quorum(fmt.Sprintf(
			`SELECT videoid, userid, name, description, location, location_type, preview_image_location, tags, added_date
			 FROM %s.videos WHERE videoid = ?`, ks)),
		UpdatePreviewImage: quorum(fmt.Sprintf(
			`UPDATE %s.videos SET preview_image_location = ? WHERE videoid = ?`, ks)),
		InsertUserVideo: quorum(fmt.Sprintf(
			`INSERT INTO %s.user_videos (userid, added_date, videoid, name, preview_image_location)
			 VALUES (?, ?, ?, ?, ?)`, ks)),
		InsertLatestVideo: quorum(fmt.Sprintf(
			`INSERT INTO %s.latest_videos (yyyymmdd, added_date, videoid, userid, name, preview_image_location)
			 VALUES (?, ?, ?, ?, ?, ?) USING TTL ?`, ks)),

		UserVideos: quorum(fmt.Sprintf(
			`SELECT videoid, userid, name, preview_image_location, added_date
			 FROM %s.user_videos WHERE userid = ?`, ks)),
		UserVideosFrom: quorum(fmt.Sprintf(
			`SELECT videoid, userid, name, preview_image_location, added_date
			 FROM %s.user_videos WHERE userid = ? AND (added_date, videoid) <= (?, ?)`, ks)),

		LatestByBucket: quorum(fmt.Sprintf(
			`SELECT videoid, userid, name, preview_image_location, added_date
			 FROM %s.latest_videos WHERE yyyymmdd = ?`, ks)),
		LatestByBucketFrom: quorum(fmt.Sprintf(
			`SELECT videoid, userid, name, preview_image_location, added_date
			 FROM %s.latest_videos WHERE yyyymmdd = ? AND (added_date, videoid) <= (?, ?)`, ks)),

		InsertCommentByVideo: quorum(fmt.Sprintf(
			`INSERT INTO %s.comments_by_video (videoid, commentid, userid, comment)
			 VALUES (?, ?, ?, ?)`, ks)),
		InsertCommentByUser: quorum(fmt.Sprintf(
			`INSERT INTO %s.comments_by_user (userid, commentid, videoid, comment)
			 VALUES (?, ?, ?, ?)`, ks)),
		VideoComments: quorum(fmt.Sprintf(
			`SELECT videoid, commentid, userid, comment, toTimestamp(commentid) AS comment_timestamp
			 FROM %s.comments_by_video WHERE videoid = ?`, ks)),
		VideoCommentsFrom: quorum(fmt.Sprintf(
			`SELECT videoid, commentid, userid, comment, toTimestamp(commentid) AS comment_timestamp
			 FROM %s.comments_by_video WHERE videoid = ? AND commentid <= ?`, ks)),
		UserComments: quorum(fmt.Sprintf(
			`SELECT videoid, commentid, userid, comment, toTimestamp(commentid) AS comment_timestamp
			 FROM %s.comments_by_user WHERE userid = ?`, ks)),
		UserCommentsFrom: quorum(fmt.Sprintf(
			`SELECT videoid, commentid, userid, comment, toTimestamp(commentid) AS comment_timestamp
			 FROM %s.comments_by_user WHERE userid = ? AND commentid <= ?`, ks)),

		UpdateVideoRating: quorum(fmt.Sprintf(
			`UPDATE %s.video_ratings
			 SET rating_counter = rating_counter + 1, rating_total = rating_total + ?
			 WHERE videoid = ?`, ks)),
		InsertUserVideoRating: quorum(fmt.Sprintf(
			`INSERT INTO %s.video_ratings_by_user (videoid, userid, rating)
			 VALUES (?, ?, ?)`, ks)),
		SelectVideoRating: quorum(fmt.Sprintf(
			`SELECT videoid, rating_counter, rating_total
			 FROM %s.video_ratings WHERE videoid = ?`, ks)),
		SelectUserVideoRating: quorum(fmt.Sprintf(
			`SELECT videoid, userid, rating
			 FROM %s.video_ratings_by_user WHERE videoid = ? AND userid = ?`, ks)),
	}, nil
}
