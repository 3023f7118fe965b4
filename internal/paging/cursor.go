// Package paging implements the multi-bucket feed cursor.
//
// The latest-videos feed is stored in daily partitions, newest first. A
// cursor records the bucket sequence computed when pagination started, the
// bucket the previous page stopped in, and the store-native page token for
// that bucket. The native token is bucket-scoped: it is only usable for the
// exact bucket it was issued against and must be discarded the moment the
// paginator crosses a bucket boundary.
package paging

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/avern/vidfeed-server/internal/model"
)

// BucketFormat is the layout of a day-bucket key.
const BucketFormat = "20060102"

const version = "v1"

// Payload shape after base64 decoding: version,buckets,index,nativeToken.
var payloadRe = regexp.MustCompile(`^v1,([0-9]{8}(?:_[0-9]{8})*),([0-9]+),([A-Za-z0-9_-]*)$`)

// State is the decoded cursor. Buckets are day keys newest to oldest, Index
// points at the bucket the next scan starts in, and PageState is the native
// token valid only for Buckets[Index].
type State struct {
	Buckets   []string
	Index     int
	PageState []byte
}

// NewState builds the initial cursor state for a fresh feed read: the last
// lookback days as bucket keys, newest first, including today (UTC).
func NewState(now time.Time, lookback int) State {
	day := now.UTC()
	buckets := make([]string, 0, lookback)
	for i := 0; i < lookback; i++ {
		buckets = append(buckets, day.AddDate(0, 0, -i).Format(BucketFormat))
	}
	return State{Buckets: buckets}
}

// Encode serializes a state into the opaque token handed to callers.
func Encode(s State) (string, error) {
	if len(s.Buckets) == 0 || s.Index < 0 || s.Index >= len(s.Buckets) {
		return "", fmt.Errorf("cursor state index %d out of range: %w", s.Index, model.ErrMalformedCursor)
	}
	for _, b := range s.Buckets {
		if len(b) != 8 {
			return "", fmt.Errorf("cursor state bucket %q: %w", b, model.ErrMalformedCursor)
		}
	}
	native := base64.RawURLEncoding.EncodeToString(s.PageState)
	payload := version + "," + strings.Join(s.Buckets, "_") + "," + strconv.Itoa(s.Index) + "," + native
	return base64.RawURLEncoding.EncodeToString([]byte(payload)), nil
}

// Decode reconstructs a state from a caller-supplied token. Any token that
// was not produced by Encode, including tokens from an incompatible version,
// fails with model.ErrMalformedCursor; a bad cursor is never treated as a
// fresh read.
func Decode(token string) (State, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return State{}, fmt.Errorf("decode cursor token: %w", model.ErrMalformedCursor)
	}
	m := payloadRe.FindStringSubmatch(string(raw))
	if m == nil {
		return State{}, fmt.Errorf("unrecognized cursor payload: %w", model.ErrMalformedCursor)
	}
	buckets := strings.Split(m[1], "_")
	index, err := strconv.Atoi(m[2])
	if err != nil || index >= len(buckets) {
		return State{}, fmt.Errorf("cursor bucket index %q out of range: %w", m[2], model.ErrMalformedCursor)
	}
	var pageState []byte
	if m[3] != "" {
		pageState, err = base64.RawURLEncoding.DecodeString(m[3])
		if err != nil {
			return State{}, fmt.Errorf("decode native page token: %w", model.ErrMalformedCursor)
		}
	}
	return State{Buckets: buckets, Index: index, PageState: pageState}, nil
}
