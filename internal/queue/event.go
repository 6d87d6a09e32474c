// Package queue carries movie ingest requests over RabbitMQ: a publisher
// used by `ingest publish` and a reconnecting consumer used by
// `ingest consume`.
package queue

import (
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// IngestQueue is the durable queue holding ingest requests.
const IngestQueue = "movie.ingest"

// IngestRequest asks a consumer to import one film from the upstream catalog.
type IngestRequest struct {
	KinopoiskID int64     `json:"kinopoisk_id"`
	RequestedAt time.Time `json:"requested_at"`
}

func (r IngestRequest) Encode() ([]byte, error) {
	return json.Marshal(r)
}

// DecodeIngestRequest parses a message body. A missing or non-positive
// id is an error.
func DecodeIngestRequest(body []byte) (IngestRequest, error) {
	var r IngestRequest
	if err := json.Unmarshal(body, &r); err != nil {
		return IngestRequest{}, fmt.Errorf("unmarshal: %w", err)
	}
	if r.KinopoiskID < 1 {
		return IngestRequest{}, errors.New("kinopoisk_id must be positive")
	}
	return r, nil
}
