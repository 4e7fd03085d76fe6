package parse

import (
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUnrecognizedFormat    = errors.New("unrecognized conversation format")
	ErrMalformedConversation = errors.New("malformed conversation")
	ErrCyclicGraph           = errors.New("cyclic message graph")
	ErrEmptyConversation     = errors.New("conversation has no messages")
)

// idNamespace seeds deterministic ids for records that arrive without one.
var idNamespace = uuid.MustParse("6f1d3c5e-8a2b-4e7f-9c0d-1b2a3e4f5a6b")

// Options controls the environment-dependent parts of parsing.
type Options struct {
	// Now is used for timestamps that are missing or unparsable. Defaults to time.Now.
	Now func() time.Time
}

func (o Options) nowEpoch() float64 {
	if o.Now == nil {
		return toEpoch(time.Now())
	}
	return toEpoch(o.Now())
}

// synthID derives a stable id from raw content, so re-importing the same
// bytes yields the same id.
func synthID(raw []byte) string {
	return uuid.NewSHA1(idNamespace, raw).String()
}

func messageID(convID string, n int) string {
	return uuid.NewSHA1(idNamespace, []byte(convID+"/"+strconv.Itoa(n))).String()
}
