package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"unicode/utf8"

	"github.com/juju/errors"
	"github.com/temoto/rdrain/log2"
)

const (
	maxResponseBody = 1 << 20
	drainField      = "drain"
)

// Session is loaded once at startup and never mutated.
type Session struct {
	APIKey   string
	Endpoint string
}

// URL is plain concatenation, key and endpoint are not escaped.
func (s Session) URL() string { return s.Endpoint + "?apiKey=" + s.APIKey }

// Response is the interpreted endpoint reply.
type Response struct {
	Status int
	Drain  bool
}

// Poster forwards one frame and interprets the reply.
type Poster interface {
	Post(ctx context.Context, frame []byte) (Response, error)
}

type Uplink struct {
	client  *http.Client
	session Session
	log     *log2.Log
}

var _ Poster = &Uplink{}

func NewUplink(client *http.Client, session Session, log *log2.Log) *Uplink {
	if client == nil {
		client = http.DefaultClient
	}
	return &Uplink{client: client, session: session, log: log}
}

// Post errors:
// - MalformedRecord: frame is not UTF-8 JSON, nothing was sent
// - UplinkFailure: transport error or status other than 200 (StatusError)
// - MalformedResponse: status 200 with body that is not a JSON object
// Drain is only set by JSON boolean true in field "drain".
func (self *Uplink) Post(ctx context.Context, frame []byte) (Response, error) {
	if !utf8.Valid(frame) {
		return Response{}, NewError(KindMalformedRecord, errors.NotValidf("frame utf-8 %q", frame))
	}
	var record json.RawMessage
	if err := json.Unmarshal(frame, &record); err != nil {
		return Response{}, NewError(KindMalformedRecord, errors.Annotatef(err, "frame=%q", frame))
	}
	body := bytes.NewBuffer(make([]byte, 0, len(record)))
	if err := json.Compact(body, record); err != nil {
		return Response{}, NewError(KindMalformedRecord, errors.Trace(err))
	}

	url := self.session.URL()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return Response{}, NewError(KindUplinkFailure, errors.Annotate(err, "request"))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	self.log.Debugf("uplink POST endpoint=%s body=%s", self.session.Endpoint, body.Bytes())

	resp, err := self.client.Do(req)
	if err != nil {
		return Response{}, NewError(KindUplinkFailure, errors.Annotate(err, "POST"))
	}
	defer resp.Body.Close()
	self.log.Debugf("uplink response status=%s", resp.Status)

	result := Response{Status: resp.StatusCode}
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBody))
		return result, NewError(KindUplinkFailure, StatusError{Code: resp.StatusCode, Status: resp.Status})
	}

	rb, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return result, NewError(KindUplinkFailure, errors.Annotate(err, "read response"))
	}
	drain, err := parseDrain(rb)
	if err != nil {
		return result, NewError(KindMalformedResponse, errors.Annotatef(err, "body=%q", rb))
	}
	result.Drain = drain
	return result, nil
}

// Absent, null, false or non-boolean "drain" means no drain.
func parseDrain(b []byte) (bool, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return false, errors.Trace(err)
	}
	if fields == nil {
		return false, errors.NotValidf("response null")
	}
	raw, ok := fields[drainField]
	if !ok {
		return false, nil
	}
	var drain bool
	if err := json.Unmarshal(raw, &drain); err != nil {
		return false, nil
	}
	return drain, nil
}
