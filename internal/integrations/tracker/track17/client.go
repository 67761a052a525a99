package track17

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/BearBump/ParcelScope/internal/integrations/tracker"
	"github.com/BearBump/ParcelScope/internal/models"
	"github.com/BearBump/ParcelScope/internal/trackerr"
	"github.com/pkg/errors"
)

const tokenHeader = "17token"

// Provider-side numeric carrier codes. A carrier missing here is sent
// without a code and auto-detected by the aggregator.
var carrierNumbers = map[string]int{
	"colissimo":     6051,
	"chronopost":    6031,
	"mondial_relay": 6131,
	"colis_prive":   6119,
	"dpd":           100007,
	"gls":           100005,
	"ups":           100002,
	"dhl":           7041,
	"fedex":         100003,
	"usps":          21051,
}

// Numeric shipment states (w1). Unknown values fall back to IN_TRANSIT,
// same policy as the timeline adapter.
var statusByNumber = map[int]models.Status{
	0:  models.StatusPending,
	10: models.StatusInTransit,
	20: models.StatusExpired,
	30: models.StatusOutForDelivery,
	35: models.StatusFailedAttempt,
	40: models.StatusDelivered,
	50: models.StatusException,
}

// Fixed default candidate set when nothing matches the detection heuristics.
var defaultCarriers = []string{"colissimo", "chronopost", "mondial_relay"}

type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

func New(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = "https://api.17track.net/track/v2"
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type reqItem struct {
	Number  string `json:"number"`
	Carrier int    `json:"carrier,omitempty"`
}

type checkpoint struct {
	A string `json:"a"` // time, "2006-01-02 15:04:05"
	C string `json:"c"` // location
	Z string `json:"z"` // description
}

type routeInfo struct {
	O   string `json:"o"` // origin
	D   string `json:"d"` // destination
	ETA string `json:"eta"`
}

type trackBlock struct {
	E  int          `json:"e"`  // per-item error code, 0 = success
	W1 int          `json:"w1"` // numeric shipment state
	Z0 *checkpoint  `json:"z0"` // latest checkpoint
	Z1 []checkpoint `json:"z1"` // checkpoint history
	Z2 *routeInfo   `json:"z2"`
}

type respBody struct {
	Code int `json:"code"`
	Data struct {
		Accepted []struct {
			No      string     `json:"no"`
			Carrier int        `json:"carrier"`
			Track   trackBlock `json:"track"`
		} `json:"accepted"`
		Rejected []struct {
			Number string `json:"number"`
			Error  struct {
				Code    int    `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		} `json:"rejected"`
	} `json:"data"`
}

func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

func (c *Client) GetTracking(ctx context.Context, trackNumber, carrierCode string, _ tracker.GetOptions) (*models.TrackingInfo, error) {
	var rb respBody
	if err := c.post(ctx, "/gettrackinfo", trackNumber, carrierCode, &rb); err != nil {
		return nil, err
	}

	for _, rej := range rb.Data.Rejected {
		if rej.Number == trackNumber {
			return nil, trackerr.Newf(trackerr.KindNotFound, "aggregator rejected %s: %s", trackNumber, rej.Error.Message)
		}
	}
	for _, acc := range rb.Data.Accepted {
		if acc.No != trackNumber {
			continue
		}
		if acc.Track.E != 0 {
			return nil, trackerr.Newf(trackerr.KindUpstream, "aggregator item error code %d", acc.Track.E)
		}
		return c.buildInfo(trackNumber, carrierCode, acc.Track)
	}
	return nil, trackerr.Newf(trackerr.KindNotFound, "aggregator returned nothing for %s", trackNumber)
}

func (c *Client) buildInfo(trackNumber, carrierCode string, tb trackBlock) (*models.TrackingInfo, error) {
	info := &models.TrackingInfo{
		TrackingNumber: trackNumber,
		CarrierCode:    carrierCode,
		Status:         statusFromNumber(tb.W1),
	}

	seen := make(map[time.Time]struct{}, len(tb.Z1)+1)
	for _, cp := range tb.Z1 {
		ev, err := c.buildEvent(trackNumber, cp, info.Status)
		if err != nil {
			return nil, err
		}
		seen[ev.EventTime] = struct{}{}
		info.Events = append(info.Events, ev)
	}

	// The latest checkpoint usually repeats the head of the history; append
	// it only when its timestamp is genuinely new.
	if tb.Z0 != nil {
		if when := parseCheckpointTime(tb.Z0.A); !when.IsZero() {
			if _, dup := seen[when]; !dup {
				ev, err := c.buildEvent(trackNumber, *tb.Z0, info.Status)
				if err != nil {
					return nil, err
				}
				info.Events = append(info.Events, ev)
			}
		}
	}

	if tb.Z2 != nil {
		if o := strings.TrimSpace(tb.Z2.O); o != "" {
			info.Origin = &o
		}
		if d := strings.TrimSpace(tb.Z2.D); d != "" {
			info.Destination = &d
		}
		if eta := parseCheckpointTime(tb.Z2.ETA); !eta.IsZero() {
			info.EstimatedDelivery = &eta
		}
	}

	info.Normalize()
	return info, nil
}

func (c *Client) buildEvent(trackNumber string, cp checkpoint, current models.Status) (*models.TrackingEvent, error) {
	raw := models.Checkpoint{
		StatusText: cp.Z,
		Location:   cp.C,
		Time:       parseCheckpointTime(cp.A),
	}
	ev, err := models.NewTrackingEvent(models.TrackingEventInput{
		TrackingNumber: trackNumber,
		Status:         current,
		Message:        raw.FallbackMessage(current),
		Location:       raw.FallbackLocation(),
		EventTime:      raw.Time,
	})
	if err != nil {
		return nil, trackerr.Wrap(trackerr.KindUpstream, err, "aggregator checkpoint")
	}
	return ev, nil
}

// CreateTracking registers the number with the aggregator; lookups only work
// for registered numbers on this backend.
func (c *Client) CreateTracking(ctx context.Context, trackNumber, carrierCode string, _ map[string]string) error {
	var rb respBody
	if err := c.post(ctx, "/register", trackNumber, carrierCode, &rb); err != nil {
		return err
	}
	for _, rej := range rb.Data.Rejected {
		if rej.Number == trackNumber {
			return trackerr.Newf(trackerr.KindUpstream, "aggregator refused to register %s: %s", trackNumber, rej.Error.Message)
		}
	}
	return nil
}

func (c *Client) DeleteTracking(ctx context.Context, trackNumber, carrierCode string) error {
	var rb respBody
	if err := c.post(ctx, "/deletetrack", trackNumber, carrierCode, &rb); err != nil {
		return err
	}
	for _, rej := range rb.Data.Rejected {
		if rej.Number == trackNumber {
			return trackerr.Newf(trackerr.KindUpstream, "aggregator refused to delete %s: %s", trackNumber, rej.Error.Message)
		}
	}
	return nil
}

func (c *Client) DetectCarrier(trackNumber string) ([]string, error) {
	if strings.TrimSpace(trackNumber) == "" {
		return nil, trackerr.New(trackerr.KindValidation, "trackNumber is required")
	}
	out := make([]string, len(defaultCarriers))
	copy(out, defaultCarriers)
	return out, nil
}

// post sends the one-element batch the current design uses; the payload is
// batch-shaped so widening it later is a body change, not an API change.
func (c *Client) post(ctx context.Context, path, trackNumber, carrierCode string, out *respBody) error {
	if !c.IsConfigured() {
		return trackerr.New(trackerr.KindConfiguration, "aggregator api key is not set")
	}

	item := reqItem{Number: trackNumber}
	if n, ok := carrierNumbers[carrierCode]; ok {
		item.Carrier = n
	}
	body, err := json.Marshal([]reqItem{item})
	if err != nil {
		return trackerr.Wrap(trackerr.KindUpstream, err, "marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimSuffix(c.baseURL, "/")+path, bytes.NewReader(body))
	if err != nil {
		return trackerr.Wrap(trackerr.KindUpstream, err, "new request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(tokenHeader, c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		if isTimeout(err) {
			return trackerr.Wrap(trackerr.KindTimeout, err, "tracking aggregator temporarily unavailable")
		}
		return trackerr.Wrap(trackerr.KindUpstream, err, "aggregator request")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return trackerr.New(trackerr.KindAuth, "aggregator rejected the api token")
	case resp.StatusCode == http.StatusTooManyRequests:
		return trackerr.New(trackerr.KindRateLimit, "aggregator quota exceeded")
	case resp.StatusCode/100 != 2:
		return trackerr.Newf(trackerr.KindUpstream, "aggregator http %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return trackerr.Wrap(trackerr.KindUpstream, errors.Wrap(err, "decode"), "aggregator payload")
	}
	if out.Code != 0 {
		return trackerr.Newf(trackerr.KindUpstream, "aggregator response code %d", out.Code)
	}
	return nil
}

func statusFromNumber(n int) models.Status {
	if st, ok := statusByNumber[n]; ok {
		return st
	}
	return models.StatusInTransit
}

func parseCheckpointTime(s string) time.Time {
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
