package laposte

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/BearBump/ParcelScope/internal/integrations/tracker"
	"github.com/BearBump/ParcelScope/internal/models"
	"github.com/BearBump/ParcelScope/internal/trackerr"
	"github.com/pkg/errors"
)

const (
	keyHeader     = "X-Provider-Key"
	codePrefixLen = 2
)

// Timeline codes are alphanumeric ("DI1", "ET4", ...); the first two
// characters carry the phase. Codes outside the table are treated as
// ordinary transit rather than failing the whole lookup.
var statusByPrefix = map[string]models.Status{
	"DR": models.StatusInfoReceived,
	"PC": models.StatusInTransit,
	"ET": models.StatusInTransit,
	"DO": models.StatusInTransit,
	"AG": models.StatusInTransit,
	"MD": models.StatusOutForDelivery,
	"ID": models.StatusFailedAttempt,
	"ND": models.StatusException,
	"PB": models.StatusException,
	"RE": models.StatusException,
	"DI": models.StatusDelivered,
}

var parcelNumberRe = regexp.MustCompile(`^[0-9][A-Z][0-9]{11}$`)

type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

func New(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = "https://api.laposte.fr/suivi/v2"
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type timelineEntry struct {
	Code        string `json:"code"`
	Date        string `json:"date"`
	Label       string `json:"label"`
	SiteCode    string `json:"siteCode,omitempty"`
	SiteName    string `json:"siteName,omitempty"`
	CountryCode string `json:"countryCode,omitempty"`
}

type envelope struct {
	Parcel *struct {
		ParcelNumber string          `json:"parcelNumber"`
		Timeline     []timelineEntry `json:"timeline"`
		Status       *struct {
			Code  string `json:"code"`
			Label string `json:"label"`
		} `json:"status"`
		DeliveryDate string `json:"deliveryDate"`
		Product      string `json:"product"`
	} `json:"parcel"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

func (c *Client) GetTracking(ctx context.Context, trackNumber, carrierCode string, _ tracker.GetOptions) (*models.TrackingInfo, error) {
	if !c.IsConfigured() {
		return nil, trackerr.New(trackerr.KindConfiguration, "laposte api key is not set")
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, trackerr.Wrap(trackerr.KindConfiguration, err, "parse base url")
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/tracking/timelineCompany"
	q := u.Query()
	q.Set("parcelNumber", trackNumber)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, trackerr.Wrap(trackerr.KindUpstream, err, "new request")
	}
	req.Header.Set(keyHeader, c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, trackerr.Wrap(trackerr.KindTimeout, err, "laposte did not answer in time")
		}
		return nil, trackerr.Wrap(trackerr.KindUpstream, err, "laposte request")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, trackerr.New(trackerr.KindAuth, "laposte rejected the api key")
	case resp.StatusCode == http.StatusNotFound:
		return nil, trackerr.Newf(trackerr.KindNotFound, "laposte knows no parcel %s", trackNumber)
	case resp.StatusCode/100 != 2:
		return nil, trackerr.Newf(trackerr.KindUpstream, "laposte http %d", resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, trackerr.Wrap(trackerr.KindUpstream, errors.Wrap(err, "decode"), "laposte payload")
	}
	if env.Error != nil {
		return nil, trackerr.Newf(trackerr.KindUpstream, "laposte error %s: %s", env.Error.Code, env.Error.Message)
	}
	if env.Parcel == nil {
		return nil, trackerr.Newf(trackerr.KindNotFound, "laposte knows no parcel %s", trackNumber)
	}

	info := &models.TrackingInfo{
		TrackingNumber: trackNumber,
		CarrierCode:    carrierCode,
	}

	for _, entry := range env.Parcel.Timeline {
		st := statusFromCode(entry.Code)
		cp := models.Checkpoint{
			Tag:        entry.Code,
			StatusText: entry.Label,
			Location:   entry.SiteName,
			Country:    entry.CountryCode,
			Time:       parseEventDate(entry.Date),
		}
		ev, err := models.NewTrackingEvent(models.TrackingEventInput{
			TrackingNumber: trackNumber,
			Status:         st,
			Message:        cp.FallbackMessage(st),
			Location:       cp.FallbackLocation(),
			EventTime:      cp.Time,
		})
		if err != nil {
			return nil, trackerr.Wrap(trackerr.KindUpstream, err, "laposte checkpoint")
		}
		info.Events = append(info.Events, ev)
	}

	if env.Parcel.Status != nil && env.Parcel.Status.Code != "" {
		info.Status = statusFromCode(env.Parcel.Status.Code)
	}
	if env.Parcel.DeliveryDate != "" {
		if t, err := time.Parse(time.RFC3339, env.Parcel.DeliveryDate); err == nil {
			utc := t.UTC()
			info.EstimatedDelivery = &utc
		}
	}

	info.Normalize()
	return info, nil
}

// CreateTracking is a no-op: the timeline API needs no registration.
func (c *Client) CreateTracking(ctx context.Context, trackNumber, carrierCode string, meta map[string]string) error {
	return nil
}

// DeleteTracking is a no-op for the same reason.
func (c *Client) DeleteTracking(ctx context.Context, trackNumber, carrierCode string) error {
	return nil
}

func (c *Client) DetectCarrier(trackNumber string) ([]string, error) {
	n := strings.TrimSpace(trackNumber)
	if n == "" {
		return nil, trackerr.New(trackerr.KindValidation, "trackNumber is required")
	}
	if parcelNumberRe.MatchString(strings.ToUpper(n)) {
		return []string{"colissimo"}, nil
	}
	return nil, nil
}

func statusFromCode(code string) models.Status {
	if len(code) >= codePrefixLen {
		if st, ok := statusByPrefix[strings.ToUpper(code[:codePrefixLen])]; ok {
			return st
		}
	}
	return models.StatusInTransit
}

func parseEventDate(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
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
