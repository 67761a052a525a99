package simulated

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/BearBump/ParcelScope/internal/integrations/tracker"
	"github.com/BearBump/ParcelScope/internal/models"
	"github.com/BearBump/ParcelScope/internal/trackerr"
)

// Client is the offline fallback: no network, no credentials, deterministic
// timelines so demos and tests are reproducible.
type Client struct {
	mu         sync.Mutex
	registered map[string]time.Time

	minLatency time.Duration
	maxLatency time.Duration
}

func New() *Client {
	return &Client{
		registered: make(map[string]time.Time),
		minLatency: 100 * time.Millisecond,
		maxLatency: 300 * time.Millisecond,
	}
}

// WithLatency overrides the injected latency bounds (tests pass zero).
func (c *Client) WithLatency(min, max time.Duration) *Client {
	c.minLatency = min
	c.maxLatency = max
	return c
}

type step struct {
	status   models.Status
	message  string
	location string
	age      time.Duration // how long before "now" the checkpoint happened
}

type scenario struct {
	steps []step // oldest first
	eta   time.Duration
}

var scenarios = map[string]scenario{
	"delivered": {
		steps: []step{
			{models.StatusInfoReceived, "Shipment information received", "Paris", 96 * time.Hour},
			{models.StatusInTransit, "Departed sorting facility", "Paris Hub", 72 * time.Hour},
			{models.StatusInTransit, "Arrived at regional hub", "Lyon Hub", 48 * time.Hour},
			{models.StatusOutForDelivery, "Out for delivery", "Lyon", 26 * time.Hour},
			{models.StatusDelivered, "Delivered to recipient", "Lyon", 24 * time.Hour},
		},
	},
	"in_transit": {
		steps: []step{
			{models.StatusInfoReceived, "Shipment information received", "Paris", 48 * time.Hour},
			{models.StatusInTransit, "Departed sorting facility", "Paris Hub", 30 * time.Hour},
			{models.StatusInTransit, "Arrived at sorting facility", "Bordeaux Hub", 12 * time.Hour},
		},
		eta: 48 * time.Hour,
	},
	"out_for_delivery": {
		steps: []step{
			{models.StatusInfoReceived, "Shipment information received", "Paris", 72 * time.Hour},
			{models.StatusInTransit, "Departed sorting facility", "Paris Hub", 48 * time.Hour},
			{models.StatusInTransit, "Arrived at delivery agency", "Marseille", 20 * time.Hour},
			{models.StatusOutForDelivery, "Out for delivery", "Marseille", 3 * time.Hour},
		},
		eta: 8 * time.Hour,
	},
	"exception": {
		steps: []step{
			{models.StatusInfoReceived, "Shipment information received", "Paris", 96 * time.Hour},
			{models.StatusInTransit, "Departed sorting facility", "Paris Hub", 72 * time.Hour},
			{models.StatusException, "Held at customs", "Roissy", 24 * time.Hour},
		},
	},
	"failed_attempt": {
		steps: []step{
			{models.StatusInfoReceived, "Shipment information received", "Paris", 72 * time.Hour},
			{models.StatusInTransit, "Departed sorting facility", "Paris Hub", 48 * time.Hour},
			{models.StatusOutForDelivery, "Out for delivery", "Nantes", 26 * time.Hour},
			{models.StatusFailedAttempt, "Delivery attempted, recipient absent", "Nantes", 24 * time.Hour},
		},
		eta: 24 * time.Hour,
	},
	"pending": {
		steps: []step{
			{models.StatusPending, "Label created, awaiting pickup", "", 2 * time.Hour},
		},
	},
}

// bucketFor keys the scenario off the trailing character so the same number
// always replays the same story.
func bucketFor(trackNumber string) string {
	switch trackNumber[len(trackNumber)-1] {
	case '0', '1':
		return "delivered"
	case '2', '3', '4':
		return "in_transit"
	case '5', '6':
		return "out_for_delivery"
	case '7':
		return "exception"
	case '8':
		return "failed_attempt"
	case '9':
		return "pending"
	default:
		return "in_transit"
	}
}

var (
	upsRe = regexp.MustCompile(`^1Z[0-9A-Z]{16}$`)
	dpdRe = regexp.MustCompile(`^[0-9]{14}$`)
)

var defaultCarriers = []string{"colissimo", "chronopost", "mondial_relay"}

func (c *Client) IsConfigured() bool {
	return true
}

func (c *Client) GetTracking(ctx context.Context, trackNumber, carrierCode string, _ tracker.GetOptions) (*models.TrackingInfo, error) {
	num := strings.TrimSpace(trackNumber)
	if num == "" {
		return nil, trackerr.New(trackerr.KindValidation, "trackNumber is required")
	}
	if err := c.sleep(ctx); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sc := scenarios[bucketFor(num)]

	info := &models.TrackingInfo{
		TrackingNumber: num,
		CarrierCode:    carrierCode,
	}
	for _, st := range sc.steps {
		var loc *string
		if st.location != "" {
			l := st.location
			loc = &l
		}
		ev, err := models.NewTrackingEvent(models.TrackingEventInput{
			TrackingNumber: num,
			Status:         st.status,
			Message:        st.message,
			Location:       loc,
			EventTime:      now.Add(-st.age),
		})
		if err != nil {
			return nil, err
		}
		info.Events = append(info.Events, ev)
	}
	info.Status = sc.steps[len(sc.steps)-1].status
	if sc.eta > 0 {
		eta := now.Add(sc.eta)
		info.EstimatedDelivery = &eta
	}

	info.Normalize()
	return info, nil
}

func (c *Client) CreateTracking(ctx context.Context, trackNumber, carrierCode string, _ map[string]string) error {
	num := strings.TrimSpace(trackNumber)
	if num == "" {
		return trackerr.New(trackerr.KindValidation, "trackNumber is required")
	}
	if err := c.sleep(ctx); err != nil {
		return err
	}

	key := registrationKey(carrierCode, num)
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.registered[key]; ok {
		return trackerr.Newf(trackerr.KindValidation, "%s is already registered", key)
	}
	c.registered[key] = time.Now().UTC()
	return nil
}

func (c *Client) DeleteTracking(ctx context.Context, trackNumber, carrierCode string) error {
	num := strings.TrimSpace(trackNumber)
	if num == "" {
		return trackerr.New(trackerr.KindValidation, "trackNumber is required")
	}
	if err := c.sleep(ctx); err != nil {
		return err
	}

	key := registrationKey(carrierCode, num)
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.registered[key]; !ok {
		return trackerr.Newf(trackerr.KindNotFound, "%s is not registered", key)
	}
	delete(c.registered, key)
	return nil
}

func (c *Client) DetectCarrier(trackNumber string) ([]string, error) {
	n := strings.ToUpper(strings.TrimSpace(trackNumber))
	if n == "" {
		return nil, trackerr.New(trackerr.KindValidation, "trackNumber is required")
	}
	switch {
	case upsRe.MatchString(n):
		return []string{"ups"}, nil
	case dpdRe.MatchString(n):
		return []string{"dpd"}, nil
	}
	out := make([]string, len(defaultCarriers))
	copy(out, defaultCarriers)
	return out, nil
}

func registrationKey(carrierCode, trackNumber string) string {
	return fmt.Sprintf("%s:%s", carrierCode, trackNumber)
}

// sleep injects 100-300ms so callers exercise their async paths the way
// they would against a real backend.
func (c *Client) sleep(ctx context.Context) error {
	d := c.minLatency
	if spread := c.maxLatency - c.minLatency; spread > 0 {
		d += time.Duration(rand.Int63n(int64(spread)))
	}
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return trackerr.Wrap(trackerr.KindTimeout, ctx.Err(), "lookup cancelled")
	case <-t.C:
		return nil
	}
}
