package tracking

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BearBump/ParcelScope/internal/broker/messages"
	"github.com/BearBump/ParcelScope/internal/cache"
	"github.com/BearBump/ParcelScope/internal/integrations/tracker"
	"github.com/BearBump/ParcelScope/internal/models"
	"github.com/BearBump/ParcelScope/internal/trackerr"
)

type Producer interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// Service is the orchestrator: it resolves the carrier, picks the highest
// priority configured backend, delegates, and overlays the canonical
// carrier name on the answer. It holds no mutable state of its own.
type Service struct {
	registry   *Registry
	direct     map[string]tracker.Service
	aggregator tracker.Service
	simulator  tracker.Service

	cache    cache.BytesCache
	cacheTTL time.Duration

	producer Producer
	topic    string
}

func New(registry *Registry, direct map[string]tracker.Service, aggregator, simulator tracker.Service) *Service {
	return &Service{
		registry:   registry,
		direct:     direct,
		aggregator: aggregator,
		simulator:  simulator,
	}
}

// WithCache enables the lookup response cache; ForceRefresh bypasses it.
func (s *Service) WithCache(c cache.BytesCache, ttl time.Duration) *Service {
	s.cache = c
	s.cacheTTL = ttl
	return s
}

// WithProducer enables the best-effort lookup audit feed.
func (s *Service) WithProducer(p Producer, topic string) *Service {
	s.producer = p
	s.topic = topic
	return s
}

// ServiceForCarrier selects, in priority order: the carrier-specific
// adapter named by the registry row (if configured), the aggregator (if the
// row is fallback-eligible and the aggregator is configured), and finally
// the simulator. Unknown carriers are treated as fallback-eligible since
// the aggregator auto-detects them.
func (s *Service) ServiceForCarrier(code string) (tracker.Service, *Carrier) {
	entry := s.registry.Resolve(code)
	if entry != nil && entry.DirectAPI != "" {
		if d, ok := s.direct[entry.DirectAPI]; ok && d.IsConfigured() {
			return d, entry
		}
	}
	if entry == nil || entry.UseFallback {
		if s.aggregator != nil && s.aggregator.IsConfigured() {
			return s.aggregator, entry
		}
	}
	return s.simulator, entry
}

func (s *Service) GetTracking(ctx context.Context, trackNumber, carrierCode string, opts tracker.GetOptions) (*models.TrackingInfo, error) {
	num := strings.TrimSpace(trackNumber)
	if num == "" {
		return nil, trackerr.New(trackerr.KindValidation, "trackNumber is required")
	}

	code := NormalizeCode(carrierCode)
	if code == "" {
		candidates, err := s.DetectCarrier(num)
		if err != nil {
			return nil, err
		}
		code = candidates[0]
	}

	svc, entry := s.ServiceForCarrier(code)
	resolved := code
	if entry != nil {
		resolved = entry.Code
	}

	if s.cache != nil && s.cacheTTL > 0 && !opts.ForceRefresh {
		if info, ok := s.cachedInfo(ctx, resolved, num); ok {
			return info, nil
		}
	}

	info, err := svc.GetTracking(ctx, num, resolved, opts)
	if err != nil {
		return nil, err
	}

	// Adapters are not trusted to know the pretty name.
	info.CarrierCode = resolved
	if entry != nil {
		info.CarrierName = entry.Name
	} else {
		info.CarrierName = displayName(resolved)
	}
	info.Normalize()

	s.storeInfo(ctx, resolved, num, info)
	s.publishLookup(ctx, info)
	return info, nil
}

// DetectCarrier unions the matches of every registry pattern; an unmatched
// number yields the fixed default set, never an empty list.
func (s *Service) DetectCarrier(trackNumber string) ([]string, error) {
	num := strings.TrimSpace(trackNumber)
	if num == "" {
		return nil, trackerr.New(trackerr.KindValidation, "trackNumber is required")
	}
	return s.registry.Detect(num), nil
}

func (s *Service) CreateTracking(ctx context.Context, trackNumber, carrierCode string, meta map[string]string) error {
	num := strings.TrimSpace(trackNumber)
	if num == "" {
		return trackerr.New(trackerr.KindValidation, "trackNumber is required")
	}
	svc, entry := s.ServiceForCarrier(carrierCode)
	resolved := NormalizeCode(carrierCode)
	if entry != nil {
		resolved = entry.Code
	}
	return svc.CreateTracking(ctx, num, resolved, meta)
}

func (s *Service) DeleteTracking(ctx context.Context, trackNumber, carrierCode string) error {
	num := strings.TrimSpace(trackNumber)
	if num == "" {
		return trackerr.New(trackerr.KindValidation, "trackNumber is required")
	}
	svc, entry := s.ServiceForCarrier(carrierCode)
	resolved := NormalizeCode(carrierCode)
	if entry != nil {
		resolved = entry.Code
	}
	return svc.DeleteTracking(ctx, num, resolved)
}

// CarrierCapability is the read-only introspection row: which tier would
// currently answer for each registered carrier.
type CarrierCapability struct {
	Code         string   `json:"code"`
	Name         string   `json:"name"`
	Aliases      []string `json:"aliases,omitempty"`
	HasDirectAPI bool     `json:"hasDirectApi"`
	UsesFallback bool     `json:"usesFallback"`
	IsMock       bool     `json:"isMock"`
}

func (s *Service) Carriers() []CarrierCapability {
	out := make([]CarrierCapability, 0, len(s.registry.Carriers()))
	for _, c := range s.registry.Carriers() {
		row := CarrierCapability{
			Code:    c.Code,
			Name:    c.Name,
			Aliases: c.Aliases,
		}
		if c.DirectAPI != "" {
			if d, ok := s.direct[c.DirectAPI]; ok && d.IsConfigured() {
				row.HasDirectAPI = true
			}
		}
		if !row.HasDirectAPI && c.UseFallback && s.aggregator != nil && s.aggregator.IsConfigured() {
			row.UsesFallback = true
		}
		row.IsMock = !row.HasDirectAPI && !row.UsesFallback
		out = append(out, row)
	}
	return out
}

func (s *Service) cachedInfo(ctx context.Context, carrierCode, trackNumber string) (*models.TrackingInfo, bool) {
	b, ok, err := s.cache.Get(ctx, lookupKey(carrierCode, trackNumber))
	if err != nil || !ok {
		return nil, false
	}
	var info models.TrackingInfo
	if json.Unmarshal(b, &info) != nil {
		return nil, false
	}
	return &info, true
}

// Cache writes and audit publishes are best-effort: a broken redis or
// kafka must not fail a lookup that already succeeded.
func (s *Service) storeInfo(ctx context.Context, carrierCode, trackNumber string, info *models.TrackingInfo) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	b, err := json.Marshal(info)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, lookupKey(carrierCode, trackNumber), b, s.cacheTTL); err != nil {
		slog.Warn("lookup cache set", "carrier", carrierCode, "error", err.Error())
	}
}

func (s *Service) publishLookup(ctx context.Context, info *models.TrackingInfo) {
	if s.producer == nil || s.topic == "" {
		return
	}
	msg := messages.TrackingLookedUp{
		TrackNumber: info.TrackingNumber,
		CarrierCode: info.CarrierCode,
		Status:      string(info.Status),
		EventCount:  len(info.Events),
		CheckedAt:   time.Now().UTC(),
	}
	b, err := json.Marshal(msg)
	if err != nil {
		return
	}
	key := []byte(fmt.Sprintf("%s:%s", info.CarrierCode, info.TrackingNumber))
	if err := s.producer.Publish(ctx, s.topic, key, b); err != nil {
		slog.Warn("publish lookup", "carrier", info.CarrierCode, "error", err.Error())
	}
}

func lookupKey(carrierCode, trackNumber string) string {
	return fmt.Sprintf("lookup:%s:%s:current", carrierCode, trackNumber)
}

func displayName(code string) string {
	parts := strings.Split(code, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
