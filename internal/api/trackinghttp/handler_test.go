package trackinghttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/BearBump/ParcelScope/internal/integrations/tracker"
	"github.com/BearBump/ParcelScope/internal/models"
	"github.com/BearBump/ParcelScope/internal/services/tracking"
	"github.com/BearBump/ParcelScope/internal/trackerr"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	lastNum     string
	lastCarrier string
	lastOpts    tracker.GetOptions
	lastMeta    map[string]string

	info *models.TrackingInfo
	err  error
}

func (f *fakeService) GetTracking(_ context.Context, num, carrier string, opts tracker.GetOptions) (*models.TrackingInfo, error) {
	f.lastNum, f.lastCarrier, f.lastOpts = num, carrier, opts
	return f.info, f.err
}

func (f *fakeService) CreateTracking(_ context.Context, num, carrier string, meta map[string]string) error {
	f.lastNum, f.lastCarrier, f.lastMeta = num, carrier, meta
	return f.err
}

func (f *fakeService) DeleteTracking(_ context.Context, num, carrier string) error {
	f.lastNum, f.lastCarrier = num, carrier
	return f.err
}

func (f *fakeService) DetectCarrier(num string) ([]string, error) {
	f.lastNum = num
	if f.err != nil {
		return nil, f.err
	}
	return []string{"ups"}, nil
}

func (f *fakeService) Carriers() []tracking.CarrierCapability {
	return []tracking.CarrierCapability{{Code: "ups", Name: "UPS", UsesFallback: true}}
}

func doRequest(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandler_getTracking(t *testing.T) {
	fake := &fakeService{info: &models.TrackingInfo{
		TrackingNumber: "N1",
		CarrierCode:    "ups",
		CarrierName:    "UPS",
		Status:         models.StatusInTransit,
	}}
	h := New(fake).Routes()

	rec := doRequest(t, h, http.MethodGet, "/v1/tracking/N1?carrier=ups&refresh=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "N1", fake.lastNum)
	require.Equal(t, "ups", fake.lastCarrier)
	require.True(t, fake.lastOpts.ForceRefresh)

	var got models.TrackingInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "UPS", got.CarrierName)
}

func TestHandler_errorStatusMapping(t *testing.T) {
	cases := []struct {
		kind trackerr.Kind
		want int
	}{
		{trackerr.KindValidation, http.StatusBadRequest},
		{trackerr.KindNotFound, http.StatusNotFound},
		{trackerr.KindRateLimit, http.StatusTooManyRequests},
		{trackerr.KindTimeout, http.StatusGatewayTimeout},
		{trackerr.KindConfiguration, http.StatusServiceUnavailable},
		{trackerr.KindAuth, http.StatusBadGateway},
		{trackerr.KindUpstream, http.StatusBadGateway},
		{trackerr.KindVocabulary, http.StatusBadGateway},
	}
	for _, tc := range cases {
		fake := &fakeService{err: trackerr.New(tc.kind, "nope")}
		h := New(fake).Routes()

		rec := doRequest(t, h, http.MethodGet, "/v1/tracking/N1", "")
		require.Equal(t, tc.want, rec.Code, string(tc.kind))

		var body errorBody
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, tc.kind, body.Kind)
		require.Contains(t, body.Error, "nope")
	}
}

func TestHandler_createTracking(t *testing.T) {
	fake := &fakeService{}
	h := New(fake).Routes()

	rec := doRequest(t, h, http.MethodPost, "/v1/tracking/N1",
		`{"carrier":"ups","metadata":{"orderId":"42"}}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "ups", fake.lastCarrier)
	require.Equal(t, map[string]string{"orderId": "42"}, fake.lastMeta)

	// Empty body is a valid registration without a carrier hint.
	rec = doRequest(t, h, http.MethodPost, "/v1/tracking/N2", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "", fake.lastCarrier)
}

func TestHandler_deleteTracking(t *testing.T) {
	fake := &fakeService{}
	h := New(fake).Routes()

	rec := doRequest(t, h, http.MethodDelete, "/v1/tracking/N1?carrier=dpd", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "dpd", fake.lastCarrier)
}

func TestHandler_carriers(t *testing.T) {
	h := New(&fakeService{}).Routes()

	rec := doRequest(t, h, http.MethodGet, "/v1/carriers", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Carriers []tracking.CarrierCapability `json:"carriers"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Carriers, 1)
	require.Equal(t, "ups", body.Carriers[0].Code)
}

func TestHandler_detect(t *testing.T) {
	fake := &fakeService{}
	h := New(fake).Routes()

	rec := doRequest(t, h, http.MethodGet, "/v1/carriers/detect?trackNumber=1Z999AA10123456784", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "1Z999AA10123456784", fake.lastNum)

	var body struct {
		Carriers []string `json:"carriers"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, []string{"ups"}, body.Carriers)
}

func TestHandler_health(t *testing.T) {
	h := New(&fakeService{}).Routes()
	require.Equal(t, http.StatusOK, doRequest(t, h, http.MethodGet, "/healthz", "").Code)
	require.Equal(t, http.StatusOK, doRequest(t, h, http.MethodGet, "/readyz", "").Code)
}
