package httptransport

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"phasegarden/internal/transport/http/mocks"
	"phasegarden/pkg/testutil"
)

func TestTrackDownloadValidation(t *testing.T) {
	ctrl := gomock.NewController(t)
	h, err := New(mocks.NewMockFulfiller(ctrl), mocks.NewMockEntitlements(ctrl))
	require.NoError(t, err)
	router := NewRouter(h, RouterConfig{})

	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantCode   string
	}{
		{"demo download", map[string]string{"type": "demo", "source": "landing"}, http.StatusOK, ""},
		{"purchase download", map[string]string{"type": "purchase", "source": "success_page"}, http.StatusOK, ""},
		{"unknown type", map[string]string{"type": "beta", "source": "landing"}, http.StatusBadRequest, "validation_error"},
		{"missing source", map[string]string{"type": "demo"}, http.StatusBadRequest, "validation_error"},
		{"not an object", []int{1, 2}, http.StatusBadRequest, "bad_request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.NewJSONRequest(t, http.MethodPost, "/api/track-download", tt.body)
			req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36")
			rr := testutil.DoRequest(router, req)

			if tt.wantCode != "" {
				testutil.AssertErrorCode(t, rr, tt.wantStatus, tt.wantCode)
				return
			}
			assert.Equal(t, tt.wantStatus, rr.Code)
			resp := testutil.UnmarshalResponse[TrackDownloadResponse](t, rr)
			assert.True(t, resp.Success)
			assert.Equal(t, "Download tracked", resp.Message)
		})
	}
}

func TestProviderRoutesMountOnlyWhenConfigured(t *testing.T) {
	ctrl := gomock.NewController(t)
	h, err := New(mocks.NewMockFulfiller(ctrl), mocks.NewMockEntitlements(ctrl))
	require.NoError(t, err)
	router := NewRouter(h, RouterConfig{})

	for _, path := range []string{"/api/webhook", "/api/mercadopago/webhook", "/api/mercadopago/process-payment"} {
		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, path, map[string]string{}))
		assert.Equal(t, http.StatusNotFound, rr.Code, path)
	}
	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/admin/fulfillments/stripe/pi_1/resend", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
