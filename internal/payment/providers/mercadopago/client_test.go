package mercadopago

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phasegarden/internal/payment/providers"
)

func TestClient_GetPayment(t *testing.T) {
	t.Run("decodes payment and sends bearer token", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/v1/payments/123", r.URL.Path)
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(`{"id":123,"status":"approved","transaction_amount":149.9,"currency_id":"BRL","metadata":{"customer_email":"buyer@example.com"}}`))
		}))
		defer srv.Close()

		p, err := newTestClient(t, srv.URL).GetPayment(context.Background(), "123")
		require.NoError(t, err)
		assert.Equal(t, ID("123"), p.ID)
		assert.Equal(t, "approved", p.Status)
		assert.Equal(t, "buyer@example.com", p.MetadataString("customer_email"))
	})

	t.Run("status codes map to provider categories", func(t *testing.T) {
		cases := []struct {
			status    int
			category  providers.ErrorCategory
			retryable bool
		}{
			{http.StatusNotFound, providers.ErrorNotFound, false},
			{http.StatusUnauthorized, providers.ErrorAuthentication, false},
			{http.StatusTooManyRequests, providers.ErrorRateLimited, true},
			{http.StatusBadGateway, providers.ErrorProviderOutage, true},
			{http.StatusBadRequest, providers.ErrorRejected, false},
		}
		for _, tc := range cases {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"message":"nope"}`, tc.status)
			}))

			_, err := newTestClient(t, srv.URL).GetPayment(context.Background(), "1")
			srv.Close()

			require.Error(t, err)
			var pe *providers.ProviderError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tc.category, pe.Category, "status %d", tc.status)
			assert.Equal(t, tc.status, pe.StatusCode)
			assert.Equal(t, tc.retryable, providers.IsRetryable(err))
		}
	})

	t.Run("slow provider is a timeout", func(t *testing.T) {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()
		defer close(release)

		_, err := newTestClient(t, srv.URL, WithTimeout(20*time.Millisecond)).GetPayment(context.Background(), "1")
		require.Error(t, err)
		assert.Equal(t, providers.ErrorTimeout, providers.GetCategory(err))
	})

	t.Run("empty or non-numeric id never reaches the network", func(t *testing.T) {
		c := newTestClient(t, "http://127.0.0.1:0")
		_, err := c.GetPayment(context.Background(), " ")
		assert.Equal(t, providers.ErrorBadData, providers.GetCategory(err))

		_, err = c.GetPayment(context.Background(), "abc")
		assert.Equal(t, providers.ErrorBadData, providers.GetCategory(err))
	})
}

func TestNew_RejectsRelativeBaseURL(t *testing.T) {
	_, err := New("tok", WithBaseURL("/mp"))
	assert.Error(t, err)
}

func TestClient_CreatePayment(t *testing.T) {
	var got CreatePaymentRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/payments", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"id":42,"status":"pending","status_detail":"pending_waiting_transfer",
			"point_of_interaction":{"transaction_data":{"qr_code":"000201","qr_code_base64":"aGk=","ticket_url":"https://mp.example/t/42"}}}`))
	}))
	defer srv.Close()

	p, err := newTestClient(t, srv.URL).CreatePayment(context.Background(), CreatePaymentRequest{
		TransactionAmount: 149.9,
		Description:       "PhaseGarden",
		PaymentMethodID:   "pix",
		Payer:             Payer{Email: "buyer@example.com", Identification: &Identification{Type: "CPF", Number: "12345678909"}},
		Metadata:          map[string]any{"customer_email": "buyer@example.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, "pix", got.PaymentMethodID)
	require.NotNil(t, got.Payer.Identification)
	assert.Equal(t, "CPF", got.Payer.Identification.Type)
	assert.Equal(t, ID("42"), p.ID)
	require.NotNil(t, p.PointOfInteraction)
	assert.Equal(t, "000201", p.PointOfInteraction.TransactionData.QRCode)
}

func TestClient_CreatePreference(t *testing.T) {
	t.Run("sends the single item and back urls", func(t *testing.T) {
		var got struct {
			Items []struct {
				ID         string  `json:"id"`
				Title      string  `json:"title"`
				Quantity   int     `json:"quantity"`
				UnitPrice  float64 `json:"unit_price"`
				CurrencyID string  `json:"currency_id"`
			} `json:"items"`
			Payer struct {
				Email string `json:"email"`
			} `json:"payer"`
			BackURLs struct {
				Success string `json:"success"`
				Failure string `json:"failure"`
			} `json:"back_urls"`
			NotificationURL string         `json:"notification_url"`
			Metadata        map[string]any `json:"metadata"`
		}
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/checkout/preferences", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			_, _ = w.Write([]byte(`{"id":"pref-1","init_point":"https://mp.example/checkout?pref_id=pref-1"}`))
		}))
		defer srv.Close()

		pref, err := newTestClient(t, srv.URL).CreatePreference(context.Background(), PreferenceRequest{
			ItemID:          "phasegarden",
			Title:           "PhaseGarden",
			UnitPrice:       12,
			CurrencyID:      "USD",
			PayerEmail:      "buyer@example.com",
			SuccessURL:      "https://shop.example/success",
			FailureURL:      "https://shop.example/checkout",
			NotificationURL: "https://shop.example/api/mercadopago/webhook",
			Metadata:        map[string]any{"customer_email": "buyer@example.com", "newsletter": true},
		})
		require.NoError(t, err)
		assert.Equal(t, "pref-1", pref.ID)
		assert.Equal(t, "https://mp.example/checkout?pref_id=pref-1", pref.InitPoint)

		require.Len(t, got.Items, 1)
		assert.Equal(t, 1, got.Items[0].Quantity)
		assert.Equal(t, 12.0, got.Items[0].UnitPrice)
		assert.Equal(t, "USD", got.Items[0].CurrencyID)
		assert.Equal(t, "buyer@example.com", got.Payer.Email)
		assert.Equal(t, "https://shop.example/success", got.BackURLs.Success)
		assert.Equal(t, "https://shop.example/api/mercadopago/webhook", got.NotificationURL)
		assert.Equal(t, true, got.Metadata["newsletter"])
	})

	t.Run("rejected preference keeps the status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"message":"invalid items"}`, http.StatusBadRequest)
		}))
		defer srv.Close()

		_, err := newTestClient(t, srv.URL).CreatePreference(context.Background(), PreferenceRequest{Title: "PhaseGarden"})
		var pe *providers.ProviderError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, providers.ErrorRejected, pe.Category)
		assert.Equal(t, http.StatusBadRequest, pe.StatusCode)
	})
}

func newTestClient(t *testing.T, baseURL string, opts ...Option) *Client {
	t.Helper()
	c, err := New("tok", append([]Option{WithBaseURL(baseURL)}, opts...)...)
	require.NoError(t, err)
	return c
}

func TestID_UnmarshalJSON(t *testing.T) {
	var n Notification
	require.NoError(t, json.Unmarshal([]byte(`{"type":"payment","data":{"id":"123"}}`), &n))
	assert.Equal(t, "123", n.Data.ID.String())

	require.NoError(t, json.Unmarshal([]byte(`{"type":"payment","data":{"id":456}}`), &n))
	assert.Equal(t, "456", n.Data.ID.String())

	require.NoError(t, json.Unmarshal([]byte(`{"type":"payment","data":{"id":null}}`), &n))
	assert.Empty(t, n.Data.ID.String())

	assert.Error(t, json.Unmarshal([]byte(`{"data":{"id":1.5}}`), &n))
}
