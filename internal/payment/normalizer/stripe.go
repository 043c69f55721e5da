package normalizer

import (
	"encoding/json"
	"strings"

	"github.com/stripe/stripe-go/v81"

	"phasegarden/internal/payment/models"
)

// Stripe event types that can carry a completed payment.
const (
	EventPaymentIntentSucceeded        = "payment_intent.succeeded"
	EventCheckoutSessionCompleted      = "checkout.session.completed"
	EventCheckoutAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
)

// FromCheckoutSession maps a hosted-checkout session. A session is Approved
// only when its payment status is "paid".
//
// The key is the session's payment intent when it has one. Stripe also emits
// payment_intent.succeeded for the same charge and both must meet on one key.
func FromCheckoutSession(cs *stripe.CheckoutSession) (models.PaymentOutcome, error) {
	if cs == nil || strings.TrimSpace(cs.ID) == "" {
		return models.PaymentOutcome{}, malformed("checkout session without id")
	}

	paymentID := cs.ID
	if cs.PaymentIntent != nil && cs.PaymentIntent.ID != "" {
		paymentID = cs.PaymentIntent.ID
	}

	status := models.StatusPending
	if cs.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid {
		status = models.StatusApproved
	}

	email := ""
	if cs.CustomerDetails != nil {
		email = cs.CustomerDetails.Email
	}
	if email == "" {
		email = cs.CustomerEmail
	}
	if email == "" {
		email = cs.Metadata["email"]
	}

	return models.PaymentOutcome{
		Provider:          models.ProviderStripe,
		ProviderPaymentID: paymentID,
		Status:            status,
		AmountMinorUnits:  cs.AmountTotal,
		Currency:          strings.ToUpper(string(cs.Currency)),
		PayerEmail:        strings.TrimSpace(email),
		RawMetadata: map[string]string{
			models.MetaSessionID:      cs.ID,
			models.MetaProviderStatus: string(cs.PaymentStatus),
		},
	}, nil
}

// FromPaymentIntent maps an embedded-checkout payment intent. Only the
// succeeded status is Approved; every other intent state is still in flight.
func FromPaymentIntent(pi *stripe.PaymentIntent) (models.PaymentOutcome, error) {
	if pi == nil || strings.TrimSpace(pi.ID) == "" {
		return models.PaymentOutcome{}, malformed("payment intent without id")
	}

	status := models.StatusPending
	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		status = models.StatusApproved
	case stripe.PaymentIntentStatusCanceled:
		status = models.StatusRejected
	}

	email := pi.ReceiptEmail
	if email == "" {
		email = pi.Metadata["email"]
	}

	amount := pi.AmountReceived
	if amount == 0 {
		amount = pi.Amount
	}

	return models.PaymentOutcome{
		Provider:          models.ProviderStripe,
		ProviderPaymentID: pi.ID,
		Status:            status,
		AmountMinorUnits:  amount,
		Currency:          strings.ToUpper(string(pi.Currency)),
		PayerEmail:        strings.TrimSpace(email),
		RawMetadata: map[string]string{
			models.MetaProviderStatus: string(pi.Status),
		},
	}, nil
}

// FromStripeEvent maps a verified webhook event. Event types that do not
// signal a completed payment yield an Unknown outcome for the caller to skip.
func FromStripeEvent(event stripe.Event) (models.PaymentOutcome, error) {
	eventType := string(event.Type)
	if event.Data == nil || len(event.Data.Raw) == 0 {
		if isPaymentEvent(eventType) {
			return models.PaymentOutcome{}, malformed("event %s has no data object", event.ID)
		}
		return unknownEvent(eventType), nil
	}

	var (
		out models.PaymentOutcome
		err error
	)
	switch eventType {
	case EventPaymentIntentSucceeded:
		var pi stripe.PaymentIntent
		if uerr := json.Unmarshal(event.Data.Raw, &pi); uerr != nil {
			return models.PaymentOutcome{}, malformed("decode payment intent: %v", uerr)
		}
		out, err = FromPaymentIntent(&pi)
		if err == nil {
			// The event itself is the provider's terminal success signal.
			out.Status = models.StatusApproved
		}
	case EventCheckoutSessionCompleted, EventCheckoutAsyncPaymentSucceeded:
		var cs stripe.CheckoutSession
		if uerr := json.Unmarshal(event.Data.Raw, &cs); uerr != nil {
			return models.PaymentOutcome{}, malformed("decode checkout session: %v", uerr)
		}
		out, err = FromCheckoutSession(&cs)
	default:
		return unknownEvent(eventType), nil
	}
	if err != nil {
		return models.PaymentOutcome{}, err
	}
	out.RawMetadata[models.MetaEventType] = eventType
	return out, nil
}

func isPaymentEvent(eventType string) bool {
	switch eventType {
	case EventPaymentIntentSucceeded, EventCheckoutSessionCompleted, EventCheckoutAsyncPaymentSucceeded:
		return true
	}
	return false
}

func unknownEvent(eventType string) models.PaymentOutcome {
	return models.PaymentOutcome{
		Provider:    models.ProviderStripe,
		Status:      models.StatusUnknown,
		RawMetadata: map[string]string{models.MetaEventType: eventType},
	}
}
