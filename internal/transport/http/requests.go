package httptransport

import (
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"phasegarden/internal/payment/providers/mercadopago"
	"phasegarden/internal/payment/providers/stripeclient"
	dErrors "phasegarden/pkg/domain-errors"
)

const (
	// DefaultPrice is charged when the payment brick omits an amount.
	DefaultPrice       = 12.00
	paymentDescription = "PhaseGarden - VST3 • AU • AAX Audio Plugin"

	productID          = "phasegarden"
	productName        = "PhaseGarden"
	productDescription = "VST3 • AU • AAX • macOS 10.13+ • Windows 10+"
	priceCents         = 1200
	priceCurrency      = "usd"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationError flattens validator output into one client message.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return dErrors.Wrap(err, dErrors.CodeValidation, "invalid request")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "email":
			msgs = append(msgs, fe.Field()+" must be a valid email")
		default:
			msgs = append(msgs, fe.Field()+" failed "+fe.Tag())
		}
	}
	return dErrors.New(dErrors.CodeValidation, strings.Join(msgs, "; "))
}

// PaymentForm is what the Mercado Pago payment brick posts. It arrives either
// nested under formData or at the top level.
type PaymentForm struct {
	Token             string     `json:"token,omitempty" validate:"omitempty,max=256"`
	PaymentMethodID   string     `json:"payment_method_id" validate:"required,max=64"`
	TransactionAmount float64    `json:"transaction_amount" validate:"gte=0"`
	Installments      int        `json:"installments" validate:"gte=0,lte=48"`
	IssuerID          string     `json:"issuer_id,omitempty" validate:"max=64"`
	Payer             *FormPayer `json:"payer,omitempty"`
}

type FormPayer struct {
	Email          string                      `json:"email,omitempty"`
	Identification *mercadopago.Identification `json:"identification,omitempty"`
}

// ProcessPaymentRequest is the body of POST /api/mercadopago/process-payment.
type ProcessPaymentRequest struct {
	Email      string       `json:"email" validate:"required,email,max=254"`
	Newsletter bool         `json:"newsletter"`
	FormData   *PaymentForm `json:"formData,omitempty" validate:"-"`
	PaymentForm
}

// Normalize resolves the nested form and the payer email before validation.
func (r *ProcessPaymentRequest) Normalize() *PaymentForm {
	if r.FormData != nil {
		r.PaymentForm = *r.FormData
	}
	form := &r.PaymentForm
	r.Email = strings.TrimSpace(r.Email)
	if r.Email == "" && form.Payer != nil {
		r.Email = strings.TrimSpace(form.Payer.Email)
	}
	form.PaymentMethodID = strings.TrimSpace(form.PaymentMethodID)
	return form
}

// CreatePayment builds the provider request. Card payments carry a token and
// default to one installment.
func (r *ProcessPaymentRequest) CreatePayment() mercadopago.CreatePaymentRequest {
	form := r.PaymentForm
	amount := form.TransactionAmount
	if amount == 0 {
		amount = DefaultPrice
	}
	req := mercadopago.CreatePaymentRequest{
		TransactionAmount: amount,
		Description:       paymentDescription,
		PaymentMethodID:   form.PaymentMethodID,
		IssuerID:          form.IssuerID,
		Payer:             mercadopago.Payer{Email: r.Email},
		Metadata: map[string]any{
			"customer_email": r.Email,
			"newsletter":     strconv.FormatBool(r.Newsletter),
		},
	}
	if form.Token != "" {
		req.Token = form.Token
		req.Installments = form.Installments
		if req.Installments == 0 {
			req.Installments = 1
		}
	}
	if form.Payer != nil && form.Payer.Identification != nil {
		req.Payer.Identification = form.Payer.Identification
	}
	return req
}

// CheckoutRequest is the body of the three checkout creation routes.
// Newsletter is only recorded for Mercado Pago.
type CheckoutRequest struct {
	Email      string `json:"email" validate:"required,email,max=254"`
	Newsletter bool   `json:"newsletter"`
}

func (r *CheckoutRequest) Normalize() {
	r.Email = strings.TrimSpace(r.Email)
}

func (r *CheckoutRequest) product() stripeclient.Product {
	return stripeclient.Product{Name: productName, Description: productDescription, Amount: priceCents, Currency: priceCurrency}
}

// Preference builds the Checkout Pro request. Mercado Pago calls back the
// same webhook the payment brick uses.
func (r *CheckoutRequest) Preference(siteURL string) mercadopago.PreferenceRequest {
	return mercadopago.PreferenceRequest{
		ItemID:          productID,
		Title:           productName,
		Description:     productDescription,
		UnitPrice:       DefaultPrice,
		CurrencyID:      strings.ToUpper(priceCurrency),
		PayerEmail:      r.Email,
		SuccessURL:      siteURL + "/success",
		FailureURL:      siteURL + "/checkout",
		PendingURL:      siteURL + "/checkout",
		NotificationURL: siteURL + "/api/mercadopago/webhook",
		Metadata: map[string]any{
			"customer_email": r.Email,
			"newsletter":     strconv.FormatBool(r.Newsletter),
		},
	}
}

// TrackDownloadRequest is the body of POST /api/track-download.
type TrackDownloadRequest struct {
	Type   string `json:"type" validate:"required,oneof=demo purchase"`
	Source string `json:"source" validate:"required,max=64"`
}

// ResendRequest is the optional body of the operator resend route. Email
// supplies the address for a record that was claimed without one.
type ResendRequest struct {
	Force bool   `json:"force"`
	Email string `json:"email" validate:"omitempty,email,max=254"`
}
