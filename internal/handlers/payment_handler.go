package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"event-ticketing/internal/services"
	"event-ticketing/internal/services/bank/razorpay"
)

const maxWebhookBody = 1 << 20

// PaymentFlow is the payment pipeline as seen by the HTTP layer.
type PaymentFlow interface {
	CreateOrder(ctx context.Context, userID, eventID string) (*services.OrderResult, error)
	Finalize(ctx context.Context, req services.FinalizeRequest) (*services.FinalizeResult, error)
	HandleWebhook(ctx context.Context, body []byte, signature string) (services.Outcome, error)
}

type PaymentHandler struct {
	payments PaymentFlow
}

func NewPaymentHandler(payments PaymentFlow) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// CreateOrder - open a gateway order for the event
func (h *PaymentHandler) CreateOrder(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	eventID := e.Request.PathValue("eventId")
	order, err := h.payments.CreateOrder(e.Request.Context(), e.Auth.Id, eventID)
	if err != nil {
		return writeError(e, err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"success":          true,
		"orderId":          order.GatewayOrderID,
		"amount":           order.Amount,
		"currency":         order.Currency,
		"gatewayPublicKey": order.GatewayPublicKey,
		"paymentId":        order.PaymentID,
	})
}

// verifyRequest accepts both our field names and the ones the Razorpay
// checkout handler posts verbatim.
type verifyRequest struct {
	GatewayOrderID   string `json:"gatewayOrderId"`
	GatewayPaymentID string `json:"gatewayPaymentId"`
	Signature        string `json:"signature"`
	PaymentID        string `json:"paymentId"`

	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`
}

func (r verifyRequest) normalize() services.FinalizeRequest {
	out := services.FinalizeRequest{
		GatewayOrderID:   r.GatewayOrderID,
		GatewayPaymentID: r.GatewayPaymentID,
		Signature:        r.Signature,
		PaymentID:        r.PaymentID,
	}
	if out.GatewayOrderID == "" {
		out.GatewayOrderID = r.RazorpayOrderID
	}
	if out.GatewayPaymentID == "" {
		out.GatewayPaymentID = r.RazorpayPaymentID
	}
	if out.Signature == "" {
		out.Signature = r.RazorpaySignature
	}
	return out
}

// Verify - checkout callback, finalizes the payment and issues the ticket
func (h *PaymentHandler) Verify(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req verifyRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request body", err)
	}

	res, err := h.payments.Finalize(e.Request.Context(), req.normalize())
	if err != nil {
		return writeError(e, err)
	}

	message := "Payment verified and registration completed"
	if res.DispatchErr != nil {
		message = "Payment verified. Your ticket email may be delayed"
	}

	return e.JSON(http.StatusOK, map[string]any{
		"success":        true,
		"message":        message,
		"registrationId": res.RegistrationID,
	})
}

// Webhook - gateway server-to-server notifications
func (h *PaymentHandler) Webhook(e *core.RequestEvent) error {
	body, err := io.ReadAll(io.LimitReader(e.Request.Body, maxWebhookBody))
	if err != nil {
		return apis.NewBadRequestError("Invalid request body", err)
	}

	outcome, err := h.payments.HandleWebhook(e.Request.Context(), body, e.Request.Header.Get(razorpay.SignatureHeader))
	if err != nil {
		return writeError(e, err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"success": true,
		"outcome": outcome,
	})
}
