package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"event-ticketing/internal/services/bank"
	"event-ticketing/internal/services/bank/razorpay"
	"event-ticketing/internal/status"
	"event-ticketing/models"
	"event-ticketing/monitoring"
	"event-ticketing/utils"
)

type Outcome string

const (
	OutcomeFinalized        Outcome = "finalized"
	OutcomeAlreadyFinalized Outcome = "already_finalized"
	OutcomeRejected         Outcome = "rejected"
	OutcomeFailed           Outcome = "failed"
	OutcomeIgnored          Outcome = "ignored"
	OutcomeReissued         Outcome = "reissued"
)

const dispatchTimeout = 30 * time.Second

type PaymentDeps struct {
	Payments      PaymentRepository
	Events        EventRepository
	Users         UserDirectory
	Registrations RegistrationRepository
	Tickets       *TicketService
	Notifier      Dispatcher
	Gateway       bank.Gateway
	Verifier      *SignatureVerifier
	Currency      string
	Logger        *slog.Logger
	Now           func() time.Time
}

// PaymentService drives a payment from order creation to an issued ticket.
// The created -> paid transition is a conditional write in the payment
// store, so concurrent callbacks and webhooks for one payment run the
// downstream steps exactly once.
type PaymentService struct {
	payments      PaymentRepository
	events        EventRepository
	users         UserDirectory
	registrations *RegistrationService
	tickets       *TicketService
	notifier      Dispatcher
	gateway       bank.Gateway
	verifier      *SignatureVerifier
	currency      string
	logger        *slog.Logger
	now           func() time.Time
	validate      *validator.Validate
}

func NewPaymentService(d PaymentDeps) *PaymentService {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Currency == "" {
		d.Currency = "INR"
	}

	return &PaymentService{
		payments:      d.Payments,
		events:        d.Events,
		users:         d.Users,
		registrations: NewRegistrationService(d.Registrations),
		tickets:       d.Tickets,
		notifier:      d.Notifier,
		gateway:       d.Gateway,
		verifier:      d.Verifier,
		currency:      d.Currency,
		logger:        d.Logger.With("component", "payments"),
		now:           d.Now,
		validate:      validator.New(),
	}
}

type OrderResult struct {
	PaymentID        string `json:"paymentId"`
	GatewayOrderID   string `json:"orderId"`
	Amount           int64  `json:"amount"`
	Currency         string `json:"currency"`
	GatewayPublicKey string `json:"gatewayPublicKey"`
}

// CreateOrder opens a gateway order for the event's price and records a
// payment in state created.
func (s *PaymentService) CreateOrder(ctx context.Context, userID, eventID string) (*OrderResult, error) {
	res, err := s.createOrder(ctx, userID, eventID)
	if err != nil {
		monitoring.TrackOrder(errorCode(err))
		return nil, err
	}
	monitoring.TrackOrder("ok")
	return res, nil
}

func (s *PaymentService) createOrder(ctx context.Context, userID, eventID string) (*OrderResult, error) {
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return nil, classify(err)
	}

	now := s.now()
	if !event.RegistrationOpen(now) {
		return nil, status.ErrRegistrationClosed
	}

	reg, err := s.registrations.StatusFor(ctx, userID, eventID)
	if err != nil {
		return nil, classify(err)
	}
	if reg.Registered {
		return nil, status.ErrAlreadyRegistered
	}

	amount := MinorUnits(event.Price)
	receipt, err := utils.NewReceipt(now)
	if err != nil {
		return nil, status.Wrap(status.ErrInternal, err)
	}

	order, err := s.gateway.CreateOrder(ctx, &bank.OrderRequest{
		Amount:   amount,
		Currency: s.currency,
		Receipt:  receipt,
		Notes: map[string]string{
			"user_id":  userID,
			"event_id": eventID,
		},
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "gateway order creation failed",
			"user_id", userID,
			"event_id", eventID,
			"provider", s.gateway.GetProvider(),
			"error", err,
		)
		return nil, status.Wrap(status.ErrUpstream, err)
	}

	currency := order.Currency
	if currency == "" {
		currency = s.currency
	}

	payment := &models.Payment{
		UserID:         userID,
		EventID:        eventID,
		OrganizerID:    event.OrganizerID,
		Amount:         amount,
		Currency:       currency,
		Receipt:        receipt,
		GatewayOrderID: order.ID,
		Status:         models.PaymentCreated,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		// The remote order now has no local payment and will never be verified.
		s.logger.ErrorContext(ctx, "orphaned gateway order",
			"gateway_order_id", order.ID,
			"user_id", userID,
			"event_id", eventID,
			"error", err,
		)
		return nil, status.Wrap(status.ErrOrderStore, err)
	}

	s.logger.InfoContext(ctx, "payment order created",
		"payment_id", payment.ID,
		"gateway_order_id", order.ID,
		"amount", amount,
		"currency", currency,
	)

	return &OrderResult{
		PaymentID:        payment.ID,
		GatewayOrderID:   order.ID,
		Amount:           amount,
		Currency:         currency,
		GatewayPublicKey: s.gateway.PublicKey(),
	}, nil
}

// MinorUnits converts a major-unit price to the gateway's integer minor
// units, rounding half away from zero.
func MinorUnits(price float64) int64 {
	return decimal.NewFromFloat(price).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

type FinalizeRequest struct {
	GatewayOrderID   string `json:"gatewayOrderId" validate:"required"`
	GatewayPaymentID string `json:"gatewayPaymentId" validate:"required"`
	Signature        string `json:"signature" validate:"required"`
	PaymentID        string `json:"paymentId" validate:"required"`
}

type FinalizeResult struct {
	Outcome        Outcome        `json:"outcome"`
	PaymentID      string         `json:"paymentId"`
	RegistrationID string         `json:"registrationId,omitempty"`
	Ticket         *models.Ticket `json:"-"`

	// DispatchErr is set when the ticket was issued but could not be
	// delivered on every channel. It never undoes the finalization.
	DispatchErr error `json:"-"`
}

// Finalize verifies a checkout callback and, for the first valid callback,
// marks the payment paid, registers the user and issues the ticket.
func (s *PaymentService) Finalize(ctx context.Context, req FinalizeRequest) (*FinalizeResult, error) {
	res, err := s.finalize(ctx, req)
	monitoring.TrackFinalization("callback", string(outcomeOf(res, err)))
	return res, err
}

func (s *PaymentService) finalize(ctx context.Context, req FinalizeRequest) (*FinalizeResult, error) {
	rejected := &FinalizeResult{Outcome: OutcomeRejected, PaymentID: req.PaymentID}

	if err := s.validate.Struct(req); err != nil {
		return rejected, status.Wrap(status.ErrValidation, err)
	}

	p, err := s.payments.FindByID(ctx, req.PaymentID)
	if err != nil {
		return rejected, classify(err)
	}

	switch p.Status {
	case models.PaymentPaid:
		return &FinalizeResult{Outcome: OutcomeAlreadyFinalized, PaymentID: p.ID}, status.ErrAlreadyFinalized
	case models.PaymentFailed:
		return rejected, status.ErrPaymentClosed
	}

	if req.GatewayOrderID != p.GatewayOrderID {
		s.logger.WarnContext(ctx, "callback order id does not match payment",
			"payment_id", p.ID,
			"expected_order_id", p.GatewayOrderID,
			"received_order_id", req.GatewayOrderID,
		)
		return rejected, status.ErrInvalidSignature
	}
	if !s.verifier.Verify(req.GatewayOrderID, req.GatewayPaymentID, req.Signature) {
		s.logger.WarnContext(ctx, "invalid payment signature",
			"payment_id", p.ID,
			"gateway_order_id", req.GatewayOrderID,
		)
		return rejected, status.ErrInvalidSignature
	}

	return s.complete(ctx, p, req.GatewayPaymentID)
}

// complete performs the created -> paid transition and, if this call won it,
// the downstream registration, issuance and dispatch.
func (s *PaymentService) complete(ctx context.Context, p *models.Payment, gatewayPaymentID string) (*FinalizeResult, error) {
	won, err := s.payments.CompareAndSetStatus(ctx, p.ID, models.PaymentCreated, models.PaymentPaid,
		StatusUpdate{GatewayPaymentID: gatewayPaymentID})
	if err != nil {
		return &FinalizeResult{Outcome: OutcomeRejected, PaymentID: p.ID}, s.internal(ctx, "mark payment paid", p.ID, err)
	}
	if !won {
		return s.lost(ctx, p.ID)
	}

	s.logger.InfoContext(ctx, "payment marked paid",
		"payment_id", p.ID,
		"gateway_payment_id", gatewayPaymentID,
	)

	res := &FinalizeResult{Outcome: OutcomeFinalized, PaymentID: p.ID}

	reg, created, err := s.registrations.ensure(ctx, p.UserID, p.EventID, p.ID)
	if err != nil {
		return res, s.internal(ctx, "ensure registration", p.ID, err)
	}
	res.RegistrationID = reg.ID

	// Only the call that inserted the registration issues its ticket. A
	// registration without a token gets one through ReissueTicket.
	if !created {
		s.logger.WarnContext(ctx, "registration already exists, skipping issuance",
			"payment_id", p.ID,
			"registration_id", reg.ID,
		)
		return res, nil
	}

	ticket, err := s.tickets.Issue(ctx, reg.ID)
	if err != nil {
		return res, s.internal(ctx, "issue ticket", p.ID, err)
	}
	res.Ticket = ticket

	res.DispatchErr = s.dispatch(ctx, p, reg, ticket)
	return res, nil
}

// ReissueTicket mints a fresh ticket for a paid registration and delivers it.
// It recovers registrations whose first issuance or delivery failed.
func (s *PaymentService) ReissueTicket(ctx context.Context, registrationID string) (*FinalizeResult, error) {
	reg, err := s.registrations.find(ctx, registrationID)
	if err != nil {
		return &FinalizeResult{Outcome: OutcomeRejected}, classify(err)
	}
	res := &FinalizeResult{Outcome: OutcomeRejected, PaymentID: reg.PaymentID, RegistrationID: reg.ID}
	if reg.Status != models.RegistrationPaid {
		return res, status.ErrNotReissuable
	}

	ticket, err := s.tickets.Issue(ctx, reg.ID)
	if err != nil {
		return res, s.internal(ctx, "reissue ticket", reg.PaymentID, err)
	}
	s.logger.InfoContext(ctx, "ticket reissued",
		"registration_id", reg.ID,
		"had_token", reg.CredentialToken != "",
	)

	res.Outcome = OutcomeReissued
	res.Ticket = ticket
	p := &models.Payment{ID: reg.PaymentID, UserID: reg.UserID, EventID: reg.EventID}
	res.DispatchErr = s.dispatch(ctx, p, reg, ticket)
	return res, nil
}

// lost resolves the outcome for a caller whose conditional write matched no row.
func (s *PaymentService) lost(ctx context.Context, paymentID string) (*FinalizeResult, error) {
	current, err := s.payments.FindByID(ctx, paymentID)
	if err != nil {
		return &FinalizeResult{Outcome: OutcomeRejected, PaymentID: paymentID}, classify(err)
	}
	if current.Status == models.PaymentFailed {
		return &FinalizeResult{Outcome: OutcomeRejected, PaymentID: paymentID}, status.ErrPaymentClosed
	}
	return &FinalizeResult{Outcome: OutcomeAlreadyFinalized, PaymentID: paymentID}, status.ErrAlreadyFinalized
}

func (s *PaymentService) dispatch(ctx context.Context, p *models.Payment, reg *models.Registration, ticket *models.Ticket) error {
	if s.notifier == nil {
		return nil
	}

	// Delivery outlives a client that disconnects after the payment is paid.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), dispatchTimeout)
	defer cancel()

	user, err := s.users.FindByID(ctx, p.UserID)
	if err != nil {
		s.logger.ErrorContext(ctx, "ticket recipient lookup failed",
			"payment_id", p.ID,
			"user_id", p.UserID,
			"error", err,
		)
		return fmt.Errorf("lookup recipient: %w", err)
	}

	eventName := p.EventID
	if event, err := s.events.FindByID(ctx, p.EventID); err == nil {
		eventName = event.Name
	}

	err = s.notifier.Dispatch(ctx, Delivery{
		UserID:         user.ID,
		Email:          user.Email,
		Name:           user.Name,
		EventName:      eventName,
		RegistrationID: reg.ID,
		Ticket:         ticket,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "ticket dispatch incomplete",
			"payment_id", p.ID,
			"registration_id", reg.ID,
			"error", err,
		)
	}
	return err
}

// MarkFailed records a gateway-reported failure. A payment that is already
// failed is left as is.
func (s *PaymentService) MarkFailed(ctx context.Context, paymentID, reason string) error {
	won, err := s.payments.CompareAndSetStatus(ctx, paymentID, models.PaymentCreated, models.PaymentFailed,
		StatusUpdate{FailureReason: reason})
	if err != nil {
		return s.internal(ctx, "mark payment failed", paymentID, err)
	}
	if won {
		s.logger.InfoContext(ctx, "payment marked failed", "payment_id", paymentID, "reason", reason)
		return nil
	}

	current, err := s.payments.FindByID(ctx, paymentID)
	if err != nil {
		return classify(err)
	}
	if current.Status == models.PaymentPaid {
		return status.ErrAlreadyFinalized
	}
	return nil
}

// HandleWebhook processes a signed gateway event. Captures finalize the
// payment without a checkout signature since the body itself is signed.
func (s *PaymentService) HandleWebhook(ctx context.Context, body []byte, signature string) (Outcome, error) {
	outcome, err := s.handleWebhook(ctx, body, signature)
	monitoring.TrackFinalization("webhook", string(outcome))
	return outcome, err
}

func (s *PaymentService) handleWebhook(ctx context.Context, body []byte, signature string) (Outcome, error) {
	if !s.verifier.VerifyWebhook(body, signature) {
		s.logger.WarnContext(ctx, "invalid webhook signature")
		return OutcomeRejected, status.ErrInvalidSignature
	}

	ev, err := razorpay.ParseWebhook(body)
	if err != nil {
		return OutcomeRejected, status.Wrap(status.ErrValidation, err)
	}
	entity := ev.Payment()

	switch ev.Event {
	case razorpay.EventPaymentCaptured, razorpay.EventOrderPaid:
		p, err := s.paymentForOrder(ctx, entity.OrderID)
		if err != nil {
			return OutcomeRejected, err
		}
		switch p.Status {
		case models.PaymentPaid:
			return OutcomeAlreadyFinalized, nil
		case models.PaymentFailed:
			s.logger.ErrorContext(ctx, "capture received for failed payment",
				"payment_id", p.ID,
				"gateway_payment_id", entity.ID,
			)
			return OutcomeRejected, status.ErrPaymentClosed
		}

		res, err := s.complete(ctx, p, entity.ID)
		if errors.Is(err, status.ErrAlreadyFinalized) {
			return OutcomeAlreadyFinalized, nil
		}
		if err != nil {
			return res.Outcome, err
		}
		return res.Outcome, nil

	case razorpay.EventPaymentFailed:
		p, err := s.paymentForOrder(ctx, entity.OrderID)
		if err != nil {
			return OutcomeRejected, err
		}
		reason := entity.ErrorDescription
		if reason == "" {
			reason = entity.ErrorCode
		}
		if err := s.MarkFailed(ctx, p.ID, reason); err != nil {
			if errors.Is(err, status.ErrAlreadyFinalized) {
				return OutcomeAlreadyFinalized, nil
			}
			return OutcomeRejected, err
		}
		return OutcomeFailed, nil

	default:
		s.logger.DebugContext(ctx, "ignoring webhook event", "event", ev.Event)
		return OutcomeIgnored, nil
	}
}

func (s *PaymentService) paymentForOrder(ctx context.Context, orderID string) (*models.Payment, error) {
	if orderID == "" {
		return nil, status.Wrap(status.ErrValidation, errors.New("webhook without order id"))
	}
	p, err := s.payments.FindByGatewayOrderID(ctx, orderID)
	if err != nil {
		return nil, classify(err)
	}
	return p, nil
}

func (s *PaymentService) internal(ctx context.Context, step, paymentID string, err error) error {
	s.logger.ErrorContext(ctx, "payment finalization step failed",
		"step", step,
		"payment_id", paymentID,
		"error", err,
	)
	return status.Wrap(status.ErrInternal, fmt.Errorf("%s: %w", step, err))
}

// classify passes status errors through and wraps everything else as internal.
func classify(err error) error {
	if _, ok := status.As(err); ok {
		return err
	}
	return status.Wrap(status.ErrInternal, err)
}

func errorCode(err error) string {
	if e, ok := status.As(err); ok {
		return e.Code
	}
	return "InternalError"
}

func outcomeOf(res *FinalizeResult, err error) Outcome {
	if res != nil {
		return res.Outcome
	}
	if err != nil {
		return OutcomeRejected
	}
	return OutcomeFinalized
}
