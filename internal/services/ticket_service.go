package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/skip2/go-qrcode"

	"event-ticketing/internal/status"
	"event-ticketing/models"
	"event-ticketing/monitoring"
)

const (
	defaultTicketTTL    = 48 * time.Hour
	defaultTicketQRSize = 800
)

// TicketClaims is the JWT payload encoded in the QR code.
type TicketClaims struct {
	RegistrationID string `json:"registrationId"`
	jwt.RegisteredClaims
}

type TicketOptions struct {
	TTL       time.Duration
	ClockSkew time.Duration
	QRSize    int
	Now       func() time.Time
}

// TicketService mints signed admission credentials and renders them as QR codes.
type TicketService struct {
	registrations RegistrationRepository
	secret        []byte
	ttl           time.Duration
	leeway        time.Duration
	qrSize        int
	now           func() time.Time
}

func NewTicketService(registrations RegistrationRepository, secret string, opts TicketOptions) (*TicketService, error) {
	if secret == "" {
		return nil, errors.New("ticket secret is required")
	}
	if opts.TTL <= 0 {
		opts.TTL = defaultTicketTTL
	}
	if opts.QRSize <= 0 {
		opts.QRSize = defaultTicketQRSize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &TicketService{
		registrations: registrations,
		secret:        []byte(secret),
		ttl:           opts.TTL,
		leeway:        opts.ClockSkew,
		qrSize:        opts.QRSize,
		now:           opts.Now,
	}, nil
}

// Issue mints a credential for the registration, stores the token on it and
// renders the QR image. Issuing again overwrites the stored token.
func (s *TicketService) Issue(ctx context.Context, registrationID string) (*models.Ticket, error) {
	ticket, err := s.Mint(registrationID)
	if err != nil {
		return nil, err
	}

	if err := s.registrations.SetCredentialToken(ctx, registrationID, ticket.Token); err != nil {
		return nil, fmt.Errorf("store credential token: %w", err)
	}

	img, err := s.RenderQR(ticket.Token)
	if err != nil {
		return nil, err
	}
	ticket.Image = img

	monitoring.TrackTicketIssued()
	return ticket, nil
}

// Mint signs a token for registrationID without touching storage.
func (s *TicketService) Mint(registrationID string) (*models.Ticket, error) {
	if registrationID == "" {
		return nil, errors.New("mint ticket: empty registration id")
	}

	issuedAt := s.now().Truncate(time.Second)
	expiresAt := issuedAt.Add(s.ttl)

	claims := TicketClaims{
		RegistrationID: registrationID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("sign ticket: %w", err)
	}

	return &models.Ticket{
		RegistrationID: registrationID,
		Token:          token,
		IssuedAt:       issuedAt,
		ExpiresAt:      expiresAt,
	}, nil
}

// Parse validates a ticket token and returns the registration it admits.
func (s *TicketService) Parse(token string) (string, error) {
	claims := &TicketClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(s.leeway),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", status.Wrap(status.ErrInvalidTicket, err)
	}
	if claims.RegistrationID == "" {
		return "", status.Wrap(status.ErrInvalidTicket, errors.New("missing registrationId claim"))
	}
	return claims.RegistrationID, nil
}

// RenderQR encodes content as a PNG with high error correction.
func (s *TicketService) RenderQR(content string) ([]byte, error) {
	qr, err := qrcode.New(content, qrcode.High)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	png, err := qr.PNG(s.qrSize)
	if err != nil {
		return nil, fmt.Errorf("render qr: %w", err)
	}
	return png, nil
}
