package cmd

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"event-ticketing/internal/services"
	"event-ticketing/internal/status"
	"event-ticketing/models"
)

type MockReissuer struct {
	mock.Mock
}

func (m *MockReissuer) ReissueTicket(ctx context.Context, registrationID string) (*services.FinalizeResult, error) {
	args := m.Called(registrationID)
	res, _ := args.Get(0).(*services.FinalizeResult)
	return res, args.Error(1)
}

func runReissue(t *testing.T, r TicketReissuer, args ...string) (string, error) {
	t.Helper()
	command := NewReissueTicketCommand(func() (TicketReissuer, error) { return r, nil })
	var out bytes.Buffer
	command.SetOut(&out)
	command.SetErr(&bytes.Buffer{})
	command.SetArgs(args)
	err := command.Execute()
	return out.String(), err
}

func TestReissueTicketCommand(t *testing.T) {
	r := new(MockReissuer)
	r.On("ReissueTicket", "reg_1").Return(&services.FinalizeResult{
		Outcome:        services.OutcomeReissued,
		RegistrationID: "reg_1",
		Ticket:         &models.Ticket{Token: "a.b.c", ExpiresAt: time.Date(2025, 2, 12, 9, 30, 0, 0, time.UTC)},
		DispatchErr:    errors.New("smtp: 421"),
	}, nil)

	out, err := runReissue(t, r, "--registration", "reg_1")
	require.NoError(t, err)
	assert.Contains(t, out, "registration reg_1: ticket valid until 2025-02-12T09:30:00Z")
	assert.Contains(t, out, "delivery incomplete: smtp: 421")
	assert.NotContains(t, out, "a.b.c")
	r.AssertExpectations(t)
}

func TestReissueTicketCommand_Errors(t *testing.T) {
	_, err := runReissue(t, new(MockReissuer))
	assert.Error(t, err)

	r := new(MockReissuer)
	r.On("ReissueTicket", "reg_9").Return(nil, status.ErrNotReissuable)
	_, err = runReissue(t, r, "--registration", "reg_9")
	assert.ErrorIs(t, err, status.ErrNotReissuable)

	command := NewReissueTicketCommand(func() (TicketReissuer, error) { return nil, errors.New("no mailer") })
	command.SetOut(&bytes.Buffer{})
	command.SetErr(&bytes.Buffer{})
	command.SetArgs([]string{"--registration", "reg_1"})
	assert.ErrorContains(t, command.Execute(), "no mailer")
}
