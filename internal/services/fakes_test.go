package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"event-ticketing/internal/status"
	"event-ticketing/models"
)

type memPayments struct {
	mu      sync.Mutex
	seq     int
	rows    map[string]*models.Payment
	casErr  error
	created error
}

func newMemPayments() *memPayments {
	return &memPayments{rows: map[string]*models.Payment{}}
}

func (m *memPayments) Create(_ context.Context, p *models.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.created != nil {
		return m.created
	}
	m.seq++
	p.ID = fmt.Sprintf("pay_%d", m.seq)
	cp := *p
	m.rows[p.ID] = &cp
	return nil
}

func (m *memPayments) FindByID(_ context.Context, id string) (*models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return nil, status.ErrPaymentNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPayments) FindByGatewayOrderID(_ context.Context, orderID string) (*models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.rows {
		if p.GatewayOrderID == orderID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, status.ErrPaymentNotFound
}

func (m *memPayments) CompareAndSetStatus(_ context.Context, id string, from, to models.PaymentStatus, upd StatusUpdate) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.casErr != nil {
		return false, m.casErr
	}
	p, ok := m.rows[id]
	if !ok || p.Status != from {
		return false, nil
	}
	p.Status = to
	if upd.GatewayPaymentID != "" {
		p.GatewayPaymentID = upd.GatewayPaymentID
	}
	if upd.FailureReason != "" {
		p.FailureReason = upd.FailureReason
	}
	return true, nil
}

func (m *memPayments) put(p models.Payment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[p.ID] = &p
}

func (m *memPayments) get(id string) models.Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.rows[id]
}

type memRegistrations struct {
	mu       sync.Mutex
	seq      int
	rows     map[string]*models.Registration
	inserts  int
	tokenErr error
}

func newMemRegistrations() *memRegistrations {
	return &memRegistrations{rows: map[string]*models.Registration{}}
}

func regKey(userID, eventID string) string { return userID + "|" + eventID }

func (m *memRegistrations) FindOrCreateByUniqueKey(_ context.Context, reg *models.Registration) (*models.Registration, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := regKey(reg.UserID, reg.EventID)
	if existing, ok := m.rows[k]; ok {
		cp := *existing
		return &cp, false, nil
	}
	m.seq++
	m.inserts++
	cp := *reg
	cp.ID = fmt.Sprintf("reg_%d", m.seq)
	m.rows[k] = &cp
	out := cp
	return &out, true, nil
}

func (m *memRegistrations) FindByUserAndEvent(_ context.Context, userID, eventID string) (*models.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[regKey(userID, eventID)]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (m *memRegistrations) FindByID(_ context.Context, id string) (*models.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.ID == id {
			cp := *r
			return &cp, nil
		}
	}
	return nil, status.ErrNotFound
}

func (m *memRegistrations) ListByUser(_ context.Context, userID string) ([]*models.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Registration
	for _, r := range m.rows {
		if r.UserID == userID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memRegistrations) SetCredentialToken(_ context.Context, id, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tokenErr != nil {
		return m.tokenErr
	}
	for _, r := range m.rows {
		if r.ID == id {
			r.CredentialToken = token
			return nil
		}
	}
	return status.ErrNotFound
}

func (m *memRegistrations) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

type memEvents map[string]*models.Event

func (m memEvents) FindByID(_ context.Context, id string) (*models.Event, error) {
	e, ok := m[id]
	if !ok {
		return nil, status.ErrEventNotFound
	}
	cp := *e
	return &cp, nil
}

type memUsers map[string]*models.User

func (m memUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	u, ok := m[id]
	if !ok {
		return nil, errors.New("user not found")
	}
	cp := *u
	return &cp, nil
}

type recordingNotifier struct {
	mu         sync.Mutex
	deliveries []Delivery
	err        error
}

func (n *recordingNotifier) Name() string { return "recording" }

func (n *recordingNotifier) Dispatch(_ context.Context, d Delivery) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.deliveries = append(n.deliveries, d)
	return n.err
}

func (n *recordingNotifier) calls() []Delivery {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Delivery(nil), n.deliveries...)
}
