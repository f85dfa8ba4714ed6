package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetrent/fleetrent-backend/internal/domain"
	"github.com/fleetrent/fleetrent-backend/internal/repo"
)

// ---------- Fakes ----------

// memStore is an in-memory persistence gateway implementing the vehicle,
// user and rental repositories. Ids are derived from a per-collection
// counter; Reserve honors the conditional-hold contract.
type memStore struct {
	nextVehicleID int64
	nextUserID    int64
	nextRentalID  int64

	vehicles map[int64]*domain.Vehicle
	users    map[int64]*domain.User
	rentals  []*domain.Rental
}

func newMemStore() *memStore {
	return &memStore{
		nextVehicleID: 1,
		nextUserID:    1,
		nextRentalID:  1,
		vehicles:      make(map[int64]*domain.Vehicle),
		users:         make(map[int64]*domain.User),
	}
}

func (m *memStore) addVehicle(plate string, rate float64) *domain.Vehicle {
	v := &domain.Vehicle{
		ID: m.nextVehicleID, Plate: plate, Make: "Seat", Model: "Ibiza",
		Category: "compact", Year: 2020, DailyRate: rate, Horsepower: 95,
		Seats: 5, Available: true,
	}
	m.nextVehicleID++
	m.vehicles[v.ID] = v
	return v
}

func (m *memStore) addUser(email, role string) *domain.User {
	u := &domain.User{ID: m.nextUserID, Email: email, Role: role, Name: "Test User"}
	m.nextUserID++
	m.users[u.ID] = u
	return u
}

// VehicleRepository

func (m *memStore) Create(_ context.Context, v *domain.Vehicle) (*domain.Vehicle, error) {
	created := *v
	created.ID = m.nextVehicleID
	created.Available = true
	m.nextVehicleID++
	m.vehicles[created.ID] = &created
	return &created, nil
}

func (m *memStore) GetByID(_ context.Context, id int64) (*domain.Vehicle, error) {
	return m.vehicles[id], nil
}

func (m *memStore) GetByPlate(_ context.Context, plate string) (*domain.Vehicle, error) {
	for _, v := range m.vehicles {
		if v.Plate == plate {
			return v, nil
		}
	}
	return nil, nil
}

func (m *memStore) List(_ context.Context, filter domain.VehicleFilter, _, _ int) ([]domain.Vehicle, error) {
	var out []domain.Vehicle
	for _, v := range m.vehicles {
		if filter.AvailableOnly && !v.Available {
			continue
		}
		out = append(out, *v)
	}
	return out, nil
}

func (m *memStore) Update(_ context.Context, id int64, patch *domain.UpdateVehicleRequest) (*domain.Vehicle, error) {
	v, ok := m.vehicles[id]
	if !ok {
		return nil, nil
	}
	if patch.Plate != nil {
		v.Plate = *patch.Plate
	}
	if patch.DailyRate != nil {
		v.DailyRate = *patch.DailyRate
	}
	return v, nil
}

func (m *memStore) Delete(_ context.Context, id int64) (bool, error) {
	for _, r := range m.rentals {
		if r.VehicleID == id && r.Active {
			return false, nil
		}
	}
	if _, ok := m.vehicles[id]; !ok {
		return false, nil
	}
	delete(m.vehicles, id)
	return true, nil
}

// UserRepository

func (m *memStore) CreateUser(_ context.Context, req *domain.CreateUserRequest, hash string) (*domain.User, error) {
	u := &domain.User{ID: m.nextUserID, Email: req.Email, Role: req.Role, Name: req.Name, PasswordHash: hash}
	m.nextUserID++
	m.users[u.ID] = u
	return u, nil
}

func (m *memStore) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (m *memStore) FindByID(_ context.Context, id int64) (*domain.User, error) {
	return m.users[id], nil
}

func (m *memStore) UpdatePassword(_ context.Context, id int64, hash string) error {
	if u, ok := m.users[id]; ok {
		u.PasswordHash = hash
	}
	return nil
}

func (m *memStore) DeleteUser(_ context.Context, id int64) (bool, error) {
	if _, ok := m.users[id]; !ok {
		return false, nil
	}
	delete(m.users, id)
	return true, nil
}

func (m *memStore) ListUsers(_ context.Context, _, _ int) ([]domain.User, error) {
	var out []domain.User
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

// RentalRepository

func (m *memStore) Reserve(_ context.Context, r *domain.Rental) (*domain.Rental, error) {
	v, ok := m.vehicles[r.VehicleID]
	if !ok || !v.Available {
		return nil, repo.ErrVehicleUnavailable
	}
	v.Available = false

	created := *r
	created.ID = m.nextRentalID
	created.ManageToken = fmt.Sprintf("tok-%d", created.ID)
	m.nextRentalID++
	m.rentals = append(m.rentals, &created)
	return &created, nil
}

func (m *memStore) Complete(_ context.Context, id int64) (bool, error) {
	for _, r := range m.rentals {
		if r.ID == id && r.Active {
			r.Active = false
			if v, ok := m.vehicles[r.VehicleID]; ok {
				v.Available = true
			}
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) GetRentalByID(_ context.Context, id int64) (*domain.Rental, error) {
	for _, r := range m.rentals {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, nil
}

func (m *memStore) GetByToken(_ context.Context, token string) (*domain.Rental, error) {
	for _, r := range m.rentals {
		if r.ManageToken == token {
			return r, nil
		}
	}
	return nil, nil
}

func (m *memStore) ListByUser(_ context.Context, userID int64, _, _ int) ([]domain.Rental, error) {
	var out []domain.Rental
	for _, r := range m.rentals {
		if r.UserID != nil && *r.UserID == userID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memStore) ListRentals(_ context.Context, _, _ int) ([]domain.Rental, error) {
	var out []domain.Rental
	for _, r := range m.rentals {
		out = append(out, *r)
	}
	return out, nil
}

// Adapters so one memStore can stand in for all three repositories without
// method-name collisions.

type userRepoAdapter struct{ *memStore }

func (a userRepoAdapter) Create(ctx context.Context, req *domain.CreateUserRequest, hash string) (*domain.User, error) {
	return a.CreateUser(ctx, req, hash)
}
func (a userRepoAdapter) Delete(ctx context.Context, id int64) (bool, error) {
	return a.DeleteUser(ctx, id)
}
func (a userRepoAdapter) List(ctx context.Context, limit, offset int) ([]domain.User, error) {
	return a.ListUsers(ctx, limit, offset)
}

type rentalRepoAdapter struct{ *memStore }

func (a rentalRepoAdapter) GetByID(ctx context.Context, id int64) (*domain.Rental, error) {
	return a.GetRentalByID(ctx, id)
}
func (a rentalRepoAdapter) List(ctx context.Context, limit, offset int) ([]domain.Rental, error) {
	return a.ListRentals(ctx, limit, offset)
}

type fakeBus struct {
	published []string
}

func (f *fakeBus) Publish(_ context.Context, subject string, _ interface{}) error {
	f.published = append(f.published, subject)
	return nil
}

func (f *fakeBus) Close() error { return nil }

type fakeMailer struct {
	sentTo  []string
	sendErr error
}

func (f *fakeMailer) SendInvoice(toEmail, _ string, _ *domain.RentalSummary, _ string) error {
	f.sentTo = append(f.sentTo, toEmail)
	return f.sendErr
}

func newRentalService(store *memStore) (RentalService, *fakeBus, *fakeMailer) {
	bus := &fakeBus{}
	mail := &fakeMailer{}
	svc := NewRentalService(rentalRepoAdapter{store}, store, userRepoAdapter{store}, bus, mail)
	return svc, bus, mail
}

// ---------- Reserve ----------

func TestReserveGuest(t *testing.T) {
	store := newMemStore()
	v := store.addVehicle("AB-123-CD", 100)
	svc, bus, mail := newRentalService(store)

	summary, err := svc.Reserve(context.Background(), &domain.ReserveRequest{
		Plate: "AB-123-CD", StartDate: "2024-01-01", EndDate: "2024-01-04",
	})
	require.NoError(t, err)

	assert.Equal(t, 300.0, summary.TotalCost)
	assert.Equal(t, 3, summary.Days)
	assert.Equal(t, domain.GuestUserRef, summary.UserRef)
	assert.NotEmpty(t, summary.ManageToken)

	assert.False(t, v.Available, "vehicle must be held after reservation")
	require.Len(t, store.rentals, 1)
	assert.True(t, store.rentals[0].Active)
	assert.Equal(t, v.ID, store.rentals[0].VehicleID)
	assert.Nil(t, store.rentals[0].UserID)

	assert.Contains(t, bus.published, "rental.created")
	assert.Empty(t, mail.sentTo, "guests have no address to invoice")
}

func TestReserveUnavailableVehicle(t *testing.T) {
	store := newMemStore()
	store.addVehicle("AB-123-CD", 100)
	svc, _, _ := newRentalService(store)

	req := &domain.ReserveRequest{Plate: "AB-123-CD", StartDate: "2024-01-01", EndDate: "2024-01-04"}
	_, err := svc.Reserve(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Reserve(context.Background(), &domain.ReserveRequest{
		Plate: "AB-123-CD", StartDate: "2024-02-01", EndDate: "2024-02-04",
	})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Len(t, store.rentals, 1, "failed reservation must not write")
}

func TestReserveRegisteredClientDiscount(t *testing.T) {
	store := newMemStore()
	store.addVehicle("AB-123-CD", 100)
	user := store.addUser("a@b.com", domain.RoleClient)
	svc, _, mail := newRentalService(store)

	summary, err := svc.Reserve(context.Background(), &domain.ReserveRequest{
		Plate: "AB-123-CD", StartDate: "2024-01-01", EndDate: "2024-01-04", UserEmail: "a@b.com",
	})
	require.NoError(t, err)

	assert.InDelta(t, 282.0, summary.TotalCost, 1e-9)
	assert.Equal(t, "1", summary.UserRef)
	assert.Empty(t, summary.ManageToken, "registered clients manage rentals via their account")

	require.Len(t, store.rentals, 1)
	require.NotNil(t, store.rentals[0].UserID)
	assert.Equal(t, user.ID, *store.rentals[0].UserID)

	assert.Equal(t, []string{"a@b.com"}, mail.sentTo)
}

func TestReserveIsNotIdempotent(t *testing.T) {
	store := newMemStore()
	store.addVehicle("AB-123-CD", 100)
	svc, _, _ := newRentalService(store)

	req := &domain.ReserveRequest{Plate: "AB-123-CD", StartDate: "2024-01-01", EndDate: "2024-01-04"}
	first, err := svc.Reserve(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Complete(context.Background(), first.RentalID)
	require.NoError(t, err)

	second, err := svc.Reserve(context.Background(), req)
	require.NoError(t, err)
	assert.NotEqual(t, first.RentalID, second.RentalID)
}

func TestReserveInvertedRange(t *testing.T) {
	store := newMemStore()
	v := store.addVehicle("AB-123-CD", 100)
	svc, _, _ := newRentalService(store)

	_, err := svc.Reserve(context.Background(), &domain.ReserveRequest{
		Plate: "AB-123-CD", StartDate: "2024-01-05", EndDate: "2024-01-01",
	})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))

	assert.True(t, v.Available, "no state change on rejected reservation")
	assert.Empty(t, store.rentals)
}

func TestReserveValidationOrderAndErrors(t *testing.T) {
	store := newMemStore()
	store.addVehicle("AB-123-CD", 100)
	svc, _, _ := newRentalService(store)
	ctx := context.Background()

	// Unknown plate wins over every later check.
	_, err := svc.Reserve(ctx, &domain.ReserveRequest{
		Plate: "NO-SUCH-1", StartDate: "bad", EndDate: "worse", UserEmail: "not-an-email",
	})
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))

	// Bad email beats bad dates.
	_, err = svc.Reserve(ctx, &domain.ReserveRequest{
		Plate: "AB-123-CD", StartDate: "bad", EndDate: "worse", UserEmail: "not-an-email",
	})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Contains(t, err.Error(), "email")

	// Bad date format.
	_, err = svc.Reserve(ctx, &domain.ReserveRequest{
		Plate: "AB-123-CD", StartDate: "01/02/2024", EndDate: "2024-01-04",
	})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Contains(t, err.Error(), "YYYY-MM-DD")

	// Well-formed but unknown user.
	_, err = svc.Reserve(ctx, &domain.ReserveRequest{
		Plate: "AB-123-CD", StartDate: "2024-01-01", EndDate: "2024-01-04", UserEmail: "ghost@b.com",
	})
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
}

// ---------- Complete ----------

func TestCompleteReleasesVehicleOnce(t *testing.T) {
	store := newMemStore()
	v := store.addVehicle("AB-123-CD", 100)
	svc, bus, _ := newRentalService(store)

	summary, err := svc.Reserve(context.Background(), &domain.ReserveRequest{
		Plate: "AB-123-CD", StartDate: "2024-01-01", EndDate: "2024-01-04",
	})
	require.NoError(t, err)

	ok, err := svc.Complete(context.Background(), summary.RentalID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, v.Available)
	assert.False(t, store.rentals[0].Active)
	assert.Contains(t, bus.published, "rental.completed")

	// The transition is one-way; a second completion is rejected.
	_, err = svc.Complete(context.Background(), summary.RentalID)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Contains(t, err.Error(), "already completed")
}

func TestCompleteUnknownRental(t *testing.T) {
	store := newMemStore()
	v := store.addVehicle("AB-123-CD", 100)
	svc, _, _ := newRentalService(store)

	_, err := svc.Complete(context.Background(), 999)
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
	assert.True(t, v.Available, "no vehicle state change for unknown rental")
}

func TestCompleteByToken(t *testing.T) {
	store := newMemStore()
	store.addVehicle("AB-123-CD", 100)
	svc, _, _ := newRentalService(store)

	summary, err := svc.Reserve(context.Background(), &domain.ReserveRequest{
		Plate: "AB-123-CD", StartDate: "2024-01-01", EndDate: "2024-01-04",
	})
	require.NoError(t, err)

	ok, err := svc.CompleteByToken(context.Background(), summary.ManageToken)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = svc.CompleteByToken(context.Background(), "no-such-token")
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
}

// ---------- History ----------

func TestHistoryPreservesInsertionOrder(t *testing.T) {
	store := newMemStore()
	store.addVehicle("AA-111-AA", 50)
	store.addVehicle("BB-222-BB", 70)
	user := store.addUser("a@b.com", domain.RoleClient)
	svc, _, _ := newRentalService(store)
	ctx := context.Background()

	first, err := svc.Reserve(ctx, &domain.ReserveRequest{
		Plate: "AA-111-AA", StartDate: "2024-01-01", EndDate: "2024-01-02", UserEmail: "a@b.com",
	})
	require.NoError(t, err)
	second, err := svc.Reserve(ctx, &domain.ReserveRequest{
		Plate: "BB-222-BB", StartDate: "2024-01-03", EndDate: "2024-01-05", UserEmail: "a@b.com",
	})
	require.NoError(t, err)

	history, err := svc.History(ctx, user.ID, 20, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, first.RentalID, history[0].ID)
	assert.Equal(t, second.RentalID, history[1].ID)
}

func TestHistoryEmptyIsNotAnError(t *testing.T) {
	store := newMemStore()
	user := store.addUser("a@b.com", domain.RoleClient)
	svc, _, _ := newRentalService(store)

	history, err := svc.History(context.Background(), user.ID, 20, 0)
	require.NoError(t, err)
	assert.NotNil(t, history)
	assert.Empty(t, history)
}

func TestHistoryUnknownUser(t *testing.T) {
	store := newMemStore()
	svc, _, _ := newRentalService(store)

	_, err := svc.History(context.Background(), 42, 20, 0)
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
}

// ---------- Quote ----------

func TestQuoteDoesNotBook(t *testing.T) {
	store := newMemStore()
	v := store.addVehicle("AB-123-CD", 100)
	store.addUser("a@b.com", domain.RoleClient)
	svc, _, _ := newRentalService(store)

	price, err := svc.Quote(context.Background(), &domain.ReserveRequest{
		Plate: "AB-123-CD", StartDate: "2024-01-01", EndDate: "2024-01-04", UserEmail: "a@b.com",
	})
	require.NoError(t, err)
	assert.InDelta(t, 282.0, price, 1e-9)

	assert.True(t, v.Available)
	assert.Empty(t, store.rentals)
}

func TestInvoiceFailureDoesNotUndoReservation(t *testing.T) {
	store := newMemStore()
	v := store.addVehicle("AB-123-CD", 100)
	store.addUser("a@b.com", domain.RoleClient)
	bus := &fakeBus{}
	mail := &fakeMailer{sendErr: fmt.Errorf("smtp down")}
	svc := NewRentalService(rentalRepoAdapter{store}, store, userRepoAdapter{store}, bus, mail)

	summary, err := svc.Reserve(context.Background(), &domain.ReserveRequest{
		Plate: "AB-123-CD", StartDate: "2024-01-01", EndDate: "2024-01-04", UserEmail: "a@b.com",
	})
	require.NoError(t, err, "mail failure is reported separately, not as a reservation failure")
	assert.NotNil(t, summary)
	assert.False(t, v.Available)
	assert.Len(t, store.rentals, 1)
}
