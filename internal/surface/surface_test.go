package surface

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/containerd/errdefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bassista/go_fuel/internal/cache"
	"github.com/bassista/go_fuel/internal/crud"
	"github.com/bassista/go_fuel/internal/entity"
	"github.com/bassista/go_fuel/internal/feedback"
	"github.com/bassista/go_fuel/internal/gateway"
)

// MockGateway is a mock implementation of gateway.Gateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Mutate(ctx context.Context, cmd gateway.Command) gateway.Result {
	args := m.Called(ctx, cmd)
	return args.Get(0).(gateway.Result)
}

func (m *MockGateway) List(ctx context.Context, kind entity.Kind) (entity.Collection, error) {
	args := m.Called(ctx, kind)
	return args.Get(0).(entity.Collection), args.Error(1)
}

type harness struct {
	gw        *MockGateway
	store     *cache.Store
	toasts    *feedback.Toasts
	registry  *Registry
	customers *cache.Collection
}

func newHarness() *harness {
	h := &harness{
		gw:     &MockGateway{},
		store:  cache.NewStore(),
		toasts: feedback.NewToasts(time.Minute),
	}
	ctrl := crud.NewController(h.gw, h.toasts, nil)
	h.registry = NewRegistry(ctrl, h.store)
	h.customers = h.store.Mount(entity.KindCustomer, entity.Collection{{"id": "1", "name": "A"}})
	return h
}

func TestScenario_AddCustomer(t *testing.T) {
	h := newHarness()
	h.gw.On("Mutate", mock.Anything, gateway.Command{
		Kind:   entity.KindCustomer,
		Action: gateway.ActionCreate,
		Fields: entity.Draft{"name": "B", "phone": "050-1234567"},
	}).Return(gateway.Result{Success: true, ID: "2"}).Once()

	form := h.registry.OpenCreateForm(entity.KindCustomer)
	require.True(t, form.Set("name", "B"))
	require.True(t, form.Set("phone", "050-1234567"))

	out := form.Submit(context.Background())

	assert.True(t, out.Success)
	assert.Equal(t, entity.Collection{
		{"id": "1", "name": "A"},
		{"id": "2", "name": "B", "phone": "050-1234567"},
	}, h.customers.Snapshot())
	assert.False(t, form.Open())
	assert.Empty(t, form.Draft())
	_, ok := h.registry.Form(form.ID())
	assert.False(t, ok, "closed forms are forgotten")

	toasts := h.toasts.Active()
	require.Len(t, toasts, 1)
	assert.Equal(t, feedback.LevelSuccess, toasts[0].Level)
	h.gw.AssertExpectations(t)
}

func TestScenario_FailedUpdate(t *testing.T) {
	h := newHarness()
	h.gw.On("Mutate", mock.Anything, gateway.Command{
		Kind:   entity.KindCustomer,
		Action: gateway.ActionUpdate,
		ID:     "1",
		Fields: entity.Draft{"name": "A2"},
	}).Return(gateway.Result{Message: "duplicate", Cause: errdefs.ErrFailedPrecondition}).Once()

	rec, _ := entity.Find(h.customers.Snapshot(), "1")
	form := h.registry.OpenEditForm(entity.KindCustomer, rec)
	assert.Equal(t, entity.Draft{"name": "A"}, form.Draft())
	form.Set("name", "A2")

	out := form.Submit(context.Background())

	assert.False(t, out.Success)
	assert.Equal(t, entity.Collection{{"id": "1", "name": "A"}}, h.customers.Snapshot())
	assert.True(t, form.Open())
	assert.Equal(t, entity.Draft{"name": "A2"}, form.Draft(), "user input is kept")

	toasts := h.toasts.Active()
	require.Len(t, toasts, 1)
	assert.Equal(t, feedback.LevelError, toasts[0].Level)
	assert.Equal(t, "duplicate", toasts[0].Message)
}

func TestScenario_DeleteCancel(t *testing.T) {
	h := newHarness()

	rec, _ := entity.Find(h.customers.Snapshot(), "1")
	conf := h.registry.OpenDeleteConfirmation(entity.KindCustomer, rec)
	assert.Equal(t, "A", conf.Label())
	assert.Equal(t, "Delete A? This cannot be undone.", conf.View().Prompt)

	conf.Cancel()

	h.gw.AssertNotCalled(t, "Mutate", mock.Anything, mock.Anything)
	assert.Equal(t, entity.Collection{{"id": "1", "name": "A"}}, h.customers.Snapshot())
	assert.False(t, conf.Open())
	assert.Zero(t, h.registry.Len())
	assert.Empty(t, h.toasts.Active())

	assert.Equal(t, crud.Outcome{}, conf.Confirm(context.Background()), "a cancelled confirmation cannot fire")
	h.gw.AssertNotCalled(t, "Mutate", mock.Anything, mock.Anything)
}

func TestDeleteConfirmation_ConfirmRemoves(t *testing.T) {
	h := newHarness()
	h.gw.On("Mutate", mock.Anything, gateway.Command{
		Kind: entity.KindCustomer, Action: gateway.ActionDelete, ID: "1", Fields: entity.Draft{},
	}).Return(gateway.Result{Success: true}).Once()

	rec, _ := entity.Find(h.customers.Snapshot(), "1")
	conf := h.registry.OpenDeleteConfirmation(entity.KindCustomer, rec)

	out := conf.Confirm(context.Background())

	assert.True(t, out.Success)
	assert.Empty(t, h.customers.Snapshot())
	assert.False(t, conf.Open())
	h.gw.AssertExpectations(t)
}

func TestDeleteConfirmation_FailureStaysOpen(t *testing.T) {
	h := newHarness()
	h.gw.On("Mutate", mock.Anything, mock.Anything).
		Return(gateway.Result{Message: gateway.TransportFailureMessage, Cause: errdefs.ErrUnavailable}).Once()

	rec, _ := entity.Find(h.customers.Snapshot(), "1")
	conf := h.registry.OpenDeleteConfirmation(entity.KindCustomer, rec)

	out := conf.Confirm(context.Background())

	assert.False(t, out.Success)
	assert.True(t, conf.Open())
	assert.Equal(t, []string{"1"}, h.customers.Snapshot().IDs())
	_, ok := h.registry.Confirmation(conf.ID())
	assert.True(t, ok)
}

func TestFormModal_DoubleSubmitWhilePending(t *testing.T) {
	h := newHarness()
	release := make(chan struct{})
	h.gw.On("Mutate", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { <-release }).
		Return(gateway.Result{Success: true, ID: "2"}).Once()

	form := h.registry.OpenCreateForm(entity.KindCustomer)
	form.Set("name", "B")

	done := make(chan crud.Outcome)
	go func() { done <- form.Submit(context.Background()) }()
	require.Eventually(t, form.Pending, time.Second, time.Millisecond)

	second := form.Submit(context.Background())
	assert.False(t, second.Accepted)
	assert.True(t, form.View().Pending)

	close(release)
	assert.True(t, (<-done).Success)
	h.gw.AssertNumberOfCalls(t, "Mutate", 1)
	assert.Equal(t, []string{"1", "2"}, h.customers.Snapshot().IDs())
}

func TestFormModal_CloseWhilePendingStillApplies(t *testing.T) {
	h := newHarness()
	release := make(chan struct{})
	h.gw.On("Mutate", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { <-release }).
		Return(gateway.Result{Success: true, ID: "2"}).Once()

	form := h.registry.OpenCreateForm(entity.KindCustomer)
	form.Set("name", "B")

	done := make(chan crud.Outcome)
	go func() { done <- form.Submit(context.Background()) }()
	require.Eventually(t, form.Pending, time.Second, time.Millisecond)

	form.Close()
	assert.False(t, form.Set("name", "ignored"))

	close(release)
	<-done
	assert.Equal(t, []string{"1", "2"}, h.customers.Snapshot().IDs())
}

func TestFormModal_UnmountWhilePendingDiscardsResult(t *testing.T) {
	h := newHarness()
	release := make(chan struct{})
	h.gw.On("Mutate", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { <-release }).
		Return(gateway.Result{Success: true, ID: "2"}).Once()

	form := h.registry.OpenCreateForm(entity.KindCustomer)
	form.Set("name", "B")

	done := make(chan crud.Outcome)
	go func() { done <- form.Submit(context.Background()) }()
	require.Eventually(t, form.Pending, time.Second, time.Millisecond)

	h.store.Unmount(entity.KindCustomer)
	close(release)

	out := <-done
	assert.True(t, out.Success)
	assert.False(t, h.customers.Alive())
	assert.Equal(t, feedback.LevelSuccess, h.toasts.Active()[0].Level)
}

func TestFormModal_EditsWhilePendingDoNotReachRequest(t *testing.T) {
	h := newHarness()
	release := make(chan struct{})
	h.gw.On("Mutate", mock.Anything, mock.MatchedBy(func(cmd gateway.Command) bool {
		return cmd.Fields["name"] == "B"
	})).Run(func(mock.Arguments) { <-release }).
		Return(gateway.Result{Message: "duplicate"}).Once()

	form := h.registry.OpenCreateForm(entity.KindCustomer)
	form.Set("name", "B")

	done := make(chan crud.Outcome)
	go func() { done <- form.Submit(context.Background()) }()
	require.Eventually(t, form.Pending, time.Second, time.Millisecond)

	form.Set("name", "B2")
	close(release)
	<-done

	assert.Equal(t, entity.Draft{"name": "B2"}, form.Draft())
	h.gw.AssertExpectations(t)
}

func TestFormModal_IDIsNotEditable(t *testing.T) {
	h := newHarness()
	form := h.registry.OpenCreateForm(entity.KindCustomer)
	assert.False(t, form.Set("id", "99"))
	assert.False(t, form.Editing())
	assert.Empty(t, form.Draft())
}

func TestRegistry_CancelDuringUnrelatedMutation(t *testing.T) {
	h := newHarness()
	release := make(chan struct{})
	h.gw.On("Mutate", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { <-release }).
		Return(gateway.Result{Success: true, ID: "2"}).Once()

	form := h.registry.OpenCreateForm(entity.KindCustomer)
	form.Set("name", "B")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		form.Submit(context.Background())
	}()
	require.Eventually(t, form.Pending, time.Second, time.Millisecond)

	rec, _ := entity.Find(h.customers.Snapshot(), "1")
	conf := h.registry.OpenDeleteConfirmation(entity.KindCustomer, rec)
	conf.Cancel()
	assert.False(t, conf.Open())

	close(release)
	wg.Wait()
	h.gw.AssertNumberOfCalls(t, "Mutate", 1)
}

func TestRegistry_CloseAll(t *testing.T) {
	h := newHarness()
	rec, _ := entity.Find(h.customers.Snapshot(), "1")
	f := h.registry.OpenEditForm(entity.KindCustomer, rec)
	d := h.registry.OpenDeleteConfirmation(entity.KindCustomer, rec)
	assert.Equal(t, 2, h.registry.Len())

	h.registry.CloseAll()

	assert.False(t, f.Open())
	assert.False(t, d.Open())
	assert.Zero(t, h.registry.Len())
}
