package marketplace

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sudo-init-do/favo/internal/domain"
)

type fixture struct {
	store  *memStore
	events *recordingPublisher
	svc    *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newMemStore()
	events := &recordingPublisher{}
	return &fixture{store: store, events: events, svc: NewService(store.stores(), events, zap.NewNop())}
}

func ptr[T any](v T) *T { return &v }

func (f *fixture) pedido(t *testing.T, owner int64) domain.Pedido {
	t.Helper()
	p, err := f.svc.CreatePedido(context.Background(), owner, CreatePedidoRequest{
		Titulo:      "Fix sink",
		Precio:      ptr(100.0),
		CategoriaID: 1,
	})
	require.NoError(t, err)
	return p
}

func TestCreatePedido(t *testing.T) {
	f := newFixture(t)
	a := f.store.addUser("Ana", false)

	p, err := f.svc.CreatePedido(context.Background(), a.ID, CreatePedidoRequest{Titulo: "  Pintar pared "})
	require.NoError(t, err)
	assert.Equal(t, "Pintar pared", p.Titulo)
	assert.Equal(t, domain.PedidoPending, p.Estado)
	assert.Equal(t, domain.DefaultCategoryID, p.CategoriaID)
	assert.Nil(t, p.AcceptedBy)
	assert.Equal(t, a.ID, p.UserID)
}

func TestCreatePedidoValidation(t *testing.T) {
	f := newFixture(t)
	a := f.store.addUser("Ana", false)

	_, err := f.svc.CreatePedido(context.Background(), a.ID, CreatePedidoRequest{Titulo: "   "})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "titulo", verr.Field)

	_, err = f.svc.CreatePedido(context.Background(), a.ID, CreatePedidoRequest{Titulo: "x", Precio: ptr(-1.0)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAcceptPedidoByCreatorForbidden(t *testing.T) {
	f := newFixture(t)
	a := f.store.addUser("Ana", false)
	p := f.pedido(t, a.ID)

	_, err := f.svc.AcceptPedido(context.Background(), p.ID, a.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestAcceptPedidoNotPending(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.store.addUser("Ana", false)
	b := f.store.addUser("Beto", true)
	c := f.store.addUser("Caro", true)
	p := f.pedido(t, a.ID)

	_, err := f.svc.AcceptPedido(ctx, p.ID, b.ID)
	require.NoError(t, err)

	_, err = f.svc.AcceptPedido(ctx, p.ID, c.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState, "in_progress")

	_, err = f.svc.CompletePedido(ctx, p.ID, a.ID)
	require.NoError(t, err)
	_, err = f.svc.AcceptPedido(ctx, p.ID, c.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState, "completed")
}

func TestAcceptPedidoNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.AcceptPedido(context.Background(), 999, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAcceptPedidoLostRace(t *testing.T) {
	f := newFixture(t)
	a := f.store.addUser("Ana", false)
	b := f.store.addUser("Beto", true)
	c := f.store.addUser("Caro", true)
	p := f.pedido(t, a.ID)

	// Another provider wins between the read and the conditional update.
	f.store.beforeAccept = func(p *domain.Pedido) {
		p.Estado = domain.PedidoInProgress
		p.AcceptedBy = &c.ID
	}
	_, err := f.svc.AcceptPedido(context.Background(), p.ID, b.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	got, err := f.svc.GetPedido(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, *got.AcceptedBy)
	assert.Empty(t, f.events.ofType(domain.EventPedidoAccepted))
}

func TestAcceptPedidoNotifiesOwnerOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.store.addUser("Ana", false)
	b := f.store.addUser("Beto", true)
	p := f.pedido(t, a.ID)

	// A stale entry from an earlier delivery attempt keeps the feed at one row.
	key := "pedido:" + itoa(p.ID) + ":accepted"
	_, _, err := f.store.CreatePedidoNotif(ctx, domain.NotificacionPedido{PedidoID: p.ID, UserID: a.ID, IdempotencyKey: &key})
	require.NoError(t, err)

	_, err = f.svc.AcceptPedido(ctx, p.ID, b.ID)
	require.NoError(t, err)

	feed, err := f.svc.ListPedidoNotifs(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, feed, 1)
}

func TestAcceptPedidoSurvivesNotificationFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.store.addUser("Ana", false)
	b := f.store.addUser("Beto", true)
	p := f.pedido(t, a.ID)
	f.store.feedErr = errBoom
	f.events.err = errBoom

	got, err := f.svc.AcceptPedido(ctx, p.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PedidoInProgress, got.Estado)
}

func TestCompletePedido(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.store.addUser("Ana", false)
	b := f.store.addUser("Beto", true)
	x := f.store.addUser("Xavi", false)
	p := f.pedido(t, a.ID)
	_, err := f.svc.AcceptPedido(ctx, p.ID, b.ID)
	require.NoError(t, err)

	_, err = f.svc.CompletePedido(ctx, p.ID, x.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	done, err := f.svc.CompletePedido(ctx, p.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PedidoCompleted, done.Estado)

	again, err := f.svc.CompletePedido(ctx, p.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, done, again)

	evs := f.events.ofType(domain.EventPedidoCompleted)
	require.Len(t, evs, 1)
	assert.Equal(t, a.ID, evs[0].RecipientID)
}

func TestCompletePendingPedidoByOwner(t *testing.T) {
	f := newFixture(t)
	a := f.store.addUser("Ana", false)
	p := f.pedido(t, a.ID)

	done, err := f.svc.CompletePedido(context.Background(), p.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PedidoCompleted, done.Estado)
	assert.Empty(t, f.events.ofType(domain.EventPedidoCompleted), "no counterparty to tell")
}

func TestDeletePedido(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.store.addUser("Ana", false)
	b := f.store.addUser("Beto", true)
	p := f.pedido(t, a.ID)
	_, err := f.svc.AcceptPedido(ctx, p.ID, b.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.DeletePedido(ctx, p.ID, b.ID), domain.ErrForbidden)
	require.NoError(t, f.svc.DeletePedido(ctx, p.ID, a.ID))

	_, err = f.svc.GetPedido(ctx, p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	evs := f.events.ofType(domain.EventPedidoDeleted)
	require.Len(t, evs, 1)
	assert.Equal(t, b.ID, evs[0].RecipientID)
	assert.ErrorIs(t, f.svc.DeletePedido(ctx, p.ID, a.ID), domain.ErrNotFound)
}

func TestListPedidos(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.store.addUser("Ana", false)
	b := f.store.addUser("Beto", true)
	open := f.pedido(t, a.ID)
	taken := f.pedido(t, a.ID)
	_, err := f.svc.AcceptPedido(ctx, taken.ID, b.ID)
	require.NoError(t, err)

	list, err := f.svc.ListPedidos(ctx, domain.PedidoFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, open.ID, list[0].ID)

	list, err = f.svc.ListPedidos(ctx, domain.PedidoFilter{Estado: domain.PedidoInProgress})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, taken.ID, list[0].ID)

	_, err = f.svc.ListPedidos(ctx, domain.PedidoFilter{Estado: "lost"})
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestListMyPedidos(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.store.addUser("Ana", false)
	b := f.store.addUser("Beto", true)
	p := f.pedido(t, a.ID)
	f.pedido(t, a.ID)
	_, err := f.svc.AcceptPedido(ctx, p.ID, b.ID)
	require.NoError(t, err)

	mine, err := f.svc.ListMyPedidos(ctx, a.ID, "", "")
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	accepted, err := f.svc.ListMyPedidos(ctx, b.ID, "accepted", "")
	require.NoError(t, err)
	require.Len(t, accepted, 1)
	assert.Equal(t, p.ID, accepted[0].ID)

	_, err = f.svc.ListMyPedidos(ctx, a.ID, "everyone", "")
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
}

// Fix sink: A posts, B accepts, A completes twice.
func TestPedidoLifecycleScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.store.addUser("Ana", false)
	b := f.store.addUser("Beto", true)

	p := f.pedido(t, a.ID)
	assert.Equal(t, domain.PedidoPending, p.Estado)

	accepted, err := f.svc.AcceptPedido(ctx, p.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PedidoInProgress, accepted.Estado)
	require.NotNil(t, accepted.AcceptedBy)
	assert.Equal(t, b.ID, *accepted.AcceptedBy)

	feed, err := f.svc.ListPedidoNotifs(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, p.ID, feed[0].PedidoID)
	assert.Equal(t, b.ID, *feed[0].AcceptedBy)

	evs := f.events.ofType(domain.EventPedidoAccepted)
	require.Len(t, evs, 1)
	assert.Equal(t, a.ID, evs[0].RecipientID)
	assert.Equal(t, b.ID, evs[0].ActorID)

	done, err := f.svc.CompletePedido(ctx, p.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PedidoCompleted, done.Estado)

	again, err := f.svc.CompletePedido(ctx, p.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, done, again)
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
