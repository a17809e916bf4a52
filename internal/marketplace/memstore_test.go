package marketplace

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sudo-init-do/favo/internal/domain"
)

// memStore is an in-memory implementation of every store interface.
type memStore struct {
	mu sync.Mutex

	nextID     int64
	users      map[int64]domain.User
	pedidos    map[int64]domain.Pedido
	offers     map[int64]domain.NotificacionServicio
	respuestas map[int64]domain.NotificacionRespuesta
	feed       map[int64]domain.NotificacionPedido
	ratings    map[[2]int64]domain.Rating
	servicios  map[int64]domain.Servicio
	categorias []domain.Categoria

	// beforeAccept runs inside AcceptPedido before the compare-and-swap.
	beforeAccept func(p *domain.Pedido)
	feedErr      error
}

func newMemStore() *memStore {
	return &memStore{
		users:      map[int64]domain.User{},
		pedidos:    map[int64]domain.Pedido{},
		offers:     map[int64]domain.NotificacionServicio{},
		respuestas: map[int64]domain.NotificacionRespuesta{},
		feed:       map[int64]domain.NotificacionPedido{},
		ratings:    map[[2]int64]domain.Rating{},
		servicios:  map[int64]domain.Servicio{},
		categorias: []domain.Categoria{{ID: 1, Nombre: "General"}, {ID: 2, Nombre: "Plomería"}},
	}
}

func (m *memStore) stores() Stores {
	return Stores{Pedidos: m, Offers: m, Respuestas: m, Feed: m, Ratings: m, Catalog: m, Users: m}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func notFound(kind string, id int64) error {
	return fmt.Errorf("%s %d: %w", kind, id, domain.ErrNotFound)
}

func (m *memStore) addUser(nombre string, proveedor bool) domain.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := domain.User{
		ID:          m.id(),
		Email:       strings.ToLower(nombre) + "@example.com",
		Nombre:      nombre,
		EsProveedor: proveedor,
		EsDemanda:   true,
		CreatedAt:   time.Now(),
	}
	m.users[u.ID] = u
	return u
}

func (m *memStore) GetUser(_ context.Context, id int64) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return domain.User{}, notFound("user", id)
	}
	return u, nil
}

// Pedidos

func (m *memStore) insertPedido(p domain.Pedido) domain.Pedido {
	p.ID = m.id()
	p.CreatedAt = time.Now()
	m.pedidos[p.ID] = p
	return p
}

func (m *memStore) CreatePedido(_ context.Context, p domain.Pedido) (domain.Pedido, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertPedido(p), nil
}

func (m *memStore) GetPedido(_ context.Context, id int64) (domain.Pedido, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pedidos[id]
	if !ok {
		return domain.Pedido{}, notFound("pedido", id)
	}
	return p, nil
}

func (m *memStore) ListPedidos(_ context.Context, f domain.PedidoFilter) ([]domain.Pedido, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Pedido{}
	for _, p := range m.pedidos {
		switch {
		case f.CategoriaID > 0 && p.CategoriaID != f.CategoriaID,
			f.Estado != "" && p.Estado != f.Estado,
			f.OwnerID > 0 && p.UserID != f.OwnerID,
			f.AcceptedBy > 0 && (p.AcceptedBy == nil || *p.AcceptedBy != f.AcceptedBy):
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memStore) AcceptPedido(_ context.Context, id, actor int64, at time.Time) (domain.Pedido, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pedidos[id]
	if !ok {
		return domain.Pedido{}, false, nil
	}
	if m.beforeAccept != nil {
		m.beforeAccept(&p)
		m.pedidos[id] = p
	}
	if p.Estado != domain.PedidoPending || p.UserID == actor {
		return domain.Pedido{}, false, nil
	}
	p.Estado = domain.PedidoInProgress
	p.AcceptedBy = &actor
	p.AcceptedAt = &at
	m.pedidos[id] = p
	return p, true, nil
}

func (m *memStore) CompletePedido(_ context.Context, id int64, from domain.PedidoStatus) (domain.Pedido, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.pedidos[id]
	if !ok || p.Estado != from {
		return domain.Pedido{}, false, nil
	}
	p.Estado = domain.PedidoCompleted
	m.pedidos[id] = p
	return p, true, nil
}

func (m *memStore) DeletePedido(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pedidos[id]; !ok {
		return notFound("pedido", id)
	}
	delete(m.pedidos, id)
	return nil
}

// Offers

func (m *memStore) CreateOffer(_ context.Context, n domain.NotificacionServicio) (domain.NotificacionServicio, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n.ID = m.id()
	n.CreatedAt = time.Now()
	m.offers[n.ID] = n
	return n, nil
}

func (m *memStore) GetOffer(_ context.Context, id int64) (domain.NotificacionServicio, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.offers[id]
	if !ok {
		return domain.NotificacionServicio{}, notFound("offer", id)
	}
	return n, nil
}

func (m *memStore) ListOffers(_ context.Context, target int64) ([]domain.NotificacionServicio, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.NotificacionServicio{}
	for _, n := range m.offers {
		if n.UserID == target {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memStore) DeleteOffer(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.offers[id]; !ok {
		return notFound("offer", id)
	}
	delete(m.offers, id)
	return nil
}

func (m *memStore) RejectOffer(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.takeOpenOffer(id)
}

// takeOpenOffer deletes offer id unless it was accepted. Callers hold mu.
func (m *memStore) takeOpenOffer(id int64) error {
	n, ok := m.offers[id]
	if !ok {
		return notFound("offer", id)
	}
	if n.AcceptedBy != nil {
		return fmt.Errorf("offer %d: %w", id, domain.ErrInvalidState)
	}
	delete(m.offers, id)
	return nil
}

func (m *memStore) AcceptOffer(_ context.Context, offerID, actor int64, p domain.Pedido, at time.Time) (domain.Pedido, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.offers[offerID]
	if !ok {
		return domain.Pedido{}, notFound("offer", offerID)
	}
	if n.AcceptedBy != nil {
		return domain.Pedido{}, fmt.Errorf("offer %d: %w", offerID, domain.ErrInvalidState)
	}
	n.AcceptedBy = &actor
	n.AcceptedAt = &at
	m.offers[offerID] = n
	return m.insertPedido(p), nil
}

func (m *memStore) insertRespuesta(r domain.NotificacionRespuesta) domain.NotificacionRespuesta {
	r.ID = m.id()
	r.CreatedAt = time.Now()
	m.respuestas[r.ID] = r
	return r
}

func (m *memStore) RespondToOffer(_ context.Context, offerID int64, r domain.NotificacionRespuesta) (domain.NotificacionRespuesta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeOpenOffer(offerID); err != nil {
		return domain.NotificacionRespuesta{}, err
	}
	return m.insertRespuesta(r), nil
}

// Respuestas

func (m *memStore) GetRespuesta(_ context.Context, id int64) (domain.NotificacionRespuesta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.respuestas[id]
	if !ok {
		return domain.NotificacionRespuesta{}, notFound("respuesta", id)
	}
	return r, nil
}

func (m *memStore) ListRespuestas(_ context.Context, destino int64) ([]domain.NotificacionRespuesta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.NotificacionRespuesta{}
	for _, r := range m.respuestas {
		if r.DestinoID == destino {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memStore) DeleteRespuesta(_ context.Context, id, destino int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.respuestas[id]
	if !ok || r.DestinoID != destino {
		return notFound("respuesta", id)
	}
	delete(m.respuestas, id)
	return nil
}

func (m *memStore) MarkRespuestaSeen(_ context.Context, id, destino int64) (domain.NotificacionRespuesta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.respuestas[id]
	if !ok || r.DestinoID != destino {
		return domain.NotificacionRespuesta{}, notFound("respuesta", id)
	}
	r.Visto = true
	m.respuestas[id] = r
	return r, nil
}

func (m *memStore) takeCounter(id, destino int64) error {
	r, ok := m.respuestas[id]
	if !ok || r.DestinoID != destino || r.Tipo != domain.RespuestaContraoferta {
		return notFound("counter-offer", id)
	}
	delete(m.respuestas, id)
	return nil
}

func (m *memStore) CounterRespuesta(_ context.Context, oldID int64, next domain.NotificacionRespuesta) (domain.NotificacionRespuesta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeCounter(oldID, next.OrigenID); err != nil {
		return domain.NotificacionRespuesta{}, err
	}
	return m.insertRespuesta(next), nil
}

func (m *memStore) AcceptCounterOffer(_ context.Context, id int64, p domain.Pedido, reply domain.NotificacionRespuesta) (domain.Pedido, domain.NotificacionRespuesta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeCounter(id, reply.OrigenID); err != nil {
		return domain.Pedido{}, domain.NotificacionRespuesta{}, err
	}
	created := m.insertPedido(p)
	reply.PedidoID = &created.ID
	return created, m.insertRespuesta(reply), nil
}

// Feed

func (m *memStore) CreatePedidoNotif(_ context.Context, n domain.NotificacionPedido) (domain.NotificacionPedido, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.feedErr != nil {
		return domain.NotificacionPedido{}, false, m.feedErr
	}
	if n.IdempotencyKey != nil {
		for _, existing := range m.feed {
			if existing.IdempotencyKey != nil && *existing.IdempotencyKey == *n.IdempotencyKey {
				return n, false, nil
			}
		}
	}
	n.ID = m.id()
	n.CreatedAt = time.Now()
	m.feed[n.ID] = n
	return n, true, nil
}

func (m *memStore) ListPedidoNotifs(_ context.Context, userID int64) ([]domain.NotificacionPedido, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.NotificacionPedido{}
	for _, n := range m.feed {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memStore) DeletePedidoNotif(_ context.Context, id, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.feed[id]
	if !ok || n.UserID != userID {
		return notFound("pedido notification", id)
	}
	delete(m.feed, id)
	return nil
}

// Ratings

func (m *memStore) UpsertRating(_ context.Context, r domain.Rating) (domain.Rating, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := [2]int64{r.RaterID, r.RatedID}
	now := time.Now()
	if existing, ok := m.ratings[key]; ok {
		existing.Score = r.Score
		existing.Comment = r.Comment
		existing.UpdatedAt = now
		m.ratings[key] = existing
		return existing, nil
	}
	r.ID = m.id()
	r.CreatedAt, r.UpdatedAt = now, now
	m.ratings[key] = r
	return r, nil
}

func (m *memStore) ListRatings(_ context.Context, rated int64) ([]domain.Rating, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Rating{}
	for _, r := range m.ratings {
		if r.RatedID == rated {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memStore) RatingSummary(_ context.Context, rated int64) (domain.RatingSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var s domain.RatingSummary
	total := 0
	for _, r := range m.ratings {
		if r.RatedID == rated {
			total += r.Score
			s.Cantidad++
		}
	}
	if s.Cantidad > 0 {
		s.Promedio = float64(total) / float64(s.Cantidad)
	}
	return s, nil
}

func (m *memStore) GetRating(_ context.Context, rater, rated int64) (domain.Rating, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.ratings[[2]int64{rater, rated}]
	if !ok {
		return domain.Rating{}, notFound("rating", rated)
	}
	return r, nil
}

func (m *memStore) FeaturedProfessionals(_ context.Context, limit int) ([]domain.Professional, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byUser := map[int64]*domain.Professional{}
	sums := map[int64]int{}
	for _, r := range m.ratings {
		u, ok := m.users[r.RatedID]
		if !ok || !u.EsProveedor {
			continue
		}
		p, ok := byUser[u.ID]
		if !ok {
			p = &domain.Professional{ID: u.ID, Nombre: u.Nombre}
			byUser[u.ID] = p
		}
		p.CantidadRatings++
		sums[u.ID] += r.Score
	}
	out := []domain.Professional{}
	for id, p := range byUser {
		p.Rating = float64(sums[id]) / float64(p.CantidadRatings)
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return out[i].CantidadRatings > out[j].CantidadRatings
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Catalog

func (m *memStore) CreateServicio(_ context.Context, s domain.Servicio) (domain.Servicio, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = m.id()
	s.CreatedAt = time.Now()
	m.servicios[s.ID] = s
	return s, nil
}

func (m *memStore) GetServicio(_ context.Context, id int64) (domain.Servicio, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.servicios[id]
	if !ok {
		return domain.Servicio{}, notFound("servicio", id)
	}
	return s, nil
}

func (m *memStore) ListServicios(_ context.Context, f domain.ServicioFilter) ([]domain.Servicio, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := strings.ToLower(f.Query)
	out := []domain.Servicio{}
	for _, s := range m.servicios {
		if q != "" && !strings.Contains(strings.ToLower(s.Titulo), q) && !strings.Contains(strings.ToLower(s.Descripcion), q) {
			continue
		}
		if (f.CategoriaID > 0 && s.CategoriaID != f.CategoriaID) || (f.UserID > 0 && s.UserID != f.UserID) || (f.OnlyActive && !s.Activo) {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memStore) ListCategorias(_ context.Context, withCounts bool) ([]domain.Categoria, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Categoria, 0, len(m.categorias))
	for _, c := range m.categorias {
		if withCounts {
			n := 0
			for _, p := range m.pedidos {
				if p.CategoriaID == c.ID {
					n++
				}
			}
			c.Count = &n
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *memStore) RecentRequests(_ context.Context, limit int) ([]domain.RecentRequest, error) {
	all, _ := m.ListServicios(context.Background(), domain.ServicioFilter{OnlyActive: true})
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.RecentRequest{}
	for _, s := range all {
		if len(out) == limit {
			break
		}
		out = append(out, domain.RecentRequest{
			ID:          s.ID,
			Name:        m.users[s.UserID].Nombre,
			Location:    "Sin ubicación",
			Title:       s.Titulo,
			Description: s.Descripcion,
			Status:      "Disponible",
		})
	}
	return out, nil
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) ofType(typ string) []domain.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []domain.Event
	for _, ev := range p.events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

var errBoom = errors.New("boom")
