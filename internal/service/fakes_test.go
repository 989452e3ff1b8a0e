package service

import (
	"context"
	"fmt"
	"maps"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/creatorhub/ticketflow/internal/domain"
	"github.com/creatorhub/ticketflow/internal/events"
	"github.com/creatorhub/ticketflow/internal/repository"
)

// fakeStore satisfies repository.TxRunner without a database. The fake
// repositories ignore the executor, so passing nil through is fine.
type fakeStore struct{}

func (fakeStore) DB() repository.DB { return nil }

func (fakeStore) WithinTx(ctx context.Context, fn func(db repository.DB) error) error {
	return fn(nil)
}

func cloneTicket(ticket *domain.Ticket) *domain.Ticket {
	out := *ticket
	out.TicketData = maps.Clone(ticket.TicketData)
	return &out
}

type fakeTicketRepo struct {
	tickets   map[string]*domain.Ticket
	touched   []string
	updates   int
	updateErr error
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: map[string]*domain.Ticket{}}
}

func (r *fakeTicketRepo) add(ticket *domain.Ticket) *domain.Ticket {
	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	r.tickets[ticket.ID] = cloneTicket(ticket)
	return ticket
}

func (r *fakeTicketRepo) Create(ctx context.Context, db repository.DB, ticket *domain.Ticket) error {
	ticket.ID = uuid.NewString()
	r.tickets[ticket.ID] = cloneTicket(ticket)
	return nil
}

func (r *fakeTicketRepo) Update(ctx context.Context, db repository.DB, ticket *domain.Ticket) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	r.tickets[ticket.ID] = cloneTicket(ticket)
	r.updates++
	return nil
}

func (r *fakeTicketRepo) Touch(ctx context.Context, db repository.DB, id string) error {
	if _, ok := r.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	r.touched = append(r.touched, id)
	return nil
}

func (r *fakeTicketRepo) Delete(ctx context.Context, db repository.DB, id string) error {
	if _, ok := r.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.tickets, id)
	return nil
}

func (r *fakeTicketRepo) GetByID(ctx context.Context, db repository.DB, id string) (*domain.Ticket, error) {
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return cloneTicket(ticket), nil
}

func (r *fakeTicketRepo) GetByIDForUpdate(ctx context.Context, db repository.DB, id string) (*domain.Ticket, error) {
	return r.GetByID(ctx, db, id)
}

func (r *fakeTicketRepo) GetByNumber(ctx context.Context, db repository.DB, number string) (*domain.Ticket, error) {
	for _, ticket := range r.tickets {
		if ticket.Number == number {
			return cloneTicket(ticket), nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeTicketRepo) ListWithFilter(ctx context.Context, db repository.DB, filter repository.TicketFilter) ([]domain.Ticket, error) {
	out := make([]domain.Ticket, 0, len(r.tickets))
	for _, ticket := range r.tickets {
		out = append(out, *cloneTicket(ticket))
	}
	return out, nil
}

type fakeSequenceRepo struct {
	counters map[string]int64
	err      error
}

func newFakeSequenceRepo() *fakeSequenceRepo {
	return &fakeSequenceRepo{counters: map[string]int64{}}
}

func (r *fakeSequenceRepo) Next(ctx context.Context, db repository.DB, ticketType domain.TicketType, year int) (int64, error) {
	if r.err != nil {
		return 0, r.err
	}
	key := fmt.Sprintf("%s-%d", ticketType, year)
	r.counters[key]++
	return r.counters[key], nil
}

type fakeHistoryRepo struct {
	entries   []domain.TicketHistory
	createErr error
}

func (r *fakeHistoryRepo) Create(ctx context.Context, db repository.DB, history *domain.TicketHistory) error {
	if r.createErr != nil {
		return r.createErr
	}
	history.ID = uuid.NewString()
	r.entries = append(r.entries, *history)
	return nil
}

func (r *fakeHistoryRepo) ListByTicket(ctx context.Context, db repository.DB, ticketID string, limit, offset int) ([]domain.TicketHistory, error) {
	out := r.byTicket(ticketID)
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeHistoryRepo) CountByTicket(ctx context.Context, db repository.DB, ticketID string) (int64, error) {
	return int64(len(r.byTicket(ticketID))), nil
}

func (r *fakeHistoryRepo) byTicket(ticketID string) []domain.TicketHistory {
	out := []domain.TicketHistory{}
	for _, entry := range r.entries {
		if entry.TicketID == ticketID {
			out = append(out, entry)
		}
	}
	return out
}

type fakeCreatorRepo struct {
	creators map[string]*domain.CreatorAccount
}

func newFakeCreatorRepo(accounts ...*domain.CreatorAccount) *fakeCreatorRepo {
	repo := &fakeCreatorRepo{creators: map[string]*domain.CreatorAccount{}}
	for _, account := range accounts {
		if account.ID == "" {
			account.ID = uuid.NewString()
		}
		repo.creators[account.ID] = account
	}
	return repo
}

func (r *fakeCreatorRepo) Create(ctx context.Context, db repository.DB, account *domain.CreatorAccount) error {
	account.ID = uuid.NewString()
	r.creators[account.ID] = account
	return nil
}

func (r *fakeCreatorRepo) GetByID(ctx context.Context, db repository.DB, id string) (*domain.CreatorAccount, error) {
	account, ok := r.creators[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return account, nil
}

func (r *fakeCreatorRepo) GetByHandle(ctx context.Context, db repository.DB, handle string) (*domain.CreatorAccount, error) {
	for _, account := range r.creators {
		if account.Handle == handle {
			return account, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type fakeUserRepo struct {
	users map[string]*domain.User
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: map[string]*domain.User{}}
	for _, user := range users {
		if user.ID == "" {
			user.ID = uuid.NewString()
		}
		repo.users[user.ID] = user
	}
	return repo
}

func (r *fakeUserRepo) Create(ctx context.Context, db repository.DB, user *domain.User) error {
	user.ID = uuid.NewString()
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, db repository.DB, id string) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return user, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, db repository.DB, email string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) List(ctx context.Context, db repository.DB, limit, offset int) ([]domain.User, error) {
	out := make([]domain.User, 0, len(r.users))
	for _, user := range r.users {
		out = append(out, *user)
	}
	return out, nil
}

type fakeCommentRepo struct {
	comments []*domain.Comment
}

func (r *fakeCommentRepo) Create(ctx context.Context, db repository.DB, comment *domain.Comment) error {
	comment.ID = uuid.NewString()
	clone := *comment
	r.comments = append(r.comments, &clone)
	return nil
}

func (r *fakeCommentRepo) Update(ctx context.Context, db repository.DB, comment *domain.Comment) error {
	for i, existing := range r.comments {
		if existing.ID == comment.ID {
			clone := *comment
			r.comments[i] = &clone
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *fakeCommentRepo) Delete(ctx context.Context, db repository.DB, id string) error {
	for i, existing := range r.comments {
		if existing.ID == id {
			r.comments = append(r.comments[:i], r.comments[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *fakeCommentRepo) GetByID(ctx context.Context, db repository.DB, id string) (*domain.Comment, error) {
	for _, existing := range r.comments {
		if existing.ID == id {
			clone := *existing
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeCommentRepo) ListByTicket(ctx context.Context, db repository.DB, ticketID string) ([]domain.Comment, error) {
	out := []domain.Comment{}
	for _, existing := range r.comments {
		if existing.TicketID == ticketID {
			out = append(out, *existing)
		}
	}
	return out, nil
}

type fakeAuditRecorder struct {
	entries []domain.AuditLogEntry
}

func (r *fakeAuditRecorder) Record(ctx context.Context, entry domain.AuditLogEntry) {
	r.entries = append(r.entries, entry)
}

type fakeDispatcher struct {
	published []events.Event
	err       error
}

func (d *fakeDispatcher) Publish(ctx context.Context, event events.Event) error {
	if d.err != nil {
		return d.err
	}
	d.published = append(d.published, event)
	return nil
}

func (d *fakeDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {}

type fakeAuditRepo struct {
	entries   []domain.AuditLogEntry
	createErr error
}

func (r *fakeAuditRepo) Create(ctx context.Context, db repository.DB, entry *domain.AuditLogEntry) error {
	if r.createErr != nil {
		return r.createErr
	}
	entry.ID = uuid.NewString()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeAuditRepo) List(ctx context.Context, db repository.DB, filter domain.AuditFilter) ([]domain.AuditLogEntry, error) {
	return r.entries, nil
}
