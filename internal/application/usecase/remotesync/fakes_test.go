package remotesync

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finance-tracker/ledgersync/internal/domain/entity"
	domainerror "github.com/finance-tracker/ledgersync/internal/domain/error"
	"github.com/finance-tracker/ledgersync/internal/domain/valueobject"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestUseCase(local *fakeLocalStore, remote *fakeRemoteStore, audit *slog.Logger) *RunSyncUseCase {
	if audit == nil {
		audit = discardLogger()
	}
	return NewRunSyncUseCase(local, remote, &fakeLocker{}, audit, Config{
		MaxCategoryPasses: DefaultMaxCategoryPasses,
		Now:               func() time.Time { return fixedNow },
	})
}

func ptr[T any](v T) *T {
	return &v
}

// fakeLocker grants every lock unless err is set.
type fakeLocker struct {
	err      error
	acquired int
	released int
}

func (l *fakeLocker) Acquire(_ context.Context, _ int64) (func(), error) {
	if l.err != nil {
		return nil, l.err
	}
	l.acquired++
	return func() { l.released++ }, nil
}

// fakeLocalStore is an in-memory LocalStore with auto-increment ids.
type fakeLocalStore struct {
	nextID       int64
	users        map[int64]*entity.User
	accounts     map[int64]*entity.Account
	categories   map[int64]*entity.Category
	transactions map[int64]*entity.Transaction

	listCategoriesErr error
}

func newFakeLocalStore() *fakeLocalStore {
	return &fakeLocalStore{
		users:        map[int64]*entity.User{},
		accounts:     map[int64]*entity.Account{},
		categories:   map[int64]*entity.Category{},
		transactions: map[int64]*entity.Transaction{},
	}
}

func (s *fakeLocalStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *fakeLocalStore) addUser(email string) int64 {
	id := s.id()
	s.users[id] = &entity.User{ID: id, Email: email, DisplayName: "Test User"}
	return id
}

func (s *fakeLocalStore) addAccount(ownerID int64, name string, t entity.AccountType) int64 {
	a := entity.NewAccount(ownerID, name, t, "USD", decimal.Zero)
	a.ID = s.id()
	s.accounts[a.ID] = a
	return a.ID
}

func (s *fakeLocalStore) addCategory(ownerID int64, parentID *int64, name string, t entity.CategoryType) int64 {
	c := entity.NewCategory(ownerID, parentID, name, t)
	c.ID = s.id()
	s.categories[c.ID] = c
	return c.ID
}

func (s *fakeLocalStore) addTransaction(ownerID int64, clientUUID string, accountID, categoryID int64, amount int64, date time.Time) int64 {
	t := entity.NewTransaction(ownerID, accountID, categoryID, entity.TransactionTypeIncome, decimal.NewFromInt(amount), date, nil)
	t.ID = s.id()
	t.ClientUUID = clientUUID
	s.transactions[t.ID] = t
	return t.ID
}

func (s *fakeLocalStore) GetUser(_ context.Context, ownerID int64) (*entity.User, error) {
	u, ok := s.users[ownerID]
	if !ok {
		return nil, domainerror.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (s *fakeLocalStore) GetUserRemoteID(_ context.Context, ownerID int64) (*int64, error) {
	u, ok := s.users[ownerID]
	if !ok {
		return nil, domainerror.ErrUserNotFound
	}
	if u.RemoteID == nil {
		return nil, nil
	}
	return ptr(*u.RemoteID), nil
}

func (s *fakeLocalStore) SetUserRemoteID(_ context.Context, ownerID, remoteID int64) error {
	s.users[ownerID].RemoteID = ptr(remoteID)
	return nil
}

func (s *fakeLocalStore) listAccounts(ownerID int64, mapped bool) []*entity.Account {
	var out []*entity.Account
	for _, a := range s.accounts {
		if a.OwnerID == ownerID && a.IsMapped() == mapped {
			clone := *a
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *fakeLocalStore) ListUnmappedAccounts(_ context.Context, ownerID int64) ([]*entity.Account, error) {
	return s.listAccounts(ownerID, false), nil
}

func (s *fakeLocalStore) ListMappedAccounts(_ context.Context, ownerID int64) ([]*entity.Account, error) {
	return s.listAccounts(ownerID, true), nil
}

func (s *fakeLocalStore) SetAccountRemoteID(_ context.Context, localID, remoteID int64) error {
	s.accounts[localID].RemoteID = ptr(remoteID)
	return nil
}

func (s *fakeLocalStore) ListCategoriesOrdered(_ context.Context, ownerID int64) ([]*entity.Category, error) {
	if s.listCategoriesErr != nil {
		return nil, s.listCategoriesErr
	}
	var out []*entity.Category
	for _, c := range s.categories {
		if c.OwnerID == ownerID {
			clone := *c
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsRoot() != out[j].IsRoot() {
			return out[i].IsRoot()
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *fakeLocalStore) SetCategoryRemoteID(_ context.Context, localID, remoteID int64) error {
	s.categories[localID].RemoteID = ptr(remoteID)
	return nil
}

func (s *fakeLocalStore) ListPendingTransactions(_ context.Context, ownerID int64) ([]*entity.PendingTransaction, error) {
	var out []*entity.PendingTransaction
	for _, t := range s.transactions {
		if t.OwnerID != ownerID || t.SyncStatus != entity.SyncStatusPending {
			continue
		}
		account, category := s.accounts[t.AccountID], s.categories[t.CategoryID]
		if account == nil || category == nil || account.RemoteID == nil || category.RemoteID == nil {
			continue
		}
		clone := *t
		out = append(out, &entity.PendingTransaction{
			Transaction:      &clone,
			AccountRemoteID:  *account.RemoteID,
			CategoryRemoteID: *category.RemoteID,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Transaction, out[j].Transaction
		if !a.TxnDate.Equal(b.TxnDate) {
			return a.TxnDate.Before(b.TxnDate)
		}
		return a.ID < b.ID
	})
	return out, nil
}

func (s *fakeLocalStore) CountPendingTransactions(_ context.Context, ownerID int64) (int, error) {
	n := 0
	for _, t := range s.transactions {
		if t.OwnerID == ownerID && t.SyncStatus == entity.SyncStatusPending {
			n++
		}
	}
	return n, nil
}

func (s *fakeLocalStore) MarkTransactionSynced(_ context.Context, localID, remoteID int64, syncedAt time.Time) error {
	t := s.transactions[localID]
	t.SyncStatus = entity.SyncStatusSynced
	t.RemoteID = ptr(remoteID)
	t.LastSyncedAt = ptr(syncedAt)
	return nil
}

// fakeRemoteStore is an in-memory RemoteStore with unique natural keys.
type fakeRemoteStore struct {
	nextID int64
	rows   map[valueobject.EntityKind]map[int64]entity.RemoteRecord

	// inserted records every successful insert in order.
	inserted []entity.RemoteRecord

	pingErr error
	// existsErr fails existence checks by kind.
	existsErr map[valueobject.EntityKind]error
	// insertErr fails inserts by label.
	insertErr map[string]error
	// raceOnInsert simulates a concurrent writer creating the row first.
	raceOnInsert map[string]bool
	// loseRace makes raceOnInsert report a duplicate without leaving a row behind.
	loseRace bool
}

func newFakeRemoteStore() *fakeRemoteStore {
	return &fakeRemoteStore{
		rows:         map[valueobject.EntityKind]map[int64]entity.RemoteRecord{},
		existsErr:    map[valueobject.EntityKind]error{},
		insertErr:    map[string]error{},
		raceOnInsert: map[string]bool{},
	}
}

func (s *fakeRemoteStore) Ping(_ context.Context) error {
	return s.pingErr
}

func (s *fakeRemoteStore) FindByNaturalKey(_ context.Context, key valueobject.NaturalKey) (*int64, error) {
	for id, rec := range s.rows[key.Kind] {
		if reflect.DeepEqual(rec.NaturalKey().Conditions(), key.Conditions()) {
			return ptr(id), nil
		}
	}
	return nil, nil
}

func (s *fakeRemoteStore) put(record entity.RemoteRecord) int64 {
	s.nextID++
	if s.rows[record.Kind()] == nil {
		s.rows[record.Kind()] = map[int64]entity.RemoteRecord{}
	}
	s.rows[record.Kind()][s.nextID] = record
	return s.nextID
}

func (s *fakeRemoteStore) Insert(ctx context.Context, record entity.RemoteRecord) (int64, error) {
	if err := s.insertErr[record.Label()]; err != nil {
		return 0, err
	}
	if s.raceOnInsert[record.Label()] {
		delete(s.raceOnInsert, record.Label())
		if !s.loseRace {
			s.put(record)
		}
		return 0, domainerror.ErrDuplicateKey
	}
	if existing, _ := s.FindByNaturalKey(ctx, record.NaturalKey()); existing != nil {
		return 0, domainerror.ErrDuplicateKey
	}
	s.inserted = append(s.inserted, record)
	return s.put(record), nil
}

func (s *fakeRemoteStore) ExistsByID(_ context.Context, kind valueobject.EntityKind, id int64) (bool, error) {
	if err := s.existsErr[kind]; err != nil {
		return false, err
	}
	_, ok := s.rows[kind][id]
	return ok, nil
}

func (s *fakeRemoteStore) UpdateCategoryParent(_ context.Context, id int64, parentID *int64) error {
	rec, ok := s.rows[valueobject.EntityKindCategory][id]
	if !ok {
		return errors.New("category not found")
	}
	rec.(*entity.RemoteCategory).ParentRemoteID = parentID
	return nil
}

func (s *fakeRemoteStore) delete(kind valueobject.EntityKind, id int64) {
	delete(s.rows[kind], id)
}

func (s *fakeRemoteStore) count(kind valueobject.EntityKind) int {
	return len(s.rows[kind])
}

func (s *fakeRemoteStore) category(id int64) *entity.RemoteCategory {
	rec, ok := s.rows[valueobject.EntityKindCategory][id]
	if !ok {
		return nil
	}
	return rec.(*entity.RemoteCategory)
}

func (s *fakeRemoteStore) insertedLabels(kind valueobject.EntityKind) []string {
	var labels []string
	for _, rec := range s.inserted {
		if rec.Kind() == kind {
			labels = append(labels, rec.Label())
		}
	}
	return labels
}

func (s *fakeRemoteStore) transaction(clientUUID string) *entity.RemoteTransaction {
	for _, rec := range s.rows[valueobject.EntityKindTransaction] {
		if t := rec.(*entity.RemoteTransaction); t.ClientUUID == clientUUID {
			return t
		}
	}
	return nil
}
