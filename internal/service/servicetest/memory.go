// Package servicetest provides in-memory stores for exercising services and handlers without
// MySQL or Redis.
package servicetest

import (
	"context"
	"errors"
	"sort"
	"sync"

	"directory-service/internal/entity"
	"directory-service/internal/pagination"
	"directory-service/internal/repository"
)

// MemoryStore is a ResourceStore backed by a map. Err, when set, fails every call.
type MemoryStore struct {
	mu     sync.Mutex
	rows   map[int64]entity.Record
	nextID int64
	Err    error
	Calls  []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: map[int64]entity.Record{}}
}

func (m *MemoryStore) record(call string) error {
	m.Calls = append(m.Calls, call)
	return m.Err
}

func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// Row returns a copy of row id.
func (m *MemoryStore) Row(id int64) (entity.Record, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	return clone(row), ok
}

// Seed stores fields directly and returns the assigned id.
func (m *MemoryStore) Seed(fields entity.Record) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insert(fields)
}

func (m *MemoryStore) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("Count"); err != nil {
		return 0, err
	}
	return len(m.rows), nil
}

func (m *MemoryStore) ListPage(ctx context.Context, requestedPage, totalCount int) (*entity.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("ListPage"); err != nil {
		return nil, err
	}

	page, lastPage, offset := pagination.Clamp(requestedPage, totalCount)
	all := m.sorted(func(entity.Record) bool { return true })
	items := []entity.Record{}
	for i := offset; i < len(all) && i < offset+pagination.PageSize; i++ {
		items = append(items, all[i])
	}
	return &entity.Page{
		Items:      items,
		PageNumber: page,
		TotalPages: lastPage,
		PageSize:   pagination.PageSize,
		TotalCount: totalCount,
	}, nil
}

func (m *MemoryStore) GetByID(ctx context.Context, id int64) (entity.Record, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("GetByID"); err != nil {
		return nil, false, err
	}
	row, ok := m.rows[id]
	if !ok {
		return nil, false, nil
	}
	return clone(row), true, nil
}

func (m *MemoryStore) Insert(ctx context.Context, fields entity.Record) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("Insert"); err != nil {
		return 0, err
	}
	return m.insert(fields), nil
}

func (m *MemoryStore) Replace(ctx context.Context, id int64, fields entity.Record) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("Replace"); err != nil {
		return false, err
	}
	if _, ok := m.rows[id]; !ok {
		return false, nil
	}
	row := clone(fields)
	row["id"] = id
	m.rows[id] = row
	return true, nil
}

func (m *MemoryStore) DeleteByID(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("DeleteByID"); err != nil {
		return false, err
	}
	if _, ok := m.rows[id]; !ok {
		return false, nil
	}
	delete(m.rows, id)
	return true, nil
}

func (m *MemoryStore) ListBy(ctx context.Context, column string, value interface{}) ([]entity.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("ListBy"); err != nil {
		return nil, err
	}
	want := entity.Key(value)
	return m.sorted(func(r entity.Record) bool { return entity.Key(r[column]) == want }), nil
}

func (m *MemoryStore) CountWhere(ctx context.Context, equals entity.Record) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("CountWhere"); err != nil {
		return 0, err
	}
	matches := m.sorted(func(r entity.Record) bool {
		for col, v := range equals {
			if entity.Key(r[col]) != entity.Key(v) {
				return false
			}
		}
		return true
	})
	return len(matches), nil
}

func (m *MemoryStore) insert(fields entity.Record) int64 {
	m.nextID++
	row := clone(fields)
	row["id"] = m.nextID
	m.rows[m.nextID] = row
	return m.nextID
}

func (m *MemoryStore) sorted(keep func(entity.Record) bool) []entity.Record {
	ids := make([]int64, 0, len(m.rows))
	for id, row := range m.rows {
		if keep(row) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]entity.Record, 0, len(ids))
	for _, id := range ids {
		out = append(out, clone(m.rows[id]))
	}
	return out
}

func clone(r entity.Record) entity.Record {
	if r == nil {
		return nil
	}
	out := make(entity.Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// MemoryProfiles is a ProfileStore backed by a map. Credentials are kept in plain text.
type MemoryProfiles struct {
	mu        sync.Mutex
	users     map[string]*entity.UserProfile
	AppendErr error
	Err       error
}

func NewMemoryProfiles() *MemoryProfiles {
	return &MemoryProfiles{users: map[string]*entity.UserProfile{}}
}

func (m *MemoryProfiles) CreateUser(ctx context.Context, userID, name, email, rawCredential string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	if _, ok := m.users[userID]; ok {
		return "", repository.ErrUserExists
	}
	storedID := "id-" + userID
	m.users[userID] = &entity.UserProfile{
		ID:         storedID,
		UserID:     userID,
		Name:       name,
		Email:      email,
		Password:   rawCredential,
		Businesses: []int64{},
		Reviews:    []int64{},
		Photos:     []int64{},
		Positions:  []int64{},
	}
	return storedID, nil
}

func (m *MemoryProfiles) FindByUserID(ctx context.Context, userID string, includeCredential bool) (*entity.UserProfile, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, false, m.Err
	}
	u, ok := m.users[userID]
	if !ok {
		return nil, false, nil
	}
	out := *u
	out.Businesses = append([]int64{}, u.Businesses...)
	out.Reviews = append([]int64{}, u.Reviews...)
	out.Photos = append([]int64{}, u.Photos...)
	out.Positions = append([]int64{}, u.Positions...)
	if !includeCredential {
		out.Password = ""
	}
	return &out, true, nil
}

func (m *MemoryProfiles) AppendReference(ctx context.Context, userID, relation string, foreignKey int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AppendErr != nil {
		return false, m.AppendErr
	}
	if !entity.IsRelation(relation) {
		return false, repository.ErrUnknownRelation
	}
	u, ok := m.users[userID]
	if !ok {
		return false, nil
	}
	switch relation {
	case entity.RelationBusinesses:
		u.Businesses = append(u.Businesses, foreignKey)
	case entity.RelationReviews:
		u.Reviews = append(u.Reviews, foreignKey)
	case entity.RelationPhotos:
		u.Photos = append(u.Photos, foreignKey)
	case entity.RelationPositions:
		u.Positions = append(u.Positions, foreignKey)
	}
	return true, nil
}

func (m *MemoryProfiles) VerifyCredential(rawCredential, storedHash string) bool {
	return rawCredential != "" && rawCredential == storedHash
}

// ErrUnavailable is a ready-made storage failure.
var ErrUnavailable = errors.New("store unavailable")

// Publisher records published link events. Err, when set, fails every publish.
type Publisher struct {
	mu     sync.Mutex
	Events []entity.LinkEvent
	Err    error
}

func (p *Publisher) PublishLink(ctx context.Context, event entity.LinkEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.Events = append(p.Events, event)
	return nil
}
