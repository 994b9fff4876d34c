package identity

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for db-less development and tests.
// It enforces the same uniqueness rules as the Postgres backend.
type MemoryStore struct {
	mu sync.Mutex

	nextUserID    int64
	nextCompanyID int64

	users     map[int64]*memUser
	companies map[int64]*memCompany
}

type memUser struct {
	user         User
	passwordHash string
}

type memCompany struct {
	company      Company
	passwordHash string
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:     make(map[int64]*memUser),
		companies: make(map[int64]*memCompany),
	}
}

// PutUser seeds a user (id assigned when zero). Intended for dev seeding
// and tests.
func (s *MemoryStore) PutUser(u User, passwordHash string) User {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.ID == 0 {
		s.nextUserID++
		u.ID = s.nextUserID
	} else if u.ID > s.nextUserID {
		s.nextUserID = u.ID
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	s.users[u.ID] = &memUser{user: u, passwordHash: passwordHash}
	return u
}

// PutCompany seeds a company (id assigned when zero).
func (s *MemoryStore) PutCompany(c Company, passwordHash string) Company {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == 0 {
		s.nextCompanyID++
		c.ID = s.nextCompanyID
	} else if c.ID > s.nextCompanyID {
		s.nextCompanyID = c.ID
	}
	if c.Role == "" {
		c.Role = RoleBusiness
	}
	s.companies[c.ID] = &memCompany{company: c, passwordHash: passwordHash}
	return c
}

// DeleteUser removes a user row. Intended for tests.
func (s *MemoryStore) DeleteUser(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
}

func (s *MemoryStore) GetUserByID(_ context.Context, id int64) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[id]
	if !ok {
		return User{}, NotFoundError{Op: "identity.GetUserByID", Resource: "user"}
	}
	return rec.user, nil
}

func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	norm := NormalizeEmail(email)
	for _, rec := range s.users {
		if rec.user.Email != nil && NormalizeEmail(*rec.user.Email) == norm {
			return rec.user, nil
		}
	}
	return User{}, NotFoundError{Op: "identity.GetUserByEmail", Resource: "user"}
}

func (s *MemoryStore) GetUserAuthByEmail(_ context.Context, email string) (UserAuth, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	norm := NormalizeEmail(email)
	for _, rec := range s.users {
		if rec.user.Email != nil && NormalizeEmail(*rec.user.Email) == norm {
			return UserAuth{User: rec.user, PasswordHash: rec.passwordHash}, nil
		}
	}
	return UserAuth{}, NotFoundError{Op: "identity.GetUserAuthByEmail", Resource: "user"}
}

func (s *MemoryStore) GetUserByKakaoID(_ context.Context, kakaoID int64) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.users {
		if rec.user.KakaoID != nil && *rec.user.KakaoID == kakaoID {
			return rec.user, nil
		}
	}
	return User{}, NotFoundError{Op: "identity.GetUserByKakaoID", Resource: "user"}
}

func (s *MemoryStore) GetUserByGoogleEmail(_ context.Context, googleEmail string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	norm := NormalizeEmail(googleEmail)
	for _, rec := range s.users {
		if rec.user.GoogleEmail != nil && *rec.user.GoogleEmail == norm {
			return rec.user, nil
		}
	}
	return User{}, NotFoundError{Op: "identity.GetUserByGoogleEmail", Resource: "user"}
}

func (s *MemoryStore) CreateKakaoUser(_ context.Context, in CreateKakaoUserInput) (User, error) {
	const op = "identity.CreateKakaoUser"

	if in.KakaoID == 0 || strings.TrimSpace(in.Nickname) == "" {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.users {
		if rec.user.KakaoID != nil && *rec.user.KakaoID == in.KakaoID {
			return User{}, ConflictError{Op: op, Field: "kakao_id"}
		}
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	s.nextUserID++
	kid := in.KakaoID
	u := User{
		ID:        s.nextUserID,
		Email:     in.Email,
		Nickname:  strings.TrimSpace(in.Nickname),
		Role:      RoleUser,
		KakaoID:   &kid,
		CreatedAt: now,
	}
	s.users[u.ID] = &memUser{user: u}
	return u, nil
}

func (s *MemoryStore) CreateGoogleUser(_ context.Context, in CreateGoogleUserInput) (User, error) {
	const op = "identity.CreateGoogleUser"

	ge := NormalizeEmail(in.GoogleEmail)
	if ge == "" || strings.TrimSpace(in.Nickname) == "" || in.PasswordHash == "" {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.users {
		if rec.user.GoogleEmail != nil && *rec.user.GoogleEmail == ge {
			return User{}, ConflictError{Op: op, Field: "google_email"}
		}
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	s.nextUserID++
	u := User{
		ID:          s.nextUserID,
		Nickname:    strings.TrimSpace(in.Nickname),
		Role:        RoleUser,
		GoogleEmail: &ge,
		CreatedAt:   now,
	}
	s.users[u.ID] = &memUser{user: u, passwordHash: in.PasswordHash}
	return u, nil
}

func (s *MemoryStore) LinkGoogleEmail(_ context.Context, userID int64, googleEmail string) (User, error) {
	const op = "identity.LinkGoogleEmail"

	ge := NormalizeEmail(googleEmail)
	if ge == "" {
		return User{}, OpError{Op: op, Kind: ErrInvalidInput}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, rec := range s.users {
		if id != userID && rec.user.GoogleEmail != nil && *rec.user.GoogleEmail == ge {
			return User{}, ConflictError{Op: op, Field: "google_email"}
		}
	}

	rec, ok := s.users[userID]
	if !ok {
		return User{}, NotFoundError{Op: op, Resource: "user"}
	}
	rec.user.GoogleEmail = &ge
	return rec.user, nil
}

func (s *MemoryStore) GetCompanyByID(_ context.Context, id int64) (Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.companies[id]
	if !ok {
		return Company{}, NotFoundError{Op: "identity.GetCompanyByID", Resource: "company"}
	}
	return rec.company, nil
}

func (s *MemoryStore) GetCompanyAuthByEmail(_ context.Context, email string) (CompanyAuth, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	norm := NormalizeEmail(email)
	for _, rec := range s.companies {
		if NormalizeEmail(rec.company.Email) == norm {
			return CompanyAuth{Company: rec.company, PasswordHash: rec.passwordHash}, nil
		}
	}
	return CompanyAuth{}, NotFoundError{Op: "identity.GetCompanyAuthByEmail", Resource: "company"}
}
