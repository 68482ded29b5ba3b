package mockapi

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	errUnknownUser   = errors.New("user not found")
	errBadPassword   = errors.New("password mismatch")
	errDuplicateUser = errors.New("user already exists")
)

// Seed is a fixture user with a plaintext password, hashed when loaded.
type Seed struct {
	FullName string
	Email    string
	Password string
	Role     string
	GroupID  string
}

// DefaultSeeds returns one user per backend role plus one with a role the client does
// not know, all with password "campus".
func DefaultSeeds() []Seed {
	return []Seed{
		{FullName: "Ирина Петрова", Email: "dean@campus.test", Password: "campus", Role: "Декан"},
		{FullName: "Андрей Кузнецов", Email: "vicedean@campus.test", Password: "campus", Role: "Заместитель декана"},
		{FullName: "Олег Смирнов", Email: "lecturer@campus.test", Password: "campus", Role: "Преподаватель (лектор)"},
		{FullName: "Мария Волкова", Email: "practice@campus.test", Password: "campus", Role: "Преподаватель (практик)"},
		{FullName: "Анна Соколова", Email: "student@campus.test", Password: "campus", Role: "Студент", GroupID: "ИС-21"},
		{FullName: "Пётр Иванов", Email: "steward@campus.test", Password: "campus", Role: "Завхоз"},
	}
}

type user struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	GroupID  string `json:"group_id,omitempty"`
	hash     []byte
}

// directory holds users keyed by lower-cased email.
type directory struct {
	mu      sync.RWMutex
	byEmail map[string]*user
	byID    map[string]*user
	cost    int
}

func newDirectory(cost int) *directory {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &directory{
		byEmail: make(map[string]*user),
		byID:    make(map[string]*user),
		cost:    cost,
	}
}

// userID is stable per email so restarts keep the same ids.
func userID(email string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("campus:"+email)).String()
}

func (d *directory) add(s Seed) (*user, error) {
	email := strings.ToLower(strings.TrimSpace(s.Email))
	if email == "" || s.Password == "" {
		return nil, errors.New("email and password required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(s.Password), d.cost)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.byEmail[email]; ok {
		return nil, errDuplicateUser
	}
	u := &user{
		ID:       userID(email),
		FullName: s.FullName,
		Email:    email,
		Role:     s.Role,
		GroupID:  s.GroupID,
		hash:     hash,
	}
	d.byEmail[email] = u
	d.byID[u.ID] = u
	return u, nil
}

func (d *directory) authenticate(email, password string) (*user, error) {
	d.mu.RLock()
	u, ok := d.byEmail[strings.ToLower(strings.TrimSpace(email))]
	d.mu.RUnlock()
	if !ok {
		return nil, errUnknownUser
	}
	if err := bcrypt.CompareHashAndPassword(u.hash, []byte(password)); err != nil {
		return nil, errBadPassword
	}
	return u, nil
}

func (d *directory) get(id string) (*user, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.byID[id]
	return u, ok
}

func (d *directory) list(match func(*user) bool) []*user {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]*user, 0, len(d.byID))
	for _, u := range d.byID {
		if match == nil || match(u) {
			out = append(out, u)
		}
	}
	return out
}
