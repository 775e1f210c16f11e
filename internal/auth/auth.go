// Package auth is the email/password identity provider. Accounts live in
// memory; sessions are signed JWTs.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"tutorbook/internal/core"
	"tutorbook/internal/validate"
)

const (
	DefaultTokenTTL   = 24 * time.Hour
	DefaultBcryptCost = 12
	MinPasswordLength = 8
	issuer            = "tutorbook"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrWeakPassword       = fmt.Errorf("password must be at least %d characters long", MinPasswordLength)
	ErrInvalidEmail       = errors.New("invalid email address")
)

type (
	User struct {
		ID        string    `json:"id"`
		Email     string    `json:"email"`
		CreatedAt time.Time `json:"createdAt"`
	}

	Session struct {
		User      User      `json:"user"`
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expiresAt"`
	}

	Config struct {
		Secret     string
		TokenTTL   time.Duration
		BcryptCost int
	}

	claims struct {
		Email string `json:"email"`
		jwt.RegisteredClaims
	}

	account struct {
		user User
		hash []byte
	}
)

// Provider signs users up and in, and tracks the current user of this client.
type Provider struct {
	secret []byte
	ttl    time.Duration
	cost   int
	now    func() time.Time

	mu       sync.RWMutex
	accounts map[string]*account

	stateMu   sync.Mutex
	current   *User
	nextID    int
	observers map[int]func(*User)

	// token id -> expiry of signed-out tokens
	revokedMu sync.Mutex
	revoked   map[string]time.Time
}

func NewProvider(cfg Config) (*Provider, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, errors.New("auth: empty signing secret")
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("auth: bcrypt cost %d out of range", cost)
	}
	return &Provider{
		secret:    []byte(cfg.Secret),
		ttl:       ttl,
		cost:      cost,
		now:       time.Now,
		accounts:  make(map[string]*account),
		observers: make(map[int]func(*User)),
		revoked:   make(map[string]time.Time),
	}, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validate.Var("email", email, "required,email"); err != nil {
		return "", core.NewValidationError("email", ErrInvalidEmail)
	}
	return email, nil
}

// SignUp registers a new account and signs it in.
func (p *Provider) SignUp(_ context.Context, email, password string) (Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return Session{}, err
	}
	if len(password) < MinPasswordLength {
		return Session{}, core.NewValidationError("password", ErrWeakPassword)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}

	p.mu.Lock()
	if _, taken := p.accounts[email]; taken {
		p.mu.Unlock()
		return Session{}, ErrEmailTaken
	}
	acc := &account{user: User{ID: uuid.NewString(), Email: email, CreatedAt: p.now().UTC()}, hash: hash}
	p.accounts[email] = acc
	p.mu.Unlock()

	return p.startSession(acc.user)
}

func (p *Provider) SignIn(_ context.Context, email, password string) (Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	p.mu.RLock()
	acc, ok := p.accounts[email]
	p.mu.RUnlock()
	if !ok {
		return Session{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(acc.hash, []byte(password)); err != nil {
		return Session{}, ErrInvalidCredentials
	}
	return p.startSession(acc.user)
}

func (p *Provider) startSession(u User) (Session, error) {
	token, exp, err := p.issue(u)
	if err != nil {
		return Session{}, err
	}
	p.setCurrent(&u)
	return Session{User: u, Token: token, ExpiresAt: exp}, nil
}

// SignOut clears the current user.
func (p *Provider) SignOut() {
	p.setCurrent(nil)
}

// CurrentUser returns the signed-in user or nil.
func (p *Provider) CurrentUser() *User {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	if p.current == nil {
		return nil
	}
	u := *p.current
	return &u
}

// OnAuthStateChanged calls fn with the current user now and after every
// sign-in or sign-out. The returned func stops notifications.
func (p *Provider) OnAuthStateChanged(fn func(*User)) (cancel func()) {
	p.stateMu.Lock()
	p.nextID++
	id := p.nextID
	p.observers[id] = fn
	p.stateMu.Unlock()

	fn(p.CurrentUser())
	return func() {
		p.stateMu.Lock()
		delete(p.observers, id)
		p.stateMu.Unlock()
	}
}

func (p *Provider) setCurrent(u *User) {
	p.stateMu.Lock()
	p.current = u
	fns := make([]func(*User), 0, len(p.observers))
	for _, fn := range p.observers {
		fns = append(fns, fn)
	}
	p.stateMu.Unlock()
	for _, fn := range fns {
		fn(p.CurrentUser())
	}
}

func (p *Provider) issue(u User) (string, time.Time, error) {
	now := p.now().UTC()
	exp := now.Add(p.ttl)
	c := claims{
		Email: u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(p.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// VerifyToken returns the user a session token was issued to.
func (p *Provider) VerifyToken(token string) (User, error) {
	c, err := p.parse(token)
	if err != nil {
		return User{}, err
	}
	p.revokedMu.Lock()
	_, revoked := p.revoked[c.ID]
	p.revokedMu.Unlock()
	if revoked {
		return User{}, fmt.Errorf("%w: signed out", ErrInvalidToken)
	}
	return User{ID: c.Subject, Email: c.Email}, nil
}

// RevokeToken rejects token from now until it would have expired.
func (p *Provider) RevokeToken(token string) error {
	c, err := p.parse(token)
	if err != nil {
		return err
	}
	p.revokedMu.Lock()
	p.revoked[c.ID] = c.ExpiresAt.Time
	p.revokedMu.Unlock()
	return nil
}

// CleanExpired forgets revoked tokens that have expired anyway.
func (p *Provider) CleanExpired() int {
	now := p.now()
	p.revokedMu.Lock()
	defer p.revokedMu.Unlock()
	n := 0
	for id, exp := range p.revoked {
		if !now.Before(exp) {
			delete(p.revoked, id)
			n++
		}
	}
	return n
}

func (p *Provider) parse(token string) (claims, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return p.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(p.now), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if _, err := uuid.Parse(c.Subject); err != nil {
		return claims{}, fmt.Errorf("%w: subject: %v", ErrInvalidToken, err)
	}
	if c.ID == "" {
		return claims{}, fmt.Errorf("%w: missing token id", ErrInvalidToken)
	}
	return c, nil
}
