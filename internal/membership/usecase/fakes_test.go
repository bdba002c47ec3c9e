package usecase

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	potp "github.com/pquerna/otp"
	"github.com/shandysiswandi/sportsclub/internal/membership/entity"
	"github.com/shandysiswandi/sportsclub/internal/pkg/clock"
	"github.com/shandysiswandi/sportsclub/internal/pkg/config"
	"github.com/shandysiswandi/sportsclub/internal/pkg/goerror"
	"github.com/shandysiswandi/sportsclub/internal/pkg/hash"
	"github.com/shandysiswandi/sportsclub/internal/pkg/instrument"
	"github.com/shandysiswandi/sportsclub/internal/pkg/jwt"
	"github.com/shandysiswandi/sportsclub/internal/pkg/mfa"
	"github.com/shandysiswandi/sportsclub/internal/pkg/otp"
	"github.com/shandysiswandi/sportsclub/internal/pkg/uid"
	"github.com/shandysiswandi/sportsclub/internal/pkg/validator"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testConfig = `
modules:
  membership:
    otp:
      email:
        ttl_minutes: 5
        max_attempts: 0
        rate_limit:
          window_minutes: 5
          max_issuance: 0
      phone:
        ttl_minutes: 5
        max_attempts: 3
        rate_limit:
          window_minutes: 5
          max_issuance: 3
    totp:
      issuer: Sports Club
      qr_size: 64
`

type otpKey struct {
	ch entity.Channel
	id string
}

type issuance struct {
	key otpKey
	at  time.Time
}

// memoryDB mirrors the PostgreSQL repository, including the unique
// constraints and the transactional issuance.
type memoryDB struct {
	mu        sync.Mutex
	users     map[int64]entity.User
	secrets   map[int64]entity.TOTPSecret
	otps      map[otpKey]entity.OTPRecord
	issuances []issuance

	failCreate error
}

func newMemoryDB() *memoryDB {
	return &memoryDB{
		users:   map[int64]entity.User{},
		secrets: map[int64]entity.TOTPSecret{},
		otps:    map[otpKey]entity.OTPRecord{},
	}
}

func (m *memoryDB) GetUserByEmail(_ context.Context, email string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, goerror.ErrNotFound
}

func (m *memoryDB) GetUserByPhone(_ context.Context, phone string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Phone == phone {
			return &u, nil
		}
	}
	return nil, goerror.ErrNotFound
}

func (m *memoryDB) GetUserByID(_ context.Context, id int64) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return &u, nil
	}
	return nil, goerror.ErrNotFound
}

func (m *memoryDB) CreateUserWithTOTP(_ context.Context, user entity.User, secret entity.TOTPSecret) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreate != nil {
		return m.failCreate
	}
	for _, u := range m.users {
		if u.Email == user.Email {
			return &goerror.ConflictError{Constraint: constraintUserEmail}
		}
		if u.Phone == user.Phone {
			return &goerror.ConflictError{Constraint: constraintUserPhone}
		}
	}
	m.users[user.ID] = user
	m.secrets[user.ID] = secret
	return nil
}

func (m *memoryDB) GetTOTPSecret(_ context.Context, userID int64) (*entity.TOTPSecret, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.secrets[userID]; ok {
		return &s, nil
	}
	return nil, goerror.ErrNotFound
}

func (m *memoryDB) UpsertTOTPSecret(_ context.Context, secret entity.TOTPSecret) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secrets[secret.UserID] = secret
	return nil
}

func (m *memoryDB) IssueOTP(ctx context.Context, rec entity.OTPRecord, deliver func(ctx context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := otpKey{rec.Channel, rec.Identifier}
	prev, hadPrev := m.otps[key]
	m.otps[key] = rec
	m.issuances = append(m.issuances, issuance{key: key, at: rec.CreatedAt})

	if err := deliver(ctx); err != nil {
		m.issuances = m.issuances[:len(m.issuances)-1]
		if hadPrev {
			m.otps[key] = prev
		} else {
			delete(m.otps, key)
		}
		return err
	}
	return nil
}

func (m *memoryDB) GetOTP(_ context.Context, ch entity.Channel, identifier string) (*entity.OTPRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.otps[otpKey{ch, identifier}]; ok {
		return &r, nil
	}
	return nil, goerror.ErrNotFound
}

func (m *memoryDB) DeleteOTP(_ context.Context, ch entity.Channel, identifier string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.otps, otpKey{ch, identifier})
	return nil
}

func (m *memoryDB) IncrementOTPAttempts(_ context.Context, ch entity.Channel, identifier string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := otpKey{ch, identifier}
	r, ok := m.otps[key]
	if !ok {
		return 0, goerror.ErrNotFound
	}
	r.Attempts++
	m.otps[key] = r
	return r.Attempts, nil
}

func (m *memoryDB) CountOTPIssuances(_ context.Context, ch entity.Channel, identifier string, since time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, is := range m.issuances {
		if is.key == (otpKey{ch, identifier}) && is.at.After(since) {
			n++
		}
	}
	return n, nil
}

func (m *memoryDB) code(ch entity.Channel, identifier string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.otps[otpKey{ch, identifier}].Code
}

type memorySessions struct {
	mu    sync.Mutex
	store map[string][]byte
}

func newMemorySessions() *memorySessions {
	return &memorySessions{store: map[string][]byte{}}
}

// Sessions round trip through JSON like the Redis store, so a caller
// cannot change stored state without Save.
func (m *memorySessions) Get(_ context.Context, id string) (*entity.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess := &entity.Session{}
	if raw, ok := m.store[id]; ok {
		if err := decodeSession(raw, sess); err != nil {
			return nil, err
		}
	}
	return sess, nil
}

func (m *memorySessions) Save(_ context.Context, id string, sess *entity.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, err := encodeSession(sess)
	if err != nil {
		return err
	}
	m.store[id] = raw
	return nil
}

func (m *memorySessions) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, id)
	return nil
}

type mockDeliverer struct {
	mock.Mock
}

func (m *mockDeliverer) Deliver(ctx context.Context, ch entity.Channel, identifier, code string) error {
	return m.Called(ctx, ch, identifier, code).Error(0)
}

type mockMessaging struct {
	mock.Mock
}

func (m *mockMessaging) PublishMemberRegistered(ctx context.Context, msg MemberRegisteredEvent) error {
	return m.Called(ctx, msg).Error(0)
}

type testEnv struct {
	uc        *Usecase
	db        *memoryDB
	sessions  *memorySessions
	deliverer *mockDeliverer
	publisher *mockMessaging
	clock     *clock.Manual
	totp      *otp.TOTP
	jwt       *jwt.Symmetric
	password  hash.Hash
	encryptor mfa.Encryptor
}

func newTestEnv(t *testing.T, extraConfig ...string) *testEnv {
	t.Helper()

	cfgText := testConfig
	for _, c := range extraConfig {
		cfgText += c
	}
	cfg, err := config.NewViperFromBytes("yaml", []byte(cfgText))
	require.NoError(t, err)

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	ids, err := uid.NewSnowflake(1)
	require.NoError(t, err)

	clk := clock.NewManual(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))

	tokens, err := jwt.NewHS512(jwt.Config{Secret: bytes.Repeat([]byte("j"), 64), TTL: time.Hour, Clock: clk, UUID: uid.NewUUID()})
	require.NoError(t, err)

	env := &testEnv{
		db:        newMemoryDB(),
		sessions:  newMemorySessions(),
		deliverer: &mockDeliverer{},
		publisher: &mockMessaging{},
		clock:     clk,
		totp:      otp.NewTOTP("Sports Club", 30, 1, potp.DigitsSix),
		jwt:       tokens,
		password:  hash.NewBcrypt(4, ""),
		encryptor: mfa.NewAESGCM(mfa.StaticKeyProvider{KeyBytes: bytes.Repeat([]byte{9}, 32)}),
	}

	env.uc = New(Dependency{
		RepoDB:        env.db,
		RepoMessaging: env.publisher,
		Session:       env.sessions,
		Deliverer:     env.deliverer,
		Validator:     v,
		Config:        cfg,
		Password:      env.password,
		MFAEncryptor:  env.encryptor,
		UID:           ids,
		Code:          otp.NewNumericCode(),
		Totp:          env.totp,
		Clock:         clk,
		JWT:           tokens,
		Instrument:    instrument.NewNoop(),
	})

	return env
}

// seedUser stores a registered member, optionally enrolled in TOTP, and
// returns the plain TOTP secret.
func (e *testEnv) seedUser(t *testing.T, user entity.User, password string, withTOTP bool) string {
	t.Helper()

	h, err := e.password.Hash(password)
	require.NoError(t, err)
	user.PasswordHash = string(h)
	e.db.users[user.ID] = user

	if !withTOTP {
		return ""
	}

	secret, _, err := e.totp.Generate(user.Email)
	require.NoError(t, err)
	sealed, err := mfa.SealString(e.encryptor, secret, totpScope(user.ID))
	require.NoError(t, err)
	e.db.secrets[user.ID] = entity.TOTPSecret{UserID: user.ID, SealedSecret: sealed, Enabled: true}
	return secret
}
