package backend

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"k8s.io/utils/clock"

	"github.com/goliatone/go-authflow/pkg/errmap"
	"github.com/goliatone/go-authflow/pkg/i18n"
	"github.com/goliatone/go-authflow/pkg/model"
	"github.com/goliatone/go-authflow/pkg/rules"
)

// Latencies of the original screens' stand-in requests.
const (
	DefaultSendDelay       = time.Second
	DefaultVerifyDelay     = 1500 * time.Millisecond
	DefaultSubmitDelay     = 2 * time.Second
	DefaultDeactivateDelay = time.Second
	DefaultCodeTTL         = 5 * time.Minute
)

var (
	ErrInvalidPhone       = errors.New("backend: invalid phone")
	ErrInvalidCode        = errors.New("backend: invalid or expired verification code")
	ErrDuplicateAccount   = errors.New("backend: account already registered")
	ErrUnknownAccount     = errors.New("backend: unknown account")
	ErrInvalidCredentials = errors.New("backend: invalid credentials")
)

// Account is a registered user.
type Account struct {
	ID           string
	Username     string
	Phone        string
	CompanyName  string
	USCC         string
	PermitNo     string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type issuedCode struct {
	code     string
	expires  time.Time
	verified bool
}

// Option configures a Simulated backend.
type Option func(*Simulated)

// WithClock injects the clock used for delays and code expiry.
func WithClock(c clock.Clock) Option {
	return func(s *Simulated) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Simulated) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDelays overrides the simulated latency of send, verify and submit
// (registration, password reset, login) requests.
func WithDelays(send, verify, submit time.Duration) Option {
	return func(s *Simulated) {
		s.sendDelay, s.verifyDelay, s.submitDelay = send, verify, submit
	}
}

// WithDeactivateDelay overrides the simulated latency of Deactivate.
func WithDeactivateDelay(d time.Duration) Option {
	return func(s *Simulated) {
		s.deactivateDelay = d
	}
}

// WithCodeTTL sets how long an issued code stays valid.
func WithCodeTTL(ttl time.Duration) Option {
	return func(s *Simulated) {
		if ttl > 0 {
			s.codeTTL = ttl
		}
	}
}

// WithFixedCode makes every issued code equal code. Intended for demos only.
func WithFixedCode(code string) Option {
	return func(s *Simulated) {
		s.fixedCode = strings.TrimSpace(code)
	}
}

// WithCodeLength sets the number of digits of issued codes.
func WithCodeLength(n int) Option {
	return func(s *Simulated) {
		if n > 0 {
			s.codeLength = n
		}
	}
}

// WithHashParams overrides the argon2id parameters.
func WithHashParams(params HashParams) Option {
	return func(s *Simulated) {
		s.hashParams = params
	}
}

// WithRandom replaces the entropy source used for codes.
func WithRandom(r io.Reader) Option {
	return func(s *Simulated) {
		if r != nil {
			s.random = r
		}
	}
}

// Simulated is an in-memory backend. It is safe for concurrent use.
type Simulated struct {
	clock           clock.Clock
	logger          *zap.Logger
	sendDelay       time.Duration
	verifyDelay     time.Duration
	submitDelay     time.Duration
	deactivateDelay time.Duration
	codeTTL         time.Duration
	codeLength      int
	fixedCode       string
	hashParams      HashParams
	random          io.Reader

	mu       sync.Mutex
	codes    map[string]*issuedCode
	accounts map[string]*Account
	byPhone  map[string]string
	byUSCC   map[string]string
}

// New returns a Simulated backend with the default latencies.
func New(options ...Option) *Simulated {
	s := &Simulated{
		clock:           clock.RealClock{},
		logger:          zap.NewNop(),
		sendDelay:       DefaultSendDelay,
		verifyDelay:     DefaultVerifyDelay,
		submitDelay:     DefaultSubmitDelay,
		deactivateDelay: DefaultDeactivateDelay,
		codeTTL:         DefaultCodeTTL,
		codeLength:      rules.DefaultCodeLength,
		hashParams:      DefaultHashParams,
		random:          rand.Reader,
		codes:           make(map[string]*issuedCode),
		accounts:        make(map[string]*Account),
		byPhone:         make(map[string]string),
		byUSCC:          make(map[string]string),
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// SendVerificationCode issues a new code for phone, replacing any previous
// one.
func (s *Simulated) SendVerificationCode(ctx context.Context, phone string) error {
	if err := s.wait(ctx, s.sendDelay); err != nil {
		return err
	}
	if !rules.IsPhone(phone) {
		return errmap.FieldError("phone", i18n.KeyPhoneInvalid, ErrInvalidPhone)
	}
	code, err := s.newCode()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.codes[phone] = &issuedCode{code: code, expires: s.clock.Now().Add(s.codeTTL)}
	s.mu.Unlock()

	s.logger.Info("verification code issued", zap.String("phone", phone), zap.String("code", code), zap.Duration("ttl", s.codeTTL))
	return nil
}

// VerifyCode reports whether code is the live code issued for phone. A
// successful check marks the code as verified for a later submission.
func (s *Simulated) VerifyCode(ctx context.Context, phone, code string) (bool, error) {
	if err := s.wait(ctx, s.verifyDelay); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	issued, ok := s.liveCodeLocked(phone)
	if !ok || issued.code != code {
		return false, nil
	}
	issued.verified = true
	return true, nil
}

// LastCode returns the live code issued for phone.
func (s *Simulated) LastCode(phone string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	issued, ok := s.liveCodeLocked(phone)
	if !ok {
		return "", false
	}
	return issued.code, true
}

// SubmitRegistration creates an account from the registration form. The
// form's smsCode must match the live code issued for its phone, so a code
// re-sent after verification is accepted once entered; duplicate phones and
// business ids are reported as a field payload.
func (s *Simulated) SubmitRegistration(ctx context.Context, form model.FormState) error {
	if err := s.wait(ctx, s.submitDelay); err != nil {
		return err
	}
	phone := form.Get("phone")
	uscc := form.Get("uscc")

	s.mu.Lock()
	defer s.mu.Unlock()

	issued, ok := s.liveCodeLocked(phone)
	if !ok || issued.code != form.Get("smsCode") {
		return errmap.FieldError("smsCode", i18n.KeyCodeRejected, ErrInvalidCode)
	}

	payload := make(map[string][]string)
	if _, taken := s.byPhone[phone]; taken {
		payload["/body/phone"] = []string{i18n.KeyPhoneTaken}
	}
	if _, taken := s.byUSCC[uscc]; taken && uscc != "" {
		payload["/body/uscc"] = []string{i18n.KeyUSCCTaken}
	}
	if len(payload) > 0 {
		return &errmap.PayloadError{Payload: payload, Err: ErrDuplicateAccount}
	}

	hash, err := HashPassword(form.Get("password"), s.hashParams)
	if err != nil {
		return err
	}
	now := s.clock.Now()
	account := &Account{
		ID:           uuid.NewString(),
		Username:     form.Get("username"),
		Phone:        phone,
		CompanyName:  strings.TrimSpace(form.Get("companyName")),
		USCC:         uscc,
		PermitNo:     form.Get("permitNo"),
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.storeLocked(account)
	delete(s.codes, phone)

	s.logger.Info("account registered", zap.String("account", account.ID), zap.String("phone", phone))
	return nil
}

// SubmitPasswordReset replaces the password of the account registered for
// the form's phone. The live code must have passed VerifyCode or match the
// form's verifyCode.
func (s *Simulated) SubmitPasswordReset(ctx context.Context, form model.FormState) error {
	if err := s.wait(ctx, s.submitDelay); err != nil {
		return err
	}
	phone := form.Get("phone")

	s.mu.Lock()
	defer s.mu.Unlock()

	issued, ok := s.liveCodeLocked(phone)
	if !ok || (!issued.verified && issued.code != form.Get("verifyCode")) {
		return errmap.FieldError("verifyCode", i18n.KeyCodeRejected, ErrInvalidCode)
	}
	id, ok := s.byPhone[phone]
	if !ok {
		return errmap.FieldError("phone", i18n.KeyAccountMissing, ErrUnknownAccount)
	}
	hash, err := HashPassword(form.Get("newPassword"), s.hashParams)
	if err != nil {
		return err
	}
	account := s.accounts[id]
	account.PasswordHash = hash
	account.UpdatedAt = s.clock.Now()
	delete(s.codes, phone)

	s.logger.Info("password reset", zap.String("account", id))
	return nil
}

// Login checks phone and password against the registered accounts. Failures
// are form-level so they do not reveal which credential was wrong.
func (s *Simulated) Login(ctx context.Context, phone, password string) error {
	if err := s.wait(ctx, s.submitDelay); err != nil {
		return err
	}
	s.mu.Lock()
	account, ok := s.accountLocked(phone)
	var hash string
	if ok {
		hash = account.PasswordHash
	}
	s.mu.Unlock()

	if !ok {
		return &errmap.OperationError{Message: i18n.KeyLoginFailed, Err: ErrInvalidCredentials}
	}
	match, err := VerifyPassword(password, hash)
	if err != nil {
		return fmt.Errorf("backend: verify password: %w", err)
	}
	if !match {
		return &errmap.OperationError{Message: i18n.KeyLoginFailed, Err: ErrInvalidCredentials}
	}
	s.logger.Info("login succeeded", zap.String("account", account.ID))
	return nil
}

// Deactivate deletes the account registered for phone once password matches.
// Failures are form-level, like Login, and leave the account in place.
func (s *Simulated) Deactivate(ctx context.Context, phone, password string) error {
	if err := s.wait(ctx, s.deactivateDelay); err != nil {
		return err
	}
	s.mu.Lock()
	account, ok := s.accountLocked(phone)
	var hash string
	if ok {
		hash = account.PasswordHash
	}
	s.mu.Unlock()

	if !ok {
		return &errmap.OperationError{Message: i18n.KeyDeactivateFailed, Err: ErrUnknownAccount}
	}
	match, err := VerifyPassword(password, hash)
	if err != nil {
		return fmt.Errorf("backend: verify password: %w", err)
	}
	if !match {
		return &errmap.OperationError{Message: i18n.KeyDeactivateFailed, Err: ErrInvalidCredentials}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok = s.accountLocked(phone)
	if !ok {
		return &errmap.OperationError{Message: i18n.KeyDeactivateFailed, Err: ErrUnknownAccount}
	}
	delete(s.accounts, account.ID)
	delete(s.byPhone, account.Phone)
	if account.USCC != "" {
		delete(s.byUSCC, account.USCC)
	}
	delete(s.codes, phone)

	s.logger.Info("account deactivated", zap.String("account", account.ID))
	return nil
}

// Seed registers an account directly, bypassing verification. It is used to
// prepare demo data.
func (s *Simulated) Seed(username, phone, password string) (Account, error) {
	if !rules.IsPhone(phone) {
		return Account{}, fmt.Errorf("%w: %q", ErrInvalidPhone, phone)
	}
	hash, err := HashPassword(password, s.hashParams)
	if err != nil {
		return Account{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byPhone[phone]; taken {
		return Account{}, fmt.Errorf("%w: %s", ErrDuplicateAccount, phone)
	}
	now := s.clock.Now()
	account := &Account{
		ID:           uuid.NewString(),
		Username:     username,
		Phone:        phone,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.storeLocked(account)
	return *account, nil
}

// Account returns the account registered for phone.
func (s *Simulated) Account(phone string) (Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accountLocked(phone)
	if !ok {
		return Account{}, false
	}
	return *account, true
}

func (s *Simulated) storeLocked(account *Account) {
	s.accounts[account.ID] = account
	s.byPhone[account.Phone] = account.ID
	if account.USCC != "" {
		s.byUSCC[account.USCC] = account.ID
	}
}

func (s *Simulated) accountLocked(phone string) (*Account, bool) {
	id, ok := s.byPhone[phone]
	if !ok {
		return nil, false
	}
	account, ok := s.accounts[id]
	return account, ok
}

func (s *Simulated) liveCodeLocked(phone string) (*issuedCode, bool) {
	issued, ok := s.codes[phone]
	if !ok {
		return nil, false
	}
	if !s.clock.Now().Before(issued.expires) {
		delete(s.codes, phone)
		return nil, false
	}
	return issued, true
}

func (s *Simulated) newCode() (string, error) {
	if s.fixedCode != "" {
		return s.fixedCode, nil
	}
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(s.codeLength)), nil)
	n, err := rand.Int(s.random, limit)
	if err != nil {
		return "", fmt.Errorf("backend: generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", s.codeLength, n), nil
}

func (s *Simulated) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := s.clock.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
