package service

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/deefind/detector-server-go/internal/errors"
	"github.com/deefind/detector-server-go/internal/model"
	"github.com/deefind/detector-server-go/internal/storage"
	"github.com/deefind/detector-server-go/internal/util"
)

const minPasswordLength = 6

// AccountService manages the registered account list and the single active
// session. Accounts are mock records: no real password hashing, no payment
// step. The account list and the session live under separate storage keys;
// the session is the sole signal for logged-in state.
type AccountService struct {
	mu      sync.Mutex
	store   storage.Store
	current *model.Session
}

func NewAccountService(ctx context.Context, store storage.Store) (*AccountService, error) {
	s := &AccountService{store: store}
	if err := s.loadSession(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *AccountService) loadSession(ctx context.Context) error {
	raw, ok, err := s.store.Get(ctx, storage.SessionKey)
	if err != nil {
		return apperrors.Storage(err)
	}
	if !ok {
		return nil
	}

	var session model.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		log.Warn().Err(err).Msg("stored session unreadable, treating as logged out")
		return nil
	}
	s.current = &session
	return nil
}

// Register creates an account and signs it in. Registration currently grants
// the premium plan outright; there is no payment step wired in yet.
func (s *AccountService) Register(ctx context.Context, params model.RegisterParams) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if params.Email == "" || params.Password == "" || params.Name == "" {
		return nil, apperrors.Validation("All fields are required")
	}
	if len(params.Password) < minPasswordLength {
		return nil, apperrors.Validation("Password must be at least 6 characters")
	}
	if !strings.Contains(params.Email, "@") {
		return nil, apperrors.Validation("Invalid email address")
	}

	accounts, err := s.accounts(ctx)
	if err != nil {
		return nil, err
	}
	for _, a := range accounts {
		if a.Email == params.Email {
			return nil, apperrors.DuplicateAccount()
		}
	}

	account := model.Account{
		ID:               newAccountID(),
		Email:            params.Email,
		PasswordDigest:   util.Digest(params.Password),
		Name:             params.Name,
		Plan:             model.PlanPremium,
		SubscriptionDate: time.Now(),
		DetectionsUsed:   0,
	}

	accounts = append(accounts, account)
	if err := s.saveAccounts(ctx, accounts); err != nil {
		return nil, err
	}
	if err := s.setSession(ctx, model.NewSession(&account)); err != nil {
		return nil, err
	}

	log.Info().Str("accountId", account.ID).Str("plan", string(account.Plan)).Msg("account registered")

	return &account, nil
}

// Login matches on exact email plus digest equality. An existing session is
// simply overwritten; there is no "already logged in" guard.
func (s *AccountService) Login(ctx context.Context, params model.LoginParams) (*model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts, err := s.accounts(ctx)
	if err != nil {
		return nil, err
	}

	digest := util.Digest(params.Password)
	for i := range accounts {
		a := &accounts[i]
		if a.Email == params.Email && a.PasswordDigest == digest {
			if err := s.setSession(ctx, model.NewSession(a)); err != nil {
				return nil, err
			}
			log.Info().Str("accountId", a.ID).Msg("account logged in")
			return a, nil
		}
	}

	return nil, apperrors.AuthenticationFailed()
}

// Logout clears the session. Logging out twice is a no-op.
func (s *AccountService) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(ctx, storage.SessionKey); err != nil {
		return apperrors.Storage(err)
	}
	s.current = nil
	return nil
}

func (s *AccountService) IsLoggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

func (s *AccountService) IsPremium() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil && s.current.Plan == model.PlanPremium
}

// Current returns the active session, or nil when logged out.
func (s *AccountService) Current() *model.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	session := *s.current
	return &session
}

func (s *AccountService) accounts(ctx context.Context) ([]model.Account, error) {
	raw, ok, err := s.store.Get(ctx, storage.AccountsKey)
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	if !ok {
		return nil, nil
	}

	var accounts []model.Account
	if err := json.Unmarshal(raw, &accounts); err != nil {
		log.Warn().Err(err).Msg("stored account list unreadable, treating as empty")
		return nil, nil
	}
	return accounts, nil
}

func (s *AccountService) saveAccounts(ctx context.Context, accounts []model.Account) error {
	raw, err := json.Marshal(accounts)
	if err != nil {
		return apperrors.Storage(err)
	}
	if err := s.store.Set(ctx, storage.AccountsKey, raw); err != nil {
		return apperrors.Storage(err)
	}
	return nil
}

func (s *AccountService) setSession(ctx context.Context, session *model.Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return apperrors.Storage(err)
	}
	if err := s.store.Set(ctx, storage.SessionKey, raw); err != nil {
		return apperrors.Storage(err)
	}
	s.current = session
	return nil
}

func newAccountID() string {
	return "user_" + strconv.FormatInt(time.Now().UnixMilli(), 10)
}
