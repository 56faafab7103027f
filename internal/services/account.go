package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/diewo77/go-crm/auth"
	"github.com/diewo77/go-crm/internal/models"
	"github.com/diewo77/go-crm/internal/repository"
	"github.com/diewo77/go-crm/internal/storage"
)

type RegisterInput struct {
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	FirstName string `json:"firstName" validate:"max=100"`
	LastName  string `json:"lastName" validate:"max=100"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ProfileInput replaces the personal and company fields of the account.
type ProfileInput struct {
	FirstName   string `json:"firstName" validate:"max=100"`
	LastName    string `json:"lastName" validate:"max=100"`
	CompanyName string `json:"companyName" validate:"max=255"`
	SIRET       string `json:"siret" validate:"omitempty,numeric,len=14"`
	VATNumber   string `json:"vatNumber" validate:"max=20"`
	Address     string `json:"address" validate:"max=500"`
	City        string `json:"city" validate:"max=100"`
	PostalCode  string `json:"postalCode" validate:"max=20"`
	Country     string `json:"country" validate:"max=100"`
	Phone       string `json:"phone" validate:"max=50"`
	Website     string `json:"website" validate:"omitempty,url,max=255"`
}

// Session is a freshly issued token and the account it belongs to.
type Session struct {
	Token  string       `json:"token"`
	User   *models.User `json:"user"`
	Claims *auth.Claims `json:"-"`
}

type AccountService struct {
	users   *repository.UserRepository
	issuer  *auth.Issuer
	revoker auth.Revoker
	store   storage.ObjectStore
}

func NewAccountService(users *repository.UserRepository, issuer *auth.Issuer, revoker auth.Revoker, store storage.ObjectStore) *AccountService {
	return &AccountService{users: users, issuer: issuer, revoker: revoker, store: store}
}

func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &models.User{Email: in.Email, Password: hash, FirstName: in.FirstName, LastName: in.LastName}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: email already registered", ErrConflict)
		}
		return nil, err
	}
	logrus.WithField("user_id", u.ID).Info("account registered")
	return s.session(u)
}

// Login answers ErrInvalidCredentials for an unknown email and for a wrong
// password alike.
func (s *AccountService) Login(ctx context.Context, in LoginInput) (*Session, error) {
	u, err := s.users.FindByEmail(ctx, in.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(u.Password, in.Password) {
		return nil, ErrInvalidCredentials
	}
	return s.session(u)
}

// Logout revokes the token until it expires.
func (s *AccountService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil || claims.ExpiresAt == nil {
		return nil
	}
	return s.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

func (s *AccountService) session(u *models.User) (*Session, error) {
	token, claims, err := s.issuer.Issue(u.ID)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: u, Claims: claims}, nil
}

func (s *AccountService) Me(ctx context.Context, ownerID uint) (*models.User, error) {
	return s.users.FindByID(ctx, ownerID)
}

// Exists backs auth.SetUserVerifier.
func (s *AccountService) Exists(ctx context.Context, ownerID uint) bool {
	ok, err := s.users.Exists(ctx, ownerID)
	if err != nil {
		logrus.WithError(err).Error("user verification failed")
		return false
	}
	return ok
}

func (s *AccountService) UpdateProfile(ctx context.Context, ownerID uint, in ProfileInput) (*models.User, error) {
	u, err := s.users.FindByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	u.FirstName = in.FirstName
	u.LastName = in.LastName
	u.CompanyName = in.CompanyName
	u.SIRET = in.SIRET
	u.VATNumber = in.VATNumber
	u.Address = in.Address
	u.City = in.City
	u.PostalCode = in.PostalCode
	u.Country = in.Country
	u.Phone = in.Phone
	u.Website = in.Website
	if err := s.users.Save(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// SetLogo stores a new company logo and drops the previous one.
func (s *AccountService) SetLogo(ctx context.Context, ownerID uint, data []byte) (*models.User, error) {
	u, err := s.users.FindByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	key, err := putImage(ctx, s.store, "logos", data)
	if err != nil {
		return nil, err
	}
	old := u.LogoKey
	u.LogoKey = key
	if err := s.users.Save(ctx, u); err != nil {
		return nil, err
	}
	dropObject(ctx, s.store, old)
	return u, nil
}

// Logo returns the stored logo of the account.
func (s *AccountService) Logo(ctx context.Context, ownerID uint) (*storage.Object, error) {
	u, err := s.users.FindByID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if u.LogoKey == "" {
		return nil, ErrNotFound
	}
	return getObject(ctx, s.store, u.LogoKey)
}

func putImage(ctx context.Context, store storage.ObjectStore, prefix string, data []byte) (string, error) {
	ct, err := storage.ImageContentType(data)
	if err != nil {
		return "", err
	}
	key := storage.NewKey(prefix, ct)
	if err := store.Put(ctx, key, data, ct); err != nil {
		return "", err
	}
	return key, nil
}

func getObject(ctx context.Context, store storage.ObjectStore, key string) (*storage.Object, error) {
	obj, err := store.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	return obj, err
}

func dropObject(ctx context.Context, store storage.ObjectStore, key string) {
	if key == "" {
		return
	}
	if err := store.Delete(ctx, key); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("could not delete replaced object")
	}
}
