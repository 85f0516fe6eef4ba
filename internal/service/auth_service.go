package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"task_manager/internal/models"
	"task_manager/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultTokenTTL   = time.Hour
	defaultBcryptCost = 10
)

// AuthConfig holds the token and hashing settings.
type AuthConfig struct {
	SigningKey []byte
	TokenTTL   time.Duration
	BcryptCost int
}

// AuthService handles registration, login and token verification.
type AuthService struct {
	users    repository.Users
	cfg      AuthConfig
	recorder Recorder
	validate *validator.Validate

	// dummyHash is compared against when the email is unknown so both
	// login failure paths cost one bcrypt comparison.
	dummyHash []byte
}

func NewAuthService(users repository.Users, cfg AuthConfig, rec Recorder) *AuthService {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = defaultTokenTTL
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = defaultBcryptCost
	}
	if rec == nil {
		rec = nopRecorder{}
	}
	dummy, _ := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), cfg.BcryptCost)
	return &AuthService{
		users:     users,
		cfg:       cfg,
		recorder:  rec,
		validate:  newValidator(),
		dummyHash: dummy,
	}
}

// Claims defines JWT claims. Subject carries the user id.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Register creates a user and returns its public profile.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (models.PublicUser, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if err := s.validateInput(in); err != nil {
		return models.PublicUser{}, err
	}

	existing, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return models.PublicUser{}, fmt.Errorf("lookup email: %w", err)
	}
	if existing != nil {
		return models.PublicUser{}, conflictError(msgEmailInUse)
	}

	hash, err := hashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		return models.PublicUser{}, err
	}

	u := &models.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         models.RequestedRole(in.Role),
	}
	if err := s.users.Create(ctx, u); err != nil {
		// lost a race with a concurrent registration
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return models.PublicUser{}, conflictError(msgEmailInUse)
		}
		return models.PublicUser{}, fmt.Errorf("create user: %w", err)
	}

	s.recorder.Record(ctx, models.AuditEvent{
		Type:      models.EventRegister,
		ActorID:   u.ID,
		SubjectID: u.ID,
		Metadata:  map[string]any{"role": string(u.Role)},
	})
	return u.Public(), nil
}

// Login verifies credentials and issues a session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := s.validateInput(LoginInput{Email: email, Password: password}); err != nil {
		return LoginResult{}, err
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return LoginResult{}, fmt.Errorf("lookup email: %w", err)
	}
	if u == nil {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return LoginResult{}, invalidCredentials()
	}
	if err := verifyPassword(u.PasswordHash, password); err != nil {
		return LoginResult{}, invalidCredentials()
	}

	token, err := s.issueToken(*u, time.Now())
	if err != nil {
		return LoginResult{}, err
	}

	s.recorder.Record(ctx, models.AuditEvent{
		Type:      models.EventLogin,
		ActorID:   u.ID,
		SubjectID: u.ID,
	})
	return LoginResult{Token: token, User: u.Public()}, nil
}

// ParseToken verifies a session token and returns the identity it carries.
func (s *AuthService) ParseToken(accessToken string) (models.Identity, error) {
	token, err := jwt.ParseWithClaims(accessToken, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Ensure HMAC signing is used
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.cfg.SigningKey, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return models.Identity{}, unauthenticated()
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return models.Identity{}, unauthenticated()
	}
	role, ok := models.ParseRole(claims.Role)
	if !ok {
		return models.Identity{}, unauthenticated()
	}

	return models.Identity{UserID: claims.Subject, Email: claims.Email, Role: role}, nil
}

func newValidator() *validator.Validate {
	v := validator.New()
	// length in bytes, unlike max which counts runes
	_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return len(fl.Field().String()) <= limit
	})
	return v
}

func (s *AuthService) validateInput(in any) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate input: %w", err)
	}
	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{
			Field:   strings.ToLower(fe.Field()),
			Message: fieldMessage(fe),
		})
	}
	return validationError(fields...)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "maxbytes":
		return fmt.Sprintf("must be at most %s bytes", fe.Param())
	default:
		return "is invalid"
	}
}

// helper: issue a signed JWT for a user
func (s *AuthService) issueToken(u models.User, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Email: u.Email,
		Role:  string(u.Role),
	})
	signed, err := token.SignedString(s.cfg.SigningKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// helper: hash password safely
func hashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// helper: verify password against hash
func verifyPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
