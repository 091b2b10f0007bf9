package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/oggyb/model-agency/internal/app"
	"github.com/oggyb/model-agency/internal/auth"
	"github.com/oggyb/model-agency/internal/db"
	svcErr "github.com/oggyb/model-agency/internal/errors"
	"github.com/oggyb/model-agency/internal/repository"
	"github.com/oggyb/model-agency/internal/utils/validate"
)

// RegisterInput signs up a model.
type RegisterInput struct {
	Email        string `json:"email" validate:"required,email,max=191"`
	Password     string `json:"password" validate:"required,min=8,max=72"`
	Name         string `json:"name" validate:"max=128"`
	ArtisticName string `json:"artisticName" validate:"required,min=2,max=128"`
}

// LoginResult carries the bearer token for subsequent requests.
type LoginResult struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expiresAt"`
	User      *auth.Identity `json:"user"`
}

// Service handles sign-up, login and logout.
type Service struct {
	users    *repository.UserRepository
	profiles *repository.ProfileRepository
	signer   *auth.Signer
	now      func() time.Time
	log      *slog.Logger
}

func NewService(appCtx *app.AppContext, gate *auth.Gate) *Service {
	return &Service{
		users:    repository.NewUserRepository(appCtx.DB),
		profiles: repository.NewProfileRepository(appCtx.DB),
		signer:   gate.Signer(),
		now:      appCtx.Now,
		log:      appCtx.Logger,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a MODEL user and its PENDING profile together.
//
// Behavior:
//   - Email is compared case-insensitively; a taken email is InvalidInput.
//   - The profile slug derives from the artistic name and is made unique
//     with a numeric suffix.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*db.User, error) {
	in.Email = normalizeEmail(in.Email)
	in.ArtisticName = strings.TrimSpace(in.ArtisticName)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	taken, err := s.users.EmailExists(ctx, in.Email)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	if taken {
		return nil, svcErr.InvalidInput("email already registered")
	}

	slug, err := s.uniqueSlug(ctx, in.ArtisticName)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, svcErr.Internal(fmt.Errorf("hash password: %w", err))
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = in.ArtisticName
	}
	user := &db.User{
		Email:        in.Email,
		Name:         name,
		Role:         db.RoleModel,
		PasswordHash: string(hash),
		Profile: &db.Profile{
			Slug:         slug,
			ArtisticName: in.ArtisticName,
			Status:       db.StatusPending,
		},
	}
	if err := s.users.Create(ctx, user); err != nil {
		// lost a race on the email or slug unique index
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if taken, _ := s.users.EmailExists(ctx, in.Email); taken {
				return nil, svcErr.InvalidInput("email already registered")
			}
			return nil, svcErr.InvalidInput("profile name just got taken, try again")
		}
		return nil, svcErr.Map(err)
	}
	s.log.Info("model registered", "user_id", user.ID, "profile_id", user.Profile.ID, "slug", slug)
	return user, nil
}

func (s *Service) uniqueSlug(ctx context.Context, name string) (string, error) {
	base := Slugify(name)
	slug := base
	for i := 2; ; i++ {
		exists, err := s.profiles.SlugExists(ctx, slug)
		if err != nil {
			return "", err
		}
		if !exists {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

// Slugify lowercases name and joins its ASCII letters and digits with dashes.
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		return "model"
	}
	return slug
}

// Login checks credentials and opens a session.
// Unknown email and wrong password fail the same way.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, svcErr.Unauthenticated("invalid credentials")
		}
		return nil, svcErr.Map(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, svcErr.Unauthenticated("invalid credentials")
	}

	now := s.now()
	session := &db.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.signer.TTL()),
	}
	token, err := s.signer.Issue(user, session.ID, now)
	if err != nil {
		return nil, svcErr.Internal(err)
	}
	session.TokenHash = auth.HashToken(token)
	if err := s.users.CreateSession(ctx, session); err != nil {
		return nil, svcErr.Map(err)
	}

	return &LoginResult{
		Token:     token,
		ExpiresAt: session.ExpiresAt,
		User: &auth.Identity{
			UserID:    user.ID,
			SessionID: session.ID,
			Email:     user.Email,
			Name:      user.Name,
			Role:      user.Role,
		},
	}, nil
}

// Logout revokes the caller's session.
func (s *Service) Logout(ctx context.Context, caller *auth.Identity) error {
	if caller == nil {
		return svcErr.Unauthenticated("authentication required")
	}
	if err := s.users.RevokeSession(ctx, caller.SessionID, s.now()); err != nil {
		return svcErr.Map(err)
	}
	return nil
}
