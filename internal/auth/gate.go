// Package auth resolves the caller of a request from its bearer token and
// exposes the result to gin handlers.
package auth

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oggyb/model-agency/internal/app"
	"github.com/oggyb/model-agency/internal/db"
	"github.com/oggyb/model-agency/internal/repository"
)

const identityKey = "auth.identity"

// Identity is the authenticated caller.
type Identity struct {
	UserID    string  `json:"id"`
	SessionID string  `json:"-"`
	Email     string  `json:"email"`
	Name      string  `json:"name"`
	Role      db.Role `json:"role"`
}

func (i *Identity) IsAdmin() bool { return i != nil && i.Role == db.RoleAdmin }

func (i *Identity) IsModel() bool { return i != nil && i.Role == db.RoleModel }

// Gate checks bearer tokens against the session table.
type Gate struct {
	signer *Signer
	users  *repository.UserRepository
	now    func() time.Time
	log    *slog.Logger
}

func NewGate(appCtx *app.AppContext) *Gate {
	return &Gate{
		signer: NewSigner(appCtx.Config.Auth.JWTSecret, appCtx.Config.Auth.TokenTTL),
		users:  repository.NewUserRepository(appCtx.DB),
		now:    appCtx.Now,
		log:    appCtx.Logger,
	}
}

// Signer exposes the token signer so login can issue tokens the gate accepts.
func (g *Gate) Signer() *Signer { return g.signer }

// CurrentUser returns the caller of r, or nil when the token is missing,
// malformed, expired, bound to a revoked or expired session, or names an
// unknown user.
func (g *Gate) CurrentUser(r *http.Request) *Identity {
	token := bearer(r)
	if token == "" {
		return nil
	}
	claims, err := g.signer.Parse(token)
	if err != nil {
		return nil
	}

	ctx := r.Context()
	session, err := g.users.FindSession(ctx, claims.SessionID)
	if err != nil {
		return nil
	}
	if session.UserID != claims.Subject || session.TokenHash != HashToken(token) || !session.Active(g.now()) {
		return nil
	}

	user, err := g.users.FindByID(ctx, claims.Subject)
	if err != nil {
		g.log.Debug("session names unknown user", "user_id", claims.Subject, "err", err)
		return nil
	}
	return &Identity{
		UserID:    user.ID,
		SessionID: session.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
	}
}

// RequireAdmin is CurrentUser restricted to ADMIN callers.
func (g *Gate) RequireAdmin(r *http.Request) *Identity {
	id := g.CurrentUser(r)
	if !id.IsAdmin() {
		return nil
	}
	return id
}

// Middleware resolves the caller once per request and stores it on the gin
// context. Anonymous requests pass through; handlers decide what they need.
func (g *Gate) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id := g.CurrentUser(c.Request); id != nil {
			c.Set(identityKey, id)
		}
		c.Next()
	}
}

// FromContext returns the identity stored by Middleware, or nil.
func FromContext(c *gin.Context) *Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	id, _ := v.(*Identity)
	return id
}

func bearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) < 8 || !strings.EqualFold(h[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}
