package handler

import (
    "context"       // provides context with cancellation for DB calls
    "database/sql"  // sql.ErrNoRows for unknown accounts
    "errors"        // errors.Is for sentinel matching
    "net/http"      // HTTP status codes
    "strconv"       // user id conversion
    "strings"       // string manipulation utilities
    "time"          // timeouts for DB calls

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing

    "github.com/iliyamo/event-checkin/internal/config"     // app configuration
    "github.com/iliyamo/event-checkin/internal/middleware" // caller identity
    "github.com/iliyamo/event-checkin/internal/model"      // roles and user records
    "github.com/iliyamo/event-checkin/internal/repository" // repository sentinels
    "github.com/iliyamo/event-checkin/internal/utils"      // token issuing and password rules
)

// UserStore is the account storage the auth endpoints need.
type UserStore interface {
    Create(ctx context.Context, email, password, role string, cost int) (uint64, error)
    GetByEmail(ctx context.Context, email string) (model.User, error)
    GetByID(ctx context.Context, id uint64) (model.User, error)
}

// TokenStore keeps hashed refresh tokens.
type TokenStore interface {
    StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
    Consume(ctx context.Context, tokenHash string, now time.Time) (uint64, error)
    RevokeAllForUser(ctx context.Context, userID uint64, now time.Time) error
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
    Cfg    config.Config
    Users  UserStore
    Tokens TokenStore
}

func NewAuthHandler(cfg config.Config, u UserStore, t TokenStore) *AuthHandler {
    return &AuthHandler{Cfg: cfg, Users: u, Tokens: t}
}

// ----- DTOs -----

type createUserReq struct {
    Email    string `json:"email"`
    Password string `json:"password"`
    Role     string `json:"role"` // STAFF | ADMIN
}
type loginReq struct {
    Email    string `json:"email"`
    Password string `json:"password"`
}
type refreshReq struct {
    RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
    Token   string    `json:"token"`
    Expires time.Time `json:"expires"`
}
type userPart struct {
    ID    uint64 `json:"id"`
    Email string `json:"email"`
    Role  string `json:"role"`
}
type authResp struct {
    User    userPart  `json:"user"`
    Access  tokenPart `json:"access"`
    Refresh tokenPart `json:"refresh"`
}

// issue creates an access/refresh pair and stores the refresh hash.
func (h *AuthHandler) issue(ctx context.Context, u userPart) (authResp, error) {
    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.AccessTTLMin)
    if err != nil {
        return authResp{}, err
    }
    refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
    if err != nil {
        return authResp{}, err
    }
    if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
        return authResp{}, err
    }
    return authResp{
        User:    u,
        Access:  tokenPart{Token: access.Token, Expires: access.Exp},
        Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
    }, nil
}

// Login: verify credentials and return a new token pair.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
    }
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    if req.Email == "" || req.Password == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "email/password required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.GetByEmail(ctx, req.Email)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid credentials"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
    }
    // Same answer for a disabled account as for a wrong password.
    if !u.IsActive || !utils.VerifyPassword(u.PasswordHash, req.Password) {
        return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid credentials"})
    }

    resp, err := h.issue(ctx, userPart{ID: u.ID, Email: u.Email, Role: u.Role})
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"message": "issue tokens failed"})
    }
    return c.JSON(http.StatusOK, resp)
}

// Refresh: consume the presented token and issue a new pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "refresh_token required"})
    }
    hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    // Consume revokes the presented token; replaying it fails.
    userID, err := h.Tokens.Consume(ctx, hash, time.Now().UTC())
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid refresh"})
    }

    u, err := h.Users.GetByID(ctx, userID)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid refresh"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"message": "load user failed"})
    }
    if !u.IsActive {
        return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid refresh"})
    }

    resp, err := h.issue(ctx, userPart{ID: u.ID, Email: u.Email, Role: u.Role})
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"message": "issue tokens failed"})
    }
    return c.JSON(http.StatusOK, resp)
}

// Logout revokes one session when a refresh_token is sent in the body, or
// every session of the caller when only a Bearer access token is present.
// The route is public, so the Authorization header is parsed here.
func (h *AuthHandler) Logout(c echo.Context) error {
    var uid uint64
    if raw, ok := strings.CutPrefix(c.Request().Header.Get("Authorization"), "Bearer "); ok {
        if id, err := utils.ParseAccessToken(h.Cfg.JWTSecret, strings.TrimSpace(raw)); err == nil {
            uid, _ = strconv.ParseUint(id.UserID, 10, 64)
        }
    }

    var req refreshReq
    _ = c.Bind(&req) // an empty or invalid body just means "no refresh token"
    refreshToken := strings.TrimSpace(req.RefreshToken)

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    now := time.Now().UTC()

    if refreshToken != "" {
        if _, err := h.Tokens.Consume(ctx, utils.HashRefreshRaw(refreshToken), now); err != nil {
            if errors.Is(err, repository.ErrInvalidRefresh) {
                return c.JSON(http.StatusUnauthorized, echo.Map{"message": "invalid refresh token"})
            }
            return c.JSON(http.StatusInternalServerError, echo.Map{"message": "logout failed"})
        }
        return c.NoContent(http.StatusNoContent)
    }
    if uid != 0 {
        if err := h.Tokens.RevokeAllForUser(ctx, uid, now); err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"message": "logout failed"})
        }
        return c.NoContent(http.StatusNoContent)
    }
    return c.JSON(http.StatusBadRequest, echo.Map{"message": "provide Authorization header or refresh_token"})
}

// Me: returns the identity carried by the access token.
func (h *AuthHandler) Me(c echo.Context) error {
    return c.JSON(http.StatusOK, echo.Map{
        "user_id": middleware.UserID(c),
        "role":    middleware.Role(c),
    })
}

// CreateUser lets an admin open a scanner (STAFF) or admin account.
func (h *AuthHandler) CreateUser(c echo.Context) error {
    var req createUserReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid body"})
    }
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    if req.Email == "" || !strings.Contains(req.Email, "@") {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "valid email required"})
    }
    if err := utils.CheckPassword(req.Password); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": err.Error()})
    }
    role := strings.ToUpper(strings.TrimSpace(req.Role))
    if role == "" {
        role = model.RoleStaff
    }
    if !model.ValidRole(role) {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "role must be STAFF or ADMIN"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    uid, err := h.Users.Create(ctx, req.Email, req.Password, role, h.Cfg.BcryptCost)
    if err != nil {
        if errors.Is(err, repository.ErrEmailExists) {
            return c.JSON(http.StatusConflict, echo.Map{"message": "email already exists"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"message": "create user failed"})
    }
    return c.JSON(http.StatusCreated, userPart{ID: uid, Email: req.Email, Role: role})
}
