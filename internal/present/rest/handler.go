package rest

import (
	"github.com/labstack/echo/v4"

	"github.com/yumetria/tsudoi/internal/domain"
	"github.com/yumetria/tsudoi/internal/present/rest/middleware"
	"github.com/yumetria/tsudoi/internal/present/rest/presenter"
	"github.com/yumetria/tsudoi/internal/service"
	"github.com/yumetria/tsudoi/internal/usecase"
)

const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
)

// GenericResponse reports a fire-and-forget operation as accepted, not
// completed: mail delivery happens in the background.
type GenericResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type UserResponse struct {
	User domain.User `json:"user"`
}

type LoginResponse struct {
	User  domain.User `json:"user"`
	Token string      `json:"token"`
}

type GroupResponse struct {
	Group domain.Group `json:"group"`
}

type GroupsResponse struct {
	Groups []domain.Group `json:"groups"`
}

type Handler struct {
	user  *usecase.UserUsecase
	group *usecase.GroupUsecase
	auth  *service.AuthService
}

func NewHandler(
	user *usecase.UserUsecase,
	group *usecase.GroupUsecase,
	auth *service.AuthService,
) *Handler {
	return &Handler{
		user:  user,
		group: group,
		auth:  auth,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	requireIdentity := authMiddleware.RequireIdentity

	user := e.Group("/api/v1/user")
	user.POST("/register", h.handleRegister)
	user.POST("/login", h.handleLogin)
	user.POST("/recover", h.handleRecover)
	user.GET("", h.handleCurrentUser, requireIdentity)
	user.PUT("", h.handleUpdateUser, requireIdentity)
	user.DELETE("", h.handleDeleteUser, requireIdentity)
	user.PATCH("/activate", h.handleActivate, requireIdentity)
	user.PATCH("/password", h.handleChangePassword, requireIdentity)
	user.POST("/invite", h.handleUserInvite, requireIdentity)
	user.POST("/join", h.handleUserJoin, requireIdentity)

	group := e.Group("/api/v1/groups", requireIdentity)
	group.GET("", h.handleGroups)
	group.GET("/:id", h.handleGroupByID)
	group.POST("", h.handleGroupCreate)
	group.POST("/invite", h.handleGroupInvite)
	group.POST("/join", h.handleGroupJoin)
	group.PUT("/leave/:id", h.handleGroupLeave)
	group.PUT("/kick", h.handleGroupKick)
}

func (h *Handler) identity(c echo.Context) (domain.Identity, bool) {
	return middleware.IdentityFromContext(c.Request().Context())
}

// invitation resolves the separate invitation channel. Join endpoints need
// both this and the authenticated identity.
func (h *Handler) invitation(c echo.Context) (domain.Identity, error) {
	tokenString, err := h.auth.ExtractInvitation(c.Request().Header.Get(domain.HeaderInvitation))
	if err != nil {
		return domain.Identity{}, err
	}
	return h.auth.ResolveInvitation(c.Request().Context(), tokenString)
}

// --- user ---

type registerRequest struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
}

func (h *Handler) handleRegister(c echo.Context) error {
	ctx := c.Request().Context()

	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}
	if req.Email == "" || req.Username == "" || req.Password == "" {
		return presenter.BadRequestMessage(c, "email, username and password are required")
	}

	user, err := h.user.Register(ctx, usecase.RegisterInput{
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		return presenter.Error(c, err)
	}

	return presenter.OK(c, UserResponse{User: user})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(c echo.Context) error {
	ctx := c.Request().Context()

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	user, tokenString, err := h.user.Login(ctx, req.Email, req.Password)
	if err != nil {
		return presenter.Error(c, err)
	}

	return presenter.OK(c, LoginResponse{User: user, Token: tokenString})
}

func (h *Handler) handleCurrentUser(c echo.Context) error {
	identity, ok := h.identity(c)
	if !ok {
		return presenter.Error(c, domain.ErrMissingCredential)
	}
	return presenter.OK(c, UserResponse{User: identity.User})
}

func (h *Handler) handleUpdateUser(c echo.Context) error {
	ctx := c.Request().Context()
	identity, ok := h.identity(c)
	if !ok {
		return presenter.Error(c, domain.ErrMissingCredential)
	}

	var update domain.UserUpdate
	if err := c.Bind(&update); err != nil {
		return presenter.BadRequest(c, err)
	}

	user, err := h.user.Update(ctx, identity, update)
	if err != nil {
		return presenter.Error(c, err)
	}

	h.auth.Invalidate(identity.User.Email)
	return presenter.OK(c, UserResponse{User: user})
}

func (h *Handler) handleDeleteUser(c echo.Context) error {
	ctx := c.Request().Context()
	identity, ok := h.identity(c)
	if !ok {
		return presenter.Error(c, domain.ErrMissingCredential)
	}

	if err := h.user.Delete(ctx, identity); err != nil {
		return presenter.Error(c, err)
	}

	h.auth.Invalidate(identity.User.Email)
	return presenter.OK(c, GenericResponse{
		Status:  StatusCompleted,
		Message: "Account deleted",
	})
}

func (h *Handler) handleActivate(c echo.Context) error {
	ctx := c.Request().Context()
	identity, ok := h.identity(c)
	if !ok {
		return presenter.Error(c, domain.ErrMissingCredential)
	}

	user, err := h.user.Activate(ctx, identity)
	if err != nil {
		return presenter.Error(c, err)
	}

	h.auth.Invalidate(identity.User.Email)
	return presenter.OK(c, UserResponse{User: user})
}

type recoverRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
}

func (h *Handler) handleRecover(c echo.Context) error {
	ctx := c.Request().Context()

	var req recoverRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	userAgent := c.Request().Header.Get("User-Agent")
	if err := h.user.Recover(ctx, req.Email, req.Username, userAgent); err != nil {
		return presenter.Error(c, err)
	}

	return presenter.OK(c, GenericResponse{
		Status:  StatusRunning,
		Message: "Recovery account email has been processed",
	})
}

type passwordRequest struct {
	Password string `json:"password"`
}

func (h *Handler) handleChangePassword(c echo.Context) error {
	ctx := c.Request().Context()
	identity, ok := h.identity(c)
	if !ok {
		return presenter.Error(c, domain.ErrMissingCredential)
	}

	var req passwordRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	user, err := h.user.ChangePassword(ctx, identity, req.Password)
	if err != nil {
		return presenter.Error(c, err)
	}

	h.auth.Invalidate(identity.User.Email)
	return presenter.OK(c, UserResponse{User: user})
}

type userInviteRequest struct {
	Email string `json:"email"`
}

func (h *Handler) handleUserInvite(c echo.Context) error {
	ctx := c.Request().Context()
	identity, ok := h.identity(c)
	if !ok {
		return presenter.Error(c, domain.ErrMissingCredential)
	}

	var req userInviteRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	if err := h.user.Invite(ctx, identity, req.Email); err != nil {
		return presenter.Error(c, err)
	}

	return presenter.OK(c, GenericResponse{
		Status:  StatusRunning,
		Message: "Invite email has been processed",
	})
}

func (h *Handler) handleUserJoin(c echo.Context) error {
	ctx := c.Request().Context()
	identity, ok := h.identity(c)
	if !ok {
		return presenter.Error(c, domain.ErrMissingCredential)
	}

	invitation, err := h.invitation(c)
	if err != nil {
		return presenter.Error(c, err)
	}

	user, err := h.user.AcceptInvitation(ctx, identity, invitation)
	if err != nil {
		return presenter.Error(c, err)
	}

	return presenter.OK(c, UserResponse{User: user})
}

// --- groups ---

func (h *Handler) handleGroups(c echo.Context) error {
	ctx := c.Request().Context()
	identity, ok := h.identity(c)
	if !ok {
		return presenter.Error(c, domain.ErrMissingCredential)
	}

	groups, err := h.group.List(ctx, identity)
	if err != nil {
		return presenter.Error(c, err)
	}

	return presenter.OK(c, GroupsResponse{Groups: groups})
}

func (h *Handler) handleGroupByID(c echo.Context) error {
	ctx := c.Request().Context()
	identity, ok := h.identity(c)
	if !ok {
		return presenter.Error(c, domain.ErrMissingCredential)
	}

	group, err := h.group.Get(ctx, identity, c.Param("id"))
	if err != nil {
		return presenter.Error(c, err)
	}

	return presenter.OK(c, GroupResponse{Group: group})
}

type groupCreateRequest struct {
	Name string `json:"name"`
}

func (h *Handler) handleGroupCreate(c echo.Context) error {
	ctx := c.Request().Context()
	identity, ok := h.identity(c)
	if !ok {
		return presenter.Error(c, domain.ErrMissingCredential)
	}

	var req groupCreateRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}
	if req.Name == "" {
		return presenter.BadRequestMessage(c, "group name is required")
	}

	group, err := h.group.Create(ctx, identity, req.Name)
	if err != nil {
		return presenter.Error(c, err)
	}

	return presenter.OK(c, GroupResponse{Group: group})
}

type groupInviteRequest struct {
	GroupID string `json:"group_id"`
	Email   string `json:"email"`
	Role    string `json:"role"`
}

func (h *Handler) handleGroupInvite(c echo.Context) error {
	ctx := c.Request().Context()
	identity, ok := h.identity(c)
	if !ok {
		return presenter.Error(c, domain.ErrMissingCredential)
	}

	var req groupInviteRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	role, ok := domain.ParseGroupRole(req.Role)
	if !ok {
		return presenter.BadRequestMessage(c, "unknown group role")
	}

	err := h.group.Invite(ctx, identity, usecase.GroupInviteInput{
		GroupID: req.GroupID,
		Email:   req.Email,
		Role:    role,
	})
	if err != nil {
		return presenter.Error(c, err)
	}

	return presenter.OK(c, GenericResponse{
		Status:  StatusRunning,
		Message: "Group invite email has been processed",
	})
}

func (h *Handler) handleGroupJoin(c echo.Context) error {
	ctx := c.Request().Context()
	identity, ok := h.identity(c)
	if !ok {
		return presenter.Error(c, domain.ErrMissingCredential)
	}

	invitation, err := h.invitation(c)
	if err != nil {
		return presenter.Error(c, err)
	}

	group, err := h.group.Join(ctx, identity, invitation)
	if err != nil {
		return presenter.Error(c, err)
	}

	return presenter.OK(c, GroupResponse{Group: group})
}

func (h *Handler) handleGroupLeave(c echo.Context) error {
	ctx := c.Request().Context()
	identity, ok := h.identity(c)
	if !ok {
		return presenter.Error(c, domain.ErrMissingCredential)
	}

	if err := h.group.Leave(ctx, identity, c.Param("id")); err != nil {
		return presenter.Error(c, err)
	}

	return presenter.OK(c, GenericResponse{
		Status:  StatusCompleted,
		Message: "User left the group",
	})
}

type groupKickRequest struct {
	GroupID string `json:"group_id"`
	Email   string `json:"email"`
}

func (h *Handler) handleGroupKick(c echo.Context) error {
	ctx := c.Request().Context()
	identity, ok := h.identity(c)
	if !ok {
		return presenter.Error(c, domain.ErrMissingCredential)
	}

	var req groupKickRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}

	if err := h.group.Kick(ctx, identity, req.GroupID, req.Email); err != nil {
		return presenter.Error(c, err)
	}

	return presenter.OK(c, GenericResponse{
		Status:  StatusCompleted,
		Message: "User kicked out of the group",
	})
}
