package endpoints

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/marquee/internal/auth"
	"github.com/Nixie-Tech-LLC/marquee/internal/db"
	"github.com/Nixie-Tech-LLC/marquee/internal/http/api"
	"github.com/Nixie-Tech-LLC/marquee/internal/http/api/auth/packets"
	"github.com/Nixie-Tech-LLC/marquee/internal/model"
)

type AccountManager struct {
	issuer *auth.Issuer
	store  db.Store
}

// AuthModule mounts /auth: register and login are public, me needs a token.
func AuthModule(issuer *auth.Issuer, store db.Store) api.Module {
	a := &AccountManager{issuer: issuer, store: store}
	return api.ModuleFunc(func(c *api.Controller) {
		c.PUBLIC_POST("/auth/register", a.register)
		c.PUBLIC_POST("/auth/login", a.login)
		c.GET("/auth/me", a.me)
	})
}

// POST /api/auth/register
func (a *AccountManager) register(ctx *gin.Context) (any, *api.APIError) {
	var request packets.RegisterRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		log.Debug().Err(err).Msg("[auth] register: invalid body")
		return nil, api.BadRequest(err.Error())
	}

	hashed, err := auth.HashPassword(request.Password)
	if err != nil {
		return nil, api.FromError(err, "register")
	}

	// self-registration never grants admin
	user := &model.User{
		Username:       request.Username,
		Email:          request.Email,
		HashedPassword: hashed,
		Role:           model.RoleUser,
	}
	if err := a.store.CreateUser(ctx.Request.Context(), user); err != nil {
		log.Warn().Err(err).Str("email", request.Email).Msg("[auth] register failed")
		return nil, api.FromError(err, "register")
	}

	token, err := a.issuer.GenerateToken(user)
	if err != nil {
		return nil, api.FromError(err, "register")
	}
	log.Info().Int("user", user.ID).Msg("[auth] registered")
	return api.Created(packets.AuthResponse{Token: token, User: user}), nil
}

// POST /api/auth/login
func (a *AccountManager) login(ctx *gin.Context) (any, *api.APIError) {
	var request packets.LoginRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}

	var (
		user *model.User
		err  error
	)
	if request.Email != "" {
		user, err = a.store.GetUserByEmail(ctx.Request.Context(), request.Email)
	} else {
		user, err = a.store.GetUserByUsername(ctx.Request.Context(), request.Username)
	}
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return nil, api.FromError(err, "login")
	}
	if err != nil || !auth.CheckPassword(user.HashedPassword, request.Password) {
		log.Info().Str("email", request.Email).Str("username", request.Username).Msg("[auth] login failed")
		return nil, &api.APIError{Code: http.StatusUnauthorized, Message: auth.ErrInvalidCredentials.Error()}
	}

	token, err := a.issuer.GenerateToken(user)
	if err != nil {
		return nil, api.FromError(err, "login")
	}
	return packets.AuthResponse{Token: token, User: user}, nil
}

// GET /api/auth/me
func (a *AccountManager) me(_ *gin.Context, user *model.User) (any, *api.APIError) {
	return user, nil
}
