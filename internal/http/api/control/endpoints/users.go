package endpoints

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/marquee/internal/auth"
	"github.com/Nixie-Tech-LLC/marquee/internal/db"
	"github.com/Nixie-Tech-LLC/marquee/internal/http/api"
	"github.com/Nixie-Tech-LLC/marquee/internal/http/api/control/packets"
	"github.com/Nixie-Tech-LLC/marquee/internal/model"
)

type UserController struct {
	store db.Store
}

// UserModule mounts /users. Everything but reading your own account is admin only.
func UserModule(store db.Store) api.Module {
	ctl := &UserController{store: store}
	return api.ModuleFunc(func(c *api.Controller) {
		c.ADMIN_GET("/users", ctl.listUsers)
		c.GET("/users/:id", ctl.getUser)
		c.ADMIN_POST("/users", ctl.createUser)
		c.ADMIN_PUT("/users/:id", ctl.updateUser)
		c.ADMIN_DELETE("/users/:id", ctl.deleteUser)
	})
}

func (u *UserController) listUsers(ctx *gin.Context, _ *model.User) (any, *api.APIError) {
	users, err := u.store.ListUsers(ctx.Request.Context())
	if err != nil {
		return nil, api.FromError(err, "list users")
	}
	return users, nil
}

func (u *UserController) getUser(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, apiErr := pathID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	if id != user.ID && !user.IsAdmin() {
		log.Warn().Int("user", user.ID).Int("target", id).Msg("[users] forbidden getUser")
		return nil, &api.APIError{Code: http.StatusForbidden, Message: "forbidden"}
	}
	found, err := u.store.GetUserByID(ctx.Request.Context(), id)
	if err != nil {
		return nil, api.FromError(err, "get user")
	}
	return found, nil
}

func (u *UserController) createUser(ctx *gin.Context, admin *model.User) (any, *api.APIError) {
	var req packets.CreateUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, bindError(err)
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, api.FromError(err, "create user")
	}
	created := &model.User{Username: req.Username, Email: req.Email, HashedPassword: hashed, Role: req.Role}
	if err := u.store.CreateUser(ctx.Request.Context(), created); err != nil {
		return nil, api.FromError(err, "create user")
	}

	log.Info().Int("id", created.ID).Str("role", string(created.Role)).Int("admin", admin.ID).Msg("[users] created")
	return api.Created(created), nil
}

func (u *UserController) updateUser(ctx *gin.Context, admin *model.User) (any, *api.APIError) {
	id, apiErr := pathID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}

	var req packets.UpdateUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		return nil, bindError(err)
	}

	update := model.UserUpdate{Username: req.Username, Email: req.Email, Role: req.Role}
	if req.Password != nil {
		hashed, err := auth.HashPassword(*req.Password)
		if err != nil {
			return nil, api.FromError(err, "update user")
		}
		update.HashedPassword = &hashed
	}

	updated, err := u.store.UpdateUser(ctx.Request.Context(), id, update)
	if err != nil {
		return nil, api.FromError(err, "update user")
	}

	log.Info().Int("id", id).Int("admin", admin.ID).Msg("[users] updated")
	return updated, nil
}

func (u *UserController) deleteUser(ctx *gin.Context, admin *model.User) (any, *api.APIError) {
	id, apiErr := pathID(ctx, "id")
	if apiErr != nil {
		return nil, apiErr
	}
	if id == admin.ID {
		return nil, api.BadRequest("cannot delete your own account")
	}
	if err := u.store.DeleteUser(ctx.Request.Context(), id); err != nil {
		return nil, api.FromError(err, "delete user")
	}

	log.Info().Int("id", id).Int("admin", admin.ID).Msg("[users] deleted")
	return packets.MessageResponse{Message: "user deleted"}, nil
}
