package api

import (
	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/marquee/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/marquee/internal/model"
)

// Controller is the gin group a Module mounts onto. GET, POST, PUT and DELETE
// require a signed-in user, the PUBLIC_ variants do not, and the ADMIN_
// variants also require the admin role.
type Controller struct {
	Group *gin.RouterGroup

	// authenticate runs before authenticated routes. Nil when the whole
	// group is already behind the JWT middleware.
	authenticate gin.HandlerFunc
}

func (c *Controller) authed(h HandlerFuncWithAuth, extra ...gin.HandlerFunc) []gin.HandlerFunc {
	var chain []gin.HandlerFunc
	if c.authenticate != nil {
		chain = append(chain, c.authenticate)
	}
	chain = append(chain, extra...)
	return append(chain, ResolveEndpointWithAuth(h))
}

func (c *Controller) GET(path string, h HandlerFuncWithAuth) {
	c.Group.GET(path, c.authed(h)...)
}

func (c *Controller) POST(path string, h HandlerFuncWithAuth) {
	c.Group.POST(path, c.authed(h)...)
}

func (c *Controller) PUT(path string, h HandlerFuncWithAuth) {
	c.Group.PUT(path, c.authed(h)...)
}

func (c *Controller) DELETE(path string, h HandlerFuncWithAuth) {
	c.Group.DELETE(path, c.authed(h)...)
}

func (c *Controller) PUBLIC_GET(path string, h HandlerFunc) {
	c.Group.GET(path, ResolveEndpoint(h))
}

func (c *Controller) PUBLIC_POST(path string, h HandlerFunc) {
	c.Group.POST(path, ResolveEndpoint(h))
}

func (c *Controller) ADMIN_GET(path string, h HandlerFuncWithAuth) {
	c.Group.GET(path, c.authed(h, middleware.RequireRole(model.RoleAdmin))...)
}

func (c *Controller) ADMIN_POST(path string, h HandlerFuncWithAuth) {
	c.Group.POST(path, c.authed(h, middleware.RequireRole(model.RoleAdmin))...)
}

func (c *Controller) ADMIN_PUT(path string, h HandlerFuncWithAuth) {
	c.Group.PUT(path, c.authed(h, middleware.RequireRole(model.RoleAdmin))...)
}

func (c *Controller) ADMIN_DELETE(path string, h HandlerFuncWithAuth) {
	c.Group.DELETE(path, c.authed(h, middleware.RequireRole(model.RoleAdmin))...)
}
