package handlers

import (
	"net/http"

	"task_manager"
	"task_manager/internal/service"

	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Name     string `json:"name" example:"Alice"`
	Email    string `json:"email" example:"alice@example.com"`
	Password string `json:"password" example:"s3cr3t!"`
	Role     string `json:"role,omitempty" example:"user"`
}

type loginRequest struct {
	Email    string `json:"email" example:"alice@example.com"`
	Password string `json:"password" example:"s3cr3t!"`
}

// @Summary      Register
// @Description  Creates an account. Only role "admin" is honored; anything else registers a user.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration payload"
// @Success      201   {object}  models.PublicUser
// @Failure      400   {object}  task_manager.ErrorResponse
// @Failure      409   {object}  task_manager.ErrorResponse
// @Failure      429   {object}  task_manager.ErrorResponse
// @Router       /auth/register [post]
func (h *Handler) register(c *gin.Context) {
	var input registerRequest
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	user, err := h.services.Register(c.Request.Context(), service.RegisterInput{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
		Role:     input.Role,
	})
	if err != nil {
		h.writeError(c, "auth_register", err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// @Summary      Login
// @Description  Exchanges credentials for a bearer token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  task_manager.LoginResponse
// @Failure      400   {object}  task_manager.ErrorResponse
// @Failure      401   {object}  task_manager.ErrorResponse
// @Failure      429   {object}  task_manager.ErrorResponse
// @Router       /auth/login [post]
func (h *Handler) login(c *gin.Context) {
	var input loginRequest
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	res, err := h.services.Login(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		h.writeError(c, "auth_login", err)
		return
	}

	c.JSON(http.StatusOK, task_manager.LoginResponse{Token: res.Token, User: res.User})
}
