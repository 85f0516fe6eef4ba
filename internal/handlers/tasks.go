package handlers

import (
	"net/http"

	"task_manager/internal/models"
	"task_manager/internal/service"

	"github.com/gin-gonic/gin"
)

type createTaskRequest struct {
	Title       string `json:"title" example:"Write report"`
	Description string `json:"description" example:"Quarterly numbers"`
	Status      string `json:"status,omitempty" example:"Pending"`
}

// updateTaskRequest has no owner field; ownership cannot be changed.
type updateTaskRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
}

func (r updateTaskRequest) patch() models.TaskPatch {
	return models.TaskPatch{Title: r.Title, Description: r.Description, Status: r.Status}
}

// caller fetches the identity or answers 401 when the middleware did not run.
func (h *Handler) caller(c *gin.Context) (models.Identity, bool) {
	id, ok := callerIdentity(c)
	if !ok {
		abortWithMessage(c, http.StatusUnauthorized, "invalid or expired token")
	}
	return id, ok
}

// @Summary      Create task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        body  body      createTaskRequest  true  "Task"
// @Success      201   {object}  models.Task
// @Failure      400   {object}  task_manager.ErrorResponse
// @Failure      401   {object}  task_manager.ErrorResponse
// @Router       /tasks [post]
// @Security     BearerAuth
func (h *Handler) createTask(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	var input createTaskRequest
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	task, err := h.services.Tasks.Create(c.Request.Context(), caller, service.CreateTaskInput{
		Title:       input.Title,
		Description: input.Description,
		Status:      input.Status,
	})
	if err != nil {
		h.writeError(c, "task_create", err)
		return
	}

	c.JSON(http.StatusCreated, task)
}

// @Summary      List tasks
// @Description  Admins see every task; users see only their own.
// @Tags         tasks
// @Produce      json
// @Success      200  {array}   models.Task
// @Failure      401  {object}  task_manager.ErrorResponse
// @Router       /tasks [get]
// @Security     BearerAuth
func (h *Handler) listTasks(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}

	tasks, err := h.services.Tasks.List(c.Request.Context(), caller)
	if err != nil {
		h.writeError(c, "task_list", err)
		return
	}

	c.JSON(http.StatusOK, tasks)
}

// @Summary      Update task
// @Description  Partial update. Only the owner or an admin may update.
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        id    path      string             true  "Task id"
// @Param        body  body      updateTaskRequest  false  "Fields to change"
// @Success      200   {object}  task_manager.MessageResponse
// @Failure      400   {object}  task_manager.ErrorResponse
// @Failure      401   {object}  task_manager.ErrorResponse
// @Failure      403   {object}  task_manager.ErrorResponse
// @Failure      404   {object}  task_manager.ErrorResponse
// @Router       /tasks/{id} [put]
// @Security     BearerAuth
func (h *Handler) updateTask(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	var input updateTaskRequest
	if ok := h.bindOptionalJSON(c, &input); !ok {
		return
	}

	if err := h.services.Tasks.Update(c.Request.Context(), caller, c.Param("id"), input.patch()); err != nil {
		h.writeError(c, "task_update", err)
		return
	}

	writeMessage(c, http.StatusOK, "Updated")
}

// @Summary      Delete task
// @Description  Only the owner or an admin may delete.
// @Tags         tasks
// @Produce      json
// @Param        id   path      string  true  "Task id"
// @Success      200  {object}  task_manager.MessageResponse
// @Failure      401  {object}  task_manager.ErrorResponse
// @Failure      403  {object}  task_manager.ErrorResponse
// @Failure      404  {object}  task_manager.ErrorResponse
// @Router       /tasks/{id} [delete]
// @Security     BearerAuth
func (h *Handler) deleteTask(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}

	if err := h.services.Tasks.Delete(c.Request.Context(), caller, c.Param("id")); err != nil {
		h.writeError(c, "task_delete", err)
		return
	}

	writeMessage(c, http.StatusOK, "Deleted")
}
