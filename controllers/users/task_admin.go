package users

import (
	"net/http"
	"time"

	"github.com/ysrbharadwaj/Loomio-sub001/lifecycle"
	"github.com/ysrbharadwaj/Loomio-sub001/middleware"
	"github.com/ysrbharadwaj/Loomio-sub001/utils"
)

// Community-admin task management. Role checks live in the lifecycle engine,
// so these handlers just translate HTTP into engine calls.

type CreateTaskRequest struct {
	Title        string     `json:"title" validate:"required"`
	Description  string     `json:"description"`
	Priority     string     `json:"priority"`
	TaskType     string     `json:"task_type"`
	MaxAssignees int        `json:"max_assignees"`
	Deadline     *time.Time `json:"deadline"`
	Tags         []string   `json:"tags"`
}

// POST /communities/{id}/tasks
func CreateTaskHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}
	communityID := pathID(r, "id")
	if communityID == 0 {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid community id"})
		return
	}
	var req CreateTaskRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}

	task, err := engine().CreateTask(communityID, lifecycle.TaskInput{
		Title:        req.Title,
		Description:  req.Description,
		Priority:     req.Priority,
		TaskType:     req.TaskType,
		MaxAssignees: req.MaxAssignees,
		Deadline:     req.Deadline,
		Tags:         req.Tags,
	}, lifecycle.Actor{UserID: uid})
	if err != nil {
		writeLifecycleErr(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{Success: true, Message: "Task created", Data: task})
}

type UpdateTaskRequest struct {
	Title        *string    `json:"title"`
	Description  *string    `json:"description"`
	Priority     *string    `json:"priority"`
	Deadline     *time.Time `json:"deadline"`
	MaxAssignees *int       `json:"max_assignees"`
	Tags         []string   `json:"tags"`
}

// PUT /tasks/{id}
func UpdateTaskHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}
	taskID := pathID(r, "id")
	if taskID == 0 {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid task id"})
		return
	}
	var req UpdateTaskRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}

	task, err := engine().UpdateTask(taskID, lifecycle.TaskUpdate{
		Title:        req.Title,
		Description:  req.Description,
		Priority:     req.Priority,
		Deadline:     req.Deadline,
		MaxAssignees: req.MaxAssignees,
		Tags:         req.Tags,
	}, lifecycle.Actor{UserID: uid})
	if err != nil {
		writeLifecycleErr(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Task updated", Data: task})
}

// DELETE /tasks/{id}
func DeleteTaskHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}
	taskID := pathID(r, "id")
	if taskID == 0 {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid task id"})
		return
	}

	if err := engine().DeleteTask(taskID, lifecycle.Actor{UserID: uid}); err != nil {
		writeLifecycleErr(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Task deleted"})
}

type AssignUsersRequest struct {
	UserIDs []uint `json:"user_ids" validate:"required"`
}

// POST /tasks/{id}/assign
func AssignUsersHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}
	taskID := pathID(r, "id")
	if taskID == 0 {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid task id"})
		return
	}
	var req AssignUsersRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}
	if len(req.UserIDs) == 0 {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "user_ids must not be empty"})
		return
	}

	assignments, err := engine().AssignUsers(taskID, req.UserIDs, lifecycle.Actor{UserID: uid})
	if err != nil {
		writeLifecycleErr(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{Success: true, Message: "Users assigned", Data: assignments})
}

type ReviewRequest struct {
	Action string `json:"action" validate:"required"`
	Notes  string `json:"notes"`
}

// POST /tasks/{id}/review
func ReviewHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}
	taskID := pathID(r, "id")
	if taskID == 0 {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid task id"})
		return
	}
	var req ReviewRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}

	task, err := engine().Review(taskID, req.Action, req.Notes, lifecycle.Actor{UserID: uid})
	if err != nil {
		writeLifecycleErr(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Review recorded", Data: task})
}

// POST /tasks/{id}/assignments/{userId}/review
func ReviewIndividualHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}
	taskID := pathID(r, "id")
	targetID := pathID(r, "userId")
	if taskID == 0 || targetID == 0 {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid path parameters"})
		return
	}
	var req ReviewRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}

	assignment, err := engine().ReviewIndividual(taskID, targetID, req.Action, req.Notes, lifecycle.Actor{UserID: uid})
	if err != nil {
		writeLifecycleErr(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Review recorded", Data: assignment})
}

// DELETE /tasks/{id}/assignments/{userId}
func RevokeHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}
	taskID := pathID(r, "id")
	targetID := pathID(r, "userId")
	if taskID == 0 || targetID == 0 {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid path parameters"})
		return
	}

	if err := engine().Revoke(taskID, targetID, lifecycle.Actor{UserID: uid}); err != nil {
		writeLifecycleErr(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Assignment revoked"})
}
