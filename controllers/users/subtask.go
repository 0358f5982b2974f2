package users

import (
	"net/http"

	"github.com/ysrbharadwaj/Loomio-sub001/database"
	"github.com/ysrbharadwaj/Loomio-sub001/lifecycle"
	"github.com/ysrbharadwaj/Loomio-sub001/middleware"
	"github.com/ysrbharadwaj/Loomio-sub001/models"
	"github.com/ysrbharadwaj/Loomio-sub001/utils"
)

type CreateSubtaskRequest struct {
	Title      string `json:"title" validate:"required"`
	Position   *int   `json:"position"`
	AssignedTo *uint  `json:"assigned_to"`
}

// POST /tasks/{id}/subtasks
func CreateSubtaskHandler(w http.ResponseWriter, r *http.Request) {
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
	var req CreateSubtaskRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}

	subtask, err := engine().CreateSubtask(taskID, lifecycle.SubtaskInput{
		Title:      req.Title,
		Position:   req.Position,
		AssignedTo: req.AssignedTo,
	}, lifecycle.Actor{UserID: uid})
	if err != nil {
		writeLifecycleErr(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{Success: true, Message: "Subtask created", Data: subtask})
}

// GET /tasks/{id}/subtasks
func SubtaskListHandler(w http.ResponseWriter, r *http.Request) {
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

	db := database.DB
	var task models.Task
	if err := db.First(&task, taskID).Error; err != nil {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Task not found"})
		return
	}
	var self models.Membership
	if err := db.Where("community_id = ? AND user_id = ? AND status = ?", task.CommunityID, uid, "Active").First(&self).Error; err != nil {
		utils.WriteJSON(w, http.StatusForbidden, utils.APIResponse{Success: false, Message: "Not a member of this community"})
		return
	}

	var subtasks []models.Subtask
	db.Where("task_id = ?", taskID).Order("position ASC").Find(&subtasks)

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: subtasks})
}

type UpdateSubtaskStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// PUT /subtasks/{id}/status
func UpdateSubtaskStatusHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}
	subtaskID := pathID(r, "id")
	if subtaskID == 0 {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid subtask id"})
		return
	}
	var req UpdateSubtaskStatusRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}

	subtask, err := engine().UpdateSubtaskStatus(subtaskID, req.Status, lifecycle.Actor{UserID: uid})
	if err != nil {
		writeLifecycleErr(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Subtask updated", Data: subtask})
}

// DELETE /subtasks/{id}
func DeleteSubtaskHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}
	subtaskID := pathID(r, "id")
	if subtaskID == 0 {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid subtask id"})
		return
	}

	if err := engine().DeleteSubtask(subtaskID, lifecycle.Actor{UserID: uid}); err != nil {
		writeLifecycleErr(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Subtask deleted"})
}

type ReorderSubtasksRequest struct {
	SubtaskIDs []uint `json:"subtask_ids" validate:"required"`
}

// PUT /tasks/{id}/subtasks/reorder
func ReorderSubtasksHandler(w http.ResponseWriter, r *http.Request) {
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
	var req ReorderSubtasksRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}
	if len(req.SubtaskIDs) == 0 {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "subtask_ids must not be empty"})
		return
	}

	if err := engine().ReorderSubtasks(taskID, req.SubtaskIDs, lifecycle.Actor{UserID: uid}); err != nil {
		writeLifecycleErr(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Subtasks reordered"})
}
