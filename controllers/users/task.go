package users

import (
	"net/http"
	"strings"

	"github.com/ysrbharadwaj/Loomio-sub001/database"
	"github.com/ysrbharadwaj/Loomio-sub001/middleware"
	"github.com/ysrbharadwaj/Loomio-sub001/models"
	"github.com/ysrbharadwaj/Loomio-sub001/utils"
)

// GET /communities/{id}/tasks
func TaskListHandler(w http.ResponseWriter, r *http.Request) {
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

	db := database.DB
	var self models.Membership
	if err := db.Where("community_id = ? AND user_id = ? AND status = ?", communityID, uid, "Active").First(&self).Error; err != nil {
		utils.WriteJSON(w, http.StatusForbidden, utils.APIResponse{Success: false, Message: "Not a member of this community"})
		return
	}

	page, limit, offset := pageParams(r)
	q := db.Model(&models.Task{}).Where("community_id = ?", communityID)
	if st := r.URL.Query().Get("status"); st != "" {
		q = q.Where("status = ?", st)
	}
	if pr := r.URL.Query().Get("priority"); pr != "" {
		q = q.Where("priority = ?", pr)
	}
	if tag := strings.TrimSpace(r.URL.Query().Get("tag")); tag != "" {
		q = q.Joins("JOIN task_tags ON task_tags.task_id = tasks.id").
			Joins("JOIN tags ON tags.id = task_tags.tag_id").
			Where("tags.name = ?", tag)
	}

	var total int64
	q.Count(&total)

	var tasks []models.Task
	if err := q.Preload("Tags").Order("tasks.created_at DESC").Limit(limit).Offset(offset).Find(&tasks).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	resp := make([]map[string]interface{}, 0, len(tasks))
	for _, t := range tasks {
		var assigneeCount int64
		db.Model(&models.TaskAssignment{}).Where("task_id = ?", t.ID).Count(&assigneeCount)
		var mine models.TaskAssignment
		assignedToMe := db.Where("task_id = ? AND user_id = ?", t.ID, uid).First(&mine).Error == nil

		entry := map[string]interface{}{
			"id":                      t.ID,
			"title":                   t.Title,
			"status":                  t.Status,
			"priority":                t.Priority,
			"task_type":               t.TaskType,
			"max_assignees":           t.MaxAssignees,
			"assignee_count":          assigneeCount,
			"deadline":                t.Deadline,
			"tags":                    t.Tags,
			"subtask_count":           t.SubtaskCount,
			"completed_subtask_count": t.CompletedSubtaskCount,
			"assigned_to_me":          assignedToMe,
		}
		if assignedToMe {
			entry["my_status"] = mine.Status
		}
		resp = append(resp, entry)
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data:    utils.Paginated{Items: resp, Total: total, Page: page, Limit: limit},
	})
}

// GET /tasks/{id}
func TaskDetailHandler(w http.ResponseWriter, r *http.Request) {
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
	if err := db.Preload("Tags").Preload("Assignments").First(&task, taskID).Error; err != nil {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Task not found"})
		return
	}

	var self models.Membership
	if err := db.Where("community_id = ? AND user_id = ? AND status = ?", task.CommunityID, uid, "Active").First(&self).Error; err != nil {
		utils.WriteJSON(w, http.StatusForbidden, utils.APIResponse{Success: false, Message: "Not a member of this community"})
		return
	}

	assignments := make([]map[string]interface{}, 0, len(task.Assignments))
	for _, a := range task.Assignments {
		var user models.User
		_ = db.First(&user, a.UserID).Error
		assignments = append(assignments, map[string]interface{}{
			"user":             user.Summary(),
			"status":           a.Status,
			"assigned_at":      a.AssignedAt,
			"submitted_at":     a.SubmittedAt,
			"completed_at":     a.CompletedAt,
			"submission_link":  a.SubmissionLink,
			"submission_notes": a.SubmissionNotes,
			"review_notes":     a.ReviewNotes,
		})
	}

	var subtasks []models.Subtask
	db.Where("task_id = ?", taskID).Order("position ASC").Find(&subtasks)

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Successfully",
		Data: map[string]interface{}{
			"task":        task,
			"assignments": assignments,
			"subtasks":    subtasks,
		},
	})
}

// POST /tasks/{id}/self-assign
func SelfAssignHandler(w http.ResponseWriter, r *http.Request) {
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

	assignment, err := engine().SelfAssign(taskID, uid)
	if err != nil {
		writeLifecycleErr(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{Success: true, Message: "Task taken", Data: assignment})
}

// POST /tasks/{id}/accept
func AcceptHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}
	taskID := pathID(r, "id")
	assignment, err := engine().Accept(taskID, uid)
	if err != nil {
		writeLifecycleErr(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Assignment accepted", Data: assignment})
}

// POST /tasks/{id}/start
func StartHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}
	taskID := pathID(r, "id")
	assignment, err := engine().Start(taskID, uid)
	if err != nil {
		writeLifecycleErr(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Work started", Data: assignment})
}

type SubmitRequest struct {
	SubmissionLink  string `json:"submission_link" validate:"required"`
	SubmissionNotes string `json:"submission_notes"`
}

// POST /tasks/{id}/submit
func SubmitHandler(w http.ResponseWriter, r *http.Request) {
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
	var req SubmitRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}

	assignment, err := engine().Submit(taskID, uid, strings.TrimSpace(req.SubmissionLink), strings.TrimSpace(req.SubmissionNotes))
	if err != nil {
		writeLifecycleErr(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Submission received", Data: assignment})
}

// GET /users/assignments
func MyAssignmentsHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}
	db := database.DB

	q := db.Where("user_id = ?", uid)
	if st := r.URL.Query().Get("status"); st != "" {
		q = q.Where("status = ?", st)
	}
	var assignments []models.TaskAssignment
	if err := q.Order("assigned_at DESC").Find(&assignments).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	resp := make([]map[string]interface{}, 0, len(assignments))
	for _, a := range assignments {
		var task models.Task
		if err := db.First(&task, a.TaskID).Error; err != nil {
			continue
		}
		resp = append(resp, map[string]interface{}{
			"assignment": a,
			"task": map[string]interface{}{
				"id":           task.ID,
				"title":        task.Title,
				"status":       task.Status,
				"priority":     task.Priority,
				"deadline":     task.Deadline,
				"community_id": task.CommunityID,
			},
		})
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: resp})
}
