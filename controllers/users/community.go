package users

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ysrbharadwaj/Loomio-sub001/database"
	"github.com/ysrbharadwaj/Loomio-sub001/middleware"
	"github.com/ysrbharadwaj/Loomio-sub001/models"
	"github.com/ysrbharadwaj/Loomio-sub001/utils"
)

type CreateCommunityRequest struct {
	Name        string `json:"name" validate:"required,nameok"`
	Description string `json:"description"`
}

// POST /communities
func CreateCommunityHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}
	var req CreateCommunityRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}

	db := database.DB
	code, err := utils.GenerateUniqueInviteCode(db, 8)
	if err != nil {
		zap.L().Error("invite code generation failed", zap.Error(err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	community := models.Community{
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		InviteCode:  code,
		CreatedBy:   uid,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&community).Error; err != nil {
			return err
		}
		// the creator becomes the first community admin
		membership := models.Membership{
			CommunityID: community.ID,
			UserID:      uid,
			Role:        models.RoleAdmin,
			Status:      "Active",
			JoinedAt:    time.Now(),
		}
		return tx.Create(&membership).Error
	})
	if err != nil {
		zap.L().Error("community create failed", zap.Error(err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{
		Success: true,
		Message: "Community created",
		Data:    community,
	})
}

type JoinCommunityRequest struct {
	InviteCode string `json:"invite_code" validate:"required,codeok"`
}

// POST /communities/join
func JoinCommunityHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}
	var req JoinCommunityRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}

	db := database.DB
	var community models.Community
	code := strings.ToUpper(strings.TrimSpace(req.InviteCode))
	if err := db.Where("invite_code = ?", code).First(&community).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Invalid invite code"})
			return
		}
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	var existing models.Membership
	if err := db.Where("community_id = ? AND user_id = ?", community.ID, uid).First(&existing).Error; err == nil {
		if existing.Status == "Active" {
			utils.WriteJSON(w, http.StatusConflict, utils.APIResponse{Success: false, Message: "Already a member of this community"})
			return
		}
		// rejoin after leaving
		existing.Status = "Active"
		existing.JoinedAt = time.Now()
		if err := db.Save(&existing).Error; err != nil {
			utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
			return
		}
		utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Welcome back to " + community.Name, Data: community})
		return
	}

	membership := models.Membership{
		CommunityID: community.ID,
		UserID:      uid,
		Role:        models.RoleMember,
		Status:      "Active",
		JoinedAt:    time.Now(),
	}
	if err := db.Create(&membership).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Joined " + community.Name,
		Data:    community,
	})
}

// POST /communities/{id}/leave
func LeaveCommunityHandler(w http.ResponseWriter, r *http.Request) {
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
	var membership models.Membership
	if err := db.Where("community_id = ? AND user_id = ? AND status = ?", communityID, uid, "Active").First(&membership).Error; err != nil {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Membership not found"})
		return
	}

	// the last admin cannot leave
	if membership.Role == models.RoleAdmin {
		var adminCount int64
		db.Model(&models.Membership{}).Where("community_id = ? AND role = ? AND status = ?", communityID, models.RoleAdmin, "Active").Count(&adminCount)
		if adminCount <= 1 {
			utils.WriteJSON(w, http.StatusConflict, utils.APIResponse{Success: false, Message: "Cannot leave: you are the only admin"})
			return
		}
	}

	if err := db.Model(&membership).Update("status", "Left").Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Left the community"})
}

// GET /communities
func MyCommunitiesHandler(w http.ResponseWriter, r *http.Request) {
	uid, ok := utils.GetUserID(r)
	if !ok || uid == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return
	}
	db := database.DB

	var memberships []models.Membership
	db.Where("user_id = ? AND status = ?", uid, "Active").Find(&memberships)

	resp := make([]map[string]interface{}, 0, len(memberships))
	for _, m := range memberships {
		var community models.Community
		if err := db.First(&community, m.CommunityID).Error; err != nil {
			continue
		}
		var memberCount, openTasks int64
		db.Model(&models.Membership{}).Where("community_id = ? AND status = ?", m.CommunityID, "Active").Count(&memberCount)
		db.Model(&models.Task{}).Where("community_id = ? AND status IN ?", m.CommunityID, []string{"not_started", "in_progress"}).Count(&openTasks)

		entry := map[string]interface{}{
			"id":           community.ID,
			"name":         community.Name,
			"description":  community.Description,
			"role":         m.Role,
			"joined_at":    m.JoinedAt,
			"member_count": memberCount,
			"open_tasks":   openTasks,
		}
		// the invite code is only shown to community admins
		if m.Role == models.RoleAdmin {
			entry["invite_code"] = community.InviteCode
		}
		resp = append(resp, entry)
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: resp})
}

// GET /communities/{id}/members
func CommunityMembersHandler(w http.ResponseWriter, r *http.Request) {
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

	var memberships []models.Membership
	db.Where("community_id = ? AND status = ?", communityID, "Active").Order("joined_at ASC").Find(&memberships)

	resp := make([]map[string]interface{}, 0, len(memberships))
	for _, m := range memberships {
		var user models.User
		if err := db.First(&user, m.UserID).Error; err != nil {
			continue
		}
		entry := user.Summary()
		entry["role"] = m.Role
		entry["joined_at"] = m.JoinedAt
		entry["current_streak"] = user.CurrentStreak
		resp = append(resp, entry)
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: resp})
}
