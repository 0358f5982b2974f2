package admins

import (
	"encoding/json"
	"net/http"

	"github.com/ysrbharadwaj/Loomio-sub001/database"
	"github.com/ysrbharadwaj/Loomio-sub001/models"
	"github.com/ysrbharadwaj/Loomio-sub001/utils"
)

// GET /admin/settings
func GetSettings(w http.ResponseWriter, r *http.Request) {
	var setting models.Setting
	if err := database.DB.Take(&setting).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Successfully", Data: setting})
}

type UpdateSettingsRequest struct {
	Name           *string `json:"name"`
	ClosedRegister *bool   `json:"closed_register"`
	Maintenance    *bool   `json:"maintenance"`
}

// PUT /admin/settings
func UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid JSON body"})
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.ClosedRegister != nil {
		updates["closed_register"] = *req.ClosedRegister
	}
	if req.Maintenance != nil {
		updates["maintenance"] = *req.Maintenance
	}
	if len(updates) == 0 {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Nothing to update"})
		return
	}

	var setting models.Setting
	if err := database.DB.Take(&setting).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}
	if err := database.DB.Model(&setting).Updates(updates).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Settings updated", Data: setting})
}
