package auth

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ysrbharadwaj/Loomio-sub001/database"
	"github.com/ysrbharadwaj/Loomio-sub001/models"
	"github.com/ysrbharadwaj/Loomio-sub001/utils"
)

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// LogoutHandler revokes a refresh token and, when an Authorization header is
// present, the access token jti as well.
func LogoutHandler(w http.ResponseWriter, r *http.Request) {
	var req LogoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid JSON body"})
		return
	}
	if req.RefreshToken == "" {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "refresh_token is required"})
		return
	}

	revokeBearerJTI(r)

	if database.DB == nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}
	// Return success even when the row is missing to avoid token enumeration
	_ = database.DB.Model(&models.RefreshToken{}).Where("id = ?", req.RefreshToken).Update("revoked", true).Error
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Logged out"})
}

// revokeBearerJTI best-effort revokes the access token carried in the
// Authorization header, with TTL derived from its exp claim.
func revokeBearerJTI(r *http.Request) {
	authz := r.Header.Get("Authorization")
	if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
		return
	}
	tokenStr := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
	tkn, err := utils.ValidateToken(tokenStr)
	if err != nil || tkn == nil {
		return
	}
	claims, ok := tkn.Claims.(jwt.MapClaims)
	if !ok {
		return
	}
	jtiRaw, ok := claims["jti"].(string)
	if !ok || jtiRaw == "" {
		return
	}
	var ttl time.Duration
	if expRaw, ok := claims["exp"].(float64); ok {
		ttl = time.Until(time.Unix(int64(expRaw), 0))
	}
	if ttl < 0 {
		ttl = 0
	}
	_ = utils.RevokeJTI(jtiRaw, ttl)
}
