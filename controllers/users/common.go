package users

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/ysrbharadwaj/Loomio-sub001/database"
	"github.com/ysrbharadwaj/Loomio-sub001/events"
	"github.com/ysrbharadwaj/Loomio-sub001/lifecycle"
	"github.com/ysrbharadwaj/Loomio-sub001/utils"
)

func engine() *lifecycle.Engine {
	return lifecycle.NewEngine(database.DB, events.Default)
}

// pathID reads a numeric path variable, returning 0 when missing or invalid.
func pathID(r *http.Request, name string) uint {
	v, err := strconv.ParseUint(mux.Vars(r)[name], 10, 32)
	if err != nil {
		return 0
	}
	return uint(v)
}

// writeLifecycleErr maps engine errors onto the response envelope.
func writeLifecycleErr(w http.ResponseWriter, err error) {
	status := lifecycle.HTTPStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "Server error"
	}
	utils.WriteJSON(w, status, utils.APIResponse{Success: false, Message: msg})
}

// pageParams reads ?page= and ?limit= with sane bounds.
func pageParams(r *http.Request) (page, limit, offset int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit, (page - 1) * limit
}
