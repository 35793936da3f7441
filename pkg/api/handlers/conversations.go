package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"convostore/pkg/models"
	"convostore/pkg/store"
	"convostore/pkg/utils"
	"convostore/pkg/validation"
)

// RegisterConversations registers the conversation CRUD routes.
func RegisterConversations(r *mux.Router) {
	r.HandleFunc("/conversations", createConversation).Methods(http.MethodPost)
	r.HandleFunc("/conversations/{userID}", listConversations).Methods(http.MethodGet)
	r.HandleFunc("/conversations/{userID}/{conversationID}", getConversation).Methods(http.MethodGet)
	r.HandleFunc("/conversations/{userID}/{conversationID}", updateConversation).Methods(http.MethodPut)
	r.HandleFunc("/conversations/{userID}/{conversationID}", deleteConversation).Methods(http.MethodDelete)
}

// createConversation handles POST /conversations. The body must carry id,
// user_id and a (possibly empty) messages array; everything is validated
// before the backend is touched.
func createConversation(w http.ResponseWriter, r *http.Request) {
	var c models.Conversation
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		utils.JSONError(w, http.StatusUnprocessableEntity, "invalid json body")
		return
	}
	if err := validation.ValidateConversation(c); err != nil {
		utils.JSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if c.Title == "" && len(c.Messages) > 0 {
		c.Title = utils.MakeTitle(c.Messages[0].Content)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	if c.CreatedAt == "" {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	if err := store.SaveConversation(r.Context(), c); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "Error saving conversation: "+err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, c)
}

// listConversations handles GET /conversations/{user_id}. Returns the user's
// conversations newest-first; an empty list is a normal 200, not an error.
func listConversations(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]

	limit := 50
	if limStr := r.URL.Query().Get("limit"); limStr != "" {
		if lim, err := strconv.Atoi(limStr); err == nil && lim > 0 {
			limit = lim
		}
	}

	convs, err := store.ListConversations(r.Context(), userID, limit)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "Error getting conversations: "+err.Error())
		return
	}
	if convs == nil {
		convs = []models.Conversation{}
	}
	sort.Slice(convs, func(i, j int) bool { return convs[i].UpdatedAt > convs[j].UpdatedAt })
	_ = utils.JSONWrite(w, http.StatusOK, convs)
}

// getConversation handles GET /conversations/{user_id}/{conversation_id}.
// A missing record and a record owned by another user are both 404 with the
// same body, so callers cannot probe for foreign ids.
func getConversation(w http.ResponseWriter, r *http.Request) {
	c, ok := fetchOwned(w, r)
	if !ok {
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, c)
}

// updateConversation handles PUT /conversations/{user_id}/{conversation_id}.
// The messages array is fully replaced; nothing is merged. id and user_id in
// the body are ignored in favor of the path.
func updateConversation(w http.ResponseWriter, r *http.Request) {
	// Body checks come before the ownership lookup, so a bad payload is 422
	// even when the target would have been a 404.
	var upd struct {
		Messages []models.Message `json:"messages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		utils.JSONError(w, http.StatusUnprocessableEntity, "invalid json body")
		return
	}
	if upd.Messages == nil {
		utils.JSONError(w, http.StatusUnprocessableEntity, "messages is required")
		return
	}
	if err := validation.ValidateMessages(upd.Messages); err != nil {
		utils.JSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	c, ok := fetchOwned(w, r)
	if !ok {
		return
	}

	c.Messages = upd.Messages
	c.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	if err := store.SaveConversation(r.Context(), c); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "Error updating conversation: "+err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, c)
}

// deleteConversation handles DELETE /conversations/{user_id}/{conversation_id}.
func deleteConversation(w http.ResponseWriter, r *http.Request) {
	c, ok := fetchOwned(w, r)
	if !ok {
		return
	}
	if err := store.DeleteConversation(r.Context(), c.ID); err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "Error deleting conversation: "+err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]string{"message": "Conversation deleted successfully"})
}

// fetchOwned resolves the path's conversation and enforces ownership. On any
// failure it writes the response and returns ok=false. Unparseable ids get
// the same 404 as missing ones.
func fetchOwned(w http.ResponseWriter, r *http.Request) (models.Conversation, bool) {
	vars := mux.Vars(r)
	userID := vars["userID"]
	id, err := strconv.ParseInt(vars["conversationID"], 10, 64)
	if err != nil {
		utils.JSONError(w, http.StatusNotFound, "Conversation not found")
		return models.Conversation{}, false
	}
	c, err := store.GetConversation(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.JSONError(w, http.StatusNotFound, "Conversation not found")
		} else {
			utils.JSONError(w, http.StatusInternalServerError, "Error getting conversation: "+err.Error())
		}
		return models.Conversation{}, false
	}
	if c.UserID != userID {
		utils.JSONError(w, http.StatusNotFound, "Conversation not found")
		return models.Conversation{}, false
	}
	return c, true
}
