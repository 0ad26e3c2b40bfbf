package middleware

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/sessions"

	"ainews/models"
	"ainews/services"
)

type contextKey string

const UserContextKey contextKey = "user"

const sessionName = "ainews-session"

type AuthMiddleware struct {
	authService *services.AuthService
	store       *sessions.CookieStore
}

func NewAuthMiddleware(authService *services.AuthService, sessionSecret string) *AuthMiddleware {
	if sessionSecret == "" {
		sessionSecret = "default-secret-change-in-production"
		log.Println("WARNING: Using default session secret. Set SESSION_SECRET environment variable!")
	}

	store := sessions.NewCookieStore([]byte(sessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   30 * 24 * 60 * 60, // 30 days
		HttpOnly: true,
		Secure:   false, // Set to true in production with HTTPS
		SameSite: http.SameSiteLaxMode,
	}

	return &AuthMiddleware{
		authService: authService,
		store:       store,
	}
}

// RequireAdmin guards the automation trigger endpoints. Source bootstrap and
// manual triggers are admin-only, serialized operations.
func (am *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := am.getCurrentUser(r)
		if user == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if !user.IsAdmin {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (am *AuthMiddleware) getCurrentUser(r *http.Request) *models.User {
	session, err := am.store.Get(r, sessionName)
	if err != nil {
		return nil
	}

	sessionID, ok := session.Values["session_id"].(string)
	if !ok || sessionID == "" {
		return nil
	}

	dbSession, err := am.authService.GetSession(sessionID)
	if err != nil {
		return nil
	}

	user, err := am.authService.GetUserByID(dbSession.UserID)
	if err != nil {
		return nil
	}
	return user
}

func (am *AuthMiddleware) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	user, err := am.authService.Authenticate(req.Username, req.Password)
	if err != nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	dbSession, err := am.authService.CreateSession(user.ID)
	if err != nil {
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	session, _ := am.store.Get(r, sessionName)
	session.Values["session_id"] = dbSession.ID
	if err := session.Save(r, w); err != nil {
		http.Error(w, "Failed to save session", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"user":    user,
	})
}

func (am *AuthMiddleware) Logout(w http.ResponseWriter, r *http.Request) {
	session, err := am.store.Get(r, sessionName)
	if err == nil {
		if sessionID, ok := session.Values["session_id"].(string); ok && sessionID != "" {
			if err := am.authService.DeleteSession(sessionID); err != nil {
				log.Printf("Failed to delete session: %v", err)
			}
		}
		session.Values["session_id"] = ""
		session.Options.MaxAge = -1
		_ = session.Save(r, w)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
}

func (am *AuthMiddleware) Me(w http.ResponseWriter, r *http.Request) {
	user := am.getCurrentUser(r)
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(user)
}
