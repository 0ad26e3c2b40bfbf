package services

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"

	"ainews/database"
	"ainews/models"
)

type AuthService struct {
	db *database.DB
}

func NewAuthService(db *database.DB) *AuthService {
	return &AuthService{db: db}
}

func (as *AuthService) CreateUser(username, password string, isAdmin bool) (*models.User, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("username and password are required")
	}

	existingUser, err := as.GetUserByUsername(username)
	if err == nil && existingUser != nil {
		return nil, fmt.Errorf("user already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %v", err)
	}

	query := `INSERT INTO users (username, password, is_admin) VALUES (?, ?, ?)`
	result, err := as.db.Exec(query, username, string(hashedPassword), isAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %v", err)
	}

	userID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get user ID: %v", err)
	}
	return as.GetUserByID(int(userID))
}

func (as *AuthService) GetUserByUsername(username string) (*models.User, error) {
	query := `SELECT id, username, password, is_admin, created_at, last_login FROM users WHERE username = ?`
	user := &models.User{}
	err := as.db.QueryRow(query, username).Scan(
		&user.ID, &user.Username, &user.Password, &user.IsAdmin, &user.CreatedAt, &user.LastLogin,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (as *AuthService) GetUserByID(id int) (*models.User, error) {
	query := `SELECT id, username, password, is_admin, created_at, last_login FROM users WHERE id = ?`
	user := &models.User{}
	err := as.db.QueryRow(query, id).Scan(
		&user.ID, &user.Username, &user.Password, &user.IsAdmin, &user.CreatedAt, &user.LastLogin,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate verifies credentials and returns the user on success.
func (as *AuthService) Authenticate(username, password string) (*models.User, error) {
	user, err := as.GetUserByUsername(username)
	if err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}

	if _, err := as.db.Exec(`UPDATE users SET last_login = CURRENT_TIMESTAMP WHERE id = ?`, user.ID); err != nil {
		log.Printf("Failed to update last login for %s: %v", username, err)
	}
	return user, nil
}

func (as *AuthService) CreateSession(userID int) (*models.Session, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %v", err)
	}
	sessionID := hex.EncodeToString(raw)

	expiresAt := time.Now().Add(30 * 24 * time.Hour)
	query := `INSERT INTO sessions (id, user_id, expires_at) VALUES (?, ?, ?)`
	if _, err := as.db.Exec(query, sessionID, userID, expiresAt); err != nil {
		return nil, fmt.Errorf("failed to create session: %v", err)
	}

	return &models.Session{ID: sessionID, UserID: userID, ExpiresAt: expiresAt}, nil
}

func (as *AuthService) GetSession(sessionID string) (*models.Session, error) {
	query := `SELECT id, user_id, created_at, expires_at FROM sessions WHERE id = ?`
	session := &models.Session{}
	err := as.db.QueryRow(query, sessionID).Scan(
		&session.ID, &session.UserID, &session.CreatedAt, &session.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}

	if time.Now().After(session.ExpiresAt) {
		_ = as.DeleteSession(sessionID)
		return nil, sql.ErrNoRows
	}
	return session, nil
}

func (as *AuthService) DeleteSession(sessionID string) error {
	_, err := as.db.Exec(`DELETE FROM sessions WHERE id = ?`, sessionID)
	return err
}

func (as *AuthService) CleanExpiredSessions() error {
	_, err := as.db.Exec(`DELETE FROM sessions WHERE expires_at < CURRENT_TIMESTAMP`)
	return err
}

// EnsureAdmin creates the admin user from configuration when it does not
// exist yet. A missing admin password just skips bootstrap with a warning.
func (as *AuthService) EnsureAdmin(username, password string) error {
	if password == "" {
		log.Println("WARNING: ADMIN_PASSWORD not set; admin user not created")
		return nil
	}

	existing, err := as.GetUserByUsername(username)
	if err == nil && existing != nil {
		return nil
	}

	if _, err := as.CreateUser(username, password, true); err != nil {
		return fmt.Errorf("failed to create admin user: %v", err)
	}
	log.Printf("Created admin user %q", username)
	return nil
}
