package main

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type UserResponse struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req LoginRequest
	if err := decodeBody(r, &req); err != nil {
		jsonErr(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var userID int
	var passwordHash, role string
	var active int
	err := db.QueryRow(`SELECT id, password_hash, role, active FROM users WHERE username = ?`, req.Username).
		Scan(&userID, &passwordHash, &role, &active)
	if err == sql.ErrNoRows {
		jsonErr(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		jsonErr(w, http.StatusInternalServerError, "database error")
		return
	}
	if active == 0 {
		jsonErr(w, http.StatusUnauthorized, "account disabled")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(req.Password)) != nil {
		jsonErr(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	var token string
	for attempt := 0; attempt < 3; attempt++ {
		token = generateToken()
		expires := time.Now().Add(24 * time.Hour)
		_, err = db.Exec(`INSERT INTO sessions (token, user_id, expires_at) VALUES (?, ?, ?)`,
			token, userID, expires.Format("2006-01-02 15:04:05"))
		if err == nil {
			break
		}
	}
	if err != nil {
		jsonErr(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "aero_session",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   86400,
	})

	logAudit(req.Username, AuditActionLogin, "auth", req.Username, "Logged in")

	jsonResp(w, http.StatusOK, UserResponse{ID: userID, Username: req.Username, Role: role})
}

func handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if cookie, err := r.Cookie("aero_session"); err == nil {
		username := getUsername(r)
		db.Exec(`DELETE FROM sessions WHERE token = ?`, cookie.Value)
		logAudit(username, AuditActionLogout, "auth", username, "Logged out")
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "aero_session",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	jsonResp(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func handleMe(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie("aero_session")
	if err != nil {
		jsonErr(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var user UserResponse
	err = db.QueryRow(`
		SELECT u.id, u.username, u.role FROM users u
		JOIN sessions s ON s.user_id = u.id
		WHERE s.token = ? AND s.expires_at > CURRENT_TIMESTAMP AND u.active = 1`,
		cookie.Value).
		Scan(&user.ID, &user.Username, &user.Role)
	if err != nil {
		jsonErr(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	jsonResp(w, http.StatusOK, user)
}

func generateToken() string {
	b := make([]byte, 32)
	rand.Read(b)
	return hex.EncodeToString(b)
}
