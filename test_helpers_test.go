package main

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"aeroparts/internal/quote"
)

func setupTestDB(t *testing.T) func() {
	t.Helper()
	dbFile := fmt.Sprintf("test_%s.db", t.Name())
	os.Remove(dbFile)
	if err := initDB(dbFile); err != nil {
		t.Fatal(err)
	}
	seedDB()
	appConfig = defaultConfig()
	quoteSessions = quote.NewRegistry(time.Hour)
	return func() {
		db.Close()
		os.Remove(dbFile)
		os.Remove(dbFile + "-wal")
		os.Remove(dbFile + "-shm")
	}
}

// loginAdmin logs in as admin and returns the session cookie
func loginAdmin(t *testing.T) *http.Cookie {
	t.Helper()
	body := `{"username":"admin","password":"changeme"}`
	req := httptest.NewRequest("POST", "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handleLogin(w, req)
	if w.Code != 200 {
		t.Fatalf("login failed: %d %s", w.Code, w.Body.String())
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == "aero_session" {
			return c
		}
	}
	t.Fatal("no session cookie")
	return nil
}

func authedRequest(method, path string, body string, cookie *http.Cookie) *http.Request {
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, bodyReader)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}

// visitorCookie returns a quote-session cookie so consecutive requests
// land on the same session.
func visitorCookie() *http.Cookie {
	return &http.Cookie{Name: "aero_quote", Value: "test-visitor"}
}

func visitorRequest(method, path, body string) *http.Request {
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, bodyReader)
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(visitorCookie())
	return req
}
