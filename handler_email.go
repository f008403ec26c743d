package main

import (
	"fmt"
	"net/http"
	"net/smtp"
	"time"
)

// SMTPSendFunc is the function used to send emails. Override in tests.
var SMTPSendFunc = smtp.SendMail

type EmailConfig struct {
	ID           int    `json:"id"`
	SMTPHost     string `json:"smtp_host"`
	SMTPPort     int    `json:"smtp_port"`
	SMTPUser     string `json:"smtp_user"`
	SMTPPassword string `json:"smtp_password"`
	FromAddress  string `json:"from_address"`
	FromName     string `json:"from_name"`
	Enabled      int    `json:"enabled"`
}

type EmailLogEntry struct {
	ID        int    `json:"id"`
	To        string `json:"to_address"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	EventType string `json:"event_type"`
	Status    string `json:"status"`
	Error     string `json:"error"`
	SentAt    string `json:"sent_at"`
}

func handleEmailConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		getEmailConfigHandler(w, r)
	case http.MethodPut:
		updateEmailConfig(w, r)
	default:
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func getEmailConfigHandler(w http.ResponseWriter, r *http.Request) {
	var c EmailConfig
	err := db.QueryRow("SELECT id, COALESCE(smtp_host,''), COALESCE(smtp_port,587), COALESCE(smtp_user,''), COALESCE(smtp_password,''), COALESCE(from_address,''), COALESCE(from_name,'AeroParts'), enabled FROM email_config WHERE id=1").
		Scan(&c.ID, &c.SMTPHost, &c.SMTPPort, &c.SMTPUser, &c.SMTPPassword, &c.FromAddress, &c.FromName, &c.Enabled)
	if err != nil {
		jsonResp(w, http.StatusOK, EmailConfig{ID: 1, SMTPPort: 587, FromName: "AeroParts"})
		return
	}
	if c.SMTPPassword != "" {
		c.SMTPPassword = "****"
	}
	jsonResp(w, http.StatusOK, c)
}

func updateEmailConfig(w http.ResponseWriter, r *http.Request) {
	var c EmailConfig
	if err := decodeBody(r, &c); err != nil {
		jsonErr(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// A masked password means "keep the stored one".
	if c.SMTPPassword == "****" {
		var existing string
		db.QueryRow("SELECT COALESCE(smtp_password,'') FROM email_config WHERE id=1").Scan(&existing)
		c.SMTPPassword = existing
	}
	if c.SMTPPort <= 0 {
		c.SMTPPort = 587
	}

	_, err := db.Exec(`INSERT OR REPLACE INTO email_config (id, smtp_host, smtp_port, smtp_user, smtp_password, from_address, from_name, enabled)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?)`,
		c.SMTPHost, c.SMTPPort, c.SMTPUser, c.SMTPPassword, c.FromAddress, c.FromName, c.Enabled)
	if err != nil {
		jsonErr(w, http.StatusInternalServerError, "failed to save email configuration")
		return
	}

	logAudit(getUsername(r), AuditActionUpdate, "email_config", "1", "Updated email configuration")

	c.ID = 1
	if c.SMTPPassword != "" {
		c.SMTPPassword = "****"
	}
	jsonResp(w, http.StatusOK, c)
}

func handleTestEmail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body struct {
		To string `json:"to"`
	}
	if err := decodeBody(r, &body); err != nil {
		jsonErr(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.To == "" {
		jsonErr(w, http.StatusBadRequest, "to address required")
		return
	}

	if err := sendEmail(body.To, "AeroParts test email",
		"This is a test email from AeroParts. If you received this, outgoing mail is configured correctly."); err != nil {
		jsonErr(w, http.StatusInternalServerError, "send failed: "+err.Error())
		return
	}
	jsonResp(w, http.StatusOK, map[string]string{"status": "sent", "to": body.To})
}

func handleEmailLog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rows, err := db.Query("SELECT id, to_address, subject, COALESCE(body,''), COALESCE(event_type,''), status, COALESCE(error,''), sent_at FROM email_log ORDER BY sent_at DESC LIMIT 100")
	if err != nil {
		jsonErr(w, http.StatusInternalServerError, "database error")
		return
	}
	defer rows.Close()

	items := []EmailLogEntry{}
	for rows.Next() {
		var e EmailLogEntry
		rows.Scan(&e.ID, &e.To, &e.Subject, &e.Body, &e.EventType, &e.Status, &e.Error, &e.SentAt)
		items = append(items, e)
	}
	jsonResp(w, http.StatusOK, items)
}

func getEmailConfig() (*EmailConfig, error) {
	var c EmailConfig
	err := db.QueryRow("SELECT id, COALESCE(smtp_host,''), COALESCE(smtp_port,587), COALESCE(smtp_user,''), COALESCE(smtp_password,''), COALESCE(from_address,''), COALESCE(from_name,'AeroParts'), enabled FROM email_config WHERE id=1").
		Scan(&c.ID, &c.SMTPHost, &c.SMTPPort, &c.SMTPUser, &c.SMTPPassword, &c.FromAddress, &c.FromName, &c.Enabled)
	if err != nil {
		return nil, err
	}
	if c.Enabled == 0 || c.SMTPHost == "" {
		return nil, fmt.Errorf("email not configured or disabled")
	}
	return &c, nil
}

func sendEmailWithEvent(to, subject, body, eventType string) error {
	c, err := getEmailConfig()
	if err != nil {
		return err
	}

	from := c.FromAddress
	if from == "" {
		from = c.SMTPUser
	}

	msg := fmt.Sprintf("From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s",
		c.FromName, from, to, subject, body)

	addr := fmt.Sprintf("%s:%d", c.SMTPHost, c.SMTPPort)
	var auth smtp.Auth
	if c.SMTPUser != "" {
		auth = smtp.PlainAuth("", c.SMTPUser, c.SMTPPassword, c.SMTPHost)
	}

	sendErr := SMTPSendFunc(addr, auth, from, []string{to}, []byte(msg))

	status := "sent"
	errStr := ""
	if sendErr != nil {
		status = "failed"
		errStr = sendErr.Error()
	}
	db.Exec("INSERT INTO email_log (to_address, subject, body, event_type, status, error, sent_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		to, subject, body, eventType, status, errStr, time.Now().Format("2006-01-02 15:04:05"))

	return sendErr
}

func sendEmail(to, subject, body string) error {
	return sendEmailWithEvent(to, subject, body, "")
}
