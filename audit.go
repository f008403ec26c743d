package main

import (
	"net/http"

	"aeroparts/internal/audit"
)

// Audit action constant aliases.
const (
	AuditActionCreate = audit.ActionCreate
	AuditActionUpdate = audit.ActionUpdate
	AuditActionDelete = audit.ActionDelete
	AuditActionImport = audit.ActionImport
	AuditActionExport = audit.ActionExport
	AuditActionLogin  = audit.ActionLogin
	AuditActionLogout = audit.ActionLogout
)

type AuditEntry = audit.Entry

// Wrapper functions delegating to internal/audit, injecting the global
// db and wsHub.
func logAudit(username, action, module, recordID, summary string) {
	audit.Log(db, wsHub, username, action, module, recordID, summary)
}

func getUsername(r *http.Request) string {
	return audit.GetUsername(db, r)
}

func handleAuditLog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	limit := parseIntDefault(r.URL.Query().Get("limit"), 100)
	entries, err := audit.List(db, limit)
	if err != nil {
		jsonErr(w, http.StatusInternalServerError, "database error")
		return
	}
	jsonResp(w, http.StatusOK, entries)
}
