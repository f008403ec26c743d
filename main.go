package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"aeroparts/internal/quote"
	"aeroparts/internal/response"
)

// appConfig is the loaded server configuration, assigned in main (and
// in test setup).
var appConfig *Config

func main() {
	configPath := flag.String("config", "aeroparts.yaml", "Path to YAML config file")
	port := flag.Int("port", 0, "HTTP port (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	flag.Parse()

	// A .env file is optional; environment overrides live in loadConfig.
	godotenv.Load()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal("config load failed: ", err)
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	appConfig = cfg

	if err := initDB(cfg.DBPath); err != nil {
		log.Fatal("DB init failed: ", err)
	}
	seedDB()

	ttl := time.Duration(cfg.QuoteSessionTTLMinutes) * time.Minute
	quoteSessions = quote.NewRegistry(ttl)
	go func() {
		for {
			time.Sleep(ttl / 2)
			if n := quoteSessions.Sweep(); n > 0 {
				log.Printf("swept %d idle quote sessions", n)
			}
		}
	}()

	mux := http.NewServeMux()

	// Static files
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir("static"))))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "static/index.html")
	})

	// Auth routes
	mux.HandleFunc("/auth/login", handleLogin)
	mux.HandleFunc("/auth/logout", handleLogout)
	mux.HandleFunc("/auth/me", handleMe)

	// Admin event feed
	mux.HandleFunc("/ws", handleWebSocket)

	// API routes - using a simple router
	mux.HandleFunc("/api/v1/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		path := strings.TrimPrefix(r.URL.Path, "/api/v1/")
		path = strings.TrimSuffix(path, "/")
		parts := strings.Split(path, "/")

		switch {
		// Search and quote workflow (public)
		case path == "search":
			handleSearch(w, r)
		case path == "search/select":
			handleSearchSelect(w, r)
		case path == "search/select-all":
			handleSearchSelectAll(w, r)
		case path == "search/quantity":
			handleSearchQuantity(w, r)
		case path == "search/condition":
			handleSearchCondition(w, r)
		case path == "search/session":
			handleSearchSession(w, r)
		case path == "search/quote":
			handleSearchQuote(w, r)

		// Public site surface
		case path == "metrics":
			handleMetrics(w, r)
		case path == "config":
			handleSiteConfig(w, r)
		case path == "inquiries/contact" || path == "inquiries/aog":
			handleInquiryItem(w, r)

		// Stock admin
		case path == "stock":
			handleStock(w, r)
		case path == "stock/import":
			handleStockImport(w, r)
		case path == "stock/export":
			handleStockExport(w, r)
		case parts[0] == "stock" && len(parts) == 2:
			handleStockItem(w, r)

		// Inquiry admin
		case path == "inquiries":
			handleInquiries(w, r)
		case parts[0] == "inquiries" && len(parts) == 2:
			handleInquiryItem(w, r)

		// Email
		case path == "email/config":
			handleEmailConfig(w, r)
		case path == "email/test":
			handleTestEmail(w, r)
		case path == "email/log":
			handleEmailLog(w, r)

		// Audit
		case path == "audit":
			handleAuditLog(w, r)

		default:
			json.NewEncoder(w).Encode(map[string]string{"error": "not found"})
		}
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Printf("%s server starting on http://localhost%s", cfg.CompanyName, addr)
	log.Fatal(http.ListenAndServe(addr, logging(requireAuth(mux))))
}

// handleSiteConfig exposes the non-sensitive bits the frontend needs.
func handleSiteConfig(w http.ResponseWriter, r *http.Request) {
	jsonResp(w, http.StatusOK, map[string]string{
		"company_name": appConfig.CompanyName,
		"ops_mailbox":  appConfig.OpsMailbox,
		"aog_mailbox":  appConfig.AOGMailbox,
	})
}

func jsonResp(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	response.JSON(w, data)
}

func jsonRespMeta(w http.ResponseWriter, status int, data interface{}, total, page, limit int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	response.JSONMeta(w, data, total, page, limit)
}

func jsonErr(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	response.Err(w, msg, status)
}

func decodeBody(r *http.Request, v interface{}) error {
	return response.DecodeBody(r, v)
}
