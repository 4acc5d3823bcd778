package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/joho/godotenv"

	"reimburse/internal"
)

type Config struct {
	DBPath     string
	RawMailDir string
	OutputDir  string
	UploadDir  string
	WorkDir    string
	InboxDir   string

	TemplatePath      string
	WorkbookEngine    string
	SofficePath       string
	SofficeTimeoutSec int

	HTTPAddr  string
	LogLevel  string
	LogFormat string

	CurrencyCode string
	PayerCode    string
	FontFamily   string
	FontSize     float64
	BoldPurpose  bool

	ArchiveBucket string
	ArchivePrefix string

	GmailClientID     string
	GmailClientSecret string
	GmailRedirectURI  string
	GmailRefreshToken string

	IMAPHost     string
	IMAPPort     int
	IMAPSecure   bool
	IMAPUser     string
	IMAPPassword string
	IMAPMarkSeen bool

	MailListenerProvider     string
	MailListenerLabel        string
	MailListenerIntervalSec  int
	MailListenerFetchMax     int
	MailListenerProcessBatch int
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:     getEnv("DB_PATH", filepath.Join(cwd, "data", "app.db")),
		RawMailDir: getEnv("MAIL_RAW_DIR", filepath.Join(cwd, "data", "raw")),
		OutputDir:  getEnv("OUTPUT_DIR", filepath.Join(cwd, "outputs")),
		UploadDir:  getEnv("UPLOAD_DIR", filepath.Join(cwd, "uploads")),
		WorkDir:    getEnv("WORK_DIR", os.TempDir()),
		InboxDir:   getEnv("INBOX_DIR", cwd),

		TemplatePath:      getEnv("TEMPLATE_PATH", filepath.Join(cwd, "Reimbursement_Final_File_2.xlsx")),
		WorkbookEngine:    getEnv("WORKBOOK_ENGINE", "memory"),
		SofficePath:       getEnv("SOFFICE_PATH", "soffice"),
		SofficeTimeoutSec: getEnvInt("SOFFICE_TIMEOUT_SEC", 120),

		HTTPAddr:  getEnv("HTTP_ADDR", ":8000"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),

		CurrencyCode: strings.ToUpper(getEnv("CURRENCY_CODE", "PHP")),
		PayerCode:    getEnv("PAYER_CODE", "474"),
		FontFamily:   getEnv("FONT_FAMILY", "Arial"),
		FontSize:     getEnvFloat("FONT_SIZE", 14),
		BoldPurpose:  getEnvBool("BOLD_PURPOSE", false),

		ArchiveBucket: getEnv("ARCHIVE_GCS_BUCKET", ""),
		ArchivePrefix: getEnv("ARCHIVE_GCS_PREFIX", "reimbursements"),

		GmailClientID:     getEnv("GMAIL_CLIENT_ID", ""),
		GmailClientSecret: getEnv("GMAIL_CLIENT_SECRET", ""),
		GmailRedirectURI:  getEnv("GMAIL_REDIRECT_URI", "https://developers.google.com/oauthplayground"),
		GmailRefreshToken: getEnv("GMAIL_REFRESH_TOKEN", ""),

		IMAPHost:     getEnv("IMAP_HOST", ""),
		IMAPPort:     getEnvInt("IMAP_PORT", 993),
		IMAPSecure:   getEnvBool("IMAP_SECURE", true),
		IMAPUser:     getEnv("IMAP_USER", ""),
		IMAPPassword: getEnv("IMAP_PASSWORD", ""),
		IMAPMarkSeen: getEnvBool("IMAP_MARK_SEEN", false),

		MailListenerProvider:     getEnv("MAIL_LISTENER_PROVIDER", "imap"),
		MailListenerLabel:        getEnv("MAIL_LISTENER_LABEL", "INBOX"),
		MailListenerIntervalSec:  getEnvInt("MAIL_LISTENER_INTERVAL_SEC", 60),
		MailListenerFetchMax:     getEnvInt("MAIL_LISTENER_FETCH_MAX", 20),
		MailListenerProcessBatch: getEnvInt("MAIL_LISTENER_PROCESS_BATCH", 10),
	}

	return cfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c Config) Validate() error {
	if money.GetCurrency(c.CurrencyCode) == nil {
		return fmt.Errorf("unknown currency code: %s", c.CurrencyCode)
	}
	switch c.WorkbookEngine {
	case "memory", "soffice":
	default:
		return fmt.Errorf("unsupported WORKBOOK_ENGINE: %s", c.WorkbookEngine)
	}
	if c.FontSize <= 0 {
		return fmt.Errorf("FONT_SIZE must be positive")
	}
	return nil
}

// Layout is the default template layout with the configurable parts applied.
func (c Config) Layout() internal.TemplateLayout {
	layout := internal.DefaultLayout()
	layout.CurrencyCode = c.CurrencyCode
	layout.PayerCode = c.PayerCode
	layout.FontFamily = c.FontFamily
	layout.FontSize = c.FontSize
	layout.BoldPurpose = c.BoldPurpose
	return layout
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}
