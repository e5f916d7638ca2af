package main

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Auto-load ./.env if present before reading vars
	loadDotEnv()

	logger := newLogger()
	defer logger.Sync()

	secret := os.Getenv("SECRET_KEY")
	if secret == "" {
		secret = "dev-secret-key-change-in-production" // development fallback
	}

	db, err := openDB()
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	if err := initDB(db, logger); err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}

	// Lightweight migrate command: `./livrocaixa migrate` runs migrations and
	// seeding then exits. Useful for CI or manual DB setup.
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		logger.Info("migration and seeding completed")
		return
	}

	a := newApp(db, logger, []byte(secret))

	r := gin.New()
	r.Use(gin.Logger())

	templateDir := os.Getenv("TEMPLATE_DIR")
	if templateDir == "" {
		templateDir = "templates"
	}
	r.LoadHTMLGlob(filepath.Join(templateDir, "*.html"))
	if os.Getenv("TEMPLATE_RELOAD") == "1" {
		if err := watchTemplates(templateDir, r, logger); err != nil {
			logger.Warn("template watcher disabled", zap.Error(err))
		}
	}

	a.setupRoutes(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "5000"
	}
	r.Run(":" + port)
}

func newLogger() *zap.Logger {
	if gin.Mode() == gin.ReleaseMode {
		l, _ := zap.NewProduction()
		return l
	}
	l, _ := zap.NewDevelopment()
	return l
}

// loadDotEnv loads key=value pairs from a local .env file into the environment
// without overwriting variables that are already set. Lines starting with # are ignored.
func loadDotEnv() {
	path := ".env"
	if _, err := os.Stat(path); err != nil {
		return // no .env file
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		// split on first '='
		if eq := strings.IndexByte(line, '='); eq > 0 {
			key := strings.TrimSpace(line[:eq])
			val := strings.TrimSpace(line[eq+1:])
			if _, exists := os.LookupEnv(key); !exists {
				_ = os.Setenv(key, val)
			}
		}
	}
}
