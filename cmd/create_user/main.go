package main

import (
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"os"

	"livrocaixa/models"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	admin := flag.Bool("admin", false, "create the user with the admin role")
	flag.Parse()
	if flag.NArg() < 2 {
		fmt.Println("usage: go run ./cmd/create_user [-admin] <username> <password>")
		os.Exit(2)
	}
	username, password := flag.Arg(0), flag.Arg(1)

	db, err := openDB()
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	// check existing
	var existing models.User
	if err := db.Where("username = ?", username).First(&existing).Error; err == nil {
		fmt.Printf("user %s already exists (id=%d)\n", username, existing.ID)
		os.Exit(0)
	}

	role := models.RoleNormal
	if *admin {
		role = models.RoleAdmin
	}
	sum := sha256.Sum256([]byte(password))
	user := models.User{
		Username:     username,
		PasswordHash: hex.EncodeToString(sum[:]),
		Role:         role,
		Active:       true,
	}
	if err := db.Create(&user).Error; err != nil {
		log.Fatalf("failed to create user: %v", err)
	}
	fmt.Printf("created user %s (id=%d, role=%s)\n", username, user.ID, user.Role)
}

// openDB mirrors the server's connection rules: DATABASE_URL selects
// Postgres, otherwise a local sqlite file is used.
func openDB() (*gorm.DB, error) {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return gorm.Open(postgres.Open(dsn), &gorm.Config{})
	}
	path := os.Getenv("DATABASE_PATH")
	if path == "" {
		path = "livrocaixa.db"
	}
	return gorm.Open(sqlite.Open(path), &gorm.Config{})
}
