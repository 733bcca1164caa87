package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/yonathanth/betbot-sub000/models"
	"github.com/yonathanth/betbot-sub000/storage"
)

// Grants the is_admin flag to a Telegram user, creating the row if needed.
//
//	go run scripts/seed_admin.go -id 123456789 -name "Abebe"
func main() {
	id := flag.Int64("id", 0, "Telegram user id to promote")
	name := flag.String("name", "", "display name for a newly created user")
	flag.Parse()

	if *id == 0 {
		log.Fatal("-id is required")
	}

	db := storage.InitializeDB()

	var user models.User
	err := db.Where("telegram_id = ?", *id).First(&user).Error
	if err != nil {
		active := true
		user = models.User{TelegramID: *id, DisplayName: *name, IsAdmin: true, IsActive: &active}
		if err := db.Create(&user).Error; err != nil {
			log.Fatalf("Error creating admin user: %v", err)
		}
		fmt.Printf("Created admin user %d\n", *id)
		return
	}

	if err := db.Model(&user).Update("is_admin", true).Error; err != nil {
		log.Fatalf("Error promoting user: %v", err)
	}
	fmt.Printf("Promoted user %d to admin\n", *id)
}
