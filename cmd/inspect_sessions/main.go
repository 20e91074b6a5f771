package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"docchat-be/internal/constant"
	"docchat-be/internal/entity"
	"docchat-be/internal/model"
	"docchat-be/pkg/database"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	var sessions []model.ChatSession
	if err := db.Order("created_at DESC").Find(&sessions).Error; err != nil {
		log.Fatal("Error: Failed to load sessions:", err)
	}

	color.Cyan("🔍 INSPECTING %d CHAT SESSIONS\n", len(sessions))

	for _, s := range sessions {
		var messages []entity.ChatMessage
		if err := json.Unmarshal(s.Messages, &messages); err != nil {
			color.Red("  %s  [CORRUPT MESSAGES: %v]", s.Id, err)
			continue
		}

		fmt.Printf("%s  %s\n", color.GreenString(s.Id), s.Title)
		fmt.Printf("  request_id=%s  version=%d  messages=%d\n", s.RequestId, s.Version, len(messages))
		fmt.Printf("  created=%s  updated=%s\n", s.CreatedAt.Format("2006-01-02 15:04:05"), s.UpdatedAt.Format("2006-01-02 15:04:05"))

		for _, m := range messages {
			label := color.YellowString("user")
			if m.Type == constant.ChatMessageTypeBot {
				label = color.MagentaString("bot ")
			}
			text := m.Text
			if len(text) > 80 {
				text = text[:80] + "..."
			}
			fmt.Printf("    [%s] %s (%d sources)\n", label, text, len(m.Sources))
		}
		fmt.Println()
	}
}
