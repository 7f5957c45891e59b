//go:build ignore

// ===========================================================================
// Seed data for development/testing
// Run: go run scripts/seed/main.go
// ===========================================================================

package main

import (
	"fmt"
	"log"
	"time"

	"deplodash/internal/config"
	"deplodash/internal/database"
	"deplodash/internal/models"
	"deplodash/pkg/logger"
)

func main() {
	fmt.Println("Seeding data...")

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLog, err := logger.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	db, err := database.NewConnection(&cfg.Database, zapLog)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to migrate: %v", err)
	}

	fmt.Println("Connected to database")

	// =========================================================================
	// 1. Profile
	// =========================================================================
	profile := &models.Profile{
		Username: "demo",
		Email:    "demo@example.com",
		FullName: "Demo User",
	}
	if err := profile.SetPassword("password123"); err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	var existingProfile models.Profile
	if err := db.Where("email = ?", profile.Email).First(&existingProfile).Error; err == nil {
		fmt.Println("Profile demo@example.com already exists, reusing")
		profile = &existingProfile
	} else {
		if err := db.Create(profile).Error; err != nil {
			log.Fatalf("Failed to create profile: %v", err)
		}
		fmt.Printf("Created profile: %s (ID: %s)\n", profile.Email, profile.ID)
	}

	// =========================================================================
	// 2. Domain + Settings
	// =========================================================================
	domain := &models.Domain{
		ProfileID: profile.ID,
		Name:      "example.com",
	}

	var existingDomain models.Domain
	if err := db.Where("profile_id = ? AND name = ?", profile.ID, domain.Name).First(&existingDomain).Error; err == nil {
		fmt.Println("Domain example.com already exists, reusing")
		domain = &existingDomain
	} else {
		if err := db.Create(domain).Error; err != nil {
			log.Fatalf("Failed to create domain: %v", err)
		}
		fmt.Printf("Created domain: %s (ID: %s)\n", domain.Name, domain.ID)
	}

	settings := &models.DomainSettings{
		DomainID:        domain.ID,
		ChatbotName:     "Demo Bot",
		GreetingMessage: "Hi there! How can we help you today?",
		PrimaryColor:    "#4f46e5",
		HeaderTextColor: "#ffffff",
	}
	db.Where("domain_id = ?", domain.ID).Delete(&models.DomainSettings{})
	if err := db.Create(settings).Error; err != nil {
		log.Fatalf("Failed to create settings: %v", err)
	}
	fmt.Println("Created domain settings")

	// =========================================================================
	// 3. FAQs + Training Data
	// =========================================================================
	faqs := []models.FAQ{
		{DomainID: domain.ID, Question: "What are your opening hours?", Answer: "We are open Monday to Friday, 9am to 6pm."},
		{DomainID: domain.ID, Question: "How can I reset my password?", Answer: "Click 'Forgot password' on the login page and follow the email instructions."},
		{DomainID: domain.ID, Question: "Do you offer refunds?", Answer: "Yes, we offer a 30-day money-back guarantee on all plans."},
	}
	for i := range faqs {
		if err := db.Create(&faqs[i]).Error; err != nil {
			log.Fatalf("Failed to create FAQ: %v", err)
		}
	}
	fmt.Printf("Created %d FAQs\n", len(faqs))

	training := &models.TrainingData{
		DomainID: domain.ID,
		Content:  "Example Inc. sells project management software for small teams.",
	}
	if err := db.Create(training).Error; err != nil {
		log.Fatalf("Failed to create training data: %v", err)
	}
	fmt.Println("Created training data")

	// =========================================================================
	// 4. Tags
	// =========================================================================
	tags := []models.Tag{
		{DomainID: domain.ID, Name: "billing", Color: "#f59e0b"},
		{DomainID: domain.ID, Name: "support", Color: "#10b981"},
		{DomainID: domain.ID, Name: "sales", Color: "#6366f1"},
	}
	for i := range tags {
		if err := db.Create(&tags[i]).Error; err != nil {
			log.Fatalf("Failed to create tag: %v", err)
		}
	}
	fmt.Printf("Created %d tags\n", len(tags))

	// =========================================================================
	// 5. A demo conversation
	// =========================================================================
	sessionID := "seed-session-0001"
	now := time.Now()
	conversation := &models.Conversation{
		DomainID:      domain.ID,
		SessionID:     &sessionID,
		Title:         "New Conversation",
		Status:        models.StatusActive,
		LastMessageAt: &now,
	}
	if err := db.Create(conversation).Error; err != nil {
		log.Fatalf("Failed to create conversation: %v", err)
	}

	messages := []models.Message{
		{ConversationID: conversation.ID, Content: "Hi, what are your opening hours?", SenderType: models.SenderUser},
		{ConversationID: conversation.ID, Content: "We are open Monday to Friday, 9am to 6pm.", SenderType: models.SenderBot},
	}
	for i := range messages {
		if err := db.Create(&messages[i]).Error; err != nil {
			log.Fatalf("Failed to create message: %v", err)
		}
	}
	fmt.Println("Created demo conversation with messages")

	fmt.Println("Seed complete")
	fmt.Println("Login: demo@example.com / password123")
}
