package models

// ===========================================================================
// Models Index
// Lists every model for GORM AutoMigrate.
// ===========================================================================

// AllModels returns all models for database.AutoMigrate
func AllModels() []interface{} {
	return []interface{}{
		&Profile{},         // Dashboard accounts
		&Domain{},          // Registered websites
		&DomainSettings{},  // Per-domain chatbot config
		&Conversation{},    // Chat sessions
		&Message{},         // Chat messages
		&Tag{},             // Inbox labels
		&ConversationTag{}, // Conversation-tag junction
		&FAQ{},             // Knowledge base Q&A
		&TrainingData{},    // Knowledge base snippets
	}
}
