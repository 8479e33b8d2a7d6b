// /internal/config/messages.go
package config

// Messages are the user-facing notice strings sent when a command is
// refused or fails. They are fixed at build time; chats needing other
// wording fork the binary, not the config.
type Messages struct {
	OwnerOnly   string
	GroupOnly   string
	PrivateOnly string
	AdminOnly   string
	BotAdmin    string
	Disabled    string
	Failed      string
	Cooldown    string // fmt verb %d receives remaining whole seconds
	Wait        string
	Done        string
	Error       string
}

// DefaultMessages returns the stock notice set.
func DefaultMessages() Messages {
	return Messages{
		OwnerOnly:   "Sorry, this feature is reserved for the owner.",
		GroupOnly:   "This feature can only be used in groups.",
		PrivateOnly: "This feature can only be used in private chat.",
		AdminOnly:   "This feature can only be used by group admins.",
		BotAdmin:    "The bot must be an admin to run this feature.",
		Disabled:    "Sorry, this feature is currently disabled by the owner!",
		Failed:      "Command failed, try again later.",
		Cooldown:    "Slow down, try again in %d seconds.",
		Wait:        "⏳ Please wait...",
		Done:        "✅ Done!",
		Error:       "❌ Something went wrong",
	}
}
