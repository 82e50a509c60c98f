package memory

// Config bounds a conversation memory. Zero fields take their defaults.
type Config struct {
	// MaxMessages caps the number of user turns held.
	MaxMessages int `json:"max_messages"`

	// MaxContextLength caps the total characters of stored messages, user
	// messages and replies alike.
	MaxContextLength int `json:"max_context_length"`

	// MaxTopics is the number of distinct topics allowed before overflow.
	MaxTopics int `json:"max_topics"`

	// RecentWindow is how many recent turns threading and summaries look at.
	RecentWindow int `json:"recent_window"`

	// SummaryExchanges is how many exchanges a reset summary keeps verbatim.
	SummaryExchanges int `json:"summary_exchanges"`

	// MaxPersonalSubjects caps the personal_subjects key fact list.
	MaxPersonalSubjects int `json:"max_personal_subjects"`
}

const (
	DefaultMaxMessages         = 50
	DefaultMaxContextLength    = 15000
	DefaultMaxTopics           = 8
	DefaultRecentWindow        = 5
	DefaultSummaryExchanges    = 10
	DefaultMaxPersonalSubjects = 20
)

// DefaultConfig returns the stock bounds.
func DefaultConfig() Config {
	return Config{
		MaxMessages:         DefaultMaxMessages,
		MaxContextLength:    DefaultMaxContextLength,
		MaxTopics:           DefaultMaxTopics,
		RecentWindow:        DefaultRecentWindow,
		SummaryExchanges:    DefaultSummaryExchanges,
		MaxPersonalSubjects: DefaultMaxPersonalSubjects,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxMessages <= 0 {
		c.MaxMessages = d.MaxMessages
	}
	if c.MaxContextLength <= 0 {
		c.MaxContextLength = d.MaxContextLength
	}
	if c.MaxTopics <= 0 {
		c.MaxTopics = d.MaxTopics
	}
	if c.RecentWindow <= 0 {
		c.RecentWindow = d.RecentWindow
	}
	if c.SummaryExchanges <= 0 {
		c.SummaryExchanges = d.SummaryExchanges
	}
	if c.MaxPersonalSubjects <= 0 {
		c.MaxPersonalSubjects = d.MaxPersonalSubjects
	}
	return c
}
