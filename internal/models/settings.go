package models

type Settings struct {
	Name          string               `json:"name"`
	Email         string               `json:"email" validate:"omitempty,email"`
	ExamDate      string               `json:"examDate" validate:"omitempty,datetime=2006-01-02"`
	StudyGoal     int                  `json:"studyGoal" validate:"gte=0,lte=1440"`
	Notifications NotificationSettings `json:"notifications"`
	Preferences   PreferenceSettings   `json:"preferences"`
	Privacy       PrivacySettings      `json:"privacy"`
}

type NotificationSettings struct {
	DailyReminder  bool `json:"dailyReminder"`
	WeeklyProgress bool `json:"weeklyProgress"`
	ExamReminder   bool `json:"examReminder"`
}

type PreferenceSettings struct {
	DarkMode         bool `json:"darkMode"`
	SoundEffects     bool `json:"soundEffects"`
	AutoAdvance      bool `json:"autoAdvance"`
	ShowExplanations bool `json:"showExplanations"`
	FlashcardTimer   int  `json:"flashcardTimer" validate:"gte=0"`
}

type PrivacySettings struct {
	TrackProgress bool `json:"trackProgress"`
	ShareStats    bool `json:"shareStats"`
}

// DefaultSettings returns the settings used when nothing has been stored.
func DefaultSettings() Settings {
	return Settings{
		StudyGoal: 30,
		Notifications: NotificationSettings{
			DailyReminder:  true,
			WeeklyProgress: true,
			ExamReminder:   true,
		},
		Preferences: PreferenceSettings{
			SoundEffects:     true,
			ShowExplanations: true,
		},
		Privacy: PrivacySettings{
			TrackProgress: true,
		},
	}
}
