package provider

func groqProvider() ApiProvider {
	return ApiProvider{
		ID:   ProviderGroq,
		Name: "Groq",
		Capabilities: Capabilities{
			Transcription:  true,
			Translation:    true,
			TextCompletion: true,
		},
		Models: Models{
			Transcription: []TranscriptionModel{
				{
					ID:                  "distil-whisper-large-v3-en",
					Name:                "Distil-Whisper English",
					Language:            EnglishOnly,
					SupportsTranslation: false,
					CostPerHour:         0.02,
					SpeedFactor:         250,
					ErrorRate:           11.3,
				},
				{
					ID:                  "whisper-large-v3",
					Name:                "Whisper Large V3",
					Language:            Multilingual,
					SupportsTranslation: true,
					CostPerHour:         0.111,
					SpeedFactor:         189,
					ErrorRate:           10.3,
				},
				{
					ID:                  "whisper-large-v3-turbo",
					Name:                "Whisper Large V3 Turbo",
					Language:            Multilingual,
					SupportsTranslation: false,
					CostPerHour:         0.04,
					SpeedFactor:         216,
					ErrorRate:           12,
				},
			},
			TextCompletion: []CompletionModel{
				{ID: "llama-3.3-70b-versatile", Name: "Llama 3.3 70B", ContextWindow: 128000},
				{ID: "llama-3.1-8b-instant", Name: "Llama 3.1 8B Instant", ContextWindow: 128000},
			},
			DefaultCompletion: "llama-3.3-70b-versatile",
		},
		Endpoints: Endpoints{
			BaseURL:        "https://api.groq.com/openai/v1",
			Transcription:  "/audio/transcriptions",
			Translation:    "/audio/translations",
			TextCompletion: "/chat/completions",
		},
		Limitations: Limitations{
			MaxFileSize:              25 * mb,
			MinFileLength:            0.01,
			MinBilledLength:          10,
			SupportedFileTypes:       []string{"flac", "mp3", "mp4", "mpeg", "mpga", "m4a", "ogg", "wav", "webm"},
			SupportedResponseFormats: []string{"json", "verbose_json", "text"},
		},
		Translation: &TranslationInfo{
			SourceLanguages: []string{SourceLanguagesAny},
			TargetLanguage:  "en",
			ModelSupport: map[string]bool{
				"whisper-large-v3":           true,
				"whisper-large-v3-turbo":     false,
				"distil-whisper-large-v3-en": false,
			},
		},
		PromptGuidelines: PromptGuidelines{
			MaxTokens: 224,
			BestPractices: []string{
				"Provide contextual information about the audio",
				"Use the same language as the audio",
				"Steer style with punctuation and capitalization examples",
			},
			Restrictions: []string{
				"Prompts are limited to 224 tokens",
				"Prompts are not instructions; the model does not follow commands",
			},
		},
	}
}
