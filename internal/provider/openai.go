package provider

const mb = 1024 * 1024

func openAIProvider() ApiProvider {
	return ApiProvider{
		ID:   ProviderOpenAI,
		Name: "OpenAI",
		Capabilities: Capabilities{
			Transcription:  true,
			Translation:    true,
			TextCompletion: true,
		},
		Models: Models{
			Transcription: []TranscriptionModel{
				{
					ID:                  "whisper-1",
					Name:                "Whisper 1",
					Language:            Multilingual,
					SupportsTranslation: true,
					CostPerHour:         0.36,
					SpeedFactor:         1,
					ErrorRate:           10.6,
				},
			},
			TextCompletion: []CompletionModel{
				{ID: "gpt-4o-mini", Name: "GPT-4o Mini", ContextWindow: 128000},
				{ID: "gpt-4o", Name: "GPT-4o", ContextWindow: 128000},
			},
			DefaultCompletion: "gpt-4o-mini",
		},
		Endpoints: Endpoints{
			BaseURL:        "https://api.openai.com/v1",
			Transcription:  "/audio/transcriptions",
			Translation:    "/audio/translations",
			TextCompletion: "/chat/completions",
		},
		Limitations: Limitations{
			MaxFileSize:              25 * mb,
			MinFileLength:            0.1,
			MinBilledLength:          0,
			SupportedFileTypes:       []string{"flac", "mp3", "mp4", "mpeg", "mpga", "m4a", "ogg", "wav", "webm"},
			SupportedResponseFormats: []string{"json", "text", "srt", "verbose_json", "vtt"},
		},
		Translation: &TranslationInfo{
			SourceLanguages: []string{SourceLanguagesAny},
			TargetLanguage:  "en",
			ModelSupport:    map[string]bool{"whisper-1": true},
		},
		PromptGuidelines: PromptGuidelines{
			MaxTokens: 224,
			BestPractices: []string{
				"Spell out product names and acronyms the way they should be transcribed",
				"Write the prompt in the language of the audio",
				"Use punctuation in the prompt to encourage punctuated output",
			},
			Restrictions: []string{
				"Only the final 224 tokens of the prompt are considered",
			},
		},
	}
}
