package config

const openRouterEndpoint = "https://openrouter.ai/api/v1/chat/completions"

func DefaultSystemConfig() *SystemConfig {
	return &SystemConfig{
		DataDirectory: GetDefaultDataDir(),
	}
}

// DefaultUserConfig returns the stock configuration: the three moseb models,
// each bound to its own OpenRouter upstream. moseb-ai is the one backend
// that expects the multi-part content array; the other two take flat
// strings. The asymmetry is part of the backend contract, not an accident.
func DefaultUserConfig() *UserConfig {
	return &UserConfig{
		DefaultModel: "moseb-ai",
		Theme:        "dark",
		LogLevel:     "warn",
		Storage:      StorageConfig{Backend: StorageFile},
		Image:        ImageConfig{Endpoint: "https://image.pollinations.ai/prompt"},
		Routes: []RouteConfig{
			{
				ID:           "moseb-ai",
				Endpoint:     openRouterEndpoint,
				Model:        "mistralai/mistral-small-3.1-24b-instruct:free",
				PayloadShape: PayloadShapeParts,
				Title:        "Moseb AI",
			},
			{
				ID:           "moseb-reason",
				Endpoint:     openRouterEndpoint,
				Model:        "nvidia/llama-3.1-nemotron-ultra-253b-v1:free",
				PayloadShape: PayloadShapeFlat,
				Title:        "Moseb AI",
			},
			{
				ID:           "moseb-code",
				Endpoint:     openRouterEndpoint,
				Model:        "deepseek/deepseek-prover-v2:free",
				PayloadShape: PayloadShapeFlat,
				Title:        "Moseb AI",
			},
		},
	}
}

func GenerateSystemConfigTemplate() string {
	return `# Moseb System Configuration
# Location: ~/.config/moseb/settings.toml
# This file uses TOML format: https://toml.io

# Directory where chats, user config and credentials are stored
data_directory = "~/.local/share/moseb"
`
}

func GenerateUserConfigTemplate() string {
	return `# Moseb User Configuration
# Location: <data_directory>/config.toml
# This file uses TOML format: https://toml.io

# Model used for new chats and sends: moseb-ai, moseb-reason or moseb-code
default_model = "moseb-ai"

# Display theme: "dark" or "light"
theme = "dark"

# Logging: trace, debug, info, warn, error
log_level = "warn"

[storage]
# Chat persistence backend: "file" or "sqlite"
backend = "file"

[image]
# Image synthesis endpoint; the prompt is appended URL-encoded
endpoint = "https://image.pollinations.ai/prompt"

# Identity provider (optional)
# [auth]
# url = "https://<project>.supabase.co/auth/v1"
# api_key = ""

# Model routes. payload_shape is "parts" (nested content array) or "flat".
# API keys go in credentials.toml, keyed by route id.
[[routes]]
id = "moseb-ai"
endpoint = "https://openrouter.ai/api/v1/chat/completions"
model = "mistralai/mistral-small-3.1-24b-instruct:free"
payload_shape = "parts"
title = "Moseb AI"

[[routes]]
id = "moseb-reason"
endpoint = "https://openrouter.ai/api/v1/chat/completions"
model = "nvidia/llama-3.1-nemotron-ultra-253b-v1:free"
payload_shape = "flat"
title = "Moseb AI"

[[routes]]
id = "moseb-code"
endpoint = "https://openrouter.ai/api/v1/chat/completions"
model = "deepseek/deepseek-prover-v2:free"
payload_shape = "flat"
title = "Moseb AI"
`
}
