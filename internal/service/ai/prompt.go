package ai

import (
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/solace/backend/internal/config"
)

const systemPrompt = `You are a warm, non-judgmental companion on an anonymous emotional support board. Keep replies short, kind and free of medical claims. {tone}`

const supportPrompt = `The user is sharing a {emotion} experience:
"{content}"

Please respond with:
1. Emotional validation (1 sentence)
2. Supportive comment (1-2 sentences)
3. A thoughtful question or reflection`

const activitiesPrompt = `The user feels "{emotion}" and shared: "{content}"
Sentiment analysis result: {sentiment}.
Suggest three helpful, thoughtful activities based on their mood.`

// newPromptTemplate returns the chat template for a prompt mode.
func newPromptTemplate(mode string) prompt.ChatTemplate {
	user := supportPrompt
	if mode == config.PromptModeActivities {
		user = activitiesPrompt
	}

	return prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(user),
	)
}

// describeEmotion returns a tone hint for the known emotion tags.
func describeEmotion(emotion string) string {
	switch emotion {
	case "happy":
		return "The user feels good; share in their joy and help them savour it."
	case "sad":
		return "The user feels low; be gentle, patient and comforting."
	case "angry":
		return "The user is upset or frustrated; stay steady and help them cool down without dismissing them."
	case "anxious":
		return "The user feels anxious; be calm and grounding."
	case "neutral":
		return "Keep a clear, friendly and natural tone."
	default:
		return "Match the user's emotional register with care."
	}
}
