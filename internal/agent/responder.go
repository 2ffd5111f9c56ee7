package agent

import (
	"math/rand"
)

// FallbackReply substitutes for an empty or failed generation so the
// counterpart always gets an answer.
const FallbackReply = "Sorry sir, network issue. Can you repeat?"

// cannedReplies keeps the counterpart engaged when the LLM generator
// is disabled. All stay in character: confused, worried, stalling.
var cannedReplies = []string{
	"I don't understand. What bank account?",
	"Sorry, can you explain more clearly?",
	"Which account are you talking about?",
	"I have multiple accounts. Which one?",
	"My grandson usually handles these things for me.",
	"Wait, let me get my reading glasses first.",
	"Oh no! What should I do?",
	"Please help me! I don't want my account blocked!",
	"I'm scared. What information do you need?",
	"My pension money is in that account!",
	"Let me find my documents. One moment please.",
	"Hold on, someone is at the door...",
	"Wait, my phone is dying. Let me find the charger.",
	"Can you hold? I need to find my reading glasses.",
	"What company did you say you're from?",
	"Can you give me your employee ID?",
	"What's your callback number?",
}

// CannedReply returns a random engagement reply from the fixed pool.
func CannedReply() string {
	return cannedReplies[rand.Intn(len(cannedReplies))]
}
