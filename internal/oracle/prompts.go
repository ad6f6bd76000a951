package oracle

import (
	"fmt"
	"strings"
)

const sentimentPrompt = `You are an empathetic customer service agent.
Classify the sentiment of the following message as Neutral, Angry, Frustrated, or Stressed.
Return a raw JSON object without markdown formatting or triple backticks, in this structure:
{
  "reasoning": "step-by-step reasoning for your conclusion",
  "sentiment": "Neutral" | "Angry" | "Frustrated" | "Stressed"
}

Message to review:
%s`

const urgencyPrompt = `You are a technical customer service agent.
Based on this email, how urgent is the issue? Respond with one of: Low, Medium, High, Critical.
Return a raw JSON object without markdown formatting or triple backticks, in this structure:
{
  "reasoning": "step-by-step reasoning for your conclusion",
  "urgency": "Low" | "Medium" | "High" | "Critical"
}

Email to review:
%s`

const summaryPrompt = `You are a technical customer service agent.
Summarize the following email to help identify the main issue.
Suggest exactly 5 questions to get more information from the customer, so the issue can be better identified.
Return a raw JSON object without markdown formatting or triple backticks, in this structure:
{
  "summary": "one-paragraph issue summary",
  "reasoning": "step-by-step reasoning for your questions",
  "questions": ["question 1", "question 2", "question 3", "question 4", "question 5"]
}

Email to review:
%s`

const greetingPrompt = `You are a sympathetic customer support agent contacting a client who emailed the helpdesk.
This is the client's email:
%s

You have been provided with suggested clarification questions:
%s

Start by informing the client that by proceeding with the chat they accept the privacy policy (available at www.firsttier.support/privacy-policy).
Then greet the client politely, thank them for being a customer, and ask the first clarification question. You may use one of the suggested questions or ask a new one; its objective is to clarify the issue presented.
Ask only ONE question. Do not simulate the client's answer.
Return a raw JSON object without markdown formatting or triple backticks, in this structure:
{
  "greeting": "privacy notice, greeting, and thanks",
  "question": "the first clarification question"
}`

const nextQuestionPrompt = `You are a helpful AI support agent in a live conversation.
You have received the following customer email:

%s

Based on this email, you previously suggested some follow-up questions:
%s

Here is a summary of your previous interactions with the client:
%s

Your task is to ask ONE new, meaningful, non-redundant question that can help the technical team understand and resolve the issue faster. It must not repeat any question already asked.
Return a raw JSON object without markdown formatting or triple backticks, in this structure:
{
  "question": "the new question",
  "reasoning": "why this new question is useful given the history"
}`

func formatQuestions(questions []string) string {
	if len(questions) == 0 {
		return "(none provided)"
	}
	var sb strings.Builder
	for i, q := range questions {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, q)
	}
	return sb.String()
}

func formatHistory(history []HistoryEntry) string {
	if len(history) == 0 {
		return "(no previous interactions)"
	}
	var sb strings.Builder
	for i, entry := range history {
		fmt.Fprintf(&sb, "Q%d: %s | A: %s | Sentiment: %s\n", i+1, entry.Question, entry.Answer, entry.Sentiment)
	}
	return sb.String()
}
