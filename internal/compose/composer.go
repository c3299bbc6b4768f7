package compose

import (
	"context"
	"fmt"
	"strings"
	"time"

	"mailtriage/internal/models"
	"mailtriage/internal/store"

	"github.com/sashabaranov/go-openai"
)

// Model tags recorded on generated drafts
const (
	ModelTemplate = "template"
	ModelOpenAI   = openai.GPT4oMini
)

// Composer turns a classified email record into a reply draft. The template
// engine is the reference behavior and is fully deterministic; when an
// OpenAI key is configured a model-written draft is attempted first and the
// template is the fallback on any failure.
type Composer struct {
	store     store.Store
	openAIKey string
	timeout   time.Duration
}

// NewComposer creates a composer over the given store. An empty key
// disables the generative path entirely.
func NewComposer(s store.Store, openAIKey string, timeout time.Duration) *Composer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Composer{store: s, openAIKey: openAIKey, timeout: timeout}
}

// ComposeDraft generates a reply for the record and appends it to the store.
// Returns the stored draft.
func (c *Composer) ComposeDraft(ctx context.Context, rec models.EmailRecord) (models.ResponseDraft, error) {
	text, model := c.generate(ctx, rec)

	id, err := c.store.AddResponse(rec.ID, text, model)
	if err != nil {
		return models.ResponseDraft{}, fmt.Errorf("failed to store draft: %w", err)
	}
	return models.ResponseDraft{ID: id, EmailID: rec.ID, Draft: text, Model: model}, nil
}

func (c *Composer) generate(ctx context.Context, rec models.EmailRecord) (string, string) {
	if c.openAIKey != "" {
		if text, err := c.generateWithModel(ctx, rec); err == nil {
			return text, ModelOpenAI
		}
		// Model failures fall through to the deterministic template
	}
	return TemplateDraft(rec), ModelTemplate
}

func (c *Composer) generateWithModel(ctx context.Context, rec models.EmailRecord) (string, error) {
	client := openai.NewClient(c.openAIKey)
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body := rec.Body
	if len(body) > 4000 {
		body = body[:4000]
	}
	prompt := fmt.Sprintf(
		"Email Subject: %s\nSentiment: %s\nPriority: %s\nKey Phrases: %s\n\n"+
			"Customer Email:\n----- BEGIN EMAIL -----\n%s\n----- END EMAIL -----\n",
		rec.Subject, rec.Sentiment, rec.Priority,
		strings.Join(rec.Extraction.KeyPhrases, ", "), body)

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: openai.GPT4oMini,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: "You are a professional, empathetic customer support assistant. " +
					"Draft a clear, concise, friendly reply to the customer email. " +
					"If the sentiment is negative, begin with an acknowledgement of their frustration. " +
					"Do NOT invent facts; if information is missing, politely ask for it.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   500,
		Temperature: 0.4,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}
	return resp.Choices[0].Message.Content, nil
}

// TemplateDraft builds the deterministic reply: an opening keyed by
// sentiment/urgency and subject keywords, a body keyed by the matched
// key-phrase group, and a closing keyed by urgency. Parts are joined with
// blank lines in fixed order.
func TemplateDraft(rec models.EmailRecord) string {
	return opening(rec) + "\n\n" + mainContent(rec) + "\n\n" + closing(rec)
}

func opening(rec models.EmailRecord) string {
	name := rec.Sender
	if i := strings.Index(name, "@"); i > 0 {
		name = name[:i]
	}
	if name == "" {
		name = "valued customer"
	}
	greeting := fmt.Sprintf("Dear %s,\n\n", name)

	subject := strings.ToLower(rec.Subject)
	if rec.Sentiment == models.SentimentNegative || rec.Priority == models.PriorityUrgent {
		switch {
		case strings.Contains(subject, "cannot") || strings.Contains(subject, "unable") || strings.Contains(subject, "down"):
			return greeting + "I sincerely apologize for the inconvenience you're experiencing. " +
				"I understand how frustrating it must be when you're unable to access our services, " +
				"and I want to assure you that resolving this issue is my top priority."
		case strings.Contains(subject, "billing") || strings.Contains(subject, "charged"):
			return greeting + "Thank you for bringing this billing concern to our attention. " +
				"I understand how concerning unexpected charges can be, and I want to personally " +
				"ensure we resolve this matter quickly and to your satisfaction."
		default:
			return greeting + "I understand your concern and truly appreciate you taking the time " +
				"to reach out to us. Your experience matters greatly to us, and I'm here to help " +
				"resolve this issue promptly."
		}
	}
	return greeting + "Thank you for contacting our support team. I'm delighted to assist you with your inquiry today."
}

// phraseGroup pairs a reply paragraph with the key phrases that select it.
// Groups are checked in this order; first hit wins.
var phraseGroups = []struct {
	phrases []string
	text    string
}{
	{
		phrases: []string{"login", "access", "password", "account"},
		text: "I've reviewed your account access issue and will prioritize getting you back into " +
			"your account immediately. Our technical team has identified several effective solutions " +
			"for login-related concerns.\n\nTo expedite the resolution process, I'll be sending you " +
			"a secure password reset link within the next few minutes. Please check both your inbox " +
			"and spam folder.",
	},
	{
		phrases: []string{"billing", "charged", "payment", "refund"},
		text: "I've immediately escalated your billing inquiry to our specialized billing department " +
			"for review. We take billing accuracy very seriously and will conduct a thorough " +
			"investigation of your account charges.\n\nYou can expect a detailed breakdown of all " +
			"charges along with any necessary corrections within 24 hours.",
	},
	{
		phrases: []string{"integration", "api", "third-party"},
		text: "I'm excited to help you explore our integration capabilities! Our platform supports " +
			"extensive third-party integrations, including comprehensive CRM connectivity.\n\nI'll be " +
			"sending you our detailed integration guide along with API documentation within the next hour.",
	},
	{
		phrases: []string{"pricing", "subscription", "plan"},
		text: "I'd be happy to provide you with comprehensive pricing information tailored to your " +
			"specific needs. Our flexible subscription plans are designed to grow with your " +
			"business.\n\nI'll prepare a customized pricing breakdown that includes all available " +
			"features and any current promotional offers.",
	},
}

func mainContent(rec models.EmailRecord) string {
	phrases := rec.Extraction.KeyPhrases

	for _, g := range phraseGroups {
		for _, p := range phrases {
			for _, want := range g.phrases {
				if p == want {
					return g.text
				}
			}
		}
	}

	topic := "your request"
	if len(phrases) > 0 {
		n := len(phrases)
		if n > 3 {
			n = 3
		}
		topic = strings.Join(phrases[:n], ", ")
	}
	return fmt.Sprintf("I've carefully reviewed your inquiry regarding %s and want to provide you "+
		"with the most comprehensive assistance possible.\n\nOur team is committed to delivering "+
		"exceptional service, and I'll be following up with detailed information and next steps "+
		"within the next few hours.", topic)
}

func closing(rec models.EmailRecord) string {
	if rec.Priority == models.PriorityUrgent {
		return "Given the urgent nature of your request, I'm treating this with the highest " +
			"priority. You can expect an update from me within the next 2 hours, and I'll remain " +
			"available throughout the resolution process.\n\nIf you need immediate assistance, " +
			"please call our priority support line and mention ticket reference #SP-" +
			ticketRef(rec.ID) + ".\n\nWarm regards,\nCustomer Success Team"
	}
	return "I'm committed to ensuring your complete satisfaction with our resolution. You can " +
		"expect a follow-up from me within 24 hours with either a complete solution or a detailed " +
		"progress update.\n\nPlease don't hesitate to reach out if you have any additional " +
		"questions in the meantime.\n\nBest regards,\nCustomer Success Team"
}

// ticketRef derives a short ticket reference from the record id
func ticketRef(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return strings.ToUpper(id)
}
