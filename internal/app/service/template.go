package service

import (
	"strings"

	"github.com/hyunjae-dev/prooflink/config"
	"github.com/hyunjae-dev/prooflink/internal/app/model"
)

// TemplateContext holds the values substituted into message templates.
type TemplateContext struct {
	Brand     string
	URL       string
	Order     string
	Context   string
	Sender    string
	Recipient string
}

// RenderTemplate substitutes {brand} {url} {order} {context} {sender}
// {recipient} placeholders. Unknown placeholders are left untouched.
func RenderTemplate(template string, ctx TemplateContext) string {
	r := strings.NewReplacer(
		"{brand}", ctx.Brand,
		"{url}", ctx.URL,
		"{order}", ctx.Order,
		"{context}", ctx.Context,
		"{sender}", ctx.Sender,
		"{recipient}", ctx.Recipient,
	)
	return r.Replace(template)
}

// messageTemplates is the per-order template set after applying
// organization overrides on top of the global defaults.
type messageTemplates struct {
	RichSender        string
	RichRecipient     string
	SMSSender         string
	SMSRecipient      string
	Reminder          string
	KakaoTemplateCode string
	FallbackEnabled   bool
}

func templatesForOrder(org *model.Organization, cfg config.MessagingConfig) messageTemplates {
	t := messageTemplates{
		RichSender:        cfg.Templates.RichSender,
		RichRecipient:     cfg.Templates.RichRecipient,
		SMSSender:         cfg.Templates.SMSSender,
		SMSRecipient:      cfg.Templates.SMSRecipient,
		Reminder:          cfg.Templates.Reminder,
		KakaoTemplateCode: cfg.Kakao.TemplateCode,
		FallbackEnabled:   cfg.FallbackSMSEnabled,
	}
	if org == nil {
		return t
	}
	if org.RichTemplateSender != "" {
		t.RichSender = org.RichTemplateSender
	}
	if org.RichTemplateRecipient != "" {
		t.RichRecipient = org.RichTemplateRecipient
	}
	if org.SMSTemplateSender != "" {
		t.SMSSender = org.SMSTemplateSender
	}
	if org.SMSTemplateRecipient != "" {
		t.SMSRecipient = org.SMSTemplateRecipient
	}
	if org.KakaoTemplateCode != "" {
		t.KakaoTemplateCode = org.KakaoTemplateCode
	}
	if org.FallbackSMSEnabled != nil {
		t.FallbackEnabled = *org.FallbackSMSEnabled
	}
	return t
}

// shortBaseForOrder picks the base URL for short links: white-label domain
// first, then the configured short base, then the web base.
func shortBaseForOrder(org *model.Organization, cfg config.AppConfig) string {
	if org != nil && strings.TrimSpace(org.BrandDomain) != "" {
		return strings.TrimRight(strings.TrimSpace(org.BrandDomain), "/")
	}
	if cfg.ShortURLBase != "" {
		return strings.TrimRight(cfg.ShortURLBase, "/")
	}
	return strings.TrimRight(cfg.WebBaseURL, "/")
}

// brandForOrder picks the display brand: white-label name, org name, then
// the configured default.
func brandForOrder(org *model.Organization, cfg config.AppConfig) string {
	if org != nil {
		if b := strings.TrimSpace(org.BrandName); b != "" {
			return b
		}
		if b := strings.TrimSpace(org.Name); b != "" {
			return b
		}
	}
	return cfg.DefaultBrand
}
