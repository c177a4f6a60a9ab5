package model

import "time"

// Organization is the multi-tenant scope unit. White-label fields override
// the internal name/logo on public pages; template fields override the
// global message templates when set.
type Organization struct {
	ID       uint   `db:"id" gorm:"primaryKey"`
	Name     string `db:"name" gorm:"size:255;not null"`
	PlanType string `db:"plan_type" gorm:"size:16;not null;default:BASIC"`
	LogoURL  string `db:"logo_url" gorm:"size:500"`

	BrandName    string `db:"brand_name" gorm:"size:255"`
	BrandLogoURL string `db:"brand_logo_url" gorm:"size:500"`
	BrandDomain  string `db:"brand_domain" gorm:"size:255"`
	HideBranding bool   `db:"hide_branding" gorm:"not null;default:false"`

	// Message template overrides. Empty means "use global default".
	// Supported placeholders: {brand} {url} {order} {context} {sender} {recipient}
	RichTemplateSender    string `db:"rich_template_sender" gorm:"type:text"`
	RichTemplateRecipient string `db:"rich_template_recipient" gorm:"type:text"`
	SMSTemplateSender     string `db:"sms_template_sender" gorm:"type:text"`
	SMSTemplateRecipient  string `db:"sms_template_recipient" gorm:"type:text"`
	KakaoTemplateCode     string `db:"kakao_template_code" gorm:"size:100"`

	// Nil inherits the global fallback setting.
	FallbackSMSEnabled *bool `db:"fallback_sms_enabled"`

	CreatedAt time.Time `db:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `db:"updated_at" gorm:"autoUpdateTime"`
}

// DisplayName prefers the white-label brand name over the internal name.
func (o *Organization) DisplayName() string {
	if o.BrandName != "" {
		return o.BrandName
	}
	return o.Name
}

// DisplayLogo prefers the white-label logo.
func (o *Organization) DisplayLogo() string {
	if o.BrandLogoURL != "" {
		return o.BrandLogoURL
	}
	return o.LogoURL
}
