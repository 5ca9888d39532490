package service

import "html/template"

// Email kinds used for audit records and metrics labels.
const (
	EmailKindVerification = "email_verification"
	EmailKindWelcome      = "welcome"
	EmailKindWeatherAlert = "weather_alert"
	EmailKindDailySummary = "daily_summary"
	EmailKindDeactivated     = "account_deactivated"
	EmailKindReactivated     = "account_reactivated"
	EmailKindDeleted         = "account_deleted"
	EmailKindSettings        = "profile_updated"
	EmailKindPasswordChanged = "password_changed"
	EmailKindGeneric         = "generic"
)

var emailTemplates = template.Must(template.New("emails").Parse(`
{{define "layout_top"}}
<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #2c3e50; margin: 0; padding: 24px;">
  <div style="max-width: 560px; margin: 0 auto;">
    <h2 style="color: #2980b9;">Climascope</h2>
{{end}}

{{define "layout_bottom"}}
    <p style="color: #95a5a6; font-size: 12px; margin-top: 32px;">
      You are receiving this email because of your Climascope notification settings.
    </p>
  </div>
</body>
</html>
{{end}}

{{define "email_verification"}}
{{template "layout_top"}}
    <p>Hi {{.Name}},</p>
    <p>Please confirm your email address to start receiving weather notifications.</p>
    <p>
      <a href="{{.VerifyURL}}" style="background: #2980b9; color: #ffffff; padding: 10px 18px; text-decoration: none; border-radius: 4px;">
        Verify email
      </a>
    </p>
    <p>This link is valid for 24 hours. If you did not create an account, ignore this email.</p>
{{template "layout_bottom"}}
{{end}}

{{define "welcome"}}
{{template "layout_top"}}
    <p>Hi {{.Name}},</p>
    <p>Your email address is verified. Add favorite cities and set temperature
    thresholds to start receiving weather alerts.</p>
{{template "layout_bottom"}}
{{end}}

{{define "weather_alert"}}
{{template "layout_top"}}
    <p>Hi {{.Name}},</p>
    <p style="font-size: 16px;"><strong>{{.City}}</strong></p>
    <p>{{.Message}}</p>
    {{if .Temperature}}<p>Current temperature: <strong>{{printf "%.1f" .Temperature}}°C</strong></p>{{end}}
    {{if .Condition}}<p>Conditions: {{.Condition}}</p>{{end}}
{{template "layout_bottom"}}
{{end}}

{{define "daily_summary"}}
{{template "layout_top"}}
    <p>Hi {{.Name}},</p>
    <p>Here is today's weather for your favorite cities:</p>
    {{range .Cities}}
    <div style="border: 1px solid #ecf0f1; border-radius: 4px; padding: 12px; margin-bottom: 8px;">
      <strong>{{.City}}{{if .Country}}, {{.Country}}{{end}}</strong><br>
      {{printf "%.1f" .Temperature}}°C (feels like {{printf "%.1f" .FeelsLike}}°C), {{.Description}}<br>
      Humidity: {{printf "%.0f" .Humidity}}%
    </div>
    {{end}}
{{template "layout_bottom"}}
{{end}}

{{define "account_deactivated"}}
{{template "layout_top"}}
    <p>Hi {{.Name}},</p>
    <p>Your account has been deactivated. You will not receive any weather
    notifications until you reactivate it.</p>
{{template "layout_bottom"}}
{{end}}

{{define "account_reactivated"}}
{{template "layout_top"}}
    <p>Hi {{.Name}},</p>
    <p>Welcome back! Your account is active again and weather notifications
    will resume per your settings.</p>
{{template "layout_bottom"}}
{{end}}

{{define "account_deleted"}}
{{template "layout_top"}}
    <p>Hi {{.Name}},</p>
    <p>Your account and all associated data have been deleted. We are sorry to
    see you go.</p>
{{template "layout_bottom"}}
{{end}}

{{define "profile_updated"}}
{{template "layout_top"}}
    <p>Hi {{.Name}},</p>
    <p>Your notification settings were updated. If you did not make this change,
    please review your account.</p>
{{template "layout_bottom"}}
{{end}}

{{define "password_changed"}}
{{template "layout_top"}}
    <p>Hi {{.Name}},</p>
    <p>Your password was changed. If you did not make this change, please
    review your account immediately.</p>
{{template "layout_bottom"}}
{{end}}

{{define "generic"}}
{{template "layout_top"}}
    <p>Hi {{.Name}},</p>
    <p>{{.Message}}</p>
{{template "layout_bottom"}}
{{end}}
`))
