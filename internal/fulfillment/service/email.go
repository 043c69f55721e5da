package service

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"phasegarden/internal/fulfillment/models"
)

const (
	DefaultFromAddress = "PhaseGarden <orders@rnfaudio.space>"
	LicenseSubject     = "Your PhaseGarden Serial Number & Download"
	installerPath      = "/PhaseGarden_v1.0_Installer.pkg"
)

// EmailConfig fixes the license email envelope and download link.
type EmailConfig struct {
	From    string
	SiteURL string
}

func (c EmailConfig) validate() error {
	if strings.TrimSpace(c.From) == "" {
		return fmt.Errorf("email from address is required")
	}
	u, err := url.Parse(c.SiteURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("site url %q must be absolute", c.SiteURL)
	}
	return nil
}

// DownloadURL is the fixed installer location sent to every buyer.
func (c EmailConfig) DownloadURL() string {
	return strings.TrimRight(c.SiteURL, "/") + installerPath
}

var licenseHTML = template.Must(template.New("license").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <link href="https://fonts.googleapis.com/css2?family=DotGothic16&display=swap" rel="stylesheet">
  <style>
    body { font-family: 'DotGothic16', sans-serif; line-height: 1.8; color: #000; background: #fff; max-width: 600px; margin: 0 auto; padding: 40px 20px; }
    p { margin: 0 0 15px 0; }
    a { color: #000; text-decoration: underline; }
  </style>
</head>
<body>
  <p>PhaseGarden</p>
  <p>Thank you for your purchase.</p>

  <p>Your serial number:</p>
  <p>{{.Serial}}</p>

  <p>Download: <a href="{{.DownloadURL}}">{{.DownloadURL}}</a></p>

  <p>Installation:</p>
  <p>1. Download the installer package</p>
  <p>2. Double-click to run the installer</p>
  <p>3. Follow the installation prompts</p>
  <p>4. Rescan plugins in your DAW</p>
  <p>5. Open PhaseGarden and enter your serial number</p>

  <p>Your serial works on all your computers.</p>
  <p>Keep this email safe.</p>

  <p>&mdash; RNF Audio</p>
  <p>https://rnfaudio.space</p>
  <p>@rnf_audio</p>
</body>
</html>
`))

const licenseText = `PhaseGarden

Thank you for your purchase.

Your serial number:
%s

Download: %s

Your serial works on all your computers. Keep this email safe.

- RNF Audio
https://rnfaudio.space
@rnf_audio
`

func (c EmailConfig) compose(record *models.Record) (models.Email, error) {
	var html bytes.Buffer
	data := struct {
		Serial      string
		DownloadURL string
	}{Serial: record.Serial, DownloadURL: c.DownloadURL()}
	if err := licenseHTML.Execute(&html, data); err != nil {
		return models.Email{}, err
	}
	return models.Email{
		From:    c.From,
		To:      record.PayerEmail,
		Subject: LicenseSubject,
		HTML:    html.String(),
		Text:    fmt.Sprintf(licenseText, record.Serial, c.DownloadURL()),
	}, nil
}
