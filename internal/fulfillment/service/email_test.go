package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phasegarden/internal/fulfillment/models"
)

func TestEmailConfig(t *testing.T) {
	t.Run("download url ignores trailing slash", func(t *testing.T) {
		cfg := EmailConfig{From: DefaultFromAddress, SiteURL: "https://phasegarden.example/"}
		assert.Equal(t, "https://phasegarden.example/PhaseGarden_v1.0_Installer.pkg", cfg.DownloadURL())
	})

	t.Run("validate", func(t *testing.T) {
		assert.NoError(t, EmailConfig{From: DefaultFromAddress, SiteURL: "http://localhost:3000"}.validate())
		assert.Error(t, EmailConfig{SiteURL: "http://localhost:3000"}.validate())
		assert.Error(t, EmailConfig{From: DefaultFromAddress, SiteURL: "localhost"}.validate())
	})

	t.Run("compose escapes and carries serial", func(t *testing.T) {
		cfg := EmailConfig{From: DefaultFromAddress, SiteURL: "https://phasegarden.example"}
		msg, err := cfg.compose(&models.Record{Serial: "ABCD-EFGH-IJKL-MNOP", PayerEmail: "buyer@example.com"})
		require.NoError(t, err)

		assert.Equal(t, "buyer@example.com", msg.To)
		assert.Equal(t, DefaultFromAddress, msg.From)
		assert.Equal(t, LicenseSubject, msg.Subject)
		assert.Contains(t, msg.HTML, "ABCD-EFGH-IJKL-MNOP")
		assert.Contains(t, msg.HTML, `href="https://phasegarden.example/PhaseGarden_v1.0_Installer.pkg"`)
		assert.Contains(t, msg.Text, "ABCD-EFGH-IJKL-MNOP")
		assert.Contains(t, msg.Text, "https://phasegarden.example/PhaseGarden_v1.0_Installer.pkg")
	})

	t.Run("html keeps the storefront signature", func(t *testing.T) {
		cfg := EmailConfig{From: DefaultFromAddress, SiteURL: "https://phasegarden.example"}
		msg, err := cfg.compose(&models.Record{Serial: "ABCD-EFGH-IJKL-MNOP", PayerEmail: "buyer@example.com"})
		require.NoError(t, err)

		assert.Contains(t, msg.HTML, `<link href="https://fonts.googleapis.com/css2?family=DotGothic16&display=swap" rel="stylesheet">`)
		assert.Contains(t, msg.HTML, "<p>&mdash; RNF Audio</p>")
		assert.Contains(t, msg.HTML, "<p>@rnf_audio</p>")
		assert.Contains(t, msg.Text, "@rnf_audio")
	})

	t.Run("compose escapes markup in serial", func(t *testing.T) {
		cfg := EmailConfig{From: DefaultFromAddress, SiteURL: "https://phasegarden.example"}
		msg, err := cfg.compose(&models.Record{Serial: "<b>x</b>", PayerEmail: "buyer@example.com"})
		require.NoError(t, err)
		assert.NotContains(t, msg.HTML, "<b>x</b>")
	})
}
