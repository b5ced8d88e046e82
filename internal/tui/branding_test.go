package tui

import (
	"strings"
	"testing"

	"github.com/pders01/mrkt/internal/config"
)

func TestBanner(t *testing.T) {
	out := Banner("1.0.0-test")

	if !strings.Contains(out, "Marketplace Search") {
		t.Errorf("Expected banner to contain 'Marketplace Search', got: %s", out)
	}
	if !strings.Contains(out, "╔") || !strings.Contains(out, "╝") {
		t.Errorf("Expected banner to contain border characters, got: %s", out)
	}
	if !strings.Contains(out, "◆") {
		t.Errorf("Expected banner to contain separator symbols, got: %s", out)
	}
	if !strings.Contains(out, "v1.0.0-test") {
		t.Errorf("Expected banner to contain version 'v1.0.0-test', got: %s", out)
	}
	if strings.Contains(Banner("dev"), "vdev") {
		t.Errorf("dev builds should not carry a version tag")
	}
}

func TestGetCompactBanner(t *testing.T) {
	message := "Test message"
	result := GetCompactBanner(message)

	if !strings.Contains(result, message) {
		t.Errorf("Expected compact banner to contain '%s', got: %s", message, result)
	}
	if !strings.Contains(result, "█▀▄▀█") {
		t.Errorf("Expected compact banner to contain logo elements, got: %s", result)
	}
}

func TestGetWelcomeMessage(t *testing.T) {
	result := GetWelcomeMessage()

	if !strings.Contains(result, "Press / to search") {
		t.Errorf("Expected welcome message to contain search instructions, got: %s", result)
	}
}

func TestLogoConstants(t *testing.T) {
	if len(LogoLines) != 3 {
		t.Errorf("Expected 3 logo lines, got %d", len(LogoLines))
	}
	if len(BannerColors) != 5 {
		t.Errorf("Expected 5 banner colors, got %d", len(BannerColors))
	}
}

func TestApplyColors(t *testing.T) {
	oldPrimary, oldMuted := PrimaryColor, MutedColor
	defer func() {
		PrimaryColor, MutedColor = oldPrimary, oldMuted
		buildStyles()
	}()

	ApplyColors(config.UIColors{Primary: "#123456"})

	if PrimaryColor != "#123456" {
		t.Errorf("Expected primary color to be replaced, got %s", PrimaryColor)
	}
	if MutedColor != oldMuted {
		t.Errorf("Expected empty entries to keep defaults, got %s", MutedColor)
	}
}
