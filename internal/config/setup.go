package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-resty/resty/v2"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

// envKeyOrder is the order in which the setup wizard writes config.env.
var envKeyOrder = []string{
	"VISION_PROVIDER",
	"OPENAI_API_KEY",
	"GEMINI_API_KEY",
	"USE_OPENAI_MOCK",
	"EBAY_CLIENT_ID",
	"EBAY_CLIENT_SECRET",
	"EBAY_SANDBOX",
	"USE_EBAY_MOCK",
	"BOT_TOKEN",
}

// IsInteractiveTerminal returns true if both stdin and stdout are TTYs.
func IsInteractiveTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// RunSetupWizard collects credentials interactively and writes them to the
// user's config.env. Returns true if the configuration was saved.
func RunSetupWizard() bool {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("99")).
		MarginBottom(1)

	fmt.Println()
	fmt.Println(titleStyle.Render("📦 Listing Generator - Setup"))
	fmt.Println()

	provider := ProviderOpenAI
	ebaySandbox := true
	var openAIKey, geminiKey, ebayID, ebaySecret, botToken string
	var visionMock, ebayMock bool

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Vision provider").
				Options(
					huh.NewOption("OpenAI", ProviderOpenAI),
					huh.NewOption("Gemini", ProviderGemini),
				).
				Value(&provider),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("OpenAI API Key").
				Description("Leave empty to use mock item analysis").
				Value(&openAIKey).
				Validate(func(s string) error {
					if s == "" {
						return nil
					}
					return validateOpenAIKey(s)
				}),
		).WithHideFunc(func() bool { return provider != ProviderOpenAI }),
		huh.NewGroup(
			huh.NewInput().
				Title("Gemini API Key").
				Description("Get yours at https://aistudio.google.com/apikey").
				Value(&geminiKey),
		).WithHideFunc(func() bool { return provider != ProviderGemini }),
		huh.NewGroup(
			huh.NewInput().
				Title("eBay Client ID").
				Description("From https://developer.ebay.com/my/keys, leave empty for mock comparables").
				Value(&ebayID),
			huh.NewInput().
				Title("eBay Client Secret").
				EchoMode(huh.EchoModePassword).
				Value(&ebaySecret),
			huh.NewConfirm().
				Title("Use the eBay sandbox?").
				Value(&ebaySandbox),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Use mock item analysis?").
				Value(&visionMock),
			huh.NewConfirm().
				Title("Use mock comparable listings?").
				Value(&ebayMock),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Telegram Bot Token (optional)").
				Description("Message @BotFather on Telegram → /newbot → copy token").
				Value(&botToken),
		),
	).WithTheme(huh.ThemeBase16())

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("\nSetup cancelled.")
			return false
		}
		fmt.Printf("\nError: %v\n", err)
		return false
	}

	values := map[string]string{
		"VISION_PROVIDER":    provider,
		"OPENAI_API_KEY":     openAIKey,
		"GEMINI_API_KEY":     geminiKey,
		"USE_OPENAI_MOCK":    strconv.FormatBool(visionMock),
		"EBAY_CLIENT_ID":     ebayID,
		"EBAY_CLIENT_SECRET": ebaySecret,
		"EBAY_SANDBOX":       strconv.FormatBool(ebaySandbox),
		"USE_EBAY_MOCK":      strconv.FormatBool(ebayMock),
		"BOT_TOKEN":          botToken,
	}

	path, err := EnvFilePath()
	if err != nil {
		fmt.Printf("\nError saving configuration: %v\n", err)
		WaitOnWindows()
		return false
	}
	if err := WriteEnvFile(path, values); err != nil {
		fmt.Printf("\nError saving configuration: %v\n", err)
		WaitOnWindows()
		return false
	}

	successStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("42")).
		Bold(true)

	pathStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245"))

	fmt.Println()
	fmt.Println(successStyle.Render("✓ Configuration saved"))
	fmt.Println(pathStyle.Render("  " + path))
	fmt.Println()

	return true
}

// WriteEnvFile writes values to path in a fixed key order, skipping empty
// values. The file holds secrets, so it is created with 0600 permissions.
func WriteEnvFile(path string, values map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	for _, key := range envKeyOrder {
		val, ok := values[key]
		if !ok || val == "" {
			continue
		}
		if _, err := fmt.Fprintf(f, "%s=%q\n", key, val); err != nil {
			return fmt.Errorf("failed to write %s: %w", key, err)
		}
	}

	return nil
}

// ReadEnvFile parses a config.env without touching the process environment.
func ReadEnvFile(path string) (map[string]string, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return values, nil
}

// validateOpenAIKey checks a key against the models endpoint.
func validateOpenAIKey(key string) error {
	var apiErr struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}

	resp, err := resty.New().
		SetTimeout(10 * time.Second).
		R().
		SetAuthToken(key).
		SetError(&apiErr).
		Get("https://api.openai.com/v1/models")
	if err != nil {
		return errors.New("connection failed - check your internet")
	}
	if resp.IsError() {
		if apiErr.Error.Message != "" {
			return errors.New(apiErr.Error.Message)
		}
		return fmt.Errorf("API key rejected (HTTP %d)", resp.StatusCode())
	}
	return nil
}

// WaitOnWindows pauses execution on Windows so users can see error messages
// before the console window closes.
func WaitOnWindows() {
	if runtime.GOOS == "windows" {
		fmt.Println()
		fmt.Println("Press Enter to exit...")
		fmt.Scanln()
	}
}

// FatalWithWait logs a fatal error and waits on Windows before exiting.
func FatalWithWait(format string, args ...any) {
	log.Error().Msg(fmt.Sprintf(format, args...))
	WaitOnWindows()
	os.Exit(1)
}
