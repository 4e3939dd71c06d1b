// Package setup implements the interactive configuration wizard.
package setup

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

type generatedConfig struct {
	Platform      string        `yaml:"platform"`
	HTTPAddr      string        `yaml:"http_addr"`
	ScanInterval  time.Duration `yaml:"scan_interval"`
	AlertInterval time.Duration `yaml:"alert_interval"`
	APIKey        string        `yaml:"api_key,omitempty"`
	APISecret     string        `yaml:"api_secret,omitempty"`
}

// RunTUI launches the terminal configuration wizard and writes the result to
// config.gen.yaml.
func RunTUI() error {
	var (
		platform         string
		httpAddr         string
		scanIntervalStr  string
		alertIntervalStr string
		apiKey           string
		apiSecret        string
		confirm          bool
	)

	// defaults
	httpAddr = ":8080"
	scanIntervalStr = "5s"
	alertIntervalStr = "30s"

	fmt.Print("\033[H\033[2J") // Clear screen
	fmt.Println(headerStyle.Render("KONGBOT CONFIG WIZARD"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Let's get your trade bot set up.\n"))

	fmt.Println(stepStyle.Render("STEP 1: PRICE FEED"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select price feed platform").
				Options(
					huh.NewOption("CoinGecko (no keys required)", "coingecko"),
					huh.NewOption("Binance", "binance"),
					huh.NewOption("Bybit", "bybit"),
					huh.NewOption("Hyperliquid", "hyperliquid"),
					huh.NewOption("Static (simulation)", "static"),
				).
				Value(&platform),
		),
	).Run()
	if err != nil {
		return err
	}

	if platform == "binance" || platform == "bybit" {
		fmt.Println(stepStyle.Render("STEP 2: API KEYS"))
		err = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().Title("API key").Value(&apiKey),
				huh.NewInput().Title("API secret").Value(&apiSecret).EchoMode(huh.EchoModePassword),
			),
		).Run()
		if err != nil {
			return err
		}
	}

	fmt.Println(stepStyle.Render("STEP 3: INTERVALS"))
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("HTTP listen address").Value(&httpAddr),
			huh.NewInput().Title("Pending order scan interval").Value(&scanIntervalStr),
			huh.NewInput().Title("Price alert check interval").Value(&alertIntervalStr),
		),
	).Run()
	if err != nil {
		return err
	}

	scanInterval, err := time.ParseDuration(scanIntervalStr)
	if err != nil {
		return fmt.Errorf("invalid scan interval: %w", err)
	}
	alertInterval, err := time.ParseDuration(alertIntervalStr)
	if err != nil {
		return fmt.Errorf("invalid alert interval: %w", err)
	}

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Write config.gen.yaml?").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}
	if !confirm {
		fmt.Println("aborted, nothing written")
		return nil
	}

	payload, err := yaml.Marshal(generatedConfig{
		Platform:      platform,
		HTTPAddr:      httpAddr,
		ScanInterval:  scanInterval,
		AlertInterval: alertInterval,
		APIKey:        apiKey,
		APISecret:     apiSecret,
	})
	if err != nil {
		return err
	}

	if err := os.WriteFile("config.gen.yaml", payload, 0o600); err != nil {
		return err
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render("config.gen.yaml written. Start the bot with -config config.gen.yaml"))
	return nil
}
