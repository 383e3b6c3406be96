// Package main runs the storefront TUI locally against a file-backed cart.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/thomas/eva-cart-go/internal/app"
	"github.com/thomas/eva-cart-go/internal/config"
	"github.com/thomas/eva-cart-go/internal/currency"
	"github.com/thomas/eva-cart-go/internal/tui"
)

const deviceFile = "device-id"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("reading .env: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	// Local carts survive restarts.
	cfg.Store = config.StoreFile

	// The TUI owns the terminal, so logs go to a file.
	logFile, err := openLog(cfg.StoreDir)
	if err != nil {
		return err
	}
	defer logFile.Close()
	logger := app.NewLogger(cfg.LogLevel, logFile)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	device, err := deviceID(cfg.StoreDir, logger)
	if err != nil {
		return err
	}

	country, locale := currency.Detect(os.Getenv, cfg.DefaultCountry, cfg.DefaultLocale)
	sess, err := a.OpenSession(ctx, "device-"+device, country, locale)
	if err != nil {
		return fmt.Errorf("opening cart: %w", err)
	}
	logger.Info("Cart opened", "device", device, "country", country, "locale", locale)

	model := tui.NewModel(ctx, a.Catalog, sess, a.Engine.Currencies().Countries())
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

// deviceID returns the identifier stored in dir, creating one on first run.
func deviceID(dir string, logger *log.Logger) (string, error) {
	path := filepath.Join(dir, deviceFile)

	b, err := os.ReadFile(path)
	if err == nil {
		if id, err := uuid.Parse(strings.TrimSpace(string(b))); err == nil {
			return id.String(), nil
		}
		logger.Warn("Replacing invalid device id", "path", path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("reading device id: %w", err)
	}

	id := uuid.NewString()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating store dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(id+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("writing device id: %w", err)
	}
	return id, nil
}

func openLog(dir string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating store dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "cart.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log: %w", err)
	}
	return f, nil
}
