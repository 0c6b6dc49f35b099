package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"tictactoe/internal/client"
	"tictactoe/internal/config"
	"tictactoe/internal/entity"
)

// main - is the entry point of the terminal client. It initializes the
// configuration, logger, and runs the session.
func main() {
	defer func() {
		if err := recover(); err != nil {
			fmt.Fprintf(os.Stderr, "recovered from panic: %v\n", err)
			os.Exit(1)
		}
	}()

	conf := initConfig()
	logger := initLogger(conf)

	if err := run(logger, conf); err != nil {
		panic(fmt.Errorf("client run failed: %w", err))
	}
}

// initialize config.
func initConfig() *config.Config {
	baseDir, err := os.Getwd()
	if err != nil {
		panic(fmt.Errorf("failed to get current directory: %w", err))
	}

	return config.MustLoad(filepath.Join(baseDir, "./config.yml"))
}

// initialize logger.
func initLogger(conf *config.Config) *slog.Logger {
	var level slog.Level

	switch conf.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	default:
		level = slog.LevelWarn
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func run(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	input := make(chan string)
	go func() {
		defer close(input)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			input <- strings.TrimSpace(scanner.Text())
		}
	}()

	service := client.New(logger, &conf.Server)
	mirror := client.NewMirror()

	username := conf.Username
	if username == "" {
		fmt.Print("Username: ")
		var ok bool
		if username, ok = <-input; !ok {
			return nil
		}
	}

	mirror.IsLoading = true

	session, err := service.Authenticate(ctx, username)
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}
	mirror.SetUser(session.UserID, session.Username)

	if err = service.ConnectSocket(ctx); err != nil {
		return fmt.Errorf("socket connect failed: %w", err)
	}
	defer service.Disconnect()

	matchID, err := service.FindMatch(ctx)
	if err != nil {
		return fmt.Errorf("match discovery failed: %w", err)
	}

	if err = service.JoinMatch(ctx, matchID); err != nil {
		return fmt.Errorf("match join failed: %w", err)
	}
	mirror.SetMatch(matchID)
	mirror.IsLoading = false

	fmt.Printf("Hello %s! Waiting for an opponent...\n", session.Username)

	for {
		select {
		case <-ctx.Done():
			return leave(service, log)

		case event, ok := <-service.Events():
			if !ok {
				fmt.Println("Connection lost.")
				return nil
			}

			mirror.Apply(event)
			render(mirror)

			if mirror.Status == entity.StatusEnded {
				renderOutcome(mirror)
				return leave(service, log)
			}

		case line, ok := <-input:
			if !ok || line == "q" || line == "quit" {
				return leave(service, log)
			}

			position, convErr := strconv.Atoi(line)
			if convErr != nil {
				fmt.Println("Enter a cell number (0-8), or q to quit.")
				continue
			}

			if !mirror.IsMyTurn() {
				fmt.Println("Not your turn.")
				continue
			}

			if err = service.SendMove(position); err != nil {
				log.Error("failed to send move", "error", err)
			}
		}
	}
}

func leave(service *client.Service, log *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), client.LeaveTimeout)
	defer cancel()

	if service.MatchID() == "" {
		return nil
	}

	if err := service.LeaveMatch(ctx); err != nil {
		log.Warn("failed to leave match", "error", err)
	}

	return nil
}

// render draws the board and whose turn it is. Pure presentation; every rule
// decision already happened on the server.
func render(mirror *client.Mirror) {
	fmt.Println()
	for row := 0; row < 3; row++ {
		cells := make([]string, 3)
		for col := 0; col < 3; col++ {
			index := row*3 + col
			if mirror.Board[index] == entity.EmptyCell {
				cells[col] = strconv.Itoa(index)
			} else {
				cells[col] = mirror.Board[index]
			}
		}
		fmt.Printf(" %s | %s | %s\n", cells[0], cells[1], cells[2])
		if row < 2 {
			fmt.Println("---+---+---")
		}
	}
	fmt.Println()

	if mirror.LastMessage != "" {
		fmt.Println(mirror.LastMessage)
	}

	switch {
	case mirror.Status == entity.StatusActive && mirror.IsMyTurn():
		fmt.Printf("Your turn (%s). Pick a cell 0-8:\n", mirror.MySymbol)
	case mirror.Status == entity.StatusActive:
		fmt.Println("Opponent's turn...")
	}
}

func renderOutcome(mirror *client.Mirror) {
	switch mirror.Winner {
	case entity.WinnerDraw:
		fmt.Println("It's a draw.")
	case mirror.UserID:
		fmt.Println("You win!")
	case entity.WinnerOpponentLeft:
		fmt.Println("Opponent left — you win by forfeit.")
	default:
		fmt.Println("You lose.")
	}

	stats := mirror.Stats
	fmt.Printf("Session stats: %d won / %d lost / %d drawn\n", stats.Wins, stats.Losses, stats.Draws)
}
