package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	api "github.com/rpupo63/collage-backend/api"
	"github.com/rpupo63/collage-backend/config"
	"github.com/rpupo63/collage-backend/storage"
)

func main() {
	fmt.Println("Initializing app...")

	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: Error loading .env file: %v\n", err)
	}

	c := config.New()
	config.ConfigureLogging(c)

	startupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := config.ResolveSecrets(startupCtx, c, "ADMIN_JWT_SECRET", "CLD_API_SECRET"); err != nil {
		log.Fatal().Err(err).Msg("Error resolving secrets")
	}

	store, err := storage.Open(startupCtx, c)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing storage")
	}

	errChannel := make(chan error)
	defer close(errChannel)

	server, err := api.NewServer(store, c)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing server")
	}

	go server.Start(errChannel)

	// Listen for interrupt signals to gracefully shutdown the server
	go listenToInterrupt(errChannel)

	fatalErr := <-errChannel
	log.Info().Msgf("Closing server: %v", fatalErr)

	server.ShutdownGracefully(30 * time.Second)
}

// listenToInterrupt waits for SIGINT or SIGTERM and then sends an error to the error channel.
func listenToInterrupt(errChannel chan<- error) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	errChannel <- fmt.Errorf("%s", <-c)
}
